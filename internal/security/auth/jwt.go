package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/aryan0dhankhar/formativa/internal/domain"
)

// TokenType distinguishes short-lived access tokens from refresh tokens.
type TokenType string

const (
	TokenAccess  TokenType = "access"
	TokenRefresh TokenType = "refresh"
)

var ErrWrongTokenType = errors.New("wrong token type")

type Claims struct {
	TokenType TokenType `json:"token_type"`
	UserID    int64     `json:"user_id"`
	Username  string    `json:"username"`
	Role      string    `json:"tipo"`
	jwt.RegisteredClaims
}

// TokenPair is what a successful login hands back.
type TokenPair struct {
	Access         string
	Refresh        string
	RefreshID      string
	RefreshExpires time.Time
}

type TokenManager struct {
	secret     string
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewTokenManager(secret, issuer string, accessTTL, refreshTTL time.Duration) *TokenManager {
	if secret == "" {
		secret = "change-me-in-production"
	}
	if issuer == "" {
		issuer = "formativa"
	}
	if accessTTL <= 0 {
		accessTTL = 5 * time.Minute
	}
	if refreshTTL <= 0 {
		refreshTTL = 24 * time.Hour
	}
	return &TokenManager{secret: secret, issuer: issuer, accessTTL: accessTTL, refreshTTL: refreshTTL, now: time.Now}
}

// AccessTTL reports how long issued access tokens live.
func (tm *TokenManager) AccessTTL() time.Duration { return tm.accessTTL }

// IssuePair signs a fresh access and refresh token for user.
func (tm *TokenManager) IssuePair(user *domain.User) (*TokenPair, error) {
	access, _, _, err := tm.generate(user.ID, user.Username, user.Role, TokenAccess, tm.accessTTL)
	if err != nil {
		return nil, err
	}
	refresh, jti, exp, err := tm.generate(user.ID, user.Username, user.Role, TokenRefresh, tm.refreshTTL)
	if err != nil {
		return nil, err
	}
	return &TokenPair{Access: access, Refresh: refresh, RefreshID: jti, RefreshExpires: exp}, nil
}

// GenerateAccess signs a new access token from validated refresh claims.
func (tm *TokenManager) GenerateAccess(c *Claims) (string, error) {
	token, _, _, err := tm.generate(c.UserID, c.Username, domain.Role(c.Role), TokenAccess, tm.accessTTL)
	return token, err
}

func (tm *TokenManager) generate(userID int64, username string, role domain.Role, typ TokenType, ttl time.Duration) (string, string, time.Time, error) {
	if userID == 0 || username == "" {
		return "", "", time.Time{}, fmt.Errorf("user_id and username required")
	}
	now := tm.now()
	exp := now.Add(ttl)
	jti := uuid.NewString()
	claims := Claims{
		TokenType: typ,
		UserID:    userID,
		Username:  username,
		Role:      string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   fmt.Sprintf("%d", userID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
			Issuer:    tm.issuer,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(tm.secret))
	if err != nil {
		return "", "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, jti, exp, nil
}

// ValidateToken parses tokenString and checks signature, expiry, issuer and type.
func (tm *TokenManager) ValidateToken(tokenString string, want TokenType) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(tm.secret), nil
	}, jwt.WithIssuer(tm.issuer), jwt.WithTimeFunc(tm.now))
	if err != nil {
		return nil, fmt.Errorf("parse token failed: %w", err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	if claims.TokenType != want {
		return nil, ErrWrongTokenType
	}
	return claims, nil
}

func ExtractToken(authHeader string) (string, error) {
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", fmt.Errorf("invalid authorization header")
	}
	return parts[1], nil
}
