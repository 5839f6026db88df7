package handler

import (
	"log/slog"
	"net/http"

	"github.com/aryan0dhankhar/formativa/internal/domain"
	"github.com/aryan0dhankhar/formativa/internal/service"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	authService *service.AuthService
	logger      *slog.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *service.AuthService, logger *slog.Logger) *AuthHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return &AuthHandler{
		authService: authService,
		logger:      logger,
	}
}

// LoginRequest represents login credentials
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// RefreshRequest carries a refresh token
type RefreshRequest struct {
	Refresh string `json:"refresh"`
}

// UserSummary is the identity block returned with a login
type UserSummary struct {
	Username string      `json:"username"`
	Email    string      `json:"email"`
	Role     domain.Role `json:"tipo"`
}

// LoginResponse contains the token pair and who it belongs to
type LoginResponse struct {
	Access  string      `json:"access"`
	Refresh string      `json:"refresh"`
	User    UserSummary `json:"user"`
}

// AccessResponse contains a refreshed access token
type AccessResponse struct {
	Access string `json:"access"`
}

// Login handles POST /login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	result, err := h.authService.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, LoginResponse{
		Access:  result.Access,
		Refresh: result.Refresh,
		User: UserSummary{
			Username: result.User.Username,
			Email:    result.User.Email,
			Role:     result.User.Role,
		},
	})
}

// Refresh handles POST /token/refresh
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	access, err := h.authService.Refresh(r.Context(), req.Refresh)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, AccessResponse{Access: access})
}

// Logout handles POST /logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	if err := h.authService.Logout(r.Context(), req.Refresh); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, DetailResponse{Detail: "Sessão encerrada com sucesso."})
}
