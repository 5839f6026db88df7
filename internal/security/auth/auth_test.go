package auth

import (
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/aryan0dhankhar/formativa/internal/domain"
)

func testUser() *domain.User {
	return &domain.User{ID: 42, Username: "ana", Role: domain.RoleTeacher}
}

func TestIssueAndValidatePair(t *testing.T) {
	tm := NewTokenManager("secret", "test", time.Minute, time.Hour)
	pair, err := tm.IssuePair(testUser())
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if pair.RefreshID == "" || pair.Access == pair.Refresh {
		t.Fatalf("unexpected pair %+v", pair)
	}

	claims, err := tm.ValidateToken(pair.Access, TokenAccess)
	if err != nil {
		t.Fatalf("validate access: %v", err)
	}
	if claims.UserID != 42 || claims.Username != "ana" || claims.Role != "P" {
		t.Fatalf("unexpected claims %+v", claims)
	}

	refresh, err := tm.ValidateToken(pair.Refresh, TokenRefresh)
	if err != nil {
		t.Fatalf("validate refresh: %v", err)
	}
	if refresh.ID != pair.RefreshID {
		t.Fatalf("jti mismatch: %s != %s", refresh.ID, pair.RefreshID)
	}
}

func TestValidateRejectsWrongType(t *testing.T) {
	tm := NewTokenManager("secret", "test", time.Minute, time.Hour)
	pair, _ := tm.IssuePair(testUser())
	if _, err := tm.ValidateToken(pair.Refresh, TokenAccess); !errors.Is(err, ErrWrongTokenType) {
		t.Fatalf("expected ErrWrongTokenType, got %v", err)
	}
}

func TestValidateRejectsExpiredAndForeign(t *testing.T) {
	tm := NewTokenManager("secret", "test", time.Minute, time.Hour)
	tm.now = func() time.Time { return time.Now().Add(-2 * time.Minute) }
	pair, err := tm.IssuePair(testUser())
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	tm.now = time.Now
	if _, err := tm.ValidateToken(pair.Access, TokenAccess); err == nil {
		t.Fatalf("expected expired token to fail")
	}

	other := NewTokenManager("other-secret", "test", time.Minute, time.Hour)
	fresh, _ := other.IssuePair(testUser())
	if _, err := tm.ValidateToken(fresh.Access, TokenAccess); err == nil {
		t.Fatalf("expected foreign signature to fail")
	}
}

func TestExtractToken(t *testing.T) {
	if tok, err := ExtractToken("Bearer abc"); err != nil || tok != "abc" {
		t.Fatalf("got %q, %v", tok, err)
	}
	for _, h := range []string{"", "abc", "Basic abc", "Bearer a b"} {
		if _, err := ExtractToken(h); err == nil {
			t.Errorf("expected error for %q", h)
		}
	}
}

func TestPasswordHasher(t *testing.T) {
	h := NewPasswordHasher(bcrypt.MinCost)
	hash, err := h.Hash("s3nha-forte")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if hash == "s3nha-forte" {
		t.Fatalf("hash equals plaintext")
	}
	if ok, err := h.Verify(hash, "s3nha-forte"); !ok || err != nil {
		t.Fatalf("verify correct: %v %v", ok, err)
	}
	if ok, err := h.Verify(hash, "errada"); ok || err != nil {
		t.Fatalf("verify wrong: %v %v", ok, err)
	}
	if _, err := h.Verify("not-a-hash", "x"); err == nil {
		t.Fatalf("expected error for malformed hash")
	}
}
