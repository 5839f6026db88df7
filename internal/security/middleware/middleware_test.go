package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aryan0dhankhar/formativa/internal/domain"
)

type stubResolver struct {
	identity *domain.Identity
	err      error
	seen     string
}

func (s *stubResolver) ResolveIdentity(_ context.Context, token string) (*domain.Identity, error) {
	s.seen = token
	return s.identity, s.err
}

func captureIdentity(got **domain.Identity) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*got = IdentityFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestAuthenticateAnonymous(t *testing.T) {
	var got *domain.Identity
	h := Authenticate(&stubResolver{}, nil)(captureIdentity(&got))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sala", nil))
	if rec.Code != http.StatusNoContent || got != nil {
		t.Fatalf("code=%d identity=%v", rec.Code, got)
	}
}

func TestAuthenticateValidToken(t *testing.T) {
	want := &domain.Identity{UserID: 4, Username: "ana", Role: domain.RoleTeacher}
	resolver := &stubResolver{identity: want}
	var got *domain.Identity
	h := Authenticate(resolver, nil)(captureIdentity(&got))

	req := httptest.NewRequest(http.MethodGet, "/sala", nil)
	req.Header.Set("Authorization", "Bearer tok")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent || got != want || resolver.seen != "tok" {
		t.Fatalf("code=%d identity=%v seen=%q", rec.Code, got, resolver.seen)
	}
}

func TestAuthenticateRejectsBadTokens(t *testing.T) {
	for _, tc := range []struct {
		header string
		err    error
	}{
		{"Token abc", nil},
		{"Bearer abc", domain.ErrInvalidToken},
		{"Bearer abc", errors.New("db down")},
	} {
		var got *domain.Identity
		h := Authenticate(&stubResolver{err: tc.err}, nil)(captureIdentity(&got))
		req := httptest.NewRequest(http.MethodGet, "/sala", nil)
		req.Header.Set("Authorization", tc.header)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("header %q: code=%d", tc.header, rec.Code)
		}
		if !strings.Contains(rec.Body.String(), `"message"`) {
			t.Errorf("header %q: body %s", tc.header, rec.Body.String())
		}
	}
}

func TestStripTrailingSlash(t *testing.T) {
	var path string
	h := StripTrailingSlash(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
	}))
	for in, want := range map[string]string{"/sala/": "/sala", "/sala/3/": "/sala/3", "/": "/", "/sala": "/sala"} {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, in, nil))
		if path != want {
			t.Errorf("%s -> %s, want %s", in, path, want)
		}
	}
}

func TestRateLimitByUser(t *testing.T) {
	h := RateLimitMiddleware(1, time.Minute, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	call := func(id int64) int {
		req := httptest.NewRequest(http.MethodGet, "/sala", nil)
		req = req.WithContext(WithIdentity(req.Context(), &domain.Identity{UserID: id}))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}
	if call(1) != http.StatusOK {
		t.Fatalf("first request limited")
	}
	if call(1) != http.StatusTooManyRequests {
		t.Fatalf("second request for same user not limited")
	}
	if call(2) != http.StatusOK {
		t.Fatalf("other user limited")
	}
}

func TestValidateJSONContentType(t *testing.T) {
	h := ValidateJSONContentType(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	req := httptest.NewRequest(http.MethodPost, "/sala", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "text/plain")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("code=%d", rec.Code)
	}
}
