package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/httprate"
	"github.com/goccy/go-json"

	"github.com/aryan0dhankhar/formativa/internal/domain"
	"github.com/aryan0dhankhar/formativa/internal/security/audit"
	"github.com/aryan0dhankhar/formativa/internal/security/auth"
)

type IdentityContextKey struct{}

// IdentityResolver turns a raw access token into the caller's identity,
// reloading the user so removed or deactivated accounts lose access at once.
type IdentityResolver interface {
	ResolveIdentity(ctx context.Context, accessToken string) (*domain.Identity, error)
}

// Authenticate resolves the bearer token into an identity. Requests without
// an Authorization header continue anonymously; endpoints decide whether
// that is acceptable.
func Authenticate(resolver IdentityResolver, log *slog.Logger) func(http.Handler) http.Handler {
	if log == nil {
		log = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				next.ServeHTTP(w, r)
				return
			}

			tokenString, err := auth.ExtractToken(authHeader)
			if err != nil {
				writeMessage(w, http.StatusUnauthorized, "Cabeçalho de autorização inválido.")
				return
			}

			identity, err := resolver.ResolveIdentity(r.Context(), tokenString)
			if err != nil {
				if !errors.Is(err, domain.ErrInvalidToken) {
					log.Error("resolve identity failed", slog.String("error", err.Error()))
				}
				writeMessage(w, http.StatusUnauthorized, domain.ErrInvalidToken.Error())
				return
			}

			ctx := context.WithValue(r.Context(), IdentityContextKey{}, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// IdentityFromContext returns the authenticated caller, or nil when anonymous.
func IdentityFromContext(ctx context.Context) *domain.Identity {
	if id, ok := ctx.Value(IdentityContextKey{}).(*domain.Identity); ok {
		return id
	}
	return nil
}

// WithIdentity stores identity in ctx.
func WithIdentity(ctx context.Context, identity *domain.Identity) context.Context {
	return context.WithValue(ctx, IdentityContextKey{}, identity)
}

// RateLimitMiddleware limits requests per authenticated user, falling back to
// the client IP for anonymous callers.
func RateLimitMiddleware(requests int, window time.Duration, log *slog.Logger) func(http.Handler) http.Handler {
	if requests <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	if log == nil {
		log = slog.Default()
	}
	return httprate.Limit(requests, window,
		httprate.WithKeyFuncs(func(r *http.Request) (string, error) {
			if id := IdentityFromContext(r.Context()); id != nil {
				return "user:" + strconv.FormatInt(id.UserID, 10), nil
			}
			return httprate.KeyByIP(r)
		}),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			log.Warn("rate limit exceeded", slog.String("path", r.URL.Path))
			writeMessage(w, http.StatusTooManyRequests, "Limite de requisições excedido.")
		}),
	)
}

// LoginRateLimit throttles credential endpoints per client IP.
func LoginRateLimit(requests int, window time.Duration) func(http.Handler) http.Handler {
	if requests <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return httprate.Limit(requests, window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			writeMessage(w, http.StatusTooManyRequests, "Muitas tentativas de login. Tente novamente mais tarde.")
		}),
	)
}

func AuditMiddleware(auditLog *audit.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
				auditLog.LogAction(r.Context(), IdentityFromContext(r.Context()),
					strings.ToLower(r.Method), resourceFromPath(r.URL.Path), r.PathValue("id"), "initiated", "")
			}
			next.ServeHTTP(w, r)
		})
	}
}

// StripTrailingSlash makes "/sala/" and "/sala" route identically.
func StripTrailingSlash(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if p := r.URL.Path; len(p) > 1 && strings.HasSuffix(p, "/") {
			r2 := r.Clone(r.Context())
			r2.URL.Path = strings.TrimRight(p, "/")
			if r2.URL.Path == "" {
				r2.URL.Path = "/"
			}
			r2.URL.RawPath = ""
			r = r2
		}
		next.ServeHTTP(w, r)
	})
}

func resourceFromPath(path string) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) == 0 || parts[0] == "" {
		return "api"
	}
	if parts[0] == "professor" && len(parts) > 1 {
		return parts[1]
	}
	return parts[0]
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": message})
}

// RequireIdentity rejects anonymous callers before the handler reads the
// request body.
func RequireIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if IdentityFromContext(r.Context()) == nil {
			writeMessage(w, http.StatusUnauthorized, domain.ErrUnauthenticated.Error())
			return
		}
		next.ServeHTTP(w, r)
	})
}
