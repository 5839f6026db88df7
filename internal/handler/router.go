package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/aryan0dhankhar/formativa/internal/observability/metrics"
	"github.com/aryan0dhankhar/formativa/internal/security/audit"
	"github.com/aryan0dhankhar/formativa/internal/security/middleware"
)

// Handlers bundles every endpoint group served by the router.
type Handlers struct {
	Auth         *AuthHandler
	Users        *UserHandler
	Rooms        *RoomHandler
	Subjects     *SubjectHandler
	Reservations *ReservationHandler
	Health       *HealthHandler
}

// RouterConfig holds the HTTP-level knobs.
type RouterConfig struct {
	CORSAllowedOrigins []string
	LoginRateLimit     int // per client IP per minute; 0 disables
	APIRateLimit       int // per caller per minute; 0 disables
	ServiceName        string
}

// NewRouter builds the full middleware chain around the API routes.
// Outer to inner: tracing, request id and access log, CORS, trailing slash,
// authentication, rate limit, content type, metrics, routes.
func NewRouter(h Handlers, resolver middleware.IdentityResolver, auditLog *audit.Logger, cfg RouterConfig, log *slog.Logger) http.Handler {
	if log == nil {
		log = slog.Default()
	}
	if auditLog == nil {
		auditLog = audit.NewLogger(log)
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = "formativa"
	}

	mux := http.NewServeMux()

	protected := func(fn http.HandlerFunc) http.Handler {
		return middleware.RequireIdentity(middleware.AuditMiddleware(auditLog)(fn))
	}
	credentials := middleware.LoginRateLimit(cfg.LoginRateLimit, time.Minute)

	// Open routes
	mux.Handle("POST /login", credentials(http.HandlerFunc(h.Auth.Login)))
	mux.Handle("POST /token/refresh", credentials(http.HandlerFunc(h.Auth.Refresh)))
	mux.HandleFunc("POST /logout", h.Auth.Logout)
	mux.HandleFunc("GET /healthz", h.Health.Health)
	mux.HandleFunc("GET /readyz", h.Health.Ready)
	mux.Handle("GET /metrics", promhttp.Handler())

	// Identities
	mux.Handle("GET /usuario", protected(h.Users.List))
	mux.Handle("POST /usuario", protected(h.Users.Create))
	mux.Handle("GET /usuario/{id}", protected(h.Users.Retrieve))
	mux.Handle("PUT /usuario/{id}", protected(h.Users.Update))
	mux.Handle("PATCH /usuario/{id}", protected(h.Users.Update))
	mux.Handle("DELETE /usuario/{id}", protected(h.Users.Delete))

	// Rooms
	mux.Handle("GET /sala", protected(h.Rooms.List))
	mux.Handle("POST /sala", protected(h.Rooms.Create))
	mux.Handle("GET /sala/{id}", protected(h.Rooms.Retrieve))
	mux.Handle("PUT /sala/{id}", protected(h.Rooms.Update))
	mux.Handle("PATCH /sala/{id}", protected(h.Rooms.Update))
	mux.Handle("DELETE /sala/{id}", protected(h.Rooms.Delete))

	// Subjects
	mux.Handle("GET /disciplinas", protected(h.Subjects.List))
	mux.Handle("POST /disciplinas", protected(h.Subjects.Create))
	mux.Handle("GET /disciplinas/{id}", protected(h.Subjects.Retrieve))
	mux.Handle("PUT /disciplinas/{id}", protected(h.Subjects.Update))
	mux.Handle("PATCH /disciplinas/{id}", protected(h.Subjects.Update))
	mux.Handle("DELETE /disciplinas/{id}", protected(h.Subjects.Delete))
	mux.Handle("GET /professor/disciplinas", protected(h.Subjects.ListOwn))

	// Reservations
	mux.Handle("GET /reservas", protected(h.Reservations.List))
	mux.Handle("POST /reservas", protected(h.Reservations.Create))
	mux.Handle("GET /reservas/{id}", protected(h.Reservations.Retrieve))
	mux.Handle("PUT /reservas/{id}", protected(h.Reservations.Update))
	mux.Handle("PATCH /reservas/{id}", protected(h.Reservations.Update))
	mux.Handle("DELETE /reservas/{id}", protected(h.Reservations.Delete))
	mux.Handle("GET /professor/reservas", protected(h.Reservations.ListOwn))

	var handler http.Handler = metrics.HTTPMetricsMiddleware(mux)
	handler = middleware.ValidateJSONContentType(log)(handler)
	handler = middleware.RateLimitMiddleware(cfg.APIRateLimit, time.Minute, log)(handler)
	handler = middleware.Authenticate(resolver, log)(handler)
	handler = middleware.StripTrailingSlash(handler)
	handler = cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	})(handler)
	handler = withRequestID(handler, log)
	return otelhttp.NewHandler(handler, cfg.ServiceName)
}

// withRequestID attaches a request ID to the context and response headers
// and logs the completed request.
func withRequestID(next http.Handler, log *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get("X-Request-ID")
		if reqID == "" {
			reqID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", reqID)

		ctx := audit.WithRequestID(r.Context(), reqID)
		start := time.Now()
		sw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(sw, r.WithContext(ctx))

		log.Info("request completed",
			slog.String("request_id", reqID),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", sw.status),
			slog.Duration("duration", time.Since(start)),
		)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (w *statusRecorder) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
