package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "formativa_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "formativa_http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	reservationWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "formativa_reservation_writes_total",
		Help: "Reservation create/update attempts by outcome",
	}, []string{"operation", "result"})

	reservationWriteDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "formativa_reservation_write_duration_seconds",
		Help:    "Time spent holding the slot lock for reservation writes",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	loginAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "formativa_login_attempts_total",
		Help: "Login and token refresh attempts by result",
	}, []string{"kind", "result"})

	authorizationDenials = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "formativa_authorization_denials_total",
		Help: "Requests rejected by the authorization policy",
	}, []string{"resource", "action"})

	sessionSweeps = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "formativa_session_sweeps_total",
		Help: "Expired-session sweeps by result",
	}, []string{"result"})

	sessionsSwept = promauto.NewCounter(prometheus.CounterOpts{
		Name: "formativa_sessions_swept_total",
		Help: "Expired sessions removed by the sweeper",
	})
)

// ObserveHTTPRequest records an HTTP request metric
func ObserveHTTPRequest(method, path, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	httpRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// ObserveReservationWrite records a reservation write with its outcome
// ("success", "conflict", "invalid", "error").
func ObserveReservationWrite(operation, result string, duration time.Duration) {
	reservationWrites.WithLabelValues(operation, result).Inc()
	reservationWriteDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// ObserveLogin counts a credential exchange; kind is "login" or "refresh".
func ObserveLogin(kind, result string) {
	loginAttempts.WithLabelValues(kind, result).Inc()
}

// ObserveDenial counts a policy denial.
func ObserveDenial(resource, action string) {
	authorizationDenials.WithLabelValues(resource, action).Inc()
}

// ObserveSessionSweep records one sweeper pass.
func ObserveSessionSweep(result string, removed int) {
	sessionSweeps.WithLabelValues(result).Inc()
	sessionsSwept.Add(float64(removed))
}
