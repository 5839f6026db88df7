package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aryan0dhankhar/formativa/internal/domain"
	"github.com/aryan0dhankhar/formativa/internal/handler"
	"github.com/aryan0dhankhar/formativa/internal/infrastructure/logger"
	"github.com/aryan0dhankhar/formativa/internal/infrastructure/redis"
	"github.com/aryan0dhankhar/formativa/internal/observability/tracing"
	"github.com/aryan0dhankhar/formativa/internal/reliability/retry"
	"github.com/aryan0dhankhar/formativa/internal/repository"
	"github.com/aryan0dhankhar/formativa/internal/repository/memory"
	"github.com/aryan0dhankhar/formativa/internal/scheduling"
	"github.com/aryan0dhankhar/formativa/internal/security"
	"github.com/aryan0dhankhar/formativa/internal/security/audit"
	"github.com/aryan0dhankhar/formativa/internal/security/auth"
	"github.com/aryan0dhankhar/formativa/internal/service"
	"github.com/aryan0dhankhar/formativa/internal/worker"
	"github.com/aryan0dhankhar/formativa/pkg/config"
	"github.com/aryan0dhankhar/formativa/pkg/database"
)

// storage is the set of repositories selected by STORAGE_DRIVER.
type storage struct {
	users        domain.UserRepository
	rooms        domain.RoomRepository
	subjects     domain.SubjectRepository
	reservations domain.ReservationRepository
	health       handler.Pinger
	close        func() error
}

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. Initialize structured logger
	log := logger.NewLogger(cfg.LogLevel)
	log.Info("starting formativa server",
		slog.String("environment", cfg.Environment),
		slog.String("storage", cfg.StorageDriver),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 3. Tracing (no-op without an OTLP endpoint)
	shutdownTracing, err := tracing.Init(ctx, log, cfg.OTELEndpoint, "formativa", cfg.Environment)
	if err != nil {
		log.Error("failed to initialize tracing", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 4. Storage and sessions
	store, err := openStorage(ctx, cfg, log)
	if err != nil {
		log.Error("failed to open storage", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer store.close()

	sessions, sessionHealth, closeSessions, err := openSessions(ctx, cfg, log)
	if err != nil {
		log.Error("failed to open session store", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer closeSessions()

	if sweepable, ok := sessions.(worker.Sweeper); ok {
		go worker.NewSessionSweeper(sweepable, log, cfg.SessionSweepInterval).Start(ctx)
	}

	// 5. Security components
	auditLogger := audit.NewLogger(log)
	policy := security.NewPolicy(log, auditLogger)
	tokenManager := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAccessTTL, cfg.JWTRefreshTTL)
	hasher := auth.NewPasswordHasher(cfg.BcryptCost)

	// 6. Services
	authService := service.NewAuthService(store.users, sessions, tokenManager, hasher, auditLogger, log)
	userService := service.NewUserService(store.users, hasher, policy, auditLogger, log)
	roomService := service.NewRoomService(store.rooms, policy, auditLogger, log)
	subjectService := service.NewSubjectService(store.subjects, store.users, policy, auditLogger, log)
	reservationService := service.NewReservationService(service.ReservationDeps{
		Reservations: store.reservations,
		Rooms:        store.rooms,
		Subjects:     store.subjects,
		Users:        store.users,
	}, scheduling.NewValidator(log), policy, auditLogger, log)

	if cfg.BootstrapManagerUsername != "" && cfg.BootstrapManagerPassword != "" {
		bootstrapManager(ctx, userService, cfg, log)
	}

	// 7. Handlers and routes
	router := handler.NewRouter(handler.Handlers{
		Auth:         handler.NewAuthHandler(authService, log),
		Users:        handler.NewUserHandler(userService, log),
		Rooms:        handler.NewRoomHandler(roomService, log),
		Subjects:     handler.NewSubjectHandler(subjectService, log),
		Reservations: handler.NewReservationHandler(reservationService, log),
		Health: handler.NewHealthHandler(map[string]handler.Pinger{
			"database": store.health,
			"sessions": sessionHealth,
		}, log),
	}, authService, auditLogger, handler.RouterConfig{
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		LoginRateLimit:     cfg.LoginRateLimit,
		APIRateLimit:       cfg.APIRateLimit,
	}, log)

	// 8. Start HTTP server
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("server starting",
			slog.Int("port", cfg.ServerPort),
			slog.Int("login_rate_limit", cfg.LoginRateLimit),
			slog.Int("api_rate_limit", cfg.APIRateLimit),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", slog.String("error", err.Error()))
			stop()
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()
	log.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", slog.String("error", err.Error()))
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error("tracing shutdown error", slog.String("error", err.Error()))
	}
	log.Info("server stopped")
}

// openStorage connects to PostgreSQL (retrying while it starts up) or builds
// the in-memory store.
func openStorage(ctx context.Context, cfg *config.Config, log *slog.Logger) (*storage, error) {
	if cfg.StorageDriver == config.StorageDriverMemory {
		log.Warn("using in-memory storage; data is lost on restart")
		store := memory.NewStore()
		return &storage{
			users:        store.Users(),
			rooms:        store.Rooms(),
			subjects:     store.Subjects(),
			reservations: store.Reservations(),
			health:       store,
			close:        func() error { return nil },
		}, nil
	}

	pool, err := retry.Do(ctx, retry.StartupConfig(), log, "connect postgres", func(ctx context.Context) (*database.ConnectionPool, error) {
		return database.NewConnectionPool(ctx, cfg.Database(), log)
	})
	if err != nil {
		return nil, err
	}
	db := pool.GetDB()
	return &storage{
		users:        repository.NewPostgresUserRepository(db, log),
		rooms:        repository.NewPostgresRoomRepository(db, log),
		subjects:     repository.NewPostgresSubjectRepository(db, log),
		reservations: repository.NewPostgresReservationRepository(db, log),
		health:       pingFunc(pool.Health),
		close:        pool.Close,
	}, nil
}

// openSessions connects to Redis when configured, falling back to an
// in-process session store.
func openSessions(ctx context.Context, cfg *config.Config, log *slog.Logger) (domain.SessionRepository, handler.Pinger, func() error, error) {
	if cfg.RedisURL == "" {
		log.Warn("REDIS_URL not set; refresh sessions are kept in memory")
		sessions := memory.NewSessionStore()
		return sessions, sessions, func() error { return nil }, nil
	}

	client, err := retry.Do(ctx, retry.StartupConfig(), log, "connect redis", func(ctx context.Context) (*redis.Client, error) {
		return redis.NewClient(ctx, cfg.RedisURL, log)
	})
	if err != nil {
		return nil, nil, nil, err
	}
	sessions := repository.NewRedisSessionRepository(client, log)
	return sessions, sessions, client.Close, nil
}

// bootstrapManager seeds the first manager so a fresh deployment can log in.
// An existing username is left untouched.
func bootstrapManager(ctx context.Context, users *service.UserService, cfg *config.Config, log *slog.Logger) {
	today := domain.DateOf(time.Now())
	ni := int64(0)
	_, err := users.CreateManager(ctx, service.UserFields{
		Username:  &cfg.BootstrapManagerUsername,
		Password:  &cfg.BootstrapManagerPassword,
		NI:        &ni,
		BirthDate: &today,
		HireDate:  &today,
	})
	var ve *domain.ValidationError
	switch {
	case err == nil:
	case errors.As(err, &ve):
		log.Info("bootstrap manager skipped", slog.String("username", cfg.BootstrapManagerUsername), slog.String("reason", ve.Error()))
	default:
		log.Error("failed to bootstrap manager", slog.String("error", err.Error()))
	}
}

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }
