package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq"
)

// Config carries the Postgres settings resolved by pkg/config. Zero pool
// limits leave database/sql's own behaviour in place.
type Config struct {
	Host            string
	Port            int
	User            string
	Password        string
	Database        string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DSN renders the libpq key/value connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}

// ConnectionPool is the *sql.DB shared by the postgres repositories.
type ConnectionPool struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewConnectionPool opens and pings the reservation database.
func NewConnectionPool(ctx context.Context, cfg *Config, logger *slog.Logger) (*ConnectionPool, error) {
	return open(ctx, cfg.DSN(), cfg, logger)
}

// NewConnectionPoolFromDSN opens a pool from a libpq connection string, as
// handed out by test containers.
func NewConnectionPoolFromDSN(ctx context.Context, dsn string, logger *slog.Logger) (*ConnectionPool, error) {
	return open(ctx, dsn, &Config{}, logger)
}

func open(ctx context.Context, dsn string, cfg *Config, logger *slog.Logger) (*ConnectionPool, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("reservation database connected",
		slog.String("host", cfg.Host),
		slog.String("database", cfg.Database),
		slog.Int("max_open_conns", cfg.MaxOpenConns),
	)
	return &ConnectionPool{db: db, logger: logger}, nil
}

// GetDB returns the underlying sql.DB
func (cp *ConnectionPool) GetDB() *sql.DB {
	return cp.db
}

func (cp *ConnectionPool) Close() error {
	if cp.db != nil {
		return cp.db.Close()
	}
	return nil
}

// Health pings the database for /readyz.
func (cp *ConnectionPool) Health(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return cp.db.PingContext(pingCtx)
}
