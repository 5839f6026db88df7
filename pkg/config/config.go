package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/aryan0dhankhar/formativa/pkg/database"
)

// DefaultConfigPaths lists the config files searched when CONFIG_PATH is unset
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/formativa/config.yaml",
}

// ConfigPathEnvVar overrides the config file path
const ConfigPathEnvVar = "CONFIG_PATH"

const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"

	defaultJWTSecret = "change-me-in-production"
)

// Config holds the application configuration. Keys are the lower-cased
// environment variable names, so SERVER_PORT and server_port in YAML are the
// same setting.
type Config struct {
	Environment        string   `koanf:"environment"`
	ServerPort         int      `koanf:"server_port"`
	LogLevel           string   `koanf:"log_level"`
	CORSAllowedOrigins []string `koanf:"cors_allowed_origins"`

	StorageDriver  string `koanf:"storage_driver"`
	DBHost         string `koanf:"db_host"`
	DBPort         int    `koanf:"db_port"`
	DBUser         string `koanf:"db_user"`
	DBPassword     string `koanf:"db_password"`
	DBName         string `koanf:"db_name"`
	DBSSLMode      string `koanf:"db_sslmode"`
	DBMaxOpenConns int    `koanf:"db_max_open_conns"`
	DBMaxIdleConns int    `koanf:"db_max_idle_conns"`

	DBConnMaxLifetime time.Duration `koanf:"db_conn_max_lifetime"`

	// Empty RedisURL keeps refresh-token sessions in process memory.
	RedisURL             string        `koanf:"redis_url"`
	SessionSweepInterval time.Duration `koanf:"session_sweep_interval"`

	JWTSecret     string        `koanf:"jwt_secret"`
	JWTIssuer     string        `koanf:"jwt_issuer"`
	JWTAccessTTL  time.Duration `koanf:"jwt_access_ttl"`
	JWTRefreshTTL time.Duration `koanf:"jwt_refresh_ttl"`
	BcryptCost    int           `koanf:"bcrypt_cost"`

	LoginRateLimit int `koanf:"login_rate_limit"` // per IP per minute
	APIRateLimit   int `koanf:"api_rate_limit"`   // per caller per minute

	// Seeds a manager at startup when both are set; mainly for memory storage.
	BootstrapManagerUsername string `koanf:"bootstrap_manager_username"`
	BootstrapManagerPassword string `koanf:"bootstrap_manager_password"`

	OTELEndpoint    string        `koanf:"otel_exporter_otlp_endpoint"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

func defaultConfig() *Config {
	return &Config{
		Environment:        "development",
		ServerPort:         8080,
		LogLevel:           "info",
		CORSAllowedOrigins: []string{"http://localhost:5173", "http://localhost:3000"},
		StorageDriver:      StorageDriverPostgres,
		DBHost:             "localhost",
		DBPort:             5432,
		DBUser:             "formativa",
		DBPassword:         "dev",
		DBName:             "formativa",
		DBSSLMode:          "disable",
		DBMaxOpenConns:     25,
		DBMaxIdleConns:     5,
		JWTSecret:          defaultJWTSecret,
		JWTIssuer:          "formativa",
		JWTAccessTTL:       5 * time.Minute,
		JWTRefreshTTL:      24 * time.Hour,
		BcryptCost:         12,
		LoginRateLimit:     10,
		APIRateLimit:       300,
		ShutdownTimeout:    10 * time.Second,

		DBConnMaxLifetime:    5 * time.Minute,
		SessionSweepInterval: 5 * time.Minute,
	}
}

// Load layers defaults, an optional YAML file and environment variables
// (highest priority).
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", strings.ToLower), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	cfg.CORSAllowedOrigins = trimList(cfg.CORSAllowedOrigins)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// Validate rejects settings the server cannot start with
func (c *Config) Validate() error {
	var errs []error
	if c.ServerPort <= 0 || c.ServerPort > 65535 {
		errs = append(errs, fmt.Errorf("server_port %d out of range", c.ServerPort))
	}
	if c.StorageDriver != StorageDriverPostgres && c.StorageDriver != StorageDriverMemory {
		errs = append(errs, fmt.Errorf("storage_driver must be %q or %q, got %q", StorageDriverPostgres, StorageDriverMemory, c.StorageDriver))
	}
	if c.JWTAccessTTL <= 0 || c.JWTRefreshTTL <= 0 {
		errs = append(errs, errors.New("jwt ttls must be positive"))
	}
	if c.IsProduction() && (c.JWTSecret == "" || c.JWTSecret == defaultJWTSecret) {
		errs = append(errs, errors.New("jwt_secret must be set in production"))
	}
	return errors.Join(errs...)
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

// Database returns the connection settings for pkg/database
func (c *Config) Database() *database.Config {
	return &database.Config{
		Host:            c.DBHost,
		Port:            c.DBPort,
		User:            c.DBUser,
		Password:        c.DBPassword,
		Database:        c.DBName,
		SSLMode:         c.DBSSLMode,
		MaxOpenConns:    c.DBMaxOpenConns,
		MaxIdleConns:    c.DBMaxIdleConns,
		ConnMaxLifetime: c.DBConnMaxLifetime,
	}
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

func trimList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
