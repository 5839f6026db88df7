package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv(ConfigPathEnvVar, filepath.Join(t.TempDir(), "missing.yaml"))
	t.Chdir(t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ServerPort != 8080 || cfg.StorageDriver != StorageDriverPostgres || cfg.JWTAccessTTL != 5*time.Minute {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if len(cfg.CORSAllowedOrigins) != 2 {
		t.Fatalf("origins = %v", cfg.CORSAllowedOrigins)
	}
	if cfg.SessionSweepInterval != 5*time.Minute {
		t.Fatalf("session sweep interval = %v", cfg.SessionSweepInterval)
	}
}

func TestLoadFileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := "server_port: 9090\nstorage_driver: memory\njwt_refresh_ttl: 2h\ndb_name: from_file\n"
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("DB_NAME", "from_env")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("JWT_ACCESS_TTL", "90s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ServerPort != 9090 || cfg.StorageDriver != StorageDriverMemory {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if cfg.DBName != "from_env" {
		t.Fatalf("env should override file, got %q", cfg.DBName)
	}
	if cfg.JWTAccessTTL != 90*time.Second || cfg.JWTRefreshTTL != 2*time.Hour {
		t.Fatalf("ttls = %v / %v", cfg.JWTAccessTTL, cfg.JWTRefreshTTL)
	}
	if strings.Join(cfg.CORSAllowedOrigins, "|") != "https://a.example|https://b.example" {
		t.Fatalf("origins = %q", cfg.CORSAllowedOrigins)
	}
	db := cfg.Database()
	if db.Database != "from_env" || db.Port != 5432 {
		t.Fatalf("database config = %+v", db)
	}
	if db.MaxOpenConns != 25 || db.MaxIdleConns != 5 || db.ConnMaxLifetime != 5*time.Minute {
		t.Fatalf("pool defaults = %d/%d/%v", db.MaxOpenConns, db.MaxIdleConns, db.ConnMaxLifetime)
	}
	if want := "host=localhost port=5432 user=formativa password=dev dbname=from_env sslmode=disable"; db.DSN() != want {
		t.Fatalf("dsn = %q", db.DSN())
	}
}

func TestValidate(t *testing.T) {
	cfg := defaultConfig()
	cfg.StorageDriver = "sqlite"
	cfg.Environment = "production"
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"storage_driver", "jwt_secret"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q should mention %s", err, want)
		}
	}
}
