package config

import (
	"os"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"APP_ENV", "NODE_ENV", "APP_VERSION", "HTTP_HOST", "HTTP_PORT", "PORT", "CLIENT_URL",
		"HTTP_MAX_BODY_BYTES", "DB_DSN", "DB_HOST", "DB_PORT", "DB_NAME", "DB_USER", "DB_PASSWORD",
		"DB_PING_INTERVAL", "JWT_ACCESS_SECRET",
	} {
		t.Setenv(key, "")
	}
	dir := t.TempDir()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("DB_DSN", "postgres://localhost/pointage_app")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Environment != "development" || !cfg.IsDevelopment() {
		t.Errorf("Environment = %q, want development", cfg.Environment)
	}
	if cfg.HTTP.Port != 5000 {
		t.Errorf("HTTP.Port = %d, want 5000", cfg.HTTP.Port)
	}
	if cfg.Version != "1.0.0" {
		t.Errorf("Version = %q, want 1.0.0", cfg.Version)
	}
	if cfg.DB.PingInterval != 30*time.Second {
		t.Errorf("PingInterval = %v, want 30s", cfg.DB.PingInterval)
	}
}

func TestLoadBuildsDSNFromParts(t *testing.T) {
	clearEnv(t)
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_NAME", "pointage_app")
	t.Setenv("DB_USER", "postgres")
	t.Setenv("DB_PASSWORD", "s3cr:t")
	t.Setenv("PORT", "8081")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := "postgres://postgres:s3cr%3At@db:5432/pointage_app"
	if cfg.DB.DSN != want {
		t.Errorf("DSN = %q, want %q", cfg.DB.DSN, want)
	}
	if cfg.HTTP.Port != 8081 {
		t.Errorf("HTTP.Port = %d, want 8081", cfg.HTTP.Port)
	}
}

func TestLoadRequiresDatabase(t *testing.T) {
	clearEnv(t)
	if _, err := Load(); err == nil {
		t.Fatal("expected error without database settings")
	}
}

func TestLoadRejectsBadPingInterval(t *testing.T) {
	clearEnv(t)
	t.Setenv("DB_DSN", "postgres://localhost/pointage_app")
	t.Setenv("DB_PING_INTERVAL", "often")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for invalid DB_PING_INTERVAL")
	}
}
