package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaultsAndYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  port: 9090
  mode: release
database:
  dsn: "file:test.db"
jwt:
  secret: "yaml-secret"
  expiry-hours: 2
`
	if errWrite := os.WriteFile(path, []byte(content), 0o644); errWrite != nil {
		t.Fatalf("write config: %v", errWrite)
	}

	cfg, errLoad := Load(path)
	if errLoad != nil {
		t.Fatalf("load: %v", errLoad)
	}
	if cfg.Server.Port != 9090 {
		t.Fatalf("port = %d, want 9090", cfg.Server.Port)
	}
	if !cfg.IsProduction() {
		t.Fatal("release mode should report production")
	}
	if cfg.Addr() != "0.0.0.0:9090" {
		t.Fatalf("addr = %q", cfg.Addr())
	}
	if cfg.JWT.Expiry() != 2*time.Hour {
		t.Fatalf("expiry = %s, want 2h", cfg.JWT.Expiry())
	}
	if cfg.Server.RequestTimeoutSeconds != 30 {
		t.Fatalf("request timeout default = %d", cfg.Server.RequestTimeoutSeconds)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("DATABASE_DSN", "file:env.db")
	t.Setenv("JWT_SECRET", "env-secret")
	t.Setenv("PORT", "7070")

	cfg, errLoad := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if errLoad != nil {
		t.Fatalf("load: %v", errLoad)
	}
	if cfg.Database.DSN != "file:env.db" {
		t.Fatalf("dsn = %q", cfg.Database.DSN)
	}
	if cfg.JWT.Secret != "env-secret" {
		t.Fatalf("secret = %q", cfg.JWT.Secret)
	}
	if cfg.Server.Port != 7070 {
		t.Fatalf("port = %d", cfg.Server.Port)
	}
}

func TestLoadRequiresDSNAndSecret(t *testing.T) {
	t.Setenv("DATABASE_DSN", "")
	t.Setenv("JWT_SECRET", "")

	if _, errLoad := Load(""); errLoad == nil {
		t.Fatal("expected error without dsn and secret")
	}

	t.Setenv("DATABASE_DSN", "file:test.db")
	if _, errLoad := Load(""); errLoad == nil {
		t.Fatal("expected error without jwt secret")
	}
}

func TestJWTExpiryDefault(t *testing.T) {
	var cfg JWTConfig
	if cfg.Expiry() != 24*time.Hour {
		t.Fatalf("expiry = %s, want 24h", cfg.Expiry())
	}
}
