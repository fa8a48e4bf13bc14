package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host                  string `yaml:"host"`            // Bind address.
	Port                  int    `yaml:"port"`            // Listen port.
	Mode                  string `yaml:"mode"`            // "debug" or "release".
	RequestTimeoutSeconds int    `yaml:"request-timeout"` // Per-request wall-clock bound.
}

// DatabaseConfig holds persistence settings.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"` // PostgreSQL or SQLite DSN.
}

// JWTConfig holds token signing settings.
type JWTConfig struct {
	Secret      string `yaml:"secret"`       // HS256 signing secret.
	ExpiryHours int    `yaml:"expiry-hours"` // Token lifetime in hours.
}

// Expiry returns the configured token lifetime.
func (c JWTConfig) Expiry() time.Duration {
	if c.ExpiryHours <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(c.ExpiryHours) * time.Hour
}

// RedisConfig holds optional report cache settings.
type RedisConfig struct {
	URL string `yaml:"url"` // Redis URL; empty disables caching.
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level      string `yaml:"level"`       // logrus level name.
	File       string `yaml:"file"`        // Log file path; empty logs to stdout only.
	MaxSizeMB  int    `yaml:"max-size"`    // Rotation size threshold.
	MaxBackups int    `yaml:"max-backups"` // Rotated files to retain.
	MaxAgeDays int    `yaml:"max-age"`     // Rotated file retention in days.
}

// Config is the full application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	JWT      JWTConfig      `yaml:"jwt"`
	Redis    RedisConfig    `yaml:"redis"`
	Log      LogConfig      `yaml:"log"`
}

// IsProduction reports whether the server runs in release mode.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(c.Server.Mode), "release")
}

// Addr returns the host:port listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// Load reads configuration from a YAML file and applies environment
// overrides. A missing file is not an error; defaults and environment
// variables alone are enough to boot.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if strings.TrimSpace(path) != "" {
		data, errRead := os.ReadFile(path)
		if errRead != nil {
			if !os.IsNotExist(errRead) {
				return nil, fmt.Errorf("config: read %s: %w", path, errRead)
			}
		} else if errYAML := yaml.Unmarshal(data, cfg); errYAML != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, errYAML)
		}
	}

	applyEnv(cfg)

	if strings.TrimSpace(cfg.Database.DSN) == "" {
		return nil, fmt.Errorf("config: database dsn is required")
	}
	if strings.TrimSpace(cfg.JWT.Secret) == "" {
		return nil, fmt.Errorf("config: jwt secret is required")
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Host:                  "0.0.0.0",
			Port:                  8080,
			Mode:                  "debug",
			RequestTimeoutSeconds: 30,
		},
		JWT: JWTConfig{ExpiryHours: 24},
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  50,
			MaxBackups: 5,
			MaxAgeDays: 30,
		},
	}
}

func applyEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv("DATABASE_DSN")); v != "" {
		cfg.Database.DSN = v
	}
	if v := strings.TrimSpace(os.Getenv("JWT_SECRET")); v != "" {
		cfg.JWT.Secret = v
	}
	if v := strings.TrimSpace(os.Getenv("REDIS_URL")); v != "" {
		cfg.Redis.URL = v
	}
	if v := strings.TrimSpace(os.Getenv("SERVER_MODE")); v != "" {
		cfg.Server.Mode = v
	}
	if v := strings.TrimSpace(os.Getenv("PORT")); v != "" {
		if port, errParse := strconv.Atoi(v); errParse == nil && port > 0 {
			cfg.Server.Port = port
		}
	}
	if v := strings.TrimSpace(os.Getenv("LOG_LEVEL")); v != "" {
		cfg.Log.Level = v
	}
	if v := strings.TrimSpace(os.Getenv("LOG_FILE")); v != "" {
		cfg.Log.File = v
	}
}
