// Package config loads server configuration from a TOML file with
// environment variable overrides.
//
// Resolution order, lowest to highest precedence:
//
//  1. built-in defaults
//  2. TOML config file (when present)
//  3. FORMULAGRAPH_* environment variables
//
// Flags handled by the CLI layer sit above all three.
package config

import (
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"

	apperrors "github.com/matzehuels/formulagraph/pkg/errors"
)

// ============================================================================
// Types
// ============================================================================

// Config is the full server configuration.
type Config struct {
	Server ServerConfig `toml:"server"`
	Store  StoreConfig  `toml:"store"`
	Cache  CacheConfig  `toml:"cache"`
	Auth   AuthConfig   `toml:"auth"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Addr    string `toml:"addr" env:"FORMULAGRAPH_ADDR"`
	BaseURL string `toml:"base_url" env:"FORMULAGRAPH_BASE_URL"`
}

// StoreConfig selects and configures the persistence backend.
// Backend is one of "memory", "sqlite", or "mongo".
type StoreConfig struct {
	Backend    string `toml:"backend" env:"FORMULAGRAPH_STORE_BACKEND"`
	SQLitePath string `toml:"sqlite_path" env:"FORMULAGRAPH_SQLITE_PATH"`
	MongoURI   string `toml:"mongo_uri" env:"FORMULAGRAPH_MONGO_URI"`
	MongoDB    string `toml:"mongo_db" env:"FORMULAGRAPH_MONGO_DB"`
}

// CacheConfig selects the record cache backend. Backend is one of
// "memory", "redis", or "none".
type CacheConfig struct {
	Backend   string        `toml:"backend" env:"FORMULAGRAPH_CACHE_BACKEND"`
	RecordTTL time.Duration `toml:"record_ttl" env:"FORMULAGRAPH_CACHE_RECORD_TTL"`
	RedisAddr string        `toml:"redis_addr" env:"FORMULAGRAPH_REDIS_ADDR"`
	RedisPass string        `toml:"redis_password" env:"FORMULAGRAPH_REDIS_PASSWORD"`
	RedisDB   int           `toml:"redis_db" env:"FORMULAGRAPH_REDIS_DB"`
}

// AuthConfig controls magic-link authentication. With no admin emails
// configured, write endpoints are disabled.
type AuthConfig struct {
	Secret      string        `toml:"secret" env:"FORMULAGRAPH_AUTH_SECRET"`
	AdminEmails []string      `toml:"admin_emails" env:"FORMULAGRAPH_ADMIN_EMAILS" envSeparator:","`
	SessionTTL  time.Duration `toml:"session_ttl" env:"FORMULAGRAPH_SESSION_TTL"`
}

// ============================================================================
// Loading
// ============================================================================

// Default returns the built-in configuration defaults.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:    ":8080",
			BaseURL: "http://localhost:8080",
		},
		Store: StoreConfig{
			Backend:    "memory",
			SQLitePath: "formulagraph.db",
			MongoDB:    "formulagraph",
		},
		Cache: CacheConfig{
			Backend:   "memory",
			RecordTTL: 5 * time.Minute,
			RedisAddr: "localhost:6379",
		},
		Auth: AuthConfig{
			SessionTTL: 24 * time.Hour,
		},
	}
}

// Load builds the configuration from defaults, the optional TOML file at
// path, and environment variables. An empty path skips the file layer; a
// named file that does not exist is an error.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return cfg, apperrors.Wrap(apperrors.ErrCodeInvalidInput, err, "config file %s", path)
		}
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return cfg, apperrors.Wrap(apperrors.ErrCodeInvalidInput, err, "parse config file %s", path)
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return cfg, apperrors.Wrap(apperrors.ErrCodeInvalidInput, err, "parse environment")
	}

	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// validate rejects backend names the server cannot construct.
func (c Config) validate() error {
	switch c.Store.Backend {
	case "memory", "sqlite", "mongo":
	default:
		return apperrors.New(apperrors.ErrCodeInvalidInput, "unknown store backend %q", c.Store.Backend)
	}
	switch c.Cache.Backend {
	case "memory", "redis", "none":
	default:
		return apperrors.New(apperrors.ErrCodeInvalidInput, "unknown cache backend %q", c.Cache.Backend)
	}
	if len(c.Auth.AdminEmails) > 0 && c.Auth.Secret == "" {
		return apperrors.New(apperrors.ErrCodeInvalidInput, "auth secret is required when admin emails are set")
	}
	return nil
}

// AuthEnabled reports whether the write API can be unlocked.
func (c Config) AuthEnabled() bool {
	return len(c.Auth.AdminEmails) > 0 && c.Auth.Secret != ""
}
