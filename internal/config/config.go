// Package config loads server configuration from command-line flags,
// environment variables, a .env file and defaults, in that order of precedence.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Accepted values for enumerated settings.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	StrategySession = "session"
	StrategyToken   = "token"

	BackendBadger = "badger"
	BackendRedis  = "redis"
)

// Config holds the application configuration.
type Config struct {
	App       AppConfig
	Logger    LoggerConfig
	Server    ServerConfig
	Database  DatabaseConfig
	Auth      AuthConfig
	Sessions  SessionConfig
	RateLimit RateLimitConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
	// DataPath holds the SQLite file, the Badger session directory and auth.key.
	DataPath string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	CORSOrigins  []string
	// TrustProxy takes the client address from X-Forwarded-For and
	// X-Real-IP. Enable only behind a proxy that sets those headers.
	TrustProxy   bool
}

// DatabaseConfig selects and locates the relational store.
type DatabaseConfig struct {
	Driver          string
	DSN             string
	ConnectAttempts int
	ConnectBackoff  time.Duration
}

// AuthConfig holds credential issuing configuration.
type AuthConfig struct {
	Strategy        string
	TokenDuration   time.Duration
	SessionDuration time.Duration
	CookieName      string
	CookieSecure    bool
}

// SessionConfig selects the server-side session store.
type SessionConfig struct {
	Backend  string
	RedisURL string
}

// RateLimitConfig throttles the /auth endpoints per client IP.
type RateLimitConfig struct {
	AuthPerMinute int
	AuthBurst     int
}

// LoadConfig loads configuration using the process arguments.
func LoadConfig() (*Config, error) {
	return Load(os.Args[1:])
}

// Load builds the configuration with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func Load(args []string) (*Config, error) {
	fs := flag.NewFlagSet("notes-server", flag.ContinueOnError)

	env := fs.String("env", "", "Environment (development, staging, production)")
	logLevel := fs.String("log-level", "", "Log level (debug, info, warn, error)")
	dataPath := fs.String("data-path", "", "Directory for database, sessions and keys")
	envFile := fs.String("env-file", ".env", "Path to .env file")

	port := fs.String("port", "", "Server port (default: 8080)")
	readTimeout := fs.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	writeTimeout := fs.String("write-timeout", "", "HTTP write timeout (default: 15s)")
	idleTimeout := fs.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")
	corsOrigins := fs.String("cors-origins", "", "Comma-separated allowed CORS origins")
	trustProxy := fs.String("trust-proxy", "", "Trust client address headers from a reverse proxy (default: false)")

	dbDriver := fs.String("db-driver", "", "Database driver (sqlite, postgres)")
	dbDSN := fs.String("db-dsn", "", "Database DSN")
	dbAttempts := fs.String("db-connect-attempts", "", "Initial connection attempts (default: 5)")
	dbBackoff := fs.String("db-connect-backoff", "", "Delay between connection attempts (default: 2s)")

	strategy := fs.String("auth-strategy", "", "Credential strategy (session, token)")
	tokenDuration := fs.String("token-duration", "", "Token lifetime (default: 24h)")
	sessionDuration := fs.String("session-duration", "", "Session lifetime (default: 168h)")

	sessionBackend := fs.String("session-backend", "", "Session store (badger, redis)")
	redisURL := fs.String("redis-url", "", "Redis URL for the redis session store")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	// godotenv.Load never overrides variables that are already set.
	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load env file %s: %w", *envFile, err)
	}

	environment := getConfigValue(*env, "ENV", "development")

	cfg := &Config{
		App: AppConfig{
			Environment: environment,
			DataPath:    getConfigValue(*dataPath, "DATA_PATH", ""),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(*logLevel, "LOG_LEVEL", "info"),
		},
		Server: ServerConfig{
			Port:        getConfigValue(*port, "SERVER_PORT", "8080"),
			CORSOrigins: splitList(getConfigValue(*corsOrigins, "CORS_ORIGINS", "http://localhost:3000")),
			TrustProxy:  getBoolConfigValue(*trustProxy, "SERVER_TRUST_PROXY", false),
		},
		Database: DatabaseConfig{
			Driver:          getConfigValue(*dbDriver, "DB_DRIVER", DriverSQLite),
			DSN:             getConfigValue(*dbDSN, "DB_DSN", ""),
			ConnectAttempts: getIntConfigValue(*dbAttempts, "DB_CONNECT_ATTEMPTS", 5),
		},
		Auth: AuthConfig{
			Strategy:     getConfigValue(*strategy, "AUTH_STRATEGY", StrategySession),
			CookieName:   getConfigValue("", "AUTH_COOKIE_NAME", "NOTES_API_COOKIE"),
			CookieSecure: getBoolConfigValue("", "AUTH_COOKIE_SECURE", environment == "production"),
		},
		Sessions: SessionConfig{
			Backend:  getConfigValue(*sessionBackend, "SESSION_BACKEND", BackendBadger),
			RedisURL: getConfigValue(*redisURL, "REDIS_URL", ""),
		},
		RateLimit: RateLimitConfig{
			AuthPerMinute: getIntConfigValue("", "AUTH_RATE_LIMIT", 20),
			AuthBurst:     getIntConfigValue("", "AUTH_RATE_BURST", 10),
		},
	}

	durations := []struct {
		flagValue string
		envKey    string
		def       string
		dst       *time.Duration
	}{
		{*readTimeout, "SERVER_READ_TIMEOUT", "15s", &cfg.Server.ReadTimeout},
		{*writeTimeout, "SERVER_WRITE_TIMEOUT", "15s", &cfg.Server.WriteTimeout},
		{*idleTimeout, "SERVER_IDLE_TIMEOUT", "60s", &cfg.Server.IdleTimeout},
		{*dbBackoff, "DB_CONNECT_BACKOFF", "2s", &cfg.Database.ConnectBackoff},
		{*tokenDuration, "AUTH_TOKEN_DURATION", "24h", &cfg.Auth.TokenDuration},
		{*sessionDuration, "AUTH_SESSION_DURATION", "168h", &cfg.Auth.SessionDuration},
	}
	for _, d := range durations {
		raw := getConfigValue(d.flagValue, d.envKey, d.def)
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", d.envKey, raw, err)
		}
		*d.dst = parsed
	}

	if err := cfg.expandDataPath(); err != nil {
		return nil, fmt.Errorf("invalid data path: %w", err)
	}

	if cfg.Database.Driver == DriverSQLite && cfg.Database.DSN == "" {
		cfg.Database.DSN = filepath.Join(cfg.App.DataPath, "notes.db")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all config values are present and consistent.
func (c *Config) Validate() error {
	switch c.App.Environment {
	case "development", "staging", "production":
	default:
		return fmt.Errorf("invalid environment: %q (must be development, staging, or production)", c.App.Environment)
	}

	switch strings.ToLower(c.Logger.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %q (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.App.DataPath == "" {
		return errors.New("data path cannot be empty")
	}

	switch c.Database.Driver {
	case DriverSQLite:
	case DriverPostgres:
		if c.Database.DSN == "" {
			return errors.New("DB_DSN is required for the postgres driver")
		}
	default:
		return fmt.Errorf("invalid database driver: %q (must be sqlite or postgres)", c.Database.Driver)
	}
	if c.Database.ConnectAttempts < 1 {
		return fmt.Errorf("DB_CONNECT_ATTEMPTS must be at least 1, got %d", c.Database.ConnectAttempts)
	}

	switch c.Auth.Strategy {
	case StrategySession, StrategyToken:
	default:
		return fmt.Errorf("invalid auth strategy: %q (must be session or token)", c.Auth.Strategy)
	}
	if c.Auth.TokenDuration <= 0 || c.Auth.SessionDuration <= 0 {
		return errors.New("credential lifetimes must be positive")
	}

	switch c.Sessions.Backend {
	case BackendBadger:
	case BackendRedis:
		if c.Sessions.RedisURL == "" {
			return errors.New("REDIS_URL is required for the redis session backend")
		}
	default:
		return fmt.Errorf("invalid session backend: %q (must be badger or redis)", c.Sessions.Backend)
	}

	if c.RateLimit.AuthPerMinute < 1 || c.RateLimit.AuthBurst < 1 {
		return errors.New("auth rate limit and burst must be at least 1")
	}

	return nil
}

// SessionPath is where the Badger session store keeps its files.
func (c *Config) SessionPath() string {
	return filepath.Join(c.App.DataPath, "sessions")
}

// expandDataPath expands ~ and makes the path absolute.
func (c *Config) expandDataPath() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}

	expanded, err := expandPath(c.App.DataPath, filepath.Join(homeDir, ".notes-server"))
	if err != nil {
		return err
	}
	c.App.DataPath = expanded
	return nil
}

// expandPath expands ~ and makes the path absolute.
// If path is empty, defaultPath is returned unchanged.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if envKey != "" {
		if envValue := os.Getenv(envKey); envValue != "" {
			return envValue
		}
	}
	return defaultValue
}

// getBoolConfigValue accepts "true", "1" and "yes" (any case) as true.
func getBoolConfigValue(flagValue, envKey string, defaultValue bool) bool {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	switch strings.ToLower(strValue) {
	case "true", "1", "yes":
		return true
	default:
		return false
	}
}

// getIntConfigValue returns an int from flag, env var, or default.
// Unparseable values fall back to the default.
func getIntConfigValue(flagValue, envKey string, defaultValue int) int {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(strings.TrimSpace(strValue))
	if err != nil {
		return defaultValue
	}
	return n
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
