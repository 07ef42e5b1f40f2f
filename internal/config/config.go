// Package config loads application configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/contactbox/backend/internal/repository"
)

// AuthMode selects how admin credentials are checked.
type AuthMode string

const (
	// AuthModeStore verifies bcrypt hashes held in the credential store.
	AuthModeStore AuthMode = "store"
	// AuthModeStatic compares against ADMIN_USER / ADMIN_PASS.
	AuthModeStatic AuthMode = "static"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DatabaseURL   string
	StoreDriver   repository.Driver
	MongoDatabase string
	ListenAddr    string

	CORSOrigin  string
	CORSMethods string
	CORSHeaders string

	AuthMode           AuthMode
	AdminUser          string
	AdminPass          string
	AdminSeedOnStartup bool
	BcryptCost         int

	RateLimitMax    int
	RateLimitWindow time.Duration

	ListLimit         int
	RequirePhone      bool
	RequireEmail      bool
	SoftDeleteRefresh bool
	AllowPurge        bool
	AutoMigrate       bool

	LogLevel  string
	LogFormat string
}

// HasDatabase reports whether a connection URL was configured.
func (c *Config) HasDatabase() bool {
	return c.DatabaseURL != ""
}

// HasAdminCredentials reports whether ADMIN_USER and ADMIN_PASS are both set.
func (c *Config) HasAdminCredentials() bool {
	return c.AdminUser != "" && c.AdminPass != ""
}

// StoreOptions converts the store settings for repository.Open.
func (c *Config) StoreOptions() repository.Options {
	return repository.Options{
		Driver:        c.StoreDriver,
		URL:           c.DatabaseURL,
		MongoDatabase: c.MongoDatabase,
	}
}

// Load reads configuration from environment variables and returns a validated Config.
// A missing DATABASE_URL is not an error here; the server starts degraded and
// the createadmin command refuses to run.
func Load() (*Config, error) {
	var errs []error

	cfg := &Config{
		DatabaseURL:   firstEnv("DATABASE_URL", "MONGO_URI"),
		MongoDatabase: os.Getenv("MONGO_DATABASE"),
		ListenAddr:    listenAddr(),
		CORSOrigin:    firstEnv("CORS_ORIGIN", "ORIGIN"),
		CORSMethods:   envOr("CORS_METHODS", "GET, POST, DELETE, OPTIONS"),
		CORSHeaders:   envOr("CORS_HEADERS", "Content-Type, Authorization"),
		AdminUser:     os.Getenv("ADMIN_USER"),
		AdminPass:     os.Getenv("ADMIN_PASS"),
		LogLevel:      envOr("LOG_LEVEL", "INFO"),
		LogFormat:     strings.ToLower(envOr("LOG_FORMAT", "json")),
	}
	if cfg.CORSOrigin == "" {
		cfg.CORSOrigin = "*"
	}

	driver, err := repository.ParseDriver(os.Getenv("STORE_DRIVER"), cfg.DatabaseURL)
	if err != nil {
		errs = append(errs, fmt.Errorf("STORE_DRIVER: %w", err))
	}
	cfg.StoreDriver = driver

	switch mode := AuthMode(strings.ToLower(envOr("AUTH_MODE", string(AuthModeStore)))); mode {
	case AuthModeStore, AuthModeStatic:
		cfg.AuthMode = mode
	default:
		errs = append(errs, fmt.Errorf("AUTH_MODE has invalid value %q (want store or static)", mode))
	}

	switch cfg.LogFormat {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("LOG_FORMAT has invalid value %q (want json or text)", cfg.LogFormat))
	}

	cfg.BcryptCost = intEnv("BCRYPT_COST", 12, 4, 31, &errs)
	cfg.RateLimitMax = intEnv("RATE_LIMIT_MAX", 12, 1, 0, &errs)
	cfg.ListLimit = intEnv("LIST_LIMIT", 500, 1, 0, &errs)
	cfg.RateLimitWindow = durationEnv("RATE_LIMIT_WINDOW", time.Minute, &errs)

	cfg.AdminSeedOnStartup = boolEnv("ADMIN_SEED_ON_STARTUP", false, &errs)
	cfg.RequirePhone = boolEnv("CONTACT_REQUIRE_PHONE", false, &errs)
	cfg.RequireEmail = boolEnv("CONTACT_REQUIRE_EMAIL", false, &errs)
	cfg.SoftDeleteRefresh = boolEnv("SOFT_DELETE_REFRESH", false, &errs)
	cfg.AllowPurge = boolEnv("ALLOW_PURGE", false, &errs)
	cfg.AutoMigrate = boolEnv("AUTO_MIGRATE", true, &errs)

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return cfg, nil
}

// listenAddr prefers LISTEN_ADDR, then PORT, then :5000.
func listenAddr() string {
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		return v
	}
	if v := os.Getenv("PORT"); v != "" {
		return ":" + v
	}
	return ":5000"
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(os.Getenv(k)); v != "" {
			return v
		}
	}
	return ""
}

func envOr(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return def
}

// intEnv parses key as an integer within [minVal, maxVal]; maxVal 0 means unbounded.
func intEnv(key string, def, minVal, maxVal int, errs *[]error) int {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s has invalid integer %q: %w", key, v, err))
		return def
	}
	if n < minVal || (maxVal > 0 && n > maxVal) {
		*errs = append(*errs, fmt.Errorf("%s=%d is out of range", key, n))
		return def
	}
	return n
}

func durationEnv(key string, def time.Duration, errs *[]error) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return def
	}
	d, err := time.ParseDuration(strings.TrimSpace(v))
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s has invalid duration %q: %w", key, v, err))
		return def
	}
	if d <= 0 {
		*errs = append(*errs, fmt.Errorf("%s must be positive, got %s", key, d))
		return def
	}
	return d
}

func boolEnv(key string, def bool, errs *[]error) bool {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return def
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s has invalid boolean %q: %w", key, v, err))
		return def
	}
	return b
}
