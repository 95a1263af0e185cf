package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv             string
	Port               string
	DatabaseURL        string
	RedisURL           string
	DBAutoMigrate      bool
	DBMaxConns         int32
	CORSAllowedOrigins []string

	TerminalID     string
	CurrencyCode   string
	TierPolicy     string
	AuditEnabled   bool
	ImportExponent int32

	CatalogCacheTTL        time.Duration
	CatalogRefreshInterval time.Duration
	IdempotencyTTL         time.Duration
	ReportCacheTTL         time.Duration

	LockTTL          time.Duration
	LockRetryBackoff time.Duration

	ReferenceRateLimit  int
	ReferenceRateWindow time.Duration

	WorkerConcurrency int
	WorkerMaxRetry    int
	RetryBase         time.Duration
	RetryJitter       float64

	ExportBreakerMinRequests  uint32
	ExportBreakerFailureRate  float64
	ExportBreakerOpenDuration time.Duration
	ExportBreakerWindow       time.Duration
}

// Load reads configuration from the process environment, after applying an
// optional .env file. Every invalid setting is reported, not just the first.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}
	return parse(k)
}

// LoadForTests builds a Config from values alone, ignoring the process
// environment.
func LoadForTests(values map[string]string) (*Config, error) {
	k := koanf.New(".")
	for key, v := range values {
		if err := k.Set(key, v); err != nil {
			return nil, fmt.Errorf("set %s: %w", key, err)
		}
	}
	return parse(k)
}

func parse(k *koanf.Koanf) (*Config, error) {
	r := reader{k: k}
	cfg := &Config{
		AppEnv:             r.str("APP_ENV", "development"),
		Port:               r.str("PORT", "8080"),
		DatabaseURL:        r.required("DATABASE_URL"),
		RedisURL:           r.required("REDIS_URL"),
		DBAutoMigrate:      r.flag("DB_AUTO_MIGRATE", true),
		DBMaxConns:         int32(r.positive("DB_MAX_CONNS", 10)),
		CORSAllowedOrigins: r.list("CORS_ALLOWED_ORIGINS"),

		TerminalID:     r.str("TERMINAL_ID", "POS-01"),
		CurrencyCode:   strings.ToUpper(r.str("CURRENCY_CODE", "IDR")),
		TierPolicy:     strings.ToLower(r.str("TIER_POLICY", "once")),
		AuditEnabled:   r.flag("AUDIT_ENABLED", true),
		ImportExponent: int32(r.integer("CURRENCY_EXPONENT", 2)),

		CatalogCacheTTL:        r.duration("CATALOG_CACHE_TTL", 10*time.Minute),
		CatalogRefreshInterval: r.duration("CATALOG_REFRESH_INTERVAL", 5*time.Minute),
		IdempotencyTTL:         r.duration("IDEMPOTENCY_TTL", 24*time.Hour),
		ReportCacheTTL:         r.duration("REPORT_CACHE_TTL", time.Hour),

		LockTTL:          r.duration("LOCK_TTL", 30*time.Second),
		LockRetryBackoff: r.duration("LOCK_RETRY_BACKOFF", 200*time.Millisecond),

		ReferenceRateLimit:  r.positive("REFERENCE_RATE_LIMIT", 10),
		ReferenceRateWindow: r.duration("REFERENCE_RATE_WINDOW", time.Minute),

		WorkerConcurrency: r.positive("WORKER_CONCURRENCY", 4),
		WorkerMaxRetry:    r.positive("WORKER_MAX_RETRY", 8),
		RetryBase:         r.duration("RETRY_BASE", 2*time.Second),
		RetryJitter:       r.fraction("RETRY_JITTER", 0.2),

		ExportBreakerMinRequests:  uint32(r.positive("EXPORT_BREAKER_MIN_REQ", 5)),
		ExportBreakerFailureRate:  r.fraction("EXPORT_BREAKER_FAILURE_RATE", 0.5),
		ExportBreakerOpenDuration: r.duration("EXPORT_BREAKER_OPEN_FOR", 30*time.Second),
		ExportBreakerWindow:       r.duration("EXPORT_BREAKER_WINDOW", 5*time.Minute),
	}

	switch cfg.TierPolicy {
	case "once", "per_multiple":
	default:
		r.fail("TIER_POLICY", "must be once or per_multiple, got %q", cfg.TierPolicy)
	}
	if cfg.ImportExponent < 0 || cfg.ImportExponent > 4 {
		r.fail("CURRENCY_EXPONENT", "must be between 0 and 4, got %d", cfg.ImportExponent)
	}
	if err := errors.Join(r.errs...); err != nil {
		return nil, err
	}
	return cfg, nil
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

// reader pulls typed settings out of koanf, falling back to defaults for
// unset keys and collecting an error for every malformed one.
type reader struct {
	k    *koanf.Koanf
	errs []error
}

func (r *reader) fail(key, format string, args ...any) {
	r.errs = append(r.errs, fmt.Errorf("%s "+format, append([]any{key}, args...)...))
}

func (r *reader) raw(key string) string {
	return strings.TrimSpace(r.k.String(key))
}

func (r *reader) str(key, fallback string) string {
	if v := r.raw(key); v != "" {
		return v
	}
	return fallback
}

func (r *reader) required(key string) string {
	v := r.raw(key)
	if v == "" {
		r.fail(key, "is required")
	}
	return v
}

func (r *reader) list(key string) []string {
	var out []string
	for part := range strings.SplitSeq(r.raw(key), ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func (r *reader) flag(key string, fallback bool) bool {
	switch strings.ToLower(r.raw(key)) {
	case "":
		return fallback
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		r.fail(key, "must be a boolean, got %q", r.raw(key))
		return fallback
	}
}

func (r *reader) integer(key string, fallback int) int {
	v := r.raw(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		r.fail(key, "must be an integer, got %q", v)
		return fallback
	}
	return n
}

func (r *reader) positive(key string, fallback int) int {
	n := r.integer(key, fallback)
	if n <= 0 {
		r.fail(key, "must be positive, got %d", n)
		return fallback
	}
	return n
}

func (r *reader) fraction(key string, fallback float64) float64 {
	v := r.raw(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f < 0 || f > 1 {
		r.fail(key, "must be a number between 0 and 1, got %q", v)
		return fallback
	}
	return f
}

func (r *reader) duration(key string, fallback time.Duration) time.Duration {
	v := r.raw(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		r.fail(key, "must be a positive duration, got %q", v)
		return fallback
	}
	return d
}
