package app

import (
	"context"
	"errors"
	"fmt"

	validator "github.com/go-playground/validator/v10"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-kasir/internal/audit"
	"github.com/noah-isme/backend-kasir/internal/catalog"
	"github.com/noah-isme/backend-kasir/internal/common"
	"github.com/noah-isme/backend-kasir/internal/config"
	"github.com/noah-isme/backend-kasir/internal/db"
	"github.com/noah-isme/backend-kasir/internal/lock"
	"github.com/noah-isme/backend-kasir/internal/obs"
	"github.com/noah-isme/backend-kasir/internal/reference"
	"github.com/noah-isme/backend-kasir/internal/resilience"
	"github.com/noah-isme/backend-kasir/internal/vault"
)

// Options tweaks Open for a particular binary.
type Options struct {
	AppName          string
	MetricsNamespace string
	RedisTracing     bool
	RedisMetrics     bool
	MetricsEnabled   bool
}

// Dependencies enumerates the services shared by the api, worker and tools.
type Dependencies struct {
	Config     *config.Config
	Logger     zerolog.Logger
	DB         *pgxpool.Pool
	Redis      *redis.Client
	Runner     db.Runner
	Caps       db.Capabilities
	Validator  *validator.Validate
	TaskRedis  asynq.RedisConnOpt
	Registerer prometheus.Registerer
	Breakers   *resilience.Metrics

	Catalog  *catalog.Service
	Importer *catalog.Importer
	Vault    *vault.Vault
	Assigner *reference.Assigner
	Audit    *audit.Service
	Locker   lock.Locker
}

// Open connects Postgres and Redis, resolves schema capabilities and builds
// the domain services. Callers must Close the result.
func Open(ctx context.Context, cfg *config.Config, logger zerolog.Logger, opts Options) (*Dependencies, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	appName := opts.AppName
	if appName == "" {
		appName = "kasir"
	}

	caps, err := db.Migrate(cfg.DatabaseURL, cfg.DBAutoMigrate)
	if err != nil {
		return nil, err
	}
	logger.Info().Uint("schema_version", caps.SchemaVersion).Bool("promo_price", caps.PromoPrice).Msg("schema negotiated")

	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database config: %w", err)
	}
	tracer := obs.PGXTracer{}
	if opts.MetricsEnabled {
		tracer.Duration = obs.NewQueryDuration(metricsNamespace(opts), nil)
	}
	poolConfig.ConnConfig.Tracer = tracer
	if poolConfig.ConnConfig.RuntimeParams == nil {
		poolConfig.ConnConfig.RuntimeParams = map[string]string{}
	}
	poolConfig.ConnConfig.RuntimeParams["application_name"] = appName
	if cfg.DBMaxConns > 0 {
		poolConfig.MaxConns = cfg.DBMaxConns
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	redisClient := redis.NewClient(redisOpts)
	if opts.RedisTracing {
		if err := redisotel.InstrumentTracing(redisClient); err != nil {
			logger.Error().Err(err).Msg("instrument redis tracing")
		}
	}
	if opts.RedisMetrics {
		if err := redisotel.InstrumentMetrics(redisClient); err != nil {
			logger.Error().Err(err).Msg("instrument redis metrics")
		}
	}
	if err := redisClient.Ping(ctx).Err(); err != nil {
		pool.Close()
		_ = redisClient.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	taskRedis, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		pool.Close()
		_ = redisClient.Close()
		return nil, fmt.Errorf("parse task redis url: %w", err)
	}

	var (
		reg      prometheus.Registerer
		breakers *resilience.Metrics
	)
	if opts.MetricsEnabled {
		reg = prometheus.DefaultRegisterer
		if breakers, err = resilience.NewMetrics(metricsNamespace(opts), reg); err != nil {
			logger.Warn().Err(err).Msg("register breaker metrics")
		}
	}

	runner := db.NewPoolRunner(pool)
	log := logger
	d := &Dependencies{
		Config:     cfg,
		Logger:     logger,
		DB:         pool,
		Redis:      redisClient,
		Runner:     runner,
		Caps:       caps,
		Validator:  common.Validator(),
		TaskRedis:  taskRedis,
		Registerer: reg,
		Breakers:   breakers,
		Catalog: &catalog.Service{
			Runner: runner,
			Cache:  catalog.NewCache(redisClient, cfg.CatalogCacheTTL, caps.SchemaVersion),
			Caps:   caps,
			Logger: &log,
		},
		Importer: &catalog.Importer{
			Runner:   runner,
			Caps:     caps,
			Logger:   &log,
			Exponent: cfg.ImportExponent,
		},
		Vault:    &vault.Vault{Runner: runner, Logger: &log},
		Assigner: &reference.Assigner{Runner: runner, Logger: &log},
		Audit:    &audit.Service{Runner: runner, Enabled: cfg.AuditEnabled},
		Locker: lock.Locker{
			R:            redisClient,
			Prefix:       appName + ":lock:",
			RetryBackoff: cfg.LockRetryBackoff,
			TTL:          cfg.LockTTL,
		},
	}
	return d, nil
}

// Close releases the database pool and Redis client.
func (d *Dependencies) Close() {
	if d == nil {
		return
	}
	if d.Redis != nil {
		if err := d.Redis.Close(); err != nil {
			d.Logger.Error().Err(err).Msg("close redis")
		}
	}
	if d.DB != nil {
		d.DB.Close()
	}
}

// ExportBreaker builds the circuit breaker guarding the sales exporter.
func (d *Dependencies) ExportBreaker() *resilience.Breaker {
	cfg := d.Config
	return resilience.NewBreaker(resilience.BreakerConfig{
		Target:       "sales-export",
		MinRequests:  int(cfg.ExportBreakerMinRequests),
		FailureRatio: cfg.ExportBreakerFailureRate,
		OpenFor:      cfg.ExportBreakerOpenDuration,
		Window:       cfg.ExportBreakerWindow,
		Metrics:      d.Breakers,
	}).WithLogger(d.Logger)
}

func metricsNamespace(opts Options) string {
	if opts.MetricsNamespace == "" {
		return "kasir"
	}
	return opts.MetricsNamespace
}
