package main

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/backend-kasir/internal/app"
	"github.com/noah-isme/backend-kasir/internal/audit"
	"github.com/noah-isme/backend-kasir/internal/catalog"
	"github.com/noah-isme/backend-kasir/internal/checkout"
	"github.com/noah-isme/backend-kasir/internal/common"
	"github.com/noah-isme/backend-kasir/internal/config"
	"github.com/noah-isme/backend-kasir/internal/health"
	"github.com/noah-isme/backend-kasir/internal/inventory"
	"github.com/noah-isme/backend-kasir/internal/obs"
	"github.com/noah-isme/backend-kasir/internal/pricing"
	"github.com/noah-isme/backend-kasir/internal/ratelimit"
	"github.com/noah-isme/backend-kasir/internal/reference"
	"github.com/noah-isme/backend-kasir/internal/report"
	"github.com/noah-isme/backend-kasir/internal/security"
	"github.com/noah-isme/backend-kasir/internal/syncjob"
	"github.com/noah-isme/backend-kasir/internal/vault"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logFormat := envOrDefault("OBS_LOG_FORMAT", "json")
	logLevel := envOrDefault("OBS_LOG_LEVEL", "info")
	logger := obs.NewLogger(logFormat, logLevel).With().Str("env", cfg.AppEnv).Str("terminal", cfg.TerminalID).Logger()

	metricsNamespace := envOrDefault("OBS_METRICS_NAMESPACE", "kasir")
	metricsEnabled := envBool("OBS_ENABLE_PROMETHEUS", true)
	obs.MustRegisterDomainMetrics(metricsNamespace, nil)

	tracingEnabled := envBool("OBS_ENABLE_TRACING", true)
	if tracingEnabled {
		sampling := envFloat("OBS_TRACING_SAMPLING_RATIO", 1.0)
		shutdown, err := obs.InitTracer(context.Background(), obs.TracingConfig{
			ServiceName:    "kasir-api",
			ServiceVersion: envOrDefault("APP_VERSION", ""),
			TerminalID:     cfg.TerminalID,
			Endpoint:       envOrDefault("OBS_OTLP_ENDPOINT", ""),
			Exporter:       envOrDefault("OBS_TRACING_EXPORTER", "otlp"),
			SamplingRatio:  sampling,
			Environment:    cfg.AppEnv,
		})
		if err != nil {
			logger.Error().Err(err).Msg("initialise tracing")
			tracingEnabled = false
		} else {
			defer func() {
				if err := shutdown(context.Background()); err != nil {
					logger.Error().Err(err).Msg("shutdown tracer")
				}
			}()
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	startCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	deps, err := app.Open(startCtx, cfg, logger, app.Options{
		AppName:          "kasir-api",
		MetricsNamespace: metricsNamespace,
		RedisTracing:     tracingEnabled,
		RedisMetrics:     metricsEnabled,
		MetricsEnabled:   metricsEnabled,
	})
	cancel()
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise dependencies")
	}
	defer deps.Close()

	if _, err := deps.Catalog.Load(ctx); err != nil {
		logger.Error().Err(err).Msg("initial catalog load")
	}
	go deps.Catalog.Run(ctx, cfg.CatalogRefreshInterval)

	policy, err := pricing.ParseTierPolicy(cfg.TierPolicy)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse tier policy")
	}

	checkoutSvc := &checkout.Service{
		Catalog:    deps.Catalog,
		Policy:     policy,
		Runner:     deps.Runner,
		Vault:      deps.Vault,
		Ledger:     &inventory.Ledger{Logger: &logger},
		TerminalID: cfg.TerminalID,
		Logger:     &logger,
	}
	checkoutHandler := checkout.Handler{Svc: checkoutSvc}
	catalogHandler := catalog.Handler{Service: deps.Catalog, Importer: deps.Importer}
	vaultHandler := vault.Handler{Vault: deps.Vault}
	referenceHandler := reference.Handler{Assigner: deps.Assigner}
	reportHandler := report.Handler{Svc: &report.Service{
		Source:   deps.Vault,
		R:        deps.Redis,
		TTL:      cfg.ReportCacheTTL,
		TopItems: envInt("REPORT_TOP_ITEMS", 10),
		Logger:   &logger,
	}}
	auditHandler := audit.Handler{Service: deps.Audit}

	taskClient := asynq.NewClient(deps.TaskRedis)
	defer func() {
		if err := taskClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close task client")
		}
	}()
	exportHandler := syncjob.Handler{Client: taskClient, MaxRetry: cfg.WorkerMaxRetry, UniqueFor: cfg.LockTTL}

	idem := common.Idem{R: deps.Redis, TTL: cfg.IdempotencyTTL}
	auditRecorder := audit.HTTPRecorder{
		Service: deps.Audit,
		OnError: func(err error) { logger.Error().Err(err).Msg("record audit entry") },
	}
	limited := func(scope string) func(http.Handler) http.Handler {
		return ratelimit.Handler{
			Limiter: ratelimit.Limiter{Client: deps.Redis, Prefix: "kasir:rl:"},
			Config: ratelimit.Config{
				Key:    ratelimit.KeyByHeader(scope, audit.OperatorHeader),
				Window: cfg.ReferenceRateWindow,
				Max:    cfg.ReferenceRateLimit,
			},
			OnError: func(err error) { logger.Warn().Err(err).Str("scope", scope).Msg("rate limiter unavailable") },
		}.Middleware
	}

	var httpMetrics *obs.HTTPMetrics
	if metricsEnabled {
		buckets := obs.ParseBucketsCSV(envOrDefault("OBS_METRICS_BUCKETS_MS", ""))
		httpMetrics = obs.NewHTTPMetrics(metricsNamespace, buckets, nil)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(obs.RoutePatternMiddleware)
	if tracingEnabled {
		r.Use(obs.TracingMiddleware)
	}
	if metricsEnabled && httpMetrics != nil {
		r.Use(obs.HTTPObs{Metrics: httpMetrics}.Middleware)
	}
	r.Use(obs.RequestLogger{Logger: logger, OperatorHeader: audit.OperatorHeader}.Middleware)
	r.Use(security.Headers{Enable: envBool("SECURITY_HEADERS_ENABLED", true), HSTSMaxAge: envInt("SECURITY_HSTS_MAX_AGE", 0)}.Middleware)
	r.Use(security.BodyLimit{Max: int64(envInt("HTTP_MAX_BODY_BYTES", 8<<20))}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins(cfg),
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "Idempotency-Key", audit.OperatorHeader},
		ExposedHeaders: []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		MaxAge:         300,
	}))

	if metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}
	if envBool("OBS_ENABLE_PPROF", false) {
		user := envOrDefault("SECURE_PPROF_BASIC_AUTH_USER", "")
		pass := envOrDefault("SECURE_PPROF_BASIC_AUTH_PASS", "")
		r.Mount("/debug/pprof", protectPprof(newPprofMux(), user, pass))
	}

	healthHandler := health.Handler{Probes: []health.Probe{
		{
			Name:    "db",
			Timeout: envDurationMillis("HEALTH_READY_DB_TIMEOUT_MS", 500),
			Check:   func(ctx context.Context) error { return deps.DB.Ping(ctx) },
		},
		{
			Name:    "redis",
			Timeout: envDurationMillis("HEALTH_READY_REDIS_TIMEOUT_MS", 300),
			Check:   func(ctx context.Context) error { return deps.Redis.Ping(ctx).Err() },
		},
		{
			Name: "catalog",
			Check: func(context.Context) error {
				_, err := deps.Catalog.Current()
				return err
			},
		},
	}}
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	r.Route("/api/v1", func(v chi.Router) {
		v.Get("/catalog/lookup/{code}", catalogHandler.Lookup)
		v.Post("/cart/price", checkoutHandler.Price)
		v.With(idem.Middleware).Post("/checkout", checkoutHandler.Commit)

		v.Get("/vault", vaultHandler.Current)
		v.With(auditRecorder.Middleware(audit.HTTPConfig{Action: "vault.checkpoint", Resource: "vault", SuccessOnly: true})).
			Post("/vault/checkpoint", vaultHandler.Checkpoint)

		v.Get("/reports/periods", reportHandler.List)
		v.Get("/reports/periods/{id}", reportHandler.Get)

		v.With(
			limited("references"),
			auditRecorder.Middleware(audit.HTTPConfig{Action: "reference.assign", Resource: "sales", SuccessOnly: true}),
		).Post("/references", referenceHandler.Assign)
		v.With(limited("exports")).Post("/exports", exportHandler.Enqueue)

		v.Route("/admin", func(admin chi.Router) {
			admin.With(auditRecorder.Middleware(audit.HTTPConfig{Action: "catalog.import", Resource: "catalog", SuccessOnly: true})).
				Post("/catalog/import", catalogHandler.Import)
			admin.With(auditRecorder.Middleware(audit.HTTPConfig{Action: "catalog.reload", Resource: "catalog", SuccessOnly: true})).
				Post("/catalog/reload", catalogHandler.Reload)
			admin.Get("/audit", auditHandler.List)
		})
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("server starting")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server exited unexpectedly")
		}
	case <-ctx.Done():
		health.SetReady(false)
		logger.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), envDurationMillis("SHUTDOWN_TIMEOUT_MS", 10000))
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("graceful shutdown")
		}
	}
}

func allowedOrigins(cfg *config.Config) []string {
	if len(cfg.CORSAllowedOrigins) == 0 {
		return []string{"*"}
	}
	return cfg.CORSAllowedOrigins
}

func envOrDefault(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		trimmed := strings.TrimSpace(val)
		if trimmed != "" {
			return trimmed
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if val, ok := os.LookupEnv(key); ok {
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "1", "t", "true", "yes", "on":
			return true
		case "0", "f", "false", "no", "off":
			return false
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(val), 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(strings.TrimSpace(val)); err == nil {
			return parsed
		}
	}
	return fallback
}

func envDurationMillis(key string, fallback int) time.Duration {
	return time.Duration(envInt(key, fallback)) * time.Millisecond
}

func newPprofMux() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", pprof.Index)
	mux.HandleFunc("/cmdline", pprof.Cmdline)
	mux.HandleFunc("/profile", pprof.Profile)
	mux.HandleFunc("/symbol", pprof.Symbol)
	mux.HandleFunc("/trace", pprof.Trace)
	mux.Handle("/heap", pprof.Handler("heap"))
	mux.Handle("/goroutine", pprof.Handler("goroutine"))
	return mux
}

func protectPprof(handler http.Handler, user, pass string) http.Handler {
	user = strings.TrimSpace(user)
	pass = strings.TrimSpace(pass)
	if user == "" {
		return handler
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, p, ok := r.BasicAuth()
		if !ok || subtle.ConstantTimeCompare([]byte(u), []byte(user)) != 1 || subtle.ConstantTimeCompare([]byte(p), []byte(pass)) != 1 {
			w.Header().Set("WWW-Authenticate", "Basic realm=restricted")
			http.Error(w, "unauthorised", http.StatusUnauthorized)
			return
		}
		handler.ServeHTTP(w, r)
	})
}
