package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/noah-isme/backend-kasir/internal/app"
	"github.com/noah-isme/backend-kasir/internal/config"
	"github.com/noah-isme/backend-kasir/internal/obs"
	"github.com/noah-isme/backend-kasir/internal/syncjob"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logFormat := envOrDefault("OBS_LOG_FORMAT", "json")
	logLevel := envOrDefault("OBS_LOG_LEVEL", "info")
	logger := obs.NewLogger(logFormat, logLevel).With().Str("component", "worker").Logger()
	obs.MustRegisterDomainMetrics(envOrDefault("OBS_METRICS_NAMESPACE", "kasir"), nil)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	startCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	deps, err := app.Open(startCtx, cfg, logger, app.Options{
		AppName:        "kasir-worker",
		RedisTracing:   true,
		MetricsEnabled: true,
	})
	cancel()
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise dependencies")
	}
	defer deps.Close()

	worker := &syncjob.Worker{
		Snapshots: deps.Vault,
		Assigner:  deps.Assigner,
		Exporter:  syncjob.LogExporter{Logger: &logger, Prefix: envOrDefault("EXPORT_REFERENCE_PREFIX", cfg.TerminalID)},
		Breaker:   deps.ExportBreaker(),
		Locker:    deps.Locker,
		Logger:    &logger,
	}
	server := syncjob.NewServer(deps.TaskRedis, syncjob.ServerConfig{
		Concurrency: cfg.WorkerConcurrency,
		RetryBase:   cfg.RetryBase,
		RetryJitter: cfg.RetryJitter,
	}, logger)

	logger.Info().Int("concurrency", cfg.WorkerConcurrency).Msg("worker starting")
	if err := server.Start(worker.Mux()); err != nil {
		logger.Fatal().Err(err).Msg("start task server")
	}
	<-ctx.Done()
	server.Shutdown()
	logger.Info().Msg("worker shutdown complete")
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
