package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/noah-isme/backend-kasir/internal/app"
	"github.com/noah-isme/backend-kasir/internal/config"
	"github.com/noah-isme/backend-kasir/internal/obs"
)

func main() {
	path := flag.String("file", "seed/catalog.yaml", "catalog import file (YAML or JSON)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	logger := obs.NewLogger(envOrDefault("OBS_LOG_FORMAT", "console"), envOrDefault("OBS_LOG_LEVEL", "info")).
		With().Str("component", "seeder").Logger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps, err := app.Open(ctx, cfg, logger, app.Options{AppName: "kasir-seeder"})
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise dependencies")
	}
	defer deps.Close()

	f, err := os.Open(*path)
	if err != nil {
		logger.Fatal().Err(err).Str("file", *path).Msg("open catalog file")
	}
	defer f.Close()

	report, err := deps.Importer.ImportFile(ctx, f)
	if err != nil {
		logger.Fatal().Err(err).Msg("import catalog")
	}
	for _, skip := range report.Skipped {
		logger.Warn().Str("kind", skip.Kind).Str("key", skip.Key).Str("reason", skip.Reason).Msg("record skipped")
	}
	if err := deps.Catalog.Invalidate(ctx); err != nil {
		logger.Warn().Err(err).Msg("invalidate catalog cache")
	}
	logger.Info().
		Int("created", report.Created).
		Int("updated", report.Updated).
		Int("skipped", len(report.Skipped)).
		Msg("seeding completed")
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
