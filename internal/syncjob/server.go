package syncjob

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
)

// ServerConfig tunes the asynq server.
type ServerConfig struct {
	Concurrency     int
	RetryBase       time.Duration
	RetryJitter     float64
	ShutdownTimeout time.Duration
}

// NewServer builds an asynq server consuming the sync queue.
func NewServer(redis asynq.RedisConnOpt, cfg ServerConfig, logger zerolog.Logger) *asynq.Server {
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 4
	}
	shutdown := cfg.ShutdownTimeout
	if shutdown <= 0 {
		shutdown = 10 * time.Second
	}
	return asynq.NewServer(redis, asynq.Config{
		Concurrency:     concurrency,
		Queues:          map[string]int{Queue: 1},
		RetryDelayFunc:  RetryDelay(cfg.RetryBase, cfg.RetryJitter),
		ShutdownTimeout: shutdown,
		Logger:          zerologAdapter{logger: logger},
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			retried, _ := asynq.GetRetryCount(ctx)
			maxRetry, _ := asynq.GetMaxRetry(ctx)
			logger.Error().
				Err(err).
				Str("task", task.Type()).
				Int("retry", retried).
				Int("max_retry", maxRetry).
				Msg("sync task failed")
		}),
	})
}

type zerologAdapter struct {
	logger zerolog.Logger
}

func (a zerologAdapter) Debug(args ...any) { a.logger.Debug().Msg(fmt.Sprint(args...)) }
func (a zerologAdapter) Info(args ...any)  { a.logger.Info().Msg(fmt.Sprint(args...)) }
func (a zerologAdapter) Warn(args ...any)  { a.logger.Warn().Msg(fmt.Sprint(args...)) }
func (a zerologAdapter) Error(args ...any) { a.logger.Error().Msg(fmt.Sprint(args...)) }
func (a zerologAdapter) Fatal(args ...any) { a.logger.Fatal().Msg(fmt.Sprint(args...)) }
