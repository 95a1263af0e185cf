package syncjob

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-kasir/internal/common"
	"github.com/noah-isme/backend-kasir/internal/obs"
	"github.com/noah-isme/backend-kasir/internal/reference"
	"github.com/noah-isme/backend-kasir/internal/resilience"
	"github.com/noah-isme/backend-kasir/internal/vault"
)

const (
	exportLockKey    = "sales-export"
	referenceLockKey = "sales-reference"
)

// Snapshots reads the open vault period.
type Snapshots interface {
	Current(ctx context.Context) (vault.PeriodSnapshot, error)
}

// Assigner tags untagged sales.
type Assigner interface {
	Assign(ctx context.Context, ref string, stockNos []string) (reference.Result, error)
	Pending(ctx context.Context) (int64, error)
}

// Locker runs fn only when no other worker holds key.
type Locker interface {
	TryLock(ctx context.Context, key string, fn func(context.Context) error) error
}

// Worker handles sync tasks. It only reads vault snapshots and calls the
// reference assigner.
type Worker struct {
	Snapshots Snapshots
	Assigner  Assigner
	Exporter  Exporter
	Breaker   *resilience.Breaker
	Locker    Locker
	Logger    *zerolog.Logger
}

// Mux routes task types to handlers.
func (w *Worker) Mux() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeSalesExport, w.HandleExport)
	mux.HandleFunc(TypeAssignReference, w.HandleAssign)
	return mux
}

// HandleExport exports the open period and tags its untagged sales with the
// reference returned by the exporter.
func (w *Worker) HandleExport(ctx context.Context, t *asynq.Task) error {
	if w.Snapshots == nil || w.Assigner == nil || w.Exporter == nil {
		return errors.New("export worker not configured")
	}
	var p ExportPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &p); err != nil {
			w.count("invalid")
			return fmt.Errorf("decode export payload: %v: %w", err, asynq.SkipRetry)
		}
	}
	result := "error"
	defer func() { w.count(result) }()

	err := w.lock(ctx, exportLockKey, func(ctx context.Context) error {
		pending, err := w.Assigner.Pending(ctx)
		if err != nil {
			return err
		}
		if pending == 0 {
			result = "skipped"
			w.logger().Info().Msg("export skipped, nothing untagged")
			return nil
		}
		snap, err := w.Snapshots.Current(ctx)
		if err != nil {
			return err
		}
		var ref string
		export := func(ctx context.Context) error {
			var err error
			ref, err = w.Exporter.Export(ctx, snap)
			return err
		}
		if w.Breaker != nil {
			err = w.Breaker.Do(ctx, export)
		} else {
			err = export(ctx)
		}
		if err != nil {
			return fmt.Errorf("export period %d: %w", snap.ID, err)
		}
		res, err := w.Assigner.Assign(ctx, ref, nil)
		if err != nil {
			return fmt.Errorf("assign %s: %w", ref, err)
		}
		result = "success"
		w.logger().Info().
			Str("reference", ref).
			Str("requested_by", p.RequestedBy).
			Int64("transactions", res.Transactions).
			Int64("items", res.Items).
			Msg("export completed")
		return nil
	})
	if err != nil {
		w.logger().Warn().Err(err).Msg("export failed")
	}
	return err
}

// HandleAssign runs one reference assignment.
func (w *Worker) HandleAssign(ctx context.Context, t *asynq.Task) error {
	if w.Assigner == nil {
		return errors.New("assign worker not configured")
	}
	var p AssignPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("decode assign payload: %v: %w", err, asynq.SkipRetry)
	}
	if err := common.ValidateStruct(p); err != nil {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}
	return w.lock(ctx, referenceLockKey, func(ctx context.Context) error {
		res, err := w.Assigner.Assign(ctx, p.Reference, p.StockNos)
		if errors.Is(err, reference.ErrMissingReference) {
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		if err != nil {
			return err
		}
		w.logger().Info().
			Str("reference", res.Reference).
			Int64("transactions", res.Transactions).
			Int64("items", res.Items).
			Msg("reference task completed")
		return nil
	})
}

func (w *Worker) lock(ctx context.Context, key string, fn func(context.Context) error) error {
	if w.Locker == nil {
		return fn(ctx)
	}
	return w.Locker.TryLock(ctx, key, fn)
}

func (w *Worker) count(result string) {
	if obs.ExportTaskTotal != nil {
		obs.ExportTaskTotal.WithLabelValues(result).Inc()
	}
}

func (w *Worker) logger() *zerolog.Logger {
	if w.Logger != nil {
		return w.Logger
	}
	nop := zerolog.Nop()
	return &nop
}

// RetryDelay returns an asynq retry policy using exponential backoff.
func RetryDelay(base time.Duration, jitter float64) asynq.RetryDelayFunc {
	return func(n int, _ error, _ *asynq.Task) time.Duration {
		return resilience.Backoff(base, n+1, jitter)
	}
}
