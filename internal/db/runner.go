package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/noah-isme/backend-kasir/internal/common"
	"github.com/noah-isme/backend-kasir/internal/db/gen"
)

// Runner executes fn inside a single persistence transaction. Returning an
// error from fn rolls back every write made through the querier.
type Runner interface {
	InTx(ctx context.Context, fn func(q gen.Querier) error) error
}

// PoolRunner runs transactions on a pgx connection pool.
type PoolRunner struct {
	Pool *pgxpool.Pool
	Q    *gen.Queries
}

// NewPoolRunner wraps pool with generated queries.
func NewPoolRunner(pool *pgxpool.Pool) *PoolRunner {
	return &PoolRunner{Pool: pool, Q: gen.New(pool)}
}

// InTx implements Runner.
func (r *PoolRunner) InTx(ctx context.Context, fn func(q gen.Querier) error) error {
	if r == nil || r.Pool == nil || r.Q == nil {
		return errors.New("db runner not configured")
	}
	tx, err := r.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w: %w", common.ErrPersistence, err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()
	if err := fn(r.Q.WithTx(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w: %w", common.ErrPersistence, err)
	}
	return nil
}

// IsNoRows reports whether err means the query matched nothing.
func IsNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// IsConstraintViolation reports whether err is an integrity constraint
// violation (SQLSTATE class 23) rather than a store outage.
func IsConstraintViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return strings.HasPrefix(pgErr.Code, "23")
	}
	return false
}

// Persistence wraps a store failure with the persistence category so callers
// can retry it.
func Persistence(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, common.ErrPersistence) {
		return err
	}
	return fmt.Errorf("%s: %w: %w", op, common.ErrPersistence, err)
}
