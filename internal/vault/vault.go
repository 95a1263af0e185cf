package vault

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-kasir/internal/common"
	"github.com/noah-isme/backend-kasir/internal/db"
	"github.com/noah-isme/backend-kasir/internal/db/gen"
	"github.com/noah-isme/backend-kasir/internal/obs"
)

// ErrPeriodNotFound is returned for unknown period ids.
var ErrPeriodNotFound = fmt.Errorf("vault period not found: %w", common.ErrNotFound)

// Line is one item's contribution to a sale.
type Line struct {
	ItemCode string
	Name     string
	Qty      int64
	Revenue  int64
}

// Sale is a committed transaction as the vault sees it.
type Sale struct {
	Lines  []Line
	Cash   int64
	Alt    int64
	Change int64
}

// Revenue sums line revenue.
func (s Sale) Revenue() int64 {
	var total int64
	for _, l := range s.Lines {
		total += l.Revenue
	}
	return total
}

// Receipt identifies where a sale was folded in. SalesNo is the period id and
// TxnNo the sale's position within the period.
type Receipt struct {
	PeriodID  int64     `json:"period_id"`
	SalesNo   int64     `json:"sales_no"`
	TxnNo     int32     `json:"txn_no"`
	StartedAt time.Time `json:"period_started_at"`
}

// ItemTotal is the per-item aggregate of a period.
type ItemTotal struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	Quantity int64  `json:"quantity"`
	Revenue  int64  `json:"revenue"`
}

// PeriodSnapshot is a read-only view of a vault period.
type PeriodSnapshot struct {
	ID           int64       `json:"id"`
	StartedAt    time.Time   `json:"started_at"`
	ClosedAt     *time.Time  `json:"closed_at,omitempty"`
	CashTendered int64       `json:"cash_tendered"`
	AltTendered  int64       `json:"alt_tendered"`
	ChangeGiven  int64       `json:"change_given"`
	Revenue      int64       `json:"revenue"`
	Transactions int32       `json:"transactions"`
	Items        []ItemTotal `json:"items,omitempty"`
}

// Vault accumulates sales into the open period. Folds and checkpoints are
// serialised in-process and each runs in one store transaction.
type Vault struct {
	Runner db.Runner
	Logger *zerolog.Logger
	Now    func() time.Time

	once sync.Once
	sem  chan struct{}
}

func (v *Vault) acquire(ctx context.Context) error {
	v.once.Do(func() { v.sem = make(chan struct{}, 1) })
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case v.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (v *Vault) release() { <-v.sem }

// Exclusive runs fn while holding the vault. No Record or Checkpoint can run
// until fn returns. Use it to fold a sale inside a larger transaction.
func (v *Vault) Exclusive(ctx context.Context, fn func(ctx context.Context) error) error {
	if v == nil {
		return errors.New("vault not configured")
	}
	if err := v.acquire(ctx); err != nil {
		return err
	}
	defer v.release()
	return fn(ctx)
}

// Record folds sale into the open period in its own transaction. It returns
// only after the fold is committed.
func (v *Vault) Record(ctx context.Context, sale Sale) (Receipt, error) {
	if v == nil || v.Runner == nil {
		return Receipt{}, errors.New("vault not configured")
	}
	var receipt Receipt
	err := v.Exclusive(ctx, func(ctx context.Context) error {
		return v.Runner.InTx(ctx, func(q gen.Querier) error {
			var err error
			receipt, err = v.RecordIn(ctx, q, sale)
			return err
		})
	})
	return receipt, err
}

// RecordIn folds sale through q. The caller must hold Exclusive and own the
// surrounding transaction.
func (v *Vault) RecordIn(ctx context.Context, q gen.Querier, sale Sale) (Receipt, error) {
	period, err := v.openPeriod(ctx, q)
	if err != nil {
		return Receipt{}, err
	}
	updated, err := q.AddVaultTotals(ctx, gen.AddVaultTotalsParams{
		Cash:    sale.Cash,
		Alt:     sale.Alt,
		Change:  sale.Change,
		Revenue: sale.Revenue(),
		ID:      period.ID,
	})
	if err != nil {
		return Receipt{}, db.Persistence("add vault totals", err)
	}
	for _, item := range aggregate(sale.Lines) {
		if err := q.UpsertVaultItem(ctx, gen.UpsertVaultItemParams{
			PeriodID: period.ID,
			ItemCode: item.Code,
			Name:     item.Name,
			Quantity: item.Quantity,
			Revenue:  item.Revenue,
		}); err != nil {
			return Receipt{}, db.Persistence("upsert vault item", err)
		}
	}
	return Receipt{
		PeriodID:  updated.ID,
		SalesNo:   updated.ID,
		TxnNo:     updated.TxnCount,
		StartedAt: updated.StartedAt.Time,
	}, nil
}

// Checkpoint closes the open period and starts a new one whose start is
// strictly after the close. It returns the closed period.
func (v *Vault) Checkpoint(ctx context.Context) (PeriodSnapshot, error) {
	if v == nil || v.Runner == nil {
		return PeriodSnapshot{}, errors.New("vault not configured")
	}
	var snap PeriodSnapshot
	err := v.Exclusive(ctx, func(ctx context.Context) error {
		return v.Runner.InTx(ctx, func(q gen.Querier) error {
			period, err := v.openPeriod(ctx, q)
			if err != nil {
				return err
			}
			closedAt := v.now()
			if !closedAt.After(period.StartedAt.Time) {
				closedAt = period.StartedAt.Time.Add(time.Microsecond)
			}
			closed, err := q.CloseVaultPeriod(ctx, gen.CloseVaultPeriodParams{ClosedAt: timestamptz(closedAt), ID: period.ID})
			if err != nil {
				return db.Persistence("close vault period", err)
			}
			items, err := q.ListVaultItems(ctx, closed.ID)
			if err != nil {
				return db.Persistence("list vault items", err)
			}
			nextStart := v.now()
			if !nextStart.After(closedAt) {
				nextStart = closedAt.Add(time.Microsecond)
			}
			if _, err := q.CreateVaultPeriod(ctx, timestamptz(nextStart)); err != nil {
				return db.Persistence("create vault period", err)
			}
			snap = snapshot(closed, items)
			return nil
		})
	})
	if err != nil {
		return PeriodSnapshot{}, err
	}
	if obs.VaultCheckpointTotal != nil {
		obs.VaultCheckpointTotal.Inc()
	}
	if v.Logger != nil {
		v.Logger.Info().
			Int64("period_id", snap.ID).
			Int64("revenue", snap.Revenue).
			Int32("transactions", snap.Transactions).
			Msg("vault period closed")
	}
	return snap, nil
}

// Current returns the open period. Before the first sale it is an empty
// snapshot with a zero ID.
func (v *Vault) Current(ctx context.Context) (PeriodSnapshot, error) {
	if v == nil || v.Runner == nil {
		return PeriodSnapshot{}, errors.New("vault not configured")
	}
	var snap PeriodSnapshot
	err := v.Runner.InTx(ctx, func(q gen.Querier) error {
		period, err := q.GetOpenVaultPeriod(ctx)
		if db.IsNoRows(err) {
			return nil
		}
		if err != nil {
			return db.Persistence("get open vault period", err)
		}
		items, err := q.ListVaultItems(ctx, period.ID)
		if err != nil {
			return db.Persistence("list vault items", err)
		}
		snap = snapshot(period, items)
		return nil
	})
	return snap, err
}

// Period returns any period with its items.
func (v *Vault) Period(ctx context.Context, id int64) (PeriodSnapshot, error) {
	if v == nil || v.Runner == nil {
		return PeriodSnapshot{}, errors.New("vault not configured")
	}
	var snap PeriodSnapshot
	err := v.Runner.InTx(ctx, func(q gen.Querier) error {
		period, err := q.GetVaultPeriod(ctx, id)
		if db.IsNoRows(err) {
			return fmt.Errorf("%d: %w", id, ErrPeriodNotFound)
		}
		if err != nil {
			return db.Persistence("get vault period", err)
		}
		items, err := q.ListVaultItems(ctx, id)
		if err != nil {
			return db.Persistence("list vault items", err)
		}
		snap = snapshot(period, items)
		return nil
	})
	return snap, err
}

// Closed lists closed periods newest first, without items.
func (v *Vault) Closed(ctx context.Context, limit, offset int) ([]PeriodSnapshot, error) {
	if v == nil || v.Runner == nil {
		return nil, errors.New("vault not configured")
	}
	var out []PeriodSnapshot
	err := v.Runner.InTx(ctx, func(q gen.Querier) error {
		rows, err := q.ListClosedVaultPeriods(ctx, gen.ListClosedVaultPeriodsParams{
			LimitCount: int32(limit),
			OffsetRows: int32(offset),
		})
		if err != nil {
			return db.Persistence("list closed vault periods", err)
		}
		out = make([]PeriodSnapshot, 0, len(rows))
		for _, row := range rows {
			out = append(out, snapshot(row, nil))
		}
		return nil
	})
	return out, err
}

func (v *Vault) openPeriod(ctx context.Context, q gen.Querier) (gen.VaultPeriod, error) {
	period, err := q.GetOpenVaultPeriodForUpdate(ctx)
	if err == nil {
		return period, nil
	}
	if !db.IsNoRows(err) {
		return gen.VaultPeriod{}, db.Persistence("lock open vault period", err)
	}
	period, err = q.CreateVaultPeriod(ctx, timestamptz(v.now()))
	if err != nil {
		return gen.VaultPeriod{}, db.Persistence("create vault period", err)
	}
	return period, nil
}

func (v *Vault) now() time.Time {
	if v != nil && v.Now != nil {
		return v.Now().UTC()
	}
	return time.Now().UTC()
}

func aggregate(lines []Line) []ItemTotal {
	byCode := map[string]*ItemTotal{}
	var order []string
	for _, l := range lines {
		item, ok := byCode[l.ItemCode]
		if !ok {
			item = &ItemTotal{Code: l.ItemCode, Name: l.Name}
			byCode[l.ItemCode] = item
			order = append(order, l.ItemCode)
		}
		item.Quantity += l.Qty
		item.Revenue += l.Revenue
	}
	sort.Strings(order)
	out := make([]ItemTotal, 0, len(order))
	for _, code := range order {
		out = append(out, *byCode[code])
	}
	return out
}

func snapshot(p gen.VaultPeriod, items []gen.VaultItem) PeriodSnapshot {
	snap := PeriodSnapshot{
		ID:           p.ID,
		StartedAt:    p.StartedAt.Time,
		CashTendered: p.CashTendered,
		AltTendered:  p.AltTendered,
		ChangeGiven:  p.ChangeGiven,
		Revenue:      p.Revenue,
		Transactions: p.TxnCount,
	}
	if p.ClosedAt.Valid {
		closed := p.ClosedAt.Time
		snap.ClosedAt = &closed
	}
	for _, it := range items {
		snap.Items = append(snap.Items, ItemTotal{
			Code:     it.ItemCode,
			Name:     it.Name,
			Quantity: it.Quantity,
			Revenue:  it.Revenue,
		})
	}
	return snap
}

func timestamptz(t time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{Time: t.Truncate(time.Microsecond), Valid: true}
}
