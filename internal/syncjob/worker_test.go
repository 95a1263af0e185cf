package syncjob_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgtype"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-kasir/internal/db/gen"
	"github.com/noah-isme/backend-kasir/internal/db/memdb"
	"github.com/noah-isme/backend-kasir/internal/lock"
	"github.com/noah-isme/backend-kasir/internal/reference"
	"github.com/noah-isme/backend-kasir/internal/resilience"
	"github.com/noah-isme/backend-kasir/internal/syncjob"
	"github.com/noah-isme/backend-kasir/internal/vault"
)

type stubExporter struct {
	mu    sync.Mutex
	calls []vault.PeriodSnapshot
	ref   string
	err   error
}

func (s *stubExporter) Export(_ context.Context, snap vault.PeriodSnapshot) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, snap)
	return s.ref, s.err
}

func (s *stubExporter) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

type harness struct {
	store    *memdb.DB
	vault    *vault.Vault
	assigner *reference.Assigner
	locker   lock.Locker
	exporter *stubExporter
	worker   *syncjob.Worker
}

func newHarness(t *testing.T) harness {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := memdb.New()
	h := harness{
		store:    store,
		vault:    &vault.Vault{Runner: store},
		assigner: &reference.Assigner{Runner: store},
		locker:   lock.Locker{R: client, Prefix: "kasir:lock:", TTL: time.Second},
		exporter: &stubExporter{ref: "ORD-77"},
	}
	h.worker = &syncjob.Worker{
		Snapshots: h.vault,
		Assigner:  h.assigner,
		Exporter:  h.exporter,
		Breaker:   resilience.NewBreaker(resilience.BreakerConfig{Target: "sales-export", MinRequests: 2, OpenFor: time.Minute}),
		Locker:    h.locker,
	}
	return h
}

// sell records one vault sale and one stored sale holding codes.
func (h harness) sell(t *testing.T, codes ...string) {
	t.Helper()
	ctx := context.Background()
	lines := make([]vault.Line, 0, len(codes))
	for _, code := range codes {
		lines = append(lines, vault.Line{ItemCode: code, Name: code, Qty: 1, Revenue: 500})
	}
	err := h.store.InTx(ctx, func(q gen.Querier) error {
		receipt, err := h.vault.RecordIn(ctx, q, vault.Sale{Lines: lines, Cash: int64(500 * len(codes))})
		if err != nil {
			return err
		}
		saleID, err := q.InsertSale(ctx, gen.InsertSaleParams{
			InternalID: pgtype.UUID{Bytes: uuid.New(), Valid: true},
			SalesNo:    receipt.SalesNo,
			TxnNo:      receipt.TxnNo,
			PeriodID:   receipt.PeriodID,
			TerminalID: "POS-01",
		})
		if err != nil {
			return err
		}
		for n, code := range codes {
			if err := q.InsertSaleItem(ctx, gen.InsertSaleItemParams{
				SaleID:   saleID,
				LineNo:   int32(n + 1),
				Kind:     "product",
				ItemCode: code,
				Name:     code,
				Quantity: 1,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)
}

func exportTask(t *testing.T) *asynq.Task {
	t.Helper()
	task, err := syncjob.NewExportTask(syncjob.ExportPayload{RequestedBy: "op-1", RequestedAt: time.Now().UTC()}, 3, 0)
	require.NoError(t, err)
	return task
}

func TestExportTagsPendingSales(t *testing.T) {
	h := newHarness(t)
	h.sell(t, "A100", "B200")
	h.sell(t, "A100")
	ctx := context.Background()

	require.NoError(t, h.worker.HandleExport(ctx, exportTask(t)))

	require.Equal(t, 1, h.exporter.count())
	snap := h.exporter.calls[0]
	require.Equal(t, int64(1500), snap.Revenue)
	require.Equal(t, int32(2), snap.Transactions)

	pending, err := h.assigner.Pending(ctx)
	require.NoError(t, err)
	require.Zero(t, pending)
	for _, item := range h.store.SaleItems() {
		require.Equal(t, "ORD-77", item.Reference.String)
	}
}

func TestExportSkipsWhenNothingPending(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.worker.HandleExport(context.Background(), exportTask(t)))
	require.Zero(t, h.exporter.count())
}

func TestExportFailureLeavesSalesUntaggedAndOpensBreaker(t *testing.T) {
	h := newHarness(t)
	h.sell(t, "A100")
	h.exporter.err = errors.New("upstream down")
	ctx := context.Background()

	for range 2 {
		err := h.worker.HandleExport(ctx, exportTask(t))
		require.ErrorContains(t, err, "upstream down")
	}
	err := h.worker.HandleExport(ctx, exportTask(t))
	require.ErrorIs(t, err, resilience.ErrOpenCircuit)
	require.Equal(t, 2, h.exporter.count())
	require.Equal(t, resilience.Open, h.worker.Breaker.State())

	pending, err := h.assigner.Pending(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), pending)
}

func TestExportBusyWhileAnotherExportRuns(t *testing.T) {
	h := newHarness(t)
	h.sell(t, "A100")
	ctx := context.Background()

	err := h.locker.WithLock(ctx, "sales-export", func(ctx context.Context) error {
		return h.worker.HandleExport(ctx, exportTask(t))
	})
	require.ErrorIs(t, err, lock.ErrBusy)
	require.Zero(t, h.exporter.count())
}

func TestExportRejectsMalformedPayload(t *testing.T) {
	h := newHarness(t)
	err := h.worker.HandleExport(context.Background(), asynq.NewTask(syncjob.TypeSalesExport, []byte("{")))
	require.ErrorIs(t, err, asynq.SkipRetry)
}

func TestAssignTask(t *testing.T) {
	h := newHarness(t)
	h.sell(t, "A100", "B200")
	ctx := context.Background()

	task, err := syncjob.NewAssignTask(syncjob.AssignPayload{Reference: "R-9", StockNos: []string{"B200"}}, 3)
	require.NoError(t, err)
	require.Equal(t, syncjob.TypeAssignReference, task.Type())
	require.NoError(t, h.worker.HandleAssign(ctx, task))

	pending, err := h.assigner.Pending(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), pending)

	blank, err := json.Marshal(syncjob.AssignPayload{Reference: ""})
	require.NoError(t, err)
	err = h.worker.HandleAssign(ctx, asynq.NewTask(syncjob.TypeAssignReference, blank))
	require.ErrorIs(t, err, asynq.SkipRetry)
}

func TestRetryDelayGrows(t *testing.T) {
	delay := syncjob.RetryDelay(time.Second, 0)
	task := asynq.NewTask(syncjob.TypeSalesExport, nil)
	require.Equal(t, time.Second, delay(0, nil, task))
	require.Equal(t, 2*time.Second, delay(1, nil, task))
	require.Equal(t, 8*time.Second, delay(3, nil, task))
	require.Equal(t, resilience.MaxBackoff, delay(40, nil, task))
}

func TestLogExporterReference(t *testing.T) {
	exp := syncjob.LogExporter{
		Prefix: "POS",
		Now:    func() time.Time { return time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC) },
	}
	ref, err := exp.Export(context.Background(), vault.PeriodSnapshot{ID: 12})
	require.NoError(t, err)
	require.Equal(t, "POS-12-20260304050607", ref)
}
