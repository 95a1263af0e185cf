package inventory_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-kasir/internal/catalog"
	"github.com/noah-isme/backend-kasir/internal/common"
	"github.com/noah-isme/backend-kasir/internal/db/gen"
	"github.com/noah-isme/backend-kasir/internal/db/memdb"
	"github.com/noah-isme/backend-kasir/internal/inventory"
	"github.com/noah-isme/backend-kasir/internal/pricing"
)

func ptr(v int64) *int64 { return &v }

func fixture(t *testing.T) (*memdb.DB, *pricing.Engine) {
	t.Helper()
	records := catalog.Records{
		Promos: []catalog.PromoRecord{{Code: "B2T1", Name: "Two for 18", UnitsPerSale: 2, Price: ptr(1800)}},
		Products: []catalog.ProductRecord{
			{StockNo: "A", Name: "A", Price: 900, Stock: 10, Promos: []catalog.PromoLinkRecord{{Code: "B2T1"}}},
			{StockNo: "B", Name: "B", Price: 500, Stock: 10},
			{StockNo: "X", Name: "X", Price: 300, Stock: 1},
		},
		Bundles: []catalog.BundleRecord{{Code: "COMBO1", Name: "Combo", Price: 2500, Components: []catalog.ComponentRecord{
			{StockNo: "A", Quantity: 1},
			{StockNo: "B", Quantity: 2},
		}}},
		Tiers: []catalog.TierRecord{{Code: "T50", Name: "Fifty", Threshold: 5000, Freebies: []catalog.ComponentRecord{{StockNo: "X", Quantity: 2}}}},
	}
	store := memdb.New()
	im := &catalog.Importer{Runner: store}
	_, err := im.Import(context.Background(), records)
	require.NoError(t, err)
	idx, _ := catalog.Build(records, nil)
	return store, pricing.NewEngine(idx, pricing.TierPolicyOnce)
}

func stock(t *testing.T, store *memdb.DB, stockNo string) int64 {
	t.Helper()
	v, ok := store.Stock(stockNo)
	require.True(t, ok, stockNo)
	return v
}

func TestDemandAggregatesAllLineKinds(t *testing.T) {
	_, engine := fixture(t)
	priced, err := engine.Price([]pricing.CartLine{
		{Code: "A", Qty: 3},
		{Code: "COMBO1", Qty: 2},
	})
	require.NoError(t, err)
	require.Equal(t, map[string]int64{"A": 3 + 2, "B": 4, "X": 2}, inventory.Demand(priced))
}

func TestApplyDecrementsAndRecordsMovements(t *testing.T) {
	store, engine := fixture(t)
	priced, err := engine.Price([]pricing.CartLine{{Code: "A", Qty: 3}, {Code: "COMBO1", Qty: 1}})
	require.NoError(t, err)

	ledger := &inventory.Ledger{}
	saleID := uuid.New()
	var report inventory.ConsumptionReport
	require.NoError(t, store.InTx(context.Background(), func(q gen.Querier) error {
		var err error
		report, err = ledger.Apply(context.Background(), q, priced, saleID)
		return err
	}))

	require.Equal(t, int64(10-4), stock(t, store, "A"))
	require.Equal(t, int64(10-2), stock(t, store, "B"))
	require.Equal(t, int64(1-2), stock(t, store, "X"))

	require.Len(t, report.Lines, 3)
	require.Equal(t, int64(8), report.Units)
	require.Equal(t, 1, report.Oversold)
	x := report.Lines[2]
	require.Equal(t, "X", x.StockNo)
	require.True(t, x.Oversold)
	require.Equal(t, int64(1), x.StockBefore)
	require.Equal(t, int64(-1), x.StockAfter)

	movements := store.Movements()
	require.Len(t, movements, 3)
	for _, m := range movements {
		require.True(t, m.SaleID.Valid)
		require.Equal(t, [16]byte(saleID), m.SaleID.Bytes)
		require.Equal(t, m.StockBefore+m.Delta, m.StockAfter)
	}
}

func TestApplyMissingProductChangesNothing(t *testing.T) {
	store, engine := fixture(t)
	priced, err := engine.Price([]pricing.CartLine{{Code: "A", Qty: 1}, {Code: "COMBO1", Qty: 1}})
	require.NoError(t, err)
	require.True(t, store.DeleteProduct("B"))

	err = store.InTx(context.Background(), func(q gen.Querier) error {
		_, err := (&inventory.Ledger{}).Apply(context.Background(), q, priced, uuid.New())
		return err
	})
	require.ErrorIs(t, err, inventory.ErrInventoryConsistency)
	require.ErrorIs(t, err, common.ErrConsistency)
	require.Contains(t, err.Error(), "B")

	require.Equal(t, int64(10), stock(t, store, "A"))
	require.Empty(t, store.Movements())
}

func TestApplyMidwayFailureRollsBack(t *testing.T) {
	store, engine := fixture(t)
	priced, err := engine.Price([]pricing.CartLine{{Code: "A", Qty: 2}, {Code: "B", Qty: 1}})
	require.NoError(t, err)

	store.FailOn("InsertStockMovement", errors.New("disk full"))
	err = store.InTx(context.Background(), func(q gen.Querier) error {
		_, err := (&inventory.Ledger{}).Apply(context.Background(), q, priced, uuid.New())
		return err
	})
	require.ErrorIs(t, err, common.ErrPersistence)

	require.Equal(t, int64(10), stock(t, store, "A"))
	require.Equal(t, int64(10), stock(t, store, "B"))
}

func TestApplyRejectsUnknownFreebieProduct(t *testing.T) {
	store := memdb.New()
	idx, _ := catalog.Build(catalog.Records{
		Products: []catalog.ProductRecord{{StockNo: "P", Name: "P", Price: 6000, Stock: 3}},
		Tiers:    []catalog.TierRecord{{Code: "T", Name: "T", Threshold: 5000, Freebies: []catalog.ComponentRecord{{StockNo: "GONE", Quantity: 1}}}},
	}, nil)
	_, err := (&catalog.Importer{Runner: store}).Import(context.Background(), catalog.Records{
		Products: []catalog.ProductRecord{{StockNo: "P", Name: "P", Price: 6000, Stock: 3}},
	})
	require.NoError(t, err)

	priced, err := pricing.NewEngine(idx, pricing.TierPolicyOnce).Price([]pricing.CartLine{{Code: "P", Qty: 1}})
	require.NoError(t, err)
	require.Len(t, priced.Lines, 2)

	err = store.InTx(context.Background(), func(q gen.Querier) error {
		_, err := (&inventory.Ledger{}).Apply(context.Background(), q, priced, uuid.New())
		return err
	})
	require.ErrorIs(t, err, inventory.ErrInventoryConsistency)
	require.Equal(t, int64(3), stock(t, store, "P"))
}
