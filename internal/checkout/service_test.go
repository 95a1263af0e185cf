package checkout_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-kasir/internal/catalog"
	"github.com/noah-isme/backend-kasir/internal/checkout"
	"github.com/noah-isme/backend-kasir/internal/common"
	"github.com/noah-isme/backend-kasir/internal/db"
	"github.com/noah-isme/backend-kasir/internal/db/memdb"
	"github.com/noah-isme/backend-kasir/internal/inventory"
	"github.com/noah-isme/backend-kasir/internal/pricing"
	"github.com/noah-isme/backend-kasir/internal/vault"
)

const storeYAML = `
promos:
  - code: B2T1
    name: Two for eighteen
    units_per_sale: 2
    price: "18.00"
products:
  - stock_no: A
    name: Kopi Susu
    price: "9.00"
    stock: 10
    shorthand: KS
    promos:
      - code: B2T1
  - stock_no: B
    name: Roti Bakar
    price: "5.00"
    stock: 10
  - stock_no: X
    name: Tote Bag
    price: "3.00"
    stock: 4
bundles:
  - code: COMBO1
    name: Breakfast combo
    price: "25.00"
    components:
      - stock_no: A
        quantity: 1
      - stock_no: B
        quantity: 2
tiers:
  - code: T100
    name: Hundred club
    threshold: "100.00"
    message: Free tote bag
    freebies:
      - stock_no: X
        quantity: 1
`

type harness struct {
	store *memdb.DB
	vault *vault.Vault
	svc   *checkout.Service
}

func newHarness(t *testing.T) harness {
	t.Helper()
	ctx := context.Background()
	store := memdb.New()
	caps := db.NegotiateCapabilities(db.PromoPriceVersion)
	im := &catalog.Importer{Runner: store, Caps: caps}
	_, err := im.ImportFile(ctx, stringReader(storeYAML))
	require.NoError(t, err)

	cat := &catalog.Service{Runner: store, Caps: caps}
	_, err = cat.Reload(ctx)
	require.NoError(t, err)

	v := &vault.Vault{Runner: store}
	return harness{
		store: store,
		vault: v,
		svc: &checkout.Service{
			Catalog:    cat,
			Policy:     pricing.TierPolicyOnce,
			Runner:     store,
			Vault:      v,
			Ledger:     &inventory.Ledger{},
			TerminalID: "T1",
			Now:        func() time.Time { return time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC) },
		},
	}
}

func (h harness) stock(t *testing.T, stockNo string) int64 {
	t.Helper()
	v, ok := h.store.Stock(stockNo)
	require.True(t, ok, stockNo)
	return v
}

// requireUntouched asserts that no checkout left any trace.
func (h harness) requireUntouched(t *testing.T) {
	t.Helper()
	require.Equal(t, int64(10), h.stock(t, "A"))
	require.Equal(t, int64(10), h.stock(t, "B"))
	require.Equal(t, int64(4), h.stock(t, "X"))
	require.Empty(t, h.store.Sales())
	require.Empty(t, h.store.SaleItems())
	require.Empty(t, h.store.Movements())
	snap, err := h.vault.Current(context.Background())
	require.NoError(t, err)
	require.Zero(t, snap.Transactions)
}

func scenarioCart() []pricing.CartLine {
	return []pricing.CartLine{{Code: "A", Qty: 3}, {Code: "COMBO1", Qty: 1}}
}

func TestCommitScenario(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	out, err := h.svc.Commit(ctx, checkout.Input{Lines: scenarioCart(), Cash: 6000})
	require.NoError(t, err)

	txn := out.Transaction
	require.Equal(t, int64(1800+900+2500), txn.Total)
	require.Equal(t, int64(800), txn.Change)
	require.Equal(t, txn.PeriodID, txn.SalesNo)
	require.Equal(t, int32(1), txn.TxnNo)
	require.Equal(t, "T1", txn.TerminalID)
	require.NotEmpty(t, txn.InternalID)
	require.Len(t, txn.Lines, 2)
	require.Equal(t, "B2T1", txn.Lines[0].PromoCode)
	require.Equal(t, int64(1), txn.Lines[0].Applications)
	require.Equal(t, int64(1), txn.Lines[0].Remainder)

	require.Equal(t, int64(10-3-1), h.stock(t, "A"))
	require.Equal(t, int64(10-2), h.stock(t, "B"))
	require.Equal(t, int64(6), out.Inventory.Units)

	sales := h.store.Sales()
	require.Len(t, sales, 1)
	require.Equal(t, int64(5200), sales[0].Total)
	require.Equal(t, int64(800), sales[0].ChangeGiven)
	require.False(t, sales[0].Reference.Valid)
	require.Len(t, h.store.SaleItems(), 2)
	require.Len(t, h.store.Movements(), 2)

	snap, err := h.vault.Current(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(5200), snap.Revenue)
	require.Equal(t, int64(6000), snap.CashTendered)
	require.Equal(t, int64(800), snap.ChangeGiven)

	again, err := h.svc.Commit(ctx, checkout.Input{Lines: []pricing.CartLine{{Code: "KS", Qty: 1}}, Cash: 900})
	require.NoError(t, err)
	require.Equal(t, txn.SalesNo, again.Transaction.SalesNo)
	require.Equal(t, int32(2), again.Transaction.TxnNo)
	require.Zero(t, again.Transaction.Change)
}

func TestCommitRejectsInsufficientTender(t *testing.T) {
	h := newHarness(t)
	_, err := h.svc.Commit(context.Background(), checkout.Input{Lines: scenarioCart(), Cash: 5000})
	require.ErrorIs(t, err, checkout.ErrInsufficientTender)
	require.ErrorIs(t, err, common.ErrValidation)
	h.requireUntouched(t)
}

func TestCommitTender(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.svc.Commit(ctx, checkout.Input{Lines: scenarioCart(), Alt: 6000})
	require.ErrorIs(t, err, checkout.ErrInvalidTender)

	_, err = h.svc.Commit(ctx, checkout.Input{Lines: scenarioCart(), Cash: -1, Alt: 6000})
	require.ErrorIs(t, err, checkout.ErrInvalidTender)
	h.requireUntouched(t)

	out, err := h.svc.Commit(ctx, checkout.Input{Lines: scenarioCart(), Cash: 3000, Alt: 2500})
	require.NoError(t, err)
	require.Equal(t, int64(300), out.Transaction.Change)

	snap, err := h.vault.Current(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(3000), snap.CashTendered)
	require.Equal(t, int64(2500), snap.AltTendered)
	require.Equal(t, int64(300), snap.ChangeGiven)
}

func TestCommitEarnsBasketTier(t *testing.T) {
	h := newHarness(t)
	out, err := h.svc.Commit(context.Background(), checkout.Input{
		Lines: []pricing.CartLine{{Code: "A", Qty: 6}, {Code: "COMBO1", Qty: 2}},
		Cash:  10400,
	})
	require.NoError(t, err)
	require.Equal(t, int64(3*1800+2*2500), out.Transaction.Total)
	require.Len(t, out.Transaction.Tiers, 1)
	require.Equal(t, "T100", out.Transaction.Tiers[0].Code)

	lines := out.Transaction.Lines
	require.Len(t, lines, 3)
	require.Equal(t, pricing.LineFreebie, lines[2].Kind)
	require.Zero(t, lines[2].Total)

	require.Equal(t, int64(10-6-2), h.stock(t, "A"))
	require.Equal(t, int64(10-4), h.stock(t, "B"))
	require.Equal(t, int64(4-1), h.stock(t, "X"))

	items := h.store.SaleItems()
	require.Len(t, items, 3)
	require.Equal(t, "freebie", items[2].Kind)
}

func TestCommitAppliesLineDiscount(t *testing.T) {
	h := newHarness(t)
	out, err := h.svc.Commit(context.Background(), checkout.Input{
		Lines: []pricing.CartLine{{Code: "A", Qty: 1, DiscountPct: decimal.NewFromInt(10)}},
		Cash:  1000,
	})
	require.NoError(t, err)
	require.Equal(t, int64(810), out.Transaction.Total)
	require.Equal(t, int64(90), out.Transaction.Discount)
	require.Equal(t, int64(190), out.Transaction.Change)

	items := h.store.SaleItems()
	require.Len(t, items, 1)
	require.True(t, items[0].DiscountPct.Valid)
	require.Equal(t, int64(810), items[0].LineTotal)
}

func TestCommitIsAllOrNothing(t *testing.T) {
	for _, method := range []string{"AdjustProductStock", "InsertStockMovement", "AddVaultTotals", "UpsertVaultItem", "InsertSale", "InsertSaleItem"} {
		t.Run(method, func(t *testing.T) {
			h := newHarness(t)
			h.store.FailOn(method, errors.New("connection reset"))
			_, err := h.svc.Commit(context.Background(), checkout.Input{Lines: scenarioCart(), Cash: 6000})
			require.ErrorIs(t, err, common.ErrPersistence)

			h.store.FailOn(method, nil)
			h.requireUntouched(t)
		})
	}
}

func TestCommitMissingProductIsConsistencyError(t *testing.T) {
	h := newHarness(t)
	require.True(t, h.store.DeleteProduct("B"))

	_, err := h.svc.Commit(context.Background(), checkout.Input{Lines: scenarioCart(), Cash: 6000})
	require.ErrorIs(t, err, inventory.ErrInventoryConsistency)
	require.ErrorIs(t, err, common.ErrConsistency)

	require.Equal(t, int64(10), h.stock(t, "A"))
	require.Empty(t, h.store.Sales())
	require.Empty(t, h.store.Movements())
}

func TestCommitPricingErrors(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.svc.Commit(ctx, checkout.Input{Lines: []pricing.CartLine{{Code: "NOPE", Qty: 1}}, Cash: 100})
	require.ErrorIs(t, err, pricing.ErrNoSuchProduct)

	_, err = h.svc.Commit(ctx, checkout.Input{Lines: []pricing.CartLine{{Code: "A", Qty: 0}}, Cash: 100})
	require.ErrorIs(t, err, pricing.ErrInvalidQuantity)

	_, err = h.svc.Commit(ctx, checkout.Input{Cash: 100})
	require.ErrorIs(t, err, pricing.ErrEmptyCart)
	h.requireUntouched(t)
}

func TestCommitCancelledBeforeWriting(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := h.svc.Commit(ctx, checkout.Input{Lines: scenarioCart(), Cash: 6000})
	require.ErrorIs(t, err, context.Canceled)
	h.requireUntouched(t)
}

func TestPriceWithoutCatalog(t *testing.T) {
	svc := &checkout.Service{Catalog: &catalog.Service{}}
	_, err := svc.Price(context.Background(), scenarioCart())
	require.ErrorIs(t, err, pricing.ErrCatalogUnavailable)
	require.ErrorIs(t, err, common.ErrPersistence)
}
