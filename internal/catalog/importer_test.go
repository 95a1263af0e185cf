package catalog_test

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-kasir/internal/catalog"
	"github.com/noah-isme/backend-kasir/internal/common"
	"github.com/noah-isme/backend-kasir/internal/db"
	"github.com/noah-isme/backend-kasir/internal/db/memdb"
)

const catalogYAML = `
promos:
  - code: B2T1
    name: Buy two
    units_per_sale: 2
    price: "18.00"
products:
  - stock_no: A100
    name: Kopi Susu
    price: 10.00
    stock: 40
    shorthand: KS
    promos:
      - code: B2T1
  - stock_no: B200
    name: Teh Manis
    price: "7"
    stock: 12
  - stock_no: X900
    name: Tote Bag
    price: 0
    stock: 5
bundles:
  - code: COMBO1
    name: Breakfast combo
    price: 25.00
    sku: SKU-COMBO1
    components:
      - stock_no: A100
        quantity: 1
      - stock_no: B200
        variant_index: 1
        quantity: 2
tiers:
  - code: SILVER
    name: Silver
    threshold: 100.00
    message: Free tote
    freebies:
      - stock_no: X900
        quantity: 1
`

func importInto(t *testing.T, store *memdb.DB, caps db.Capabilities, doc string) catalog.ImportReport {
	t.Helper()
	im := &catalog.Importer{Runner: store, Caps: caps}
	report, err := im.ImportFile(context.Background(), strings.NewReader(doc))
	require.NoError(t, err)
	return report
}

func loadIndex(t *testing.T, store *memdb.DB, caps db.Capabilities) *catalog.Index {
	t.Helper()
	svc := &catalog.Service{Runner: store, Caps: caps}
	snap, err := svc.Reload(context.Background())
	require.NoError(t, err)
	return snap.Index
}

func TestImportFileCreatesThenUpdates(t *testing.T) {
	store := memdb.New()
	caps := db.NegotiateCapabilities(db.PromoPriceVersion)

	report := importInto(t, store, caps, catalogYAML)
	require.Equal(t, 6, report.Created)
	require.Zero(t, report.Updated)
	require.Empty(t, report.Skipped)

	idx := loadIndex(t, store, caps)
	a100, ok := idx.Product("A100")
	require.True(t, ok)
	require.Equal(t, int64(1000), a100.Price)
	b200, _ := idx.Product("B200")
	require.Equal(t, int64(700), b200.Price)
	promo, ok := idx.Promo("B2T1")
	require.True(t, ok)
	require.True(t, promo.HasPrice)
	require.Equal(t, int64(1800), promo.Price)
	tiers := idx.Tiers()
	require.Len(t, tiers, 1)
	require.Equal(t, int64(10000), tiers[0].Threshold)

	report = importInto(t, store, caps, catalogYAML)
	require.Zero(t, report.Created)
	require.Equal(t, 6, report.Updated)
}

func TestReimportReplacesBundleComponents(t *testing.T) {
	store := memdb.New()
	caps := db.NegotiateCapabilities(db.PromoPriceVersion)
	importInto(t, store, caps, catalogYAML)

	replaced := `
bundles:
  - code: COMBO1
    name: Breakfast combo
    price: 25.00
    components:
      - stock_no: B200
        quantity: 3
`
	importInto(t, store, caps, replaced)
	importInto(t, store, caps, replaced)

	first, ok := loadIndex(t, store, caps).Bundle("COMBO1")
	require.True(t, ok)
	second, ok := loadIndex(t, store, caps).Bundle("COMBO1")
	require.True(t, ok)
	require.Equal(t, []catalog.Component{{StockNo: "B200", Quantity: 3}}, first.Components)
	require.Equal(t, first.Components, second.Components)
}

func TestReimportReplacesPromoLinks(t *testing.T) {
	store := memdb.New()
	caps := db.NegotiateCapabilities(db.PromoPriceVersion)
	importInto(t, store, caps, catalogYAML)
	require.Len(t, loadIndex(t, store, caps).PromosFor("A100"), 1)

	importInto(t, store, caps, `
products:
  - stock_no: A100
    name: Kopi Susu
    price: 10.00
    stock: 40
    shorthand: KS
`)
	idx := loadIndex(t, store, caps)
	require.Empty(t, idx.PromosFor("A100"))
	_, ok := idx.Promo("B2T1")
	require.True(t, ok, "promo type itself is untouched")
}

func TestReimportKeepsLiveStock(t *testing.T) {
	store := memdb.New()
	caps := db.NegotiateCapabilities(db.PromoPriceVersion)
	importInto(t, store, caps, catalogYAML)

	store.SetStock("A100", 33)
	importInto(t, store, caps, catalogYAML)

	v, ok := store.Stock("A100")
	require.True(t, ok)
	require.Equal(t, int64(33), v)
	a100, _ := loadIndex(t, store, caps).Product("A100")
	require.Equal(t, int64(1000), a100.Price)
}

func TestImportComponentFailureKeepsPreviousComponents(t *testing.T) {
	store := memdb.New()
	caps := db.NegotiateCapabilities(db.PromoPriceVersion)
	importInto(t, store, caps, catalogYAML)

	store.FailOn("InsertBundleComponent", errors.New("connection reset"))
	im := &catalog.Importer{Runner: store, Caps: caps}
	_, err := im.ImportFile(context.Background(), strings.NewReader(`
bundles:
  - code: COMBO1
    name: Breakfast combo
    price: 30.00
    components:
      - stock_no: B200
        quantity: 3
`))
	require.ErrorIs(t, err, common.ErrPersistence)
	store.FailOn("InsertBundleComponent", nil)

	bundle, ok := loadIndex(t, store, caps).Bundle("COMBO1")
	require.True(t, ok)
	require.Equal(t, int64(2500), bundle.Price)
	require.Len(t, bundle.Components, 2)
}

func TestImportSkipsMalformedRecords(t *testing.T) {
	store := memdb.New()
	caps := db.NegotiateCapabilities(db.PromoPriceVersion)
	importInto(t, store, caps, catalogYAML)

	report := importInto(t, store, caps, `
products:
  - stock_no: C300
    name: Bad price
    price: "12.345"
  - stock_no: D400
    name: Clashing shorthand
    price: 1.00
    shorthand: KS
  - stock_no: E500
    name: ""
    price: 1.00
  - stock_no: F600
    name: Good
    price: 2.50
    promos:
      - code: NOPE
`)
	require.Equal(t, 1, report.Created)
	kinds := map[string]int{}
	for _, s := range report.Skipped {
		kinds[s.Kind]++
	}
	require.Equal(t, map[string]int{"product": 3, "promo_link": 1}, kinds)

	idx := loadIndex(t, store, caps)
	f600, ok := idx.Product("F600")
	require.True(t, ok)
	require.Equal(t, int64(250), f600.Price)
	_, ok = idx.Product("D400")
	require.False(t, ok)
}

func TestImportLegacySchemaIgnoresPromoPrice(t *testing.T) {
	store := memdb.New()
	store.LegacySchema = true
	caps := db.NegotiateCapabilities(1)
	require.False(t, caps.PromoPrice)

	importInto(t, store, caps, catalogYAML)
	idx := loadIndex(t, store, caps)
	promo, ok := idx.Promo("B2T1")
	require.True(t, ok)
	require.False(t, promo.HasPrice)
}

func TestDecodeImportFileRejectsUnknownFields(t *testing.T) {
	_, err := catalog.DecodeImportFile(strings.NewReader("widgets: []\n"))
	require.ErrorIs(t, err, catalog.ErrInvalidImportFile)
	require.ErrorIs(t, err, common.ErrValidation)
}

func TestToMinor(t *testing.T) {
	v, err := catalog.ToMinor(decimal.RequireFromString("18.5"), 2)
	require.NoError(t, err)
	require.Equal(t, int64(1850), v)

	v, err = catalog.ToMinor(decimal.RequireFromString("1500"), 0)
	require.NoError(t, err)
	require.Equal(t, int64(1500), v)

	_, err = catalog.ToMinor(decimal.RequireFromString("0.001"), 2)
	require.Error(t, err)

	v, err = catalog.ToMinor(decimal.RequireFromString("92233720368547758.07"), 2)
	require.NoError(t, err)
	require.Equal(t, int64(math.MaxInt64), v)

	_, err = catalog.ToMinor(decimal.RequireFromString("92233720368547758.08"), 2)
	require.ErrorContains(t, err, "out of range")
	_, err = catalog.ToMinor(decimal.RequireFromString("-1e30"), 0)
	require.ErrorContains(t, err, "out of range")
}

func TestImportSkipsOutOfRangePrice(t *testing.T) {
	store := memdb.New()
	caps := db.NegotiateCapabilities(db.PromoPriceVersion)
	report := importInto(t, store, caps, `
products:
  - stock_no: HUGE
    name: Overflow
    price: "100000000000000000000"
    stock: 1
  - stock_no: OK1
    name: Fine
    price: 1.50
    stock: 1
`)
	require.Equal(t, 1, report.Created)
	require.Len(t, report.Skipped, 1)
	require.Equal(t, "HUGE", report.Skipped[0].Key)

	idx := loadIndex(t, store, caps)
	_, ok := idx.Product("HUGE")
	require.False(t, ok)
}
