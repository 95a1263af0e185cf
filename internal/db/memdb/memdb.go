// Package memdb is an in-memory implementation of the generated querier with
// all-or-nothing transactions. Package tests use it in place of Postgres.
package memdb

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/noah-isme/backend-kasir/internal/db/gen"
)

// ErrMissingPromoPrice mimics a schema created before promo_types.price.
var ErrMissingPromoPrice error = &pgconn.PgError{Code: "42703", Message: `column "price" does not exist`}

type linkKey struct {
	productID int64
	promoID   int64
}

type state struct {
	seq        int64
	products   map[int64]gen.Product
	promos     map[int64]gen.PromoType
	links      map[linkKey]gen.ProductPromoLink
	bundles    map[int64]gen.Bundle
	components map[int64][]gen.BundleComponent
	tiers      map[int64]gen.BasketTier
	freebies   map[int64][]gen.TierFreebie
	periods    map[int64]gen.VaultPeriod
	vaultItems map[int64]map[string]gen.VaultItem
	sales      []gen.Sale
	saleItems  []gen.SaleItem
	movements  []gen.StockMovement
	audit      []gen.AuditLog
}

func newState() *state {
	return &state{
		products:   map[int64]gen.Product{},
		promos:     map[int64]gen.PromoType{},
		links:      map[linkKey]gen.ProductPromoLink{},
		bundles:    map[int64]gen.Bundle{},
		components: map[int64][]gen.BundleComponent{},
		tiers:      map[int64]gen.BasketTier{},
		freebies:   map[int64][]gen.TierFreebie{},
		periods:    map[int64]gen.VaultPeriod{},
		vaultItems: map[int64]map[string]gen.VaultItem{},
	}
}

func (s *state) clone() *state {
	c := &state{
		seq:        s.seq,
		products:   maps.Clone(s.products),
		promos:     maps.Clone(s.promos),
		links:      maps.Clone(s.links),
		bundles:    maps.Clone(s.bundles),
		components: make(map[int64][]gen.BundleComponent, len(s.components)),
		tiers:      maps.Clone(s.tiers),
		freebies:   make(map[int64][]gen.TierFreebie, len(s.freebies)),
		periods:    maps.Clone(s.periods),
		vaultItems: make(map[int64]map[string]gen.VaultItem, len(s.vaultItems)),
		sales:      slices.Clone(s.sales),
		saleItems:  slices.Clone(s.saleItems),
		movements:  slices.Clone(s.movements),
		audit:      slices.Clone(s.audit),
	}
	for id, comps := range s.components {
		c.components[id] = slices.Clone(comps)
	}
	for id, items := range s.freebies {
		c.freebies[id] = slices.Clone(items)
	}
	for id, items := range s.vaultItems {
		c.vaultItems[id] = maps.Clone(items)
	}
	return c
}

func (s *state) nextID() int64 {
	s.seq++
	return s.seq
}

// DB holds the committed state. Transactions run one at a time against a
// private copy that replaces the committed state only when fn succeeds.
type DB struct {
	mu       sync.Mutex
	st       *state
	failures map[string]error

	// LegacySchema makes promo price queries fail as on a version 1 schema.
	LegacySchema bool
	Now          func() time.Time
}

// New returns an empty database.
func New() *DB {
	return &DB{st: newState(), failures: map[string]error{}}
}

// InTx implements db.Runner.
func (d *DB) InTx(ctx context.Context, fn func(q gen.Querier) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	work := d.st.clone()
	if err := fn(&querier{db: d, st: work}); err != nil {
		return err
	}
	d.st = work
	return nil
}

// FailOn makes the named querier method return err. A nil err clears it.
func (d *DB) FailOn(method string, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err == nil {
		delete(d.failures, method)
		return
	}
	d.failures[method] = err
}

// Stock returns the committed stock count of a product.
func (d *DB) Stock(stockNo string) (int64, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, p := range d.st.products {
		if p.StockNo == stockNo {
			return p.Stock, true
		}
	}
	return 0, false
}

// SetStock overwrites the committed stock count of a product.
func (d *DB) SetStock(stockNo string, stock int64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	for id, p := range d.st.products {
		if p.StockNo == stockNo {
			p.Stock = stock
			d.st.products[id] = p
			return true
		}
	}
	return false
}

// DeleteProduct removes a product and its promo links.
func (d *DB) DeleteProduct(stockNo string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	for id, p := range d.st.products {
		if p.StockNo != stockNo {
			continue
		}
		delete(d.st.products, id)
		for key := range d.st.links {
			if key.productID == id {
				delete(d.st.links, key)
			}
		}
		return true
	}
	return false
}

// Sales returns committed sales in insertion order.
func (d *DB) Sales() []gen.Sale {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Clone(d.st.sales)
}

// SaleItems returns committed sale items in insertion order.
func (d *DB) SaleItems() []gen.SaleItem {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Clone(d.st.saleItems)
}

// Movements returns committed stock movements.
func (d *DB) Movements() []gen.StockMovement {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Clone(d.st.movements)
}

// AuditLogs returns committed audit rows.
func (d *DB) AuditLogs() []gen.AuditLog {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Clone(d.st.audit)
}

func (d *DB) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

type querier struct {
	db *DB
	st *state
}

var _ gen.Querier = (*querier)(nil)

func (q *querier) fail(method string) error {
	return q.db.failures[method]
}

func (q *querier) timestamp() pgtype.Timestamptz {
	return pgtype.Timestamptz{Time: q.db.now(), Valid: true}
}

func duplicate(constraint string) error {
	return &pgconn.PgError{
		Code:           "23505",
		Message:        fmt.Sprintf("duplicate key value violates unique constraint %q", constraint),
		ConstraintName: constraint,
	}
}

func foreignKey(constraint string) error {
	return &pgconn.PgError{
		Code:           "23503",
		Message:        fmt.Sprintf("insert or update violates foreign key constraint %q", constraint),
		ConstraintName: constraint,
	}
}

func (q *querier) productByStockNo(stockNo string) (gen.Product, bool) {
	for _, p := range q.st.products {
		if p.StockNo == stockNo {
			return p, true
		}
	}
	return gen.Product{}, false
}

func (q *querier) ListProducts(ctx context.Context) ([]gen.Product, error) {
	if err := q.fail("ListProducts"); err != nil {
		return nil, err
	}
	out := slices.Collect(maps.Values(q.st.products))
	slices.SortFunc(out, func(a, b gen.Product) int { return compareStrings(a.StockNo, b.StockNo) })
	return out, nil
}

func (q *querier) ListPromoTypes(ctx context.Context) ([]gen.ListPromoTypesRow, error) {
	if err := q.fail("ListPromoTypes"); err != nil {
		return nil, err
	}
	out := make([]gen.ListPromoTypesRow, 0, len(q.st.promos))
	for _, p := range q.st.promos {
		out = append(out, gen.ListPromoTypesRow{ID: p.ID, Code: p.Code, Name: p.Name, UnitsPerSale: p.UnitsPerSale})
	}
	slices.SortFunc(out, func(a, b gen.ListPromoTypesRow) int { return compareStrings(a.Code, b.Code) })
	return out, nil
}

func (q *querier) ListPromoTypesWithPrice(ctx context.Context) ([]gen.PromoType, error) {
	if q.db.LegacySchema {
		return nil, ErrMissingPromoPrice
	}
	if err := q.fail("ListPromoTypesWithPrice"); err != nil {
		return nil, err
	}
	out := slices.Collect(maps.Values(q.st.promos))
	slices.SortFunc(out, func(a, b gen.PromoType) int { return compareStrings(a.Code, b.Code) })
	return out, nil
}

func (q *querier) ListPromoLinks(ctx context.Context) ([]gen.ListPromoLinksRow, error) {
	if err := q.fail("ListPromoLinks"); err != nil {
		return nil, err
	}
	out := make([]gen.ListPromoLinksRow, 0, len(q.st.links))
	for key, link := range q.st.links {
		product, ok := q.st.products[key.productID]
		if !ok {
			continue
		}
		promo, ok := q.st.promos[key.promoID]
		if !ok {
			continue
		}
		out = append(out, gen.ListPromoLinksRow{StockNo: product.StockNo, PromoCode: promo.Code, Price: link.Price})
	}
	slices.SortFunc(out, func(a, b gen.ListPromoLinksRow) int {
		if c := compareStrings(a.StockNo, b.StockNo); c != 0 {
			return c
		}
		return compareStrings(a.PromoCode, b.PromoCode)
	})
	return out, nil
}

func (q *querier) ListBundles(ctx context.Context) ([]gen.Bundle, error) {
	if err := q.fail("ListBundles"); err != nil {
		return nil, err
	}
	out := slices.Collect(maps.Values(q.st.bundles))
	slices.SortFunc(out, func(a, b gen.Bundle) int { return compareStrings(a.Code, b.Code) })
	return out, nil
}

func (q *querier) ListBundleComponents(ctx context.Context) ([]gen.ListBundleComponentsRow, error) {
	if err := q.fail("ListBundleComponents"); err != nil {
		return nil, err
	}
	bundles, _ := q.ListBundles(ctx)
	var out []gen.ListBundleComponentsRow
	for _, b := range bundles {
		comps := slices.Clone(q.st.components[b.ID])
		slices.SortFunc(comps, func(x, y gen.BundleComponent) int { return int(x.Position - y.Position) })
		for _, c := range comps {
			out = append(out, gen.ListBundleComponentsRow{
				BundleCode:   b.Code,
				Position:     c.Position,
				StockNo:      c.StockNo,
				VariantIndex: c.VariantIndex,
				Quantity:     c.Quantity,
			})
		}
	}
	return out, nil
}

func (q *querier) ListBasketTiers(ctx context.Context) ([]gen.BasketTier, error) {
	if err := q.fail("ListBasketTiers"); err != nil {
		return nil, err
	}
	out := slices.Collect(maps.Values(q.st.tiers))
	slices.SortFunc(out, func(a, b gen.BasketTier) int {
		if a.Threshold != b.Threshold {
			if a.Threshold < b.Threshold {
				return -1
			}
			return 1
		}
		return compareStrings(a.Code, b.Code)
	})
	return out, nil
}

func (q *querier) ListTierFreebies(ctx context.Context) ([]gen.ListTierFreebiesRow, error) {
	if err := q.fail("ListTierFreebies"); err != nil {
		return nil, err
	}
	tiers := slices.Collect(maps.Values(q.st.tiers))
	slices.SortFunc(tiers, func(a, b gen.BasketTier) int { return compareStrings(a.Code, b.Code) })
	var out []gen.ListTierFreebiesRow
	for _, t := range tiers {
		items := slices.Clone(q.st.freebies[t.ID])
		slices.SortFunc(items, func(x, y gen.TierFreebie) int { return int(x.Position - y.Position) })
		for _, f := range items {
			out = append(out, gen.ListTierFreebiesRow{
				TierCode:     t.Code,
				Position:     f.Position,
				StockNo:      f.StockNo,
				VariantIndex: f.VariantIndex,
				Quantity:     f.Quantity,
			})
		}
	}
	return out, nil
}

func (q *querier) UpsertProduct(ctx context.Context, arg gen.UpsertProductParams) (gen.UpsertProductRow, error) {
	if err := q.fail("UpsertProduct"); err != nil {
		return gen.UpsertProductRow{}, err
	}
	if arg.Shorthand.Valid {
		for _, p := range q.st.products {
			if p.StockNo != arg.StockNo && p.Shorthand.Valid && p.Shorthand.String == arg.Shorthand.String {
				return gen.UpsertProductRow{}, duplicate("products_shorthand_key")
			}
		}
	}
	now := q.timestamp()
	if existing, ok := q.productByStockNo(arg.StockNo); ok {
		existing.Name = arg.Name
		existing.Price = arg.Price
		existing.Shorthand = arg.Shorthand
		existing.ImageRef = arg.ImageRef
		existing.UpdatedAt = now
		q.st.products[existing.ID] = existing
		return gen.UpsertProductRow{ID: existing.ID, Created: false}, nil
	}
	id := q.st.nextID()
	q.st.products[id] = gen.Product{
		ID:        id,
		StockNo:   arg.StockNo,
		Name:      arg.Name,
		Price:     arg.Price,
		Stock:     arg.Stock,
		Shorthand: arg.Shorthand,
		ImageRef:  arg.ImageRef,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return gen.UpsertProductRow{ID: id, Created: true}, nil
}

func (q *querier) upsertPromo(code, name string, ups int32, price *pgtype.Int8) (int64, bool) {
	for id, p := range q.st.promos {
		if p.Code != code {
			continue
		}
		p.Name = name
		p.UnitsPerSale = ups
		if price != nil {
			p.Price = *price
		}
		q.st.promos[id] = p
		return id, false
	}
	id := q.st.nextID()
	promo := gen.PromoType{ID: id, Code: code, Name: name, UnitsPerSale: ups}
	if price != nil {
		promo.Price = *price
	}
	q.st.promos[id] = promo
	return id, true
}

func (q *querier) UpsertPromoType(ctx context.Context, arg gen.UpsertPromoTypeParams) (gen.UpsertPromoTypeRow, error) {
	if q.db.LegacySchema {
		return gen.UpsertPromoTypeRow{}, ErrMissingPromoPrice
	}
	if err := q.fail("UpsertPromoType"); err != nil {
		return gen.UpsertPromoTypeRow{}, err
	}
	id, created := q.upsertPromo(arg.Code, arg.Name, arg.UnitsPerSale, &arg.Price)
	return gen.UpsertPromoTypeRow{ID: id, Created: created}, nil
}

func (q *querier) UpsertPromoTypeLegacy(ctx context.Context, arg gen.UpsertPromoTypeLegacyParams) (gen.UpsertPromoTypeLegacyRow, error) {
	if err := q.fail("UpsertPromoTypeLegacy"); err != nil {
		return gen.UpsertPromoTypeLegacyRow{}, err
	}
	id, created := q.upsertPromo(arg.Code, arg.Name, arg.UnitsPerSale, nil)
	return gen.UpsertPromoTypeLegacyRow{ID: id, Created: created}, nil
}

func (q *querier) GetProductIDByStockNo(ctx context.Context, stockNo string) (int64, error) {
	if err := q.fail("GetProductIDByStockNo"); err != nil {
		return 0, err
	}
	if p, ok := q.productByStockNo(stockNo); ok {
		return p.ID, nil
	}
	return 0, pgx.ErrNoRows
}

func (q *querier) GetPromoTypeIDByCode(ctx context.Context, code string) (int64, error) {
	if err := q.fail("GetPromoTypeIDByCode"); err != nil {
		return 0, err
	}
	for id, p := range q.st.promos {
		if p.Code == code {
			return id, nil
		}
	}
	return 0, pgx.ErrNoRows
}

func (q *querier) DeletePromoLinksForProduct(ctx context.Context, productID int64) error {
	if err := q.fail("DeletePromoLinksForProduct"); err != nil {
		return err
	}
	for key := range q.st.links {
		if key.productID == productID {
			delete(q.st.links, key)
		}
	}
	return nil
}

func (q *querier) UpsertPromoLink(ctx context.Context, arg gen.UpsertPromoLinkParams) (bool, error) {
	if err := q.fail("UpsertPromoLink"); err != nil {
		return false, err
	}
	if _, ok := q.st.products[arg.ProductID]; !ok {
		return false, foreignKey("product_promo_links_product_id_fkey")
	}
	if _, ok := q.st.promos[arg.PromoID]; !ok {
		return false, foreignKey("product_promo_links_promo_id_fkey")
	}
	key := linkKey{productID: arg.ProductID, promoID: arg.PromoID}
	_, exists := q.st.links[key]
	q.st.links[key] = gen.ProductPromoLink{ProductID: arg.ProductID, PromoID: arg.PromoID, Price: arg.Price}
	return !exists, nil
}

func (q *querier) UpsertBundle(ctx context.Context, arg gen.UpsertBundleParams) (gen.UpsertBundleRow, error) {
	if err := q.fail("UpsertBundle"); err != nil {
		return gen.UpsertBundleRow{}, err
	}
	for id, b := range q.st.bundles {
		if b.Code == arg.Code {
			b.Name, b.Price, b.Sku = arg.Name, arg.Price, arg.Sku
			q.st.bundles[id] = b
			return gen.UpsertBundleRow{ID: id, Created: false}, nil
		}
	}
	id := q.st.nextID()
	q.st.bundles[id] = gen.Bundle{ID: id, Code: arg.Code, Name: arg.Name, Price: arg.Price, Sku: arg.Sku}
	return gen.UpsertBundleRow{ID: id, Created: true}, nil
}

func (q *querier) DeleteBundleComponents(ctx context.Context, bundleID int64) error {
	if err := q.fail("DeleteBundleComponents"); err != nil {
		return err
	}
	delete(q.st.components, bundleID)
	return nil
}

func (q *querier) InsertBundleComponent(ctx context.Context, arg gen.InsertBundleComponentParams) error {
	if err := q.fail("InsertBundleComponent"); err != nil {
		return err
	}
	if _, ok := q.st.bundles[arg.BundleID]; !ok {
		return foreignKey("bundle_components_bundle_id_fkey")
	}
	for _, c := range q.st.components[arg.BundleID] {
		if c.Position == arg.Position {
			return duplicate("bundle_components_pkey")
		}
	}
	q.st.components[arg.BundleID] = append(q.st.components[arg.BundleID], gen.BundleComponent{
		BundleID:     arg.BundleID,
		Position:     arg.Position,
		StockNo:      arg.StockNo,
		VariantIndex: arg.VariantIndex,
		Quantity:     arg.Quantity,
	})
	return nil
}

func (q *querier) UpsertBasketTier(ctx context.Context, arg gen.UpsertBasketTierParams) (gen.UpsertBasketTierRow, error) {
	if err := q.fail("UpsertBasketTier"); err != nil {
		return gen.UpsertBasketTierRow{}, err
	}
	for id, t := range q.st.tiers {
		if t.Code == arg.Code {
			t.Name, t.Threshold, t.Message = arg.Name, arg.Threshold, arg.Message
			q.st.tiers[id] = t
			return gen.UpsertBasketTierRow{ID: id, Created: false}, nil
		}
	}
	id := q.st.nextID()
	q.st.tiers[id] = gen.BasketTier{ID: id, Code: arg.Code, Name: arg.Name, Threshold: arg.Threshold, Message: arg.Message}
	return gen.UpsertBasketTierRow{ID: id, Created: true}, nil
}

func (q *querier) DeleteTierFreebies(ctx context.Context, tierID int64) error {
	if err := q.fail("DeleteTierFreebies"); err != nil {
		return err
	}
	delete(q.st.freebies, tierID)
	return nil
}

func (q *querier) InsertTierFreebie(ctx context.Context, arg gen.InsertTierFreebieParams) error {
	if err := q.fail("InsertTierFreebie"); err != nil {
		return err
	}
	if _, ok := q.st.tiers[arg.TierID]; !ok {
		return foreignKey("tier_freebies_tier_id_fkey")
	}
	for _, f := range q.st.freebies[arg.TierID] {
		if f.Position == arg.Position {
			return duplicate("tier_freebies_pkey")
		}
	}
	q.st.freebies[arg.TierID] = append(q.st.freebies[arg.TierID], gen.TierFreebie{
		TierID:       arg.TierID,
		Position:     arg.Position,
		StockNo:      arg.StockNo,
		VariantIndex: arg.VariantIndex,
		Quantity:     arg.Quantity,
	})
	return nil
}

func (q *querier) LockProductsByStockNo(ctx context.Context, stockNos []string) ([]gen.LockProductsByStockNoRow, error) {
	if err := q.fail("LockProductsByStockNo"); err != nil {
		return nil, err
	}
	var out []gen.LockProductsByStockNoRow
	for _, p := range q.st.products {
		if slices.Contains(stockNos, p.StockNo) {
			out = append(out, gen.LockProductsByStockNoRow{ID: p.ID, StockNo: p.StockNo, Stock: p.Stock})
		}
	}
	slices.SortFunc(out, func(a, b gen.LockProductsByStockNoRow) int { return compareStrings(a.StockNo, b.StockNo) })
	return out, nil
}

func (q *querier) AdjustProductStock(ctx context.Context, arg gen.AdjustProductStockParams) (int64, error) {
	if err := q.fail("AdjustProductStock"); err != nil {
		return 0, err
	}
	p, ok := q.st.products[arg.ID]
	if !ok {
		return 0, pgx.ErrNoRows
	}
	p.Stock += arg.Delta
	p.UpdatedAt = q.timestamp()
	q.st.products[arg.ID] = p
	return p.Stock, nil
}

func (q *querier) InsertStockMovement(ctx context.Context, arg gen.InsertStockMovementParams) error {
	if err := q.fail("InsertStockMovement"); err != nil {
		return err
	}
	q.st.movements = append(q.st.movements, gen.StockMovement{
		ID:          q.st.nextID(),
		ProductID:   arg.ProductID,
		SaleID:      arg.SaleID,
		Delta:       arg.Delta,
		StockBefore: arg.StockBefore,
		StockAfter:  arg.StockAfter,
		CreatedAt:   q.timestamp(),
	})
	return nil
}

func (q *querier) openPeriod() (gen.VaultPeriod, bool) {
	for _, p := range q.st.periods {
		if !p.ClosedAt.Valid {
			return p, true
		}
	}
	return gen.VaultPeriod{}, false
}

func (q *querier) GetOpenVaultPeriod(ctx context.Context) (gen.VaultPeriod, error) {
	if err := q.fail("GetOpenVaultPeriod"); err != nil {
		return gen.VaultPeriod{}, err
	}
	if p, ok := q.openPeriod(); ok {
		return p, nil
	}
	return gen.VaultPeriod{}, pgx.ErrNoRows
}

func (q *querier) GetOpenVaultPeriodForUpdate(ctx context.Context) (gen.VaultPeriod, error) {
	if err := q.fail("GetOpenVaultPeriodForUpdate"); err != nil {
		return gen.VaultPeriod{}, err
	}
	if p, ok := q.openPeriod(); ok {
		return p, nil
	}
	return gen.VaultPeriod{}, pgx.ErrNoRows
}

func (q *querier) CreateVaultPeriod(ctx context.Context, startedAt pgtype.Timestamptz) (gen.VaultPeriod, error) {
	if err := q.fail("CreateVaultPeriod"); err != nil {
		return gen.VaultPeriod{}, err
	}
	if _, ok := q.openPeriod(); ok {
		return gen.VaultPeriod{}, duplicate("vault_periods_single_open")
	}
	id := q.st.nextID()
	p := gen.VaultPeriod{ID: id, StartedAt: startedAt}
	q.st.periods[id] = p
	return p, nil
}

func (q *querier) AddVaultTotals(ctx context.Context, arg gen.AddVaultTotalsParams) (gen.VaultPeriod, error) {
	if err := q.fail("AddVaultTotals"); err != nil {
		return gen.VaultPeriod{}, err
	}
	p, ok := q.st.periods[arg.ID]
	if !ok {
		return gen.VaultPeriod{}, pgx.ErrNoRows
	}
	p.CashTendered += arg.Cash
	p.AltTendered += arg.Alt
	p.ChangeGiven += arg.Change
	p.Revenue += arg.Revenue
	p.TxnCount++
	q.st.periods[arg.ID] = p
	return p, nil
}

func (q *querier) UpsertVaultItem(ctx context.Context, arg gen.UpsertVaultItemParams) error {
	if err := q.fail("UpsertVaultItem"); err != nil {
		return err
	}
	if _, ok := q.st.periods[arg.PeriodID]; !ok {
		return foreignKey("vault_items_period_id_fkey")
	}
	items := q.st.vaultItems[arg.PeriodID]
	if items == nil {
		items = map[string]gen.VaultItem{}
		q.st.vaultItems[arg.PeriodID] = items
	}
	item := items[arg.ItemCode]
	item.PeriodID = arg.PeriodID
	item.ItemCode = arg.ItemCode
	item.Name = arg.Name
	item.Quantity += arg.Quantity
	item.Revenue += arg.Revenue
	items[arg.ItemCode] = item
	return nil
}

func (q *querier) CloseVaultPeriod(ctx context.Context, arg gen.CloseVaultPeriodParams) (gen.VaultPeriod, error) {
	if err := q.fail("CloseVaultPeriod"); err != nil {
		return gen.VaultPeriod{}, err
	}
	p, ok := q.st.periods[arg.ID]
	if !ok || p.ClosedAt.Valid {
		return gen.VaultPeriod{}, pgx.ErrNoRows
	}
	p.ClosedAt = arg.ClosedAt
	q.st.periods[arg.ID] = p
	return p, nil
}

func (q *querier) ListVaultItems(ctx context.Context, periodID int64) ([]gen.VaultItem, error) {
	if err := q.fail("ListVaultItems"); err != nil {
		return nil, err
	}
	out := slices.Collect(maps.Values(q.st.vaultItems[periodID]))
	slices.SortFunc(out, func(a, b gen.VaultItem) int { return compareStrings(a.ItemCode, b.ItemCode) })
	return out, nil
}

func (q *querier) GetVaultPeriod(ctx context.Context, id int64) (gen.VaultPeriod, error) {
	if err := q.fail("GetVaultPeriod"); err != nil {
		return gen.VaultPeriod{}, err
	}
	if p, ok := q.st.periods[id]; ok {
		return p, nil
	}
	return gen.VaultPeriod{}, pgx.ErrNoRows
}

func (q *querier) ListClosedVaultPeriods(ctx context.Context, arg gen.ListClosedVaultPeriodsParams) ([]gen.VaultPeriod, error) {
	if err := q.fail("ListClosedVaultPeriods"); err != nil {
		return nil, err
	}
	var closed []gen.VaultPeriod
	for _, p := range q.st.periods {
		if p.ClosedAt.Valid {
			closed = append(closed, p)
		}
	}
	slices.SortFunc(closed, func(a, b gen.VaultPeriod) int { return int(b.ID - a.ID) })
	return page(closed, arg.LimitCount, arg.OffsetRows), nil
}

func (q *querier) InsertSale(ctx context.Context, arg gen.InsertSaleParams) (int64, error) {
	if err := q.fail("InsertSale"); err != nil {
		return 0, err
	}
	for _, s := range q.st.sales {
		if s.InternalID == arg.InternalID {
			return 0, duplicate("sales_internal_id_key")
		}
		if s.SalesNo == arg.SalesNo && s.TxnNo == arg.TxnNo {
			return 0, duplicate("sales_sales_no_txn_no_key")
		}
	}
	if _, ok := q.st.periods[arg.PeriodID]; !ok {
		return 0, foreignKey("sales_period_id_fkey")
	}
	id := q.st.nextID()
	q.st.sales = append(q.st.sales, gen.Sale{
		ID:           id,
		InternalID:   arg.InternalID,
		SalesNo:      arg.SalesNo,
		TxnNo:        arg.TxnNo,
		PeriodID:     arg.PeriodID,
		TerminalID:   arg.TerminalID,
		Subtotal:     arg.Subtotal,
		Total:        arg.Total,
		CashTendered: arg.CashTendered,
		AltTendered:  arg.AltTendered,
		ChangeGiven:  arg.ChangeGiven,
		CreatedAt:    arg.CreatedAt,
	})
	return id, nil
}

func (q *querier) InsertSaleItem(ctx context.Context, arg gen.InsertSaleItemParams) error {
	if err := q.fail("InsertSaleItem"); err != nil {
		return err
	}
	found := false
	for _, s := range q.st.sales {
		if s.ID == arg.SaleID {
			found = true
			break
		}
	}
	if !found {
		return foreignKey("sale_items_sale_id_fkey")
	}
	q.st.saleItems = append(q.st.saleItems, gen.SaleItem{
		ID:           q.st.nextID(),
		SaleID:       arg.SaleID,
		LineNo:       arg.LineNo,
		Kind:         arg.Kind,
		ItemCode:     arg.ItemCode,
		Name:         arg.Name,
		Quantity:     arg.Quantity,
		PromoCode:    arg.PromoCode,
		UnitsPerSale: arg.UnitsPerSale,
		UnitPrice:    arg.UnitPrice,
		DiscountPct:  arg.DiscountPct,
		LineTotal:    arg.LineTotal,
	})
	return nil
}

func (q *querier) TagUntaggedSaleItems(ctx context.Context, arg gen.TagUntaggedSaleItemsParams) (int64, error) {
	if err := q.fail("TagUntaggedSaleItems"); err != nil {
		return 0, err
	}
	var n int64
	for i, item := range q.st.saleItems {
		if item.Reference.Valid {
			continue
		}
		if len(arg.ItemCodes) > 0 && !slices.Contains(arg.ItemCodes, item.ItemCode) {
			continue
		}
		q.st.saleItems[i].Reference = arg.Reference
		n++
	}
	return n, nil
}

func (q *querier) TagCompletedSales(ctx context.Context, reference pgtype.Text) (int64, error) {
	if err := q.fail("TagCompletedSales"); err != nil {
		return 0, err
	}
	var n int64
	for i, sale := range q.st.sales {
		if sale.Reference.Valid {
			continue
		}
		hasRef, bare := false, false
		for _, item := range q.st.saleItems {
			if item.SaleID != sale.ID {
				continue
			}
			if !item.Reference.Valid {
				bare = true
				break
			}
			if reference.Valid && item.Reference.String == reference.String {
				hasRef = true
			}
		}
		if hasRef && !bare {
			q.st.sales[i].Reference = reference
			n++
		}
	}
	return n, nil
}

func (q *querier) CountUntaggedSaleItems(ctx context.Context) (int64, error) {
	if err := q.fail("CountUntaggedSaleItems"); err != nil {
		return 0, err
	}
	var n int64
	for _, item := range q.st.saleItems {
		if !item.Reference.Valid {
			n++
		}
	}
	return n, nil
}

func (q *querier) InsertAuditLog(ctx context.Context, arg gen.InsertAuditLogParams) error {
	if err := q.fail("InsertAuditLog"); err != nil {
		return err
	}
	q.st.audit = append(q.st.audit, gen.AuditLog{
		ID:         q.st.nextID(),
		Actor:      arg.Actor,
		Action:     arg.Action,
		Resource:   arg.Resource,
		ResourceID: arg.ResourceID,
		RequestID:  arg.RequestID,
		Metadata:   arg.Metadata,
		CreatedAt:  q.timestamp(),
	})
	return nil
}

func (q *querier) ListAuditLogs(ctx context.Context, arg gen.ListAuditLogsParams) ([]gen.AuditLog, error) {
	if err := q.fail("ListAuditLogs"); err != nil {
		return nil, err
	}
	out := slices.Clone(q.st.audit)
	slices.Reverse(out)
	return page(out, arg.LimitCount, arg.OffsetRows), nil
}

func page[T any](rows []T, limit, offset int32) []T {
	if offset < 0 {
		offset = 0
	}
	if int(offset) >= len(rows) {
		return nil
	}
	rows = rows[offset:]
	if limit >= 0 && int(limit) < len(rows) {
		rows = rows[:limit]
	}
	return rows
}

func compareStrings(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
