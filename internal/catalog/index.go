package catalog

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-kasir/internal/common"
	"github.com/noah-isme/backend-kasir/internal/obs"
)

// Product is the read-only view of a product held by the index.
type Product struct {
	StockNo   string `json:"stock_no"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	Stock     int64  `json:"stock"`
	Shorthand string `json:"shorthand,omitempty"`
	ImageRef  string `json:"image_ref,omitempty"`
}

// Promo is a promo type rule. HasPrice is false when no promo-level price
// exists, either because none was set or the store cannot hold one.
type Promo struct {
	Code         string `json:"code"`
	Name         string `json:"name"`
	UnitsPerSale int32  `json:"units_per_sale"`
	Price        int64  `json:"price,omitempty"`
	HasPrice     bool   `json:"has_price"`
}

// PromoLink is a promo a product is eligible for, with an optional link price.
type PromoLink struct {
	Code     string `json:"code"`
	Price    int64  `json:"price,omitempty"`
	HasPrice bool   `json:"has_price"`
}

// Component is a product quantity inside a bundle or tier. VariantIndex is
// carried for display; stock is tracked per product.
type Component struct {
	StockNo      string `json:"stock_no"`
	VariantIndex int32  `json:"variant_index"`
	Quantity     int32  `json:"quantity"`
}

// Bundle is a fixed-price composite item.
type Bundle struct {
	Code       string      `json:"code"`
	Name       string      `json:"name"`
	Price      int64       `json:"price"`
	SKU        string      `json:"sku,omitempty"`
	Components []Component `json:"components"`
}

// Tier is a basket-level reward unlocked at a subtotal threshold.
type Tier struct {
	Code      string      `json:"code"`
	Name      string      `json:"name"`
	Threshold int64       `json:"threshold"`
	Message   string      `json:"message,omitempty"`
	Freebies  []Component `json:"freebies,omitempty"`
}

// Kind distinguishes what a scanned code resolved to.
type Kind string

const (
	KindProduct Kind = "product"
	KindBundle  Kind = "bundle"
)

// Match is the result of resolving a scanned code.
type Match struct {
	Kind    Kind     `json:"kind"`
	Product *Product `json:"product,omitempty"`
	Bundle  *Bundle  `json:"bundle,omitempty"`
}

// Skip records a catalog record that was rejected during Build.
type Skip struct {
	Kind   string `json:"kind"`
	Key    string `json:"key"`
	Reason string `json:"reason"`
}

// LoadReport summarises a Build.
type LoadReport struct {
	Products int    `json:"products"`
	Promos   int    `json:"promos"`
	Bundles  int    `json:"bundles"`
	Tiers    int    `json:"tiers"`
	Skipped  []Skip `json:"skipped,omitempty"`
}

// Index is an immutable lookup over one catalog snapshot. Reloading builds a
// new Index; callers holding the old one keep a consistent view.
type Index struct {
	products  map[string]Product
	shorthand map[string]string
	promos    map[string]Promo
	links     map[string][]PromoLink
	bundles   map[string]Bundle
	bundleSKU map[string]string
	tiers     []Tier
}

// Build indexes records. Malformed records are skipped, logged and reported;
// they never abort the batch or affect sibling records.
func Build(records Records, logger *zerolog.Logger) (*Index, LoadReport) {
	b := builder{
		idx: &Index{
			products:  make(map[string]Product, len(records.Products)),
			shorthand: map[string]string{},
			promos:    make(map[string]Promo, len(records.Promos)),
			links:     map[string][]PromoLink{},
			bundles:   make(map[string]Bundle, len(records.Bundles)),
			bundleSKU: map[string]string{},
		},
		logger: logger,
	}
	b.promos(records.Promos)
	b.products(records.Products)
	b.bundles(records.Bundles)
	b.tiers(records.Tiers)

	idx := b.idx
	b.report.Products = len(idx.products)
	b.report.Promos = len(idx.promos)
	b.report.Bundles = len(idx.bundles)
	b.report.Tiers = len(idx.tiers)
	return idx, b.report
}

type builder struct {
	idx    *Index
	report LoadReport
	logger *zerolog.Logger
}

func (b *builder) skip(kind, key, reason string) {
	b.report.Skipped = append(b.report.Skipped, Skip{Kind: kind, Key: key, Reason: reason})
	if obs.CatalogSkippedRecordsTotal != nil {
		obs.CatalogSkippedRecordsTotal.WithLabelValues(kind).Inc()
	}
	if b.logger != nil {
		b.logger.Warn().Str("kind", kind).Str("key", key).Str("reason", reason).Msg("catalog record skipped")
	}
}

func (b *builder) promos(records []PromoRecord) {
	for _, rec := range records {
		rec.Code = strings.TrimSpace(rec.Code)
		if err := common.Validator().Struct(rec); err != nil {
			b.skip("promo", rec.Code, describe(err))
			continue
		}
		if _, dup := b.idx.promos[rec.Code]; dup {
			b.skip("promo", rec.Code, "duplicate code")
			continue
		}
		promo := Promo{Code: rec.Code, Name: rec.Name, UnitsPerSale: rec.UnitsPerSale}
		if rec.Price != nil {
			promo.Price, promo.HasPrice = *rec.Price, true
		}
		b.idx.promos[rec.Code] = promo
	}
}

func (b *builder) products(records []ProductRecord) {
	for _, rec := range records {
		rec.StockNo = strings.TrimSpace(rec.StockNo)
		rec.Shorthand = strings.TrimSpace(rec.Shorthand)
		if err := common.Validator().Struct(rec); err != nil {
			b.skip("product", rec.StockNo, describe(err))
			continue
		}
		if _, dup := b.idx.products[rec.StockNo]; dup {
			b.skip("product", rec.StockNo, "duplicate stock number")
			continue
		}
		product := Product{
			StockNo:  rec.StockNo,
			Name:     rec.Name,
			Price:    rec.Price,
			Stock:    rec.Stock,
			ImageRef: rec.ImageRef,
		}
		if rec.Shorthand != "" {
			if owner, taken := b.idx.shorthand[rec.Shorthand]; taken {
				b.skip("shorthand", rec.StockNo, fmt.Sprintf("shorthand %q already used by %s", rec.Shorthand, owner))
			} else {
				product.Shorthand = rec.Shorthand
				b.idx.shorthand[rec.Shorthand] = rec.StockNo
			}
		}
		b.idx.products[rec.StockNo] = product

		var links []PromoLink
		for _, link := range rec.Promos {
			code := strings.TrimSpace(link.Code)
			if _, ok := b.idx.promos[code]; !ok {
				b.skip("promo_link", rec.StockNo+"/"+code, "unknown promo code")
				continue
			}
			if slices.ContainsFunc(links, func(l PromoLink) bool { return l.Code == code }) {
				continue
			}
			pl := PromoLink{Code: code}
			if link.Price != nil {
				pl.Price, pl.HasPrice = *link.Price, true
			}
			links = append(links, pl)
		}
		if len(links) > 0 {
			slices.SortFunc(links, func(a, b PromoLink) int { return strings.Compare(a.Code, b.Code) })
			b.idx.links[rec.StockNo] = links
		}
	}
}

func (b *builder) bundles(records []BundleRecord) {
	for _, rec := range records {
		rec.Code = strings.TrimSpace(rec.Code)
		rec.SKU = strings.TrimSpace(rec.SKU)
		if err := common.Validator().Struct(rec); err != nil {
			b.skip("bundle", rec.Code, describe(err))
			continue
		}
		if _, dup := b.idx.bundles[rec.Code]; dup {
			b.skip("bundle", rec.Code, "duplicate code")
			continue
		}
		bundle := Bundle{
			Code:       rec.Code,
			Name:       rec.Name,
			Price:      rec.Price,
			SKU:        rec.SKU,
			Components: components(rec.Components),
		}
		if bundle.SKU != "" {
			if owner, taken := b.idx.bundleSKU[bundle.SKU]; taken {
				b.skip("bundle_sku", rec.Code, fmt.Sprintf("sku %q already used by %s", bundle.SKU, owner))
				bundle.SKU = ""
			} else {
				b.idx.bundleSKU[bundle.SKU] = rec.Code
			}
		}
		b.idx.bundles[rec.Code] = bundle
	}
}

func (b *builder) tiers(records []TierRecord) {
	seen := map[string]struct{}{}
	for _, rec := range records {
		rec.Code = strings.TrimSpace(rec.Code)
		if err := common.Validator().Struct(rec); err != nil {
			b.skip("tier", rec.Code, describe(err))
			continue
		}
		if _, dup := seen[rec.Code]; dup {
			b.skip("tier", rec.Code, "duplicate code")
			continue
		}
		seen[rec.Code] = struct{}{}
		b.idx.tiers = append(b.idx.tiers, Tier{
			Code:      rec.Code,
			Name:      rec.Name,
			Threshold: rec.Threshold,
			Message:   rec.Message,
			Freebies:  components(rec.Freebies),
		})
	}
	slices.SortStableFunc(b.idx.tiers, func(x, y Tier) int {
		if x.Threshold != y.Threshold {
			if x.Threshold < y.Threshold {
				return -1
			}
			return 1
		}
		return strings.Compare(x.Code, y.Code)
	})
}

func components(records []ComponentRecord) []Component {
	out := make([]Component, 0, len(records))
	for _, c := range records {
		out = append(out, Component{
			StockNo:      strings.TrimSpace(c.StockNo),
			VariantIndex: c.VariantIndex,
			Quantity:     c.Quantity,
		})
	}
	return out
}

func describe(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		parts := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			parts = append(parts, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
		}
		return strings.Join(parts, "; ")
	}
	return err.Error()
}

// Product returns the product with the given stock number.
func (i *Index) Product(stockNo string) (Product, bool) {
	if i == nil {
		return Product{}, false
	}
	p, ok := i.products[stockNo]
	return p, ok
}

// Promo returns the promo type with the given code.
func (i *Index) Promo(code string) (Promo, bool) {
	if i == nil {
		return Promo{}, false
	}
	p, ok := i.promos[code]
	return p, ok
}

// PromosFor returns the promo links of a product ordered by code.
func (i *Index) PromosFor(stockNo string) []PromoLink {
	if i == nil {
		return nil
	}
	return slices.Clone(i.links[stockNo])
}

// Bundle returns a bundle by code or SKU. The component slice is a copy.
func (i *Index) Bundle(code string) (Bundle, bool) {
	if i == nil {
		return Bundle{}, false
	}
	b, ok := i.bundles[code]
	if !ok {
		owner, sku := i.bundleSKU[code]
		if !sku {
			return Bundle{}, false
		}
		b = i.bundles[owner]
	}
	b.Components = slices.Clone(b.Components)
	return b, true
}

// Tiers returns basket tiers ordered by threshold ascending.
func (i *Index) Tiers() []Tier {
	if i == nil {
		return nil
	}
	out := make([]Tier, len(i.tiers))
	for n, t := range i.tiers {
		t.Freebies = slices.Clone(t.Freebies)
		out[n] = t
	}
	return out
}

// Lookup resolves a scanned code: bundle code or SKU first, then product stock
// number, then product shorthand.
func (i *Index) Lookup(code string) (Match, bool) {
	code = strings.TrimSpace(code)
	if i == nil || code == "" {
		return Match{}, false
	}
	if b, ok := i.Bundle(code); ok {
		return Match{Kind: KindBundle, Bundle: &b}, true
	}
	if p, ok := i.products[code]; ok {
		return Match{Kind: KindProduct, Product: &p}, true
	}
	if owner, ok := i.shorthand[code]; ok {
		p := i.products[owner]
		return Match{Kind: KindProduct, Product: &p}, true
	}
	return Match{}, false
}

// Len returns the number of indexed products.
func (i *Index) Len() int {
	if i == nil {
		return 0
	}
	return len(i.products)
}
