package catalog

import (
	"context"

	"github.com/noah-isme/backend-kasir/internal/db"
	"github.com/noah-isme/backend-kasir/internal/db/gen"
)

// LoadRecords reads the full catalog through q. Promo prices are only queried
// when caps reports the column exists.
func LoadRecords(ctx context.Context, q gen.Querier, caps db.Capabilities) (Records, error) {
	var out Records

	products, err := q.ListProducts(ctx)
	if err != nil {
		return Records{}, db.Persistence("list products", err)
	}
	links, err := q.ListPromoLinks(ctx)
	if err != nil {
		return Records{}, db.Persistence("list promo links", err)
	}
	byProduct := make(map[string][]PromoLinkRecord, len(links))
	for _, l := range links {
		rec := PromoLinkRecord{Code: l.PromoCode}
		if l.Price.Valid {
			price := l.Price.Int64
			rec.Price = &price
		}
		byProduct[l.StockNo] = append(byProduct[l.StockNo], rec)
	}
	for _, p := range products {
		out.Products = append(out.Products, ProductRecord{
			StockNo:   p.StockNo,
			Name:      p.Name,
			Price:     p.Price,
			Stock:     p.Stock,
			Shorthand: p.Shorthand.String,
			ImageRef:  p.ImageRef.String,
			Promos:    byProduct[p.StockNo],
		})
	}

	if caps.PromoPrice {
		promos, err := q.ListPromoTypesWithPrice(ctx)
		if err != nil {
			return Records{}, db.Persistence("list promo types", err)
		}
		for _, p := range promos {
			rec := PromoRecord{Code: p.Code, Name: p.Name, UnitsPerSale: p.UnitsPerSale}
			if p.Price.Valid {
				price := p.Price.Int64
				rec.Price = &price
			}
			out.Promos = append(out.Promos, rec)
		}
	} else {
		promos, err := q.ListPromoTypes(ctx)
		if err != nil {
			return Records{}, db.Persistence("list promo types", err)
		}
		for _, p := range promos {
			out.Promos = append(out.Promos, PromoRecord{Code: p.Code, Name: p.Name, UnitsPerSale: p.UnitsPerSale})
		}
	}

	bundles, err := q.ListBundles(ctx)
	if err != nil {
		return Records{}, db.Persistence("list bundles", err)
	}
	comps, err := q.ListBundleComponents(ctx)
	if err != nil {
		return Records{}, db.Persistence("list bundle components", err)
	}
	byBundle := make(map[string][]ComponentRecord, len(bundles))
	for _, c := range comps {
		byBundle[c.BundleCode] = append(byBundle[c.BundleCode], ComponentRecord{
			StockNo:      c.StockNo,
			VariantIndex: c.VariantIndex,
			Quantity:     c.Quantity,
		})
	}
	for _, b := range bundles {
		out.Bundles = append(out.Bundles, BundleRecord{
			Code:       b.Code,
			Name:       b.Name,
			Price:      b.Price,
			SKU:        b.Sku,
			Components: byBundle[b.Code],
		})
	}

	tiers, err := q.ListBasketTiers(ctx)
	if err != nil {
		return Records{}, db.Persistence("list basket tiers", err)
	}
	freebies, err := q.ListTierFreebies(ctx)
	if err != nil {
		return Records{}, db.Persistence("list tier freebies", err)
	}
	byTier := make(map[string][]ComponentRecord, len(tiers))
	for _, f := range freebies {
		byTier[f.TierCode] = append(byTier[f.TierCode], ComponentRecord{
			StockNo:      f.StockNo,
			VariantIndex: f.VariantIndex,
			Quantity:     f.Quantity,
		})
	}
	for _, t := range tiers {
		out.Tiers = append(out.Tiers, TierRecord{
			Code:      t.Code,
			Name:      t.Name,
			Threshold: t.Threshold,
			Message:   t.Message,
			Freebies:  byTier[t.Code],
		})
	}
	return out, nil
}
