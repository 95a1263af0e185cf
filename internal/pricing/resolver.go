package pricing

import (
	"fmt"
	"strings"

	"github.com/noah-isme/backend-kasir/internal/catalog"
)

// Resolution is the promo decision for one product line. Without a
// qualifying promo UnitsPerApplication is 1, Applications equals the
// quantity and ApplicationPrice is the base price.
type Resolution struct {
	StockNo             string `json:"stock_no"`
	Name                string `json:"name"`
	BasePrice           Money  `json:"base_price"`
	PromoCode           string `json:"promo_code,omitempty"`
	UnitsPerApplication int32  `json:"units_per_application"`
	ApplicationPrice    Money  `json:"application_price"`
	Applications        int64  `json:"applications"`
	Remainder           int64  `json:"remainder"`
	Total               Money  `json:"total"`
}

// PromoResolver picks the unit-level promo for a product and quantity.
type PromoResolver struct {
	Index *catalog.Index
}

// Resolve prices qty base units of stockNo. A promo qualifies once qty reaches
// its units_per_sale; whole groups are charged the application price and the
// remainder the base price. Among qualifying promos the lowest total wins,
// then the smaller units_per_sale, then the lexically smaller code.
func (r PromoResolver) Resolve(stockNo string, qty int64) (Resolution, error) {
	if qty <= 0 {
		return Resolution{}, ErrInvalidQuantity
	}
	product, ok := r.Index.Product(stockNo)
	if !ok {
		return Resolution{}, fmt.Errorf("%q: %w", stockNo, ErrNoSuchProduct)
	}
	best := Resolution{
		StockNo:             product.StockNo,
		Name:                product.Name,
		BasePrice:           product.Price,
		UnitsPerApplication: 1,
		ApplicationPrice:    product.Price,
		Applications:        qty,
	}
	// A candidate whose total does not fit in minor units is dropped.
	base, baseErr := mulMoney(product.Price, qty)
	best.Total = base
	found := false
	for _, link := range r.Index.PromosFor(stockNo) {
		promo, ok := r.Index.Promo(link.Code)
		if !ok || promo.UnitsPerSale < 1 || qty < int64(promo.UnitsPerSale) {
			continue
		}
		ups := int64(promo.UnitsPerSale)
		price, err := applicationPrice(product, promo, link)
		if err != nil {
			continue
		}
		candidate := Resolution{
			StockNo:             product.StockNo,
			Name:                product.Name,
			BasePrice:           product.Price,
			PromoCode:           promo.Code,
			UnitsPerApplication: promo.UnitsPerSale,
			ApplicationPrice:    price,
			Applications:        qty / ups,
			Remainder:           qty % ups,
		}
		if candidate.Total, err = promoTotal(candidate, product.Price); err != nil {
			continue
		}
		if !found || better(candidate, best) {
			best, found = candidate, true
		}
	}
	if !found && baseErr != nil {
		return Resolution{}, fmt.Errorf("%q: %w", stockNo, baseErr)
	}
	return best, nil
}

func applicationPrice(product catalog.Product, promo catalog.Promo, link catalog.PromoLink) (Money, error) {
	switch {
	case link.HasPrice:
		return link.Price, nil
	case promo.HasPrice:
		return promo.Price, nil
	default:
		return mulMoney(product.Price, int64(promo.UnitsPerSale))
	}
}

func promoTotal(r Resolution, basePrice Money) (Money, error) {
	groups, err := mulMoney(r.Applications, r.ApplicationPrice)
	if err != nil {
		return 0, err
	}
	rest, err := mulMoney(r.Remainder, basePrice)
	if err != nil {
		return 0, err
	}
	return addMoney(groups, rest)
}

func better(a, b Resolution) bool {
	if a.Total != b.Total {
		return a.Total < b.Total
	}
	if a.UnitsPerApplication != b.UnitsPerApplication {
		return a.UnitsPerApplication < b.UnitsPerApplication
	}
	return strings.Compare(a.PromoCode, b.PromoCode) < 0
}
