package pricing

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-kasir/internal/catalog"
)

// Money represents a monetary value stored in minor units.
type Money = int64

// LineKind classifies a priced line.
type LineKind string

const (
	LineProduct LineKind = "product"
	LineBundle  LineKind = "bundle"
	LineFreebie LineKind = "freebie"
)

var hundred = decimal.NewFromInt(100)

// CartLine is one scanned entry. Code may be a bundle code or SKU, a stock
// number or a shorthand. Qty counts base units for products and whole
// bundles for bundles.
type CartLine struct {
	Code        string          `json:"code" validate:"required"`
	Qty         int64           `json:"qty" validate:"gt=0"`
	DiscountPct decimal.Decimal `json:"discount_pct"`
}

// PricedLine is a cart line after pricing.
type PricedLine struct {
	Kind                LineKind            `json:"kind"`
	Code                string              `json:"code"`
	Name                string              `json:"name"`
	Qty                 int64               `json:"qty"`
	UnitPrice           Money               `json:"unit_price"`
	PromoCode           string              `json:"promo_code,omitempty"`
	UnitsPerApplication int32               `json:"units_per_application"`
	ApplicationPrice    Money               `json:"application_price"`
	Applications        int64               `json:"applications"`
	Remainder           int64               `json:"remainder"`
	DiscountPct         decimal.Decimal     `json:"discount_pct"`
	Gross               Money               `json:"gross"`
	Discount            Money               `json:"discount"`
	Total               Money               `json:"total"`
	Components          []catalog.Component `json:"components,omitempty"`
	TierCode            string              `json:"tier_code,omitempty"`
	VariantIndex        int32               `json:"variant_index,omitempty"`
}

// PricedTransaction is the outcome of pricing a cart. Freebie lines are
// appended after the scanned lines and carry no money.
type PricedTransaction struct {
	Lines    []PricedLine `json:"lines"`
	Subtotal Money        `json:"subtotal"`
	Discount Money        `json:"discount"`
	Tiers    []EarnedTier `json:"tiers,omitempty"`
	Total    Money        `json:"total"`
}

// Engine prices carts against one catalog index. It never mutates state.
type Engine struct {
	Index  *catalog.Index
	Policy TierPolicy
}

// NewEngine constructs an Engine.
func NewEngine(idx *catalog.Index, policy TierPolicy) *Engine {
	return &Engine{Index: idx, Policy: policy}
}

// Price turns cart lines into a priced transaction.
func (e *Engine) Price(lines []CartLine) (PricedTransaction, error) {
	if e == nil || e.Index == nil {
		return PricedTransaction{}, ErrCatalogUnavailable
	}
	if len(lines) == 0 {
		return PricedTransaction{}, ErrEmptyCart
	}
	promos := PromoResolver{Index: e.Index}
	bundles := BundleResolver{Index: e.Index}

	var out PricedTransaction
	for n, line := range lines {
		if line.Qty <= 0 || line.Qty > MaxLineQty {
			return PricedTransaction{}, fmt.Errorf("line %d: %w", n+1, ErrInvalidQuantity)
		}
		code := strings.TrimSpace(line.Code)
		match, ok := e.Index.Lookup(code)
		if !ok {
			return PricedTransaction{}, fmt.Errorf("line %d %q: %w", n+1, code, ErrNoSuchProduct)
		}

		var priced PricedLine
		switch match.Kind {
		case catalog.KindBundle:
			exp, err := bundles.Expand(match.Bundle.Code)
			if err != nil {
				return PricedTransaction{}, fmt.Errorf("line %d: %w", n+1, err)
			}
			gross, err := mulMoney(exp.Price, line.Qty)
			if err != nil {
				return PricedTransaction{}, fmt.Errorf("line %d: %w", n+1, err)
			}
			priced = PricedLine{
				Kind:                LineBundle,
				Code:                exp.Code,
				Name:                exp.Name,
				Qty:                 line.Qty,
				UnitPrice:           exp.Price,
				UnitsPerApplication: 1,
				ApplicationPrice:    exp.Price,
				Applications:        line.Qty,
				DiscountPct:         decimal.Zero,
				Gross:               gross,
				Total:               gross,
				Components:          exp.Components,
			}
		default:
			res, err := promos.Resolve(match.Product.StockNo, line.Qty)
			if err != nil {
				return PricedTransaction{}, fmt.Errorf("line %d: %w", n+1, err)
			}
			pct := ClampPercent(line.DiscountPct)
			total := ApplyDiscount(res.Total, pct)
			priced = PricedLine{
				Kind:                LineProduct,
				Code:                res.StockNo,
				Name:                res.Name,
				Qty:                 line.Qty,
				UnitPrice:           res.BasePrice,
				PromoCode:           res.PromoCode,
				UnitsPerApplication: res.UnitsPerApplication,
				ApplicationPrice:    res.ApplicationPrice,
				Applications:        res.Applications,
				Remainder:           res.Remainder,
				DiscountPct:         pct,
				Gross:               res.Total,
				Discount:            res.Total - total,
				Total:               total,
			}
		}
		out.Lines = append(out.Lines, priced)
		var err error
		if out.Subtotal, err = addMoney(out.Subtotal, priced.Total); err != nil {
			return PricedTransaction{}, fmt.Errorf("line %d: %w", n+1, err)
		}
		if out.Discount, err = addMoney(out.Discount, priced.Discount); err != nil {
			return PricedTransaction{}, fmt.Errorf("line %d: %w", n+1, err)
		}
	}

	tiers := TierEngine{Tiers: e.Index.Tiers(), Policy: e.Policy}
	out.Tiers = tiers.Evaluate(out.Subtotal)
	for _, tier := range out.Tiers {
		for _, f := range tier.Freebies {
			name := f.StockNo
			if p, ok := e.Index.Product(f.StockNo); ok {
				name = p.Name
			}
			out.Lines = append(out.Lines, PricedLine{
				Kind:                LineFreebie,
				Code:                f.StockNo,
				Name:                name,
				Qty:                 f.Quantity,
				UnitsPerApplication: 1,
				Applications:        f.Quantity,
				DiscountPct:         decimal.Zero,
				TierCode:            tier.Code,
				VariantIndex:        f.VariantIndex,
			})
		}
	}
	out.Total = out.Subtotal
	return out, nil
}

// ClampPercent limits a discount percentage to [0, 100].
func ClampPercent(pct decimal.Decimal) decimal.Decimal {
	switch {
	case pct.IsNegative():
		return decimal.Zero
	case pct.GreaterThan(hundred):
		return hundred
	default:
		return pct
	}
}

// ApplyDiscount reduces amount by pct percent, rounding half away from zero
// to whole minor units.
func ApplyDiscount(amount Money, pct decimal.Decimal) Money {
	if pct.IsZero() {
		return amount
	}
	kept := hundred.Sub(pct)
	return decimal.NewFromInt(amount).Mul(kept).Div(hundred).Round(0).IntPart()
}
