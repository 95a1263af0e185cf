package inventory

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-kasir/internal/common"
	"github.com/noah-isme/backend-kasir/internal/db"
	"github.com/noah-isme/backend-kasir/internal/db/gen"
	"github.com/noah-isme/backend-kasir/internal/obs"
	"github.com/noah-isme/backend-kasir/internal/pricing"
)

// ErrInventoryConsistency is returned when a transaction's stock effect
// cannot be applied as a whole.
var ErrInventoryConsistency = fmt.Errorf("inventory consistency: %w", common.ErrConsistency)

// Consumption is the stock effect on one product.
type Consumption struct {
	StockNo     string `json:"stock_no"`
	Units       int64  `json:"units"`
	StockBefore int64  `json:"stock_before"`
	StockAfter  int64  `json:"stock_after"`
	Oversold    bool   `json:"oversold,omitempty"`
}

// ConsumptionReport lists per-product consumption ordered by stock number.
type ConsumptionReport struct {
	Lines    []Consumption `json:"lines"`
	Units    int64         `json:"units"`
	Oversold int           `json:"oversold"`
}

// Ledger converts priced transactions into stock decrements.
type Ledger struct {
	Logger *zerolog.Logger
}

// Demand aggregates base units consumed per stock number. Product lines
// consume applications × units per application plus the remainder, bundle
// lines each component quantity per bundle, freebie lines their quantity.
func Demand(priced pricing.PricedTransaction) map[string]int64 {
	out := map[string]int64{}
	for _, line := range priced.Lines {
		switch line.Kind {
		case pricing.LineBundle:
			for _, c := range line.Components {
				out[c.StockNo] += int64(c.Quantity) * line.Qty
			}
		case pricing.LineFreebie:
			out[line.Code] += line.Qty
		default:
			ups := int64(line.UnitsPerApplication)
			if ups < 1 {
				ups = 1
			}
			out[line.Code] += line.Applications*ups + line.Remainder
		}
	}
	return out
}

// Apply decrements stock for every product the transaction touches through
// q, which must be inside the caller's transaction. If any product is
// missing nothing is decremented. Stock may go negative; that is logged and
// counted, not rejected.
func (l *Ledger) Apply(ctx context.Context, q gen.Querier, priced pricing.PricedTransaction, saleID uuid.UUID) (ConsumptionReport, error) {
	demand := Demand(priced)
	if len(demand) == 0 {
		return ConsumptionReport{}, nil
	}
	stockNos := make([]string, 0, len(demand))
	for stockNo := range demand {
		stockNos = append(stockNos, stockNo)
	}
	slices.Sort(stockNos)

	rows, err := q.LockProductsByStockNo(ctx, stockNos)
	if err != nil {
		return ConsumptionReport{}, db.Persistence("lock products", err)
	}
	ids := make(map[string]int64, len(rows))
	for _, row := range rows {
		ids[row.StockNo] = row.ID
	}
	var missing []string
	for _, stockNo := range stockNos {
		if _, ok := ids[stockNo]; !ok {
			missing = append(missing, stockNo)
		}
	}
	if len(missing) > 0 {
		return ConsumptionReport{}, fmt.Errorf("%w: unknown products %s", ErrInventoryConsistency, strings.Join(missing, ", "))
	}

	sale := pgtype.UUID{Bytes: saleID, Valid: saleID != uuid.Nil}
	report := ConsumptionReport{Lines: make([]Consumption, 0, len(stockNos))}
	for _, stockNo := range stockNos {
		units := demand[stockNo]
		if units == 0 {
			continue
		}
		after, err := q.AdjustProductStock(ctx, gen.AdjustProductStockParams{Delta: -units, ID: ids[stockNo]})
		if err != nil {
			if db.IsNoRows(err) {
				return ConsumptionReport{}, fmt.Errorf("%w: product %s vanished", ErrInventoryConsistency, stockNo)
			}
			return ConsumptionReport{}, db.Persistence("adjust stock "+stockNo, err)
		}
		before := after + units
		if err := q.InsertStockMovement(ctx, gen.InsertStockMovementParams{
			ProductID:   ids[stockNo],
			SaleID:      sale,
			Delta:       -units,
			StockBefore: before,
			StockAfter:  after,
		}); err != nil {
			return ConsumptionReport{}, db.Persistence("record stock movement "+stockNo, err)
		}
		c := Consumption{StockNo: stockNo, Units: units, StockBefore: before, StockAfter: after, Oversold: after < 0}
		if c.Oversold {
			report.Oversold++
			l.oversold(c)
		}
		report.Units += units
		report.Lines = append(report.Lines, c)
	}
	return report, nil
}

func (l *Ledger) oversold(c Consumption) {
	if obs.InventoryOversellTotal != nil {
		obs.InventoryOversellTotal.Inc()
	}
	if l != nil && l.Logger != nil {
		l.Logger.Warn().
			Str("stock_no", c.StockNo).
			Int64("units", c.Units).
			Int64("stock_after", c.StockAfter).
			Msg("stock oversold")
	}
}
