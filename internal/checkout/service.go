package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/noah-isme/backend-kasir/internal/catalog"
	"github.com/noah-isme/backend-kasir/internal/common"
	"github.com/noah-isme/backend-kasir/internal/db"
	"github.com/noah-isme/backend-kasir/internal/db/gen"
	"github.com/noah-isme/backend-kasir/internal/inventory"
	"github.com/noah-isme/backend-kasir/internal/obs"
	"github.com/noah-isme/backend-kasir/internal/pricing"
	"github.com/noah-isme/backend-kasir/internal/vault"
)

var (
	// ErrInsufficientTender is returned when cash plus alternate tender is below the total.
	ErrInsufficientTender = fmt.Errorf("tendered amount below total: %w", common.ErrValidation)
	// ErrInvalidTender is returned for negative tender or alternate tender above the total.
	ErrInvalidTender = fmt.Errorf("invalid tender: %w", common.ErrValidation)
)

// Input is the checkout commit payload.
type Input struct {
	Lines []pricing.CartLine `json:"lines" validate:"required,min=1,dive"`
	Cash  int64              `json:"cash" validate:"gte=0"`
	Alt   int64              `json:"alt" validate:"gte=0"`
}

// Transaction is the committed sale.
type Transaction struct {
	InternalID string               `json:"internal_id"`
	SalesNo    int64                `json:"sales_no"`
	TxnNo      int32                `json:"txn_no"`
	PeriodID   int64                `json:"period_id"`
	TerminalID string               `json:"terminal_id"`
	Lines      []pricing.PricedLine `json:"lines"`
	Tiers      []pricing.EarnedTier `json:"tiers,omitempty"`
	Subtotal   pricing.Money        `json:"subtotal"`
	Discount   pricing.Money        `json:"discount"`
	Total      pricing.Money        `json:"total"`
	Cash       pricing.Money        `json:"cash"`
	Alt        pricing.Money        `json:"alt"`
	Change     pricing.Money        `json:"change"`
	CreatedAt  time.Time            `json:"created_at"`
}

// Output is what a successful commit returns.
type Output struct {
	Transaction Transaction                 `json:"transaction"`
	Inventory   inventory.ConsumptionReport `json:"inventory"`
}

// Service prices carts against the current catalog and commits sales.
type Service struct {
	Catalog    *catalog.Service
	Policy     pricing.TierPolicy
	Runner     db.Runner
	Vault      *vault.Vault
	Ledger     *inventory.Ledger
	TerminalID string
	Logger     *zerolog.Logger
	Now        func() time.Time
}

// Price runs the pricing engine without side effects.
func (s *Service) Price(ctx context.Context, lines []pricing.CartLine) (pricing.PricedTransaction, error) {
	if s == nil || s.Catalog == nil {
		return pricing.PricedTransaction{}, errors.New("checkout service not configured")
	}
	idx, err := s.Catalog.Current()
	if err != nil {
		return pricing.PricedTransaction{}, fmt.Errorf("%w: %v", pricing.ErrCatalogUnavailable, err)
	}
	return pricing.NewEngine(idx, s.Policy).Price(lines)
}

// Commit prices lines, checks tender and applies the sale. Stock decrements,
// the vault fold and the sale rows are written in one transaction; any
// failure leaves no trace. Cancelling ctx has no effect once writing starts.
func (s *Service) Commit(ctx context.Context, in Input) (Output, error) {
	if s == nil || s.Runner == nil || s.Vault == nil {
		return Output{}, errors.New("checkout service not configured")
	}
	ctx, span := otel.Tracer("checkout.Service").Start(ctx, "CheckoutService.Commit")
	defer span.End()

	result := "error"
	defer func() {
		span.SetAttributes(attribute.String("checkout.result", result))
		if obs.CheckoutTotal != nil {
			obs.CheckoutTotal.WithLabelValues(result).Inc()
		}
	}()

	priced, err := s.Price(ctx, in.Lines)
	if err != nil {
		if errors.Is(err, common.ErrValidation) || errors.Is(err, common.ErrNotFound) {
			result = "rejected"
		}
		span.RecordError(err)
		return Output{}, err
	}
	change, err := tender(priced.Total, in.Cash, in.Alt)
	if err != nil {
		result = "rejected"
		return Output{}, err
	}
	span.SetAttributes(
		attribute.Int("checkout.lines", len(priced.Lines)),
		attribute.Int64("checkout.total", priced.Total),
	)

	ledger := s.Ledger
	if ledger == nil {
		ledger = &inventory.Ledger{Logger: s.Logger}
	}
	internalID := uuid.New()
	createdAt := s.now()
	out := Output{Transaction: Transaction{
		InternalID: internalID.String(),
		TerminalID: s.TerminalID,
		Lines:      priced.Lines,
		Tiers:      priced.Tiers,
		Subtotal:   priced.Subtotal,
		Discount:   priced.Discount,
		Total:      priced.Total,
		Cash:       in.Cash,
		Alt:        in.Alt,
		Change:     change,
		CreatedAt:  createdAt,
	}}

	err = s.Vault.Exclusive(ctx, func(ctx context.Context) error {
		ctx = context.WithoutCancel(ctx)
		return s.Runner.InTx(ctx, func(q gen.Querier) error {
			report, err := ledger.Apply(ctx, q, priced, internalID)
			if err != nil {
				return err
			}
			receipt, err := s.Vault.RecordIn(ctx, q, vaultSale(priced, in.Cash, in.Alt, change))
			if err != nil {
				return err
			}
			saleID, err := q.InsertSale(ctx, gen.InsertSaleParams{
				InternalID:   pgtype.UUID{Bytes: internalID, Valid: true},
				SalesNo:      receipt.SalesNo,
				TxnNo:        receipt.TxnNo,
				PeriodID:     receipt.PeriodID,
				TerminalID:   s.TerminalID,
				Subtotal:     priced.Subtotal,
				Total:        priced.Total,
				CashTendered: in.Cash,
				AltTendered:  in.Alt,
				ChangeGiven:  change,
				CreatedAt:    pgtype.Timestamptz{Time: createdAt, Valid: true},
			})
			if err != nil {
				return db.Persistence("insert sale", err)
			}
			for n, line := range priced.Lines {
				if err := q.InsertSaleItem(ctx, saleItem(saleID, n, line)); err != nil {
					return db.Persistence("insert sale item", err)
				}
			}
			out.Inventory = report
			out.Transaction.SalesNo = receipt.SalesNo
			out.Transaction.TxnNo = receipt.TxnNo
			out.Transaction.PeriodID = receipt.PeriodID
			return nil
		})
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if s.Logger != nil {
			s.Logger.Error().Err(err).Str("internal_id", internalID.String()).Msg("checkout rolled back")
		}
		return Output{}, err
	}

	result = "success"
	if obs.CheckoutRevenue != nil {
		obs.CheckoutRevenue.Add(float64(priced.Total))
	}
	if s.Logger != nil {
		s.Logger.Info().
			Str("internal_id", internalID.String()).
			Int64("sales_no", out.Transaction.SalesNo).
			Int32("txn_no", out.Transaction.TxnNo).
			Int64("total", priced.Total).
			Int64("change", change).
			Msg("checkout committed")
	}
	return out, nil
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// tender returns the cash change due. Change is only given from cash, so
// alternate tender may not exceed the total on its own.
func tender(total, cash, alt pricing.Money) (pricing.Money, error) {
	if cash < 0 || alt < 0 {
		return 0, fmt.Errorf("negative amount: %w", ErrInvalidTender)
	}
	if alt > total {
		return 0, fmt.Errorf("alternate tender %d exceeds total %d: %w", alt, total, ErrInvalidTender)
	}
	if cash+alt < total {
		return 0, fmt.Errorf("tendered %d, total %d: %w", cash+alt, total, ErrInsufficientTender)
	}
	return cash + alt - total, nil
}

func vaultSale(priced pricing.PricedTransaction, cash, alt, change pricing.Money) vault.Sale {
	sale := vault.Sale{Cash: cash, Alt: alt, Change: change}
	for _, line := range priced.Lines {
		sale.Lines = append(sale.Lines, vault.Line{
			ItemCode: line.Code,
			Name:     line.Name,
			Qty:      line.Qty,
			Revenue:  line.Total,
		})
	}
	return sale
}

func saleItem(saleID int64, n int, line pricing.PricedLine) gen.InsertSaleItemParams {
	item := gen.InsertSaleItemParams{
		SaleID:       saleID,
		LineNo:       int32(n + 1),
		Kind:         string(line.Kind),
		ItemCode:     line.Code,
		Name:         line.Name,
		Quantity:     int32(line.Qty),
		UnitsPerSale: line.UnitsPerApplication,
		UnitPrice:    line.UnitPrice,
		DiscountPct:  numeric(line.DiscountPct),
		LineTotal:    line.Total,
	}
	if line.PromoCode != "" {
		item.PromoCode = pgtype.Text{String: line.PromoCode, Valid: true}
	}
	return item
}

func numeric(d decimal.Decimal) pgtype.Numeric {
	return pgtype.Numeric{Int: d.Coefficient(), Exp: d.Exponent(), Valid: true}
}
