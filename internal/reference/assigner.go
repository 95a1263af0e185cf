package reference

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-kasir/internal/common"
	"github.com/noah-isme/backend-kasir/internal/db"
	"github.com/noah-isme/backend-kasir/internal/db/gen"
	"github.com/noah-isme/backend-kasir/internal/obs"
)

// ErrMissingReference is returned for an empty or blank reference.
var ErrMissingReference = fmt.Errorf("reference number is required: %w", common.ErrValidation)

// Result counts what one assignment tagged.
type Result struct {
	Reference    string `json:"reference"`
	Transactions int64  `json:"transactions"`
	Items        int64  `json:"items"`
}

// Assigner stamps untagged sales with an external reference.
type Assigner struct {
	Runner db.Runner
	Logger *zerolog.Logger
}

// Assign tags every untagged sale item, optionally only those whose item code
// is in stockNos, then tags each sale whose items are now all tagged with ref.
// Only untagged rows match, so repeating a call tags nothing.
func (a *Assigner) Assign(ctx context.Context, ref string, stockNos []string) (Result, error) {
	if a == nil || a.Runner == nil {
		return Result{}, errors.New("reference assigner not configured")
	}
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return Result{}, ErrMissingReference
	}
	res := Result{Reference: ref}
	filter := normalise(stockNos)
	if len(stockNos) > 0 && len(filter) == 0 {
		// A filter of blanks matches no item; it must not widen to every sale.
		return res, nil
	}
	text := pgtype.Text{String: ref, Valid: true}

	err := a.Runner.InTx(ctx, func(q gen.Querier) error {
		items, err := q.TagUntaggedSaleItems(ctx, gen.TagUntaggedSaleItemsParams{
			Reference: text,
			ItemCodes: filter,
		})
		if err != nil {
			return db.Persistence("tag sale items", err)
		}
		sales, err := q.TagCompletedSales(ctx, text)
		if err != nil {
			return db.Persistence("tag sales", err)
		}
		res.Items, res.Transactions = items, sales
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	if obs.ReferenceTaggedItemsTotal != nil {
		obs.ReferenceTaggedItemsTotal.Add(float64(res.Items))
	}
	if a.Logger != nil {
		a.Logger.Info().
			Str("reference", ref).
			Int64("transactions", res.Transactions).
			Int64("items", res.Items).
			Msg("reference assigned")
	}
	return res, nil
}

// Pending reports how many sale items still lack a reference.
func (a *Assigner) Pending(ctx context.Context) (int64, error) {
	if a == nil || a.Runner == nil {
		return 0, errors.New("reference assigner not configured")
	}
	var n int64
	err := a.Runner.InTx(ctx, func(q gen.Querier) error {
		var err error
		n, err = q.CountUntaggedSaleItems(ctx)
		if err != nil {
			return db.Persistence("count untagged sale items", err)
		}
		return nil
	})
	return n, err
}

func normalise(codes []string) []string {
	out := make([]string, 0, len(codes))
	for _, c := range codes {
		if c = strings.TrimSpace(c); c != "" {
			out = append(out, c)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}
