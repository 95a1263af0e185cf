package report

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-kasir/internal/vault"
)

// Source reads vault periods.
type Source interface {
	Period(ctx context.Context, id int64) (vault.PeriodSnapshot, error)
	Closed(ctx context.Context, limit, offset int) ([]vault.PeriodSnapshot, error)
}

// PeriodReport is a vault period with derived totals.
type PeriodReport struct {
	vault.PeriodSnapshot
	NetCash  int64             `json:"net_cash"`
	TopItems []vault.ItemTotal `json:"top_items"`
}

// Service serves period reports. Closed periods never change, so their
// reports are cached in Redis; open periods are always read fresh.
type Service struct {
	Source   Source
	R        *redis.Client
	TTL      time.Duration
	TopItems int
	Logger   *zerolog.Logger
}

func cacheKey(parts ...any) string {
	formatted := make([]string, 0, len(parts))
	for _, part := range parts {
		formatted = append(formatted, fmt.Sprint(part))
	}
	return strings.Join(formatted, ":")
}

// Period returns the report for one period.
func (s *Service) Period(ctx context.Context, id int64) (PeriodReport, error) {
	if s == nil || s.Source == nil {
		return PeriodReport{}, fmt.Errorf("report service not configured")
	}
	key := cacheKey("report", "period", id)
	if rep, ok := s.cached(ctx, key); ok {
		return rep, nil
	}
	snap, err := s.Source.Period(ctx, id)
	if err != nil {
		return PeriodReport{}, err
	}
	rep := s.build(snap)
	if snap.ClosedAt != nil {
		s.store(ctx, key, rep)
	}
	return rep, nil
}

// Closed lists closed periods newest first.
func (s *Service) Closed(ctx context.Context, limit, offset int) ([]vault.PeriodSnapshot, error) {
	if s == nil || s.Source == nil {
		return nil, fmt.Errorf("report service not configured")
	}
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.Source.Closed(ctx, limit, offset)
}

func (s *Service) build(snap vault.PeriodSnapshot) PeriodReport {
	top := slices.Clone(snap.Items)
	slices.SortStableFunc(top, func(a, b vault.ItemTotal) int {
		switch {
		case a.Revenue != b.Revenue:
			if a.Revenue > b.Revenue {
				return -1
			}
			return 1
		case a.Quantity != b.Quantity:
			if a.Quantity > b.Quantity {
				return -1
			}
			return 1
		default:
			return strings.Compare(a.Code, b.Code)
		}
	})
	n := s.TopItems
	if n <= 0 {
		n = 10
	}
	if len(top) > n {
		top = top[:n]
	}
	if top == nil {
		top = []vault.ItemTotal{}
	}
	return PeriodReport{
		PeriodSnapshot: snap,
		NetCash:        snap.CashTendered - snap.ChangeGiven,
		TopItems:       top,
	}
}

func (s *Service) cached(ctx context.Context, key string) (PeriodReport, bool) {
	if s.R == nil || s.TTL <= 0 {
		return PeriodReport{}, false
	}
	data, err := s.R.Get(ctx, key).Bytes()
	if err != nil {
		return PeriodReport{}, false
	}
	var rep PeriodReport
	if err := json.Unmarshal(data, &rep); err != nil {
		return PeriodReport{}, false
	}
	return rep, true
}

func (s *Service) store(ctx context.Context, key string, value any) {
	if s.R == nil || s.TTL <= 0 {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := s.R.Set(ctx, key, data, s.TTL).Err(); err != nil && s.Logger != nil {
		s.Logger.Warn().Err(err).Str("key", key).Msg("report cache write failed")
	}
}
