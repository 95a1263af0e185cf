package catalog

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-kasir/internal/db"
	"github.com/noah-isme/backend-kasir/internal/db/gen"
)

// ErrNotLoaded is returned when the catalog is used before the first load.
var ErrNotLoaded = errors.New("catalog not loaded")

// Snapshot is one loaded catalog generation.
type Snapshot struct {
	Index    *Index
	Report   LoadReport
	LoadedAt time.Time
}

// Service owns the current catalog index. Reload swaps the index atomically;
// readers never observe a partially built one.
type Service struct {
	Runner db.Runner
	Cache  *Cache
	Caps   db.Capabilities
	Logger *zerolog.Logger
	Now    func() time.Time

	current atomic.Pointer[Snapshot]
}

// Load builds the index from the Redis cache when present, otherwise from the store.
func (s *Service) Load(ctx context.Context) (*Snapshot, error) {
	if s == nil {
		return nil, errors.New("catalog service not configured")
	}
	records, storedAt, ok, err := s.Cache.Get(ctx)
	if err != nil && s.Logger != nil {
		s.Logger.Warn().Err(err).Msg("catalog cache read failed")
	}
	if ok {
		if s.Logger != nil {
			s.Logger.Debug().Time("stored_at", storedAt).Msg("catalog served from cache")
		}
		return s.install(records), nil
	}
	return s.Reload(ctx)
}

// Reload reads the catalog from the store, refreshes the cache and swaps the index.
func (s *Service) Reload(ctx context.Context) (*Snapshot, error) {
	if s == nil || s.Runner == nil {
		return nil, errors.New("catalog service not configured")
	}
	var records Records
	err := s.Runner.InTx(ctx, func(q gen.Querier) error {
		var err error
		records, err = LoadRecords(ctx, q, s.Caps)
		return err
	})
	if err != nil {
		return nil, err
	}
	if err := s.Cache.Put(ctx, records, s.now()); err != nil && s.Logger != nil {
		s.Logger.Warn().Err(err).Msg("catalog cache write failed")
	}
	return s.install(records), nil
}

// Invalidate drops the cached record set so the next Load hits the store.
func (s *Service) Invalidate(ctx context.Context) error {
	if s == nil {
		return nil
	}
	return s.Cache.Drop(ctx)
}

// Current returns the active index.
func (s *Service) Current() (*Index, error) {
	if s == nil {
		return nil, ErrNotLoaded
	}
	snap := s.current.Load()
	if snap == nil {
		return nil, ErrNotLoaded
	}
	return snap.Index, nil
}

// Snapshot returns the active generation, or nil before the first load.
func (s *Service) Snapshot() *Snapshot {
	if s == nil {
		return nil
	}
	return s.current.Load()
}

// Run reloads the catalog every interval until ctx is done.
func (s *Service) Run(ctx context.Context, interval time.Duration) {
	if s == nil || interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Reload(ctx); err != nil && s.Logger != nil {
				s.Logger.Error().Err(err).Msg("catalog refresh failed")
			}
		}
	}
}

func (s *Service) install(records Records) *Snapshot {
	idx, report := Build(records, s.Logger)
	snap := &Snapshot{Index: idx, Report: report, LoadedAt: s.now()}
	s.current.Store(snap)
	if s.Logger != nil {
		s.Logger.Info().
			Int("products", report.Products).
			Int("promos", report.Promos).
			Int("bundles", report.Bundles).
			Int("tiers", report.Tiers).
			Int("skipped", len(report.Skipped)).
			Msg("catalog loaded")
	}
	return snap
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}
