package catalog_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-kasir/internal/catalog"
	"github.com/noah-isme/backend-kasir/internal/db"
	"github.com/noah-isme/backend-kasir/internal/db/memdb"
)

func TestServiceLoadUsesCache(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := memdb.New()
	caps := db.NegotiateCapabilities(db.PromoPriceVersion)
	importInto(t, store, caps, catalogYAML)

	cache := catalog.NewCache(client, time.Minute, caps.SchemaVersion)
	svc := &catalog.Service{Runner: store, Caps: caps, Cache: cache}
	_, err := svc.Current()
	require.ErrorIs(t, err, catalog.ErrNotLoaded)

	snap, err := svc.Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, 3, snap.Report.Products)
	require.True(t, mr.Exists(cache.Key()))

	require.True(t, store.DeleteProduct("B200"))

	fresh := &catalog.Service{Runner: store, Caps: caps, Cache: cache}
	snap, err = fresh.Load(context.Background())
	require.NoError(t, err)
	_, ok := snap.Index.Product("B200")
	require.True(t, ok, "cached records should be served")

	require.NoError(t, fresh.Invalidate(context.Background()))
	snap, err = fresh.Load(context.Background())
	require.NoError(t, err)
	_, ok = snap.Index.Product("B200")
	require.False(t, ok)

	idx, err := fresh.Current()
	require.NoError(t, err)
	require.Same(t, snap.Index, idx)
}

func TestCacheIsKeyedBySchemaVersion(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	ctx := context.Background()

	old := catalog.NewCache(client, time.Minute, 1)
	current := catalog.NewCache(client, time.Minute, 2)
	require.NotEqual(t, old.Key(), current.Key())

	stored := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	require.NoError(t, old.Put(ctx, catalog.Records{Products: []catalog.ProductRecord{{StockNo: "A1", Name: "Tea", Price: 100}}}, stored))

	_, _, ok, err := current.Get(ctx)
	require.NoError(t, err)
	require.False(t, ok)

	records, at, ok, err := old.Get(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, stored.Equal(at))
	require.Len(t, records.Products, 1)

	require.NoError(t, mr.Set(current.Key(), "{not json"))
	_, _, ok, err = current.Get(ctx)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, old.Drop(ctx))
	require.False(t, mr.Exists(old.Key()))

	var missing *catalog.Cache
	_, _, ok, err = missing.Get(ctx)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestServiceReloadSwapsIndex(t *testing.T) {
	store := memdb.New()
	caps := db.NegotiateCapabilities(db.PromoPriceVersion)
	svc := &catalog.Service{Runner: store, Caps: caps}

	first, err := svc.Reload(context.Background())
	require.NoError(t, err)
	require.Zero(t, first.Index.Len())

	importInto(t, store, caps, catalogYAML)
	second, err := svc.Reload(context.Background())
	require.NoError(t, err)
	require.Equal(t, 3, second.Index.Len())
	require.Zero(t, first.Index.Len())

	idx, err := svc.Current()
	require.NoError(t, err)
	require.Same(t, second.Index, idx)
}

func TestServiceRunRefreshesUntilCancelled(t *testing.T) {
	store := memdb.New()
	caps := db.NegotiateCapabilities(db.PromoPriceVersion)
	svc := &catalog.Service{Runner: store, Caps: caps}
	_, err := svc.Reload(context.Background())
	require.NoError(t, err)

	importInto(t, store, caps, catalogYAML)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		svc.Run(ctx, 10*time.Millisecond)
		close(done)
	}()

	require.Eventually(t, func() bool {
		idx, err := svc.Current()
		return err == nil && idx.Len() == 3
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("refresh loop did not stop")
	}
}
