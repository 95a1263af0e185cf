package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache keeps the last record set read from the store in Redis so that
// terminals restarting together do not all hit Postgres. Entries are keyed
// by schema version; a migrated store never reads records cached under the
// old layout. A nil Cache or one without a client is a no-op.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	key    string
}

type cachedRecords struct {
	StoredAt time.Time `json:"stored_at"`
	Records  Records   `json:"records"`
}

func NewCache(client *redis.Client, ttl time.Duration, schemaVersion uint) *Cache {
	return &Cache{client: client, ttl: ttl, key: fmt.Sprintf("catalog:records:v%d", schemaVersion)}
}

// Key returns the Redis key the record set lives under.
func (c *Cache) Key() string {
	if c == nil {
		return ""
	}
	return c.key
}

// Get returns the cached records and when they were stored. ok is false on
// a miss.
func (c *Cache) Get(ctx context.Context) (records Records, storedAt time.Time, ok bool, err error) {
	if c == nil || c.client == nil {
		return Records{}, time.Time{}, false, nil
	}
	data, err := c.client.Get(ctx, c.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return Records{}, time.Time{}, false, nil
	}
	if err != nil {
		return Records{}, time.Time{}, false, fmt.Errorf("read catalog cache: %w", err)
	}
	var entry cachedRecords
	if err := json.Unmarshal(data, &entry); err != nil {
		// A corrupt entry is treated as a miss and overwritten by the next Put.
		return Records{}, time.Time{}, false, nil
	}
	return entry.Records, entry.StoredAt, true, nil
}

func (c *Cache) Put(ctx context.Context, records Records, now time.Time) error {
	if c == nil || c.client == nil {
		return nil
	}
	data, err := json.Marshal(cachedRecords{StoredAt: now.UTC(), Records: records})
	if err != nil {
		return fmt.Errorf("encode catalog cache: %w", err)
	}
	return c.client.Set(ctx, c.key, data, c.ttl).Err()
}

func (c *Cache) Drop(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Del(ctx, c.key).Err()
}
