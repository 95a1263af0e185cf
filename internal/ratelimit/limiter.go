package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Decision is the outcome of one Allow call.
type Decision struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

// slidingWindow trims events older than the window, admits the new event
// only when the window has room and returns {allowed, count, reset_ms}.
// Scores are unix milliseconds.
var slidingWindow = redis.NewScript(`
redis.call('ZREMRANGEBYSCORE', KEYS[1], '-inf', ARGV[2])
local count = redis.call('ZCARD', KEYS[1])
local allowed = 0
if count < tonumber(ARGV[4]) then
	redis.call('ZADD', KEYS[1], ARGV[1], ARGV[5])
	count = count + 1
	allowed = 1
end
local reset = tonumber(ARGV[1]) + tonumber(ARGV[3])
local oldest = redis.call('ZRANGE', KEYS[1], 0, 0, 'WITHSCORES')
if oldest[2] then
	reset = tonumber(oldest[2]) + tonumber(ARGV[3])
end
redis.call('PEXPIRE', KEYS[1], ARGV[3])
return {allowed, count, reset}
`)

// Limiter is a sliding-window limiter over Redis sorted sets. The check and
// the insert run in one script so concurrent terminals cannot overshoot the
// limit and rejected events never occupy the window.
type Limiter struct {
	Client redis.Scripter
	Prefix string
	Now    func() time.Time
}

// Allow records an event for key when fewer than limit events happened
// within window.
func (l Limiter) Allow(ctx context.Context, key string, window time.Duration, limit int) (Decision, error) {
	now := l.now()
	if l.Client == nil || limit <= 0 || window < time.Millisecond {
		return Decision{Allowed: true, Remaining: limit, ResetAt: now.Add(window)}, nil
	}
	nowMS := now.UnixMilli()
	windowMS := window.Milliseconds()
	res, err := slidingWindow.Run(ctx, l.Client, []string{l.Prefix + key},
		nowMS,
		nowMS-windowMS,
		windowMS,
		limit,
		uuid.NewString(),
	).Int64Slice()
	if err != nil {
		return Decision{}, fmt.Errorf("rate limit %s: %w", key, err)
	}
	if len(res) != 3 {
		return Decision{}, fmt.Errorf("rate limit %s: unexpected reply of %d values", key, len(res))
	}
	return Decision{
		Allowed:   res[0] == 1,
		Remaining: max(limit-int(res[1]), 0),
		ResetAt:   time.UnixMilli(res[2]).In(now.Location()),
	}, nil
}

func (l Limiter) now() time.Time {
	if l.Now != nil {
		return l.Now()
	}
	return time.Now()
}
