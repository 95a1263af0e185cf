package resilience

import (
	"math/rand/v2"
	"time"
)

// MaxBackoff caps Backoff before jitter.
const MaxBackoff = 10 * time.Minute

// Backoff returns base doubled per attempt after the first, capped at
// MaxBackoff, then spread by up to jitter (a fraction, 0.2 is ±20%).
func Backoff(base time.Duration, attempt int, jitter float64) time.Duration {
	if base <= 0 {
		base = 100 * time.Millisecond
	}
	d := base
	for i := 1; i < attempt && d < MaxBackoff; i++ {
		d *= 2
	}
	d = min(d, MaxBackoff)
	if jitter <= 0 {
		return d
	}
	jitter = min(jitter, 1)
	spread := float64(d) * jitter * (2*rand.Float64() - 1)
	return d + time.Duration(spread)
}
