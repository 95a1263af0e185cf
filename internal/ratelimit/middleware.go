package ratelimit

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/noah-isme/backend-kasir/internal/common"
)

// Allower decides whether one more event fits the window for key.
type Allower interface {
	Allow(ctx context.Context, key string, window time.Duration, limit int) (Decision, error)
}

// Config describes how requests are keyed and how many fit in a window.
type Config struct {
	Key    func(*http.Request) string
	Window time.Duration
	Max    int
}

// Handler rejects requests over the limit with 429. Limiter failures fail
// open and are passed to OnError.
type Handler struct {
	Limiter Allower
	Config  Config
	OnError func(error)
}

// KeyByHeader keys requests by scope and the value of header, falling back
// to the client IP when the header is absent.
func KeyByHeader(scope, header string) func(*http.Request) string {
	return func(r *http.Request) string {
		if id := strings.TrimSpace(r.Header.Get(header)); id != "" {
			return scope + ":" + id
		}
		return scope + ":ip:" + common.ClientIP(r)
	}
}

func (h Handler) Middleware(next http.Handler) http.Handler {
	if h.Limiter == nil || h.Config.Key == nil {
		return next
	}
	limit := strconv.Itoa(max(h.Config.Max, 0))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		decision, err := h.Limiter.Allow(r.Context(), h.Config.Key(r), h.Config.Window, h.Config.Max)
		if err != nil {
			if h.OnError != nil {
				h.OnError(err)
			}
			next.ServeHTTP(w, r)
			return
		}

		headers := w.Header()
		headers.Set("X-RateLimit-Limit", limit)
		headers.Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
		headers.Set("X-RateLimit-Reset", strconv.FormatInt(decision.ResetAt.Unix(), 10))
		if decision.Allowed {
			next.ServeHTTP(w, r)
			return
		}
		wait := int(time.Until(decision.ResetAt).Round(time.Second) / time.Second)
		wait = max(wait, 1)
		headers.Set("Retry-After", strconv.Itoa(wait))
		common.JSONError(w, http.StatusTooManyRequests, "RATE_LIMITED", "too many requests, retry later",
			map[string]any{"retry_after_seconds": wait})
	})
}
