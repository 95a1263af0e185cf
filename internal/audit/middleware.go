package audit

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/backend-kasir/internal/obs"
)

// HTTPRecorder writes an audit entry once a route has responded.
type HTTPRecorder struct {
	Service *Service
	OnError func(error)
}

// HTTPConfig names what a route does for the audit trail.
type HTTPConfig struct {
	Action          string
	Resource        string
	ResourceIDParam string
	// SuccessOnly skips requests that ended with a 4xx or 5xx status.
	SuccessOnly bool
}

func (r HTTPRecorder) Middleware(cfg HTTPConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if r.Service == nil || !r.Service.Enabled {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			recorder := obs.NewStatusRecorder(w)
			start := time.Now()
			next.ServeHTTP(recorder, req)

			status := recorder.Status()
			if cfg.SuccessOnly && status >= http.StatusBadRequest {
				return
			}
			var resourceID string
			if cfg.ResourceIDParam != "" {
				resourceID = chi.URLParam(req, cfg.ResourceIDParam)
			}
			err := r.Service.RecordRequest(req, cfg.Action, cfg.Resource, resourceID, status, map[string]any{
				"duration_ms": time.Since(start).Milliseconds(),
			})
			if err != nil && r.OnError != nil {
				r.OnError(err)
			}
		})
	}
}
