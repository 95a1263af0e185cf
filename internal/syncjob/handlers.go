package syncjob

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/hibiken/asynq"

	"github.com/noah-isme/backend-kasir/internal/common"
)

// Enqueuer submits tasks.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Handler exposes task submission over HTTP.
type Handler struct {
	Client    Enqueuer
	MaxRetry  int
	UniqueFor time.Duration
	Now       func() time.Time
}

// Enqueue handles POST /api/v1/exports.
func (h Handler) Enqueue(w http.ResponseWriter, r *http.Request) {
	if h.Client == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "task client not configured", nil)
		return
	}
	now := time.Now().UTC()
	if h.Now != nil {
		now = h.Now().UTC()
	}
	task, err := NewExportTask(ExportPayload{
		RequestedBy: strings.TrimSpace(r.Header.Get("X-Operator-ID")),
		RequestedAt: now,
	}, h.MaxRetry, h.UniqueFor)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	info, err := h.Client.EnqueueContext(r.Context(), task)
	if errors.Is(err, asynq.ErrDuplicateTask) {
		common.JSONError(w, http.StatusConflict, "EXPORT_PENDING", "an export is already queued", nil)
		return
	}
	if err != nil {
		common.JSONError(w, http.StatusServiceUnavailable, "QUEUE_UNAVAILABLE", "could not enqueue export", nil)
		return
	}
	common.Data(w, http.StatusAccepted, map[string]any{
		"task_id": info.ID,
		"queue":   info.Queue,
		"type":    TypeSalesExport,
	})
}
