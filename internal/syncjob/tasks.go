package syncjob

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

// Task types handled by the worker.
const (
	TypeSalesExport     = "sales:export"
	TypeAssignReference = "sales:assign_reference"
)

// Queue is the asynq queue every sync task runs on.
const Queue = "sync"

// ExportPayload asks the worker to export the open vault period.
type ExportPayload struct {
	RequestedBy string    `json:"requested_by"`
	RequestedAt time.Time `json:"requested_at"`
}

// AssignPayload asks the worker to tag untagged sales with Reference.
type AssignPayload struct {
	Reference string   `json:"reference" validate:"required"`
	StockNos  []string `json:"stock_nos,omitempty" validate:"omitempty,dive,required"`
}

// NewExportTask builds a sales:export task. Only one export may be queued at
// a time; duplicates within uniqueFor are rejected by asynq.
func NewExportTask(p ExportPayload, maxRetry int, uniqueFor time.Duration) (*asynq.Task, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode export payload: %w", err)
	}
	opts := []asynq.Option{asynq.Queue(Queue), asynq.MaxRetry(maxRetry)}
	if uniqueFor > 0 {
		opts = append(opts, asynq.Unique(uniqueFor))
	}
	return asynq.NewTask(TypeSalesExport, data, opts...), nil
}

// NewAssignTask builds a sales:assign_reference task.
func NewAssignTask(p AssignPayload, maxRetry int) (*asynq.Task, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode assign payload: %w", err)
	}
	return asynq.NewTask(TypeAssignReference, data, asynq.Queue(Queue), asynq.MaxRetry(maxRetry)), nil
}
