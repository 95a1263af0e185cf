package audit

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/noah-isme/backend-kasir/internal/common"
	"github.com/noah-isme/backend-kasir/internal/db"
	"github.com/noah-isme/backend-kasir/internal/db/gen"
	"github.com/noah-isme/backend-kasir/internal/obs"
)

// OperatorHeader carries the operator identifier set by the terminal.
const OperatorHeader = "X-Operator-ID"

// SystemActor is recorded for actions taken by background jobs.
const SystemActor = "system"

// Service persists operator audit entries.
type Service struct {
	Runner  db.Runner
	Enabled bool
}

// Entry is one audited operator action.
type Entry struct {
	Actor      string
	Action     string
	Resource   string
	ResourceID string
	RequestID  string
	Metadata   map[string]any
}

// Record persists entry when auditing is enabled.
func (s *Service) Record(ctx context.Context, entry Entry) error {
	if s == nil || !s.Enabled {
		return nil
	}
	if s.Runner == nil {
		return errors.New("audit: store not configured")
	}
	actor := strings.TrimSpace(entry.Actor)
	if actor == "" {
		actor = "anonymous"
	}
	var metadata []byte
	if len(entry.Metadata) > 0 {
		data, err := json.Marshal(entry.Metadata)
		if err != nil {
			return err
		}
		metadata = data
	}
	return s.Runner.InTx(ctx, func(q gen.Querier) error {
		return q.InsertAuditLog(ctx, gen.InsertAuditLogParams{
			Actor:      actor,
			Action:     strings.TrimSpace(entry.Action),
			Resource:   strings.TrimSpace(entry.Resource),
			ResourceID: toNullText(entry.ResourceID),
			RequestID:  toNullText(entry.RequestID),
			Metadata:   metadata,
		})
	})
}

// RecordRequest builds an entry from an HTTP request and records it.
func (s *Service) RecordRequest(req *http.Request, action, resource, resourceID string, status int, metadata map[string]any) error {
	if req == nil {
		return errors.New("audit: request is required")
	}
	if action == "" {
		route := obs.RoutePatternFromContext(req.Context())
		if route == "" {
			route = req.URL.Path
		}
		action = strings.ToUpper(req.Method) + " " + route
	}
	meta := map[string]any{"status": status}
	for k, v := range metadata {
		meta[k] = v
	}
	if ip := common.ClientIP(req); ip != "" {
		meta["ip"] = ip
	}
	return s.Record(req.Context(), Entry{
		Actor:      req.Header.Get(OperatorHeader),
		Action:     action,
		Resource:   resource,
		ResourceID: resourceID,
		RequestID:  middleware.GetReqID(req.Context()),
		Metadata:   meta,
	})
}

// List returns audit rows newest first.
func (s *Service) List(ctx context.Context, limit, offset int) ([]gen.AuditLog, error) {
	if s == nil || s.Runner == nil {
		return nil, errors.New("audit: store not configured")
	}
	var rows []gen.AuditLog
	err := s.Runner.InTx(ctx, func(q gen.Querier) error {
		var err error
		rows, err = q.ListAuditLogs(ctx, gen.ListAuditLogsParams{LimitCount: int32(limit), OffsetRows: int32(offset)})
		return err
	})
	if err != nil {
		return nil, db.Persistence("list audit logs", err)
	}
	return rows, nil
}

func toNullText(value string) pgtype.Text {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: trimmed, Valid: true}
}
