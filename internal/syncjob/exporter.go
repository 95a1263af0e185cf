package syncjob

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-kasir/internal/vault"
)

// Exporter hands a vault snapshot to the external ordering system and
// returns the reference it assigned.
type Exporter interface {
	Export(ctx context.Context, snap vault.PeriodSnapshot) (string, error)
}

// LogExporter logs the snapshot instead of sending it anywhere. References
// look like PREFIX-<period>-<yyyymmddhhmmss>.
type LogExporter struct {
	Logger *zerolog.Logger
	Prefix string
	Now    func() time.Time
}

// Export implements Exporter.
func (e LogExporter) Export(ctx context.Context, snap vault.PeriodSnapshot) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	now := time.Now().UTC()
	if e.Now != nil {
		now = e.Now().UTC()
	}
	prefix := e.Prefix
	if prefix == "" {
		prefix = "EXP"
	}
	ref := fmt.Sprintf("%s-%d-%s", prefix, snap.ID, now.Format("20060102150405"))
	if e.Logger != nil {
		e.Logger.Info().
			Str("reference", ref).
			Int64("period_id", snap.ID).
			Int64("revenue", snap.Revenue).
			Int32("transactions", snap.Transactions).
			Int("items", len(snap.Items)).
			Msg("sales exported")
	}
	return ref, nil
}
