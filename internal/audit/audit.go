// Package audit appends the tamper-evident action trail. Recording is
// fire-and-forget: a failing audit write is logged and never aborts or
// rolls back the action it describes.
package audit

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/yourorg/rosterpilot/internal/domain"
)

// Recorder writes audit entries through the append-only repository.
type Recorder struct {
	repo   domain.AuditRepository
	logger *slog.Logger
}

// NewRecorder creates a new audit recorder
func NewRecorder(repo domain.AuditRepository, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{repo: repo, logger: logger}
}

// Record appends one entry. Storage errors are traced, not returned.
func (r *Recorder) Record(ctx context.Context, entry domain.AuditEntry) {
	if err := r.repo.Append(ctx, &entry); err != nil {
		r.logger.Error("audit write failed",
			slog.String("action", entry.Action),
			slog.String("site", entry.Site),
			slog.String("status", entry.Status),
			slog.String("error", err.Error()),
		)
	}
}

// RecordResult marshals the result payload and appends the entry.
func (r *Recorder) RecordResult(ctx context.Context, entry domain.AuditEntry, result any) {
	data, err := json.Marshal(result)
	if err != nil {
		r.logger.Error("audit payload not serializable",
			slog.String("action", entry.Action),
			slog.String("error", err.Error()),
		)
		data = []byte(`{"error":"unserializable result"}`)
	}
	entry.Result = data
	r.Record(ctx, entry)
}

// Recent returns the newest entries for a site.
func (r *Recorder) Recent(ctx context.Context, site string, limit int) ([]*domain.AuditEntry, error) {
	return r.repo.Recent(ctx, site, limit)
}
