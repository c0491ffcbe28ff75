package domain

import (
	"context"
	"encoding/json"
	"time"
)

// Audit entry outcome statuses.
const (
	AuditStatusOK       = "ok"
	AuditStatusError    = "error"
	AuditStatusProposed = "proposed"
)

// AuditEntry is one append-only record of an attempted or executed
// action. Entries are never mutated or deleted.
type AuditEntry struct {
	ID         string          `json:"id"`
	Site       string          `json:"site"`
	Command    string          `json:"command"`
	Action     string          `json:"action"`
	TargetPlan string          `json:"targetPlan"`
	PlanYear   int             `json:"planYear"`
	Status     string          `json:"status"`
	Result     json.RawMessage `json:"result"`
	CreatedAt  time.Time       `json:"createdAt"`
}

// AuditRepository defines append-only storage for audit entries.
type AuditRepository interface {
	Append(ctx context.Context, entry *AuditEntry) error
	Recent(ctx context.Context, site string, limit int) ([]*AuditEntry, error)
}

// TokenMarkerStore tracks consumed proposal tokens so a signed token
// cannot be committed twice.
type TokenMarkerStore interface {
	// MarkConsumed records the token hash and reports whether this
	// call was the first to consume it.
	MarkConsumed(ctx context.Context, tokenHash string) (first bool, err error)
	// Release removes the marker again. Used when the commit failed
	// before any entry was written, so the proposal stays usable.
	Release(ctx context.Context, tokenHash string) error
}
