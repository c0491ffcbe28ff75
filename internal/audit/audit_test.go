package audit

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/yourorg/rosterpilot/internal/domain"
)

type captureRepo struct {
	entries []*domain.AuditEntry
	fail    bool
}

func (r *captureRepo) Append(ctx context.Context, entry *domain.AuditEntry) error {
	if r.fail {
		return errors.New("storage down")
	}
	r.entries = append(r.entries, entry)
	return nil
}

func (r *captureRepo) Recent(ctx context.Context, site string, limit int) ([]*domain.AuditEntry, error) {
	return r.entries, nil
}

func TestRecordResultSerializesPayload(t *testing.T) {
	repo := &captureRepo{}
	rec := NewRecorder(repo, nil)

	rec.RecordResult(context.Background(), domain.AuditEntry{
		Site:   "KH1",
		Action: "adjust_person_fte_rel",
		Status: domain.AuditStatusOK,
	}, map[string]any{"old_value": 1.0, "new_value": 0.5})

	if len(repo.entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(repo.entries))
	}
	if !strings.Contains(string(repo.entries[0].Result), "new_value") {
		t.Errorf("result payload missing: %s", repo.entries[0].Result)
	}
}

func TestRecordNeverFailsTheCaller(t *testing.T) {
	rec := NewRecorder(&captureRepo{fail: true}, nil)

	// Must not panic or propagate the storage error.
	rec.Record(context.Background(), domain.AuditEntry{Action: "commit", Status: domain.AuditStatusError})
}

func TestRecordResultUnserializablePayload(t *testing.T) {
	repo := &captureRepo{}
	rec := NewRecorder(repo, nil)

	rec.RecordResult(context.Background(), domain.AuditEntry{Status: domain.AuditStatusOK}, map[string]any{
		"bad": func() {},
	})

	if len(repo.entries) != 1 {
		t.Fatalf("expected the entry to be written anyway")
	}
	if !strings.Contains(string(repo.entries[0].Result), "unserializable") {
		t.Errorf("expected fallback payload, got %s", repo.entries[0].Result)
	}
}
