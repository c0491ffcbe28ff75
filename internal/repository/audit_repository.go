package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/yourorg/rosterpilot/internal/domain"
)

// PostgresAuditRepository implements domain.AuditRepository.
// Rows are append-only; there is no update or delete path.
type PostgresAuditRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresAuditRepository creates a new audit repository
func NewPostgresAuditRepository(db *sql.DB, logger *slog.Logger) *PostgresAuditRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresAuditRepository{db: db, logger: logger}
}

// Append writes one audit entry
func (r *PostgresAuditRepository) Append(ctx context.Context, entry *domain.AuditEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	result := entry.Result
	if len(result) == 0 {
		result = []byte("null")
	}

	query := `
		INSERT INTO audit_entries (id, site, command, action, target_plan, plan_year, status, result, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.ExecContext(ctx, query,
		entry.ID, entry.Site, entry.Command, entry.Action, entry.TargetPlan,
		entry.PlanYear, entry.Status, []byte(result), entry.CreatedAt,
	)
	if err != nil {
		return domain.NewStoreError("failed to append audit entry", err)
	}
	return nil
}

// Recent returns the newest entries, optionally filtered by site
func (r *PostgresAuditRepository) Recent(ctx context.Context, site string, limit int) ([]*domain.AuditEntry, error) {
	if limit < 1 {
		limit = 1
	}
	if limit > 100 {
		limit = 100
	}

	query := `
		SELECT id, site, command, action, target_plan, plan_year, status, result, created_at
		FROM audit_entries
		WHERE $1 = '' OR site = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, site, limit)
	if err != nil {
		return nil, domain.NewStoreError("failed to list audit entries", err)
	}
	defer rows.Close()

	var entries []*domain.AuditEntry
	for rows.Next() {
		e := &domain.AuditEntry{}
		var result []byte
		if err := rows.Scan(&e.ID, &e.Site, &e.Command, &e.Action, &e.TargetPlan,
			&e.PlanYear, &e.Status, &result, &e.CreatedAt); err != nil {
			return nil, domain.NewStoreError("failed to scan audit entry", err)
		}
		e.Result = result
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewStoreError("failed to read audit entries", err)
	}
	return entries, nil
}
