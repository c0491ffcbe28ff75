package repository

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/yourorg/rosterpilot/internal/domain"
)

// PostgresOrgUnitRepository implements domain.OrgUnitRepository.
// Org units are reference data maintained outside this service.
type PostgresOrgUnitRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresOrgUnitRepository creates a new org unit repository
func NewPostgresOrgUnitRepository(db *sql.DB, logger *slog.Logger) *PostgresOrgUnitRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresOrgUnitRepository{db: db, logger: logger}
}

// GetByCode retrieves an active org unit by its stable code.
// Lookup is exact-match only; unknown codes fail closed.
func (r *PostgresOrgUnitRepository) GetByCode(ctx context.Context, code string) (*domain.OrgUnit, error) {
	query := `
		SELECT id, code, site_code, name, unit_type, is_active
		FROM org_units
		WHERE code = $1 AND is_active = true
	`

	u := &domain.OrgUnit{}
	err := r.db.QueryRowContext(ctx, query, code).Scan(
		&u.ID, &u.Code, &u.SiteCode, &u.Name, &u.UnitType, &u.IsActive,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NewNotFoundError("Organisationseinheit %s nicht gefunden", code)
		}
		return nil, domain.NewStoreError("failed to get org unit", err)
	}
	return u, nil
}

// List returns all active org units ordered by name
func (r *PostgresOrgUnitRepository) List(ctx context.Context) ([]*domain.OrgUnit, error) {
	query := `
		SELECT id, code, site_code, name, unit_type, is_active
		FROM org_units
		WHERE is_active = true
		ORDER BY name
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, domain.NewStoreError("failed to list org units", err)
	}
	defer rows.Close()

	var units []*domain.OrgUnit
	for rows.Next() {
		u := &domain.OrgUnit{}
		if err := rows.Scan(&u.ID, &u.Code, &u.SiteCode, &u.Name, &u.UnitType, &u.IsActive); err != nil {
			return nil, domain.NewStoreError("failed to scan org unit row", err)
		}
		units = append(units, u)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewStoreError("failed to read org unit rows", err)
	}
	return units, nil
}
