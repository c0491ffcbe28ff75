package repository

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yourorg/rosterpilot/internal/domain"
)

// PostgresEmployeeRepository implements domain.EmployeeRepository
type PostgresEmployeeRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresEmployeeRepository creates a new employee repository
func NewPostgresEmployeeRepository(db *sql.DB, logger *slog.Logger) *PostgresEmployeeRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresEmployeeRepository{db: db, logger: logger}
}

const employeeColumns = `id, personnel_no, display_name, qualification, is_active, created_at, updated_at`

func scanEmployee(row interface{ Scan(...any) error }) (*domain.Employee, error) {
	e := &domain.Employee{}
	err := row.Scan(&e.ID, &e.PersonnelNumber, &e.DisplayName, &e.Qualification,
		&e.IsActive, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return e, nil
}

// GetByID retrieves an employee by surrogate id
func (r *PostgresEmployeeRepository) GetByID(ctx context.Context, id string) (*domain.Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees WHERE id = $1`

	e, err := scanEmployee(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NewNotFoundError("Mitarbeiter %s nicht gefunden", id)
		}
		return nil, domain.NewStoreError("failed to get employee", err)
	}
	return e, nil
}

// GetByPersonnelNumber retrieves an employee by the unique personnel number
func (r *PostgresEmployeeRepository) GetByPersonnelNumber(ctx context.Context, personnelNo string) (*domain.Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees WHERE personnel_no = $1 AND is_active = true`

	e, err := scanEmployee(r.db.QueryRowContext(ctx, query, personnelNo))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NewNotFoundError("Kein Mitarbeiter mit Personalnummer %s", personnelNo)
		}
		return nil, domain.NewStoreError("failed to get employee by personnel number", err)
	}
	return e, nil
}

// SearchByName returns all active employees whose display name contains
// the fragment, case-insensitively
func (r *PostgresEmployeeRepository) SearchByName(ctx context.Context, fragment string) ([]*domain.Employee, error) {
	fragment = strings.TrimSpace(fragment)
	if fragment == "" {
		return nil, nil
	}

	query := `
		SELECT ` + employeeColumns + `
		FROM employees
		WHERE display_name ILIKE '%' || $1 || '%' AND is_active = true
		ORDER BY display_name
	`

	rows, err := r.db.QueryContext(ctx, query, fragment)
	if err != nil {
		return nil, domain.NewStoreError("failed to search employees", err)
	}
	defer rows.Close()

	var employees []*domain.Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, domain.NewStoreError("failed to scan employee row", err)
		}
		employees = append(employees, e)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewStoreError("failed to read employee rows", err)
	}
	return employees, nil
}

// Upsert creates or updates an employee keyed on the personnel number.
// Used by the grid save path, which creates employees on first
// reference.
func (r *PostgresEmployeeRepository) Upsert(ctx context.Context, employee *domain.Employee) error {
	if employee.ID == "" {
		employee.ID = uuid.NewString()
	}
	now := time.Now()

	query := `
		INSERT INTO employees (id, personnel_no, display_name, qualification, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, true, $5, $5)
		ON CONFLICT (personnel_no) DO UPDATE SET
			display_name = EXCLUDED.display_name,
			qualification = EXCLUDED.qualification,
			is_active = true,
			updated_at = EXCLUDED.updated_at
		RETURNING id
	`

	err := r.db.QueryRowContext(ctx, query,
		employee.ID, employee.PersonnelNumber, employee.DisplayName,
		employee.Qualification, now,
	).Scan(&employee.ID)
	if err != nil {
		r.logger.Error("failed to upsert employee",
			slog.String("personnel_no", employee.PersonnelNumber),
			slog.String("error", err.Error()),
		)
		return domain.NewStoreError("failed to upsert employee", err)
	}
	return nil
}

// Deactivate soft-deletes an employee. Employees are never hard-deleted.
func (r *PostgresEmployeeRepository) Deactivate(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE employees SET is_active = false, updated_at = now() WHERE id = $1`, id)
	if err != nil {
		return domain.NewStoreError("failed to deactivate employee", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return domain.NewStoreError("failed to check rows affected", err)
	}
	if rows == 0 {
		return domain.NewNotFoundError("Mitarbeiter %s nicht gefunden", id)
	}
	return nil
}
