package repository

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/yourorg/rosterpilot/internal/domain"
)

// PostgresRosterStore implements domain.RosterStore. The entry table is
// keyed on (plan, employee, month, service type); all writes are
// idempotent upserts on that key, never blind inserts.
type PostgresRosterStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresRosterStore creates a new roster store
func NewPostgresRosterStore(db *sql.DB, logger *slog.Logger) *PostgresRosterStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresRosterStore{db: db, logger: logger}
}

// GetPlan returns the plan for (org unit, year), or nil if none exists
func (r *PostgresRosterStore) GetPlan(ctx context.Context, orgUnitID string, year int) (*domain.RosterPlan, error) {
	query := `
		SELECT id, org_unit_id, year, status, created_at
		FROM roster_plans
		WHERE org_unit_id = $1 AND year = $2
	`

	p := &domain.RosterPlan{}
	err := r.db.QueryRowContext(ctx, query, orgUnitID, year).Scan(
		&p.ID, &p.OrgUnitID, &p.Year, &p.Status, &p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, domain.NewStoreError("failed to get roster plan", err)
	}
	return p, nil
}

// GetOrCreatePlan creates the (org unit, year) plan lazily on first write.
// The no-op DO UPDATE makes RETURNING yield the row on conflict as well.
func (r *PostgresRosterStore) GetOrCreatePlan(ctx context.Context, orgUnitID string, year int) (*domain.RosterPlan, error) {
	query := `
		INSERT INTO roster_plans (id, org_unit_id, year, status, created_at)
		VALUES ($1, $2, $3, 'DRAFT', now())
		ON CONFLICT (org_unit_id, year) DO UPDATE SET year = EXCLUDED.year
		RETURNING id, org_unit_id, year, status, created_at
	`

	p := &domain.RosterPlan{}
	err := r.db.QueryRowContext(ctx, query, uuid.NewString(), orgUnitID, year).Scan(
		&p.ID, &p.OrgUnitID, &p.Year, &p.Status, &p.CreatedAt,
	)
	if err != nil {
		return nil, domain.NewStoreError("failed to get or create roster plan", err)
	}
	return p, nil
}

// MonthlyGrid returns one zero-filled 12-month vector per employee
// carrying entries in the plan for the given service type
func (r *PostgresRosterStore) MonthlyGrid(ctx context.Context, orgUnitID string, year int, serviceType string) ([]*domain.GridRow, error) {
	query := `
		SELECT e.id, e.personnel_no, e.display_name, e.qualification, re.month, re.fte
		FROM roster_entries re
		JOIN roster_plans p ON p.id = re.plan_id
		JOIN employees e ON e.id = re.employee_id
		WHERE p.org_unit_id = $1 AND p.year = $2 AND re.service_type = $3
		ORDER BY e.display_name, re.month
	`

	rows, err := r.db.QueryContext(ctx, query, orgUnitID, year, serviceType)
	if err != nil {
		return nil, domain.NewStoreError("failed to load monthly grid", err)
	}
	defer rows.Close()

	byEmployee := map[string]*domain.GridRow{}
	var order []string
	for rows.Next() {
		var (
			id, personnelNo, name, qual string
			month                       int
			fte                         float64
		)
		if err := rows.Scan(&id, &personnelNo, &name, &qual, &month, &fte); err != nil {
			return nil, domain.NewStoreError("failed to scan grid row", err)
		}
		row, ok := byEmployee[id]
		if !ok {
			row = &domain.GridRow{
				EmployeeID:      id,
				PersonnelNumber: personnelNo,
				DisplayName:     name,
				Qualification:   qual,
				Placeholder:     (&domain.Employee{PersonnelNumber: personnelNo}).IsPlaceholder(),
			}
			byEmployee[id] = row
			order = append(order, id)
		}
		if month >= 1 && month <= 12 {
			row.Values[month-1] += fte
		}
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewStoreError("failed to read grid rows", err)
	}

	grid := make([]*domain.GridRow, 0, len(order))
	for _, id := range order {
		grid = append(grid, byEmployee[id])
	}
	return grid, nil
}

const upsertEntrySQL = `
	INSERT INTO roster_entries (id, plan_id, employee_id, month, service_type, fte, updated_at, updated_by)
	VALUES ($1, $2, $3, $4, $5, $6, now(), $7)
	ON CONFLICT (plan_id, employee_id, month, service_type) DO UPDATE SET
		fte = EXCLUDED.fte,
		updated_at = now(),
		updated_by = EXCLUDED.updated_by
`

// UpsertMonths applies all writes in one transaction so a multi-row
// command is never partially applied
func (r *PostgresRosterStore) UpsertMonths(ctx context.Context, writes []domain.MonthWrite) error {
	if len(writes) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.NewStoreError("failed to begin batch", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, upsertEntrySQL)
	if err != nil {
		return domain.NewStoreError("failed to prepare upsert", err)
	}
	defer stmt.Close()

	for _, w := range writes {
		fte := domain.ClampFTE(w.FTE)
		if _, err := stmt.ExecContext(ctx, uuid.NewString(), w.PlanID, w.EmployeeID,
			w.Month, w.ServiceType, fte, nullable(w.UpdatedBy)); err != nil {
			return domain.NewStoreError("batch write failed, rolled back", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return domain.NewStoreError("failed to commit batch", err)
	}
	return nil
}

// SetMonth replaces a single cell value. The previous value is read
// first for reporting; the write itself is one upsert.
func (r *PostgresRosterStore) SetMonth(ctx context.Context, w domain.MonthWrite) (float64, float64, error) {
	oldFTE, err := r.cellValue(ctx, w)
	if err != nil {
		return 0, 0, err
	}

	fte := domain.ClampFTE(w.FTE)
	query := upsertEntrySQL + ` RETURNING fte`

	var newFTE float64
	err = r.db.QueryRowContext(ctx, query, uuid.NewString(), w.PlanID, w.EmployeeID,
		w.Month, w.ServiceType, fte, nullable(w.UpdatedBy)).Scan(&newFTE)
	if err != nil {
		return 0, 0, domain.NewStoreError("failed to set month value", err)
	}
	return oldFTE, newFTE, nil
}

// AdjustMonth adds the delta to the stored value inside a single
// statement, so concurrent adjustments to the same cell cannot lose an
// update. The result is clamped at zero.
func (r *PostgresRosterStore) AdjustMonth(ctx context.Context, w domain.MonthWrite) (float64, float64, error) {
	// Prior value is read only for the caller's summary; the adjustment
	// itself does not depend on it.
	oldFTE, err := r.cellValue(ctx, w)
	if err != nil {
		return 0, 0, err
	}

	query := `
		INSERT INTO roster_entries (id, plan_id, employee_id, month, service_type, fte, updated_at, updated_by)
		VALUES ($1, $2, $3, $4, $5, GREATEST(0, $6::numeric), now(), $7)
		ON CONFLICT (plan_id, employee_id, month, service_type) DO UPDATE SET
			fte = GREATEST(0, roster_entries.fte + $6),
			updated_at = now(),
			updated_by = EXCLUDED.updated_by
		RETURNING fte
	`

	var newFTE float64
	err = r.db.QueryRowContext(ctx, query, uuid.NewString(), w.PlanID, w.EmployeeID,
		w.Month, w.ServiceType, w.FTE, nullable(w.UpdatedBy)).Scan(&newFTE)
	if err != nil {
		return 0, 0, domain.NewStoreError("failed to adjust month value", err)
	}
	return oldFTE, newFTE, nil
}

func (r *PostgresRosterStore) cellValue(ctx context.Context, w domain.MonthWrite) (float64, error) {
	var fte float64
	err := r.db.QueryRowContext(ctx, `
		SELECT fte FROM roster_entries
		WHERE plan_id = $1 AND employee_id = $2 AND month = $3 AND service_type = $4
	`, w.PlanID, w.EmployeeID, w.Month, w.ServiceType).Scan(&fte)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, domain.NewStoreError("failed to read month value", err)
	}
	return fte, nil
}

// MonthlyValues returns an employee's cell values within a plan
func (r *PostgresRosterStore) MonthlyValues(ctx context.Context, planID, employeeID string) ([]domain.MonthCell, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT month, service_type, fte
		FROM roster_entries
		WHERE plan_id = $1 AND employee_id = $2
		ORDER BY month, service_type
	`, planID, employeeID)
	if err != nil {
		return nil, domain.NewStoreError("failed to load monthly values", err)
	}
	defer rows.Close()

	var cells []domain.MonthCell
	for rows.Next() {
		var c domain.MonthCell
		if err := rows.Scan(&c.Month, &c.ServiceType, &c.FTE); err != nil {
			return nil, domain.NewStoreError("failed to scan monthly value", err)
		}
		cells = append(cells, c)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewStoreError("failed to read monthly values", err)
	}
	return cells, nil
}

// TransferEntries moves all of an employee's entries from one plan to
// another inside one transaction. Existing target cells are replaced.
// Source and target must be distinct plans: copying into the source plan
// would conflict with the rows being copied and the cleanup delete would
// then drop them.
func (r *PostgresRosterStore) TransferEntries(ctx context.Context, fromPlanID, toPlanID, employeeID string) (int, error) {
	if fromPlanID == toPlanID {
		return 0, domain.NewValidationError("Quell- und Zielplan sind identisch")
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, domain.NewStoreError("failed to begin transfer", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		INSERT INTO roster_entries (id, plan_id, employee_id, month, service_type, fte, updated_at, updated_by)
		SELECT gen_random_uuid(), $2, employee_id, month, service_type, fte, now(), updated_by
		FROM roster_entries
		WHERE plan_id = $1 AND employee_id = $3
		ON CONFLICT (plan_id, employee_id, month, service_type) DO UPDATE SET
			fte = EXCLUDED.fte,
			updated_at = now()
	`, fromPlanID, toPlanID, employeeID)
	if err != nil {
		return 0, domain.NewStoreError("failed to copy entries to target plan", err)
	}
	moved, err := result.RowsAffected()
	if err != nil {
		return 0, domain.NewStoreError("failed to count transferred entries", err)
	}

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM roster_entries WHERE plan_id = $1 AND employee_id = $2
	`, fromPlanID, employeeID); err != nil {
		return 0, domain.NewStoreError("failed to clear source plan entries", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, domain.NewStoreError("failed to commit transfer", err)
	}
	return int(moved), nil
}

// SumsByMonth aggregates FTE per (employee, month) across all plans and
// service types of the year, scoped to a site
func (r *PostgresRosterStore) SumsByMonth(ctx context.Context, siteCode string, year int, employeeIDs []string) ([]domain.MonthlySum, error) {
	if len(employeeIDs) == 0 {
		return nil, nil
	}

	query := `
		SELECT re.employee_id, re.month, SUM(re.fte)
		FROM roster_entries re
		JOIN roster_plans p ON p.id = re.plan_id
		JOIN org_units ou ON ou.id = p.org_unit_id
		WHERE p.year = $1
		  AND re.employee_id = ANY($2)
		  AND ($3 = '' OR ou.site_code = $3)
		GROUP BY re.employee_id, re.month
		ORDER BY re.employee_id, re.month
	`

	rows, err := r.db.QueryContext(ctx, query, year, pq.Array(employeeIDs), siteCode)
	if err != nil {
		return nil, domain.NewStoreError("failed to aggregate monthly sums", err)
	}
	defer rows.Close()

	var sums []domain.MonthlySum
	for rows.Next() {
		var s domain.MonthlySum
		if err := rows.Scan(&s.EmployeeID, &s.Month, &s.TotalFTE); err != nil {
			return nil, domain.NewStoreError("failed to scan monthly sum", err)
		}
		sums = append(sums, s)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewStoreError("failed to read monthly sums", err)
	}
	return sums, nil
}

// EmployeesInPlan lists employees carrying entries in the plan
func (r *PostgresRosterStore) EmployeesInPlan(ctx context.Context, planID string) ([]*domain.Employee, error) {
	query := `
		SELECT DISTINCT ` + prefixedEmployeeColumns("e") + `
		FROM roster_entries re
		JOIN employees e ON e.id = re.employee_id
		WHERE re.plan_id = $1
		ORDER BY e.display_name
	`

	rows, err := r.db.QueryContext(ctx, query, planID)
	if err != nil {
		return nil, domain.NewStoreError("failed to list plan employees", err)
	}
	defer rows.Close()

	var employees []*domain.Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, domain.NewStoreError("failed to scan plan employee", err)
		}
		employees = append(employees, e)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewStoreError("failed to read plan employees", err)
	}
	return employees, nil
}

// UnitsForEmployee lists org units where the employee has entries in
// the given year
func (r *PostgresRosterStore) UnitsForEmployee(ctx context.Context, employeeID string, year int) ([]*domain.OrgUnit, error) {
	query := `
		SELECT DISTINCT ou.id, ou.code, ou.site_code, ou.name, ou.unit_type, ou.is_active
		FROM roster_entries re
		JOIN roster_plans p ON p.id = re.plan_id
		JOIN org_units ou ON ou.id = p.org_unit_id
		WHERE re.employee_id = $1 AND p.year = $2
		ORDER BY ou.code
	`

	rows, err := r.db.QueryContext(ctx, query, employeeID, year)
	if err != nil {
		return nil, domain.NewStoreError("failed to list employee units", err)
	}
	defer rows.Close()

	var units []*domain.OrgUnit
	for rows.Next() {
		u := &domain.OrgUnit{}
		if err := rows.Scan(&u.ID, &u.Code, &u.SiteCode, &u.Name, &u.UnitType, &u.IsActive); err != nil {
			return nil, domain.NewStoreError("failed to scan employee unit", err)
		}
		units = append(units, u)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewStoreError("failed to read employee units", err)
	}
	return units, nil
}

// YearVector returns the employee's summed monthly FTE for a year,
// zero-filled for months without entries
func (r *PostgresRosterStore) YearVector(ctx context.Context, employeeID string, year int, siteCode string) ([12]float64, error) {
	var vector [12]float64

	sums, err := r.SumsByMonth(ctx, siteCode, year, []string{employeeID})
	if err != nil {
		return vector, err
	}
	for _, s := range sums {
		if s.Month >= 1 && s.Month <= 12 {
			vector[s.Month-1] = s.TotalFTE
		}
	}
	return vector, nil
}

func prefixedEmployeeColumns(alias string) string {
	return alias + `.id, ` + alias + `.personnel_no, ` + alias + `.display_name, ` +
		alias + `.qualification, ` + alias + `.is_active, ` + alias + `.created_at, ` + alias + `.updated_at`
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
