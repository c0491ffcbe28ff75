package domain

import (
	"context"
	"fmt"
	"math"
	"time"
)

// DefaultServiceType is the regular-duty service type code. Entries
// written without an explicit Dienstart land here.
const DefaultServiceType = "01"

// FTEWarningThreshold is the monthly full-time-equivalent sum above
// which an employee counts as over-committed. Exceeding it is allowed
// but flagged.
const FTEWarningThreshold = 1.0

// RosterPlan anchors the monthly entries of one org unit for one
// calendar year. Created lazily on first write.
type RosterPlan struct {
	ID        string // UUID
	OrgUnitID string
	Year      int
	Status    string // DRAFT, RELEASED
	CreatedAt time.Time
}

// MonthlyEntry is the atomic roster fact. The tuple
// (plan, employee, month, service type) is unique; writes are upserts.
type MonthlyEntry struct {
	ID          string // UUID
	PlanID      string
	EmployeeID  string
	Month       int // 1..12
	ServiceType string
	FTE         float64 // >= 0
	UpdatedAt   time.Time
	UpdatedBy   string
}

// MonthWrite describes one cell write. FTE is clamped non-negative by
// the store.
type MonthWrite struct {
	PlanID      string
	EmployeeID  string
	Month       int
	ServiceType string
	FTE         float64
	UpdatedBy   string
}

// GridRow is one employee's 12-month FTE vector within a plan.
// Missing months are zero-filled.
type GridRow struct {
	EmployeeID      string     `json:"employeeId"`
	PersonnelNumber string     `json:"personalNumber"`
	DisplayName     string     `json:"name"`
	Qualification   string     `json:"qual"`
	Placeholder     bool       `json:"placeholder"`
	Values          [12]float64 `json:"values"`
}

// MonthlySum is an employee's summed FTE for one month across all
// plans and service types of a year.
type MonthlySum struct {
	EmployeeID string
	Month      int
	TotalFTE   float64
}

// FTEWarning flags an over-committed (employee, month) cell.
type FTEWarning struct {
	EmployeeID string  `json:"employeeId"`
	Year       int     `json:"year"`
	Month      int     `json:"month"`
	TotalFTE   float64 `json:"totalFte"`
	Message    string  `json:"message"`
}

// RolloverMode controls how existing target-year values are treated.
type RolloverMode string

const (
	// RolloverFill writes only months with no existing target value.
	RolloverFill RolloverMode = "fill"
	// RolloverOverwrite always replaces the target value.
	RolloverOverwrite RolloverMode = "overwrite"
)

// MonthCell keys one (month, service type) cell value.
type MonthCell struct {
	Month       int
	ServiceType string
	FTE         float64
}

// RosterStore defines data access for plans and monthly entries.
type RosterStore interface {
	// GetPlan returns the plan for (org unit, year), or nil if none
	// exists yet.
	GetPlan(ctx context.Context, orgUnitID string, year int) (*RosterPlan, error)
	// GetOrCreatePlan creates the plan lazily on first write.
	GetOrCreatePlan(ctx context.Context, orgUnitID string, year int) (*RosterPlan, error)
	// MonthlyGrid returns one zero-filled 12-month row per employee
	// carrying entries in the plan for the given service type.
	MonthlyGrid(ctx context.Context, orgUnitID string, year int, serviceType string) ([]*GridRow, error)
	// UpsertMonths applies all writes as one atomic batch.
	UpsertMonths(ctx context.Context, writes []MonthWrite) error
	// SetMonth replaces a single cell value and returns the previous
	// and new stored values.
	SetMonth(ctx context.Context, w MonthWrite) (oldFTE, newFTE float64, err error)
	// AdjustMonth adds w.FTE (may be negative) to the stored value in
	// a single atomic statement, clamping at zero.
	AdjustMonth(ctx context.Context, w MonthWrite) (oldFTE, newFTE float64, err error)
	// MonthlyValues returns an employee's cell values within a plan.
	MonthlyValues(ctx context.Context, planID, employeeID string) ([]MonthCell, error)
	// TransferEntries moves all of an employee's entries from one plan
	// to another inside one transaction. Returns the number moved.
	TransferEntries(ctx context.Context, fromPlanID, toPlanID, employeeID string) (int, error)
	// SumsByMonth returns per-(employee, month) FTE sums across all
	// plans and service types of the year, scoped to a site.
	SumsByMonth(ctx context.Context, siteCode string, year int, employeeIDs []string) ([]MonthlySum, error)
	// EmployeesInPlan lists employees carrying entries in the plan.
	EmployeesInPlan(ctx context.Context, planID string) ([]*Employee, error)
	// UnitsForEmployee lists org units where the employee has entries
	// in the given year.
	UnitsForEmployee(ctx context.Context, employeeID string, year int) ([]*OrgUnit, error)
	// YearVector returns the employee's summed monthly FTE for a year.
	YearVector(ctx context.Context, employeeID string, year int, siteCode string) ([12]float64, error)
}

// ClampFTE floors negative or non-finite FTE inputs to zero. Leniency
// policy: bad inputs are corrected, never rejected.
func ClampFTE(fte float64) float64 {
	if math.IsNaN(fte) || math.IsInf(fte, 0) || fte < 0 {
		return 0
	}
	return fte
}

// WarningsFromSums filters monthly sums down to over-committed cells.
// Exactly 1.0 is fine; anything above is flagged.
func WarningsFromSums(sums []MonthlySum, year int) []FTEWarning {
	var warnings []FTEWarning
	for _, s := range sums {
		if s.TotalFTE <= FTEWarningThreshold {
			continue
		}
		total := math.Round(s.TotalFTE*10000) / 10000
		warnings = append(warnings, FTEWarning{
			EmployeeID: s.EmployeeID,
			Year:       year,
			Month:      s.Month,
			TotalFTE:   total,
			Message:    fmt.Sprintf("Warnung: VK-Summe > 1,0 (ist %v)", total),
		})
	}
	return warnings
}

// PlanRollover computes the cell writes for copying source-year values
// forward. In fill mode cells already present in the target year are
// skipped; in overwrite mode they are replaced.
func PlanRollover(source, target []MonthCell, mode RolloverMode) []MonthCell {
	type key struct {
		month       int
		serviceType string
	}
	existing := make(map[key]bool, len(target))
	for _, c := range target {
		existing[key{c.Month, c.ServiceType}] = true
	}
	var writes []MonthCell
	for _, c := range source {
		if mode == RolloverFill && existing[key{c.Month, c.ServiceType}] {
			continue
		}
		writes = append(writes, c)
	}
	return writes
}
