package domain

import (
	"context"
	"strings"
	"time"
)

// PlaceholderPrefix marks a personnel number as a planning placeholder
// ("Zusatz" row) rather than a real person.
const PlaceholderPrefix = "EX-"

// Employee represents a member of staff in the roster.
type Employee struct {
	ID              string // UUID
	PersonnelNumber string // Unique; "EX-" prefix marks a placeholder row
	DisplayName     string // "Vorname Nachname"
	Qualification   string
	IsActive        bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// IsPlaceholder reports whether this row is a planning placeholder
// rather than a real person.
func (e *Employee) IsPlaceholder() bool {
	return strings.HasPrefix(e.PersonnelNumber, PlaceholderPrefix)
}

// OrgUnit represents a department or site section. Reference data:
// created and maintained outside this service, looked up by code.
type OrgUnit struct {
	ID       string // UUID
	Code     string // Stable unique key used in all lookups
	SiteCode string
	Name     string
	UnitType string
	IsActive bool
}

// EmployeeRepository defines data access for employees.
type EmployeeRepository interface {
	GetByID(ctx context.Context, id string) (*Employee, error)
	GetByPersonnelNumber(ctx context.Context, personnelNo string) (*Employee, error)
	// SearchByName returns all active employees whose display name
	// contains the given fragment, case-insensitively.
	SearchByName(ctx context.Context, fragment string) ([]*Employee, error)
	Upsert(ctx context.Context, employee *Employee) error
	Deactivate(ctx context.Context, id string) error
}

// OrgUnitRepository defines data access for org units.
type OrgUnitRepository interface {
	GetByCode(ctx context.Context, code string) (*OrgUnit, error)
	List(ctx context.Context) ([]*OrgUnit, error)
}
