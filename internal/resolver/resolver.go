// Package resolver maps free-text employee references and department
// codes to canonical roster identities. It never guesses: anything
// ambiguous resolves to not-found.
package resolver

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/yourorg/rosterpilot/internal/domain"
)

// Ref is a free-text employee reference as the translator extracted it.
type Ref struct {
	Name            string
	PersonnelNumber string
}

// Label returns whichever part of the reference is printable.
func (r Ref) Label() string {
	if r.Name != "" {
		return r.Name
	}
	return r.PersonnelNumber
}

// IsEmpty reports whether the reference carries nothing to resolve.
func (r Ref) IsEmpty() bool {
	return strings.TrimSpace(r.Name) == "" && strings.TrimSpace(r.PersonnelNumber) == ""
}

// Resolver resolves employees and org units.
type Resolver struct {
	employees domain.EmployeeRepository
	units     domain.OrgUnitRepository
	logger    *slog.Logger
}

// New creates a new resolver
func New(employees domain.EmployeeRepository, units domain.OrgUnitRepository, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{employees: employees, units: units, logger: logger}
}

// ResolveEmployee returns at most one employee. An exact personnel
// number wins; otherwise the name must match exactly one active
// employee as a case-insensitive substring. Zero or several candidates
// yield not-found.
func (r *Resolver) ResolveEmployee(ctx context.Context, ref Ref) (*domain.Employee, error) {
	if pnr := strings.TrimSpace(ref.PersonnelNumber); pnr != "" {
		emp, err := r.employees.GetByPersonnelNumber(ctx, pnr)
		if err == nil {
			return emp, nil
		}
		if !isNotFound(err) {
			return nil, err
		}
	}

	name := strings.TrimSpace(ref.Name)
	if name == "" {
		return nil, domain.NewNotFoundError("Kein Mitarbeiter angegeben")
	}

	matches, err := r.employees.SearchByName(ctx, name)
	if err != nil {
		return nil, err
	}
	switch len(matches) {
	case 0:
		return nil, domain.NewNotFoundError("Kein Mitarbeiter gefunden fuer %q", name)
	case 1:
		return matches[0], nil
	default:
		r.logger.Debug("ambiguous employee reference",
			slog.String("name", name),
			slog.Int("matches", len(matches)),
		)
		return nil, domain.NewNotFoundError("Name %q ist nicht eindeutig (%d Treffer)", name, len(matches))
	}
}

// FindEmployees returns all candidates for an existence check. Absence
// is an empty slice, not an error.
func (r *Resolver) FindEmployees(ctx context.Context, ref Ref) ([]*domain.Employee, error) {
	if pnr := strings.TrimSpace(ref.PersonnelNumber); pnr != "" {
		emp, err := r.employees.GetByPersonnelNumber(ctx, pnr)
		if err == nil {
			return []*domain.Employee{emp}, nil
		}
		if !isNotFound(err) {
			return nil, err
		}
	}
	name := strings.TrimSpace(ref.Name)
	if name == "" {
		return nil, nil
	}
	return r.employees.SearchByName(ctx, name)
}

// ResolveUnit resolves a department by its stable code, exact match
// only. Unknown codes fail closed.
func (r *Resolver) ResolveUnit(ctx context.Context, code string) (*domain.OrgUnit, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, domain.NewNotFoundError("Keine Organisationseinheit angegeben")
	}
	return r.units.GetByCode(ctx, code)
}

func isNotFound(err error) bool {
	var e *domain.Error
	return errors.As(err, &e) && e.Category == domain.ErrNotFound
}
