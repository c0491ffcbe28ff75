package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/yourorg/rosterpilot/internal/domain"
	"github.com/yourorg/rosterpilot/internal/observability/metrics"
	"github.com/yourorg/rosterpilot/internal/resolver"
)

// RosterService handles the grid-shaped bulk surface: saving a unit's
// full yearly plan, listing it, and rolling a year forward.
type RosterService struct {
	employees domain.EmployeeRepository
	roster    domain.RosterStore
	resolver  *resolver.Resolver
	logger    *slog.Logger
}

// NewRosterService creates a new roster service
func NewRosterService(employees domain.EmployeeRepository, roster domain.RosterStore, res *resolver.Resolver, logger *slog.Logger) *RosterService {
	if logger == nil {
		logger = slog.Default()
	}
	return &RosterService{
		employees: employees,
		roster:    roster,
		resolver:  res,
		logger:    logger,
	}
}

// GridRowInput is one employee row of an incoming grid save.
type GridRowInput struct {
	PersonnelNumber string      `json:"personalNumber"`
	DisplayName     string      `json:"name"`
	Qualification   string      `json:"qual"`
	Values          [12]float64 `json:"values"`
}

// SaveGridRequest is a unit's full yearly grid.
type SaveGridRequest struct {
	Unit        string         `json:"unit"`
	Year        int            `json:"year"`
	ServiceType string         `json:"serviceType"`
	Rows        []GridRowInput `json:"rows"`
	UpdatedBy   string         `json:"updatedBy"`
}

// SaveGridResponse reports the applied save plus any capacity
// warnings it produced.
type SaveGridResponse struct {
	Unit     string              `json:"unit"`
	Year     int                 `json:"year"`
	Saved    int                 `json:"saved"`
	Warnings []domain.FTEWarning `json:"warnings,omitempty"`
}

// SaveGrid upserts the employees of the grid, creates the plan if
// needed and writes every cell in one batch. Rows without a personnel
// number get a generated placeholder number.
func (s *RosterService) SaveGrid(ctx context.Context, req SaveGridRequest) (*SaveGridResponse, error) {
	unit, err := s.resolver.ResolveUnit(ctx, req.Unit)
	if err != nil {
		return nil, err
	}
	plan, err := s.roster.GetOrCreatePlan(ctx, unit.ID, req.Year)
	if err != nil {
		return nil, err
	}
	serviceType := req.ServiceType
	if serviceType == "" {
		serviceType = domain.DefaultServiceType
	}

	var writes []domain.MonthWrite
	var employeeIDs []string
	for _, row := range req.Rows {
		emp, err := s.upsertRowEmployee(ctx, row)
		if err != nil {
			return nil, err
		}
		employeeIDs = append(employeeIDs, emp.ID)
		for month := 1; month <= 12; month++ {
			writes = append(writes, domain.MonthWrite{
				PlanID:      plan.ID,
				EmployeeID:  emp.ID,
				Month:       month,
				ServiceType: serviceType,
				FTE:         domain.ClampFTE(row.Values[month-1]),
				UpdatedBy:   req.UpdatedBy,
			})
		}
	}

	if err := s.roster.UpsertMonths(ctx, writes); err != nil {
		return nil, fmt.Errorf("failed to save roster grid: %w", err)
	}

	warnings, err := s.gridWarnings(ctx, unit.SiteCode, req.Year, employeeIDs)
	if err != nil {
		s.logger.Warn("fte warning check failed", "unit", unit.Code, "year", req.Year, "error", err)
		warnings = nil
	}

	return &SaveGridResponse{
		Unit:     unit.Code,
		Year:     req.Year,
		Saved:    len(req.Rows),
		Warnings: warnings,
	}, nil
}

// upsertRowEmployee finds the row's employee by personnel number or
// creates it. An empty number gets a placeholder one so the row can be
// planned before hiring is final.
func (s *RosterService) upsertRowEmployee(ctx context.Context, row GridRowInput) (*domain.Employee, error) {
	pnr := strings.TrimSpace(row.PersonnelNumber)
	if pnr == "" {
		pnr = domain.PlaceholderPrefix + uuid.NewString()[:8]
	}
	employee := &domain.Employee{
		PersonnelNumber: pnr,
		DisplayName:     strings.TrimSpace(row.DisplayName),
		Qualification:   row.Qualification,
		IsActive:        true,
	}
	if employee.DisplayName == "" {
		return nil, domain.NewValidationError("Zeile ohne Namen kann nicht gespeichert werden")
	}
	if err := s.employees.Upsert(ctx, employee); err != nil {
		return nil, fmt.Errorf("failed to upsert employee %s: %w", pnr, err)
	}
	return employee, nil
}

// ListGrid returns the unit's yearly grid, zero-filled for months
// without entries. A missing plan returns an empty grid, not an error.
func (s *RosterService) ListGrid(ctx context.Context, unitCode string, year int, serviceType string) ([]*domain.GridRow, error) {
	unit, err := s.resolver.ResolveUnit(ctx, unitCode)
	if err != nil {
		return nil, err
	}
	if serviceType == "" {
		serviceType = domain.DefaultServiceType
	}
	rows, err := s.roster.MonthlyGrid(ctx, unit.ID, year, serviceType)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []*domain.GridRow{}
	}
	return rows, nil
}

// RolloverRequest copies one unit's plan values into the next year for
// an explicit employee set.
type RolloverRequest struct {
	Unit        string              `json:"unit"`
	FromYear    int                 `json:"fromYear"`
	ToYear      int                 `json:"toYear"`
	Mode        domain.RolloverMode `json:"mode"`
	EmployeeIDs []string            `json:"employeeIds"`
	UpdatedBy   string              `json:"updatedBy"`
}

// RolloverResponse reports how many cells each employee received.
type RolloverResponse struct {
	Unit        string         `json:"unit"`
	FromYear    int            `json:"fromYear"`
	ToYear      int            `json:"toYear"`
	CopiedCells int            `json:"copiedCells"`
	PerEmployee map[string]int `json:"perEmployee"`
}

// Rollover copies source-year values into the target year. Fill mode
// keeps existing target values, overwrite mode replaces them.
func (s *RosterService) Rollover(ctx context.Context, req RolloverRequest) (*RolloverResponse, error) {
	if req.FromYear >= req.ToYear {
		return nil, domain.NewValidationError("Quelljahr %d muss vor Zieljahr %d liegen", req.FromYear, req.ToYear)
	}
	if req.Mode != domain.RolloverFill && req.Mode != domain.RolloverOverwrite {
		return nil, domain.NewValidationError("Unbekannter Modus %q", req.Mode)
	}
	if len(req.EmployeeIDs) == 0 {
		return nil, domain.NewValidationError("Keine Mitarbeiter fuer die Uebernahme angegeben")
	}

	unit, err := s.resolver.ResolveUnit(ctx, req.Unit)
	if err != nil {
		return nil, err
	}
	sourcePlan, err := s.roster.GetPlan(ctx, unit.ID, req.FromYear)
	if err != nil {
		return nil, err
	}
	if sourcePlan == nil {
		return nil, domain.NewNotFoundError("Kein Plan %d fuer %s vorhanden", req.FromYear, unit.Code)
	}
	targetPlan, err := s.roster.GetOrCreatePlan(ctx, unit.ID, req.ToYear)
	if err != nil {
		return nil, err
	}

	perEmployee := make(map[string]int, len(req.EmployeeIDs))
	var writes []domain.MonthWrite
	for _, employeeID := range req.EmployeeIDs {
		source, err := s.roster.MonthlyValues(ctx, sourcePlan.ID, employeeID)
		if err != nil {
			return nil, err
		}
		target, err := s.roster.MonthlyValues(ctx, targetPlan.ID, employeeID)
		if err != nil {
			return nil, err
		}
		planned := domain.PlanRollover(source, target, req.Mode)
		perEmployee[employeeID] = len(planned)
		for _, cell := range planned {
			writes = append(writes, domain.MonthWrite{
				PlanID:      targetPlan.ID,
				EmployeeID:  employeeID,
				Month:       cell.Month,
				ServiceType: cell.ServiceType,
				FTE:         cell.FTE,
				UpdatedBy:   req.UpdatedBy,
			})
		}
	}

	if len(writes) > 0 {
		if err := s.roster.UpsertMonths(ctx, writes); err != nil {
			return nil, fmt.Errorf("failed to roll plan over: %w", err)
		}
	}

	return &RolloverResponse{
		Unit:        unit.Code,
		FromYear:    req.FromYear,
		ToYear:      req.ToYear,
		CopiedCells: len(writes),
		PerEmployee: perEmployee,
	}, nil
}

func (s *RosterService) gridWarnings(ctx context.Context, site string, year int, employeeIDs []string) ([]domain.FTEWarning, error) {
	if len(employeeIDs) == 0 {
		return nil, nil
	}
	sums, err := s.roster.SumsByMonth(ctx, site, year, employeeIDs)
	if err != nil {
		return nil, err
	}
	warnings := domain.WarningsFromSums(sums, year)
	if len(warnings) > 0 {
		metrics.AddFTEWarnings(len(warnings))
	}
	return warnings, nil
}
