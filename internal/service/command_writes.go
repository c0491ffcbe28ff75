package service

import (
	"context"
	"fmt"

	"github.com/yourorg/rosterpilot/internal/domain"
	"github.com/yourorg/rosterpilot/internal/observability/metrics"
)

// AdjustResult reports one applied capacity change.
type AdjustResult struct {
	Employee    string   `json:"employee"`
	Unit        string   `json:"unit"`
	Year        int      `json:"year"`
	Month       int      `json:"month"`
	OldValue    float64  `json:"old_value"`
	NewValue    float64  `json:"new_value"`
	Warnings    []string `json:"warnings,omitempty"`
	Description string   `json:"description"`
}

// TransferResult reports one applied unit transfer.
type TransferResult struct {
	Employee    string `json:"employee"`
	FromUnit    string `json:"from_unit"`
	ToUnit      string `json:"to_unit"`
	Year        int    `json:"year"`
	MovedMonths int    `json:"moved_months"`
	Description string `json:"description"`
}

func (s *CommandService) executeWrite(ctx context.Context, execCtx domain.ExecutionContext, cmd WriteCommand) (any, error) {
	switch c := cmd.(type) {
	case AdjustCommand:
		return s.executeAdjust(ctx, execCtx, c)
	case TransferCommand:
		return s.executeTransfer(ctx, execCtx, c)
	default:
		return nil, domain.NewValidationError("Befehl nicht verstanden")
	}
}

func (s *CommandService) executeAdjust(ctx context.Context, execCtx domain.ExecutionContext, cmd AdjustCommand) (any, error) {
	unit, err := s.resolver.ResolveUnit(ctx, cmd.Department)
	if err != nil {
		return nil, err
	}
	emp, err := s.resolver.ResolveEmployee(ctx, cmd.Employee)
	if err != nil {
		return nil, err
	}
	plan, err := s.roster.GetOrCreatePlan(ctx, unit.ID, cmd.Year)
	if err != nil {
		return nil, err
	}

	write := domain.MonthWrite{
		PlanID:      plan.ID,
		EmployeeID:  emp.ID,
		Month:       cmd.Month,
		ServiceType: cmd.ServiceType,
		UpdatedBy:   "assistant",
	}
	var oldValue, newValue float64
	if cmd.Relative {
		write.FTE = cmd.Delta
		oldValue, newValue, err = s.roster.AdjustMonth(ctx, write)
	} else {
		write.FTE = domain.ClampFTE(cmd.Target)
		oldValue, newValue, err = s.roster.SetMonth(ctx, write)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update roster entry: %w", err)
	}

	warnings, err := s.fteWarnings(ctx, emp.ID, cmd.Year, cmd.Month, execCtx.Site)
	if err != nil {
		// The write already landed; a failed warning check must not
		// undo or mask it.
		s.logger.Warn("fte warning check failed", "employee", emp.PersonnelNumber, "error", err)
		warnings = nil
	}

	return AdjustResult{
		Employee: emp.DisplayName,
		Unit:     unit.Code,
		Year:     cmd.Year,
		Month:    cmd.Month,
		OldValue: oldValue,
		NewValue: newValue,
		Warnings: warnings,
		Description: fmt.Sprintf("%s: %s %d auf %s VK gesetzt",
			emp.DisplayName, domain.MonthNames[cmd.Month-1], cmd.Year, formatFTE(newValue)),
	}, nil
}

func (s *CommandService) executeTransfer(ctx context.Context, execCtx domain.ExecutionContext, cmd TransferCommand) (any, error) {
	fromUnit, err := s.resolver.ResolveUnit(ctx, cmd.FromUnit)
	if err != nil {
		return nil, err
	}
	toUnit, err := s.resolver.ResolveUnit(ctx, cmd.ToUnit)
	if err != nil {
		return nil, err
	}
	emp, err := s.resolver.ResolveEmployee(ctx, cmd.Employee)
	if err != nil {
		return nil, err
	}

	sourcePlan, err := s.roster.GetPlan(ctx, fromUnit.ID, cmd.Year)
	if err != nil {
		return nil, err
	}
	if sourcePlan == nil {
		return nil, domain.NewNotFoundError("Kein Plan %d fuer %s vorhanden", cmd.Year, fromUnit.Code)
	}
	targetPlan, err := s.roster.GetOrCreatePlan(ctx, toUnit.ID, cmd.Year)
	if err != nil {
		return nil, err
	}

	moved, err := s.roster.TransferEntries(ctx, sourcePlan.ID, targetPlan.ID, emp.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to transfer roster entries: %w", err)
	}
	if moved == 0 {
		return nil, domain.NewNotFoundError("%s hat keine Eintraege im Plan %d von %s", emp.DisplayName, cmd.Year, fromUnit.Code)
	}

	return TransferResult{
		Employee:    emp.DisplayName,
		FromUnit:    fromUnit.Code,
		ToUnit:      toUnit.Code,
		Year:        cmd.Year,
		MovedMonths: moved,
		Description: fmt.Sprintf("%s: Planjahr %d von %s nach %s versetzt", emp.DisplayName, cmd.Year, fromUnit.Code, toUnit.Code),
	}, nil
}

// fteWarnings checks the employee's total capacity in the touched month
// across all units of the site.
func (s *CommandService) fteWarnings(ctx context.Context, employeeID string, year, month int, site string) ([]string, error) {
	sums, err := s.roster.SumsByMonth(ctx, site, year, []string{employeeID})
	if err != nil {
		return nil, err
	}
	all := domain.WarningsFromSums(sums, year)
	var messages []string
	for _, w := range all {
		if w.Month == month {
			messages = append(messages, w.Message)
		}
	}
	if len(messages) > 0 {
		metrics.AddFTEWarnings(len(messages))
	}
	return messages, nil
}
