package service

import (
	"context"
	"fmt"

	"github.com/yourorg/rosterpilot/internal/domain"
	"github.com/yourorg/rosterpilot/internal/observability/metrics"
)

const helpText = "Ich verstehe Anweisungen zum Personalplan, zum Beispiel: " +
	"\"Reduziere Anna Schmidt im März 2026 um 0,5 VK\", " +
	"\"Setze PNR 4711 im Juli auf 0,75 VK\", " +
	"\"Versetze Max Weber von 2100 nach 2200\", " +
	"\"In welcher Abteilung ist Frau Schmidt?\", " +
	"\"Wer arbeitet in Abteilung 2100?\" oder " +
	"\"Wie viel VK hat Anna Schmidt 2026?\"."

// executeRead runs a read intent immediately and audits the outcome.
func (s *CommandService) executeRead(ctx context.Context, req QueryRequest, parsed *domain.ParsedCommand) (*QueryResponse, error) {
	query, err := s.dispatcher.ValidateRead(parsed, req.Context)
	if err != nil {
		metrics.ObserveCommand(string(parsed.Intent), "invalid")
		return nil, err
	}

	data, err := s.runRead(ctx, req.Context, query)

	entry := domain.AuditEntry{
		Site:    req.Context.Site,
		Command: req.Command,
		Action:  string(parsed.Intent),
	}
	if err != nil {
		entry.Status = domain.AuditStatusError
		s.audit.RecordResult(ctx, entry, map[string]any{"error": domain.MessageOf(err)})
		metrics.ObserveCommand(string(parsed.Intent), "error")
		return nil, err
	}
	entry.Status = domain.AuditStatusOK
	s.audit.RecordResult(ctx, entry, data)
	metrics.ObserveCommand(string(parsed.Intent), "ok")

	return &QueryResponse{
		Type:   ResponseResult,
		State:  StateReadExecuted,
		Intent: parsed.Intent,
		Data:   data,
		Parsed: parsed,
	}, nil
}

func (s *CommandService) runRead(ctx context.Context, execCtx domain.ExecutionContext, query ReadQuery) (any, error) {
	switch q := query.(type) {
	case ExistsQuery:
		return s.readExists(ctx, q)
	case UnitQuery:
		return s.readUnit(ctx, q)
	case ListUnitQuery:
		return s.readUnitEmployees(ctx, q)
	case YearFTEQuery:
		return s.readYearFTE(ctx, execCtx, q)
	case HelpQuery:
		return map[string]any{"message": helpText}, nil
	default:
		return nil, domain.NewValidationError("Befehl nicht verstanden")
	}
}

// readExists answers yes or no; ambiguity is not an error here, every
// match is listed.
func (s *CommandService) readExists(ctx context.Context, q ExistsQuery) (any, error) {
	matches, err := s.resolver.FindEmployees(ctx, q.Employee)
	if err != nil {
		return nil, err
	}
	result := map[string]any{
		"exists": len(matches) > 0,
		"query":  q.Employee.Label(),
	}
	if len(matches) > 0 {
		names := make([]map[string]string, 0, len(matches))
		for _, m := range matches {
			names = append(names, map[string]string{
				"name":            m.DisplayName,
				"personal_number": m.PersonnelNumber,
			})
		}
		result["matches"] = names
	}
	return result, nil
}

// readUnit reports the units an employee is planned in. An employee
// without entries is a valid negative answer, not an error.
func (s *CommandService) readUnit(ctx context.Context, q UnitQuery) (any, error) {
	emp, err := s.resolver.ResolveEmployee(ctx, q.Employee)
	if err != nil {
		return nil, err
	}
	units, err := s.roster.UnitsForEmployee(ctx, emp.ID, q.Year)
	if err != nil {
		return nil, err
	}
	if len(units) == 0 {
		return map[string]any{
			"employee": emp.DisplayName,
			"year":     q.Year,
			"found":    false,
			"message":  fmt.Sprintf("%s ist %d in keiner Abteilung verplant", emp.DisplayName, q.Year),
		}, nil
	}
	codes := make([]map[string]string, 0, len(units))
	for _, u := range units {
		codes = append(codes, map[string]string{"code": u.Code, "name": u.Name})
	}
	return map[string]any{
		"employee": emp.DisplayName,
		"year":     q.Year,
		"found":    true,
		"units":    codes,
	}, nil
}

func (s *CommandService) readUnitEmployees(ctx context.Context, q ListUnitQuery) (any, error) {
	unit, err := s.resolver.ResolveUnit(ctx, q.Unit)
	if err != nil {
		return nil, err
	}
	plan, err := s.roster.GetPlan(ctx, unit.ID, q.Year)
	if err != nil {
		return nil, err
	}
	result := map[string]any{
		"unit": unit.Code,
		"year": q.Year,
	}
	if plan == nil {
		result["employees"] = []string{}
		return result, nil
	}
	employees, err := s.roster.EmployeesInPlan(ctx, plan.ID)
	if err != nil {
		return nil, err
	}
	names := make([]map[string]string, 0, len(employees))
	for _, e := range employees {
		names = append(names, map[string]string{
			"name":            e.DisplayName,
			"personal_number": e.PersonnelNumber,
		})
	}
	result["employees"] = names
	return result, nil
}

// readYearFTE reports the summed monthly vector, its average and
// optionally a single month's value.
func (s *CommandService) readYearFTE(ctx context.Context, execCtx domain.ExecutionContext, q YearFTEQuery) (any, error) {
	emp, err := s.resolver.ResolveEmployee(ctx, q.Employee)
	if err != nil {
		return nil, err
	}
	vector, err := s.roster.YearVector(ctx, emp.ID, q.Year, execCtx.Site)
	if err != nil {
		return nil, err
	}
	var total float64
	for _, v := range vector {
		total += v
	}
	result := map[string]any{
		"employee": emp.DisplayName,
		"year":     q.Year,
		"months":   vector,
		"average":  total / 12,
	}
	if q.Month > 0 {
		result["month"] = q.Month
		result["month_value"] = vector[q.Month-1]
	}
	return result, nil
}
