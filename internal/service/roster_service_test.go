package service

import (
	"context"
	"strings"
	"testing"

	"github.com/yourorg/rosterpilot/internal/domain"
	"github.com/yourorg/rosterpilot/internal/resolver"
)

type rosterFixture struct {
	service   *RosterService
	roster    *memRosterStore
	employees *memEmployeeRepo
}

func newRosterFixture(t *testing.T) *rosterFixture {
	t.Helper()

	employees := &memEmployeeRepo{employees: []*domain.Employee{
		{ID: "e1", PersonnelNumber: "4711", DisplayName: "Anna Schmidt", IsActive: true},
	}}
	units := &memUnitRepo{units: []*domain.OrgUnit{
		{ID: "2100", Code: "2100", SiteCode: "KH1", Name: "Innere Medizin", IsActive: true},
	}}
	roster := newMemRosterStore(employees, func(string) string { return "KH1" })
	svc := NewRosterService(employees, roster, resolver.New(employees, units, nil), nil)
	return &rosterFixture{service: svc, roster: roster, employees: employees}
}

func TestSaveGridWritesAllCells(t *testing.T) {
	fx := newRosterFixture(t)
	ctx := context.Background()

	resp, err := fx.service.SaveGrid(ctx, SaveGridRequest{
		Unit: "2100",
		Year: 2026,
		Rows: []GridRowInput{
			{PersonnelNumber: "4711", DisplayName: "Anna Schmidt", Values: [12]float64{1, 1, 1, 1, 1, 1, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5}},
		},
		UpdatedBy: "test",
	})
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if resp.Saved != 1 {
		t.Errorf("expected 1 saved row, got %d", resp.Saved)
	}

	rows, err := fx.service.ListGrid(ctx, "2100", 2026, "")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if rows[0].Values[0] != 1 || rows[0].Values[6] != 0.5 {
		t.Errorf("unexpected values: %v", rows[0].Values)
	}
}

func TestSaveGridClampsNegativeValues(t *testing.T) {
	fx := newRosterFixture(t)
	ctx := context.Background()

	_, err := fx.service.SaveGrid(ctx, SaveGridRequest{
		Unit: "2100",
		Year: 2026,
		Rows: []GridRowInput{
			{PersonnelNumber: "4711", DisplayName: "Anna Schmidt", Values: [12]float64{-0.5}},
		},
	})
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	rows, _ := fx.service.ListGrid(ctx, "2100", 2026, "")
	if rows[0].Values[0] != 0 {
		t.Errorf("negative input must be clamped to 0, got %v", rows[0].Values[0])
	}
}

func TestSaveGridGeneratesPlaceholderNumber(t *testing.T) {
	fx := newRosterFixture(t)

	_, err := fx.service.SaveGrid(context.Background(), SaveGridRequest{
		Unit: "2100",
		Year: 2026,
		Rows: []GridRowInput{
			{DisplayName: "Neue Kraft", Values: [12]float64{0.5}},
		},
	})
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	var placeholder *domain.Employee
	for _, e := range fx.employees.employees {
		if e.DisplayName == "Neue Kraft" {
			placeholder = e
		}
	}
	if placeholder == nil {
		t.Fatalf("placeholder employee was not created")
	}
	if !strings.HasPrefix(placeholder.PersonnelNumber, domain.PlaceholderPrefix) {
		t.Errorf("expected %s prefix, got %q", domain.PlaceholderPrefix, placeholder.PersonnelNumber)
	}
	if !placeholder.IsPlaceholder() {
		t.Errorf("expected IsPlaceholder to report true")
	}
}

func TestSaveGridRejectsNamelessRow(t *testing.T) {
	fx := newRosterFixture(t)

	_, err := fx.service.SaveGrid(context.Background(), SaveGridRequest{
		Unit: "2100",
		Year: 2026,
		Rows: []GridRowInput{{Values: [12]float64{0.5}}},
	})
	if err == nil {
		t.Fatalf("expected nameless row to be rejected")
	}
	if domain.CategoryOf(err) != domain.ErrValidation {
		t.Errorf("expected validation category, got %s", domain.CategoryOf(err))
	}
}

func TestSaveGridReportsWarnings(t *testing.T) {
	fx := newRosterFixture(t)

	resp, err := fx.service.SaveGrid(context.Background(), SaveGridRequest{
		Unit: "2100",
		Year: 2026,
		Rows: []GridRowInput{
			{PersonnelNumber: "4711", DisplayName: "Anna Schmidt", Values: [12]float64{1.2, 1.0, 0.8}},
		},
	})
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if len(resp.Warnings) != 1 {
		t.Fatalf("expected exactly 1 warning, got %d: %+v", len(resp.Warnings), resp.Warnings)
	}
	if resp.Warnings[0].Month != 1 {
		t.Errorf("expected warning for January, got month %d", resp.Warnings[0].Month)
	}
}

func TestListGridWithoutPlanIsEmpty(t *testing.T) {
	fx := newRosterFixture(t)

	rows, err := fx.service.ListGrid(context.Background(), "2100", 2031, "")
	if err != nil {
		t.Fatalf("a missing plan must not be an error: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("expected empty grid, got %d rows", len(rows))
	}
}

func TestRolloverFillKeepsTargetValues(t *testing.T) {
	fx := newRosterFixture(t)
	ctx := context.Background()

	source, _ := fx.roster.GetOrCreatePlan(ctx, "2100", 2026)
	target, _ := fx.roster.GetOrCreatePlan(ctx, "2100", 2027)
	fx.roster.SetMonth(ctx, domain.MonthWrite{PlanID: source.ID, EmployeeID: "e1", Month: 1, ServiceType: "01", FTE: 0.8})
	fx.roster.SetMonth(ctx, domain.MonthWrite{PlanID: source.ID, EmployeeID: "e1", Month: 2, ServiceType: "01", FTE: 0.8})
	fx.roster.SetMonth(ctx, domain.MonthWrite{PlanID: target.ID, EmployeeID: "e1", Month: 1, ServiceType: "01", FTE: 0.5})

	resp, err := fx.service.Rollover(ctx, RolloverRequest{
		Unit:        "2100",
		FromYear:    2026,
		ToYear:      2027,
		Mode:        domain.RolloverFill,
		EmployeeIDs: []string{"e1"},
	})
	if err != nil {
		t.Fatalf("rollover failed: %v", err)
	}
	if resp.CopiedCells != 1 {
		t.Errorf("expected 1 copied cell, got %d", resp.CopiedCells)
	}
	if got := fx.roster.cell(target.ID, "e1", 1, "01"); got != 0.5 {
		t.Errorf("fill mode must keep existing value, got %v", got)
	}
	if got := fx.roster.cell(target.ID, "e1", 2, "01"); got != 0.8 {
		t.Errorf("empty cell must be filled, got %v", got)
	}
}

func TestRolloverOverwriteReplacesTargetValues(t *testing.T) {
	fx := newRosterFixture(t)
	ctx := context.Background()

	source, _ := fx.roster.GetOrCreatePlan(ctx, "2100", 2026)
	target, _ := fx.roster.GetOrCreatePlan(ctx, "2100", 2027)
	fx.roster.SetMonth(ctx, domain.MonthWrite{PlanID: source.ID, EmployeeID: "e1", Month: 1, ServiceType: "01", FTE: 0.8})
	fx.roster.SetMonth(ctx, domain.MonthWrite{PlanID: target.ID, EmployeeID: "e1", Month: 1, ServiceType: "01", FTE: 0.5})

	_, err := fx.service.Rollover(ctx, RolloverRequest{
		Unit:        "2100",
		FromYear:    2026,
		ToYear:      2027,
		Mode:        domain.RolloverOverwrite,
		EmployeeIDs: []string{"e1"},
	})
	if err != nil {
		t.Fatalf("rollover failed: %v", err)
	}
	if got := fx.roster.cell(target.ID, "e1", 1, "01"); got != 0.8 {
		t.Errorf("overwrite mode must replace value, got %v", got)
	}
}

func TestRolloverValidation(t *testing.T) {
	fx := newRosterFixture(t)
	ctx := context.Background()

	cases := []RolloverRequest{
		{Unit: "2100", FromYear: 2027, ToYear: 2026, Mode: domain.RolloverFill, EmployeeIDs: []string{"e1"}},
		{Unit: "2100", FromYear: 2026, ToYear: 2026, Mode: domain.RolloverFill, EmployeeIDs: []string{"e1"}},
		{Unit: "2100", FromYear: 2026, ToYear: 2027, Mode: "sideways", EmployeeIDs: []string{"e1"}},
		{Unit: "2100", FromYear: 2026, ToYear: 2027, Mode: domain.RolloverFill},
	}
	for _, req := range cases {
		if _, err := fx.service.Rollover(ctx, req); err == nil {
			t.Errorf("expected %+v to fail validation", req)
		}
	}
}

func TestRolloverMissingSourcePlan(t *testing.T) {
	fx := newRosterFixture(t)

	_, err := fx.service.Rollover(context.Background(), RolloverRequest{
		Unit:        "2100",
		FromYear:    2026,
		ToYear:      2027,
		Mode:        domain.RolloverFill,
		EmployeeIDs: []string{"e1"},
	})
	if err == nil {
		t.Fatalf("expected missing source plan to fail")
	}
	if domain.CategoryOf(err) != domain.ErrNotFound {
		t.Errorf("expected not_found, got %s", domain.CategoryOf(err))
	}
}
