package domain

import (
	"math"
	"strings"
	"testing"
)

func TestClampFTE(t *testing.T) {
	cases := []struct {
		in   float64
		want float64
	}{
		{0.5, 0.5},
		{0, 0},
		{1.0, 1.0},
		{-0.5, 0},
		{math.NaN(), 0},
		{math.Inf(1), 0},
		{math.Inf(-1), 0},
	}
	for _, c := range cases {
		if got := ClampFTE(c.in); got != c.want {
			t.Errorf("ClampFTE(%v) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestWarningsFromSums(t *testing.T) {
	sums := []MonthlySum{
		{EmployeeID: "e1", Month: 1, TotalFTE: 0.8},
		{EmployeeID: "e1", Month: 2, TotalFTE: 1.0},
		{EmployeeID: "e1", Month: 3, TotalFTE: 1.2},
		{EmployeeID: "e2", Month: 3, TotalFTE: 1.0000001},
	}

	warnings := WarningsFromSums(sums, 2026)
	if len(warnings) != 2 {
		t.Fatalf("expected 2 warnings, got %d: %+v", len(warnings), warnings)
	}
	if warnings[0].EmployeeID != "e1" || warnings[0].Month != 3 {
		t.Errorf("unexpected first warning: %+v", warnings[0])
	}
	if warnings[0].Year != 2026 {
		t.Errorf("expected year on warning, got %d", warnings[0].Year)
	}
	if !strings.Contains(warnings[0].Message, "VK-Summe > 1,0") {
		t.Errorf("unexpected message: %q", warnings[0].Message)
	}
}

func TestWarningsExactlyOneIsFine(t *testing.T) {
	warnings := WarningsFromSums([]MonthlySum{{EmployeeID: "e1", Month: 6, TotalFTE: 1.0}}, 2026)
	if len(warnings) != 0 {
		t.Fatalf("a sum of exactly 1.0 must not warn, got %+v", warnings)
	}
}

func TestPlanRolloverFillSkipsExisting(t *testing.T) {
	source := []MonthCell{
		{Month: 1, ServiceType: "01", FTE: 0.5},
		{Month: 2, ServiceType: "01", FTE: 0.5},
		{Month: 2, ServiceType: "02", FTE: 0.25},
	}
	target := []MonthCell{
		{Month: 2, ServiceType: "01", FTE: 0.8},
	}

	writes := PlanRollover(source, target, RolloverFill)
	if len(writes) != 2 {
		t.Fatalf("expected 2 writes, got %d: %+v", len(writes), writes)
	}
	for _, w := range writes {
		if w.Month == 2 && w.ServiceType == "01" {
			t.Errorf("fill mode must not touch existing cell: %+v", w)
		}
	}
}

func TestPlanRolloverOverwriteReplacesAll(t *testing.T) {
	source := []MonthCell{
		{Month: 1, ServiceType: "01", FTE: 0.5},
		{Month: 2, ServiceType: "01", FTE: 0.5},
	}
	target := []MonthCell{
		{Month: 1, ServiceType: "01", FTE: 0.8},
	}

	writes := PlanRollover(source, target, RolloverOverwrite)
	if len(writes) != 2 {
		t.Fatalf("expected 2 writes, got %d", len(writes))
	}
}

func TestMonthNumberAliases(t *testing.T) {
	cases := map[string]int{
		"Januar":    1,
		"märz":      3,
		"MÄRZ":      3,
		"maerz":     3,
		"mrz":       3,
		" April ":   4,
		"sept":      9,
		"Dez":       12,
		"unbekannt": 0,
		"":          0,
	}
	for name, want := range cases {
		if got := MonthNumber(name); got != want {
			t.Errorf("MonthNumber(%q) = %d, want %d", name, got, want)
		}
	}
}

func TestIntentDirections(t *testing.T) {
	writes := []Intent{IntentAdjustFTERelative, IntentAdjustFTEAbsolute, IntentMoveEmployeeUnit}
	reads := []Intent{IntentCheckExists, IntentGetEmployeeUnit, IntentListUnitEmployees, IntentGetYearlyFTE, IntentHelp}

	for _, i := range writes {
		if !i.IsWrite() || i.IsRead() {
			t.Errorf("%s should be write-only", i)
		}
	}
	for _, i := range reads {
		if !i.IsRead() || i.IsWrite() {
			t.Errorf("%s should be read-only", i)
		}
	}
	if IntentUnknown.IsRead() || IntentUnknown.IsWrite() {
		t.Errorf("unknown intent must be neither read nor write")
	}
}

func TestExecutionContextMerge(t *testing.T) {
	base := ExecutionContext{Site: "KH1", Department: "2100", ServiceType: "01", Year: 2026}

	merged := base.Merge(ExecutionContext{Department: "2200", Year: 2027})
	if merged.Site != "KH1" || merged.ServiceType != "01" {
		t.Errorf("untouched fields must survive: %+v", merged)
	}
	if merged.Department != "2200" || merged.Year != 2027 {
		t.Errorf("override fields must win: %+v", merged)
	}

	if unchanged := base.Merge(ExecutionContext{}); unchanged != base {
		t.Errorf("empty override must not change anything: %+v", unchanged)
	}
}
