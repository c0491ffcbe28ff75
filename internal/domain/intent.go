package domain

import "strings"

// Intent is one of the closed set of command intents produced by the
// upstream translator.
type Intent string

const (
	IntentAdjustFTERelative Intent = "adjust_person_fte_rel"
	IntentAdjustFTEAbsolute Intent = "adjust_person_fte_abs"
	IntentMoveEmployeeUnit  Intent = "move_employee_unit"
	IntentCheckExists       Intent = "check_employee_exists"
	IntentGetEmployeeUnit   Intent = "get_employee_unit"
	IntentListUnitEmployees Intent = "list_unit_employees"
	IntentGetYearlyFTE      Intent = "get_employee_fte_year"
	IntentHelp              Intent = "help"
	IntentUnknown           Intent = "unknown"
)

// KnownIntents holds the full closed vocabulary.
var KnownIntents = map[Intent]bool{
	IntentAdjustFTERelative: true,
	IntentAdjustFTEAbsolute: true,
	IntentMoveEmployeeUnit:  true,
	IntentCheckExists:       true,
	IntentGetEmployeeUnit:   true,
	IntentListUnitEmployees: true,
	IntentGetYearlyFTE:      true,
	IntentHelp:              true,
	IntentUnknown:           true,
}

// IsWrite reports whether the intent mutates the roster.
func (i Intent) IsWrite() bool {
	switch i {
	case IntentAdjustFTERelative, IntentAdjustFTEAbsolute, IntentMoveEmployeeUnit:
		return true
	}
	return false
}

// IsRead reports whether the intent executes immediately against the
// store without a proposal step.
func (i Intent) IsRead() bool {
	switch i {
	case IntentCheckExists, IntentGetEmployeeUnit, IntentListUnitEmployees,
		IntentGetYearlyFTE, IntentHelp:
		return true
	}
	return false
}

// CommandFields is the untyped field map coming from the translator.
// The dispatcher converts it into one typed command per intent before
// anything executes.
type CommandFields struct {
	EmployeeName    string  `json:"employee_name"`
	PersonnelNumber string  `json:"personal_number"`
	Month           string  `json:"month"`
	Year            int     `json:"year"`
	DeltaFTE        float64 `json:"delta_fte"`
	TargetFTE       float64 `json:"target_fte"`
	// HasDelta and HasTarget distinguish an explicit zero from an
	// absent field after deserialization.
	HasDelta  bool   `json:"has_delta,omitempty"`
	HasTarget bool   `json:"has_target,omitempty"`
	Unit      string `json:"unit"`
	Site      string `json:"site"`
}

// ParsedCommand is the structured intent-with-confidence object the
// translator returns for one free-text command.
type ParsedCommand struct {
	Intent                Intent        `json:"intent"`
	Fields                CommandFields `json:"fields"`
	Confidence            float64       `json:"confidence"`
	NeedsClarification    bool          `json:"needs_clarification"`
	ClarificationQuestion string        `json:"clarification_question"`
	Notes                 string        `json:"notes"`
}

// ExecutionContext carries where a command applies: the acting site,
// the department the user is working in, the service type and the
// planning year. Supplied by the caller, not the translator.
type ExecutionContext struct {
	Site        string `json:"site"`
	Department  string `json:"department"`
	ServiceType string `json:"serviceType"`
	Year        int    `json:"year"`
}

// Merge overlays non-empty override fields onto the context.
func (c ExecutionContext) Merge(override ExecutionContext) ExecutionContext {
	out := c
	if override.Site != "" {
		out.Site = override.Site
	}
	if override.Department != "" {
		out.Department = override.Department
	}
	if override.ServiceType != "" {
		out.ServiceType = override.ServiceType
	}
	if override.Year != 0 {
		out.Year = override.Year
	}
	return out
}

// MonthNames holds the canonical German month names, indexed by
// month-1.
var MonthNames = [12]string{
	"Januar", "Februar", "März", "April", "Mai", "Juni",
	"Juli", "August", "September", "Oktober", "November", "Dezember",
}

// monthAliases maps lowercased spellings, including ASCII umlaut
// transcriptions and the usual abbreviations, to month numbers.
var monthAliases = map[string]int{
	"januar": 1, "jan": 1,
	"februar": 2, "feb": 2,
	"märz": 3, "maerz": 3, "marz": 3, "mrz": 3,
	"april": 4, "apr": 4,
	"mai": 5,
	"juni": 6, "jun": 6,
	"juli": 7, "jul": 7,
	"august": 8, "aug": 8,
	"september": 9, "sep": 9, "sept": 9,
	"oktober": 10, "okt": 10,
	"november": 11, "nov": 11,
	"dezember": 12, "dez": 12,
}

// MonthNumber resolves a German month name to its number, or 0 if the
// name is not recognisable.
func MonthNumber(name string) int {
	return monthAliases[strings.ToLower(strings.TrimSpace(name))]
}
