package service

import (
	"fmt"
	"strconv"

	"github.com/yourorg/rosterpilot/internal/domain"
	"github.com/yourorg/rosterpilot/internal/resolver"
)

// RequestState tracks where a command ended up. Every request
// terminates in exactly one of the non-Parsed states.
type RequestState string

const (
	StateParsed             RequestState = "parsed"
	StateNeedsClarification RequestState = "needs_clarification"
	StateReadExecuted       RequestState = "read_executed"
	StateProposalIssued     RequestState = "proposal_issued"
	StateWriteCommitted     RequestState = "write_committed"
	StateFailed             RequestState = "failed"
)

// Dispatcher converts the translator's untyped field map into one
// typed command per intent, validating field presence and ranges
// eagerly. A malformed write fails here, at proposal time, never at
// commit time.
type Dispatcher struct {
	yearMin            int
	yearMax            int
	defaultServiceType string
}

// NewDispatcher creates a new dispatcher with the planning horizon
func NewDispatcher(yearMin, yearMax int, defaultServiceType string) *Dispatcher {
	if defaultServiceType == "" {
		defaultServiceType = domain.DefaultServiceType
	}
	return &Dispatcher{yearMin: yearMin, yearMax: yearMax, defaultServiceType: defaultServiceType}
}

// AdjustCommand is a validated relative or absolute FTE change.
type AdjustCommand struct {
	Employee    resolver.Ref
	Department  string
	ServiceType string
	Year        int
	Month       int
	MonthName   string
	Relative    bool
	Delta       float64
	Target      float64
}

// Summary builds the deterministic human-readable sentence shown
// before commit.
func (c AdjustCommand) Summary() string {
	if c.Relative {
		return fmt.Sprintf("%s: %s %d in %s um %s VK anpassen",
			c.Employee.Label(), c.MonthName, c.Year, c.Department, formatSigned(c.Delta))
	}
	return fmt.Sprintf("%s: %s %d in %s auf %s VK setzen",
		c.Employee.Label(), c.MonthName, c.Year, c.Department, formatFTE(c.Target))
}

// TransferCommand is a validated unit transfer.
type TransferCommand struct {
	Employee resolver.Ref
	FromUnit string
	ToUnit   string
	Year     int
}

func (c TransferCommand) Summary() string {
	return fmt.Sprintf("%s: Planjahr %d von %s nach %s versetzen",
		c.Employee.Label(), c.Year, c.FromUnit, c.ToUnit)
}

// WriteCommand is the tagged union of validated write intents.
type WriteCommand interface {
	Summary() string
}

// Read queries, one concrete type per read intent.
type (
	ExistsQuery struct {
		Employee resolver.Ref
	}
	UnitQuery struct {
		Employee resolver.Ref
		Year     int
	}
	ListUnitQuery struct {
		Unit string
		Year int
	}
	YearFTEQuery struct {
		Employee  resolver.Ref
		Year      int
		Month     int
		MonthName string
	}
	HelpQuery struct{}
)

// ReadQuery is the tagged union of validated read intents.
type ReadQuery interface{ readQuery() }

func (ExistsQuery) readQuery()   {}
func (UnitQuery) readQuery()     {}
func (ListUnitQuery) readQuery() {}
func (YearFTEQuery) readQuery()  {}
func (HelpQuery) readQuery()     {}

// ValidateWrite converts a parsed write intent into its typed command.
func (d *Dispatcher) ValidateWrite(parsed *domain.ParsedCommand, execCtx domain.ExecutionContext) (WriteCommand, error) {
	f := parsed.Fields
	ref := resolver.Ref{Name: f.EmployeeName, PersonnelNumber: f.PersonnelNumber}
	if ref.IsEmpty() {
		return nil, domain.NewValidationError("Mitarbeiter fehlt")
	}

	year, err := d.resolveYear(f.Year, execCtx.Year)
	if err != nil {
		return nil, err
	}

	switch parsed.Intent {
	case domain.IntentAdjustFTERelative, domain.IntentAdjustFTEAbsolute:
		department := f.Unit
		if department == "" {
			department = execCtx.Department
		}
		if department == "" {
			return nil, domain.NewValidationError("Organisationseinheit fehlt")
		}
		month := domain.MonthNumber(f.Month)
		if month == 0 {
			return nil, domain.NewValidationError("Monat %q nicht erkannt", f.Month)
		}
		cmd := AdjustCommand{
			Employee:    ref,
			Department:  department,
			ServiceType: d.serviceType(execCtx),
			Year:        year,
			Month:       month,
			MonthName:   domain.MonthNames[month-1],
		}
		if parsed.Intent == domain.IntentAdjustFTERelative {
			if !f.HasDelta {
				return nil, domain.NewValidationError("VK-Differenz fehlt")
			}
			cmd.Relative = true
			cmd.Delta = f.DeltaFTE
		} else {
			if !f.HasTarget {
				return nil, domain.NewValidationError("VK-Zielwert fehlt")
			}
			cmd.Target = f.TargetFTE
		}
		return cmd, nil

	case domain.IntentMoveEmployeeUnit:
		if f.Unit == "" {
			return nil, domain.NewValidationError("Ziel-Organisationseinheit fehlt")
		}
		if execCtx.Department == "" {
			return nil, domain.NewValidationError("Organisationseinheit fehlt")
		}
		if f.Unit == execCtx.Department {
			return nil, domain.NewValidationError("Quell- und Ziel-Organisationseinheit sind identisch (%s)", f.Unit)
		}
		return TransferCommand{
			Employee: ref,
			FromUnit: execCtx.Department,
			ToUnit:   f.Unit,
			Year:     year,
		}, nil
	}

	return nil, domain.NewValidationError("Intent %q ist keine Schreiboperation", parsed.Intent)
}

// ValidateRead converts a parsed read intent into its typed query.
func (d *Dispatcher) ValidateRead(parsed *domain.ParsedCommand, execCtx domain.ExecutionContext) (ReadQuery, error) {
	f := parsed.Fields
	ref := resolver.Ref{Name: f.EmployeeName, PersonnelNumber: f.PersonnelNumber}

	switch parsed.Intent {
	case domain.IntentHelp:
		return HelpQuery{}, nil

	case domain.IntentCheckExists:
		if ref.IsEmpty() {
			return nil, domain.NewValidationError("Mitarbeiter fehlt")
		}
		return ExistsQuery{Employee: ref}, nil

	case domain.IntentGetEmployeeUnit:
		if ref.IsEmpty() {
			return nil, domain.NewValidationError("Mitarbeiter fehlt")
		}
		year, err := d.resolveYear(f.Year, execCtx.Year)
		if err != nil {
			return nil, err
		}
		return UnitQuery{Employee: ref, Year: year}, nil

	case domain.IntentListUnitEmployees:
		unit := f.Unit
		if unit == "" {
			unit = execCtx.Department
		}
		if unit == "" {
			return nil, domain.NewValidationError("Organisationseinheit fehlt")
		}
		year, err := d.resolveYear(f.Year, execCtx.Year)
		if err != nil {
			return nil, err
		}
		return ListUnitQuery{Unit: unit, Year: year}, nil

	case domain.IntentGetYearlyFTE:
		if ref.IsEmpty() {
			return nil, domain.NewValidationError("Mitarbeiter fehlt")
		}
		year, err := d.resolveYear(f.Year, execCtx.Year)
		if err != nil {
			return nil, err
		}
		q := YearFTEQuery{Employee: ref, Year: year}
		if f.Month != "" {
			month := domain.MonthNumber(f.Month)
			if month == 0 {
				return nil, domain.NewValidationError("Monat %q nicht erkannt", f.Month)
			}
			q.Month = month
			q.MonthName = domain.MonthNames[month-1]
		}
		return q, nil
	}

	return nil, domain.NewValidationError("Intent %q ist keine Leseoperation", parsed.Intent)
}

// CheckYear enforces the planning horizon. Applied identically at
// propose time and commit time.
func (d *Dispatcher) CheckYear(year int) error {
	if year < d.yearMin || year > d.yearMax {
		return domain.NewValidationError("Jahr %d nicht verfuegbar (erwartet %d-%d)", year, d.yearMin, d.yearMax)
	}
	return nil
}

func (d *Dispatcher) resolveYear(fieldYear, contextYear int) (int, error) {
	year := fieldYear
	if year == 0 {
		year = contextYear
	}
	if year == 0 {
		return 0, domain.NewValidationError("Jahr fehlt")
	}
	if err := d.CheckYear(year); err != nil {
		return 0, err
	}
	return year, nil
}

func (d *Dispatcher) serviceType(execCtx domain.ExecutionContext) string {
	if execCtx.ServiceType != "" {
		return execCtx.ServiceType
	}
	return d.defaultServiceType
}

func formatFTE(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func formatSigned(v float64) string {
	if v >= 0 {
		return "+" + formatFTE(v)
	}
	return formatFTE(v)
}
