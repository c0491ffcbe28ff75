package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/yourorg/rosterpilot/internal/domain"
)

// scriptedParser returns canned parses keyed by command text.
type scriptedParser struct {
	parses map[string]*domain.ParsedCommand
}

func (p *scriptedParser) Parse(ctx context.Context, command string) (*domain.ParsedCommand, error) {
	parsed, ok := p.parses[command]
	if !ok {
		return nil, domain.NewUpstreamParseError("Antwort des Sprachmodells unverstaendlich", fmt.Errorf("no script for %q", command))
	}
	return parsed, nil
}

type memEmployeeRepo struct {
	employees []*domain.Employee
}

func (f *memEmployeeRepo) GetByID(ctx context.Context, id string) (*domain.Employee, error) {
	for _, e := range f.employees {
		if e.ID == id {
			return e, nil
		}
	}
	return nil, domain.NewNotFoundError("Mitarbeiter %s nicht gefunden", id)
}

func (f *memEmployeeRepo) GetByPersonnelNumber(ctx context.Context, personnelNo string) (*domain.Employee, error) {
	for _, e := range f.employees {
		if e.PersonnelNumber == personnelNo && e.IsActive {
			return e, nil
		}
	}
	return nil, domain.NewNotFoundError("Mitarbeiter %s nicht gefunden", personnelNo)
}

func (f *memEmployeeRepo) SearchByName(ctx context.Context, fragment string) ([]*domain.Employee, error) {
	var matches []*domain.Employee
	for _, e := range f.employees {
		if e.IsActive && strings.Contains(strings.ToLower(e.DisplayName), strings.ToLower(fragment)) {
			matches = append(matches, e)
		}
	}
	return matches, nil
}

func (f *memEmployeeRepo) Upsert(ctx context.Context, employee *domain.Employee) error {
	for _, e := range f.employees {
		if e.PersonnelNumber == employee.PersonnelNumber {
			employee.ID = e.ID
			e.DisplayName = employee.DisplayName
			e.Qualification = employee.Qualification
			e.IsActive = employee.IsActive
			return nil
		}
	}
	if employee.ID == "" {
		employee.ID = fmt.Sprintf("e%d", len(f.employees)+1)
	}
	f.employees = append(f.employees, employee)
	return nil
}

func (f *memEmployeeRepo) Deactivate(ctx context.Context, id string) error {
	for _, e := range f.employees {
		if e.ID == id {
			e.IsActive = false
		}
	}
	return nil
}

type memUnitRepo struct {
	units []*domain.OrgUnit
}

func (f *memUnitRepo) GetByCode(ctx context.Context, code string) (*domain.OrgUnit, error) {
	for _, u := range f.units {
		if u.Code == code && u.IsActive {
			return u, nil
		}
	}
	return nil, domain.NewNotFoundError("Organisationseinheit %s nicht gefunden", code)
}

func (f *memUnitRepo) List(ctx context.Context) ([]*domain.OrgUnit, error) {
	return f.units, nil
}

type cellKey struct {
	planID      string
	employeeID  string
	month       int
	serviceType string
}

// memRosterStore keeps plans and cells in maps. Write semantics mirror
// the SQL store: non-negative values, upsert on the cell key, relative
// adjustments clamped at zero.
type memRosterStore struct {
	mu      sync.Mutex
	plans   map[string]*domain.RosterPlan // keyed orgUnitID/year
	cells   map[cellKey]float64
	unitsBy map[string]string // planID -> orgUnitID
	nextID  int
	byID    map[string]*domain.RosterPlan
	siteOf  func(orgUnitID string) string
	empRepo *memEmployeeRepo
	// failNextAdjust makes the next AdjustMonth call fail once.
	failNextAdjust error
}

func newMemRosterStore(empRepo *memEmployeeRepo, siteOf func(string) string) *memRosterStore {
	return &memRosterStore{
		plans:   make(map[string]*domain.RosterPlan),
		cells:   make(map[cellKey]float64),
		unitsBy: make(map[string]string),
		byID:    make(map[string]*domain.RosterPlan),
		siteOf:  siteOf,
		empRepo: empRepo,
	}
}

func (s *memRosterStore) planKey(orgUnitID string, year int) string {
	return fmt.Sprintf("%s/%d", orgUnitID, year)
}

func (s *memRosterStore) GetPlan(ctx context.Context, orgUnitID string, year int) (*domain.RosterPlan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.plans[s.planKey(orgUnitID, year)], nil
}

func (s *memRosterStore) GetOrCreatePlan(ctx context.Context, orgUnitID string, year int) (*domain.RosterPlan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := s.planKey(orgUnitID, year)
	if p, ok := s.plans[key]; ok {
		return p, nil
	}
	s.nextID++
	p := &domain.RosterPlan{
		ID:        fmt.Sprintf("plan%d", s.nextID),
		OrgUnitID: orgUnitID,
		Year:      year,
		Status:    "DRAFT",
	}
	s.plans[key] = p
	s.byID[p.ID] = p
	s.unitsBy[p.ID] = orgUnitID
	return p, nil
}

func (s *memRosterStore) MonthlyGrid(ctx context.Context, orgUnitID string, year int, serviceType string) ([]*domain.GridRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	plan := s.plans[s.planKey(orgUnitID, year)]
	if plan == nil {
		return nil, nil
	}
	rows := make(map[string]*domain.GridRow)
	var order []string
	for k, fte := range s.cells {
		if k.planID != plan.ID || k.serviceType != serviceType {
			continue
		}
		row, ok := rows[k.employeeID]
		if !ok {
			emp, err := s.empRepo.GetByID(ctx, k.employeeID)
			if err != nil {
				return nil, err
			}
			row = &domain.GridRow{
				EmployeeID:      emp.ID,
				PersonnelNumber: emp.PersonnelNumber,
				DisplayName:     emp.DisplayName,
				Qualification:   emp.Qualification,
				Placeholder:     emp.IsPlaceholder(),
			}
			rows[k.employeeID] = row
			order = append(order, k.employeeID)
		}
		row.Values[k.month-1] += fte
	}
	out := make([]*domain.GridRow, 0, len(order))
	for _, id := range order {
		out = append(out, rows[id])
	}
	return out, nil
}

func (s *memRosterStore) UpsertMonths(ctx context.Context, writes []domain.MonthWrite) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, w := range writes {
		s.cells[cellKey{w.PlanID, w.EmployeeID, w.Month, w.ServiceType}] = domain.ClampFTE(w.FTE)
	}
	return nil
}

func (s *memRosterStore) SetMonth(ctx context.Context, w domain.MonthWrite) (float64, float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := cellKey{w.PlanID, w.EmployeeID, w.Month, w.ServiceType}
	old := s.cells[key]
	val := domain.ClampFTE(w.FTE)
	s.cells[key] = val
	return old, val, nil
}

func (s *memRosterStore) AdjustMonth(ctx context.Context, w domain.MonthWrite) (float64, float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failNextAdjust; err != nil {
		s.failNextAdjust = nil
		return 0, 0, err
	}
	key := cellKey{w.PlanID, w.EmployeeID, w.Month, w.ServiceType}
	old := s.cells[key]
	val := old + w.FTE
	if val < 0 {
		val = 0
	}
	s.cells[key] = val
	return old, val, nil
}

func (s *memRosterStore) MonthlyValues(ctx context.Context, planID, employeeID string) ([]domain.MonthCell, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.MonthCell
	for k, fte := range s.cells {
		if k.planID == planID && k.employeeID == employeeID {
			out = append(out, domain.MonthCell{Month: k.month, ServiceType: k.serviceType, FTE: fte})
		}
	}
	return out, nil
}

func (s *memRosterStore) TransferEntries(ctx context.Context, fromPlanID, toPlanID, employeeID string) (int, error) {
	if fromPlanID == toPlanID {
		return 0, domain.NewValidationError("Quell- und Zielplan sind identisch")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	moved := 0
	for k, fte := range s.cells {
		if k.planID != fromPlanID || k.employeeID != employeeID {
			continue
		}
		s.cells[cellKey{toPlanID, employeeID, k.month, k.serviceType}] = fte
		delete(s.cells, k)
		moved++
	}
	return moved, nil
}

func (s *memRosterStore) SumsByMonth(ctx context.Context, siteCode string, year int, employeeIDs []string) ([]domain.MonthlySum, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	wanted := make(map[string]bool, len(employeeIDs))
	for _, id := range employeeIDs {
		wanted[id] = true
	}
	type sumKey struct {
		employeeID string
		month      int
	}
	totals := make(map[sumKey]float64)
	for k, fte := range s.cells {
		plan := s.byID[k.planID]
		if plan == nil || plan.Year != year || !wanted[k.employeeID] {
			continue
		}
		if siteCode != "" && s.siteOf != nil && s.siteOf(plan.OrgUnitID) != siteCode {
			continue
		}
		totals[sumKey{k.employeeID, k.month}] += fte
	}
	var out []domain.MonthlySum
	for key, total := range totals {
		out = append(out, domain.MonthlySum{
			EmployeeID: key.employeeID,
			Month:      key.month,
			TotalFTE:   total,
		})
	}
	return out, nil
}

func (s *memRosterStore) EmployeesInPlan(ctx context.Context, planID string) ([]*domain.Employee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := make(map[string]bool)
	var out []*domain.Employee
	for k := range s.cells {
		if k.planID != planID || seen[k.employeeID] {
			continue
		}
		seen[k.employeeID] = true
		if emp, err := s.empRepo.GetByID(ctx, k.employeeID); err == nil {
			out = append(out, emp)
		}
	}
	return out, nil
}

func (s *memRosterStore) UnitsForEmployee(ctx context.Context, employeeID string, year int) ([]*domain.OrgUnit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := make(map[string]bool)
	var out []*domain.OrgUnit
	for k, fte := range s.cells {
		plan := s.byID[k.planID]
		if plan == nil || plan.Year != year || k.employeeID != employeeID || fte == 0 {
			continue
		}
		if !seen[plan.OrgUnitID] {
			seen[plan.OrgUnitID] = true
			out = append(out, &domain.OrgUnit{ID: plan.OrgUnitID, Code: plan.OrgUnitID, IsActive: true})
		}
	}
	return out, nil
}

func (s *memRosterStore) YearVector(ctx context.Context, employeeID string, year int, siteCode string) ([12]float64, error) {
	var vector [12]float64
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, fte := range s.cells {
		plan := s.byID[k.planID]
		if plan == nil || plan.Year != year || k.employeeID != employeeID {
			continue
		}
		if siteCode != "" && s.siteOf != nil && s.siteOf(plan.OrgUnitID) != siteCode {
			continue
		}
		vector[k.month-1] += fte
	}
	return vector, nil
}

func (s *memRosterStore) cell(planID, employeeID string, month int, serviceType string) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cells[cellKey{planID, employeeID, month, serviceType}]
}

type memAuditRepo struct {
	mu      sync.Mutex
	entries []*domain.AuditEntry
}

func (r *memAuditRepo) Append(ctx context.Context, entry *domain.AuditEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *entry
	if copied.Result == nil {
		copied.Result = json.RawMessage("null")
	}
	r.entries = append(r.entries, &copied)
	return nil
}

func (r *memAuditRepo) Recent(ctx context.Context, site string, limit int) ([]*domain.AuditEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.AuditEntry
	for i := len(r.entries) - 1; i >= 0 && len(out) < limit; i-- {
		if site == "" || r.entries[i].Site == site {
			out = append(out, r.entries[i])
		}
	}
	return out, nil
}

func (r *memAuditRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

func (r *memAuditRepo) last() *domain.AuditEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.entries) == 0 {
		return nil
	}
	return r.entries[len(r.entries)-1]
}

type memMarkerStore struct {
	mu       sync.Mutex
	consumed map[string]bool
}

func (m *memMarkerStore) MarkConsumed(ctx context.Context, tokenHash string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.consumed == nil {
		m.consumed = make(map[string]bool)
	}
	if m.consumed[tokenHash] {
		return false, nil
	}
	m.consumed[tokenHash] = true
	return true, nil
}

func (m *memMarkerStore) Release(ctx context.Context, tokenHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.consumed, tokenHash)
	return nil
}
