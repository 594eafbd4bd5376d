// Package payrolltest provides an in-memory payroll.StoreAPI for tests.
package payrolltest

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"backoffice/internal/domain/payroll"
)

type MemStore struct {
	mu       sync.Mutex
	seq      int
	staff    map[string]payroll.Staff
	periods  map[string]payroll.Period
	rates    payroll.RateTables
	payslips map[string]payroll.Payslip
}

var _ payroll.StoreAPI = (*MemStore)(nil)

func NewMemStore() *MemStore {
	return &MemStore{
		staff:    map[string]payroll.Staff{},
		periods:  map[string]payroll.Period{},
		rates:    payroll.RateTables{},
		payslips: map[string]payroll.Payslip{},
	}
}

func (m *MemStore) nextID(prefix string) string {
	m.seq++
	return fmt.Sprintf("%s-%d", prefix, m.seq)
}

func (m *MemStore) CreateStaff(_ context.Context, staff payroll.Staff) (payroll.Staff, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.staff {
		if existing.EmployeeID == staff.EmployeeID {
			return payroll.Staff{}, fmt.Errorf("%w: employee id %s already registered", payroll.ErrInvalidStaff, staff.EmployeeID)
		}
	}
	staff.ID = m.nextID("staff")
	staff.CreatedAt = time.Now().UTC()
	staff.UpdatedAt = staff.CreatedAt
	m.staff[staff.ID] = staff
	return staff, nil
}

func (m *MemStore) UpdateStaff(_ context.Context, staff payroll.Staff) (payroll.Staff, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.staff[staff.ID]
	if !ok {
		return payroll.Staff{}, payroll.ErrStaffNotFound
	}
	staff.CreatedAt = existing.CreatedAt
	staff.UpdatedAt = time.Now().UTC()
	m.staff[staff.ID] = staff
	return staff, nil
}

func (m *MemStore) GetStaff(_ context.Context, id string) (payroll.Staff, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	staff, ok := m.staff[id]
	if !ok {
		return payroll.Staff{}, payroll.ErrStaffNotFound
	}
	return staff, nil
}

func (m *MemStore) GetStaffByUserID(_ context.Context, userID string) (payroll.Staff, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, staff := range m.staff {
		if userID != "" && staff.UserID == userID {
			return staff, nil
		}
	}
	return payroll.Staff{}, payroll.ErrStaffNotFound
}

func (m *MemStore) ListStaff(_ context.Context, filter payroll.StaffFilter) ([]payroll.Staff, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	search := strings.ToLower(strings.TrimSpace(filter.Search))
	var out []payroll.Staff
	for _, staff := range m.staff {
		if filter.ActiveOnly && !staff.IsActive {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(staff.FullName), search) &&
			!strings.Contains(strings.ToLower(staff.EmployeeID), search) {
			continue
		}
		out = append(out, staff)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FullName < out[j].FullName })
	return out, nil
}

func (m *MemStore) SetStaffActive(_ context.Context, id string, active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	staff, ok := m.staff[id]
	if !ok {
		return payroll.ErrStaffNotFound
	}
	staff.IsActive = active
	m.staff[id] = staff
	return nil
}

func (m *MemStore) CreatePeriod(_ context.Context, year, month int) (payroll.Period, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.periods {
		if p.Year == year && p.Month == month {
			return payroll.Period{}, fmt.Errorf("%w: %04d-%02d", payroll.ErrPeriodExists, year, month)
		}
	}
	p := payroll.Period{
		ID:        m.nextID("period"),
		Year:      year,
		Month:     month,
		Status:    payroll.PeriodStatusOpen,
		CreatedAt: time.Now().UTC(),
	}
	m.periods[p.ID] = p
	return p, nil
}

func (m *MemStore) GetPeriod(_ context.Context, year, month int) (payroll.Period, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.periods {
		if p.Year == year && p.Month == month {
			return p, nil
		}
	}
	return payroll.Period{}, payroll.ErrPeriodNotFound
}

func (m *MemStore) GetPeriodByID(_ context.Context, id string) (payroll.Period, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.periods[id]
	if !ok {
		return payroll.Period{}, payroll.ErrPeriodNotFound
	}
	return p, nil
}

func (m *MemStore) ListPeriods(_ context.Context, year int) ([]payroll.Period, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []payroll.Period
	for _, p := range m.periods {
		if year == 0 || p.Year == year {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year > out[j].Year
		}
		return out[i].Month > out[j].Month
	})
	return out, nil
}

func (m *MemStore) ClosePeriod(_ context.Context, id string, closedAt time.Time) (payroll.Period, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.periods[id]
	if !ok || !p.Open() {
		return payroll.Period{}, payroll.ErrPeriodClosed
	}
	p.Status = payroll.PeriodStatusClosed
	p.ClosedAt = &closedAt
	m.periods[id] = p
	for slipID, slip := range m.payslips {
		if slip.PeriodID == id {
			slip.IsLocked = true
			m.payslips[slipID] = slip
		}
	}
	return p, nil
}

func (m *MemStore) RateTables(_ context.Context) (payroll.RateTables, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := payroll.RateTables{}
	for rt, table := range m.rates {
		copied := *table
		copied.Brackets = append([]payroll.Bracket(nil), table.Brackets...)
		out[rt] = &copied
	}
	return out, nil
}

func (m *MemStore) GetRateTable(_ context.Context, rateType payroll.RateType) (*payroll.RateTable, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	table, ok := m.rates[rateType]
	if !ok {
		return nil, nil
	}
	copied := *table
	copied.Brackets = append([]payroll.Bracket(nil), table.Brackets...)
	return &copied, nil
}

func (m *MemStore) ReplaceRateTable(_ context.Context, table *payroll.RateTable) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *table
	copied.Brackets = append([]payroll.Bracket(nil), table.Brackets...)
	m.rates[table.Type] = &copied
	return nil
}

func (m *MemStore) DeleteRateTable(_ context.Context, rateType payroll.RateType) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rates, rateType)
	return nil
}

func (m *MemStore) ListPayslips(_ context.Context, staffID string, year int) ([]payroll.Payslip, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []payroll.Payslip
	for _, slip := range m.payslips {
		if slip.StaffID == staffID && slip.Year == year {
			out = append(out, slip)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out, nil
}

func (m *MemStore) GetPayslip(_ context.Context, id string) (payroll.Payslip, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	slip, ok := m.payslips[id]
	if !ok {
		return payroll.Payslip{}, payroll.ErrPayslipNotFound
	}
	return slip, nil
}

func (m *MemStore) InsertPayslip(_ context.Context, slip payroll.Payslip) (payroll.Payslip, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.payslips {
		if existing.StaffID == slip.StaffID && existing.Year == slip.Year && existing.Month == slip.Month {
			return payroll.Payslip{}, payroll.ErrDuplicatePayslip
		}
	}
	slip.ID = m.nextID("payslip")
	slip.CreatedAt = time.Now().UTC()
	slip.UpdatedAt = slip.CreatedAt
	m.payslips[slip.ID] = slip
	return slip, nil
}

func (m *MemStore) UpdatePayslip(_ context.Context, slip payroll.Payslip) (payroll.Payslip, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.payslips[slip.ID]
	if !ok || existing.IsLocked {
		return payroll.Payslip{}, payroll.ErrPayslipLocked
	}
	slip.UpdatedAt = time.Now().UTC()
	m.payslips[slip.ID] = slip
	return slip, nil
}

func (m *MemStore) DeletePayslip(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.payslips[id]
	if !ok || existing.IsLocked {
		return payroll.ErrPayslipLocked
	}
	delete(m.payslips, id)
	return nil
}

// InTx runs fn directly; MemStore operations are individually atomic.
func (m *MemStore) InTx(_ context.Context, fn func(payroll.StoreAPI) error) error {
	return fn(m)
}
