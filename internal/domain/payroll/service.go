package payroll

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"
)

type Service struct {
	store       StoreAPI
	companyName string
	now         func() time.Time
}

func NewService(store StoreAPI, companyName string) *Service {
	return &Service{store: store, companyName: companyName, now: time.Now}
}

type PayslipRequest struct {
	StaffID     string
	Year        int
	Month       int
	Adjustments Adjustments
	Overrides   StatutoryOverrides
}

func (s *Service) CreateStaff(ctx context.Context, staff Staff) (Staff, error) {
	normalizeStaff(&staff)
	if err := checkStaffFields(staff); err != nil {
		return Staff{}, err
	}
	return s.store.CreateStaff(ctx, staff)
}

func (s *Service) UpdateStaff(ctx context.Context, staff Staff) (Staff, error) {
	if _, err := s.store.GetStaff(ctx, staff.ID); err != nil {
		return Staff{}, err
	}
	normalizeStaff(&staff)
	if err := checkStaffFields(staff); err != nil {
		return Staff{}, err
	}
	return s.store.UpdateStaff(ctx, staff)
}

func (s *Service) GetStaff(ctx context.Context, id string) (Staff, error) {
	return s.store.GetStaff(ctx, id)
}

func (s *Service) ListStaff(ctx context.Context, filter StaffFilter) ([]Staff, error) {
	return s.store.ListStaff(ctx, filter)
}

func (s *Service) DeactivateStaff(ctx context.Context, id string) error {
	return s.store.SetStaffActive(ctx, id, false)
}

func normalizeStaff(staff *Staff) {
	staff.EmployeeID = strings.TrimSpace(staff.EmployeeID)
	staff.FullName = strings.TrimSpace(staff.FullName)
	staff.NationalID = strings.TrimSpace(staff.NationalID)
	if staff.EmployeeEPFRate.IsZero() {
		staff.EmployeeEPFRate = DefaultEmployeeEPFRate
	}
	if staff.EmployerEPFRate.IsZero() {
		staff.EmployerEPFRate = DefaultEmployerEPFRate
	}
}

func checkStaffFields(staff Staff) error {
	switch {
	case staff.EmployeeID == "":
		return fmt.Errorf("%w: employee id is required", ErrInvalidStaff)
	case staff.FullName == "":
		return fmt.Errorf("%w: full name is required", ErrInvalidStaff)
	case staff.BasicSalary.IsNegative():
		return fmt.Errorf("%w: basic salary cannot be negative", ErrInvalidStaff)
	case staff.Allowances.anyNegative():
		return fmt.Errorf("%w: allowances cannot be negative", ErrInvalidStaff)
	case !wholeCents(staff.BasicSalary) || !staff.Allowances.inCents():
		return fmt.Errorf("%w: salary and allowances must be whole cents", ErrInvalidStaff)
	case staff.EmployeeEPFRate.IsNegative() || staff.EmployerEPFRate.IsNegative():
		return fmt.Errorf("%w: epf rates cannot be negative", ErrInvalidStaff)
	}
	return nil
}

func (s *Service) OpenPeriod(ctx context.Context, year, month int) (Period, error) {
	if err := checkPeriod(year, month); err != nil {
		return Period{}, err
	}
	return s.store.CreatePeriod(ctx, year, month)
}

func (s *Service) ListPeriods(ctx context.Context, year int) ([]Period, error) {
	return s.store.ListPeriods(ctx, year)
}

// ClosePeriod closes an open period; its payslips become locked.
func (s *Service) ClosePeriod(ctx context.Context, year, month int) (Period, error) {
	period, err := s.store.GetPeriod(ctx, year, month)
	if err != nil {
		return Period{}, err
	}
	if !period.Open() {
		return Period{}, fmt.Errorf("%w: %04d-%02d", ErrPeriodClosed, year, month)
	}
	return s.store.ClosePeriod(ctx, period.ID, s.now().UTC())
}

func checkPeriod(year, month int) error {
	if year < 2000 || year > 2100 || month < 1 || month > 12 {
		return fmt.Errorf("%w: %04d-%02d", ErrInvalidPeriod, year, month)
	}
	return nil
}

// RateTable returns the uploaded brackets for the type, or an empty table.
func (s *Service) RateTable(ctx context.Context, rateType RateType) (RateTable, error) {
	table, err := s.store.GetRateTable(ctx, rateType)
	if err != nil {
		return RateTable{}, err
	}
	if table == nil {
		return RateTable{Type: rateType, Brackets: []Bracket{}}, nil
	}
	return *table, nil
}

func (s *Service) ReplaceRateTable(ctx context.Context, table RateTable) (RateTable, error) {
	if err := ValidateRateTable(&table); err != nil {
		return RateTable{}, err
	}
	if err := s.store.ReplaceRateTable(ctx, &table); err != nil {
		return RateTable{}, err
	}
	slog.Info("statutory rate table replaced", "rateType", table.Type, "brackets", len(table.Brackets))
	return table, nil
}

func (s *Service) UploadRateSheet(ctx context.Context, rateType RateType, r io.Reader) (RateTable, error) {
	table, err := ParseRateSheet(rateType, r)
	if err != nil {
		return RateTable{}, err
	}
	return s.ReplaceRateTable(ctx, *table)
}

func (s *Service) ClearRateTable(ctx context.Context, rateType RateType) error {
	return s.store.DeleteRateTable(ctx, rateType)
}

func (s *Service) PreviewPayslip(ctx context.Context, req PayslipRequest) (Preview, error) {
	if err := checkPeriod(req.Year, req.Month); err != nil {
		return Preview{}, err
	}
	if !req.Adjustments.valid() {
		return Preview{}, ErrInvalidAdjustment
	}
	staff, err := s.store.GetStaff(ctx, req.StaffID)
	if err != nil {
		return Preview{}, err
	}
	period, err := s.store.GetPeriod(ctx, req.Year, req.Month)
	if err != nil {
		return Preview{}, err
	}
	if !period.Open() {
		return Preview{}, fmt.Errorf("%w: %04d-%02d", ErrPeriodClosed, period.Year, period.Month)
	}
	tables, err := s.store.RateTables(ctx)
	if err != nil {
		return Preview{}, err
	}
	preview := PreviewStatutory(staff, period, req.Adjustments, tables)
	preview.Statutory = req.Overrides.Apply(preview.Statutory)
	return preview, nil
}

// GeneratePayslip computes and persists a payslip. Statutory values not overridden by the
// caller are resolved from the uploaded tables or the formula.
func (s *Service) GeneratePayslip(ctx context.Context, req PayslipRequest) (Payslip, error) {
	if err := checkPeriod(req.Year, req.Month); err != nil {
		return Payslip{}, err
	}
	var created Payslip
	err := s.store.InTx(ctx, func(tx StoreAPI) error {
		staff, err := tx.GetStaff(ctx, req.StaffID)
		if err != nil {
			return err
		}
		period, err := tx.GetPeriod(ctx, req.Year, req.Month)
		if err != nil {
			return err
		}
		tables, err := tx.RateTables(ctx)
		if err != nil {
			return err
		}
		prior, err := tx.ListPayslips(ctx, staff.ID, period.Year)
		if err != nil {
			return err
		}

		preview := PreviewStatutory(staff, period, req.Adjustments, tables)
		slip, err := Generate(GenerateInput{
			Staff:       staff,
			Period:      period,
			Adjustments: req.Adjustments,
			Statutory:   req.Overrides.Apply(preview.Statutory),
			Prior:       prior,
			Age:         preview.Age,
		})
		if err != nil {
			return err
		}
		created, err = tx.InsertPayslip(ctx, slip)
		return err
	})
	if err != nil {
		return Payslip{}, err
	}
	slog.Info("payslip generated", "staffId", created.StaffID, "year", created.Year, "month", created.Month)
	return created, nil
}

// UpdatePayslip recomputes an unlocked payslip with new adjustments, keeping its snapshot.
func (s *Service) UpdatePayslip(ctx context.Context, id string, adj Adjustments, overrides StatutoryOverrides) (Payslip, error) {
	var updated Payslip
	err := s.store.InTx(ctx, func(tx StoreAPI) error {
		slip, err := tx.GetPayslip(ctx, id)
		if err != nil {
			return err
		}
		if slip.IsLocked {
			return ErrPayslipLocked
		}
		period, err := tx.GetPeriodByID(ctx, slip.PeriodID)
		if err != nil {
			return err
		}
		tables, err := tx.RateTables(ctx)
		if err != nil {
			return err
		}
		all, err := tx.ListPayslips(ctx, slip.StaffID, slip.Year)
		if err != nil {
			return err
		}
		prior := make([]Payslip, 0, len(all))
		for _, p := range all {
			if p.ID != slip.ID {
				prior = append(prior, p)
			}
		}

		gross := grossSalary(slip.BasicSalary, slip.Allowances, adj)
		defaults := ResolveAll(slip.BasicSalary, gross, slip.AgeUsed, tables)
		recomputed, err := Recompute(slip, period, adj, overrides.Apply(defaults), prior)
		if err != nil {
			return err
		}
		updated, err = tx.UpdatePayslip(ctx, recomputed)
		return err
	})
	return updated, err
}

func (s *Service) DeletePayslip(ctx context.Context, id string) error {
	slip, err := s.store.GetPayslip(ctx, id)
	if err != nil {
		return err
	}
	if slip.IsLocked {
		return ErrPayslipLocked
	}
	return s.store.DeletePayslip(ctx, id)
}

func (s *Service) GetPayslip(ctx context.Context, id string) (Payslip, error) {
	return s.store.GetPayslip(ctx, id)
}

func (s *Service) ListPayslips(ctx context.Context, staffID string, year int) ([]Payslip, error) {
	if _, err := s.store.GetStaff(ctx, staffID); err != nil {
		return nil, err
	}
	return s.store.ListPayslips(ctx, staffID, year)
}

func (s *Service) EAForm(ctx context.Context, staffID string, year int) (EAFormSummary, error) {
	if _, err := s.store.GetStaff(ctx, staffID); err != nil {
		return EAFormSummary{}, err
	}
	payslips, err := s.store.ListPayslips(ctx, staffID, year)
	if err != nil {
		return EAFormSummary{}, err
	}
	return Summarize(staffID, year, payslips)
}

func (s *Service) MyPayslips(ctx context.Context, userID string, year int) ([]Payslip, error) {
	staff, err := s.store.GetStaffByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.store.ListPayslips(ctx, staff.ID, year)
}

func (s *Service) MyEAForm(ctx context.Context, userID string, year int) (EAFormSummary, error) {
	staff, err := s.store.GetStaffByUserID(ctx, userID)
	if err != nil {
		return EAFormSummary{}, err
	}
	return s.EAForm(ctx, staff.ID, year)
}

func (s *Service) PayslipPDF(ctx context.Context, id string) (*bytes.Buffer, Payslip, error) {
	slip, err := s.store.GetPayslip(ctx, id)
	if err != nil {
		return nil, Payslip{}, err
	}
	buf, err := PayslipPDF(s.companyName, slip)
	if err != nil {
		return nil, Payslip{}, err
	}
	return buf, slip, nil
}

func (s *Service) EAFormPDF(ctx context.Context, staffID string, year int) (*bytes.Buffer, EAFormSummary, error) {
	summary, err := s.EAForm(ctx, staffID, year)
	if err != nil {
		return nil, EAFormSummary{}, err
	}
	buf, err := EAFormPDF(s.companyName, summary)
	if err != nil {
		return nil, EAFormSummary{}, err
	}
	return buf, summary, nil
}

// MyPayslipPDF renders a payslip for the staff linked to userID. Another staff member's
// payslip reads as not found.
func (s *Service) MyPayslipPDF(ctx context.Context, userID, id string) (*bytes.Buffer, Payslip, error) {
	staff, err := s.store.GetStaffByUserID(ctx, userID)
	if err != nil {
		return nil, Payslip{}, err
	}
	slip, err := s.store.GetPayslip(ctx, id)
	if err != nil {
		return nil, Payslip{}, err
	}
	if slip.StaffID != staff.ID {
		return nil, Payslip{}, ErrPayslipNotFound
	}
	buf, err := PayslipPDF(s.companyName, slip)
	if err != nil {
		return nil, Payslip{}, err
	}
	return buf, slip, nil
}

func (s *Service) MyEAFormPDF(ctx context.Context, userID string, year int) (*bytes.Buffer, EAFormSummary, error) {
	staff, err := s.store.GetStaffByUserID(ctx, userID)
	if err != nil {
		return nil, EAFormSummary{}, err
	}
	return s.EAFormPDF(ctx, staff.ID, year)
}
