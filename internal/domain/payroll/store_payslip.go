package payroll

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

const payslipColumns = `
    id, staff_id, period_id, year, month,
    employee_id, full_name, national_id_enc, COALESCE(designation, ''), COALESCE(department, ''),
    COALESCE(epf_number, ''), COALESCE(socso_number, ''), COALESCE(tax_number, ''),
    employee_epf_rate, employer_epf_rate, basic_salary,
    housing_allowance, transport_allowance, meal_allowance, phone_allowance, other_allowance,
    overtime, bonus, commission, pcb, loan_deduction, other_deductions,
    epf_employee, epf_employer, socso_employee, socso_employer, eis_employee, eis_employer,
    gross_salary, total_deductions, nett_pay,
    ytd_gross, ytd_epf_employee, ytd_epf_employer, ytd_pcb,
    age_used, is_locked, created_at, updated_at`

func (s *Store) scanPayslip(row pgx.Row) (Payslip, error) {
	var p Payslip
	var nationalID []byte
	if err := row.Scan(
		&p.ID, &p.StaffID, &p.PeriodID, &p.Year, &p.Month,
		&p.EmployeeID, &p.FullName, &nationalID, &p.Designation, &p.Department,
		&p.EPFNumber, &p.SOCSONumber, &p.TaxNumber,
		&p.EmployeeEPFRate, &p.EmployerEPFRate, &p.BasicSalary,
		&p.Housing, &p.Transport, &p.Meal, &p.Phone, &p.Other,
		&p.Overtime, &p.Bonus, &p.Commission, &p.PCB, &p.LoanDeduction, &p.OtherDeductions,
		&p.EPFEmployee, &p.EPFEmployer, &p.SOCSOEmployee, &p.SOCSOEmployer, &p.EISEmployee, &p.EISEmployer,
		&p.GrossSalary, &p.TotalDeductions, &p.NettPay,
		&p.YTDGross, &p.YTDEPFEmployee, &p.YTDEPFEmployer, &p.YTDPCB,
		&p.AgeUsed, &p.IsLocked, &p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return Payslip{}, err
	}
	plain, err := s.open(nationalID)
	if err != nil {
		return Payslip{}, err
	}
	p.NationalID = plain
	return p, nil
}

func (s *Store) ListPayslips(ctx context.Context, staffID string, year int) ([]Payslip, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+payslipColumns+`
    FROM payslips
    WHERE staff_id = $1 AND year = $2
    ORDER BY month
  `, staffID, year)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Payslip
	for rows.Next() {
		p, err := s.scanPayslip(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) GetPayslip(ctx context.Context, id string) (Payslip, error) {
	p, err := s.scanPayslip(s.DB.QueryRow(ctx, `SELECT `+payslipColumns+` FROM payslips WHERE id = $1`, id))
	return p, notFound(err, ErrPayslipNotFound)
}

// InsertPayslip relies on the (staff_id, year, month) unique index for race-free duplicate detection.
func (s *Store) InsertPayslip(ctx context.Context, p Payslip) (Payslip, error) {
	nationalID, err := s.seal(p.NationalID)
	if err != nil {
		return Payslip{}, err
	}
	created, err := s.scanPayslip(s.DB.QueryRow(ctx, `
    INSERT INTO payslips (
      staff_id, period_id, year, month,
      employee_id, full_name, national_id_enc, designation, department,
      epf_number, socso_number, tax_number,
      employee_epf_rate, employer_epf_rate, basic_salary,
      housing_allowance, transport_allowance, meal_allowance, phone_allowance, other_allowance,
      overtime, bonus, commission, pcb, loan_deduction, other_deductions,
      epf_employee, epf_employer, socso_employee, socso_employer, eis_employee, eis_employer,
      gross_salary, total_deductions, nett_pay,
      ytd_gross, ytd_epf_employee, ytd_epf_employer, ytd_pcb,
      age_used, is_locked)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,
            $21,$22,$23,$24,$25,$26,$27,$28,$29,$30,$31,$32,$33,$34,$35,$36,$37,$38,$39,$40,$41)
    RETURNING `+payslipColumns,
		p.StaffID, p.PeriodID, p.Year, p.Month,
		p.EmployeeID, p.FullName, nationalID, nullIfEmpty(p.Designation), nullIfEmpty(p.Department),
		nullIfEmpty(p.EPFNumber), nullIfEmpty(p.SOCSONumber), nullIfEmpty(p.TaxNumber),
		p.EmployeeEPFRate, p.EmployerEPFRate, p.BasicSalary,
		p.Housing, p.Transport, p.Meal, p.Phone, p.Other,
		p.Overtime, p.Bonus, p.Commission, p.PCB, p.LoanDeduction, p.OtherDeductions,
		p.EPFEmployee, p.EPFEmployer, p.SOCSOEmployee, p.SOCSOEmployer, p.EISEmployee, p.EISEmployer,
		p.GrossSalary, p.TotalDeductions, p.NettPay,
		p.YTDGross, p.YTDEPFEmployee, p.YTDEPFEmployer, p.YTDPCB,
		p.AgeUsed, p.IsLocked,
	))
	if isUniqueViolation(err) {
		return Payslip{}, fmt.Errorf("%w: %s %04d-%02d", ErrDuplicatePayslip, p.EmployeeID, p.Year, p.Month)
	}
	return created, err
}

// UpdatePayslip rewrites the adjustable figures of an unlocked payslip.
func (s *Store) UpdatePayslip(ctx context.Context, p Payslip) (Payslip, error) {
	updated, err := s.scanPayslip(s.DB.QueryRow(ctx, `
    UPDATE payslips SET
      overtime = $2, bonus = $3, commission = $4, pcb = $5, loan_deduction = $6, other_deductions = $7,
      epf_employee = $8, epf_employer = $9, socso_employee = $10, socso_employer = $11, eis_employee = $12, eis_employer = $13,
      gross_salary = $14, total_deductions = $15, nett_pay = $16,
      ytd_gross = $17, ytd_epf_employee = $18, ytd_epf_employer = $19, ytd_pcb = $20,
      updated_at = now()
    WHERE id = $1 AND NOT is_locked
    RETURNING `+payslipColumns,
		p.ID,
		p.Overtime, p.Bonus, p.Commission, p.PCB, p.LoanDeduction, p.OtherDeductions,
		p.EPFEmployee, p.EPFEmployer, p.SOCSOEmployee, p.SOCSOEmployer, p.EISEmployee, p.EISEmployer,
		p.GrossSalary, p.TotalDeductions, p.NettPay,
		p.YTDGross, p.YTDEPFEmployee, p.YTDEPFEmployer, p.YTDPCB,
	))
	return updated, notFound(err, ErrPayslipLocked)
}

func (s *Store) DeletePayslip(ctx context.Context, id string) error {
	tag, err := s.DB.Exec(ctx, `DELETE FROM payslips WHERE id = $1 AND NOT is_locked`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrPayslipLocked
	}
	return nil
}
