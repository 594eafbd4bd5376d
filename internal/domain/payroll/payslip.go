package payroll

import (
	"fmt"

	"github.com/shopspring/decimal"
)

type GenerateInput struct {
	Staff       Staff
	Period      Period
	Adjustments Adjustments
	// Statutory is the final six-tuple, already resolved or overridden by the caller.
	Statutory Statutory
	// Prior holds the staff member's persisted payslips for Period.Year.
	Prior []Payslip
	Age   int
}

type Preview struct {
	StaffID     string          `json:"staff_id"`
	Year        int             `json:"year"`
	Month       int             `json:"month"`
	Age         int             `json:"age"`
	AgeDerived  bool            `json:"age_derived"`
	GrossSalary decimal.Decimal `json:"gross_salary"`
	Statutory   Statutory       `json:"statutory"`
}

// PreviewStatutory resolves the advisory statutory defaults the caller may edit before Generate.
func PreviewStatutory(staff Staff, period Period, adj Adjustments, tables RateTables) Preview {
	age, derived := AgeFromNationalID(staff.NationalID, period.AsOf())
	if !derived {
		age = DefaultAge
	}
	gross := grossSalary(staff.BasicSalary, staff.Allowances, adj)
	return Preview{
		StaffID:     staff.ID,
		Year:        period.Year,
		Month:       period.Month,
		Age:         age,
		AgeDerived:  derived,
		GrossSalary: gross,
		Statutory:   ResolveAll(staff.BasicSalary, gross, age, tables),
	}
}

// Generate builds a payslip from a staff snapshot. It does not persist anything.
func Generate(in GenerateInput) (Payslip, error) {
	if !in.Period.Open() {
		return Payslip{}, fmt.Errorf("%w: %04d-%02d", ErrPeriodClosed, in.Period.Year, in.Period.Month)
	}
	for _, prior := range in.Prior {
		if prior.StaffID == in.Staff.ID && prior.Year == in.Period.Year && prior.Month == in.Period.Month {
			return Payslip{}, fmt.Errorf("%w: %s %04d-%02d", ErrDuplicatePayslip, in.Staff.EmployeeID, in.Period.Year, in.Period.Month)
		}
	}
	if err := validateStaff(in.Staff); err != nil {
		return Payslip{}, err
	}
	if !in.Adjustments.valid() || in.Statutory.anyNegative() || !in.Statutory.inCents() {
		return Payslip{}, ErrInvalidAdjustment
	}

	slip := snapshot(in.Staff, in.Period)
	slip.Adjustments = in.Adjustments
	slip.Statutory = in.Statutory
	slip.AgeUsed = in.Age
	computeTotals(&slip)
	slip.YearToDate = yearToDate(slip, in.Prior)
	return slip, nil
}

// Recompute refreshes an existing payslip's adjustments and statutory values, keeping
// its snapshot. prior must exclude the payslip itself.
func Recompute(slip Payslip, period Period, adj Adjustments, statutory Statutory, prior []Payslip) (Payslip, error) {
	if slip.IsLocked {
		return Payslip{}, ErrPayslipLocked
	}
	if !period.Open() {
		return Payslip{}, fmt.Errorf("%w: %04d-%02d", ErrPeriodClosed, period.Year, period.Month)
	}
	if !adj.valid() || statutory.anyNegative() || !statutory.inCents() {
		return Payslip{}, ErrInvalidAdjustment
	}
	slip.Adjustments = adj
	slip.Statutory = statutory
	computeTotals(&slip)
	slip.YearToDate = yearToDate(slip, prior)
	return slip, nil
}

func validateStaff(staff Staff) error {
	switch {
	case staff.ID == "":
		return fmt.Errorf("%w: missing id", ErrInvalidStaff)
	case !staff.IsActive:
		return fmt.Errorf("%w: %s is inactive", ErrInvalidStaff, staff.EmployeeID)
	case staff.BasicSalary.IsNegative():
		return fmt.Errorf("%w: %s has a negative basic salary", ErrInvalidStaff, staff.EmployeeID)
	case staff.Allowances.anyNegative():
		return fmt.Errorf("%w: %s has a negative allowance", ErrInvalidStaff, staff.EmployeeID)
	case !wholeCents(staff.BasicSalary) || !staff.Allowances.inCents():
		return fmt.Errorf("%w: %s has pay below one cent", ErrInvalidStaff, staff.EmployeeID)
	}
	return nil
}

func snapshot(staff Staff, period Period) Payslip {
	employeeRate, employerRate := staff.EmployeeEPFRate, staff.EmployerEPFRate
	if employeeRate.IsZero() {
		employeeRate = DefaultEmployeeEPFRate
	}
	if employerRate.IsZero() {
		employerRate = DefaultEmployerEPFRate
	}
	return Payslip{
		StaffID:         staff.ID,
		PeriodID:        period.ID,
		Year:            period.Year,
		Month:           period.Month,
		EmployeeID:      staff.EmployeeID,
		FullName:        staff.FullName,
		NationalID:      staff.NationalID,
		Designation:     staff.Designation,
		Department:      staff.Department,
		EPFNumber:       staff.EPFNumber,
		SOCSONumber:     staff.SOCSONumber,
		TaxNumber:       staff.TaxNumber,
		EmployeeEPFRate: employeeRate,
		EmployerEPFRate: employerRate,
		BasicSalary:     staff.BasicSalary,
		Allowances:      staff.Allowances,
	}
}

func grossSalary(basic decimal.Decimal, allowances Allowances, adj Adjustments) decimal.Decimal {
	return basic.Add(allowances.Total()).Add(adj.earnings())
}

// computeTotals derives gross, deductions and nett. Employer contributions are
// informational and never reduce nett pay.
func computeTotals(slip *Payslip) {
	slip.GrossSalary = grossSalary(slip.BasicSalary, slip.Allowances, slip.Adjustments)
	slip.TotalDeductions = slip.Statutory.employeeTotal().
		Add(slip.PCB).
		Add(slip.LoanDeduction).
		Add(slip.OtherDeductions)
	slip.NettPay = slip.GrossSalary.Sub(slip.TotalDeductions)
}

// yearToDate sums earlier months of the same staff and year plus the slip's own values.
func yearToDate(slip Payslip, prior []Payslip) YearToDate {
	ytd := YearToDate{
		YTDGross:       slip.GrossSalary,
		YTDEPFEmployee: slip.EPFEmployee,
		YTDEPFEmployer: slip.EPFEmployer,
		YTDPCB:         slip.PCB,
	}
	for _, p := range prior {
		if p.StaffID != slip.StaffID || p.Year != slip.Year || p.Month >= slip.Month {
			continue
		}
		ytd.YTDGross = ytd.YTDGross.Add(p.GrossSalary)
		ytd.YTDEPFEmployee = ytd.YTDEPFEmployee.Add(p.EPFEmployee)
		ytd.YTDEPFEmployer = ytd.YTDEPFEmployer.Add(p.EPFEmployer)
		ytd.YTDPCB = ytd.YTDPCB.Add(p.PCB)
	}
	return ytd
}
