package payroll

import (
	"time"

	"github.com/shopspring/decimal"
)

type Allowances struct {
	Housing   decimal.Decimal `json:"housing_allowance"`
	Transport decimal.Decimal `json:"transport_allowance"`
	Meal      decimal.Decimal `json:"meal_allowance"`
	Phone     decimal.Decimal `json:"phone_allowance"`
	Other     decimal.Decimal `json:"other_allowance"`
}

func (a Allowances) Total() decimal.Decimal {
	return a.Housing.Add(a.Transport).Add(a.Meal).Add(a.Phone).Add(a.Other)
}

func (a Allowances) add(b Allowances) Allowances {
	return Allowances{
		Housing:   a.Housing.Add(b.Housing),
		Transport: a.Transport.Add(b.Transport),
		Meal:      a.Meal.Add(b.Meal),
		Phone:     a.Phone.Add(b.Phone),
		Other:     a.Other.Add(b.Other),
	}
}

// wholeCents reports whether every value is representable in cents.
func wholeCents(values ...decimal.Decimal) bool {
	for _, v := range values {
		if !v.Equal(v.Round(2)) {
			return false
		}
	}
	return true
}

func (a Allowances) inCents() bool {
	return wholeCents(a.Housing, a.Transport, a.Meal, a.Phone, a.Other)
}

func (a Allowances) anyNegative() bool {
	for _, v := range []decimal.Decimal{a.Housing, a.Transport, a.Meal, a.Phone, a.Other} {
		if v.IsNegative() {
			return true
		}
	}
	return false
}

type Staff struct {
	ID          string          `json:"id"`
	UserID      string          `json:"user_id,omitempty"`
	EmployeeID  string          `json:"employee_id"`
	FullName    string          `json:"full_name"`
	NationalID  string          `json:"nric"`
	Designation string          `json:"designation,omitempty"`
	Department  string          `json:"department,omitempty"`
	BasicSalary decimal.Decimal `json:"basic_salary"`
	Allowances
	EmployeeEPFRate decimal.Decimal `json:"employee_epf_rate"`
	EmployerEPFRate decimal.Decimal `json:"employer_epf_rate"`
	EPFNumber       string          `json:"epf_number,omitempty"`
	SOCSONumber     string          `json:"socso_number,omitempty"`
	TaxNumber       string          `json:"tax_number,omitempty"`
	IsActive        bool            `json:"is_active"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

type StaffFilter struct {
	ActiveOnly bool
	Search     string
}

type Bracket struct {
	MinWage        decimal.Decimal `json:"min_wage"`
	MaxWage        decimal.Decimal `json:"max_wage"`
	EmployeeAmount decimal.Decimal `json:"employee_amount"`
	EmployerAmount decimal.Decimal `json:"employer_amount"`
}

func (b Bracket) contains(wage decimal.Decimal) bool {
	return wage.GreaterThanOrEqual(b.MinWage) && wage.LessThanOrEqual(b.MaxWage)
}

type RateTable struct {
	Type     RateType  `json:"rate_type"`
	Brackets []Bracket `json:"brackets"`
}

// RateTables holds the uploaded tables keyed by type; a missing key means formula defaults.
type RateTables map[RateType]*RateTable

type Period struct {
	ID        string     `json:"id"`
	Year      int        `json:"year"`
	Month     int        `json:"month"`
	Status    string     `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
	ClosedAt  *time.Time `json:"closed_at,omitempty"`
}

func (p Period) Open() bool {
	return p.Status == PeriodStatusOpen
}

// AsOf is the reference date used for age derivation within the period.
func (p Period) AsOf() time.Time {
	return time.Date(p.Year, time.Month(p.Month), 1, 0, 0, 0, 0, time.UTC)
}

type Contribution struct {
	Employee decimal.Decimal `json:"employee"`
	Employer decimal.Decimal `json:"employer"`
}

type Statutory struct {
	EPFEmployee   decimal.Decimal `json:"epf_employee"`
	EPFEmployer   decimal.Decimal `json:"epf_employer"`
	SOCSOEmployee decimal.Decimal `json:"socso_employee"`
	SOCSOEmployer decimal.Decimal `json:"socso_employer"`
	EISEmployee   decimal.Decimal `json:"eis_employee"`
	EISEmployer   decimal.Decimal `json:"eis_employer"`
}

func (s Statutory) employeeTotal() decimal.Decimal {
	return s.EPFEmployee.Add(s.SOCSOEmployee).Add(s.EISEmployee)
}

func (s Statutory) anyNegative() bool {
	for _, v := range []decimal.Decimal{s.EPFEmployee, s.EPFEmployer, s.SOCSOEmployee, s.SOCSOEmployer, s.EISEmployee, s.EISEmployer} {
		if v.IsNegative() {
			return true
		}
	}
	return false
}

func (s Statutory) inCents() bool {
	return wholeCents(s.EPFEmployee, s.EPFEmployer, s.SOCSOEmployee, s.SOCSOEmployer, s.EISEmployee, s.EISEmployer)
}

func (s Statutory) add(o Statutory) Statutory {
	return Statutory{
		EPFEmployee:   s.EPFEmployee.Add(o.EPFEmployee),
		EPFEmployer:   s.EPFEmployer.Add(o.EPFEmployer),
		SOCSOEmployee: s.SOCSOEmployee.Add(o.SOCSOEmployee),
		SOCSOEmployer: s.SOCSOEmployer.Add(o.SOCSOEmployer),
		EISEmployee:   s.EISEmployee.Add(o.EISEmployee),
		EISEmployer:   s.EISEmployer.Add(o.EISEmployer),
	}
}

// StatutoryOverrides carries caller edits; nil fields keep the resolved default.
type StatutoryOverrides struct {
	EPFEmployee   *decimal.Decimal `json:"epf_employee,omitempty"`
	EPFEmployer   *decimal.Decimal `json:"epf_employer,omitempty"`
	SOCSOEmployee *decimal.Decimal `json:"socso_employee,omitempty"`
	SOCSOEmployer *decimal.Decimal `json:"socso_employer,omitempty"`
	EISEmployee   *decimal.Decimal `json:"eis_employee,omitempty"`
	EISEmployer   *decimal.Decimal `json:"eis_employer,omitempty"`
}

func (o StatutoryOverrides) Apply(defaults Statutory) Statutory {
	pick := func(v *decimal.Decimal, fallback decimal.Decimal) decimal.Decimal {
		if v == nil {
			return fallback
		}
		return *v
	}
	return Statutory{
		EPFEmployee:   pick(o.EPFEmployee, defaults.EPFEmployee),
		EPFEmployer:   pick(o.EPFEmployer, defaults.EPFEmployer),
		SOCSOEmployee: pick(o.SOCSOEmployee, defaults.SOCSOEmployee),
		SOCSOEmployer: pick(o.SOCSOEmployer, defaults.SOCSOEmployer),
		EISEmployee:   pick(o.EISEmployee, defaults.EISEmployee),
		EISEmployer:   pick(o.EISEmployer, defaults.EISEmployer),
	}
}

type Adjustments struct {
	Overtime        decimal.Decimal `json:"overtime"`
	Bonus           decimal.Decimal `json:"bonus"`
	Commission      decimal.Decimal `json:"commission"`
	PCB             decimal.Decimal `json:"pcb"`
	LoanDeduction   decimal.Decimal `json:"loan_deduction"`
	OtherDeductions decimal.Decimal `json:"other_deductions"`
}

func (a Adjustments) earnings() decimal.Decimal {
	return a.Overtime.Add(a.Bonus).Add(a.Commission)
}

func (a Adjustments) anyNegative() bool {
	for _, v := range []decimal.Decimal{a.Overtime, a.Bonus, a.Commission, a.PCB, a.LoanDeduction, a.OtherDeductions} {
		if v.IsNegative() {
			return true
		}
	}
	return false
}

// valid rejects negative amounts and fractions of a cent.
func (a Adjustments) valid() bool {
	return !a.anyNegative() && wholeCents(a.Overtime, a.Bonus, a.Commission, a.PCB, a.LoanDeduction, a.OtherDeductions)
}

func (a Adjustments) add(b Adjustments) Adjustments {
	return Adjustments{
		Overtime:        a.Overtime.Add(b.Overtime),
		Bonus:           a.Bonus.Add(b.Bonus),
		Commission:      a.Commission.Add(b.Commission),
		PCB:             a.PCB.Add(b.PCB),
		LoanDeduction:   a.LoanDeduction.Add(b.LoanDeduction),
		OtherDeductions: a.OtherDeductions.Add(b.OtherDeductions),
	}
}

type YearToDate struct {
	YTDGross       decimal.Decimal `json:"ytd_gross"`
	YTDEPFEmployee decimal.Decimal `json:"ytd_epf_employee"`
	YTDEPFEmployer decimal.Decimal `json:"ytd_epf_employer"`
	YTDPCB         decimal.Decimal `json:"ytd_pcb"`
}

type Payslip struct {
	ID       string `json:"id"`
	StaffID  string `json:"staff_id"`
	PeriodID string `json:"period_id"`
	Year     int    `json:"year"`
	Month    int    `json:"month"`

	// snapshot at generation time
	EmployeeID      string          `json:"employee_id"`
	FullName        string          `json:"full_name"`
	NationalID      string          `json:"nric,omitempty"`
	Designation     string          `json:"designation,omitempty"`
	Department      string          `json:"department,omitempty"`
	EPFNumber       string          `json:"epf_number,omitempty"`
	SOCSONumber     string          `json:"socso_number,omitempty"`
	TaxNumber       string          `json:"tax_number,omitempty"`
	EmployeeEPFRate decimal.Decimal `json:"epf_employee_rate"`
	EmployerEPFRate decimal.Decimal `json:"epf_employer_rate"`
	BasicSalary     decimal.Decimal `json:"basic_salary"`
	Allowances

	Adjustments
	Statutory

	GrossSalary     decimal.Decimal `json:"gross_salary"`
	TotalDeductions decimal.Decimal `json:"total_deductions"`
	NettPay         decimal.Decimal `json:"nett_pay"`
	YearToDate

	AgeUsed   int       `json:"age_used"`
	IsLocked  bool      `json:"is_locked"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type EmployeeDetails struct {
	StaffID     string `json:"staff_id"`
	EmployeeID  string `json:"employee_id"`
	FullName    string `json:"full_name"`
	NationalID  string `json:"nric,omitempty"`
	Designation string `json:"designation,omitempty"`
	EPFNumber   string `json:"epf_number,omitempty"`
	SOCSONumber string `json:"socso_number,omitempty"`
	TaxNumber   string `json:"tax_number,omitempty"`
}

type AnnualTotals struct {
	BasicSalary decimal.Decimal `json:"basic_salary"`
	Allowances
	Adjustments
	Statutory
	GrossSalary     decimal.Decimal `json:"gross_salary"`
	TotalDeductions decimal.Decimal `json:"total_deductions"`
	NettPay         decimal.Decimal `json:"nett_pay"`
}

type MonthlyLine struct {
	Month         int             `json:"month"`
	GrossSalary   decimal.Decimal `json:"gross_salary"`
	EPFEmployee   decimal.Decimal `json:"epf_employee"`
	SOCSOEmployee decimal.Decimal `json:"socso_employee"`
	EISEmployee   decimal.Decimal `json:"eis_employee"`
	PCB           decimal.Decimal `json:"pcb"`
	NettPay       decimal.Decimal `json:"nett_pay"`
}

type EAFormSummary struct {
	StaffID          string          `json:"staff_id"`
	Year             int             `json:"year"`
	Employee         EmployeeDetails `json:"employee_details"`
	MonthsReported   int             `json:"months_reported"`
	AnnualTotals     AnnualTotals    `json:"annual_totals"`
	MonthlyBreakdown []MonthlyLine   `json:"monthly_breakdown"`
}
