package payroll

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStaff() Staff {
	return Staff{
		ID:          "s1",
		EmployeeID:  "EMP001",
		FullName:    "Aisyah Rahman",
		NationalID:  "850101-14-5678",
		BasicSalary: d("3000"),
		IsActive:    true,
	}
}

func openPeriod(year, month int) Period {
	return Period{ID: "p1", Year: year, Month: month, Status: PeriodStatusOpen}
}

func generateWithDefaults(t *testing.T, staff Staff, period Period, adj Adjustments, prior []Payslip) Payslip {
	t.Helper()
	preview := PreviewStatutory(staff, period, adj, nil)
	slip, err := Generate(GenerateInput{
		Staff:       staff,
		Period:      period,
		Adjustments: adj,
		Statutory:   preview.Statutory,
		Prior:       prior,
		Age:         preview.Age,
	})
	require.NoError(t, err)
	return slip
}

func TestGenerateStandardScenario(t *testing.T) {
	slip := generateWithDefaults(t, testStaff(), openPeriod(2025, 3), Adjustments{}, nil)

	assert.Equal(t, 40, slip.AgeUsed)
	assertMoney(t, "3000.00", slip.GrossSalary)
	assertMoney(t, "351.00", slip.TotalDeductions)
	assertMoney(t, "2649.00", slip.NettPay)
	assertMoney(t, "390.00", slip.EPFEmployer)
	assertMoney(t, "3000.00", slip.YTDGross)
	assertMoney(t, "330.00", slip.YTDEPFEmployee)
}

func TestGenerateSeniorScenario(t *testing.T) {
	staff := testStaff()
	staff.NationalID = "640101-01-0001"
	slip := generateWithDefaults(t, staff, openPeriod(2025, 3), Adjustments{}, nil)

	assert.Equal(t, 61, slip.AgeUsed)
	assertMoney(t, "0.00", slip.TotalDeductions)
	assertMoney(t, "3000.00", slip.NettPay)
	assertMoney(t, "120.00", slip.EPFEmployer)
	assertMoney(t, "37.50", slip.SOCSOEmployer)
	assertMoney(t, "0.00", slip.EISEmployer)
}

func TestGenerateTotalsInvariant(t *testing.T) {
	staff := testStaff()
	staff.Allowances = Allowances{Housing: d("500"), Transport: d("150.50"), Meal: d("80"), Phone: d("50"), Other: d("19.50")}
	adj := Adjustments{
		Overtime:        d("240.25"),
		Bonus:           d("1000"),
		Commission:      d("310"),
		PCB:             d("125.40"),
		LoanDeduction:   d("200"),
		OtherDeductions: d("15"),
	}
	slip := generateWithDefaults(t, staff, openPeriod(2025, 6), adj, nil)

	wantGross := d("3000").Add(d("800")).Add(d("1550.25"))
	assert.True(t, wantGross.Equal(slip.GrossSalary), "gross %s", slip.GrossSalary)

	wantDeductions := slip.EPFEmployee.Add(slip.SOCSOEmployee).Add(slip.EISEmployee).
		Add(adj.PCB).Add(adj.LoanDeduction).Add(adj.OtherDeductions)
	assert.True(t, wantDeductions.Equal(slip.TotalDeductions))
	assert.True(t, slip.GrossSalary.Sub(slip.TotalDeductions).Equal(slip.NettPay))
	for _, v := range []decimal.Decimal{slip.GrossSalary, slip.TotalDeductions, slip.NettPay} {
		assert.Truef(t, v.Equal(v.Round(2)), "%s carries a sub-cent residue", v)
	}

	// EPF on basic only, SOCSO and EIS on capped gross
	assertMoney(t, "330.00", slip.EPFEmployee)
	assertMoney(t, "26.75", slip.SOCSOEmployee)
	assertMoney(t, "10.70", slip.EISEmployee)
}

func TestGenerateAcceptsCallerStatutory(t *testing.T) {
	statutory := Statutory{EPFEmployee: d("100"), EPFEmployer: d("1"), SOCSOEmployee: d("2"), EISEmployee: d("3")}
	slip, err := Generate(GenerateInput{Staff: testStaff(), Period: openPeriod(2025, 1), Statutory: statutory, Age: 40})
	require.NoError(t, err)

	assertMoney(t, "105.00", slip.TotalDeductions)
	assertMoney(t, "2895.00", slip.NettPay)
	assertMoney(t, "1.00", slip.EPFEmployer)
}

func TestGenerateSnapshotsStaff(t *testing.T) {
	staff := testStaff()
	staff.EPFNumber = "EPF-1"
	slip := generateWithDefaults(t, staff, openPeriod(2025, 1), Adjustments{}, nil)

	staff.BasicSalary = d("9999")
	staff.FullName = "Changed"
	assertMoney(t, "3000.00", slip.BasicSalary)
	assert.Equal(t, "Aisyah Rahman", slip.FullName)
	assert.Equal(t, "EPF-1", slip.EPFNumber)
	assertMoney(t, "11.00", slip.EmployeeEPFRate)
	assertMoney(t, "13.00", slip.EmployerEPFRate)
}

func TestGenerateYearToDate(t *testing.T) {
	staff := testStaff()
	jan := generateWithDefaults(t, staff, openPeriod(2025, 1), Adjustments{PCB: d("50")}, nil)
	feb := generateWithDefaults(t, staff, openPeriod(2025, 2), Adjustments{PCB: d("60")}, []Payslip{jan})

	other := jan
	other.StaffID = "s2"
	lastYear := jan
	lastYear.Year = 2024
	later := jan
	later.Month = 4

	mar := generateWithDefaults(t, staff, openPeriod(2025, 3), Adjustments{PCB: d("70")}, []Payslip{jan, feb, other, lastYear, later})

	assertMoney(t, "9000.00", mar.YTDGross)
	assertMoney(t, "990.00", mar.YTDEPFEmployee)
	assertMoney(t, "1170.00", mar.YTDEPFEmployer)
	assertMoney(t, "180.00", mar.YTDPCB)
}

func TestGenerateRejectsClosedPeriod(t *testing.T) {
	period := openPeriod(2025, 1)
	period.Status = PeriodStatusClosed
	_, err := Generate(GenerateInput{Staff: testStaff(), Period: period})
	assert.ErrorIs(t, err, ErrPeriodClosed)
}

func TestGenerateRejectsDuplicate(t *testing.T) {
	staff := testStaff()
	existing := Payslip{StaffID: staff.ID, Year: 2025, Month: 1}
	_, err := Generate(GenerateInput{Staff: staff, Period: openPeriod(2025, 1), Prior: []Payslip{existing}})
	assert.ErrorIs(t, err, ErrDuplicatePayslip)
}

func TestGenerateReportsDuplicateBeforeInactiveStaff(t *testing.T) {
	staff := testStaff()
	staff.IsActive = false
	existing := Payslip{StaffID: staff.ID, Year: 2025, Month: 1}
	_, err := Generate(GenerateInput{Staff: staff, Period: openPeriod(2025, 1), Prior: []Payslip{existing}})
	assert.ErrorIs(t, err, ErrDuplicatePayslip)
}

func TestGenerateRejectsSubCentAmounts(t *testing.T) {
	staff := testStaff()
	period := openPeriod(2025, 3)
	statutory := ResolveAll(staff.BasicSalary, staff.BasicSalary, 40, nil)

	_, err := Generate(GenerateInput{
		Staff: staff, Period: period, Statutory: statutory, Age: 40,
		Adjustments: Adjustments{Overtime: d("0.006"), PCB: d("0.004")},
	})
	assert.ErrorIs(t, err, ErrInvalidAdjustment)

	overridden := statutory
	overridden.SOCSOEmployee = d("15.001")
	_, err = Generate(GenerateInput{Staff: staff, Period: period, Statutory: overridden, Age: 40})
	assert.ErrorIs(t, err, ErrInvalidAdjustment)

	slip, err := Generate(GenerateInput{Staff: staff, Period: period, Statutory: statutory, Age: 40})
	require.NoError(t, err)
	_, err = Recompute(slip, period, Adjustments{Bonus: d("10.001")}, statutory, nil)
	assert.ErrorIs(t, err, ErrInvalidAdjustment)

	staff.BasicSalary = d("3000.005")
	_, err = Generate(GenerateInput{Staff: staff, Period: period, Statutory: statutory, Age: 40})
	assert.ErrorIs(t, err, ErrInvalidStaff)
}

func TestGenerateRejectsInvalidStaff(t *testing.T) {
	cases := map[string]func(*Staff){
		"inactive":           func(s *Staff) { s.IsActive = false },
		"missing id":         func(s *Staff) { s.ID = "" },
		"negative basic":     func(s *Staff) { s.BasicSalary = d("-1") },
		"negative allowance": func(s *Staff) { s.Meal = d("-0.01") },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			staff := testStaff()
			mutate(&staff)
			_, err := Generate(GenerateInput{Staff: staff, Period: openPeriod(2025, 1)})
			assert.ErrorIs(t, err, ErrInvalidStaff)
		})
	}
}

func TestGenerateRejectsNegativeAdjustments(t *testing.T) {
	_, err := Generate(GenerateInput{Staff: testStaff(), Period: openPeriod(2025, 1), Adjustments: Adjustments{Bonus: d("-5")}})
	assert.ErrorIs(t, err, ErrInvalidAdjustment)

	_, err = Generate(GenerateInput{Staff: testStaff(), Period: openPeriod(2025, 1), Statutory: Statutory{EISEmployer: d("-1")}})
	assert.ErrorIs(t, err, ErrInvalidAdjustment)
}

func TestPreviewFallsBackToDefaultAge(t *testing.T) {
	staff := testStaff()
	staff.NationalID = "A1234567"
	preview := PreviewStatutory(staff, openPeriod(2025, 1), Adjustments{}, nil)

	assert.Equal(t, DefaultAge, preview.Age)
	assert.False(t, preview.AgeDerived)
	assertMoney(t, "330.00", preview.Statutory.EPFEmployee)
}

func TestStatutoryOverridesApply(t *testing.T) {
	defaults := ResolveAll(d("3000"), d("3000"), 40, nil)
	zero := d("0")
	overridden := StatutoryOverrides{SOCSOEmployee: &zero}.Apply(defaults)

	assertMoney(t, "0.00", overridden.SOCSOEmployee)
	assertMoney(t, "330.00", overridden.EPFEmployee)
	assertMoney(t, "52.50", overridden.SOCSOEmployer)
}

func TestRecompute(t *testing.T) {
	slip := generateWithDefaults(t, testStaff(), openPeriod(2025, 2), Adjustments{}, nil)
	slip.ID = "ps1"

	statutory := ResolveAll(slip.BasicSalary, d("3500"), slip.AgeUsed, nil)
	updated, err := Recompute(slip, openPeriod(2025, 2), Adjustments{Bonus: d("500")}, statutory, nil)
	require.NoError(t, err)
	assertMoney(t, "3500.00", updated.GrossSalary)
	assertMoney(t, "3500.00", updated.YTDGross)
	assert.Equal(t, "ps1", updated.ID)

	locked := slip
	locked.IsLocked = true
	_, err = Recompute(locked, openPeriod(2025, 2), Adjustments{}, statutory, nil)
	assert.ErrorIs(t, err, ErrPayslipLocked)

	closed := openPeriod(2025, 2)
	closed.Status = PeriodStatusClosed
	_, err = Recompute(slip, closed, Adjustments{}, statutory, nil)
	assert.ErrorIs(t, err, ErrPeriodClosed)
}
