package payroll_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backoffice/internal/domain/payroll"
	"backoffice/internal/domain/payroll/payrolltest"
)

func money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertMoney(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.Truef(t, money(want).Equal(got), "want %s, got %s", want, got)
}

type fixture struct {
	ctx   context.Context
	store *payrolltest.MemStore
	svc   *payroll.Service
	staff payroll.Staff
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()
	store := payrolltest.NewMemStore()
	svc := payroll.NewService(store, "Acme Sdn Bhd")

	staff, err := svc.CreateStaff(ctx, payroll.Staff{
		UserID:      "user-1",
		EmployeeID:  " EMP001 ",
		FullName:    "Aisyah Rahman",
		NationalID:  "850101-14-5678",
		BasicSalary: money("3000"),
		IsActive:    true,
	})
	require.NoError(t, err)
	return fixture{ctx: ctx, store: store, svc: svc, staff: staff}
}

func (f fixture) generate(t *testing.T, month int, adj payroll.Adjustments) payroll.Payslip {
	t.Helper()
	slip, err := f.svc.GeneratePayslip(f.ctx, payroll.PayslipRequest{StaffID: f.staff.ID, Year: 2025, Month: month, Adjustments: adj})
	require.NoError(t, err)
	return slip
}

func (f fixture) open(t *testing.T, months ...int) {
	t.Helper()
	for _, m := range months {
		_, err := f.svc.OpenPeriod(f.ctx, 2025, m)
		require.NoError(t, err)
	}
}

func TestCreateStaffNormalizes(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, "EMP001", f.staff.EmployeeID)
	assert.True(t, f.staff.EmployeeEPFRate.Equal(payroll.DefaultEmployeeEPFRate))
	assert.True(t, f.staff.EmployerEPFRate.Equal(payroll.DefaultEmployerEPFRate))

	_, err := f.svc.CreateStaff(f.ctx, payroll.Staff{EmployeeID: "EMP001", FullName: "Dup", BasicSalary: money("1")})
	assert.ErrorIs(t, err, payroll.ErrInvalidStaff)

	_, err = f.svc.CreateStaff(f.ctx, payroll.Staff{EmployeeID: "EMP002", FullName: "Neg", BasicSalary: money("-1")})
	assert.ErrorIs(t, err, payroll.ErrInvalidStaff)
}

func TestUpdateAndDeactivateStaff(t *testing.T) {
	f := newFixture(t)
	staff := f.staff
	staff.Designation = "Executive"
	updated, err := f.svc.UpdateStaff(f.ctx, staff)
	require.NoError(t, err)
	assert.Equal(t, "Executive", updated.Designation)

	require.NoError(t, f.svc.DeactivateStaff(f.ctx, staff.ID))
	active, err := f.svc.ListStaff(f.ctx, payroll.StaffFilter{ActiveOnly: true})
	require.NoError(t, err)
	assert.Empty(t, active)

	_, err = f.svc.UpdateStaff(f.ctx, payroll.Staff{ID: "missing", EmployeeID: "X", FullName: "X"})
	assert.ErrorIs(t, err, payroll.ErrStaffNotFound)
}

func TestGeneratePayslipComputesAndPersists(t *testing.T) {
	f := newFixture(t)
	f.open(t, 3)

	slip := f.generate(t, 3, payroll.Adjustments{})
	assert.NotEmpty(t, slip.ID)
	assert.Equal(t, 40, slip.AgeUsed)
	assertMoney(t, "2649.00", slip.NettPay)

	stored, err := f.svc.GetPayslip(f.ctx, slip.ID)
	require.NoError(t, err)
	assert.True(t, stored.NettPay.Equal(slip.NettPay))
}

func TestGeneratePayslipHonoursOverrides(t *testing.T) {
	f := newFixture(t)
	f.open(t, 1)

	epf := money("300")
	slip, err := f.svc.GeneratePayslip(f.ctx, payroll.PayslipRequest{
		StaffID:   f.staff.ID,
		Year:      2025,
		Month:     1,
		Overrides: payroll.StatutoryOverrides{EPFEmployee: &epf},
	})
	require.NoError(t, err)
	assertMoney(t, "300.00", slip.EPFEmployee)
	assertMoney(t, "15.00", slip.SOCSOEmployee)
	assertMoney(t, "2679.00", slip.NettPay)
}

func TestGeneratePayslipUsesUploadedRates(t *testing.T) {
	f := newFixture(t)
	f.open(t, 1)
	_, err := f.svc.ReplaceRateTable(f.ctx, payroll.RateTable{Type: payroll.RateTypeSOCSO, Brackets: []payroll.Bracket{
		{MinWage: money("2900.01"), MaxWage: money("3000"), EmployeeAmount: money("14.75"), EmployerAmount: money("51.65")},
	}})
	require.NoError(t, err)

	slip := f.generate(t, 1, payroll.Adjustments{})
	assertMoney(t, "14.75", slip.SOCSOEmployee)
	assertMoney(t, "51.65", slip.SOCSOEmployer)
}

func TestGeneratePayslipFailures(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.GeneratePayslip(f.ctx, payroll.PayslipRequest{StaffID: f.staff.ID, Year: 2025, Month: 1})
	assert.ErrorIs(t, err, payroll.ErrPeriodNotFound)

	_, err = f.svc.GeneratePayslip(f.ctx, payroll.PayslipRequest{StaffID: f.staff.ID, Year: 2025, Month: 13})
	assert.ErrorIs(t, err, payroll.ErrInvalidPeriod)

	f.open(t, 1, 2)
	f.generate(t, 1, payroll.Adjustments{})
	_, err = f.svc.GeneratePayslip(f.ctx, payroll.PayslipRequest{StaffID: f.staff.ID, Year: 2025, Month: 1})
	assert.ErrorIs(t, err, payroll.ErrDuplicatePayslip)

	_, err = f.svc.ClosePeriod(f.ctx, 2025, 2)
	require.NoError(t, err)
	_, err = f.svc.GeneratePayslip(f.ctx, payroll.PayslipRequest{StaffID: f.staff.ID, Year: 2025, Month: 2})
	assert.ErrorIs(t, err, payroll.ErrPeriodClosed)

	f.open(t, 3)
	require.NoError(t, f.svc.DeactivateStaff(f.ctx, f.staff.ID))
	_, err = f.svc.GeneratePayslip(f.ctx, payroll.PayslipRequest{StaffID: f.staff.ID, Year: 2025, Month: 3})
	assert.ErrorIs(t, err, payroll.ErrInvalidStaff)
}

func TestGeneratePayslipAccumulatesYearToDate(t *testing.T) {
	f := newFixture(t)
	f.open(t, 1, 2)
	f.generate(t, 1, payroll.Adjustments{PCB: money("50")})
	feb := f.generate(t, 2, payroll.Adjustments{PCB: money("60")})

	assertMoney(t, "6000.00", feb.YTDGross)
	assertMoney(t, "110.00", feb.YTDPCB)
}

func TestClosePeriodLocksPayslips(t *testing.T) {
	f := newFixture(t)
	f.open(t, 1)
	slip := f.generate(t, 1, payroll.Adjustments{})

	period, err := f.svc.ClosePeriod(f.ctx, 2025, 1)
	require.NoError(t, err)
	assert.Equal(t, payroll.PeriodStatusClosed, period.Status)
	require.NotNil(t, period.ClosedAt)

	_, err = f.svc.ClosePeriod(f.ctx, 2025, 1)
	assert.ErrorIs(t, err, payroll.ErrPeriodClosed)

	_, err = f.svc.UpdatePayslip(f.ctx, slip.ID, payroll.Adjustments{Bonus: money("1")}, payroll.StatutoryOverrides{})
	assert.ErrorIs(t, err, payroll.ErrPayslipLocked)
	assert.ErrorIs(t, f.svc.DeletePayslip(f.ctx, slip.ID), payroll.ErrPayslipLocked)
}

func TestUpdatePayslipRecomputes(t *testing.T) {
	f := newFixture(t)
	f.open(t, 1)
	slip := f.generate(t, 1, payroll.Adjustments{})

	updated, err := f.svc.UpdatePayslip(f.ctx, slip.ID, payroll.Adjustments{Bonus: money("1000")}, payroll.StatutoryOverrides{})
	require.NoError(t, err)
	assertMoney(t, "4000.00", updated.GrossSalary)
	assertMoney(t, "20.00", updated.SOCSOEmployee)
	assertMoney(t, "330.00", updated.EPFEmployee)
	assertMoney(t, "4000.00", updated.YTDGross)

	_, err = f.svc.UpdatePayslip(f.ctx, slip.ID, payroll.Adjustments{Bonus: money("-1")}, payroll.StatutoryOverrides{})
	assert.ErrorIs(t, err, payroll.ErrInvalidAdjustment)
}

func TestDeletePayslipAllowsRegeneration(t *testing.T) {
	f := newFixture(t)
	f.open(t, 1)
	slip := f.generate(t, 1, payroll.Adjustments{})

	require.NoError(t, f.svc.DeletePayslip(f.ctx, slip.ID))
	_, err := f.svc.GetPayslip(f.ctx, slip.ID)
	assert.ErrorIs(t, err, payroll.ErrPayslipNotFound)
	f.generate(t, 1, payroll.Adjustments{})
}

func TestPreviewPayslip(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.PreviewPayslip(f.ctx, payroll.PayslipRequest{StaffID: f.staff.ID, Year: 2025, Month: 5})
	assert.ErrorIs(t, err, payroll.ErrPeriodNotFound)

	f.open(t, 5)
	preview, err := f.svc.PreviewPayslip(f.ctx, payroll.PayslipRequest{StaffID: f.staff.ID, Year: 2025, Month: 5})
	require.NoError(t, err)
	assert.True(t, preview.AgeDerived)
	assertMoney(t, "390.00", preview.Statutory.EPFEmployer)

	_, err = f.svc.PreviewPayslip(f.ctx, payroll.PayslipRequest{StaffID: f.staff.ID, Year: 2025, Month: 5, Adjustments: payroll.Adjustments{PCB: money("-1")}})
	assert.ErrorIs(t, err, payroll.ErrInvalidAdjustment)

	_, err = f.svc.PreviewPayslip(f.ctx, payroll.PayslipRequest{StaffID: f.staff.ID, Year: 2025, Month: 5, Adjustments: payroll.Adjustments{Overtime: money("0.006")}})
	assert.ErrorIs(t, err, payroll.ErrInvalidAdjustment)

	_, err = f.svc.ClosePeriod(f.ctx, 2025, 5)
	require.NoError(t, err)
	_, err = f.svc.PreviewPayslip(f.ctx, payroll.PayslipRequest{StaffID: f.staff.ID, Year: 2025, Month: 5})
	assert.ErrorIs(t, err, payroll.ErrPeriodClosed)
}

func TestGeneratedTotalsStayInCents(t *testing.T) {
	f := newFixture(t)
	f.open(t, 3)

	_, err := f.svc.GeneratePayslip(f.ctx, payroll.PayslipRequest{
		StaffID: f.staff.ID, Year: 2025, Month: 3,
		Adjustments: payroll.Adjustments{Overtime: money("0.006"), PCB: money("0.004")},
	})
	assert.ErrorIs(t, err, payroll.ErrInvalidAdjustment)

	slip := f.generate(t, 3, payroll.Adjustments{Overtime: money("0.01")})
	assertMoney(t, "3000.01", slip.GrossSalary)
	assertMoney(t, "351", slip.TotalDeductions)
	assertMoney(t, "2649.01", slip.NettPay)
	assert.True(t, slip.GrossSalary.Sub(slip.TotalDeductions).Equal(slip.NettPay))
}

func TestCreateStaffRejectsSubCentSalary(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.CreateStaff(f.ctx, payroll.Staff{EmployeeID: "EMP009", FullName: "Sub Cent", BasicSalary: money("2500.555"), IsActive: true})
	assert.ErrorIs(t, err, payroll.ErrInvalidStaff)
}

func TestRateTableLifecycle(t *testing.T) {
	f := newFixture(t)

	empty, err := f.svc.RateTable(f.ctx, payroll.RateTypeEIS)
	require.NoError(t, err)
	assert.Empty(t, empty.Brackets)

	_, err = f.svc.ReplaceRateTable(f.ctx, payroll.RateTable{Type: payroll.RateTypeEIS, Brackets: []payroll.Bracket{
		{MinWage: money("0"), MaxWage: money("100")},
		{MinWage: money("100"), MaxWage: money("200")},
	}})
	assert.ErrorIs(t, err, payroll.ErrMalformedRateTable)

	buf, err := payroll.RateSheetTemplate(payroll.RateTypeEIS)
	require.NoError(t, err)
	saved, err := f.svc.UploadRateSheet(f.ctx, payroll.RateTypeEIS, buf)
	require.NoError(t, err)
	assert.Len(t, saved.Brackets, 2)

	require.NoError(t, f.svc.ClearRateTable(f.ctx, payroll.RateTypeEIS))
	cleared, err := f.svc.RateTable(f.ctx, payroll.RateTypeEIS)
	require.NoError(t, err)
	assert.Empty(t, cleared.Brackets)
}

func TestEAFormAndSelfService(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.EAForm(f.ctx, f.staff.ID, 2025)
	assert.ErrorIs(t, err, payroll.ErrNoDataAvailable)

	f.open(t, 1, 2)
	jan := f.generate(t, 1, payroll.Adjustments{})
	f.generate(t, 2, payroll.Adjustments{})

	summary, err := f.svc.EAForm(f.ctx, f.staff.ID, 2025)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.MonthsReported)
	assertMoney(t, "5298.00", summary.AnnualTotals.NettPay)

	mine, err := f.svc.MyPayslips(f.ctx, "user-1", 2025)
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	myForm, err := f.svc.MyEAForm(f.ctx, "user-1", 2025)
	require.NoError(t, err)
	assert.Equal(t, summary.AnnualTotals.GrossSalary.String(), myForm.AnnualTotals.GrossSalary.String())

	_, err = f.svc.MyPayslips(f.ctx, "stranger", 2025)
	assert.ErrorIs(t, err, payroll.ErrStaffNotFound)

	buf, _, err := f.svc.MyPayslipPDF(f.ctx, "user-1", jan.ID)
	require.NoError(t, err)
	assert.NotZero(t, buf.Len())

	other, err := f.svc.CreateStaff(f.ctx, payroll.Staff{UserID: "user-2", EmployeeID: "EMP002", FullName: "Ben", BasicSalary: money("2000"), IsActive: true})
	require.NoError(t, err)
	_, _, err = f.svc.MyPayslipPDF(f.ctx, other.UserID, jan.ID)
	assert.ErrorIs(t, err, payroll.ErrPayslipNotFound)

	pdf, form, err := f.svc.EAFormPDF(f.ctx, f.staff.ID, 2025)
	require.NoError(t, err)
	assert.NotZero(t, pdf.Len())
	assert.Equal(t, 2025, form.Year)
}

func TestPeriods(t *testing.T) {
	f := newFixture(t)
	f.open(t, 1, 2)

	_, err := f.svc.OpenPeriod(f.ctx, 2025, 1)
	assert.ErrorIs(t, err, payroll.ErrPeriodExists)

	_, err = f.svc.OpenPeriod(f.ctx, 1999, 1)
	assert.ErrorIs(t, err, payroll.ErrInvalidPeriod)

	periods, err := f.svc.ListPeriods(f.ctx, 2025)
	require.NoError(t, err)
	require.Len(t, periods, 2)
	assert.Equal(t, 2, periods[0].Month)
}
