package payroll

import (
	"fmt"
	"sort"
)

// Summarize reduces a staff member's payslips for one year into EA form totals.
// Months without a payslip are absent from both totals and breakdown, never zero-filled.
func Summarize(staffID string, year int, payslips []Payslip) (EAFormSummary, error) {
	months := make([]Payslip, 0, len(payslips))
	for _, p := range payslips {
		if p.StaffID == staffID && p.Year == year {
			months = append(months, p)
		}
	}
	if len(months) == 0 {
		return EAFormSummary{}, fmt.Errorf("%w: %s %d", ErrNoDataAvailable, staffID, year)
	}
	sort.SliceStable(months, func(i, j int) bool { return months[i].Month < months[j].Month })

	var totals AnnualTotals
	breakdown := make([]MonthlyLine, 0, len(months))
	for _, p := range months {
		totals.BasicSalary = totals.BasicSalary.Add(p.BasicSalary)
		totals.Allowances = totals.Allowances.add(p.Allowances)
		totals.Adjustments = totals.Adjustments.add(p.Adjustments)
		totals.Statutory = totals.Statutory.add(p.Statutory)
		totals.GrossSalary = totals.GrossSalary.Add(p.GrossSalary)
		totals.TotalDeductions = totals.TotalDeductions.Add(p.TotalDeductions)
		totals.NettPay = totals.NettPay.Add(p.NettPay)

		breakdown = append(breakdown, MonthlyLine{
			Month:         p.Month,
			GrossSalary:   p.GrossSalary,
			EPFEmployee:   p.EPFEmployee,
			SOCSOEmployee: p.SOCSOEmployee,
			EISEmployee:   p.EISEmployee,
			PCB:           p.PCB,
			NettPay:       p.NettPay,
		})
	}

	latest := months[len(months)-1]
	return EAFormSummary{
		StaffID: staffID,
		Year:    year,
		Employee: EmployeeDetails{
			StaffID:     staffID,
			EmployeeID:  latest.EmployeeID,
			FullName:    latest.FullName,
			NationalID:  latest.NationalID,
			Designation: latest.Designation,
			EPFNumber:   latest.EPFNumber,
			SOCSONumber: latest.SOCSONumber,
			TaxNumber:   latest.TaxNumber,
		},
		MonthsReported:   len(months),
		AnnualTotals:     totals,
		MonthlyBreakdown: breakdown,
	}, nil
}
