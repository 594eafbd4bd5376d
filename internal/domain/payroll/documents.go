package payroll

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"
)

func monthName(month int) string {
	return time.Month(month).String()
}

func money(v decimal.Decimal) string {
	return "RM " + v.StringFixed(2)
}

type pdfLine struct {
	label string
	value decimal.Decimal
	// optional lines are skipped when zero
	optional bool
}

func writeLines(pdf *gofpdf.Fpdf, title string, lines []pdfLine) {
	pdf.SetFont("Helvetica", "B", 11)
	pdf.Cell(0, 8, title)
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 10)
	for _, l := range lines {
		if l.optional && l.value.IsZero() {
			continue
		}
		pdf.CellFormat(120, 6, l.label, "", 0, "L", false, 0, "")
		pdf.CellFormat(60, 6, money(l.value), "", 1, "R", false, 0, "")
	}
	pdf.Ln(3)
}

// PayslipPDF renders a printable payslip.
func PayslipPDF(companyName string, slip Payslip) (*bytes.Buffer, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 8, companyName, "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, fmt.Sprintf("PAYSLIP FOR %s %d", monthName(slip.Month), slip.Year), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "", 10)
	for _, row := range [][2]string{
		{"Employee Name", slip.FullName},
		{"Employee ID", slip.EmployeeID},
		{"Position", slip.Designation},
		{"Department", slip.Department},
		{"EPF No", slip.EPFNumber},
		{"SOCSO No", slip.SOCSONumber},
		{"Tax No", slip.TaxNumber},
	} {
		value := row[1]
		if value == "" {
			value = "-"
		}
		pdf.CellFormat(45, 6, row[0]+":", "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 6, value, "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	writeLines(pdf, "EARNINGS", []pdfLine{
		{label: "Basic Salary", value: slip.BasicSalary},
		{label: "Housing Allowance", value: slip.Housing, optional: true},
		{label: "Transport Allowance", value: slip.Transport, optional: true},
		{label: "Meal Allowance", value: slip.Meal, optional: true},
		{label: "Phone Allowance", value: slip.Phone, optional: true},
		{label: "Other Allowance", value: slip.Other, optional: true},
		{label: "Overtime", value: slip.Overtime, optional: true},
		{label: "Bonus", value: slip.Bonus, optional: true},
		{label: "Commission", value: slip.Commission, optional: true},
		{label: "GROSS SALARY", value: slip.GrossSalary},
	})
	writeLines(pdf, "DEDUCTIONS", []pdfLine{
		{label: fmt.Sprintf("EPF (%s%%)", slip.EmployeeEPFRate.String()), value: slip.EPFEmployee},
		{label: "SOCSO", value: slip.SOCSOEmployee},
		{label: "EIS", value: slip.EISEmployee},
		{label: "PCB (Tax)", value: slip.PCB, optional: true},
		{label: "Loan Deduction", value: slip.LoanDeduction, optional: true},
		{label: "Other Deductions", value: slip.OtherDeductions, optional: true},
		{label: "TOTAL DEDUCTIONS", value: slip.TotalDeductions},
	})
	writeLines(pdf, "NETT PAY", []pdfLine{{label: "Nett Pay", value: slip.NettPay}})
	writeLines(pdf, "EMPLOYER CONTRIBUTIONS", []pdfLine{
		{label: "EPF", value: slip.EPFEmployer},
		{label: "SOCSO", value: slip.SOCSOEmployer},
		{label: "EIS", value: slip.EISEmployer},
	})
	writeLines(pdf, fmt.Sprintf("YEAR-TO-DATE (%d)", slip.Year), []pdfLine{
		{label: "YTD Gross", value: slip.YTDGross},
		{label: "YTD EPF (EE)", value: slip.YTDEPFEmployee},
		{label: "YTD EPF (ER)", value: slip.YTDEPFEmployer},
		{label: "YTD PCB", value: slip.YTDPCB},
	})

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return &buf, nil
}

// EAFormPDF renders the annual remuneration statement.
func EAFormPDF(companyName string, summary EAFormSummary) (*bytes.Buffer, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 8, companyName, "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, fmt.Sprintf("EA FORM - STATEMENT OF REMUNERATION %d", summary.Year), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "", 10)
	emp := summary.Employee
	pdf.Cell(0, 6, fmt.Sprintf("Name: %s (%s)", emp.FullName, emp.EmployeeID))
	pdf.Ln(6)
	pdf.Cell(0, 6, fmt.Sprintf("Tax No: %s   EPF No: %s   SOCSO No: %s", dash(emp.TaxNumber), dash(emp.EPFNumber), dash(emp.SOCSONumber)))
	pdf.Ln(10)

	t := summary.AnnualTotals
	writeLines(pdf, "ANNUAL TOTALS", []pdfLine{
		{label: "Basic Salary", value: t.BasicSalary},
		{label: "Allowances", value: t.Allowances.Total()},
		{label: "Overtime", value: t.Overtime, optional: true},
		{label: "Bonus", value: t.Bonus, optional: true},
		{label: "Commission", value: t.Commission, optional: true},
		{label: "Gross Remuneration", value: t.GrossSalary},
		{label: "EPF (Employee)", value: t.EPFEmployee},
		{label: "SOCSO (Employee)", value: t.SOCSOEmployee},
		{label: "EIS (Employee)", value: t.EISEmployee},
		{label: "PCB", value: t.PCB},
		{label: "Nett Pay", value: t.NettPay},
	})

	pdf.SetFont("Helvetica", "B", 9)
	header := []string{"Month", "Gross", "EPF", "SOCSO", "EIS", "PCB", "Nett"}
	widths := []float64{30, 27, 25, 25, 25, 25, 27}
	for i, h := range header {
		pdf.CellFormat(widths[i], 7, h, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont("Helvetica", "", 9)
	for _, m := range summary.MonthlyBreakdown {
		cells := []string{
			monthName(m.Month),
			m.GrossSalary.StringFixed(2),
			m.EPFEmployee.StringFixed(2),
			m.SOCSOEmployee.StringFixed(2),
			m.EISEmployee.StringFixed(2),
			m.PCB.StringFixed(2),
			m.NettPay.StringFixed(2),
		}
		for i, c := range cells {
			align := "R"
			if i == 0 {
				align = "L"
			}
			pdf.CellFormat(widths[i], 6, c, "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return &buf, nil
}

func dash(v string) string {
	if v == "" {
		return "-"
	}
	return v
}
