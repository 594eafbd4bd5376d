package payroll

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const rateSheetName = "Sheet1"

var rateSheetHeader = []string{"min_wage", "max_wage", "employee_amount", "employer_amount"}

// sample rows shown in downloaded templates
var rateSheetSamples = map[RateType][][]any{
	RateTypeEPF: {
		{"0.01", "10.00", "0.00", "0.00"},
		{"10.01", "20.00", "3.00", "3.00"},
	},
	RateTypeSOCSO: {
		{"0.01", "30.00", "0.10", "0.40"},
		{"30.01", "50.00", "0.20", "0.70"},
	},
	RateTypeEIS: {
		{"0.01", "30.00", "0.05", "0.05"},
		{"30.01", "50.00", "0.10", "0.10"},
	},
}

// RateSheetTemplate renders an xlsx template for uploading a bracket table.
func RateSheetTemplate(rateType RateType) (*bytes.Buffer, error) {
	if _, ok := ParseRateType(string(rateType)); !ok {
		return nil, fmt.Errorf("%w: unknown rate type %q", ErrMalformedRateTable, rateType)
	}
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	header := make([]any, len(rateSheetHeader))
	for i, h := range rateSheetHeader {
		header[i] = h
	}
	if err := f.SetSheetRow(rateSheetName, "A1", &header); err != nil {
		return nil, err
	}
	for i, row := range rateSheetSamples[rateType] {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		values := row
		if err := f.SetSheetRow(rateSheetName, cell, &values); err != nil {
			return nil, err
		}
	}
	if err := f.SetColWidth(rateSheetName, "A", "D", 18); err != nil {
		return nil, err
	}
	return f.WriteToBuffer()
}

// ParseRateSheet reads an uploaded xlsx into a validated rate table. The first sheet is
// used; a header row is required and blank rows are skipped.
func ParseRateSheet(rateType RateType, r io.Reader) (*RateTable, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedRateTable, err)
	}
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, fmt.Errorf("%w: no worksheet found", ErrMalformedRateTable)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedRateTable, err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("%w: worksheet has no brackets", ErrMalformedRateTable)
	}
	if err := checkRateSheetHeader(rows[0]); err != nil {
		return nil, err
	}

	table := &RateTable{Type: rateType}
	for i, row := range rows[1:] {
		if blankRow(row) {
			continue
		}
		if len(row) < len(rateSheetHeader) {
			return nil, fmt.Errorf("%w: row %d has %d columns", ErrMalformedRateTable, i+2, len(row))
		}
		values := make([]decimal.Decimal, len(rateSheetHeader))
		for col := range rateSheetHeader {
			raw := strings.ReplaceAll(strings.TrimSpace(row[col]), ",", "")
			v, err := decimal.NewFromString(raw)
			if err != nil {
				return nil, fmt.Errorf("%w: row %d column %s: %q is not a number", ErrMalformedRateTable, i+2, rateSheetHeader[col], row[col])
			}
			values[col] = v
		}
		table.Brackets = append(table.Brackets, Bracket{
			MinWage:        values[0],
			MaxWage:        values[1],
			EmployeeAmount: values[2],
			EmployerAmount: values[3],
		})
	}
	if err := ValidateRateTable(table); err != nil {
		return nil, err
	}
	return table, nil
}

func checkRateSheetHeader(row []string) error {
	if len(row) < len(rateSheetHeader) {
		return fmt.Errorf("%w: header must be %s", ErrMalformedRateTable, strings.Join(rateSheetHeader, ", "))
	}
	for i, want := range rateSheetHeader {
		if strings.ToLower(strings.TrimSpace(row[i])) != want {
			return fmt.Errorf("%w: header must be %s", ErrMalformedRateTable, strings.Join(rateSheetHeader, ", "))
		}
	}
	return nil
}

func blankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
