package payroll

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sheetBytes(t *testing.T, rows [][]any) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		values := row
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &values))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf
}

func TestRateSheetTemplateRoundTrip(t *testing.T) {
	for _, rt := range RateTypes {
		buf, err := RateSheetTemplate(rt)
		require.NoError(t, err)

		table, err := ParseRateSheet(rt, buf)
		require.NoError(t, err, rt)
		assert.Equal(t, rt, table.Type)
		assert.Len(t, table.Brackets, 2)
	}
}

func TestRateSheetTemplateRejectsUnknownType(t *testing.T) {
	_, err := RateSheetTemplate("pcb")
	assert.ErrorIs(t, err, ErrMalformedRateTable)
}

func TestParseRateSheet(t *testing.T) {
	buf := sheetBytes(t, [][]any{
		{"MIN_WAGE", "max_wage", "employee_amount", "employer_amount"},
		{2000.01, 2100, "10.25", "35.85"},
		{},
		{"1,900.01", "2,000", 9.75, 34.15},
	})

	table, err := ParseRateSheet(RateTypeSOCSO, buf)
	require.NoError(t, err)
	require.Len(t, table.Brackets, 2)
	assertMoney(t, "1900.01", table.Brackets[0].MinWage)
	assertMoney(t, "34.15", table.Brackets[0].EmployerAmount)
	assertMoney(t, "2100.00", table.Brackets[1].MaxWage)
}

func TestParseRateSheetRejectsMalformed(t *testing.T) {
	cases := map[string][][]any{
		"bad header":   {{"from", "to", "ee", "er"}, {1, 2, 3, 4}},
		"header only":  {{"min_wage", "max_wage", "employee_amount", "employer_amount"}},
		"not a number": {{"min_wage", "max_wage", "employee_amount", "employer_amount"}, {"abc", 2, 3, 4}},
		"short row":    {{"min_wage", "max_wage", "employee_amount", "employer_amount"}, {1, 2}},
		"overlap": {
			{"min_wage", "max_wage", "employee_amount", "employer_amount"},
			{0, 100, 1, 1},
			{50, 200, 2, 2},
		},
	}
	for name, rows := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseRateSheet(RateTypeEPF, sheetBytes(t, rows))
			assert.ErrorIs(t, err, ErrMalformedRateTable)
		})
	}

	_, err := ParseRateSheet(RateTypeEPF, bytes.NewBufferString("not a workbook"))
	assert.ErrorIs(t, err, ErrMalformedRateTable)
}
