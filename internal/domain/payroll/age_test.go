package payroll

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAgeFromNationalID(t *testing.T) {
	asOf := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		name  string
		id    string
		age   int
		valid bool
	}{
		{"1980s birth year", "850101-14-5678", 40, true},
		{"no separators", "850101145678", 40, true},
		{"2000s birth year", "050612-10-1234", 20, true},
		{"near-future year stays in 2000s", "300101-01-0001", -5, true},
		{"just past the window goes to 1900s", "310101-01-0001", 94, true},
		{"senior", "640101-01-0001", 61, true},
		{"too short", "85010", 0, false},
		{"passport", "A1234567", 0, false},
		{"month out of range", "851301-14-5678", 0, false},
		{"day out of range", "850132-14-5678", 0, false},
		{"zero day", "850100-14-5678", 0, false},
		{"empty", "", 0, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			age, ok := AgeFromNationalID(tc.id, asOf)
			assert.Equal(t, tc.valid, ok)
			assert.Equal(t, tc.age, age)
		})
	}
}

func TestAgeIgnoresMonthAndDay(t *testing.T) {
	jan := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	dec := time.Date(2025, time.December, 31, 0, 0, 0, 0, time.UTC)

	a, _ := AgeFromNationalID("851231-14-5678", jan)
	b, _ := AgeFromNationalID("851231-14-5678", dec)
	assert.Equal(t, 40, a)
	assert.Equal(t, a, b)
}

func TestAgeOrDefault(t *testing.T) {
	asOf := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, DefaultAge, AgeOrDefault("P9988776", asOf))
	assert.Equal(t, 40, AgeOrDefault("850101-14-5678", asOf))
}
