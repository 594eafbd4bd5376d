package payroll

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// Resolve returns the contribution for one statutory scheme. An uploaded bracket
// containing the wage basis is returned verbatim; otherwise the age-gated formula applies.
// SOCSO and EIS bases are capped at WageCeiling.
func Resolve(rateType RateType, wageBasis decimal.Decimal, age int, table *RateTable) Contribution {
	if rateType == RateTypeSOCSO || rateType == RateTypeEIS {
		wageBasis = capWage(wageBasis)
	}
	if bracket, ok := table.lookup(wageBasis); ok {
		return Contribution{Employee: bracket.EmployeeAmount, Employer: bracket.EmployerAmount}
	}
	rates := formulaRates(rateType, wageBasis, age)
	return Contribution{
		Employee: percentOf(wageBasis, rates[0]),
		Employer: percentOf(wageBasis, rates[1]),
	}
}

// ResolveAll computes the advisory statutory six-tuple for a staff member.
// EPF is based on basic salary, SOCSO and EIS on gross.
func ResolveAll(basicSalary, gross decimal.Decimal, age int, tables RateTables) Statutory {
	epf := Resolve(RateTypeEPF, basicSalary, age, tables[RateTypeEPF])
	socso := Resolve(RateTypeSOCSO, gross, age, tables[RateTypeSOCSO])
	eis := Resolve(RateTypeEIS, gross, age, tables[RateTypeEIS])
	return Statutory{
		EPFEmployee:   epf.Employee,
		EPFEmployer:   epf.Employer,
		SOCSOEmployee: socso.Employee,
		SOCSOEmployer: socso.Employer,
		EISEmployee:   eis.Employee,
		EISEmployer:   eis.Employer,
	}
}

func formulaRates(rateType RateType, wageBasis decimal.Decimal, age int) [2]decimal.Decimal {
	senior := age >= SeniorAge
	switch rateType {
	case RateTypeEPF:
		if senior {
			return epfSenior
		}
		if wageBasis.GreaterThan(EPFEmployerThreshold) {
			return epfStandardHigh
		}
		return epfStandard
	case RateTypeSOCSO:
		if senior {
			return socsoSenior
		}
		return socsoStandard
	case RateTypeEIS:
		if senior {
			return eisSenior
		}
		return eisStandard
	}
	return [2]decimal.Decimal{}
}

// percentOf rounds wage*rate/100 to cents, half away from zero.
func percentOf(wage, rate decimal.Decimal) decimal.Decimal {
	return wage.Mul(rate).Div(hundred).Round(2)
}

func capWage(wage decimal.Decimal) decimal.Decimal {
	if wage.GreaterThan(WageCeiling) {
		return WageCeiling
	}
	return wage
}

// lookup picks the narrowest bracket whose inclusive range contains the wage.
func (t *RateTable) lookup(wage decimal.Decimal) (Bracket, bool) {
	if t == nil {
		return Bracket{}, false
	}
	var (
		best  Bracket
		found bool
	)
	for _, b := range t.Brackets {
		if !b.contains(wage) {
			continue
		}
		if !found || b.MaxWage.Sub(b.MinWage).LessThan(best.MaxWage.Sub(best.MinWage)) {
			best = b
			found = true
		}
	}
	return best, found
}

// ValidateRateTable sorts the brackets by MinWage and rejects inverted ranges, negative or
// sub-cent values and brackets that share any wage.
func ValidateRateTable(table *RateTable) error {
	if table == nil {
		return fmt.Errorf("%w: missing table", ErrMalformedRateTable)
	}
	if _, ok := ParseRateType(string(table.Type)); !ok {
		return fmt.Errorf("%w: unknown rate type %q", ErrMalformedRateTable, table.Type)
	}
	if len(table.Brackets) == 0 {
		return fmt.Errorf("%w: no brackets", ErrMalformedRateTable)
	}
	sort.SliceStable(table.Brackets, func(i, j int) bool {
		return table.Brackets[i].MinWage.LessThan(table.Brackets[j].MinWage)
	})
	for i, b := range table.Brackets {
		if b.MinWage.IsNegative() || b.EmployeeAmount.IsNegative() || b.EmployerAmount.IsNegative() {
			return fmt.Errorf("%w: bracket %s-%s has negative values", ErrMalformedRateTable, b.MinWage, b.MaxWage)
		}
		if !wholeCents(b.MinWage, b.MaxWage, b.EmployeeAmount, b.EmployerAmount) {
			return fmt.Errorf("%w: bracket %s-%s has values below one cent", ErrMalformedRateTable, b.MinWage, b.MaxWage)
		}
		if b.MaxWage.LessThan(b.MinWage) {
			return fmt.Errorf("%w: bracket %s-%s is inverted", ErrMalformedRateTable, b.MinWage, b.MaxWage)
		}
		if i > 0 {
			prev := table.Brackets[i-1]
			if b.MinWage.LessThanOrEqual(prev.MaxWage) {
				return fmt.Errorf("%w: bracket %s-%s overlaps %s-%s", ErrMalformedRateTable, b.MinWage, b.MaxWage, prev.MinWage, prev.MaxWage)
			}
		}
	}
	return nil
}
