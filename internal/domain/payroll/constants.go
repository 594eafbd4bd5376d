package payroll

import "github.com/shopspring/decimal"

const (
	PeriodStatusOpen   = "open"
	PeriodStatusClosed = "closed"

	// DefaultAge applies when a national ID does not follow the YYMMDD convention.
	DefaultAge = 30

	// SeniorAge is the first age on the reduced statutory schedule.
	SeniorAge = 60
)

type RateType string

const (
	RateTypeEPF   RateType = "epf"
	RateTypeSOCSO RateType = "socso"
	RateTypeEIS   RateType = "eis"
)

var RateTypes = []RateType{RateTypeEPF, RateTypeSOCSO, RateTypeEIS}

func ParseRateType(raw string) (RateType, bool) {
	for _, rt := range RateTypes {
		if string(rt) == raw {
			return rt, true
		}
	}
	return "", false
}

var (
	hundred = decimal.NewFromInt(100)

	// WageCeiling caps the SOCSO and EIS wage basis.
	WageCeiling = decimal.NewFromInt(6000)

	// EPFEmployerThreshold splits the 13% and 12% employer EPF schedules.
	EPFEmployerThreshold = decimal.NewFromInt(5000)

	DefaultEmployeeEPFRate = decimal.NewFromInt(11)
	DefaultEmployerEPFRate = decimal.NewFromInt(13)
)

// percentages, employee then employer
var (
	epfStandard     = [2]decimal.Decimal{decimal.NewFromInt(11), decimal.NewFromInt(13)}
	epfStandardHigh = [2]decimal.Decimal{decimal.NewFromInt(11), decimal.NewFromInt(12)}
	epfSenior       = [2]decimal.Decimal{decimal.Zero, decimal.NewFromInt(4)}

	socsoStandard = [2]decimal.Decimal{decimal.RequireFromString("0.5"), decimal.RequireFromString("1.75")}
	socsoSenior   = [2]decimal.Decimal{decimal.Zero, decimal.RequireFromString("1.25")}

	eisStandard = [2]decimal.Decimal{decimal.RequireFromString("0.2"), decimal.RequireFromString("0.2")}
	eisSenior   = [2]decimal.Decimal{decimal.Zero, decimal.Zero}
)
