package payroll

import "time"

// AgeFromNationalID derives an age from the YYMMDD prefix of a Malaysian NRIC.
// Two-digit years more than five years past the current year are read as 19YY.
// This is a coarse approximation for statutory brackets, not ID validation.
func AgeFromNationalID(nationalID string, asOf time.Time) (int, bool) {
	if len(nationalID) < 6 {
		return 0, false
	}
	digits := nationalID[:6]
	for i := 0; i < len(digits); i++ {
		if digits[i] < '0' || digits[i] > '9' {
			return 0, false
		}
	}
	month := int(digits[2]-'0')*10 + int(digits[3]-'0')
	day := int(digits[4]-'0')*10 + int(digits[5]-'0')
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return 0, false
	}
	yy := int(digits[0]-'0')*10 + int(digits[1]-'0')
	birthYear := 2000 + yy
	if yy > asOf.Year()%100+5 {
		birthYear = 1900 + yy
	}
	return asOf.Year() - birthYear, true
}

func AgeOrDefault(nationalID string, asOf time.Time) int {
	if age, ok := AgeFromNationalID(nationalID, asOf); ok {
		return age
	}
	return DefaultAge
}
