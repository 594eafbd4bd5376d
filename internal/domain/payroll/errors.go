package payroll

import "errors"

var (
	ErrPeriodClosed       = errors.New("payroll period is closed")
	ErrDuplicatePayslip   = errors.New("payslip already exists for staff and period")
	ErrInvalidStaff       = errors.New("staff record is not eligible for payroll")
	ErrNoDataAvailable    = errors.New("no payslips available for staff and year")
	ErrMalformedRateTable = errors.New("statutory rate table is malformed")

	ErrInvalidAdjustment = errors.New("payslip adjustments cannot be negative")
	ErrPayslipLocked     = errors.New("payslip is locked")
	ErrStaffNotFound     = errors.New("staff not found")
	ErrPeriodNotFound    = errors.New("payroll period not found")
	ErrPeriodExists      = errors.New("payroll period already exists")
	ErrPayslipNotFound   = errors.New("payslip not found")
	ErrInvalidPeriod     = errors.New("payroll period is out of range")
)
