package payroll

import (
	"context"
	"time"
)

type StoreAPI interface {
	CreateStaff(ctx context.Context, staff Staff) (Staff, error)
	UpdateStaff(ctx context.Context, staff Staff) (Staff, error)
	GetStaff(ctx context.Context, id string) (Staff, error)
	GetStaffByUserID(ctx context.Context, userID string) (Staff, error)
	ListStaff(ctx context.Context, filter StaffFilter) ([]Staff, error)
	SetStaffActive(ctx context.Context, id string, active bool) error

	CreatePeriod(ctx context.Context, year, month int) (Period, error)
	GetPeriod(ctx context.Context, year, month int) (Period, error)
	GetPeriodByID(ctx context.Context, id string) (Period, error)
	ListPeriods(ctx context.Context, year int) ([]Period, error)
	ClosePeriod(ctx context.Context, id string, closedAt time.Time) (Period, error)

	RateTables(ctx context.Context) (RateTables, error)
	GetRateTable(ctx context.Context, rateType RateType) (*RateTable, error)
	ReplaceRateTable(ctx context.Context, table *RateTable) error
	DeleteRateTable(ctx context.Context, rateType RateType) error

	ListPayslips(ctx context.Context, staffID string, year int) ([]Payslip, error)
	GetPayslip(ctx context.Context, id string) (Payslip, error)
	InsertPayslip(ctx context.Context, slip Payslip) (Payslip, error)
	UpdatePayslip(ctx context.Context, slip Payslip) (Payslip, error)
	DeletePayslip(ctx context.Context, id string) error

	// InTx runs fn against a store bound to a single transaction.
	InTx(ctx context.Context, fn func(StoreAPI) error) error
}
