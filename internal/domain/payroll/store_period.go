package payroll

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

const periodColumns = `id, year, month, status, created_at, closed_at`

func scanPeriod(row pgx.Row) (Period, error) {
	var p Period
	if err := row.Scan(&p.ID, &p.Year, &p.Month, &p.Status, &p.CreatedAt, &p.ClosedAt); err != nil {
		return Period{}, err
	}
	return p, nil
}

func (s *Store) CreatePeriod(ctx context.Context, year, month int) (Period, error) {
	p, err := scanPeriod(s.DB.QueryRow(ctx, `
    INSERT INTO payroll_periods (year, month, status)
    VALUES ($1,$2,$3)
    RETURNING `+periodColumns, year, month, PeriodStatusOpen))
	if isUniqueViolation(err) {
		return Period{}, fmt.Errorf("%w: %04d-%02d", ErrPeriodExists, year, month)
	}
	return p, err
}

func (s *Store) GetPeriod(ctx context.Context, year, month int) (Period, error) {
	p, err := scanPeriod(s.DB.QueryRow(ctx, `
    SELECT `+periodColumns+` FROM payroll_periods WHERE year = $1 AND month = $2`, year, month))
	return p, notFound(err, ErrPeriodNotFound)
}

func (s *Store) GetPeriodByID(ctx context.Context, id string) (Period, error) {
	p, err := scanPeriod(s.DB.QueryRow(ctx, `SELECT `+periodColumns+` FROM payroll_periods WHERE id = $1`, id))
	return p, notFound(err, ErrPeriodNotFound)
}

func (s *Store) ListPeriods(ctx context.Context, year int) ([]Period, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+periodColumns+`
    FROM payroll_periods
    WHERE ($1 = 0 OR year = $1)
    ORDER BY year DESC, month DESC
  `, year)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var periods []Period
	for rows.Next() {
		p, err := scanPeriod(rows)
		if err != nil {
			return nil, err
		}
		periods = append(periods, p)
	}
	return periods, rows.Err()
}

// ClosePeriod marks the period closed and locks every payslip belonging to it.
func (s *Store) ClosePeriod(ctx context.Context, id string, closedAt time.Time) (Period, error) {
	var closed Period
	err := s.InTx(ctx, func(tx StoreAPI) error {
		txs := tx.(*Store)
		p, err := scanPeriod(txs.DB.QueryRow(ctx, `
      UPDATE payroll_periods SET status = $2, closed_at = $3
      WHERE id = $1 AND status = $4
      RETURNING `+periodColumns, id, PeriodStatusClosed, closedAt, PeriodStatusOpen))
		if err != nil {
			return notFound(err, ErrPeriodClosed)
		}
		if _, err := txs.DB.Exec(ctx, `UPDATE payslips SET is_locked = true, updated_at = now() WHERE period_id = $1`, id); err != nil {
			return err
		}
		closed = p
		return nil
	})
	return closed, err
}
