package payroll

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
)

const staffColumns = `
    id, COALESCE(user_id, ''), employee_id, full_name, national_id_enc,
    COALESCE(designation, ''), COALESCE(department, ''),
    basic_salary, housing_allowance, transport_allowance, meal_allowance, phone_allowance, other_allowance,
    employee_epf_rate, employer_epf_rate,
    COALESCE(epf_number, ''), COALESCE(socso_number, ''), COALESCE(tax_number, ''),
    is_active, created_at, updated_at`

func (s *Store) scanStaff(row pgx.Row) (Staff, error) {
	var staff Staff
	var nationalID []byte
	if err := row.Scan(
		&staff.ID, &staff.UserID, &staff.EmployeeID, &staff.FullName, &nationalID,
		&staff.Designation, &staff.Department,
		&staff.BasicSalary, &staff.Housing, &staff.Transport, &staff.Meal, &staff.Phone, &staff.Other,
		&staff.EmployeeEPFRate, &staff.EmployerEPFRate,
		&staff.EPFNumber, &staff.SOCSONumber, &staff.TaxNumber,
		&staff.IsActive, &staff.CreatedAt, &staff.UpdatedAt,
	); err != nil {
		return Staff{}, err
	}
	plain, err := s.open(nationalID)
	if err != nil {
		return Staff{}, err
	}
	staff.NationalID = plain
	return staff, nil
}

func (s *Store) CreateStaff(ctx context.Context, staff Staff) (Staff, error) {
	nationalID, err := s.seal(staff.NationalID)
	if err != nil {
		return Staff{}, err
	}
	created, err := s.scanStaff(s.DB.QueryRow(ctx, `
    INSERT INTO staff (user_id, employee_id, full_name, national_id_enc, designation, department,
      basic_salary, housing_allowance, transport_allowance, meal_allowance, phone_allowance, other_allowance,
      employee_epf_rate, employer_epf_rate, epf_number, socso_number, tax_number, is_active)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)
    RETURNING `+staffColumns,
		nullIfEmpty(staff.UserID), staff.EmployeeID, staff.FullName, nationalID,
		nullIfEmpty(staff.Designation), nullIfEmpty(staff.Department),
		staff.BasicSalary, staff.Housing, staff.Transport, staff.Meal, staff.Phone, staff.Other,
		staff.EmployeeEPFRate, staff.EmployerEPFRate,
		nullIfEmpty(staff.EPFNumber), nullIfEmpty(staff.SOCSONumber), nullIfEmpty(staff.TaxNumber),
		staff.IsActive,
	))
	if isUniqueViolation(err) {
		return Staff{}, fmt.Errorf("%w: employee id %s already registered", ErrInvalidStaff, staff.EmployeeID)
	}
	return created, err
}

func (s *Store) UpdateStaff(ctx context.Context, staff Staff) (Staff, error) {
	nationalID, err := s.seal(staff.NationalID)
	if err != nil {
		return Staff{}, err
	}
	updated, err := s.scanStaff(s.DB.QueryRow(ctx, `
    UPDATE staff SET user_id = $2, employee_id = $3, full_name = $4, national_id_enc = $5,
      designation = $6, department = $7, basic_salary = $8,
      housing_allowance = $9, transport_allowance = $10, meal_allowance = $11, phone_allowance = $12, other_allowance = $13,
      employee_epf_rate = $14, employer_epf_rate = $15, epf_number = $16, socso_number = $17, tax_number = $18,
      is_active = $19, updated_at = now()
    WHERE id = $1
    RETURNING `+staffColumns,
		staff.ID, nullIfEmpty(staff.UserID), staff.EmployeeID, staff.FullName, nationalID,
		nullIfEmpty(staff.Designation), nullIfEmpty(staff.Department), staff.BasicSalary,
		staff.Housing, staff.Transport, staff.Meal, staff.Phone, staff.Other,
		staff.EmployeeEPFRate, staff.EmployerEPFRate,
		nullIfEmpty(staff.EPFNumber), nullIfEmpty(staff.SOCSONumber), nullIfEmpty(staff.TaxNumber),
		staff.IsActive,
	))
	if isUniqueViolation(err) {
		return Staff{}, fmt.Errorf("%w: employee id %s already registered", ErrInvalidStaff, staff.EmployeeID)
	}
	return updated, notFound(err, ErrStaffNotFound)
}

func (s *Store) GetStaff(ctx context.Context, id string) (Staff, error) {
	staff, err := s.scanStaff(s.DB.QueryRow(ctx, `SELECT `+staffColumns+` FROM staff WHERE id = $1`, id))
	return staff, notFound(err, ErrStaffNotFound)
}

func (s *Store) GetStaffByUserID(ctx context.Context, userID string) (Staff, error) {
	staff, err := s.scanStaff(s.DB.QueryRow(ctx, `SELECT `+staffColumns+` FROM staff WHERE user_id = $1`, userID))
	return staff, notFound(err, ErrStaffNotFound)
}

func (s *Store) ListStaff(ctx context.Context, filter StaffFilter) ([]Staff, error) {
	query := `SELECT ` + staffColumns + ` FROM staff WHERE ($1 = false OR is_active)`
	args := []any{filter.ActiveOnly}
	if search := strings.TrimSpace(filter.Search); search != "" {
		query += ` AND (full_name ILIKE $2 OR employee_id ILIKE $2)`
		args = append(args, "%"+search+"%")
	}
	query += ` ORDER BY full_name`

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Staff
	for rows.Next() {
		staff, err := s.scanStaff(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, staff)
	}
	return out, rows.Err()
}

func (s *Store) SetStaffActive(ctx context.Context, id string, active bool) error {
	tag, err := s.DB.Exec(ctx, `UPDATE staff SET is_active = $2, updated_at = now() WHERE id = $1`, id, active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrStaffNotFound
	}
	return nil
}
