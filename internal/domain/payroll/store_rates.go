package payroll

import "context"

func (s *Store) RateTables(ctx context.Context) (RateTables, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT rate_type, min_wage, max_wage, employee_amount, employer_amount
    FROM statutory_rates
    ORDER BY rate_type, min_wage
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tables := RateTables{}
	for rows.Next() {
		var rateType string
		var b Bracket
		if err := rows.Scan(&rateType, &b.MinWage, &b.MaxWage, &b.EmployeeAmount, &b.EmployerAmount); err != nil {
			return nil, err
		}
		rt := RateType(rateType)
		if tables[rt] == nil {
			tables[rt] = &RateTable{Type: rt}
		}
		tables[rt].Brackets = append(tables[rt].Brackets, b)
	}
	return tables, rows.Err()
}

// GetRateTable returns nil when no table was uploaded for the type.
func (s *Store) GetRateTable(ctx context.Context, rateType RateType) (*RateTable, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT min_wage, max_wage, employee_amount, employer_amount
    FROM statutory_rates
    WHERE rate_type = $1
    ORDER BY min_wage
  `, string(rateType))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var table *RateTable
	for rows.Next() {
		var b Bracket
		if err := rows.Scan(&b.MinWage, &b.MaxWage, &b.EmployeeAmount, &b.EmployerAmount); err != nil {
			return nil, err
		}
		if table == nil {
			table = &RateTable{Type: rateType}
		}
		table.Brackets = append(table.Brackets, b)
	}
	return table, rows.Err()
}

func (s *Store) ReplaceRateTable(ctx context.Context, table *RateTable) error {
	return s.InTx(ctx, func(tx StoreAPI) error {
		txs := tx.(*Store)
		if _, err := txs.DB.Exec(ctx, `DELETE FROM statutory_rates WHERE rate_type = $1`, string(table.Type)); err != nil {
			return err
		}
		for _, b := range table.Brackets {
			if _, err := txs.DB.Exec(ctx, `
        INSERT INTO statutory_rates (rate_type, min_wage, max_wage, employee_amount, employer_amount)
        VALUES ($1,$2,$3,$4,$5)
      `, string(table.Type), b.MinWage, b.MaxWage, b.EmployeeAmount, b.EmployerAmount); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) DeleteRateTable(ctx context.Context, rateType RateType) error {
	_, err := s.DB.Exec(ctx, `DELETE FROM statutory_rates WHERE rate_type = $1`, string(rateType))
	return err
}
