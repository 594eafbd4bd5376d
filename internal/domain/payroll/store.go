package payroll

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"backoffice/internal/platform/querier"
)

const pgUniqueViolation = "23505"

// Sealer protects national IDs at rest.
type Sealer interface {
	Seal(plain []byte) ([]byte, error)
	Open(sealed []byte) ([]byte, error)
}

type Store struct {
	DB     querier.Querier
	sealer Sealer
}

func NewStore(db querier.Querier, sealer Sealer) *Store {
	return &Store{DB: db, sealer: sealer}
}

func (s *Store) InTx(ctx context.Context, fn func(StoreAPI) error) error {
	beginner, ok := s.DB.(querier.Beginner)
	if !ok {
		return fn(s)
	}
	tx, err := beginner.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(&Store{DB: tx, sealer: s.sealer}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *Store) seal(value string) ([]byte, error) {
	if value == "" {
		return nil, nil
	}
	if s.sealer == nil {
		return []byte(value), nil
	}
	return s.sealer.Seal([]byte(value))
}

func (s *Store) open(value []byte) (string, error) {
	if len(value) == 0 {
		return "", nil
	}
	if s.sealer == nil {
		return string(value), nil
	}
	plain, err := s.sealer.Open(value)
	if err != nil {
		return "", fmt.Errorf("open national id: %w", err)
	}
	return string(plain), nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

func notFound(err, target error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return target
	}
	return err
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}
