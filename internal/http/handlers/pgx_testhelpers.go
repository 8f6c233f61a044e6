package handlers

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"ledger/internal/infra"
)

// SimpleRow adapts a scan function to pgx.Row for handler tests.
type SimpleRow struct {
	scan func(dest ...any) error
}

func NewSimpleRow(scanner func(dest ...any) error) SimpleRow {
	return SimpleRow{scan: scanner}
}

func (r SimpleRow) Scan(dest ...any) error {
	if r.scan == nil {
		return pgx.ErrNoRows
	}
	return r.scan(dest...)
}

// StaticSQL serves one scan function per statement marker, keyed by the full
// sqlinline constant.
type StaticSQL struct {
	Rows map[string]func(dest ...any) error
}

func (s *StaticSQL) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}

func (s *StaticSQL) QueryRow(_ context.Context, query string, _ ...any) pgx.Row {
	if scan, ok := s.Rows[query]; ok {
		return NewSimpleRow(scan)
	}
	return NewSimpleRow(nil)
}

func (s *StaticSQL) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, pgx.ErrNoRows
}

var _ infra.SQLExecutor = (*StaticSQL)(nil)
