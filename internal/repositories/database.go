package repositories

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier is the query surface shared by *pgxpool.Pool and an open pgx.Tx.
// Repository methods that must run inside a caller-owned transaction take a
// Querier explicitly.
type Querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Database is what repositories and transactional services are constructed
// with. Satisfied by *pgxpool.Pool and by pgxmock.PgxPoolIface in tests.
type Database interface {
	Querier
	Begin(ctx context.Context) (pgx.Tx, error)
}
