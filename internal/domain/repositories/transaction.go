package repositories

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// TxFn is a function that runs within a transaction
type TxFn func(ctx context.Context) error

// TransactionManager runs a unit of work atomically. Repositories called with
// the ctx passed to fn participate in the same transaction.
type TransactionManager interface {
	ExecTx(ctx context.Context, fn TxFn) error
}

// DBTX is implemented by both *pgxpool.Pool and pgx.Tx so postgres
// repositories work inside and outside a transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, arguments ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, arguments ...interface{}) pgx.Row
}

type txContextKey struct{}

// SetTx stores a pgx transaction in the context
func SetTx(ctx context.Context, tx pgx.Tx) context.Context {
	return context.WithValue(ctx, txContextKey{}, tx)
}

// GetTx returns the pgx transaction carried by ctx, or nil
func GetTx(ctx context.Context) pgx.Tx {
	tx, _ := ctx.Value(txContextKey{}).(pgx.Tx)
	return tx
}

type scopeContextKey struct{}

// WithTxScope marks ctx as running inside a transaction owned by backend.
// Non-SQL adapters use it to detect nested ExecTx calls.
func WithTxScope(ctx context.Context, backend string) context.Context {
	return context.WithValue(ctx, scopeContextKey{}, backend)
}

// InTxScope reports whether ctx is inside a transaction owned by backend.
func InTxScope(ctx context.Context, backend string) bool {
	b, _ := ctx.Value(scopeContextKey{}).(string)
	return b == backend
}
