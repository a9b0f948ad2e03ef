package db

import (
	"context"
	"database/sql"

	"github.com/jackc/pgx/v5"
)

type contextKey string

const (
	pgTxKey  contextKey = "db_pg_tx"
	sqlTxKey contextKey = "db_sql_tx"
)

// TxFromContext retrieves the pgx transaction started by WithinTransaction.
func TxFromContext(ctx context.Context) pgx.Tx {
	tx, _ := ctx.Value(pgTxKey).(pgx.Tx)
	return tx
}

// SQLTxFromContext retrieves the database/sql transaction started by WithinTransaction.
func SQLTxFromContext(ctx context.Context) *sql.Tx {
	tx, _ := ctx.Value(sqlTxKey).(*sql.Tx)
	return tx
}

// WithinTransaction runs fn with a context carrying one transaction. The
// transaction commits when fn returns nil and rolls back otherwise. When ctx
// already carries a transaction, fn joins it.
func (s *Store) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if TxFromContext(ctx) != nil || SQLTxFromContext(ctx) != nil {
		return fn(ctx)
	}

	if s.pool != nil {
		tx, err := s.pool.Begin(ctx)
		if err != nil {
			return Fail("begin transaction", err)
		}
		defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

		if err := fn(context.WithValue(ctx, pgTxKey, tx)); err != nil {
			return err
		}
		return Fail("commit transaction", tx.Commit(ctx))
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return Fail("begin transaction", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if err := fn(context.WithValue(ctx, sqlTxKey, tx)); err != nil {
		return err
	}
	return Fail("commit transaction", tx.Commit())
}
