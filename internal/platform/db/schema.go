package db

import (
	"context"
	"embed"
	"fmt"
	"strings"
)

//go:embed schema/*.sql
var schemaFS embed.FS

// Tables lists every table the clinic schema creates, in creation order.
var Tables = []string{"patients", "medical_records", "medical_history", "signatures"}

// TableCount is the number of rows currently held by one table.
type TableCount struct {
	Table string
	Rows  int64
}

// SchemaStatements returns the idempotent DDL statements for a dialect.
func SchemaStatements(d Dialect) ([]string, error) {
	content, err := schemaFS.ReadFile(fmt.Sprintf("schema/%s.sql", d))
	if err != nil {
		return nil, fmt.Errorf("read schema for %s: %w", d, err)
	}

	var stmts []string
	for _, part := range strings.Split(string(content), ";") {
		if stmt := strings.TrimSpace(part); stmt != "" {
			stmts = append(stmts, stmt)
		}
	}
	return stmts, nil
}

// EnsureSchema creates any missing table or index. Every statement uses
// IF NOT EXISTS, so running it against an existing database changes nothing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	stmts, err := SchemaStatements(s.dialect)
	if err != nil {
		return err
	}

	return s.WithinTransaction(ctx, func(ctx context.Context) error {
		for i, stmt := range stmts {
			if err := s.exec(ctx, stmt); err != nil {
				return Fail(fmt.Sprintf("schema statement %d", i+1), err)
			}
		}
		return nil
	})
}

// TableCounts reports the row count of each clinic table.
func (s *Store) TableCounts(ctx context.Context) ([]TableCount, error) {
	counts := make([]TableCount, 0, len(Tables))
	for _, table := range Tables {
		query := fmt.Sprintf("SELECT COUNT(*) FROM %s", table)

		var n int64
		var err error
		if s.pool != nil {
			err = s.pool.QueryRow(ctx, query).Scan(&n)
		} else {
			err = s.sqlDB.QueryRowContext(ctx, query).Scan(&n)
		}
		if err != nil {
			return nil, Fail("count "+table, err)
		}
		counts = append(counts, TableCount{Table: table, Rows: n})
	}
	return counts, nil
}

func (s *Store) exec(ctx context.Context, stmt string) error {
	if tx := TxFromContext(ctx); tx != nil {
		_, err := tx.Exec(ctx, stmt)
		return err
	}
	if tx := SQLTxFromContext(ctx); tx != nil {
		_, err := tx.ExecContext(ctx, stmt)
		return err
	}
	if s.pool != nil {
		_, err := s.pool.Exec(ctx, stmt)
		return err
	}
	_, err := s.sqlDB.ExecContext(ctx, stmt)
	return err
}
