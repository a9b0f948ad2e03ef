package signature

import (
	"context"
	"database/sql"

	"github.com/madjik/clinic/internal/platform/db"
)

type sqlQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type repoSQLite struct {
	db *sql.DB
}

func NewRepoSQLite(sqlDB *sql.DB) Repository {
	return &repoSQLite{db: sqlDB}
}

func (r *repoSQLite) conn(ctx context.Context) sqlQuerier {
	if tx := db.SQLTxFromContext(ctx); tx != nil {
		return tx
	}
	return r.db
}

func (r *repoSQLite) Get(ctx context.Context) (*Info, error) {
	var info Info
	err := r.conn(ctx).QueryRowContext(ctx, `
		SELECT COALESCE(lic_no, ''), COALESCE(ptr_no, ''), COALESCE(tin_no, ''), COALESCE(s2_no, '')
		FROM signatures ORDER BY id LIMIT 1`,
	).Scan(&info.LicNo, &info.PTRNo, &info.TINNo, &info.S2No)
	if err != nil {
		return nil, db.Fail("get signature", err)
	}
	return &info, nil
}

func (r *repoSQLite) Upsert(ctx context.Context, info Info) error {
	q := r.conn(ctx)
	if _, err := q.ExecContext(ctx, `DELETE FROM signatures WHERE id <> ?`, singletonID); err != nil {
		return db.Fail("upsert signature", err)
	}
	_, err := q.ExecContext(ctx, `
		INSERT INTO signatures (id, lic_no, ptr_no, tin_no, s2_no)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			lic_no = excluded.lic_no,
			ptr_no = excluded.ptr_no,
			tin_no = excluded.tin_no,
			s2_no = excluded.s2_no`,
		singletonID, info.LicNo, info.PTRNo, info.TINNo, info.S2No)
	return db.Fail("upsert signature", err)
}
