package signature

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/madjik/clinic/internal/platform/db"
)

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) querier {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

func (r *repoPG) Get(ctx context.Context) (*Info, error) {
	var info Info
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT COALESCE(lic_no, ''), COALESCE(ptr_no, ''), COALESCE(tin_no, ''), COALESCE(s2_no, '')
		FROM signatures ORDER BY id LIMIT 1`,
	).Scan(&info.LicNo, &info.PTRNo, &info.TINNo, &info.S2No)
	if err != nil {
		return nil, db.Fail("get signature", err)
	}
	return &info, nil
}

func (r *repoPG) Upsert(ctx context.Context, info Info) error {
	q := r.conn(ctx)
	if _, err := q.Exec(ctx, `DELETE FROM signatures WHERE id <> $1`, singletonID); err != nil {
		return db.Fail("upsert signature", err)
	}
	_, err := q.Exec(ctx, `
		INSERT INTO signatures (id, lic_no, ptr_no, tin_no, s2_no)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			lic_no = EXCLUDED.lic_no,
			ptr_no = EXCLUDED.ptr_no,
			tin_no = EXCLUDED.tin_no,
			s2_no = EXCLUDED.s2_no`,
		singletonID, info.LicNo, info.PTRNo, info.TINNo, info.S2No)
	return db.Fail("upsert signature", err)
}
