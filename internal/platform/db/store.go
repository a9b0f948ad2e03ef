package db

import (
	"context"
	"database/sql"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Dialect names the SQL engine behind a Store.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// Options is the explicit storage configuration handed to Open.
// DatabaseURL selects Postgres; otherwise Path names the SQLite file.
type Options struct {
	Path        string
	DatabaseURL string
	MaxConns    int32
	MinConns    int32
}

// Store owns the database handle for the process. Exactly one of sqlDB or
// pool is set, according to dialect.
type Store struct {
	dialect Dialect
	sqlDB   *sql.DB
	pool    *pgxpool.Pool
}

// Open connects to the configured engine. Any failure to reach the engine is
// reported as ErrStorageUnavailable.
func Open(ctx context.Context, opts Options) (*Store, error) {
	if opts.DatabaseURL != "" {
		pool, err := OpenPostgres(ctx, opts)
		if err != nil {
			return nil, err
		}
		return &Store{dialect: DialectPostgres, pool: pool}, nil
	}

	sqlDB, err := OpenSQLite(ctx, opts.Path)
	if err != nil {
		return nil, err
	}
	return &Store{dialect: DialectSQLite, sqlDB: sqlDB}, nil
}

// IsPostgresURL reports whether url uses a scheme pgx accepts.
func IsPostgresURL(url string) bool {
	return strings.HasPrefix(url, "postgres://") || strings.HasPrefix(url, "postgresql://")
}

func (s *Store) Dialect() Dialect { return s.dialect }

// SQL returns the SQLite handle, or nil for a Postgres store.
func (s *Store) SQL() *sql.DB { return s.sqlDB }

// Pool returns the pgx pool, or nil for a SQLite store.
func (s *Store) Pool() *pgxpool.Pool { return s.pool }

func (s *Store) Ping(ctx context.Context) error {
	var err error
	if s.pool != nil {
		err = s.pool.Ping(ctx)
	} else {
		err = s.sqlDB.PingContext(ctx)
	}
	if err != nil {
		return unavailable("ping", err)
	}
	return nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
		return
	}
	if s.sqlDB != nil {
		s.sqlDB.Close()
	}
}
