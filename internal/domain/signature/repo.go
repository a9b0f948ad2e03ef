package signature

import (
	"context"

	"github.com/madjik/clinic/internal/platform/db"
)

// singletonID is the only id the signatures table accepts.
const singletonID = 1

type Repository interface {
	// Get returns the stored info or db.ErrNotFound.
	Get(ctx context.Context) (*Info, error)
	// Upsert writes info as the single row, removing any other rows left by
	// older schemas.
	Upsert(ctx context.Context, info Info) error
}

// Transactor runs fn inside one storage transaction.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// NewRepo returns the repository matching the store's engine.
func NewRepo(store *db.Store) Repository {
	if store.Dialect() == db.DialectPostgres {
		return NewRepoPG(store.Pool())
	}
	return NewRepoSQLite(store.SQL())
}
