package db

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

var (
	// ErrStorageUnavailable is returned when the database cannot be opened or reached.
	ErrStorageUnavailable = errors.New("storage unavailable")
	// ErrOperationFailed marks a statement that the storage engine rejected.
	ErrOperationFailed = errors.New("operation failed")
	// ErrNotFound is returned by lookups whose identifier matches no row.
	ErrNotFound = errors.New("not found")
)

// OpError wraps a driver error with the data-access operation that produced it.
type OpError struct {
	Op  string
	Err error
}

func (e *OpError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Op, ErrOperationFailed, e.Err)
}

func (e *OpError) Unwrap() error { return e.Err }

// Is reports OpError as ErrOperationFailed so callers can test the category
// without knowing the driver.
func (e *OpError) Is(target error) bool {
	return target == ErrOperationFailed
}

// Fail classifies err for operation op. No-row errors from either driver
// become ErrNotFound; everything else becomes an *OpError. A nil err stays nil.
func Fail(op string, err error) error {
	if err == nil {
		return nil
	}
	if IsNoRows(err) {
		return ErrNotFound
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrOperationFailed) || errors.Is(err, ErrStorageUnavailable) {
		return err
	}
	return &OpError{Op: op, Err: err}
}

// IsNoRows reports whether err is the no-row result of database/sql or pgx.
func IsNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows) || errors.Is(err, pgx.ErrNoRows)
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStorageUnavailable, op, err)
}
