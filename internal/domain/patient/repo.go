package patient

import (
	"context"
	"database/sql"
	"strings"

	"github.com/madjik/clinic/internal/platform/db"
)

// Lookups of a missing id return db.ErrNotFound. Writes against a missing id
// affect no rows and return nil.

type PatientRepository interface {
	Create(ctx context.Context, f Fields) (int64, error)
	GetByID(ctx context.Context, id int64) (*Patient, error)
	Update(ctx context.Context, id int64, f Fields) error
	Delete(ctx context.Context, id int64) error
	// List returns patients whose first or last name contains search
	// (case-insensitive), each with its latest visit date. An empty search
	// returns every patient. Rows are ordered by id.
	List(ctx context.Context, search string) ([]*Summary, error)
}

type VisitRepository interface {
	Create(ctx context.Context, v *VisitRecord) error
	GetByID(ctx context.Context, id int64) (*VisitRecord, error)
	// Update only touches the visit when it belongs to v.PatientID.
	Update(ctx context.Context, v *VisitRecord) error
	Delete(ctx context.Context, id int64) error
	DeleteByPatient(ctx context.Context, patientID int64) error
	// ListByPatient orders visits by visit date, newest first.
	ListByPatient(ctx context.Context, patientID int64) ([]*VisitRecord, error)
}

type HistoryRepository interface {
	Create(ctx context.Context, n *HistoryNote) error
	GetByID(ctx context.Context, id int64) (*HistoryNote, error)
	// Update rewrites the note text by id regardless of owning patient.
	Update(ctx context.Context, id int64, note string) error
	DeleteByPatient(ctx context.Context, patientID int64) error
	// ListByPatient orders notes by id, newest first.
	ListByPatient(ctx context.Context, patientID int64) ([]*HistoryNote, error)
}

// Transactor runs fn inside one storage transaction.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type rowScanner interface {
	Scan(dest ...any) error
}

// likePattern wraps search in % wildcards, escaping LIKE metacharacters with
// a backslash so that user input matches literally.
func likePattern(search string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(search) + "%"
}

func scanSummary(row rowScanner) (*Summary, error) {
	var s Summary
	var lastVisit sql.NullString
	err := row.Scan(
		&s.ID, &s.FirstName, &s.LastName, &s.MiddleInitial, &s.Age,
		&s.Sex, &s.Barangay, &s.City, &s.EmergencyContact, &lastVisit,
	)
	if err != nil {
		return nil, err
	}
	if lastVisit.Valid {
		s.LastVisit = &lastVisit.String
	}
	return &s, nil
}

func scanPatient(row rowScanner) (*Patient, error) {
	var p Patient
	err := row.Scan(
		&p.ID, &p.FirstName, &p.LastName, &p.MiddleInitial, &p.Age,
		&p.Sex, &p.Barangay, &p.City, &p.EmergencyContact,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func scanVisit(row rowScanner) (*VisitRecord, error) {
	var v VisitRecord
	if err := row.Scan(&v.ID, &v.PatientID, &v.VisitDate, &v.Notes); err != nil {
		return nil, err
	}
	return &v, nil
}

func scanHistory(row rowScanner) (*HistoryNote, error) {
	var n HistoryNote
	if err := row.Scan(&n.ID, &n.PatientID, &n.Note); err != nil {
		return nil, err
	}
	return &n, nil
}

// NewRepos returns the repositories matching the store's engine.
func NewRepos(store *db.Store) (PatientRepository, VisitRepository, HistoryRepository) {
	if store.Dialect() == db.DialectPostgres {
		pool := store.Pool()
		return NewPatientRepoPG(pool), NewVisitRepoPG(pool), NewHistoryRepoPG(pool)
	}
	sqlDB := store.SQL()
	return NewPatientRepoSQLite(sqlDB), NewVisitRepoSQLite(sqlDB), NewHistoryRepoSQLite(sqlDB)
}
