package patient

import (
	"context"
	"database/sql"

	"github.com/madjik/clinic/internal/platform/db"
)

type sqlQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func sqlConn(ctx context.Context, sqlDB *sql.DB) sqlQuerier {
	if tx := db.SQLTxFromContext(ctx); tx != nil {
		return tx
	}
	return sqlDB
}

// -- Patient Repository --

type patientRepoSQLite struct {
	db *sql.DB
}

func NewPatientRepoSQLite(sqlDB *sql.DB) PatientRepository {
	return &patientRepoSQLite{db: sqlDB}
}

func (r *patientRepoSQLite) conn(ctx context.Context) sqlQuerier {
	return sqlConn(ctx, r.db)
}

// Legacy databases declare age as INTEGER; the cast keeps reads textual.
const patientColsSQLite = `p.id, p.first_name, p.last_name, COALESCE(p.middle_initial, ''),
	COALESCE(CAST(p.age AS TEXT), ''), COALESCE(p.sex, ''), COALESCE(p.barangay, ''),
	COALESCE(p.city, ''), COALESCE(p.emergency_contact, '')`

func (r *patientRepoSQLite) Create(ctx context.Context, f Fields) (int64, error) {
	res, err := r.conn(ctx).ExecContext(ctx, `
		INSERT INTO patients (first_name, last_name, middle_initial, age, sex, barangay, city, emergency_contact)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		f.FirstName, f.LastName, f.MiddleInitial, f.Age, f.Sex, f.Barangay, f.City, f.EmergencyContact)
	if err != nil {
		return 0, db.Fail("create patient", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, db.Fail("create patient", err)
	}
	return id, nil
}

func (r *patientRepoSQLite) GetByID(ctx context.Context, id int64) (*Patient, error) {
	row := r.conn(ctx).QueryRowContext(ctx, `SELECT `+patientColsSQLite+` FROM patients p WHERE p.id = ?`, id)
	p, err := scanPatient(row)
	if err != nil {
		return nil, db.Fail("get patient", err)
	}
	return p, nil
}

func (r *patientRepoSQLite) Update(ctx context.Context, id int64, f Fields) error {
	_, err := r.conn(ctx).ExecContext(ctx, `
		UPDATE patients
		SET first_name = ?, last_name = ?, middle_initial = ?, age = ?, sex = ?,
			barangay = ?, city = ?, emergency_contact = ?
		WHERE id = ?`,
		f.FirstName, f.LastName, f.MiddleInitial, f.Age, f.Sex, f.Barangay, f.City, f.EmergencyContact, id)
	return db.Fail("update patient", err)
}

func (r *patientRepoSQLite) Delete(ctx context.Context, id int64) error {
	_, err := r.conn(ctx).ExecContext(ctx, `DELETE FROM patients WHERE id = ?`, id)
	return db.Fail("delete patient", err)
}

func (r *patientRepoSQLite) List(ctx context.Context, search string) ([]*Summary, error) {
	query := `SELECT ` + patientColsSQLite + `, MAX(r.visit_date)
		FROM patients p
		LEFT JOIN medical_records r ON r.patient_id = p.id`
	var args []any
	if search != "" {
		pattern := likePattern(search)
		query += ` WHERE p.first_name LIKE ? ESCAPE '\' OR p.last_name LIKE ? ESCAPE '\'`
		args = append(args, pattern, pattern)
	}
	query += ` GROUP BY p.id ORDER BY p.id`

	rows, err := r.conn(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, db.Fail("list patients", err)
	}
	defer rows.Close()

	var items []*Summary
	for rows.Next() {
		s, err := scanSummary(rows)
		if err != nil {
			return nil, db.Fail("list patients", err)
		}
		items = append(items, s)
	}
	if err := rows.Err(); err != nil {
		return nil, db.Fail("list patients", err)
	}
	return items, nil
}

// -- Visit Repository --

type visitRepoSQLite struct {
	db *sql.DB
}

func NewVisitRepoSQLite(sqlDB *sql.DB) VisitRepository {
	return &visitRepoSQLite{db: sqlDB}
}

func (r *visitRepoSQLite) conn(ctx context.Context) sqlQuerier {
	return sqlConn(ctx, r.db)
}

const visitColsSQLite = `id, COALESCE(patient_id, 0), COALESCE(visit_date, ''), COALESCE(notes, '')`

func (r *visitRepoSQLite) Create(ctx context.Context, v *VisitRecord) error {
	res, err := r.conn(ctx).ExecContext(ctx,
		`INSERT INTO medical_records (patient_id, visit_date, notes) VALUES (?, ?, ?)`,
		v.PatientID, v.VisitDate, v.Notes)
	if err != nil {
		return db.Fail("create visit", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return db.Fail("create visit", err)
	}
	v.ID = id
	return nil
}

func (r *visitRepoSQLite) GetByID(ctx context.Context, id int64) (*VisitRecord, error) {
	row := r.conn(ctx).QueryRowContext(ctx, `SELECT `+visitColsSQLite+` FROM medical_records WHERE id = ?`, id)
	v, err := scanVisit(row)
	if err != nil {
		return nil, db.Fail("get visit", err)
	}
	return v, nil
}

func (r *visitRepoSQLite) Update(ctx context.Context, v *VisitRecord) error {
	_, err := r.conn(ctx).ExecContext(ctx,
		`UPDATE medical_records SET visit_date = ?, notes = ? WHERE id = ? AND patient_id = ?`,
		v.VisitDate, v.Notes, v.ID, v.PatientID)
	return db.Fail("update visit", err)
}

func (r *visitRepoSQLite) Delete(ctx context.Context, id int64) error {
	_, err := r.conn(ctx).ExecContext(ctx, `DELETE FROM medical_records WHERE id = ?`, id)
	return db.Fail("delete visit", err)
}

func (r *visitRepoSQLite) DeleteByPatient(ctx context.Context, patientID int64) error {
	_, err := r.conn(ctx).ExecContext(ctx, `DELETE FROM medical_records WHERE patient_id = ?`, patientID)
	return db.Fail("delete patient visits", err)
}

func (r *visitRepoSQLite) ListByPatient(ctx context.Context, patientID int64) ([]*VisitRecord, error) {
	rows, err := r.conn(ctx).QueryContext(ctx,
		`SELECT `+visitColsSQLite+` FROM medical_records WHERE patient_id = ? ORDER BY visit_date DESC, id DESC`,
		patientID)
	if err != nil {
		return nil, db.Fail("list visits", err)
	}
	defer rows.Close()

	var items []*VisitRecord
	for rows.Next() {
		v, err := scanVisit(rows)
		if err != nil {
			return nil, db.Fail("list visits", err)
		}
		items = append(items, v)
	}
	if err := rows.Err(); err != nil {
		return nil, db.Fail("list visits", err)
	}
	return items, nil
}

// -- History Repository --

type historyRepoSQLite struct {
	db *sql.DB
}

func NewHistoryRepoSQLite(sqlDB *sql.DB) HistoryRepository {
	return &historyRepoSQLite{db: sqlDB}
}

func (r *historyRepoSQLite) conn(ctx context.Context) sqlQuerier {
	return sqlConn(ctx, r.db)
}

const historyColsSQLite = `id, COALESCE(patient_id, 0), COALESCE(history_note, '')`

func (r *historyRepoSQLite) Create(ctx context.Context, n *HistoryNote) error {
	res, err := r.conn(ctx).ExecContext(ctx,
		`INSERT INTO medical_history (patient_id, history_note) VALUES (?, ?)`,
		n.PatientID, n.Note)
	if err != nil {
		return db.Fail("create history note", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return db.Fail("create history note", err)
	}
	n.ID = id
	return nil
}

func (r *historyRepoSQLite) GetByID(ctx context.Context, id int64) (*HistoryNote, error) {
	row := r.conn(ctx).QueryRowContext(ctx, `SELECT `+historyColsSQLite+` FROM medical_history WHERE id = ?`, id)
	n, err := scanHistory(row)
	if err != nil {
		return nil, db.Fail("get history note", err)
	}
	return n, nil
}

func (r *historyRepoSQLite) Update(ctx context.Context, id int64, note string) error {
	_, err := r.conn(ctx).ExecContext(ctx, `UPDATE medical_history SET history_note = ? WHERE id = ?`, note, id)
	return db.Fail("update history note", err)
}

func (r *historyRepoSQLite) DeleteByPatient(ctx context.Context, patientID int64) error {
	_, err := r.conn(ctx).ExecContext(ctx, `DELETE FROM medical_history WHERE patient_id = ?`, patientID)
	return db.Fail("delete patient history", err)
}

func (r *historyRepoSQLite) ListByPatient(ctx context.Context, patientID int64) ([]*HistoryNote, error) {
	rows, err := r.conn(ctx).QueryContext(ctx,
		`SELECT `+historyColsSQLite+` FROM medical_history WHERE patient_id = ? ORDER BY id DESC`,
		patientID)
	if err != nil {
		return nil, db.Fail("list history notes", err)
	}
	defer rows.Close()

	var items []*HistoryNote
	for rows.Next() {
		n, err := scanHistory(rows)
		if err != nil {
			return nil, db.Fail("list history notes", err)
		}
		items = append(items, n)
	}
	if err := rows.Err(); err != nil {
		return nil, db.Fail("list history notes", err)
	}
	return items, nil
}
