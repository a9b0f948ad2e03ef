package patient

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/madjik/clinic/internal/platform/db"
)

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func pgConn(ctx context.Context, pool *pgxpool.Pool) querier {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return pool
}

// -- Patient Repository --

type patientRepoPG struct {
	pool *pgxpool.Pool
}

func NewPatientRepoPG(pool *pgxpool.Pool) PatientRepository {
	return &patientRepoPG{pool: pool}
}

func (r *patientRepoPG) conn(ctx context.Context) querier {
	return pgConn(ctx, r.pool)
}

const patientColsPG = `p.id, p.first_name, p.last_name, COALESCE(p.middle_initial, ''),
	COALESCE(p.age, ''), COALESCE(p.sex, ''), COALESCE(p.barangay, ''),
	COALESCE(p.city, ''), COALESCE(p.emergency_contact, '')`

func (r *patientRepoPG) Create(ctx context.Context, f Fields) (int64, error) {
	var id int64
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO patients (first_name, last_name, middle_initial, age, sex, barangay, city, emergency_contact)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`,
		f.FirstName, f.LastName, f.MiddleInitial, f.Age, f.Sex, f.Barangay, f.City, f.EmergencyContact,
	).Scan(&id)
	if err != nil {
		return 0, db.Fail("create patient", err)
	}
	return id, nil
}

func (r *patientRepoPG) GetByID(ctx context.Context, id int64) (*Patient, error) {
	row := r.conn(ctx).QueryRow(ctx, `SELECT `+patientColsPG+` FROM patients p WHERE p.id = $1`, id)
	p, err := scanPatient(row)
	if err != nil {
		return nil, db.Fail("get patient", err)
	}
	return p, nil
}

func (r *patientRepoPG) Update(ctx context.Context, id int64, f Fields) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE patients
		SET first_name = $1, last_name = $2, middle_initial = $3, age = $4, sex = $5,
			barangay = $6, city = $7, emergency_contact = $8
		WHERE id = $9`,
		f.FirstName, f.LastName, f.MiddleInitial, f.Age, f.Sex, f.Barangay, f.City, f.EmergencyContact, id)
	return db.Fail("update patient", err)
}

func (r *patientRepoPG) Delete(ctx context.Context, id int64) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM patients WHERE id = $1`, id)
	return db.Fail("delete patient", err)
}

func (r *patientRepoPG) List(ctx context.Context, search string) ([]*Summary, error) {
	query := `SELECT ` + patientColsPG + `, MAX(r.visit_date)
		FROM patients p
		LEFT JOIN medical_records r ON r.patient_id = p.id`
	var args []any
	if search != "" {
		query += ` WHERE p.first_name ILIKE $1 ESCAPE '\' OR p.last_name ILIKE $1 ESCAPE '\'`
		args = append(args, likePattern(search))
	}
	query += ` GROUP BY p.id ORDER BY p.id`

	rows, err := r.conn(ctx).Query(ctx, query, args...)
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

type visitRepoPG struct {
	pool *pgxpool.Pool
}

func NewVisitRepoPG(pool *pgxpool.Pool) VisitRepository {
	return &visitRepoPG{pool: pool}
}

func (r *visitRepoPG) conn(ctx context.Context) querier {
	return pgConn(ctx, r.pool)
}

const visitColsPG = `id, COALESCE(patient_id, 0), COALESCE(visit_date, ''), COALESCE(notes, '')`

func (r *visitRepoPG) Create(ctx context.Context, v *VisitRecord) error {
	err := r.conn(ctx).QueryRow(ctx,
		`INSERT INTO medical_records (patient_id, visit_date, notes) VALUES ($1, $2, $3) RETURNING id`,
		v.PatientID, v.VisitDate, v.Notes,
	).Scan(&v.ID)
	return db.Fail("create visit", err)
}

func (r *visitRepoPG) GetByID(ctx context.Context, id int64) (*VisitRecord, error) {
	row := r.conn(ctx).QueryRow(ctx, `SELECT `+visitColsPG+` FROM medical_records WHERE id = $1`, id)
	v, err := scanVisit(row)
	if err != nil {
		return nil, db.Fail("get visit", err)
	}
	return v, nil
}

func (r *visitRepoPG) Update(ctx context.Context, v *VisitRecord) error {
	_, err := r.conn(ctx).Exec(ctx,
		`UPDATE medical_records SET visit_date = $1, notes = $2 WHERE id = $3 AND patient_id = $4`,
		v.VisitDate, v.Notes, v.ID, v.PatientID)
	return db.Fail("update visit", err)
}

func (r *visitRepoPG) Delete(ctx context.Context, id int64) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM medical_records WHERE id = $1`, id)
	return db.Fail("delete visit", err)
}

func (r *visitRepoPG) DeleteByPatient(ctx context.Context, patientID int64) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM medical_records WHERE patient_id = $1`, patientID)
	return db.Fail("delete patient visits", err)
}

func (r *visitRepoPG) ListByPatient(ctx context.Context, patientID int64) ([]*VisitRecord, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+visitColsPG+` FROM medical_records WHERE patient_id = $1 ORDER BY visit_date DESC, id DESC`,
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

type historyRepoPG struct {
	pool *pgxpool.Pool
}

func NewHistoryRepoPG(pool *pgxpool.Pool) HistoryRepository {
	return &historyRepoPG{pool: pool}
}

func (r *historyRepoPG) conn(ctx context.Context) querier {
	return pgConn(ctx, r.pool)
}

const historyColsPG = `id, COALESCE(patient_id, 0), COALESCE(history_note, '')`

func (r *historyRepoPG) Create(ctx context.Context, n *HistoryNote) error {
	err := r.conn(ctx).QueryRow(ctx,
		`INSERT INTO medical_history (patient_id, history_note) VALUES ($1, $2) RETURNING id`,
		n.PatientID, n.Note,
	).Scan(&n.ID)
	return db.Fail("create history note", err)
}

func (r *historyRepoPG) GetByID(ctx context.Context, id int64) (*HistoryNote, error) {
	row := r.conn(ctx).QueryRow(ctx, `SELECT `+historyColsPG+` FROM medical_history WHERE id = $1`, id)
	n, err := scanHistory(row)
	if err != nil {
		return nil, db.Fail("get history note", err)
	}
	return n, nil
}

func (r *historyRepoPG) Update(ctx context.Context, id int64, note string) error {
	_, err := r.conn(ctx).Exec(ctx, `UPDATE medical_history SET history_note = $1 WHERE id = $2`, note, id)
	return db.Fail("update history note", err)
}

func (r *historyRepoPG) DeleteByPatient(ctx context.Context, patientID int64) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM medical_history WHERE patient_id = $1`, patientID)
	return db.Fail("delete patient history", err)
}

func (r *historyRepoPG) ListByPatient(ctx context.Context, patientID int64) ([]*HistoryNote, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+historyColsPG+` FROM medical_history WHERE patient_id = $1 ORDER BY id DESC`,
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
