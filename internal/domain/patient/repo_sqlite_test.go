package patient

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/madjik/clinic/internal/platform/db"
)

func openSQLiteStore(t *testing.T) *db.Store {
	t.Helper()
	ctx := context.Background()
	store, err := db.Open(ctx, db.Options{Path: filepath.Join(t.TempDir(), "clinic.db")})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(store.Close)
	if err := store.EnsureSchema(ctx); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	return store
}

func newStoreService(t *testing.T, store *db.Store, opts Options) *Service {
	t.Helper()
	patients, visits, history := NewRepos(store)
	return NewService(store, patients, visits, history, opts)
}

func TestRepoSQLite_PatientCRUD(t *testing.T) {
	store := openSQLiteStore(t)
	patients, _, _ := NewRepos(store)
	ctx := context.Background()

	id, err := patients.Create(ctx, Fields{FirstName: "Juan", LastName: "Dela Cruz", Age: "42"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if id <= 0 {
		t.Fatalf("expected a positive id, got %d", id)
	}

	p, err := patients.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if p.FirstName != "Juan" || p.Age != "42" || p.Barangay != "" {
		t.Errorf("unexpected patient: %+v", p)
	}

	if err := patients.Update(ctx, id, Fields{FirstName: "Juan", LastName: "Dela Cruz", City: "Iloilo"}); err != nil {
		t.Fatalf("update: %v", err)
	}
	p, _ = patients.GetByID(ctx, id)
	if p.City != "Iloilo" || p.Age != "" {
		t.Errorf("expected full overwrite, got %+v", p)
	}

	if err := patients.Update(ctx, id+100, Fields{FirstName: "Ghost"}); err != nil {
		t.Errorf("expected update of missing id to be a no-op, got %v", err)
	}

	if err := patients.Delete(ctx, id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := patients.GetByID(ctx, id); !errors.Is(err, db.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := patients.Delete(ctx, id); err != nil {
		t.Errorf("expected delete of missing id to be a no-op, got %v", err)
	}
}

func TestRepoSQLite_LegacyIntegerAge(t *testing.T) {
	store := openSQLiteStore(t)
	patients, _, _ := NewRepos(store)
	ctx := context.Background()

	_, err := store.SQL().ExecContext(ctx,
		`INSERT INTO patients (first_name, last_name, age, sex) VALUES ('Lola', 'Basyang', 87, NULL)`)
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	items, err := patients.List(ctx, "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 1 || items[0].Age != "87" || items[0].Sex != "" {
		t.Fatalf("unexpected legacy row: %+v", items)
	}
}

func TestRepoSQLite_ListSearchAndLastVisit(t *testing.T) {
	store := openSQLiteStore(t)
	svc := newStoreService(t, store, Options{})
	ctx := context.Background()

	juan, _ := svc.CreatePatient(ctx, Fields{FirstName: "Juan", LastName: "Dela Cruz"})
	maria, _ := svc.CreatePatient(ctx, Fields{FirstName: "Maria", LastName: "Santos"})
	pct, _ := svc.CreatePatient(ctx, Fields{FirstName: "100%", LastName: "under_score"})

	svc.AddVisit(ctx, juan, "2024-01-15", "checkup")
	svc.AddVisit(ctx, juan, "03-02-2024", "follow-up")

	all, err := svc.ListPatients(ctx, "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 patients, got %d", len(all))
	}
	if all[0].ID != juan || all[1].ID != maria || all[2].ID != pct {
		t.Errorf("expected id order, got %d %d %d", all[0].ID, all[1].ID, all[2].ID)
	}
	if all[0].LastVisit == nil || *all[0].LastVisit != "2024-03-02" {
		t.Errorf("expected last visit 2024-03-02, got %v", all[0].LastVisit)
	}
	if all[1].LastVisit != nil {
		t.Errorf("expected no last visit for Maria, got %q", *all[1].LastVisit)
	}

	tests := []struct {
		search string
		want   []int64
	}{
		{"juan", []int64{juan}},
		{"JUAN", []int64{juan}},
		{"cruz", []int64{juan}},
		{"a", []int64{juan, maria}},
		{"%", []int64{pct}},
		{"_", []int64{pct}},
		{"nobody", nil},
	}
	for _, tt := range tests {
		got, err := svc.ListPatients(ctx, tt.search)
		if err != nil {
			t.Fatalf("search %q: %v", tt.search, err)
		}
		if len(got) != len(tt.want) {
			t.Errorf("search %q: expected %d results, got %d", tt.search, len(tt.want), len(got))
			continue
		}
		for i, id := range tt.want {
			if got[i].ID != id {
				t.Errorf("search %q: result %d = %d, want %d", tt.search, i, got[i].ID, id)
			}
		}
	}
}

func TestRepoSQLite_VisitsOrderedByDateDesc(t *testing.T) {
	store := openSQLiteStore(t)
	svc := newStoreService(t, store, Options{})
	ctx := context.Background()

	id, _ := svc.CreatePatient(ctx, Fields{FirstName: "Juan", LastName: "Dela Cruz"})
	svc.AddVisit(ctx, id, "2024-01-15", "first")
	svc.AddVisit(ctx, id, "12-25-2024", "third")
	svc.AddVisit(ctx, id, "2024-06-01", "second")

	visits, err := svc.ListVisits(ctx, id)
	if err != nil {
		t.Fatalf("list visits: %v", err)
	}
	want := []string{"third", "second", "first"}
	if len(visits) != len(want) {
		t.Fatalf("expected %d visits, got %d", len(want), len(visits))
	}
	for i, notes := range want {
		if visits[i].Notes != notes {
			t.Errorf("visit %d = %q, want %q", i, visits[i].Notes, notes)
		}
	}
	if visits[0].VisitDate != "2024-12-25" {
		t.Errorf("expected ISO storage, got %q", visits[0].VisitDate)
	}
}

func TestRepoSQLite_UnpaddedDatesOrderAndLastVisit(t *testing.T) {
	store := openSQLiteStore(t)
	svc := newStoreService(t, store, Options{})
	ctx := context.Background()

	id, _ := svc.CreatePatient(ctx, Fields{FirstName: "Juan", LastName: "Dela Cruz"})
	svc.AddVisit(ctx, id, "2024-3-5", "early")
	svc.AddVisit(ctx, id, "3-10-2024", "late")

	visits, err := svc.ListVisits(ctx, id)
	if err != nil {
		t.Fatalf("list visits: %v", err)
	}
	if len(visits) != 2 {
		t.Fatalf("expected 2 visits, got %d", len(visits))
	}
	if visits[0].Notes != "late" || visits[0].VisitDate != "2024-03-10" {
		t.Errorf("expected late visit first as 2024-03-10, got %q %q", visits[0].Notes, visits[0].VisitDate)
	}
	if visits[1].VisitDate != "2024-03-05" {
		t.Errorf("expected padded ISO storage, got %q", visits[1].VisitDate)
	}

	list, err := svc.ListPatients(ctx, "")
	if err != nil {
		t.Fatalf("list patients: %v", err)
	}
	if len(list) != 1 || list[0].LastVisit == nil || *list[0].LastVisit != "2024-03-10" {
		t.Fatalf("expected last visit 2024-03-10, got %+v", list)
	}
}

func TestRepoSQLite_UpdateVisitScopedByPatient(t *testing.T) {
	store := openSQLiteStore(t)
	svc := newStoreService(t, store, Options{})
	_, visits, _ := NewRepos(store)
	ctx := context.Background()

	id, _ := svc.CreatePatient(ctx, Fields{FirstName: "Juan", LastName: "Dela Cruz"})
	v, _ := svc.AddVisit(ctx, id, "2024-01-15", "checkup")

	if err := svc.UpdateVisit(ctx, v.ID, id+1, "2024-02-01", "wrong patient"); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, _ := visits.GetByID(ctx, v.ID)
	if got.Notes != "checkup" {
		t.Errorf("expected visit untouched, got %+v", got)
	}

	if err := svc.UpdateVisit(ctx, v.ID, id, "02-01-2024", "follow-up"); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, _ = visits.GetByID(ctx, v.ID)
	if got.Notes != "follow-up" || got.VisitDate != "2024-02-01" {
		t.Errorf("unexpected visit: %+v", got)
	}
}

func TestRepoSQLite_CascadeDeleteKeepsHistory(t *testing.T) {
	store := openSQLiteStore(t)
	svc := newStoreService(t, store, Options{})
	ctx := context.Background()

	id, _ := svc.CreatePatient(ctx, Fields{FirstName: "Juan", LastName: "Dela Cruz"})
	svc.AddVisit(ctx, id, "2024-01-15", "checkup")
	noteID, _ := svc.SaveHistoryNote(ctx, id, nil, "asthma")

	if err := svc.DeletePatientCascade(ctx, id); err != nil {
		t.Fatalf("cascade delete: %v", err)
	}

	visits, _ := svc.ListVisits(ctx, id)
	if len(visits) != 0 {
		t.Errorf("expected no visits, got %d", len(visits))
	}
	if _, err := svc.GetPatientDetail(ctx, id); !errors.Is(err, db.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	note, err := svc.GetHistoryNote(ctx, noteID)
	if err != nil {
		t.Fatalf("expected history note to remain: %v", err)
	}
	if note.PatientID != id {
		t.Errorf("expected note to keep patient %d, got %d", id, note.PatientID)
	}
}

func TestRepoSQLite_CascadeDeleteWithHistory(t *testing.T) {
	store := openSQLiteStore(t)
	svc := newStoreService(t, store, Options{CascadeHistory: true})
	ctx := context.Background()

	id, _ := svc.CreatePatient(ctx, Fields{FirstName: "Juan", LastName: "Dela Cruz"})
	noteID, _ := svc.SaveHistoryNote(ctx, id, nil, "asthma")

	if err := svc.DeletePatientCascade(ctx, id); err != nil {
		t.Fatalf("cascade delete: %v", err)
	}
	if _, err := svc.GetHistoryNote(ctx, noteID); !errors.Is(err, db.ErrNotFound) {
		t.Errorf("expected history note removed, got %v", err)
	}
}

func TestRepoSQLite_HistoryUpsert(t *testing.T) {
	store := openSQLiteStore(t)
	svc := newStoreService(t, store, Options{})
	ctx := context.Background()

	id, _ := svc.CreatePatient(ctx, Fields{FirstName: "Juan", LastName: "Dela Cruz"})
	first, err := svc.SaveHistoryNote(ctx, id, nil, "asthma")
	if err != nil {
		t.Fatalf("insert note: %v", err)
	}
	second, _ := svc.SaveHistoryNote(ctx, id, nil, "hypertension")

	notes, _ := svc.ListHistoryNotes(ctx, id)
	if len(notes) != 2 || notes[0].ID != second || notes[1].ID != first {
		t.Fatalf("expected notes newest first, got %+v", notes)
	}

	if _, err := svc.SaveHistoryNote(ctx, id, &first, "asthma, controlled"); err != nil {
		t.Fatalf("update note: %v", err)
	}
	notes, _ = svc.ListHistoryNotes(ctx, id)
	if len(notes) != 2 {
		t.Fatalf("expected row count unchanged, got %d", len(notes))
	}
	note, _ := svc.GetHistoryNote(ctx, first)
	if note.Note != "asthma, controlled" {
		t.Errorf("expected updated note, got %q", note.Note)
	}
}

func TestRepoSQLite_DeleteMissingVisit(t *testing.T) {
	store := openSQLiteStore(t)
	svc := newStoreService(t, store, Options{})

	if _, err := svc.DeleteVisit(context.Background(), 12345); !errors.Is(err, db.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRepoSQLite_ClosedStoreFails(t *testing.T) {
	store := openSQLiteStore(t)
	patients, _, _ := NewRepos(store)
	store.Close()

	_, err := patients.List(context.Background(), "")
	if !errors.Is(err, db.ErrOperationFailed) {
		t.Fatalf("expected ErrOperationFailed, got %v", err)
	}
}
