package patient

import (
	"context"
	"fmt"

	"github.com/madjik/clinic/pkg/visitdate"
)

// Options tunes the orchestration behaviour.
type Options struct {
	// CascadeHistory also removes a patient's history notes on delete.
	CascadeHistory bool
}

type Service struct {
	tx       Transactor
	patients PatientRepository
	visits   VisitRepository
	history  HistoryRepository
	opts     Options
}

func NewService(tx Transactor, patients PatientRepository, visits VisitRepository, history HistoryRepository, opts Options) *Service {
	return &Service{tx: tx, patients: patients, visits: visits, history: history, opts: opts}
}

// -- Patient --

func (s *Service) CreatePatient(ctx context.Context, f Fields) (int64, error) {
	id, err := s.patients.Create(ctx, f)
	if err != nil {
		return 0, fmt.Errorf("create patient: %w", err)
	}
	return id, nil
}

func (s *Service) UpdatePatient(ctx context.Context, id int64, f Fields) error {
	if err := s.patients.Update(ctx, id, f); err != nil {
		return fmt.Errorf("update patient %d: %w", id, err)
	}
	return nil
}

// DeletePatientCascade removes the patient's visits and then the patient in
// one transaction. History notes are kept unless Options.CascadeHistory is set.
func (s *Service) DeletePatientCascade(ctx context.Context, id int64) error {
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.visits.DeleteByPatient(ctx, id); err != nil {
			return err
		}
		if s.opts.CascadeHistory {
			if err := s.history.DeleteByPatient(ctx, id); err != nil {
				return err
			}
		}
		return s.patients.Delete(ctx, id)
	})
	if err != nil {
		return fmt.Errorf("delete patient %d: %w", id, err)
	}
	return nil
}

func (s *Service) ListPatients(ctx context.Context, search string) ([]*Summary, error) {
	items, err := s.patients.List(ctx, search)
	if err != nil {
		return nil, fmt.Errorf("list patients: %w", err)
	}
	return items, nil
}

// GetPatientDetail composes the patient with its visits and history notes.
// A missing patient yields db.ErrNotFound and no partial result.
func (s *Service) GetPatientDetail(ctx context.Context, id int64) (*Detail, error) {
	var detail *Detail
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		p, err := s.patients.GetByID(ctx, id)
		if err != nil {
			return err
		}
		visits, err := s.visits.ListByPatient(ctx, id)
		if err != nil {
			return err
		}
		history, err := s.history.ListByPatient(ctx, id)
		if err != nil {
			return err
		}
		if visits == nil {
			visits = []*VisitRecord{}
		}
		if history == nil {
			history = []*HistoryNote{}
		}
		detail = &Detail{Patient: *p, Visits: visits, History: history}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("get patient %d: %w", id, err)
	}
	return detail, nil
}

// -- Visit records --

// AddVisit stores a visit with its date normalised to ISO when parsable.
func (s *Service) AddVisit(ctx context.Context, patientID int64, date, notes string) (*VisitRecord, error) {
	v := &VisitRecord{PatientID: patientID, VisitDate: visitdate.Normalize(date), Notes: notes}
	if err := s.visits.Create(ctx, v); err != nil {
		return nil, fmt.Errorf("add visit for patient %d: %w", patientID, err)
	}
	return v, nil
}

// UpdateVisit rewrites a visit only when it belongs to patientID.
func (s *Service) UpdateVisit(ctx context.Context, visitID, patientID int64, date, notes string) error {
	v := &VisitRecord{ID: visitID, PatientID: patientID, VisitDate: visitdate.Normalize(date), Notes: notes}
	if err := s.visits.Update(ctx, v); err != nil {
		return fmt.Errorf("update visit %d: %w", visitID, err)
	}
	return nil
}

// DeleteVisit removes a visit and reports the patient it belonged to. A
// missing visit yields db.ErrNotFound.
func (s *Service) DeleteVisit(ctx context.Context, visitID int64) (int64, error) {
	var patientID int64
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		v, err := s.visits.GetByID(ctx, visitID)
		if err != nil {
			return err
		}
		patientID = v.PatientID
		return s.visits.Delete(ctx, visitID)
	})
	if err != nil {
		return 0, fmt.Errorf("delete visit %d: %w", visitID, err)
	}
	return patientID, nil
}

func (s *Service) ListVisits(ctx context.Context, patientID int64) ([]*VisitRecord, error) {
	items, err := s.visits.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("list visits for patient %d: %w", patientID, err)
	}
	return items, nil
}

// -- History notes --

// SaveHistoryNote updates the note with the given id in place, or inserts a
// new note for patientID when id is nil.
func (s *Service) SaveHistoryNote(ctx context.Context, patientID int64, id *int64, note string) (int64, error) {
	if id != nil {
		if err := s.history.Update(ctx, *id, note); err != nil {
			return 0, fmt.Errorf("update history note %d: %w", *id, err)
		}
		return *id, nil
	}

	n := &HistoryNote{PatientID: patientID, Note: note}
	if err := s.history.Create(ctx, n); err != nil {
		return 0, fmt.Errorf("add history note for patient %d: %w", patientID, err)
	}
	return n.ID, nil
}

func (s *Service) GetHistoryNote(ctx context.Context, id int64) (*HistoryNote, error) {
	n, err := s.history.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get history note %d: %w", id, err)
	}
	return n, nil
}

func (s *Service) ListHistoryNotes(ctx context.Context, patientID int64) ([]*HistoryNote, error) {
	items, err := s.history.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("list history notes for patient %d: %w", patientID, err)
	}
	return items, nil
}
