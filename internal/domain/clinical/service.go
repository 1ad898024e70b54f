package clinical

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/clinica/clinica/internal/platform/db"
	"github.com/clinica/clinica/pkg/apperror"
	"github.com/clinica/clinica/pkg/pagination"
)

type Service struct {
	tx       db.Transactor
	records  MedicalRecordRepository
	patients PatientReader
	now      func() time.Time
}

func NewService(tx db.Transactor, records MedicalRecordRepository, patients PatientReader) *Service {
	return &Service{tx: tx, records: records, patients: patients, now: time.Now}
}

func (s *Service) validate(m *MedicalRecord) error {
	fields := []struct {
		name  string
		value *string
	}{
		{"prior_diagnoses", &m.PriorDiagnoses},
		{"prior_treatments", &m.PriorTreatments},
		{"procedures", &m.Procedures},
		{"medications", &m.Medications},
		{"test_results", &m.TestResults},
	}
	for _, f := range fields {
		*f.value = strings.TrimSpace(*f.value)
		if *f.value == "" {
			return apperror.IllegalOperation("%s is required", f.name)
		}
	}
	if m.RecordedAt.Valid && m.RecordedAt.Time.After(s.now()) {
		return apperror.IllegalOperation("recorded_at must not be in the future")
	}
	return nil
}

func (s *Service) get(ctx context.Context, id int64) (*MedicalRecord, error) {
	m, err := s.records.GetByID(ctx, id)
	if errors.Is(err, db.ErrNotFound) {
		return nil, apperror.NotFound("medical record %d not found", id)
	}
	return m, err
}

func (s *Service) ListRecords(ctx context.Context, pg pagination.Params) ([]*MedicalRecord, int, error) {
	var out []*MedicalRecord
	var total int
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		out, total, err = s.records.List(ctx, pg)
		return err
	})
	return out, total, err
}

func (s *Service) GetRecord(ctx context.Context, id int64) (*MedicalRecord, error) {
	var out *MedicalRecord
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		out, err = s.get(ctx, id)
		return err
	})
	return out, err
}

func (s *Service) CreateRecord(ctx context.Context, m *MedicalRecord) (*MedicalRecord, error) {
	if err := s.validate(m); err != nil {
		return nil, err
	}
	var out *MedicalRecord
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.records.Create(ctx, m); err != nil {
			return err
		}
		var err error
		out, err = s.records.GetByID(ctx, m.ID)
		return err
	})
	return out, err
}

func (s *Service) UpdateRecord(ctx context.Context, id int64, m *MedicalRecord) (*MedicalRecord, error) {
	var out *MedicalRecord
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.get(ctx, id); err != nil {
			return err
		}
		m.ID = id
		if err := s.validate(m); err != nil {
			return err
		}
		if err := s.records.Update(ctx, m); err != nil {
			return err
		}
		var err error
		out, err = s.records.GetByID(ctx, id)
		return err
	})
	return out, err
}

func (s *Service) DeleteRecord(ctx context.Context, id int64) error {
	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.get(ctx, id); err != nil {
			return err
		}
		return s.records.Delete(ctx, id)
	})
}

// AssignRecordToPatient gives a patient without a record the record id.
func (s *Service) AssignRecordToPatient(ctx context.Context, recordID, patientID int64) (*MedicalRecord, error) {
	var out *MedicalRecord
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.get(ctx, recordID); err != nil {
			return err
		}
		p, err := s.patients.GetByID(ctx, patientID)
		if errors.Is(err, db.ErrNotFound) {
			return apperror.NotFound("patient %d not found", patientID)
		}
		if err != nil {
			return err
		}
		return apperror.Guard("error during medical record assignment", func() error {
			if p.MedicalRecordID != nil {
				return apperror.IllegalOperation("patient already has a medical record")
			}
			if err := s.records.SetPatient(ctx, recordID, patientID); err != nil {
				return err
			}
			out, err = s.records.GetByID(ctx, recordID)
			return err
		})
	})
	return out, err
}
