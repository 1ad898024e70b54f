package clinical

import (
	"context"

	"github.com/clinica/clinica/internal/domain/identity"
	"github.com/clinica/clinica/pkg/pagination"
)

type MedicalRecordRepository interface {
	Create(ctx context.Context, r *MedicalRecord) error
	GetByID(ctx context.Context, id int64) (*MedicalRecord, error)
	List(ctx context.Context, pg pagination.Params) ([]*MedicalRecord, int, error)
	Update(ctx context.Context, r *MedicalRecord) error
	Delete(ctx context.Context, id int64) error
	// SetPatient returns db.ErrConflict, or db.ErrUniqueViolation, when the
	// patient already holds a record.
	SetPatient(ctx context.Context, id, patientID int64) error
}

// PatientReader is satisfied by identity.PatientRepository.
type PatientReader interface {
	GetByID(ctx context.Context, id int64) (*identity.Patient, error)
}
