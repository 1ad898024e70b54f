package identity

import (
	"context"

	"github.com/clinica/clinica/pkg/pagination"
)

// UniqueField names a patient attribute that must not repeat across patients.
type UniqueField string

const (
	FieldNationalID UniqueField = "national_id"
	FieldEmail      UniqueField = "email"
	FieldAddress    UniqueField = "address"
	FieldPhone      UniqueField = "phone"
)

// DuplicateFieldError is returned by Create and Update when the store
// rejects a value already held by another patient.
type DuplicateFieldError struct {
	Field UniqueField
	Err   error
}

func (e *DuplicateFieldError) Error() string {
	return "duplicate patient " + string(e.Field) + ": " + e.Err.Error()
}

func (e *DuplicateFieldError) Unwrap() error { return e.Err }

// Lookups return db.ErrNotFound for unknown ids. Update and Create write
// scalar attributes only; relation columns change through the dedicated
// methods.
type PatientRepository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id int64) (*Patient, error)
	List(ctx context.Context, pg pagination.Params) ([]*Patient, int, error)
	Update(ctx context.Context, p *Patient) error
	Delete(ctx context.Context, id int64) error
	// ExistsWith reports whether a patient other than excludeID holds value.
	ExistsWith(ctx context.Context, field UniqueField, value string, excludeID int64) (bool, error)
}

type DoctorRepository interface {
	Create(ctx context.Context, d *Doctor) error
	GetByID(ctx context.Context, id int64) (*Doctor, error)
	List(ctx context.Context, pg pagination.Params) ([]*Doctor, int, error)
	Update(ctx context.Context, d *Doctor) error
	Delete(ctx context.Context, id int64) error
	// SetSpecialty only succeeds while the doctor has no specialty; otherwise db.ErrConflict.
	SetSpecialty(ctx context.Context, doctorID, specialtyID int64) error
	SetSupervisor(ctx context.Context, doctorID, supervisorID int64) error
	AddPatient(ctx context.Context, doctorID, patientID int64) error
}

type SpecialtyRepository interface {
	Create(ctx context.Context, s *Specialty) error
	GetByID(ctx context.Context, id int64) (*Specialty, error)
	List(ctx context.Context, pg pagination.Params) ([]*Specialty, int, error)
	Update(ctx context.Context, s *Specialty) error
	Delete(ctx context.Context, id int64) error
}

type DepartmentLinkRepository interface {
	// Add returns db.ErrUniqueViolation when departmentID is already linked.
	Add(ctx context.Context, doctorID, departmentID int64) (*DepartmentLink, error)
	ListByDoctor(ctx context.Context, doctorID int64) ([]DepartmentLink, error)
	RemoveByDepartment(ctx context.Context, doctorID, departmentID int64) error
	Delete(ctx context.Context, linkID int64) error
}
