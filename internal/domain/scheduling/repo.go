package scheduling

import (
	"context"

	"github.com/clinica/clinica/internal/domain/billing"
	"github.com/clinica/clinica/internal/domain/identity"
	"github.com/clinica/clinica/pkg/pagination"
)

type AppointmentRepository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id int64) (*Appointment, error)
	List(ctx context.Context, pg pagination.Params) ([]*Appointment, int, error)
	ListByPatient(ctx context.Context, patientID int64, pg pagination.Params) ([]*Appointment, int, error)
	Update(ctx context.Context, a *Appointment) error
	Delete(ctx context.Context, id int64) error
	// SetInvoice and SetPatient only write an unset reference and return
	// db.ErrConflict when it was set in the meantime.
	SetInvoice(ctx context.Context, id, invoiceID int64) error
	SetPatient(ctx context.Context, id, patientID int64) error
}

// PatientReader is satisfied by identity.PatientRepository.
type PatientReader interface {
	GetByID(ctx context.Context, id int64) (*identity.Patient, error)
}

// InvoiceReader is satisfied by billing.InvoiceRepository.
type InvoiceReader interface {
	GetByID(ctx context.Context, id int64) (*billing.Invoice, error)
}
