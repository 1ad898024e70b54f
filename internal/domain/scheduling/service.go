package scheduling

import (
	"context"
	"errors"
	"strings"

	"github.com/clinica/clinica/internal/domain/billing"
	"github.com/clinica/clinica/internal/domain/identity"
	"github.com/clinica/clinica/internal/platform/db"
	"github.com/clinica/clinica/pkg/apperror"
	"github.com/clinica/clinica/pkg/pagination"
)

type Service struct {
	tx           db.Transactor
	appointments AppointmentRepository
	patients     PatientReader
	invoices     InvoiceReader
}

func NewService(tx db.Transactor, appointments AppointmentRepository, patients PatientReader, invoices InvoiceReader) *Service {
	return &Service{tx: tx, appointments: appointments, patients: patients, invoices: invoices}
}

func validateAppointment(a *Appointment) error {
	a.Reason = strings.TrimSpace(a.Reason)
	a.Status = strings.TrimSpace(a.Status)
	if a.Reason == "" {
		return apperror.IllegalOperation("reason is required")
	}
	if a.Status == "" {
		return apperror.IllegalOperation("status is required")
	}
	return nil
}

func (s *Service) getAppointment(ctx context.Context, id int64) (*Appointment, error) {
	a, err := s.appointments.GetByID(ctx, id)
	if errors.Is(err, db.ErrNotFound) {
		return nil, apperror.NotFound("appointment %d not found", id)
	}
	return a, err
}

func (s *Service) getPatient(ctx context.Context, id int64) (*identity.Patient, error) {
	p, err := s.patients.GetByID(ctx, id)
	if errors.Is(err, db.ErrNotFound) {
		return nil, apperror.NotFound("patient %d not found", id)
	}
	return p, err
}

func (s *Service) getInvoice(ctx context.Context, id int64) (*billing.Invoice, error) {
	inv, err := s.invoices.GetByID(ctx, id)
	if errors.Is(err, db.ErrNotFound) {
		return nil, apperror.NotFound("invoice %d not found", id)
	}
	return inv, err
}

// -- CRUD --

func (s *Service) ListAppointments(ctx context.Context, pg pagination.Params) ([]*Appointment, int, error) {
	var out []*Appointment
	var total int
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		out, total, err = s.appointments.List(ctx, pg)
		return err
	})
	return out, total, err
}

func (s *Service) GetAppointment(ctx context.Context, id int64) (*Appointment, error) {
	var out *Appointment
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		out, err = s.getAppointment(ctx, id)
		return err
	})
	return out, err
}

func (s *Service) CreateAppointment(ctx context.Context, a *Appointment) (*Appointment, error) {
	if err := validateAppointment(a); err != nil {
		return nil, err
	}
	var out *Appointment
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.appointments.Create(ctx, a); err != nil {
			return err
		}
		var err error
		out, err = s.appointments.GetByID(ctx, a.ID)
		return err
	})
	return out, err
}

func (s *Service) UpdateAppointment(ctx context.Context, id int64, a *Appointment) (*Appointment, error) {
	var out *Appointment
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.getAppointment(ctx, id); err != nil {
			return err
		}
		a.ID = id
		if err := validateAppointment(a); err != nil {
			return err
		}
		if err := s.appointments.Update(ctx, a); err != nil {
			return err
		}
		var err error
		out, err = s.appointments.GetByID(ctx, id)
		return err
	})
	return out, err
}

func (s *Service) DeleteAppointment(ctx context.Context, id int64) error {
	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.getAppointment(ctx, id); err != nil {
			return err
		}
		return s.appointments.Delete(ctx, id)
	})
}

// -- Assignments --

func (s *Service) AssignInvoice(ctx context.Context, appointmentID, invoiceID int64) (*Appointment, error) {
	var out *Appointment
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		a, err := s.getAppointment(ctx, appointmentID)
		if err != nil {
			return err
		}
		if _, err := s.getInvoice(ctx, invoiceID); err != nil {
			return err
		}
		return apperror.Guard("error during invoice assignment", func() error {
			if a.InvoiceID != nil {
				return apperror.IllegalOperation("appointment already has an invoice")
			}
			if err := s.appointments.SetInvoice(ctx, appointmentID, invoiceID); err != nil {
				return err
			}
			out, err = s.appointments.GetByID(ctx, appointmentID)
			return err
		})
	})
	return out, err
}

// AssignAppointmentToPatient attaches an unowned appointment to the patient
// and returns the patient.
func (s *Service) AssignAppointmentToPatient(ctx context.Context, patientID, appointmentID int64) (*identity.Patient, error) {
	var out *identity.Patient
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.getPatient(ctx, patientID); err != nil {
			return err
		}
		a, err := s.getAppointment(ctx, appointmentID)
		if err != nil {
			return err
		}
		return apperror.Guard("error during appointment assignment", func() error {
			if a.PatientID != nil {
				return apperror.IllegalOperation("patient already has this appointment")
			}
			if err := s.appointments.SetPatient(ctx, appointmentID, patientID); err != nil {
				return err
			}
			out, err = s.patients.GetByID(ctx, patientID)
			return err
		})
	})
	return out, err
}

// -- Patient queries --

func (s *Service) ListByPatient(ctx context.Context, patientID int64, pg pagination.Params) ([]*Appointment, int, error) {
	var out []*Appointment
	var total int
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.getPatient(ctx, patientID); err != nil {
			return err
		}
		var err error
		out, total, err = s.appointments.ListByPatient(ctx, patientID, pg)
		return err
	})
	return out, total, err
}

func (s *Service) GetForPatient(ctx context.Context, patientID, appointmentID int64) (*Appointment, error) {
	var out *Appointment
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		out, err = s.getForPatient(ctx, patientID, appointmentID)
		return err
	})
	return out, err
}

func (s *Service) getForPatient(ctx context.Context, patientID, appointmentID int64) (*Appointment, error) {
	if _, err := s.getPatient(ctx, patientID); err != nil {
		return nil, err
	}
	a, err := s.getAppointment(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if !a.BelongsTo(patientID) {
		return nil, apperror.IllegalOperation("appointment does not belong to patient")
	}
	return a, nil
}

func (s *Service) InvoiceForPatientAppointment(ctx context.Context, patientID, appointmentID int64) (*billing.Invoice, error) {
	var out *billing.Invoice
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		a, err := s.getForPatient(ctx, patientID, appointmentID)
		if err != nil {
			return err
		}
		if a.InvoiceID == nil {
			return apperror.IllegalOperation("appointment has no invoice")
		}
		out, err = s.getInvoice(ctx, *a.InvoiceID)
		return err
	})
	return out, err
}
