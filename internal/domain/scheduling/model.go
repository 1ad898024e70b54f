package scheduling

import (
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// Appointment holds at most one invoice and belongs to at most one patient.
// Both references are written only by the assignment operations.
type Appointment struct {
	ID          int64              `json:"id"`
	ScheduledAt pgtype.Timestamptz `json:"scheduled_at"`
	Reason      string             `json:"reason"`
	Status      string             `json:"status"`
	InvoiceID   *int64             `json:"invoice_id"`
	PatientID   *int64             `json:"patient_id"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

func (a *Appointment) BelongsTo(patientID int64) bool {
	return a.PatientID != nil && *a.PatientID == patientID
}
