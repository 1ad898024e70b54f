package billing

import (
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// Invoice owns its appointments: deleting an invoice deletes them.
type Invoice struct {
	ID                 int64       `json:"id"`
	IssuedAt           pgtype.Date `json:"issued_at"`
	ServiceDescription string      `json:"service_description"`
	PaymentsMade       string      `json:"payments_made"`
	BalanceDue         float64     `json:"balance_due"`
	Cost               float64     `json:"cost"`
	AppointmentIDs     []int64     `json:"appointment_ids"`
	CreatedAt          time.Time   `json:"created_at"`
	UpdatedAt          time.Time   `json:"updated_at"`
}

func NewInvoice() *Invoice {
	return &Invoice{AppointmentIDs: []int64{}}
}

// Summary is an invoice together with the full names of the patients billed
// through its appointments.
type Summary struct {
	Invoice
	PatientNames []string `json:"patient_names"`
}
