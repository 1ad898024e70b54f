package clinical

import (
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// MedicalRecord belongs to at most one patient, and a patient has at most
// one record.
type MedicalRecord struct {
	ID              int64       `json:"id"`
	RecordedAt      pgtype.Date `json:"recorded_at"`
	PriorDiagnoses  string      `json:"prior_diagnoses"`
	PriorTreatments string      `json:"prior_treatments"`
	Procedures      string      `json:"procedures"`
	Medications     string      `json:"medications"`
	TestResults     string      `json:"test_results"`
	PatientID       *int64      `json:"patient_id"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}
