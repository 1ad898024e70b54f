package identity

import (
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// Patient exposes its relations as id projections. The appointment and
// medical record sides own those foreign keys.
type Patient struct {
	ID              int64       `json:"id"`
	FirstNames      string      `json:"first_names"`
	LastNames       string      `json:"last_names"`
	BirthDate       pgtype.Date `json:"birth_date"`
	Gender          string      `json:"gender"`
	NationalID      string      `json:"national_id"`
	Address         string      `json:"address"`
	Phone           string      `json:"phone"`
	Email           string      `json:"email"`
	AppointmentIDs  []int64     `json:"appointment_ids"`
	DoctorIDs       []int64     `json:"doctor_ids"`
	MedicalRecordID *int64      `json:"medical_record_id"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

func NewPatient() *Patient {
	return &Patient{AppointmentIDs: []int64{}, DoctorIDs: []int64{}}
}

type Doctor struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	Surname       string    `json:"surname"`
	Phone         string    `json:"phone"`
	Schedule      string    `json:"schedule"`
	Email         string    `json:"email"`
	SpecialtyID   *int64    `json:"specialty_id"`
	SupervisorID  *int64    `json:"supervisor_id"`
	PatientIDs    []int64   `json:"patient_ids"`
	DepartmentIDs []int64   `json:"department_ids"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func NewDoctor() *Doctor {
	return &Doctor{PatientIDs: []int64{}, DepartmentIDs: []int64{}}
}

func (d *Doctor) HasPatient(patientID int64) bool {
	for _, id := range d.PatientIDs {
		if id == patientID {
			return true
		}
	}
	return false
}

type Specialty struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	DoctorIDs []int64   `json:"doctor_ids"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewSpecialty() *Specialty {
	return &Specialty{DoctorIDs: []int64{}}
}

// DepartmentLink is the local row tying a doctor to an external department id.
type DepartmentLink struct {
	ID           int64 `json:"id"`
	DoctorID     int64 `json:"doctor_id"`
	DepartmentID int64 `json:"department_id"`
}
