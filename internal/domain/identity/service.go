package identity

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/clinica/clinica/internal/platform/db"
	"github.com/clinica/clinica/internal/platform/department"
	"github.com/clinica/clinica/pkg/apperror"
	"github.com/clinica/clinica/pkg/pagination"
)

// DepartmentClient is the external department service as seen by doctors.
type DepartmentClient interface {
	GetDepartment(ctx context.Context, id int64) (*department.Department, error)
	CreateDepartment(ctx context.Context, d department.Department) (*department.Department, error)
	ListDepartments(ctx context.Context, ids []int64) ([]department.Department, error)
}

type Service struct {
	tx          db.Transactor
	patients    PatientRepository
	doctors     DoctorRepository
	specialties SpecialtyRepository
	links       DepartmentLinkRepository
	departments DepartmentClient
}

func NewService(tx db.Transactor, patients PatientRepository, doctors DoctorRepository,
	specialties SpecialtyRepository, links DepartmentLinkRepository, departments DepartmentClient) *Service {
	return &Service{
		tx:          tx,
		patients:    patients,
		doctors:     doctors,
		specialties: specialties,
		links:       links,
		departments: departments,
	}
}

// notFound turns db.ErrNotFound into a NotFound business error.
func notFound(err error, format string, args ...interface{}) error {
	if errors.Is(err, db.ErrNotFound) {
		return apperror.NotFound(format, args...)
	}
	return err
}

// -- Patient --

var uniqueChecks = []struct {
	field UniqueField
	value func(*Patient) string
	label string
}{
	{FieldNationalID, func(p *Patient) string { return p.NationalID }, "national id"},
	{FieldEmail, func(p *Patient) string { return p.Email }, "email"},
	{FieldAddress, func(p *Patient) string { return p.Address }, "address"},
	{FieldPhone, func(p *Patient) string { return p.Phone }, "phone"},
}

func validatePatient(p *Patient) error {
	p.FirstNames = strings.TrimSpace(p.FirstNames)
	p.LastNames = strings.TrimSpace(p.LastNames)
	p.Gender = strings.TrimSpace(p.Gender)
	p.NationalID = strings.TrimSpace(p.NationalID)
	p.Email = strings.TrimSpace(p.Email)
	p.Address = strings.TrimSpace(p.Address)
	p.Phone = strings.TrimSpace(p.Phone)
	if p.FirstNames == "" || p.LastNames == "" {
		return apperror.IllegalOperation("first_names and last_names are required")
	}
	if p.Gender == "" {
		return apperror.IllegalOperation("gender is required")
	}
	if p.Email != "" {
		if _, err := mail.ParseAddress(p.Email); err != nil {
			return apperror.IllegalOperation("email %q is not valid", p.Email)
		}
	}
	return nil
}

// checkUnique runs the uniqueness lookups in a fixed order and reports the
// first conflict. Blank values are not checked.
func (s *Service) checkUnique(ctx context.Context, p *Patient, excludeID int64) error {
	for _, chk := range uniqueChecks {
		v := chk.value(p)
		if v == "" {
			continue
		}
		taken, err := s.patients.ExistsWith(ctx, chk.field, v, excludeID)
		if err != nil {
			return err
		}
		if taken {
			return apperror.IllegalOperation("a patient with %s %q already exists", chk.label, v)
		}
	}
	return nil
}

// duplicateErr reports a unique index rejection the same way checkUnique
// does. It covers writes racing past the lookups.
func duplicateErr(err error, p *Patient) error {
	var dup *DuplicateFieldError
	if !errors.As(err, &dup) {
		return err
	}
	for _, chk := range uniqueChecks {
		if chk.field == dup.Field {
			return apperror.IllegalOperation("a patient with %s %q already exists", chk.label, chk.value(p))
		}
	}
	return err
}

func (s *Service) ListPatients(ctx context.Context, pg pagination.Params) ([]*Patient, int, error) {
	var out []*Patient
	var total int
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		out, total, err = s.patients.List(ctx, pg)
		return err
	})
	return out, total, err
}

func (s *Service) GetPatient(ctx context.Context, id int64) (*Patient, error) {
	var out *Patient
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		out, err = s.getPatient(ctx, id)
		return err
	})
	return out, err
}

func (s *Service) getPatient(ctx context.Context, id int64) (*Patient, error) {
	p, err := s.patients.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "patient %d not found", id)
	}
	return p, nil
}

func (s *Service) CreatePatient(ctx context.Context, p *Patient) (*Patient, error) {
	if err := validatePatient(p); err != nil {
		return nil, err
	}
	var out *Patient
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.checkUnique(ctx, p, 0); err != nil {
			return err
		}
		if err := s.patients.Create(ctx, p); err != nil {
			return duplicateErr(err, p)
		}
		var err error
		out, err = s.patients.GetByID(ctx, p.ID)
		return err
	})
	return out, err
}

// UpdatePatient overwrites the stored patient id with id, whatever p carries.
func (s *Service) UpdatePatient(ctx context.Context, id int64, p *Patient) (*Patient, error) {
	var out *Patient
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.getPatient(ctx, id); err != nil {
			return err
		}
		p.ID = id
		if err := validatePatient(p); err != nil {
			return err
		}
		if err := s.checkUnique(ctx, p, id); err != nil {
			return err
		}
		if err := s.patients.Update(ctx, p); err != nil {
			return notFound(duplicateErr(err, p), "patient %d not found", id)
		}
		var err error
		out, err = s.patients.GetByID(ctx, id)
		return err
	})
	return out, err
}

func (s *Service) DeletePatient(ctx context.Context, id int64) error {
	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.getPatient(ctx, id); err != nil {
			return err
		}
		return notFound(s.patients.Delete(ctx, id), "patient %d not found", id)
	})
}

// -- Doctor --

func validateDoctor(d *Doctor) error {
	d.Name = strings.TrimSpace(d.Name)
	d.Surname = strings.TrimSpace(d.Surname)
	if d.Name == "" || d.Surname == "" {
		return apperror.IllegalOperation("name and surname are required")
	}
	return nil
}

func (s *Service) ListDoctors(ctx context.Context, pg pagination.Params) ([]*Doctor, int, error) {
	var out []*Doctor
	var total int
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		out, total, err = s.doctors.List(ctx, pg)
		return err
	})
	return out, total, err
}

func (s *Service) GetDoctor(ctx context.Context, id int64) (*Doctor, error) {
	var out *Doctor
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		out, err = s.getDoctor(ctx, id)
		return err
	})
	return out, err
}

func (s *Service) getDoctor(ctx context.Context, id int64) (*Doctor, error) {
	d, err := s.doctors.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "doctor %d not found", id)
	}
	return d, nil
}

func (s *Service) CreateDoctor(ctx context.Context, d *Doctor) (*Doctor, error) {
	if err := validateDoctor(d); err != nil {
		return nil, err
	}
	var out *Doctor
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.doctors.Create(ctx, d); err != nil {
			return err
		}
		var err error
		out, err = s.doctors.GetByID(ctx, d.ID)
		return err
	})
	return out, err
}

func (s *Service) UpdateDoctor(ctx context.Context, id int64, d *Doctor) (*Doctor, error) {
	var out *Doctor
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.getDoctor(ctx, id); err != nil {
			return err
		}
		d.ID = id
		if err := validateDoctor(d); err != nil {
			return err
		}
		if err := s.doctors.Update(ctx, d); err != nil {
			return notFound(err, "doctor %d not found", id)
		}
		var err error
		out, err = s.doctors.GetByID(ctx, id)
		return err
	})
	return out, err
}

func (s *Service) DeleteDoctor(ctx context.Context, id int64) error {
	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.getDoctor(ctx, id); err != nil {
			return err
		}
		return notFound(s.doctors.Delete(ctx, id), "doctor %d not found", id)
	})
}

// -- Specialty --

func validateSpecialty(sp *Specialty) error {
	sp.Name = strings.TrimSpace(sp.Name)
	if sp.Name == "" {
		return apperror.IllegalOperation("name is required")
	}
	return nil
}

func (s *Service) ListSpecialties(ctx context.Context, pg pagination.Params) ([]*Specialty, int, error) {
	var out []*Specialty
	var total int
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		out, total, err = s.specialties.List(ctx, pg)
		return err
	})
	return out, total, err
}

func (s *Service) GetSpecialty(ctx context.Context, id int64) (*Specialty, error) {
	var out *Specialty
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		out, err = s.getSpecialty(ctx, id)
		return err
	})
	return out, err
}

func (s *Service) getSpecialty(ctx context.Context, id int64) (*Specialty, error) {
	sp, err := s.specialties.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "specialty %d not found", id)
	}
	return sp, nil
}

func (s *Service) CreateSpecialty(ctx context.Context, sp *Specialty) (*Specialty, error) {
	if err := validateSpecialty(sp); err != nil {
		return nil, err
	}
	var out *Specialty
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.specialties.Create(ctx, sp); err != nil {
			return err
		}
		var err error
		out, err = s.specialties.GetByID(ctx, sp.ID)
		return err
	})
	return out, err
}

func (s *Service) UpdateSpecialty(ctx context.Context, id int64, sp *Specialty) (*Specialty, error) {
	var out *Specialty
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.getSpecialty(ctx, id); err != nil {
			return err
		}
		sp.ID = id
		if err := validateSpecialty(sp); err != nil {
			return err
		}
		if err := s.specialties.Update(ctx, sp); err != nil {
			return notFound(err, "specialty %d not found", id)
		}
		var err error
		out, err = s.specialties.GetByID(ctx, id)
		return err
	})
	return out, err
}

func (s *Service) DeleteSpecialty(ctx context.Context, id int64) error {
	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.getSpecialty(ctx, id); err != nil {
			return err
		}
		return notFound(s.specialties.Delete(ctx, id), "specialty %d not found", id)
	})
}

// -- Assignments --

// AssignDoctorToSpecialty links a doctor without specialty to specialtyID.
func (s *Service) AssignDoctorToSpecialty(ctx context.Context, specialtyID, doctorID int64) (*Specialty, error) {
	var out *Specialty
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		sp, err := s.getSpecialty(ctx, specialtyID)
		if err != nil {
			return err
		}
		d, err := s.getDoctor(ctx, doctorID)
		if err != nil {
			return err
		}
		return apperror.Guard("error during specialty assignment", func() error {
			if d.SpecialtyID != nil {
				return apperror.IllegalOperation("doctor already assigned to a specialty")
			}
			if err := s.doctors.SetSpecialty(ctx, d.ID, sp.ID); err != nil {
				return err
			}
			out, err = s.specialties.GetByID(ctx, sp.ID)
			return err
		})
	})
	return out, err
}

func (s *Service) AssignPatientToDoctor(ctx context.Context, doctorID, patientID int64) (*Doctor, error) {
	var out *Doctor
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		d, err := s.getDoctor(ctx, doctorID)
		if err != nil {
			return err
		}
		if _, err := s.getPatient(ctx, patientID); err != nil {
			return err
		}
		return apperror.Guard("error during patient assignment", func() error {
			if d.HasPatient(patientID) {
				return apperror.IllegalOperation("patient already assigned to this doctor")
			}
			if err := s.doctors.AddPatient(ctx, doctorID, patientID); err != nil {
				return err
			}
			out, err = s.doctors.GetByID(ctx, doctorID)
			return err
		})
	})
	return out, err
}

// AssignSupervisor rejects self-supervision before touching storage, so the
// check holds for ids that do not exist as well.
func (s *Service) AssignSupervisor(ctx context.Context, doctorID, supervisorID int64) (*Doctor, error) {
	if doctorID == supervisorID {
		return nil, apperror.IllegalOperation("a doctor cannot supervise itself")
	}
	var out *Doctor
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.getDoctor(ctx, doctorID); err != nil {
			return err
		}
		if _, err := s.getDoctor(ctx, supervisorID); err != nil {
			return err
		}
		return apperror.Guard("error during supervisor assignment", func() error {
			if err := s.doctors.SetSupervisor(ctx, doctorID, supervisorID); err != nil {
				return err
			}
			var err error
			out, err = s.doctors.GetByID(ctx, doctorID)
			return err
		})
	})
	return out, err
}

// -- Departments --

func departmentErr(err error, id int64) error {
	if errors.Is(err, department.ErrNotFound) {
		return apperror.NotFound("department %d not found", id)
	}
	return apperror.Unavailable(err, "department service unavailable")
}

// doctorExists reports false, without error, when the doctor is unknown.
func (s *Service) doctorExists(ctx context.Context, id int64) (bool, error) {
	_, err := s.doctors.GetByID(ctx, id)
	if errors.Is(err, db.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

// ListDoctorDepartments resolves the doctor's linked departments through the
// external service. found is false when the doctor does not exist.
func (s *Service) ListDoctorDepartments(ctx context.Context, doctorID int64) (out []department.Department, found bool, err error) {
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if found, err = s.doctorExists(ctx, doctorID); err != nil || !found {
			return err
		}
		links, err := s.links.ListByDoctor(ctx, doctorID)
		if err != nil {
			return err
		}
		ids := make([]int64, len(links))
		for i, l := range links {
			ids[i] = l.DepartmentID
		}
		if len(ids) == 0 {
			return nil
		}
		out, err = s.departments.ListDepartments(ctx, ids)
		if err != nil {
			return apperror.Unavailable(err, "department service unavailable")
		}
		return nil
	})
	return out, found, err
}

// AssignDepartment links an existing external department to the doctor.
func (s *Service) AssignDepartment(ctx context.Context, doctorID, departmentID int64) (out *department.Department, found bool, err error) {
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if found, err = s.doctorExists(ctx, doctorID); err != nil || !found {
			return err
		}
		out, err = s.departments.GetDepartment(ctx, departmentID)
		if err != nil {
			return departmentErr(err, departmentID)
		}
		return s.link(ctx, doctorID, departmentID)
	})
	return out, found, err
}

// CreateDepartment creates the department remotely and links it to the doctor.
func (s *Service) CreateDepartment(ctx context.Context, doctorID int64, d department.Department) (out *department.Department, found bool, err error) {
	d.Name = strings.TrimSpace(d.Name)
	if d.Name == "" {
		return nil, false, apperror.IllegalOperation("department name is required")
	}
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if found, err = s.doctorExists(ctx, doctorID); err != nil || !found {
			return err
		}
		out, err = s.departments.CreateDepartment(ctx, d)
		if err != nil {
			return apperror.Unavailable(err, "department service unavailable")
		}
		if out.ID <= 0 {
			return apperror.Unavailable(department.ErrBadResponse, "department service unavailable")
		}
		return s.link(ctx, doctorID, out.ID)
	})
	return out, found, err
}

// RemoveDepartment drops the link between the doctor and departmentID and
// returns the department as the external service knows it.
func (s *Service) RemoveDepartment(ctx context.Context, doctorID, departmentID int64) (out *department.Department, found bool, err error) {
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if found, err = s.doctorExists(ctx, doctorID); err != nil || !found {
			return err
		}
		out, err = s.departments.GetDepartment(ctx, departmentID)
		if err != nil {
			return departmentErr(err, departmentID)
		}
		if err := s.links.RemoveByDepartment(ctx, doctorID, departmentID); err != nil {
			return notFound(err, "doctor %d is not linked to department %d", doctorID, departmentID)
		}
		return nil
	})
	return out, found, err
}

// ListDepartmentLinks returns the doctor's local link rows, whose ids are
// what RemoveDepartmentLink takes.
func (s *Service) ListDepartmentLinks(ctx context.Context, doctorID int64) (out []DepartmentLink, found bool, err error) {
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if found, err = s.doctorExists(ctx, doctorID); err != nil || !found {
			return err
		}
		out, err = s.links.ListByDoctor(ctx, doctorID)
		return err
	})
	return out, found, err
}

func (s *Service) RemoveDepartmentLink(ctx context.Context, linkID int64) error {
	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		return notFound(s.links.Delete(ctx, linkID), "department link %d not found", linkID)
	})
}

func (s *Service) link(ctx context.Context, doctorID, departmentID int64) error {
	if _, err := s.links.Add(ctx, doctorID, departmentID); err != nil {
		if errors.Is(err, db.ErrUniqueViolation) {
			return apperror.IllegalOperation("department already linked")
		}
		return fmt.Errorf("link department %d: %w", departmentID, err)
	}
	return nil
}
