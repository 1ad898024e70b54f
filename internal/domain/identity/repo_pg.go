package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinica/clinica/internal/platform/db"
	"github.com/clinica/clinica/pkg/pagination"
)

// -- Patient Repository --

type patientRepoPG struct {
	pool *pgxpool.Pool
}

func NewPatientRepo(pool *pgxpool.Pool) PatientRepository {
	return &patientRepoPG{pool: pool}
}

const patientSelect = `SELECT p.id, p.first_names, p.last_names, p.birth_date, p.gender,
	COALESCE(p.national_id, ''), COALESCE(p.address, ''), COALESCE(p.phone, ''), COALESCE(p.email, ''),
	COALESCE((SELECT array_agg(a.id ORDER BY a.id) FROM appointment a WHERE a.patient_id = p.id), '{}'),
	COALESCE((SELECT array_agg(pd.doctor_id ORDER BY pd.doctor_id) FROM patient_doctor pd WHERE pd.patient_id = p.id), '{}'),
	(SELECT m.id FROM medical_record m WHERE m.patient_id = p.id),
	p.created_at, p.updated_at
	FROM patient p`

func scanPatient(row pgx.Row) (*Patient, error) {
	p := NewPatient()
	err := row.Scan(&p.ID, &p.FirstNames, &p.LastNames, &p.BirthDate, &p.Gender,
		&p.NationalID, &p.Address, &p.Phone, &p.Email,
		&p.AppointmentIDs, &p.DoctorIDs, &p.MedicalRecordID,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *patientRepoPG) Create(ctx context.Context, p *Patient) error {
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO patient (first_names, last_names, birth_date, gender, national_id, address, phone, email)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''), NULLIF($7, ''), NULLIF($8, ''))
		RETURNING id, created_at, updated_at`,
		p.FirstNames, p.LastNames, p.BirthDate, p.Gender, p.NationalID, p.Address, p.Phone, p.Email,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create patient: %w", duplicateField(db.Translate(err)))
	}
	return nil
}

func (r *patientRepoPG) GetByID(ctx context.Context, id int64) (*Patient, error) {
	p, err := scanPatient(db.Conn(ctx, r.pool).QueryRow(ctx, patientSelect+` WHERE p.id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("get patient %d: %w", id, db.Translate(err))
	}
	return p, nil
}

func (r *patientRepoPG) List(ctx context.Context, pg pagination.Params) ([]*Patient, int, error) {
	q := db.Conn(ctx, r.pool)
	var total int
	if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM patient`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count patients: %w", err)
	}

	rows, err := q.Query(ctx, patientSelect+` ORDER BY p.id LIMIT $1 OFFSET $2`, pg.LimitArg(), pg.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list patients: %w", err)
	}
	defer rows.Close()

	out := []*Patient{}
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan patient: %w", err)
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}

func (r *patientRepoPG) Update(ctx context.Context, p *Patient) error {
	tag, err := db.Conn(ctx, r.pool).Exec(ctx, `
		UPDATE patient SET first_names = $2, last_names = $3, birth_date = $4, gender = $5,
			national_id = NULLIF($6, ''), address = NULLIF($7, ''), phone = NULLIF($8, ''), email = NULLIF($9, ''),
			updated_at = NOW()
		WHERE id = $1`,
		p.ID, p.FirstNames, p.LastNames, p.BirthDate, p.Gender, p.NationalID, p.Address, p.Phone, p.Email)
	if err != nil {
		return fmt.Errorf("update patient %d: %w", p.ID, duplicateField(db.Translate(err)))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update patient %d: %w", p.ID, db.ErrNotFound)
	}
	return nil
}

func (r *patientRepoPG) Delete(ctx context.Context, id int64) error {
	return db.DeleteByID(ctx, db.Conn(ctx, r.pool), "patient", id)
}

// uniqueIndexes maps the partial unique indexes from 003_patient_unique.sql
// back to the field they guard.
var uniqueIndexes = map[string]UniqueField{
	"patient_national_id_key": FieldNationalID,
	"patient_email_key":       FieldEmail,
	"patient_address_key":     FieldAddress,
	"patient_phone_key":       FieldPhone,
}

func duplicateField(err error) error {
	if !errors.Is(err, db.ErrUniqueViolation) {
		return err
	}
	if f, ok := uniqueIndexes[db.Constraint(err)]; ok {
		return &DuplicateFieldError{Field: f, Err: err}
	}
	return err
}

// uniqueColumns whitelists the columns ExistsWith may interpolate.
var uniqueColumns = map[UniqueField]string{
	FieldNationalID: "national_id",
	FieldEmail:      "email",
	FieldAddress:    "address",
	FieldPhone:      "phone",
}

func (r *patientRepoPG) ExistsWith(ctx context.Context, field UniqueField, value string, excludeID int64) (bool, error) {
	col, ok := uniqueColumns[field]
	if !ok {
		return false, fmt.Errorf("unknown unique field %q", field)
	}
	var exists bool
	err := db.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM patient WHERE `+col+` = $1 AND id <> $2)`,
		value, excludeID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check patient %s: %w", col, err)
	}
	return exists, nil
}

// -- Doctor Repository --

type doctorRepoPG struct {
	pool *pgxpool.Pool
}

func NewDoctorRepo(pool *pgxpool.Pool) DoctorRepository {
	return &doctorRepoPG{pool: pool}
}

const doctorSelect = `SELECT d.id, d.name, d.surname, COALESCE(d.phone, ''), COALESCE(d.schedule, ''), COALESCE(d.email, ''),
	d.specialty_id, d.supervisor_id,
	COALESCE((SELECT array_agg(pd.patient_id ORDER BY pd.patient_id) FROM patient_doctor pd WHERE pd.doctor_id = d.id), '{}'),
	COALESCE((SELECT array_agg(dd.department_id ORDER BY dd.department_id) FROM doctor_department dd WHERE dd.doctor_id = d.id), '{}'),
	d.created_at, d.updated_at
	FROM doctor d`

func scanDoctor(row pgx.Row) (*Doctor, error) {
	d := NewDoctor()
	err := row.Scan(&d.ID, &d.Name, &d.Surname, &d.Phone, &d.Schedule, &d.Email,
		&d.SpecialtyID, &d.SupervisorID, &d.PatientIDs, &d.DepartmentIDs,
		&d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (r *doctorRepoPG) Create(ctx context.Context, d *Doctor) error {
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO doctor (name, surname, phone, schedule, email)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`,
		d.Name, d.Surname, d.Phone, d.Schedule, d.Email,
	).Scan(&d.ID, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create doctor: %w", db.Translate(err))
	}
	return nil
}

func (r *doctorRepoPG) GetByID(ctx context.Context, id int64) (*Doctor, error) {
	d, err := scanDoctor(db.Conn(ctx, r.pool).QueryRow(ctx, doctorSelect+` WHERE d.id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("get doctor %d: %w", id, db.Translate(err))
	}
	return d, nil
}

func (r *doctorRepoPG) List(ctx context.Context, pg pagination.Params) ([]*Doctor, int, error) {
	q := db.Conn(ctx, r.pool)
	var total int
	if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM doctor`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count doctors: %w", err)
	}

	rows, err := q.Query(ctx, doctorSelect+` ORDER BY d.id LIMIT $1 OFFSET $2`, pg.LimitArg(), pg.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list doctors: %w", err)
	}
	defer rows.Close()

	out := []*Doctor{}
	for rows.Next() {
		d, err := scanDoctor(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan doctor: %w", err)
		}
		out = append(out, d)
	}
	return out, total, rows.Err()
}

func (r *doctorRepoPG) Update(ctx context.Context, d *Doctor) error {
	tag, err := db.Conn(ctx, r.pool).Exec(ctx, `
		UPDATE doctor SET name = $2, surname = $3, phone = $4, schedule = $5, email = $6, updated_at = NOW()
		WHERE id = $1`,
		d.ID, d.Name, d.Surname, d.Phone, d.Schedule, d.Email)
	if err != nil {
		return fmt.Errorf("update doctor %d: %w", d.ID, db.Translate(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update doctor %d: %w", d.ID, db.ErrNotFound)
	}
	return nil
}

func (r *doctorRepoPG) Delete(ctx context.Context, id int64) error {
	return db.DeleteByID(ctx, db.Conn(ctx, r.pool), "doctor", id)
}

func (r *doctorRepoPG) SetSpecialty(ctx context.Context, doctorID, specialtyID int64) error {
	tag, err := db.Conn(ctx, r.pool).Exec(ctx,
		`UPDATE doctor SET specialty_id = $2, updated_at = NOW() WHERE id = $1 AND specialty_id IS NULL`,
		doctorID, specialtyID)
	if err != nil {
		return fmt.Errorf("set specialty of doctor %d: %w", doctorID, db.Translate(err))
	}
	return db.RequireRows(tag)
}

func (r *doctorRepoPG) SetSupervisor(ctx context.Context, doctorID, supervisorID int64) error {
	tag, err := db.Conn(ctx, r.pool).Exec(ctx,
		`UPDATE doctor SET supervisor_id = $2, updated_at = NOW() WHERE id = $1`,
		doctorID, supervisorID)
	if err != nil {
		return fmt.Errorf("set supervisor of doctor %d: %w", doctorID, db.Translate(err))
	}
	return db.RequireRows(tag)
}

func (r *doctorRepoPG) AddPatient(ctx context.Context, doctorID, patientID int64) error {
	_, err := db.Conn(ctx, r.pool).Exec(ctx,
		`INSERT INTO patient_doctor (doctor_id, patient_id) VALUES ($1, $2)`,
		doctorID, patientID)
	if err != nil {
		return fmt.Errorf("link patient %d to doctor %d: %w", patientID, doctorID, db.Translate(err))
	}
	return nil
}

// -- Specialty Repository --

type specialtyRepoPG struct {
	pool *pgxpool.Pool
}

func NewSpecialtyRepo(pool *pgxpool.Pool) SpecialtyRepository {
	return &specialtyRepoPG{pool: pool}
}

const specialtySelect = `SELECT s.id, s.name,
	COALESCE((SELECT array_agg(d.id ORDER BY d.id) FROM doctor d WHERE d.specialty_id = s.id), '{}'),
	s.created_at, s.updated_at
	FROM specialty s`

func scanSpecialty(row pgx.Row) (*Specialty, error) {
	s := NewSpecialty()
	if err := row.Scan(&s.ID, &s.Name, &s.DoctorIDs, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	return s, nil
}

func (r *specialtyRepoPG) Create(ctx context.Context, s *Specialty) error {
	err := db.Conn(ctx, r.pool).QueryRow(ctx,
		`INSERT INTO specialty (name) VALUES ($1) RETURNING id, created_at, updated_at`, s.Name,
	).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create specialty: %w", db.Translate(err))
	}
	return nil
}

func (r *specialtyRepoPG) GetByID(ctx context.Context, id int64) (*Specialty, error) {
	s, err := scanSpecialty(db.Conn(ctx, r.pool).QueryRow(ctx, specialtySelect+` WHERE s.id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("get specialty %d: %w", id, db.Translate(err))
	}
	return s, nil
}

func (r *specialtyRepoPG) List(ctx context.Context, pg pagination.Params) ([]*Specialty, int, error) {
	q := db.Conn(ctx, r.pool)
	var total int
	if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM specialty`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count specialties: %w", err)
	}

	rows, err := q.Query(ctx, specialtySelect+` ORDER BY s.id LIMIT $1 OFFSET $2`, pg.LimitArg(), pg.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list specialties: %w", err)
	}
	defer rows.Close()

	out := []*Specialty{}
	for rows.Next() {
		s, err := scanSpecialty(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan specialty: %w", err)
		}
		out = append(out, s)
	}
	return out, total, rows.Err()
}

func (r *specialtyRepoPG) Update(ctx context.Context, s *Specialty) error {
	tag, err := db.Conn(ctx, r.pool).Exec(ctx,
		`UPDATE specialty SET name = $2, updated_at = NOW() WHERE id = $1`, s.ID, s.Name)
	if err != nil {
		return fmt.Errorf("update specialty %d: %w", s.ID, db.Translate(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update specialty %d: %w", s.ID, db.ErrNotFound)
	}
	return nil
}

func (r *specialtyRepoPG) Delete(ctx context.Context, id int64) error {
	return db.DeleteByID(ctx, db.Conn(ctx, r.pool), "specialty", id)
}

// -- Department Link Repository --

type departmentLinkRepoPG struct {
	pool *pgxpool.Pool
}

func NewDepartmentLinkRepo(pool *pgxpool.Pool) DepartmentLinkRepository {
	return &departmentLinkRepoPG{pool: pool}
}

func (r *departmentLinkRepoPG) Add(ctx context.Context, doctorID, departmentID int64) (*DepartmentLink, error) {
	l := &DepartmentLink{DoctorID: doctorID, DepartmentID: departmentID}
	err := db.Conn(ctx, r.pool).QueryRow(ctx,
		`INSERT INTO doctor_department (doctor_id, department_id) VALUES ($1, $2) RETURNING id`,
		doctorID, departmentID,
	).Scan(&l.ID)
	if err != nil {
		return nil, fmt.Errorf("link department %d to doctor %d: %w", departmentID, doctorID, db.Translate(err))
	}
	return l, nil
}

func (r *departmentLinkRepoPG) ListByDoctor(ctx context.Context, doctorID int64) ([]DepartmentLink, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx,
		`SELECT id, doctor_id, department_id FROM doctor_department WHERE doctor_id = $1 ORDER BY id`, doctorID)
	if err != nil {
		return nil, fmt.Errorf("list department links of doctor %d: %w", doctorID, err)
	}
	links, err := pgx.CollectRows(rows, pgx.RowToStructByPos[DepartmentLink])
	if err != nil {
		return nil, fmt.Errorf("scan department links: %w", err)
	}
	return links, nil
}

func (r *departmentLinkRepoPG) RemoveByDepartment(ctx context.Context, doctorID, departmentID int64) error {
	tag, err := db.Conn(ctx, r.pool).Exec(ctx,
		`DELETE FROM doctor_department WHERE doctor_id = $1 AND department_id = $2`, doctorID, departmentID)
	if err != nil {
		return fmt.Errorf("unlink department %d from doctor %d: %w", departmentID, doctorID, err)
	}
	if tag.RowsAffected() == 0 {
		return db.ErrNotFound
	}
	return nil
}

func (r *departmentLinkRepoPG) Delete(ctx context.Context, linkID int64) error {
	return db.DeleteByID(ctx, db.Conn(ctx, r.pool), "doctor_department", linkID)
}
