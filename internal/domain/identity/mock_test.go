package identity

import (
	"context"
	"sort"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/clinica/clinica/internal/platform/db"
	"github.com/clinica/clinica/internal/platform/department"
	"github.com/clinica/clinica/pkg/pagination"
)

// -- In-memory store shared by the mock repositories --

type memStore struct {
	nextID        int64
	patients      map[int64]*Patient
	doctors       map[int64]*Doctor
	specialties   map[int64]*Specialty
	links         map[int64]*DepartmentLink
	patientDoctor map[[2]int64]bool

	// failWrites makes relation writes fail with this error.
	failWrites error
}

func newMemStore() *memStore {
	return &memStore{
		patients:      make(map[int64]*Patient),
		doctors:       make(map[int64]*Doctor),
		specialties:   make(map[int64]*Specialty),
		links:         make(map[int64]*DepartmentLink),
		patientDoctor: make(map[[2]int64]bool),
	}
}

func (s *memStore) id() int64 {
	s.nextID++
	return s.nextID
}

func page[T any](items []T, pg pagination.Params) []T {
	if pg.Offset >= len(items) {
		return nil
	}
	items = items[pg.Offset:]
	if !pg.Unbounded() && pg.Limit < len(items) {
		items = items[:pg.Limit]
	}
	return items
}

func sortedIDs[T any](m map[int64]T) []int64 {
	ids := make([]int64, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// -- Patient --

type mockPatientRepo struct{ s *memStore }

func (m *mockPatientRepo) Create(_ context.Context, p *Patient) error {
	p.ID = m.s.id()
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	cp := *p
	m.s.patients[p.ID] = &cp
	return nil
}

func (m *mockPatientRepo) GetByID(_ context.Context, id int64) (*Patient, error) {
	p, ok := m.s.patients[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	cp := *p
	cp.AppointmentIDs = []int64{}
	cp.DoctorIDs = []int64{}
	for key := range m.s.patientDoctor {
		if key[1] == id {
			cp.DoctorIDs = append(cp.DoctorIDs, key[0])
		}
	}
	sort.Slice(cp.DoctorIDs, func(i, j int) bool { return cp.DoctorIDs[i] < cp.DoctorIDs[j] })
	return &cp, nil
}

func (m *mockPatientRepo) List(ctx context.Context, pg pagination.Params) ([]*Patient, int, error) {
	var out []*Patient
	for _, id := range sortedIDs(m.s.patients) {
		p, _ := m.GetByID(ctx, id)
		out = append(out, p)
	}
	return page(out, pg), len(out), nil
}

func (m *mockPatientRepo) Update(_ context.Context, p *Patient) error {
	old, ok := m.s.patients[p.ID]
	if !ok {
		return db.ErrNotFound
	}
	cp := *p
	cp.MedicalRecordID = old.MedicalRecordID
	cp.CreatedAt = old.CreatedAt
	cp.UpdatedAt = time.Now()
	m.s.patients[p.ID] = &cp
	return nil
}

func (m *mockPatientRepo) Delete(_ context.Context, id int64) error {
	if _, ok := m.s.patients[id]; !ok {
		return db.ErrNotFound
	}
	delete(m.s.patients, id)
	for key := range m.s.patientDoctor {
		if key[1] == id {
			delete(m.s.patientDoctor, key)
		}
	}
	return nil
}

func (m *mockPatientRepo) ExistsWith(_ context.Context, field UniqueField, value string, excludeID int64) (bool, error) {
	for id, p := range m.s.patients {
		if id == excludeID {
			continue
		}
		var v string
		switch field {
		case FieldNationalID:
			v = p.NationalID
		case FieldEmail:
			v = p.Email
		case FieldAddress:
			v = p.Address
		case FieldPhone:
			v = p.Phone
		}
		if v == value {
			return true, nil
		}
	}
	return false, nil
}

// -- Doctor --

type mockDoctorRepo struct{ s *memStore }

func (m *mockDoctorRepo) Create(_ context.Context, d *Doctor) error {
	d.ID = m.s.id()
	d.SpecialtyID = nil
	d.SupervisorID = nil
	d.CreatedAt = time.Now()
	d.UpdatedAt = d.CreatedAt
	cp := *d
	m.s.doctors[d.ID] = &cp
	return nil
}

func (m *mockDoctorRepo) GetByID(_ context.Context, id int64) (*Doctor, error) {
	d, ok := m.s.doctors[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	cp := *d
	cp.PatientIDs = []int64{}
	cp.DepartmentIDs = []int64{}
	for key := range m.s.patientDoctor {
		if key[0] == id {
			cp.PatientIDs = append(cp.PatientIDs, key[1])
		}
	}
	sort.Slice(cp.PatientIDs, func(i, j int) bool { return cp.PatientIDs[i] < cp.PatientIDs[j] })
	for _, linkID := range sortedIDs(m.s.links) {
		if l := m.s.links[linkID]; l.DoctorID == id {
			cp.DepartmentIDs = append(cp.DepartmentIDs, l.DepartmentID)
		}
	}
	return &cp, nil
}

func (m *mockDoctorRepo) List(ctx context.Context, pg pagination.Params) ([]*Doctor, int, error) {
	var out []*Doctor
	for _, id := range sortedIDs(m.s.doctors) {
		d, _ := m.GetByID(ctx, id)
		out = append(out, d)
	}
	return page(out, pg), len(out), nil
}

func (m *mockDoctorRepo) Update(_ context.Context, d *Doctor) error {
	old, ok := m.s.doctors[d.ID]
	if !ok {
		return db.ErrNotFound
	}
	cp := *d
	cp.SpecialtyID = old.SpecialtyID
	cp.SupervisorID = old.SupervisorID
	cp.CreatedAt = old.CreatedAt
	m.s.doctors[d.ID] = &cp
	return nil
}

func (m *mockDoctorRepo) Delete(_ context.Context, id int64) error {
	if _, ok := m.s.doctors[id]; !ok {
		return db.ErrNotFound
	}
	delete(m.s.doctors, id)
	return nil
}

func (m *mockDoctorRepo) SetSpecialty(_ context.Context, doctorID, specialtyID int64) error {
	if m.s.failWrites != nil {
		return m.s.failWrites
	}
	d := m.s.doctors[doctorID]
	if d.SpecialtyID != nil {
		return db.ErrConflict
	}
	d.SpecialtyID = &specialtyID
	return nil
}

func (m *mockDoctorRepo) SetSupervisor(_ context.Context, doctorID, supervisorID int64) error {
	if m.s.failWrites != nil {
		return m.s.failWrites
	}
	m.s.doctors[doctorID].SupervisorID = &supervisorID
	return nil
}

func (m *mockDoctorRepo) AddPatient(_ context.Context, doctorID, patientID int64) error {
	if m.s.failWrites != nil {
		return m.s.failWrites
	}
	key := [2]int64{doctorID, patientID}
	if m.s.patientDoctor[key] {
		return db.ErrUniqueViolation
	}
	m.s.patientDoctor[key] = true
	return nil
}

// -- Specialty --

type mockSpecialtyRepo struct{ s *memStore }

func (m *mockSpecialtyRepo) Create(_ context.Context, sp *Specialty) error {
	sp.ID = m.s.id()
	cp := *sp
	m.s.specialties[sp.ID] = &cp
	return nil
}

func (m *mockSpecialtyRepo) GetByID(_ context.Context, id int64) (*Specialty, error) {
	sp, ok := m.s.specialties[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	cp := *sp
	cp.DoctorIDs = []int64{}
	for _, docID := range sortedIDs(m.s.doctors) {
		if d := m.s.doctors[docID]; d.SpecialtyID != nil && *d.SpecialtyID == id {
			cp.DoctorIDs = append(cp.DoctorIDs, docID)
		}
	}
	return &cp, nil
}

func (m *mockSpecialtyRepo) List(ctx context.Context, pg pagination.Params) ([]*Specialty, int, error) {
	var out []*Specialty
	for _, id := range sortedIDs(m.s.specialties) {
		sp, _ := m.GetByID(ctx, id)
		out = append(out, sp)
	}
	return page(out, pg), len(out), nil
}

func (m *mockSpecialtyRepo) Update(_ context.Context, sp *Specialty) error {
	if _, ok := m.s.specialties[sp.ID]; !ok {
		return db.ErrNotFound
	}
	cp := *sp
	m.s.specialties[sp.ID] = &cp
	return nil
}

func (m *mockSpecialtyRepo) Delete(_ context.Context, id int64) error {
	if _, ok := m.s.specialties[id]; !ok {
		return db.ErrNotFound
	}
	delete(m.s.specialties, id)
	for _, d := range m.s.doctors {
		if d.SpecialtyID != nil && *d.SpecialtyID == id {
			d.SpecialtyID = nil
		}
	}
	return nil
}

// -- Department links --

type mockLinkRepo struct{ s *memStore }

func (m *mockLinkRepo) Add(_ context.Context, doctorID, departmentID int64) (*DepartmentLink, error) {
	for _, l := range m.s.links {
		if l.DepartmentID == departmentID {
			return nil, db.ErrUniqueViolation
		}
	}
	l := &DepartmentLink{ID: m.s.id(), DoctorID: doctorID, DepartmentID: departmentID}
	m.s.links[l.ID] = l
	return l, nil
}

func (m *mockLinkRepo) ListByDoctor(_ context.Context, doctorID int64) ([]DepartmentLink, error) {
	var out []DepartmentLink
	for _, id := range sortedIDs(m.s.links) {
		if l := m.s.links[id]; l.DoctorID == doctorID {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (m *mockLinkRepo) RemoveByDepartment(_ context.Context, doctorID, departmentID int64) error {
	for id, l := range m.s.links {
		if l.DoctorID == doctorID && l.DepartmentID == departmentID {
			delete(m.s.links, id)
			return nil
		}
	}
	return db.ErrNotFound
}

func (m *mockLinkRepo) Delete(_ context.Context, linkID int64) error {
	if _, ok := m.s.links[linkID]; !ok {
		return db.ErrNotFound
	}
	delete(m.s.links, linkID)
	return nil
}

// -- Department client --

type mockDepartments struct{ mock.Mock }

func (m *mockDepartments) GetDepartment(ctx context.Context, id int64) (*department.Department, error) {
	args := m.Called(ctx, id)
	d, _ := args.Get(0).(*department.Department)
	return d, args.Error(1)
}

func (m *mockDepartments) CreateDepartment(ctx context.Context, d department.Department) (*department.Department, error) {
	args := m.Called(ctx, d)
	out, _ := args.Get(0).(*department.Department)
	return out, args.Error(1)
}

func (m *mockDepartments) ListDepartments(ctx context.Context, ids []int64) ([]department.Department, error) {
	args := m.Called(ctx, ids)
	out, _ := args.Get(0).([]department.Department)
	return out, args.Error(1)
}

func newTestService() (*Service, *memStore, *mockDepartments) {
	s := newMemStore()
	depts := &mockDepartments{}
	svc := NewService(db.NopTransactor{},
		&mockPatientRepo{s}, &mockDoctorRepo{s}, &mockSpecialtyRepo{s}, &mockLinkRepo{s}, depts)
	return svc, s, depts
}
