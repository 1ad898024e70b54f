package identity

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/mock"

	"github.com/clinica/clinica/internal/platform/department"
	"github.com/clinica/clinica/internal/platform/middleware"
	"github.com/clinica/clinica/pkg/envelope"
)

func newTestServer() (*echo.Echo, *memStore, *mockDepartments) {
	svc, store, depts := newTestService()
	e := echo.New()
	e.HTTPErrorHandler = middleware.ErrorHandler(zerolog.Nop())
	NewHandler(svc).RegisterRoutes(e.Group("/api"))
	return e, store, depts
}

func do(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

type doctorEnvelope struct {
	Success bool    `json:"success"`
	Message string  `json:"message"`
	Data    *Doctor `json:"data"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope.Response {
	t.Helper()
	var env envelope.Response
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v (body %s)", err, rec.Body.String())
	}
	return env
}

const patientP1 = `{"first_names":"Ana","last_names":"Rojas","gender":"F","birth_date":"1990-04-01",
	"national_id":"12345678","email":"a@x.com","phone":"912345678","address":"Main 1"}`

func TestHandler_DuplicateNationalID(t *testing.T) {
	e, _, _ := newTestServer()

	rec := do(e, http.MethodPost, "/api/patients", patientP1)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	dup := `{"first_names":"Luis","last_names":"Paz","gender":"M","national_id":"12345678"}`
	rec = do(e, http.MethodPost, "/api/patients", dup)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	if env.Success {
		t.Error("expected success=false")
	}
	if env.Message != `a patient with national id "12345678" already exists` {
		t.Errorf("unexpected message %q", env.Message)
	}
}

func TestHandler_GetPatient(t *testing.T) {
	e, _, _ := newTestServer()
	do(e, http.MethodPost, "/api/patients", patientP1)

	rec := do(e, http.MethodGet, "/api/patients/1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body struct {
		Data Patient `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Data.NationalID != "12345678" {
		t.Errorf("expected national id, got %q", body.Data.NationalID)
	}
	if !body.Data.BirthDate.Valid || body.Data.BirthDate.Time.Year() != 1990 {
		t.Errorf("expected birth date 1990-04-01, got %+v", body.Data.BirthDate)
	}
}

func TestHandler_GetPatient_NotFound(t *testing.T) {
	e, _, _ := newTestServer()
	rec := do(e, http.MethodGet, "/api/patients/9999", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	if env.Message != "patient 9999 not found" || env.Data != nil {
		t.Errorf("unexpected envelope %+v", env)
	}
}

func TestHandler_InvalidID(t *testing.T) {
	e, _, _ := newTestServer()
	rec := do(e, http.MethodGet, "/api/patients/abc", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestHandler_ListPatients(t *testing.T) {
	e, _, _ := newTestServer()

	rec := do(e, http.MethodGet, "/api/patients", "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 for empty list, got %d", rec.Code)
	}

	do(e, http.MethodPost, "/api/patients", patientP1)
	rec = do(e, http.MethodGet, "/api/patients?limit=10", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := rec.Header().Get("X-Total-Count"); got != "1" {
		t.Errorf("expected X-Total-Count 1, got %q", got)
	}
}

func TestHandler_UpdateAndDeletePatient(t *testing.T) {
	e, _, _ := newTestServer()
	do(e, http.MethodPost, "/api/patients", patientP1)

	upd := `{"id":55,"first_names":"Ana","last_names":"Rojas Diaz","gender":"F","national_id":"12345678"}`
	rec := do(e, http.MethodPut, "/api/patients/1", upd)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Data Patient `json:"data"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	if body.Data.ID != 1 || body.Data.LastNames != "Rojas Diaz" {
		t.Errorf("unexpected patient %+v", body.Data)
	}

	if rec := do(e, http.MethodDelete, "/api/patients/1", ""); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec := do(e, http.MethodDelete, "/api/patients/1", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 on second delete, got %d", rec.Code)
	}
}

func TestHandler_SupervisorScenario(t *testing.T) {
	e, _, _ := newTestServer()

	rec := do(e, http.MethodPost, "/api/doctors", `{"name":"Greg","surname":"House"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	rec = do(e, http.MethodPatch, "/api/doctors/1/assign-supervisor/1", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for self supervision, got %d", rec.Code)
	}

	do(e, http.MethodPost, "/api/doctors", `{"name":"Lisa","surname":"Cuddy"}`)
	rec = do(e, http.MethodPatch, "/api/doctors/1/assign-supervisor/2", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var env doctorEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Data == nil || env.Data.SupervisorID == nil || *env.Data.SupervisorID != 2 {
		t.Errorf("expected supervisor 2, got %+v", env.Data)
	}
}

func TestHandler_AssignPatientAndSpecialty(t *testing.T) {
	e, _, _ := newTestServer()
	do(e, http.MethodPost, "/api/doctors", `{"name":"Greg","surname":"House"}`)
	do(e, http.MethodPost, "/api/patients", patientP1)
	do(e, http.MethodPost, "/api/specialties", `{"name":"Diagnostics"}`)

	if rec := do(e, http.MethodPatch, "/api/doctors/1/assign-patient/2", ""); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec := do(e, http.MethodPatch, "/api/doctors/1/assign-patient/2", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 on repeat, got %d", rec.Code)
	}
	if rec := do(e, http.MethodPatch, "/api/specialties/3/assign-doctor/1", ""); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec := do(e, http.MethodPatch, "/api/specialties/3/assign-doctor/42", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestHandler_Departments(t *testing.T) {
	e, _, depts := newTestServer()
	do(e, http.MethodPost, "/api/doctors", `{"name":"Greg","surname":"House"}`)

	depts.On("GetDepartment", mock.Anything, int64(7)).Return(&department.Department{ID: 7, Name: "ER"}, nil)
	depts.On("CreateDepartment", mock.Anything, department.Department{Name: "ICU"}).
		Return(&department.Department{ID: 8, Name: "ICU"}, nil)
	depts.On("GetDepartment", mock.Anything, int64(9)).Return(nil, department.ErrNotFound)

	if rec := do(e, http.MethodGet, "/api/doctors/1/departments", ""); rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 without links, got %d", rec.Code)
	}
	if rec := do(e, http.MethodPatch, "/api/doctors/1/departments/7", ""); rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if rec := do(e, http.MethodPost, "/api/doctors/1/departments", `{"nombreDepartamento":"ICU"}`); rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if rec := do(e, http.MethodPatch, "/api/doctors/1/departments/9", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown department, got %d", rec.Code)
	}
	if rec := do(e, http.MethodDelete, "/api/doctors/1/departments/7", ""); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	rec := do(e, http.MethodPatch, "/api/doctors/9999/departments/7", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for missing doctor, got %d", rec.Code)
	}
	if env := decodeEnvelope(t, rec); env.Message != "doctor 9999 not found" {
		t.Errorf("unexpected message %q", env.Message)
	}
}

func TestHandler_DepartmentLinks(t *testing.T) {
	e, _, depts := newTestServer()
	do(e, http.MethodPost, "/api/doctors", `{"name":"Greg","surname":"House"}`)
	depts.On("GetDepartment", mock.Anything, int64(7)).Return(&department.Department{ID: 7, Name: "ER"}, nil)

	if rec := do(e, http.MethodGet, "/api/doctors/1/department-links", ""); rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 without links, got %d", rec.Code)
	}
	do(e, http.MethodPatch, "/api/doctors/1/departments/7", "")

	rec := do(e, http.MethodGet, "/api/doctors/1/department-links", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body struct {
		Data []DepartmentLink `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if len(body.Data) != 1 || body.Data[0].DepartmentID != 7 || body.Data[0].DoctorID != 1 {
		t.Fatalf("unexpected links %+v", body.Data)
	}

	path := fmt.Sprintf("/api/doctor-departments/%d", body.Data[0].ID)
	if rec := do(e, http.MethodDelete, path, ""); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 deleting listed link, got %d", rec.Code)
	}
	if rec := do(e, http.MethodGet, "/api/doctors/1/department-links", ""); rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 after delete, got %d", rec.Code)
	}
	if rec := do(e, http.MethodGet, "/api/doctors/9999/department-links", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for missing doctor, got %d", rec.Code)
	}
}

func TestHandler_RemoveDepartmentLink_NotFound(t *testing.T) {
	e, _, _ := newTestServer()
	if rec := do(e, http.MethodDelete, "/api/doctor-departments/5", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
