package identity

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/clinica/clinica/internal/platform/department"
	"github.com/clinica/clinica/pkg/envelope"
	"github.com/clinica/clinica/pkg/httpx"
	"github.com/clinica/clinica/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/patients", h.ListPatients)
	api.POST("/patients", h.CreatePatient)
	api.GET("/patients/:id", h.GetPatient)
	api.PUT("/patients/:id", h.UpdatePatient)
	api.DELETE("/patients/:id", h.DeletePatient)

	api.GET("/doctors", h.ListDoctors)
	api.POST("/doctors", h.CreateDoctor)
	api.GET("/doctors/:id", h.GetDoctor)
	api.PUT("/doctors/:id", h.UpdateDoctor)
	api.DELETE("/doctors/:id", h.DeleteDoctor)
	api.PATCH("/doctors/:id/assign-patient/:patientId", h.AssignPatient)
	api.PATCH("/doctors/:id/assign-supervisor/:supervisorId", h.AssignSupervisor)

	// Departments live in an external service; only link rows are local.
	api.GET("/doctors/:id/departments", h.ListDepartments)
	api.POST("/doctors/:id/departments", h.CreateDepartment)
	api.PATCH("/doctors/:id/departments/:departmentId", h.AssignDepartment)
	api.DELETE("/doctors/:id/departments/:departmentId", h.RemoveDepartment)
	api.GET("/doctors/:id/department-links", h.ListDepartmentLinks)
	api.DELETE("/doctor-departments/:linkId", h.RemoveDepartmentLink)

	api.GET("/specialties", h.ListSpecialties)
	api.POST("/specialties", h.CreateSpecialty)
	api.GET("/specialties/:id", h.GetSpecialty)
	api.PUT("/specialties/:id", h.UpdateSpecialty)
	api.DELETE("/specialties/:id", h.DeleteSpecialty)
	api.PATCH("/specialties/:id/assign-doctor/:doctorId", h.AssignDoctor)
}

// -- Patient handlers --

func (h *Handler) ListPatients(c echo.Context) error {
	items, total, err := h.svc.ListPatients(c.Request().Context(), pagination.FromContext(c))
	if err != nil {
		return err
	}
	return httpx.List(c, "patients found", items, total)
}

func (h *Handler) GetPatient(c echo.Context) error {
	id, err := httpx.ParamID(c, "id")
	if err != nil {
		return err
	}
	p, err := h.svc.GetPatient(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return httpx.OK(c, "patient found", p)
}

func (h *Handler) CreatePatient(c echo.Context) error {
	p := NewPatient()
	if err := httpx.Bind(c, p); err != nil {
		return err
	}
	out, err := h.svc.CreatePatient(c.Request().Context(), p)
	if err != nil {
		return err
	}
	return httpx.Created(c, "patient created", out)
}

func (h *Handler) UpdatePatient(c echo.Context) error {
	id, err := httpx.ParamID(c, "id")
	if err != nil {
		return err
	}
	p := NewPatient()
	if err := httpx.Bind(c, p); err != nil {
		return err
	}
	out, err := h.svc.UpdatePatient(c.Request().Context(), id, p)
	if err != nil {
		return err
	}
	return httpx.OK(c, "patient updated", out)
}

func (h *Handler) DeletePatient(c echo.Context) error {
	id, err := httpx.ParamID(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.DeletePatient(c.Request().Context(), id); err != nil {
		return err
	}
	return httpx.OK(c, "patient deleted", nil)
}

// -- Doctor handlers --

func (h *Handler) ListDoctors(c echo.Context) error {
	items, total, err := h.svc.ListDoctors(c.Request().Context(), pagination.FromContext(c))
	if err != nil {
		return err
	}
	return httpx.List(c, "doctors found", items, total)
}

func (h *Handler) GetDoctor(c echo.Context) error {
	id, err := httpx.ParamID(c, "id")
	if err != nil {
		return err
	}
	d, err := h.svc.GetDoctor(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return httpx.OK(c, "doctor found", d)
}

func (h *Handler) CreateDoctor(c echo.Context) error {
	d := NewDoctor()
	if err := httpx.Bind(c, d); err != nil {
		return err
	}
	out, err := h.svc.CreateDoctor(c.Request().Context(), d)
	if err != nil {
		return err
	}
	return httpx.Created(c, "doctor created", out)
}

func (h *Handler) UpdateDoctor(c echo.Context) error {
	id, err := httpx.ParamID(c, "id")
	if err != nil {
		return err
	}
	d := NewDoctor()
	if err := httpx.Bind(c, d); err != nil {
		return err
	}
	out, err := h.svc.UpdateDoctor(c.Request().Context(), id, d)
	if err != nil {
		return err
	}
	return httpx.OK(c, "doctor updated", out)
}

func (h *Handler) DeleteDoctor(c echo.Context) error {
	id, err := httpx.ParamID(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.DeleteDoctor(c.Request().Context(), id); err != nil {
		return err
	}
	return httpx.OK(c, "doctor deleted", nil)
}

func (h *Handler) AssignPatient(c echo.Context) error {
	id, err := httpx.ParamID(c, "id")
	if err != nil {
		return err
	}
	patientID, err := httpx.ParamID(c, "patientId")
	if err != nil {
		return err
	}
	out, err := h.svc.AssignPatientToDoctor(c.Request().Context(), id, patientID)
	if err != nil {
		return err
	}
	return httpx.OK(c, "patient assigned to doctor", out)
}

func (h *Handler) AssignSupervisor(c echo.Context) error {
	id, err := httpx.ParamID(c, "id")
	if err != nil {
		return err
	}
	supervisorID, err := httpx.ParamID(c, "supervisorId")
	if err != nil {
		return err
	}
	out, err := h.svc.AssignSupervisor(c.Request().Context(), id, supervisorID)
	if err != nil {
		return err
	}
	return httpx.OK(c, "supervisor assigned to doctor", out)
}

// -- Department handlers --

func doctorMissing(c echo.Context, id int64) error {
	return c.JSON(http.StatusNotFound, envelope.Fail(fmt.Sprintf("doctor %d not found", id)))
}

func (h *Handler) ListDepartments(c echo.Context) error {
	id, err := httpx.ParamID(c, "id")
	if err != nil {
		return err
	}
	items, found, err := h.svc.ListDoctorDepartments(c.Request().Context(), id)
	if err != nil {
		return err
	}
	if !found {
		return doctorMissing(c, id)
	}
	return httpx.List(c, "departments found", items, len(items))
}

func (h *Handler) CreateDepartment(c echo.Context) error {
	id, err := httpx.ParamID(c, "id")
	if err != nil {
		return err
	}
	var req department.Department
	if err := httpx.Bind(c, &req); err != nil {
		return err
	}
	out, found, err := h.svc.CreateDepartment(c.Request().Context(), id, req)
	if err != nil {
		return err
	}
	if !found {
		return doctorMissing(c, id)
	}
	return httpx.Created(c, "department created and linked to doctor", out)
}

func (h *Handler) AssignDepartment(c echo.Context) error {
	id, err := httpx.ParamID(c, "id")
	if err != nil {
		return err
	}
	deptID, err := httpx.ParamID(c, "departmentId")
	if err != nil {
		return err
	}
	out, found, err := h.svc.AssignDepartment(c.Request().Context(), id, deptID)
	if err != nil {
		return err
	}
	if !found {
		return doctorMissing(c, id)
	}
	return httpx.Created(c, "department linked to doctor", out)
}

func (h *Handler) RemoveDepartment(c echo.Context) error {
	id, err := httpx.ParamID(c, "id")
	if err != nil {
		return err
	}
	deptID, err := httpx.ParamID(c, "departmentId")
	if err != nil {
		return err
	}
	out, found, err := h.svc.RemoveDepartment(c.Request().Context(), id, deptID)
	if err != nil {
		return err
	}
	if !found {
		return doctorMissing(c, id)
	}
	return httpx.OK(c, "department unlinked from doctor", out)
}

func (h *Handler) ListDepartmentLinks(c echo.Context) error {
	id, err := httpx.ParamID(c, "id")
	if err != nil {
		return err
	}
	links, found, err := h.svc.ListDepartmentLinks(c.Request().Context(), id)
	if err != nil {
		return err
	}
	if !found {
		return doctorMissing(c, id)
	}
	return httpx.List(c, "department links found", links, len(links))
}

func (h *Handler) RemoveDepartmentLink(c echo.Context) error {
	linkID, err := httpx.ParamID(c, "linkId")
	if err != nil {
		return err
	}
	if err := h.svc.RemoveDepartmentLink(c.Request().Context(), linkID); err != nil {
		return err
	}
	return httpx.OK(c, "department link deleted", nil)
}

// -- Specialty handlers --

func (h *Handler) ListSpecialties(c echo.Context) error {
	items, total, err := h.svc.ListSpecialties(c.Request().Context(), pagination.FromContext(c))
	if err != nil {
		return err
	}
	return httpx.List(c, "specialties found", items, total)
}

func (h *Handler) GetSpecialty(c echo.Context) error {
	id, err := httpx.ParamID(c, "id")
	if err != nil {
		return err
	}
	sp, err := h.svc.GetSpecialty(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return httpx.OK(c, "specialty found", sp)
}

func (h *Handler) CreateSpecialty(c echo.Context) error {
	sp := NewSpecialty()
	if err := httpx.Bind(c, sp); err != nil {
		return err
	}
	out, err := h.svc.CreateSpecialty(c.Request().Context(), sp)
	if err != nil {
		return err
	}
	return httpx.Created(c, "specialty created", out)
}

func (h *Handler) UpdateSpecialty(c echo.Context) error {
	id, err := httpx.ParamID(c, "id")
	if err != nil {
		return err
	}
	sp := NewSpecialty()
	if err := httpx.Bind(c, sp); err != nil {
		return err
	}
	out, err := h.svc.UpdateSpecialty(c.Request().Context(), id, sp)
	if err != nil {
		return err
	}
	return httpx.OK(c, "specialty updated", out)
}

func (h *Handler) DeleteSpecialty(c echo.Context) error {
	id, err := httpx.ParamID(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.DeleteSpecialty(c.Request().Context(), id); err != nil {
		return err
	}
	return httpx.OK(c, "specialty deleted", nil)
}

func (h *Handler) AssignDoctor(c echo.Context) error {
	id, err := httpx.ParamID(c, "id")
	if err != nil {
		return err
	}
	doctorID, err := httpx.ParamID(c, "doctorId")
	if err != nil {
		return err
	}
	out, err := h.svc.AssignDoctorToSpecialty(c.Request().Context(), id, doctorID)
	if err != nil {
		return err
	}
	return httpx.OK(c, "doctor assigned to specialty", out)
}
