package clinical

import (
	"github.com/labstack/echo/v4"

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
	api.GET("/medical-records", h.ListRecords)
	api.POST("/medical-records", h.CreateRecord)
	api.GET("/medical-records/:id", h.GetRecord)
	api.PUT("/medical-records/:id", h.UpdateRecord)
	api.DELETE("/medical-records/:id", h.DeleteRecord)
	api.PATCH("/medical-records/:id/assign-patient/:patientId", h.AssignPatient)
}

func (h *Handler) ListRecords(c echo.Context) error {
	items, total, err := h.svc.ListRecords(c.Request().Context(), pagination.FromContext(c))
	if err != nil {
		return err
	}
	return httpx.List(c, "medical records found", items, total)
}

func (h *Handler) GetRecord(c echo.Context) error {
	id, err := httpx.ParamID(c, "id")
	if err != nil {
		return err
	}
	m, err := h.svc.GetRecord(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return httpx.OK(c, "medical record found", m)
}

func (h *Handler) CreateRecord(c echo.Context) error {
	var m MedicalRecord
	if err := httpx.Bind(c, &m); err != nil {
		return err
	}
	out, err := h.svc.CreateRecord(c.Request().Context(), &m)
	if err != nil {
		return err
	}
	return httpx.Created(c, "medical record created", out)
}

func (h *Handler) UpdateRecord(c echo.Context) error {
	id, err := httpx.ParamID(c, "id")
	if err != nil {
		return err
	}
	var m MedicalRecord
	if err := httpx.Bind(c, &m); err != nil {
		return err
	}
	out, err := h.svc.UpdateRecord(c.Request().Context(), id, &m)
	if err != nil {
		return err
	}
	return httpx.OK(c, "medical record updated", out)
}

func (h *Handler) DeleteRecord(c echo.Context) error {
	id, err := httpx.ParamID(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.DeleteRecord(c.Request().Context(), id); err != nil {
		return err
	}
	return httpx.OK(c, "medical record deleted", nil)
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
	out, err := h.svc.AssignRecordToPatient(c.Request().Context(), id, patientID)
	if err != nil {
		return err
	}
	return httpx.OK(c, "medical record assigned to patient", out)
}
