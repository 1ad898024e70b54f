package scheduling

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
	api.GET("/appointments", h.ListAppointments)
	api.POST("/appointments", h.CreateAppointment)
	api.GET("/appointments/:id", h.GetAppointment)
	api.PUT("/appointments/:id", h.UpdateAppointment)
	api.DELETE("/appointments/:id", h.DeleteAppointment)
	api.PATCH("/appointments/:id/assign-invoice/:invoiceId", h.AssignInvoice)

	// Patient-scoped appointment routes.
	api.PATCH("/patients/:id/assign-appointment/:appointmentId", h.AssignToPatient)
	api.GET("/patients/:id/appointments", h.ListPatientAppointments)
	api.GET("/patients/:id/appointments/:appointmentId", h.GetPatientAppointment)
	api.GET("/patients/:id/appointments/:appointmentId/invoice", h.GetPatientAppointmentInvoice)
}

func (h *Handler) ListAppointments(c echo.Context) error {
	items, total, err := h.svc.ListAppointments(c.Request().Context(), pagination.FromContext(c))
	if err != nil {
		return err
	}
	return httpx.List(c, "appointments found", items, total)
}

func (h *Handler) GetAppointment(c echo.Context) error {
	id, err := httpx.ParamID(c, "id")
	if err != nil {
		return err
	}
	a, err := h.svc.GetAppointment(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return httpx.OK(c, "appointment found", a)
}

func (h *Handler) CreateAppointment(c echo.Context) error {
	var a Appointment
	if err := httpx.Bind(c, &a); err != nil {
		return err
	}
	out, err := h.svc.CreateAppointment(c.Request().Context(), &a)
	if err != nil {
		return err
	}
	return httpx.Created(c, "appointment created", out)
}

func (h *Handler) UpdateAppointment(c echo.Context) error {
	id, err := httpx.ParamID(c, "id")
	if err != nil {
		return err
	}
	var a Appointment
	if err := httpx.Bind(c, &a); err != nil {
		return err
	}
	out, err := h.svc.UpdateAppointment(c.Request().Context(), id, &a)
	if err != nil {
		return err
	}
	return httpx.OK(c, "appointment updated", out)
}

func (h *Handler) DeleteAppointment(c echo.Context) error {
	id, err := httpx.ParamID(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.DeleteAppointment(c.Request().Context(), id); err != nil {
		return err
	}
	return httpx.OK(c, "appointment deleted", nil)
}

func (h *Handler) AssignInvoice(c echo.Context) error {
	id, err := httpx.ParamID(c, "id")
	if err != nil {
		return err
	}
	invoiceID, err := httpx.ParamID(c, "invoiceId")
	if err != nil {
		return err
	}
	out, err := h.svc.AssignInvoice(c.Request().Context(), id, invoiceID)
	if err != nil {
		return err
	}
	return httpx.OK(c, "invoice assigned to appointment", out)
}

func (h *Handler) AssignToPatient(c echo.Context) error {
	id, err := httpx.ParamID(c, "id")
	if err != nil {
		return err
	}
	appointmentID, err := httpx.ParamID(c, "appointmentId")
	if err != nil {
		return err
	}
	out, err := h.svc.AssignAppointmentToPatient(c.Request().Context(), id, appointmentID)
	if err != nil {
		return err
	}
	return httpx.OK(c, "appointment assigned to patient", out)
}

func (h *Handler) ListPatientAppointments(c echo.Context) error {
	id, err := httpx.ParamID(c, "id")
	if err != nil {
		return err
	}
	items, total, err := h.svc.ListByPatient(c.Request().Context(), id, pagination.FromContext(c))
	if err != nil {
		return err
	}
	return httpx.List(c, "appointments found", items, total)
}

func (h *Handler) GetPatientAppointment(c echo.Context) error {
	id, err := httpx.ParamID(c, "id")
	if err != nil {
		return err
	}
	appointmentID, err := httpx.ParamID(c, "appointmentId")
	if err != nil {
		return err
	}
	a, err := h.svc.GetForPatient(c.Request().Context(), id, appointmentID)
	if err != nil {
		return err
	}
	return httpx.OK(c, "appointment found", a)
}

func (h *Handler) GetPatientAppointmentInvoice(c echo.Context) error {
	id, err := httpx.ParamID(c, "id")
	if err != nil {
		return err
	}
	appointmentID, err := httpx.ParamID(c, "appointmentId")
	if err != nil {
		return err
	}
	inv, err := h.svc.InvoiceForPatientAppointment(c.Request().Context(), id, appointmentID)
	if err != nil {
		return err
	}
	return httpx.OK(c, "invoice found", inv)
}
