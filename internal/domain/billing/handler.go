package billing

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
	api.GET("/invoices", h.ListInvoices)
	api.POST("/invoices", h.CreateInvoice)
	api.GET("/invoices/summary", h.ListSummaries)
	api.GET("/invoices/:id", h.GetInvoice)
	api.PUT("/invoices/:id", h.UpdateInvoice)
	api.DELETE("/invoices/:id", h.DeleteInvoice)
}

func (h *Handler) ListInvoices(c echo.Context) error {
	items, total, err := h.svc.ListInvoices(c.Request().Context(), pagination.FromContext(c))
	if err != nil {
		return err
	}
	return httpx.List(c, "invoices found", items, total)
}

func (h *Handler) ListSummaries(c echo.Context) error {
	items, total, err := h.svc.ListSummaries(c.Request().Context(), pagination.FromContext(c))
	if err != nil {
		return err
	}
	return httpx.List(c, "invoice summaries found", items, total)
}

func (h *Handler) GetInvoice(c echo.Context) error {
	id, err := httpx.ParamID(c, "id")
	if err != nil {
		return err
	}
	inv, err := h.svc.GetInvoice(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return httpx.OK(c, "invoice found", inv)
}

func (h *Handler) CreateInvoice(c echo.Context) error {
	inv := NewInvoice()
	if err := httpx.Bind(c, inv); err != nil {
		return err
	}
	out, err := h.svc.CreateInvoice(c.Request().Context(), inv)
	if err != nil {
		return err
	}
	return httpx.Created(c, "invoice created", out)
}

func (h *Handler) UpdateInvoice(c echo.Context) error {
	id, err := httpx.ParamID(c, "id")
	if err != nil {
		return err
	}
	inv := NewInvoice()
	if err := httpx.Bind(c, inv); err != nil {
		return err
	}
	out, err := h.svc.UpdateInvoice(c.Request().Context(), id, inv)
	if err != nil {
		return err
	}
	return httpx.OK(c, "invoice updated", out)
}

func (h *Handler) DeleteInvoice(c echo.Context) error {
	id, err := httpx.ParamID(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.DeleteInvoice(c.Request().Context(), id); err != nil {
		return err
	}
	return httpx.OK(c, "invoice deleted", nil)
}
