package billing

import (
	"context"
	"errors"
	"strings"

	"github.com/clinica/clinica/internal/platform/db"
	"github.com/clinica/clinica/pkg/apperror"
	"github.com/clinica/clinica/pkg/pagination"
)

type Service struct {
	tx       db.Transactor
	invoices InvoiceRepository
}

func NewService(tx db.Transactor, invoices InvoiceRepository) *Service {
	return &Service{tx: tx, invoices: invoices}
}

func validateInvoice(inv *Invoice) error {
	inv.ServiceDescription = strings.TrimSpace(inv.ServiceDescription)
	inv.PaymentsMade = strings.TrimSpace(inv.PaymentsMade)
	if inv.ServiceDescription == "" {
		return apperror.IllegalOperation("service_description is required")
	}
	if inv.PaymentsMade == "" {
		return apperror.IllegalOperation("payments_made is required")
	}
	if inv.Cost < 0 {
		return apperror.IllegalOperation("cost must not be negative")
	}
	if inv.BalanceDue < 0 {
		return apperror.IllegalOperation("balance_due must not be negative")
	}
	return nil
}

func (s *Service) get(ctx context.Context, id int64) (*Invoice, error) {
	inv, err := s.invoices.GetByID(ctx, id)
	if errors.Is(err, db.ErrNotFound) {
		return nil, apperror.NotFound("invoice %d not found", id)
	}
	return inv, err
}

func (s *Service) ListInvoices(ctx context.Context, pg pagination.Params) ([]*Invoice, int, error) {
	var out []*Invoice
	var total int
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		out, total, err = s.invoices.List(ctx, pg)
		return err
	})
	return out, total, err
}

func (s *Service) ListSummaries(ctx context.Context, pg pagination.Params) ([]*Summary, int, error) {
	var out []*Summary
	var total int
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		out, total, err = s.invoices.ListSummaries(ctx, pg)
		return err
	})
	return out, total, err
}

func (s *Service) GetInvoice(ctx context.Context, id int64) (*Invoice, error) {
	var out *Invoice
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		out, err = s.get(ctx, id)
		return err
	})
	return out, err
}

func (s *Service) CreateInvoice(ctx context.Context, inv *Invoice) (*Invoice, error) {
	if err := validateInvoice(inv); err != nil {
		return nil, err
	}
	var out *Invoice
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.invoices.Create(ctx, inv); err != nil {
			return err
		}
		var err error
		out, err = s.invoices.GetByID(ctx, inv.ID)
		return err
	})
	return out, err
}

func (s *Service) UpdateInvoice(ctx context.Context, id int64, inv *Invoice) (*Invoice, error) {
	var out *Invoice
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.get(ctx, id); err != nil {
			return err
		}
		inv.ID = id
		if err := validateInvoice(inv); err != nil {
			return err
		}
		if err := s.invoices.Update(ctx, inv); err != nil {
			return err
		}
		var err error
		out, err = s.invoices.GetByID(ctx, id)
		return err
	})
	return out, err
}

// DeleteInvoice removes the invoice together with its appointments.
func (s *Service) DeleteInvoice(ctx context.Context, id int64) error {
	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.get(ctx, id); err != nil {
			return err
		}
		return s.invoices.Delete(ctx, id)
	})
}
