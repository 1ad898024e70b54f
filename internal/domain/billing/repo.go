package billing

import (
	"context"

	"github.com/clinica/clinica/pkg/pagination"
)

type InvoiceRepository interface {
	Create(ctx context.Context, inv *Invoice) error
	GetByID(ctx context.Context, id int64) (*Invoice, error)
	List(ctx context.Context, pg pagination.Params) ([]*Invoice, int, error)
	Update(ctx context.Context, inv *Invoice) error
	// Delete removes the invoice and, through the foreign key, its appointments.
	Delete(ctx context.Context, id int64) error
	ListSummaries(ctx context.Context, pg pagination.Params) ([]*Summary, int, error)
}
