package billing

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinica/clinica/internal/platform/db"
	"github.com/clinica/clinica/pkg/pagination"
)

type invoiceRepoPG struct {
	pool *pgxpool.Pool
}

func NewInvoiceRepo(pool *pgxpool.Pool) InvoiceRepository {
	return &invoiceRepoPG{pool: pool}
}

const invoiceCols = `i.id, i.issued_at, i.service_description, i.payments_made,
	i.balance_due, i.cost,
	COALESCE((SELECT array_agg(a.id ORDER BY a.id) FROM appointment a WHERE a.invoice_id = i.id), '{}'),
	i.created_at, i.updated_at`

func scanInvoice(row pgx.Row, extra ...interface{}) (*Invoice, error) {
	inv := NewInvoice()
	dest := []interface{}{&inv.ID, &inv.IssuedAt, &inv.ServiceDescription, &inv.PaymentsMade,
		&inv.BalanceDue, &inv.Cost, &inv.AppointmentIDs, &inv.CreatedAt, &inv.UpdatedAt}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	return inv, nil
}

func (r *invoiceRepoPG) Create(ctx context.Context, inv *Invoice) error {
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO invoice (issued_at, service_description, payments_made, balance_due, cost)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`,
		inv.IssuedAt, inv.ServiceDescription, inv.PaymentsMade, inv.BalanceDue, inv.Cost,
	).Scan(&inv.ID, &inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create invoice: %w", db.Translate(err))
	}
	return nil
}

func (r *invoiceRepoPG) GetByID(ctx context.Context, id int64) (*Invoice, error) {
	inv, err := scanInvoice(db.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+invoiceCols+` FROM invoice i WHERE i.id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("get invoice %d: %w", id, db.Translate(err))
	}
	return inv, nil
}

func (r *invoiceRepoPG) count(ctx context.Context) (int, error) {
	var total int
	if err := db.Conn(ctx, r.pool).QueryRow(ctx, `SELECT COUNT(*) FROM invoice`).Scan(&total); err != nil {
		return 0, fmt.Errorf("count invoices: %w", err)
	}
	return total, nil
}

func (r *invoiceRepoPG) List(ctx context.Context, pg pagination.Params) ([]*Invoice, int, error) {
	total, err := r.count(ctx)
	if err != nil {
		return nil, 0, err
	}
	rows, err := db.Conn(ctx, r.pool).Query(ctx,
		`SELECT `+invoiceCols+` FROM invoice i ORDER BY i.id LIMIT $1 OFFSET $2`, pg.LimitArg(), pg.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list invoices: %w", err)
	}
	defer rows.Close()

	out := []*Invoice{}
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan invoice: %w", err)
		}
		out = append(out, inv)
	}
	return out, total, rows.Err()
}

// ListSummaries returns invoices with the distinct full names of the patients
// of their appointments, in appointment order.
func (r *invoiceRepoPG) ListSummaries(ctx context.Context, pg pagination.Params) ([]*Summary, int, error) {
	total, err := r.count(ctx)
	if err != nil {
		return nil, 0, err
	}
	rows, err := db.Conn(ctx, r.pool).Query(ctx, `
		SELECT `+invoiceCols+`,
			COALESCE((
				SELECT array_agg(n.full_name ORDER BY n.first_appt)
				FROM (
					SELECT p.first_names || ' ' || p.last_names AS full_name, MIN(a.id) AS first_appt
					FROM appointment a JOIN patient p ON p.id = a.patient_id
					WHERE a.invoice_id = i.id
					GROUP BY p.id, p.first_names, p.last_names
				) n
			), '{}')
		FROM invoice i ORDER BY i.id LIMIT $1 OFFSET $2`, pg.LimitArg(), pg.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list invoice summaries: %w", err)
	}
	defer rows.Close()

	out := []*Summary{}
	for rows.Next() {
		var names []string
		inv, err := scanInvoice(rows, &names)
		if err != nil {
			return nil, 0, fmt.Errorf("scan invoice summary: %w", err)
		}
		out = append(out, &Summary{Invoice: *inv, PatientNames: names})
	}
	return out, total, rows.Err()
}

func (r *invoiceRepoPG) Update(ctx context.Context, inv *Invoice) error {
	tag, err := db.Conn(ctx, r.pool).Exec(ctx, `
		UPDATE invoice SET issued_at = $2, service_description = $3, payments_made = $4,
			balance_due = $5, cost = $6, updated_at = NOW()
		WHERE id = $1`,
		inv.ID, inv.IssuedAt, inv.ServiceDescription, inv.PaymentsMade, inv.BalanceDue, inv.Cost)
	if err != nil {
		return fmt.Errorf("update invoice %d: %w", inv.ID, db.Translate(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update invoice %d: %w", inv.ID, db.ErrNotFound)
	}
	return nil
}

func (r *invoiceRepoPG) Delete(ctx context.Context, id int64) error {
	return db.DeleteByID(ctx, db.Conn(ctx, r.pool), "invoice", id)
}
