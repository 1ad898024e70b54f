package scheduling

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinica/clinica/internal/platform/db"
	"github.com/clinica/clinica/pkg/pagination"
)

type appointmentRepoPG struct {
	pool *pgxpool.Pool
}

func NewAppointmentRepo(pool *pgxpool.Pool) AppointmentRepository {
	return &appointmentRepoPG{pool: pool}
}

const appointmentCols = `id, scheduled_at, reason, status, invoice_id, patient_id, created_at, updated_at`

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(&a.ID, &a.ScheduledAt, &a.Reason, &a.Status, &a.InvoiceID, &a.PatientID,
		&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *appointmentRepoPG) Create(ctx context.Context, a *Appointment) error {
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO appointment (scheduled_at, reason, status)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at`,
		a.ScheduledAt, a.Reason, a.Status,
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create appointment: %w", db.Translate(err))
	}
	return nil
}

func (r *appointmentRepoPG) GetByID(ctx context.Context, id int64) (*Appointment, error) {
	a, err := scanAppointment(db.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+appointmentCols+` FROM appointment WHERE id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("get appointment %d: %w", id, db.Translate(err))
	}
	return a, nil
}

func (r *appointmentRepoPG) list(ctx context.Context, where string, args []interface{}, pg pagination.Params) ([]*Appointment, int, error) {
	q := db.Conn(ctx, r.pool)
	var total int
	if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM appointment`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count appointments: %w", err)
	}

	n := len(args)
	query := fmt.Sprintf(`SELECT %s FROM appointment%s ORDER BY id LIMIT $%d OFFSET $%d`,
		appointmentCols, where, n+1, n+2)
	rows, err := q.Query(ctx, query, append(args, pg.LimitArg(), pg.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list appointments: %w", err)
	}
	defer rows.Close()

	out := []*Appointment{}
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan appointment: %w", err)
		}
		out = append(out, a)
	}
	return out, total, rows.Err()
}

func (r *appointmentRepoPG) List(ctx context.Context, pg pagination.Params) ([]*Appointment, int, error) {
	return r.list(ctx, "", nil, pg)
}

func (r *appointmentRepoPG) ListByPatient(ctx context.Context, patientID int64, pg pagination.Params) ([]*Appointment, int, error) {
	return r.list(ctx, ` WHERE patient_id = $1`, []interface{}{patientID}, pg)
}

func (r *appointmentRepoPG) Update(ctx context.Context, a *Appointment) error {
	tag, err := db.Conn(ctx, r.pool).Exec(ctx, `
		UPDATE appointment SET scheduled_at = $2, reason = $3, status = $4, updated_at = NOW()
		WHERE id = $1`,
		a.ID, a.ScheduledAt, a.Reason, a.Status)
	if err != nil {
		return fmt.Errorf("update appointment %d: %w", a.ID, db.Translate(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update appointment %d: %w", a.ID, db.ErrNotFound)
	}
	return nil
}

func (r *appointmentRepoPG) Delete(ctx context.Context, id int64) error {
	return db.DeleteByID(ctx, db.Conn(ctx, r.pool), "appointment", id)
}

func (r *appointmentRepoPG) SetInvoice(ctx context.Context, id, invoiceID int64) error {
	tag, err := db.Conn(ctx, r.pool).Exec(ctx,
		`UPDATE appointment SET invoice_id = $2, updated_at = NOW() WHERE id = $1 AND invoice_id IS NULL`,
		id, invoiceID)
	if err != nil {
		return fmt.Errorf("set invoice of appointment %d: %w", id, db.Translate(err))
	}
	return db.RequireRows(tag)
}

func (r *appointmentRepoPG) SetPatient(ctx context.Context, id, patientID int64) error {
	tag, err := db.Conn(ctx, r.pool).Exec(ctx,
		`UPDATE appointment SET patient_id = $2, updated_at = NOW() WHERE id = $1 AND patient_id IS NULL`,
		id, patientID)
	if err != nil {
		return fmt.Errorf("set patient of appointment %d: %w", id, db.Translate(err))
	}
	return db.RequireRows(tag)
}
