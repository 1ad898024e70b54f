package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrNotFound            = errors.New("record not found")
	ErrUniqueViolation     = errors.New("unique constraint violated")
	ErrForeignKeyViolation = errors.New("foreign key constraint violated")
	// ErrConflict is returned when a guarded write matched no rows.
	ErrConflict = errors.New("concurrent modification")
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// Translate maps pgx errors onto the package sentinels, wrapping the original
// so the driver detail survives for logging.
func Translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return &wrapped{sentinel: ErrUniqueViolation, cause: err}
		case pgForeignKeyViolation:
			return &wrapped{sentinel: ErrForeignKeyViolation, cause: err}
		}
	}
	return err
}

// Constraint returns the name of the constraint or index a driver error
// reports, or "" when there is none.
func Constraint(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.ConstraintName
	}
	return ""
}

// RequireRows returns ErrConflict when a guarded statement affected no rows.
func RequireRows(tag pgconn.CommandTag) error {
	if tag.RowsAffected() == 0 {
		return ErrConflict
	}
	return nil
}

type wrapped struct {
	sentinel error
	cause    error
}

func (w *wrapped) Error() string { return w.sentinel.Error() + ": " + w.cause.Error() }

func (w *wrapped) Is(target error) bool { return target == w.sentinel }

func (w *wrapped) Unwrap() error { return w.cause }

// DeleteByID removes the row with id from table. table must be a trusted
// identifier; it is interpolated into the statement.
func DeleteByID(ctx context.Context, q Querier, table string, id int64) error {
	tag, err := q.Exec(ctx, `DELETE FROM `+table+` WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete %s %d: %w", table, id, Translate(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete %s %d: %w", table, id, ErrNotFound)
	}
	return nil
}
