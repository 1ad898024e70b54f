package clinical

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinica/clinica/internal/platform/db"
	"github.com/clinica/clinica/pkg/pagination"
)

type medicalRecordRepoPG struct {
	pool *pgxpool.Pool
}

func NewMedicalRecordRepo(pool *pgxpool.Pool) MedicalRecordRepository {
	return &medicalRecordRepoPG{pool: pool}
}

const recordCols = `id, recorded_at, COALESCE(prior_diagnoses, ''), COALESCE(prior_treatments, ''),
	COALESCE(procedures, ''), COALESCE(medications, ''), COALESCE(test_results, ''),
	patient_id, created_at, updated_at`

func scanRecord(row pgx.Row) (*MedicalRecord, error) {
	var m MedicalRecord
	err := row.Scan(&m.ID, &m.RecordedAt, &m.PriorDiagnoses, &m.PriorTreatments,
		&m.Procedures, &m.Medications, &m.TestResults,
		&m.PatientID, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *medicalRecordRepoPG) Create(ctx context.Context, m *MedicalRecord) error {
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO medical_record (recorded_at, prior_diagnoses, prior_treatments, procedures, medications, test_results)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`,
		m.RecordedAt, m.PriorDiagnoses, m.PriorTreatments, m.Procedures, m.Medications, m.TestResults,
	).Scan(&m.ID, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create medical record: %w", db.Translate(err))
	}
	return nil
}

func (r *medicalRecordRepoPG) GetByID(ctx context.Context, id int64) (*MedicalRecord, error) {
	m, err := scanRecord(db.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+recordCols+` FROM medical_record WHERE id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("get medical record %d: %w", id, db.Translate(err))
	}
	return m, nil
}

func (r *medicalRecordRepoPG) List(ctx context.Context, pg pagination.Params) ([]*MedicalRecord, int, error) {
	q := db.Conn(ctx, r.pool)
	var total int
	if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM medical_record`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count medical records: %w", err)
	}

	rows, err := q.Query(ctx, `SELECT `+recordCols+` FROM medical_record ORDER BY id LIMIT $1 OFFSET $2`,
		pg.LimitArg(), pg.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list medical records: %w", err)
	}
	defer rows.Close()

	out := []*MedicalRecord{}
	for rows.Next() {
		m, err := scanRecord(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan medical record: %w", err)
		}
		out = append(out, m)
	}
	return out, total, rows.Err()
}

func (r *medicalRecordRepoPG) Update(ctx context.Context, m *MedicalRecord) error {
	tag, err := db.Conn(ctx, r.pool).Exec(ctx, `
		UPDATE medical_record SET recorded_at = $2, prior_diagnoses = $3, prior_treatments = $4,
			procedures = $5, medications = $6, test_results = $7, updated_at = NOW()
		WHERE id = $1`,
		m.ID, m.RecordedAt, m.PriorDiagnoses, m.PriorTreatments, m.Procedures, m.Medications, m.TestResults)
	if err != nil {
		return fmt.Errorf("update medical record %d: %w", m.ID, db.Translate(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update medical record %d: %w", m.ID, db.ErrNotFound)
	}
	return nil
}

func (r *medicalRecordRepoPG) Delete(ctx context.Context, id int64) error {
	return db.DeleteByID(ctx, db.Conn(ctx, r.pool), "medical_record", id)
}

func (r *medicalRecordRepoPG) SetPatient(ctx context.Context, id, patientID int64) error {
	tag, err := db.Conn(ctx, r.pool).Exec(ctx, `
		UPDATE medical_record SET patient_id = $2, updated_at = NOW()
		WHERE id = $1 AND NOT EXISTS (SELECT 1 FROM medical_record WHERE patient_id = $2)`,
		id, patientID)
	if err != nil {
		return fmt.Errorf("set patient of medical record %d: %w", id, db.Translate(err))
	}
	return db.RequireRows(tag)
}
