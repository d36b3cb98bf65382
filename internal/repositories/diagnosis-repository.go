package repositories

import (
	"context"
	"fmt"

	"device-manager/internal/entities"
	apperrors "device-manager/pkg/errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const diagnosisTable = "diagnoses"
const diagnosisFields = "dg.id, dg.device_id, dg.technician_id, t.full_name, dg.title, dg.description, dg.recommendation, dg.created_by, dg.created_at, dg.updated_at"

type DiagnosisRepositoryInterface interface {
	FindByDeviceID(ctx context.Context, deviceID uint64) ([]entities.Diagnosis, error)
	FindDiagnosis(ctx context.Context, id uint64) (*entities.Diagnosis, error)
	CreateInTx(ctx context.Context, tx pgx.Tx, d *entities.Diagnosis) (uint64, error)
	UpdateInTx(ctx context.Context, tx pgx.Tx, d *entities.Diagnosis) error
	DeleteInTx(ctx context.Context, tx pgx.Tx, id uint64) error
}

type DiagnosisRepository struct {
	storage *pgxpool.Pool
}

func NewDiagnosisRepository(storage *pgxpool.Pool) DiagnosisRepositoryInterface {
	return &DiagnosisRepository{storage: storage}
}

func scanDiagnosis(row pgx.Row) (*entities.Diagnosis, error) {
	var d entities.Diagnosis
	err := row.Scan(
		&d.ID, &d.DeviceID, &d.TechnicianID, &d.TechnicianName,
		&d.Title, &d.Description, &d.Recommendation, &d.CreatedBy,
		&d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &d, nil
}

func (r *DiagnosisRepository) FindByDeviceID(ctx context.Context, deviceID uint64) ([]entities.Diagnosis, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s dg
		LEFT JOIN technicians t ON dg.technician_id = t.id
		WHERE dg.device_id = $1
		ORDER BY dg.created_at, dg.id`, diagnosisFields, diagnosisTable)

	rows, err := r.storage.Query(ctx, query, deviceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []entities.Diagnosis
	for rows.Next() {
		d, err := scanDiagnosis(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *d)
	}
	return list, rows.Err()
}

func (r *DiagnosisRepository) FindDiagnosis(ctx context.Context, id uint64) (*entities.Diagnosis, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s dg
		LEFT JOIN technicians t ON dg.technician_id = t.id
		WHERE dg.id = $1`, diagnosisFields, diagnosisTable)
	return scanDiagnosis(r.storage.QueryRow(ctx, query, id))
}

func (r *DiagnosisRepository) CreateInTx(ctx context.Context, tx pgx.Tx, d *entities.Diagnosis) (uint64, error) {
	query := fmt.Sprintf(`
		INSERT INTO %s (device_id, technician_id, title, description, recommendation, created_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`, diagnosisTable)

	var id uint64
	err := tx.QueryRow(ctx, query,
		d.DeviceID, d.TechnicianID, d.Title, d.Description, d.Recommendation, d.CreatedBy,
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (r *DiagnosisRepository) UpdateInTx(ctx context.Context, tx pgx.Tx, d *entities.Diagnosis) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET title = $1, description = $2, recommendation = $3, updated_at = CURRENT_TIMESTAMP
		WHERE id = $4`, diagnosisTable)

	result, err := tx.Exec(ctx, query, d.Title, d.Description, d.Recommendation, d.ID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *DiagnosisRepository) DeleteInTx(ctx context.Context, tx pgx.Tx, id uint64) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE id = $1", diagnosisTable)

	result, err := tx.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
