package repositories

import (
	"context"
	"fmt"

	"device-manager/internal/entities"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const deviceHistoryTable = "device_histories"

type DeviceHistoryRepositoryInterface interface {
	CreateInTx(ctx context.Context, tx pgx.Tx, h *entities.DeviceHistory) error
	FindByDeviceID(ctx context.Context, deviceID uint64) ([]entities.DeviceHistory, error)
}

type DeviceHistoryRepository struct {
	storage *pgxpool.Pool
}

func NewDeviceHistoryRepository(storage *pgxpool.Pool) DeviceHistoryRepositoryInterface {
	return &DeviceHistoryRepository{storage: storage}
}

func (r *DeviceHistoryRepository) CreateInTx(ctx context.Context, tx pgx.Tx, h *entities.DeviceHistory) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (device_id, action, description, performed_by_user_id, old_value, new_value, tx_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`, deviceHistoryTable)

	_, err := tx.Exec(ctx, query,
		h.DeviceID, h.Action, h.Description, h.PerformedByUserID, h.OldValue, h.NewValue, h.TxID)
	return err
}

func (r *DeviceHistoryRepository) FindByDeviceID(ctx context.Context, deviceID uint64) ([]entities.DeviceHistory, error) {
	query := fmt.Sprintf(`
		SELECT h.id, h.device_id, h.action, h.description, h.performed_by_user_id,
		       u.full_name, h.old_value, h.new_value, h.tx_id, h.created_at
		FROM %s h
		LEFT JOIN users u ON h.performed_by_user_id = u.id
		WHERE h.device_id = $1
		ORDER BY h.created_at, h.id`, deviceHistoryTable)

	rows, err := r.storage.Query(ctx, query, deviceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var history []entities.DeviceHistory
	for rows.Next() {
		var h entities.DeviceHistory
		err := rows.Scan(
			&h.ID, &h.DeviceID, &h.Action, &h.Description, &h.PerformedByUserID,
			&h.PerformedByName, &h.OldValue, &h.NewValue, &h.TxID, &h.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		history = append(history, h)
	}
	return history, rows.Err()
}
