package repositories

import (
	"context"

	"device-manager/internal/entities"
	apperrors "device-manager/pkg/errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type DeviceTypeRepositoryInterface interface {
	GetDeviceTypes(ctx context.Context) ([]entities.DeviceType, error)
	FindDeviceType(ctx context.Context, id uint64) (*entities.DeviceType, error)
}

type DeviceTypeRepository struct {
	storage *pgxpool.Pool
}

func NewDeviceTypeRepository(storage *pgxpool.Pool) DeviceTypeRepositoryInterface {
	return &DeviceTypeRepository{storage: storage}
}

func (r *DeviceTypeRepository) GetDeviceTypes(ctx context.Context) ([]entities.DeviceType, error) {
	rows, err := r.storage.Query(ctx, "SELECT id, name FROM device_types ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []entities.DeviceType
	for rows.Next() {
		var dt entities.DeviceType
		if err := rows.Scan(&dt.ID, &dt.Name); err != nil {
			return nil, err
		}
		list = append(list, dt)
	}
	return list, rows.Err()
}

func (r *DeviceTypeRepository) FindDeviceType(ctx context.Context, id uint64) (*entities.DeviceType, error) {
	var dt entities.DeviceType
	err := r.storage.QueryRow(ctx, "SELECT id, name FROM device_types WHERE id = $1", id).Scan(&dt.ID, &dt.Name)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &dt, nil
}
