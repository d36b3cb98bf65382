package repositories

import (
	"context"

	apperrors "device-manager/pkg/errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SettingsRepositoryInterface — key/value-хранилище настроек приложения
// (app_settings). Используется шлюзом Admin Override.
type SettingsRepositoryInterface interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string) error
	Delete(ctx context.Context, key string) error
}

type SettingsRepository struct {
	storage *pgxpool.Pool
}

func NewSettingsRepository(storage *pgxpool.Pool) SettingsRepositoryInterface {
	return &SettingsRepository{storage: storage}
}

func (r *SettingsRepository) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := r.storage.QueryRow(ctx, "SELECT value FROM app_settings WHERE key = $1", key).Scan(&value)
	if err != nil {
		if err == pgx.ErrNoRows {
			return "", apperrors.ErrNotFound
		}
		return "", err
	}
	return value, nil
}

func (r *SettingsRepository) Set(ctx context.Context, key string, value string) error {
	query := `
		INSERT INTO app_settings (key, value)
		VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = CURRENT_TIMESTAMP`
	_, err := r.storage.Exec(ctx, query, key, value)
	return err
}

func (r *SettingsRepository) Delete(ctx context.Context, key string) error {
	_, err := r.storage.Exec(ctx, "DELETE FROM app_settings WHERE key = $1", key)
	return err
}
