package repositories

import (
	"context"
	"fmt"

	"device-manager/internal/entities"
	apperrors "device-manager/pkg/errors"
	"device-manager/pkg/types"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const notificationTable = "notifications"

type NotificationRepositoryInterface interface {
	Create(ctx context.Context, n *entities.Notification) (uint64, error)
	CreateInTx(ctx context.Context, tx pgx.Tx, n *entities.Notification) (uint64, error)
	ListByUser(ctx context.Context, userID uint64, filter types.Filter) ([]entities.Notification, uint64, error)
	UnreadCount(ctx context.Context, userID uint64) (uint64, error)
	MarkRead(ctx context.Context, userID uint64, id uint64) error
	MarkAllRead(ctx context.Context, userID uint64) error
	Delete(ctx context.Context, userID uint64, id uint64) error
}

type NotificationRepository struct {
	storage *pgxpool.Pool
}

func NewNotificationRepository(storage *pgxpool.Pool) NotificationRepositoryInterface {
	return &NotificationRepository{storage: storage}
}

const insertNotificationQuery = `
	INSERT INTO notifications (user_id, device_id, title, message, type)
	VALUES ($1, $2, $3, $4, $5)
	RETURNING id`

func (r *NotificationRepository) Create(ctx context.Context, n *entities.Notification) (uint64, error) {
	var id uint64
	err := r.storage.QueryRow(ctx, insertNotificationQuery,
		n.UserID, n.DeviceID, n.Title, n.Message, n.Type).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (r *NotificationRepository) CreateInTx(ctx context.Context, tx pgx.Tx, n *entities.Notification) (uint64, error) {
	var id uint64
	err := tx.QueryRow(ctx, insertNotificationQuery,
		n.UserID, n.DeviceID, n.Title, n.Message, n.Type).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (r *NotificationRepository) ListByUser(ctx context.Context, userID uint64, filter types.Filter) ([]entities.Notification, uint64, error) {
	var totalCount uint64
	countQuery := fmt.Sprintf("SELECT COUNT(id) FROM %s WHERE user_id = $1", notificationTable)
	if err := r.storage.QueryRow(ctx, countQuery, userID).Scan(&totalCount); err != nil {
		return nil, 0, err
	}
	if totalCount == 0 {
		return []entities.Notification{}, 0, nil
	}

	query := fmt.Sprintf(`
		SELECT id, user_id, device_id, title, message, type, is_read, created_at
		FROM %s
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC`, notificationTable)
	if filter.WithPagination && filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", filter.Limit, filter.Offset)
	}

	rows, err := r.storage.Query(ctx, query, userID)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var list []entities.Notification
	for rows.Next() {
		var n entities.Notification
		err := rows.Scan(&n.ID, &n.UserID, &n.DeviceID, &n.Title, &n.Message, &n.Type, &n.IsRead, &n.CreatedAt)
		if err != nil {
			return nil, 0, err
		}
		list = append(list, n)
	}
	return list, totalCount, rows.Err()
}

func (r *NotificationRepository) UnreadCount(ctx context.Context, userID uint64) (uint64, error) {
	var count uint64
	query := fmt.Sprintf("SELECT COUNT(id) FROM %s WHERE user_id = $1 AND NOT is_read", notificationTable)
	err := r.storage.QueryRow(ctx, query, userID).Scan(&count)
	return count, err
}

// MarkRead помечает уведомление прочитанным только для его владельца.
func (r *NotificationRepository) MarkRead(ctx context.Context, userID uint64, id uint64) error {
	query := fmt.Sprintf("UPDATE %s SET is_read = TRUE WHERE id = $1 AND user_id = $2", notificationTable)

	result, err := r.storage.Exec(ctx, query, id, userID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID uint64) error {
	query := fmt.Sprintf("UPDATE %s SET is_read = TRUE WHERE user_id = $1 AND NOT is_read", notificationTable)
	_, err := r.storage.Exec(ctx, query, userID)
	return err
}

// Delete удаляет уведомление только у его владельца.
func (r *NotificationRepository) Delete(ctx context.Context, userID uint64, id uint64) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE id = $1 AND user_id = $2", notificationTable)

	result, err := r.storage.Exec(ctx, query, id, userID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
