package repositories

import (
	"context"
	"fmt"
	"time"

	"device-manager/internal/entities"
	apperrors "device-manager/pkg/errors"
	"device-manager/pkg/types"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const technicianTable = "technicians"
const technicianFields = "t.id, t.full_name, t.phone, t.expertise, t.user_id, t.is_deleted, t.deleted_at, t.created_at"

// TechnicianListItem — техник вместе с числом назначенных устройств.
type TechnicianListItem struct {
	entities.Technician
	AssignedDevices int
}

type TechnicianRepositoryInterface interface {
	GetTechnicians(ctx context.Context, filter types.Filter, includeDeleted bool) ([]TechnicianListItem, uint64, error)
	FindTechnician(ctx context.Context, id uint64) (*entities.Technician, error)
	FindTechnicianInTx(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Technician, error)
	FindByUserID(ctx context.Context, userID uint64) (*entities.Technician, error)
	FindNamesByIDs(ctx context.Context, ids []uint64) (map[uint64]string, error)
	CreateTechnician(ctx context.Context, t *entities.Technician) (uint64, error)
	UpdateTechnician(ctx context.Context, t *entities.Technician) error
	SoftDeleteInTx(ctx context.Context, tx pgx.Tx, id uint64, deletedAt time.Time) error
	RestoreInTx(ctx context.Context, tx pgx.Tx, id uint64) error
}

type TechnicianRepository struct {
	storage *pgxpool.Pool
}

func NewTechnicianRepository(storage *pgxpool.Pool) TechnicianRepositoryInterface {
	return &TechnicianRepository{storage: storage}
}

func scanTechnician(row pgx.Row) (*entities.Technician, error) {
	var t entities.Technician
	err := row.Scan(&t.ID, &t.FullName, &t.Phone, &t.Expertise, &t.UserID, &t.IsDeleted, &t.DeletedAt, &t.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (r *TechnicianRepository) GetTechnicians(ctx context.Context, filter types.Filter, includeDeleted bool) ([]TechnicianListItem, uint64, error) {
	where := "WHERE NOT t.is_deleted"
	if includeDeleted {
		where = ""
	}
	args := []any{}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		cond := fmt.Sprintf("(t.full_name ILIKE $%d OR t.expertise ILIKE $%d)", len(args), len(args))
		if where == "" {
			where = "WHERE " + cond
		} else {
			where += " AND " + cond
		}
	}

	countQuery := fmt.Sprintf("SELECT COUNT(t.id) FROM %s t %s", technicianTable, where)
	var totalCount uint64
	if err := r.storage.QueryRow(ctx, countQuery, args...).Scan(&totalCount); err != nil {
		return nil, 0, err
	}
	if totalCount == 0 {
		return []TechnicianListItem{}, 0, nil
	}

	query := fmt.Sprintf(`
		SELECT %s,
			(SELECT COUNT(d.id) FROM devices d WHERE d.technician_id = t.id) AS assigned_devices
		FROM %s t
		%s
		ORDER BY t.id`, technicianFields, technicianTable, where)

	if filter.WithPagination && filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", filter.Limit, filter.Offset)
	}

	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var list []TechnicianListItem
	for rows.Next() {
		var item TechnicianListItem
		err := rows.Scan(
			&item.ID, &item.FullName, &item.Phone, &item.Expertise, &item.UserID,
			&item.IsDeleted, &item.DeletedAt, &item.CreatedAt, &item.AssignedDevices,
		)
		if err != nil {
			return nil, 0, err
		}
		list = append(list, item)
	}
	return list, totalCount, rows.Err()
}

func (r *TechnicianRepository) FindTechnician(ctx context.Context, id uint64) (*entities.Technician, error) {
	query := fmt.Sprintf("SELECT %s FROM %s t WHERE t.id = $1", technicianFields, technicianTable)
	return scanTechnician(r.storage.QueryRow(ctx, query, id))
}

func (r *TechnicianRepository) FindTechnicianInTx(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Technician, error) {
	query := fmt.Sprintf("SELECT %s FROM %s t WHERE t.id = $1 FOR UPDATE", technicianFields, technicianTable)
	return scanTechnician(tx.QueryRow(ctx, query, id))
}

func (r *TechnicianRepository) FindByUserID(ctx context.Context, userID uint64) (*entities.Technician, error) {
	query := fmt.Sprintf("SELECT %s FROM %s t WHERE t.user_id = $1 AND NOT t.is_deleted", technicianFields, technicianTable)
	return scanTechnician(r.storage.QueryRow(ctx, query, userID))
}

// FindNamesByIDs — имена техников пачкой, для обогащения списков.
func (r *TechnicianRepository) FindNamesByIDs(ctx context.Context, ids []uint64) (map[uint64]string, error) {
	names := make(map[uint64]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}

	rows, err := r.storage.Query(ctx,
		fmt.Sprintf("SELECT t.id, t.full_name FROM %s t WHERE t.id = ANY($1)", technicianTable), ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var id uint64
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, err
		}
		names[id] = name
	}
	return names, rows.Err()
}

func (r *TechnicianRepository) CreateTechnician(ctx context.Context, t *entities.Technician) (uint64, error) {
	query := fmt.Sprintf(`
		INSERT INTO %s (full_name, phone, expertise, user_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id`, technicianTable)

	var id uint64
	err := r.storage.QueryRow(ctx, query, t.FullName, t.Phone, t.Expertise, t.UserID).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (r *TechnicianRepository) UpdateTechnician(ctx context.Context, t *entities.Technician) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET full_name = $1, phone = $2, expertise = $3
		WHERE id = $4 AND NOT is_deleted`, technicianTable)

	result, err := r.storage.Exec(ctx, query, t.FullName, t.Phone, t.Expertise, t.ID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// SoftDeleteInTx помечает техника удалённым и разрывает связь
// с учётной записью пользователя.
func (r *TechnicianRepository) SoftDeleteInTx(ctx context.Context, tx pgx.Tx, id uint64, deletedAt time.Time) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET is_deleted = TRUE, deleted_at = $1, user_id = NULL
		WHERE id = $2 AND NOT is_deleted`, technicianTable)

	result, err := tx.Exec(ctx, query, deletedAt, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *TechnicianRepository) RestoreInTx(ctx context.Context, tx pgx.Tx, id uint64) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET is_deleted = FALSE, deleted_at = NULL
		WHERE id = $1 AND is_deleted`, technicianTable)

	result, err := tx.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
