package repositories

import (
	"context"
	"fmt"
	"strings"

	"device-manager/internal/entities"
	"device-manager/pkg/types"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const auditTable = "audit_logs"

type AuditRepositoryInterface interface {
	CreateInTx(ctx context.Context, tx pgx.Tx, log *entities.AuditLog) error
	FindByDeviceID(ctx context.Context, deviceID uint64) ([]entities.AuditLog, error)
	FindAll(ctx context.Context, filter types.Filter) ([]entities.AuditLog, uint64, error)
}

type AuditRepository struct {
	storage *pgxpool.Pool
}

func NewAuditRepository(storage *pgxpool.Pool) AuditRepositoryInterface {
	return &AuditRepository{storage: storage}
}

func (r *AuditRepository) CreateInTx(ctx context.Context, tx pgx.Tx, log *entities.AuditLog) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (device_id, action, old_value, new_value, performed_by, performed_at)
		VALUES ($1, $2, $3, $4, $5, $6)`, auditTable)

	_, err := tx.Exec(ctx, query,
		log.DeviceID, log.Action, log.OldValue, log.NewValue, log.PerformedBy, log.PerformedAt)
	return err
}

func (r *AuditRepository) FindByDeviceID(ctx context.Context, deviceID uint64) ([]entities.AuditLog, error) {
	query := fmt.Sprintf(`
		SELECT id, device_id, action, old_value, new_value, performed_by, performed_at
		FROM %s
		WHERE device_id = $1
		ORDER BY performed_at DESC, id DESC`, auditTable)

	rows, err := r.storage.Query(ctx, query, deviceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAuditRows(rows)
}

func (r *AuditRepository) FindAll(ctx context.Context, filter types.Filter) ([]entities.AuditLog, uint64, error) {
	conds := []string{}
	args := []any{}
	if action, ok := filter.Filter["action"]; ok {
		args = append(args, action)
		conds = append(conds, fmt.Sprintf("action = $%d", len(args)))
	}
	if deviceID, ok := filter.Filter["device_id"]; ok {
		args = append(args, deviceID)
		conds = append(conds, fmt.Sprintf("device_id = $%d", len(args)))
	}

	where := ""
	if len(conds) > 0 {
		where = "WHERE " + strings.Join(conds, " AND ")
	}

	var totalCount uint64
	countQuery := fmt.Sprintf("SELECT COUNT(id) FROM %s %s", auditTable, where)
	if err := r.storage.QueryRow(ctx, countQuery, args...).Scan(&totalCount); err != nil {
		return nil, 0, err
	}
	if totalCount == 0 {
		return []entities.AuditLog{}, 0, nil
	}

	query := fmt.Sprintf(`
		SELECT id, device_id, action, old_value, new_value, performed_by, performed_at
		FROM %s
		%s
		ORDER BY performed_at DESC, id DESC`, auditTable, where)
	if filter.WithPagination && filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", filter.Limit, filter.Offset)
	}

	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	list, err := scanAuditRows(rows)
	return list, totalCount, err
}

func scanAuditRows(rows pgx.Rows) ([]entities.AuditLog, error) {
	var list []entities.AuditLog
	for rows.Next() {
		var l entities.AuditLog
		err := rows.Scan(&l.ID, &l.DeviceID, &l.Action, &l.OldValue, &l.NewValue, &l.PerformedBy, &l.PerformedAt)
		if err != nil {
			return nil, err
		}
		list = append(list, l)
	}
	return list, rows.Err()
}
