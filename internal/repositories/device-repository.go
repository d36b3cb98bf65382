package repositories

import (
	"context"
	"fmt"
	"time"

	"device-manager/internal/entities"
	"device-manager/pkg/constants"
	apperrors "device-manager/pkg/errors"
	"device-manager/pkg/types"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const deviceTable = "devices"
const deviceFields = "d.id, d.name, d.serial_number, d.status, d.work_status, d.priority, d.due_date, d.completed_at, d.is_approved_by_manager, d.approved_by, d.approved_at, d.technician_id, d.device_type_id, d.overdue_notified_at, d.at_risk_notified_at, d.created_at, d.updated_at"

type DeviceRepositoryInterface interface {
	GetDevices(ctx context.Context, filter types.Filter) ([]entities.Device, uint64, error)
	FindDevice(ctx context.Context, id uint64) (*entities.Device, error)
	FindDeviceInTx(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Device, error)
	FindBySerialNumber(ctx context.Context, serialNumber string) (*entities.Device, error)
	FindByTechnician(ctx context.Context, technicianID uint64) ([]entities.Device, error)
	FindOpenWithDueDate(ctx context.Context) ([]entities.Device, error)
	CreateInTx(ctx context.Context, tx pgx.Tx, device *entities.Device) (uint64, error)
	UpdateDetailsInTx(ctx context.Context, tx pgx.Tx, device *entities.Device) error
	SetAssignmentInTx(ctx context.Context, tx pgx.Tx, id uint64, technicianID *uint64, status string, workStatus *string) error
	SetWorkStatusInTx(ctx context.Context, tx pgx.Tx, id uint64, workStatus string, completedAt *time.Time) error
	SetApprovalInTx(ctx context.Context, tx pgx.Tx, id uint64, approvedBy string, approvedAt time.Time) error
	SetDueDateInTx(ctx context.Context, tx pgx.Tx, id uint64, dueDate *time.Time) error
	DeleteInTx(ctx context.Context, tx pgx.Tx, id uint64) error
	UnassignAllByTechnicianInTx(ctx context.Context, tx pgx.Tx, technicianID uint64) ([]uint64, error)
	AssignManyInTx(ctx context.Context, tx pgx.Tx, technicianID uint64, deviceIDs []uint64, status string, workStatus string) ([]uint64, error)
	MarkOverdueNotified(ctx context.Context, id uint64, at time.Time) error
	MarkAtRiskNotified(ctx context.Context, id uint64, at time.Time) error
}

type DeviceRepository struct {
	storage *pgxpool.Pool
}

func NewDeviceRepository(storage *pgxpool.Pool) DeviceRepositoryInterface {
	return &DeviceRepository{storage: storage}
}

func scanDevice(row pgx.Row) (*entities.Device, error) {
	var d entities.Device
	err := row.Scan(
		&d.ID, &d.Name, &d.SerialNumber, &d.Status, &d.WorkStatus, &d.Priority,
		&d.DueDate, &d.CompletedAt, &d.IsApprovedByManager, &d.ApprovedBy, &d.ApprovedAt,
		&d.TechnicianID, &d.DeviceTypeID, &d.OverdueNotifiedAt, &d.AtRiskNotifiedAt,
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

func (r *DeviceRepository) GetDevices(ctx context.Context, filter types.Filter) ([]entities.Device, uint64, error) {
	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

	baseSelect := psql.Select().From("devices d")

	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		baseSelect = baseSelect.Where(sq.Or{
			sq.ILike{"d.name": pattern},
			sq.ILike{"d.serial_number": pattern},
		})
	}
	for key, value := range filter.Filter {
		switch key {
		case "status", "work_status", "priority":
			baseSelect = baseSelect.Where(sq.Eq{"d." + key: value})
		case "technician_id", "device_type_id":
			baseSelect = baseSelect.Where(sq.Eq{"d." + key: value})
		case "unassigned":
			baseSelect = baseSelect.Where(sq.Eq{"d.technician_id": nil})
		case "waiting_approval":
			baseSelect = baseSelect.Where(sq.Eq{"d.work_status": constants.WorkStatusDone, "d.is_approved_by_manager": false})
		case "sla":
			baseSelect = whereSLA(baseSelect, fmt.Sprintf("%v", value))
		}
	}

	countQuery, countArgs, err := baseSelect.Columns("COUNT(d.id)").ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка сборки COUNT-запроса: %w", err)
	}
	var totalCount uint64
	if err = r.storage.QueryRow(ctx, countQuery, countArgs...).Scan(&totalCount); err != nil {
		return nil, 0, fmt.Errorf("ошибка выполнения COUNT-запроса: %w", err)
	}
	if totalCount == 0 {
		return []entities.Device{}, 0, nil
	}

	mainBuilder := baseSelect.Columns(deviceFields)

	orderApplied := false
	for field, dir := range filter.Sort {
		switch field {
		case "name", "serial_number", "priority", "due_date", "created_at", "work_status":
			if dir != "asc" {
				dir = "desc"
			}
			mainBuilder = mainBuilder.OrderBy("d." + field + " " + dir)
			orderApplied = true
		}
	}
	if !orderApplied {
		mainBuilder = mainBuilder.OrderBy("d.id DESC")
	}

	if filter.WithPagination && filter.Limit > 0 {
		mainBuilder = mainBuilder.Limit(uint64(filter.Limit)).Offset(uint64(filter.Offset))
	}

	query, args, err := mainBuilder.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка сборки основного запроса: %w", err)
	}
	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка выполнения основного запроса: %w", err)
	}
	defer rows.Close()

	var devices []entities.Device
	for rows.Next() {
		d, err := scanDevice(rows)
		if err != nil {
			return nil, 0, err
		}
		devices = append(devices, *d)
	}
	return devices, totalCount, rows.Err()
}

// whereSLA переводит вычисляемую метку SLA в условие по due_date и
// completed_at. Окно "At Risk" совпадает с rules.AtRiskWindow (24 часа).
func whereSLA(b sq.SelectBuilder, label string) sq.SelectBuilder {
	switch label {
	case constants.SLANoDueDate:
		return b.Where(sq.Eq{"d.due_date": nil})
	case constants.SLAMetSLA:
		return b.Where(sq.Expr("d.completed_at IS NOT NULL AND d.completed_at <= d.due_date"))
	case constants.SLAMissedSLA:
		return b.Where(sq.Expr("d.completed_at IS NOT NULL AND d.completed_at > d.due_date"))
	case constants.SLAOverdue:
		return b.Where(sq.Expr("d.completed_at IS NULL AND d.due_date < NOW()"))
	case constants.SLAAtRisk:
		return b.Where(sq.Expr("d.completed_at IS NULL AND d.due_date >= NOW() AND d.due_date <= NOW() + INTERVAL '24 hours'"))
	case constants.SLAOnTime:
		return b.Where(sq.Expr("d.completed_at IS NULL AND d.due_date > NOW() + INTERVAL '24 hours'"))
	}
	return b
}

func (r *DeviceRepository) FindDevice(ctx context.Context, id uint64) (*entities.Device, error) {
	query := fmt.Sprintf("SELECT %s FROM %s d WHERE d.id = $1", deviceFields, deviceTable)
	return scanDevice(r.storage.QueryRow(ctx, query, id))
}

func (r *DeviceRepository) FindDeviceInTx(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Device, error) {
	query := fmt.Sprintf("SELECT %s FROM %s d WHERE d.id = $1 FOR UPDATE", deviceFields, deviceTable)
	return scanDevice(tx.QueryRow(ctx, query, id))
}

func (r *DeviceRepository) FindBySerialNumber(ctx context.Context, serialNumber string) (*entities.Device, error) {
	query := fmt.Sprintf("SELECT %s FROM %s d WHERE d.serial_number = $1", deviceFields, deviceTable)
	return scanDevice(r.storage.QueryRow(ctx, query, serialNumber))
}

func (r *DeviceRepository) FindByTechnician(ctx context.Context, technicianID uint64) ([]entities.Device, error) {
	query := fmt.Sprintf("SELECT %s FROM %s d WHERE d.technician_id = $1 ORDER BY d.id", deviceFields, deviceTable)
	return r.queryDevices(ctx, query, technicianID)
}

// FindOpenWithDueDate — незавершённые устройства со сроком, кандидаты
// для SLA-монитора.
func (r *DeviceRepository) FindOpenWithDueDate(ctx context.Context) ([]entities.Device, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s d
		WHERE d.due_date IS NOT NULL AND d.completed_at IS NULL
		ORDER BY d.due_date`, deviceFields, deviceTable)
	return r.queryDevices(ctx, query)
}

func (r *DeviceRepository) queryDevices(ctx context.Context, query string, args ...any) ([]entities.Device, error) {
	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var devices []entities.Device
	for rows.Next() {
		d, err := scanDevice(rows)
		if err != nil {
			return nil, err
		}
		devices = append(devices, *d)
	}
	return devices, rows.Err()
}

func (r *DeviceRepository) CreateInTx(ctx context.Context, tx pgx.Tx, device *entities.Device) (uint64, error) {
	query := fmt.Sprintf(`
		INSERT INTO %s (name, serial_number, status, work_status, priority, due_date, technician_id, device_type_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`, deviceTable)

	var id uint64
	err := tx.QueryRow(ctx, query,
		device.Name, device.SerialNumber, device.Status, device.WorkStatus,
		device.Priority, device.DueDate, device.TechnicianID, device.DeviceTypeID,
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (r *DeviceRepository) UpdateDetailsInTx(ctx context.Context, tx pgx.Tx, device *entities.Device) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET name = $1, serial_number = $2, priority = $3, device_type_id = $4, updated_at = CURRENT_TIMESTAMP
		WHERE id = $5`, deviceTable)

	result, err := tx.Exec(ctx, query,
		device.Name, device.SerialNumber, device.Priority, device.DeviceTypeID, device.ID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// SetAssignmentInTx меняет техника и одновременно сбрасывает одобрение
// менеджера: новое назначение обнуляет прежний цикл приёмки.
func (r *DeviceRepository) SetAssignmentInTx(ctx context.Context, tx pgx.Tx, id uint64, technicianID *uint64, status string, workStatus *string) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET technician_id = $1, status = $2, work_status = $3,
		    is_approved_by_manager = FALSE, approved_by = NULL, approved_at = NULL,
		    completed_at = NULL, updated_at = CURRENT_TIMESTAMP
		WHERE id = $4`, deviceTable)

	result, err := tx.Exec(ctx, query, technicianID, status, workStatus, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *DeviceRepository) SetWorkStatusInTx(ctx context.Context, tx pgx.Tx, id uint64, workStatus string, completedAt *time.Time) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET work_status = $1, completed_at = $2, updated_at = CURRENT_TIMESTAMP
		WHERE id = $3`, deviceTable)

	result, err := tx.Exec(ctx, query, workStatus, completedAt, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *DeviceRepository) SetApprovalInTx(ctx context.Context, tx pgx.Tx, id uint64, approvedBy string, approvedAt time.Time) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET is_approved_by_manager = TRUE, approved_by = $1, approved_at = $2, updated_at = CURRENT_TIMESTAMP
		WHERE id = $3`, deviceTable)

	result, err := tx.Exec(ctx, query, approvedBy, approvedAt, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// SetDueDateInTx сбрасывает маркеры SLA-уведомлений: новый срок
// означает новый отсчёт.
func (r *DeviceRepository) SetDueDateInTx(ctx context.Context, tx pgx.Tx, id uint64, dueDate *time.Time) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET due_date = $1, overdue_notified_at = NULL, at_risk_notified_at = NULL, updated_at = CURRENT_TIMESTAMP
		WHERE id = $2`, deviceTable)

	result, err := tx.Exec(ctx, query, dueDate, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *DeviceRepository) DeleteInTx(ctx context.Context, tx pgx.Tx, id uint64) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE id = $1", deviceTable)

	result, err := tx.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// UnassignAllByTechnicianInTx снимает техника со всех его устройств
// и возвращает id затронутых. Устройства переходят в Inactive.
func (r *DeviceRepository) UnassignAllByTechnicianInTx(ctx context.Context, tx pgx.Tx, technicianID uint64) ([]uint64, error) {
	query := fmt.Sprintf(`
		UPDATE %s
		SET technician_id = NULL, status = $1, work_status = NULL,
		    is_approved_by_manager = FALSE, approved_by = NULL, approved_at = NULL,
		    completed_at = NULL, updated_at = CURRENT_TIMESTAMP
		WHERE technician_id = $2
		RETURNING id`, deviceTable)

	rows, err := tx.Query(ctx, query, constants.DeviceStatusInactive, technicianID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uint64
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// AssignManyInTx возвращает id реально обновлённых устройств: уже
// занятые другим техником строки пропускаются молча.
func (r *DeviceRepository) AssignManyInTx(ctx context.Context, tx pgx.Tx, technicianID uint64, deviceIDs []uint64, status string, workStatus string) ([]uint64, error) {
	if len(deviceIDs) == 0 {
		return nil, nil
	}

	query := fmt.Sprintf(`
		UPDATE %s
		SET technician_id = $1, status = $2, work_status = $3,
		    is_approved_by_manager = FALSE, approved_by = NULL, approved_at = NULL,
		    completed_at = NULL, updated_at = CURRENT_TIMESTAMP
		WHERE id = ANY($4) AND technician_id IS NULL
		RETURNING id`, deviceTable)

	rows, err := tx.Query(ctx, query, technicianID, status, workStatus, deviceIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uint64
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *DeviceRepository) MarkOverdueNotified(ctx context.Context, id uint64, at time.Time) error {
	query := fmt.Sprintf("UPDATE %s SET overdue_notified_at = $1 WHERE id = $2", deviceTable)
	_, err := r.storage.Exec(ctx, query, at, id)
	return err
}

func (r *DeviceRepository) MarkAtRiskNotified(ctx context.Context, id uint64, at time.Time) error {
	query := fmt.Sprintf("UPDATE %s SET at_risk_notified_at = $1 WHERE id = $2", deviceTable)
	_, err := r.storage.Exec(ctx, query, at, id)
	return err
}
