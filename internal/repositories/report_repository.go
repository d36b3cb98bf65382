package repositories

import (
	"context"
	"fmt"

	"device-manager/internal/entities"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ReportRepositoryInterface interface {
	GetTechnicianPerformance(ctx context.Context, filter entities.ReportFilter) ([]entities.TechnicianPerformance, uint64, error)
}

type reportRepository struct {
	db *pgxpool.Pool
}

func NewReportRepository(db *pgxpool.Pool) ReportRepositoryInterface {
	return &reportRepository{db: db}
}

func (r *reportRepository) GetTechnicianPerformance(ctx context.Context, filter entities.ReportFilter) ([]entities.TechnicianPerformance, uint64, error) {
	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

	// Общая база для COUNT и основного запроса
	baseSelect := psql.Select().
		From("technicians t").
		LeftJoin("devices d ON d.technician_id = t.id").
		Where(sq.Eq{"t.is_deleted": false})

	if len(filter.TechnicianIDs) > 0 {
		baseSelect = baseSelect.Where(sq.Eq{"t.id": filter.TechnicianIDs})
	}

	countBuilder := psql.Select("COUNT(t.id)").
		From("technicians t").
		Where(sq.Eq{"t.is_deleted": false})
	if len(filter.TechnicianIDs) > 0 {
		countBuilder = countBuilder.Where(sq.Eq{"t.id": filter.TechnicianIDs})
	}
	countQuery, countArgs, err := countBuilder.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка сборки COUNT-запроса: %w", err)
	}

	var totalCount uint64
	if err = r.db.QueryRow(ctx, countQuery, countArgs...).Scan(&totalCount); err != nil {
		return nil, 0, fmt.Errorf("ошибка выполнения COUNT-запроса: %w", err)
	}
	if totalCount == 0 {
		return []entities.TechnicianPerformance{}, 0, nil
	}

	// Условие "завершено в периоде" переиспользуется всеми агрегатами
	completedCond := "d.completed_at IS NOT NULL"
	condArgs := []interface{}{}
	if filter.DateFrom != nil {
		completedCond += " AND d.completed_at >= ?"
		condArgs = append(condArgs, *filter.DateFrom)
	}
	if filter.DateTo != nil {
		completedCond += " AND d.completed_at <= ?"
		condArgs = append(condArgs, *filter.DateTo)
	}

	mainBuilder := baseSelect.
		Columns("t.id", "t.full_name").
		Column(sq.Expr("COUNT(d.id) FILTER (WHERE "+completedCond+")", condArgs...)).
		Column(sq.Expr("COUNT(d.id) FILTER (WHERE "+completedCond+" AND d.due_date IS NOT NULL AND d.completed_at <= d.due_date)", condArgs...)).
		Column(sq.Expr("COUNT(d.id) FILTER (WHERE "+completedCond+" AND d.due_date IS NOT NULL AND d.completed_at > d.due_date)", condArgs...)).
		Column(sq.Expr("COALESCE(ROUND(AVG(EXTRACT(EPOCH FROM (d.completed_at - d.created_at)) / 3600) FILTER (WHERE "+completedCond+")::numeric, 2), 0)", condArgs...)).
		Column("COUNT(d.id) AS currently_assigned").
		Column("COUNT(d.id) FILTER (WHERE d.work_status = 'InProgress') AS in_progress").
		Column("COUNT(d.id) FILTER (WHERE d.work_status = 'Done' AND NOT d.is_approved_by_manager) AS waiting_approval").
		Column("COUNT(d.id) FILTER (WHERE d.priority = 'Critical') AS critical_devices").
		Column("COUNT(d.id) FILTER (WHERE d.priority = 'High') AS high_devices").
		Column("COUNT(d.id) FILTER (WHERE d.priority = 'Medium') AS medium_devices").
		Column("COUNT(d.id) FILTER (WHERE d.priority = 'Low') AS low_devices").
		GroupBy("t.id", "t.full_name")

	switch filter.SortBy {
	case "completed":
		mainBuilder = mainBuilder.OrderBy("3 DESC")
	case "name":
		mainBuilder = mainBuilder.OrderBy("t.full_name")
	default:
		mainBuilder = mainBuilder.OrderBy("t.id")
	}

	if filter.PerPage > 0 {
		mainBuilder = mainBuilder.Limit(uint64(filter.PerPage)).Offset(uint64((filter.Page - 1) * filter.PerPage))
	}

	query, args, err := mainBuilder.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка сборки основного запроса: %w", err)
	}
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка выполнения основного запроса: %w", err)
	}
	defer rows.Close()

	var items []entities.TechnicianPerformance
	for rows.Next() {
		var item entities.TechnicianPerformance
		err := rows.Scan(
			&item.TechnicianID, &item.TechnicianName,
			&item.TotalDevicesCompleted, &item.DevicesMetSLA, &item.DevicesMissedSLA,
			&item.AverageCompletionHrs,
			&item.CurrentlyAssigned, &item.InProgress, &item.WaitingApproval,
			&item.CriticalDevices, &item.HighDevices, &item.MediumDevices, &item.LowDevices,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("ошибка сканирования строки: %w", err)
		}
		items = append(items, item)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, err
	}

	return items, totalCount, nil
}
