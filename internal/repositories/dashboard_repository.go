package repositories

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DashboardCounts — сырые агрегаты по парку устройств.
type DashboardCounts struct {
	TotalDevices     int
	ActiveDevices    int
	InactiveDevices  int
	AssignedCount    int
	InProgressCount  int
	DoneCount        int
	WaitingApproval  int
	OverdueCount     int
	AtRiskCount      int
	NoDueDateCount   int
	MetSLACount      int
	MissedSLACount   int
	CriticalOverdue  int
	ActiveTechnician int
}

type DashboardRepositoryInterface interface {
	GetCounts(ctx context.Context, now time.Time, atRiskWindow time.Duration) (*DashboardCounts, error)
	CountByPriority(ctx context.Context) (map[string]int, error)
	CountByType(ctx context.Context) (map[string]int, error)
}

type dashboardRepository struct {
	db *pgxpool.Pool
}

func NewDashboardRepository(db *pgxpool.Pool) DashboardRepositoryInterface {
	return &dashboardRepository{db: db}
}

func (r *dashboardRepository) GetCounts(ctx context.Context, now time.Time, atRiskWindow time.Duration) (*DashboardCounts, error) {
	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

	overdueCond := "d.due_date IS NOT NULL AND d.completed_at IS NULL AND d.due_date < ?"
	atRiskCond := "d.due_date IS NOT NULL AND d.completed_at IS NULL AND d.due_date >= ? AND d.due_date <= ?"

	builder := psql.Select().From("devices d").
		Column("COUNT(d.id)").
		Column("COUNT(d.id) FILTER (WHERE d.status = 'Active')").
		Column("COUNT(d.id) FILTER (WHERE d.status = 'Inactive')").
		Column("COUNT(d.id) FILTER (WHERE d.work_status = 'Assigned')").
		Column("COUNT(d.id) FILTER (WHERE d.work_status = 'InProgress')").
		Column("COUNT(d.id) FILTER (WHERE d.work_status = 'Done')").
		Column("COUNT(d.id) FILTER (WHERE d.work_status = 'Done' AND NOT d.is_approved_by_manager)").
		Column(sq.Expr("COUNT(d.id) FILTER (WHERE "+overdueCond+")", now)).
		Column(sq.Expr("COUNT(d.id) FILTER (WHERE "+atRiskCond+")", now, now.Add(atRiskWindow))).
		Column("COUNT(d.id) FILTER (WHERE d.due_date IS NULL)").
		Column("COUNT(d.id) FILTER (WHERE d.completed_at IS NOT NULL AND d.due_date IS NOT NULL AND d.completed_at <= d.due_date)").
		Column("COUNT(d.id) FILTER (WHERE d.completed_at IS NOT NULL AND d.due_date IS NOT NULL AND d.completed_at > d.due_date)").
		Column(sq.Expr("COUNT(d.id) FILTER (WHERE d.priority = 'Critical' AND "+overdueCond+")", now)).
		Column("(SELECT COUNT(t.id) FROM technicians t WHERE NOT t.is_deleted)")

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("ошибка сборки запроса дашборда: %w", err)
	}

	var c DashboardCounts
	err = r.db.QueryRow(ctx, query, args...).Scan(
		&c.TotalDevices, &c.ActiveDevices, &c.InactiveDevices,
		&c.AssignedCount, &c.InProgressCount, &c.DoneCount, &c.WaitingApproval,
		&c.OverdueCount, &c.AtRiskCount, &c.NoDueDateCount,
		&c.MetSLACount, &c.MissedSLACount, &c.CriticalOverdue,
		&c.ActiveTechnician,
	)
	if err != nil {
		return nil, fmt.Errorf("ошибка выполнения запроса дашборда: %w", err)
	}
	return &c, nil
}

func (r *dashboardRepository) CountByPriority(ctx context.Context) (map[string]int, error) {
	return r.countGrouped(ctx, "SELECT d.priority, COUNT(d.id) FROM devices d GROUP BY d.priority")
}

func (r *dashboardRepository) CountByType(ctx context.Context) (map[string]int, error) {
	return r.countGrouped(ctx, `
		SELECT COALESCE(dt.name, 'Unknown'), COUNT(d.id)
		FROM devices d
		LEFT JOIN device_types dt ON d.device_type_id = dt.id
		GROUP BY dt.name`)
}

func (r *dashboardRepository) countGrouped(ctx context.Context, query string) (map[string]int, error) {
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[string]int)
	for rows.Next() {
		var key string
		var count int
		if err := rows.Scan(&key, &count); err != nil {
			return nil, err
		}
		result[key] = count
	}
	return result, rows.Err()
}
