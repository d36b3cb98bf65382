package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"device-manager/internal/authz"
	"device-manager/internal/dto"
	"device-manager/internal/repositories"
	"device-manager/internal/rules"
	apperrors "device-manager/pkg/errors"
	"device-manager/pkg/utils"
)

type DashboardServiceInterface interface {
	GetOverview(ctx context.Context) (*dto.DashboardOverviewDTO, error)
	ToggleOverride(ctx context.Context, payload dto.ToggleOverrideDTO) (*dto.OverrideStateDTO, error)
}

type DashboardService struct {
	dashboardRepo   repositories.DashboardRepositoryInterface
	overrideService OverrideServiceInterface
	logger          *zap.Logger
	now             func() time.Time
}

func NewDashboardService(
	dashboardRepo repositories.DashboardRepositoryInterface,
	overrideService OverrideServiceInterface,
	logger *zap.Logger,
) *DashboardService {
	return &DashboardService{
		dashboardRepo:   dashboardRepo,
		overrideService: overrideService,
		logger:          logger,
		now:             time.Now,
	}
}

func (s *DashboardService) checkPermission(ctx context.Context, permission string) error {
	userID, err := utils.GetUserIDFromCtx(ctx)
	if err != nil {
		return err
	}
	perms, err := utils.GetPermissionsMapFromCtx(ctx)
	if err != nil {
		return err
	}
	roleName, err := utils.GetRoleNameFromCtx(ctx)
	if err != nil {
		return err
	}
	if !authz.CanDo(permission, authz.Context{ActorUserID: userID, RoleName: roleName, Permissions: perms}) {
		return apperrors.ErrForbidden
	}
	return nil
}

func (s *DashboardService) GetOverview(ctx context.Context) (*dto.DashboardOverviewDTO, error) {
	if err := s.checkPermission(ctx, authz.DashboardView); err != nil {
		return nil, err
	}

	counts, err := s.dashboardRepo.GetCounts(ctx, s.now(), rules.AtRiskWindow)
	if err != nil {
		s.logger.Error("DashboardService: ошибка получения агрегатов", zap.Error(err))
		return nil, err
	}

	byPriority, err := s.dashboardRepo.CountByPriority(ctx)
	if err != nil {
		return nil, err
	}
	byType, err := s.dashboardRepo.CountByType(ctx)
	if err != nil {
		return nil, err
	}

	overrideState, err := s.overrideState(ctx)
	if err != nil {
		return nil, err
	}

	return &dto.DashboardOverviewDTO{
		TotalDevices:     counts.TotalDevices,
		ActiveDevices:    counts.ActiveDevices,
		InactiveDevices:  counts.InactiveDevices,
		AssignedCount:    counts.AssignedCount,
		InProgressCount:  counts.InProgressCount,
		DoneCount:        counts.DoneCount,
		WaitingApproval:  counts.WaitingApproval,
		OverdueCount:     counts.OverdueCount,
		AtRiskCount:      counts.AtRiskCount,
		NoDueDateCount:   counts.NoDueDateCount,
		MetSLACount:      counts.MetSLACount,
		MissedSLACount:   counts.MissedSLACount,
		CriticalOverdue:  counts.CriticalOverdue,
		ActiveTechnician: counts.ActiveTechnician,
		ByPriority:       byPriority,
		ByType:           byType,
		Override:         *overrideState,
	}, nil
}

// ToggleOverride включает или выключает режим Admin Override.
func (s *DashboardService) ToggleOverride(ctx context.Context, payload dto.ToggleOverrideDTO) (*dto.OverrideStateDTO, error) {
	if err := s.checkPermission(ctx, authz.OverrideToggle); err != nil {
		return nil, err
	}

	if payload.Enable {
		window := time.Duration(payload.Minutes) * time.Minute
		expiresAt, err := s.overrideService.Enable(ctx, window)
		if err != nil {
			return nil, err
		}
		formatted := expiresAt.Format(time.RFC3339)
		return &dto.OverrideStateDTO{Enabled: true, ExpiresAt: &formatted}, nil
	}

	if err := s.overrideService.Disable(ctx); err != nil {
		return nil, err
	}
	return &dto.OverrideStateDTO{Enabled: false}, nil
}

func (s *DashboardService) overrideState(ctx context.Context) (*dto.OverrideStateDTO, error) {
	enabled, expiresAt, err := s.overrideService.State(ctx)
	if err != nil {
		return nil, err
	}
	state := &dto.OverrideStateDTO{Enabled: enabled}
	if expiresAt != nil {
		formatted := expiresAt.Format(time.RFC3339)
		state.ExpiresAt = &formatted
	}
	return state, nil
}
