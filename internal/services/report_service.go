package services

import (
	"context"

	"go.uber.org/zap"

	"device-manager/internal/authz"
	"device-manager/internal/dto"
	"device-manager/internal/entities"
	"device-manager/internal/repositories"
	apperrors "device-manager/pkg/errors"
	"device-manager/pkg/utils"
)

type ReportServiceInterface interface {
	GetTechnicianPerformance(ctx context.Context, filter entities.ReportFilter) ([]dto.TechnicianPerformanceDTO, uint64, error)
}

type reportService struct {
	reportRepo repositories.ReportRepositoryInterface
	logger     *zap.Logger
}

func NewReportService(
	reportRepo repositories.ReportRepositoryInterface,
	logger *zap.Logger,
) ReportServiceInterface {
	return &reportService{
		reportRepo: reportRepo,
		logger:     logger,
	}
}

func (s *reportService) GetTechnicianPerformance(ctx context.Context, filter entities.ReportFilter) ([]dto.TechnicianPerformanceDTO, uint64, error) {
	userID, err := utils.GetUserIDFromCtx(ctx)
	if err != nil {
		return nil, 0, err
	}
	permissionsMap, err := utils.GetPermissionsMapFromCtx(ctx)
	if err != nil {
		return nil, 0, err
	}
	roleName, err := utils.GetRoleNameFromCtx(ctx)
	if err != nil {
		return nil, 0, err
	}

	authCtx := authz.Context{ActorUserID: userID, RoleName: roleName, Permissions: permissionsMap}
	if !authz.CanDo(authz.ReportsView, authCtx) {
		s.logger.Warn("Попытка доступа к отчёту без права reports:view", zap.Uint64("userID", userID))
		return nil, 0, apperrors.ErrForbidden
	}

	items, total, err := s.reportRepo.GetTechnicianPerformance(ctx, filter)
	if err != nil {
		s.logger.Error("ReportService: ошибка построения отчёта", zap.Error(err))
		return nil, 0, err
	}

	dtos := make([]dto.TechnicianPerformanceDTO, len(items))
	for i, item := range items {
		rate := 0.0
		if withDue := item.DevicesMetSLA + item.DevicesMissedSLA; withDue > 0 {
			rate = float64(item.DevicesMetSLA) / float64(withDue) * 100
		}
		dtos[i] = dto.TechnicianPerformanceDTO{
			TechnicianID:          item.TechnicianID,
			TechnicianName:        item.TechnicianName,
			TotalDevicesCompleted: item.TotalDevicesCompleted,
			DevicesMetSLA:         item.DevicesMetSLA,
			DevicesMissedSLA:      item.DevicesMissedSLA,
			SLAComplianceRate:     rate,
			AverageCompletionHrs:  item.AverageCompletionHrs,
			CurrentlyAssigned:     item.CurrentlyAssigned,
			InProgress:            item.InProgress,
			WaitingApproval:       item.WaitingApproval,
			CriticalDevices:       item.CriticalDevices,
			HighDevices:           item.HighDevices,
			MediumDevices:         item.MediumDevices,
			LowDevices:            item.LowDevices,
		}
	}

	return dtos, total, nil
}
