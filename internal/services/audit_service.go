package services

import (
	"context"

	"go.uber.org/zap"

	"device-manager/internal/authz"
	"device-manager/internal/entities"
	"device-manager/internal/repositories"
	apperrors "device-manager/pkg/errors"
	"device-manager/pkg/types"
	"device-manager/pkg/utils"
)

type AuditServiceInterface interface {
	GetAuditLogs(ctx context.Context, filter types.Filter) ([]entities.AuditLog, uint64, error)
	GetDeviceAudit(ctx context.Context, deviceID uint64) ([]entities.AuditLog, error)
}

type AuditService struct {
	auditRepo repositories.AuditRepositoryInterface
	logger    *zap.Logger
}

func NewAuditService(auditRepo repositories.AuditRepositoryInterface, logger *zap.Logger) AuditServiceInterface {
	return &AuditService{auditRepo: auditRepo, logger: logger}
}

func (s *AuditService) checkPermission(ctx context.Context) error {
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
	if !authz.CanDo(authz.AuditView, authz.Context{ActorUserID: userID, RoleName: roleName, Permissions: perms}) {
		return apperrors.ErrForbidden
	}
	return nil
}

func (s *AuditService) GetAuditLogs(ctx context.Context, filter types.Filter) ([]entities.AuditLog, uint64, error) {
	if err := s.checkPermission(ctx); err != nil {
		return nil, 0, err
	}

	logs, total, err := s.auditRepo.FindAll(ctx, filter)
	if err != nil {
		s.logger.Error("AuditService: ошибка получения журнала аудита", zap.Error(err))
		return nil, 0, err
	}
	return logs, total, nil
}

func (s *AuditService) GetDeviceAudit(ctx context.Context, deviceID uint64) ([]entities.AuditLog, error) {
	if err := s.checkPermission(ctx); err != nil {
		return nil, err
	}
	return s.auditRepo.FindByDeviceID(ctx, deviceID)
}
