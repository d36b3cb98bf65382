package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"device-manager/internal/authz"
	"device-manager/internal/dto"
	"device-manager/internal/entities"
	"device-manager/internal/repositories"
	"device-manager/pkg/constants"
	apperrors "device-manager/pkg/errors"
	"device-manager/pkg/utils"
)

type DiagnosisServiceInterface interface {
	GetByDevice(ctx context.Context, deviceID uint64) ([]dto.DiagnosisResponseDTO, error)
	CreateDiagnosis(ctx context.Context, deviceID uint64, payload dto.CreateDiagnosisDTO) (uint64, error)
	UpdateDiagnosis(ctx context.Context, id uint64, payload dto.UpdateDiagnosisDTO) error
	DeleteDiagnosis(ctx context.Context, id uint64) error
}

type DiagnosisService struct {
	txManager       repositories.TxManagerInterface
	diagnosisRepo   repositories.DiagnosisRepositoryInterface
	deviceRepo      repositories.DeviceRepositoryInterface
	technicianRepo  repositories.TechnicianRepositoryInterface
	auditRepo       repositories.AuditRepositoryInterface
	historyRepo     repositories.DeviceHistoryRepositoryInterface
	userRepo        repositories.UserRepositoryInterface
	overrideService OverrideServiceInterface
	logger          *zap.Logger
	now             func() time.Time
}

func NewDiagnosisService(
	txManager repositories.TxManagerInterface,
	diagnosisRepo repositories.DiagnosisRepositoryInterface,
	deviceRepo repositories.DeviceRepositoryInterface,
	technicianRepo repositories.TechnicianRepositoryInterface,
	auditRepo repositories.AuditRepositoryInterface,
	historyRepo repositories.DeviceHistoryRepositoryInterface,
	userRepo repositories.UserRepositoryInterface,
	overrideService OverrideServiceInterface,
	logger *zap.Logger,
) *DiagnosisService {
	return &DiagnosisService{
		txManager:       txManager,
		diagnosisRepo:   diagnosisRepo,
		deviceRepo:      deviceRepo,
		technicianRepo:  technicianRepo,
		auditRepo:       auditRepo,
		historyRepo:     historyRepo,
		userRepo:        userRepo,
		overrideService: overrideService,
		logger:          logger,
		now:             time.Now,
	}
}

func (s *DiagnosisService) authzContext(ctx context.Context, target *entities.Device) (authz.Context, *entities.User, error) {
	userID, err := utils.GetUserIDFromCtx(ctx)
	if err != nil {
		return authz.Context{}, nil, err
	}
	perms, err := utils.GetPermissionsMapFromCtx(ctx)
	if err != nil {
		return authz.Context{}, nil, err
	}
	roleName, err := utils.GetRoleNameFromCtx(ctx)
	if err != nil {
		return authz.Context{}, nil, err
	}

	actor, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return authz.Context{}, nil, err
	}

	var actorTechID *uint64
	if tech, errTech := s.technicianRepo.FindByUserID(ctx, userID); errTech == nil {
		actorTechID = &tech.ID
	}

	overrideActive := false
	if roleName == constants.RoleAdmin {
		overrideActive = s.overrideService.IsActive(ctx)
	}

	return authz.Context{
		ActorUserID:       userID,
		RoleName:          roleName,
		Permissions:       perms,
		ActorTechnicianID: actorTechID,
		Target:            target,
		OverrideActive:    overrideActive,
	}, actor, nil
}

func (s *DiagnosisService) GetByDevice(ctx context.Context, deviceID uint64) ([]dto.DiagnosisResponseDTO, error) {
	authzCtx, _, err := s.authzContext(ctx, nil)
	if err != nil {
		return nil, err
	}
	if !authz.CanDo(authz.DevicesView, authzCtx) {
		return nil, apperrors.ErrForbidden
	}

	if _, err := s.deviceRepo.FindDevice(ctx, deviceID); err != nil {
		return nil, err
	}

	diagnoses, err := s.diagnosisRepo.FindByDeviceID(ctx, deviceID)
	if err != nil {
		return nil, err
	}

	list := make([]dto.DiagnosisResponseDTO, 0, len(diagnoses))
	for _, d := range diagnoses {
		list = append(list, toDiagnosisDTO(&d))
	}
	return list, nil
}

func (s *DiagnosisService) CreateDiagnosis(ctx context.Context, deviceID uint64, payload dto.CreateDiagnosisDTO) (uint64, error) {
	device, err := s.deviceRepo.FindDevice(ctx, deviceID)
	if err != nil {
		return 0, err
	}

	authzCtx, actor, err := s.authzContext(ctx, device)
	if err != nil {
		return 0, err
	}
	if !authz.CanDo(authz.DiagnosesCreate, authzCtx) {
		return 0, apperrors.ErrForbidden
	}

	diagnosis := &entities.Diagnosis{
		DeviceID:     deviceID,
		TechnicianID: authzCtx.ActorTechnicianID,
		Title:        payload.Title,
		Description:  payload.Description,
		CreatedBy:    actor.FullName,
	}
	if payload.Recommendation.Valid {
		rec := payload.Recommendation.String
		diagnosis.Recommendation = &rec
	}

	txID := uuid.New()
	var newID uint64
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		id, err := s.diagnosisRepo.CreateInTx(ctx, tx, diagnosis)
		if err != nil {
			return err
		}
		newID = id

		if err := s.auditRepo.CreateInTx(ctx, tx, &entities.AuditLog{
			DeviceID:    deviceID,
			Action:      constants.AuditDiagnosisAdded,
			NewValue:    &payload.Title,
			PerformedBy: actor.FullName,
			PerformedAt: s.now(),
		}); err != nil {
			return err
		}

		desc := fmt.Sprintf("Diagnosis %q added", payload.Title)
		return s.historyRepo.CreateInTx(ctx, tx, &entities.DeviceHistory{
			DeviceID:          deviceID,
			Action:            constants.HistoryDiagnosisAdded,
			Description:       desc,
			PerformedByUserID: &actor.ID,
			NewValue:          &payload.Title,
			TxID:              &txID,
		})
	})
	if err != nil {
		s.logger.Error("DiagnosisService: ошибка добавления диагноза", zap.Uint64("deviceID", deviceID), zap.Error(err))
		return 0, err
	}

	return newID, nil
}

func (s *DiagnosisService) UpdateDiagnosis(ctx context.Context, id uint64, payload dto.UpdateDiagnosisDTO) error {
	diagnosis, err := s.diagnosisRepo.FindDiagnosis(ctx, id)
	if err != nil {
		return err
	}
	device, err := s.deviceRepo.FindDevice(ctx, diagnosis.DeviceID)
	if err != nil {
		return err
	}

	authzCtx, actor, err := s.authzContext(ctx, device)
	if err != nil {
		return err
	}
	if !authz.CanDo(authz.DiagnosesUpdate, authzCtx) {
		return apperrors.ErrForbidden
	}

	oldTitle := diagnosis.Title
	if payload.Title.Valid {
		diagnosis.Title = payload.Title.String
	}
	if payload.Description.Valid {
		diagnosis.Description = payload.Description.String
	}
	if payload.Recommendation.Valid {
		rec := payload.Recommendation.String
		diagnosis.Recommendation = &rec
	}

	txID := uuid.New()
	return s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		if err := s.diagnosisRepo.UpdateInTx(ctx, tx, diagnosis); err != nil {
			return err
		}

		if err := s.auditRepo.CreateInTx(ctx, tx, &entities.AuditLog{
			DeviceID:    diagnosis.DeviceID,
			Action:      constants.AuditDiagnosisEdited,
			OldValue:    &oldTitle,
			NewValue:    &diagnosis.Title,
			PerformedBy: actor.FullName,
			PerformedAt: s.now(),
		}); err != nil {
			return err
		}

		desc := fmt.Sprintf("Diagnosis %q edited", diagnosis.Title)
		return s.historyRepo.CreateInTx(ctx, tx, &entities.DeviceHistory{
			DeviceID:          diagnosis.DeviceID,
			Action:            constants.HistoryDiagnosisEdited,
			Description:       desc,
			PerformedByUserID: &actor.ID,
			OldValue:          &oldTitle,
			NewValue:          &diagnosis.Title,
			TxID:              &txID,
		})
	})
}

func (s *DiagnosisService) DeleteDiagnosis(ctx context.Context, id uint64) error {
	diagnosis, err := s.diagnosisRepo.FindDiagnosis(ctx, id)
	if err != nil {
		return err
	}
	device, err := s.deviceRepo.FindDevice(ctx, diagnosis.DeviceID)
	if err != nil {
		return err
	}

	authzCtx, actor, err := s.authzContext(ctx, device)
	if err != nil {
		return err
	}
	if !authz.CanDo(authz.DiagnosesDelete, authzCtx) {
		return apperrors.ErrForbidden
	}

	txID := uuid.New()
	return s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		if err := s.diagnosisRepo.DeleteInTx(ctx, tx, id); err != nil {
			return err
		}

		if err := s.auditRepo.CreateInTx(ctx, tx, &entities.AuditLog{
			DeviceID:    diagnosis.DeviceID,
			Action:      constants.AuditDiagnosisDeleted,
			OldValue:    &diagnosis.Title,
			PerformedBy: actor.FullName,
			PerformedAt: s.now(),
		}); err != nil {
			return err
		}

		desc := fmt.Sprintf("Diagnosis %q deleted", diagnosis.Title)
		return s.historyRepo.CreateInTx(ctx, tx, &entities.DeviceHistory{
			DeviceID:          diagnosis.DeviceID,
			Action:            constants.HistoryDiagnosisDeleted,
			Description:       desc,
			PerformedByUserID: &actor.ID,
			OldValue:          &diagnosis.Title,
			TxID:              &txID,
		})
	})
}
