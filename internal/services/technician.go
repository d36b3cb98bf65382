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
	"device-manager/pkg/types"
	"device-manager/pkg/utils"
)

type TechnicianServiceInterface interface {
	GetTechnicians(ctx context.Context, filter types.Filter, includeDeleted bool) (*dto.TechnicianListResponseDTO, error)
	FindTechnician(ctx context.Context, id uint64) (*dto.TechnicianResponseDTO, error)
	CreateTechnician(ctx context.Context, payload dto.CreateTechnicianDTO) (uint64, error)
	UpdateTechnician(ctx context.Context, id uint64, payload dto.UpdateTechnicianDTO) error
	DeleteTechnician(ctx context.Context, id uint64) (*dto.TechnicianDeleteResultDTO, error)
	RestoreTechnician(ctx context.Context, id uint64, payload dto.RestoreTechnicianDTO) ([]uint64, error)
}

type TechnicianService struct {
	txManager      repositories.TxManagerInterface
	technicianRepo repositories.TechnicianRepositoryInterface
	deviceRepo     repositories.DeviceRepositoryInterface
	auditRepo      repositories.AuditRepositoryInterface
	historyRepo    repositories.DeviceHistoryRepositoryInterface
	userRepo       repositories.UserRepositoryInterface
	dispatcher     NotificationDispatcherInterface
	logger         *zap.Logger
	now            func() time.Time
}

func NewTechnicianService(
	txManager repositories.TxManagerInterface,
	technicianRepo repositories.TechnicianRepositoryInterface,
	deviceRepo repositories.DeviceRepositoryInterface,
	auditRepo repositories.AuditRepositoryInterface,
	historyRepo repositories.DeviceHistoryRepositoryInterface,
	userRepo repositories.UserRepositoryInterface,
	dispatcher NotificationDispatcherInterface,
	logger *zap.Logger,
) *TechnicianService {
	return &TechnicianService{
		txManager:      txManager,
		technicianRepo: technicianRepo,
		deviceRepo:     deviceRepo,
		auditRepo:      auditRepo,
		historyRepo:    historyRepo,
		userRepo:       userRepo,
		dispatcher:     dispatcher,
		logger:         logger,
		now:            time.Now,
	}
}

// WithClock подменяет источник времени. Нужен тестам.
func (s *TechnicianService) WithClock(now func() time.Time) *TechnicianService {
	s.now = now
	return s
}

func (s *TechnicianService) checkPermission(ctx context.Context, permission string) (*entities.User, error) {
	userID, err := utils.GetUserIDFromCtx(ctx)
	if err != nil {
		return nil, err
	}
	perms, err := utils.GetPermissionsMapFromCtx(ctx)
	if err != nil {
		return nil, err
	}
	roleName, err := utils.GetRoleNameFromCtx(ctx)
	if err != nil {
		return nil, err
	}

	if !authz.CanDo(permission, authz.Context{
		ActorUserID: userID,
		RoleName:    roleName,
		Permissions: perms,
	}) {
		return nil, apperrors.ErrForbidden
	}

	return s.userRepo.FindByID(ctx, userID)
}

func (s *TechnicianService) GetTechnicians(ctx context.Context, filter types.Filter, includeDeleted bool) (*dto.TechnicianListResponseDTO, error) {
	if _, err := s.checkPermission(ctx, authz.TechniciansView); err != nil {
		return nil, err
	}

	list, total, err := s.technicianRepo.GetTechnicians(ctx, filter, includeDeleted)
	if err != nil {
		s.logger.Error("TechnicianService: ошибка получения списка техников", zap.Error(err))
		return nil, err
	}

	items := make([]dto.TechnicianResponseDTO, 0, len(list))
	for _, item := range list {
		items = append(items, toTechnicianDTO(&item.Technician, item.AssignedDevices))
	}

	return &dto.TechnicianListResponseDTO{List: items, TotalCount: total}, nil
}

func (s *TechnicianService) FindTechnician(ctx context.Context, id uint64) (*dto.TechnicianResponseDTO, error) {
	if _, err := s.checkPermission(ctx, authz.TechniciansView); err != nil {
		return nil, err
	}

	tech, err := s.technicianRepo.FindTechnician(ctx, id)
	if err != nil {
		return nil, err
	}

	devices, err := s.deviceRepo.FindByTechnician(ctx, id)
	if err != nil {
		return nil, err
	}

	result := toTechnicianDTO(tech, len(devices))
	return &result, nil
}

func (s *TechnicianService) CreateTechnician(ctx context.Context, payload dto.CreateTechnicianDTO) (uint64, error) {
	if _, err := s.checkPermission(ctx, authz.TechniciansCreate); err != nil {
		return 0, err
	}

	if payload.UserID != nil {
		if _, err := s.userRepo.FindByID(ctx, *payload.UserID); err != nil {
			return 0, apperrors.NewInvalidInputError("пользователь с id=%d не найден", *payload.UserID)
		}
		// Учётная запись привязывается максимум к одному активному технику
		if linked, err := s.technicianRepo.FindByUserID(ctx, *payload.UserID); err == nil {
			return 0, apperrors.NewInvalidInputError("пользователь уже привязан к технику %s", linked.FullName)
		}
	}

	tech := &entities.Technician{
		FullName:  payload.FullName,
		Phone:     payload.Phone,
		Expertise: payload.Expertise,
		UserID:    payload.UserID,
	}

	id, err := s.technicianRepo.CreateTechnician(ctx, tech)
	if err != nil {
		s.logger.Error("TechnicianService: ошибка создания техника", zap.Error(err))
		return 0, err
	}
	return id, nil
}

func (s *TechnicianService) UpdateTechnician(ctx context.Context, id uint64, payload dto.UpdateTechnicianDTO) error {
	if _, err := s.checkPermission(ctx, authz.TechniciansUpdate); err != nil {
		return err
	}

	tech, err := s.technicianRepo.FindTechnician(ctx, id)
	if err != nil {
		return err
	}
	if tech.IsDeleted {
		return apperrors.NewInvalidInputError("техник удалён, сначала восстановите его")
	}

	if payload.FullName.Valid {
		tech.FullName = payload.FullName.String
	}
	if payload.Phone.Valid {
		tech.Phone = payload.Phone.String
	}
	if payload.Expertise.Valid {
		tech.Expertise = payload.Expertise.String
	}

	return s.technicianRepo.UpdateTechnician(ctx, tech)
}

// DeleteTechnician — мягкое удаление: техник помечается удалённым,
// все его устройства снимаются с назначения и переходят в Inactive,
// связь с учётной записью разрывается.
func (s *TechnicianService) DeleteTechnician(ctx context.Context, id uint64) (*dto.TechnicianDeleteResultDTO, error) {
	actor, err := s.checkPermission(ctx, authz.TechniciansDelete)
	if err != nil {
		return nil, err
	}

	txID := uuid.New()
	var unassigned []uint64
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		tech, err := s.technicianRepo.FindTechnicianInTx(ctx, tx, id)
		if err != nil {
			return err
		}
		if tech.IsDeleted {
			return apperrors.NewInvalidInputError("техник уже удалён")
		}

		ids, err := s.deviceRepo.UnassignAllByTechnicianInTx(ctx, tx, id)
		if err != nil {
			return err
		}
		unassigned = ids

		for _, deviceID := range ids {
			if err := s.auditRepo.CreateInTx(ctx, tx, &entities.AuditLog{
				DeviceID:    deviceID,
				Action:      constants.AuditTechnicianChanged,
				OldValue:    &tech.FullName,
				PerformedBy: actor.FullName,
				PerformedAt: s.now(),
			}); err != nil {
				return err
			}
			desc := fmt.Sprintf("Technician %s removed (deleted)", tech.FullName)
			if err := s.historyRepo.CreateInTx(ctx, tx, &entities.DeviceHistory{
				DeviceID:          deviceID,
				Action:            constants.HistoryUnassigned,
				Description:       desc,
				PerformedByUserID: &actor.ID,
				OldValue:          &tech.FullName,
				TxID:              &txID,
			}); err != nil {
				return err
			}
		}

		return s.technicianRepo.SoftDeleteInTx(ctx, tx, id, s.now())
	})
	if err != nil {
		s.logger.Error("TechnicianService: ошибка удаления техника", zap.Uint64("technicianID", id), zap.Error(err))
		return nil, err
	}

	return &dto.TechnicianDeleteResultDTO{
		TechnicianID:      id,
		UnassignedDevices: unassigned,
	}, nil
}

// RestoreTechnician возвращает техника и опционально заново назначает
// ему выбранные устройства. Устройства, уже занятые другим техником,
// пропускаются.
func (s *TechnicianService) RestoreTechnician(ctx context.Context, id uint64, payload dto.RestoreTechnicianDTO) ([]uint64, error) {
	actor, err := s.checkPermission(ctx, authz.TechniciansRestore)
	if err != nil {
		return nil, err
	}

	txID := uuid.New()
	var assigned []uint64
	var techName string
	var techUserID *uint64
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		tech, err := s.technicianRepo.FindTechnicianInTx(ctx, tx, id)
		if err != nil {
			return err
		}
		if !tech.IsDeleted {
			return apperrors.NewInvalidInputError("техник не удалён, восстановление не требуется")
		}
		techName = tech.FullName
		techUserID = tech.UserID

		// За время удаления учётная запись могла быть привязана к другому технику
		if tech.UserID != nil {
			if linked, errLinked := s.technicianRepo.FindByUserID(ctx, *tech.UserID); errLinked == nil {
				return apperrors.NewInvalidInputError("учётная запись уже привязана к технику %s", linked.FullName)
			}
		}

		if err := s.technicianRepo.RestoreInTx(ctx, tx, id); err != nil {
			return err
		}

		workStatus := constants.WorkStatusAssigned
		ids, err := s.deviceRepo.AssignManyInTx(ctx, tx, id, payload.DeviceIDs, constants.DeviceStatusActive, workStatus)
		if err != nil {
			return err
		}
		assigned = ids

		for _, deviceID := range ids {
			if err := s.auditRepo.CreateInTx(ctx, tx, &entities.AuditLog{
				DeviceID:    deviceID,
				Action:      constants.AuditTechnicianChanged,
				NewValue:    &techName,
				PerformedBy: actor.FullName,
				PerformedAt: s.now(),
			}); err != nil {
				return err
			}
			desc := fmt.Sprintf("Assigned to %s after restore", techName)
			if err := s.historyRepo.CreateInTx(ctx, tx, &entities.DeviceHistory{
				DeviceID:          deviceID,
				Action:            constants.HistoryRestored,
				Description:       desc,
				PerformedByUserID: &actor.ID,
				NewValue:          &techName,
				TxID:              &txID,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Error("TechnicianService: ошибка восстановления техника", zap.Uint64("technicianID", id), zap.Error(err))
		return nil, err
	}

	if len(assigned) > 0 && techUserID != nil {
		if user, errUser := s.userRepo.FindByID(ctx, *techUserID); errUser == nil {
			s.dispatcher.Dispatch(ctx, Notice{
				Recipients: []entities.User{*user},
				Title:      "Devices Assigned",
				Message:    fmt.Sprintf("%d device(s) have been assigned to you after restore", len(assigned)),
				Type:       constants.NotificationInfo,
			})
		}
	}

	return assigned, nil
}

func toTechnicianDTO(t *entities.Technician, assignedDevices int) dto.TechnicianResponseDTO {
	return dto.TechnicianResponseDTO{
		ID:              t.ID,
		FullName:        t.FullName,
		Phone:           t.Phone,
		Expertise:       t.Expertise,
		UserID:          t.UserID,
		IsDeleted:       t.IsDeleted,
		DeletedAt:       formatTimePtr(t.DeletedAt),
		AssignedDevices: assignedDevices,
		CreatedAt:       t.CreatedAt.Format(time.RFC3339),
	}
}
