package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"device-manager/internal/authz"
	"device-manager/internal/dto"
	"device-manager/internal/entities"
	"device-manager/internal/repositories"
	"device-manager/internal/rules"
	"device-manager/pkg/constants"
	apperrors "device-manager/pkg/errors"
	"device-manager/pkg/types"
	"device-manager/pkg/utils"
)

type DeviceServiceInterface interface {
	GetDevices(ctx context.Context, filter types.Filter) (*dto.DeviceListResponseDTO, error)
	FindDevice(ctx context.Context, id uint64) (*dto.DeviceResponseDTO, error)
	CreateDevice(ctx context.Context, payload dto.CreateDeviceDTO) (uint64, error)
	UpdateDevice(ctx context.Context, id uint64, payload dto.UpdateDeviceDTO) error
	AssignDevice(ctx context.Context, id uint64, payload dto.AssignDeviceDTO) error
	UpdateDueDate(ctx context.Context, id uint64, payload dto.UpdateDueDateDTO) error
	UpdateWorkStatus(ctx context.Context, id uint64, payload dto.UpdateWorkStatusDTO) error
	ApproveDevice(ctx context.Context, id uint64) error
	DeleteDevice(ctx context.Context, id uint64) error
	GetDeviceHistory(ctx context.Context, id uint64) ([]dto.DeviceHistoryResponseDTO, error)
	GetDeviceTypes(ctx context.Context) ([]entities.DeviceType, error)
	GetMyTasks(ctx context.Context) (*dto.DeviceListResponseDTO, error)
}

type DeviceService struct {
	txManager       repositories.TxManagerInterface
	deviceRepo      repositories.DeviceRepositoryInterface
	deviceTypeRepo  repositories.DeviceTypeRepositoryInterface
	technicianRepo  repositories.TechnicianRepositoryInterface
	diagnosisRepo   repositories.DiagnosisRepositoryInterface
	auditRepo       repositories.AuditRepositoryInterface
	historyRepo     repositories.DeviceHistoryRepositoryInterface
	userRepo        repositories.UserRepositoryInterface
	dispatcher      NotificationDispatcherInterface
	overrideService OverrideServiceInterface
	logger          *zap.Logger
	now             func() time.Time
}

func NewDeviceService(
	txManager repositories.TxManagerInterface,
	deviceRepo repositories.DeviceRepositoryInterface,
	deviceTypeRepo repositories.DeviceTypeRepositoryInterface,
	technicianRepo repositories.TechnicianRepositoryInterface,
	diagnosisRepo repositories.DiagnosisRepositoryInterface,
	auditRepo repositories.AuditRepositoryInterface,
	historyRepo repositories.DeviceHistoryRepositoryInterface,
	userRepo repositories.UserRepositoryInterface,
	dispatcher NotificationDispatcherInterface,
	overrideService OverrideServiceInterface,
	logger *zap.Logger,
) *DeviceService {
	return &DeviceService{
		txManager:       txManager,
		deviceRepo:      deviceRepo,
		deviceTypeRepo:  deviceTypeRepo,
		technicianRepo:  technicianRepo,
		diagnosisRepo:   diagnosisRepo,
		auditRepo:       auditRepo,
		historyRepo:     historyRepo,
		userRepo:        userRepo,
		dispatcher:      dispatcher,
		overrideService: overrideService,
		logger:          logger,
		now:             time.Now,
	}
}

// WithClock подменяет источник времени. Нужен тестам.
func (s *DeviceService) WithClock(now func() time.Time) *DeviceService {
	s.now = now
	return s
}

// authzContext собирает контекст авторизации текущего пользователя.
// Возвращает также сущность актора для подписи записей аудита.
func (s *DeviceService) authzContext(ctx context.Context, target *entities.Device) (authz.Context, *entities.User, error) {
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

func (s *DeviceService) audit(ctx context.Context, tx pgx.Tx, deviceID uint64, action string, oldValue, newValue *string, actorName string) error {
	return s.auditRepo.CreateInTx(ctx, tx, &entities.AuditLog{
		DeviceID:    deviceID,
		Action:      action,
		OldValue:    oldValue,
		NewValue:    newValue,
		PerformedBy: actorName,
		PerformedAt: s.now(),
	})
}

func (s *DeviceService) history(ctx context.Context, tx pgx.Tx, deviceID uint64, action, description string, actorID uint64, oldValue, newValue *string, txID uuid.UUID) error {
	return s.historyRepo.CreateInTx(ctx, tx, &entities.DeviceHistory{
		DeviceID:          deviceID,
		Action:            action,
		Description:       description,
		PerformedByUserID: &actorID,
		OldValue:          oldValue,
		NewValue:          newValue,
		TxID:              &txID,
	})
}

func (s *DeviceService) GetDevices(ctx context.Context, filter types.Filter) (*dto.DeviceListResponseDTO, error) {
	authzCtx, _, err := s.authzContext(ctx, nil)
	if err != nil {
		return nil, err
	}
	if !authz.CanDo(authz.DevicesView, authzCtx) {
		return nil, apperrors.ErrForbidden
	}

	devices, total, err := s.deviceRepo.GetDevices(ctx, filter)
	if err != nil {
		s.logger.Error("DeviceService: ошибка получения списка устройств", zap.Error(err))
		return nil, err
	}

	typeNames, err := s.deviceTypeNames(ctx)
	if err != nil {
		return nil, err
	}

	techIDs := make([]uint64, 0, len(devices))
	for _, d := range devices {
		if d.TechnicianID != nil {
			techIDs = append(techIDs, *d.TechnicianID)
		}
	}
	techNames, err := s.technicianRepo.FindNamesByIDs(ctx, techIDs)
	if err != nil {
		return nil, err
	}

	now := s.now()
	list := make([]dto.DeviceResponseDTO, 0, len(devices))
	for _, d := range devices {
		list = append(list, s.toDeviceDTO(&d, typeNames, techNames, nil, now))
	}

	return &dto.DeviceListResponseDTO{List: list, TotalCount: total}, nil
}

func (s *DeviceService) FindDevice(ctx context.Context, id uint64) (*dto.DeviceResponseDTO, error) {
	authzCtx, _, err := s.authzContext(ctx, nil)
	if err != nil {
		return nil, err
	}
	if !authz.CanDo(authz.DevicesView, authzCtx) {
		return nil, apperrors.ErrForbidden
	}

	device, err := s.deviceRepo.FindDevice(ctx, id)
	if err != nil {
		return nil, err
	}

	typeNames, err := s.deviceTypeNames(ctx)
	if err != nil {
		return nil, err
	}
	techNames := map[uint64]string{}
	if device.TechnicianID != nil {
		techNames, err = s.technicianRepo.FindNamesByIDs(ctx, []uint64{*device.TechnicianID})
		if err != nil {
			return nil, err
		}
	}

	diagnoses, err := s.diagnosisRepo.FindByDeviceID(ctx, id)
	if err != nil {
		return nil, err
	}

	result := s.toDeviceDTO(device, typeNames, techNames, diagnoses, s.now())
	return &result, nil
}

func (s *DeviceService) CreateDevice(ctx context.Context, payload dto.CreateDeviceDTO) (uint64, error) {
	authzCtx, actor, err := s.authzContext(ctx, nil)
	if err != nil {
		return 0, err
	}
	if !authz.CanDo(authz.DevicesCreate, authzCtx) {
		return 0, apperrors.ErrForbidden
	}

	if _, err := s.deviceTypeRepo.FindDeviceType(ctx, payload.DeviceTypeID); err != nil {
		return 0, apperrors.NewInvalidInputError("тип устройства с id=%d не найден", payload.DeviceTypeID)
	}
	if existing, err := s.deviceRepo.FindBySerialNumber(ctx, payload.SerialNumber); err == nil && existing != nil {
		return 0, apperrors.NewInvalidInputError("устройство с серийным номером %s уже существует", payload.SerialNumber)
	}

	var assignedTech *entities.Technician
	if payload.TechnicianID != nil {
		tech, err := s.technicianRepo.FindTechnician(ctx, *payload.TechnicianID)
		if err != nil {
			return 0, apperrors.NewInvalidInputError("техник с id=%d не найден", *payload.TechnicianID)
		}
		if tech.IsDeleted {
			return 0, apperrors.NewInvalidInputError("техник %s удалён, назначение невозможно", tech.FullName)
		}
		assignedTech = tech
	}

	device := &entities.Device{
		Name:         payload.Name,
		SerialNumber: payload.SerialNumber,
		Priority:     payload.Priority,
		TechnicianID: payload.TechnicianID,
		DeviceTypeID: &payload.DeviceTypeID,
		Status:       rules.DeriveStatus(payload.TechnicianID),
		WorkStatus:   rules.AssignmentWorkStatus(payload.TechnicianID),
	}
	if payload.DueDate.Valid {
		due := payload.DueDate.Time
		device.DueDate = &due
	}

	txID := uuid.New()
	var newID uint64
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		id, err := s.deviceRepo.CreateInTx(ctx, tx, device)
		if err != nil {
			return err
		}
		newID = id

		if err := s.audit(ctx, tx, id, constants.AuditDeviceCreated, nil, &device.Name, actor.FullName); err != nil {
			return err
		}
		desc := fmt.Sprintf("Device %q created", device.Name)
		if err := s.history(ctx, tx, id, constants.HistoryCreated, desc, actor.ID, nil, &device.Name, txID); err != nil {
			return err
		}

		if assignedTech != nil {
			desc := fmt.Sprintf("Assigned to %s", assignedTech.FullName)
			if err := s.history(ctx, tx, id, constants.HistoryAssigned, desc, actor.ID, nil, &assignedTech.FullName, txID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Error("DeviceService: ошибка создания устройства", zap.Error(err))
		return 0, err
	}

	if assignedTech != nil && assignedTech.UserID != nil {
		s.notifyAssignment(ctx, newID, device.Name, *assignedTech.UserID)
	}

	return newID, nil
}

func (s *DeviceService) UpdateDevice(ctx context.Context, id uint64, payload dto.UpdateDeviceDTO) error {
	device, err := s.deviceRepo.FindDevice(ctx, id)
	if err != nil {
		return err
	}

	authzCtx, actor, err := s.authzContext(ctx, device)
	if err != nil {
		return err
	}
	if !authz.CanDo(authz.DevicesUpdate, authzCtx) {
		return apperrors.ErrForbidden
	}

	if payload.DeviceTypeID != nil {
		if _, err := s.deviceTypeRepo.FindDeviceType(ctx, *payload.DeviceTypeID); err != nil {
			return apperrors.NewInvalidInputError("тип устройства с id=%d не найден", *payload.DeviceTypeID)
		}
	}
	if payload.Priority != nil && !rules.ValidPriority(*payload.Priority) {
		return apperrors.NewInvalidInputError("недопустимый приоритет: %s", *payload.Priority)
	}

	txID := uuid.New()
	return s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		current, err := s.deviceRepo.FindDeviceInTx(ctx, tx, id)
		if err != nil {
			return err
		}

		if payload.Name != nil {
			current.Name = *payload.Name
		}
		if payload.SerialNumber != nil {
			current.SerialNumber = *payload.SerialNumber
		}
		if payload.DeviceTypeID != nil {
			current.DeviceTypeID = payload.DeviceTypeID
		}

		if payload.Priority != nil && *payload.Priority != current.Priority {
			oldPriority := current.Priority
			current.Priority = *payload.Priority

			if err := s.audit(ctx, tx, id, constants.AuditPriorityChanged, &oldPriority, payload.Priority, actor.FullName); err != nil {
				return err
			}
			desc := fmt.Sprintf("Priority changed from %s to %s", oldPriority, *payload.Priority)
			if err := s.history(ctx, tx, id, constants.HistoryPriorityChanged, desc, actor.ID, &oldPriority, payload.Priority, txID); err != nil {
				return err
			}
		}

		if err := s.deviceRepo.UpdateDetailsInTx(ctx, tx, current); err != nil {
			return err
		}

		if err := s.audit(ctx, tx, id, constants.AuditDeviceUpdated, nil, &current.Name, actor.FullName); err != nil {
			return err
		}
		desc := fmt.Sprintf("Device %q updated", current.Name)
		return s.history(ctx, tx, id, constants.HistoryUpdated, desc, actor.ID, nil, nil, txID)
	})
}

// AssignDevice меняет техника устройства. Переназначение сбрасывает
// одобрение менеджера и запускает рабочий цикл заново.
func (s *DeviceService) AssignDevice(ctx context.Context, id uint64, payload dto.AssignDeviceDTO) error {
	device, err := s.deviceRepo.FindDevice(ctx, id)
	if err != nil {
		return err
	}

	authzCtx, actor, err := s.authzContext(ctx, device)
	if err != nil {
		return err
	}
	if !authz.CanDo(authz.DevicesAssign, authzCtx) {
		return apperrors.ErrForbidden
	}

	var newTech *entities.Technician
	if payload.TechnicianID != nil {
		tech, err := s.technicianRepo.FindTechnician(ctx, *payload.TechnicianID)
		if err != nil {
			return apperrors.NewInvalidInputError("техник с id=%d не найден", *payload.TechnicianID)
		}
		if tech.IsDeleted {
			return apperrors.NewInvalidInputError("техник %s удалён, назначение невозможно", tech.FullName)
		}
		newTech = tech
	}

	txID := uuid.New()
	var deviceName string
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		current, err := s.deviceRepo.FindDeviceInTx(ctx, tx, id)
		if err != nil {
			return err
		}
		deviceName = current.Name

		sameAssignment := (current.TechnicianID == nil && payload.TechnicianID == nil) ||
			(current.TechnicianID != nil && payload.TechnicianID != nil && *current.TechnicianID == *payload.TechnicianID)
		if sameAssignment {
			return nil
		}

		newStatus := rules.DeriveStatus(payload.TechnicianID)
		newWorkStatus := rules.AssignmentWorkStatus(payload.TechnicianID)
		if err := s.deviceRepo.SetAssignmentInTx(ctx, tx, id, payload.TechnicianID, newStatus, newWorkStatus); err != nil {
			return err
		}

		var oldName *string
		if current.TechnicianID != nil {
			names, err := s.technicianRepo.FindNamesByIDs(ctx, []uint64{*current.TechnicianID})
			if err != nil {
				return err
			}
			if name, ok := names[*current.TechnicianID]; ok {
				oldName = &name
			}
		}

		if newTech != nil {
			if err := s.audit(ctx, tx, id, constants.AuditTechnicianChanged, oldName, &newTech.FullName, actor.FullName); err != nil {
				return err
			}
			desc := fmt.Sprintf("Assigned to %s", newTech.FullName)
			if err := s.history(ctx, tx, id, constants.HistoryAssigned, desc, actor.ID, oldName, &newTech.FullName, txID); err != nil {
				return err
			}
		} else {
			if err := s.audit(ctx, tx, id, constants.AuditTechnicianChanged, oldName, nil, actor.FullName); err != nil {
				return err
			}
			if err := s.history(ctx, tx, id, constants.HistoryUnassigned, "Technician unassigned", actor.ID, oldName, nil, txID); err != nil {
				return err
			}
		}

		oldStatus, newSt := current.Status, newStatus
		if oldStatus != newSt {
			if err := s.audit(ctx, tx, id, constants.AuditStatusChanged, &oldStatus, &newSt, actor.FullName); err != nil {
				return err
			}
			desc := fmt.Sprintf("Status changed from %s to %s", oldStatus, newSt)
			if err := s.history(ctx, tx, id, constants.HistoryStatusChanged, desc, actor.ID, &oldStatus, &newSt, txID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Error("DeviceService: ошибка смены техника", zap.Uint64("deviceID", id), zap.Error(err))
		return err
	}

	if newTech != nil && newTech.UserID != nil {
		s.notifyAssignment(ctx, id, deviceName, *newTech.UserID)
	}

	return nil
}

func (s *DeviceService) UpdateDueDate(ctx context.Context, id uint64, payload dto.UpdateDueDateDTO) error {
	device, err := s.deviceRepo.FindDevice(ctx, id)
	if err != nil {
		return err
	}

	authzCtx, actor, err := s.authzContext(ctx, device)
	if err != nil {
		return err
	}
	if !authz.CanDo(authz.DevicesUpdate, authzCtx) {
		return apperrors.ErrForbidden
	}

	var newDue *time.Time
	if payload.DueDate.Valid {
		due := payload.DueDate.Time
		newDue = &due
	}

	txID := uuid.New()
	return s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		current, err := s.deviceRepo.FindDeviceInTx(ctx, tx, id)
		if err != nil {
			return err
		}

		if err := s.deviceRepo.SetDueDateInTx(ctx, tx, id, newDue); err != nil {
			return err
		}

		oldValue := formatTimePtr(current.DueDate)
		newValue := formatTimePtr(newDue)
		if err := s.audit(ctx, tx, id, constants.AuditDueDateChanged, oldValue, newValue, actor.FullName); err != nil {
			return err
		}
		desc := "Due date cleared"
		if newDue != nil {
			desc = fmt.Sprintf("Due date set to %s", newDue.Format("2006-01-02 15:04"))
		}
		return s.history(ctx, tx, id, constants.HistoryDueDateChanged, desc, actor.ID, oldValue, newValue, txID)
	})
}

// UpdateWorkStatus — действие техника (или администратора в режиме
// override). Переход в Done фиксирует момент завершения и уведомляет
// менеджеров и администраторов.
func (s *DeviceService) UpdateWorkStatus(ctx context.Context, id uint64, payload dto.UpdateWorkStatusDTO) error {
	device, err := s.deviceRepo.FindDevice(ctx, id)
	if err != nil {
		return err
	}

	authzCtx, actor, err := s.authzContext(ctx, device)
	if err != nil {
		return err
	}
	if !authz.CanDo(authz.DevicesUpdateWorkStatus, authzCtx) {
		return apperrors.ErrForbidden
	}

	if device.TechnicianID == nil {
		return apperrors.NewInvalidInputError("у устройства нет назначенного техника")
	}
	if !rules.ValidWorkStatus(payload.WorkStatus) {
		return apperrors.NewInvalidInputError("недопустимый рабочий статус: %s", payload.WorkStatus)
	}

	txID := uuid.New()
	var completed bool
	var deviceName string
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		current, err := s.deviceRepo.FindDeviceInTx(ctx, tx, id)
		if err != nil {
			return err
		}
		deviceName = current.Name

		oldStatus := utils.PtrValue(current.WorkStatus, "")
		if oldStatus == payload.WorkStatus {
			return nil
		}
		if oldStatus == constants.WorkStatusDone && current.IsApprovedByManager {
			return apperrors.NewInvalidInputError("устройство уже принято менеджером, статус изменить нельзя")
		}

		var completedAt *time.Time
		if payload.WorkStatus == constants.WorkStatusDone {
			now := s.now()
			completedAt = &now
			completed = true
		}

		if err := s.deviceRepo.SetWorkStatusInTx(ctx, tx, id, payload.WorkStatus, completedAt); err != nil {
			return err
		}

		if err := s.audit(ctx, tx, id, constants.AuditWorkStatusUpdated, &oldStatus, &payload.WorkStatus, actor.FullName); err != nil {
			return err
		}
		desc := fmt.Sprintf("Work status changed from %s to %s", oldStatus, payload.WorkStatus)
		return s.history(ctx, tx, id, constants.HistoryStatusChanged, desc, actor.ID, &oldStatus, &payload.WorkStatus, txID)
	})
	if err != nil {
		s.logger.Error("DeviceService: ошибка смены рабочего статуса", zap.Uint64("deviceID", id), zap.Error(err))
		return err
	}

	if completed {
		recipients, errRec := s.dispatcher.ManagersAndAdmins(ctx)
		if errRec != nil {
			s.logger.Error("DeviceService: не удалось получить список менеджеров", zap.Error(errRec))
			return nil
		}
		s.dispatcher.Dispatch(ctx, Notice{
			Recipients: recipients,
			DeviceID:   &id,
			Title:      "Device Completed",
			Message:    fmt.Sprintf("Device %q is marked as Done and waits for approval", deviceName),
			Type:       constants.NotificationSuccess,
		})
	}

	return nil
}

// ApproveDevice — приёмка менеджером завершённой работы.
func (s *DeviceService) ApproveDevice(ctx context.Context, id uint64) error {
	device, err := s.deviceRepo.FindDevice(ctx, id)
	if err != nil {
		return err
	}

	authzCtx, actor, err := s.authzContext(ctx, device)
	if err != nil {
		return err
	}
	if !authz.CanDo(authz.DevicesApprove, authzCtx) {
		return apperrors.ErrForbidden
	}

	txID := uuid.New()
	var techUserID *uint64
	var deviceName string
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		current, err := s.deviceRepo.FindDeviceInTx(ctx, tx, id)
		if err != nil {
			return err
		}
		deviceName = current.Name

		if current.WorkStatus == nil || *current.WorkStatus != constants.WorkStatusDone {
			return apperrors.NewInvalidInputError("принять можно только устройство в статусе Done")
		}
		if current.IsApprovedByManager {
			return apperrors.NewInvalidInputError("устройство уже принято менеджером")
		}

		if current.TechnicianID != nil {
			if tech, errTech := s.technicianRepo.FindTechnician(ctx, *current.TechnicianID); errTech == nil {
				techUserID = tech.UserID
			}
		}

		if err := s.deviceRepo.SetApprovalInTx(ctx, tx, id, actor.FullName, s.now()); err != nil {
			return err
		}

		if err := s.audit(ctx, tx, id, constants.AuditManagerApproval, nil, &actor.FullName, actor.FullName); err != nil {
			return err
		}
		desc := fmt.Sprintf("Approved by %s", actor.FullName)
		return s.history(ctx, tx, id, constants.HistoryApproved, desc, actor.ID, nil, &actor.FullName, txID)
	})
	if err != nil {
		s.logger.Error("DeviceService: ошибка приёмки устройства", zap.Uint64("deviceID", id), zap.Error(err))
		return err
	}

	if techUserID != nil {
		user, errUser := s.userRepo.FindByID(ctx, *techUserID)
		if errUser != nil {
			s.logger.Warn("DeviceService: пользователь техника не найден для уведомления",
				zap.Uint64("userID", *techUserID))
			return nil
		}
		s.dispatcher.Dispatch(ctx, Notice{
			Recipients: []entities.User{*user},
			DeviceID:   &id,
			Title:      "Device Approved",
			Message:    fmt.Sprintf("Your work on device %q has been approved", deviceName),
			Type:       constants.NotificationSuccess,
		})
	}

	return nil
}

func (s *DeviceService) DeleteDevice(ctx context.Context, id uint64) error {
	device, err := s.deviceRepo.FindDevice(ctx, id)
	if err != nil {
		return err
	}

	authzCtx, actor, err := s.authzContext(ctx, device)
	if err != nil {
		return err
	}
	if !authz.CanDo(authz.DevicesDelete, authzCtx) {
		return apperrors.ErrForbidden
	}

	return s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		// Запись аудита переживает устройство: история удаляется каскадом,
		// аудит хранится без внешнего ключа
		if err := s.audit(ctx, tx, id, constants.AuditDeviceDeleted, &device.Name, nil, actor.FullName); err != nil {
			return err
		}
		return s.deviceRepo.DeleteInTx(ctx, tx, id)
	})
}

func (s *DeviceService) GetDeviceHistory(ctx context.Context, id uint64) ([]dto.DeviceHistoryResponseDTO, error) {
	authzCtx, _, err := s.authzContext(ctx, nil)
	if err != nil {
		return nil, err
	}
	if !authz.CanDo(authz.DevicesView, authzCtx) {
		return nil, apperrors.ErrForbidden
	}

	if _, err := s.deviceRepo.FindDevice(ctx, id); err != nil {
		return nil, err
	}

	history, err := s.historyRepo.FindByDeviceID(ctx, id)
	if err != nil {
		return nil, err
	}

	list := make([]dto.DeviceHistoryResponseDTO, 0, len(history))
	for _, h := range history {
		item := dto.DeviceHistoryResponseDTO{
			ID:              h.ID,
			Action:          h.Action,
			Description:     h.Description,
			PerformedByName: h.PerformedByName,
			OldValue:        h.OldValue,
			NewValue:        h.NewValue,
			CreatedAt:       h.CreatedAt.Format(time.RFC3339),
		}
		if h.TxID != nil {
			txStr := h.TxID.String()
			item.TxID = &txStr
		}
		list = append(list, item)
	}
	return list, nil
}

func (s *DeviceService) GetDeviceTypes(ctx context.Context) ([]entities.DeviceType, error) {
	authzCtx, _, err := s.authzContext(ctx, nil)
	if err != nil {
		return nil, err
	}
	if !authz.CanDo(authz.DevicesView, authzCtx) {
		return nil, apperrors.ErrForbidden
	}
	return s.deviceTypeRepo.GetDeviceTypes(ctx)
}

// GetMyTasks возвращает устройства, назначенные технику текущего
// пользователя. Пользователю без профиля техника отдаём пустой список.
func (s *DeviceService) GetMyTasks(ctx context.Context) (*dto.DeviceListResponseDTO, error) {
	authzCtx, _, err := s.authzContext(ctx, nil)
	if err != nil {
		return nil, err
	}
	if !authz.CanDo(authz.DevicesView, authzCtx) {
		return nil, apperrors.ErrForbidden
	}

	if authzCtx.ActorTechnicianID == nil {
		return &dto.DeviceListResponseDTO{List: []dto.DeviceResponseDTO{}}, nil
	}

	devices, err := s.deviceRepo.FindByTechnician(ctx, *authzCtx.ActorTechnicianID)
	if err != nil {
		s.logger.Error("DeviceService: ошибка получения задач техника", zap.Error(err))
		return nil, err
	}

	// Самые важные задачи сверху: по приоритету, внутри — по сроку.
	sort.SliceStable(devices, func(i, j int) bool {
		ri, rj := rules.PriorityRank(devices[i].Priority), rules.PriorityRank(devices[j].Priority)
		if ri != rj {
			return ri < rj
		}
		di, dj := devices[i].DueDate, devices[j].DueDate
		switch {
		case di == nil:
			return false
		case dj == nil:
			return true
		default:
			return di.Before(*dj)
		}
	})

	typeNames, err := s.deviceTypeNames(ctx)
	if err != nil {
		return nil, err
	}
	techNames, err := s.technicianRepo.FindNamesByIDs(ctx, []uint64{*authzCtx.ActorTechnicianID})
	if err != nil {
		return nil, err
	}

	now := s.now()
	list := make([]dto.DeviceResponseDTO, 0, len(devices))
	for _, d := range devices {
		list = append(list, s.toDeviceDTO(&d, typeNames, techNames, nil, now))
	}

	return &dto.DeviceListResponseDTO{List: list, TotalCount: uint64(len(list))}, nil
}

func (s *DeviceService) notifyAssignment(ctx context.Context, deviceID uint64, deviceName string, userID uint64) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrUserNotFound) {
			s.logger.Error("DeviceService: ошибка поиска получателя уведомления", zap.Error(err))
		}
		return
	}
	s.dispatcher.Dispatch(ctx, Notice{
		Recipients: []entities.User{*user},
		DeviceID:   &deviceID,
		Title:      "Device Assigned",
		Message:    fmt.Sprintf("Device %q has been assigned to you", deviceName),
		Type:       constants.NotificationInfo,
	})
}

func (s *DeviceService) deviceTypeNames(ctx context.Context) (map[uint64]string, error) {
	deviceTypes, err := s.deviceTypeRepo.GetDeviceTypes(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[uint64]string, len(deviceTypes))
	for _, dt := range deviceTypes {
		names[dt.ID] = dt.Name
	}
	return names, nil
}

func (s *DeviceService) toDeviceDTO(d *entities.Device, typeNames, techNames map[uint64]string, diagnoses []entities.Diagnosis, now time.Time) dto.DeviceResponseDTO {
	result := dto.DeviceResponseDTO{
		ID:                  d.ID,
		Name:                d.Name,
		SerialNumber:        d.SerialNumber,
		Status:              d.Status,
		WorkStatus:          d.WorkStatus,
		Priority:            d.Priority,
		SLAStatus:           rules.SLAStatus(d.DueDate, d.CompletedAt, now),
		DueDate:             formatTimePtr(d.DueDate),
		CompletedAt:         formatTimePtr(d.CompletedAt),
		IsApprovedByManager: d.IsApprovedByManager,
		ApprovedBy:          d.ApprovedBy,
		ApprovedAt:          formatTimePtr(d.ApprovedAt),
		CreatedAt:           d.CreatedAt.Format(time.RFC3339),
		UpdatedAt:           d.UpdatedAt.Format(time.RFC3339),
	}
	if d.DeviceTypeID != nil {
		if name, ok := typeNames[*d.DeviceTypeID]; ok {
			result.DeviceType = &dto.ShortDeviceTypeDTO{ID: *d.DeviceTypeID, Name: name}
		}
	}
	if d.TechnicianID != nil {
		if name, ok := techNames[*d.TechnicianID]; ok {
			result.Technician = &dto.ShortTechnicianDTO{ID: *d.TechnicianID, FullName: name}
		}
	}
	for _, dg := range diagnoses {
		result.Diagnoses = append(result.Diagnoses, toDiagnosisDTO(&dg))
	}
	return result
}

func toDiagnosisDTO(d *entities.Diagnosis) dto.DiagnosisResponseDTO {
	return dto.DiagnosisResponseDTO{
		ID:             d.ID,
		DeviceID:       d.DeviceID,
		TechnicianName: d.TechnicianName,
		Title:          d.Title,
		Description:    d.Description,
		Recommendation: d.Recommendation,
		CreatedBy:      d.CreatedBy,
		CreatedAt:      d.CreatedAt.Format(time.RFC3339),
		UpdatedAt:      d.UpdatedAt.Format(time.RFC3339),
	}
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	formatted := t.Format(time.RFC3339)
	return &formatted
}
