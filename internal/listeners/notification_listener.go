package listeners

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"device-manager/internal/entities"
	"device-manager/internal/events"
	"device-manager/internal/repositories"
	"device-manager/internal/services"
	"device-manager/pkg/constants"
	"device-manager/pkg/eventbus"
	"device-manager/pkg/utils"
)

// NotificationListener переводит события SLA-монитора в уведомления:
// назначенному технику и всем менеджерам и администраторам.
type NotificationListener struct {
	dispatcher     services.NotificationDispatcherInterface
	technicianRepo repositories.TechnicianRepositoryInterface
	userRepo       repositories.UserRepositoryInterface
	logger         *zap.Logger
}

func NewNotificationListener(
	dispatcher services.NotificationDispatcherInterface,
	technicianRepo repositories.TechnicianRepositoryInterface,
	userRepo repositories.UserRepositoryInterface,
	logger *zap.Logger,
) *NotificationListener {
	return &NotificationListener{
		dispatcher:     dispatcher,
		technicianRepo: technicianRepo,
		userRepo:       userRepo,
		logger:         logger,
	}
}

func (l *NotificationListener) Register(bus *eventbus.Bus) {
	bus.Subscribe("device.overdue", l.handleDeviceOverdue)
	bus.Subscribe("device.at_risk", l.handleDeviceAtRisk)
	l.logger.Info("NotificationListener подписан на события 'device.overdue' и 'device.at_risk'")
}

func (l *NotificationListener) handleDeviceOverdue(ctx context.Context, event eventbus.Event) error {
	e, ok := event.(events.DeviceOverdueEvent)
	if !ok {
		return nil
	}

	recipients, err := l.recipientsFor(ctx, &e.Device)
	if err != nil {
		return err
	}

	l.dispatcher.Dispatch(ctx, services.Notice{
		Recipients: recipients,
		DeviceID:   utils.Ptr(e.Device.ID),
		Title:      "Device Overdue",
		Message:    fmt.Sprintf("Device %s (%s) has missed its due date", e.Device.Name, e.Device.SerialNumber),
		Type:       constants.NotificationDanger,
	})
	return nil
}

func (l *NotificationListener) handleDeviceAtRisk(ctx context.Context, event eventbus.Event) error {
	e, ok := event.(events.DeviceAtRiskEvent)
	if !ok {
		return nil
	}

	recipients, err := l.recipientsFor(ctx, &e.Device)
	if err != nil {
		return err
	}

	l.dispatcher.Dispatch(ctx, services.Notice{
		Recipients: recipients,
		DeviceID:   utils.Ptr(e.Device.ID),
		Title:      "Device Due Soon",
		Message:    fmt.Sprintf("Device %s (%s) is due within 24 hours", e.Device.Name, e.Device.SerialNumber),
		Type:       constants.NotificationWarning,
	})
	return nil
}

// recipientsFor собирает получателей: менеджеры и администраторы плюс
// назначенный техник, если у него есть учётная запись. Дедупликацию
// выполняет диспетчер.
func (l *NotificationListener) recipientsFor(ctx context.Context, device *entities.Device) ([]entities.User, error) {
	recipients, err := l.dispatcher.ManagersAndAdmins(ctx)
	if err != nil {
		l.logger.Error("не удалось получить менеджеров и администраторов", zap.Error(err))
		return nil, err
	}

	if device.TechnicianID != nil {
		tech, errTech := l.technicianRepo.FindTechnician(ctx, *device.TechnicianID)
		if errTech == nil && tech.UserID != nil {
			if user, errUser := l.userRepo.FindByID(ctx, *tech.UserID); errUser == nil {
				recipients = append(recipients, *user)
			}
		}
	}

	return recipients, nil
}
