package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"device-manager/internal/entities"
	"device-manager/internal/repositories"
	"device-manager/pkg/constants"
)

// Notice — одно событие, которое нужно донести до группы получателей.
type Notice struct {
	Recipients []entities.User
	DeviceID   *uint64
	Title      string
	Message    string
	Type       string
}

// DispatchResult разделяет гарантированную часть (записи в БД) и
// негарантированную (письма): сбой почты не валит операцию.
type DispatchResult struct {
	Notified  []uint64
	EmailErrs []error
}

type NotificationDispatcherInterface interface {
	Dispatch(ctx context.Context, notice Notice) DispatchResult
	ManagersAndAdmins(ctx context.Context) ([]entities.User, error)
}

type NotificationDispatcher struct {
	notificationRepo repositories.NotificationRepositoryInterface
	cacheRepo        repositories.CacheRepositoryInterface
	userRepo         repositories.UserRepositoryInterface
	emailService     EmailServiceInterface
	logger           *zap.Logger
}

func NewNotificationDispatcher(
	notificationRepo repositories.NotificationRepositoryInterface,
	cacheRepo repositories.CacheRepositoryInterface,
	userRepo repositories.UserRepositoryInterface,
	emailService EmailServiceInterface,
	logger *zap.Logger,
) NotificationDispatcherInterface {
	return &NotificationDispatcher{
		notificationRepo: notificationRepo,
		cacheRepo:        cacheRepo,
		userRepo:         userRepo,
		emailService:     emailService,
		logger:           logger,
	}
}

// Dispatch создаёт in-app уведомления и рассылает письма. Получатели
// дедуплицируются по id, письма шлются лучшим усилием.
func (d *NotificationDispatcher) Dispatch(ctx context.Context, notice Notice) DispatchResult {
	var result DispatchResult

	seen := make(map[uint64]struct{}, len(notice.Recipients))
	for _, user := range notice.Recipients {
		if _, dup := seen[user.ID]; dup {
			continue
		}
		seen[user.ID] = struct{}{}

		notification := &entities.Notification{
			UserID:   user.ID,
			DeviceID: notice.DeviceID,
			Title:    notice.Title,
			Message:  notice.Message,
			Type:     notice.Type,
		}
		if _, err := d.notificationRepo.Create(ctx, notification); err != nil {
			d.logger.Error("NotificationDispatcher: не удалось сохранить уведомление",
				zap.Uint64("userID", user.ID), zap.Error(err))
			continue
		}
		result.Notified = append(result.Notified, user.ID)

		if user.Email == "" {
			continue
		}
		if err := d.emailService.Send(ctx, user.Email, notice.Title, notice.Message); err != nil {
			result.EmailErrs = append(result.EmailErrs,
				fmt.Errorf("письмо для %s: %w", user.Email, err))
		}
	}

	if len(result.Notified) > 0 {
		// Новая запись меняет счётчик непрочитанных — сбрасываем кеш
		keys := make([]string, 0, len(result.Notified))
		for _, userID := range result.Notified {
			keys = append(keys, unreadCountKey(userID))
		}
		if err := d.cacheRepo.Del(ctx, keys...); err != nil {
			d.logger.Warn("NotificationDispatcher: не удалось сбросить кеш счётчиков", zap.Error(err))
		}
	}

	if len(result.EmailErrs) > 0 {
		d.logger.Warn("NotificationDispatcher: часть писем не отправлена",
			zap.Int("failed", len(result.EmailErrs)))
	}

	return result
}

func (d *NotificationDispatcher) ManagersAndAdmins(ctx context.Context) ([]entities.User, error) {
	return d.userRepo.FindByRoleNames(ctx, []string{constants.RoleManager, constants.RoleAdmin})
}
