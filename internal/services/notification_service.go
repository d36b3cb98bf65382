package services

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"device-manager/internal/dto"
	"device-manager/internal/repositories"
	"device-manager/pkg/types"
	"device-manager/pkg/utils"
)

// Кеш живёт недолго: счётчик сбрасывается при каждой записи, TTL —
// страховка от протухших ключей.
const unreadCacheTTL = 10 * time.Minute

func unreadCountKey(userID uint64) string {
	return fmt.Sprintf("notifications:unread:%d", userID)
}

type NotificationServiceInterface interface {
	GetMyNotifications(ctx context.Context, filter types.Filter) (*dto.NotificationListResponseDTO, error)
	UnreadCount(ctx context.Context) (uint64, error)
	MarkRead(ctx context.Context, id uint64) error
	MarkAllRead(ctx context.Context) error
	Delete(ctx context.Context, id uint64) error
}

type NotificationService struct {
	notificationRepo repositories.NotificationRepositoryInterface
	cacheRepo        repositories.CacheRepositoryInterface
	logger           *zap.Logger
}

func NewNotificationService(
	notificationRepo repositories.NotificationRepositoryInterface,
	cacheRepo repositories.CacheRepositoryInterface,
	logger *zap.Logger,
) NotificationServiceInterface {
	return &NotificationService{
		notificationRepo: notificationRepo,
		cacheRepo:        cacheRepo,
		logger:           logger,
	}
}

// cachedUnreadCount читает счётчик из redis; промах или битое значение —
// пересчёт из базы с записью обратно в кеш.
func (s *NotificationService) cachedUnreadCount(ctx context.Context, userID uint64) (uint64, error) {
	key := unreadCountKey(userID)
	if raw, err := s.cacheRepo.Get(ctx, key); err == nil {
		if count, parseErr := strconv.ParseUint(raw, 10, 64); parseErr == nil {
			return count, nil
		}
	}

	count, err := s.notificationRepo.UnreadCount(ctx, userID)
	if err != nil {
		return 0, err
	}
	if err := s.cacheRepo.Set(ctx, key, strconv.FormatUint(count, 10), unreadCacheTTL); err != nil {
		s.logger.Warn("NotificationService: не удалось закешировать счётчик", zap.Error(err))
	}
	return count, nil
}

func (s *NotificationService) invalidateUnreadCount(ctx context.Context, userID uint64) {
	if err := s.cacheRepo.Del(ctx, unreadCountKey(userID)); err != nil {
		s.logger.Warn("NotificationService: не удалось сбросить кеш счётчика",
			zap.Uint64("userID", userID), zap.Error(err))
	}
}

func (s *NotificationService) GetMyNotifications(ctx context.Context, filter types.Filter) (*dto.NotificationListResponseDTO, error) {
	userID, err := utils.GetUserIDFromCtx(ctx)
	if err != nil {
		return nil, err
	}

	list, total, err := s.notificationRepo.ListByUser(ctx, userID, filter)
	if err != nil {
		s.logger.Error("NotificationService: ошибка получения уведомлений", zap.Error(err))
		return nil, err
	}

	unread, err := s.cachedUnreadCount(ctx, userID)
	if err != nil {
		return nil, err
	}

	items := make([]dto.NotificationResponseDTO, 0, len(list))
	for _, n := range list {
		items = append(items, dto.NotificationResponseDTO{
			ID:        n.ID,
			DeviceID:  n.DeviceID,
			Title:     n.Title,
			Message:   n.Message,
			Type:      n.Type,
			IsRead:    n.IsRead,
			CreatedAt: n.CreatedAt.Format(time.RFC3339),
		})
	}

	return &dto.NotificationListResponseDTO{
		List:        items,
		TotalCount:  total,
		UnreadCount: unread,
	}, nil
}

func (s *NotificationService) UnreadCount(ctx context.Context) (uint64, error) {
	userID, err := utils.GetUserIDFromCtx(ctx)
	if err != nil {
		return 0, err
	}
	return s.cachedUnreadCount(ctx, userID)
}

func (s *NotificationService) MarkRead(ctx context.Context, id uint64) error {
	userID, err := utils.GetUserIDFromCtx(ctx)
	if err != nil {
		return err
	}
	if err := s.notificationRepo.MarkRead(ctx, userID, id); err != nil {
		return err
	}
	s.invalidateUnreadCount(ctx, userID)
	return nil
}

func (s *NotificationService) MarkAllRead(ctx context.Context) error {
	userID, err := utils.GetUserIDFromCtx(ctx)
	if err != nil {
		return err
	}
	if err := s.notificationRepo.MarkAllRead(ctx, userID); err != nil {
		return err
	}
	s.invalidateUnreadCount(ctx, userID)
	return nil
}

func (s *NotificationService) Delete(ctx context.Context, id uint64) error {
	userID, err := utils.GetUserIDFromCtx(ctx)
	if err != nil {
		return err
	}
	if err := s.notificationRepo.Delete(ctx, userID, id); err != nil {
		return err
	}
	s.invalidateUnreadCount(ctx, userID)
	return nil
}
