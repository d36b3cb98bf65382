package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"device-manager/internal/authz"
	"device-manager/internal/repositories"
	apperrors "device-manager/pkg/errors"
)

// AuthPermissionService отдаёт права и имя роли по её id, кешируя
// результат в Redis. Реализует middleware.PermissionResolver.
type AuthPermissionService struct {
	roleRepo  repositories.RoleRepositoryInterface
	cacheRepo repositories.CacheRepositoryInterface
	logger    *zap.Logger
	cacheTTL  time.Duration
}

func NewAuthPermissionService(
	roleRepo repositories.RoleRepositoryInterface,
	cacheRepo repositories.CacheRepositoryInterface,
	logger *zap.Logger,
	cacheTTL time.Duration,
) *AuthPermissionService {
	return &AuthPermissionService{
		roleRepo:  roleRepo,
		cacheRepo: cacheRepo,
		logger:    logger,
		cacheTTL:  cacheTTL,
	}
}

func (s *AuthPermissionService) GetPermissionsForRole(ctx context.Context, roleID uint64) (map[string]bool, error) {
	cacheKey := fmt.Sprintf("auth:permissions:role:%d", roleID)

	// 1. Попытка получить данные из Redis-кеша
	cachedJSON, errGet := s.cacheRepo.Get(ctx, cacheKey)
	if errGet == nil {
		var permissions map[string]bool
		if err := json.Unmarshal([]byte(cachedJSON), &permissions); err == nil {
			return permissions, nil
		}
		s.logger.Warn("AuthPermissionService: ошибка при десериализации прав из кеша",
			zap.String("key", cacheKey), zap.Uint64("roleID", roleID))
	}

	// 2. Кеш пуст, собираем права по имени роли из БД
	roleName, err := s.GetRoleName(ctx, roleID)
	if err != nil {
		return nil, err
	}
	permissions := authz.PermissionsForRole(roleName)

	// 3. Кешируем обратно в Redis, ошибка кеша не фатальна
	if payload, errMarshal := json.Marshal(permissions); errMarshal == nil {
		if errSet := s.cacheRepo.Set(ctx, cacheKey, string(payload), s.cacheTTL); errSet != nil {
			s.logger.Error("AuthPermissionService: не удалось сохранить права роли в кеш",
				zap.Uint64("roleID", roleID), zap.Error(errSet))
		}
	}

	return permissions, nil
}

func (s *AuthPermissionService) GetRoleName(ctx context.Context, roleID uint64) (string, error) {
	cacheKey := fmt.Sprintf("auth:role:name:%d", roleID)

	if cached, err := s.cacheRepo.Get(ctx, cacheKey); err == nil && cached != "" {
		return cached, nil
	}

	role, err := s.roleRepo.FindRole(ctx, roleID)
	if err != nil {
		s.logger.Error("AuthPermissionService: роль не найдена в БД",
			zap.Uint64("roleID", roleID), zap.Error(err))
		return "", apperrors.ErrForbidden
	}

	if errSet := s.cacheRepo.Set(ctx, cacheKey, role.Name, s.cacheTTL); errSet != nil {
		s.logger.Error("AuthPermissionService: не удалось сохранить имя роли в кеш",
			zap.Uint64("roleID", roleID), zap.Error(errSet))
	}

	return role.Name, nil
}

// InvalidateRoleCache сбрасывает кеш роли. Вызывается сидером после
// изменения справочника ролей.
func (s *AuthPermissionService) InvalidateRoleCache(ctx context.Context, roleID uint64) error {
	keys := []string{
		fmt.Sprintf("auth:permissions:role:%d", roleID),
		fmt.Sprintf("auth:role:name:%d", roleID),
	}
	if err := s.cacheRepo.Del(ctx, keys...); err != nil {
		s.logger.Error("AuthPermissionService: ошибка инвалидации кеша роли",
			zap.Uint64("roleID", roleID), zap.Error(err))
		return err
	}
	return nil
}
