package middleware

import (
	"context"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"device-manager/pkg/contextkeys"
	apperrors "device-manager/pkg/errors"
	"device-manager/pkg/service"
	"device-manager/pkg/utils"
)

// PermissionResolver отдаёт карту прав для роли (с кэшированием на стороне
// реализации). Интерфейс объявлен здесь, чтобы pkg не зависел от internal.
type PermissionResolver interface {
	GetPermissionsForRole(ctx context.Context, roleID uint64) (map[string]bool, error)
	GetRoleName(ctx context.Context, roleID uint64) (string, error)
}

type AuthMiddleware struct {
	jwtService  service.JWTService
	permissions PermissionResolver
	logger      *zap.Logger
}

func NewAuthMiddleware(jwtSvc service.JWTService, permissions PermissionResolver, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		jwtService:  jwtSvc,
		permissions: permissions,
		logger:      logger,
	}
}

// Auth проверяет Bearer-токен и кладёт UserID, RoleID, имя роли и карту
// прав в контекст запроса.
func (m *AuthMiddleware) Auth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" {
			m.logger.Warn("AuthMiddleware: пустой заголовок Authorization")
			return utils.ErrorResponse(c, apperrors.ErrEmptyAuthHeader, m.logger)
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			m.logger.Warn("AuthMiddleware: неверный формат заголовка Authorization")
			return utils.ErrorResponse(c, apperrors.ErrInvalidAuthHeader, m.logger)
		}

		claims, err := m.jwtService.ValidateToken(parts[1])
		if err != nil {
			m.logger.Warn("AuthMiddleware: ошибка валидации токена", zap.Error(err))
			return utils.ErrorResponse(c, err, m.logger)
		}

		if claims.IsRefreshToken {
			m.logger.Warn("AuthMiddleware: попытка доступа с refresh-токеном")
			return utils.ErrorResponse(c, apperrors.ErrTokenIsNotAccess, m.logger)
		}

		reqCtx := c.Request().Context()

		permissionsMap, err := m.permissions.GetPermissionsForRole(reqCtx, claims.RoleID)
		if err != nil {
			m.logger.Error("AuthMiddleware: не удалось загрузить права роли",
				zap.Uint64("roleID", claims.RoleID), zap.Error(err))
			return utils.ErrorResponse(c, apperrors.ErrForbidden, m.logger)
		}

		roleName, err := m.permissions.GetRoleName(reqCtx, claims.RoleID)
		if err != nil {
			return utils.ErrorResponse(c, apperrors.ErrForbidden, m.logger)
		}

		newCtx := context.WithValue(reqCtx, contextkeys.UserIDKey, claims.UserID)
		newCtx = context.WithValue(newCtx, contextkeys.RoleIDKey, claims.RoleID)
		newCtx = context.WithValue(newCtx, contextkeys.RoleNameKey, roleName)
		newCtx = context.WithValue(newCtx, contextkeys.UserPermissionsMapKey, permissionsMap)
		c.SetRequest(c.Request().WithContext(newCtx))

		return next(c)
	}
}
