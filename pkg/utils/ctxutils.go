package utils

import (
	"context"

	"device-manager/pkg/contextkeys"
	apperrors "device-manager/pkg/errors"
)

func GetUserIDFromCtx(ctx context.Context) (uint64, error) {
	userID, ok := ctx.Value(contextkeys.UserIDKey).(uint64)
	if !ok || userID == 0 {
		return 0, apperrors.ErrInvalidUserID
	}
	return userID, nil
}

func GetRoleNameFromCtx(ctx context.Context) (string, error) {
	roleName, ok := ctx.Value(contextkeys.RoleNameKey).(string)
	if !ok || roleName == "" {
		return "", apperrors.ErrForbidden
	}
	return roleName, nil
}

func GetPermissionsMapFromCtx(ctx context.Context) (map[string]bool, error) {
	permissions, ok := ctx.Value(contextkeys.UserPermissionsMapKey).(map[string]bool)
	if !ok || permissions == nil {
		return nil, apperrors.ErrForbidden
	}
	return permissions, nil
}
