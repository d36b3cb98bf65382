package contextkeys

type contextKey string

const (
	UserIDKey             contextKey = "UserID"
	RoleIDKey             contextKey = "RoleID"
	RoleNameKey           contextKey = "RoleName"
	UserPermissionsMapKey contextKey = "userPermissionsMap"
)
