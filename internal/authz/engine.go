package authz

import (
	"device-manager/internal/entities"
	"device-manager/pkg/constants"
)

// Context — всё, что нужно движку для решения по одному действию.
type Context struct {
	ActorUserID       uint64
	RoleName          string
	Permissions       map[string]bool
	ActorTechnicianID *uint64
	Target            interface{}
	OverrideActive    bool
	CurrentPermission string
}

func (c *Context) HasPermission(permission string) bool {
	if c.Permissions == nil {
		return false
	}
	return c.Permissions[permission]
}

// technicianOnly — действия техника, которые админ получает только
// через активный Admin Override.
var technicianOnly = map[string]bool{
	DevicesUpdateWorkStatus: true,
	DiagnosesCreate:         true,
	DiagnosesUpdate:         true,
	DiagnosesDelete:         true,
}

// managerOnly — действия менеджера; для админа они тоже открываются
// только активным override.
var managerOnly = map[string]bool{
	DevicesApprove: true,
}

// canAccessDevice — проверка цели для устройства (ABAC).
// Техник работает только со своими устройствами, админ с override —
// с любыми.
func canAccessDevice(ctx Context, target *entities.Device) bool {
	if ctx.RoleName == constants.RoleAdmin {
		return true
	}

	if !technicianOnly[ctx.CurrentPermission] {
		return true
	}

	// Рабочий статус и диагнозы — только на назначенном устройстве
	if ctx.ActorTechnicianID == nil || target.TechnicianID == nil {
		return false
	}
	return *ctx.ActorTechnicianID == *target.TechnicianID
}

// CanDo — единственная точка принятия решения о доступе.
func CanDo(permission string, ctx Context) bool {
	// 1. Фиксация права
	ctx.CurrentPermission = permission

	// 2. Есть ли право вообще (RBAC)
	if !ctx.HasPermission(permission) {
		// Админ получает чужие ролевые действия через активный override
		viaOverride := ctx.RoleName == constants.RoleAdmin && ctx.OverrideActive &&
			(technicianOnly[permission] || managerOnly[permission])
		if !viaOverride {
			return false
		}
	}

	// 3. Без цели — разрешено (например создание)
	if ctx.Target == nil {
		return true
	}

	// 4. Проверка цели (ABAC)
	switch target := ctx.Target.(type) {
	case *entities.Device:
		return canAccessDevice(ctx, target)
	}

	return true
}
