package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"device-manager/internal/entities"
	"device-manager/pkg/constants"
)

func deviceAssignedTo(techID uint64) *entities.Device {
	return &entities.Device{ID: 1, TechnicianID: &techID}
}

func TestPermissionsForRole(t *testing.T) {
	admin := PermissionsForRole(constants.RoleAdmin)
	assert.True(t, admin[DevicesDelete])
	assert.True(t, admin[OverrideToggle])
	assert.False(t, admin[DevicesUpdateWorkStatus], "рабочий статус админ меняет только через override")
	assert.False(t, admin[DevicesApprove], "приёмка — действие менеджера, админу только через override")

	manager := PermissionsForRole(constants.RoleManager)
	assert.True(t, manager[DevicesApprove])
	assert.True(t, manager[DevicesUpdate])
	assert.True(t, manager[DevicesAssign])
	assert.False(t, manager[DevicesCreate])

	tech := PermissionsForRole(constants.RoleTechnician)
	assert.True(t, tech[DevicesUpdateWorkStatus])
	assert.False(t, tech[DevicesApprove])

	viewer := PermissionsForRole(constants.RoleViewer)
	assert.True(t, viewer[DevicesView])
	assert.False(t, viewer[DevicesUpdate])

	assert.Empty(t, PermissionsForRole("Неизвестная роль"))
}

func TestCanDoRBAC(t *testing.T) {
	manager := Context{
		ActorUserID: 2,
		RoleName:    constants.RoleManager,
		Permissions: PermissionsForRole(constants.RoleManager),
	}

	assert.True(t, CanDo(DevicesApprove, manager))
	assert.True(t, CanDo(DevicesAssign, manager))
	assert.False(t, CanDo(DevicesCreate, manager))
	assert.False(t, CanDo(DiagnosesCreate, manager))
}

func TestCanDoTechnicianOwnership(t *testing.T) {
	techID := uint64(5)
	otherID := uint64(9)

	ctx := Context{
		ActorUserID:       3,
		RoleName:          constants.RoleTechnician,
		Permissions:       PermissionsForRole(constants.RoleTechnician),
		ActorTechnicianID: &techID,
	}

	ctx.Target = deviceAssignedTo(techID)
	assert.True(t, CanDo(DevicesUpdateWorkStatus, ctx))
	assert.True(t, CanDo(DiagnosesCreate, ctx))

	ctx.Target = deviceAssignedTo(otherID)
	assert.False(t, CanDo(DevicesUpdateWorkStatus, ctx), "чужое устройство")
	assert.False(t, CanDo(DiagnosesDelete, ctx))

	ctx.Target = &entities.Device{ID: 4}
	assert.False(t, CanDo(DevicesUpdateWorkStatus, ctx), "устройство без техника")

	// Просмотр чужого устройства технику доступен
	ctx.Target = deviceAssignedTo(otherID)
	assert.True(t, CanDo(DevicesView, ctx))
}

func TestCanDoAdminOverride(t *testing.T) {
	techID := uint64(5)
	admin := Context{
		ActorUserID: 1,
		RoleName:    constants.RoleAdmin,
		Permissions: PermissionsForRole(constants.RoleAdmin),
		Target:      deviceAssignedTo(techID),
	}

	assert.False(t, CanDo(DevicesUpdateWorkStatus, admin), "без override технические действия закрыты")
	assert.False(t, CanDo(DiagnosesCreate, admin))
	assert.False(t, CanDo(DevicesApprove, admin), "админ без активного override не принимает работу")

	admin.OverrideActive = true
	assert.True(t, CanDo(DevicesUpdateWorkStatus, admin), "override открывает любое устройство")
	assert.True(t, CanDo(DiagnosesCreate, admin))
	assert.True(t, CanDo(DevicesApprove, admin))

	// Override не добавляет прав другим ролям
	viewer := Context{
		RoleName:       constants.RoleViewer,
		Permissions:    PermissionsForRole(constants.RoleViewer),
		OverrideActive: true,
	}
	assert.False(t, CanDo(DevicesUpdateWorkStatus, viewer))
}
