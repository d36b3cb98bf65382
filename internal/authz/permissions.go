// internal/authz/permissions.go
package authz

import "device-manager/pkg/constants"

// --- СПИСОК ВСЕХ ПЕРМИШЕНОВ В СИСТЕМЕ ---

const (
	// Устройства (Devices)
	DevicesCreate           = "devices:create"
	DevicesView             = "devices:view"
	DevicesUpdate           = "devices:update"
	DevicesAssign           = "devices:assign"
	DevicesUpdateWorkStatus = "devices:work-status:update"
	DevicesApprove          = "devices:approve"
	DevicesDelete           = "devices:delete"

	// Диагнозы (Diagnoses)
	DiagnosesCreate = "diagnoses:create"
	DiagnosesUpdate = "diagnoses:update"
	DiagnosesDelete = "diagnoses:delete"

	// Техники (Technicians)
	TechniciansCreate  = "technicians:create"
	TechniciansView    = "technicians:view"
	TechniciansUpdate  = "technicians:update"
	TechniciansDelete  = "technicians:delete"
	TechniciansRestore = "technicians:restore"

	// Отчёты и дашборд
	ReportsView   = "reports:view"
	DashboardView = "dashboard:view"

	// Аудит и уведомления
	AuditView         = "audit:view"
	NotificationsView = "notifications:view"

	// Режим Admin Override
	OverrideToggle = "override:toggle"
)

// rolePermissions — фиксированная матрица прав четырёх ролей.
// Роли в системе не редактируются, поэтому матрица живёт в коде,
// а не в базе.
var rolePermissions = map[string][]string{
	constants.RoleAdmin: {
		DevicesCreate, DevicesView, DevicesUpdate, DevicesAssign, DevicesDelete,
		TechniciansCreate, TechniciansView, TechniciansUpdate, TechniciansDelete, TechniciansRestore,
		ReportsView, DashboardView, AuditView, NotificationsView,
		OverrideToggle,
	},
	constants.RoleManager: {
		DevicesView, DevicesUpdate, DevicesAssign, DevicesApprove,
		TechniciansView,
		ReportsView, DashboardView, AuditView, NotificationsView,
	},
	constants.RoleTechnician: {
		DevicesView, DevicesUpdateWorkStatus,
		DiagnosesCreate, DiagnosesUpdate, DiagnosesDelete,
		TechniciansView,
		DashboardView, NotificationsView,
	},
	constants.RoleViewer: {
		DevicesView, TechniciansView, DashboardView, NotificationsView,
	},
}

// PermissionsForRole возвращает набор прав роли в виде map-а,
// пригодного для контекста запроса и для кеша.
func PermissionsForRole(roleName string) map[string]bool {
	perms := make(map[string]bool)
	for _, p := range rolePermissions[roleName] {
		perms[p] = true
	}
	return perms
}
