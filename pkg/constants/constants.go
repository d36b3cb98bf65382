package constants

// Статусы устройства. Status — производное поле: вычисляется из
// наличия техника, напрямую пользователем не задаётся.
const (
	DeviceStatusActive   = "Active"
	DeviceStatusInactive = "Inactive"
)

// Рабочие статусы (явные, выставляются действиями техника).
const (
	WorkStatusAssigned   = "Assigned"
	WorkStatusInProgress = "InProgress"
	WorkStatusDone       = "Done"
)

// Приоритеты.
const (
	PriorityCritical = "Critical"
	PriorityHigh     = "High"
	PriorityMedium   = "Medium"
	PriorityLow      = "Low"
)

// Метки SLA (вычисляются на чтение, не хранятся).
const (
	SLANoDueDate = "No Due Date"
	SLAMetSLA    = "Met SLA"
	SLAMissedSLA = "Missed SLA"
	SLAOverdue   = "Overdue"
	SLAAtRisk    = "At Risk"
	SLAOnTime    = "On Time"
)

// Роли.
const (
	RoleAdmin      = "Admin"
	RoleManager    = "Manager"
	RoleTechnician = "Technician"
	RoleViewer     = "Viewer"
)

// Типы уведомлений.
const (
	NotificationInfo    = "Info"
	NotificationWarning = "Warning"
	NotificationSuccess = "Success"
	NotificationDanger  = "Danger"
)
