// Package rules содержит чистые функции workflow-правил устройства.
// Сервисный слой вызывает их явно перед записью: никаких скрытых
// хуков на сохранение, часы всегда передаются параметром.
package rules

import (
	"time"

	"device-manager/pkg/constants"
)

// AtRiskWindow — за сколько до дедлайна устройство считается "At Risk".
const AtRiskWindow = 24 * time.Hour

// DeriveStatus вычисляет производный Status устройства.
// Техник назначен → Active, иначе Inactive. Значение, выставленное
// вызывающим кодом напрямую, всегда перетирается этим результатом.
func DeriveStatus(technicianID *uint64) string {
	if technicianID != nil {
		return constants.DeviceStatusActive
	}
	return constants.DeviceStatusInactive
}

// AssignmentWorkStatus возвращает WorkStatus после смены техника:
// новый техник получает "Assigned", снятие техника сбрасывает статус.
func AssignmentWorkStatus(technicianID *uint64) *string {
	if technicianID == nil {
		return nil
	}
	ws := constants.WorkStatusAssigned
	return &ws
}

// PriorityRank задаёт порядок сортировки приоритетов (меньше — важнее).
func PriorityRank(priority string) int {
	switch priority {
	case constants.PriorityCritical:
		return 1
	case constants.PriorityHigh:
		return 2
	case constants.PriorityMedium:
		return 3
	default:
		return 4
	}
}

// ValidPriority проверяет допустимость значения приоритета.
func ValidPriority(priority string) bool {
	switch priority {
	case constants.PriorityCritical, constants.PriorityHigh, constants.PriorityMedium, constants.PriorityLow:
		return true
	}
	return false
}

// ValidWorkStatus проверяет допустимость явного рабочего статуса.
func ValidWorkStatus(workStatus string) bool {
	switch workStatus {
	case constants.WorkStatusAssigned, constants.WorkStatusInProgress, constants.WorkStatusDone:
		return true
	}
	return false
}
