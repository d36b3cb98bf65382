package rules

import (
	"time"

	"device-manager/pkg/constants"
)

// SLAStatus — метка SLA на момент now. Значение производное,
// в базе не хранится.
func SLAStatus(dueDate, completedAt *time.Time, now time.Time) string {
	if dueDate == nil {
		return constants.SLANoDueDate
	}

	if completedAt != nil {
		if !completedAt.After(*dueDate) {
			return constants.SLAMetSLA
		}
		return constants.SLAMissedSLA
	}

	if now.After(*dueDate) {
		return constants.SLAOverdue
	}
	if dueDate.Sub(now) <= AtRiskWindow {
		return constants.SLAAtRisk
	}
	return constants.SLAOnTime
}

// IsOverdue — не завершено и срок прошёл.
func IsOverdue(dueDate, completedAt *time.Time, now time.Time) bool {
	return dueDate != nil && completedAt == nil && now.After(*dueDate)
}

// IsAtRisk — не завершено, срок ещё впереди, но ближе AtRiskWindow.
func IsAtRisk(dueDate, completedAt *time.Time, now time.Time) bool {
	if dueDate == nil || completedAt != nil || now.After(*dueDate) {
		return false
	}
	return dueDate.Sub(now) <= AtRiskWindow
}
