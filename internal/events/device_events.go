package events

import (
	"device-manager/internal/entities"
)

// DeviceOverdueEvent публикуется SLA-монитором, когда срок устройства
// прошёл, а работа не завершена.
type DeviceOverdueEvent struct {
	Device entities.Device
}

func (e DeviceOverdueEvent) Name() string {
	return "device.overdue"
}

// DeviceAtRiskEvent публикуется, когда до срока остаётся меньше окна риска.
type DeviceAtRiskEvent struct {
	Device entities.Device
}

func (e DeviceAtRiskEvent) Name() string {
	return "device.at_risk"
}
