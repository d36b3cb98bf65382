package dto

// DashboardOverviewDTO — сводка по всему парку устройств.
type DashboardOverviewDTO struct {
	TotalDevices     int `json:"total_devices"`
	ActiveDevices    int `json:"active_devices"`
	InactiveDevices  int `json:"inactive_devices"`
	AssignedCount    int `json:"assigned_count"`
	InProgressCount  int `json:"in_progress_count"`
	DoneCount        int `json:"done_count"`
	WaitingApproval  int `json:"waiting_approval"`
	OverdueCount     int `json:"overdue_count"`
	AtRiskCount      int `json:"at_risk_count"`
	NoDueDateCount   int `json:"no_due_date_count"`
	MetSLACount      int `json:"met_sla_count"`
	MissedSLACount   int `json:"missed_sla_count"`
	CriticalOverdue  int `json:"critical_overdue"`
	ActiveTechnician int `json:"active_technicians"`

	ByPriority map[string]int `json:"by_priority"`
	ByType     map[string]int `json:"by_type"`

	Override OverrideStateDTO `json:"override"`
}

// OverrideStateDTO — текущее состояние режима Admin Override.
type OverrideStateDTO struct {
	Enabled   bool    `json:"enabled"`
	ExpiresAt *string `json:"expires_at,omitempty"`
}

// ToggleOverrideDTO — включение/выключение режима. Minutes задаёт
// длину окна, при нуле берётся значение из конфигурации.
type ToggleOverrideDTO struct {
	Enable  bool `json:"enable"`
	Minutes int  `json:"minutes" validate:"omitempty,gte=0,lte=480"`
}
