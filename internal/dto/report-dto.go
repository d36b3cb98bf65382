package dto

type TechnicianPerformanceDTO struct {
	TechnicianID          uint64  `json:"technician_id"`
	TechnicianName        string  `json:"technician_name"`
	TotalDevicesCompleted int     `json:"total_devices_completed"`
	DevicesMetSLA         int     `json:"devices_met_sla"`
	DevicesMissedSLA      int     `json:"devices_missed_sla"`
	SLAComplianceRate     float64 `json:"sla_compliance_rate"`
	AverageCompletionHrs  float64 `json:"average_completion_hours"`
	CurrentlyAssigned     int     `json:"currently_assigned"`
	InProgress            int     `json:"in_progress"`
	WaitingApproval       int     `json:"waiting_approval"`
	CriticalDevices       int     `json:"critical_devices"`
	HighDevices           int     `json:"high_devices"`
	MediumDevices         int     `json:"medium_devices"`
	LowDevices            int     `json:"low_devices"`
}

type TechnicianReportResponseDTO struct {
	List       []TechnicianPerformanceDTO `json:"list"`
	TotalCount uint64                     `json:"total_count"`
}
