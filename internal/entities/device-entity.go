package entities

import "time"

// Device — единица ремонта. Status производится из наличия техника,
// WorkStatus выставляется явно действиями workflow.
type Device struct {
	ID                  uint64     `json:"id"`
	Name                string     `json:"name"`
	SerialNumber        string     `json:"serial_number"`
	Status              string     `json:"status"`
	WorkStatus          *string    `json:"work_status"`
	Priority            string     `json:"priority"`
	DueDate             *time.Time `json:"due_date"`
	CompletedAt         *time.Time `json:"completed_at"`
	IsApprovedByManager bool       `json:"is_approved_by_manager"`
	ApprovedBy          *string    `json:"approved_by"`
	ApprovedAt          *time.Time `json:"approved_at"`
	TechnicianID        *uint64    `json:"technician_id"`
	DeviceTypeID        *uint64    `json:"device_type_id"`
	OverdueNotifiedAt   *time.Time `json:"-"`
	AtRiskNotifiedAt    *time.Time `json:"-"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

type DeviceType struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
}
