package entities

import "time"

// Diagnosis принадлежит ровно одному устройству; автор-техник опционален.
type Diagnosis struct {
	ID             uint64    `json:"id"`
	DeviceID       uint64    `json:"device_id"`
	TechnicianID   *uint64   `json:"technician_id"`
	TechnicianName *string   `json:"technician_name,omitempty"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	Recommendation *string   `json:"recommendation"`
	CreatedBy      string    `json:"created_by"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
