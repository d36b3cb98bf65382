package dto

import (
	"github.com/aarondl/null/v8"
)

type CreateDeviceDTO struct {
	Name         string    `json:"name" validate:"required,min=2,max=255"`
	SerialNumber string    `json:"serial_number" validate:"required,min=2,max=100"`
	DeviceTypeID uint64    `json:"device_type_id" validate:"required,gt=0"`
	Priority     string    `json:"priority" validate:"required,oneof=Critical High Medium Low"`
	TechnicianID *uint64   `json:"technician_id,omitempty" validate:"omitempty,gt=0"`
	DueDate      null.Time `json:"due_date,omitempty"`
}

type UpdateDeviceDTO struct {
	Name         *string `json:"name,omitempty" validate:"omitempty,min=2,max=255"`
	SerialNumber *string `json:"serial_number,omitempty" validate:"omitempty,min=2,max=100"`
	DeviceTypeID *uint64 `json:"device_type_id,omitempty" validate:"omitempty,gt=0"`
	Priority     *string `json:"priority,omitempty" validate:"omitempty,oneof=Critical High Medium Low"`
}

// AssignDeviceDTO — смена техника. null снимает назначение.
type AssignDeviceDTO struct {
	TechnicianID *uint64 `json:"technician_id" validate:"omitempty,gt=0"`
}

// UpdateDueDateDTO — новый срок целиком; невалидное значение (null)
// убирает срок.
type UpdateDueDateDTO struct {
	DueDate null.Time `json:"due_date"`
}

type UpdateWorkStatusDTO struct {
	WorkStatus string `json:"work_status" validate:"required,oneof=Assigned InProgress Done"`
}

type DeviceResponseDTO struct {
	ID                  uint64                 `json:"id"`
	Name                string                 `json:"name"`
	SerialNumber        string                 `json:"serial_number"`
	Status              string                 `json:"status"`
	WorkStatus          *string                `json:"work_status"`
	Priority            string                 `json:"priority"`
	SLAStatus           string                 `json:"sla_status"`
	DueDate             *string                `json:"due_date"`
	CompletedAt         *string                `json:"completed_at"`
	IsApprovedByManager bool                   `json:"is_approved_by_manager"`
	ApprovedBy          *string                `json:"approved_by,omitempty"`
	ApprovedAt          *string                `json:"approved_at,omitempty"`
	DeviceType          *ShortDeviceTypeDTO    `json:"device_type"`
	Technician          *ShortTechnicianDTO    `json:"technician"`
	Diagnoses           []DiagnosisResponseDTO `json:"diagnoses,omitempty"`
	CreatedAt           string                 `json:"created_at"`
	UpdatedAt           string                 `json:"updated_at"`
}

type DeviceListResponseDTO struct {
	List       []DeviceResponseDTO `json:"list"`
	TotalCount uint64              `json:"total_count"`
}

type ShortDeviceTypeDTO struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
}

type ShortTechnicianDTO struct {
	ID       uint64 `json:"id"`
	FullName string `json:"full_name"`
}

type DeviceHistoryResponseDTO struct {
	ID              uint64  `json:"id"`
	Action          string  `json:"action"`
	Description     string  `json:"description"`
	PerformedByName *string `json:"performed_by_name"`
	OldValue        *string `json:"old_value,omitempty"`
	NewValue        *string `json:"new_value,omitempty"`
	TxID            *string `json:"tx_id,omitempty"`
	CreatedAt       string  `json:"created_at"`
}
