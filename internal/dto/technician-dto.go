package dto

import "github.com/aarondl/null/v8"

type CreateTechnicianDTO struct {
	FullName  string  `json:"full_name" validate:"required,min=2,max=255"`
	Phone     string  `json:"phone" validate:"required,min=5,max=50"`
	Expertise string  `json:"expertise" validate:"required,min=2,max=255"`
	UserID    *uint64 `json:"user_id,omitempty" validate:"omitempty,gt=0"`
}

type UpdateTechnicianDTO struct {
	FullName  null.String `json:"full_name,omitempty" validate:"omitempty"`
	Phone     null.String `json:"phone,omitempty" validate:"omitempty"`
	Expertise null.String `json:"expertise,omitempty" validate:"omitempty"`
}

// RestoreTechnicianDTO — устройства, которые нужно вернуть технику
// при восстановлении. Пустой список допустим.
type RestoreTechnicianDTO struct {
	DeviceIDs []uint64 `json:"device_ids" validate:"omitempty,dive,gt=0"`
}

type TechnicianResponseDTO struct {
	ID              uint64  `json:"id"`
	FullName        string  `json:"full_name"`
	Phone           string  `json:"phone"`
	Expertise       string  `json:"expertise"`
	UserID          *uint64 `json:"user_id"`
	IsDeleted       bool    `json:"is_deleted"`
	DeletedAt       *string `json:"deleted_at,omitempty"`
	AssignedDevices int     `json:"assigned_devices"`
	CreatedAt       string  `json:"created_at"`
}

type TechnicianListResponseDTO struct {
	List       []TechnicianResponseDTO `json:"list"`
	TotalCount uint64                  `json:"total_count"`
}

// TechnicianDeleteResultDTO — итог мягкого удаления: какие устройства
// были сняты с техника.
type TechnicianDeleteResultDTO struct {
	TechnicianID      uint64   `json:"technician_id"`
	UnassignedDevices []uint64 `json:"unassigned_devices"`
}
