package dto

import "github.com/aarondl/null/v8"

type CreateDiagnosisDTO struct {
	Title          string      `json:"title" validate:"required,min=3,max=255"`
	Description    string      `json:"description" validate:"required,min=3"`
	Recommendation null.String `json:"recommendation,omitempty"`
}

type UpdateDiagnosisDTO struct {
	Title          null.String `json:"title,omitempty" validate:"omitempty"`
	Description    null.String `json:"description,omitempty" validate:"omitempty"`
	Recommendation null.String `json:"recommendation,omitempty"`
}

type DiagnosisResponseDTO struct {
	ID             uint64  `json:"id"`
	DeviceID       uint64  `json:"device_id"`
	TechnicianName *string `json:"technician_name"`
	Title          string  `json:"title"`
	Description    string  `json:"description"`
	Recommendation *string `json:"recommendation,omitempty"`
	CreatedBy      string  `json:"created_by"`
	CreatedAt      string  `json:"created_at"`
	UpdatedAt      string  `json:"updated_at"`
}
