package entities

import (
	"time"

	"github.com/google/uuid"
)

// AuditLog — строка журнала аудита. Только добавление, никогда не
// обновляется и не удаляется приложением.
type AuditLog struct {
	ID          uint64    `json:"id"`
	DeviceID    uint64    `json:"device_id"`
	Action      string    `json:"action"`
	OldValue    *string   `json:"old_value"`
	NewValue    *string   `json:"new_value"`
	PerformedBy string    `json:"performed_by"`
	PerformedAt time.Time `json:"performed_at"`
}

// DeviceHistory — человекочитаемая запись таймлайна устройства.
// Записи одного workflow-вызова связаны общим TxID.
type DeviceHistory struct {
	ID                uint64     `json:"id"`
	DeviceID          uint64     `json:"device_id"`
	Action            string     `json:"action"`
	Description       string     `json:"description"`
	PerformedByUserID *uint64    `json:"performed_by_user_id"`
	PerformedByName   *string    `json:"performed_by_name"`
	OldValue          *string    `json:"old_value"`
	NewValue          *string    `json:"new_value"`
	TxID              *uuid.UUID `json:"tx_id"`
	CreatedAt         time.Time  `json:"created_at"`
}
