package entities

import "time"

// Technician — исполнитель работ. Удаление мягкое: запись остаётся,
// но исключается из всех списков по умолчанию.
type Technician struct {
	ID        uint64     `json:"id"`
	FullName  string     `json:"full_name"`
	Phone     string     `json:"phone"`
	Expertise string     `json:"expertise"`
	UserID    *uint64    `json:"user_id"`
	IsDeleted bool       `json:"is_deleted"`
	DeletedAt *time.Time `json:"deleted_at"`
	CreatedAt time.Time  `json:"created_at"`
}
