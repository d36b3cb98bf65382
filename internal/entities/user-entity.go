package entities

import "time"

type User struct {
	ID           uint64    `json:"id"`
	Email        string    `json:"email"`
	FullName     string    `json:"full_name"`
	PasswordHash string    `json:"-"`
	RoleID       uint64    `json:"role_id"`
	RoleName     string    `json:"role_name,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

type Role struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
}
