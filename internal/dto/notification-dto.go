package dto

type NotificationResponseDTO struct {
	ID        uint64  `json:"id"`
	DeviceID  *uint64 `json:"device_id"`
	Title     string  `json:"title"`
	Message   string  `json:"message"`
	Type      string  `json:"type"`
	IsRead    bool    `json:"is_read"`
	CreatedAt string  `json:"created_at"`
}

type NotificationListResponseDTO struct {
	List        []NotificationResponseDTO `json:"list"`
	TotalCount  uint64                    `json:"total_count"`
	UnreadCount uint64                    `json:"unread_count"`
}
