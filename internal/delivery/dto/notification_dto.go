package dto

import (
	"time"

	"github.com/google/uuid"
)

type NotificationResponse struct {
	ID            uuid.UUID  `json:"id"`
	Kind          string     `json:"kind"`
	Title         string     `json:"title"`
	Message       string     `json:"message"`
	Priority      string     `json:"priority"`
	AppointmentID *uuid.UUID `json:"appointment_id,omitempty"`
	IsRead        bool       `json:"is_read"`
	ReadAt        *time.Time `json:"read_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

type NotificationListResponse struct {
	Notifications []NotificationResponse `json:"notifications"`
	UnreadCount   int64                  `json:"unread_count"`
	Total         int                    `json:"total"`
}
