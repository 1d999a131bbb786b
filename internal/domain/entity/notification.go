package entity

import (
	"time"

	"github.com/google/uuid"
)

// NotificationKind is the closed set of appointment notification types.
// Every kind maps to exactly one template in the dispatcher.
type NotificationKind string

const (
	NotificationAppointmentBooked    NotificationKind = "appointment_booked"
	NotificationAppointmentConfirmed NotificationKind = "appointment_confirmed"
	NotificationAppointmentRejected  NotificationKind = "appointment_rejected"
	NotificationAppointmentCancelled NotificationKind = "appointment_cancelled"
	NotificationAppointmentCompleted NotificationKind = "appointment_completed"
)

// NotificationPriority indicates delivery urgency
type NotificationPriority string

const (
	NotificationPriorityLow    NotificationPriority = "low"
	NotificationPriorityMedium NotificationPriority = "medium"
	NotificationPriorityHigh   NotificationPriority = "high"
)

// Notification is a stored, best-effort message to one party about an
// appointment event
type Notification struct {
	ID            uuid.UUID            `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	RecipientID   uuid.UUID            `gorm:"type:uuid;not null;index:idx_notifications_recipient_created" json:"recipient_id"`
	Kind          NotificationKind     `gorm:"type:varchar(50);not null;index" json:"kind"`
	Title         string               `gorm:"type:varchar(255);not null" json:"title"`
	Message       string               `gorm:"type:text;not null" json:"message"`
	Priority      NotificationPriority `gorm:"type:varchar(10);not null;default:'medium'" json:"priority"`
	AppointmentID *uuid.UUID           `gorm:"type:uuid;index" json:"appointment_id,omitempty"`
	IsRead        bool                 `gorm:"not null;default:false;index" json:"is_read"`
	ReadAt        *time.Time           `json:"read_at,omitempty"`
	CreatedAt     time.Time            `gorm:"autoCreateTime;index:idx_notifications_recipient_created" json:"created_at"`
}

func (Notification) TableName() string {
	return "notifications"
}
