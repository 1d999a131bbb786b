package repository

import (
	"telemed-appointments/internal/domain/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type NotificationRepository interface {
	Create(db *gorm.DB, notification *entity.Notification) error
	FindByRecipient(db *gorm.DB, recipientID uuid.UUID, unreadOnly bool) ([]entity.Notification, error)
	CountUnread(db *gorm.DB, recipientID uuid.UUID) (int64, error)
	MarkRead(db *gorm.DB, id uuid.UUID, recipientID uuid.UUID) (int64, error)
	MarkAllRead(db *gorm.DB, recipientID uuid.UUID) error
}
