package repository

import (
	"time"

	"telemed-appointments/internal/domain/entity"
	domainRepo "telemed-appointments/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type notificationRepository struct{}

func NewNotificationRepository() domainRepo.NotificationRepository {
	return &notificationRepository{}
}

func (r *notificationRepository) Create(db *gorm.DB, notification *entity.Notification) error {
	return db.Create(notification).Error
}

func (r *notificationRepository) FindByRecipient(db *gorm.DB, recipientID uuid.UUID, unreadOnly bool) ([]entity.Notification, error) {
	query := db.Where("recipient_id = ?", recipientID)
	if unreadOnly {
		query = query.Where("is_read = ?", false)
	}

	var notifications []entity.Notification
	err := query.Order("created_at DESC").Find(&notifications).Error
	if err != nil {
		return nil, err
	}
	return notifications, nil
}

func (r *notificationRepository) CountUnread(db *gorm.DB, recipientID uuid.UUID) (int64, error) {
	var count int64
	err := db.Model(&entity.Notification{}).
		Where("recipient_id = ? AND is_read = ?", recipientID, false).
		Count(&count).Error
	return count, err
}

// MarkRead marks one notification read, scoped to its recipient so one
// user cannot touch another's notifications. Returns affected rows.
func (r *notificationRepository) MarkRead(db *gorm.DB, id uuid.UUID, recipientID uuid.UUID) (int64, error) {
	now := time.Now()
	result := db.Model(&entity.Notification{}).
		Where("id = ? AND recipient_id = ? AND is_read = ?", id, recipientID, false).
		Updates(map[string]interface{}{"is_read": true, "read_at": now})
	return result.RowsAffected, result.Error
}

func (r *notificationRepository) MarkAllRead(db *gorm.DB, recipientID uuid.UUID) error {
	now := time.Now()
	return db.Model(&entity.Notification{}).
		Where("recipient_id = ? AND is_read = ?", recipientID, false).
		Updates(map[string]interface{}{"is_read": true, "read_at": now}).Error
}
