package usecase

import (
	"context"
	"errors"

	"telemed-appointments/internal/converter"
	"telemed-appointments/internal/delivery/dto"
	"telemed-appointments/internal/delivery/http/middleware"
	"telemed-appointments/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var ErrNotificationNotFound = errors.New("notification not found")

type NotificationUsecase interface {
	List(ctx context.Context, unreadOnly bool) (*dto.NotificationListResponse, error)
	CountUnread(ctx context.Context) (int64, error)
	MarkRead(ctx context.Context, notificationID uuid.UUID) error
	MarkAllRead(ctx context.Context) error
}

type notificationUsecase struct {
	db               *gorm.DB
	log              *logrus.Logger
	notificationRepo repository.NotificationRepository
}

func NewNotificationUsecase(db *gorm.DB, log *logrus.Logger, notificationRepo repository.NotificationRepository) NotificationUsecase {
	return &notificationUsecase{
		db:               db,
		log:              log,
		notificationRepo: notificationRepo,
	}
}

func (u *notificationUsecase) List(ctx context.Context, unreadOnly bool) (*dto.NotificationListResponse, error) {
	userID, ok := middleware.GetUserIDFromContext(ctx)
	if !ok {
		return nil, errors.New("user not found in context")
	}

	notifications, err := u.notificationRepo.FindByRecipient(u.db.WithContext(ctx), userID, unreadOnly)
	if err != nil {
		u.log.Warnf("Failed to find notifications for %s: %+v", userID, err)
		return nil, err
	}

	unread, err := u.notificationRepo.CountUnread(u.db.WithContext(ctx), userID)
	if err != nil {
		u.log.Warnf("Failed to count unread notifications for %s: %+v", userID, err)
		return nil, err
	}

	return &dto.NotificationListResponse{
		Notifications: converter.NotificationsToResponses(notifications),
		Total:         len(notifications),
		UnreadCount:   unread,
	}, nil
}

func (u *notificationUsecase) CountUnread(ctx context.Context) (int64, error) {
	userID, ok := middleware.GetUserIDFromContext(ctx)
	if !ok {
		return 0, errors.New("user not found in context")
	}

	return u.notificationRepo.CountUnread(u.db.WithContext(ctx), userID)
}

// MarkRead marks a single notification as read. The update is scoped to
// the caller, so marking someone else's notification reports not found.
func (u *notificationUsecase) MarkRead(ctx context.Context, notificationID uuid.UUID) error {
	userID, ok := middleware.GetUserIDFromContext(ctx)
	if !ok {
		return errors.New("user not found in context")
	}

	rows, err := u.notificationRepo.MarkRead(u.db.WithContext(ctx), notificationID, userID)
	if err != nil {
		u.log.Warnf("Failed to mark notification %s read: %+v", notificationID, err)
		return err
	}
	if rows == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

func (u *notificationUsecase) MarkAllRead(ctx context.Context) error {
	userID, ok := middleware.GetUserIDFromContext(ctx)
	if !ok {
		return errors.New("user not found in context")
	}

	if err := u.notificationRepo.MarkAllRead(u.db.WithContext(ctx), userID); err != nil {
		u.log.Warnf("Failed to mark all notifications read for %s: %+v", userID, err)
		return err
	}
	return nil
}
