package converter

import (
	"telemed-appointments/internal/delivery/dto"
	"telemed-appointments/internal/domain/entity"
)

// NotificationToResponse converts a Notification entity to its response DTO
func NotificationToResponse(notification *entity.Notification) *dto.NotificationResponse {
	if notification == nil {
		return nil
	}
	return &dto.NotificationResponse{
		ID:            notification.ID,
		Kind:          string(notification.Kind),
		Title:         notification.Title,
		Message:       notification.Message,
		Priority:      string(notification.Priority),
		AppointmentID: notification.AppointmentID,
		IsRead:        notification.IsRead,
		ReadAt:        notification.ReadAt,
		CreatedAt:     notification.CreatedAt,
	}
}

// NotificationsToResponses converts a slice of Notification entities to DTOs
func NotificationsToResponses(notifications []entity.Notification) []dto.NotificationResponse {
	responses := make([]dto.NotificationResponse, len(notifications))
	for i, notification := range notifications {
		resp := NotificationToResponse(&notification)
		if resp != nil {
			responses[i] = *resp
		}
	}
	return responses
}
