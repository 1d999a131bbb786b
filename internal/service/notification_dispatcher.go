package service

import (
	"context"
	"fmt"

	"telemed-appointments/internal/domain/entity"
	"telemed-appointments/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// NotificationPayload carries the template variables for one notification
type NotificationPayload struct {
	PatientName     string
	ProviderName    string
	AppointmentDate string
	Reason          string
}

// NotificationDispatcher delivers appointment event notifications.
// Delivery is best-effort: the engine calls Notify only after a state
// change has been persisted, and a failed dispatch must never turn that
// success into a reported failure.
type NotificationDispatcher interface {
	Notify(ctx context.Context, recipientID uuid.UUID, kind entity.NotificationKind, appointmentID uuid.UUID, payload NotificationPayload)
}

type notificationDispatcher struct {
	db               *gorm.DB
	log              *logrus.Logger
	notificationRepo repository.NotificationRepository
}

func NewNotificationDispatcher(db *gorm.DB, log *logrus.Logger, notificationRepo repository.NotificationRepository) NotificationDispatcher {
	return &notificationDispatcher{
		db:               db,
		log:              log,
		notificationRepo: notificationRepo,
	}
}

// Notify renders the template for kind and stores the notification row.
// Errors are logged and swallowed.
func (d *notificationDispatcher) Notify(ctx context.Context, recipientID uuid.UUID, kind entity.NotificationKind, appointmentID uuid.UUID, payload NotificationPayload) {
	title, message, priority, err := renderTemplate(kind, payload)
	if err != nil {
		d.log.Errorf("Notification dispatch skipped for appointment %s: %+v", appointmentID, err)
		return
	}

	notification := &entity.Notification{
		RecipientID:   recipientID,
		Kind:          kind,
		Title:         title,
		Message:       message,
		Priority:      priority,
		AppointmentID: &appointmentID,
	}

	if err := d.notificationRepo.Create(d.db.WithContext(ctx), notification); err != nil {
		d.log.Warnf("Failed to dispatch %s notification for appointment %s (non-fatal): %+v", kind, appointmentID, err)
		return
	}

	d.log.Debugf("Notification dispatched: kind=%s, recipient=%s, appointment=%s", kind, recipientID, appointmentID)
}

// renderTemplate maps a notification kind to its title, message and
// priority. The switch is exhaustive over the closed kind set; an unknown
// kind is a programming error surfaced to the dispatcher's log.
func renderTemplate(kind entity.NotificationKind, p NotificationPayload) (string, string, entity.NotificationPriority, error) {
	switch kind {
	case entity.NotificationAppointmentBooked:
		name := p.PatientName
		if name == "" {
			name = "a patient"
		}
		return "New Appointment Request",
			fmt.Sprintf("You have received a new appointment request from %s.", name),
			entity.NotificationPriorityHigh, nil

	case entity.NotificationAppointmentConfirmed:
		name := p.ProviderName
		if name == "" {
			name = "the provider"
		}
		date := p.AppointmentDate
		if date == "" {
			date = "the scheduled date"
		}
		return "Appointment Confirmed",
			fmt.Sprintf("Your appointment with %s has been confirmed for %s.", name, date),
			entity.NotificationPriorityHigh, nil

	case entity.NotificationAppointmentRejected:
		message := "Your appointment request has been rejected."
		if p.Reason != "" {
			message = fmt.Sprintf("%s %s", message, p.Reason)
		}
		return "Appointment Rejected", message, entity.NotificationPriorityMedium, nil

	case entity.NotificationAppointmentCancelled:
		message := "An appointment has been cancelled."
		if p.Reason != "" {
			message = fmt.Sprintf("%s %s", message, p.Reason)
		}
		return "Appointment Cancelled", message, entity.NotificationPriorityMedium, nil

	case entity.NotificationAppointmentCompleted:
		name := p.ProviderName
		if name == "" {
			name = p.PatientName
		}
		if name == "" {
			name = "the provider"
		}
		return "Appointment Completed",
			fmt.Sprintf("Your appointment with %s has been completed.", name),
			entity.NotificationPriorityLow, nil
	}

	return "", "", "", fmt.Errorf("unknown notification kind %q", kind)
}
