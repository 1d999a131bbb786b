package repository

import (
	"errors"

	"telemed-appointments/internal/domain/entity"
	domainRepo "telemed-appointments/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type appointmentRepository struct{}

func NewAppointmentRepository() domainRepo.AppointmentRepository {
	return &appointmentRepository{}
}

// transitionColumns are the fields a lifecycle transition may mutate.
// Listed explicitly so zero values (cleared pointers, empty strings)
// still reach the UPDATE.
var transitionColumns = []string{
	"status",
	"rejection_reason",
	"cancellation_reason",
	"cancelled_by",
	"video_call_enabled",
	"meeting_code",
	"meeting_code_generated_at",
	"video_call_started_at",
	"video_call_ended_at",
	"doctor_notes",
	"prescription_reference",
	"confirmed_at",
	"completed_at",
	"version",
	"updated_at",
}

func (r *appointmentRepository) Create(db *gorm.DB, appointment *entity.Appointment) error {
	return db.Create(appointment).Error
}

func (r *appointmentRepository) FindByID(db *gorm.DB, id uuid.UUID) (*entity.Appointment, error) {
	var appointment entity.Appointment
	err := db.Preload("StatusHistory", func(db *gorm.DB) *gorm.DB {
		return db.Order("appointment_status_events.changed_at ASC, appointment_status_events.id ASC")
	}).Where("id = ?", id).First(&appointment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &appointment, nil
}

func (r *appointmentRepository) FindByPatient(db *gorm.DB, patientID uuid.UUID, filter *entity.AppointmentFilter) ([]entity.Appointment, error) {
	return r.findByParty(db, "patient_id", patientID, filter)
}

func (r *appointmentRepository) FindByProvider(db *gorm.DB, providerID uuid.UUID, filter *entity.AppointmentFilter) ([]entity.Appointment, error) {
	return r.findByParty(db, "provider_id", providerID, filter)
}

func (r *appointmentRepository) findByParty(db *gorm.DB, column string, partyID uuid.UUID, filter *entity.AppointmentFilter) ([]entity.Appointment, error) {
	query := db.Where(column+" = ?", partyID)

	if filter != nil {
		if filter.Status != "" {
			query = query.Where("status = ?", filter.Status)
		}
		if filter.StartDate != "" {
			query = query.Where("appointment_date >= ?", filter.StartDate)
		}
		if filter.EndDate != "" {
			query = query.Where("appointment_date <= ?", filter.EndDate)
		}
	}

	var appointments []entity.Appointment
	err := query.Order("appointment_date DESC").Find(&appointments).Error
	if err != nil {
		return nil, err
	}
	return appointments, nil
}

// UpdateWithVersion commits a transition only when the row version still
// matches what the caller loaded. Zero affected rows means a concurrent
// writer committed first; the caller retries from a fresh read.
func (r *appointmentRepository) UpdateWithVersion(db *gorm.DB, appointment *entity.Appointment, loadedVersion int) (int64, error) {
	appointment.Version = loadedVersion + 1

	result := db.Model(&entity.Appointment{}).
		Where("id = ? AND version = ?", appointment.ID, loadedVersion).
		Select(transitionColumns).
		Updates(appointment)
	return result.RowsAffected, result.Error
}

func (r *appointmentRepository) AppendStatusEvent(db *gorm.DB, event *entity.StatusEvent) error {
	return db.Create(event).Error
}

func (r *appointmentRepository) CountByStatus(db *gorm.DB, partyID uuid.UUID, role string) (*entity.StatusCounts, error) {
	column := "patient_id"
	if role == entity.RoleProvider {
		column = "provider_id"
	}

	type statusCount struct {
		Status entity.AppointmentStatus
		Count  int64
	}
	var rows []statusCount

	err := db.Model(&entity.Appointment{}).
		Select("status, COUNT(*) as count").
		Where(column+" = ?", partyID).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := &entity.StatusCounts{}
	for _, row := range rows {
		counts.Total += row.Count
		switch row.Status {
		case entity.AppointmentStatusPending:
			counts.Pending = row.Count
		case entity.AppointmentStatusConfirmed:
			counts.Confirmed = row.Count
		case entity.AppointmentStatusRejected:
			counts.Rejected = row.Count
		case entity.AppointmentStatusCancelled:
			counts.Cancelled = row.Count
		case entity.AppointmentStatusCompleted:
			counts.Completed = row.Count
		}
	}
	return counts, nil
}
