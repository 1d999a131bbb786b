package repository

import (
	"telemed-appointments/internal/domain/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AppointmentRepository interface {
	Create(db *gorm.DB, appointment *entity.Appointment) error
	FindByID(db *gorm.DB, id uuid.UUID) (*entity.Appointment, error)
	FindByPatient(db *gorm.DB, patientID uuid.UUID, filter *entity.AppointmentFilter) ([]entity.Appointment, error)
	FindByProvider(db *gorm.DB, providerID uuid.UUID, filter *entity.AppointmentFilter) ([]entity.Appointment, error)

	// UpdateWithVersion persists the mutated appointment only if nobody
	// else committed since it was loaded. Returns affected rows:
	// 1 = success, 0 = concurrent writer won (caller maps to a conflict).
	UpdateWithVersion(db *gorm.DB, appointment *entity.Appointment, loadedVersion int) (int64, error)

	AppendStatusEvent(db *gorm.DB, event *entity.StatusEvent) error

	// CountByStatus aggregates appointment counts per status for one
	// party; role selects whether partyID is matched against the patient
	// or the provider column.
	CountByStatus(db *gorm.DB, partyID uuid.UUID, role string) (*entity.StatusCounts, error)
}
