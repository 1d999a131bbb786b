package repository

import (
	"testing"
	"time"

	"telemed-appointments/internal/domain/entity"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 sqlDB,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	return db, mock
}

func TestUpdateWithVersion_Success(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAppointmentRepository()

	appointment := &entity.Appointment{
		ID:      uuid.New(),
		Status:  entity.AppointmentStatusConfirmed,
		Version: 1,
	}

	mock.ExpectExec(`UPDATE "appointments" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	rows, err := repo.UpdateWithVersion(db, appointment, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows)
	assert.Equal(t, 2, appointment.Version, "version must be bumped for the write")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateWithVersion_StaleVersionAffectsNoRows(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAppointmentRepository()

	appointment := &entity.Appointment{
		ID:      uuid.New(),
		Status:  entity.AppointmentStatusCancelled,
		Version: 1,
	}

	// A concurrent writer already bumped the version; the guarded UPDATE
	// matches nothing
	mock.ExpectExec(`UPDATE "appointments" SET`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	rows, err := repo.UpdateWithVersion(db, appointment, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(0), rows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByPatient_AppliesFilters(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAppointmentRepository()

	patientID := uuid.New()

	mock.ExpectQuery(`SELECT \* FROM "appointments" WHERE patient_id = .+ AND status = .+ AND appointment_date >= .+ ORDER BY appointment_date DESC`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "patient_id", "status"}).
			AddRow(uuid.New(), patientID, "confirmed"))

	appointments, err := repo.FindByPatient(db, patientID, &entity.AppointmentFilter{
		Status:    "confirmed",
		StartDate: "2026-01-01",
	})
	require.NoError(t, err)
	require.Len(t, appointments, 1)
	assert.Equal(t, entity.AppointmentStatusConfirmed, appointments[0].Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCountByStatus_MapsRowsToCounts(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAppointmentRepository()

	providerID := uuid.New()

	mock.ExpectQuery(`SELECT status, COUNT\(\*\) as count FROM "appointments" WHERE provider_id = .+ GROUP BY .*status`).
		WillReturnRows(sqlmock.NewRows([]string{"status", "count"}).
			AddRow("pending", 2).
			AddRow("confirmed", 3).
			AddRow("completed", 5))

	counts, err := repo.CountByStatus(db, providerID, entity.RoleProvider)
	require.NoError(t, err)

	assert.Equal(t, int64(10), counts.Total)
	assert.Equal(t, int64(2), counts.Pending)
	assert.Equal(t, int64(3), counts.Confirmed)
	assert.Equal(t, int64(5), counts.Completed)
	assert.Equal(t, int64(0), counts.Cancelled)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAppendStatusEvent(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAppointmentRepository()

	event := &entity.StatusEvent{
		AppointmentID: uuid.New(),
		Status:        entity.AppointmentStatusConfirmed,
		ChangedBy:     uuid.New(),
		ChangedAt:     time.Now(),
	}

	mock.ExpectQuery(`INSERT INTO "appointment_status_events"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))

	err := repo.AppendStatusEvent(db, event)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
