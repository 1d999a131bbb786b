package usecase

import (
	"context"
	"strings"
	"testing"

	"telemed-appointments/internal/delivery/dto"
	"telemed-appointments/internal/delivery/http/middleware"
	"telemed-appointments/internal/domain/entity"
	"telemed-appointments/internal/service"
	"telemed-appointments/pkg/fees"
	"telemed-appointments/pkg/meetingcode"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ---------------------------------------------------------------------------
// Mocks
// ---------------------------------------------------------------------------

type mockAppointmentRepo struct {
	createFn            func(appointment *entity.Appointment) error
	findByIDFn          func(id uuid.UUID) (*entity.Appointment, error)
	updateWithVersionFn func(appointment *entity.Appointment, loadedVersion int) (int64, error)
	countByStatusFn     func(partyID uuid.UUID, role string) (*entity.StatusCounts, error)

	appendedEvents []entity.StatusEvent
	countCalls     int
}

func (m *mockAppointmentRepo) Create(db *gorm.DB, appointment *entity.Appointment) error {
	return m.createFn(appointment)
}

func (m *mockAppointmentRepo) FindByID(db *gorm.DB, id uuid.UUID) (*entity.Appointment, error) {
	return m.findByIDFn(id)
}

func (m *mockAppointmentRepo) FindByPatient(db *gorm.DB, patientID uuid.UUID, filter *entity.AppointmentFilter) ([]entity.Appointment, error) {
	return nil, nil
}

func (m *mockAppointmentRepo) FindByProvider(db *gorm.DB, providerID uuid.UUID, filter *entity.AppointmentFilter) ([]entity.Appointment, error) {
	return nil, nil
}

func (m *mockAppointmentRepo) UpdateWithVersion(db *gorm.DB, appointment *entity.Appointment, loadedVersion int) (int64, error) {
	return m.updateWithVersionFn(appointment, loadedVersion)
}

func (m *mockAppointmentRepo) AppendStatusEvent(db *gorm.DB, event *entity.StatusEvent) error {
	m.appendedEvents = append(m.appendedEvents, *event)
	return nil
}

func (m *mockAppointmentRepo) CountByStatus(db *gorm.DB, partyID uuid.UUID, role string) (*entity.StatusCounts, error) {
	m.countCalls++
	return m.countByStatusFn(partyID, role)
}

type mockProviderRepo struct {
	profile *entity.ProviderProfile
}

func (m *mockProviderRepo) Create(db *gorm.DB, profile *entity.ProviderProfile) error { return nil }
func (m *mockProviderRepo) FindByUserID(db *gorm.DB, userID uuid.UUID) (*entity.ProviderProfile, error) {
	return m.profile, nil
}
func (m *mockProviderRepo) FindAll(db *gorm.DB) ([]entity.ProviderProfile, error) { return nil, nil }
func (m *mockProviderRepo) Update(db *gorm.DB, profile *entity.ProviderProfile) error {
	return nil
}

type mockUserRepo struct {
	users map[uuid.UUID]*entity.User
}

func (m *mockUserRepo) Create(db *gorm.DB, user *entity.User) error { return nil }
func (m *mockUserRepo) FindByEmail(db *gorm.DB, email string) (*entity.User, error) {
	return nil, gorm.ErrRecordNotFound
}
func (m *mockUserRepo) FindByID(db *gorm.DB, id uuid.UUID) (*entity.User, error) {
	if user, ok := m.users[id]; ok {
		return user, nil
	}
	return nil, gorm.ErrRecordNotFound
}
func (m *mockUserRepo) Update(db *gorm.DB, user *entity.User) error { return nil }

type dispatchedNotification struct {
	recipientID uuid.UUID
	kind        entity.NotificationKind
	payload     service.NotificationPayload
}

type mockDispatcher struct {
	dispatched []dispatchedNotification
}

func (m *mockDispatcher) Notify(ctx context.Context, recipientID uuid.UUID, kind entity.NotificationKind, appointmentID uuid.UUID, payload service.NotificationPayload) {
	m.dispatched = append(m.dispatched, dispatchedNotification{recipientID: recipientID, kind: kind, payload: payload})
}

type mockAuditService struct{}

func (m *mockAuditService) LogCreate(ctx context.Context, tx *gorm.DB, userID *uuid.UUID, action string, entityName string, entityID string, newValue interface{}) error {
	return nil
}
func (m *mockAuditService) LogUpdate(ctx context.Context, tx *gorm.DB, userID *uuid.UUID, action string, entityName string, entityID string, oldValue, newValue interface{}) error {
	return nil
}
func (m *mockAuditService) LogDelete(ctx context.Context, tx *gorm.DB, userID *uuid.UUID, action string, entityName string, entityID string, oldValue interface{}) error {
	return nil
}

// ---------------------------------------------------------------------------
// Fixture
// ---------------------------------------------------------------------------

type usecaseFixture struct {
	usecase         AppointmentUsecase
	appointmentRepo *mockAppointmentRepo
	providerRepo    *mockProviderRepo
	userRepo        *mockUserRepo
	dispatcher      *mockDispatcher
	sqlMock         sqlmock.Sqlmock
}

func newFixture(t *testing.T) *usecaseFixture {
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

	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = redisClient.Close() })

	log := logrus.New()
	appointmentRepo := &mockAppointmentRepo{}
	providerRepo := &mockProviderRepo{}
	userRepo := &mockUserRepo{users: map[uuid.UUID]*entity.User{}}
	dispatcher := &mockDispatcher{}

	uc := NewAppointmentUsecase(
		db, log,
		appointmentRepo, providerRepo, userRepo,
		fees.NewCalculator(0.10),
		meetingcode.NewIssuer(),
		dispatcher,
		service.NewStatsCache(redisClient, log),
		&mockAuditService{},
		"INR",
	)

	return &usecaseFixture{
		usecase:         uc,
		appointmentRepo: appointmentRepo,
		providerRepo:    providerRepo,
		userRepo:        userRepo,
		dispatcher:      dispatcher,
		sqlMock:         mock,
	}
}

func authedContext(userID uuid.UUID, roleID int) context.Context {
	ctx := context.WithValue(context.Background(), middleware.UserIDKey, userID)
	return context.WithValue(ctx, middleware.RoleIDKey, roleID)
}

func pendingTeleAppointment(patientID, providerID uuid.UUID) *entity.Appointment {
	return &entity.Appointment{
		ID:               uuid.New(),
		PatientID:        patientID,
		ProviderID:       providerID,
		Status:           entity.AppointmentStatusPending,
		ConsultationMode: entity.ConsultationModeTele,
		Version:          1,
	}
}

// ---------------------------------------------------------------------------
// Book
// ---------------------------------------------------------------------------

func TestBook_HappyPath(t *testing.T) {
	f := newFixture(t)
	patientID := uuid.New()
	providerID := uuid.New()

	f.providerRepo.profile = &entity.ProviderProfile{
		UserID:              providerID,
		ConsultationFee:     500,
		ConsultationFeeCurr: "INR",
		IsApproved:          true,
		User:                entity.User{ID: providerID, IsActive: true, FullName: "Dr. Mehta"},
	}
	f.userRepo.users[patientID] = &entity.User{ID: patientID, FullName: "Asha Rao"}

	var created *entity.Appointment
	f.appointmentRepo.createFn = func(appointment *entity.Appointment) error {
		appointment.ID = uuid.New()
		created = appointment
		return nil
	}

	f.sqlMock.ExpectBegin()
	f.sqlMock.ExpectCommit()

	resp, err := f.usecase.Book(authedContext(patientID, entity.RoleIDPatient), &dto.BookAppointmentRequest{
		ProviderID:       providerID,
		AppointmentDate:  "2026-03-01",
		StartTime:        "10:00",
		EndTime:          "10:30",
		ConsultationMode: "tele",
		ReasonForVisit:   "persistent headache",
	})
	require.NoError(t, err)
	require.NotNil(t, created)

	assert.Equal(t, entity.AppointmentStatusPending, created.Status)
	assert.Equal(t, int64(500), created.Payment.ProviderFee)
	assert.Equal(t, int64(50), created.Payment.PlatformFee)
	assert.Equal(t, int64(550), created.Payment.TotalAmount)
	assert.Equal(t, "INR", created.Payment.Currency)
	assert.Equal(t, entity.PaymentStatusCompleted, created.Payment.PaymentStatus)
	assert.True(t, strings.HasPrefix(created.Payment.PaymentID, "MOCK_"))
	assert.Equal(t, "mock_payment", created.Payment.PaymentMethod)

	require.Len(t, created.StatusHistory, 1)
	assert.Equal(t, entity.AppointmentStatusPending, created.StatusHistory[0].Status)
	assert.Equal(t, patientID, created.StatusHistory[0].ChangedBy)

	// The provider hears about the new request
	require.Len(t, f.dispatcher.dispatched, 1)
	assert.Equal(t, providerID, f.dispatcher.dispatched[0].recipientID)
	assert.Equal(t, entity.NotificationAppointmentBooked, f.dispatcher.dispatched[0].kind)
	assert.Equal(t, "Asha Rao", f.dispatcher.dispatched[0].payload.PatientName)

	assert.Equal(t, "pending", resp.Status)
	require.NoError(t, f.sqlMock.ExpectationsWereMet())
}

func TestBook_UnapprovedProviderIsUnavailable(t *testing.T) {
	f := newFixture(t)
	patientID := uuid.New()
	providerID := uuid.New()

	f.providerRepo.profile = &entity.ProviderProfile{
		UserID:          providerID,
		ConsultationFee: 500,
		IsApproved:      false,
		User:            entity.User{ID: providerID, IsActive: true},
	}

	_, err := f.usecase.Book(authedContext(patientID, entity.RoleIDPatient), &dto.BookAppointmentRequest{
		ProviderID:       providerID,
		AppointmentDate:  "2026-03-01",
		StartTime:        "10:00",
		EndTime:          "10:30",
		ConsultationMode: "tele",
		ReasonForVisit:   "checkup",
	})
	assert.ErrorIs(t, err, ErrProviderUnavailable)
	assert.Empty(t, f.dispatcher.dispatched)
}

func TestBook_RejectsBadDate(t *testing.T) {
	f := newFixture(t)

	_, err := f.usecase.Book(authedContext(uuid.New(), entity.RoleIDPatient), &dto.BookAppointmentRequest{
		ProviderID:       uuid.New(),
		AppointmentDate:  "01-03-2026",
		StartTime:        "10:00",
		EndTime:          "10:30",
		ConsultationMode: "tele",
		ReasonForVisit:   "checkup",
	})
	assert.ErrorIs(t, err, ErrInvalidDateFormat)
}

// ---------------------------------------------------------------------------
// Transition
// ---------------------------------------------------------------------------

func TestTransition_ProviderConfirmsTele(t *testing.T) {
	f := newFixture(t)
	patientID := uuid.New()
	providerID := uuid.New()

	appointment := pendingTeleAppointment(patientID, providerID)
	f.appointmentRepo.findByIDFn = func(id uuid.UUID) (*entity.Appointment, error) {
		return appointment, nil
	}
	f.appointmentRepo.updateWithVersionFn = func(a *entity.Appointment, loadedVersion int) (int64, error) {
		assert.Equal(t, 1, loadedVersion)
		return 1, nil
	}
	f.userRepo.users[providerID] = &entity.User{ID: providerID, FullName: "Dr. Mehta"}

	f.sqlMock.ExpectBegin()
	f.sqlMock.ExpectCommit()

	resp, err := f.usecase.Transition(authedContext(providerID, entity.RoleIDProvider), appointment.ID, &dto.TransitionAppointmentRequest{
		Status: "confirmed",
	})
	require.NoError(t, err)

	assert.Equal(t, "confirmed", resp.Status)
	assert.True(t, appointment.VideoCallEnabled)
	assert.NotEmpty(t, appointment.MeetingCode)

	require.Len(t, f.appointmentRepo.appendedEvents, 1)
	assert.Equal(t, entity.AppointmentStatusConfirmed, f.appointmentRepo.appendedEvents[0].Status)

	// The patient hears about the confirmation
	require.Len(t, f.dispatcher.dispatched, 1)
	assert.Equal(t, patientID, f.dispatcher.dispatched[0].recipientID)
	assert.Equal(t, entity.NotificationAppointmentConfirmed, f.dispatcher.dispatched[0].kind)
	require.NoError(t, f.sqlMock.ExpectationsWereMet())
}

func TestTransition_PatientCannotConfirm(t *testing.T) {
	f := newFixture(t)
	patientID := uuid.New()
	providerID := uuid.New()

	appointment := pendingTeleAppointment(patientID, providerID)
	f.appointmentRepo.findByIDFn = func(id uuid.UUID) (*entity.Appointment, error) {
		return appointment, nil
	}

	_, err := f.usecase.Transition(authedContext(patientID, entity.RoleIDPatient), appointment.ID, &dto.TransitionAppointmentRequest{
		Status: "confirmed",
	})
	assert.ErrorIs(t, err, ErrForbidden)
	assert.Equal(t, entity.AppointmentStatusPending, appointment.Status)
}

func TestTransition_PatientCancelNotifiesProvider(t *testing.T) {
	f := newFixture(t)
	patientID := uuid.New()
	providerID := uuid.New()

	appointment := pendingTeleAppointment(patientID, providerID)
	f.appointmentRepo.findByIDFn = func(id uuid.UUID) (*entity.Appointment, error) {
		return appointment, nil
	}
	f.appointmentRepo.updateWithVersionFn = func(a *entity.Appointment, loadedVersion int) (int64, error) {
		return 1, nil
	}

	f.sqlMock.ExpectBegin()
	f.sqlMock.ExpectCommit()

	_, err := f.usecase.Transition(authedContext(patientID, entity.RoleIDPatient), appointment.ID, &dto.TransitionAppointmentRequest{
		Status: "cancelled",
		Reason: "cannot make it",
	})
	require.NoError(t, err)

	assert.Equal(t, entity.CancelActorPatient, appointment.CancelledBy)
	assert.Equal(t, "cannot make it", appointment.CancellationReason)

	require.Len(t, f.dispatcher.dispatched, 1)
	assert.Equal(t, providerID, f.dispatcher.dispatched[0].recipientID)
	assert.Equal(t, entity.NotificationAppointmentCancelled, f.dispatcher.dispatched[0].kind)
}

func TestTransition_StaleVersionIsConflict(t *testing.T) {
	f := newFixture(t)
	patientID := uuid.New()
	providerID := uuid.New()

	appointment := pendingTeleAppointment(patientID, providerID)
	appointment.ConsultationMode = entity.ConsultationModeInPerson
	f.appointmentRepo.findByIDFn = func(id uuid.UUID) (*entity.Appointment, error) {
		return appointment, nil
	}
	f.appointmentRepo.updateWithVersionFn = func(a *entity.Appointment, loadedVersion int) (int64, error) {
		return 0, nil
	}

	f.sqlMock.ExpectBegin()
	f.sqlMock.ExpectRollback()

	_, err := f.usecase.Transition(authedContext(providerID, entity.RoleIDProvider), appointment.ID, &dto.TransitionAppointmentRequest{
		Status: "confirmed",
	})
	assert.ErrorIs(t, err, ErrConflict)
	assert.Empty(t, f.dispatcher.dispatched)
}

func TestTransition_TerminalAppointmentIsRejected(t *testing.T) {
	f := newFixture(t)
	patientID := uuid.New()
	providerID := uuid.New()

	appointment := pendingTeleAppointment(patientID, providerID)
	appointment.Status = entity.AppointmentStatusCompleted
	f.appointmentRepo.findByIDFn = func(id uuid.UUID) (*entity.Appointment, error) {
		return appointment, nil
	}

	_, err := f.usecase.Transition(authedContext(providerID, entity.RoleIDProvider), appointment.ID, &dto.TransitionAppointmentRequest{
		Status: "cancelled",
		Reason: "too late",
	})
	assert.ErrorIs(t, err, entity.ErrInvalidTransition)
}

// ---------------------------------------------------------------------------
// Complete
// ---------------------------------------------------------------------------

func TestComplete_RecordsClinicalNotes(t *testing.T) {
	f := newFixture(t)
	patientID := uuid.New()
	providerID := uuid.New()

	appointment := pendingTeleAppointment(patientID, providerID)
	appointment.Status = entity.AppointmentStatusConfirmed
	f.appointmentRepo.findByIDFn = func(id uuid.UUID) (*entity.Appointment, error) {
		return appointment, nil
	}
	f.appointmentRepo.updateWithVersionFn = func(a *entity.Appointment, loadedVersion int) (int64, error) {
		return 1, nil
	}
	f.userRepo.users[providerID] = &entity.User{ID: providerID, FullName: "Dr. Mehta"}

	f.sqlMock.ExpectBegin()
	f.sqlMock.ExpectCommit()

	resp, err := f.usecase.Complete(authedContext(providerID, entity.RoleIDProvider), appointment.ID, &dto.CompleteAppointmentRequest{
		DoctorNotes:           "Rest and hydration",
		PrescriptionReference: "RX-1001",
	})
	require.NoError(t, err)

	assert.Equal(t, "completed", resp.Status)
	assert.Equal(t, "Rest and hydration", appointment.DoctorNotes)
	assert.Equal(t, "RX-1001", appointment.PrescriptionReference)
	require.NotNil(t, appointment.CompletedAt)
}

func TestComplete_RequiresConfirmedStatus(t *testing.T) {
	f := newFixture(t)
	patientID := uuid.New()
	providerID := uuid.New()

	appointment := pendingTeleAppointment(patientID, providerID)
	f.appointmentRepo.findByIDFn = func(id uuid.UUID) (*entity.Appointment, error) {
		return appointment, nil
	}

	_, err := f.usecase.Complete(authedContext(providerID, entity.RoleIDProvider), appointment.ID, &dto.CompleteAppointmentRequest{})
	assert.ErrorIs(t, err, ErrInvalidState)
}

// ---------------------------------------------------------------------------
// Stats
// ---------------------------------------------------------------------------

func TestGetStats_SecondReadServedFromCache(t *testing.T) {
	f := newFixture(t)
	patientID := uuid.New()

	f.appointmentRepo.countByStatusFn = func(partyID uuid.UUID, role string) (*entity.StatusCounts, error) {
		return &entity.StatusCounts{Total: 4, Pending: 1, Confirmed: 3}, nil
	}

	ctx := authedContext(patientID, entity.RoleIDPatient)

	first, err := f.usecase.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), first.Total)

	second, err := f.usecase.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), second.Total)

	assert.Equal(t, 1, f.appointmentRepo.countCalls, "second read must hit the cache")
}
