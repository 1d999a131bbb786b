package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"telemed-appointments/internal/converter"
	"telemed-appointments/internal/delivery/dto"
	"telemed-appointments/internal/delivery/http/middleware"
	"telemed-appointments/internal/domain/entity"
	"telemed-appointments/internal/domain/repository"
	"telemed-appointments/internal/service"
	"telemed-appointments/pkg/fees"
	"telemed-appointments/pkg/meetingcode"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	ErrInvalidTimeFormat   = errors.New("invalid time format, use HH:MM")
	ErrAppointmentNotFound = errors.New("appointment not found")
	ErrProviderUnavailable = errors.New("provider not found or not accepting bookings")
	ErrForbidden           = errors.New("you are not permitted to perform this action")
	ErrConflict            = errors.New("appointment was modified concurrently, please retry")
	ErrInvalidState        = errors.New("only confirmed appointments can be completed")
	ErrInvalidTargetStatus = errors.New("unknown target status")
	ErrReasonRequired      = errors.New("reason for visit is required")
	ErrVideoCallNotActive  = errors.New("video call is not available for this appointment")
)

type AppointmentUsecase interface {
	Book(ctx context.Context, req *dto.BookAppointmentRequest) (*dto.AppointmentResponse, error)
	Transition(ctx context.Context, appointmentID uuid.UUID, req *dto.TransitionAppointmentRequest) (*dto.AppointmentResponse, error)
	Complete(ctx context.Context, appointmentID uuid.UUID, req *dto.CompleteAppointmentRequest) (*dto.AppointmentResponse, error)
	StartVideoCall(ctx context.Context, appointmentID uuid.UUID) (*dto.AppointmentResponse, error)
	EndVideoCall(ctx context.Context, appointmentID uuid.UUID) (*dto.AppointmentResponse, error)
	GetByID(ctx context.Context, appointmentID uuid.UUID) (*dto.AppointmentResponse, error)
	ListByPatient(ctx context.Context, filter *entity.AppointmentFilter) (*dto.AppointmentListResponse, error)
	ListByProvider(ctx context.Context, filter *entity.AppointmentFilter) (*dto.AppointmentListResponse, error)
	GetStats(ctx context.Context) (*dto.AppointmentStatsResponse, error)
}

type appointmentUsecase struct {
	db              *gorm.DB
	log             *logrus.Logger
	appointmentRepo repository.AppointmentRepository
	providerRepo    repository.ProviderProfileRepository
	userRepo        repository.UserRepository
	feeCalc         *fees.Calculator
	issuer          *meetingcode.Issuer
	dispatcher      service.NotificationDispatcher
	statsCache      *service.StatsCache
	auditService    service.AuditService
	defaultCurrency string
}

func NewAppointmentUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	appointmentRepo repository.AppointmentRepository,
	providerRepo repository.ProviderProfileRepository,
	userRepo repository.UserRepository,
	feeCalc *fees.Calculator,
	issuer *meetingcode.Issuer,
	dispatcher service.NotificationDispatcher,
	statsCache *service.StatsCache,
	auditService service.AuditService,
	defaultCurrency string,
) AppointmentUsecase {
	return &appointmentUsecase{
		db:              db,
		log:             log,
		appointmentRepo: appointmentRepo,
		providerRepo:    providerRepo,
		userRepo:        userRepo,
		feeCalc:         feeCalc,
		issuer:          issuer,
		dispatcher:      dispatcher,
		statsCache:      statsCache,
		auditService:    auditService,
		defaultCurrency: defaultCurrency,
	}
}

// Book creates a new appointment in pending status.
//
// Flow:
// 1. Validate the provider exists and is bookable
// 2. Compute the fee breakdown from the provider's base fee (exactly once)
// 3. Persist the appointment with its initial status history entry
// 4. Dispatch appointment_booked to the provider (after commit, best-effort)
func (u *appointmentUsecase) Book(ctx context.Context, req *dto.BookAppointmentRequest) (*dto.AppointmentResponse, error) {
	userID, ok := middleware.GetUserIDFromContext(ctx)
	if !ok {
		return nil, errors.New("user not found in context")
	}

	appointmentDate, err := time.Parse("2006-01-02", req.AppointmentDate)
	if err != nil {
		return nil, ErrInvalidDateFormat
	}
	if _, err := time.Parse("15:04", req.StartTime); err != nil {
		return nil, ErrInvalidTimeFormat
	}
	if _, err := time.Parse("15:04", req.EndTime); err != nil {
		return nil, ErrInvalidTimeFormat
	}
	if req.ReasonForVisit == "" {
		return nil, ErrReasonRequired
	}

	// Step 1: provider must exist, be active and approved
	provider, err := u.providerRepo.FindByUserID(u.db.WithContext(ctx), req.ProviderID)
	if err != nil {
		u.log.Warnf("Failed to find provider %s: %+v", req.ProviderID, err)
		return nil, err
	}
	if provider == nil || !provider.IsBookable() {
		return nil, ErrProviderUnavailable
	}

	// Step 2: fee breakdown, computed once and stored
	breakdown, err := u.feeCalc.Compute(provider.ConsultationFee)
	if err != nil {
		return nil, err
	}

	currency := provider.ConsultationFeeCurr
	if currency == "" {
		currency = u.defaultCurrency
	}

	now := time.Now()
	appointment := &entity.Appointment{
		PatientID:        userID,
		ProviderID:       req.ProviderID,
		AppointmentDate:  appointmentDate,
		StartTime:        req.StartTime,
		EndTime:          req.EndTime,
		ConsultationMode: entity.ConsultationMode(req.ConsultationMode),
		ReasonForVisit:   req.ReasonForVisit,
		Symptoms:         req.Symptoms,
		PreDiagnosisID:   req.PreDiagnosisID,
		Status:           entity.AppointmentStatusPending,
		Payment:          u.buildMockPayment(breakdown, currency, req.Payment, now),
		Version:          1,
		StatusHistory: []entity.StatusEvent{{
			Status:    entity.AppointmentStatusPending,
			ChangedBy: userID,
			ChangedAt: now,
			Notes:     "Appointment created",
		}},
	}

	// Step 3: persist appointment + initial history entry
	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	if err := u.appointmentRepo.Create(tx, appointment); err != nil {
		u.log.Errorf("Failed to create appointment: %+v", err)
		return nil, err
	}

	if err := u.auditService.LogCreate(ctx, tx, &userID, entity.AuditActionAppointmentBook, "appointment", appointment.ID.String(), appointment); err != nil {
		u.log.Warnf("Failed to log audit: %+v", err)
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		u.log.Warnf("Failed commit transaction: %+v", err)
		return nil, err
	}

	// Step 4: notify the provider, invalidate cached stats
	patientName := u.lookupUserName(ctx, userID)
	u.dispatcher.Notify(ctx, appointment.ProviderID, entity.NotificationAppointmentBooked, appointment.ID, service.NotificationPayload{
		PatientName:     patientName,
		AppointmentDate: appointment.AppointmentDate.Format("2006-01-02"),
	})
	u.statsCache.Invalidate(ctx, appointment.PatientID.String(), appointment.ProviderID.String())

	u.log.Infof("Appointment booked: id=%s, provider=%s, total=%d %s", appointment.ID, appointment.ProviderID, breakdown.TotalAmount, currency)
	return converter.AppointmentToResponse(appointment), nil
}

// Transition moves an appointment to a new lifecycle status.
//
// Flow:
// 1. Load the appointment and check the actor may request this transition
// 2. Apply the pure state machine to the in-memory snapshot
// 3. Persist with a version check; a stale writer fails with ErrConflict
// 4. Dispatch the matching notification (after commit, best-effort)
func (u *appointmentUsecase) Transition(ctx context.Context, appointmentID uuid.UUID, req *dto.TransitionAppointmentRequest) (*dto.AppointmentResponse, error) {
	userID, ok := middleware.GetUserIDFromContext(ctx)
	if !ok {
		return nil, errors.New("user not found in context")
	}
	roleID, _ := middleware.GetRoleIDFromContext(ctx)

	target := entity.AppointmentStatus(req.Status)
	switch target {
	case entity.AppointmentStatusConfirmed, entity.AppointmentStatusRejected,
		entity.AppointmentStatusCancelled, entity.AppointmentStatusCompleted:
	default:
		return nil, ErrInvalidTargetStatus
	}

	appointment, err := u.loadAppointment(ctx, appointmentID)
	if err != nil {
		return nil, err
	}

	if err := checkTransitionPermission(appointment, target, userID, roleID); err != nil {
		return nil, err
	}

	reason := req.Reason
	if reason == "" {
		reason = req.Notes
	}

	input := entity.TransitionInput{
		Target:  target,
		ActorID: userID,
		Notes:   req.Notes,
		Reason:  reason,
	}
	if target == entity.AppointmentStatusCancelled {
		input.CancelledBy = cancelActorForRole(roleID)
	}

	if err := u.applyAndPersist(ctx, appointment, input); err != nil {
		return nil, err
	}

	u.notifyTransition(ctx, appointment, target, userID)
	u.statsCache.Invalidate(ctx, appointment.PatientID.String(), appointment.ProviderID.String())

	u.log.Infof("Appointment %s transitioned to %s by %s", appointment.ID, target, userID)
	return converter.AppointmentToResponse(appointment), nil
}

// Complete closes out a confirmed appointment with clinical notes.
// It behaves as a completed transition plus the close-out fields.
func (u *appointmentUsecase) Complete(ctx context.Context, appointmentID uuid.UUID, req *dto.CompleteAppointmentRequest) (*dto.AppointmentResponse, error) {
	userID, ok := middleware.GetUserIDFromContext(ctx)
	if !ok {
		return nil, errors.New("user not found in context")
	}
	roleID, _ := middleware.GetRoleIDFromContext(ctx)

	appointment, err := u.loadAppointment(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if !appointment.IsConfirmed() {
		return nil, ErrInvalidState
	}
	if err := checkTransitionPermission(appointment, entity.AppointmentStatusCompleted, userID, roleID); err != nil {
		return nil, err
	}

	appointment.DoctorNotes = req.DoctorNotes
	appointment.PrescriptionReference = req.PrescriptionReference

	input := entity.TransitionInput{
		Target:  entity.AppointmentStatusCompleted,
		ActorID: userID,
		Notes:   "Appointment completed",
	}

	if err := u.applyAndPersist(ctx, appointment, input); err != nil {
		return nil, err
	}

	u.notifyTransition(ctx, appointment, entity.AppointmentStatusCompleted, userID)
	u.statsCache.Invalidate(ctx, appointment.PatientID.String(), appointment.ProviderID.String())

	u.log.Infof("Appointment %s completed by %s", appointment.ID, userID)
	return converter.AppointmentToResponse(appointment), nil
}

// StartVideoCall records the start of the video session for a confirmed
// tele appointment. Either party may start the call.
func (u *appointmentUsecase) StartVideoCall(ctx context.Context, appointmentID uuid.UUID) (*dto.AppointmentResponse, error) {
	userID, ok := middleware.GetUserIDFromContext(ctx)
	if !ok {
		return nil, errors.New("user not found in context")
	}

	appointment, err := u.loadAppointment(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if appointment.PatientID != userID && appointment.ProviderID != userID {
		return nil, ErrForbidden
	}
	if !appointment.IsConfirmed() || !appointment.VideoCallEnabled {
		return nil, ErrVideoCallNotActive
	}

	if appointment.VideoCallStartedAt == nil {
		now := time.Now()
		appointment.VideoCallStartedAt = &now
		if err := u.persistWithVersion(ctx, appointment, nil, &userID, entity.AuditActionVideoCallStart); err != nil {
			return nil, err
		}
	}

	return converter.AppointmentToResponse(appointment), nil
}

// EndVideoCall records the end of an in-progress video session
func (u *appointmentUsecase) EndVideoCall(ctx context.Context, appointmentID uuid.UUID) (*dto.AppointmentResponse, error) {
	userID, ok := middleware.GetUserIDFromContext(ctx)
	if !ok {
		return nil, errors.New("user not found in context")
	}

	appointment, err := u.loadAppointment(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if appointment.PatientID != userID && appointment.ProviderID != userID {
		return nil, ErrForbidden
	}
	if appointment.VideoCallStartedAt == nil {
		return nil, ErrVideoCallNotActive
	}

	if appointment.VideoCallEndedAt == nil {
		now := time.Now()
		appointment.VideoCallEndedAt = &now
		if err := u.persistWithVersion(ctx, appointment, nil, &userID, entity.AuditActionVideoCallEnd); err != nil {
			return nil, err
		}
	}

	return converter.AppointmentToResponse(appointment), nil
}

func (u *appointmentUsecase) GetByID(ctx context.Context, appointmentID uuid.UUID) (*dto.AppointmentResponse, error) {
	userID, ok := middleware.GetUserIDFromContext(ctx)
	if !ok {
		return nil, errors.New("user not found in context")
	}
	roleID, _ := middleware.GetRoleIDFromContext(ctx)

	appointment, err := u.loadAppointment(ctx, appointmentID)
	if err != nil {
		return nil, err
	}

	// A party sees only its own appointments; admins see all
	if roleID != entity.RoleIDAdmin && appointment.PatientID != userID && appointment.ProviderID != userID {
		return nil, ErrForbidden
	}

	return converter.AppointmentToResponse(appointment), nil
}

func (u *appointmentUsecase) ListByPatient(ctx context.Context, filter *entity.AppointmentFilter) (*dto.AppointmentListResponse, error) {
	userID, ok := middleware.GetUserIDFromContext(ctx)
	if !ok {
		return nil, errors.New("user not found in context")
	}

	appointments, err := u.appointmentRepo.FindByPatient(u.db.WithContext(ctx), userID, filter)
	if err != nil {
		u.log.Warnf("Failed to find appointments for patient %s: %+v", userID, err)
		return nil, err
	}

	return &dto.AppointmentListResponse{
		Appointments: converter.AppointmentsToResponses(appointments),
		Total:        len(appointments),
	}, nil
}

func (u *appointmentUsecase) ListByProvider(ctx context.Context, filter *entity.AppointmentFilter) (*dto.AppointmentListResponse, error) {
	userID, ok := middleware.GetUserIDFromContext(ctx)
	if !ok {
		return nil, errors.New("user not found in context")
	}

	appointments, err := u.appointmentRepo.FindByProvider(u.db.WithContext(ctx), userID, filter)
	if err != nil {
		u.log.Warnf("Failed to find appointments for provider %s: %+v", userID, err)
		return nil, err
	}

	return &dto.AppointmentListResponse{
		Appointments: converter.AppointmentsToResponses(appointments),
		Total:        len(appointments),
	}, nil
}

// GetStats returns per-status appointment counts for the calling party,
// served from the Redis cache when fresh
func (u *appointmentUsecase) GetStats(ctx context.Context) (*dto.AppointmentStatsResponse, error) {
	userID, ok := middleware.GetUserIDFromContext(ctx)
	if !ok {
		return nil, errors.New("user not found in context")
	}
	roleID, _ := middleware.GetRoleIDFromContext(ctx)
	role := entity.RoleNameFromID(roleID)
	if role == "" {
		role = entity.RolePatient
	}

	if counts, hit := u.statsCache.Get(ctx, role, userID.String()); hit {
		return converter.StatusCountsToResponse(counts), nil
	}

	counts, err := u.appointmentRepo.CountByStatus(u.db.WithContext(ctx), userID, role)
	if err != nil {
		u.log.Warnf("Failed to count appointments for %s %s: %+v", role, userID, err)
		return nil, err
	}
	u.statsCache.Set(ctx, role, userID.String(), counts)

	return converter.StatusCountsToResponse(counts), nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func (u *appointmentUsecase) loadAppointment(ctx context.Context, id uuid.UUID) (*entity.Appointment, error) {
	appointment, err := u.appointmentRepo.FindByID(u.db.WithContext(ctx), id)
	if err != nil {
		u.log.Warnf("Failed to find appointment %s: %+v", id, err)
		return nil, err
	}
	if appointment == nil {
		return nil, ErrAppointmentNotFound
	}
	return appointment, nil
}

// applyAndPersist runs the pure state machine and commits the result with
// a version check. A unique violation on the meeting code triggers one
// re-issue; the empty-check in the state machine makes re-entry safe.
func (u *appointmentUsecase) applyAndPersist(ctx context.Context, appointment *entity.Appointment, input entity.TransitionInput) error {
	loadedVersion := appointment.Version

	if err := entity.ApplyTransition(appointment, input, time.Now(), u.issuer.Issue); err != nil {
		return err
	}
	lastEvent := &appointment.StatusHistory[len(appointment.StatusHistory)-1]

	for attempt := 0; ; attempt++ {
		err := u.persistTransition(ctx, appointment, loadedVersion, lastEvent, input)
		if err == nil {
			return nil
		}
		if attempt == 0 && isDuplicateKeyError(err, "meeting_code") {
			code, issueErr := u.issuer.Issue()
			if issueErr != nil {
				return issueErr
			}
			u.log.Warnf("Meeting code collision on appointment %s, re-issuing", appointment.ID)
			appointment.MeetingCode = code
			continue
		}
		return err
	}
}

func (u *appointmentUsecase) persistTransition(ctx context.Context, appointment *entity.Appointment, loadedVersion int, lastEvent *entity.StatusEvent, input entity.TransitionInput) error {
	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	rows, err := u.appointmentRepo.UpdateWithVersion(tx, appointment, loadedVersion)
	if err != nil {
		u.log.Warnf("Failed to update appointment %s: %+v", appointment.ID, err)
		return err
	}
	if rows == 0 {
		return ErrConflict
	}

	if err := u.appointmentRepo.AppendStatusEvent(tx, lastEvent); err != nil {
		u.log.Warnf("Failed to append status event for appointment %s: %+v", appointment.ID, err)
		return err
	}

	if err := u.auditService.LogUpdate(ctx, tx, &input.ActorID, auditActionForTarget(input.Target), "appointment", appointment.ID.String(),
		nil, entity.JSON{"status": string(input.Target), "notes": input.Notes}); err != nil {
		u.log.Warnf("Failed to log audit: %+v", err)
		return err
	}

	if err := tx.Commit().Error; err != nil {
		u.log.Warnf("Failed commit transaction: %+v", err)
		return err
	}
	return nil
}

// persistWithVersion commits non-transition field changes (video call
// telemetry) under the same optimistic version check
func (u *appointmentUsecase) persistWithVersion(ctx context.Context, appointment *entity.Appointment, metadata entity.JSON, actorID *uuid.UUID, auditAction string) error {
	loadedVersion := appointment.Version

	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	rows, err := u.appointmentRepo.UpdateWithVersion(tx, appointment, loadedVersion)
	if err != nil {
		u.log.Warnf("Failed to update appointment %s: %+v", appointment.ID, err)
		return err
	}
	if rows == 0 {
		return ErrConflict
	}

	if err := u.auditService.LogUpdate(ctx, tx, actorID, auditAction, "appointment", appointment.ID.String(), nil, metadata); err != nil {
		u.log.Warnf("Failed to log audit: %+v", err)
		return err
	}

	if err := tx.Commit().Error; err != nil {
		u.log.Warnf("Failed commit transaction: %+v", err)
		return err
	}
	return nil
}

// buildMockPayment fills the payment block at booking time. Real gateway
// integration is out of scope; a missing confirmation gets a generated
// mock payment id.
func (u *appointmentUsecase) buildMockPayment(breakdown fees.Breakdown, currency string, confirmation *dto.PaymentConfirmation, now time.Time) entity.Payment {
	payment := entity.Payment{
		ProviderFee:   breakdown.ProviderFee,
		PlatformFee:   breakdown.PlatformFee,
		TotalAmount:   breakdown.TotalAmount,
		Currency:      currency,
		PaymentStatus: entity.PaymentStatusCompleted,
		PaymentID:     fmt.Sprintf("MOCK_%s", uuid.New().String()),
		PaymentMethod: "mock_payment",
		PaidAt:        &now,
	}
	if confirmation != nil {
		if confirmation.PaymentID != "" {
			payment.PaymentID = confirmation.PaymentID
		}
		if confirmation.PaymentMethod != "" {
			payment.PaymentMethod = confirmation.PaymentMethod
		}
	}
	return payment
}

// notifyTransition picks the recipient and kind for a committed
// transition and dispatches it. Cancellations notify the other party;
// everything else notifies the patient.
func (u *appointmentUsecase) notifyTransition(ctx context.Context, appointment *entity.Appointment, target entity.AppointmentStatus, actorID uuid.UUID) {
	var kind entity.NotificationKind
	recipientID := appointment.PatientID
	payload := service.NotificationPayload{
		AppointmentDate: appointment.AppointmentDate.Format("2006-01-02"),
	}

	switch target {
	case entity.AppointmentStatusConfirmed:
		kind = entity.NotificationAppointmentConfirmed
		payload.ProviderName = u.lookupUserName(ctx, appointment.ProviderID)
	case entity.AppointmentStatusRejected:
		kind = entity.NotificationAppointmentRejected
		payload.Reason = appointment.RejectionReason
	case entity.AppointmentStatusCancelled:
		kind = entity.NotificationAppointmentCancelled
		payload.Reason = appointment.CancellationReason
		if actorID == appointment.PatientID {
			recipientID = appointment.ProviderID
		}
	case entity.AppointmentStatusCompleted:
		kind = entity.NotificationAppointmentCompleted
		payload.ProviderName = u.lookupUserName(ctx, appointment.ProviderID)
	default:
		return
	}

	u.dispatcher.Notify(ctx, recipientID, kind, appointment.ID, payload)
}

// lookupUserName fetches a display name for notification templates.
// Failures degrade to the template fallback, never to an error.
func (u *appointmentUsecase) lookupUserName(ctx context.Context, userID uuid.UUID) string {
	user, err := u.userRepo.FindByID(u.db.WithContext(ctx), userID)
	if err != nil || user == nil {
		return ""
	}
	return user.FullName
}

// checkTransitionPermission rejects obviously invalid actor/transition
// pairs before the state machine runs: providers confirm, reject and
// complete their own appointments; patients cancel their own; admins may
// cancel any.
func checkTransitionPermission(appointment *entity.Appointment, target entity.AppointmentStatus, actorID uuid.UUID, roleID int) error {
	isPatient := appointment.PatientID == actorID && roleID == entity.RoleIDPatient
	isProvider := appointment.ProviderID == actorID && roleID == entity.RoleIDProvider
	isAdmin := roleID == entity.RoleIDAdmin

	switch target {
	case entity.AppointmentStatusConfirmed, entity.AppointmentStatusRejected, entity.AppointmentStatusCompleted:
		if !isProvider {
			return ErrForbidden
		}
	case entity.AppointmentStatusCancelled:
		if !isPatient && !isProvider && !isAdmin {
			return ErrForbidden
		}
	default:
		return ErrForbidden
	}
	return nil
}

func cancelActorForRole(roleID int) entity.CancelActor {
	switch roleID {
	case entity.RoleIDProvider:
		return entity.CancelActorProvider
	case entity.RoleIDAdmin:
		return entity.CancelActorAdmin
	}
	return entity.CancelActorPatient
}

func auditActionForTarget(target entity.AppointmentStatus) string {
	switch target {
	case entity.AppointmentStatusConfirmed:
		return entity.AuditActionAppointmentConfirm
	case entity.AppointmentStatusRejected:
		return entity.AuditActionAppointmentReject
	case entity.AppointmentStatusCancelled:
		return entity.AuditActionAppointmentCancel
	case entity.AppointmentStatusCompleted:
		return entity.AuditActionAppointmentComplete
	}
	return "appointment.update"
}
