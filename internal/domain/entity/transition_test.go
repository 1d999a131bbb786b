package entity

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func staticIssuer(code string) func() (string, error) {
	return func() (string, error) { return code, nil }
}

func failingIssuer() (string, error) {
	return "", errors.New("issuer failure")
}

func newTestAppointment(status AppointmentStatus, mode ConsultationMode) *Appointment {
	return &Appointment{
		ID:               uuid.New(),
		PatientID:        uuid.New(),
		ProviderID:       uuid.New(),
		Status:           status,
		ConsultationMode: mode,
		Version:          1,
	}
}

func TestCanTransition(t *testing.T) {
	allStatuses := []AppointmentStatus{
		AppointmentStatusPending,
		AppointmentStatusConfirmed,
		AppointmentStatusRejected,
		AppointmentStatusCancelled,
		AppointmentStatusCompleted,
	}

	allowed := map[AppointmentStatus]map[AppointmentStatus]bool{
		AppointmentStatusPending: {
			AppointmentStatusConfirmed: true,
			AppointmentStatusRejected:  true,
			AppointmentStatusCancelled: true,
		},
		AppointmentStatusConfirmed: {
			AppointmentStatusCompleted: true,
			AppointmentStatusCancelled: true,
		},
	}

	for _, from := range allStatuses {
		for _, to := range allStatuses {
			got := CanTransition(from, to)
			want := allowed[from][to]
			assert.Equal(t, want, got, "transition %s -> %s", from, to)
		}
	}
}

func TestCanTransition_NoSelfLoops(t *testing.T) {
	for _, status := range []AppointmentStatus{
		AppointmentStatusPending,
		AppointmentStatusConfirmed,
		AppointmentStatusRejected,
		AppointmentStatusCancelled,
		AppointmentStatusCompleted,
	} {
		assert.False(t, CanTransition(status, status), "self-loop on %s", status)
	}
}

func TestApplyTransition_ConfirmTeleIssuesMeetingCode(t *testing.T) {
	a := newTestAppointment(AppointmentStatusPending, ConsultationModeTele)
	actor := uuid.New()
	now := time.Now()

	err := ApplyTransition(a, TransitionInput{
		Target:  AppointmentStatusConfirmed,
		ActorID: actor,
	}, now, staticIssuer("ABC-DEF-GH"))
	require.NoError(t, err)

	assert.Equal(t, AppointmentStatusConfirmed, a.Status)
	assert.True(t, a.VideoCallEnabled)
	assert.Equal(t, "ABC-DEF-GH", a.MeetingCode)
	require.NotNil(t, a.MeetingCodeGeneratedAt)
	require.NotNil(t, a.ConfirmedAt)
	assert.Equal(t, now, *a.ConfirmedAt)

	require.Len(t, a.StatusHistory, 1)
	assert.Equal(t, AppointmentStatusConfirmed, a.StatusHistory[0].Status)
	assert.Equal(t, actor, a.StatusHistory[0].ChangedBy)
}

func TestApplyTransition_ConfirmInPersonSkipsMeetingCode(t *testing.T) {
	a := newTestAppointment(AppointmentStatusPending, ConsultationModeInPerson)

	err := ApplyTransition(a, TransitionInput{
		Target:  AppointmentStatusConfirmed,
		ActorID: uuid.New(),
	}, time.Now(), failingIssuer)
	require.NoError(t, err, "issuer must not be called for in-person mode")

	assert.False(t, a.VideoCallEnabled)
	assert.Empty(t, a.MeetingCode)
}

func TestApplyTransition_ExistingMeetingCodeIsKept(t *testing.T) {
	a := newTestAppointment(AppointmentStatusPending, ConsultationModeTele)
	a.MeetingCode = "OLD-COD-E1"

	err := ApplyTransition(a, TransitionInput{
		Target:  AppointmentStatusConfirmed,
		ActorID: uuid.New(),
	}, time.Now(), failingIssuer)
	require.NoError(t, err, "issuer must not be called when a code exists")

	assert.Equal(t, "OLD-COD-E1", a.MeetingCode)
}

func TestApplyTransition_IssuerErrorLeavesAppointmentPending(t *testing.T) {
	a := newTestAppointment(AppointmentStatusPending, ConsultationModeTele)

	err := ApplyTransition(a, TransitionInput{
		Target:  AppointmentStatusConfirmed,
		ActorID: uuid.New(),
	}, time.Now(), failingIssuer)
	require.Error(t, err)

	assert.Equal(t, AppointmentStatusPending, a.Status)
	assert.Empty(t, a.StatusHistory)
}

func TestApplyTransition_RejectRecordsReason(t *testing.T) {
	a := newTestAppointment(AppointmentStatusPending, ConsultationModeTele)

	err := ApplyTransition(a, TransitionInput{
		Target:  AppointmentStatusRejected,
		ActorID: uuid.New(),
		Reason:  "fully booked",
	}, time.Now(), failingIssuer)
	require.NoError(t, err)

	assert.Equal(t, AppointmentStatusRejected, a.Status)
	assert.Equal(t, "fully booked", a.RejectionReason)
}

func TestApplyTransition_CancelRequiresActor(t *testing.T) {
	a := newTestAppointment(AppointmentStatusPending, ConsultationModeTele)

	err := ApplyTransition(a, TransitionInput{
		Target:  AppointmentStatusCancelled,
		ActorID: uuid.New(),
		Reason:  "cannot make it",
	}, time.Now(), failingIssuer)
	assert.ErrorIs(t, err, ErrCancelActorRequired)

	err = ApplyTransition(a, TransitionInput{
		Target:      AppointmentStatusCancelled,
		ActorID:     uuid.New(),
		Reason:      "cannot make it",
		CancelledBy: CancelActorPatient,
	}, time.Now(), failingIssuer)
	require.NoError(t, err)

	assert.Equal(t, AppointmentStatusCancelled, a.Status)
	assert.Equal(t, CancelActorPatient, a.CancelledBy)
	assert.Equal(t, "cannot make it", a.CancellationReason)
}

func TestApplyTransition_CompleteClosesDanglingVideoCall(t *testing.T) {
	a := newTestAppointment(AppointmentStatusConfirmed, ConsultationModeTele)
	started := time.Now().Add(-30 * time.Minute)
	a.VideoCallStartedAt = &started

	now := time.Now()
	err := ApplyTransition(a, TransitionInput{
		Target:  AppointmentStatusCompleted,
		ActorID: uuid.New(),
	}, now, failingIssuer)
	require.NoError(t, err)

	require.NotNil(t, a.VideoCallEndedAt)
	assert.Equal(t, now, *a.VideoCallEndedAt)
	require.NotNil(t, a.CompletedAt)
}

func TestApplyTransition_TerminalStatesAreFrozen(t *testing.T) {
	for _, terminal := range []AppointmentStatus{
		AppointmentStatusRejected,
		AppointmentStatusCancelled,
		AppointmentStatusCompleted,
	} {
		for _, target := range []AppointmentStatus{
			AppointmentStatusPending,
			AppointmentStatusConfirmed,
			AppointmentStatusRejected,
			AppointmentStatusCancelled,
			AppointmentStatusCompleted,
		} {
			a := newTestAppointment(terminal, ConsultationModeTele)
			err := ApplyTransition(a, TransitionInput{
				Target:      target,
				ActorID:     uuid.New(),
				CancelledBy: CancelActorAdmin,
			}, time.Now(), staticIssuer("AAA-AAA-AA"))
			assert.ErrorIs(t, err, ErrInvalidTransition, "%s -> %s", terminal, target)
			assert.Equal(t, terminal, a.Status)
		}
	}
}

func TestApplyTransition_HistoryGrowsMonotonically(t *testing.T) {
	a := newTestAppointment(AppointmentStatusPending, ConsultationModeTele)
	actor := uuid.New()

	require.NoError(t, ApplyTransition(a, TransitionInput{
		Target:  AppointmentStatusConfirmed,
		ActorID: actor,
	}, time.Now(), staticIssuer("AAA-BBB-CC")))

	require.NoError(t, ApplyTransition(a, TransitionInput{
		Target:  AppointmentStatusCompleted,
		ActorID: actor,
	}, time.Now(), failingIssuer))

	require.Len(t, a.StatusHistory, 2)
	assert.Equal(t, AppointmentStatusConfirmed, a.StatusHistory[0].Status)
	assert.Equal(t, AppointmentStatusCompleted, a.StatusHistory[1].Status)
}

func TestCallDurationMinutes(t *testing.T) {
	a := newTestAppointment(AppointmentStatusCompleted, ConsultationModeTele)
	assert.Equal(t, 0, a.CallDurationMinutes())

	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	end := start.Add(25 * time.Minute)
	a.VideoCallStartedAt = &start
	a.VideoCallEndedAt = &end
	assert.Equal(t, 25, a.CallDurationMinutes())
}
