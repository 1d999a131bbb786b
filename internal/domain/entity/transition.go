package entity

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidTransition   = errors.New("status transition not allowed")
	ErrCancelActorRequired = errors.New("cancelled_by is required when cancelling")
)

// transitionTable is the legal state graph. A state has no self-loop, so
// re-applying the current status always fails and meeting code issuance
// can never be reached twice through ApplyTransition.
var transitionTable = map[AppointmentStatus][]AppointmentStatus{
	AppointmentStatusPending:   {AppointmentStatusConfirmed, AppointmentStatusRejected, AppointmentStatusCancelled},
	AppointmentStatusConfirmed: {AppointmentStatusCompleted, AppointmentStatusCancelled},
	AppointmentStatusRejected:  {},
	AppointmentStatusCancelled: {},
	AppointmentStatusCompleted: {},
}

// CanTransition reports whether target is reachable from current in one step
func CanTransition(current, target AppointmentStatus) bool {
	for _, allowed := range transitionTable[current] {
		if allowed == target {
			return true
		}
	}
	return false
}

// TransitionInput carries everything a single status change needs
type TransitionInput struct {
	Target      AppointmentStatus
	ActorID     uuid.UUID
	Notes       string
	Reason      string
	CancelledBy CancelActor
}

// ApplyTransition moves the appointment to in.Target, appends the status
// history entry, and applies per-target side effects. It is pure business
// logic over the in-memory snapshot: the caller owns persistence and
// notification dispatch.
//
// The issue callback generates a meeting code; it is only invoked when the
// appointment reaches confirmed in tele mode and no code exists yet, so
// issuance stays idempotent across retries.
func ApplyTransition(a *Appointment, in TransitionInput, now time.Time, issue func() (string, error)) error {
	if !CanTransition(a.Status, in.Target) {
		return ErrInvalidTransition
	}
	if in.Target == AppointmentStatusCancelled && in.CancelledBy == "" {
		return ErrCancelActorRequired
	}

	switch in.Target {
	case AppointmentStatusConfirmed:
		a.ConfirmedAt = &now
		if a.IsTele() {
			a.VideoCallEnabled = true
			if a.MeetingCode == "" {
				code, err := issue()
				if err != nil {
					return err
				}
				a.MeetingCode = code
				a.MeetingCodeGeneratedAt = &now
			}
		}

	case AppointmentStatusCompleted:
		a.CompletedAt = &now
		if a.VideoCallStartedAt != nil && a.VideoCallEndedAt == nil {
			a.VideoCallEndedAt = &now
		}

	case AppointmentStatusRejected:
		a.RejectionReason = in.Reason

	case AppointmentStatusCancelled:
		a.CancellationReason = in.Reason
		a.CancelledBy = in.CancelledBy
	}

	a.Status = in.Target
	a.StatusHistory = append(a.StatusHistory, StatusEvent{
		AppointmentID: a.ID,
		Status:        in.Target,
		ChangedBy:     in.ActorID,
		ChangedAt:     now,
		Notes:         in.Notes,
	})

	return nil
}
