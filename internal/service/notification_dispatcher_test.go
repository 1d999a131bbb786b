package service

import (
	"strings"
	"testing"

	"telemed-appointments/internal/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderTemplate_AllKinds(t *testing.T) {
	payload := NotificationPayload{
		PatientName:     "Asha Rao",
		ProviderName:    "Dr. Mehta",
		AppointmentDate: "2026-03-01",
		Reason:          "Schedule conflict.",
	}

	tests := []struct {
		kind         entity.NotificationKind
		wantTitle    string
		wantContains string
		wantPriority entity.NotificationPriority
	}{
		{entity.NotificationAppointmentBooked, "New Appointment Request", "Asha Rao", entity.NotificationPriorityHigh},
		{entity.NotificationAppointmentConfirmed, "Appointment Confirmed", "Dr. Mehta", entity.NotificationPriorityHigh},
		{entity.NotificationAppointmentRejected, "Appointment Rejected", "Schedule conflict.", entity.NotificationPriorityMedium},
		{entity.NotificationAppointmentCancelled, "Appointment Cancelled", "Schedule conflict.", entity.NotificationPriorityMedium},
		{entity.NotificationAppointmentCompleted, "Appointment Completed", "Dr. Mehta", entity.NotificationPriorityLow},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			title, message, priority, err := renderTemplate(tt.kind, payload)
			require.NoError(t, err)

			assert.Equal(t, tt.wantTitle, title)
			assert.True(t, strings.Contains(message, tt.wantContains), "message %q missing %q", message, tt.wantContains)
			assert.Equal(t, tt.wantPriority, priority)
		})
	}
}

func TestRenderTemplate_FallbackNames(t *testing.T) {
	title, message, _, err := renderTemplate(entity.NotificationAppointmentBooked, NotificationPayload{})
	require.NoError(t, err)
	assert.Equal(t, "New Appointment Request", title)
	assert.Contains(t, message, "a patient")

	_, message, _, err = renderTemplate(entity.NotificationAppointmentConfirmed, NotificationPayload{})
	require.NoError(t, err)
	assert.Contains(t, message, "the provider")
	assert.Contains(t, message, "the scheduled date")
}

func TestRenderTemplate_UnknownKind(t *testing.T) {
	_, _, _, err := renderTemplate(entity.NotificationKind("mystery"), NotificationPayload{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mystery")
}
