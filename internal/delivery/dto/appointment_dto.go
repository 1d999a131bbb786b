package dto

import (
	"time"

	"github.com/google/uuid"
)

// Request DTOs

type BookAppointmentRequest struct {
	ProviderID       uuid.UUID            `json:"provider_id" validate:"required"`
	AppointmentDate  string               `json:"appointment_date" validate:"required"`
	StartTime        string               `json:"start_time" validate:"required"`
	EndTime          string               `json:"end_time" validate:"required"`
	ConsultationMode string               `json:"consultation_mode" validate:"required,oneof=tele in_person"`
	ReasonForVisit   string               `json:"reason_for_visit" validate:"required"`
	Symptoms         string               `json:"symptoms"`
	PreDiagnosisID   *uuid.UUID           `json:"pre_diagnosis_id"`
	Payment          *PaymentConfirmation `json:"payment"`
}

// PaymentConfirmation is the mock payment input accepted at booking.
// When absent a mock payment id is generated server-side.
type PaymentConfirmation struct {
	PaymentID     string `json:"payment_id"`
	PaymentMethod string `json:"payment_method"`
}

type TransitionAppointmentRequest struct {
	Status string `json:"status" validate:"required,oneof=confirmed rejected cancelled completed"`
	Notes  string `json:"notes"`
	Reason string `json:"reason"`
}

type CompleteAppointmentRequest struct {
	DoctorNotes           string `json:"doctor_notes"`
	PrescriptionReference string `json:"prescription_reference"`
}

// Response DTOs

type PaymentResponse struct {
	ProviderFee   int64      `json:"provider_fee"`
	PlatformFee   int64      `json:"platform_fee"`
	TotalAmount   int64      `json:"total_amount"`
	Currency      string     `json:"currency"`
	PaymentStatus string     `json:"payment_status"`
	PaymentID     string     `json:"payment_id,omitempty"`
	PaymentMethod string     `json:"payment_method,omitempty"`
	PaidAt        *time.Time `json:"paid_at,omitempty"`
}

type StatusEventResponse struct {
	Status    string    `json:"status"`
	ChangedBy uuid.UUID `json:"changed_by"`
	ChangedAt time.Time `json:"changed_at"`
	Notes     string    `json:"notes,omitempty"`
}

type AppointmentResponse struct {
	ID               uuid.UUID  `json:"id"`
	PatientID        uuid.UUID  `json:"patient_id"`
	ProviderID       uuid.UUID  `json:"provider_id"`
	AppointmentDate  string     `json:"appointment_date"`
	StartTime        string     `json:"start_time"`
	EndTime          string     `json:"end_time"`
	ConsultationMode string     `json:"consultation_mode"`
	ReasonForVisit   string     `json:"reason_for_visit"`
	Symptoms         string     `json:"symptoms,omitempty"`
	PreDiagnosisID   *uuid.UUID `json:"pre_diagnosis_id,omitempty"`

	Status        string                `json:"status"`
	StatusHistory []StatusEventResponse `json:"status_history,omitempty"`

	RejectionReason    string `json:"rejection_reason,omitempty"`
	CancellationReason string `json:"cancellation_reason,omitempty"`
	CancelledBy        string `json:"cancelled_by,omitempty"`

	Payment PaymentResponse `json:"payment"`

	VideoCallEnabled   bool       `json:"video_call_enabled"`
	MeetingCode        string     `json:"meeting_code,omitempty"`
	VideoCallStartedAt *time.Time `json:"video_call_started_at,omitempty"`
	VideoCallEndedAt   *time.Time `json:"video_call_ended_at,omitempty"`

	DoctorNotes           string     `json:"doctor_notes,omitempty"`
	PrescriptionReference string     `json:"prescription_reference,omitempty"`
	ConfirmedAt           *time.Time `json:"confirmed_at,omitempty"`
	CompletedAt           *time.Time `json:"completed_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type AppointmentListResponse struct {
	Appointments []AppointmentResponse `json:"appointments"`
	Total        int                   `json:"total"`
}

type AppointmentStatsResponse struct {
	Total     int64 `json:"total"`
	Pending   int64 `json:"pending"`
	Confirmed int64 `json:"confirmed"`
	Rejected  int64 `json:"rejected"`
	Cancelled int64 `json:"cancelled"`
	Completed int64 `json:"completed"`
}
