package entity

import (
	"time"

	"github.com/google/uuid"
)

// AppointmentStatus represents the lifecycle status of an appointment
type AppointmentStatus string

const (
	AppointmentStatusPending   AppointmentStatus = "pending"
	AppointmentStatusConfirmed AppointmentStatus = "confirmed"
	AppointmentStatusRejected  AppointmentStatus = "rejected"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
	AppointmentStatusCompleted AppointmentStatus = "completed"
)

// ConsultationMode distinguishes remote and on-site consultations
type ConsultationMode string

const (
	ConsultationModeTele     ConsultationMode = "tele"
	ConsultationModeInPerson ConsultationMode = "in_person"
)

// CancelActor identifies which party cancelled an appointment
type CancelActor string

const (
	CancelActorPatient  CancelActor = "patient"
	CancelActorProvider CancelActor = "provider"
	CancelActorAdmin    CancelActor = "admin"
)

// PaymentStatus represents the payment state of an appointment
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

// Payment holds the fee breakdown computed once at booking time.
// Amounts are in the currency's minor unit.
type Payment struct {
	ProviderFee   int64         `gorm:"not null" json:"provider_fee"`
	PlatformFee   int64         `gorm:"not null" json:"platform_fee"`
	TotalAmount   int64         `gorm:"not null" json:"total_amount"`
	Currency      string        `gorm:"type:varchar(10);not null" json:"currency"`
	PaymentStatus PaymentStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"payment_status"`
	PaymentID     string        `gorm:"type:varchar(100)" json:"payment_id,omitempty"`
	PaymentMethod string        `gorm:"type:varchar(50)" json:"payment_method,omitempty"`
	PaidAt        *time.Time    `json:"paid_at,omitempty"`
}

// StatusEvent is one append-only entry in an appointment's status history
type StatusEvent struct {
	ID            int64             `gorm:"primaryKey;autoIncrement" json:"id"`
	AppointmentID uuid.UUID         `gorm:"type:uuid;not null;index" json:"appointment_id"`
	Status        AppointmentStatus `gorm:"type:varchar(20);not null" json:"status"`
	ChangedBy     uuid.UUID         `gorm:"type:uuid;not null" json:"changed_by"`
	ChangedAt     time.Time         `gorm:"not null" json:"changed_at"`
	Notes         string            `gorm:"type:text" json:"notes,omitempty"`
}

func (StatusEvent) TableName() string {
	return "appointment_status_events"
}

// Appointment represents a consultation between a patient and a provider.
// It is created in pending status at booking time, mutated only through
// ApplyTransition, and never hard-deleted.
type Appointment struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	PatientID  uuid.UUID `gorm:"type:uuid;not null;index:idx_appointments_patient_date" json:"patient_id"`
	ProviderID uuid.UUID `gorm:"type:uuid;not null;index:idx_appointments_provider_date" json:"provider_id"`

	AppointmentDate  time.Time        `gorm:"type:date;not null;index:idx_appointments_patient_date;index:idx_appointments_provider_date" json:"appointment_date"`
	StartTime        string           `gorm:"type:time;not null" json:"start_time"`
	EndTime          string           `gorm:"type:time;not null" json:"end_time"`
	ConsultationMode ConsultationMode `gorm:"type:varchar(20);not null" json:"consultation_mode"`

	ReasonForVisit string     `gorm:"type:text;not null" json:"reason_for_visit"`
	Symptoms       string     `gorm:"type:text" json:"symptoms,omitempty"`
	PreDiagnosisID *uuid.UUID `gorm:"type:uuid" json:"pre_diagnosis_id,omitempty"`

	Status        AppointmentStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	StatusHistory []StatusEvent     `gorm:"foreignKey:AppointmentID" json:"status_history,omitempty"`

	RejectionReason    string      `gorm:"type:text" json:"rejection_reason,omitempty"`
	CancellationReason string      `gorm:"type:text" json:"cancellation_reason,omitempty"`
	CancelledBy        CancelActor `gorm:"type:varchar(20)" json:"cancelled_by,omitempty"`

	Payment Payment `gorm:"embedded;embeddedPrefix:payment_" json:"payment"`

	VideoCallEnabled       bool       `gorm:"not null;default:false" json:"video_call_enabled"`
	MeetingCode            string     `gorm:"type:varchar(12)" json:"meeting_code,omitempty"`
	MeetingCodeGeneratedAt *time.Time `json:"meeting_code_generated_at,omitempty"`
	VideoCallStartedAt     *time.Time `json:"video_call_started_at,omitempty"`
	VideoCallEndedAt       *time.Time `json:"video_call_ended_at,omitempty"`

	DoctorNotes           string     `gorm:"type:text" json:"doctor_notes,omitempty"`
	PrescriptionReference string     `gorm:"type:varchar(255)" json:"prescription_reference,omitempty"`
	ConfirmedAt           *time.Time `json:"confirmed_at,omitempty"`
	CompletedAt           *time.Time `json:"completed_at,omitempty"`

	// Version is bumped on every conditional update; stale writers lose
	Version   int       `gorm:"not null;default:1" json:"version"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Appointment) TableName() string {
	return "appointments"
}

// IsPending checks if the appointment is awaiting provider action
func (a *Appointment) IsPending() bool {
	return a.Status == AppointmentStatusPending
}

// IsConfirmed checks if the appointment has been confirmed
func (a *Appointment) IsConfirmed() bool {
	return a.Status == AppointmentStatusConfirmed
}

// IsTerminal checks if no further transition is permitted
func (a *Appointment) IsTerminal() bool {
	switch a.Status {
	case AppointmentStatusRejected, AppointmentStatusCancelled, AppointmentStatusCompleted:
		return true
	}
	return false
}

// IsTele checks if this is a remote consultation
func (a *Appointment) IsTele() bool {
	return a.ConsultationMode == ConsultationModeTele
}

// CallDurationMinutes returns the video call duration, or 0 if no call
// was completed
func (a *Appointment) CallDurationMinutes() int {
	if a.VideoCallStartedAt == nil || a.VideoCallEndedAt == nil {
		return 0
	}
	return int(a.VideoCallEndedAt.Sub(*a.VideoCallStartedAt).Round(time.Minute) / time.Minute)
}
