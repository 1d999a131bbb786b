package entity

import "github.com/google/uuid"

// ProviderProfile represents clinician-specific profile data.
// ConsultationFee is the provider's base fee per consultation in the
// currency's minor unit; the platform fee is computed from it at booking.
type ProviderProfile struct {
	UserID              uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	RegistrationNumber  string    `gorm:"column:registration_number;type:varchar(50);uniqueIndex;not null" json:"registration_number"`
	Specialization      string    `gorm:"type:varchar(100);not null;index" json:"specialization"`
	Biography           string    `gorm:"type:text" json:"biography,omitempty"`
	ConsultationFee     int64     `gorm:"not null;default:0" json:"consultation_fee"`
	ConsultationFeeCurr string    `gorm:"column:consultation_fee_currency;type:varchar(10);not null;default:'INR'" json:"consultation_fee_currency"`
	IsApproved          bool      `gorm:"not null;default:false;index" json:"is_approved"`

	// Relationships
	User         User          `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Appointments []Appointment `gorm:"foreignKey:ProviderID" json:"appointments,omitempty"`
}

func (ProviderProfile) TableName() string {
	return "provider_profiles"
}

// IsBookable checks if patients may book this provider: the account must
// be active and the profile approved by an admin.
func (p *ProviderProfile) IsBookable() bool {
	return p.IsApproved && p.User.IsActive
}
