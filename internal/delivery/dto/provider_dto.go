package dto

import (
	"github.com/google/uuid"
)

// Request DTOs

type UpdateProviderProfileRequest struct {
	Specialization          string `json:"specialization" validate:"omitempty"`
	Biography               string `json:"biography" validate:"omitempty"`
	ConsultationFee         int64  `json:"consultation_fee" validate:"omitempty,gt=0"`
	ConsultationFeeCurrency string `json:"consultation_fee_currency" validate:"omitempty,len=3"`
}

type ApproveProviderRequest struct {
	Approved bool `json:"approved"`
}

// Response DTOs

type ProviderProfileResponse struct {
	UserID                  uuid.UUID `json:"user_id"`
	FullName                string    `json:"full_name,omitempty"`
	RegistrationNumber      string    `json:"registration_number"`
	Specialization          string    `json:"specialization"`
	Biography               string    `json:"biography,omitempty"`
	ConsultationFee         int64     `json:"consultation_fee"`
	ConsultationFeeCurrency string    `json:"consultation_fee_currency"`
	IsApproved              bool      `json:"is_approved"`
	IsActive                bool      `json:"is_active"`
}

type ProviderListResponse struct {
	Providers []ProviderProfileResponse `json:"providers"`
	Total     int                       `json:"total"`
}
