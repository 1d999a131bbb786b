package converter

import (
	"telemed-appointments/internal/delivery/dto"
	"telemed-appointments/internal/domain/entity"
)

// ProviderProfileToResponse converts a ProviderProfile entity to ProviderProfileResponse DTO
func ProviderProfileToResponse(profile *entity.ProviderProfile) *dto.ProviderProfileResponse {
	if profile == nil {
		return nil
	}

	return &dto.ProviderProfileResponse{
		UserID:                  profile.UserID,
		FullName:                profile.User.FullName,
		RegistrationNumber:      profile.RegistrationNumber,
		Specialization:          profile.Specialization,
		Biography:               profile.Biography,
		ConsultationFee:         profile.ConsultationFee,
		ConsultationFeeCurrency: profile.ConsultationFeeCurr,
		IsApproved:              profile.IsApproved,
		IsActive:                profile.User.IsActive,
	}
}

// ProviderProfilesToResponses converts a slice of ProviderProfile entities to DTOs
func ProviderProfilesToResponses(profiles []entity.ProviderProfile) []dto.ProviderProfileResponse {
	responses := make([]dto.ProviderProfileResponse, len(profiles))
	for i := range profiles {
		responses[i] = *ProviderProfileToResponse(&profiles[i])
	}
	return responses
}
