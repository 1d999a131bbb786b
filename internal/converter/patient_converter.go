package converter

import (
	"telemed-appointments/internal/delivery/dto"
	"telemed-appointments/internal/domain/entity"
)

// PatientProfileToResponse converts a PatientProfile entity + User entity to PatientProfileResponse DTO
func PatientProfileToResponse(profile *entity.PatientProfile, user *entity.User) *dto.PatientProfileResponse {
	if profile == nil {
		return nil
	}

	response := &dto.PatientProfileResponse{
		UserID:      profile.UserID,
		PhoneNumber: profile.PhoneNumber,
		DateOfBirth: profile.DateOfBirth.Format("2006-01-02"),
		Gender:      profile.Gender,
		Address:     profile.Address,
	}
	if user != nil {
		response.FullName = user.FullName
	}
	return response
}
