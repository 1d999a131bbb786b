package converter

import (
	"telemed-appointments/internal/delivery/dto"
	"telemed-appointments/internal/domain/entity"
)

// UserToResponse converts a User entity to UserResponse DTO.
// Includes ProviderProfile and PatientProfile if they are loaded.
func UserToResponse(user *entity.User) *dto.UserResponse {
	if user == nil {
		return nil
	}

	response := &dto.UserResponse{
		ID:        user.ID,
		Email:     user.Email,
		FullName:  user.FullName,
		Role:      entity.RoleNameFromID(user.RoleID),
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}

	if user.ProviderProfile != nil {
		response.ProviderProfile = ProviderProfileToResponse(user.ProviderProfile)
		response.ProviderProfile.IsActive = user.IsActive
		response.ProviderProfile.FullName = user.FullName
	}

	if user.PatientProfile != nil {
		response.PatientProfile = PatientProfileToResponse(user.PatientProfile, user)
	}

	return response
}
