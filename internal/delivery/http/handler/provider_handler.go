package handler

import (
	"encoding/json"
	"net/http"

	"telemed-appointments/internal/delivery/dto"
	"telemed-appointments/internal/usecase"
	"telemed-appointments/pkg/response"
	"telemed-appointments/pkg/validator"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

type ProviderHandler struct {
	providerUsecase usecase.ProviderProfileUsecase
	validator       *validator.CustomValidator
}

func NewProviderHandler(providerUsecase usecase.ProviderProfileUsecase, validator *validator.CustomValidator) *ProviderHandler {
	return &ProviderHandler{
		providerUsecase: providerUsecase,
		validator:       validator,
	}
}

// GetDirectory lists bookable providers for patients
func (h *ProviderHandler) GetDirectory(w http.ResponseWriter, r *http.Request) {
	providers, err := h.providerUsecase.GetDirectory(r.Context())
	if err != nil {
		response.InternalServerError(w, "Failed to get providers")
		return
	}

	response.Success(w, http.StatusOK, "Providers retrieved successfully", providers)
}

// GetAllProviders lists every provider, for admins
func (h *ProviderHandler) GetAllProviders(w http.ResponseWriter, r *http.Request) {
	providers, err := h.providerUsecase.GetAllProviders(r.Context())
	if err != nil {
		response.InternalServerError(w, "Failed to get providers")
		return
	}

	response.Success(w, http.StatusOK, "Providers retrieved successfully", providers)
}

func (h *ProviderHandler) GetProvider(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	providerID, err := uuid.Parse(vars["id"])
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid provider ID", nil)
		return
	}

	provider, err := h.providerUsecase.GetProvider(r.Context(), providerID)
	if err != nil {
		switch err {
		case usecase.ErrProviderNotFound:
			response.NotFound(w, "Provider not found")
		default:
			response.InternalServerError(w, "Failed to get provider")
		}
		return
	}

	response.Success(w, http.StatusOK, "Provider retrieved successfully", provider)
}

func (h *ProviderHandler) UpdateSelfProfile(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateProviderProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	provider, err := h.providerUsecase.UpdateSelfProfile(r.Context(), &req)
	if err != nil {
		switch err {
		case usecase.ErrProviderNotFound:
			response.NotFound(w, "Provider profile not found")
		default:
			response.InternalServerError(w, "Failed to update profile")
		}
		return
	}

	response.Success(w, http.StatusOK, "Profile updated successfully", provider)
}

// ApproveProvider grants or revokes a provider's approval (admin only)
func (h *ProviderHandler) ApproveProvider(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	providerID, err := uuid.Parse(vars["id"])
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid provider ID", nil)
		return
	}

	var req dto.ApproveProviderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	provider, err := h.providerUsecase.ApproveProvider(r.Context(), providerID, &req)
	if err != nil {
		switch err {
		case usecase.ErrProviderNotFound:
			response.NotFound(w, "Provider not found")
		default:
			response.InternalServerError(w, "Failed to update provider approval")
		}
		return
	}

	response.Success(w, http.StatusOK, "Provider approval updated successfully", provider)
}
