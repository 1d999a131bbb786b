package handler

import (
	"encoding/json"
	"net/http"

	"telemed-appointments/internal/delivery/dto"
	"telemed-appointments/internal/domain/entity"
	"telemed-appointments/internal/usecase"
	"telemed-appointments/pkg/response"
	"telemed-appointments/pkg/validator"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

type AppointmentHandler struct {
	appointmentUsecase usecase.AppointmentUsecase
	validator          *validator.CustomValidator
}

func NewAppointmentHandler(appointmentUsecase usecase.AppointmentUsecase, validator *validator.CustomValidator) *AppointmentHandler {
	return &AppointmentHandler{
		appointmentUsecase: appointmentUsecase,
		validator:          validator,
	}
}

func (h *AppointmentHandler) BookAppointment(w http.ResponseWriter, r *http.Request) {
	var req dto.BookAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	appointment, err := h.appointmentUsecase.Book(r.Context(), &req)
	if err != nil {
		switch err {
		case usecase.ErrProviderUnavailable:
			response.NotFound(w, "Provider not found or not accepting bookings")
		case usecase.ErrInvalidDateFormat, usecase.ErrInvalidTimeFormat, usecase.ErrReasonRequired:
			response.Error(w, http.StatusBadRequest, err.Error(), nil)
		default:
			response.InternalServerError(w, "Failed to book appointment")
		}
		return
	}

	response.Success(w, http.StatusCreated, "Appointment booked successfully", appointment)
}

func (h *AppointmentHandler) TransitionAppointment(w http.ResponseWriter, r *http.Request) {
	appointmentID, ok := parseAppointmentID(w, r)
	if !ok {
		return
	}

	var req dto.TransitionAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	appointment, err := h.appointmentUsecase.Transition(r.Context(), appointmentID, &req)
	if err != nil {
		respondTransitionError(w, err)
		return
	}

	response.Success(w, http.StatusOK, "Appointment updated successfully", appointment)
}

func (h *AppointmentHandler) CompleteAppointment(w http.ResponseWriter, r *http.Request) {
	appointmentID, ok := parseAppointmentID(w, r)
	if !ok {
		return
	}

	var req dto.CompleteAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	appointment, err := h.appointmentUsecase.Complete(r.Context(), appointmentID, &req)
	if err != nil {
		respondTransitionError(w, err)
		return
	}

	response.Success(w, http.StatusOK, "Appointment completed successfully", appointment)
}

func (h *AppointmentHandler) StartVideoCall(w http.ResponseWriter, r *http.Request) {
	appointmentID, ok := parseAppointmentID(w, r)
	if !ok {
		return
	}

	appointment, err := h.appointmentUsecase.StartVideoCall(r.Context(), appointmentID)
	if err != nil {
		respondTransitionError(w, err)
		return
	}

	response.Success(w, http.StatusOK, "Video call started", appointment)
}

func (h *AppointmentHandler) EndVideoCall(w http.ResponseWriter, r *http.Request) {
	appointmentID, ok := parseAppointmentID(w, r)
	if !ok {
		return
	}

	appointment, err := h.appointmentUsecase.EndVideoCall(r.Context(), appointmentID)
	if err != nil {
		respondTransitionError(w, err)
		return
	}

	response.Success(w, http.StatusOK, "Video call ended", appointment)
}

func (h *AppointmentHandler) GetAppointment(w http.ResponseWriter, r *http.Request) {
	appointmentID, ok := parseAppointmentID(w, r)
	if !ok {
		return
	}

	appointment, err := h.appointmentUsecase.GetByID(r.Context(), appointmentID)
	if err != nil {
		switch err {
		case usecase.ErrAppointmentNotFound:
			response.NotFound(w, "Appointment not found")
		case usecase.ErrForbidden:
			response.Forbidden(w, "You are not permitted to view this appointment")
		default:
			response.InternalServerError(w, "Failed to get appointment")
		}
		return
	}

	response.Success(w, http.StatusOK, "Appointment retrieved successfully", appointment)
}

func (h *AppointmentHandler) GetMyAppointments(w http.ResponseWriter, r *http.Request) {
	appointments, err := h.appointmentUsecase.ListByPatient(r.Context(), filterFromQuery(r))
	if err != nil {
		response.InternalServerError(w, "Failed to get appointments")
		return
	}

	response.Success(w, http.StatusOK, "Appointments retrieved successfully", appointments)
}

func (h *AppointmentHandler) GetProviderAppointments(w http.ResponseWriter, r *http.Request) {
	appointments, err := h.appointmentUsecase.ListByProvider(r.Context(), filterFromQuery(r))
	if err != nil {
		response.InternalServerError(w, "Failed to get appointments")
		return
	}

	response.Success(w, http.StatusOK, "Appointments retrieved successfully", appointments)
}

func (h *AppointmentHandler) GetAppointmentStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.appointmentUsecase.GetStats(r.Context())
	if err != nil {
		response.InternalServerError(w, "Failed to get appointment stats")
		return
	}

	response.Success(w, http.StatusOK, "Appointment stats retrieved successfully", stats)
}

func parseAppointmentID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	vars := mux.Vars(r)
	appointmentID, err := uuid.Parse(vars["id"])
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid appointment ID", nil)
		return uuid.Nil, false
	}
	return appointmentID, true
}

func filterFromQuery(r *http.Request) *entity.AppointmentFilter {
	query := r.URL.Query()
	return &entity.AppointmentFilter{
		Status:    query.Get("status"),
		StartDate: query.Get("start_date"),
		EndDate:   query.Get("end_date"),
	}
}

func respondTransitionError(w http.ResponseWriter, err error) {
	switch err {
	case usecase.ErrAppointmentNotFound:
		response.NotFound(w, "Appointment not found")
	case usecase.ErrForbidden:
		response.Forbidden(w, "You are not permitted to perform this action")
	case usecase.ErrConflict:
		response.Error(w, http.StatusConflict, "Appointment was modified concurrently, please retry", nil)
	case usecase.ErrInvalidState, usecase.ErrInvalidTargetStatus, entity.ErrInvalidTransition, entity.ErrCancelActorRequired:
		response.Error(w, http.StatusConflict, err.Error(), nil)
	case usecase.ErrVideoCallNotActive:
		response.Error(w, http.StatusBadRequest, "Video call is not available for this appointment", nil)
	default:
		response.InternalServerError(w, "Failed to update appointment")
	}
}
