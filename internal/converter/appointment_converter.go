package converter

import (
	"telemed-appointments/internal/delivery/dto"
	"telemed-appointments/internal/domain/entity"
)

// AppointmentToResponse converts an Appointment entity to its response DTO
func AppointmentToResponse(appointment *entity.Appointment) *dto.AppointmentResponse {
	if appointment == nil {
		return nil
	}

	response := &dto.AppointmentResponse{
		ID:               appointment.ID,
		PatientID:        appointment.PatientID,
		ProviderID:       appointment.ProviderID,
		AppointmentDate:  appointment.AppointmentDate.Format("2006-01-02"),
		StartTime:        appointment.StartTime,
		EndTime:          appointment.EndTime,
		ConsultationMode: string(appointment.ConsultationMode),
		ReasonForVisit:   appointment.ReasonForVisit,
		Symptoms:         appointment.Symptoms,
		PreDiagnosisID:   appointment.PreDiagnosisID,

		Status: string(appointment.Status),

		RejectionReason:    appointment.RejectionReason,
		CancellationReason: appointment.CancellationReason,
		CancelledBy:        string(appointment.CancelledBy),

		Payment: dto.PaymentResponse{
			ProviderFee:   appointment.Payment.ProviderFee,
			PlatformFee:   appointment.Payment.PlatformFee,
			TotalAmount:   appointment.Payment.TotalAmount,
			Currency:      appointment.Payment.Currency,
			PaymentStatus: string(appointment.Payment.PaymentStatus),
			PaymentID:     appointment.Payment.PaymentID,
			PaymentMethod: appointment.Payment.PaymentMethod,
			PaidAt:        appointment.Payment.PaidAt,
		},

		VideoCallEnabled:   appointment.VideoCallEnabled,
		MeetingCode:        appointment.MeetingCode,
		VideoCallStartedAt: appointment.VideoCallStartedAt,
		VideoCallEndedAt:   appointment.VideoCallEndedAt,

		DoctorNotes:           appointment.DoctorNotes,
		PrescriptionReference: appointment.PrescriptionReference,
		ConfirmedAt:           appointment.ConfirmedAt,
		CompletedAt:           appointment.CompletedAt,

		CreatedAt: appointment.CreatedAt,
		UpdatedAt: appointment.UpdatedAt,
	}

	for _, event := range appointment.StatusHistory {
		response.StatusHistory = append(response.StatusHistory, dto.StatusEventResponse{
			Status:    string(event.Status),
			ChangedBy: event.ChangedBy,
			ChangedAt: event.ChangedAt,
			Notes:     event.Notes,
		})
	}

	return response
}

// AppointmentsToResponses converts a slice of Appointment entities to DTOs
func AppointmentsToResponses(appointments []entity.Appointment) []dto.AppointmentResponse {
	responses := make([]dto.AppointmentResponse, len(appointments))
	for i, appointment := range appointments {
		resp := AppointmentToResponse(&appointment)
		if resp != nil {
			responses[i] = *resp
		}
	}
	return responses
}

// StatusCountsToResponse converts aggregated status counts to the stats DTO
func StatusCountsToResponse(counts *entity.StatusCounts) *dto.AppointmentStatsResponse {
	if counts == nil {
		return nil
	}
	return &dto.AppointmentStatsResponse{
		Total:     counts.Total,
		Pending:   counts.Pending,
		Confirmed: counts.Confirmed,
		Rejected:  counts.Rejected,
		Cancelled: counts.Cancelled,
		Completed: counts.Completed,
	}
}
