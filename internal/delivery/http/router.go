package http

import (
	"net/http"

	"telemed-appointments/internal/delivery/http/handler"
	"telemed-appointments/internal/delivery/http/middleware"

	"github.com/gorilla/mux"
)

type Router struct {
	router              *mux.Router
	authHandler         *handler.AuthHandler
	providerHandler     *handler.ProviderHandler
	patientHandler      *handler.PatientHandler
	appointmentHandler  *handler.AppointmentHandler
	notificationHandler *handler.NotificationHandler
	auditLogHandler     *handler.AuditLogHandler
	authMiddleware      *middleware.AuthMiddleware
	corsMiddleware      *middleware.CORSMiddleware
}

func NewRouter(
	authHandler *handler.AuthHandler,
	providerHandler *handler.ProviderHandler,
	patientHandler *handler.PatientHandler,
	appointmentHandler *handler.AppointmentHandler,
	notificationHandler *handler.NotificationHandler,
	auditLogHandler *handler.AuditLogHandler,
	authMiddleware *middleware.AuthMiddleware,
	corsMiddleware *middleware.CORSMiddleware,
) *Router {
	return &Router{
		router:              mux.NewRouter(),
		authHandler:         authHandler,
		providerHandler:     providerHandler,
		patientHandler:      patientHandler,
		appointmentHandler:  appointmentHandler,
		notificationHandler: notificationHandler,
		auditLogHandler:     auditLogHandler,
		authMiddleware:      authMiddleware,
		corsMiddleware:      corsMiddleware,
	}
}

func (r *Router) Setup() *mux.Router {
	// API versioning
	api := r.router.PathPrefix("/api/v1").Subrouter()

	// Health check
	api.HandleFunc("/health", r.healthCheck).Methods(http.MethodGet)

	// Auth routes (public)
	auth := api.PathPrefix("/auth").Subrouter()
	auth.HandleFunc("/register/patient", r.authHandler.RegisterPatient).Methods(http.MethodPost)
	auth.HandleFunc("/register/provider", r.authHandler.RegisterProvider).Methods(http.MethodPost)
	auth.HandleFunc("/login", r.authHandler.Login).Methods(http.MethodPost)
	auth.HandleFunc("/refresh-token", r.authHandler.RefreshToken).Methods(http.MethodPost)

	// Auth routes (protected)
	authProtected := api.PathPrefix("/auth").Subrouter()
	authProtected.Use(r.authMiddleware.Authenticate)
	authProtected.HandleFunc("/logout", r.authHandler.Logout).Methods(http.MethodPost)
	authProtected.HandleFunc("/me", r.authHandler.GetCurrentUser).Methods(http.MethodGet)

	// Provider directory (protected, any role)
	providers := api.PathPrefix("/providers").Subrouter()
	providers.Use(r.authMiddleware.Authenticate)
	providers.HandleFunc("", r.providerHandler.GetDirectory).Methods(http.MethodGet)
	providers.HandleFunc("/{id}", r.providerHandler.GetProvider).Methods(http.MethodGet)

	// Provider self-service (protected - provider only)
	provider := api.PathPrefix("/provider").Subrouter()
	provider.Use(r.authMiddleware.Authenticate)
	provider.Use(middleware.RequireProvider)
	provider.HandleFunc("/profile", r.providerHandler.UpdateSelfProfile).Methods(http.MethodPut)
	provider.HandleFunc("/appointments", r.appointmentHandler.GetProviderAppointments).Methods(http.MethodGet)

	// Patient self-service (protected - patient only)
	patient := api.PathPrefix("/patient").Subrouter()
	patient.Use(r.authMiddleware.Authenticate)
	patient.Use(middleware.RequirePatient)
	patient.HandleFunc("/profile", r.patientHandler.GetSelfProfile).Methods(http.MethodGet)
	patient.HandleFunc("/profile", r.patientHandler.UpdateSelfProfile).Methods(http.MethodPut)
	patient.HandleFunc("/appointments", r.appointmentHandler.GetMyAppointments).Methods(http.MethodGet)

	// Appointments (protected)
	appointments := api.PathPrefix("/appointments").Subrouter()
	appointments.Use(r.authMiddleware.Authenticate)
	appointments.HandleFunc("", r.appointmentHandler.BookAppointment).Methods(http.MethodPost)
	appointments.HandleFunc("/stats", r.appointmentHandler.GetAppointmentStats).Methods(http.MethodGet)
	appointments.HandleFunc("/{id}", r.appointmentHandler.GetAppointment).Methods(http.MethodGet)
	appointments.HandleFunc("/{id}/status", r.appointmentHandler.TransitionAppointment).Methods(http.MethodPatch)
	appointments.HandleFunc("/{id}/complete", r.appointmentHandler.CompleteAppointment).Methods(http.MethodPost)
	appointments.HandleFunc("/{id}/video-call/start", r.appointmentHandler.StartVideoCall).Methods(http.MethodPost)
	appointments.HandleFunc("/{id}/video-call/end", r.appointmentHandler.EndVideoCall).Methods(http.MethodPost)

	// Notifications (protected)
	notifications := api.PathPrefix("/notifications").Subrouter()
	notifications.Use(r.authMiddleware.Authenticate)
	notifications.HandleFunc("", r.notificationHandler.GetMyNotifications).Methods(http.MethodGet)
	notifications.HandleFunc("/read-all", r.notificationHandler.MarkAllNotificationsRead).Methods(http.MethodPost)
	notifications.HandleFunc("/{id}/read", r.notificationHandler.MarkNotificationRead).Methods(http.MethodPost)

	// Admin routes (protected - admin only)
	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(r.authMiddleware.Authenticate)
	admin.Use(middleware.RequireAdmin)

	// Provider management (admin)
	admin.HandleFunc("/providers", r.providerHandler.GetAllProviders).Methods(http.MethodGet)
	admin.HandleFunc("/providers/{id}/approval", r.providerHandler.ApproveProvider).Methods(http.MethodPut)

	// Audit logs (admin)
	admin.HandleFunc("/audit-logs", r.auditLogHandler.GetAllAuditLogs).Methods(http.MethodGet)
	admin.HandleFunc("/audit-logs/{id}", r.auditLogHandler.GetAuditLog).Methods(http.MethodGet)

	// Add CORS middleware
	r.router.Use(r.corsMiddleware.Handle)

	return r.router
}

func (r *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status": "ok"}`))
}
