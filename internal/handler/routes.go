package handler

import (
	"net/http"

	"github.com/msomdec/clinic-booking/internal/service"
)

// RegisterRoutes sets up all HTTP routes on the given mux. The CRUD routes
// are open and only use a session when one is present; the per-identity
// routes require one. Auth endpoints are rate
// limited per client IP.
func RegisterRoutes(
	mux *http.ServeMux,
	users *service.UserService,
	doctors *service.DoctorService,
	appointments *service.AppointmentService,
	broadcaster *service.Broadcaster,
	limiter *service.RateLimiter,
	cookieSecure bool,
) {
	authHandler := NewAuthHandler(users, cookieSecure)
	userHandler := NewUserHandler(users)
	doctorHandler := NewDoctorHandler(doctors)
	apptHandler := NewAppointmentHandler(appointments)
	streamHandler := NewStreamHandler(broadcaster)

	optional := func(h http.HandlerFunc) http.Handler { return OptionalAuth(users, h) }
	required := func(h http.HandlerFunc) http.Handler { return RequireAuth(users, h) }
	limited := func(h http.HandlerFunc) http.Handler { return RateLimit(limiter, h) }

	mux.HandleFunc("GET /healthz", HandleHealthz)

	// Auth
	mux.Handle("POST /api/auth/login", limited(authHandler.HandleLogin))
	mux.Handle("POST /api/auth/register", limited(authHandler.HandleRegister))
	mux.HandleFunc("POST /api/auth/logout", authHandler.HandleLogout)
	mux.Handle("GET /api/auth/me", required(authHandler.HandleMe))

	// Users
	mux.Handle("GET /api/users", optional(userHandler.HandleList))
	mux.Handle("POST /api/users", optional(userHandler.HandleCreate))
	mux.Handle("GET /api/users/{id}", optional(userHandler.HandleGet))
	mux.Handle("PUT /api/users/{id}", optional(userHandler.HandleUpdate))
	mux.Handle("DELETE /api/users/{id}", optional(userHandler.HandleDelete))

	// Doctors
	mux.Handle("GET /api/doctors", optional(doctorHandler.HandleList))
	mux.Handle("POST /api/doctors", optional(doctorHandler.HandleCreate))
	mux.Handle("GET /api/doctors/me", required(apptHandler.HandleDoctorProfile))
	mux.Handle("GET /api/doctors/me/appointments", required(apptHandler.HandleDoctorAppointments))
	mux.Handle("GET /api/doctors/{id}", optional(doctorHandler.HandleGet))
	mux.Handle("PUT /api/doctors/{id}", optional(doctorHandler.HandleUpdate))
	mux.Handle("DELETE /api/doctors/{id}", optional(doctorHandler.HandleDelete))

	// Appointments
	mux.Handle("GET /api/appointments", optional(apptHandler.HandleList))
	mux.Handle("POST /api/appointments", optional(apptHandler.HandleCreate))
	mux.Handle("GET /api/appointments/stream", streamByScope(
		required(streamHandler.HandleSelf),
		RequireAdmin(users, http.HandlerFunc(streamHandler.HandleAll)),
	))
	mux.Handle("GET /api/appointments/{id}", optional(apptHandler.HandleGet))
	mux.Handle("PUT /api/appointments/{id}", optional(apptHandler.HandleUpdate))
	mux.Handle("POST /api/appointments/{id}/cancel", optional(apptHandler.HandleCancel))
	mux.Handle("DELETE /api/appointments/{id}", optional(apptHandler.HandleDelete))
}

// streamByScope picks the stream for ?scope=: self (the default) or all.
func streamByScope(self, all http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("scope") {
		case "", "self":
			self.ServeHTTP(w, r)
		case "all":
			all.ServeHTTP(w, r)
		default:
			writeError(w, http.StatusBadRequest, CodeInvalidInput, "Scope must be self or all.")
		}
	})
}

// Wrap applies the middleware every request goes through.
func Wrap(mux http.Handler) http.Handler {
	return RequestID(LogRequests(SecurityHeaders(mux)))
}
