package handler

import (
	"net/http"
	"strconv"

	"github.com/msomdec/clinic-booking/internal/domain"
	"github.com/msomdec/clinic-booking/internal/service"
)

// AppointmentHandler serves booking, triage, and the doctor's own views.
type AppointmentHandler struct {
	appointments *service.AppointmentService
}

func NewAppointmentHandler(appointments *service.AppointmentService) *AppointmentHandler {
	return &AppointmentHandler{appointments: appointments}
}

// HandleList returns appointments newest first. ?userId= restricts the list
// to one patient.
// GET /api/appointments
func (h *AppointmentHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	var filter domain.AppointmentFilter
	if v := r.URL.Query().Get("userId"); v != "" {
		userID, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, CodeInvalidInput, "Invalid userId.")
			return
		}
		filter.UserID = &userID
	}

	appts, err := h.appointments.List(r.Context(), filter)
	if err != nil {
		writeServiceError(w, r, "list appointments", "appointment", err)
		return
	}
	writeJSON(w, http.StatusOK, toAppointmentDTOs(appts))
}

// GET /api/appointments/{id}
func (h *AppointmentHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, CodeInvalidInput, "Invalid appointment id.")
		return
	}

	appt, err := h.appointments.GetByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, "get appointment", "appointment", err)
		return
	}
	writeJSON(w, http.StatusOK, toAppointmentDTO(appt))
}

// HandleCreate books a slot. The patient is the body's userId, or the
// caller when it is omitted.
// POST /api/appointments
func (h *AppointmentHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req AppointmentRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, CodeInvalidInput, "Invalid request body.")
		return
	}

	var userID int64
	switch {
	case req.UserID != nil:
		userID = *req.UserID
	case UserFromContext(r.Context()) != nil:
		userID = UserFromContext(r.Context()).ID
	default:
		writeError(w, http.StatusBadRequest, CodeInvalidInput, "Missing or invalid userId.")
		return
	}

	appt, err := h.appointments.Create(r.Context(), userID, req.input())
	if err != nil {
		writeServiceError(w, r, "create appointment", "appointment", err)
		return
	}
	writeJSON(w, http.StatusCreated, toAppointmentDTO(appt))
}

// HandleUpdate merges the supplied fields and re-checks the slot.
// PUT /api/appointments/{id}
func (h *AppointmentHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, CodeInvalidInput, "Invalid appointment id.")
		return
	}

	var req AppointmentRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, CodeInvalidInput, "Invalid request body.")
		return
	}

	appt, err := h.appointments.Update(r.Context(), id, req.changes())
	if err != nil {
		writeServiceError(w, r, "update appointment", "appointment", err)
		return
	}
	writeJSON(w, http.StatusOK, toAppointmentDTO(appt))
}

// POST /api/appointments/{id}/cancel
func (h *AppointmentHandler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, CodeInvalidInput, "Invalid appointment id.")
		return
	}

	appt, err := h.appointments.Cancel(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, "cancel appointment", "appointment", err)
		return
	}
	writeJSON(w, http.StatusOK, toAppointmentDTO(appt))
}

// DELETE /api/appointments/{id}
func (h *AppointmentHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, CodeInvalidInput, "Invalid appointment id.")
		return
	}

	if err := h.appointments.Delete(r.Context(), id); err != nil {
		writeServiceError(w, r, "delete appointment", "appointment", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleDoctorProfile returns the doctor profile the caller's account
// resolves to by name.
// GET /api/doctors/me
func (h *AppointmentHandler) HandleDoctorProfile(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, CodeUnauthorized, "Not authenticated.")
		return
	}
	if user.Role != domain.RoleDoctor {
		writeError(w, http.StatusForbidden, CodeForbidden, "Doctor access required.")
		return
	}

	doctor, err := h.appointments.DoctorProfile(r.Context(), *user)
	if err != nil {
		writeServiceError(w, r, "resolve doctor profile", "doctor profile", err)
		return
	}
	writeJSON(w, http.StatusOK, toDoctorDTO(doctor))
}

// HandleDoctorAppointments returns the caller's appointments as a doctor.
// GET /api/doctors/me/appointments
func (h *AppointmentHandler) HandleDoctorAppointments(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, CodeUnauthorized, "Not authenticated.")
		return
	}
	if user.Role != domain.RoleDoctor {
		writeError(w, http.StatusForbidden, CodeForbidden, "Doctor access required.")
		return
	}

	appts, err := h.appointments.ListForDoctor(r.Context(), *user)
	if err != nil {
		writeServiceError(w, r, "list doctor appointments", "appointment", err)
		return
	}
	writeJSON(w, http.StatusOK, toAppointmentDTOs(appts))
}
