package handler

import (
	"net/http"

	"github.com/msomdec/clinic-booking/internal/service"
)

type DoctorHandler struct {
	doctors *service.DoctorService
}

func NewDoctorHandler(doctors *service.DoctorService) *DoctorHandler {
	return &DoctorHandler{doctors: doctors}
}

// GET /api/doctors
func (h *DoctorHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	doctors, err := h.doctors.List(r.Context())
	if err != nil {
		writeServiceError(w, r, "list doctors", "doctor", err)
		return
	}
	writeJSON(w, http.StatusOK, toDoctorDTOs(doctors))
}

// GET /api/doctors/{id}
func (h *DoctorHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, CodeInvalidInput, "Invalid doctor id.")
		return
	}

	doctor, err := h.doctors.GetByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, "get doctor", "doctor", err)
		return
	}
	writeJSON(w, http.StatusOK, toDoctorDTO(doctor))
}

// HandleCreate adds a doctor profile. The rating may be sent as a number or
// a numeric string.
// POST /api/doctors
func (h *DoctorHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req DoctorRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, CodeInvalidInput, "Invalid request body.")
		return
	}

	doctor, err := h.doctors.Create(r.Context(), req.input())
	if err != nil {
		writeServiceError(w, r, "create doctor", "doctor", err)
		return
	}
	writeJSON(w, http.StatusCreated, toDoctorDTO(doctor))
}

// PUT /api/doctors/{id}
func (h *DoctorHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, CodeInvalidInput, "Invalid doctor id.")
		return
	}

	var req DoctorRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, CodeInvalidInput, "Invalid request body.")
		return
	}

	doctor, err := h.doctors.Update(r.Context(), id, req.changes())
	if err != nil {
		writeServiceError(w, r, "update doctor", "doctor", err)
		return
	}
	writeJSON(w, http.StatusOK, toDoctorDTO(doctor))
}

// HandleDelete removes a doctor profile. Its appointments stay.
// DELETE /api/doctors/{id}
func (h *DoctorHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, CodeInvalidInput, "Invalid doctor id.")
		return
	}

	if err := h.doctors.Delete(r.Context(), id); err != nil {
		writeServiceError(w, r, "delete doctor", "doctor", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
