package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"unicode"

	"github.com/msomdec/clinic-booking/internal/domain"
)

// Error codes sent next to the message so API clients can tell conflicts
// apart without parsing text.
const (
	CodeInvalidInput      = "invalid_input"
	CodeNotFound          = "not_found"
	CodeDuplicateEmail    = "duplicate_email"
	CodeSlotTaken         = "slot_taken"
	CodeInvalidTransition = "invalid_transition"
	CodeConflict          = "conflict"
	CodeUnauthorized      = "unauthorized"
	CodeForbidden         = "forbidden"
	CodeRateLimited       = "rate_limited"
	CodeInternal          = "internal"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// writeJSON sends a JSON response with the given status code and data.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("write JSON response", "error", err)
	}
}

// writeError sends a JSON error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorBody{Message: message, Code: code})
}

// readJSON decodes the request body into the given destination. Bodies over
// 1MB are rejected.
func readJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	return json.NewDecoder(r.Body).Decode(dst)
}

// pathID parses the {id} path value.
func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	return id, err == nil && id > 0
}

// writeServiceError maps a service error onto a status code. resource names
// the entity in the not-found message. Unrecognized errors are logged under
// op and hidden from the client.
func writeServiceError(w http.ResponseWriter, r *http.Request, op, resource string, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, CodeInvalidInput, inputMessage(err))
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, CodeNotFound, notFoundMessage(err, resource))
	case errors.Is(err, domain.ErrDuplicateEmail):
		writeError(w, http.StatusConflict, CodeDuplicateEmail, "Email already exists.")
	case errors.Is(err, domain.ErrSlotTaken):
		writeError(w, http.StatusConflict, CodeSlotTaken, "This time slot is already booked.")
	case errors.Is(err, domain.ErrInvalidTransition):
		writeError(w, http.StatusConflict, CodeInvalidTransition, "The appointment status cannot change that way.")
	case errors.Is(err, domain.ErrConflict):
		writeError(w, http.StatusConflict, CodeConflict, "The request conflicts with existing data.")
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, CodeUnauthorized, "Not authenticated.")
	case errors.Is(err, domain.ErrForbidden):
		writeError(w, http.StatusForbidden, CodeForbidden, "Not allowed.")
	default:
		slog.Error(op, "error", err, "request_id", RequestIDFromContext(r.Context()))
		writeError(w, http.StatusInternalServerError, CodeInternal, "Unexpected server error.")
	}
}

// inputMessage turns "...: invalid input: missing or invalid email" into
// "Missing or invalid email.".
func inputMessage(err error) string {
	_, detail, ok := strings.Cut(err.Error(), domain.ErrInvalidInput.Error()+": ")
	if !ok || detail == "" {
		return "Invalid request."
	}
	return sentence(detail)
}

// notFoundMessage names the missing entity. Services report a missing
// reference (the doctor of an appointment, say) as "doctor 7: not found".
func notFoundMessage(err error, resource string) string {
	msg := err.Error()
	for _, ref := range []string{"user", "doctor", "doctor profile"} {
		if strings.Contains(msg, ": "+ref+" ") || strings.HasPrefix(msg, ref+" ") {
			resource = ref
		}
	}
	return sentence(resource + " not found")
}

func sentence(s string) string {
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r) + "."
}
