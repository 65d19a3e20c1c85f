package handler

import (
	"log/slog"
	"net/http"

	"github.com/starfederation/datastar-go/datastar"

	"github.com/msomdec/clinic-booking/internal/service"
)

// StreamHandler pushes live appointment views over server-sent events.
type StreamHandler struct {
	broadcaster *service.Broadcaster
}

func NewStreamHandler(broadcaster *service.Broadcaster) *StreamHandler {
	return &StreamHandler{broadcaster: broadcaster}
}

// HandleSelf streams the caller's own appointments, or for a doctor
// account, the doctor's. The current view goes out right away, then every
// republished one, each as a datastar signal patch {"appointments": [...]}.
// GET /api/appointments/stream
func (h *StreamHandler) HandleSelf(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, CodeUnauthorized, "Not authenticated.")
		return
	}
	h.stream(w, r, user.ID, service.SelfScope(*user))
}

// HandleAll streams every appointment. Routes must gate it with RequireAdmin.
// GET /api/appointments/stream?scope=all
func (h *StreamHandler) HandleAll(w http.ResponseWriter, r *http.Request) {
	var userID int64
	if user := UserFromContext(r.Context()); user != nil {
		userID = user.ID
	}
	h.stream(w, r, userID, service.AllScope())
}

func (h *StreamHandler) stream(w http.ResponseWriter, r *http.Request, userID int64, scope service.Scope) {
	sub := h.broadcaster.Subscribe(r.Context(), scope)
	defer sub.Close()

	sse := datastar.NewSSE(w, r)
	for {
		select {
		case <-r.Context().Done():
			return
		case appts, ok := <-sub.Updates():
			if !ok {
				return
			}
			signals := map[string]any{"appointments": toAppointmentDTOs(appts)}
			if err := sse.MarshalAndPatchSignals(signals); err != nil {
				slog.Debug("stream appointments", "error", err, "user_id", userID)
				return
			}
		}
	}
}
