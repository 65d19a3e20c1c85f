package handler_test

import (
	"bufio"
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/msomdec/clinic-booking/internal/domain"
)

// openStream starts an SSE request and returns a function that yields the
// data of each next signal patch.
func openStream(t *testing.T, env *testEnv, token, scope string) func() string {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, env.srv.URL+"/api/appointments/stream?scope="+scope, nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET stream: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		t.Fatalf("expected an event stream, got %s", ct)
	}

	scanner := bufio.NewScanner(resp.Body)
	return func() string {
		t.Helper()
		for scanner.Scan() {
			if data, ok := strings.CutPrefix(scanner.Text(), "data: signals "); ok {
				return data
			}
		}
		t.Fatalf("stream ended: %v", scanner.Err())
		return ""
	}
}

func TestStream_SelfScope(t *testing.T) {
	env := newTestEnv(t)
	next := openStream(t, env, env.token(t, "patient@demo.com"), "self")

	first := next()
	if !strings.Contains(first, `"appointments":[`) || !strings.Contains(first, `"reason":"Annual check-up"`) {
		t.Fatalf("expected the replayed view, got %s", first)
	}

	if _, err := env.appointments.Create(context.Background(), 2, domain.AppointmentInput{
		DoctorID: 4, Date: "2025-05-09", Time: "15:00", Reason: "Sprained ankle",
	}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if second := next(); !strings.Contains(second, "Sprained ankle") {
		t.Fatalf("expected the new appointment to be pushed, got %s", second)
	}
}

func TestStream_AllScopeRequiresAdmin(t *testing.T) {
	env := newTestEnv(t)

	if status := env.do(t, http.MethodGet, "/api/appointments/stream?scope=all", env.token(t, "patient@demo.com"), nil, nil); status != http.StatusForbidden {
		t.Fatalf("expected 403 for a patient, got %d", status)
	}
	if status := env.do(t, http.MethodGet, "/api/appointments/stream?scope=all", "", nil, nil); status != http.StatusUnauthorized {
		t.Fatalf("expected 401 for the all scope without a session, got %d", status)
	}
	if status := env.do(t, http.MethodGet, "/api/appointments/stream", "", nil, nil); status != http.StatusUnauthorized {
		t.Fatalf("expected 401 without a session, got %d", status)
	}
	if status := env.do(t, http.MethodGet, "/api/appointments/stream?scope=everything", env.token(t, "admin@demo.com"), nil, nil); status != http.StatusBadRequest {
		t.Fatalf("expected 400 for an unknown scope, got %d", status)
	}

	next := openStream(t, env, env.token(t, "admin@demo.com"), "all")
	if first := next(); !strings.Contains(first, `"userId":2`) {
		t.Fatalf("expected the admin to see the patient's appointment, got %s", first)
	}
}
