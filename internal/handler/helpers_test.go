package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/msomdec/clinic-booking/internal/domain"
	"github.com/msomdec/clinic-booking/internal/handler"
	"github.com/msomdec/clinic-booking/internal/repository/memory"
	"github.com/msomdec/clinic-booking/internal/service"
	"github.com/msomdec/clinic-booking/internal/store"
)

const testJWTSecret = "test-secret-for-handler-tests-0123456789"

type testEnv struct {
	users        *service.UserService
	doctors      *service.DoctorService
	appointments *service.AppointmentService
	broadcaster  *service.Broadcaster
	srv          *httptest.Server
}

// newTestEnv serves the full route table over the demo data set.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	hasher := service.BcryptHasher{Cost: 4}

	st, err := store.Open(context.Background(), memory.New(), func() (*domain.Snapshot, error) {
		return service.DemoSnapshot(hasher, time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC))
	})
	if err != nil {
		t.Fatalf("Open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	env := &testEnv{
		users:        service.NewUserService(st, hasher, testJWTSecret, service.DemoPassword),
		doctors:      service.NewDoctorService(st),
		appointments: service.NewAppointmentService(st),
		broadcaster:  service.NewBroadcaster(),
	}
	env.broadcaster.Attach(st)

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux, env.users, env.doctors, env.appointments, env.broadcaster,
		service.NewRateLimiter(1000, 1000), false)
	env.srv = httptest.NewServer(handler.Wrap(mux))
	t.Cleanup(env.srv.Close)
	return env
}

// token logs in and returns the session token.
func (env *testEnv) token(t *testing.T, email string) string {
	t.Helper()
	_, token, err := env.users.Login(context.Background(), email, service.DemoPassword)
	if err != nil {
		t.Fatalf("Login %s: %v", email, err)
	}
	return token
}

// do sends a JSON request and decodes the JSON response into out when out
// is non-nil. It returns the status code.
func (env *testEnv) do(t *testing.T, method, path, token string, body, out any) int {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, env.srv.URL+path, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	if out != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("%s %s: decode response: %v", method, path, err)
		}
	}
	return resp.StatusCode
}

func itoa(id int64) string { return strconv.FormatInt(id, 10) }
