package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/msomdec/clinic-booking/internal/domain"
	"github.com/msomdec/clinic-booking/internal/repository/memory"
	"github.com/msomdec/clinic-booking/internal/service"
	"github.com/msomdec/clinic-booking/internal/store"
)

const testJWTSecret = "test-secret-key-for-unit-tests-0123456789"

type testServices struct {
	store        *store.Store
	users        *service.UserService
	doctors      *service.DoctorService
	appointments *service.AppointmentService
	broadcaster  *service.Broadcaster
}

// newTestServices wires every service over a memory gateway seeded with the
// demo data set. Cost 4 keeps bcrypt fast.
func newTestServices(t *testing.T) *testServices {
	t.Helper()
	hasher := service.BcryptHasher{Cost: 4}

	st, err := store.Open(context.Background(), memory.New(), func() (*domain.Snapshot, error) {
		return service.DemoSnapshot(hasher, time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC))
	})
	if err != nil {
		t.Fatalf("Open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	b := service.NewBroadcaster()
	b.Attach(st)

	return &testServices{
		store:        st,
		users:        service.NewUserService(st, hasher, testJWTSecret, service.DemoPassword),
		doctors:      service.NewDoctorService(st),
		appointments: service.NewAppointmentService(st),
		broadcaster:  b,
	}
}

func ptr[T any](v T) *T { return &v }
