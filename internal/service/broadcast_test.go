package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/msomdec/clinic-booking/internal/domain"
	"github.com/msomdec/clinic-booking/internal/service"
)

func receive(t *testing.T, sub *service.Subscription) []domain.Appointment {
	t.Helper()
	select {
	case v, ok := <-sub.Updates():
		if !ok {
			t.Fatal("subscription closed unexpectedly")
		}
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a view")
		return nil
	}
}

func TestBroadcaster_ReplaysLatestOnSubscribe(t *testing.T) {
	svc := newTestServices(t)
	patient, _ := svc.users.GetByID(context.Background(), 2)

	sub := svc.broadcaster.Subscribe(t.Context(), service.SelfScope(*patient))
	defer sub.Close()

	view := receive(t, sub)
	if len(view) != 1 || view[0].ID != 1 {
		t.Fatalf("expected the seeded appointment, got %+v", view)
	}

	// Subscribing again replays the same view and changes nothing.
	again := svc.broadcaster.Subscribe(t.Context(), service.SelfScope(*patient))
	defer again.Close()
	if v := receive(t, again); len(v) != 1 {
		t.Fatalf("expected replay of 1 appointment, got %d", len(v))
	}
	if n := svc.broadcaster.Subscribers(); n != 2 {
		t.Fatalf("expected 2 subscribers, got %d", n)
	}
}

func TestBroadcaster_PublishesCommits(t *testing.T) {
	svc := newTestServices(t)
	ctx := context.Background()
	patient, _ := svc.users.GetByID(ctx, 2)

	self := svc.broadcaster.Subscribe(t.Context(), service.SelfScope(*patient))
	defer self.Close()
	all := svc.broadcaster.Subscribe(t.Context(), service.AllScope())
	defer all.Close()
	receive(t, self)
	receive(t, all)

	if _, err := svc.appointments.Create(ctx, 1, domain.AppointmentInput{
		DoctorID: 2, Date: seedDate, Time: "13:00", Reason: "admin's own",
	}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if v := receive(t, all); len(v) != 2 {
		t.Fatalf("expected all scope to see 2 appointments, got %d", len(v))
	}
	if v := receive(t, self); len(v) != 1 {
		t.Fatalf("expected self scope to keep 1 appointment, got %d", len(v))
	}
}

func TestBroadcaster_LatestWins(t *testing.T) {
	b := service.NewBroadcaster()
	sub := b.Subscribe(t.Context(), service.AllScope())
	defer sub.Close()

	for i := 1; i <= 5; i++ {
		appts := make([]domain.Appointment, i)
		for j := range appts {
			appts[j] = domain.Appointment{ID: int64(j + 1)}
		}
		b.Publish(service.ViewState{Appointments: appts})
	}

	if v := receive(t, sub); len(v) != 5 {
		t.Fatalf("expected only the newest view with 5 appointments, got %d", len(v))
	}
	select {
	case v := <-sub.Updates():
		t.Fatalf("expected no stale views, got %+v", v)
	default:
	}
}

func TestBroadcaster_DoctorScopeFollowsRename(t *testing.T) {
	b := service.NewBroadcaster()
	doctorUser := domain.User{ID: 5, Name: "Dr. Sarah Wilson", Role: domain.RoleDoctor}
	doctors := []domain.Doctor{{ID: 1, Name: "Dr. Sarah Wilson"}, {ID: 2, Name: "Dr. Michael Chen"}}
	appts := []domain.Appointment{
		{ID: 1, DoctorID: 1, DoctorName: "Dr. Sarah Wilson"},
		{ID: 2, DoctorID: 2, DoctorName: "Dr. Michael Chen"},
	}
	b.Publish(service.ViewState{Users: []domain.User{doctorUser}, Doctors: doctors, Appointments: appts})

	sub := b.Subscribe(t.Context(), service.SelfScope(doctorUser))
	defer sub.Close()
	if v := receive(t, sub); len(v) != 1 || v[0].ID != 1 {
		t.Fatalf("expected appointment 1, got %+v", v)
	}

	renamed := doctorUser
	renamed.Name = "Dr. Michael Chen"
	b.Publish(service.ViewState{Users: []domain.User{renamed}, Doctors: doctors, Appointments: appts})
	if v := receive(t, sub); len(v) != 1 || v[0].ID != 2 {
		t.Fatalf("expected renamed account to see appointment 2, got %+v", v)
	}
}

func TestBroadcaster_ContextCancelUnsubscribes(t *testing.T) {
	b := service.NewBroadcaster()
	ctx, cancel := context.WithCancel(context.Background())

	sub := b.Subscribe(ctx, service.AllScope())
	receive(t, sub)
	cancel()

	select {
	case _, ok := <-sub.Updates():
		if ok {
			t.Fatal("expected the channel to be closed")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("subscription was not closed after cancel")
	}
	if n := b.Subscribers(); n != 0 {
		t.Fatalf("expected 0 subscribers, got %d", n)
	}

	// Publishing after close and closing twice are both safe.
	b.Publish(service.ViewState{})
	sub.Close()
}
