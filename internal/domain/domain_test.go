package domain_test

import (
	"errors"
	"testing"

	"github.com/msomdec/clinic-booking/internal/domain"
)

func TestHasConflict(t *testing.T) {
	appts := []domain.Appointment{
		{ID: 1, DoctorID: 1, Date: "2025-06-01", Time: "09:00", Status: domain.StatusConfirmed},
		{ID: 2, DoctorID: 1, Date: "2025-06-01", Time: "10:00", Status: domain.StatusCancelled},
		{ID: 3, DoctorID: 2, Date: "2025-06-01", Time: "09:00", Status: domain.StatusPending},
	}

	tests := []struct {
		name     string
		doctorID int64
		date     string
		clock    string
		ignoreID int64
		want     bool
	}{
		{"held slot", 1, "2025-06-01", "09:00", 0, true},
		{"same slot ignoring itself", 1, "2025-06-01", "09:00", 1, false},
		{"cancelled slot is free", 1, "2025-06-01", "10:00", 0, false},
		{"pending holds slot", 2, "2025-06-01", "09:00", 0, true},
		{"other date", 1, "2025-06-02", "09:00", 0, false},
		{"other doctor", 3, "2025-06-01", "09:00", 0, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := domain.HasConflict(appts, tc.doctorID, tc.date, tc.clock, tc.ignoreID)
			if got != tc.want {
				t.Fatalf("HasConflict = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to domain.Status
		want     bool
	}{
		{domain.StatusPending, domain.StatusConfirmed, true},
		{domain.StatusPending, domain.StatusCancelled, true},
		{domain.StatusConfirmed, domain.StatusCancelled, true},
		{domain.StatusConfirmed, domain.StatusPending, false},
		{domain.StatusCancelled, domain.StatusConfirmed, false},
		{domain.StatusCancelled, domain.StatusPending, false},
		{domain.StatusCancelled, domain.StatusCancelled, true},
		{domain.StatusConfirmed, domain.StatusConfirmed, true},
	}

	for _, tc := range tests {
		t.Run(string(tc.from)+"->"+string(tc.to), func(t *testing.T) {
			if got := domain.CanTransition(tc.from, tc.to); got != tc.want {
				t.Fatalf("CanTransition = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestSnapshot_NextID(t *testing.T) {
	snap := &domain.Snapshot{NextIDs: map[string]int64{domain.CollectionUsers: 3}}

	if id := snap.NextID(domain.CollectionUsers); id != 3 {
		t.Fatalf("expected id 3, got %d", id)
	}
	if id := snap.NextID(domain.CollectionUsers); id != 4 {
		t.Fatalf("expected id 4, got %d", id)
	}
	// Missing counters start at 1.
	if id := snap.NextID(domain.CollectionDoctors); id != 1 {
		t.Fatalf("expected id 1, got %d", id)
	}
}

func TestSnapshot_CloneIsIndependent(t *testing.T) {
	snap := &domain.Snapshot{
		Users:   []domain.User{{ID: 1, Name: "A"}},
		NextIDs: map[string]int64{domain.CollectionUsers: 2},
	}

	c := snap.Clone()
	c.Users[0].Name = "B"
	c.NextID(domain.CollectionUsers)

	if snap.Users[0].Name != "A" {
		t.Fatal("clone shares user slice with original")
	}
	if snap.NextIDs[domain.CollectionUsers] != 2 {
		t.Fatal("clone shares id counters with original")
	}
}

func TestConflictErrorsWrapConflict(t *testing.T) {
	for _, err := range []error{domain.ErrDuplicateEmail, domain.ErrSlotTaken, domain.ErrInvalidTransition} {
		if !errors.Is(err, domain.ErrConflict) {
			t.Fatalf("%v does not wrap ErrConflict", err)
		}
	}
}
