package jsonfile_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/msomdec/clinic-booking/internal/domain"
	"github.com/msomdec/clinic-booking/internal/repository/jsonfile"
)

func TestGateway_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "db.json")
	g, err := jsonfile.New(path)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx := context.Background()

	if _, err := g.Load(ctx); !errors.Is(err, domain.ErrNoSnapshot) {
		t.Fatalf("expected ErrNoSnapshot, got %v", err)
	}

	snap := &domain.Snapshot{
		Users:   []domain.User{{ID: 1, Name: "Demo Patient", Email: "patient@demo.com", Role: domain.RolePatient, Password: "password123"}},
		NextIDs: map[string]int64{"users": 2},
	}
	if err := g.Save(ctx, snap); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := g.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got.Users) != 1 || got.Users[0].Email != "patient@demo.com" {
		t.Fatalf("unexpected users: %+v", got.Users)
	}
	if got.NextIDs["users"] != 2 {
		t.Fatalf("expected next user id 2, got %d", got.NextIDs["users"])
	}

	// No temp files are left behind.
	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected only db.json in data dir, got %d entries", len(entries))
	}
}

func TestGateway_DocumentLayout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.json")
	g, err := jsonfile.New(path)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	snap := &domain.Snapshot{
		Appointments: []domain.Appointment{{ID: 1, UserID: 2, DoctorID: 1, DoctorName: "Dr. Sarah Wilson",
			Date: "2025-06-01", Time: "09:00", Reason: "Annual check-up", Status: domain.StatusConfirmed}},
		NextIDs: map[string]int64{"users": 3, "doctors": 7, "appointments": 2},
	}
	if err := g.Save(context.Background(), snap); err != nil {
		t.Fatalf("Save: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	for _, key := range []string{"users", "doctors", "appointments", "nextIds"} {
		if _, ok := doc[key]; !ok {
			t.Fatalf("expected top-level key %q", key)
		}
	}

	var appts []map[string]any
	if err := json.Unmarshal(doc["appointments"], &appts); err != nil {
		t.Fatalf("Unmarshal appointments: %v", err)
	}
	if appts[0]["doctorId"] != float64(1) || appts[0]["doctorName"] != "Dr. Sarah Wilson" {
		t.Fatalf("unexpected appointment fields: %v", appts[0])
	}
}

func TestGateway_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	g, err := jsonfile.New(path)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	_, err = g.Load(context.Background())
	if err == nil || errors.Is(err, domain.ErrNoSnapshot) {
		t.Fatalf("expected a decode error, got %v", err)
	}
}
