package domain

import (
	"context"
	"slices"
)

// Collection keys used in Snapshot.NextIDs.
const (
	CollectionUsers        = "users"
	CollectionDoctors      = "doctors"
	CollectionAppointments = "appointments"
)

// Snapshot is the complete persisted state: the three collections plus the
// per-collection id counters.
type Snapshot struct {
	Users        []User           `json:"users"`
	Doctors      []Doctor         `json:"doctors"`
	Appointments []Appointment    `json:"appointments"`
	NextIDs      map[string]int64 `json:"nextIds"`
}

// Gateway persists whole snapshots. Each implementation (memory, JSON file,
// SQLite) owns its own storage format so the backing store is swappable.
type Gateway interface {
	// Load returns ErrNoSnapshot if nothing has been saved yet.
	Load(ctx context.Context) (*Snapshot, error)
	Save(ctx context.Context, snap *Snapshot) error
	Close() error
}

// Clone returns a deep copy.
func (s *Snapshot) Clone() *Snapshot {
	c := &Snapshot{
		Users:        slices.Clone(s.Users),
		Doctors:      slices.Clone(s.Doctors),
		Appointments: slices.Clone(s.Appointments),
		NextIDs:      make(map[string]int64, len(s.NextIDs)),
	}
	for k, v := range s.NextIDs {
		c.NextIDs[k] = v
	}
	return c
}

// NextID allocates the next id for a collection. A missing counter starts
// at 1.
func (s *Snapshot) NextID(collection string) int64 {
	if s.NextIDs == nil {
		s.NextIDs = make(map[string]int64)
	}
	id := s.NextIDs[collection]
	if id < 1 {
		id = 1
	}
	s.NextIDs[collection] = id + 1
	return id
}

func (s *Snapshot) UserIndex(id int64) int {
	return slices.IndexFunc(s.Users, func(u User) bool { return u.ID == id })
}

func (s *Snapshot) DoctorIndex(id int64) int {
	return slices.IndexFunc(s.Doctors, func(d Doctor) bool { return d.ID == id })
}

func (s *Snapshot) AppointmentIndex(id int64) int {
	return slices.IndexFunc(s.Appointments, func(a Appointment) bool { return a.ID == id })
}
