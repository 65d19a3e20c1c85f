package service

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/msomdec/clinic-booking/internal/domain"
	"github.com/msomdec/clinic-booking/internal/store"
)

// AppointmentService books and edits appointments. Every write re-checks the
// slot inside the store's write lock, so two bookings racing for the same
// (doctor, date, time) cannot both succeed.
type AppointmentService struct {
	store *store.Store
	now   func() time.Time
}

func NewAppointmentService(st *store.Store) *AppointmentService {
	return &AppointmentService{store: st, now: time.Now}
}

// List returns appointments newest first, optionally only those of one user.
func (s *AppointmentService) List(ctx context.Context, filter domain.AppointmentFilter) ([]domain.Appointment, error) {
	out := []domain.Appointment{}
	s.store.View(func(snap *domain.Snapshot) {
		for _, a := range snap.Appointments {
			if filter.UserID == nil || a.UserID == *filter.UserID {
				out = append(out, a)
			}
		}
	})
	sortNewestFirst(out)
	return out, nil
}

// ListForDoctor returns the appointments of the doctor behind a doctor-role
// account, newest first.
func (s *AppointmentService) ListForDoctor(ctx context.Context, user domain.User) ([]domain.Appointment, error) {
	var out []domain.Appointment
	s.store.View(func(snap *domain.Snapshot) {
		out = AppointmentsForDoctor(user, snap.Doctors, snap.Appointments)
	})
	sortNewestFirst(out)
	return out, nil
}

// DoctorProfile resolves the doctor profile of a doctor-role account.
func (s *AppointmentService) DoctorProfile(ctx context.Context, user domain.User) (*domain.Doctor, error) {
	var (
		profile *domain.Doctor
		ok      bool
	)
	s.store.View(func(snap *domain.Snapshot) {
		profile, ok = ResolveDoctorProfile(user, snap.Doctors)
	})
	if !ok {
		return nil, domain.ErrNotFound
	}
	return profile, nil
}

func (s *AppointmentService) GetByID(ctx context.Context, id int64) (*domain.Appointment, error) {
	var appt *domain.Appointment
	s.store.View(func(snap *domain.Snapshot) {
		if i := snap.AppointmentIndex(id); i >= 0 {
			a := snap.Appointments[i]
			appt = &a
		}
	})
	if appt == nil {
		return nil, domain.ErrNotFound
	}
	return appt, nil
}

// Create books a slot for userID. The doctor's current name is copied into
// the appointment. Status defaults to confirmed; callers booking on someone's
// behalf may ask for pending instead.
func (s *AppointmentService) Create(ctx context.Context, userID int64, in domain.AppointmentInput) (*domain.Appointment, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	if in.Status == "" {
		in.Status = domain.StatusConfirmed
	}
	in.Date, in.Time = canonicalDate(in.Date), canonicalClock(in.Time)

	var created domain.Appointment
	err := s.store.Update(ctx, func(snap *domain.Snapshot) error {
		if snap.UserIndex(userID) < 0 {
			return fmt.Errorf("user %d: %w", userID, domain.ErrNotFound)
		}
		di := snap.DoctorIndex(in.DoctorID)
		if di < 0 {
			return fmt.Errorf("doctor %d: %w", in.DoctorID, domain.ErrNotFound)
		}
		if domain.HasConflict(snap.Appointments, in.DoctorID, in.Date, in.Time, 0) {
			return domain.ErrSlotTaken
		}

		created = domain.Appointment{
			ID:         snap.NextID(domain.CollectionAppointments),
			UserID:     userID,
			DoctorID:   in.DoctorID,
			DoctorName: snap.Doctors[di].Name,
			Date:       in.Date,
			Time:       in.Time,
			Reason:     in.Reason,
			Status:     in.Status,
			CreatedAt:  s.now().UTC(),
		}
		snap.Appointments = append(snap.Appointments, created)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("create appointment: %w", err)
	}
	return &created, nil
}

// Update merges changes onto an appointment and validates the merged record:
// the status change must follow pending -> confirmed -> cancelled, and an
// active result must not collide with another active appointment.
func (s *AppointmentService) Update(ctx context.Context, id int64, changes domain.AppointmentChanges) (*domain.Appointment, error) {
	if err := validateInput(changes); err != nil {
		return nil, err
	}

	var updated domain.Appointment
	err := s.store.Update(ctx, func(snap *domain.Snapshot) error {
		i := snap.AppointmentIndex(id)
		if i < 0 {
			return domain.ErrNotFound
		}
		existing := snap.Appointments[i]
		merged := existing

		if changes.UserID != nil {
			if snap.UserIndex(*changes.UserID) < 0 {
				return fmt.Errorf("user %d: %w", *changes.UserID, domain.ErrNotFound)
			}
			merged.UserID = *changes.UserID
		}
		if changes.DoctorID != nil && *changes.DoctorID != existing.DoctorID {
			di := snap.DoctorIndex(*changes.DoctorID)
			if di < 0 {
				return fmt.Errorf("doctor %d: %w", *changes.DoctorID, domain.ErrNotFound)
			}
			merged.DoctorID = *changes.DoctorID
			merged.DoctorName = snap.Doctors[di].Name
		}
		if changes.Date != nil {
			merged.Date = canonicalDate(*changes.Date)
		}
		if changes.Time != nil {
			merged.Time = canonicalClock(*changes.Time)
		}
		if changes.Reason != nil {
			merged.Reason = *changes.Reason
		}
		if changes.Status != nil {
			merged.Status = *changes.Status
		}

		if !domain.CanTransition(existing.Status, merged.Status) {
			return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, existing.Status, merged.Status)
		}
		if merged.Active() && domain.HasConflict(snap.Appointments, merged.DoctorID, merged.Date, merged.Time, id) {
			return domain.ErrSlotTaken
		}

		snap.Appointments[i] = merged
		updated = merged
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("update appointment: %w", err)
	}
	return &updated, nil
}

// Cancel frees the appointment's slot. Cancelling twice succeeds.
func (s *AppointmentService) Cancel(ctx context.Context, id int64) (*domain.Appointment, error) {
	cancelled := domain.StatusCancelled
	return s.Update(ctx, id, domain.AppointmentChanges{Status: &cancelled})
}

func (s *AppointmentService) Delete(ctx context.Context, id int64) error {
	err := s.store.Update(ctx, func(snap *domain.Snapshot) error {
		i := snap.AppointmentIndex(id)
		if i < 0 {
			return domain.ErrNotFound
		}
		snap.Appointments = slices.Delete(snap.Appointments, i, i+1)
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete appointment: %w", err)
	}
	return nil
}

func sortNewestFirst(appts []domain.Appointment) {
	slices.SortStableFunc(appts, func(a, b domain.Appointment) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
}
