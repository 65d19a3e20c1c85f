package service

import (
	"context"
	"fmt"
	"slices"

	"github.com/msomdec/clinic-booking/internal/domain"
	"github.com/msomdec/clinic-booking/internal/store"
)

// DoctorService manages doctor profiles. Deleting a doctor leaves its
// appointments in place, still carrying the old doctorId and doctorName.
type DoctorService struct {
	store *store.Store
}

func NewDoctorService(st *store.Store) *DoctorService {
	return &DoctorService{store: st}
}

func (s *DoctorService) List(ctx context.Context) ([]domain.Doctor, error) {
	var doctors []domain.Doctor
	s.store.View(func(snap *domain.Snapshot) {
		doctors = slices.Clone(snap.Doctors)
	})
	return doctors, nil
}

func (s *DoctorService) GetByID(ctx context.Context, id int64) (*domain.Doctor, error) {
	var doctor *domain.Doctor
	s.store.View(func(snap *domain.Snapshot) {
		if i := snap.DoctorIndex(id); i >= 0 {
			d := snap.Doctors[i]
			doctor = &d
		}
	})
	if doctor == nil {
		return nil, domain.ErrNotFound
	}
	return doctor, nil
}

func (s *DoctorService) Create(ctx context.Context, in domain.DoctorInput) (*domain.Doctor, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}

	var created domain.Doctor
	err := s.store.Update(ctx, func(snap *domain.Snapshot) error {
		created = domain.Doctor{
			ID:         snap.NextID(domain.CollectionDoctors),
			Name:       in.Name,
			Specialty:  in.Specialty,
			Experience: in.Experience,
			Rating:     *in.Rating,
		}
		snap.Doctors = append(snap.Doctors, created)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("create doctor: %w", err)
	}
	return &created, nil
}

// Update merges changes onto a doctor. Renaming a doctor does not touch the
// doctorName already copied into appointments.
func (s *DoctorService) Update(ctx context.Context, id int64, changes domain.DoctorChanges) (*domain.Doctor, error) {
	if err := validateInput(changes); err != nil {
		return nil, err
	}

	var updated domain.Doctor
	err := s.store.Update(ctx, func(snap *domain.Snapshot) error {
		i := snap.DoctorIndex(id)
		if i < 0 {
			return domain.ErrNotFound
		}

		d := snap.Doctors[i]
		if changes.Name != nil {
			d.Name = *changes.Name
		}
		if changes.Specialty != nil {
			d.Specialty = *changes.Specialty
		}
		if changes.Experience != nil {
			d.Experience = *changes.Experience
		}
		if changes.Rating != nil {
			d.Rating = *changes.Rating
		}

		snap.Doctors[i] = d
		updated = d
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("update doctor: %w", err)
	}
	return &updated, nil
}

func (s *DoctorService) Delete(ctx context.Context, id int64) error {
	err := s.store.Update(ctx, func(snap *domain.Snapshot) error {
		i := snap.DoctorIndex(id)
		if i < 0 {
			return domain.ErrNotFound
		}
		snap.Doctors = slices.Delete(snap.Doctors, i, i+1)
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete doctor: %w", err)
	}
	return nil
}
