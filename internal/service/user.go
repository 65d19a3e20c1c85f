package service

import (
	"context"
	"fmt"
	"slices"

	"github.com/msomdec/clinic-booking/internal/domain"
	"github.com/msomdec/clinic-booking/internal/store"
)

// UserService handles account management and authentication. Every user it
// returns is sanitized.
type UserService struct {
	store           *store.Store
	hasher          PasswordHasher
	jwtSecret       []byte
	defaultPassword string
}

// NewUserService creates a new UserService. defaultPassword is assigned to
// accounts created without one.
func NewUserService(st *store.Store, hasher PasswordHasher, jwtSecret, defaultPassword string) *UserService {
	return &UserService{
		store:           st,
		hasher:          hasher,
		jwtSecret:       []byte(jwtSecret),
		defaultPassword: defaultPassword,
	}
}

func (s *UserService) List(ctx context.Context) ([]domain.User, error) {
	var users []domain.User
	s.store.View(func(snap *domain.Snapshot) {
		users = make([]domain.User, len(snap.Users))
		for i, u := range snap.Users {
			users[i] = u.Sanitized()
		}
	})
	return users, nil
}

// GetByID retrieves a user by ID.
func (s *UserService) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	var user *domain.User
	s.store.View(func(snap *domain.Snapshot) {
		if i := snap.UserIndex(id); i >= 0 {
			u := snap.Users[i].Sanitized()
			user = &u
		}
	})
	if user == nil {
		return nil, domain.ErrNotFound
	}
	return user, nil
}

// Create adds an account. Role defaults to patient and a missing password to
// the configured default.
func (s *UserService) Create(ctx context.Context, in domain.UserInput) (*domain.User, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	if in.Role == "" {
		in.Role = domain.RolePatient
	}
	if in.Password == "" {
		in.Password = s.defaultPassword
	}

	secret, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	var created domain.User
	err = s.store.Update(ctx, func(snap *domain.Snapshot) error {
		if emailTaken(snap, in.Email, 0) {
			return domain.ErrDuplicateEmail
		}

		name, err := lockedDoctorName(snap, in.Role, in.DoctorProfileID, in.Name)
		if err != nil {
			return err
		}

		created = domain.User{
			ID:       snap.NextID(domain.CollectionUsers),
			Name:     name,
			Email:    in.Email,
			Phone:    in.Phone,
			Role:     in.Role,
			Password: secret,
		}
		snap.Users = append(snap.Users, created)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	created = created.Sanitized()
	return &created, nil
}

// Update merges changes onto a user. The stored password is kept unless a
// non-empty one is supplied.
func (s *UserService) Update(ctx context.Context, id int64, changes domain.UserChanges) (*domain.User, error) {
	if err := validateInput(changes); err != nil {
		return nil, err
	}

	var secret string
	if changes.Password != nil && *changes.Password != "" {
		hashed, err := s.hasher.Hash(*changes.Password)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		secret = hashed
	}

	var updated domain.User
	err := s.store.Update(ctx, func(snap *domain.Snapshot) error {
		i := snap.UserIndex(id)
		if i < 0 {
			return domain.ErrNotFound
		}
		if changes.Email != nil && emailTaken(snap, *changes.Email, id) {
			return domain.ErrDuplicateEmail
		}

		u := snap.Users[i]
		if changes.Name != nil {
			u.Name = *changes.Name
		}
		if changes.Email != nil {
			u.Email = *changes.Email
		}
		if changes.Phone != nil {
			u.Phone = *changes.Phone
		}
		if changes.Role != nil {
			u.Role = *changes.Role
		}
		if secret != "" {
			u.Password = secret
		}

		name, err := lockedDoctorName(snap, u.Role, changes.DoctorProfileID, u.Name)
		if err != nil {
			return err
		}
		u.Name = name

		snap.Users[i] = u
		updated = u
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}

	updated = updated.Sanitized()
	return &updated, nil
}

// Delete removes a user together with every appointment they booked.
func (s *UserService) Delete(ctx context.Context, id int64) error {
	err := s.store.Update(ctx, func(snap *domain.Snapshot) error {
		i := snap.UserIndex(id)
		if i < 0 {
			return domain.ErrNotFound
		}
		snap.Users = slices.Delete(snap.Users, i, i+1)
		snap.Appointments = slices.DeleteFunc(snap.Appointments, func(a domain.Appointment) bool {
			return a.UserID == id
		})
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}

func emailTaken(snap *domain.Snapshot, email string, exceptID int64) bool {
	return slices.ContainsFunc(snap.Users, func(u domain.User) bool {
		return u.ID != exceptID && u.HasEmail(email)
	})
}

// lockedDoctorName returns the doctor profile's name when a doctor-role
// account is linked to one, and name otherwise. The link itself is not
// stored: afterwards the account is tied to the profile by name alone.
func lockedDoctorName(snap *domain.Snapshot, role domain.Role, profileID *int64, name string) (string, error) {
	if role != domain.RoleDoctor || profileID == nil {
		return name, nil
	}
	i := snap.DoctorIndex(*profileID)
	if i < 0 {
		return "", fmt.Errorf("doctor profile %d: %w", *profileID, domain.ErrNotFound)
	}
	return snap.Doctors[i].Name, nil
}
