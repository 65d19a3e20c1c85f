package service

import (
	"fmt"
	"time"

	"github.com/msomdec/clinic-booking/internal/domain"
)

// DemoPassword is the password of both demo accounts.
const DemoPassword = "password123"

// DemoSnapshot builds the first-run data set: two demo accounts, six doctors,
// and one confirmed appointment today at 09:00. Passwords go through hasher.
func DemoSnapshot(hasher PasswordHasher, now time.Time) (*domain.Snapshot, error) {
	secret, err := hasher.Hash(DemoPassword)
	if err != nil {
		return nil, fmt.Errorf("hash demo password: %w", err)
	}

	return &domain.Snapshot{
		Users: []domain.User{
			{ID: 1, Name: "Demo Admin", Email: "admin@demo.com", Password: secret, Phone: "+1234567890", Role: domain.RoleAdmin},
			{ID: 2, Name: "Demo Patient", Email: "patient@demo.com", Password: secret, Phone: "+1987654321", Role: domain.RolePatient},
		},
		Doctors: []domain.Doctor{
			{ID: 1, Name: "Dr. Sarah Wilson", Specialty: "Cardiology", Experience: "15 years", Rating: 4.8},
			{ID: 2, Name: "Dr. Michael Chen", Specialty: "Dermatology", Experience: "12 years", Rating: 4.7},
			{ID: 3, Name: "Dr. Emily Johnson", Specialty: "Pediatrics", Experience: "18 years", Rating: 4.9},
			{ID: 4, Name: "Dr. David Rodriguez", Specialty: "Orthopedics", Experience: "20 years", Rating: 4.6},
			{ID: 5, Name: "Dr. Lisa Anderson", Specialty: "Neurology", Experience: "14 years", Rating: 4.8},
			{ID: 6, Name: "Dr. James Thompson", Specialty: "Internal Medicine", Experience: "16 years", Rating: 4.7},
		},
		Appointments: []domain.Appointment{
			{
				ID:         1,
				UserID:     2,
				DoctorID:   1,
				DoctorName: "Dr. Sarah Wilson",
				Date:       now.Format(domain.DateLayout),
				Time:       "09:00",
				Reason:     "Annual check-up",
				Status:     domain.StatusConfirmed,
				CreatedAt:  now.UTC(),
			},
		},
		NextIDs: map[string]int64{
			domain.CollectionUsers:        3,
			domain.CollectionDoctors:      7,
			domain.CollectionAppointments: 2,
		},
	}, nil
}
