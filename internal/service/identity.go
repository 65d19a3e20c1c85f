package service

import (
	"strings"

	"github.com/msomdec/clinic-booking/internal/domain"
)

// ResolveDoctorProfile finds the doctor profile of a doctor-role account.
// Accounts and profiles are joined by name (trimmed, case-insensitive) since
// no foreign key links them. Two profiles with the same name cannot be told
// apart; the first one wins. Renaming either side silently breaks the link.
func ResolveDoctorProfile(user domain.User, doctors []domain.Doctor) (*domain.Doctor, bool) {
	if user.Role != domain.RoleDoctor {
		return nil, false
	}
	for _, d := range doctors {
		if sameName(d.Name, user.Name) {
			return &d, true
		}
	}
	return nil, false
}

// AppointmentsForDoctor filters appts down to those of the doctor behind
// user. Without a resolvable profile it falls back to the doctorName copied
// into each appointment, which covers appointments booked with doctors whose
// profile has since been removed.
func AppointmentsForDoctor(user domain.User, doctors []domain.Doctor, appts []domain.Appointment) []domain.Appointment {
	if user.Role != domain.RoleDoctor {
		return []domain.Appointment{}
	}

	match := func(a domain.Appointment) bool { return sameName(a.DoctorName, user.Name) }
	if profile, ok := ResolveDoctorProfile(user, doctors); ok {
		match = func(a domain.Appointment) bool { return a.DoctorID == profile.ID }
	}

	out := []domain.Appointment{}
	for _, a := range appts {
		if match(a) {
			out = append(out, a)
		}
	}
	return out
}

func sameName(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
