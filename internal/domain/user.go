package domain

import "strings"

type Role string

const (
	RolePatient Role = "patient"
	RoleDoctor  Role = "doctor"
	RoleAdmin   Role = "admin"
)

// User is an account of any role. Password holds the stored secret: a bcrypt
// hash, or the clear text when the server runs in plaintext demo mode.
type User struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Role     Role   `json:"role"`
	Password string `json:"password,omitempty"`
}

// Sanitized returns a copy of the user without the stored secret.
func (u User) Sanitized() User {
	u.Password = ""
	return u
}

// HasEmail reports whether the user's email matches, ignoring case.
func (u User) HasEmail(email string) bool {
	return strings.EqualFold(u.Email, email)
}

// UserInput carries the fields for creating a user. DoctorProfileID, when
// set for a doctor-role account, locks the name to that doctor's name.
type UserInput struct {
	Name            string `validate:"required"`
	Email           string `validate:"required,email"`
	Phone           string `validate:"required"`
	Role            Role   `validate:"omitempty,oneof=patient doctor admin"`
	Password        string
	DoctorProfileID *int64
}

// UserChanges is a partial update. Nil fields are left untouched, and an
// empty Password keeps the stored one.
type UserChanges struct {
	Name            *string `validate:"omitempty,min=1"`
	Email           *string `validate:"omitempty,email"`
	Phone           *string `validate:"omitempty,min=1"`
	Role            *Role   `validate:"omitempty,oneof=patient doctor admin"`
	Password        *string
	DoctorProfileID *int64
}

// RegisterInput is the self-service signup form. Every field is required.
type RegisterInput struct {
	Name     string `validate:"required"`
	Email    string `validate:"required,email"`
	Phone    string `validate:"required"`
	Password string `validate:"required"`
}
