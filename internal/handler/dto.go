package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/msomdec/clinic-booking/internal/domain"
)

// UserDTO is the JSON representation of a user. It has no password field.
type UserDTO struct {
	ID    int64       `json:"id"`
	Name  string      `json:"name"`
	Email string      `json:"email"`
	Phone string      `json:"phone"`
	Role  domain.Role `json:"role"`
}

func toUserDTO(u *domain.User) UserDTO {
	return UserDTO{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
		Phone: u.Phone,
		Role:  u.Role,
	}
}

func toUserDTOs(users []domain.User) []UserDTO {
	dtos := make([]UserDTO, len(users))
	for i := range users {
		dtos[i] = toUserDTO(&users[i])
	}
	return dtos
}

// DoctorDTO is the JSON representation of a doctor.
type DoctorDTO struct {
	ID         int64   `json:"id"`
	Name       string  `json:"name"`
	Specialty  string  `json:"specialty"`
	Experience string  `json:"experience"`
	Rating     float64 `json:"rating"`
}

func toDoctorDTO(d *domain.Doctor) DoctorDTO {
	return DoctorDTO{
		ID:         d.ID,
		Name:       d.Name,
		Specialty:  d.Specialty,
		Experience: d.Experience,
		Rating:     d.Rating,
	}
}

func toDoctorDTOs(doctors []domain.Doctor) []DoctorDTO {
	dtos := make([]DoctorDTO, len(doctors))
	for i := range doctors {
		dtos[i] = toDoctorDTO(&doctors[i])
	}
	return dtos
}

// AppointmentDTO is the JSON representation of an appointment.
type AppointmentDTO struct {
	ID         int64         `json:"id"`
	UserID     int64         `json:"userId"`
	DoctorID   int64         `json:"doctorId"`
	DoctorName string        `json:"doctorName"`
	Date       string        `json:"date"`
	Time       string        `json:"time"`
	Reason     string        `json:"reason"`
	Status     domain.Status `json:"status"`
	CreatedAt  string        `json:"createdAt"`
}

func toAppointmentDTO(a *domain.Appointment) AppointmentDTO {
	return AppointmentDTO{
		ID:         a.ID,
		UserID:     a.UserID,
		DoctorID:   a.DoctorID,
		DoctorName: a.DoctorName,
		Date:       a.Date,
		Time:       a.Time,
		Reason:     a.Reason,
		Status:     a.Status,
		CreatedAt:  a.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func toAppointmentDTOs(appts []domain.Appointment) []AppointmentDTO {
	dtos := make([]AppointmentDTO, len(appts))
	for i := range appts {
		dtos[i] = toAppointmentDTO(&appts[i])
	}
	return dtos
}

// UserRequest is the body of POST and PUT /api/users. On PUT, absent fields
// are left unchanged.
type UserRequest struct {
	Name            *string      `json:"name"`
	Email           *string      `json:"email"`
	Phone           *string      `json:"phone"`
	Role            *domain.Role `json:"role"`
	Password        *string      `json:"password"`
	DoctorProfileID *int64       `json:"doctorProfileId"`
}

func (req UserRequest) input() domain.UserInput {
	in := domain.UserInput{
		Name:            deref(req.Name),
		Email:           deref(req.Email),
		Phone:           deref(req.Phone),
		Password:        deref(req.Password),
		DoctorProfileID: req.DoctorProfileID,
	}
	if req.Role != nil {
		in.Role = *req.Role
	}
	return in
}

func (req UserRequest) changes() domain.UserChanges {
	return domain.UserChanges{
		Name:            req.Name,
		Email:           req.Email,
		Phone:           req.Phone,
		Role:            req.Role,
		Password:        req.Password,
		DoctorProfileID: req.DoctorProfileID,
	}
}

// DoctorRequest is the body of POST and PUT /api/doctors.
type DoctorRequest struct {
	Name       *string    `json:"name"`
	Specialty  *string    `json:"specialty"`
	Experience *string    `json:"experience"`
	Rating     *FlexFloat `json:"rating"`
}

func (req DoctorRequest) input() domain.DoctorInput {
	in := domain.DoctorInput{
		Name:       deref(req.Name),
		Specialty:  deref(req.Specialty),
		Experience: deref(req.Experience),
	}
	if req.Rating != nil {
		r := float64(*req.Rating)
		in.Rating = &r
	}
	return in
}

func (req DoctorRequest) changes() domain.DoctorChanges {
	c := domain.DoctorChanges{
		Name:       req.Name,
		Specialty:  req.Specialty,
		Experience: req.Experience,
	}
	if req.Rating != nil {
		r := float64(*req.Rating)
		c.Rating = &r
	}
	return c
}

// AppointmentRequest is the body of POST and PUT /api/appointments.
type AppointmentRequest struct {
	UserID   *int64         `json:"userId"`
	DoctorID *int64         `json:"doctorId"`
	Date     *string        `json:"date"`
	Time     *string        `json:"time"`
	Reason   *string        `json:"reason"`
	Status   *domain.Status `json:"status"`
}

func (req AppointmentRequest) input() domain.AppointmentInput {
	in := domain.AppointmentInput{
		Date:   deref(req.Date),
		Time:   deref(req.Time),
		Reason: deref(req.Reason),
	}
	if req.DoctorID != nil {
		in.DoctorID = *req.DoctorID
	}
	if req.Status != nil {
		in.Status = *req.Status
	}
	return in
}

func (req AppointmentRequest) changes() domain.AppointmentChanges {
	return domain.AppointmentChanges{
		UserID:   req.UserID,
		DoctorID: req.DoctorID,
		Date:     req.Date,
		Time:     req.Time,
		Reason:   req.Reason,
		Status:   req.Status,
	}
}

// FlexFloat accepts a JSON number or a numeric string, as HTML forms
// submit ratings as text.
type FlexFloat float64

func (f *FlexFloat) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return fmt.Errorf("rating %q is not a number", s)
		}
		*f = FlexFloat(v)
		return nil
	}

	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = FlexFloat(v)
	return nil
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}
