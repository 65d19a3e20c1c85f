package domain

import "time"

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
)

// Layouts of Appointment.Date and Appointment.Time.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// Appointment books one slot (DoctorID, Date, Time) for a user. DoctorName is
// copied from the doctor at booking time and is not kept in sync afterwards.
type Appointment struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"userId"`
	DoctorID   int64     `json:"doctorId"`
	DoctorName string    `json:"doctorName"`
	Date       string    `json:"date"`
	Time       string    `json:"time"`
	Reason     string    `json:"reason"`
	Status     Status    `json:"status"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Active reports whether the appointment holds its slot.
func (a Appointment) Active() bool {
	return a.Status != StatusCancelled
}

type AppointmentInput struct {
	DoctorID int64  `validate:"required"`
	Date     string `validate:"required,calendardate"`
	Time     string `validate:"required,clock"`
	Reason   string `validate:"required"`
	Status   Status `validate:"omitempty,oneof=pending confirmed"`
}

// AppointmentChanges is merged onto an existing appointment. Nil fields are
// left untouched.
type AppointmentChanges struct {
	UserID   *int64  `validate:"omitempty,gt=0"`
	DoctorID *int64  `validate:"omitempty,gt=0"`
	Date     *string `validate:"omitempty,calendardate"`
	Time     *string `validate:"omitempty,clock"`
	Reason   *string `validate:"omitempty,min=1"`
	Status   *Status `validate:"omitempty,oneof=pending confirmed cancelled"`
}

// AppointmentFilter narrows a listing. A nil UserID lists everything.
type AppointmentFilter struct {
	UserID *int64
}

var transitions = map[Status][]Status{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCancelled},
	StatusCancelled: nil,
}

// CanTransition reports whether an appointment may move from one status to
// another. Keeping the same status is always allowed.
func CanTransition(from, to Status) bool {
	if from == to {
		return true
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
