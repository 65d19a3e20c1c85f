package domain

// HasConflict reports whether an active appointment other than ignoreID
// already holds the slot (doctorID, date, clock). Pass 0 as ignoreID when
// booking a new appointment.
func HasConflict(appts []Appointment, doctorID int64, date, clock string, ignoreID int64) bool {
	for _, a := range appts {
		if a.ID == ignoreID || !a.Active() {
			continue
		}
		if a.DoctorID == doctorID && a.Date == date && a.Time == clock {
			return true
		}
	}
	return false
}
