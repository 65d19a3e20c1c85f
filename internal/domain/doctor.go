package domain

// Doctor is a bookable practitioner profile.
type Doctor struct {
	ID         int64   `json:"id"`
	Name       string  `json:"name"`
	Specialty  string  `json:"specialty"`
	Experience string  `json:"experience"`
	Rating     float64 `json:"rating"`
}

type DoctorInput struct {
	Name       string   `validate:"required"`
	Specialty  string   `validate:"required"`
	Experience string   `validate:"required"`
	Rating     *float64 `validate:"required,gte=0,lte=5"`
}

type DoctorChanges struct {
	Name       *string  `validate:"omitempty,min=1"`
	Specialty  *string  `validate:"omitempty,min=1"`
	Experience *string  `validate:"omitempty,min=1"`
	Rating     *float64 `validate:"omitempty,gte=0,lte=5"`
}
