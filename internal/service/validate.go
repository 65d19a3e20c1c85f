package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/msomdec/clinic-booking/internal/domain"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("calendardate", layoutValidator(domain.DateLayout))
	_ = v.RegisterValidation("clock", layoutValidator(domain.TimeLayout))
	return v
}

func layoutValidator(layout string) validator.Func {
	return func(fl validator.FieldLevel) bool {
		_, err := time.Parse(layout, fl.Field().String())
		return err == nil
	}
}

// canonicalDate and canonicalClock rewrite a validated value in its
// zero-padded layout. time.Parse accepts a one-digit hour, so "9:00" and
// "09:00" would otherwise name different slots.
func canonicalDate(s string) string { return canonical(domain.DateLayout, s) }

func canonicalClock(s string) string { return canonical(domain.TimeLayout, s) }

func canonical(layout, s string) string {
	t, err := time.Parse(layout, s)
	if err != nil {
		return s
	}
	return t.Format(layout)
}

// validateInput checks the struct tags of in and reports every failing field
// as a single domain.ErrInvalidInput.
func validateInput(in any) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, strings.ToLower(fe.Field()[:1])+fe.Field()[1:])
	}
	return fmt.Errorf("%w: missing or invalid %s", domain.ErrInvalidInput, strings.Join(fields, ", "))
}
