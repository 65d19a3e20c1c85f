package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")

	ErrDuplicateEmail    = fmt.Errorf("%w: email already exists", ErrConflict)
	ErrSlotTaken         = fmt.Errorf("%w: slot already booked", ErrConflict)
	ErrInvalidTransition = fmt.Errorf("%w: status transition not allowed", ErrConflict)

	// ErrNoSnapshot is returned by a Gateway that has never been written to.
	ErrNoSnapshot = errors.New("no snapshot stored")
)
