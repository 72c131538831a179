package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound        = errors.New("entity not found")
	ErrAlreadyExists   = errors.New("entity already exists")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrUnauthorized    = errors.New("not authorized")

	// Persistence
	ErrInvalidExecContext = errors.New("invalid transaction handle")

	// Intake validation
	ErrMalformedDate  = errors.New("malformed date, expected DD.MM.YYYY")
	ErrMalformedTime  = errors.New("malformed time, expected HH:MM")
	ErrEndBeforeStart = errors.New("end date is before start date")
)
