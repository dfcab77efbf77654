package leads

import "errors"

var (
	// ErrMissingConsultant is returned when the consultant id is absent.
	ErrMissingConsultant = errors.New("leads: consultant id is required")

	// ErrMissingAgent is returned when no agent config id resolved.
	ErrMissingAgent = errors.New("leads: agent config id is required")

	// ErrMissingPhone is returned when the canonical phone number is empty.
	ErrMissingPhone = errors.New("leads: phone number is required")

	// ErrDuplicatePhone is returned when a lead with the same phone already
	// exists for the consultant. Expected under retrying providers.
	ErrDuplicatePhone = errors.New("leads: phone number already exists for consultant")
)
