package auth

import "errors"

var (
	// ErrInvalidCredentials is returned for both an unknown email and a wrong
	// password. Keeping the two indistinguishable prevents user enumeration.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrDuplicateEmail is returned when signup hits the email uniqueness
	// constraint.
	ErrDuplicateEmail = errors.New("email already exists")

	// ErrMissingFields rejects signup/login input before any I/O.
	ErrMissingFields = errors.New("name, email and password are required")
)
