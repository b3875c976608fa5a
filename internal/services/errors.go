package services

import "errors"

// Failure kinds returned by the services. Handlers map them to status codes.
var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidTransition  = errors.New("invalid transition")
	ErrAccessDenied       = errors.New("access denied")
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidCredentials = errors.New("invalid credentials")
)
