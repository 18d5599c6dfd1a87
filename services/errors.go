package services

import "errors"

// Error taxonomy shared by all services. The routing layer maps these to
// redirects on page routes and to JSON payloads on API routes.
var (
	ErrNotFound        = errors.New("not found")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
	ErrConflict        = errors.New("conflict")
)
