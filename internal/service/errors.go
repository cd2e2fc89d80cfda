package service

import (
	"errors"
)

var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrRateLimited     = errors.New("too many calendar clicks")
	ErrUnauthenticated = errors.New("sign-in required")
)

// ViewError is returned when a view could not be built. Message is the fixed
// text shown to the user; Err stays server side.
type ViewError struct {
	View    string
	Message string
	Err     error
}

func (e *ViewError) Error() string {
	if e.Err == nil {
		return e.View + ": " + e.Message
	}
	return e.View + ": " + e.Err.Error()
}

func (e *ViewError) Unwrap() error { return e.Err }
