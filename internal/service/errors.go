package service

import (
	"errors"
	"fmt"
)

// Error taxonomy. Handlers map these to HTTP status codes with errors.Is.
var (
	ErrValidation         = errors.New("validation failed")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrSessionInvalid     = errors.New("session invalid or expired")
	ErrNotFound           = errors.New("not found")
	ErrStorage            = errors.New("storage failure")
	ErrTooManyAttempts    = errors.New("too many login attempts")
)

var (
	ErrCredentialsRequired = fmt.Errorf("%w: username and password required", ErrValidation)
	ErrPasswordsRequired   = fmt.Errorf("%w: current and new password required", ErrValidation)
	ErrPasswordTooShort    = fmt.Errorf("%w: new password too short", ErrValidation)
)

func storageError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStorage, err)
}
