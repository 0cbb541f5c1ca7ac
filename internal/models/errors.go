package models

import (
	"errors"
	"fmt"
)

// Error kinds shared by the stores, services and handlers. Callers add detail
// by wrapping, e.g. fmt.Errorf("%w: email is invalid", ErrValidation).
var (
	// ErrValidation marks malformed or disallowed input.
	ErrValidation = errors.New("validation failed")

	// ErrAuthentication marks bad credentials or an invalid, absent or
	// revoked token.
	ErrAuthentication = errors.New("unable to authenticate")

	// ErrNotFound marks a missing resource.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateEmail is returned by stores when the email is taken.
	ErrDuplicateEmail = fmt.Errorf("%w: email is already registered", ErrValidation)
)
