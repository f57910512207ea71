package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput marks a malformed or incomplete request.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound marks a name missing from the relevant namespace.
	ErrNotFound = errors.New("not found")

	// ErrStoreUnavailable marks a durable store that could not be reached
	// or rejected an operation.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrDanglingAlias is returned when a client alias points at an agent
	// that no longer exists.
	ErrDanglingAlias = fmt.Errorf("dangling alias: %w", ErrNotFound)

	// ErrPolicyDenied is returned when the admission policy rejects a registration.
	ErrPolicyDenied = fmt.Errorf("denied by policy: %w", ErrInvalidInput)
)
