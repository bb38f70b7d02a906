package domain

import "errors"

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists signals a uniqueness conflict (name, path set or single path).
	ErrAlreadyExists = errors.New("already exists")
	// ErrValidation signals malformed input such as a bad operator name or XPath.
	ErrValidation = errors.New("validation failed")
	// ErrForbidden signals that the caller may not perform the operation.
	ErrForbidden = errors.New("forbidden")
	// ErrUnauthenticated signals an operation that requires a known user.
	ErrUnauthenticated = errors.New("authentication required")
)
