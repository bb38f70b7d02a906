package kwsearch

import "github.com/kailas-cloud/kwsearch/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrNotFound        = domain.ErrNotFound
	ErrAlreadyExists   = domain.ErrAlreadyExists
	ErrValidation      = domain.ErrValidation
	ErrForbidden       = domain.ErrForbidden
	ErrUnauthenticated = domain.ErrUnauthenticated
)
