package booking

import (
	"errors"
	"fmt"

	"ms-booking/internal/catalog"
)

var (
	ErrInvalidRequest     = errors.New("invalid booking request")
	ErrRouteNotFound      = catalog.ErrRouteNotFound
	ErrCapacityExceeded   = errors.New("not enough seats available")
	ErrUnauthorized       = errors.New("not authorised")
	ErrNotFound           = errors.New("booking not found")
	ErrAlreadyCancelled   = errors.New("booking already cancelled")
	ErrUnavailable        = errors.New("booking store unavailable")
	ErrReferenceExhausted = errors.New("could not allocate a booking reference")

	// ErrDuplicateReference is returned by a Store when an insert hits the
	// unique reference index. The lifecycle retries it.
	ErrDuplicateReference = errors.New("duplicate booking reference")
)

var domainErrors = []error{
	ErrInvalidRequest,
	ErrRouteNotFound,
	ErrCapacityExceeded,
	ErrUnauthorized,
	ErrNotFound,
	ErrAlreadyCancelled,
	ErrUnavailable,
	ErrReferenceExhausted,
}

// classify passes domain errors through and reports anything else coming out
// of the store, the lock or a deadline as ErrUnavailable.
func classify(err error) error {
	if err == nil {
		return nil
	}
	for _, target := range domainErrors {
		if errors.Is(err, target) {
			return err
		}
	}
	return fmt.Errorf("%w: %w", ErrUnavailable, err)
}
