package gallery

import "errors"

var (
	// ErrCapacityExceeded is returned when an add would push a container past its maximum item count.
	ErrCapacityExceeded = errors.New("capacity exceeded")

	// ErrInvalidOperation is returned for operations rejected up front, such as
	// shuffling fewer than two items or moving all items out of an empty container.
	ErrInvalidOperation = errors.New("invalid operation")

	ErrNotFound = errors.New("item not found")
)
