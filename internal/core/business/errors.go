package business

import "errors"

var (
	// ErrBusinessNotFound is returned when the business does not exist in the meta-database.
	ErrBusinessNotFound = errors.New("business not found")

	// ErrBusinessNotActive is returned when the business exists but is not active.
	ErrBusinessNotActive = errors.New("business is not active")

	// ErrMaxPoolLimit is returned when the pool manager reached its pool limit.
	ErrMaxPoolLimit = errors.New("max business pool limit reached")
)
