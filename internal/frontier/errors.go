package frontier

import "errors"

// Sentinel errors for frontier initialization.
var (
	// ErrInvalidURL indicates a URL that is not an absolute http(s) address.
	ErrInvalidURL = errors.New("invalid URL")

	// ErrInvalidBudget indicates a page budget below one.
	ErrInvalidBudget = errors.New("max pages must be at least 1")
)
