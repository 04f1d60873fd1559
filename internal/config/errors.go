package config

import "errors"

// Configuration validation errors returned by Config.Validate.
var (
	// ErrNoSeed is returned when no seed URL is given.
	ErrNoSeed = errors.New("no seed URL specified")

	// ErrInvalidMaxPages is returned when the page budget is below 1.
	ErrInvalidMaxPages = errors.New("invalid max pages: must be at least 1")

	// ErrInvalidTopK is returned when the per-page keyword count is below 1.
	ErrInvalidTopK = errors.New("invalid top-k: must be at least 1")

	// ErrInvalidNGram is returned when the maximum phrase length is below 1.
	ErrInvalidNGram = errors.New("invalid n-gram size: must be at least 1")

	// ErrInvalidDedupThreshold is returned when the threshold is outside [0, 1].
	ErrInvalidDedupThreshold = errors.New("invalid dedup threshold: must be between 0 and 1")

	// ErrInvalidWorkers is returned when the worker count is below 1.
	ErrInvalidWorkers = errors.New("invalid workers: must be at least 1")

	// ErrInvalidDelay is returned when the request delay is negative.
	// Use 0 to disable throttling.
	ErrInvalidDelay = errors.New("invalid delay: must be non-negative")

	// ErrInvalidTimeout is returned when the timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidMaxBodySize is returned when the body size limit is not positive.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be positive")

	// ErrUnknownFormat is returned for an unsupported output format.
	ErrUnknownFormat = errors.New("unknown output format: use csv, json or markdown")
)
