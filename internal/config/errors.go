package config

import "errors"

// Configuration validation errors.
//
// Design decision: package-level sentinel errors rather than fmt.Errorf
// in Validate() let callers use errors.Is for programmatic handling
// while keeping human-readable messages.
var (
	// ErrNoTarget is returned when no target URL is specified.
	ErrNoTarget = errors.New("no target specified: provide one or more site URLs")

	// ErrInvalidTimeout is returned when the fetch timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidBatchSize is returned when the batch size is not positive.
	ErrInvalidBatchSize = errors.New("invalid batch size: must be positive")

	// ErrInvalidMaxPages is returned when the crawl page cap is not positive.
	ErrInvalidMaxPages = errors.New("invalid max pages: must be positive")

	// ErrConflictingReportFormats is returned when both --json and
	// --markdown are specified.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrConfigNotFound is returned when the configuration file does
	// not exist.
	ErrConfigNotFound = errors.New("configuration file not found")
)
