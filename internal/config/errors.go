package config

import "errors"

// Configuration validation errors returned by Config.Validate.
var (
	// ErrNoTarget is returned when neither a URL nor --html is given.
	ErrNoTarget = errors.New("no target specified: provide a URL or use --html")

	// ErrConflictingTargets is returned when URLs and --html are given together.
	ErrConflictingTargets = errors.New("conflicting targets: URLs and --html cannot be used together")

	// ErrFileOptionsWithoutHTML is returned when --css or --final-url is used without --html.
	ErrFileOptionsWithoutHTML = errors.New("--css and --final-url require --html")

	// ErrInvalidTimeout is returned when the timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidBatchSize is returned when the batch size is not positive.
	ErrInvalidBatchSize = errors.New("invalid batch size: must be positive")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified. Only one output format can be used at a time.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrInvalidMaxStylesheets is returned when the stylesheet limit is negative.
	ErrInvalidMaxStylesheets = errors.New("invalid stylesheet limit: must be non-negative")

	// ErrInvalidProbeTimeout is returned when the video probe timeout is not positive.
	ErrInvalidProbeTimeout = errors.New("invalid probe timeout: must be positive")
)
