package config

import "errors"

// Configuration validation errors returned by Config.Validate.
var (
	// ErrInvalidBaseURL is returned when the base URL is not an absolute URL.
	ErrInvalidBaseURL = errors.New("invalid base URL: must be absolute, e.g. https://play.limitlesstcg.com")

	// ErrInvalidTimeout is returned when the timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidMaxConnections is returned when the connection limit is not positive.
	ErrInvalidMaxConnections = errors.New("invalid max connections: must be positive")

	// ErrInvalidMaxInFlight is returned when the in-flight fetch limit is not positive.
	ErrInvalidMaxInFlight = errors.New("invalid max in-flight: must be positive")

	// ErrInvalidRequestRate is returned when the request rate is negative.
	// Use 0 to disable pacing.
	ErrInvalidRequestRate = errors.New("invalid requests per second: must be non-negative")

	// ErrInvalidMaxBodySize is returned when the max body size is not positive.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be positive")

	// ErrInvalidMaxPages is returned when the page limit is negative.
	ErrInvalidMaxPages = errors.New("invalid max pages: must be non-negative")

	// ErrEmptyOutputDir is returned when no output directory is configured.
	ErrEmptyOutputDir = errors.New("output directory is empty")

	// ErrEmptyDBDir is returned when the ledger is enabled without a directory.
	ErrEmptyDBDir = errors.New("database directory is empty: set one or use --no-ledger")

	// ErrInvalidCardURLPattern is returned when the card URL pattern is empty
	// or not a valid regular expression.
	ErrInvalidCardURLPattern = errors.New("invalid card URL pattern")

	// ErrInvalidReportFormat is returned for a report format other than
	// text, markdown or json.
	ErrInvalidReportFormat = errors.New("invalid report format: must be text, markdown or json")
)
