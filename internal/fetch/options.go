package fetch

import (
	"fmt"
	"time"
)

// DefaultUserAgent is sent when Options.UserAgent is empty.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.106 Safari/537.36"

// Options is the immutable configuration of a Fetcher.
// It is copied into the Fetcher on construction.
type Options struct {
	// BaseURL is the site root that relative references resolve against.
	BaseURL string

	// UserAgent is the User-Agent header sent with every request.
	UserAgent string

	// Headers are extra request headers (for example a session cookie).
	Headers map[string]string

	// Timeout bounds a single request including reading its body.
	Timeout time.Duration

	// MaxConnections caps concurrent connections to the site.
	MaxConnections int

	// MaxInFlight caps fetches holding a permit at any moment.
	MaxInFlight int

	// RequestsPerSecond paces request starts. 0 disables pacing.
	RequestsPerSecond float64

	// SOCKS5Proxy routes connections through a SOCKS5 proxy ("host:port").
	// Empty means direct connections.
	SOCKS5Proxy string

	// MaxBodySize limits how many bytes of a response body are read.
	MaxBodySize int64
}

// DefaultOptions returns the options used to crawl play.limitlesstcg.com.
func DefaultOptions() Options {
	return Options{
		BaseURL:        "https://play.limitlesstcg.com",
		UserAgent:      DefaultUserAgent,
		Timeout:        60 * time.Second,
		MaxConnections: 20,
		MaxInFlight:    50,
		MaxBodySize:    10 * 1024 * 1024, // 10MB
	}
}

// Validate checks that the options describe a usable Fetcher.
func (o Options) Validate() error {
	if o.BaseURL == "" {
		return fmt.Errorf("%w: base URL is empty", ErrInvalidOptions)
	}
	if o.MaxConnections < 1 {
		return fmt.Errorf("%w: max connections must be at least 1, got %d", ErrInvalidOptions, o.MaxConnections)
	}
	if o.MaxInFlight < 1 {
		return fmt.Errorf("%w: max in-flight must be at least 1, got %d", ErrInvalidOptions, o.MaxInFlight)
	}
	if o.Timeout < 0 {
		return fmt.Errorf("%w: timeout must not be negative", ErrInvalidOptions)
	}
	if o.RequestsPerSecond < 0 {
		return fmt.Errorf("%w: requests per second must not be negative", ErrInvalidOptions)
	}
	if o.MaxBodySize < 1 {
		return fmt.Errorf("%w: max body size must be positive", ErrInvalidOptions)
	}
	return nil
}
