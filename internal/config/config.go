package config

import (
	"net/url"
	"path/filepath"
	"regexp"
	"time"

	"github.com/adrg/xdg"

	"github.com/Mvlo566/POKETL/internal/crawler"
	"github.com/Mvlo566/POKETL/internal/fetch"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "poketl"

	// DefaultBaseURL is the site every relative reference resolves against.
	DefaultBaseURL = "https://play.limitlesstcg.com"

	// DefaultListingPath is the completed tournaments page without a query.
	DefaultListingPath = "/tournaments/completed"

	// DefaultTimeout bounds one request. Large standings pages can be slow.
	DefaultTimeout = 60 * time.Second

	// DefaultMaxConnections caps concurrent connections to the site.
	DefaultMaxConnections = 20

	// DefaultMaxInFlight caps fetches in progress at any moment.
	DefaultMaxInFlight = 50

	// DefaultMaxBodySize limits a single response body.
	DefaultMaxBodySize = 10 * 1024 * 1024 // 10MB

	// DefaultReportFormat is the run report format printed after a crawl.
	DefaultReportFormat = ReportText

	// OutputDirName is the directory under the data dir holding documents.
	OutputDirName = "tournaments"
)

// Report formats accepted by Config.ReportFormat.
const (
	ReportText     = "text"
	ReportMarkdown = "markdown"
	ReportJSON     = "json"
)

// Listing holds the query parameters of the completed tournaments listing.
type Listing struct {
	Game     string `yaml:"game"`
	Format   string `yaml:"format"`
	Platform string `yaml:"platform"`
	Type     string `yaml:"type"`
	Time     string `yaml:"time"`
}

// DefaultListing returns the listing of online standard TCG Pocket events.
func DefaultListing() Listing {
	return Listing{
		Game:     "POCKET",
		Format:   "STANDARD",
		Platform: "all",
		Type:     "online",
		Time:     "all",
	}
}

// params returns the non-empty parameters in a fixed order.
func (l Listing) params() [][2]string {
	all := [][2]string{
		{"game", l.Game},
		{"format", l.Format},
		{"platform", l.Platform},
		{"type", l.Type},
		{"time", l.Time},
	}
	params := make([][2]string, 0, len(all))
	for _, p := range all {
		if p[1] != "" {
			params = append(params, p)
		}
	}
	return params
}

// Config holds everything a crawl needs.
// CLI flags are applied on top of the config file, which is applied on top
// of NewConfig defaults.
type Config struct {
	// BaseURL is the site root.
	BaseURL string

	// ListingPath is the path of the completed tournaments listing.
	ListingPath string

	// Listing selects which tournaments the listing shows.
	Listing Listing

	// UserAgent is sent with every request.
	UserAgent string

	// Headers are extra request headers, e.g. a session cookie.
	Headers map[string]string

	// Timeout bounds one request.
	Timeout time.Duration

	// MaxConnections caps concurrent connections to the site.
	MaxConnections int

	// MaxInFlight caps fetches in progress at any moment.
	MaxInFlight int

	// RequestsPerSecond paces requests. 0 disables pacing.
	RequestsPerSecond float64

	// SOCKS5Proxy routes requests through a proxy when set.
	SOCKS5Proxy string

	// MaxBodySize limits a single response body in bytes.
	MaxBodySize int64

	// MaxPages stops the walk after this many list pages. 0 walks all.
	MaxPages int

	// PrefetchStandings fetches the standings of a whole list page
	// concurrently before processing its tournaments.
	PrefetchStandings bool

	// IsolateLayoutErrors records a tournament with an unrecognized pairings
	// layout as failed and continues instead of aborting the run.
	IsolateLayoutErrors bool

	// CardURLPattern overrides the selector of card links on decklist pages.
	CardURLPattern string

	// OutputDir receives one <id>.json document per tournament.
	OutputDir string

	// DBDir holds the crawl ledger.
	DBDir string

	// NoLedger disables the crawl ledger.
	NoLedger bool

	// ReportFormat is text, markdown or json.
	ReportFormat string

	// ReportFile receives the run report instead of stdout.
	ReportFile string

	// MetricsFile receives a Prometheus textfile at the end of the run.
	MetricsFile string

	// Verbose enables debug logging.
	Verbose bool

	// JSONLogs switches the log handler to JSON.
	JSONLogs bool
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		BaseURL:           DefaultBaseURL,
		ListingPath:       DefaultListingPath,
		Listing:           DefaultListing(),
		UserAgent:         fetch.DefaultUserAgent,
		Headers:           map[string]string{},
		Timeout:           DefaultTimeout,
		MaxConnections:    DefaultMaxConnections,
		MaxInFlight:       DefaultMaxInFlight,
		MaxBodySize:       DefaultMaxBodySize,
		PrefetchStandings: true,
		CardURLPattern:    crawler.DefaultCardURLPattern,
		OutputDir:         filepath.Join(XDGDataDir(), OutputDirName),
		DBDir:             XDGDataDir(),
		ReportFormat:      DefaultReportFormat,
	}
}

// XDGDataDir returns the XDG data directory for poketl.
// On Linux: ~/.local/share/poketl
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// FirstURL returns the first page of the configured listing.
func (c *Config) FirstURL() string {
	return crawler.ListingURL(c.ListingPath, c.Listing.params())
}

// FetchOptions converts the network settings into fetch.Options.
func (c *Config) FetchOptions() fetch.Options {
	headers := make(map[string]string, len(c.Headers))
	for k, v := range c.Headers {
		headers[k] = v
	}
	return fetch.Options{
		BaseURL:           c.BaseURL,
		UserAgent:         c.UserAgent,
		Headers:           headers,
		Timeout:           c.Timeout,
		MaxConnections:    c.MaxConnections,
		MaxInFlight:       c.MaxInFlight,
		RequestsPerSecond: c.RequestsPerSecond,
		SOCKS5Proxy:       c.SOCKS5Proxy,
		MaxBodySize:       c.MaxBodySize,
	}
}

// Validate checks if the configuration is valid.
// It returns the first problem found.
func (c *Config) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ErrInvalidBaseURL
	}
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.MaxConnections <= 0 {
		return ErrInvalidMaxConnections
	}
	if c.MaxInFlight <= 0 {
		return ErrInvalidMaxInFlight
	}
	if c.RequestsPerSecond < 0 {
		return ErrInvalidRequestRate
	}
	if c.MaxBodySize <= 0 {
		return ErrInvalidMaxBodySize
	}
	if c.MaxPages < 0 {
		return ErrInvalidMaxPages
	}
	if c.OutputDir == "" {
		return ErrEmptyOutputDir
	}
	if !c.NoLedger && c.DBDir == "" {
		return ErrEmptyDBDir
	}
	if c.CardURLPattern == "" {
		return ErrInvalidCardURLPattern
	}
	if _, err := regexp.Compile(c.CardURLPattern); err != nil {
		return ErrInvalidCardURLPattern
	}
	switch c.ReportFormat {
	case ReportText, ReportMarkdown, ReportJSON:
	default:
		return ErrInvalidReportFormat
	}
	return nil
}
