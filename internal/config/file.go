package config

import (
	"maps"
	"time"
)

// File represents the structure of a .poketl configuration file.
// Every field is optional; unset fields keep the value they had before
// the file was applied.
//
// Example:
//
//	site:
//	  base_url: https://play.limitlesstcg.com
//	  cookie: "session=abc123"
//	  headers:
//	    Accept-Language: en
//	listing:
//	  game: POCKET
//	  format: STANDARD
//	crawl:
//	  max_inflight: 50
//	  timeout: 60s
//	  isolate_layout_errors: true
//	output:
//	  dir: ./sample_output
type File struct {
	Site    SiteFile    `yaml:"site"`
	Listing ListingFile `yaml:"listing"`
	Crawl   CrawlFile   `yaml:"crawl"`
	Output  OutputFile  `yaml:"output"`
}

// SiteFile configures how the site is reached.
type SiteFile struct {
	BaseURL     string            `yaml:"base_url"`
	UserAgent   string            `yaml:"user_agent"`
	Cookie      string            `yaml:"cookie"`
	Headers     map[string]string `yaml:"headers"`
	SOCKS5Proxy string            `yaml:"socks5_proxy"`
}

// ListingFile selects the listing that is walked.
type ListingFile struct {
	Path     string `yaml:"path"`
	Game     string `yaml:"game"`
	Format   string `yaml:"format"`
	Platform string `yaml:"platform"`
	Type     string `yaml:"type"`
	Time     string `yaml:"time"`
}

// CrawlFile tunes concurrency and failure handling.
type CrawlFile struct {
	Timeout             time.Duration `yaml:"timeout"`
	MaxConnections      int           `yaml:"max_connections"`
	MaxInFlight         int           `yaml:"max_inflight"`
	RequestsPerSecond   float64       `yaml:"requests_per_second"`
	MaxBodySize         int64         `yaml:"max_body_size"`
	MaxPages            int           `yaml:"max_pages"`
	PrefetchStandings   *bool         `yaml:"prefetch_standings"`
	IsolateLayoutErrors *bool         `yaml:"isolate_layout_errors"`
	CardURLPattern      string        `yaml:"card_url_pattern"`
}

// OutputFile sets where results go.
type OutputFile struct {
	Dir         string `yaml:"dir"`
	DBDir       string `yaml:"db_dir"`
	NoLedger    *bool  `yaml:"no_ledger"`
	Report      string `yaml:"report_format"`
	MetricsFile string `yaml:"metrics_file"`
}

// Apply overlays the values set in the file onto cfg.
// A cookie is sent as the Cookie header and wins over headers.Cookie.
func (cf *File) Apply(cfg *Config) {
	setString(&cfg.BaseURL, cf.Site.BaseURL)
	setString(&cfg.UserAgent, cf.Site.UserAgent)
	setString(&cfg.SOCKS5Proxy, cf.Site.SOCKS5Proxy)
	if len(cf.Site.Headers) > 0 {
		if cfg.Headers == nil {
			cfg.Headers = make(map[string]string, len(cf.Site.Headers))
		}
		maps.Copy(cfg.Headers, cf.Site.Headers)
	}
	if cf.Site.Cookie != "" {
		if cfg.Headers == nil {
			cfg.Headers = make(map[string]string, 1)
		}
		cfg.Headers["Cookie"] = cf.Site.Cookie
	}

	setString(&cfg.ListingPath, cf.Listing.Path)
	setString(&cfg.Listing.Game, cf.Listing.Game)
	setString(&cfg.Listing.Format, cf.Listing.Format)
	setString(&cfg.Listing.Platform, cf.Listing.Platform)
	setString(&cfg.Listing.Type, cf.Listing.Type)
	setString(&cfg.Listing.Time, cf.Listing.Time)

	if cf.Crawl.Timeout != 0 {
		cfg.Timeout = cf.Crawl.Timeout
	}
	if cf.Crawl.MaxConnections != 0 {
		cfg.MaxConnections = cf.Crawl.MaxConnections
	}
	if cf.Crawl.MaxInFlight != 0 {
		cfg.MaxInFlight = cf.Crawl.MaxInFlight
	}
	if cf.Crawl.RequestsPerSecond != 0 {
		cfg.RequestsPerSecond = cf.Crawl.RequestsPerSecond
	}
	if cf.Crawl.MaxBodySize != 0 {
		cfg.MaxBodySize = cf.Crawl.MaxBodySize
	}
	if cf.Crawl.MaxPages != 0 {
		cfg.MaxPages = cf.Crawl.MaxPages
	}
	if cf.Crawl.PrefetchStandings != nil {
		cfg.PrefetchStandings = *cf.Crawl.PrefetchStandings
	}
	if cf.Crawl.IsolateLayoutErrors != nil {
		cfg.IsolateLayoutErrors = *cf.Crawl.IsolateLayoutErrors
	}
	setString(&cfg.CardURLPattern, cf.Crawl.CardURLPattern)

	setString(&cfg.OutputDir, cf.Output.Dir)
	setString(&cfg.DBDir, cf.Output.DBDir)
	if cf.Output.NoLedger != nil {
		cfg.NoLedger = *cf.Output.NoLedger
	}
	setString(&cfg.ReportFormat, cf.Output.Report)
	setString(&cfg.MetricsFile, cf.Output.MetricsFile)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
