// Package metrics holds the Prometheus collectors updated during a crawl.
//
// A nil *Collector is valid and records nothing, so components can take
// one unconditionally.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const namespace = "poketl"

// Fetch outcomes used as the "outcome" label of the request counter.
const (
	OutcomeOK        = "ok"
	OutcomeStatus    = "status"
	OutcomeTransport = "transport"
	OutcomeParse     = "parse"
)

// Collector groups the crawl metrics and the registry they live in.
type Collector struct {
	registry *prometheus.Registry

	requests     *prometheus.CounterVec
	duration     prometheus.Histogram
	bytes        prometheus.Counter
	inFlight     prometheus.Gauge
	pages        prometheus.Counter
	tournaments  *prometheus.CounterVec
	matches      *prometheus.CounterVec
	decklistSize prometheus.Histogram
}

// New creates a Collector registered on a fresh registry.
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fetch",
			Name:      "requests_total",
			Help:      "HTTP fetches by outcome.",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "fetch",
			Name:      "duration_seconds",
			Help:      "Time spent on a fetch, from permit acquisition to parsed document.",
			Buckets:   prometheus.DefBuckets,
		}),
		bytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fetch",
			Name:      "response_bytes_total",
			Help:      "Response body bytes read.",
		}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "fetch",
			Name:      "in_flight",
			Help:      "Fetches currently holding a permit.",
		}),
		pages: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "crawl",
			Name:      "list_pages_total",
			Help:      "Tournament list pages walked.",
		}),
		tournaments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "crawl",
			Name:      "tournaments_total",
			Help:      "Tournaments processed by outcome.",
		}, []string{"outcome"}),
		matches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "crawl",
			Name:      "matches_total",
			Help:      "Matches extracted by pairings layout.",
		}, []string{"layout"}),
		decklistSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "crawl",
			Name:      "decklist_items",
			Help:      "Number of distinct items per parsed decklist.",
			Buckets:   prometheus.LinearBuckets(2, 2, 10),
		}),
	}

	c.registry.MustRegister(
		c.requests,
		c.duration,
		c.bytes,
		c.inFlight,
		c.pages,
		c.tournaments,
		c.matches,
		c.decklistSize,
		collectors.NewGoCollector(),
	)

	return c
}

// Registry returns the registry the collectors are registered on.
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

// ObserveFetch records one finished fetch.
func (c *Collector) ObserveFetch(outcome string, d time.Duration, n int64) {
	if c == nil {
		return
	}
	c.requests.WithLabelValues(outcome).Inc()
	c.duration.Observe(d.Seconds())
	if n > 0 {
		c.bytes.Add(float64(n))
	}
}

// FetchStarted marks a permit as taken.
func (c *Collector) FetchStarted() {
	if c == nil {
		return
	}
	c.inFlight.Inc()
}

// FetchDone marks a permit as released.
func (c *Collector) FetchDone() {
	if c == nil {
		return
	}
	c.inFlight.Dec()
}

// PageWalked counts one tournament list page.
func (c *Collector) PageWalked() {
	if c == nil {
		return
	}
	c.pages.Inc()
}

// TournamentProcessed counts one tournament outcome.
func (c *Collector) TournamentProcessed(outcome string) {
	if c == nil {
		return
	}
	c.tournaments.WithLabelValues(outcome).Inc()
}

// MatchesExtracted adds n matches found with the given layout.
func (c *Collector) MatchesExtracted(layout string, n int) {
	if c == nil || n <= 0 {
		return
	}
	c.matches.WithLabelValues(layout).Add(float64(n))
}

// DecklistParsed records the size of one parsed decklist.
func (c *Collector) DecklistParsed(items int) {
	if c == nil {
		return
	}
	c.decklistSize.Observe(float64(items))
}

// WriteTextfile writes every metric in the text exposition format to path,
// for pickup by the node_exporter textfile collector.
func (c *Collector) WriteTextfile(path string) error {
	if c == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, c.registry); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}
