package fetch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/Mvlo566/POKETL/internal/metrics"
)

// Fetcher retrieves pages of a single site.
// It is safe for concurrent use.
type Fetcher struct {
	opts    Options
	base    *url.URL
	client  *http.Client
	permits *semaphore.Weighted

	// limiter is nil when pacing is disabled.
	limiter *rate.Limiter

	logger  *slog.Logger
	metrics *metrics.Collector
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(f *Fetcher) {
		f.logger = logger
	}
}

// WithMetrics sets the collector that fetches are recorded into.
func WithMetrics(c *metrics.Collector) Option {
	return func(f *Fetcher) {
		f.metrics = c
	}
}

// New creates a Fetcher from opts.
func New(opts Options, options ...Option) (*Fetcher, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	base, err := url.Parse(opts.BaseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("%w: base URL %q", ErrInvalidOptions, opts.BaseURL)
	}

	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	headers := make(map[string]string, len(opts.Headers))
	for k, v := range opts.Headers {
		headers[k] = v
	}
	opts.Headers = headers

	f := &Fetcher{
		opts:    opts,
		base:    base,
		permits: semaphore.NewWeighted(int64(opts.MaxInFlight)),
		logger:  slog.Default(),
	}
	if opts.RequestsPerSecond > 0 {
		f.limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
	}

	for _, opt := range options {
		opt(f)
	}

	client, err := newHTTPClient(opts)
	if err != nil {
		return nil, err
	}
	f.client = client

	f.logger.Debug("fetcher configured",
		"base_url", base.String(),
		"max_connections", opts.MaxConnections,
		"max_inflight", opts.MaxInFlight,
		"requests_per_second", opts.RequestsPerSecond,
		"socks5_proxy", opts.SOCKS5Proxy,
		headerGroup(opts.Headers),
	)

	return f, nil
}

// Resolve turns a site-relative reference into an absolute URL.
func (f *Fetcher) Resolve(ref string) (string, error) {
	u, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %w", ErrInvalidURL, ref, err)
	}
	return f.base.ResolveReference(u).String(), nil
}

// Fetch retrieves ref and parses it as HTML.
//
// An empty ref returns (nil, nil) without touching the network; standings
// rows without a published decklist rely on this.
func (f *Fetcher) Fetch(ctx context.Context, ref string) (*goquery.Document, error) {
	if ref == "" {
		return nil, nil
	}

	target, err := f.Resolve(ref)
	if err != nil {
		return nil, err
	}

	if err := f.permits.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer f.permits.Release(1)
	f.metrics.FetchStarted()
	defer f.metrics.FetchDone()

	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	start := time.Now()
	doc, n, outcome, err := f.get(ctx, target)
	f.metrics.ObserveFetch(outcome, time.Since(start), n)
	if err != nil {
		f.logger.Debug("fetch failed", "url", target, "outcome", outcome, "error", err)
		return nil, err
	}

	f.logger.Debug("fetched", "url", target, "bytes", n, "duration", time.Since(start))
	return doc, nil
}

// get performs the request and reads the whole body before returning.
func (f *Fetcher) get(ctx context.Context, target string) (*goquery.Document, int64, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, 0, metrics.OutcomeTransport, fmt.Errorf("%w: %q: %w", ErrInvalidURL, target, err)
	}
	req.Header.Set("User-Agent", f.opts.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")
	for k, v := range f.opts.Headers {
		req.Header.Set(k, v)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, 0, metrics.OutcomeTransport, fmt.Errorf("failed to fetch %s: %w", target, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.opts.MaxBodySize+1))
	n := int64(len(body))
	if err != nil {
		return nil, n, metrics.OutcomeTransport, fmt.Errorf("failed to read %s: %w", target, err)
	}
	if n > f.opts.MaxBodySize {
		return nil, n, metrics.OutcomeTransport,
			fmt.Errorf("%w: %s exceeds %d bytes", ErrBodyTooLarge, target, f.opts.MaxBodySize)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, n, metrics.OutcomeStatus, &StatusError{URL: target, StatusCode: resp.StatusCode}
	}

	root, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, n, metrics.OutcomeParse, fmt.Errorf("failed to parse %s: %w", target, err)
	}

	doc := goquery.NewDocumentFromNode(root)
	doc.Url = resp.Request.URL

	return doc, n, metrics.OutcomeOK, nil
}

// FetchAll fetches every ref concurrently and returns the documents in
// input order. Empty refs yield nil documents.
//
// The first failure cancels the remaining fetches and is returned; no
// partial result is returned in that case.
func (f *Fetcher) FetchAll(ctx context.Context, refs []string) ([]*goquery.Document, error) {
	docs := make([]*goquery.Document, len(refs))
	if len(refs) == 0 {
		return docs, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	for i, ref := range refs {
		g.Go(func() error {
			doc, err := f.Fetch(gctx, ref)
			if err != nil {
				return err
			}
			docs[i] = doc
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return docs, nil
}

// headerGroup renders the configured headers as a log group. Sensitive
// values are masked by the redacting log handler.
func headerGroup(headers map[string]string) slog.Attr {
	attrs := make([]any, 0, len(headers))
	for k, v := range headers {
		attrs = append(attrs, slog.String(k, v))
	}
	return slog.Group("headers", attrs...)
}
