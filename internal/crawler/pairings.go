package crawler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/PuerkitoBio/goquery"

	"github.com/Mvlo566/POKETL/internal/metrics"
	"github.com/Mvlo566/POKETL/internal/model"
)

// Layout is how a pairings page presents its results.
type Layout int

const (
	// LayoutUnrecognized is neither a bracket nor a results table.
	LayoutUnrecognized Layout = iota

	// LayoutBracket is an elimination bracket (div.live-bracket).
	LayoutBracket

	// LayoutTabular is a Swiss round results table.
	LayoutTabular
)

// String returns the layout name used in logs and metrics.
func (l Layout) String() string {
	switch l {
	case LayoutBracket:
		return "bracket"
	case LayoutTabular:
		return "tabular"
	default:
		return "unrecognized"
	}
}

// DetectLayout classifies a pairings page. The bracket probe wins when
// both would match. Any data-tournament value marks a tabular page,
// including ids with dots or spaces.
func DetectLayout(doc *goquery.Document) Layout {
	if doc.Find("div.live-bracket").Length() > 0 {
		return LayoutBracket
	}
	if doc.Find("div.pairings table[data-tournament]").Length() > 0 {
		return LayoutTabular
	}
	return LayoutUnrecognized
}

// PairingTraverser collects every match of a tournament across its
// pairings pages.
type PairingTraverser struct {
	fetcher Fetcher
	logger  *slog.Logger
	metrics *metrics.Collector
}

// PairingsOption configures a PairingTraverser.
type PairingsOption func(*PairingTraverser)

// WithPairingsLogger sets the logger.
func WithPairingsLogger(logger *slog.Logger) PairingsOption {
	return func(t *PairingTraverser) {
		t.logger = logger
	}
}

// WithPairingsMetrics sets the metrics collector.
func WithPairingsMetrics(c *metrics.Collector) PairingsOption {
	return func(t *PairingTraverser) {
		t.metrics = c
	}
}

// NewPairingTraverser creates a PairingTraverser fetching through f.
func NewPairingTraverser(f Fetcher, opts ...PairingsOption) *PairingTraverser {
	t := &PairingTraverser{
		fetcher: f,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Traverse returns the matches of a tournament, earliest page first.
//
// The pairings URL shows the newest page. Its .mini-nav lists every page,
// the last anchor being the page itself; the others are fetched together
// and processed in nav order before the newest one.
func (t *PairingTraverser) Traverse(ctx context.Context, tournamentID string) ([]model.Match, error) {
	latestRef := PairingsURL(tournamentID)
	latest, err := t.fetcher.Fetch(ctx, latestRef)
	if err != nil {
		return nil, fmt.Errorf("tournament %s: failed to fetch pairings: %w", tournamentID, err)
	}

	refs, err := previousPairingsRefs(latest)
	if err != nil {
		return nil, fmt.Errorf("tournament %s: %w", tournamentID, err)
	}

	pages, err := t.fetcher.FetchAll(ctx, refs)
	if err != nil {
		return nil, fmt.Errorf("tournament %s: failed to fetch earlier pairings: %w", tournamentID, err)
	}
	pages = append(pages, latest)
	refs = append(refs, latestRef)

	matches := make([]model.Match, 0)
	for i, page := range pages {
		layout := DetectLayout(page)

		var found []model.Match
		switch layout {
		case LayoutBracket:
			found, err = ExtractBracketMatches(page)
		case LayoutTabular:
			found, err = ExtractTabularMatches(page)
		default:
			return nil, &LayoutError{TournamentID: tournamentID, URL: pageURL(page, refs[i])}
		}
		if err != nil {
			return nil, fmt.Errorf("tournament %s %s pairings %s: %w", tournamentID, layout, refs[i], err)
		}

		t.metrics.MatchesExtracted(layout.String(), len(found))
		t.logger.Debug("pairings page extracted",
			"tournament", tournamentID,
			"url", refs[i],
			"layout", layout.String(),
			"matches", len(found),
		)
		matches = append(matches, found...)
	}

	return matches, nil
}

// previousPairingsRefs returns the nav links of a pairings page without the
// last one, which points at the page itself.
func previousPairingsRefs(doc *goquery.Document) ([]string, error) {
	nav := doc.Find(".mini-nav").First()
	if nav.Length() == 0 {
		return nil, nil
	}

	anchors := nav.Find("a")
	if anchors.Length() < 2 {
		return nil, nil
	}

	refs := make([]string, 0, anchors.Length()-1)
	var navErr error
	anchors.Slice(0, anchors.Length()-1).EachWithBreak(func(i int, a *goquery.Selection) bool {
		href, ok := a.Attr("href")
		if !ok {
			navErr = fmt.Errorf("%w: href of pairings nav link %d", ErrMissingElement, i+1)
			return false
		}
		refs = append(refs, href)
		return true
	})
	if navErr != nil {
		return nil, navErr
	}

	return refs, nil
}

func pageURL(doc *goquery.Document, ref string) string {
	if doc != nil && doc.Url != nil {
		return doc.Url.String()
	}
	return ref
}
