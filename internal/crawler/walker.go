package crawler

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/Mvlo566/POKETL/internal/metrics"
	"github.com/Mvlo566/POKETL/internal/model"
)

// standingsLinkPattern captures the tournament id of a listing row.
var standingsLinkPattern = regexp.MustCompile(`/tournament/([a-zA-Z0-9_\-]*)/standings`)

// ListPage is one page of the completed tournaments list.
type ListPage struct {
	// Current is the 1-based page number reported by the pagination strip.
	Current int

	// Max is the number of pages reported by the pagination strip.
	Max int

	// Tournaments are the rows of the page, in page order.
	Tournaments []model.TournamentSummary
}

// WalkStats counts what a walk visited.
type WalkStats struct {
	Pages int
	Rows  int
}

// PageHandler is called once per list page.
type PageHandler func(ctx context.Context, page *ListPage) error

// TournamentHandler is called once per list row.
type TournamentHandler func(ctx context.Context, summary model.TournamentSummary) error

// Walker follows the paginated tournament list.
type Walker struct {
	fetcher Fetcher

	// maxPages stops the walk after that many pages. 0 means no limit.
	maxPages int

	logger  *slog.Logger
	metrics *metrics.Collector
}

// WalkerOption configures a Walker.
type WalkerOption func(*Walker)

// WithMaxPages stops the walk after n pages. 0 walks every page.
func WithMaxPages(n int) WalkerOption {
	return func(w *Walker) {
		w.maxPages = n
	}
}

// WithWalkerLogger sets the logger.
func WithWalkerLogger(logger *slog.Logger) WalkerOption {
	return func(w *Walker) {
		w.logger = logger
	}
}

// WithWalkerMetrics sets the metrics collector.
func WithWalkerMetrics(c *metrics.Collector) WalkerOption {
	return func(w *Walker) {
		w.metrics = c
	}
}

// NewWalker creates a Walker fetching through f.
func NewWalker(f Fetcher, opts ...WalkerOption) *Walker {
	w := &Walker{
		fetcher: f,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// WalkPages visits the list starting at firstURL, one page at a time.
// The next page is fetched only after handler returned for the current one,
// and a handler error ends the walk.
func (w *Walker) WalkPages(ctx context.Context, firstURL string, handler PageHandler) (WalkStats, error) {
	var stats WalkStats
	ref := firstURL

	for {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		doc, err := w.fetcher.Fetch(ctx, ref)
		if err != nil {
			return stats, fmt.Errorf("failed to fetch list page %s: %w", ref, err)
		}
		page, err := ParseListPage(doc)
		if err != nil {
			return stats, fmt.Errorf("list page %s: %w", ref, err)
		}

		stats.Pages++
		stats.Rows += len(page.Tournaments)
		w.metrics.PageWalked()
		w.logger.Debug("list page fetched",
			"page", page.Current,
			"max", page.Max,
			"tournaments", len(page.Tournaments),
		)

		if err := handler(ctx, page); err != nil {
			return stats, err
		}

		if page.Current >= page.Max {
			return stats, nil
		}
		if w.maxPages > 0 && stats.Pages >= w.maxPages {
			w.logger.Info("page limit reached", "pages", stats.Pages)
			return stats, nil
		}
		ref = PageURL(firstURL, page.Current+1)
	}
}

// Walk visits every tournament row of the list in order.
func (w *Walker) Walk(ctx context.Context, firstURL string, handler TournamentHandler) (WalkStats, error) {
	return w.WalkPages(ctx, firstURL, func(ctx context.Context, page *ListPage) error {
		for _, t := range page.Tournaments {
			if err := handler(ctx, t); err != nil {
				return err
			}
		}
		return nil
	})
}

// ParseListPage reads the pagination strip and the tournament rows.
// A page without a pagination strip is the only page.
func ParseListPage(doc *goquery.Document) (*ListPage, error) {
	page := &ListPage{Current: 1, Max: 1}

	if nav := doc.Find("ul.pagination").First(); nav.Length() > 0 {
		current, err := intAttr(nav, "data-current")
		if err != nil {
			return nil, fmt.Errorf("pagination: %w", err)
		}
		maxPage, err := intAttr(nav, "data-max")
		if err != nil {
			return nil, fmt.Errorf("pagination: %w", err)
		}
		page.Current = current
		page.Max = maxPage
	}

	table := doc.Find("table.completed-tournaments").First()
	if table.Length() == 0 {
		return nil, fmt.Errorf("%w: table.completed-tournaments", ErrMissingElement)
	}

	rows := dataRows(table)
	page.Tournaments = make([]model.TournamentSummary, 0, rows.Length())

	var rowErr error
	rows.EachWithBreak(func(i int, tr *goquery.Selection) bool {
		summary, err := parseListRow(tr)
		if err != nil {
			rowErr = fmt.Errorf("row %d: %w", i+1, err)
			return false
		}
		page.Tournaments = append(page.Tournaments, summary)
		return true
	})
	if rowErr != nil {
		return nil, rowErr
	}

	return page, nil
}

func parseListRow(tr *goquery.Selection) (model.TournamentSummary, error) {
	var id string
	tr.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		if m := standingsLinkPattern.FindStringSubmatch(a.AttrOr("href", "")); m != nil {
			id = m[1]
			return false
		}
		return true
	})
	if id == "" {
		return model.TournamentSummary{}, fmt.Errorf("%w: standings link", ErrMissingElement)
	}

	summary := model.TournamentSummary{
		ID:        id,
		Name:      tr.AttrOr("data-name", ""),
		Date:      tr.AttrOr("data-date", ""),
		Organizer: tr.AttrOr("data-organizer", ""),
		Format:    tr.AttrOr("data-format", ""),
	}

	if v, ok := tr.Attr("data-players"); ok && strings.TrimSpace(v) != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return model.TournamentSummary{}, fmt.Errorf("tournament %s: data-players %q: %w", id, v, err)
		}
		summary.NbPlayers = n
	}

	if err := summary.Validate(); err != nil {
		return model.TournamentSummary{}, err
	}
	return summary, nil
}

// dataRows returns the rows of table without its header row.
func dataRows(table *goquery.Selection) *goquery.Selection {
	rows := table.Find("tr")
	if rows.Length() < 2 {
		return rows.Slice(0, 0)
	}
	return rows.Slice(1, goquery.ToEnd)
}

// intAttr reads a required integer attribute.
func intAttr(s *goquery.Selection, name string) (int, error) {
	v, ok := s.Attr(name)
	if !ok {
		return 0, fmt.Errorf("%w: attribute %s", ErrMissingElement, name)
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, fmt.Errorf("attribute %s=%q: %w", name, v, err)
	}
	return n, nil
}
