package crawler

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"

	"github.com/PuerkitoBio/goquery"

	"github.com/Mvlo566/POKETL/internal/model"
)

var (
	playerLinkPattern   = regexp.MustCompile(`/tournament/[a-zA-Z0-9_\-]*/player/([a-zA-Z0-9_]*)`)
	decklistLinkPattern = regexp.MustCompile(`/tournament/[a-zA-Z0-9_\-]*/player/[a-zA-Z0-9_]*/decklist`)
)

// StandingsExtractor reads the players of a standings page and fetches
// their decklists.
type StandingsExtractor struct {
	fetcher   Fetcher
	decklists *DecklistParser
	logger    *slog.Logger
}

// StandingsOption configures a StandingsExtractor.
type StandingsOption func(*StandingsExtractor)

// WithDecklistParser sets the parser used on decklist pages.
func WithDecklistParser(p *DecklistParser) StandingsOption {
	return func(e *StandingsExtractor) {
		e.decklists = p
	}
}

// WithStandingsLogger sets the logger.
func WithStandingsLogger(logger *slog.Logger) StandingsOption {
	return func(e *StandingsExtractor) {
		e.logger = logger
	}
}

// NewStandingsExtractor creates a StandingsExtractor fetching through f.
func NewStandingsExtractor(f Fetcher, opts ...StandingsOption) *StandingsExtractor {
	e := &StandingsExtractor{
		fetcher: f,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.decklists == nil {
		e.decklists = NewDecklistParser(WithDecklistLogger(e.logger))
	}
	return e
}

// standingsRow is a player read from the standings table before its
// decklist is known.
type standingsRow struct {
	id          string
	name        string
	placing     model.Placing
	country     *string
	hasDecklist bool
}

// Extract returns the players of a tournament that published a decklist.
//
// Decklist pages of all flagged players are fetched together; one failure
// fails the tournament. Players without a decklist page are left out.
func (e *StandingsExtractor) Extract(ctx context.Context, doc *goquery.Document, tournamentID string) ([]model.Player, error) {
	rows, err := e.readRows(doc, tournamentID)
	if err != nil {
		return nil, err
	}

	refs := make([]string, len(rows))
	for i, r := range rows {
		if r.hasDecklist {
			refs[i] = DecklistURL(tournamentID, r.id)
		}
	}

	docs, err := e.fetcher.FetchAll(ctx, refs)
	if err != nil {
		return nil, fmt.Errorf("tournament %s: failed to fetch decklists: %w", tournamentID, err)
	}

	players := make([]model.Player, 0, len(rows))
	for i, r := range rows {
		if docs[i] == nil {
			continue
		}
		items, err := e.decklists.Parse(docs[i])
		if err != nil {
			return nil, fmt.Errorf("tournament %s player %s: %w", tournamentID, r.id, err)
		}
		p, err := model.NewPlayer(r.id, r.name, r.placing, r.country, items)
		if err != nil {
			return nil, fmt.Errorf("tournament %s: %w", tournamentID, err)
		}
		players = append(players, p)
	}

	return players, nil
}

func (e *StandingsExtractor) readRows(doc *goquery.Document, tournamentID string) ([]standingsRow, error) {
	table := doc.Find("table.striped").First()
	if table.Length() == 0 {
		e.logger.Debug("standings table not found", "tournament", tournamentID)
		return nil, nil
	}

	var (
		rows   []standingsRow
		rowErr error
	)
	dataRows(table).EachWithBreak(func(i int, tr *goquery.Selection) bool {
		row, ok, err := e.parseRow(tr, tournamentID)
		if err != nil {
			rowErr = fmt.Errorf("tournament %s standings row %d: %w", tournamentID, i+1, err)
			return false
		}
		if !ok {
			e.logger.Debug("standings row without player link", "tournament", tournamentID, "row", i+1)
			return true
		}
		rows = append(rows, row)
		return true
	})
	if rowErr != nil {
		return nil, rowErr
	}

	return rows, nil
}

// parseRow reads a row's attributes. ok is false for rows that carry no
// player link. A placing that is not a number, such as "DQ", is kept as
// unknown.
func (e *StandingsExtractor) parseRow(tr *goquery.Selection, tournamentID string) (standingsRow, bool, error) {
	var row standingsRow

	tr.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href := a.AttrOr("href", "")
		if m := playerLinkPattern.FindStringSubmatch(href); m != nil && row.id == "" {
			row.id = m[1]
		}
		if decklistLinkPattern.MatchString(href) {
			row.hasDecklist = true
		}
		return true
	})
	if row.id == "" {
		return standingsRow{}, false, nil
	}

	name, ok := tr.Attr("data-name")
	if !ok {
		return standingsRow{}, false, fmt.Errorf("%w: data-name of player %s", ErrMissingElement, row.id)
	}
	row.name = name

	placing, err := model.ParsePlacing(tr.AttrOr("data-placing", ""))
	if err != nil {
		e.logger.Warn("placing not recognized, recorded as unknown",
			"tournament", tournamentID,
			"player", row.id,
			"error", err,
		)
	}
	row.placing = placing

	if country, ok := tr.Attr("data-country"); ok {
		row.country = &country
	}

	return row, true, nil
}
