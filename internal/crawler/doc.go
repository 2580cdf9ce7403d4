// Package crawler reads the tournament site's HTML pages.
//
// The package is split along the pages it understands:
//
//   - Walker follows the paginated list of completed tournaments.
//   - StandingsExtractor reads a tournament's standings and fetches the
//     decklists of players who published one.
//   - PairingTraverser walks the pairings pages of a tournament from the
//     oldest round to the newest, detecting per page whether results are
//     shown as a bracket or as a table.
//   - DecklistParser turns a decklist page into DeckListItems.
//
// All network access goes through the Fetcher interface, which
// fetch.Fetcher implements.
package crawler

import (
	"context"

	"github.com/PuerkitoBio/goquery"
)

// Fetcher retrieves parsed pages. fetch.Fetcher satisfies it.
type Fetcher interface {
	// Fetch retrieves one page. An empty ref yields (nil, nil).
	Fetch(ctx context.Context, ref string) (*goquery.Document, error)

	// FetchAll retrieves every ref concurrently, keeping input order.
	// A single failure fails the whole call.
	FetchAll(ctx context.Context, refs []string) ([]*goquery.Document, error)
}
