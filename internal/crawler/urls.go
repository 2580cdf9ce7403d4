package crawler

import (
	"fmt"
	"net/url"
	"strings"
)

// DefaultListingPath is the first page of completed online standard
// tournaments for TCG Pocket.
const DefaultListingPath = "/tournaments/completed?game=POCKET&format=STANDARD&platform=all&type=online&time=all"

// StandingsURL returns the standings page, including the player list.
func StandingsURL(tournamentID string) string {
	return fmt.Sprintf("/tournament/%s/standings?players", tournamentID)
}

// PairingsURL returns the newest pairings page of a tournament.
func PairingsURL(tournamentID string) string {
	return fmt.Sprintf("/tournament/%s/pairings", tournamentID)
}

// DecklistURL returns the decklist page of one player.
func DecklistURL(tournamentID, playerID string) string {
	return fmt.Sprintf("/tournament/%s/player/%s/decklist", tournamentID, playerID)
}

// PageURL returns list page n of the listing that starts at firstURL.
func PageURL(firstURL string, n int) string {
	sep := "&"
	if !strings.Contains(firstURL, "?") {
		sep = "?"
	}
	return fmt.Sprintf("%s%spage=%d", firstURL, sep, n)
}

// ListingURL builds the first list page from path and query parameters.
// Parameters keep the given order so the URL is stable across runs.
func ListingURL(path string, params [][2]string) string {
	if len(params) == 0 {
		return path
	}
	parts := make([]string, 0, len(params))
	for _, p := range params {
		parts = append(parts, url.QueryEscape(p[0])+"="+url.QueryEscape(p[1]))
	}
	return path + "?" + strings.Join(parts, "&")
}
