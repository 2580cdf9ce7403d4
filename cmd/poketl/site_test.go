package main

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Mvlo566/POKETL/internal/crawler"
)

// newTestSite serves one list page with two tournaments: "cup1" has a
// decklist and tabular pairings, "cup2" has pairings in an unknown layout.
func newTestSite(t *testing.T) *httptest.Server {
	t.Helper()

	pages := map[string]string{
		crawler.DefaultListingPath: `<html><body><ul class="pagination" data-current="1" data-max="1"></ul>` +
			`<table class="completed-tournaments"><tr><th>Name</th></tr>` +
			row("cup1") + row("cup2") + `</table></body></html>`,
		crawler.StandingsURL("cup1"): standings("cup1"),
		crawler.DecklistURL("cup1", "ash"): `<html><body><div class="decklist"><div class="column">` +
			`<div class="heading">Pokémon (2)</div>` +
			`<p><a href="https://pocket.limitlesstcg.com/cards/A1/94">2 Pikachu ex</a></p>` +
			`</div></div></body></html>`,
		crawler.PairingsURL("cup1"): `<html><body><div class="pairings"><table data-tournament="cup1">` +
			`<tr><th>P1</th><th>P2</th></tr>` +
			`<tr data-completed="1"><td class="p1" data-id="ash" data-count="2"></td><td class="p2" data-id="gary" data-count="1"></td></tr>` +
			`</table></div></body></html>`,
		crawler.StandingsURL("cup2"):        standings("cup2"),
		crawler.DecklistURL("cup2", "ash"): `<html><body></body></html>`,
		crawler.PairingsURL("cup2"):        `<html><body><div class="swiss">unknown</div></body></html>`,
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := pages[r.URL.RequestURI()]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func row(id string) string {
	return fmt.Sprintf(`<tr data-name="Cup %[1]s" data-date="2025-03-01T18:00:00.000Z" data-organizer="Org" data-format="STANDARD" data-players="2">`+
		`<td><a href="/tournament/%[1]s/standings">Cup %[1]s</a></td></tr>`, id)
}

func standings(tid string) string {
	return fmt.Sprintf(`<html><body><table class="striped"><tr><th>Place</th><th>Name</th></tr>`+
		`<tr data-name="Ash" data-placing="1" data-country="JP"><td>1</td><td><a href="/tournament/%[1]s/player/ash">Ash</a></td>`+
		`<td><a href="/tournament/%[1]s/player/ash/decklist">deck</a></td></tr>`+
		`<tr data-name="Gary" data-placing="2"><td>2</td><td><a href="/tournament/%[1]s/player/gary">Gary</a></td><td></td></tr>`+
		`</table></body></html>`, tid)
}
