package pipeline

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/Mvlo566/POKETL/internal/crawler"
)

// fakeSite serves a small tournament site and counts requests per URI.
type fakeSite struct {
	mu       sync.Mutex
	pages    map[string]string
	requests map[string]int
	server   *httptest.Server
}

func newFakeSite(t *testing.T) *fakeSite {
	t.Helper()

	s := &fakeSite{
		pages:    make(map[string]string),
		requests: make(map[string]int),
	}
	s.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		uri := r.URL.RequestURI()

		s.mu.Lock()
		s.requests[uri]++
		body, ok := s.pages[uri]
		s.mu.Unlock()

		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, body)
	}))
	t.Cleanup(s.server.Close)

	return s
}

func (s *fakeSite) set(uri, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pages[uri] = body
}

func (s *fakeSite) remove(uri string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pages, uri)
}

// count returns how many requests hit URIs containing substr.
func (s *fakeSite) count(substr string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for uri, c := range s.requests {
		if strings.Contains(uri, substr) {
			n += c
		}
	}
	return n
}

func (s *fakeSite) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = make(map[string]int)
}

type sitePlayer struct {
	id       string
	name     string
	placing  string
	country  string
	decklist bool
}

func listHTML(current, maxPage int, ids ...string) string {
	var b strings.Builder
	fmt.Fprintf(&b, `<html><body><ul class="pagination" data-current="%d" data-max="%d"></ul>`, current, maxPage)
	b.WriteString(`<table class="completed-tournaments"><tr><th>Name</th></tr>`)
	for _, id := range ids {
		fmt.Fprintf(&b, `<tr data-name="Cup %[1]s" data-date="2025-03-01T18:00:00.000Z" data-organizer="Ligue Évolution" data-format="STANDARD" data-players="8">`+
			`<td><a href="/tournament/%[1]s/standings">Cup %[1]s</a></td></tr>`, id)
	}
	b.WriteString(`</table></body></html>`)
	return b.String()
}

func standingsHTML(tid string, players ...sitePlayer) string {
	var b strings.Builder
	b.WriteString(`<html><body><table class="striped"><tr><th>Place</th><th>Name</th><th>Deck</th></tr>`)
	for _, p := range players {
		b.WriteString(`<tr data-name="` + p.name + `"`)
		if p.placing != "" {
			b.WriteString(` data-placing="` + p.placing + `"`)
		}
		if p.country != "" {
			b.WriteString(` data-country="` + p.country + `"`)
		}
		fmt.Fprintf(&b, `><td>%s</td><td><a href="/tournament/%s/player/%s">%s</a></td><td>`, p.placing, tid, p.id, p.name)
		if p.decklist {
			fmt.Fprintf(&b, `<a href="/tournament/%s/player/%s/decklist">deck</a>`, tid, p.id)
		}
		b.WriteString(`</td></tr>`)
	}
	b.WriteString(`</table></body></html>`)
	return b.String()
}

func decklistHTML(cards ...string) string {
	var b strings.Builder
	b.WriteString(`<html><body><div class="decklist"><div class="column"><div class="heading">Pokémon (4)</div>`)
	for i, c := range cards {
		fmt.Fprintf(&b, `<p><a href="https://pocket.limitlesstcg.com/cards/A1/%d">%s</a></p>`, i+1, c)
	}
	b.WriteString(`</div></div></body></html>`)
	return b.String()
}

func tabularHTML(tid string, rows ...[4]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, `<html><body><div class="pairings"><table data-tournament="%s"><tr><th>P1</th><th>P2</th></tr>`, tid)
	for _, r := range rows {
		fmt.Fprintf(&b, `<tr data-completed="1"><td class="p1" data-id="%s" data-count="%s"></td><td class="p2" data-id="%s" data-count="%s"></td></tr>`,
			r[0], r[1], r[2], r[3])
	}
	b.WriteString(`</table></div></body></html>`)
	return b.String()
}

// populate installs two list pages and three tournaments:
// cup1 and cup2 produce documents, cup3 has no decklist at all.
func (s *fakeSite) populate() {
	first := crawler.DefaultListingPath
	s.set(first, listHTML(1, 2, "cup1", "cup2"))
	s.set(crawler.PageURL(first, 2), listHTML(2, 2, "cup3"))

	s.set(crawler.StandingsURL("cup1"), standingsHTML("cup1",
		sitePlayer{id: "ash", name: "Ash", placing: "1", country: "JP", decklist: true},
		sitePlayer{id: "gary", name: "Gary", placing: "2", decklist: true},
		sitePlayer{id: "misty", name: "Misty", placing: "3"},
	))
	s.set(crawler.DecklistURL("cup1", "ash"), decklistHTML("2 Pikachu ex", "2 Zapdos ex"))
	s.set(crawler.DecklistURL("cup1", "gary"), decklistHTML("2 Mewtwo ex"))
	s.set(crawler.PairingsURL("cup1"), tabularHTML("cup1",
		[4]string{"ash", "2", "gary", "1"},
		[4]string{"ash", "2", "misty", "0"},
	))

	s.set(crawler.StandingsURL("cup2"), standingsHTML("cup2",
		sitePlayer{id: "brock", name: "Brock", placing: "1", decklist: true},
		sitePlayer{id: "erika", name: "Erika", placing: "2", decklist: true},
	))
	s.set(crawler.DecklistURL("cup2", "brock"), decklistHTML("2 Onix"))
	s.set(crawler.DecklistURL("cup2", "erika"), `<html><body><p>hidden</p></body></html>`)
	nav := `<div class="mini-nav"><a href="/tournament/cup2/pairings?round=1">R1</a><a href="/tournament/cup2/pairings">Top</a></div>`
	s.set("/tournament/cup2/pairings?round=1", tabularHTML("cup2", [4]string{"brock", "2", "erika", "0"}))
	s.set(crawler.PairingsURL("cup2"), `<html><body>`+nav+`<div class="live-bracket">`+
		`<div class="bracket-match"><div class="live-bracket-player" data-id="brock"><div class="score" data-score="2"></div></div>`+
		`<div class="live-bracket-player" data-id="erika"><div class="score" data-score="1"></div></div></div>`+
		`<div class="bracket-match"><div class="live-bracket-player" data-id="brock"><div class="score" data-score="0"></div></div><a class="bye">BYE</a></div>`+
		`</div></body></html>`)

	s.set(crawler.StandingsURL("cup3"), standingsHTML("cup3",
		sitePlayer{id: "oak", name: "Oak", placing: "1"},
	))
}
