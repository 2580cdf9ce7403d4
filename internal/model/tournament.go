package model

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// DeckListItem is one line of a player's decklist.
type DeckListItem struct {
	// Type is the category heading the card is listed under (e.g. "Pokémon", "Trainer").
	Type string `json:"type"`

	// URL is the card-detail link. Loaders derive the card identifier from it.
	URL string `json:"url"`

	// Name is the display name as printed in the decklist.
	Name string `json:"name"`

	// Count is the number of copies in the deck.
	Count int `json:"count"`
}

// NewDeckListItem validates and builds a DeckListItem.
func NewDeckListItem(typ, url, name string, count int) (DeckListItem, error) {
	item := DeckListItem{Type: typ, URL: url, Name: name, Count: count}
	if err := item.Validate(); err != nil {
		return DeckListItem{}, err
	}
	return item, nil
}

// Validate checks the decklist item invariants.
func (d DeckListItem) Validate() error {
	if d.URL == "" {
		return fmt.Errorf("%w: decklist item %q has no card url", ErrInvalidRecord, d.Name)
	}
	if d.Count < 1 {
		return fmt.Errorf("%w: decklist item %q has count %d", ErrInvalidRecord, d.Name, d.Count)
	}
	return nil
}

// cardIDPattern matches the set code and collector number in a card URL.
var cardIDPattern = regexp.MustCompile(`cards/([^/]+)/(\d+)`)

// CardID derives the stable "<set>_<number>" identifier from the card URL.
// ok is false when the URL does not carry a set/number pair.
func (d DeckListItem) CardID() (id string, ok bool) {
	m := cardIDPattern.FindStringSubmatch(d.URL)
	if m == nil {
		return "", false
	}
	return m[1] + "_" + m[2], true
}

// Player is one entry of a tournament's standings.
type Player struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Placing  Placing        `json:"placing"`
	Country  *string        `json:"country"`
	Decklist []DeckListItem `json:"decklist"`
}

// NewPlayer validates and builds a Player. A nil decklist becomes an empty one
// so that the document always carries a JSON array.
func NewPlayer(id, name string, placing Placing, country *string, decklist []DeckListItem) (Player, error) {
	if id == "" {
		return Player{}, fmt.Errorf("%w: player %q has no id", ErrInvalidRecord, name)
	}
	if decklist == nil {
		decklist = []DeckListItem{}
	}
	for _, item := range decklist {
		if err := item.Validate(); err != nil {
			return Player{}, fmt.Errorf("player %s: %w", id, err)
		}
	}

	return Player{
		ID:       id,
		Name:     name,
		Placing:  placing,
		Country:  country,
		Decklist: decklist,
	}, nil
}

// MatchResult is one side of a match.
type MatchResult struct {
	PlayerID string `json:"player_id"`
	Score    int    `json:"score"`
}

// NewMatchResult validates and builds a MatchResult.
func NewMatchResult(playerID string, score int) (MatchResult, error) {
	if playerID == "" {
		return MatchResult{}, fmt.Errorf("%w: match result without player id", ErrInvalidRecord)
	}
	return MatchResult{PlayerID: playerID, Score: score}, nil
}

// Match pairs exactly two results.
type Match struct {
	Results []MatchResult `json:"match_results"`
}

// NewMatch builds a Match from both sides.
func NewMatch(a, b MatchResult) (Match, error) {
	m := Match{Results: []MatchResult{a, b}}
	if err := m.Validate(); err != nil {
		return Match{}, err
	}
	return m, nil
}

// Validate checks that the match has two results with player ids.
func (m Match) Validate() error {
	if len(m.Results) != 2 {
		return fmt.Errorf("%w: match has %d results, want 2", ErrInvalidRecord, len(m.Results))
	}
	for _, r := range m.Results {
		if r.PlayerID == "" {
			return fmt.Errorf("%w: match result without player id", ErrInvalidRecord)
		}
	}
	return nil
}

// UnmarshalJSON decodes a match and rejects anything but two results.
func (m *Match) UnmarshalJSON(data []byte) error {
	type plain Match
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	if err := Match(p).Validate(); err != nil {
		return err
	}
	*m = Match(p)
	return nil
}

// Tournament is the document persisted for each crawled tournament.
type Tournament struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Date      string   `json:"date"`
	Organizer string   `json:"organizer"`
	Format    string   `json:"format"`
	NbPlayers int      `json:"nb_players"`
	Players   []Player `json:"players"`
	Matches   []Match  `json:"matches"`
}

// NewTournament assembles a Tournament from its listing metadata, the
// extracted players and the matches found in the pairings.
func NewTournament(summary TournamentSummary, players []Player, matches []Match) (*Tournament, error) {
	if err := summary.Validate(); err != nil {
		return nil, err
	}
	if players == nil {
		players = []Player{}
	}
	if matches == nil {
		matches = []Match{}
	}

	seen := make(map[string]bool, len(players))
	for _, p := range players {
		if p.ID == "" {
			return nil, fmt.Errorf("%w: tournament %s has a player without id", ErrInvalidRecord, summary.ID)
		}
		if seen[p.ID] {
			return nil, fmt.Errorf("%w: tournament %s lists player %s twice", ErrInvalidRecord, summary.ID, p.ID)
		}
		seen[p.ID] = true
	}
	for i, m := range matches {
		if err := m.Validate(); err != nil {
			return nil, fmt.Errorf("tournament %s match %d: %w", summary.ID, i, err)
		}
	}

	return &Tournament{
		ID:        summary.ID,
		Name:      summary.Name,
		Date:      summary.Date,
		Organizer: summary.Organizer,
		Format:    summary.Format,
		NbPlayers: summary.NbPlayers,
		Players:   players,
		Matches:   matches,
	}, nil
}

// DecklistCount returns the number of players with a non-empty decklist.
func (t *Tournament) DecklistCount() int {
	n := 0
	for _, p := range t.Players {
		if len(p.Decklist) > 0 {
			n++
		}
	}
	return n
}

// UnknownMatchPlayers returns the sorted ids referenced by matches that do not
// appear in the player list. Players without a decklist are dropped from the
// standings, so a non-empty result is expected on most tournaments.
func (t *Tournament) UnknownMatchPlayers() []string {
	known := make(map[string]bool, len(t.Players))
	for _, p := range t.Players {
		known[p.ID] = true
	}

	missing := make(map[string]bool)
	for _, m := range t.Matches {
		for _, r := range m.Results {
			if !known[r.PlayerID] {
				missing[r.PlayerID] = true
			}
		}
	}

	ids := make([]string, 0, len(missing))
	for id := range missing {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// DistinctCards counts the distinct card identifiers across all decklists.
// Items whose URL carries no set/number pair are counted by URL.
func (t *Tournament) DistinctCards() int {
	cards := make(map[string]bool)
	for _, p := range t.Players {
		for _, item := range p.Decklist {
			id, ok := item.CardID()
			if !ok {
				id = strings.ToLower(item.URL)
			}
			cards[id] = true
		}
	}
	return len(cards)
}
