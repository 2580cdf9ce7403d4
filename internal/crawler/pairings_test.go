package crawler

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/Mvlo566/POKETL/internal/model"
)

const bracketPage = `<html><body>
<div class="live-bracket">
  <div class="bracket-match">
    <div class="live-bracket-player" data-id="ash"><div class="score" data-score="2"></div></div>
    <a class="bye">BYE</a>
  </div>
  <div class="bracket-match">
    <div class="live-bracket-player" data-id="ash"><div class="score" data-score="2"></div></div>
    <div class="live-bracket-player" data-id="gary"><div class="score" data-score="1"></div></div>
  </div>
</div>
</body></html>`

const tabularPage = `<html><body>
<div class="pairings">
  <table data-tournament="cup1">
    <tr><th>Table</th><th>Player 1</th><th>Player 2</th></tr>
    <tr data-completed="1"><td class="p1" data-id="ash" data-count="2"></td><td class="p2" data-id="misty" data-count="0"></td></tr>
    <tr data-completed="1"><td class="p1" data-id="gary" data-count="1"></td></tr>
    <tr data-completed="0"><td class="p1" data-id="brock" data-count="0"></td><td class="p2" data-id="erika" data-count="0"></td></tr>
    <tr data-completed="1"><td class="p1" data-id="brock" data-count="1"></td><td class="p2" data-id="erika" data-count="2"></td></tr>
  </table>
</div>
</body></html>`

func result(id string, score int) model.MatchResult {
	return model.MatchResult{PlayerID: id, Score: score}
}

func match(a, b model.MatchResult) model.Match {
	return model.Match{Results: []model.MatchResult{a, b}}
}

// TestDetectLayout tests classification of pairings pages.
func TestDetectLayout(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		html string
		want Layout
	}{
		{name: "bracket", html: bracketPage, want: LayoutBracket},
		{name: "tabular", html: tabularPage, want: LayoutTabular},
		{name: "table outside pairings block", html: `<table data-tournament="cup1"></table>`, want: LayoutUnrecognized},
		{name: "dotted table id", html: `<div class="pairings"><table data-tournament="cup.2025"></table></div>`, want: LayoutTabular},
		{name: "table id with spaces", html: `<div class="pairings"><table data-tournament="a b"></table></div>`, want: LayoutTabular},
		{name: "pairings block without tournament table", html: `<div class="pairings"><table></table></div>`, want: LayoutUnrecognized},
		{name: "empty page", html: `<p>nothing</p>`, want: LayoutUnrecognized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := DetectLayout(mustDoc(tt.html)); got != tt.want {
				t.Errorf("DetectLayout() = %s, want %s", got, tt.want)
			}
		})
	}
}

// TestExtractBracketMatches tests that byes are skipped.
func TestExtractBracketMatches(t *testing.T) {
	t.Parallel()

	matches, err := ExtractBracketMatches(mustDoc(bracketPage))
	if err != nil {
		t.Fatalf("ExtractBracketMatches failed: %v", err)
	}

	want := []model.Match{match(result("ash", 2), result("gary", 1))}
	if diff := cmp.Diff(want, matches); diff != "" {
		t.Errorf("matches mismatch (-want +got):\n%s", diff)
	}

	t.Run("non-numeric score", func(t *testing.T) {
		t.Parallel()

		html := `<div class="live-bracket"><div class="bracket-match">` +
			`<div class="live-bracket-player" data-id="a"><div class="score" data-score="W"></div></div>` +
			`<div class="live-bracket-player" data-id="b"><div class="score" data-score="0"></div></div></div></div>`
		if _, err := ExtractBracketMatches(mustDoc(html)); err == nil {
			t.Error("expected error for non-numeric score")
		}
	})

	t.Run("one-sided node", func(t *testing.T) {
		t.Parallel()

		html := `<div class="live-bracket"><div class="bracket-match">` +
			`<div class="live-bracket-player" data-id="a"><div class="score" data-score="1"></div></div></div></div>`
		if _, err := ExtractBracketMatches(mustDoc(html)); !errors.Is(err, ErrMissingElement) {
			t.Errorf("expected ErrMissingElement, got %v", err)
		}
	})
}

// TestExtractTabularMatches tests that incomplete rows are skipped.
func TestExtractTabularMatches(t *testing.T) {
	t.Parallel()

	matches, err := ExtractTabularMatches(mustDoc(tabularPage))
	if err != nil {
		t.Fatalf("ExtractTabularMatches failed: %v", err)
	}

	want := []model.Match{
		match(result("ash", 2), result("misty", 0)),
		match(result("brock", 1), result("erika", 2)),
	}
	if diff := cmp.Diff(want, matches); diff != "" {
		t.Errorf("matches mismatch (-want +got):\n%s", diff)
	}
}

// TestPairingTraverser tests traversal of pairings pages in nav order.
func TestPairingTraverser(t *testing.T) {
	t.Parallel()

	round1 := `<div class="pairings"><table data-tournament="cup1"><tr><th>h</th></tr>` +
		`<tr data-completed="1"><td class="p1" data-id="ash" data-count="2"></td><td class="p2" data-id="gary" data-count="0"></td></tr></table></div>`
	round2 := `<div class="pairings"><table data-tournament="cup1"><tr><th>h</th></tr>` +
		`<tr data-completed="1"><td class="p1" data-id="misty" data-count="1"></td><td class="p2" data-id="ash" data-count="2"></td></tr></table></div>`
	nav := `<div class="mini-nav"><a href="/tournament/cup1/pairings?round=1">R1</a>` +
		`<a href="/tournament/cup1/pairings?round=2">R2</a><a href="/tournament/cup1/pairings">Top</a></div>`

	t.Run("earlier pages first, newest last", func(t *testing.T) {
		t.Parallel()

		f := newFakeFetcher(map[string]string{
			PairingsURL("cup1"):                  nav + bracketPage,
			"/tournament/cup1/pairings?round=1": round1,
			"/tournament/cup1/pairings?round=2": round2,
		})

		matches, err := NewPairingTraverser(f).Traverse(context.Background(), "cup1")
		if err != nil {
			t.Fatalf("Traverse failed: %v", err)
		}

		want := []model.Match{
			match(result("ash", 2), result("gary", 0)),
			match(result("misty", 1), result("ash", 2)),
			match(result("ash", 2), result("gary", 1)),
		}
		if diff := cmp.Diff(want, matches); diff != "" {
			t.Errorf("matches mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("single page without nav", func(t *testing.T) {
		t.Parallel()

		f := newFakeFetcher(map[string]string{PairingsURL("cup1"): tabularPage})
		matches, err := NewPairingTraverser(f).Traverse(context.Background(), "cup1")
		if err != nil {
			t.Fatalf("Traverse failed: %v", err)
		}
		if len(matches) != 2 {
			t.Errorf("expected 2 matches, got %d", len(matches))
		}
	})

	t.Run("unrecognized layout is a layout error", func(t *testing.T) {
		t.Parallel()

		f := newFakeFetcher(map[string]string{
			PairingsURL("cup1"):                  nav + `<p>registration closed</p>`,
			"/tournament/cup1/pairings?round=1": round1,
			"/tournament/cup1/pairings?round=2": round2,
		})

		_, err := NewPairingTraverser(f).Traverse(context.Background(), "cup1")
		if !errors.Is(err, ErrUnrecognizedLayout) {
			t.Fatalf("expected ErrUnrecognizedLayout, got %v", err)
		}
		var le *LayoutError
		if !errors.As(err, &le) {
			t.Fatalf("expected *LayoutError, got %T", err)
		}
		if le.TournamentID != "cup1" || le.URL != PairingsURL("cup1") {
			t.Errorf("unexpected layout error %+v", le)
		}
	})
}
