package crawler

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/Mvlo566/POKETL/internal/model"
)

// ExtractBracketMatches reads the matches of a bracket pairings page.
// Bye nodes are skipped; every other node must show two players.
func ExtractBracketMatches(doc *goquery.Document) ([]model.Match, error) {
	matches := make([]model.Match, 0)

	var extractErr error
	doc.Find("div.live-bracket").First().Find("div.bracket-match").EachWithBreak(func(i int, node *goquery.Selection) bool {
		if node.Find("a.bye").Length() > 0 {
			return true
		}

		players := node.Find("div.live-bracket-player")
		if players.Length() != 2 {
			extractErr = fmt.Errorf("%w: bracket match %d shows %d players", ErrMissingElement, i+1, players.Length())
			return false
		}

		results := make([]model.MatchResult, 0, 2)
		players.EachWithBreak(func(_ int, player *goquery.Selection) bool {
			r, err := bracketResult(player)
			if err != nil {
				extractErr = fmt.Errorf("bracket match %d: %w", i+1, err)
				return false
			}
			results = append(results, r)
			return true
		})
		if extractErr != nil {
			return false
		}

		m, err := model.NewMatch(results[0], results[1])
		if err != nil {
			extractErr = fmt.Errorf("bracket match %d: %w", i+1, err)
			return false
		}
		matches = append(matches, m)
		return true
	})
	if extractErr != nil {
		return nil, extractErr
	}

	return matches, nil
}

func bracketResult(player *goquery.Selection) (model.MatchResult, error) {
	id, ok := player.Attr("data-id")
	if !ok {
		return model.MatchResult{}, fmt.Errorf("%w: data-id of bracket player", ErrMissingElement)
	}

	raw, ok := player.Find("div.score").First().Attr("data-score")
	if !ok {
		return model.MatchResult{}, fmt.Errorf("%w: score of bracket player %s", ErrMissingElement, id)
	}
	score, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return model.MatchResult{}, fmt.Errorf("score of bracket player %s: %w", id, err)
	}

	return model.NewMatchResult(id, score)
}
