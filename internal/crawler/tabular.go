package crawler

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/Mvlo566/POKETL/internal/model"
)

// ExtractTabularMatches reads the completed rows of a results table.
// Rows without both a p1 and a p2 cell are skipped.
func ExtractTabularMatches(doc *goquery.Document) ([]model.Match, error) {
	matches := make([]model.Match, 0)

	var extractErr error
	doc.Find(`tr[data-completed="1"]`).EachWithBreak(func(i int, tr *goquery.Selection) bool {
		p1 := tr.Find("td.p1").First()
		p2 := tr.Find("td.p2").First()
		if p1.Length() == 0 || p2.Length() == 0 {
			return true
		}

		a, err := tabularResult(p1)
		if err != nil {
			extractErr = fmt.Errorf("row %d: %w", i+1, err)
			return false
		}
		b, err := tabularResult(p2)
		if err != nil {
			extractErr = fmt.Errorf("row %d: %w", i+1, err)
			return false
		}

		m, err := model.NewMatch(a, b)
		if err != nil {
			extractErr = fmt.Errorf("row %d: %w", i+1, err)
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

func tabularResult(td *goquery.Selection) (model.MatchResult, error) {
	id, ok := td.Attr("data-id")
	if !ok {
		return model.MatchResult{}, fmt.Errorf("%w: data-id", ErrMissingElement)
	}

	raw, ok := td.Attr("data-count")
	if !ok {
		return model.MatchResult{}, fmt.Errorf("%w: data-count of player %s", ErrMissingElement, id)
	}
	count, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return model.MatchResult{}, fmt.Errorf("data-count of player %s: %w", id, err)
	}

	return model.NewMatchResult(id, count)
}
