package crawler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
)

var errPageNotFound = errors.New("page not found")

// fakeFetcher serves canned HTML by reference and records every request.
type fakeFetcher struct {
	mu    sync.Mutex
	pages map[string]string
	calls []string
}

func newFakeFetcher(pages map[string]string) *fakeFetcher {
	return &fakeFetcher{pages: pages}
}

func (f *fakeFetcher) Fetch(_ context.Context, ref string) (*goquery.Document, error) {
	if ref == "" {
		return nil, nil
	}

	f.mu.Lock()
	f.calls = append(f.calls, ref)
	body, ok := f.pages[ref]
	f.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", errPageNotFound, ref)
	}
	return goquery.NewDocumentFromReader(strings.NewReader(body))
}

func (f *fakeFetcher) FetchAll(ctx context.Context, refs []string) ([]*goquery.Document, error) {
	docs := make([]*goquery.Document, len(refs))
	for i, ref := range refs {
		doc, err := f.Fetch(ctx, ref)
		if err != nil {
			return nil, err
		}
		docs[i] = doc
	}
	return docs, nil
}

func (f *fakeFetcher) requested() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func mustDoc(html string) *goquery.Document {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		panic(err)
	}
	return doc
}

// listPage renders a completed-tournaments page.
func listPage(current, maxPage int, ids ...string) string {
	var b strings.Builder
	fmt.Fprintf(&b, `<html><body><ul class="pagination" data-current="%d" data-max="%d"></ul>`, current, maxPage)
	b.WriteString(`<table class="completed-tournaments"><tr><th>Name</th><th>Players</th></tr>`)
	for _, id := range ids {
		fmt.Fprintf(&b, `<tr data-name="Cup %[1]s" data-date="2025-03-01T18:00:00.000Z" data-organizer="League" data-format="STANDARD" data-players="16">`+
			`<td><a href="/tournament/%[1]s/standings">Cup %[1]s</a></td><td>16</td></tr>`, id)
	}
	b.WriteString(`</table></body></html>`)
	return b.String()
}
