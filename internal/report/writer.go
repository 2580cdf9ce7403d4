package report

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/Mvlo566/POKETL/internal/database"
	"github.com/Mvlo566/POKETL/internal/model"
)

// Supported formats for NewWriter.
const (
	FormatText     = "text"
	FormatMarkdown = "markdown"
	FormatJSON     = "json"
)

// ErrUnknownFormat is returned by NewWriter for an unsupported format.
var ErrUnknownFormat = errors.New("unknown report format")

// Writer renders reports to its output.
type Writer interface {
	// WriteRun renders the summary of one crawl.
	WriteRun(run *model.RunSummary) (int, error)

	// WriteHistory renders runs recorded in the ledger, newest first.
	WriteHistory(runs []database.RunRecord) (int, error)

	// WriteTournament renders a stored tournament document.
	WriteTournament(t *model.Tournament) (int, error)
}

// NewWriter returns the Writer for format.
func NewWriter(format string, output io.Writer) (Writer, error) {
	switch format {
	case FormatText, "":
		return NewTextWriter(output), nil
	case FormatMarkdown:
		return NewMarkdownWriter(output), nil
	case FormatJSON:
		return NewJSONWriter(output, WithPrettyPrint()), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// MultiWriter writes to multiple Writers in turn and stops at the first error.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// WriteRun renders the run with every writer.
func (m *MultiWriter) WriteRun(run *model.RunSummary) (int, error) {
	return m.each(func(w Writer) (int, error) { return w.WriteRun(run) })
}

// WriteHistory renders the history with every writer.
func (m *MultiWriter) WriteHistory(runs []database.RunRecord) (int, error) {
	return m.each(func(w Writer) (int, error) { return w.WriteHistory(runs) })
}

// WriteTournament renders the document with every writer.
func (m *MultiWriter) WriteTournament(t *model.Tournament) (int, error) {
	return m.each(func(w Writer) (int, error) { return w.WriteTournament(t) })
}

func (m *MultiWriter) each(fn func(Writer) (int, error)) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := fn(w)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

var titleCaser = cases.Title(language.English)

// outcomeLabel turns "skipped_existing" into "Skipped Existing".
func outcomeLabel(o model.Outcome) string {
	return titleCaser.String(strings.ReplaceAll(string(o), "_", " "))
}

// runStatus is the one-line state of a run.
func runStatus(errMsg string, finished bool) string {
	switch {
	case errMsg != "":
		return "Failed: " + errMsg
	case !finished:
		return "Incomplete"
	default:
		return "Complete"
	}
}

// standings returns the players ordered by placing with unknown placings
// last. The input is not modified.
func standings(players []model.Player) []model.Player {
	sorted := make([]model.Player, len(players))
	copy(sorted, players)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i].Placing, sorted[j].Placing
		if a.Known() != b.Known() {
			return a.Known()
		}
		return a < b
	})
	return sorted
}

func deckSize(p model.Player) int {
	n := 0
	for _, item := range p.Decklist {
		n += item.Count
	}
	return n
}

func country(p model.Player) string {
	if p.Country == nil || *p.Country == "" {
		return "-"
	}
	return *p.Country
}

const timeLayout = "2006-01-02 15:04:05 MST"
