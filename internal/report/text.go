package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Mvlo566/POKETL/internal/database"
	"github.com/Mvlo566/POKETL/internal/model"
)

const ruleWidth = 70

// TextWriter outputs human-readable plain text.
type TextWriter struct {
	baseWriter

	// maxTournaments limits the per-tournament lines of a run report.
	// 0 lists all of them.
	maxTournaments int
}

// TextWriterOption configures a TextWriter.
type TextWriterOption func(*TextWriter)

// WithMaxTournaments limits how many tournaments a run report lists.
func WithMaxTournaments(n int) TextWriterOption {
	return func(w *TextWriter) {
		w.maxTournaments = n
	}
}

// NewTextWriter creates a TextWriter that outputs to the given writer.
func NewTextWriter(output io.Writer, opts ...TextWriterOption) *TextWriter {
	w := &TextWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// WriteRun outputs the run summary.
func (w *TextWriter) WriteRun(run *model.RunSummary) (int, error) {
	var sb strings.Builder

	banner(&sb, "POKETL RUN REPORT")
	fmt.Fprintf(&sb, "Listing:   %s\n", run.FirstURL)
	fmt.Fprintf(&sb, "Started:   %s\n", run.StartedAt.Format(timeLayout))
	fmt.Fprintf(&sb, "Elapsed:   %s\n", run.Elapsed().Round(time.Millisecond))
	fmt.Fprintf(&sb, "Pages:     %d\n", run.Pages)
	fmt.Fprintf(&sb, "Status:    %s\n\n", runStatus(run.Error, !run.FinishedAt.IsZero()))

	section(&sb, "OUTCOMES")
	for _, o := range model.Outcomes {
		fmt.Fprintf(&sb, "  %-18s %d\n", outcomeLabel(o)+":", run.Count(o))
	}
	players, decklists, matches := run.Totals()
	fmt.Fprintf(&sb, "\n  Written totals: %d players, %d decklists, %d matches\n\n", players, decklists, matches)

	if len(run.Tournaments) > 0 {
		section(&sb, "TOURNAMENTS")
		shown := run.Tournaments
		if w.maxTournaments > 0 && len(shown) > w.maxTournaments {
			shown = shown[:w.maxTournaments]
		}
		for _, t := range shown {
			fmt.Fprintf(&sb, "  %-26s %-18s", t.ID, outcomeLabel(t.Outcome))
			if t.Outcome == model.OutcomeWritten {
				fmt.Fprintf(&sb, " %d players, %d decklists, %d matches", t.Players, t.Decklists, t.Matches)
			}
			if t.Error != "" {
				fmt.Fprintf(&sb, " %s", t.Error)
			}
			sb.WriteString("\n")
		}
		if hidden := len(run.Tournaments) - len(shown); hidden > 0 {
			fmt.Fprintf(&sb, "  ... and %d more\n", hidden)
		}
		sb.WriteString("\n")
	}

	return io.WriteString(w.output, sb.String())
}

// WriteHistory outputs one line per recorded run.
func (w *TextWriter) WriteHistory(runs []database.RunRecord) (int, error) {
	var sb strings.Builder

	banner(&sb, "POKETL CRAWL HISTORY")
	if len(runs) == 0 {
		sb.WriteString("No runs recorded.\n")
		return io.WriteString(w.output, sb.String())
	}

	fmt.Fprintf(&sb, "%-5s %-23s %5s %7s %8s %6s %6s  %s\n",
		"ID", "STARTED", "PAGES", "WRITTEN", "EXISTING", "EMPTY", "LAYOUT", "STATUS")
	for _, r := range runs {
		fmt.Fprintf(&sb, "%-5d %-23s %5d %7d %8d %6d %6d  %s\n",
			r.ID, r.StartedAt.Format(timeLayout), r.Pages, r.Written,
			r.SkippedExisting, r.SkippedEmpty, r.FailedLayout,
			runStatus(r.Error, r.Finished()))
	}
	return io.WriteString(w.output, sb.String())
}

// WriteTournament outputs the metadata and standings of a document.
func (w *TextWriter) WriteTournament(t *model.Tournament) (int, error) {
	var sb strings.Builder

	banner(&sb, t.Name)
	fmt.Fprintf(&sb, "ID:         %s\n", t.ID)
	fmt.Fprintf(&sb, "Date:       %s\n", t.Date)
	fmt.Fprintf(&sb, "Organizer:  %s\n", t.Organizer)
	fmt.Fprintf(&sb, "Format:     %s\n", t.Format)
	fmt.Fprintf(&sb, "Players:    %d listed, %d crawled, %d decklists\n", t.NbPlayers, len(t.Players), t.DecklistCount())
	fmt.Fprintf(&sb, "Matches:    %d\n", len(t.Matches))
	fmt.Fprintf(&sb, "Cards:      %d distinct\n\n", t.DistinctCards())

	section(&sb, "STANDINGS")
	for _, p := range standings(t.Players) {
		fmt.Fprintf(&sb, "  %7s  %-30s %-4s %2d cards\n", p.Placing, p.Name, country(p), deckSize(p))
	}
	sb.WriteString("\n")

	return io.WriteString(w.output, sb.String())
}

func banner(sb *strings.Builder, title string) {
	rule := strings.Repeat("=", ruleWidth)
	pad := max((ruleWidth-len(title))/2, 0)
	fmt.Fprintf(sb, "\n%s\n%s%s\n%s\n\n", rule, strings.Repeat(" ", pad), title, rule)
}

func section(sb *strings.Builder, title string) {
	rule := strings.Repeat("-", ruleWidth)
	fmt.Fprintf(sb, "%s\n%s\n%s\n\n", rule, title, rule)
}
