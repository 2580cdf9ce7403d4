package report

import (
	"encoding/json"
	"io"
	"time"

	"github.com/Mvlo566/POKETL/internal/database"
	"github.com/Mvlo566/POKETL/internal/model"
)

// JSONWriter outputs reports as JSON for other programs.
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed output.
	indent       bool
	indentPrefix string
	indentString string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint is WithIndent("", "  ").
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// runReport adds derived totals to a RunSummary.
type runReport struct {
	*model.RunSummary

	Counts    map[model.Outcome]int `json:"counts"`
	Players   int                   `json:"players"`
	Decklists int                   `json:"decklists"`
	Matches   int                   `json:"matches"`
	ElapsedMS int64                 `json:"elapsed_ms"`
}

// WriteRun outputs the run summary with per-outcome counts.
func (w *JSONWriter) WriteRun(run *model.RunSummary) (int, error) {
	counts := make(map[model.Outcome]int, len(model.Outcomes))
	for _, o := range model.Outcomes {
		counts[o] = run.Count(o)
	}
	players, decklists, matches := run.Totals()
	return w.writeJSON(runReport{
		RunSummary: run,
		Counts:     counts,
		Players:    players,
		Decklists:  decklists,
		Matches:    matches,
		ElapsedMS:  run.Elapsed().Milliseconds(),
	})
}

type historyEntry struct {
	ID              int64      `json:"id"`
	FirstURL        string     `json:"first_url"`
	StartedAt       time.Time  `json:"started_at"`
	FinishedAt      *time.Time `json:"finished_at"`
	Pages           int        `json:"pages"`
	Written         int        `json:"written"`
	SkippedExisting int        `json:"skipped_existing"`
	SkippedEmpty    int        `json:"skipped_empty"`
	FailedLayout    int        `json:"failed_layout"`
	Players         int        `json:"players"`
	Decklists       int        `json:"decklists"`
	Matches         int        `json:"matches"`
	Error           string     `json:"error,omitempty"`
}

// WriteHistory outputs the runs as a JSON array.
func (w *JSONWriter) WriteHistory(runs []database.RunRecord) (int, error) {
	entries := make([]historyEntry, 0, len(runs))
	for _, r := range runs {
		e := historyEntry{
			ID:              r.ID,
			FirstURL:        r.FirstURL,
			StartedAt:       r.StartedAt,
			Pages:           r.Pages,
			Written:         r.Written,
			SkippedExisting: r.SkippedExisting,
			SkippedEmpty:    r.SkippedEmpty,
			FailedLayout:    r.FailedLayout,
			Players:         r.Players,
			Decklists:       r.Decklists,
			Matches:         r.Matches,
			Error:           r.Error,
		}
		if r.Finished() {
			finished := r.FinishedAt
			e.FinishedAt = &finished
		}
		entries = append(entries, e)
	}
	return w.writeJSON(entries)
}

// WriteTournament outputs the document as stored.
func (w *JSONWriter) WriteTournament(t *model.Tournament) (int, error) {
	return w.writeJSON(t)
}

func (w *JSONWriter) writeJSON(v any) (int, error) {
	var (
		data []byte
		err  error
	)
	if w.indent {
		data, err = json.MarshalIndent(v, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return 0, err
	}
	data = append(data, '\n')
	return w.output.Write(data)
}
