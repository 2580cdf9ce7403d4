package model

import (
	"fmt"
	"strings"
	"time"
)

// TournamentSummary is the metadata read from one row of the tournament list.
type TournamentSummary struct {
	ID        string
	Name      string
	Date      string
	Organizer string
	Format    string
	NbPlayers int
}

// Validate checks that the summary can name an output document.
func (s TournamentSummary) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("%w: tournament without id", ErrInvalidRecord)
	}
	if strings.ContainsAny(s.ID, `/\`) || s.ID == "." || s.ID == ".." {
		return fmt.Errorf("%w: tournament id %q is not a valid file name", ErrInvalidRecord, s.ID)
	}
	return nil
}

// Outcome is what happened to a tournament during a run.
type Outcome string

const (
	// OutcomeWritten means a new document was created.
	OutcomeWritten Outcome = "written"

	// OutcomeSkippedExisting means the document already existed; nothing was fetched.
	OutcomeSkippedExisting Outcome = "skipped_existing"

	// OutcomeSkippedEmpty means no player with a decklist was found; nothing was written.
	OutcomeSkippedEmpty Outcome = "skipped_empty"

	// OutcomeFailedLayout means the pairings could not be classified and
	// layout errors were configured to be isolated per tournament.
	OutcomeFailedLayout Outcome = "failed_layout"
)

// Outcomes lists every outcome in display order.
var Outcomes = []Outcome{
	OutcomeWritten,
	OutcomeSkippedExisting,
	OutcomeSkippedEmpty,
	OutcomeFailedLayout,
}

// TournamentOutcome records the result of processing one tournament.
type TournamentOutcome struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Outcome   Outcome   `json:"outcome"`
	Players   int       `json:"players"`
	Decklists int       `json:"decklists"`
	Matches   int       `json:"matches"`
	Path      string    `json:"path,omitempty"`
	Digest    string    `json:"digest,omitempty"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// RunSummary aggregates everything a crawl did.
type RunSummary struct {
	FirstURL    string              `json:"first_url"`
	StartedAt   time.Time           `json:"started_at"`
	FinishedAt  time.Time           `json:"finished_at"`
	Pages       int                 `json:"pages"`
	Tournaments []TournamentOutcome `json:"tournaments"`
	Error       string              `json:"error,omitempty"`
}

// NewRunSummary starts a summary for a crawl beginning at firstURL.
func NewRunSummary(firstURL string, startedAt time.Time) *RunSummary {
	return &RunSummary{
		FirstURL:    firstURL,
		StartedAt:   startedAt,
		Tournaments: make([]TournamentOutcome, 0),
	}
}

// Add appends a tournament outcome.
func (r *RunSummary) Add(o TournamentOutcome) {
	r.Tournaments = append(r.Tournaments, o)
}

// Count returns how many tournaments ended with the given outcome.
func (r *RunSummary) Count(outcome Outcome) int {
	n := 0
	for _, t := range r.Tournaments {
		if t.Outcome == outcome {
			n++
		}
	}
	return n
}

// Totals sums players, decklists and matches over written tournaments.
func (r *RunSummary) Totals() (players, decklists, matches int) {
	for _, t := range r.Tournaments {
		if t.Outcome != OutcomeWritten {
			continue
		}
		players += t.Players
		decklists += t.Decklists
		matches += t.Matches
	}
	return players, decklists, matches
}

// Elapsed returns the wall time of the run.
func (r *RunSummary) Elapsed() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
