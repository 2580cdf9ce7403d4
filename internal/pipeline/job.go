package pipeline

import (
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/Mvlo566/POKETL/internal/model"
	"github.com/Mvlo566/POKETL/internal/store"
)

// TournamentJob accumulates the state of one tournament as it moves
// through the pipeline steps.
type TournamentJob struct {
	// Summary is the listing row the tournament came from.
	Summary model.TournamentSummary

	// Standings is the standings page, when it was fetched ahead of time.
	Standings *goquery.Document

	Players    []model.Player
	Matches    []model.Match
	Tournament *model.Tournament
	Written    store.Written

	// Outcome is set by the step that finishes the job.
	Outcome model.Outcome

	// Done stops the pipeline before the next step.
	Done bool

	// StepsRun lists the steps executed so far, in order.
	StepsRun []string
}

// NewTournamentJob creates a job for one listing row. standings may be nil.
func NewTournamentJob(summary model.TournamentSummary, standings *goquery.Document) *TournamentJob {
	return &TournamentJob{
		Summary:   summary,
		Standings: standings,
		StepsRun:  make([]string, 0),
	}
}

// Finish ends the job with the given outcome.
func (j *TournamentJob) Finish(outcome model.Outcome) {
	j.Outcome = outcome
	j.Done = true
}

// DecklistCount returns the number of players with a non-empty decklist.
func (j *TournamentJob) DecklistCount() int {
	n := 0
	for _, p := range j.Players {
		if len(p.Decklist) > 0 {
			n++
		}
	}
	return n
}

// Result converts the job into the outcome recorded for the run.
func (j *TournamentJob) Result(at time.Time) model.TournamentOutcome {
	return model.TournamentOutcome{
		ID:        j.Summary.ID,
		Name:      j.Summary.Name,
		Outcome:   j.Outcome,
		Players:   len(j.Players),
		Decklists: j.DecklistCount(),
		Matches:   len(j.Matches),
		Path:      j.Written.Path,
		Digest:    j.Written.Digest,
		Timestamp: at,
	}
}
