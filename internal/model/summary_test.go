package model

import (
	"testing"
	"time"
)

// TestRunSummary tests outcome counting and totals.
func TestRunSummary(t *testing.T) {
	t.Parallel()

	start := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	r := NewRunSummary("/tournaments/completed", start)
	r.Add(TournamentOutcome{ID: "a", Outcome: OutcomeWritten, Players: 10, Decklists: 8, Matches: 20})
	r.Add(TournamentOutcome{ID: "b", Outcome: OutcomeWritten, Players: 4, Decklists: 4, Matches: 3})
	r.Add(TournamentOutcome{ID: "c", Outcome: OutcomeSkippedExisting})
	r.Add(TournamentOutcome{ID: "d", Outcome: OutcomeSkippedEmpty, Players: 0})

	if got := r.Count(OutcomeWritten); got != 2 {
		t.Errorf("expected 2 written, got %d", got)
	}
	if got := r.Count(OutcomeSkippedExisting); got != 1 {
		t.Errorf("expected 1 skipped existing, got %d", got)
	}
	if got := r.Count(OutcomeFailedLayout); got != 0 {
		t.Errorf("expected 0 failed, got %d", got)
	}

	players, decklists, matches := r.Totals()
	if players != 14 || decklists != 12 || matches != 23 {
		t.Errorf("unexpected totals: %d players, %d decklists, %d matches", players, decklists, matches)
	}

	if r.Elapsed() != 0 {
		t.Error("expected zero elapsed before finish")
	}
	r.FinishedAt = start.Add(90 * time.Second)
	if r.Elapsed() != 90*time.Second {
		t.Errorf("expected 90s elapsed, got %s", r.Elapsed())
	}
}

// TestTournamentSummaryValidate tests listing metadata validation.
func TestTournamentSummaryValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		id      string
		wantErr bool
	}{
		{id: "67c6f7d4a4b1", wantErr: false},
		{id: "weekly_cup-12", wantErr: false},
		{id: "", wantErr: true},
		{id: "a/b", wantErr: true},
		{id: `a\b`, wantErr: true},
		{id: "..", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			t.Parallel()

			err := TournamentSummary{ID: tt.id}.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate(%q) error = %v, wantErr %v", tt.id, err, tt.wantErr)
			}
		})
	}
}
