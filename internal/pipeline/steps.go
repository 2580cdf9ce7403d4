package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/PuerkitoBio/goquery"

	"github.com/Mvlo566/POKETL/internal/crawler"
	"github.com/Mvlo566/POKETL/internal/model"
	"github.com/Mvlo566/POKETL/internal/store"
)

// DocumentStore is where tournament documents live. store.Store implements it.
type DocumentStore interface {
	Exists(id string) (bool, error)
	Create(t *model.Tournament) (store.Written, error)
}

// ExistenceStep finishes the job when the tournament's document already
// exists. Nothing is fetched for such a tournament.
type ExistenceStep struct {
	store  DocumentStore
	logger *slog.Logger
}

// NewExistenceStep creates an ExistenceStep.
func NewExistenceStep(s DocumentStore, logger *slog.Logger) *ExistenceStep {
	return &ExistenceStep{store: s, logger: logger}
}

// Name returns the step name.
func (s *ExistenceStep) Name() string {
	return "existence"
}

// Do executes the existence check.
func (s *ExistenceStep) Do(_ context.Context, job *TournamentJob) error {
	exists, err := s.store.Exists(job.Summary.ID)
	if err != nil {
		return err
	}
	if exists {
		s.logger.Info("skipping tournament already in output", "tournament", job.Summary.ID)
		job.Finish(model.OutcomeSkippedExisting)
	}
	return nil
}

// StandingsStep reads the players of the tournament, fetching the
// standings page unless it was prefetched.
type StandingsStep struct {
	fetcher   crawler.Fetcher
	extractor *crawler.StandingsExtractor
	logger    *slog.Logger
}

// NewStandingsStep creates a StandingsStep.
func NewStandingsStep(f crawler.Fetcher, e *crawler.StandingsExtractor, logger *slog.Logger) *StandingsStep {
	return &StandingsStep{fetcher: f, extractor: e, logger: logger}
}

// Name returns the step name.
func (s *StandingsStep) Name() string {
	return "standings"
}

// Do executes the standings extraction. A tournament without any player
// holding a decklist is finished as skipped.
func (s *StandingsStep) Do(ctx context.Context, job *TournamentJob) error {
	doc := job.Standings
	if doc == nil {
		var err error
		doc, err = s.fetcher.Fetch(ctx, crawler.StandingsURL(job.Summary.ID))
		if err != nil {
			return fmt.Errorf("tournament %s: failed to fetch standings: %w", job.Summary.ID, err)
		}
	}

	players, err := s.extractor.Extract(ctx, doc, job.Summary.ID)
	if err != nil {
		return err
	}
	job.Players = players

	if len(players) == 0 {
		s.logger.Info("skipping tournament because no decklist was detected", "tournament", job.Summary.ID)
		job.Finish(model.OutcomeSkippedEmpty)
	}
	return nil
}

// PairingsStep collects the matches of the tournament.
type PairingsStep struct {
	traverser *crawler.PairingTraverser
}

// NewPairingsStep creates a PairingsStep.
func NewPairingsStep(t *crawler.PairingTraverser) *PairingsStep {
	return &PairingsStep{traverser: t}
}

// Name returns the step name.
func (s *PairingsStep) Name() string {
	return "pairings"
}

// Do executes the pairings traversal.
func (s *PairingsStep) Do(ctx context.Context, job *TournamentJob) error {
	matches, err := s.traverser.Traverse(ctx, job.Summary.ID)
	if err != nil {
		return err
	}
	job.Matches = matches
	return nil
}

// AssembleStep builds the tournament document from the job.
type AssembleStep struct {
	logger *slog.Logger
}

// NewAssembleStep creates an AssembleStep.
func NewAssembleStep(logger *slog.Logger) *AssembleStep {
	return &AssembleStep{logger: logger}
}

// Name returns the step name.
func (s *AssembleStep) Name() string {
	return "assemble"
}

// Do executes the assembly. Match players missing from the player list
// are logged; they are expected for players who published no decklist.
func (s *AssembleStep) Do(_ context.Context, job *TournamentJob) error {
	t, err := model.NewTournament(job.Summary, job.Players, job.Matches)
	if err != nil {
		return err
	}

	if unknown := t.UnknownMatchPlayers(); len(unknown) > 0 {
		s.logger.Warn("matches reference players without a decklist",
			"tournament", t.ID,
			"count", len(unknown),
			"players", unknown,
		)
	}

	job.Tournament = t
	return nil
}

// PersistStep creates the document and finishes the job as written.
type PersistStep struct {
	store  DocumentStore
	logger *slog.Logger
}

// NewPersistStep creates a PersistStep.
func NewPersistStep(s DocumentStore, logger *slog.Logger) *PersistStep {
	return &PersistStep{store: s, logger: logger}
}

// Name returns the step name.
func (s *PersistStep) Name() string {
	return "persist"
}

// Do executes the write.
func (s *PersistStep) Do(_ context.Context, job *TournamentJob) error {
	if job.Tournament == nil {
		return fmt.Errorf("tournament %s: nothing assembled to persist", job.Summary.ID)
	}

	w, err := s.store.Create(job.Tournament)
	if err != nil {
		return err
	}

	s.logger.Debug("tournament persisted", "tournament", job.Summary.ID, "path", w.Path)
	job.Written = w
	job.Finish(model.OutcomeWritten)
	return nil
}

// TournamentSteps returns the standard step sequence.
func TournamentSteps(
	f crawler.Fetcher,
	s DocumentStore,
	standings *crawler.StandingsExtractor,
	pairings *crawler.PairingTraverser,
	logger *slog.Logger,
) []Step {
	return []Step{
		NewExistenceStep(s, logger),
		NewStandingsStep(f, standings, logger),
		NewPairingsStep(pairings),
		NewAssembleStep(logger),
		NewPersistStep(s, logger),
	}
}

// prefetchStandings fetches, concurrently, the standings pages of the
// tournaments whose document does not exist yet. Entries of existing
// tournaments are nil.
func prefetchStandings(ctx context.Context, f crawler.Fetcher, s DocumentStore, rows []model.TournamentSummary) ([]*goquery.Document, error) {
	refs := make([]string, len(rows))
	for i, row := range rows {
		exists, err := s.Exists(row.ID)
		if err != nil {
			return nil, err
		}
		if !exists {
			refs[i] = crawler.StandingsURL(row.ID)
		}
	}

	docs, err := f.FetchAll(ctx, refs)
	if err != nil {
		return nil, fmt.Errorf("failed to prefetch standings: %w", err)
	}
	return docs, nil
}
