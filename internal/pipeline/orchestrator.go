package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/Mvlo566/POKETL/internal/crawler"
	"github.com/Mvlo566/POKETL/internal/metrics"
	"github.com/Mvlo566/POKETL/internal/model"
)

// Ledger records runs and tournament outcomes. database.Ledger implements it.
type Ledger interface {
	StartRun(ctx context.Context, firstURL string, startedAt time.Time) (int64, error)
	RecordOutcome(ctx context.Context, runID int64, o model.TournamentOutcome) error
	FinishRun(ctx context.Context, runID int64, s *model.RunSummary) error
}

// Orchestrator walks the tournament list and processes one tournament at
// a time. Tournament k+1 starts only after tournament k is written or
// skipped.
type Orchestrator struct {
	fetcher   crawler.Fetcher
	store     DocumentStore
	walker    *crawler.Walker
	standings *crawler.StandingsExtractor
	pairings  *crawler.PairingTraverser
	pipeline  *Pipeline

	// ledger is optional.
	ledger Ledger

	// progress receives one line per list page and per tournament.
	progress io.Writer

	prefetch            bool
	isolateLayoutErrors bool

	logger  *slog.Logger
	metrics *metrics.Collector
	now     func() time.Time
}

// OrchestratorOption configures an Orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithWalker replaces the default list walker.
func WithWalker(w *crawler.Walker) OrchestratorOption {
	return func(o *Orchestrator) {
		o.walker = w
	}
}

// WithStandingsExtractor replaces the default standings extractor.
func WithStandingsExtractor(e *crawler.StandingsExtractor) OrchestratorOption {
	return func(o *Orchestrator) {
		o.standings = e
	}
}

// WithPairingTraverser replaces the default pairings traverser.
func WithPairingTraverser(t *crawler.PairingTraverser) OrchestratorOption {
	return func(o *Orchestrator) {
		o.pairings = t
	}
}

// WithLedger records the run into l.
func WithLedger(l Ledger) OrchestratorOption {
	return func(o *Orchestrator) {
		o.ledger = l
	}
}

// WithProgress sets where progress lines are printed. Default is io.Discard.
func WithProgress(w io.Writer) OrchestratorOption {
	return func(o *Orchestrator) {
		o.progress = w
	}
}

// WithPrefetchStandings controls whether the standings pages of a list
// page are fetched together before its tournaments are processed.
// Enabled by default.
func WithPrefetchStandings(enabled bool) OrchestratorOption {
	return func(o *Orchestrator) {
		o.prefetch = enabled
	}
}

// WithIsolateLayoutErrors records an unrecognized pairings layout as a
// failed tournament and continues, instead of aborting the run.
func WithIsolateLayoutErrors(enabled bool) OrchestratorOption {
	return func(o *Orchestrator) {
		o.isolateLayoutErrors = enabled
	}
}

// WithOrchestratorLogger sets the logger.
func WithOrchestratorLogger(logger *slog.Logger) OrchestratorOption {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// WithOrchestratorMetrics sets the metrics collector.
func WithOrchestratorMetrics(c *metrics.Collector) OrchestratorOption {
	return func(o *Orchestrator) {
		o.metrics = c
	}
}

// WithClock sets the time source used for run and outcome timestamps.
func WithClock(now func() time.Time) OrchestratorOption {
	return func(o *Orchestrator) {
		o.now = now
	}
}

// NewOrchestrator creates an Orchestrator reading through f and writing to s.
func NewOrchestrator(f crawler.Fetcher, s DocumentStore, opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		fetcher:  f,
		store:    s,
		progress: io.Discard,
		prefetch: true,
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}

	if o.walker == nil {
		o.walker = crawler.NewWalker(f,
			crawler.WithWalkerLogger(o.logger),
			crawler.WithWalkerMetrics(o.metrics),
		)
	}
	if o.standings == nil {
		o.standings = crawler.NewStandingsExtractor(f,
			crawler.WithStandingsLogger(o.logger),
			crawler.WithDecklistParser(crawler.NewDecklistParser(
				crawler.WithDecklistLogger(o.logger),
				crawler.WithDecklistMetrics(o.metrics),
			)),
		)
	}
	if o.pairings == nil {
		o.pairings = crawler.NewPairingTraverser(f,
			crawler.WithPairingsLogger(o.logger),
			crawler.WithPairingsMetrics(o.metrics),
		)
	}

	o.pipeline = New(WithLogger(o.logger))
	o.pipeline.AddSteps(TournamentSteps(f, s, o.standings, o.pairings, o.logger)...)

	return o
}

// Run crawls the list starting at firstURL.
//
// The returned summary covers everything processed, also when an error
// aborted the run.
func (o *Orchestrator) Run(ctx context.Context, firstURL string) (*model.RunSummary, error) {
	summary := model.NewRunSummary(firstURL, o.now())
	o.logger.Debug("run started", "first_url", firstURL, "steps", o.pipeline.StepNames())

	var runID int64
	if o.ledger != nil {
		id, err := o.ledger.StartRun(ctx, firstURL, summary.StartedAt)
		if err != nil {
			return summary, fmt.Errorf("failed to record run start: %w", err)
		}
		runID = id
	}

	stats, err := o.walker.WalkPages(ctx, firstURL, func(ctx context.Context, page *crawler.ListPage) error {
		fmt.Fprintf(o.progress, "extracting completed tournaments page %d\n", page.Current)

		prefetched := make([]*goquery.Document, len(page.Tournaments))
		if o.prefetch {
			docs, err := prefetchStandings(ctx, o.fetcher, o.store, page.Tournaments)
			if err != nil {
				return err
			}
			prefetched = docs
		}

		for i, row := range page.Tournaments {
			outcome, err := o.processTournament(ctx, row, prefetched[i])
			if outcome != nil {
				summary.Add(*outcome)
				o.record(ctx, runID, *outcome)
			}
			if err != nil {
				return err
			}
		}
		return nil
	})

	summary.Pages = stats.Pages
	summary.FinishedAt = o.now()
	if err != nil {
		summary.Error = err.Error()
	}

	if o.ledger != nil {
		// Record the final state even when ctx was cancelled.
		if ferr := o.ledger.FinishRun(context.WithoutCancel(ctx), runID, summary); ferr != nil {
			o.logger.Warn("failed to record run end", "run", runID, "error", ferr)
		}
	}

	players, decklists, matches := summary.Totals()
	o.logger.Info("crawl finished",
		"pages", summary.Pages,
		"tournaments", len(summary.Tournaments),
		"written", summary.Count(model.OutcomeWritten),
		"players", players,
		"decklists", decklists,
		"matches", matches,
		"elapsed", summary.Elapsed(),
	)

	return summary, err
}

// processTournament runs the pipeline for one row. A nil outcome means the
// tournament failed with a run-aborting error.
func (o *Orchestrator) processTournament(ctx context.Context, row model.TournamentSummary, standings *goquery.Document) (*model.TournamentOutcome, error) {
	fmt.Fprintf(o.progress, "extracting tournament %s... ", row.ID)

	job := NewTournamentJob(row, standings)
	if err := o.pipeline.Execute(ctx, job); err != nil {
		var layoutErr *crawler.LayoutError
		if o.isolateLayoutErrors && errors.As(err, &layoutErr) {
			fmt.Fprintf(o.progress, "skipping because of an unrecognized pairings layout at %s\n", layoutErr.URL)
			o.logger.Warn("unrecognized pairings layout", "tournament", row.ID, "url", layoutErr.URL)

			job.Finish(model.OutcomeFailedLayout)
			result := job.Result(o.now())
			result.Error = err.Error()
			o.metrics.TournamentProcessed(string(result.Outcome))
			return &result, nil
		}

		fmt.Fprintln(o.progress, "failed")
		o.logger.Error("tournament failed", "tournament", row.ID, "error", err)
		return nil, err
	}

	switch job.Outcome {
	case model.OutcomeSkippedExisting:
		fmt.Fprintln(o.progress, "skipping because tournament is already in output")
	case model.OutcomeSkippedEmpty:
		fmt.Fprintln(o.progress, "skipping because no decklist was detected")
	case model.OutcomeWritten:
		fmt.Fprintf(o.progress, "%d players, %d decklists, %d matches\n",
			len(job.Players), job.DecklistCount(), len(job.Matches))
	default:
		return nil, fmt.Errorf("tournament %s: pipeline ended without an outcome", row.ID)
	}

	result := job.Result(o.now())
	o.metrics.TournamentProcessed(string(result.Outcome))
	return &result, nil
}

func (o *Orchestrator) record(ctx context.Context, runID int64, outcome model.TournamentOutcome) {
	if o.ledger == nil {
		return
	}
	if err := o.ledger.RecordOutcome(ctx, runID, outcome); err != nil {
		o.logger.Warn("failed to record tournament outcome", "tournament", outcome.ID, "error", err)
	}
}
