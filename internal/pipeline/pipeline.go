// Package pipeline turns listing rows into tournament documents.
//
// Each tournament runs through a Pipeline of Steps (existence check,
// standings, pairings, assembly, persistence) over a TournamentJob. The
// Orchestrator walks the tournament list and runs the pipeline for one
// tournament at a time.
package pipeline

import (
	"context"
	"log/slog"
)

// Step is one stage of tournament processing.
type Step interface {
	// Do executes the step. A step that settles the job's outcome calls
	// job.Finish, which stops the pipeline. Returned errors abort the job.
	Do(ctx context.Context, job *TournamentJob) error

	// Name returns the step's name for logging purposes.
	Name() string
}

// Pipeline executes steps in order.
type Pipeline struct {
	// steps contains the ordered list of steps to execute.
	steps []Step

	// logger is used for structured logging during execution.
	logger *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// New creates an empty Pipeline.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		steps: make([]Step, 0),
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.logger == nil {
		p.logger = slog.Default()
	}

	return p
}

// AddStep appends a step to the pipeline.
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// AddSteps appends multiple steps to the pipeline.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// Execute runs the steps until one fails or finishes the job.
// Cancellation is checked between steps.
func (p *Pipeline) Execute(ctx context.Context, job *TournamentJob) error {
	for _, step := range p.steps {
		if job.Done {
			return nil
		}

		select {
		case <-ctx.Done():
			p.logger.Warn("pipeline cancelled",
				"step", step.Name(),
				"tournament", job.Summary.ID,
				"reason", ctx.Err(),
			)
			return ctx.Err()
		default:
		}

		p.logger.Debug("executing step",
			"step", step.Name(),
			"tournament", job.Summary.ID,
		)

		if err := step.Do(ctx, job); err != nil {
			p.logger.Debug("step failed",
				"step", step.Name(),
				"tournament", job.Summary.ID,
				"error", err,
			)
			return err
		}

		job.StepsRun = append(job.StepsRun, step.Name())
	}

	return nil
}

// StepNames returns the names of all steps in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}
