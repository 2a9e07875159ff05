package pipeline

import (
	"context"
	"log/slog"
	"time"
)

// Step defines the interface that all pipeline steps must implement.
// Steps are executed in sequence on the same Job.
type Step interface {
	// Do executes the step. It returns an error if the step fails; the
	// pipeline records it on the job.
	Do(ctx context.Context, job *Job) error

	// Name returns the step's name for logging purposes.
	Name() string
}

// Pipeline runs steps in order on one job.
type Pipeline struct {
	steps []Step

	logger *slog.Logger

	// continueOnError runs the remaining steps after a failure.
	continueOnError bool
}

// Option is a function that configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithContinueOnError keeps executing steps after one fails. The first
// error stays recorded on the job. Used so that a crawl whose stream broke
// is still saved to history.
func WithContinueOnError(continueOnError bool) Option {
	return func(p *Pipeline) {
		p.continueOnError = continueOnError
	}
}

// New creates a new Pipeline with the given options.
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

// Execute runs all steps in sequence. Cancellation is checked before each
// step; a running step handles ctx itself.
//
// It returns the first error when continueOnError is false. Otherwise it
// returns nil and the error is only recorded on the job.
func (p *Pipeline) Execute(ctx context.Context, job *Job) error {
	for _, step := range p.steps {
		if err := ctx.Err(); err != nil {
			p.logger.Warn("pipeline cancelled",
				"step", step.Name(),
				"url", job.URL,
				"reason", err,
			)
			job.Aborted = true
			job.recordError(err)
			return err
		}

		if err := p.run(ctx, step, job); err != nil && !p.continueOnError {
			return err
		}
	}
	return nil
}

// run executes one step and records its outcome on the job.
func (p *Pipeline) run(ctx context.Context, step Step, job *Job) error {
	name := step.Name()
	p.logger.Debug("executing step", "step", name, "url", job.URL)

	start := time.Now()
	err := step.Do(ctx, job)
	elapsed := time.Since(start)

	job.PerformedSteps = append(job.PerformedSteps, name)
	job.StepDurations[name] = elapsed

	if err != nil {
		p.logger.Error("step failed",
			"step", name,
			"url", job.URL,
			"request_id", job.RequestID(),
			"elapsed", elapsed,
			"error", err,
		)
		job.recordError(err)
		return err
	}

	p.logger.Debug("step completed",
		"step", name,
		"url", job.URL,
		"elapsed", elapsed,
	)
	return nil
}

// StepCount returns the number of steps in the pipeline.
func (p *Pipeline) StepCount() int {
	return len(p.steps)
}

// StepNames returns the names of all steps in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}
