package pipeline

import (
	"context"
	"log/slog"

	"github.com/nao1215/crawlctl/internal/model"
)

// SubmitStep builds the request from the job's form and creates it.
type SubmitStep struct {
	// detach releases the session right away, for crawls that are not
	// followed.
	detach bool

	logger *slog.Logger
}

// SubmitStepOption configures a SubmitStep.
type SubmitStepOption func(*SubmitStep)

// WithSubmitDetach makes the step release the session after creating the
// request, so no WatchStep is needed.
func WithSubmitDetach(detach bool) SubmitStepOption {
	return func(s *SubmitStep) {
		s.detach = detach
	}
}

// WithSubmitLogger sets a custom logger for the submit step.
func WithSubmitLogger(logger *slog.Logger) SubmitStepOption {
	return func(s *SubmitStep) {
		s.logger = logger
	}
}

// NewSubmitStep creates a new submit step.
func NewSubmitStep(opts ...SubmitStepOption) *SubmitStep {
	s := &SubmitStep{logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the step name.
func (s *SubmitStep) Name() string {
	return "submit"
}

// Do executes the submit step.
func (s *SubmitStep) Do(ctx context.Context, job *Job) error {
	req, err := job.Session.Start(ctx, job.Form, job.URL)
	if err != nil {
		return err
	}
	job.Request = req

	if s.detach {
		job.Session.Release()
		s.logger.Debug("crawl submitted without watching", "request_id", req.UUID)
	}
	return nil
}

// WatchStep follows the status stream of the submitted request until it
// ends and stores the final summary on the job.
type WatchStep struct {
	logger *slog.Logger
}

// NewWatchStep creates a new watch step.
func NewWatchStep(logger *slog.Logger) *WatchStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &WatchStep{logger: logger}
}

// Name returns the step name.
func (s *WatchStep) Name() string {
	return "watch"
}

// Do executes the watch step.
func (s *WatchStep) Do(ctx context.Context, job *Job) error {
	if job.Request == nil {
		return nil
	}

	err := job.Session.Watch(ctx)
	job.Summary = job.Session.Summary(err)

	s.logger.Debug("crawl stream ended",
		"request_id", job.RequestID(),
		"status", job.Summary.Status().String(),
		"results", len(job.Summary.Results),
	)
	return err
}

// Store saves crawl summaries. *database.HistoryDB satisfies it.
type Store interface {
	SaveSummary(ctx context.Context, summary *model.CrawlSummary) error
}

// PersistStep saves the job's summary to local history.
// It does nothing without a store.
type PersistStep struct {
	store  Store
	logger *slog.Logger
}

// NewPersistStep creates a new persist step. store may be nil.
func NewPersistStep(store Store, logger *slog.Logger) *PersistStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &PersistStep{store: store, logger: logger}
}

// Name returns the step name.
func (s *PersistStep) Name() string {
	return "persist"
}

// Do executes the persist step.
func (s *PersistStep) Do(ctx context.Context, job *Job) error {
	if s.store == nil {
		s.logger.Debug("history disabled, not saving", "request_id", job.RequestID())
		return nil
	}

	summary := job.FinalSummary()
	if summary.RequestID() == "" {
		s.logger.Debug("nothing to save, request was never created", "url", job.URL)
		return nil
	}
	job.Summary = summary

	return s.store.SaveSummary(ctx, summary)
}

// DefaultPipeline builds the submit, watch and persist pipeline used by
// the crawl command. With detach the watch step is left out.
func DefaultPipeline(store Store, detach bool, logger *slog.Logger, pipelineOpts ...Option) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	opts := append([]Option{WithLogger(logger), WithContinueOnError(true)}, pipelineOpts...)
	p := New(opts...)

	p.AddStep(NewSubmitStep(WithSubmitDetach(detach), WithSubmitLogger(logger)))
	if !detach {
		p.AddStep(NewWatchStep(logger))
	}
	p.AddStep(NewPersistStep(store, logger))
	return p
}
