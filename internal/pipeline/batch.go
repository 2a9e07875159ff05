package pipeline

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency is the number of crawls followed at once when
// WithConcurrency is not given.
const DefaultConcurrency = 4

// BatchProcessor runs one pipeline per URL, a bounded number at a time.
type BatchProcessor struct {
	// pipelineFactory creates a fresh pipeline for each job.
	pipelineFactory func() *Pipeline

	// jobFactory creates the job, with its own session, for a URL.
	jobFactory func(url string) *Job

	concurrency int

	logger *slog.Logger
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of concurrent crawls.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBatchProcessor creates a new BatchProcessor.
func NewBatchProcessor(pipelineFactory func() *Pipeline, jobFactory func(url string) *Job, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		pipelineFactory: pipelineFactory,
		jobFactory:      jobFactory,
		concurrency:     DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(bp)
	}
	if bp.logger == nil {
		bp.logger = slog.Default()
	}
	return bp
}

// ProcessBatch runs every URL and returns the jobs in input order.
// A failing crawl does not stop the others; its error is on its job.
// The returned error is only set when ctx was cancelled.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, urls []string) ([]*Job, error) {
	jobs := make([]*Job, len(urls))
	err := bp.ProcessBatchWithCallback(ctx, urls, func(job *Job, index int) {
		jobs[index] = job
	})
	return jobs, err
}

// ProcessBatchWithCallback runs every URL and calls callback as each job
// finishes. The callback runs on the job's goroutine, so it must be safe
// for concurrent use.
func (bp *BatchProcessor) ProcessBatchWithCallback(
	ctx context.Context,
	urls []string,
	callback func(job *Job, index int),
) error {
	bp.logger.Info("starting batch",
		"total_urls", len(urls),
		"concurrency", bp.concurrency,
	)
	startTime := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, url := range urls {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}

			bp.logger.Debug("starting crawl",
				"url", url,
				"index", i+1,
				"total", len(urls),
			)

			job := bp.jobFactory(url)
			_ = bp.pipelineFactory().Execute(gctx, job) //nolint:errcheck // error is stored on the job

			if job.Failed() {
				bp.logger.Warn("crawl failed", "url", url, "error", job.Err)
			}
			callback(job, i)
			return nil
		})
	}

	err := g.Wait()
	bp.logger.Info("batch complete",
		"total_urls", len(urls),
		"elapsed", time.Since(startTime),
	)
	return err
}
