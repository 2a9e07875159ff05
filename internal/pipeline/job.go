package pipeline

import (
	"time"

	"github.com/nao1215/crawlctl/internal/model"
	"github.com/nao1215/crawlctl/internal/playground"
)

// Job is one crawl going through the pipeline.
type Job struct {
	// URL is the seed URL.
	URL string

	// Form holds the crawl options.
	Form *playground.Form

	// Session submits and follows the crawl. Each job has its own.
	Session *playground.Session

	// Request is the created request, set by SubmitStep.
	Request *model.CrawlRequest

	// Summary is the final view, set by WatchStep or PersistStep.
	Summary *model.CrawlSummary

	// Err is the first error of any step.
	Err error

	// Aborted is set when ctx was cancelled between steps.
	Aborted bool

	// PerformedSteps lists the steps that ran, in order. A step that
	// failed is listed too.
	PerformedSteps []string

	// StepDurations holds how long each performed step took.
	StepDurations map[string]time.Duration
}

// NewJob creates a job for url.
func NewJob(url string, form *playground.Form, session *playground.Session) *Job {
	if form == nil {
		form = playground.NewForm()
	}
	return &Job{
		URL:            url,
		Form:           form,
		Session:        session,
		PerformedSteps: make([]string, 0),
		StepDurations:  make(map[string]time.Duration),
	}
}

// RequestID returns the created request's identifier, or "".
func (j *Job) RequestID() string {
	if j.Request == nil {
		return ""
	}
	return j.Request.UUID
}

// Failed reports whether any step failed.
func (j *Job) Failed() bool {
	return j.Err != nil
}

func (j *Job) recordError(err error) {
	if j.Err == nil {
		j.Err = err
	}
}

// FinalSummary returns the job's summary, building one from the session
// when no step set it.
func (j *Job) FinalSummary() *model.CrawlSummary {
	if j.Summary != nil {
		return j.Summary
	}
	if j.Session == nil {
		s := &model.CrawlSummary{Request: j.Request}
		if j.Err != nil {
			s.Error = j.Err.Error()
		}
		return s
	}
	return j.Session.Summary(j.Err)
}
