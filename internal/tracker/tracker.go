package tracker

import (
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/nao1215/crawlctl/internal/model"
)

// Tracker folds crawl events into the view of one crawl request.
//
// State events replace the stored request snapshot wholesale. Result events
// are appended in arrival order unless a result with the same UUID was
// already seen, in which case they are dropped. The result list therefore
// never holds two entries with the same UUID and only grows until Reset.
//
// A Tracker is safe for concurrent use. Events must still be applied from a
// single goroutine to keep arrival order meaningful.
type Tracker struct {
	mu sync.Mutex

	request  *model.CrawlRequest
	results  []model.CrawlResult
	seen     map[string]struct{}
	expanded bool

	cancelledLocally bool

	logger *slog.Logger
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithLogger sets the logger used for debug output of applied events.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Tracker) {
		t.logger = logger
	}
}

// New creates an empty, expanded Tracker.
func New(opts ...Option) *Tracker {
	t := &Tracker{
		results:  make([]model.CrawlResult, 0),
		seen:     make(map[string]struct{}),
		expanded: true,
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.logger == nil {
		t.logger = slog.Default()
	}
	return t
}

// Apply merges one event into the view.
// It reports whether the view changed.
func (t *Tracker) Apply(ev model.CrawlEvent) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch ev.Type {
	case model.EventTypeState:
		if ev.State == nil {
			return false
		}
		snapshot := *ev.State
		t.request = &snapshot
		t.logger.Debug("state event applied",
			"request", snapshot.UUID,
			"status", snapshot.Status,
			"documents", snapshot.NumberOfDocuments,
		)
		return true

	case model.EventTypeResult:
		if ev.Result == nil {
			return false
		}
		if _, dup := t.seen[ev.Result.UUID]; dup {
			t.logger.Debug("duplicate result ignored", "result", ev.Result.UUID)
			return false
		}
		t.seen[ev.Result.UUID] = struct{}{}
		t.results = append(t.results, *ev.Result)
		t.logger.Debug("result event applied",
			"result", ev.Result.UUID,
			"url", ev.Result.URL,
			"count", len(t.results),
		)
		return true

	default:
		t.logger.Debug("unknown event type ignored", "type", ev.Type)
		return false
	}
}

// Handle is Apply without the return value, usable as a stream callback.
func (t *Tracker) Handle(ev model.CrawlEvent) {
	t.Apply(ev)
}

// Reset clears the view for a new submission. The view is expanded again.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.request = nil
	t.results = make([]model.CrawlResult, 0)
	t.seen = make(map[string]struct{})
	t.expanded = true
	t.cancelledLocally = false
}

// SetRequest stores the request returned by the create call, before any
// state event arrives.
func (t *Tracker) SetRequest(req model.CrawlRequest) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.request = &req
}

// MarkCancelled sets the stored request's status to cancelled without
// waiting for the server to confirm. It reports false and changes nothing
// when no request is known yet.
//
// A later state event still replaces the snapshot, so the server may move
// the status back to canceling or on to another terminal state.
func (t *Tracker) MarkCancelled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.request == nil {
		return false
	}
	t.request.Status = model.StatusCancelled
	t.cancelledLocally = true
	return true
}

// ToggleExpanded flips the expanded flag and returns the new value.
func (t *Tracker) ToggleExpanded() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.expanded = !t.expanded
	return t.expanded
}

// RequestID returns the identifier of the tracked request, or "".
func (t *Tracker) RequestID() string {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.request == nil {
		return ""
	}
	return t.request.UUID
}

// Snapshot returns a copy of the current view.
func (t *Tracker) Snapshot() State {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := State{
		Results:  slices.Clone(t.results),
		Expanded: t.expanded,
	}
	if t.request != nil {
		req := *t.request
		s.Request = &req
	}
	return s
}

// Summary returns the view as a CrawlSummary.
func (t *Tracker) Summary(elapsed time.Duration, err error) *model.CrawlSummary {
	snap := t.Snapshot()

	t.mu.Lock()
	cancelled := t.cancelledLocally
	t.mu.Unlock()

	summary := &model.CrawlSummary{
		Request:          snap.Request,
		Results:          snap.Results,
		Elapsed:          elapsed,
		CancelledLocally: cancelled,
	}
	if err != nil {
		summary.Error = err.Error()
	}
	return summary
}

// State is an immutable copy of a Tracker's view.
type State struct {
	// Request is nil until the create call returns or the first state event arrives.
	Request *model.CrawlRequest

	// Results are unique by UUID, in order of first arrival.
	Results []model.CrawlResult

	// Expanded mirrors the collapse toggle of the results view.
	Expanded bool
}

// Done reports whether the tracked request reached a terminal status.
func (s State) Done() bool {
	return s.Request != nil && s.Request.Status.IsTerminal()
}
