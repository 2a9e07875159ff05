package playground

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nao1215/crawlctl/internal/api"
	"github.com/nao1215/crawlctl/internal/model"
	"github.com/nao1215/crawlctl/internal/schema"
	"github.com/nao1215/crawlctl/internal/tracker"
)

// Client is the part of the API client a Session uses.
// *api.Client satisfies it.
type Client interface {
	CreateCrawlRequest(ctx context.Context, req *model.CrawlRequest) (*model.CrawlRequest, error)
	SubscribeToStatus(ctx context.Context, id string, onEvent api.EventHandler, onEnd func()) error
	CancelCrawl(ctx context.Context, id string) error
}

// Session runs one crawl at a time: it submits the request, feeds the
// status stream into a Tracker and cancels on demand.
//
// A Session is safe for concurrent use. Cancel is meant to be called from
// another goroutine while Submit or Watch is blocked on the stream.
type Session struct {
	client  Client
	tracker *tracker.Tracker
	schema  schema.Node
	logger  *slog.Logger

	// observer sees every event that changed the tracked view.
	observer api.EventHandler

	mu        sync.Mutex
	busy      bool
	startedAt time.Time

	// activeID is the request Watch and Cancel act on. It is set from the
	// create response or by Attach and never from stream events.
	activeID string
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithTracker makes the session feed t instead of a tracker of its own.
func WithTracker(t *tracker.Tracker) SessionOption {
	return func(s *Session) {
		if t != nil {
			s.tracker = t
		}
	}
}

// WithPluginSchema types plugin values through root on submission.
func WithPluginSchema(root schema.Node) SessionOption {
	return func(s *Session) {
		s.schema = root
	}
}

// WithObserver calls fn after each event that changed the tracked view,
// so duplicate results and unknown events are not reported.
func WithObserver(fn api.EventHandler) SessionOption {
	return func(s *Session) {
		s.observer = fn
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) SessionOption {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewSession creates a Session using client.
func NewSession(client Client, opts ...SessionOption) *Session {
	s := &Session{
		client: client,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.tracker == nil {
		s.tracker = tracker.New(tracker.WithLogger(s.logger))
	}
	return s
}

// Tracker returns the tracker the session feeds.
func (s *Session) Tracker() *tracker.Tracker {
	return s.tracker
}

// Busy reports whether a submission is in progress.
func (s *Session) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy
}

// Elapsed returns the time since the current or last submission started.
func (s *Session) Elapsed() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.startedAt.IsZero() {
		return 0
	}
	return time.Since(s.startedAt)
}

// Summary returns the tracked view with the elapsed time.
func (s *Session) Summary(err error) *model.CrawlSummary {
	return s.tracker.Summary(s.Elapsed(), err)
}

// acquire marks the session busy. It fails with ErrBusy when it already is.
func (s *Session) acquire() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.busy {
		return ErrBusy
	}
	s.busy = true
	s.startedAt = time.Now()
	return nil
}

// setActive records the request the session follows.
func (s *Session) setActive(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activeID = id
}

// ActiveID returns the identifier of the submitted or attached request,
// or "".
func (s *Session) ActiveID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeID
}

// Release clears the busy flag without watching the stream, for
// submissions that are not followed.
func (s *Session) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.busy = false
}

// Submit builds the request from form, creates it and watches its status
// stream until the stream ends. It returns the stream's error, if any.
func (s *Session) Submit(ctx context.Context, form *Form, url string) error {
	if _, err := s.Start(ctx, form, url); err != nil {
		return err
	}
	return s.Watch(ctx)
}

// Start builds and creates the request without watching it. The session
// stays busy until Watch ends or Release is called.
//
// On a failed create call, or a created request without an identifier, the
// error wraps ErrSubmitFailed and the session can be submitted again.
func (s *Session) Start(ctx context.Context, form *Form, url string) (*model.CrawlRequest, error) {
	if form == nil {
		form = NewForm()
	}
	req, err := form.BuildWithSchema(url, s.schema)
	if err != nil {
		return nil, err
	}

	if err := s.acquire(); err != nil {
		return nil, err
	}
	s.tracker.Reset()
	s.setActive("")

	created, err := s.client.CreateCrawlRequest(ctx, req)
	if err != nil {
		s.Release()
		return nil, fmt.Errorf("%w: %w", ErrSubmitFailed, err)
	}
	if created == nil || created.UUID == "" {
		s.Release()
		return nil, fmt.Errorf("%w: %w", ErrSubmitFailed, ErrMissingRequestID)
	}

	s.setActive(created.UUID)
	s.tracker.SetRequest(*created)
	s.logger.Info("crawl submitted", "request_id", created.UUID, "url", created.URL)
	return created, nil
}

// Attach starts following an existing request instead of submitting a
// new one. Call Watch afterwards.
func (s *Session) Attach(id string) error {
	if id == "" {
		return ErrNoActiveRequest
	}
	if err := s.acquire(); err != nil {
		return err
	}
	s.setActive(id)
	s.tracker.Reset()
	s.tracker.SetRequest(model.CrawlRequest{UUID: id})
	return nil
}

// Watch subscribes to the status stream of the active request and
// applies every event to the tracker. It blocks until the stream ends and
// clears the busy flag when it does.
func (s *Session) Watch(ctx context.Context) error {
	id := s.ActiveID()
	if id == "" {
		s.Release()
		return ErrNoActiveRequest
	}

	onEvent := s.tracker.Handle
	if s.observer != nil {
		onEvent = func(ev model.CrawlEvent) {
			if s.tracker.Apply(ev) {
				s.observer(ev)
			}
		}
	}

	err := s.client.SubscribeToStatus(ctx, id, onEvent, s.Release)
	if err != nil {
		// Rejected ids never reach onEnd. Every other failure already
		// released the session there.
		if errors.Is(err, api.ErrEmptyRequestID) || errors.Is(err, api.ErrInvalidRequestID) {
			s.Release()
		}
		return fmt.Errorf("watch crawl %s: %w", id, err)
	}
	return nil
}

// Cancel asks the server to stop the active crawl and marks it cancelled
// locally right away. Without an active request it does nothing.
//
// The local status is set even when the cancel call fails; the error is
// returned so the caller can report it. The status stream is left open
// and delivers the server's own view of the cancellation.
func (s *Session) Cancel(ctx context.Context) error {
	id := s.ActiveID()
	if id == "" {
		return nil
	}

	err := s.client.CancelCrawl(ctx, id)
	s.tracker.MarkCancelled()
	if err != nil {
		s.logger.Warn("cancel request failed", "request_id", id, "error", err)
		return err
	}
	s.logger.Info("crawl cancel requested", "request_id", id)
	return nil
}
