package tracker

import (
	"fmt"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/nao1215/crawlctl/internal/model"
)

func resultEvent(id string) model.CrawlEvent {
	return model.NewResultEvent(model.CrawlResult{
		UUID: id,
		URL:  "https://example.com/" + id,
	})
}

func stateEvent(id string, status model.Status, docs int) model.CrawlEvent {
	return model.NewStateEvent(model.CrawlRequest{
		UUID:              id,
		URL:               "https://example.com",
		Status:            status,
		NumberOfDocuments: docs,
	})
}

func resultIDs(results []model.CrawlResult) []string {
	ids := make([]string, len(results))
	for i, r := range results {
		ids[i] = r.UUID
	}
	return ids
}

// TestTrackerDeduplicatesResults tests that results are unique and keep first-arrival order.
func TestTrackerDeduplicatesResults(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		events   []string
		expected []string
	}{
		{"a a b", []string{"a", "a", "b"}, []string{"a", "b"}},
		{"no duplicates", []string{"a", "b", "c"}, []string{"a", "b", "c"}},
		{"late duplicate", []string{"a", "b", "c", "a", "b"}, []string{"a", "b", "c"}},
		{"all same", []string{"x", "x", "x", "x"}, []string{"x"}},
		{"interleaved", []string{"c", "a", "c", "b", "a"}, []string{"c", "a", "b"}},
		{"empty", nil, []string{}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			tr := New()
			for _, id := range tc.events {
				tr.Apply(resultEvent(id))
			}

			got := resultIDs(tr.Snapshot().Results)
			if fmt.Sprint(got) != fmt.Sprint(tc.expected) {
				t.Errorf("results = %v, expected %v", got, tc.expected)
			}
		})
	}
}

// TestTrackerLastStateWins tests that the stored request equals the last state payload.
func TestTrackerLastStateWins(t *testing.T) {
	t.Parallel()

	tr := New()
	tr.Apply(stateEvent("r1", model.StatusNew, 0))
	tr.Apply(stateEvent("r1", model.StatusRunning, 4))
	last := stateEvent("r1", model.StatusFinished, 2)
	tr.Apply(last)

	snap := tr.Snapshot()
	if snap.Request == nil {
		t.Fatal("expected request")
	}
	if !reflect.DeepEqual(*snap.Request, *last.State) {
		t.Errorf("request = %+v, expected %+v", *snap.Request, *last.State)
	}
	if !snap.Done() {
		t.Error("expected finished request to be done")
	}
}

// TestTrackerApplyReportsChange tests the return value of Apply.
func TestTrackerApplyReportsChange(t *testing.T) {
	t.Parallel()

	tr := New()
	if !tr.Apply(resultEvent("a")) {
		t.Error("expected first result to change the view")
	}
	if tr.Apply(resultEvent("a")) {
		t.Error("expected duplicate result to leave the view unchanged")
	}
	if tr.Apply(model.CrawlEvent{Type: "heartbeat"}) {
		t.Error("expected unknown event to leave the view unchanged")
	}
	if tr.Apply(model.CrawlEvent{Type: model.EventTypeState}) {
		t.Error("expected state event without payload to be ignored")
	}
}

// TestTrackerMarkCancelled tests optimistic cancellation.
func TestTrackerMarkCancelled(t *testing.T) {
	t.Parallel()

	t.Run("no request is a no-op", func(t *testing.T) {
		t.Parallel()

		tr := New()
		if tr.MarkCancelled() {
			t.Error("expected MarkCancelled to report false without a request")
		}
		if tr.Snapshot().Request != nil {
			t.Error("expected no request")
		}
	})

	t.Run("sets cancelled status", func(t *testing.T) {
		t.Parallel()

		tr := New()
		tr.Apply(stateEvent("r1", model.StatusRunning, 1))
		if !tr.MarkCancelled() {
			t.Fatal("expected MarkCancelled to succeed")
		}
		if got := tr.Snapshot().Request.Status; got != model.StatusCancelled {
			t.Errorf("status = %q, expected cancelled", got)
		}
		if !tr.Summary(0, nil).CancelledLocally {
			t.Error("expected summary to record local cancellation")
		}
	})

	t.Run("later state event overrides", func(t *testing.T) {
		t.Parallel()

		tr := New()
		tr.Apply(stateEvent("r1", model.StatusRunning, 1))
		tr.MarkCancelled()
		tr.Apply(stateEvent("r1", model.StatusCanceling, 1))
		if got := tr.Snapshot().Request.Status; got != model.StatusCanceling {
			t.Errorf("status = %q, expected canceling", got)
		}
	})
}

// TestTrackerReset tests that Reset clears the view and the seen set.
func TestTrackerReset(t *testing.T) {
	t.Parallel()

	tr := New()
	tr.Apply(stateEvent("r1", model.StatusRunning, 1))
	tr.Apply(resultEvent("a"))
	tr.ToggleExpanded()
	tr.Reset()

	snap := tr.Snapshot()
	if snap.Request != nil || len(snap.Results) != 0 || !snap.Expanded {
		t.Errorf("unexpected state after reset: %+v", snap)
	}

	// A result seen before the reset is accepted again.
	if !tr.Apply(resultEvent("a")) {
		t.Error("expected result to be accepted after reset")
	}
}

// TestTrackerSnapshotIsCopy tests that snapshots do not alias tracker state.
func TestTrackerSnapshotIsCopy(t *testing.T) {
	t.Parallel()

	tr := New()
	tr.Apply(stateEvent("r1", model.StatusRunning, 1))
	tr.Apply(resultEvent("a"))

	snap := tr.Snapshot()
	snap.Request.Status = model.StatusFailed
	snap.Results[0].UUID = "mutated"

	again := tr.Snapshot()
	if again.Request.Status != model.StatusRunning {
		t.Error("snapshot request aliases tracker state")
	}
	if again.Results[0].UUID != "a" {
		t.Error("snapshot results alias tracker state")
	}
}

// TestTrackerToggleExpanded tests the collapse toggle.
func TestTrackerToggleExpanded(t *testing.T) {
	t.Parallel()

	tr := New()
	if tr.ToggleExpanded() {
		t.Error("expected first toggle to collapse")
	}
	if !tr.ToggleExpanded() {
		t.Error("expected second toggle to expand")
	}
}

// TestTrackerSummary tests summary construction.
func TestTrackerSummary(t *testing.T) {
	t.Parallel()

	tr := New()
	tr.SetRequest(model.CrawlRequest{UUID: "r1", Status: model.StatusNew})
	tr.Apply(resultEvent("a"))

	s := tr.Summary(3*time.Second, fmt.Errorf("stream closed"))
	if s.RequestID() != "r1" {
		t.Errorf("RequestID() = %q", s.RequestID())
	}
	if len(s.Results) != 1 {
		t.Errorf("expected 1 result, got %d", len(s.Results))
	}
	if s.Elapsed != 3*time.Second {
		t.Errorf("Elapsed = %v", s.Elapsed)
	}
	if s.Error != "stream closed" {
		t.Errorf("Error = %q", s.Error)
	}
	if tr.RequestID() != "r1" {
		t.Errorf("tracker RequestID() = %q", tr.RequestID())
	}
}

// TestTrackerConcurrentReaders tests snapshots taken while events are applied.
func TestTrackerConcurrentReaders(t *testing.T) {
	t.Parallel()

	tr := New()
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := range 200 {
			tr.Apply(resultEvent(fmt.Sprintf("r%d", i%50)))
		}
	}()

	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				_ = tr.Snapshot()
			}
		}()
	}
	wg.Wait()

	if got := len(tr.Snapshot().Results); got != 50 {
		t.Errorf("expected 50 unique results, got %d", got)
	}
}
