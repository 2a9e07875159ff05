package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestNewBatchProcessor(t *testing.T) {
	t.Parallel()

	bp := NewBatchProcessor(func() *Pipeline { return New() }, func(url string) *Job { return NewJob(url, nil, nil) })
	if bp.concurrency != DefaultConcurrency {
		t.Errorf("expected default concurrency %d, got %d", DefaultConcurrency, bp.concurrency)
	}

	bp = NewBatchProcessor(nil, nil, WithConcurrency(2), WithConcurrency(0))
	if bp.concurrency != 2 {
		t.Errorf("expected concurrency 2, got %d", bp.concurrency)
	}
}

func TestProcessBatch(t *testing.T) {
	t.Parallel()

	t.Run("jobs are returned in input order with their errors", func(t *testing.T) {
		t.Parallel()

		urls := []string{"https://a.example", "https://b.example", "https://c.example"}
		client := &fakeAPI{
			events: finishedEvents(),
			nextID: func(url string) string {
				return "00000000-0000-4000-8000-00000000000" + string(url[8])
			},
		}
		failFor := "https://b.example"

		pipelineFactory := func() *Pipeline {
			p := DefaultPipeline(nil, false, quietLogger())
			p.AddStep(&mockStep{name: "check", doFunc: func(_ context.Context, job *Job) error {
				if job.URL == failFor {
					return errors.New("rejected")
				}
				return nil
			}})
			return p
		}
		jobFactory := func(url string) *Job { return newJob(client, url) }

		bp := NewBatchProcessor(pipelineFactory, jobFactory, WithConcurrency(2), WithBatchLogger(quietLogger()))
		jobs, err := bp.ProcessBatch(context.Background(), urls)
		if err != nil {
			t.Fatalf("ProcessBatch() error = %v", err)
		}

		for i, job := range jobs {
			if job.URL != urls[i] {
				t.Errorf("job %d has url %s", i, job.URL)
			}
			if !strings.HasSuffix(job.RequestID(), string(urls[i][8])) {
				t.Errorf("job %d has request id %s", i, job.RequestID())
			}
		}
		if jobs[0].Failed() || !jobs[1].Failed() || jobs[2].Failed() {
			t.Errorf("unexpected failures: %v %v %v", jobs[0].Err, jobs[1].Err, jobs[2].Err)
		}
	})

	t.Run("concurrency limit is respected", func(t *testing.T) {
		t.Parallel()

		var running, peak atomic.Int32
		slow := func() *Pipeline {
			p := New(WithLogger(quietLogger()))
			p.AddStep(&mockStep{name: "slow", doFunc: func(context.Context, *Job) error {
				n := running.Add(1)
				for {
					old := peak.Load()
					if n <= old || peak.CompareAndSwap(old, n) {
						break
					}
				}
				time.Sleep(20 * time.Millisecond)
				running.Add(-1)
				return nil
			}})
			return p
		}

		urls := make([]string, 8)
		for i := range urls {
			urls[i] = "https://example.com"
		}

		bp := NewBatchProcessor(slow, func(url string) *Job { return NewJob(url, nil, nil) },
			WithConcurrency(3), WithBatchLogger(quietLogger()))

		var mu sync.Mutex
		seen := make(map[int]bool)
		err := bp.ProcessBatchWithCallback(context.Background(), urls, func(_ *Job, index int) {
			mu.Lock()
			seen[index] = true
			mu.Unlock()
		})
		if err != nil {
			t.Fatalf("ProcessBatchWithCallback() error = %v", err)
		}
		if len(seen) != len(urls) {
			t.Errorf("expected %d callbacks, got %d", len(urls), len(seen))
		}
		if peak.Load() > 3 {
			t.Errorf("peak concurrency %d exceeds limit 3", peak.Load())
		}
	})

	t.Run("cancelled context is reported", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		bp := NewBatchProcessor(func() *Pipeline { return New(WithLogger(quietLogger())) },
			func(url string) *Job { return NewJob(url, nil, nil) },
			WithBatchLogger(quietLogger()))

		_, err := bp.ProcessBatch(ctx, []string{"https://example.com"})
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})
}
