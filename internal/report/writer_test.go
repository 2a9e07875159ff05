package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/crawlctl/internal/model"
)

func createTestSummary() *model.CrawlSummary {
	return &model.CrawlSummary{
		Request: &model.CrawlRequest{
			UUID:              "0b7e5c1a-3f52-4d7e-9a8b-2c4f6e1d9a01",
			URL:               "https://example.com",
			Status:            model.StatusFinished,
			NumberOfDocuments: 2,
			CreatedAt:         time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC),
		},
		Results: []model.CrawlResult{
			{UUID: "r1", Title: "Home", URL: "https://example.com/", Result: "https://storage.example.net/r1.json"},
			{UUID: "r2", Title: "", URL: "https://docs.example.org/start", Result: "https://storage.example.net/r2.json"},
		},
		Elapsed: 12340 * time.Millisecond,
	}
}

func createTestRequests() []model.CrawlRequest {
	return []model.CrawlRequest{
		{UUID: "a", URL: "https://a.example", Status: model.StatusFinished},
		{UUID: "b", URL: "https://b.example", Status: model.StatusRunning},
		{UUID: "c", URL: "https://c.example", Status: model.StatusFinished},
		{UUID: "d", URL: "https://d.example", Status: "paused"},
	}
}

func TestStatusLabel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status model.Status
		want   string
	}{
		{model.StatusRunning, "Running"},
		{model.StatusCancelled, "Cancelled"},
		{"", "Unknown"},
		{"paused", "Paused"},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			t.Parallel()
			if got := StatusLabel(tt.status); got != tt.want {
				t.Errorf("StatusLabel(%q) = %q, want %q", tt.status, got, tt.want)
			}
		})
	}
}

func TestOrderedStatuses(t *testing.T) {
	t.Parallel()

	counts := StatusCounts(createTestRequests())
	got := orderedStatuses(counts)
	want := []model.Status{model.StatusRunning, model.StatusFinished, "paused"}
	if len(got) != len(want) {
		t.Fatalf("orderedStatuses() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("orderedStatuses()[%d] = %s, want %s", i, got[i], want[i])
		}
	}
	if counts[model.StatusFinished] != 2 {
		t.Errorf("finished count = %d, want 2", counts[model.StatusFinished])
	}
}

func TestSimpleWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes summary", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if err := NewSimpleWriter(&buf).WriteSummary(createTestSummary()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		for _, want := range []string{"CRAWL SUMMARY", "Finished", "RESULTS (2)", "(untitled)", "12.3s", "Hosts: example.com, docs.example.org"} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q\n%s", want, output)
			}
		}
		if strings.Contains(output, "Result: ") {
			t.Error("result URLs should only be shown in verbose mode")
		}
	})

	t.Run("verbose shows result urls", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if err := NewSimpleWriter(&buf, WithVerbose(true)).WriteSummary(createTestSummary()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "Result: https://storage.example.net/r1.json") {
			t.Error("expected result url in verbose output")
		}
	})

	t.Run("summary without request", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		s := &model.CrawlSummary{Error: "submit failed"}
		if err := NewSimpleWriter(&buf).WriteSummary(s); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "not created") || !strings.Contains(buf.String(), "submit failed") {
			t.Errorf("unexpected output:\n%s", buf.String())
		}
	})

	t.Run("locally cancelled", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		s := createTestSummary()
		s.Request.Status = model.StatusCancelled
		s.CancelledLocally = true
		if err := NewSimpleWriter(&buf).WriteSummary(s); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "Cancelled (cancelled from this client)") {
			t.Errorf("unexpected output:\n%s", buf.String())
		}
	})

	t.Run("writes requests", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if err := NewSimpleWriter(&buf).WriteRequests(createTestRequests()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		output := buf.String()
		if !strings.Contains(output, "4 requests (Running: 1, Finished: 2, Paused: 1)") {
			t.Errorf("unexpected totals line:\n%s", output)
		}
	})

	t.Run("empty request list", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if err := NewSimpleWriter(&buf).WriteRequests(nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if buf.String() != "No crawl requests\n" {
			t.Errorf("got %q", buf.String())
		}
	})
}

func TestJSONWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes summary", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if err := NewJSONWriter(&buf).WriteSummary(createTestSummary()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var got struct {
			Request   model.CrawlRequest  `json:"request"`
			Results   []model.CrawlResult `json:"results"`
			ElapsedMS int64               `json:"elapsed_ms"`
			Hosts     []string            `json:"hosts"`
		}
		if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if got.Request.Status != model.StatusFinished || len(got.Results) != 2 {
			t.Errorf("decoded = %+v", got)
		}
		if got.ElapsedMS != 12340 {
			t.Errorf("elapsed_ms = %d, want 12340", got.ElapsedMS)
		}
		if len(got.Hosts) != 2 {
			t.Errorf("hosts = %v", got.Hosts)
		}
	})

	t.Run("empty results encode as array", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if err := NewJSONWriter(&buf).WriteSummary(&model.CrawlSummary{}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), `"results":[]`) {
			t.Errorf("got %s", buf.String())
		}
	})

	t.Run("pretty print", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if err := NewJSONWriter(&buf, WithPrettyPrint()).WriteRequests(createTestRequests()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "\n  {") {
			t.Errorf("expected indented output, got %s", buf.String())
		}
		if !strings.HasSuffix(buf.String(), "\n") {
			t.Error("expected trailing newline")
		}
	})

	t.Run("nil requests encode as empty array", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if err := NewJSONWriter(&buf).WriteRequests(nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if buf.String() != "[]\n" {
			t.Errorf("got %q", buf.String())
		}
	})
}

func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes summary", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if err := NewMarkdownWriter(&buf).WriteSummary(createTestSummary()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		output := buf.String()
		for _, want := range []string{"# Crawl Summary", "## Results", "[json](https://storage.example.net/r1.json)", "Finished"} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q", want)
			}
		}
	})

	t.Run("writes requests with pie chart", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if err := NewMarkdownWriter(&buf).WriteRequests(createTestRequests()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		output := buf.String()
		for _, want := range []string{"```mermaid", "Request Status Distribution", `"Finished"`, `"Paused"`} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q\n%s", want, output)
			}
		}
	})

	t.Run("empty request list has no chart", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if err := NewMarkdownWriter(&buf).WriteRequests(nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if strings.Contains(buf.String(), "mermaid") {
			t.Error("unexpected chart for empty list")
		}
	})
}

type failingWriter struct{}

func (failingWriter) WriteSummary(*model.CrawlSummary) error   { return errors.New("boom") }
func (failingWriter) WriteRequests([]model.CrawlRequest) error { return errors.New("boom") }

func TestMultiWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes to all", func(t *testing.T) {
		t.Parallel()

		var text, js bytes.Buffer
		m := NewMultiWriter(NewSimpleWriter(&text), NewJSONWriter(&js))
		if err := m.WriteSummary(createTestSummary()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if text.Len() == 0 || js.Len() == 0 {
			t.Error("expected both writers to receive output")
		}
	})

	t.Run("stops on first error", func(t *testing.T) {
		t.Parallel()

		var after bytes.Buffer
		m := NewMultiWriter(failingWriter{}, NewSimpleWriter(&after))
		if err := m.WriteRequests(createTestRequests()); err == nil {
			t.Error("expected error")
		}
		if after.Len() != 0 {
			t.Error("writer after the failing one should not run")
		}
	})
}

func TestTruncateString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"this is too long", 10, "this is..."},
		{"abcdef", 2, "ab"},
	}
	for _, tt := range tests {
		if got := truncateString(tt.in, tt.max); got != tt.want {
			t.Errorf("truncateString(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
}
