package report

import (
	"io"
	"slices"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/nao1215/crawlctl/internal/model"
)

// Writer defines the interface for report output.
// Implementations render crawl summaries and request listings in one format.
type Writer interface {
	// WriteSummary outputs the final view of one watched crawl.
	WriteSummary(summary *model.CrawlSummary) error

	// WriteRequests outputs a list of crawl requests, such as one page of
	// the activity log or the local history.
	WriteRequests(requests []model.CrawlRequest) error
}

// MultiWriter writes to multiple Writers, for example the terminal and a
// report file.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// WriteSummary writes the summary to every Writer, stopping on the first error.
func (m *MultiWriter) WriteSummary(summary *model.CrawlSummary) error {
	for _, w := range m.writers {
		if err := w.WriteSummary(summary); err != nil {
			return err
		}
	}
	return nil
}

// WriteRequests writes the list to every Writer, stopping on the first error.
func (m *MultiWriter) WriteRequests(requests []model.CrawlRequest) error {
	for _, w := range m.writers {
		if err := w.WriteRequests(requests); err != nil {
			return err
		}
	}
	return nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

var titleCaser = cases.Title(language.English)

// StatusLabel returns the display label of a status, e.g. "Running".
func StatusLabel(s model.Status) string {
	return titleCaser.String(s.String())
}

// StatusCounts counts requests per status. Unknown statuses are counted
// under their own value.
func StatusCounts(requests []model.CrawlRequest) map[model.Status]int {
	counts := make(map[model.Status]int)
	for _, r := range requests {
		counts[r.Status]++
	}
	return counts
}

// orderedStatuses returns the statuses present in counts, known statuses
// first in lifecycle order.
func orderedStatuses(counts map[model.Status]int) []model.Status {
	ordered := make([]model.Status, 0, len(counts))
	for _, s := range model.AllStatuses {
		if counts[s] > 0 {
			ordered = append(ordered, s)
		}
	}
	extra := make([]model.Status, 0)
	for s := range counts {
		if !s.IsKnown() {
			extra = append(extra, s)
		}
	}
	slices.Sort(extra)
	return append(ordered, extra...)
}

const timeLayout = "2006-01-02 15:04:05 MST"

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(timeLayout)
}

// formatElapsed rounds to the tenth of a second, e.g. "12.3s".
func formatElapsed(d time.Duration) string {
	return d.Round(100 * time.Millisecond).String()
}

// truncateString truncates a string to maxLen characters with ellipsis.
func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
