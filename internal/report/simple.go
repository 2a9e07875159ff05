package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/crawlctl/internal/model"
)

// SimpleWriter outputs human-readable text for terminal display.
type SimpleWriter struct {
	baseWriter

	// verbose adds result payload URLs and request options.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// WriteSummary outputs the summary of one crawl.
func (w *SimpleWriter) WriteSummary(summary *model.CrawlSummary) error {
	var sb strings.Builder

	w.writeRule(&sb, "=")
	sb.WriteString("CRAWL SUMMARY\n")
	w.writeRule(&sb, "=")
	sb.WriteString("\n")

	if req := summary.Request; req != nil {
		fmt.Fprintf(&sb, "Request:    %s\n", req.UUID)
		fmt.Fprintf(&sb, "URL:        %s\n", req.URL)
		fmt.Fprintf(&sb, "Status:     %s\n", w.statusText(summary))
		fmt.Fprintf(&sb, "Documents:  %d\n", req.NumberOfDocuments)
		fmt.Fprintf(&sb, "Created:    %s\n", formatTime(req.CreatedAt))
	} else {
		sb.WriteString("Request:    not created\n")
	}
	fmt.Fprintf(&sb, "Elapsed:    %s\n", formatElapsed(summary.Elapsed))
	if summary.Error != "" {
		fmt.Fprintf(&sb, "Error:      %s\n", summary.Error)
	}
	sb.WriteString("\n")

	w.writeRule(&sb, "-")
	fmt.Fprintf(&sb, "RESULTS (%d)\n", len(summary.Results))
	w.writeRule(&sb, "-")
	sb.WriteString("\n")

	if len(summary.Results) == 0 {
		sb.WriteString("  No results\n")
	}
	for _, r := range summary.Results {
		title := r.Title
		if title == "" {
			title = "(untitled)"
		}
		fmt.Fprintf(&sb, "  * %s\n", title)
		fmt.Fprintf(&sb, "    %s\n", r.URL)
		if w.verbose && r.Result != "" {
			fmt.Fprintf(&sb, "    Result: %s\n", r.Result)
		}
	}

	if hosts := summary.Hosts(); len(hosts) > 1 {
		sb.WriteString("\nHosts: ")
		sb.WriteString(strings.Join(hosts, ", "))
		sb.WriteString("\n")
	}

	_, err := io.WriteString(w.output, sb.String())
	return err
}

func (w *SimpleWriter) statusText(summary *model.CrawlSummary) string {
	label := StatusLabel(summary.Status())
	if summary.CancelledLocally {
		label += " (cancelled from this client)"
	}
	return label
}

// WriteRequests outputs one line per request.
func (w *SimpleWriter) WriteRequests(requests []model.CrawlRequest) error {
	var sb strings.Builder

	if len(requests) == 0 {
		sb.WriteString("No crawl requests\n")
		_, err := io.WriteString(w.output, sb.String())
		return err
	}

	fmt.Fprintf(&sb, "%-36s  %-10s  %5s  %-23s  %s\n", "ID", "STATUS", "DOCS", "CREATED", "URL")
	for _, r := range requests {
		fmt.Fprintf(&sb, "%-36s  %-10s  %5d  %-23s  %s\n",
			r.UUID,
			StatusLabel(r.Status),
			r.NumberOfDocuments,
			formatTime(r.CreatedAt),
			r.URL,
		)
	}

	counts := StatusCounts(requests)
	parts := make([]string, 0, len(counts))
	for _, s := range orderedStatuses(counts) {
		parts = append(parts, fmt.Sprintf("%s: %d", StatusLabel(s), counts[s]))
	}
	fmt.Fprintf(&sb, "\n%d requests (%s)\n", len(requests), strings.Join(parts, ", "))

	_, err := io.WriteString(w.output, sb.String())
	return err
}

func (w *SimpleWriter) writeRule(sb *strings.Builder, char string) {
	sb.WriteString(strings.Repeat(char, 70))
	sb.WriteString("\n")
}
