package report

import (
	"encoding/json"
	"io"

	"github.com/nao1215/crawlctl/internal/model"
)

// JSONWriter outputs reports in JSON format for tool integration.
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed JSON output.
	indent bool

	indentPrefix string
	indentString string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
// The prefix is prepended to each line, and indent is used for each level.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint is WithIndent("", "  ").
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// summaryReport is the JSON shape of a summary. Elapsed is written in
// milliseconds rather than as a raw duration.
type summaryReport struct {
	Request          *model.CrawlRequest `json:"request"`
	Results          []model.CrawlResult `json:"results"`
	ElapsedMS        int64               `json:"elapsed_ms"`
	CancelledLocally bool                `json:"cancelled_locally"`
	Hosts            []string            `json:"hosts"`
	Error            string              `json:"error,omitempty"`
}

// WriteSummary outputs the summary as one JSON object.
func (w *JSONWriter) WriteSummary(summary *model.CrawlSummary) error {
	results := summary.Results
	if results == nil {
		results = []model.CrawlResult{}
	}
	return w.writeJSON(summaryReport{
		Request:          summary.Request,
		Results:          results,
		ElapsedMS:        summary.Elapsed.Milliseconds(),
		CancelledLocally: summary.CancelledLocally,
		Hosts:            summary.Hosts(),
		Error:            summary.Error,
	})
}

// WriteRequests outputs the requests as a JSON array.
func (w *JSONWriter) WriteRequests(requests []model.CrawlRequest) error {
	if requests == nil {
		requests = []model.CrawlRequest{}
	}
	return w.writeJSON(requests)
}

// writeJSON marshals v and writes it followed by a newline.
func (w *JSONWriter) writeJSON(v any) error {
	var data []byte
	var err error

	if w.indent {
		data, err = json.MarshalIndent(v, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return err
	}

	data = append(data, '\n')
	_, err = w.output.Write(data)
	return err
}
