package report

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nao1215/crawlctl/internal/model"
)

// MarkdownWriter outputs reports in Markdown, for sharing a crawl in an
// issue or a wiki page.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{baseWriter: newBaseWriter(output)}
}

// WriteSummary outputs the summary of one crawl.
func (w *MarkdownWriter) WriteSummary(summary *model.CrawlSummary) error {
	md := markdown.NewMarkdown(w.output)

	md.H1("Crawl Summary")
	md.PlainText("")
	w.writeRequestTable(md, summary)
	w.writeAlert(md, summary)
	w.writeResults(md, summary.Results)

	if hosts := summary.Hosts(); len(hosts) > 0 {
		md.H2("Hosts")
		md.PlainText("")
		md.BulletList(hosts...)
		md.PlainText("")
	}

	return md.Build()
}

func (w *MarkdownWriter) writeRequestTable(md *markdown.Markdown, summary *model.CrawlSummary) {
	rows := make([][]string, 0, 6)
	if req := summary.Request; req != nil {
		rows = append(rows,
			[]string{"Request", "`" + req.UUID + "`"},
			[]string{"URL", req.URL},
			[]string{"Status", statusIcon(req.Status) + " " + StatusLabel(req.Status)},
			[]string{"Documents", strconv.Itoa(req.NumberOfDocuments)},
			[]string{"Created", formatTime(req.CreatedAt)},
		)
	} else {
		rows = append(rows, []string{"Request", "not created"})
	}
	rows = append(rows, []string{"Elapsed", formatElapsed(summary.Elapsed)})

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, summary *model.CrawlSummary) {
	switch {
	case summary.Error != "":
		md.Cautionf("The crawl did not complete: %s", summary.Error)
	case summary.CancelledLocally:
		md.Warningf("Cancelled from this client after %d result(s).", len(summary.Results))
	case summary.Status() == model.StatusFailed:
		md.Warning("The crawl failed on the server.")
	case summary.Status() == model.StatusFinished:
		md.Tip("The crawl finished.")
	default:
		md.Note("The crawl had not reached a terminal status when watching stopped.")
	}
	md.PlainText("")
}

func (w *MarkdownWriter) writeResults(md *markdown.Markdown, results []model.CrawlResult) {
	md.H2("Results")
	md.PlainText("")

	if len(results) == 0 {
		md.PlainText("No results.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(results))
	for i, r := range results {
		title := r.Title
		if title == "" {
			title = "-"
		}
		rows[i] = []string{
			strconv.Itoa(i + 1),
			truncateString(title, 50),
			r.URL,
			"[json](" + r.Result + ")",
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"#", "Title", "URL", "Result"},
		Rows:   rows,
	})
	md.PlainText("")
}

// WriteRequests outputs a table of requests and a pie chart of their statuses.
func (w *MarkdownWriter) WriteRequests(requests []model.CrawlRequest) error {
	md := markdown.NewMarkdown(w.output)

	md.H1("Crawl Requests")
	md.PlainText("")

	if len(requests) == 0 {
		md.PlainText("No crawl requests.")
		return md.Build()
	}

	rows := make([][]string, len(requests))
	for i, r := range requests {
		rows[i] = []string{
			"`" + r.UUID + "`",
			statusIcon(r.Status) + " " + StatusLabel(r.Status),
			strconv.Itoa(r.NumberOfDocuments),
			formatTime(r.CreatedAt),
			r.URL,
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"ID", "Status", "Documents", "Created", "URL"},
		Rows:   rows,
	})
	md.PlainText("")

	w.writePieChart(md, StatusCounts(requests))
	return md.Build()
}

// writePieChart writes a mermaid pie chart of the status distribution.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, counts map[model.Status]int) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Request Status Distribution"),
		piechart.WithShowData(true),
	)
	for _, s := range orderedStatuses(counts) {
		chart.LabelAndIntValue(StatusLabel(s), uint64(counts[s]))
	}

	md.H2("Status Distribution")
	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

func statusIcon(s model.Status) string {
	switch s {
	case model.StatusFinished:
		return "✅"
	case model.StatusFailed:
		return "❌"
	case model.StatusCancelled, model.StatusCanceling:
		return "⏹️"
	case model.StatusRunning:
		return "🔄"
	case model.StatusNew:
		return "🆕"
	default:
		return "❔"
	}
}
