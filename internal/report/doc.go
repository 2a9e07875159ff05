// Package report renders crawl summaries and request listings.
//
// Writers for three formats implement the Writer interface:
//   - SimpleWriter: plain text for terminal display
//   - JSONWriter: structured JSON for tool integration
//   - MarkdownWriter: Markdown with a mermaid pie chart of request statuses
//
// Writers can be combined with MultiWriter to print and save a report at once.
package report
