// Package document decodes the result documents produced by a crawl.
//
// Each crawl result carries the URL of a JSON payload with the page's
// markdown, links, optional HTML and metadata. Parse reads that payload,
// and falls back to scanning the HTML anchors when the crawl did not
// record links.
package document
