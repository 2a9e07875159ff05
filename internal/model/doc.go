// Package model defines the data structures exchanged with the crawl API.
//
// This package contains the following main types:
//   - CrawlRequest: a crawl job with its options and lifecycle Status
//   - CrawlResult: one crawled document, referenced by a result URL
//   - CrawlEvent: a frame of the live status stream (state or result)
//   - Paginated: a page of a list endpoint
//   - CrawlSummary: the merged outcome of watching a crawl
//
// The types mirror the API's JSON. They carry no behavior beyond small
// helpers; merging events into a view lives in package tracker.
package model
