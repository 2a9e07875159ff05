// Package tracker merges the live status stream of a crawl request into a
// single view: the latest request snapshot plus the deduplicated results.
package tracker
