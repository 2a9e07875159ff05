// Package main provides the entry point for the crawlctl CLI.
//
// crawlctl submits crawl requests to a crawl API, follows their live
// status stream and keeps a local history of finished crawls.
//
// Usage:
//
//	crawlctl crawl https://example.com
//	crawlctl watch <request-id>
//	crawlctl list
//
// See --help for all available options.
package main

func main() {
	Execute()
}
