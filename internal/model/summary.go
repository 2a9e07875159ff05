package model

import (
	"slices"
	"time"
)

// CrawlSummary is the final view of one watched crawl request.
// Reports and the local history are built from it.
type CrawlSummary struct {
	// Request is the last known snapshot. Nil if the stream never sent a state event.
	Request *CrawlRequest `json:"request"`

	// Results are the deduplicated results in order of first arrival.
	Results []CrawlResult `json:"results"`

	// Elapsed is the time spent watching the stream.
	Elapsed time.Duration `json:"elapsed"`

	// CancelledLocally is true when the user cancelled from this client.
	CancelledLocally bool `json:"cancelled_locally"`

	// Error holds the stream or submission error, if any.
	Error string `json:"error,omitempty"`
}

// RequestID returns the request identifier, or an empty string.
func (s *CrawlSummary) RequestID() string {
	if s.Request == nil {
		return ""
	}
	return s.Request.UUID
}

// Status returns the last known status, or an empty status.
func (s *CrawlSummary) Status() Status {
	if s.Request == nil {
		return ""
	}
	return s.Request.Status
}

// Hosts returns the distinct hosts of the result URLs in first-seen order.
// Results with an unparsable URL are skipped.
func (s *CrawlSummary) Hosts() []string {
	hosts := make([]string, 0)
	for _, r := range s.Results {
		h := hostOf(r.URL)
		if h == "" || slices.Contains(hosts, h) {
			continue
		}
		hosts = append(hosts, h)
	}
	return hosts
}
