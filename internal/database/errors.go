package database

import "errors"

var (
	// ErrNotFound is returned when a request or document is not in history.
	ErrNotFound = errors.New("not found in history")

	// ErrNoRequest is returned by SaveSummary for a summary without a
	// created request.
	ErrNoRequest = errors.New("summary has no crawl request")
)
