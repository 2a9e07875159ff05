package playground

import "errors"

var (
	// ErrEmptyURL is returned when a form is submitted without a URL.
	ErrEmptyURL = errors.New("url is empty")

	// ErrBusy is returned when a submission is made while another one is
	// still being watched.
	ErrBusy = errors.New("a crawl is already in progress")

	// ErrSubmitFailed wraps failures of the create call.
	ErrSubmitFailed = errors.New("failed to submit crawl request")

	// ErrMissingRequestID is returned, wrapped in ErrSubmitFailed, when the
	// create call answers without a request identifier.
	ErrMissingRequestID = errors.New("created crawl request has no id")

	// ErrNoActiveRequest is returned by Watch when nothing was submitted or
	// attached.
	ErrNoActiveRequest = errors.New("no active crawl request")

	// ErrInvalidPluginOptions wraps schema validation errors of plugin values.
	ErrInvalidPluginOptions = errors.New("invalid plugin options")
)
