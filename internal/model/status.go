package model

// Status is the lifecycle state of a crawl request as reported by the API.
//
// The API sends statuses as lowercase strings. Values outside the known set
// are kept verbatim so that a newer server does not break decoding; such
// values are treated as non-terminal.
type Status string

const (
	// StatusNew is the state of a request that has been accepted but not started.
	StatusNew Status = "new"

	// StatusRunning indicates the spider is fetching pages.
	StatusRunning Status = "running"

	// StatusCanceling indicates a cancel was requested and the server is stopping the spider.
	StatusCanceling Status = "canceling"

	// StatusCancelled is terminal. It is also set locally on optimistic cancellation.
	StatusCancelled Status = "cancelled"

	// StatusFailed is terminal.
	StatusFailed Status = "failed"

	// StatusFinished is terminal.
	StatusFinished Status = "finished"
)

// AllStatuses lists every known status in lifecycle order.
var AllStatuses = []Status{
	StatusNew,
	StatusRunning,
	StatusCanceling,
	StatusCancelled,
	StatusFailed,
	StatusFinished,
}

// IsTerminal reports whether no further state transitions are expected.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusCancelled, StatusFailed, StatusFinished:
		return true
	default:
		return false
	}
}

// IsKnown reports whether s is one of the statuses the client understands.
func (s Status) IsKnown() bool {
	for _, known := range AllStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// String returns the wire representation of the status.
func (s Status) String() string {
	if s == "" {
		return "unknown"
	}
	return string(s)
}
