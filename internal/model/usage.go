package model

import "encoding/json"

// Usage is the response of the usage endpoint.
// The endpoint's exact shape varies between plans, so the known counters
// are decoded into typed fields and everything is kept in Raw as well.
type Usage struct {
	TotalCrawls          int `json:"total_crawls"`
	TotalDocuments       int `json:"total_documents"`
	FinishedCrawls       int `json:"finished_crawls"`
	FailedCrawls         int `json:"failed_crawls"`
	CancelledCrawls      int `json:"cancelled_crawls"`
	TotalPageCredits     int `json:"total_page_credits"`
	UsedPageCredits      int `json:"used_page_credits"`
	RemainingPageCredits int `json:"remaining_page_credits"`

	// Raw is the undecoded response body.
	Raw map[string]json.RawMessage `json:"-"`
}

// UnmarshalJSON decodes the typed fields and keeps the raw map.
func (u *Usage) UnmarshalJSON(b []byte) error {
	type alias Usage
	var a alias
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*u = Usage(a)
	u.Raw = raw
	return nil
}
