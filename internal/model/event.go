package model

import (
	"encoding/json"
	"errors"
	"fmt"
)

// EventType tags the payload carried by a CrawlEvent.
type EventType string

const (
	// EventTypeState carries a full CrawlRequest snapshot.
	EventTypeState EventType = "state"

	// EventTypeResult carries a single CrawlResult.
	EventTypeResult EventType = "result"
)

// ErrEventMissingType is returned when a frame has no "type" field.
var ErrEventMissingType = errors.New("crawl event has no type")

// CrawlEvent is one frame of the status stream.
//
// Exactly one of State and Result is set for the known event types.
// Events with an unrecognized type decode successfully with both nil and
// the raw payload kept in Data, so consumers can skip them.
type CrawlEvent struct {
	// Type selects which payload is set.
	Type EventType

	// State is set when Type is EventTypeState.
	State *CrawlRequest

	// Result is set when Type is EventTypeResult.
	Result *CrawlResult

	// Data is the undecoded payload.
	Data json.RawMessage
}

// wireEvent is the JSON shape of a stream frame: {"type": ..., "data": ...}.
type wireEvent struct {
	Type EventType       `json:"type"`
	Data json.RawMessage `json:"data"`
}

// NewStateEvent wraps a request snapshot in an event.
func NewStateEvent(req CrawlRequest) CrawlEvent {
	return CrawlEvent{Type: EventTypeState, State: &req}
}

// NewResultEvent wraps a result in an event.
func NewResultEvent(res CrawlResult) CrawlEvent {
	return CrawlEvent{Type: EventTypeResult, Result: &res}
}

// UnmarshalJSON decodes the tagged union.
func (e *CrawlEvent) UnmarshalJSON(b []byte) error {
	var w wireEvent
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	if w.Type == "" {
		return ErrEventMissingType
	}

	decoded := CrawlEvent{Type: w.Type, Data: w.Data}
	switch w.Type {
	case EventTypeState:
		var req CrawlRequest
		if err := json.Unmarshal(w.Data, &req); err != nil {
			return fmt.Errorf("decode state payload: %w", err)
		}
		decoded.State = &req
	case EventTypeResult:
		var res CrawlResult
		if err := json.Unmarshal(w.Data, &res); err != nil {
			return fmt.Errorf("decode result payload: %w", err)
		}
		decoded.Result = &res
	}

	*e = decoded
	return nil
}

// MarshalJSON encodes the event back into its wire shape.
func (e CrawlEvent) MarshalJSON() ([]byte, error) {
	w := wireEvent{Type: e.Type, Data: e.Data}

	var payload any
	switch {
	case e.State != nil:
		payload = e.State
	case e.Result != nil:
		payload = e.Result
	}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		w.Data = data
	}
	if w.Data == nil {
		w.Data = json.RawMessage("null")
	}
	return json.Marshal(w)
}
