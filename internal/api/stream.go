package api

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/nao1215/crawlctl/internal/model"
)

// framePrefix marks the lines of the status stream that carry an event.
const framePrefix = "data: "

// EventHandler receives each decoded event in arrival order.
type EventHandler func(model.CrawlEvent)

// SubscribeToStatus opens the status stream of a crawl request and calls
// onEvent once per decoded event until the stream ends.
//
// onEnd, when non-nil, is called exactly once after the stream is over,
// whatever the reason: clean end of stream, connect failure, non-2xx
// response or cancelled ctx. It is not called when id is rejected.
//
// Frames that do not decode are logged and skipped. The stream is not
// closed by CancelCrawl; it ends when the server closes it or ctx is done.
func (c *Client) SubscribeToStatus(ctx context.Context, id string, onEvent EventHandler, onEnd func()) error {
	if err := checkRequestID(id); err != nil {
		return err
	}
	if onEnd != nil {
		defer onEnd()
	}

	req, err := c.newRequest(ctx, http.MethodGet, c.endpoint("/crawl-requests/"+id+"/status/", nil), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	c.logger.Debug("status stream opening", "request_id", id)

	resp, err := c.do(c.streamClient, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := DecodeEventStream(resp.Body, onEvent, c.logger); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("status stream for %s: %w", id, err)
	}

	c.logger.Debug("status stream closed", "request_id", id)
	return nil
}

// DecodeEventStream reads newline-delimited frames from r and calls
// onEvent for each line that starts with "data: " and holds a valid
// event. Other lines are ignored. A last line without a trailing newline
// is still processed.
//
// It returns nil at end of input and the read error otherwise. A frame
// that fails to decode is logged at warn level and skipped.
func DecodeEventStream(r io.Reader, onEvent EventHandler, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	br := bufio.NewReader(r)
	for {
		line, readErr := br.ReadBytes('\n')
		if len(line) > 0 {
			handleFrame(line, onEvent, logger)
		}
		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				return nil
			}
			return readErr
		}
	}
}

func handleFrame(line []byte, onEvent EventHandler, logger *slog.Logger) {
	line = bytes.TrimRight(line, "\r\n")

	payload, ok := bytes.CutPrefix(line, []byte(framePrefix))
	if !ok {
		return
	}

	var ev model.CrawlEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		logger.Warn("skipping malformed status frame",
			"error", err,
			"frame", truncate(string(payload), 200))
		return
	}

	if onEvent != nil {
		onEvent(ev)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
