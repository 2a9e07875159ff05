// Package api is the client for the crawl API.
//
// It covers the REST endpoints used by the dashboard (create, get, list,
// cancel and download crawl requests, list results, usage and the plugin
// schema) and the per-request status stream.
//
// # Status stream
//
// The status endpoint returns a long-lived response whose body is a
// sequence of lines. Lines starting with "data: " carry a JSON event
// {"type": "state"|"result", "data": ...}. SubscribeToStatus decodes the
// lines as they arrive and hands each event to a callback, in order and
// on the reading goroutine. It keeps no state of its own; merging events
// into a view is the job of the tracker package.
//
// # Authentication
//
// Every request to the API host carries "Authorization: Bearer <key>"
// and, when a team is set, "X-Team-ID". These are added by a wrapping
// http.RoundTripper, so redirects and the stream get them too. Result
// documents hosted elsewhere are fetched without credentials.
package api
