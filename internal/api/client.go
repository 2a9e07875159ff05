package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

// apiPrefix is the path prefix of every core endpoint.
const apiPrefix = "/api/v1/core"

// defaultTimeout bounds non-streaming calls when WithTimeout is not given.
const defaultTimeout = 60 * time.Second

// DefaultMaxDocumentSize caps how many bytes FetchResultDocument reads
// when WithMaxDocumentSize is not given.
const DefaultMaxDocumentSize int64 = 32 << 20

// Client talks to the crawl API.
// It is safe for concurrent use.
type Client struct {
	baseURL *url.URL

	// httpClient serves ordinary request/response calls and has a timeout.
	httpClient *http.Client

	// streamClient serves the status stream. It has no overall timeout,
	// the stream lives as long as the crawl and ends with ctx.
	streamClient *http.Client

	apiKey    string
	teamID    string
	userAgent string
	proxyURL  string
	headers   map[string]string
	timeout   time.Duration
	logger    *slog.Logger

	// maxDocumentSize caps result document bodies.
	maxDocumentSize int64

	// custom is set by WithHTTPClient. Its transport is used as-is.
	custom *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithAPIKey sets the key sent as a bearer token.
func WithAPIKey(key string) Option {
	return func(c *Client) {
		c.apiKey = key
	}
}

// WithTeam sets the team sent in the X-Team-ID header.
func WithTeam(teamID string) Option {
	return func(c *Client) {
		c.teamID = teamID
	}
}

// WithHeaders adds extra headers to every API request.
func WithHeaders(headers map[string]string) Option {
	return func(c *Client) {
		for k, v := range headers {
			c.headers[k] = v
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithTimeout sets the timeout of non-streaming calls.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithProxy routes all connections through a SOCKS5 proxy
// given as socks5://[user:pass@]host:port.
func WithProxy(proxyURL string) Option {
	return func(c *Client) {
		c.proxyURL = proxyURL
	}
}

// WithHTTPClient replaces the underlying HTTP client. Its transport is
// wrapped with the credential injector, and its timeout applies to
// non-streaming calls only.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.custom = hc
	}
}

// WithMaxDocumentSize sets the largest result document FetchResultDocument
// accepts, in bytes.
func WithMaxDocumentSize(n int64) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxDocumentSize = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient creates a client for the API at baseURL
// (e.g. https://app.watercrawl.dev).
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidBaseURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidBaseURL, baseURL)
	}

	c := &Client{
		baseURL: u,
		headers: make(map[string]string),
		timeout: defaultTimeout,
		logger:  slog.Default(),

		maxDocumentSize: DefaultMaxDocumentSize,
	}
	for _, opt := range opts {
		opt(c)
	}

	var base http.RoundTripper
	if c.custom != nil && c.custom.Transport != nil {
		base = c.custom.Transport
	} else if c.custom != nil {
		base = http.DefaultTransport
	} else {
		t, err := newBaseTransport(c.proxyURL)
		if err != nil {
			return nil, err
		}
		base = t
	}

	transport := &headerInjectingTransport{
		base:      base,
		apiHost:   u.Host,
		apiKey:    c.apiKey,
		teamID:    c.teamID,
		userAgent: c.userAgent,
		headers:   c.headers,
	}

	timeout := c.timeout
	if c.custom != nil && c.custom.Timeout > 0 {
		timeout = c.custom.Timeout
	}
	c.httpClient = &http.Client{Transport: transport, Timeout: timeout}
	c.streamClient = &http.Client{Transport: transport}

	return c, nil
}

// BaseURL returns the API base URL.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// endpoint joins the API prefix, path and query onto the base URL.
func (c *Client) endpoint(path string, query url.Values) string {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + apiPrefix + path
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

// newRequest builds a request with an optional JSON body.
func (c *Client) newRequest(ctx context.Context, method, target string, body any) (*http.Request, error) {
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		r = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, r)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// do sends req with hc and returns the response if it is 2xx.
// For other statuses the body is drained into an APIError.
func (c *Client) do(hc *http.Client, req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.URL.Redacted(), err)
	}

	c.logger.Debug("api response",
		"method", req.Method,
		"url", req.URL.String(),
		"status", resp.StatusCode,
		"elapsed", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody)) //nolint:errcheck // best-effort excerpt
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Method:     req.Method,
			URL:        req.URL.Redacted(),
			Body:       strings.TrimSpace(string(excerpt)),
		}
	}
	return resp, nil
}

// doJSON sends a request and decodes a JSON response into out.
// out may be nil when the response body is not needed.
func (c *Client) doJSON(ctx context.Context, method, target string, body, out any) error {
	req, err := c.newRequest(ctx, method, target, body)
	if err != nil {
		return err
	}

	resp, err := c.do(c.httpClient, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body) //nolint:errcheck // drain for connection reuse
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s %s response: %w", method, req.URL.Path, err)
	}
	return nil
}

// checkRequestID validates a crawl request identifier before any I/O.
func checkRequestID(id string) error {
	if id == "" {
		return ErrEmptyRequestID
	}
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidRequestID, id)
	}
	return nil
}
