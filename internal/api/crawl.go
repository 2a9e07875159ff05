package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/nao1215/crawlctl/internal/model"
)

// ResultsPageSize is the page size used when listing results.
const ResultsPageSize = 25

// createCrawlRequestBody is the POST body of a new crawl.
type createCrawlRequestBody struct {
	URL     string             `json:"url"`
	Options model.CrawlOptions `json:"options"`
}

// CreateCrawlRequest submits a new crawl and returns the created request
// with its identifier.
func (c *Client) CreateCrawlRequest(ctx context.Context, req *model.CrawlRequest) (*model.CrawlRequest, error) {
	body := createCrawlRequestBody{URL: req.URL, Options: req.Options}

	var created model.CrawlRequest
	if err := c.doJSON(ctx, http.MethodPost, c.endpoint("/crawl-requests/", nil), body, &created); err != nil {
		return nil, err
	}
	c.logger.Debug("crawl request created", "request_id", created.UUID, "url", created.URL)
	return &created, nil
}

// GetCrawlRequest fetches one crawl request.
func (c *Client) GetCrawlRequest(ctx context.Context, id string) (*model.CrawlRequest, error) {
	if err := checkRequestID(id); err != nil {
		return nil, err
	}

	var cr model.CrawlRequest
	if err := c.doJSON(ctx, http.MethodGet, c.endpoint("/crawl-requests/"+id+"/", nil), nil, &cr); err != nil {
		return nil, err
	}
	return &cr, nil
}

// ListCrawlRequests returns one page of the team's crawl requests,
// newest first. Pages start at 1.
func (c *Client) ListCrawlRequests(ctx context.Context, page int) (*model.Paginated[model.CrawlRequest], error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(max(page, 1)))

	var out model.Paginated[model.CrawlRequest]
	if err := c.doJSON(ctx, http.MethodGet, c.endpoint("/crawl-requests/", q), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListResults returns one page of a crawl's results. This is the
// non-streaming way to read results of a finished crawl.
func (c *Client) ListResults(ctx context.Context, id string, page int) (*model.Paginated[model.CrawlResult], error) {
	if err := checkRequestID(id); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("page", strconv.Itoa(max(page, 1)))
	q.Set("page_size", strconv.Itoa(ResultsPageSize))

	var out model.Paginated[model.CrawlResult]
	if err := c.doJSON(ctx, http.MethodGet, c.endpoint("/crawl-requests/"+id+"/results/", q), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Download opens the aggregated results blob of a crawl.
// The caller must close the returned reader.
func (c *Client) Download(ctx context.Context, id string) (io.ReadCloser, error) {
	if err := checkRequestID(id); err != nil {
		return nil, err
	}

	req, err := c.newRequest(ctx, http.MethodGet, c.endpoint("/crawl-requests/"+id+"/download/", nil), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "*/*")

	// The blob can be large, so the download is not bound by the call timeout.
	resp, err := c.do(c.streamClient, req)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// CancelCrawl asks the server to stop a running crawl. The server confirms
// through a state event on the status stream, not in this response.
func (c *Client) CancelCrawl(ctx context.Context, id string) error {
	if err := checkRequestID(id); err != nil {
		return err
	}
	if err := c.doJSON(ctx, http.MethodDelete, c.endpoint("/crawl-requests/"+id+"/", nil), nil, nil); err != nil {
		return fmt.Errorf("failed to cancel crawl %s: %w", id, err)
	}
	c.logger.Debug("crawl cancel requested", "request_id", id)
	return nil
}

// FetchResultDocument downloads the payload a result's Result field
// points to. The URL is absolute and may live outside the API host, in
// which case no credentials are sent. Bodies larger than the client's
// maximum document size fail with ErrDocumentTooLarge.
func (c *Client) FetchResultDocument(ctx context.Context, rawURL string) ([]byte, error) {
	if rawURL == "" {
		return nil, ErrEmptyDocumentURL
	}

	req, err := c.newRequest(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.do(c.httpClient, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxDocumentSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read result document: %w", err)
	}
	if int64(len(data)) > c.maxDocumentSize {
		return nil, fmt.Errorf("%w: more than %d bytes at %s", ErrDocumentTooLarge, c.maxDocumentSize, rawURL)
	}
	return data, nil
}
