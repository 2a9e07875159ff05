package model

import "time"

// CrawlRequest is a crawl job as stored by the API.
// The client creates one on submission and afterwards only replaces it
// with snapshots carried by state events, or flips its status locally
// when the user cancels.
type CrawlRequest struct {
	// UUID is the opaque request identifier assigned by the server.
	// Empty on a request that has not been submitted yet.
	UUID string `json:"uuid,omitempty"`

	// URL is the seed URL of the crawl.
	URL string `json:"url"`

	// Status is the current lifecycle state.
	Status Status `json:"status,omitempty"`

	// Options holds the spider, page and plugin options of the crawl.
	Options CrawlOptions `json:"options"`

	// CreatedAt is set by the server.
	CreatedAt time.Time `json:"created_at,omitzero"`

	// UpdatedAt is set by the server on every state change.
	UpdatedAt time.Time `json:"updated_at,omitzero"`

	// NumberOfDocuments is the number of results the server has stored so far.
	NumberOfDocuments int `json:"number_of_documents"`
}

// CrawlOptions groups the three option blocks sent with a crawl request.
type CrawlOptions struct {
	SpiderOptions SpiderOptions `json:"spider_options"`
	PageOptions   PageOptions   `json:"page_options"`
	PluginOptions PluginOptions `json:"plugin_options,omitempty"`
}

// SpiderOptions controls how far the spider follows links.
// Nil numeric fields are omitted so the server applies its own defaults.
type SpiderOptions struct {
	MaxDepth       *int     `json:"max_depth,omitempty"`
	PageLimit      *int     `json:"page_limit,omitempty"`
	AllowedDomains []string `json:"allowed_domains"`
	ExcludePaths   []string `json:"exclude_paths"`
	IncludePaths   []string `json:"include_paths"`
}

// PageOptions controls how each fetched page is processed.
type PageOptions struct {
	ExcludeTags []string `json:"exclude_tags"`
	IncludeTags []string `json:"include_tags"`

	// WaitTime is the delay in milliseconds the renderer waits before extracting.
	// Nil when the submitted value was not a number.
	WaitTime *int `json:"wait_time,omitempty"`

	IncludeHTML     bool `json:"include_html"`
	OnlyMainContent bool `json:"only_main_content"`
	IncludeLinks    bool `json:"include_links"`
}

// PluginOptions is the free-form plugin block. Its shape is defined by the
// plugin schema served by the API, see package schema.
type PluginOptions map[string]any

// Well-known plugin option keys that the submitter always sends.
const (
	PluginOptionLLMModel        = "llm_model"
	PluginOptionExtractorSchema = "extractor_schema"
)

// CrawlResult is one document produced by a crawl.
// Results are immutable once received.
type CrawlResult struct {
	// UUID identifies the result. It is unique within one crawl request.
	UUID string `json:"uuid"`

	// Title is the page title extracted by the crawler.
	Title string `json:"title"`

	// URL is the address of the crawled page.
	URL string `json:"url"`

	// Result is the URL of the full result payload (markdown, links, metadata).
	Result string `json:"result"`

	// CreatedAt is set by the server.
	CreatedAt time.Time `json:"created_at,omitzero"`
}

// IntPtr returns a pointer to v. It is a convenience for building options.
func IntPtr(v int) *int {
	return &v
}
