package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// DefaultAPIURL is the hosted crawl API.
	DefaultAPIURL = "https://app.watercrawl.dev"

	// DefaultTimeout bounds ordinary API calls. It does not apply to the
	// status stream, which stays open for as long as the crawl runs.
	DefaultTimeout = 60 * time.Second

	// DefaultBatchSize is the number of crawls submitted and watched at once
	// when several URLs are given.
	DefaultBatchSize = 4

	// DefaultPage is the first page of list endpoints.
	DefaultPage = 1

	// DefaultResultsPageSize matches the page size of the activity log view.
	DefaultResultsPageSize = 25

	// DefaultUserAgent identifies the client to the API.
	DefaultUserAgent = "crawlctl/1.0 (+https://github.com/nao1215/crawlctl)"

	// AppName is used for XDG directory paths and the database file name.
	AppName = "crawlctl"

	// DefaultLogFormat is the slog handler used on stderr.
	DefaultLogFormat = "text"
)

// Environment variables read by the CLI. They override the config file
// and are overridden by flags.
const (
	EnvAPIURL = "CRAWLCTL_API_URL"
	EnvAPIKey = "CRAWLCTL_API_KEY"
	EnvTeamID = "CRAWLCTL_TEAM_ID"
)

// Output formats accepted by Config.Format.
const (
	FormatText     = "text"
	FormatJSON     = "json"
	FormatMarkdown = "markdown"
)

// Config holds the resolved options of one CLI invocation.
// It is built from defaults, the config file profile, the environment and
// flags, in increasing order of precedence, and passed down explicitly.
type Config struct {
	// APIURL is the base URL of the crawl API, without a trailing slash.
	APIURL string

	// APIKey authenticates every request. Sent as a bearer token.
	APIKey string

	// TeamID selects the team the requests act on. Optional.
	TeamID string

	// Headers are extra HTTP headers added to every API request.
	Headers map[string]string

	// Proxy is an optional SOCKS5 proxy URL (socks5://host:port).
	Proxy string

	// Timeout bounds non-streaming API calls.
	Timeout time.Duration

	// UserAgent is sent with every request.
	UserAgent string

	// Verbose enables debug logging.
	Verbose bool

	// LogFormat selects the text or JSON log handler.
	LogFormat string

	// Format selects the report format: text, json or markdown.
	Format string

	// OutputFile receives the report instead of stdout when set.
	OutputFile string

	// BatchSize bounds concurrent crawls in batch mode.
	BatchSize int

	// DBDir is the directory of the local history database.
	// Empty disables history.
	DBDir string

	// ConfigFilePath is the config file given with --config.
	ConfigFilePath string

	// Profile names the profile in the config file to apply.
	Profile string

	// CrawlDefaults are default form values from the config file.
	CrawlDefaults CrawlDefaults
}

// NewConfig creates a Config with default values.
func NewConfig() *Config {
	return &Config{
		APIURL:    DefaultAPIURL,
		Timeout:   DefaultTimeout,
		UserAgent: DefaultUserAgent,
		LogFormat: DefaultLogFormat,
		Format:    FormatText,
		BatchSize: DefaultBatchSize,
		Headers:   make(map[string]string),
	}
}

// XDGDataDir returns the data directory, e.g. ~/.local/share/crawlctl on Linux.
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the config directory, e.g. ~/.config/crawlctl on Linux.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks the options every API command needs.
// It returns the first problem found.
func (c *Config) Validate() error {
	if c.APIURL == "" {
		return ErrNoAPIURL
	}
	if !isHTTPURL(c.APIURL) {
		return ErrInvalidAPIURL
	}
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}
	switch c.Format {
	case FormatText, FormatJSON, FormatMarkdown:
	default:
		return ErrInvalidFormat
	}
	if c.Proxy != "" && !isSOCKS5URL(c.Proxy) {
		return ErrInvalidProxy
	}
	return nil
}

// RequireAPIKey returns ErrNoAPIKey when no key is configured.
// Commands that only read local history do not call it.
func (c *Config) RequireAPIKey() error {
	if c.APIKey == "" {
		return ErrNoAPIKey
	}
	return nil
}

// ApplyProfile copies the non-zero fields of p into c.
func (c *Config) ApplyProfile(p Profile) {
	if p.APIURL != "" {
		c.APIURL = p.APIURL
	}
	if p.APIKey != "" {
		c.APIKey = p.APIKey
	}
	if p.TeamID != "" {
		c.TeamID = p.TeamID
	}
	if p.Proxy != "" {
		c.Proxy = p.Proxy
	}
	if p.Timeout > 0 {
		c.Timeout = p.Timeout
	}
	if len(p.Headers) > 0 {
		if c.Headers == nil {
			c.Headers = make(map[string]string)
		}
		for k, v := range p.Headers {
			c.Headers[k] = v
		}
	}
	c.CrawlDefaults = c.CrawlDefaults.merge(p.Crawl)
}

// ApplyEnv copies the CRAWLCTL_* variables found by lookup into c.
// lookup is os.LookupEnv in production.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvAPIURL); ok && v != "" {
		c.APIURL = v
	}
	if v, ok := lookup(EnvAPIKey); ok && v != "" {
		c.APIKey = v
	}
	if v, ok := lookup(EnvTeamID); ok && v != "" {
		c.TeamID = v
	}
}
