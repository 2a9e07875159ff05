package config

import (
	"fmt"
	"time"
)

// Profile is a named set of connection settings in the config file.
type Profile struct {
	// APIURL overrides the API base URL.
	APIURL string `yaml:"api_url,omitempty"`

	// APIKey authenticates requests. Prefer the CRAWLCTL_API_KEY variable
	// over storing keys in a shared file.
	APIKey string `yaml:"api_key,omitempty"`

	// TeamID selects the team.
	TeamID string `yaml:"team_id,omitempty"`

	// Proxy is a SOCKS5 proxy URL.
	Proxy string `yaml:"proxy,omitempty"`

	// Timeout overrides the API call timeout.
	Timeout time.Duration `yaml:"timeout,omitempty"`

	// Headers are extra HTTP headers.
	Headers map[string]string `yaml:"headers,omitempty"`

	// Crawl holds default crawl form values.
	Crawl CrawlDefaults `yaml:"crawl,omitempty"`
}

// CrawlDefaults are default values for the crawl form.
// String fields keep the form's raw text so they go through the same
// coercion as flag values.
type CrawlDefaults struct {
	MaxDepth        string            `yaml:"max_depth,omitempty"`
	PageLimit       string            `yaml:"page_limit,omitempty"`
	AllowedDomains  string            `yaml:"allowed_domains,omitempty"`
	ExcludePaths    string            `yaml:"exclude_paths,omitempty"`
	IncludePaths    string            `yaml:"include_paths,omitempty"`
	ExcludeTags     string            `yaml:"exclude_tags,omitempty"`
	IncludeTags     string            `yaml:"include_tags,omitempty"`
	WaitTime        string            `yaml:"wait_time,omitempty"`
	OnlyMainContent *bool             `yaml:"only_main_content,omitempty"`
	IncludeHTML     *bool             `yaml:"include_html,omitempty"`
	IncludeLinks    *bool             `yaml:"include_links,omitempty"`
	LLMModel        string            `yaml:"llm_model,omitempty"`
	Plugin          map[string]string `yaml:"plugin,omitempty"`
}

// merge returns d overridden by the non-zero fields of o.
func (d CrawlDefaults) merge(o CrawlDefaults) CrawlDefaults {
	out := d
	setString(&out.MaxDepth, o.MaxDepth)
	setString(&out.PageLimit, o.PageLimit)
	setString(&out.AllowedDomains, o.AllowedDomains)
	setString(&out.ExcludePaths, o.ExcludePaths)
	setString(&out.IncludePaths, o.IncludePaths)
	setString(&out.ExcludeTags, o.ExcludeTags)
	setString(&out.IncludeTags, o.IncludeTags)
	setString(&out.WaitTime, o.WaitTime)
	setString(&out.LLMModel, o.LLMModel)
	if o.OnlyMainContent != nil {
		out.OnlyMainContent = o.OnlyMainContent
	}
	if o.IncludeHTML != nil {
		out.IncludeHTML = o.IncludeHTML
	}
	if o.IncludeLinks != nil {
		out.IncludeLinks = o.IncludeLinks
	}
	if len(o.Plugin) > 0 {
		merged := make(map[string]string, len(d.Plugin)+len(o.Plugin))
		for k, v := range d.Plugin {
			merged[k] = v
		}
		for k, v := range o.Plugin {
			merged[k] = v
		}
		out.Plugin = merged
	}
	return out
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// File is the structure of the .crawlctl configuration file.
type File struct {
	// Defaults apply to every invocation.
	Defaults Profile `yaml:"defaults,omitempty"`

	// Profiles are selected with --profile and override Defaults.
	Profiles map[string]Profile `yaml:"profiles,omitempty"`
}

// Resolve returns Defaults overridden by the named profile.
// An empty name returns Defaults. An unknown name is an error.
func (f *File) Resolve(name string) (Profile, error) {
	result := f.Defaults
	if name == "" {
		return result, nil
	}

	p, ok := f.Profiles[name]
	if !ok {
		return Profile{}, fmt.Errorf("%w: %s", ErrUnknownProfile, name)
	}

	setString(&result.APIURL, p.APIURL)
	setString(&result.APIKey, p.APIKey)
	setString(&result.TeamID, p.TeamID)
	setString(&result.Proxy, p.Proxy)
	if p.Timeout > 0 {
		result.Timeout = p.Timeout
	}
	if len(p.Headers) > 0 {
		headers := make(map[string]string, len(result.Headers)+len(p.Headers))
		for k, v := range result.Headers {
			headers[k] = v
		}
		for k, v := range p.Headers {
			headers[k] = v
		}
		result.Headers = headers
	}
	result.Crawl = result.Crawl.merge(p.Crawl)

	return result, nil
}
