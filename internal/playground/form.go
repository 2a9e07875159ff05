package playground

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/nao1215/crawlctl/internal/model"
	"github.com/nao1215/crawlctl/internal/schema"
)

// Default form values.
const (
	DefaultMaxDepth  = "1"
	DefaultPageLimit = "1"
	DefaultWaitTime  = "1000"
)

// Form holds the crawl options as the user typed them. Numbers and lists
// stay text until Build, so partially typed input never fails early.
type Form struct {
	// Spider options.
	MaxDepth       string
	PageLimit      string
	AllowedDomains string
	ExcludePaths   string
	IncludePaths   string

	// Page options.
	ExcludeTags     string
	IncludeTags     string
	WaitTime        string
	OnlyMainContent bool
	IncludeHTML     bool
	IncludeLinks    bool

	// LLM options, always sent in plugin_options.
	LLMModel        string
	ExtractorSchema string

	// Plugin holds extra plugin option values keyed by dotted path,
	// e.g. "openai.max_tokens". They are typed by the plugin schema when
	// one is given to BuildWithSchema.
	Plugin map[string]string
}

// NewForm returns a form with the default values.
func NewForm() *Form {
	return &Form{
		MaxDepth:        DefaultMaxDepth,
		PageLimit:       DefaultPageLimit,
		WaitTime:        DefaultWaitTime,
		OnlyMainContent: true,
		IncludeHTML:     false,
		IncludeLinks:    true,
		Plugin:          make(map[string]string),
	}
}

// Build converts the form into a crawl request for url.
// Plugin values are sent as strings, nested by their dotted path.
func (f *Form) Build(url string) (*model.CrawlRequest, error) {
	return f.build(url, nestStrings(f.Plugin))
}

// BuildWithSchema is Build with plugin values typed and validated by the
// plugin schema. Schema defaults are filled in.
func (f *Form) BuildWithSchema(url string, root schema.Node) (*model.CrawlRequest, error) {
	if root == nil {
		return f.Build(url)
	}
	if strings.TrimSpace(url) == "" {
		return nil, ErrEmptyURL
	}

	plugin, errs := schema.Coerce(root, f.Plugin)
	if len(errs) > 0 {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPluginOptions, errs)
	}
	return f.build(url, plugin)
}

func (f *Form) build(url string, plugin map[string]any) (*model.CrawlRequest, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, ErrEmptyURL
	}

	if plugin == nil {
		plugin = make(map[string]any)
	}
	if _, ok := plugin[model.PluginOptionLLMModel]; !ok || f.LLMModel != "" {
		plugin[model.PluginOptionLLMModel] = f.LLMModel
	}
	if _, ok := plugin[model.PluginOptionExtractorSchema]; !ok || f.ExtractorSchema != "" {
		plugin[model.PluginOptionExtractorSchema] = f.ExtractorSchema
	}

	return &model.CrawlRequest{
		URL: url,
		Options: model.CrawlOptions{
			SpiderOptions: model.SpiderOptions{
				MaxDepth:       ParseInt(f.MaxDepth),
				PageLimit:      ParseInt(f.PageLimit),
				AllowedDomains: SplitList(f.AllowedDomains),
				ExcludePaths:   SplitList(f.ExcludePaths),
				IncludePaths:   SplitList(f.IncludePaths),
			},
			PageOptions: model.PageOptions{
				ExcludeTags:     SplitList(f.ExcludeTags),
				IncludeTags:     SplitList(f.IncludeTags),
				WaitTime:        ParseInt(f.WaitTime),
				OnlyMainContent: f.OnlyMainContent,
				IncludeHTML:     f.IncludeHTML,
				IncludeLinks:    f.IncludeLinks,
			},
			PluginOptions: plugin,
		},
	}, nil
}

// ParseInt reads the leading integer of s: leading spaces are skipped,
// an optional sign is accepted and parsing stops at the first non-digit,
// so "12px" is 12 and "1.9" is 1. It returns nil when s has no leading
// integer or the value does not fit in an int.
func ParseInt(s string) *int {
	s = strings.TrimLeft(s, " \t\r\n")

	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return nil
	}

	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return nil
	}
	return &n
}

// SplitList splits a comma-separated value, trims every item and drops
// empty ones. The result is never nil so it encodes as [].
func SplitList(s string) []string {
	out := make([]string, 0)
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// nestStrings turns {"a.b": "1"} into {"a": {"b": "1"}}.
func nestStrings(values map[string]string) map[string]any {
	out := make(map[string]any, len(values))
	for key, value := range values {
		parts := strings.Split(key, ".")
		m := out
		for _, p := range parts[:len(parts)-1] {
			child, ok := m[p].(map[string]any)
			if !ok {
				child = make(map[string]any)
				m[p] = child
			}
			m = child
		}
		m[parts[len(parts)-1]] = value
	}
	return out
}
