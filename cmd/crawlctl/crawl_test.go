package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/nao1215/crawlctl/internal/config"
	"github.com/nao1215/crawlctl/internal/model"
	"github.com/nao1215/crawlctl/internal/pipeline"
	"github.com/nao1215/crawlctl/internal/playground"
)

func TestNewCrawlCmd(t *testing.T) {
	t.Parallel()

	cmd := NewCrawlCmd()

	t.Run("requires at least one url", func(t *testing.T) {
		t.Parallel()
		if err := cmd.Args(cmd, nil); err == nil {
			t.Error("expected error without arguments")
		}
	})

	t.Run("has form flags", func(t *testing.T) {
		t.Parallel()
		for _, name := range []string{
			"max-depth", "page-limit", "allowed-domains", "exclude-paths", "include-paths",
			"exclude-tags", "include-tags", "wait-time", "only-main-content", "include-html",
			"include-links", "llm-model", "extractor-schema", "plugin", "single-page",
		} {
			if cmd.Flags().Lookup(name) == nil {
				t.Errorf("expected %s flag", name)
			}
		}
	})

	t.Run("form defaults match the playground", func(t *testing.T) {
		t.Parallel()
		if got := cmd.Flags().Lookup("max-depth").DefValue; got != playground.DefaultMaxDepth {
			t.Errorf("max-depth default = %s", got)
		}
		if got := cmd.Flags().Lookup("wait-time").DefValue; got != playground.DefaultWaitTime {
			t.Errorf("wait-time default = %s", got)
		}
	})

	t.Run("has batch flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("batch")
		if flag == nil {
			t.Fatal("expected batch flag")
		}
		if flag.Shorthand != "b" {
			t.Errorf("expected shorthand 'b', got %q", flag.Shorthand)
		}
	})
}

func TestBuildForm(t *testing.T) {
	t.Parallel()

	yes, no := true, false

	tests := []struct {
		name     string
		defaults config.CrawlDefaults
		flags    map[string]string
		plugin   []string
		check    func(t *testing.T, f *playground.Form)
	}{
		{
			name: "built-in defaults",
			check: func(t *testing.T, f *playground.Form) {
				if f.MaxDepth != "1" || f.PageLimit != "1" || f.WaitTime != "1000" {
					t.Errorf("unexpected defaults %+v", f)
				}
				if !f.OnlyMainContent || f.IncludeHTML || !f.IncludeLinks {
					t.Errorf("unexpected bool defaults %+v", f)
				}
			},
		},
		{
			name: "config defaults apply",
			defaults: config.CrawlDefaults{
				MaxDepth:     "3",
				IncludeHTML:  &yes,
				IncludeLinks: &no,
				Plugin:       map[string]string{"openai.max_tokens": "100"},
			},
			check: func(t *testing.T, f *playground.Form) {
				if f.MaxDepth != "3" || !f.IncludeHTML || f.IncludeLinks {
					t.Errorf("config defaults not applied %+v", f)
				}
				if f.Plugin["openai.max_tokens"] != "100" {
					t.Errorf("plugin = %v", f.Plugin)
				}
			},
		},
		{
			name:     "flags override config",
			defaults: config.CrawlDefaults{MaxDepth: "3", AllowedDomains: "a.example"},
			flags: map[string]string{
				"max-depth":         "5",
				"only-main-content": "false",
				"llm-model":         "gpt-4o",
			},
			plugin: []string{"openai.max_tokens=512", "prompt=a=b"},
			check: func(t *testing.T, f *playground.Form) {
				if f.MaxDepth != "5" || f.AllowedDomains != "a.example" {
					t.Errorf("MaxDepth = %s, AllowedDomains = %s", f.MaxDepth, f.AllowedDomains)
				}
				if f.OnlyMainContent || f.LLMModel != "gpt-4o" {
					t.Errorf("unexpected form %+v", f)
				}
				if f.Plugin["openai.max_tokens"] != "512" || f.Plugin["prompt"] != "a=b" {
					t.Errorf("plugin = %v", f.Plugin)
				}
			},
		},
		{
			name:     "single page resets spider options",
			defaults: config.CrawlDefaults{MaxDepth: "3"},
			flags: map[string]string{
				"single-page":     "true",
				"page-limit":      "40",
				"allowed-domains": "example.com",
				"exclude-tags":    "nav",
			},
			check: func(t *testing.T, f *playground.Form) {
				if f.MaxDepth != playground.DefaultMaxDepth || f.PageLimit != playground.DefaultPageLimit {
					t.Errorf("MaxDepth = %s, PageLimit = %s", f.MaxDepth, f.PageLimit)
				}
				if f.AllowedDomains != "" {
					t.Errorf("AllowedDomains = %q", f.AllowedDomains)
				}
				if f.ExcludeTags != "nav" {
					t.Errorf("page options should be kept, ExcludeTags = %q", f.ExcludeTags)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cmd := NewCrawlCmd()
			for k, v := range tt.flags {
				if err := cmd.Flags().Set(k, v); err != nil {
					t.Fatalf("set --%s: %v", k, err)
				}
			}
			for _, p := range tt.plugin {
				if err := cmd.Flags().Set("plugin", p); err != nil {
					t.Fatalf("set --plugin: %v", err)
				}
			}

			form, err := buildForm(cmd, tt.defaults)
			if err != nil {
				t.Fatalf("buildForm() error = %v", err)
			}
			tt.check(t, form)
		})
	}
}

func TestParsePluginFlags(t *testing.T) {
	t.Parallel()

	t.Run("valid pairs", func(t *testing.T) {
		t.Parallel()
		got, err := parsePluginFlags([]string{"a=1", " b.c =x=y", "empty="})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got["a"] != "1" || got["b.c"] != "x=y" || got["empty"] != "" {
			t.Errorf("got %v", got)
		}
	})

	for _, bad := range []string{"novalue", "=1"} {
		t.Run(bad, func(t *testing.T) {
			t.Parallel()
			if _, err := parsePluginFlags([]string{bad}); !errors.Is(err, errInvalidPluginFlag) {
				t.Errorf("expected errInvalidPluginFlag, got %v", err)
			}
		})
	}
}

func TestJobsError(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	ok := pipeline.NewJob("https://a.example", nil, nil)
	failed := pipeline.NewJob("https://b.example", nil, nil)
	failed.Err = boom

	tests := []struct {
		name string
		jobs []*pipeline.Job
		want error
	}{
		{"all succeeded", []*pipeline.Job{ok, nil}, nil},
		{"single failure returns its error", []*pipeline.Job{failed}, boom},
		{"batch failure is counted", []*pipeline.Job{ok, failed}, errCrawlsFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := jobsError(tt.jobs)
			if tt.want == nil {
				if err != nil {
					t.Errorf("unexpected error %v", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("jobsError() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestProgressPrinter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	p := newProgressPrinter(&buf, true)
	observe := p.observer("https://example.com")

	running := model.CrawlRequest{Status: model.StatusRunning}
	observe(model.NewStateEvent(running))
	observe(model.NewStateEvent(running))
	observe(model.NewResultEvent(model.CrawlResult{URL: "https://example.com/a"}))

	out := buf.String()
	if strings.Count(out, "Running") != 1 {
		t.Errorf("repeated status should be printed once:\n%s", out)
	}
	if !strings.Contains(out, "[https://example.com] + (untitled)  https://example.com/a") {
		t.Errorf("unexpected result line:\n%s", out)
	}
}

func TestSessionSetCancelAll(t *testing.T) {
	t.Parallel()

	// Idle sessions are skipped, so nothing reaches the network.
	set := &sessionSet{}
	set.add(playground.NewSession(nil))
	if err := set.cancelAll(context.Background()); err != nil {
		t.Errorf("unexpected error %v", err)
	}
}

// crawlReport is the JSON summary printed by crawl --json.
type crawlReport struct {
	Request *model.CrawlRequest `json:"request"`
	Results []model.CrawlResult `json:"results"`
	Error   string              `json:"error"`
}

func TestRunCrawlCmd(t *testing.T) {
	t.Parallel()

	t.Run("submits, watches and saves a crawl", func(t *testing.T) {
		t.Parallel()

		api := newFakeCrawlAPI(t)
		dataDir := t.TempDir()
		args := append([]string{"crawl"}, apiArgs(t, api, dataDir)...)
		args = append(args, "--json", "--allowed-domains", "example.com, docs.example.com", "https://example.com")

		stdout, stderr, err := runCLI(t, args...)
		if err != nil {
			t.Fatalf("crawl error = %v\nstderr: %s", err, stderr)
		}

		var got crawlReport
		if err := json.Unmarshal([]byte(stdout), &got); err != nil {
			t.Fatalf("invalid JSON output: %v\n%s", err, stdout)
		}
		if got.Request == nil || got.Request.Status != model.StatusFinished {
			t.Errorf("final request = %+v", got.Request)
		}
		if len(got.Results) != 2 || got.Results[0].UUID != "r1" || got.Results[1].UUID != "r2" {
			t.Errorf("results = %+v, want [r1 r2]", got.Results)
		}
		if !strings.Contains(stderr, "+ About") {
			t.Errorf("expected progress on stderr:\n%s", stderr)
		}

		api.mu.Lock()
		created := api.created[0]
		auth := api.authSeen[0]
		api.mu.Unlock()
		domains := created.Options.SpiderOptions.AllowedDomains
		if len(domains) != 2 || domains[1] != "docs.example.com" {
			t.Errorf("allowed_domains = %v", domains)
		}
		if auth != "Bearer test-key" {
			t.Errorf("Authorization = %q", auth)
		}

		// The crawl is now in the local history.
		histOut, _, err := runCLI(t, append([]string{"history"}, apiArgs(t, api, dataDir)...)...)
		if err != nil {
			t.Fatalf("history error = %v", err)
		}
		if !strings.Contains(histOut, requestIDFor("https://example.com")) {
			t.Errorf("history does not list the crawl:\n%s", histOut)
		}
	})

	t.Run("detach prints the created requests", func(t *testing.T) {
		t.Parallel()

		api := newFakeCrawlAPI(t)
		args := append([]string{"crawl"}, apiArgs(t, api, t.TempDir())...)
		args = append(args, "--detach", "--json", "--no-history", "https://a.example", "https://b.example")

		stdout, _, err := runCLI(t, args...)
		if err != nil {
			t.Fatalf("crawl error = %v", err)
		}
		var requests []model.CrawlRequest
		if err := json.Unmarshal([]byte(stdout), &requests); err != nil {
			t.Fatalf("invalid JSON output: %v\n%s", err, stdout)
		}
		if len(requests) != 2 || requests[0].URL != "https://a.example" || requests[1].URL != "https://b.example" {
			t.Errorf("requests = %+v", requests)
		}
		for _, r := range requests {
			if r.Status != model.StatusNew {
				t.Errorf("detached request %s has status %s", r.URL, r.Status)
			}
		}
	})

	t.Run("batch writes a summary per url", func(t *testing.T) {
		t.Parallel()

		api := newFakeCrawlAPI(t)
		args := append([]string{"crawl"}, apiArgs(t, api, t.TempDir())...)
		args = append(args, "-q", "-b", "2", "--no-history", "https://a.example", "https://b.example", "https://c.example")

		stdout, _, err := runCLI(t, args...)
		if err != nil {
			t.Fatalf("crawl error = %v", err)
		}
		if got := strings.Count(stdout, "CRAWL SUMMARY"); got != 3 {
			t.Errorf("got %d summaries, want 3", got)
		}
		if strings.Index(stdout, "https://a.example") > strings.Index(stdout, "https://c.example") {
			t.Error("summaries should follow the argument order")
		}
	})

	t.Run("invalid plugin flag", func(t *testing.T) {
		t.Parallel()

		api := newFakeCrawlAPI(t)
		args := append([]string{"crawl"}, apiArgs(t, api, t.TempDir())...)
		args = append(args, "--plugin", "oops", "https://example.com")

		if _, _, err := runCLI(t, args...); !errors.Is(err, errInvalidPluginFlag) {
			t.Errorf("expected errInvalidPluginFlag, got %v", err)
		}
	})
}
