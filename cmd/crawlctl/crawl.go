package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/crawlctl/internal/api"
	"github.com/nao1215/crawlctl/internal/config"
	"github.com/nao1215/crawlctl/internal/model"
	"github.com/nao1215/crawlctl/internal/pipeline"
	"github.com/nao1215/crawlctl/internal/playground"
	"github.com/nao1215/crawlctl/internal/report"
	"github.com/nao1215/crawlctl/internal/schema"
)

var (
	// errInvalidPluginFlag is returned for a --plugin value without "=".
	errInvalidPluginFlag = errors.New("plugin option must be key=value")

	// errCrawlsFailed is returned when some crawls of a batch failed.
	errCrawlsFailed = errors.New("crawls failed")
)

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl URL...",
		Short: "Submit a crawl and follow its status until it ends",
		Long: `Crawl submits a crawl request for each URL and follows its status stream,
printing results as they arrive. A summary is printed when the stream ends
and the crawl is saved to the local history.

Press Ctrl-C once to cancel the crawl. The stream stays open so the
server's confirmation is shown. Press Ctrl-C again to stop watching.

Examples:
  # Crawl one page with the default options
  crawlctl crawl https://example.com

  # Follow links two levels deep, staying on two domains
  crawlctl crawl --max-depth 2 --page-limit 50 \
    --allowed-domains "example.com, docs.example.com" https://example.com

  # Only the given page, like the Single Page tab
  crawlctl crawl --single-page https://example.com/pricing

  # Submit without watching and print the request id
  crawlctl crawl --detach https://example.com

  # Crawl several sites, four at a time, and save a Markdown report
  crawlctl crawl -b 4 -m -o report.md https://a.example https://b.example

  # Set a plugin option, typed by the plugin schema
  crawlctl crawl --plugin openai.max_tokens=512 https://example.com`,
		Args: cobra.MinimumNArgs(1),
		RunE: runCrawlCmd,
	}

	f := cmd.Flags()

	// Spider options
	f.String("max-depth", playground.DefaultMaxDepth, "Maximum link depth to follow")
	f.String("page-limit", playground.DefaultPageLimit, "Maximum number of pages to crawl")
	f.String("allowed-domains", "", "Comma-separated domains the spider may visit")
	f.String("exclude-paths", "", "Comma-separated path patterns to skip")
	f.String("include-paths", "", "Comma-separated path patterns to restrict the crawl to")
	f.Bool("single-page", false, "Crawl only the given page (spider options use their defaults)")

	// Page options
	f.String("exclude-tags", "", "Comma-separated HTML tags to drop")
	f.String("include-tags", "", "Comma-separated HTML tags to keep")
	f.String("wait-time", playground.DefaultWaitTime, "Milliseconds to wait for the page to render")
	f.Bool("only-main-content", true, "Extract only the main content")
	f.Bool("include-html", false, "Include the page HTML in results")
	f.Bool("include-links", true, "Include the page links in results")

	// Plugin options
	f.String("llm-model", "", "LLM model used by extraction plugins")
	f.String("extractor-schema", "", "JSON schema for LLM extraction")
	f.StringArray("plugin", nil, "Plugin option as key=value, dotted keys nest (repeatable)")

	// Behaviour
	f.Bool("detach", false, "Submit only, do not watch the status stream")
	f.IntP("batch", "b", config.DefaultBatchSize, "Number of concurrent crawls")
	f.BoolP("quiet", "q", false, "Do not print progress while watching")
	f.Bool("no-history", false, "Do not save crawls to the local history")

	addReportFlags(cmd)
	return cmd
}

func runCrawlCmd(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}

	form, err := buildForm(cmd, a.cfg.CrawlDefaults)
	if err != nil {
		return err
	}
	detach, err := cmd.Flags().GetBool("detach")
	if err != nil {
		return err
	}
	quiet, err := cmd.Flags().GetBool("quiet")
	if err != nil {
		return err
	}

	client, err := a.client()
	if err != nil {
		return err
	}

	db, err := a.history()
	if err != nil {
		return err
	}
	var store pipeline.Store
	if db != nil {
		defer db.Close()
		store = db
	}

	ctx, cancel := context.WithCancel(commandContext(cmd))
	defer cancel()

	var pluginSchema schema.Node
	if len(form.Plugin) > 0 {
		pluginSchema, err = fetchPluginSchema(ctx, client)
		if err != nil {
			a.logger.Warn("plugin schema unavailable, sending plugin values as text", "error", err)
		}
	}

	sessions := &sessionSet{}
	progress := newProgressPrinter(cmd.ErrOrStderr(), len(args) > 1)

	jobFactory := func(url string) *pipeline.Job {
		opts := []playground.SessionOption{
			playground.WithLogger(a.logger),
			playground.WithPluginSchema(pluginSchema),
		}
		if !quiet && !detach {
			opts = append(opts, playground.WithObserver(progress.observer(url)))
		}
		s := playground.NewSession(client, opts...)
		sessions.add(s)
		return pipeline.NewJob(url, form, s)
	}
	newPipeline := func() *pipeline.Pipeline {
		return pipeline.DefaultPipeline(store, detach, a.logger)
	}

	stop := handleInterrupts(ctx, cancel, func() {
		fmt.Fprintln(cmd.ErrOrStderr(), "Cancelling... press Ctrl-C again to stop watching.")
		if err := sessions.cancelAll(ctx); err != nil {
			a.logger.Warn("cancel failed", "error", err)
		}
	}, a.logger)
	defer stop()

	start := time.Now()
	var jobs []*pipeline.Job
	var runErr error

	if len(args) == 1 {
		job := jobFactory(args[0])
		_ = newPipeline().Execute(ctx, job) //nolint:errcheck // error is stored on the job
		jobs = []*pipeline.Job{job}
	} else {
		if !quiet {
			fmt.Fprintf(cmd.ErrOrStderr(), "Starting %d crawls (concurrency: %d)...\n", len(args), a.cfg.BatchSize)
		}
		bp := pipeline.NewBatchProcessor(newPipeline, jobFactory,
			pipeline.WithConcurrency(a.cfg.BatchSize),
			pipeline.WithBatchLogger(a.logger),
		)
		jobs, runErr = bp.ProcessBatch(ctx, args)
	}

	a.logger.Debug("crawl command finished", "urls", len(args), "elapsed", time.Since(start))

	if err := a.withReport(cmd, func(w report.Writer) error {
		return writeJobs(w, jobs, detach)
	}); err != nil {
		return err
	}

	if runErr != nil {
		return runErr
	}
	return jobsError(jobs)
}

// writeJobs writes one summary per job, or the created requests when the
// crawls were not watched.
func writeJobs(w report.Writer, jobs []*pipeline.Job, detach bool) error {
	if detach {
		requests := make([]model.CrawlRequest, 0, len(jobs))
		for _, job := range jobs {
			if job != nil && job.Request != nil {
				requests = append(requests, *job.Request)
			}
		}
		return w.WriteRequests(requests)
	}

	for _, job := range jobs {
		if job == nil {
			continue
		}
		if err := w.WriteSummary(job.FinalSummary()); err != nil {
			return err
		}
	}
	return nil
}

// jobsError returns the error of a single job, or a count of failures.
func jobsError(jobs []*pipeline.Job) error {
	failed := make([]*pipeline.Job, 0)
	for _, job := range jobs {
		if job != nil && job.Failed() {
			failed = append(failed, job)
		}
	}
	switch {
	case len(failed) == 0:
		return nil
	case len(jobs) == 1:
		return failed[0].Err
	default:
		return fmt.Errorf("%w: %d of %d", errCrawlsFailed, len(failed), len(jobs))
	}
}

// buildForm fills the crawl form from, in increasing order of precedence,
// the built-in defaults, the config file and flags that were set.
func buildForm(cmd *cobra.Command, defaults config.CrawlDefaults) (*playground.Form, error) {
	form := playground.NewForm()
	applyCrawlDefaults(form, defaults)

	flags := cmd.Flags()
	stringFlags := []struct {
		name string
		dst  *string
	}{
		{"max-depth", &form.MaxDepth},
		{"page-limit", &form.PageLimit},
		{"allowed-domains", &form.AllowedDomains},
		{"exclude-paths", &form.ExcludePaths},
		{"include-paths", &form.IncludePaths},
		{"exclude-tags", &form.ExcludeTags},
		{"include-tags", &form.IncludeTags},
		{"wait-time", &form.WaitTime},
		{"llm-model", &form.LLMModel},
		{"extractor-schema", &form.ExtractorSchema},
	}
	for _, f := range stringFlags {
		if !flags.Changed(f.name) {
			continue
		}
		v, err := flags.GetString(f.name)
		if err != nil {
			return nil, err
		}
		*f.dst = v
	}

	boolFlags := []struct {
		name string
		dst  *bool
	}{
		{"only-main-content", &form.OnlyMainContent},
		{"include-html", &form.IncludeHTML},
		{"include-links", &form.IncludeLinks},
	}
	for _, f := range boolFlags {
		if !flags.Changed(f.name) {
			continue
		}
		v, err := flags.GetBool(f.name)
		if err != nil {
			return nil, err
		}
		*f.dst = v
	}

	pluginArgs, err := flags.GetStringArray("plugin")
	if err != nil {
		return nil, err
	}
	plugin, err := parsePluginFlags(pluginArgs)
	if err != nil {
		return nil, err
	}
	for k, v := range plugin {
		form.Plugin[k] = v
	}

	singlePage, err := flags.GetBool("single-page")
	if err != nil {
		return nil, err
	}
	if singlePage {
		form.MaxDepth = playground.DefaultMaxDepth
		form.PageLimit = playground.DefaultPageLimit
		form.AllowedDomains = ""
		form.ExcludePaths = ""
		form.IncludePaths = ""
	}

	return form, nil
}

func applyCrawlDefaults(form *playground.Form, d config.CrawlDefaults) {
	for _, f := range []struct {
		src string
		dst *string
	}{
		{d.MaxDepth, &form.MaxDepth},
		{d.PageLimit, &form.PageLimit},
		{d.AllowedDomains, &form.AllowedDomains},
		{d.ExcludePaths, &form.ExcludePaths},
		{d.IncludePaths, &form.IncludePaths},
		{d.ExcludeTags, &form.ExcludeTags},
		{d.IncludeTags, &form.IncludeTags},
		{d.WaitTime, &form.WaitTime},
		{d.LLMModel, &form.LLMModel},
	} {
		if f.src != "" {
			*f.dst = f.src
		}
	}
	if d.OnlyMainContent != nil {
		form.OnlyMainContent = *d.OnlyMainContent
	}
	if d.IncludeHTML != nil {
		form.IncludeHTML = *d.IncludeHTML
	}
	if d.IncludeLinks != nil {
		form.IncludeLinks = *d.IncludeLinks
	}
	for k, v := range d.Plugin {
		form.Plugin[k] = v
	}
}

// parsePluginFlags splits key=value pairs. The value may contain "=".
func parsePluginFlags(args []string) (map[string]string, error) {
	values := make(map[string]string, len(args))
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("%w: %q", errInvalidPluginFlag, arg)
		}
		values[key] = value
	}
	return values, nil
}

func fetchPluginSchema(ctx context.Context, client *api.Client) (schema.Node, error) {
	raw, err := client.PluginSchema(ctx)
	if err != nil {
		return nil, err
	}
	return schema.Parse(raw)
}

// sessionSet holds the sessions of one command so an interrupt can
// cancel all of them.
type sessionSet struct {
	mu       sync.Mutex
	sessions []*playground.Session
}

func (s *sessionSet) add(session *playground.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions = append(s.sessions, session)
}

// cancelAll cancels every busy session. Sessions without a request are
// skipped by Session.Cancel itself.
func (s *sessionSet) cancelAll(ctx context.Context) error {
	s.mu.Lock()
	sessions := append([]*playground.Session(nil), s.sessions...)
	s.mu.Unlock()

	var errs []error
	for _, session := range sessions {
		if !session.Busy() {
			continue
		}
		if err := session.Cancel(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// progressPrinter prints status changes and new results while crawls are
// watched. It is shared by concurrent sessions.
type progressPrinter struct {
	mu         sync.Mutex
	out        io.Writer
	withURL    bool
	lastStatus map[string]model.Status
}

func newProgressPrinter(out io.Writer, withURL bool) *progressPrinter {
	return &progressPrinter{
		out:        out,
		withURL:    withURL,
		lastStatus: make(map[string]model.Status),
	}
}

// observer returns an event handler for the crawl of url.
func (p *progressPrinter) observer(url string) api.EventHandler {
	return func(ev model.CrawlEvent) {
		p.mu.Lock()
		defer p.mu.Unlock()

		prefix := ""
		if p.withURL {
			prefix = "[" + url + "] "
		}

		switch {
		case ev.State != nil:
			if p.lastStatus[url] == ev.State.Status {
				return
			}
			p.lastStatus[url] = ev.State.Status
			fmt.Fprintf(p.out, "%s%s (%d documents)\n", prefix, report.StatusLabel(ev.State.Status), ev.State.NumberOfDocuments)
		case ev.Result != nil:
			title := ev.Result.Title
			if title == "" {
				title = "(untitled)"
			}
			fmt.Fprintf(p.out, "%s+ %s  %s\n", prefix, title, ev.Result.URL)
		}
	}
}
