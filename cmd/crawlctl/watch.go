package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nao1215/crawlctl/internal/model"
	"github.com/nao1215/crawlctl/internal/playground"
	"github.com/nao1215/crawlctl/internal/report"
)

// NewWatchCmd creates the watch command.
func NewWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch REQUEST_ID",
		Short: "Follow the status stream of an existing crawl",
		Long: `Watch subscribes to the status stream of a crawl request that was
submitted earlier, for example with crawl --detach, and prints a summary
when the stream ends.

Ctrl-C stops watching. It does not cancel the crawl; use the cancel
command for that.

Examples:
  crawlctl watch 0b7e5c1a-3f52-4d7e-9a8b-2c4f6e1d9a01
  crawlctl watch --json 0b7e5c1a-3f52-4d7e-9a8b-2c4f6e1d9a01`,
		Args: cobra.ExactArgs(1),
		RunE: runWatchCmd,
	}
	cmd.Flags().BoolP("quiet", "q", false, "Do not print progress while watching")
	cmd.Flags().Bool("no-history", false, "Do not save the crawl to the local history")
	addReportFlags(cmd)
	return cmd
}

func runWatchCmd(cmd *cobra.Command, args []string) error {
	id := args[0]

	a, err := newApp(cmd)
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

	ctx, cancel := context.WithCancel(commandContext(cmd))
	defer cancel()
	stop := handleInterrupts(ctx, cancel, nil, a.logger)
	defer stop()

	// Fetching first rejects unknown ids before the stream is opened.
	req, err := client.GetCrawlRequest(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get crawl request %s: %w", id, err)
	}

	opts := []playground.SessionOption{playground.WithLogger(a.logger)}
	if !quiet {
		opts = append(opts, playground.WithObserver(newProgressPrinter(cmd.ErrOrStderr(), false).observer(req.URL)))
	}
	session := playground.NewSession(client, opts...)
	if err := session.Attach(id); err != nil {
		return err
	}
	session.Tracker().SetRequest(*req)

	watchErr := session.Watch(ctx)
	summary := session.Summary(watchErr)

	if err := a.saveSummary(summary); err != nil {
		a.logger.Warn("failed to save crawl to history", "request_id", id, "error", err)
	}

	if err := a.withReport(cmd, func(w report.Writer) error {
		return w.WriteSummary(summary)
	}); err != nil {
		return err
	}
	if errors.Is(watchErr, context.Canceled) {
		// Stopped by the user.
		return nil
	}
	return watchErr
}

// saveSummary stores a summary in the history, if enabled. It runs after
// the command context may have been cancelled, so it uses its own.
func (a *app) saveSummary(summary *model.CrawlSummary) error {
	db, err := a.history()
	if err != nil || db == nil {
		return err
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Timeout)
	defer cancel()
	return db.SaveSummary(ctx, summary)
}
