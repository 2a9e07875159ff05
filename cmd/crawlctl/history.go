package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nao1215/crawlctl/internal/database"
	"github.com/nao1215/crawlctl/internal/model"
	"github.com/nao1215/crawlctl/internal/report"
)

// defaultHistoryLimit is the number of requests history lists by default.
const defaultHistoryLimit = 20

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [REQUEST_ID]",
		Short: "Show crawls saved in the local history",
		Long: `History lists the crawls this machine has submitted or watched, newest
first. With a request id it prints that crawl's saved summary and results.

History works offline; no API key is needed.

Examples:
  crawlctl history
  crawlctl history --limit 0
  crawlctl history --markdown 0b7e5c1a-3f52-4d7e-9a8b-2c4f6e1d9a01`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}
	cmd.Flags().IntP("limit", "l", defaultHistoryLimit, "Number of requests to list (0 for all)")
	addReportFlags(cmd)
	return cmd
}

func runHistoryCmd(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}

	db, err := a.history()
	if err != nil {
		return err
	}
	if db == nil {
		return errors.New("local history is disabled")
	}
	defer db.Close()

	ctx := commandContext(cmd)

	if len(args) == 0 {
		records, err := db.ListRequests(ctx, limit)
		if err != nil {
			return err
		}
		requests := make([]model.CrawlRequest, len(records))
		for i, rec := range records {
			requests[i] = rec.Request
		}
		return a.withReport(cmd, func(w report.Writer) error {
			return w.WriteRequests(requests)
		})
	}

	id := args[0]
	rec, err := db.GetRequest(ctx, id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return fmt.Errorf("%w (crawls appear in history after crawl or watch)", err)
		}
		return err
	}
	results, err := db.ListResults(ctx, id)
	if err != nil {
		return err
	}

	summary := &model.CrawlSummary{
		Request:          &rec.Request,
		Results:          results,
		Elapsed:          rec.Elapsed,
		CancelledLocally: rec.CancelledLocally,
		Error:            rec.Error,
	}
	return a.withReport(cmd, func(w report.Writer) error {
		return w.WriteSummary(summary)
	})
}
