package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nao1215/crawlctl/internal/api"
	"github.com/nao1215/crawlctl/internal/config"
	"github.com/nao1215/crawlctl/internal/model"
	"github.com/nao1215/crawlctl/internal/report"
)

// NewResultsCmd creates the results command.
func NewResultsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "results REQUEST_ID",
		Short: "List the results of a crawl request",
		Long: `Results fetches the stored results of a crawl request page by page,
without opening the status stream.

Examples:
  crawlctl results 0b7e5c1a-3f52-4d7e-9a8b-2c4f6e1d9a01
  crawlctl results --all --json 0b7e5c1a-3f52-4d7e-9a8b-2c4f6e1d9a01`,
		Args: cobra.ExactArgs(1),
		RunE: runResultsCmd,
	}
	cmd.Flags().IntP("page", "p", config.DefaultPage, "Page number, starting at 1")
	cmd.Flags().Bool("all", false, "Fetch every page")
	addReportFlags(cmd)
	return cmd
}

func runResultsCmd(cmd *cobra.Command, args []string) error {
	id := args[0]

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	page, err := cmd.Flags().GetInt("page")
	if err != nil {
		return err
	}
	all, err := cmd.Flags().GetBool("all")
	if err != nil {
		return err
	}
	if page < 1 {
		return fmt.Errorf("invalid page %d: pages start at 1", page)
	}
	client, err := a.client()
	if err != nil {
		return err
	}

	ctx := commandContext(cmd)
	req, err := client.GetCrawlRequest(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get crawl request %s: %w", id, err)
	}

	results, err := fetchResults(ctx, client, id, page, all)
	if err != nil {
		return err
	}

	return a.withReport(cmd, func(w report.Writer) error {
		return w.WriteSummary(&model.CrawlSummary{Request: req, Results: results})
	})
}

// fetchResults returns one page of results, or every page from page on
// when all is set.
func fetchResults(ctx context.Context, client *api.Client, id string, page int, all bool) ([]model.CrawlResult, error) {
	results := make([]model.CrawlResult, 0)
	for {
		list, err := client.ListResults(ctx, id, page)
		if err != nil {
			return nil, fmt.Errorf("failed to list results of %s: %w", id, err)
		}
		results = append(results, list.Results...)
		if !all || !list.HasNext() {
			return results, nil
		}
		page++
	}
}
