package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nao1215/crawlctl/internal/config"
	"github.com/nao1215/crawlctl/internal/report"
)

// NewListCmd creates the list command.
func NewListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List crawl requests of the team",
		Long: `List prints one page of the team's crawl requests, newest first.

Examples:
  crawlctl list
  crawlctl list --page 2
  crawlctl list --markdown -o requests.md`,
		Args: cobra.NoArgs,
		RunE: runListCmd,
	}
	cmd.Flags().IntP("page", "p", config.DefaultPage, "Page number, starting at 1")
	addReportFlags(cmd)
	return cmd
}

func runListCmd(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	page, err := cmd.Flags().GetInt("page")
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

	list, err := client.ListCrawlRequests(commandContext(cmd), page)
	if err != nil {
		return fmt.Errorf("failed to list crawl requests: %w", err)
	}

	if err := a.withReport(cmd, func(w report.Writer) error {
		return w.WriteRequests(list.Results)
	}); err != nil {
		return err
	}

	if a.cfg.Format == config.FormatText {
		pages := list.TotalPages(config.DefaultResultsPageSize)
		fmt.Fprintf(cmd.ErrOrStderr(), "Page %d of %d (%d requests total)\n", page, max(pages, 1), list.Count)
	}
	return nil
}
