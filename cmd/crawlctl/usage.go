package main

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nao1215/crawlctl/internal/model"
)

// NewUsageCmd creates the usage command.
func NewUsageCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "usage",
		Short: "Show the team's usage counters",
		Long: `Usage prints the crawl and page credit counters of the team.

Examples:
  crawlctl usage
  crawlctl usage --json`,
		Args: cobra.NoArgs,
		RunE: runUsageCmd,
	}
	cmd.Flags().BoolP("json", "j", false, "Print the full usage response as JSON")
	return cmd
}

func runUsageCmd(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	asJSON, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	client, err := a.client()
	if err != nil {
		return err
	}

	usage, err := client.Usage(commandContext(cmd))
	if err != nil {
		return fmt.Errorf("failed to get usage: %w", err)
	}

	if asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(usage.Raw)
	}
	return printUsage(cmd.OutOrStdout(), usage)
}

func printUsage(out io.Writer, u *model.Usage) error {
	var sb strings.Builder

	rows := []struct {
		label string
		value int
	}{
		{"Crawls", u.TotalCrawls},
		{"  finished", u.FinishedCrawls},
		{"  failed", u.FailedCrawls},
		{"  cancelled", u.CancelledCrawls},
		{"Documents", u.TotalDocuments},
		{"Page credits", u.TotalPageCredits},
		{"  used", u.UsedPageCredits},
		{"  remaining", u.RemainingPageCredits},
	}
	for _, r := range rows {
		fmt.Fprintf(&sb, "%-16s %d\n", r.label, r.value)
	}

	// Counters this client does not know about yet.
	known := []string{
		"total_crawls", "total_documents", "finished_crawls", "failed_crawls",
		"cancelled_crawls", "total_page_credits", "used_page_credits", "remaining_page_credits",
	}
	extra := make([]string, 0)
	for k := range u.Raw {
		if !slices.Contains(known, k) {
			extra = append(extra, k)
		}
	}
	slices.Sort(extra)
	for _, k := range extra {
		fmt.Fprintf(&sb, "%-16s %s\n", k, string(u.Raw[k]))
	}

	_, err := io.WriteString(out, sb.String())
	return err
}
