package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewCancelCmd creates the cancel command.
func NewCancelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel REQUEST_ID...",
		Short: "Cancel running crawls",
		Long: `Cancel asks the server to stop each given crawl request.

The server confirms asynchronously; watch the request to see its status
move to canceling and then cancelled.

Examples:
  crawlctl cancel 0b7e5c1a-3f52-4d7e-9a8b-2c4f6e1d9a01`,
		Args: cobra.MinimumNArgs(1),
		RunE: runCancelCmd,
	}
}

func runCancelCmd(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	client, err := a.client()
	if err != nil {
		return err
	}

	ctx := commandContext(cmd)
	failed := 0
	for _, id := range args {
		if err := client.CancelCrawl(ctx, id); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Cancel error for %s: %v\n", id, err)
			failed++
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Cancel requested: %s\n", id)
	}

	if failed > 0 {
		return fmt.Errorf("failed to cancel %d of %d crawl requests", failed, len(args))
	}
	return nil
}
