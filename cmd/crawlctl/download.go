package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

// NewDownloadCmd creates the download command.
func NewDownloadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "download REQUEST_ID",
		Short: "Download all results of a crawl as one file",
		Long: `Download saves the aggregated results of a crawl request.

The file is named crawl-results-<id>.json unless --output is given.
Use "-o -" to write to stdout.

Examples:
  crawlctl download 0b7e5c1a-3f52-4d7e-9a8b-2c4f6e1d9a01
  crawlctl download -o results.json 0b7e5c1a-3f52-4d7e-9a8b-2c4f6e1d9a01`,
		Args: cobra.ExactArgs(1),
		RunE: runDownloadCmd,
	}
	cmd.Flags().StringP("output", "o", "", "Output file path (default: crawl-results-<id>.json)")
	cmd.Flags().BoolP("force", "f", false, "Overwrite an existing file")
	return cmd
}

// downloadFileName is the default file name for a crawl's results.
func downloadFileName(id string) string {
	return "crawl-results-" + id + ".json"
}

func runDownloadCmd(cmd *cobra.Command, args []string) error {
	id := args[0]

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}
	if outputPath == "" {
		outputPath = downloadFileName(id)
	}

	toStdout := outputPath == "-"
	if !toStdout && !force {
		if _, err := os.Stat(outputPath); err == nil {
			return fmt.Errorf("file already exists: %s (use -f to overwrite)", outputPath)
		}
	}

	client, err := a.client()
	if err != nil {
		return err
	}

	body, err := client.Download(commandContext(cmd), id)
	if err != nil {
		return fmt.Errorf("failed to download results of %s: %w", id, err)
	}
	defer body.Close()

	if toStdout {
		_, err := io.Copy(cmd.OutOrStdout(), body)
		return err
	}

	if err := ensureParentDir(outputPath); err != nil {
		return err
	}
	f, err := os.OpenFile(outputPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}

	n, err := io.Copy(f, body)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", outputPath, err)
	}

	a.logger.Debug("results downloaded", "request_id", id, "bytes", n)
	fmt.Fprintf(cmd.OutOrStdout(), "Saved %s (%d bytes)\n", outputPath, n)
	return nil
}
