package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nao1215/crawlctl/internal/database"
	"github.com/nao1215/crawlctl/internal/document"
)

// NewPreviewCmd creates the preview command.
func NewPreviewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "preview RESULT_URL",
		Short: "Show a crawl result document",
		Long: `Preview fetches the document a crawl result points to and prints its
markdown, its links or the whole JSON payload.

Fetched documents are saved to the local history. With --offline the
saved copy is shown without a network request.

Examples:
  crawlctl preview https://storage.example.net/results/abc.json
  crawlctl preview --links https://storage.example.net/results/abc.json
  crawlctl preview --raw --request <id> https://storage.example.net/results/abc.json`,
		Args: cobra.ExactArgs(1),
		RunE: runPreviewCmd,
	}
	cmd.Flags().Bool("links", false, "Print the document's links")
	cmd.Flags().Bool("raw", false, "Print the whole JSON payload")
	cmd.Flags().String("request", "", "Crawl request the document belongs to, recorded in history")
	cmd.Flags().Bool("offline", false, "Show the copy saved in history")
	cmd.Flags().Bool("no-history", false, "Do not save the document to the local history")
	return cmd
}

func runPreviewCmd(cmd *cobra.Command, args []string) error {
	resultURL := args[0]

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	showLinks, err := flags.GetBool("links")
	if err != nil {
		return err
	}
	showRaw, err := flags.GetBool("raw")
	if err != nil {
		return err
	}
	requestID, err := flags.GetString("request")
	if err != nil {
		return err
	}
	offline, err := flags.GetBool("offline")
	if err != nil {
		return err
	}

	ctx := commandContext(cmd)
	data, err := a.loadDocument(ctx, resultURL, requestID, offline)
	if err != nil {
		return err
	}

	doc, err := document.ParseBytes(data)
	if err != nil {
		return err
	}
	return printDocument(cmd.OutOrStdout(), doc, showLinks, showRaw)
}

// loadDocument fetches a result document and saves it to history, or
// reads the saved copy when offline.
func (a *app) loadDocument(ctx context.Context, resultURL, requestID string, offline bool) ([]byte, error) {
	db, err := a.history()
	if err != nil {
		return nil, err
	}
	if db != nil {
		defer db.Close()
	}

	if offline {
		if db == nil {
			return nil, errors.New("--offline needs the local history")
		}
		rec, err := db.GetDocument(ctx, resultURL)
		if err != nil {
			if errors.Is(err, database.ErrNotFound) {
				return nil, fmt.Errorf("%w (preview it online first)", err)
			}
			return nil, err
		}
		return rec.Content, nil
	}

	client, err := a.client()
	if err != nil {
		return nil, err
	}
	data, err := client.FetchResultDocument(ctx, resultURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch result document: %w", err)
	}

	if db != nil {
		hash, err := db.SaveDocument(ctx, requestID, resultURL, data)
		if err != nil {
			a.logger.Warn("failed to save document to history", "url", resultURL, "error", err)
		} else {
			a.logger.Debug("document saved to history", "url", resultURL, "sha3", hash)
		}
	}
	return data, nil
}

func printDocument(out io.Writer, doc *document.Document, showLinks, showRaw bool) error {
	switch {
	case showRaw:
		data, err := doc.JSON()
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(out, "%s\n", data)
		return err

	case showLinks:
		if len(doc.Links) == 0 {
			_, err := fmt.Fprintln(out, "No links")
			return err
		}
		_, err := fmt.Fprintln(out, strings.Join(doc.Links, "\n"))
		return err

	default:
		var sb strings.Builder
		if title := doc.Title(); title != "" {
			fmt.Fprintf(&sb, "# %s\n", title)
		}
		if u := doc.URL(); u != "" {
			fmt.Fprintf(&sb, "<%s>\n", u)
		}
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		if doc.Markdown == "" {
			sb.WriteString("(no markdown extracted, try --raw or --links)\n")
		} else {
			sb.WriteString(strings.TrimRight(doc.Markdown, "\n"))
			sb.WriteString("\n")
		}
		_, err := io.WriteString(out, sb.String())
		return err
	}
}
