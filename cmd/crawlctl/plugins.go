package main

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nao1215/crawlctl/internal/schema"
)

// NewPluginsCmd creates the plugins command.
func NewPluginsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plugins",
		Short: "Show the plugin options accepted by crawl --plugin",
		Long: `Plugins fetches the plugin option schema from the API and prints each
option with its type, default and dotted key for crawl --plugin.

Examples:
  crawlctl plugins
  crawlctl plugins --json`,
		Args: cobra.NoArgs,
		RunE: runPluginsCmd,
	}
	cmd.Flags().BoolP("json", "j", false, "Print the raw JSON schema")
	return cmd
}

func runPluginsCmd(cmd *cobra.Command, _ []string) error {
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

	raw, err := client.PluginSchema(commandContext(cmd))
	if err != nil {
		return fmt.Errorf("failed to get plugin schema: %w", err)
	}

	if asJSON {
		var buf bytes.Buffer
		if err := json.Indent(&buf, raw, "", "  "); err != nil {
			return fmt.Errorf("invalid plugin schema: %w", err)
		}
		buf.WriteByte('\n')
		_, err := buf.WriteTo(cmd.OutOrStdout())
		return err
	}

	root, err := schema.Parse(raw)
	if err != nil {
		return err
	}
	if err := schema.NewTextRenderer(cmd.OutOrStdout()).Render(root); err != nil {
		return err
	}

	if leaves := schema.Leaves(root); len(leaves) > 0 {
		fmt.Fprintf(cmd.ErrOrStderr(), "\n%d options; set them with crawl --plugin KEY=VALUE\n", len(leaves))
	}
	return nil
}
