package main

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nao1215/crawlctl/internal/config"
)

//go:embed templates/crawlctl.yaml
var configTemplate embed.FS

const configTemplatePath = "templates/crawlctl.yaml"

// configFileName is the default configuration file name.
const configFileName = config.DefaultConfigFile

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a crawlctl configuration file",
		Long: `Init writes a commented .crawlctl configuration file.

The generated file includes:
- The API URL, timeout and proxy settings
- Default crawl form values
- Commented examples of named profiles

Examples:
  # Create .crawlctl in current directory
  crawlctl init

  # Create the per-user file in the XDG config directory
  crawlctl init --xdg

  # Force overwrite existing file
  crawlctl init -f`,
		Args: cobra.NoArgs,
		RunE: runInitCmd,
	}

	cmd.Flags().StringP("output", "o", configFileName,
		"Output file path for the configuration")
	cmd.Flags().Bool("xdg", false,
		"Write to the XDG config directory instead of --output")
	cmd.Flags().BoolP("force", "f", false,
		"Overwrite existing configuration file")

	return cmd
}

func runInitCmd(cmd *cobra.Command, _ []string) error {
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	useXDG, err := cmd.Flags().GetBool("xdg")
	if err != nil {
		return err
	}
	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}

	if useXDG {
		outputPath = filepath.Join(config.XDGConfigDir(), "config.yaml")
	}

	if !force {
		if _, err := os.Stat(outputPath); err == nil {
			return fmt.Errorf("configuration file already exists: %s (use -f to overwrite)", outputPath)
		}
	}

	content, err := configTemplate.ReadFile(configTemplatePath)
	if err != nil {
		return fmt.Errorf("failed to read config template: %w", err)
	}

	if err := ensureParentDir(outputPath); err != nil {
		return err
	}

	// The file may later hold an API key.
	if err := os.WriteFile(outputPath, content, 0600); err != nil {
		return fmt.Errorf("failed to write configuration file: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created configuration file: %s\n", outputPath)
	fmt.Fprintln(out, "\nEdit this file to set:")
	fmt.Fprintln(out, "  - the API URL and team")
	fmt.Fprintln(out, "  - default crawl options")
	fmt.Fprintln(out, "  - named profiles for other environments")
	return nil
}

// ensureParentDir creates the directory of path if it has one.
func ensureParentDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	return nil
}
