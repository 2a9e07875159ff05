package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nao1215/crawlctl/internal/config"
)

// NewRootCmd creates the root command for crawlctl.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawlctl",
		Short: "Submit and follow crawl requests from the terminal",
		Long: `crawlctl is a client for a crawl API.

It submits crawl requests, follows their status stream live, cancels
running crawls and keeps a local history of what it watched.

Connection settings are read from, in increasing order of precedence:
the .crawlctl config file, the CRAWLCTL_API_URL, CRAWLCTL_API_KEY and
CRAWLCTL_TEAM_ID environment variables, and the flags below.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	pf := cmd.PersistentFlags()
	pf.BoolP("verbose", "v", false, "Enable verbose logging")
	pf.StringP("config", "c", "",
		"Configuration file path (default: .crawlctl in current, XDG config or home directory)")
	pf.StringP("profile", "P", "", "Profile from the configuration file")
	pf.String("api-url", config.DefaultAPIURL, "Base URL of the crawl API")
	pf.String("api-key", "", "API key (prefer "+config.EnvAPIKey+")")
	pf.String("team", "", "Team ID to act on")
	pf.String("proxy", "", "SOCKS5 proxy URL, e.g. socks5://127.0.0.1:1080")
	pf.DurationP("timeout", "t", config.DefaultTimeout, "Timeout for API calls (not the status stream)")
	pf.String("data-dir", "", "Directory of the local history database (default: XDG data directory)")
	pf.String("log-format", config.DefaultLogFormat, "Log format on stderr: text or json")

	// Add subcommands
	cmd.AddCommand(NewCrawlCmd())
	cmd.AddCommand(NewWatchCmd())
	cmd.AddCommand(NewCancelCmd())
	cmd.AddCommand(NewListCmd())
	cmd.AddCommand(NewResultsCmd())
	cmd.AddCommand(NewDownloadCmd())
	cmd.AddCommand(NewPreviewCmd())
	cmd.AddCommand(NewUsageCmd())
	cmd.AddCommand(NewPluginsCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
