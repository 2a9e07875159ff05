package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/crawlctl/internal/api"
	"github.com/nao1215/crawlctl/internal/config"
	"github.com/nao1215/crawlctl/internal/database"
	cllog "github.com/nao1215/crawlctl/internal/log"
	"github.com/nao1215/crawlctl/internal/report"
)

// errConflictingFormats is returned when both --json and --markdown are set.
var errConflictingFormats = errors.New("--json and --markdown are mutually exclusive")

// app bundles what a command needs after configuration is resolved.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// lookupFlag finds a flag on the command or on the root's persistent flags.
func lookupFlag(cmd *cobra.Command, name string) (string, bool) {
	f := cmd.Flags().Lookup(name)
	if f == nil {
		f = cmd.Root().PersistentFlags().Lookup(name)
	}
	if f == nil {
		return "", false
	}
	return f.Value.String(), f.Changed
}

// buildConfig resolves the configuration in this order, later wins:
// defaults, the config file (defaults section, then --profile), the
// CRAWLCTL_* environment, then flags that were set explicitly.
func buildConfig(cmd *cobra.Command, lookupEnv func(string) (string, bool)) (*config.Config, error) {
	cfg := config.NewConfig()

	cfg.ConfigFilePath, _ = lookupFlag(cmd, "config")
	cfg.Profile, _ = lookupFlag(cmd, "profile")

	// An explicit --config must exist; otherwise a missing file is fine.
	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	switch {
	case configPath != "":
		file, err := config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		profile, err := file.Resolve(cfg.Profile)
		if err != nil {
			return nil, err
		}
		cfg.ApplyProfile(profile)
	case cfg.ConfigFilePath != "":
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
	case cfg.Profile != "":
		return nil, fmt.Errorf("%w: %s (no configuration file found)", config.ErrUnknownProfile, cfg.Profile)
	}

	cfg.ApplyEnv(lookupEnv)

	if v, changed := lookupFlag(cmd, "api-url"); changed {
		cfg.APIURL = v
	}
	if v, changed := lookupFlag(cmd, "api-key"); changed {
		cfg.APIKey = v
	}
	if v, changed := lookupFlag(cmd, "team"); changed {
		cfg.TeamID = v
	}
	if v, changed := lookupFlag(cmd, "proxy"); changed {
		cfg.Proxy = v
	}
	if v, changed := lookupFlag(cmd, "timeout"); changed {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid --timeout: %w", err)
		}
		cfg.Timeout = d
	}
	if v, _ := lookupFlag(cmd, "log-format"); v != "" {
		cfg.LogFormat = v
	}
	cfg.Verbose = getVerboseFlag(cmd)

	if err := applyReportFlags(cmd, cfg); err != nil {
		return nil, err
	}

	if cmd.Flags().Lookup("batch") != nil {
		n, err := cmd.Flags().GetInt("batch")
		if err != nil {
			return nil, err
		}
		cfg.BatchSize = n
	}

	cfg.DBDir = config.XDGDataDir()
	if v, _ := lookupFlag(cmd, "data-dir"); v != "" {
		cfg.DBDir = v
	}
	if cmd.Flags().Lookup("no-history") != nil {
		noHistory, err := cmd.Flags().GetBool("no-history")
		if err != nil {
			return nil, err
		}
		if noHistory {
			cfg.DBDir = ""
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}
	return cfg, nil
}

// newApp resolves the configuration and sets up logging.
func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := buildConfig(cmd, os.LookupEnv)
	if err != nil {
		return nil, err
	}
	logger := cllog.NewLogger(cmd.ErrOrStderr(), cfg.LogFormat, cfg.Verbose)
	slog.SetDefault(logger)

	logger.Debug("configuration resolved",
		"api_url", cfg.APIURL,
		"profile", cfg.Profile,
		"format", cfg.Format,
		"history", cfg.DBDir != "",
	)
	return &app{cfg: cfg, logger: logger}, nil
}

// client creates an API client. It fails without an API key.
func (a *app) client() (*api.Client, error) {
	if err := a.cfg.RequireAPIKey(); err != nil {
		return nil, fmt.Errorf("configuration error: %w (set %s or use --api-key)", err, config.EnvAPIKey)
	}

	opts := []api.Option{
		api.WithAPIKey(a.cfg.APIKey),
		api.WithTeam(a.cfg.TeamID),
		api.WithHeaders(a.cfg.Headers),
		api.WithUserAgent(a.cfg.UserAgent),
		api.WithTimeout(a.cfg.Timeout),
		api.WithLogger(a.logger),
	}
	if a.cfg.Proxy != "" {
		opts = append(opts, api.WithProxy(a.cfg.Proxy))
	}

	client, err := api.NewClient(a.cfg.APIURL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create API client: %w", err)
	}
	return client, nil
}

// history opens the local history database, or returns nil when history
// is disabled.
func (a *app) history() (*database.HistoryDB, error) {
	if a.cfg.DBDir == "" {
		return nil, nil
	}
	db, err := database.Open(a.cfg.DBDir, database.DefaultOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	a.logger.Debug("history database opened", "path", db.Path())
	return db, nil
}

// addReportFlags adds the output format flags shared by commands that
// print a report.
func addReportFlags(cmd *cobra.Command) {
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")
}

func applyReportFlags(cmd *cobra.Command, cfg *config.Config) error {
	if cmd.Flags().Lookup("markdown") == nil {
		return nil
	}
	asJSON, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	asMarkdown, err := cmd.Flags().GetBool("markdown")
	if err != nil {
		return err
	}
	switch {
	case asJSON && asMarkdown:
		return errConflictingFormats
	case asJSON:
		cfg.Format = config.FormatJSON
	case asMarkdown:
		cfg.Format = config.FormatMarkdown
	}

	cfg.OutputFile, err = cmd.Flags().GetString("output")
	return err
}

// withReport opens the report destination and calls fn with a Writer in
// the configured format.
func (a *app) withReport(cmd *cobra.Command, fn func(report.Writer) error) error {
	var output io.Writer = cmd.OutOrStdout()

	if a.cfg.OutputFile != "" {
		if err := ensureParentDir(a.cfg.OutputFile); err != nil {
			return err
		}
		// Reports may list private URLs, so they are readable by the owner only.
		f, err := os.OpenFile(a.cfg.OutputFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		output = f
	}

	if err := fn(newReportWriter(a.cfg, output)); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

func newReportWriter(cfg *config.Config, output io.Writer) report.Writer {
	switch cfg.Format {
	case config.FormatJSON:
		return report.NewJSONWriter(output, report.WithPrettyPrint())
	case config.FormatMarkdown:
		return report.NewMarkdownWriter(output)
	default:
		return report.NewSimpleWriter(output, report.WithVerbose(cfg.Verbose))
	}
}

// commandContext returns the command's context, or Background when the
// command was not started through Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
