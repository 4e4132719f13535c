package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/nao1215/linkscan/internal/config"
	"github.com/spf13/cobra"
)

// Process exit codes.
const (
	exitOK     = 0
	exitBroken = 1
	exitError  = 2
)

var (
	// ErrBrokenLinksFound is returned by the root command when the crawl
	// completed and at least one link is broken.
	ErrBrokenLinksFound = errors.New("broken links found")

	// ErrInterrupted is returned when the crawl was stopped by a signal
	// before the frontier was exhausted.
	ErrInterrupted = errors.New("crawl interrupted")
)

// NewRootCmd creates the root command. The root command is the crawl itself.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "linkscan [flags] <seed>",
		Short: "Find broken links on a website",
		Long: `linkscan crawls a website starting from a seed URL and checks every link it finds.

A link is broken when the server answers with status 400 or above, or when no
response arrives at all (DNS failure, refused connection, TLS error, timeout).
Links found on broken pages are still followed when the page has an HTML body.

Exit codes:
  0  the crawl completed and no link is broken
  1  the crawl completed and at least one link is broken
  2  invalid arguments, startup failure, or interrupted crawl

Examples:
  # Check a site, printing broken links only
  linkscan example.com

  # Stay on the seed's host and stop after 500 URLs
  linkscan -r -l 500 https://example.com/

  # Print every checked link and write a JSON report
  linkscan -v --json -o report.json https://example.com/

  # Store the run for later comparison
  linkscan --db links.db https://example.com/`,
		Args:          cobra.ExactArgs(1),
		RunE:          runRootCmd,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Crawl scope flags
	cmd.Flags().BoolP("restrict-on-domain", "r", false,
		"Only crawl URLs on the seed's host")
	cmd.Flags().IntP("limit", "l", config.DefaultLimit,
		"Maximum number of URLs to check (0 = unlimited)")
	cmd.Flags().IntP("depth", "d", config.DefaultMaxDepth,
		"Maximum link depth from the seed")

	// Request flags
	cmd.Flags().IntP("concurrency", "c", config.DefaultConcurrency,
		"Number of concurrent requests")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for each request")
	cmd.Flags().Duration("delay", config.DefaultCrawlDelay,
		"Minimum delay between requests to the same host")
	cmd.Flags().String("user-agent", config.DefaultUserAgent,
		"User-Agent header sent with every request")
	cmd.Flags().String("proxy", "",
		"SOCKS5 proxy address (e.g., 127.0.0.1:9050)")

	// Configuration file
	cmd.Flags().String("config", "",
		"Configuration file path (default: .linkscan in current or home directory)")

	// Output flags
	cmd.Flags().CountP("verbose", "v",
		"Increase verbosity (-v shows every link, -vv adds debug logs)")
	cmd.Flags().BoolP("json", "j", false,
		"Write a JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Write a Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write the report to the specified file path (creates directories if needed)")
	cmd.Flags().String("db", "",
		"Store the run in the given SQLite file")
	cmd.Flags().String("log-format", config.LogFormatText,
		"Log format: text, json or pretty")
	cmd.Flags().Bool("progress", false,
		"Show a progress spinner on stderr")

	cmd.AddCommand(NewCompareCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command with the process arguments and returns the
// exit code.
func Execute() int {
	return run(os.Args[1:], os.Stdout, os.Stderr)
}

// run executes the CLI with args and maps the outcome to an exit code.
func run(args []string, stdout, stderr io.Writer) int {
	cmd := NewRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(context.Background())
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, ErrBrokenLinksFound):
		return exitBroken
	default:
		fmt.Fprintf(stderr, "linkscan: %v\n", err)
		return exitError
	}
}

func runRootCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger, err := newLogger(cmd.ErrOrStderr(), cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runCrawl(ctx, cfg, cmd.OutOrStdout(), cmd.ErrOrStderr(), logger)
}

// buildConfig creates a Config from cobra command flags and the
// configuration file.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	flags := cmd.Flags()

	var err error

	if cfg.RestrictToDomain, err = flags.GetBool("restrict-on-domain"); err != nil {
		return nil, err
	}
	if cfg.Limit, err = flags.GetInt("limit"); err != nil {
		return nil, err
	}
	if cfg.MaxDepth, err = flags.GetInt("depth"); err != nil {
		return nil, err
	}
	if cfg.Concurrency, err = flags.GetInt("concurrency"); err != nil {
		return nil, err
	}
	if cfg.Timeout, err = flags.GetDuration("timeout"); err != nil {
		return nil, err
	}
	if cfg.CrawlDelay, err = flags.GetDuration("delay"); err != nil {
		return nil, err
	}
	if cfg.UserAgent, err = flags.GetString("user-agent"); err != nil {
		return nil, err
	}
	if cfg.ProxyAddress, err = flags.GetString("proxy"); err != nil {
		return nil, err
	}
	if cfg.ConfigFilePath, err = flags.GetString("config"); err != nil {
		return nil, err
	}
	if cfg.Verbosity, err = flags.GetCount("verbose"); err != nil {
		return nil, err
	}
	if cfg.JSONReport, err = flags.GetBool("json"); err != nil {
		return nil, err
	}
	if cfg.MarkdownReport, err = flags.GetBool("markdown"); err != nil {
		return nil, err
	}
	if cfg.ReportFile, err = flags.GetString("output"); err != nil {
		return nil, err
	}
	if cfg.DBFile, err = flags.GetString("db"); err != nil {
		return nil, err
	}
	if cfg.LogFormat, err = flags.GetString("log-format"); err != nil {
		return nil, err
	}
	if cfg.Progress, err = flags.GetBool("progress"); err != nil {
		return nil, err
	}

	// An explicitly named config file must exist; the default locations
	// are optional.
	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	switch {
	case configPath != "":
		cfg.SiteConfigs, err = config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	case cfg.ConfigFilePath != "":
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
	}

	cfg.Seed = args[0]

	return cfg, nil
}
