package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/nao1215/linkscan/internal/config"
	"github.com/nao1215/linkscan/internal/crawler"
	"github.com/nao1215/linkscan/internal/database"
	logging "github.com/nao1215/linkscan/internal/log"
	"github.com/nao1215/linkscan/internal/model"
	"github.com/nao1215/linkscan/internal/report"
	"github.com/nao1215/linkscan/internal/transport"
)

// newLogger creates the process logger. Logs always go to stderr so that
// stdout carries only results and reports.
func newLogger(w io.Writer, cfg *config.Config) (*slog.Logger, error) {
	logger, err := logging.NewLogger(w, cfg.Verbosity, cfg.LogFormat)
	if err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}
	return logger, nil
}

// runCrawl checks every link reachable from cfg.Seed and writes the results.
// It returns ErrBrokenLinksFound when the crawl completed with broken links.
func runCrawl(ctx context.Context, cfg *config.Config, stdout, stderr io.Writer, logger *slog.Logger) error {
	seed, err := crawler.NormalizeSeed(cfg.Seed)
	if err != nil {
		return fmt.Errorf("configuration error: invalid seed %q: %w", cfg.Seed, err)
	}
	seedURL, err := url.Parse(seed)
	if err != nil {
		return fmt.Errorf("configuration error: invalid seed %q: %w", cfg.Seed, err)
	}

	site := cfg.SiteConfigs.SiteConfig(seedURL.Hostname())

	if cfg.ProxyAddress != "" {
		if status := transport.CheckProxy(ctx, cfg.ProxyAddress); status != transport.ProxyStatusOK {
			return fmt.Errorf("proxy check failed: %w (make sure a SOCKS5 proxy is running at %s)",
				status.Err(), cfg.ProxyAddress)
		}
		logger.Info("proxy connection verified", "address", cfg.ProxyAddress)
	}

	spider, err := newSpider(cfg, site, seedURL.Hostname(), logger)
	if err != nil {
		return err
	}

	// A structured report on stdout must stay parseable.
	lineOut := stdout
	if cfg.WritesStructuredReport() && cfg.ReportFile == "" {
		lineOut = stderr
	}
	lines := report.NewLineReporter(lineOut, cfg.Verbosity)
	collector := report.NewCollector(seed, time.Now())
	reporter := report.NewMultiReporter(lines, collector)

	results, err := spider.Crawl(ctx, seed)
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	progress := newProgress(stderr, cfg.Progress)
	progress.Start()
	for result := range results {
		progress.Pause()
		if err := reporter.Report(result); err != nil {
			logger.Error("failed to report result", "url", result.URL, "error", err)
		}
		progress.Update(spider.Stats())
	}
	progress.Stop()

	summary := collector.Summary(time.Now())
	interrupted := ctx.Err() != nil
	if interrupted {
		logger.Error("crawl interrupted, results are incomplete", "checked", summary.Total)
	}

	if cfg.DBFile != "" {
		// The run context may already be cancelled; an interrupted run is
		// still worth storing.
		if err := saveRun(context.WithoutCancel(ctx), cfg.DBFile, summary, logger); err != nil {
			logger.Error("failed to save run", "db", cfg.DBFile, "error", err)
		}
	}

	if err := writeSummary(cfg, stdout, summary); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	switch {
	case interrupted:
		return ErrInterrupted
	case lines.HasBroken():
		return ErrBrokenLinksFound
	default:
		return nil
	}
}

// newSpider wires the transport, fetcher and spider for one crawl.
// Site settings come from the configuration file entry of the seed's host.
func newSpider(cfg *config.Config, site config.SiteConfig, seedHost string, logger *slog.Logger) (*crawler.Spider, error) {
	clientOpts := []transport.Option{transport.WithCredentialHost(seedHost)}
	if cfg.ProxyAddress != "" {
		clientOpts = append(clientOpts, transport.WithProxy(cfg.ProxyAddress))
	}
	if site.Cookie != "" {
		clientOpts = append(clientOpts, transport.WithCookie(site.Cookie))
	}
	if len(site.Headers) > 0 {
		clientOpts = append(clientOpts, transport.WithHeaders(site.Headers))
	}
	if site.Cookie != "" || len(site.Headers) > 0 {
		logger.Debug("site settings applied", "host", seedHost, "cookie", site.Cookie, "headers", site.Headers)
	}

	client, err := transport.NewHTTPClient(clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}

	fetcher := crawler.NewHTTPFetcher(client,
		crawler.WithTimeout(cfg.Timeout),
		crawler.WithUserAgent(cfg.UserAgent),
		crawler.WithMaxBodySize(cfg.MaxBodySize),
		crawler.WithCrawlDelay(cfg.CrawlDelay),
		crawler.WithFetcherLogger(logger),
	)

	maxDepth := cfg.MaxDepth
	if site.Depth > 0 {
		maxDepth = site.Depth
	}

	return crawler.NewSpider(fetcher,
		crawler.WithConcurrency(cfg.Concurrency),
		crawler.WithDomainRestriction(cfg.RestrictToDomain),
		crawler.WithPageLimit(cfg.Limit),
		crawler.WithMaxDepth(maxDepth),
		crawler.WithIgnorePatterns(site.IgnorePatterns),
		crawler.WithFollowPatterns(site.FollowPatterns),
		crawler.WithLogger(logger),
	), nil
}

// writeSummary writes the end-of-run report. JSON and Markdown are always
// written; the plain-text summary only when a report file is given or at
// verbosity 1 and above, since broken links are already on the line stream.
func writeSummary(cfg *config.Config, stdout io.Writer, summary *model.Summary) error {
	if !cfg.WritesStructuredReport() && cfg.ReportFile == "" && cfg.Verbosity < 1 {
		return nil
	}

	output := stdout
	if cfg.ReportFile != "" {
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		// Reports may contain URLs with session tokens.
		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		output = f
	}

	var writer report.Writer
	switch {
	case cfg.JSONReport:
		writer = report.NewJSONWriter(output, report.WithPrettyPrint(), report.WithVersion(getVersion()))
	case cfg.MarkdownReport:
		writer = report.NewMarkdownWriter(output)
	default:
		writer = report.NewSimpleWriter(output, report.WithBrokenList(cfg.ReportFile != ""))
	}

	_, err := writer.Write(summary)
	return err
}

// saveRun stores the summary in the SQLite file at path.
func saveRun(ctx context.Context, path string, summary *model.Summary, logger *slog.Logger) error {
	db, err := database.Open(path, database.DefaultOptions())
	if err != nil {
		return err
	}
	defer db.Close()

	id, err := db.SaveRun(ctx, summary)
	if err != nil {
		return err
	}

	logger.Info("run saved to database", "db", path, "run_id", id, "results", summary.Total)
	return nil
}
