package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/securelex/securelex/internal/config"
	"github.com/securelex/securelex/internal/crawler"
	"github.com/securelex/securelex/internal/fetcher"
	"github.com/spf13/cobra"
)

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl [url]",
		Short: "Run a diagnostic crawl over a website",
		Long: `Crawl walks a bounded set of pages on the site (sitemap first, then
same-host links) and reports which compliance markers were found
anywhere on the site: privacy policy, cookie banner, consent forms,
and operator details.

The crawl is budgeted: it stops after a fixed number of pages or a
wall-clock limit, whichever comes first.

Examples:
  # Diagnostic crawl with defaults
  securelex crawl example.ru

  # Wider crawl with a bigger time budget
  securelex crawl --max-pages 60 --budget 45s example.ru`,
		Args: cobra.ExactArgs(1),
		RunE: runCrawlCmd,
	}

	cmd.Flags().IntP("max-pages", "p", config.DefaultCrawlMaxPages,
		"Maximum number of pages to visit")
	cmd.Flags().Duration("budget", config.DefaultCrawlBudget,
		"Wall-clock limit for the whole crawl")
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")

	return cmd
}

// runCrawlCmd executes the crawl command.
func runCrawlCmd(cmd *cobra.Command, args []string) error {
	cfg := config.NewConfig()
	cfg.Targets = args

	var err error
	cfg.CrawlMaxPages, err = cmd.Flags().GetInt("max-pages")
	if err != nil {
		return err
	}
	cfg.CrawlBudget, err = cmd.Flags().GetDuration("budget")
	if err != nil {
		return err
	}
	cfg.JSONReport, err = cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown")
	if err != nil {
		return err
	}
	cfg.ReportFile, err = cmd.Flags().GetString("output")
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	cfg.Verbose = getVerboseFlag(cmd)
	logger := setupLogger(cfg.Verbose)
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, cancelling...")
		cancel()
	}()

	return runCrawl(ctx, cfg, logger)
}

// runCrawl executes the diagnostic crawl.
func runCrawl(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	// Crawls visit many pages, so each fetch gets a tighter timeout
	// than a single-page audit.
	f := fetcher.New(
		fetcher.WithTimeout(config.DefaultCrawlFetchTimeout),
		fetcher.WithLogger(logger),
	)

	c := crawler.New(f,
		crawler.WithMaxPages(cfg.CrawlMaxPages),
		crawler.WithBudget(cfg.CrawlBudget),
		crawler.WithCrawlerLogger(logger),
	)

	target := cfg.Targets[0]

	fmt.Fprintf(os.Stderr, "Обход %s (до %d страниц)...\n", target, cfg.CrawlMaxPages)
	startTime := time.Now()

	result := c.Crawl(ctx, target)

	elapsed := time.Since(startTime)
	fmt.Fprintf(os.Stderr, "Обход завершен за %s\n\n", elapsed.Round(time.Millisecond))

	output, closeOutput, err := openOutput(cfg.ReportFile)
	if err != nil {
		return err
	}
	defer closeOutput() //nolint:errcheck // Best effort cleanup

	writer := newReportWriter(cfg, output)
	_, err = writer.WriteCrawl(result)
	return err
}
