package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/securelex/securelex/internal/config"
	"github.com/securelex/securelex/internal/fetcher"
	"github.com/securelex/securelex/internal/pipeline"
	"github.com/spf13/cobra"
)

// NewExpressCmd creates the express command.
func NewExpressCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "express [url]",
		Short: "Run a quick heuristic-only audit with stage progress",
		Long: `Express runs the heuristic rule suite without AI escalation and
reports progress stage by stage. It is meant for a fast first look at
a site before a full audit.

Examples:
  # Quick check with live progress
  securelex express example.ru

  # Machine-readable result
  securelex express --json example.ru`,
		Args: cobra.ExactArgs(1),
		RunE: runExpressCmd,
	}

	cmd.Flags().DurationP("timeout", "t", config.DefaultFetchTimeout,
		"Timeout for fetching the audited page")
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")

	return cmd
}

// runExpressCmd executes the express command.
func runExpressCmd(cmd *cobra.Command, args []string) error {
	cfg := config.NewConfig()
	cfg.Targets = args
	cfg.Level2 = false

	var err error
	cfg.FetchTimeout, err = cmd.Flags().GetDuration("timeout")
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

	return runExpress(ctx, cfg, logger)
}

// runExpress runs the express audit and prints stage progress to stderr
// so that stdout stays clean for the report itself.
func runExpress(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	f := fetcher.New(
		fetcher.WithTimeout(cfg.FetchTimeout),
		fetcher.WithLogger(logger),
	)
	engine := pipeline.NewEngine(f, nil, pipeline.WithEngineLogger(logger))

	target := cfg.Targets[0]
	total := len(pipeline.ExpressStages)

	onProgress := func(stage, passed, warning, failed int) {
		if stage < 0 || stage >= total {
			return
		}
		fmt.Fprintf(os.Stderr, "  [%d/%d] %s (пройдено %d, предупреждений %d, нарушений %d)\n",
			stage+1, total, pipeline.ExpressStages[stage], passed, warning, failed)
	}

	fmt.Fprintf(os.Stderr, "Экспресс-проверка %s...\n", target)

	auditReport, err := engine.RunExpressAudit(ctx, target, onProgress)
	if err != nil {
		var unreachable *pipeline.UnreachableError
		if errors.As(err, &unreachable) {
			return errors.New(unreachable.Message)
		}
		return err
	}

	fmt.Fprintln(os.Stderr)

	return outputReport(cfg, auditReport)
}
