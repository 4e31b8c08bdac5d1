package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/securelex/securelex/internal/ai"
	"github.com/securelex/securelex/internal/config"
	"github.com/securelex/securelex/internal/database"
	"github.com/securelex/securelex/internal/fetcher"
	seclog "github.com/securelex/securelex/internal/log"
	"github.com/securelex/securelex/internal/model"
	"github.com/securelex/securelex/internal/pipeline"
	"github.com/securelex/securelex/internal/registry"
	"github.com/securelex/securelex/internal/report"
	"github.com/spf13/cobra"
)

// NewAuditCmd creates the audit command.
func NewAuditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit [url]",
		Short: "Audit a website for compliance with Russian regulations",
		Long: `Audit fetches a website and checks it against compliance criteria:

- Transport security (HTTPS, certificate validity, security headers)
- ФЗ-152: privacy policy, consent checkboxes, operator details
- ФЗ-149: required legal documents and contact information
- Cookie consent banner

With --level2 (the default), the collected evidence is escalated to an
AI provider for a second verdict. Provider credentials come from the
configuration file or from the environment (GIGACHAT_API_KEY,
OPENAI_API_KEY, YANDEX_IAM_TOKEN).

Examples:
  # Audit a single site
  securelex audit example.ru

  # Audit several sites concurrently
  securelex audit site1.ru site2.ru site3.ru

  # Heuristic checks only, no AI escalation
  securelex audit --level2=false example.ru

  # Race all configured providers and keep the best answer
  securelex audit --ai-mode tri_hybrid example.ru

  # Write a Markdown report to a file
  securelex audit --markdown -o report.md example.ru

Configuration file (.securelex) example:
  targets:
    - example.ru
  ai_mode: hybrid
  credentials:
    gigachat_key: "..."
    openai_key: "..."`,
		Args: cobra.ArbitraryArgs,
		RunE: runAuditCmd,
	}

	// Audit behavior flags
	cmd.Flags().DurationP("timeout", "t", config.DefaultFetchTimeout,
		"Timeout for fetching the audited page")
	cmd.Flags().Bool("level2", true,
		"Escalate collected evidence to an AI provider")
	cmd.Flags().StringP("ai-mode", "a", string(ai.ModeGigaChatOnly),
		"Provider policy: none, gigachat_only, openai_only, yandex_only, hybrid, tri_hybrid")

	// Batch auditing flags
	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize,
		"Number of concurrent audits")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .securelex in current or home directory)")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")

	return cmd
}

// runAuditCmd executes the audit command.
func runAuditCmd(cmd *cobra.Command, args []string) error {
	// Build config from flags and the configuration file
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	if !ai.Mode(cfg.AIMode).IsValid() {
		return fmt.Errorf("unknown ai mode %q", cfg.AIMode)
	}

	// Set up structured logging
	cfg.Verbose = getVerboseFlag(cmd)
	logger := setupLogger(cfg.Verbose)
	slog.SetDefault(logger)

	// Set up context with signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, cancelling...")
		cancel()
	}()

	return runAudit(ctx, cfg, logger)
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

// buildConfig creates a Config from cobra command flags and the
// configuration file. File values fill gaps; flags that were set
// explicitly win over the file.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()

	var err error

	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// Load the configuration file.
	// If the user explicitly specified a path, it must exist.
	// If no path was specified, silently continue when no file is found.
	if cfg.ConfigFilePath != "" {
		f, err := config.LoadConfigFile(cfg.ConfigFilePath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", cfg.ConfigFilePath, err)
		}
		cfg.ApplyFile(f)
	} else if path, findErr := config.FindConfigFile(); findErr == nil {
		f, err := config.LoadConfigFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
		cfg.ApplyFile(f)
	}

	cfg.FetchTimeout, err = cmd.Flags().GetDuration("timeout")
	if err != nil {
		return nil, err
	}

	// level2, ai-mode and batch have file-level defaults, so the flag
	// only wins when the user set it explicitly.
	if cmd.Flags().Changed("level2") {
		cfg.Level2, err = cmd.Flags().GetBool("level2")
		if err != nil {
			return nil, err
		}
	}
	if cmd.Flags().Changed("ai-mode") {
		cfg.AIMode, err = cmd.Flags().GetString("ai-mode")
		if err != nil {
			return nil, err
		}
	}
	if cmd.Flags().Changed("batch") {
		cfg.BatchSize, err = cmd.Flags().GetInt("batch")
		if err != nil {
			return nil, err
		}
	}

	cfg.JSONReport, err = cmd.Flags().GetBool("json")
	if err != nil {
		return nil, err
	}

	cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown")
	if err != nil {
		return nil, err
	}

	cfg.ReportFile, err = cmd.Flags().GetString("output")
	if err != nil {
		return nil, err
	}

	// Positional arguments win over file targets
	if len(args) > 0 {
		cfg.Targets = args
	}

	// Registry cache lives in the XDG data directory
	cfg.DBDir = config.XDGDataDir()

	// Fill missing credentials from the environment
	cfg.ResolveCredentials()

	return cfg, nil
}

// setupLogger creates a structured logger based on verbosity setting.
// The handler redacts credentials and tokens before they reach the
// terminal.
func setupLogger(verbose bool) *slog.Logger {
	return seclog.NewSecureLogger(os.Stderr, verbose)
}

// runAudit executes the audit.
func runAudit(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	logger.Info("starting audit",
		"targets", cfg.Targets,
		"level2", cfg.Level2,
		"aiMode", cfg.AIMode,
		"batchSize", cfg.BatchSize,
	)

	// Open the registry cache database. A broken cache degrades the
	// cross-check to network-only lookups instead of failing the audit.
	var cache registry.Cache
	db, err := database.Open(cfg.DBDir, database.DefaultOptions())
	if err != nil {
		logger.Warn("registry cache unavailable, lookups will hit the network", "error", err)
	} else {
		defer db.Close()
		cache = db
		logger.Info("registry cache opened", "dir", cfg.DBDir)
	}

	checker := registry.NewChecker(cache,
		registry.WithCacheTTL(config.RegistryCacheTTL),
		registry.WithCheckerLogger(logger),
	)

	engine := buildEngine(cfg, logger, checker)

	// Use the batch processor for parallel audits if multiple targets
	if len(cfg.Targets) > 1 && cfg.BatchSize > 1 {
		return runBatchAudit(ctx, cfg, engine, logger)
	}

	// Single target or sequential auditing
	return runSequentialAudit(ctx, cfg, engine, logger)
}

// buildEngine assembles the audit engine from the configuration.
func buildEngine(cfg *config.Config, logger *slog.Logger, checker *registry.Checker) *pipeline.Engine {
	f := fetcher.New(
		fetcher.WithTimeout(cfg.FetchTimeout),
		fetcher.WithLogger(logger),
	)

	creds := cfg.Credentials

	yandexOpts := []ai.YandexGPTOption{ai.WithYandexLogger(logger)}
	if creds.YandexEndpoint != "" {
		yandexOpts = append(yandexOpts, ai.WithYandexEndpoint(creds.YandexEndpoint))
	}
	if creds.YandexModelURI != "" {
		yandexOpts = append(yandexOpts, ai.WithYandexModelURI(creds.YandexModelURI))
	}

	orchestrator := ai.NewOrchestrator(
		ai.NewGigaChat(creds.GigaChatKey, ai.WithGigaChatLogger(logger)),
		ai.NewOpenAI(creds.OpenAIKey, ai.WithOpenAILogger(logger)),
		ai.NewYandexGPT(creds.YandexIAMToken, yandexOpts...),
		ai.WithProviderTimeout(config.DefaultProviderTimeout),
		ai.WithOrchestratorLogger(logger),
	)

	return pipeline.NewEngine(f, orchestrator,
		pipeline.WithRegistryChecker(checker),
		pipeline.WithEngineLogger(logger),
	)
}

// auditOptions converts the configuration into engine options.
func auditOptions(cfg *config.Config) pipeline.Options {
	return pipeline.Options{
		Level2: cfg.Level2,
		AIMode: ai.Mode(cfg.AIMode),
	}
}

// runSequentialAudit audits targets one at a time.
func runSequentialAudit(ctx context.Context, cfg *config.Config, engine *pipeline.Engine, logger *slog.Logger) error {
	for _, target := range cfg.Targets {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		fmt.Printf("Проверка %s...\n", target)
		startTime := time.Now()

		auditReport, err := engine.RunAudit(ctx, target, auditOptions(cfg))
		if err != nil {
			logger.Error("audit failed", "target", target, "error", err)

			var unreachable *pipeline.UnreachableError
			if errors.As(err, &unreachable) {
				fmt.Fprintf(os.Stderr, "%s: %s\n\n", target, unreachable.Message)
			} else {
				fmt.Fprintf(os.Stderr, "Ошибка проверки %s: %v\n\n", target, err)
			}
			continue
		}

		elapsed := time.Since(startTime)
		fmt.Printf("Проверка завершена за %s\n\n", elapsed.Round(time.Millisecond))

		if err := outputReport(cfg, auditReport); err != nil {
			logger.Error("report failed", "target", target, "error", err)
		}
	}

	return nil
}

// runBatchAudit audits multiple targets concurrently using BatchProcessor.
func runBatchAudit(ctx context.Context, cfg *config.Config, engine *pipeline.Engine, logger *slog.Logger) error {
	fmt.Printf("Пакетная проверка %d сайтов (параллельно: %d)...\n\n",
		len(cfg.Targets), cfg.BatchSize)

	startTime := time.Now()

	bp := pipeline.NewBatchProcessor(engine,
		pipeline.WithConcurrency(cfg.BatchSize),
		pipeline.WithBatchLogger(logger),
		pipeline.WithAuditOptions(auditOptions(cfg)),
	)

	// Process with callback for streaming output
	var mu sync.Mutex
	err := bp.ProcessBatchWithCallback(ctx, cfg.Targets, func(auditReport *model.AuditReport, index int) {
		mu.Lock()
		defer mu.Unlock()

		fmt.Printf("[%d/%d] Проверка завершена: %s\n", index+1, len(cfg.Targets), auditReport.URL)

		if err := outputReport(cfg, auditReport); err != nil {
			logger.Error("report failed", "target", auditReport.URL, "error", err)
		}
	})

	elapsed := time.Since(startTime)
	fmt.Printf("\nПакетная проверка завершена за %s\n", elapsed.Round(time.Millisecond))

	return err
}

// openOutput returns the report destination. A non-empty path gets a
// fresh file with owner-only permissions; otherwise stdout is used.
func openOutput(path string) (io.Writer, func() error, error) {
	if path == "" {
		return os.Stdout, func() error { return nil }, nil
	}

	// Create directories if they don't exist
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	// Reports may contain operator details and page fragments that
	// should only be readable by the owner.
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, f.Close, nil
}

// newReportWriter selects the report writer for the configured format.
func newReportWriter(cfg *config.Config, output io.Writer) report.Writer {
	switch {
	case cfg.JSONReport:
		return report.NewFullJSONWriter(output, getVersion(), report.WithPrettyPrint())
	case cfg.MarkdownReport:
		return report.NewMarkdownWriter(output)
	default:
		return report.NewSimpleWriter(output, report.WithVerbose(cfg.Verbose))
	}
}

// outputReport outputs the audit report in the requested format.
func outputReport(cfg *config.Config, auditReport *model.AuditReport) error {
	output, closeOutput, err := openOutput(cfg.ReportFile)
	if err != nil {
		return err
	}
	defer closeOutput() //nolint:errcheck // Best effort cleanup

	writer := newReportWriter(cfg, output)
	_, err = writer.Write(auditReport)
	return err
}
