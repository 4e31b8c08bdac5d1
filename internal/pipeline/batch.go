package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/securelex/securelex/internal/config"
	"github.com/securelex/securelex/internal/model"
)

// BatchProcessor audits multiple URLs concurrently.
// It uses errgroup to manage goroutines and respect concurrency limits.
//
// Design decision: We use a separate BatchProcessor rather than adding
// batch functionality to Engine because:
// 1. It keeps the Engine focused on single-audit execution
// 2. It allows different batch strategies (e.g., rate limiting, retries)
// 3. It provides cleaner separation of concerns
type BatchProcessor struct {
	// engine runs the individual audits. Engines are safe for
	// concurrent use; per-run state lives inside each run.
	engine *Engine

	// auditOpts are the options applied to every audit in the batch.
	// OnProgress is dropped; interleaved progress from concurrent
	// audits is meaningless.
	auditOpts Options

	// concurrency is the maximum number of concurrent audits.
	concurrency int

	// logger is used for batch-level logging.
	logger *slog.Logger

	// results stores completed reports, indexed by input position.
	// Access is synchronized via mutex.
	results []*model.AuditReport
	mu      sync.Mutex
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of concurrent audits.
// Default is config.DefaultBatchSize.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// WithAuditOptions sets the options applied to every audit.
func WithAuditOptions(opts Options) BatchOption {
	return func(b *BatchProcessor) {
		b.auditOpts = opts
	}
}

// NewBatchProcessor creates a BatchProcessor around the given engine.
// The default options run Level-1 only; pass WithAuditOptions to enable
// escalation for the whole batch.
func NewBatchProcessor(engine *Engine, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		engine:      engine,
		concurrency: config.DefaultBatchSize,
		results:     make([]*model.AuditReport, 0),
	}

	for _, opt := range opts {
		opt(bp)
	}

	if bp.logger == nil {
		bp.logger = slog.Default()
	}
	bp.auditOpts.OnProgress = nil

	return bp
}

// ProcessBatch audits multiple URLs concurrently.
// It respects the configured concurrency limit and context cancellation.
//
// Design decision: We use errgroup.SetLimit rather than a worker pool
// because it's simpler and errgroup handles the concurrency correctly.
// Each URL gets its own goroutine, but only 'concurrency' goroutines
// run simultaneously.
//
// Returns one report per input URL, in input order. An unreachable
// target still produces a report (score 0, the probe's message as the
// summary) so the output stays aligned with the input list. The error
// return indicates batch-level cancellation.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, urls []string) ([]*model.AuditReport, error) {
	bp.logger.Info("starting batch processing",
		"total_urls", len(urls),
		"concurrency", bp.concurrency,
	)

	startTime := time.Now()

	bp.results = make([]*model.AuditReport, len(urls))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, url := range urls {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			bp.logger.Info("auditing",
				"url", url,
				"index", i+1,
				"total", len(urls),
			)

			report, err := bp.engine.RunAudit(ctx, url, bp.auditOpts)
			if err != nil {
				bp.logger.Warn("audit failed", "url", url, "error", err)
				report = failedReport(url, err)
			}

			bp.mu.Lock()
			bp.results[i] = report
			bp.mu.Unlock()

			return nil
		})
	}

	err := g.Wait()

	bp.logger.Info("batch processing complete",
		"total_urls", len(urls),
		"elapsed", time.Since(startTime),
	)

	return bp.results, err
}

// ProcessBatchWithCallback audits multiple URLs and calls a callback
// for each completed audit. This is useful for streaming results.
//
// The callback receives the report and the index of the URL in the
// original slice. It is called from the goroutine that completed the
// audit, so it must be safe for concurrent use.
func (bp *BatchProcessor) ProcessBatchWithCallback(
	ctx context.Context,
	urls []string,
	callback func(report *model.AuditReport, index int),
) error {
	bp.logger.Info("starting batch processing with callback",
		"total_urls", len(urls),
		"concurrency", bp.concurrency,
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, url := range urls {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			report, err := bp.engine.RunAudit(ctx, url, bp.auditOpts)
			if err != nil {
				report = failedReport(url, err)
			}

			callback(report, i)
			return nil
		})
	}

	return g.Wait()
}

// failedReport is the placeholder for a target that could not be
// audited at all.
func failedReport(url string, err error) *model.AuditReport {
	return &model.AuditReport{
		URL:         url,
		Checks:      []model.CheckResult{},
		Severity:    model.SeverityHigh,
		Summary:     err.Error(),
		ProcessedAt: time.Now(),
	}
}
