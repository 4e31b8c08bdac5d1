package pipeline

import (
	"context"
	"log/slog"

	"github.com/securelex/securelex/internal/ai"
	"github.com/securelex/securelex/internal/crawler"
	"github.com/securelex/securelex/internal/fetcher"
	"github.com/securelex/securelex/internal/model"
	"github.com/securelex/securelex/internal/registry"
)

// ExpressStages are the user-facing stage names of an express audit,
// indexed by the stage number passed to progress callbacks.
var ExpressStages = []string{
	"Подключение к сайту",
	"Проверка SSL сертификата",
	"Анализ политик конфиденциальности",
	"Проверка cookie-баннера",
	"Анализ форм и согласий",
	"Проверка контактов и реквизитов",
	"Формирование отчета",
}

// Options selects what one audit run does.
type Options struct {
	// Level2 enables AI escalation after the heuristic pass.
	Level2 bool

	// AIMode selects the provider orchestration policy. Empty defaults
	// to ModeGigaChatOnly.
	AIMode ai.Mode

	// OnProgress, when set, is invoked as the audit advances.
	OnProgress ProgressFunc
}

// DefaultOptions returns the options for a full audit.
func DefaultOptions() Options {
	return Options{
		Level2: true,
		AIMode: ai.ModeGigaChatOnly,
	}
}

// Engine wires the audit components together and runs complete audits.
// One Engine serves many audits; per-run state lives in the Audit that
// each run creates.
type Engine struct {
	// fetcher performs the probe and page fetches.
	fetcher *fetcher.Fetcher

	// orchestrator runs Level-2 escalation. Nil disables escalation
	// regardless of options.
	orchestrator *ai.Orchestrator

	// checker resolves extracted tax ids against the operator registry
	// inline. Nil leaves registry checks pending.
	checker *registry.Checker

	// crawler performs diagnostic multi-page audits.
	crawler *crawler.Crawler

	logger *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithRegistryChecker enables inline registry resolution.
func WithRegistryChecker(checker *registry.Checker) EngineOption {
	return func(e *Engine) {
		e.checker = checker
	}
}

// WithCrawler replaces the diagnostic crawler. Without this option the
// engine builds one around its fetcher.
func WithCrawler(c *crawler.Crawler) EngineOption {
	return func(e *Engine) {
		e.crawler = c
	}
}

// WithEngineLogger sets the logger.
func WithEngineLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = logger
	}
}

// NewEngine creates an audit engine. The orchestrator may be nil when
// Level-2 analysis is not wanted.
func NewEngine(f *fetcher.Fetcher, orchestrator *ai.Orchestrator, opts ...EngineOption) *Engine {
	e := &Engine{
		fetcher:      f,
		orchestrator: orchestrator,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.crawler == nil {
		e.crawler = crawler.New(f, crawler.WithCrawlerLogger(e.logger))
	}
	return e
}

// RunAudit performs a complete audit of one URL.
//
// The only error conditions are an invalid target and an unreachable
// site (an *UnreachableError carrying a user-facing Russian message).
// Everything that goes wrong past the pre-flight probe is an audit
// finding, not an error.
func (e *Engine) RunAudit(ctx context.Context, rawURL string, opts Options) (*model.AuditReport, error) {
	if opts.AIMode == "" {
		opts.AIMode = ai.ModeGigaChatOnly
	}

	audit := &Audit{
		URL:        rawURL,
		Level2:     opts.Level2,
		AIMode:     opts.AIMode,
		OnProgress: opts.OnProgress,
	}

	p := New(WithLogger(e.logger))
	p.AddSteps(
		NewProbeStep(e.fetcher, WithProbeLogger(e.logger)),
		NewFetchStep(e.fetcher, WithFetchLogger(e.logger)),
		NewRulesStep(e.logger),
		NewRegistryStep(e.checker, e.logger),
		NewEvidenceStep(),
		NewEscalationStep(e.orchestrator, e.logger),
		NewScoreStep(),
		NewSummarizeStep(),
	)

	if err := p.Execute(ctx, audit); err != nil {
		return nil, err
	}

	e.logger.Info("audit complete",
		"url", audit.Report.URL,
		"score", audit.Report.ScorePercent,
		"severity", string(audit.Report.Severity),
		"checks", audit.Report.TotalCount,
	)
	return audit.Report, nil
}

// ExpressProgressFunc receives the stage index into ExpressStages and
// the running status counts.
type ExpressProgressFunc func(stage, passed, warning, failed int)

// RunExpressAudit performs the quick heuristic-only audit. It is
// RunAudit without escalation, with progress reported as counts so a
// console can render a live tally against ExpressStages.
func (e *Engine) RunExpressAudit(ctx context.Context, rawURL string, onProgress ExpressProgressFunc) (*model.AuditReport, error) {
	opts := Options{Level2: false}
	if onProgress != nil {
		opts.OnProgress = func(stage int, checks []model.CheckResult) {
			passed, warning, failed := model.CountByStatus(checks)
			onProgress(stage, passed, warning, failed)
		}
	}
	return e.RunAudit(ctx, rawURL, opts)
}

// RunCrawlAudit performs the diagnostic multi-page audit. The result is
// always non-nil; crawl problems are recorded inside it.
func (e *Engine) RunCrawlAudit(ctx context.Context, rawURL string) *model.CrawlAuditResult {
	return e.crawler.Crawl(ctx, rawURL)
}
