package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/securelex/securelex/internal/ai"
	"github.com/securelex/securelex/internal/checks"
	"github.com/securelex/securelex/internal/evidence"
	"github.com/securelex/securelex/internal/fetcher"
	"github.com/securelex/securelex/internal/model"
	"github.com/securelex/securelex/internal/registry"
	"github.com/securelex/securelex/internal/score"
)

// UnreachableError reports that the pre-flight probe found nothing
// answering at the target. Message is user-facing Russian text; Reason
// is the probe's machine-readable classification.
type UnreachableError struct {
	Reason  string
	Message string
}

// Error returns the user-facing message.
func (e *UnreachableError) Error() string {
	return e.Message
}

// unreachableMessage maps a probe reason to the message shown to the
// user when the audit stops before fetching anything.
func unreachableMessage(reason string) string {
	switch reason {
	case "dns_error":
		return "Сайт не найден. Проверьте правильность адреса."
	case "connection_refused":
		return "Сайт не отвечает. Возможно, сервер отключен."
	case "timeout":
		return "Превышено время ожидания ответа от сайта."
	default:
		return "Не удалось подключиться к сайту."
	}
}

// ProbeStep runs the pre-flight existence probe. An unreachable target
// stops the pipeline with an UnreachableError; auditing a site that
// does not exist would only produce a report full of vacuous failures.
//
// A TLS handshake failure does NOT stop the audit: a server answered,
// and the broken certificate becomes a finding for the rule suite.
type ProbeStep struct {
	fetcher *fetcher.Fetcher
	logger  *slog.Logger
}

// ProbeStepOption configures a ProbeStep.
type ProbeStepOption func(*ProbeStep)

// WithProbeLogger sets a custom logger for the probe step.
func WithProbeLogger(logger *slog.Logger) ProbeStepOption {
	return func(s *ProbeStep) {
		s.logger = logger
	}
}

// NewProbeStep creates the pre-flight probe step.
func NewProbeStep(f *fetcher.Fetcher, opts ...ProbeStepOption) *ProbeStep {
	s := &ProbeStep{
		fetcher: f,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the step name.
func (s *ProbeStep) Name() string {
	return "probe"
}

// Do executes the pre-flight probe.
func (s *ProbeStep) Do(ctx context.Context, audit *Audit) error {
	audit.progress(0, nil)

	result, err := s.fetcher.Probe(ctx, audit.URL)
	if err != nil {
		return err
	}

	if !result.Exists {
		s.logger.Info("target unreachable", "url", audit.URL, "reason", result.Reason)
		return &UnreachableError{
			Reason:  result.Reason,
			Message: unreachableMessage(result.Reason),
		}
	}

	s.logger.Debug("probe ok", "url", audit.URL, "reason", result.Reason)
	return nil
}

// FetchStep retrieves the audited page. It never fails the pipeline:
// fetch problems are recorded in the snapshot and surface through the
// reachability rule.
type FetchStep struct {
	fetcher *fetcher.Fetcher
	logger  *slog.Logger
}

// FetchStepOption configures a FetchStep.
type FetchStepOption func(*FetchStep)

// WithFetchLogger sets a custom logger for the fetch step.
func WithFetchLogger(logger *slog.Logger) FetchStepOption {
	return func(s *FetchStep) {
		s.logger = logger
	}
}

// NewFetchStep creates the page fetch step.
func NewFetchStep(f *fetcher.Fetcher, opts ...FetchStepOption) *FetchStep {
	s := &FetchStep{
		fetcher: f,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the step name.
func (s *FetchStep) Name() string {
	return "fetch"
}

// Do executes the fetch step.
func (s *FetchStep) Do(ctx context.Context, audit *Audit) error {
	audit.Snapshot = s.fetcher.Fetch(ctx, audit.URL)
	audit.progress(1, nil)
	return nil
}

// RulesStep evaluates the heuristic rule suite over the snapshot.
type RulesStep struct {
	logger *slog.Logger
}

// NewRulesStep creates the rule evaluation step.
func NewRulesStep(logger *slog.Logger) *RulesStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &RulesStep{logger: logger}
}

// Name returns the step name.
func (s *RulesStep) Name() string {
	return "rules"
}

// Do executes the rule evaluation step.
func (s *RulesStep) Do(_ context.Context, audit *Audit) error {
	audit.Level1 = checks.RunLevel1(audit.Snapshot, s.logger)
	audit.progress(2, audit.Level1)
	return nil
}

// RegistryStep extracts operator identifiers from the page and builds
// the registry cross-check. With a checker wired in, an extracted tax
// id is resolved against the operator registry inline; without one the
// check stays pending for out-of-band confirmation.
//
// Design decision: The inline lookup is optional because it costs a
// network round-trip to the regulator per audit. Batch runs and
// environments without the cache database keep the pending behavior.
type RegistryStep struct {
	checker *registry.Checker
	logger  *slog.Logger
}

// NewRegistryStep creates the registry cross-check step. A nil checker
// disables inline resolution.
func NewRegistryStep(checker *registry.Checker, logger *slog.Logger) *RegistryStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &RegistryStep{checker: checker, logger: logger}
}

// Name returns the step name.
func (s *RegistryStep) Name() string {
	return "registry"
}

// Do executes the registry cross-check step.
func (s *RegistryStep) Do(ctx context.Context, audit *Audit) error {
	pending := registry.BuildPendingCheck(audit.Snapshot.HTML, audit.Snapshot.URL)

	if s.checker != nil && pending.Query.TaxID != "" {
		s.logger.Debug("resolving registry check inline", "inn", pending.Query.TaxID)
		audit.RegistryCheck = s.checker.CheckByTaxID(ctx, pending.Query.TaxID)
		return nil
	}

	audit.RegistryCheck = pending
	return nil
}

// EvidenceStep collects the capped evidence sample that backs the
// findings and feeds the escalation prompt.
type EvidenceStep struct{}

// NewEvidenceStep creates the evidence collection step.
func NewEvidenceStep() *EvidenceStep {
	return &EvidenceStep{}
}

// Name returns the step name.
func (s *EvidenceStep) Name() string {
	return "evidence"
}

// Do executes the evidence collection step.
func (s *EvidenceStep) Do(_ context.Context, audit *Audit) error {
	audit.Evidence = evidence.BuildBundle(audit.Level1, audit.Snapshot.URL)
	return nil
}

// EscalationStep runs the Level-2 AI analysis when enabled. It never
// fails the pipeline: the orchestrator degrades every provider problem
// to a diagnostic analysis.
type EscalationStep struct {
	orchestrator *ai.Orchestrator
	logger       *slog.Logger
}

// NewEscalationStep creates the AI escalation step.
func NewEscalationStep(orchestrator *ai.Orchestrator, logger *slog.Logger) *EscalationStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &EscalationStep{orchestrator: orchestrator, logger: logger}
}

// Name returns the step name.
func (s *EscalationStep) Name() string {
	return "escalation"
}

// Do executes the escalation step.
func (s *EscalationStep) Do(ctx context.Context, audit *Audit) error {
	if !audit.Level2 || s.orchestrator == nil {
		s.logger.Debug("escalation skipped", "url", audit.URL)
		return nil
	}

	audit.progress(3, audit.Level1)
	audit.Analysis = s.orchestrator.Analyze(ctx, audit.AIMode, audit.URL, audit.Evidence, audit.Level1)
	audit.progress(4, audit.allChecks())
	return nil
}

// allChecks returns the Level-1 results followed by any Level-2
// additions, in a fresh slice.
func (a *Audit) allChecks() []model.CheckResult {
	all := make([]model.CheckResult, 0, len(a.Level1))
	all = append(all, a.Level1...)
	if a.Analysis != nil {
		all = append(all, a.Analysis.AdditionalChecks...)
	}
	return all
}

// ScoreStep computes the compliance score and creates the report shell.
type ScoreStep struct{}

// NewScoreStep creates the scoring step.
func NewScoreStep() *ScoreStep {
	return &ScoreStep{}
}

// Name returns the step name.
func (s *ScoreStep) Name() string {
	return "score"
}

// Do executes the scoring step.
func (s *ScoreStep) Do(_ context.Context, audit *Audit) error {
	all := audit.allChecks()
	sc := score.Calculate(all)

	reportURL := audit.URL
	if audit.Snapshot != nil && audit.Snapshot.URL != "" {
		reportURL = audit.Snapshot.URL
	}

	audit.Report = &model.AuditReport{
		URL:          reportURL,
		Checks:       all,
		ScorePercent: sc.Percent,
		Severity:     sc.Severity,
		PassedCount:  sc.Passed,
		WarningCount: sc.Warning,
		FailedCount:  sc.Failed,
		TotalCount:   len(all),
	}

	audit.progress(5, all)
	return nil
}

// SummarizeStep fills in the summary, recommendations, and attachments,
// completing the report.
//
// The summary prefers the Level-2 verdict; without one it is synthesized
// from the counters. Recommendations work the same way: provider
// suggestions win, otherwise stock advice derived from the counts.
type SummarizeStep struct{}

// NewSummarizeStep creates the report completion step.
func NewSummarizeStep() *SummarizeStep {
	return &SummarizeStep{}
}

// Name returns the step name.
func (s *SummarizeStep) Name() string {
	return "summarize"
}

// Do executes the report completion step.
func (s *SummarizeStep) Do(_ context.Context, audit *Audit) error {
	report := audit.Report

	var summary string
	var recommendations []string
	if audit.Analysis != nil {
		summary = audit.Analysis.Summary
		recommendations = audit.Analysis.Recommendations
	}

	if summary == "" {
		summary = defaultSummary(report)
	}
	if len(recommendations) == 0 {
		recommendations = defaultRecommendations(report)
	}

	report.Summary = summary
	report.Recommendations = recommendations
	report.ProcessedAt = time.Now()
	report.RegistryCheck = audit.RegistryCheck
	report.Evidence = audit.Evidence

	audit.progress(6, report.Checks)
	return nil
}

// defaultSummary synthesizes the summary line from the counters.
func defaultSummary(report *model.AuditReport) string {
	passedPct := 0
	if report.TotalCount > 0 {
		passedPct = int(float64(report.PassedCount)/float64(report.TotalCount)*100 + 0.5)
	}
	return fmt.Sprintf("Проверено %d критериев. Пройдено %d (%d%%), предупреждений %d, нарушений %d.",
		report.TotalCount, report.PassedCount, passedPct, report.WarningCount, report.FailedCount)
}

// defaultRecommendations derives stock advice from the counters.
func defaultRecommendations(report *model.AuditReport) []string {
	recommendations := make([]string, 0, 3)
	if report.FailedCount > 0 {
		recommendations = append(recommendations, "Устраните выявленные критические нарушения")
	}
	if report.WarningCount > 0 {
		recommendations = append(recommendations, "Рекомендуется исправить предупреждения для повышения уровня соответствия")
	}
	if report.PassedCount == report.TotalCount && report.TotalCount > 0 {
		recommendations = append(recommendations, "Отлично! Сайт соответствует проверенным требованиям")
	}
	return recommendations
}
