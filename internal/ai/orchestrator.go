package ai

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/securelex/securelex/internal/config"
	"github.com/securelex/securelex/internal/model"
)

// Mode selects the provider orchestration policy. The set is closed:
// an unknown mode behaves like ModeNone plus a diagnostic.
type Mode string

const (
	// ModeNone disables escalation entirely.
	ModeNone Mode = "none"

	// ModeGigaChatOnly, ModeOpenAIOnly, and ModeYandexOnly call exactly
	// one provider.
	ModeGigaChatOnly Mode = "gigachat_only"
	ModeOpenAIOnly   Mode = "openai_only"
	ModeYandexOnly   Mode = "yandex_only"

	// ModeHybrid calls OpenAI first and falls back to GigaChat.
	ModeHybrid Mode = "hybrid"

	// ModeTriHybrid races all providers and picks the best answer.
	ModeTriHybrid Mode = "tri_hybrid"
)

// IsValid reports whether the mode is a member of the closed set.
func (m Mode) IsValid() bool {
	switch m {
	case ModeNone, ModeGigaChatOnly, ModeOpenAIOnly, ModeYandexOnly, ModeHybrid, ModeTriHybrid:
		return true
	default:
		return false
	}
}

// Analysis is the Level-2 contribution to an audit report.
type Analysis struct {
	// AdditionalChecks are provider-reported findings normalized into
	// the common check shape.
	AdditionalChecks []model.CheckResult

	// Summary is the natural-language verdict (or a diagnostic when no
	// provider could answer).
	Summary string

	// Recommendations are remediation suggestions.
	Recommendations []string
}

// Orchestrator coordinates provider calls according to the configured
// mode. It depends only on the Provider interface, so tests inject
// scripted providers.
type Orchestrator struct {
	gigachat Provider
	openai   Provider
	yandex   Provider

	// timeout bounds one provider call, including any token exchange.
	timeout time.Duration

	logger *slog.Logger
}

// OrchestratorOption configures an Orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithProviderTimeout bounds each provider call.
func WithProviderTimeout(d time.Duration) OrchestratorOption {
	return func(o *Orchestrator) {
		o.timeout = d
	}
}

// WithOrchestratorLogger sets the logger.
func WithOrchestratorLogger(logger *slog.Logger) OrchestratorOption {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// NewOrchestrator wires the three vendor adapters. Any of them may be
// unconfigured; the mode logic reports missing credentials
// diagnostically instead of failing.
func NewOrchestrator(gigachat, openai, yandex Provider, opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		gigachat: gigachat,
		openai:   openai,
		yandex:   yandex,
		timeout:  config.DefaultProviderTimeout,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Analyze runs Level-2 escalation over the Level-1 results.
// It never returns an error: every failure path degrades to a
// diagnostic Analysis so the pipeline always completes.
func (o *Orchestrator) Analyze(ctx context.Context, mode Mode, url string, bundle *model.EvidenceBundle, level1 []model.CheckResult) *Analysis {
	if mode == ModeNone {
		return &Analysis{Summary: "ИИ-анализ отключен"}
	}

	user := buildUserPrompt(url, bundle, level1)

	switch mode {
	case ModeGigaChatOnly:
		if !o.gigachat.Configured() {
			return missingCredential("GigaChat", "GIGACHAT_API_KEY")
		}
		if result := o.callProvider(ctx, o.gigachat, user); result != nil {
			return parseResult(result)
		}
	case ModeOpenAIOnly:
		if !o.openai.Configured() {
			return missingCredential("OpenAI", "OPENAI_API_KEY")
		}
		if result := o.callProvider(ctx, o.openai, user); result != nil {
			return parseResult(result)
		}
	case ModeYandexOnly:
		if !o.yandex.Configured() {
			return missingCredential("YandexGPT", "YANDEX_IAM_TOKEN")
		}
		if result := o.callProvider(ctx, o.yandex, user); result != nil {
			return parseResult(result)
		}
	case ModeHybrid:
		if !o.openai.Configured() && !o.gigachat.Configured() {
			return &Analysis{
				Summary:         "ИИ-анализ недоступен: не настроены API ключи",
				Recommendations: []string{"Настройте OPENAI_API_KEY или GIGACHAT_API_KEY для глубокого анализа"},
			}
		}
		// OpenAI is the hybrid primary; GigaChat is the fallback.
		if result := o.callProvider(ctx, o.openai, user); result != nil {
			return parseResult(result)
		}
		o.logger.Debug("hybrid fallback to gigachat", "url", url)
		if result := o.callProvider(ctx, o.gigachat, user); result != nil {
			return parseResult(result)
		}
	case ModeTriHybrid:
		if result := o.raceAll(ctx, user); result != nil {
			return parseResult(result)
		}
	default:
		o.logger.Warn("unknown ai mode", "mode", string(mode))
	}

	return unavailableDiagnostic(level1)
}

// callProvider invokes one provider with the per-call timeout. Soft
// failures and errors both come back as nil; the caller decides whether
// to fall back.
func (o *Orchestrator) callProvider(ctx context.Context, p Provider, user string) *Result {
	if p == nil || !p.Configured() {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	result, err := p.Analyze(ctx, systemPrompt, user)
	if err != nil {
		o.logger.Warn("provider failed", "provider", p.Name(), "error", err)
		return nil
	}
	return result
}

// raceAll calls every provider concurrently and selects the
// best-scoring answer. Provider failures are isolated: one timeout or
// error never cancels a sibling call.
//
// Design decision: ties resolve by the fixed priority order GigaChat,
// OpenAI, YandexGPT via a stable sort, so winner selection is
// deterministic for identical scores.
func (o *Orchestrator) raceAll(ctx context.Context, user string) *Result {
	providers := []Provider{o.gigachat, o.openai, o.yandex}
	results := make([]*Result, len(providers))

	var g errgroup.Group
	for i, p := range providers {
		g.Go(func() error {
			results[i] = o.callProvider(ctx, p, user)
			// Errors stay inside callProvider so siblings keep running.
			return nil
		})
	}
	_ = g.Wait()

	type candidate struct {
		result   *Result
		score    int
		provider string
	}
	candidates := make([]candidate, 0, len(providers))
	for i, result := range results {
		if result == nil {
			continue
		}
		candidates = append(candidates, candidate{
			result:   result,
			score:    result.QualityScore(),
			provider: providers[i].Name(),
		})
	}
	if len(candidates) == 0 {
		return nil
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	best := candidates[0]
	o.logger.Debug("tri-hybrid winner", "provider", best.provider, "score", best.score)
	return best.result
}

// parseResult normalizes a provider result into the Analysis shape.
func parseResult(result *Result) *Analysis {
	checks := make([]model.CheckResult, 0, len(result.AdditionalIssues))
	for i, issue := range result.AdditionalIssues {
		status := model.StatusWarning
		if issue.Status == "failed" {
			status = model.StatusFailed
		}
		id := issue.ID
		if id == "" {
			id = fmt.Sprintf("AI-%03d", i+1)
		}
		checks = append(checks, model.CheckResult{
			ID:          id,
			Name:        issue.Name,
			Category:    model.CategoryAIAnalysis,
			Status:      status,
			Description: "ИИ-анализ",
			Details:     issue.Details,
		})
	}

	summary := result.Summary
	if summary == "" {
		summary = "Анализ завершен"
	}

	return &Analysis{
		AdditionalChecks: checks,
		Summary:          summary,
		Recommendations:  result.Recommendations,
	}
}

// missingCredential builds the diagnostic for a single-provider mode
// whose credential is absent.
func missingCredential(provider, envVar string) *Analysis {
	return &Analysis{
		Summary:         fmt.Sprintf("%s недоступен: не настроен %s", provider, envVar),
		Recommendations: []string{fmt.Sprintf("Настройте %s для анализа", envVar)},
	}
}

// unavailableDiagnostic is the fall-through when every eligible
// provider failed.
func unavailableDiagnostic(level1 []model.CheckResult) *Analysis {
	_, _, failed := model.CountByStatus(level1)
	recommendations := []string{"Сайт соответствует базовым требованиям"}
	if failed > 0 {
		recommendations = []string{"Устраните выявленные нарушения перед повторной проверкой"}
	}
	return &Analysis{
		Summary:         "Базовый анализ завершен. ИИ-анализ недоступен.",
		Recommendations: recommendations,
	}
}
