package pipeline

import (
	"context"
	"log/slog"

	"github.com/securelex/securelex/internal/ai"
	"github.com/securelex/securelex/internal/model"
)

// ProgressFunc receives a stage index (0-6) and the checks accumulated
// so far. Early stages report before any check has run, so the slice
// may be empty. Callbacks run synchronously on the audit goroutine.
type ProgressFunc func(stage int, checks []model.CheckResult)

// Audit is the mutable state threaded through one pipeline run. Each
// step reads what earlier steps produced and fills in its own part;
// the final step assembles the report.
type Audit struct {
	// URL is the target as the caller supplied it.
	URL string

	// Level2 enables AI escalation after the heuristic pass.
	Level2 bool

	// AIMode selects the provider orchestration policy.
	AIMode ai.Mode

	// OnProgress, when set, is invoked as the audit advances.
	OnProgress ProgressFunc

	// Snapshot is the fetched page, set by the fetch step.
	Snapshot *model.WebsiteSnapshot

	// Level1 holds the heuristic rule results.
	Level1 []model.CheckResult

	// Analysis is the Level-2 contribution, nil when escalation was off.
	Analysis *ai.Analysis

	// RegistryCheck is the operator cross-check outcome.
	RegistryCheck *model.RegistryCheckResult

	// Evidence is the capped evidence sample for escalation and review.
	Evidence *model.EvidenceBundle

	// Report is the assembled result, set by the final step.
	Report *model.AuditReport

	// StepsRun records the names of completed steps, for diagnostics.
	StepsRun []string
}

// progress invokes the caller's callback when one is registered.
func (a *Audit) progress(stage int, checks []model.CheckResult) {
	if a.OnProgress != nil {
		a.OnProgress(stage, checks)
	}
}

// Step defines the interface that all pipeline steps must implement.
// Steps are executed in sequence, each receiving the accumulated audit
// state from previous steps.
//
// Design decision: We use an interface rather than function types because:
// 1. It allows steps to carry configuration state
// 2. It provides a Name() method for logging and debugging
// 3. It's more extensible for future features (e.g., priority, dependencies)
type Step interface {
	// Do executes the pipeline step.
	// It receives the context for cancellation, and the audit state to
	// modify. Returns an error if the step fails critically; findings
	// that merely degrade the audit should be recorded in the state and
	// return nil.
	Do(ctx context.Context, audit *Audit) error

	// Name returns the step's name for logging purposes.
	Name() string
}

// Pipeline orchestrates the execution of multiple steps.
// It maintains a list of steps and executes them in order.
type Pipeline struct {
	// steps contains the ordered list of steps to execute.
	steps []Step

	// logger is used for structured logging during execution.
	logger *slog.Logger

	// continueOnError determines whether to continue executing steps
	// after one fails. If false, the pipeline stops on first error.
	continueOnError bool
}

// Option is a function that configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
// If not set, a default logger is used.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithContinueOnError configures the pipeline to continue execution
// even when a step fails.
//
// Design decision: The default is to stop on error because an early
// failure means there is nothing to audit (the pre-flight probe found
// no site, or the fetch could not even be constructed). Later steps
// never fail on bad page content; they record findings instead.
func WithContinueOnError(continueOnError bool) Option {
	return func(p *Pipeline) {
		p.continueOnError = continueOnError
	}
}

// New creates a new Pipeline with the given options.
// Steps should be added using AddStep after creation.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		steps:           make([]Step, 0),
		continueOnError: false,
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.logger == nil {
		p.logger = slog.Default()
	}

	return p
}

// AddStep appends a step to the pipeline.
// Steps are executed in the order they are added.
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// AddSteps appends multiple steps to the pipeline.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// Execute runs all pipeline steps in sequence.
// It respects context cancellation and logs each step's execution.
//
// Design decision: We check context.Done() before each step rather than
// during, because steps carry their own timeouts. This allows graceful
// cleanup between steps while still respecting cancellation.
//
// Returns the first error encountered if continueOnError is false,
// or nil if all steps complete.
func (p *Pipeline) Execute(ctx context.Context, audit *Audit) error {
	for _, step := range p.steps {
		select {
		case <-ctx.Done():
			p.logger.Warn("pipeline cancelled",
				"step", step.Name(),
				"url", audit.URL,
				"reason", ctx.Err(),
			)
			return ctx.Err()
		default:
		}

		p.logger.Debug("executing step",
			"step", step.Name(),
			"url", audit.URL,
		)

		if err := step.Do(ctx, audit); err != nil {
			p.logger.Error("step failed",
				"step", step.Name(),
				"url", audit.URL,
				"error", err,
			)

			if !p.continueOnError {
				return err
			}
		}

		audit.StepsRun = append(audit.StepsRun, step.Name())
	}

	return nil
}

// StepCount returns the number of steps in the pipeline.
func (p *Pipeline) StepCount() int {
	return len(p.steps)
}

// StepNames returns the names of all steps in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}
