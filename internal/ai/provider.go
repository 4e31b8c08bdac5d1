package ai

import (
	"context"
	"encoding/json"
	"strings"
	"unicode/utf8"
)

// Provider is the capability interface every vendor adapter implements.
//
// Design decision: We use an interface rather than vendor-specific call
// sites because:
//  1. The orchestrator's fallback/race logic is vendor-agnostic
//  2. Tests can inject scripted providers
//  3. New vendors slot in without touching orchestration code
type Provider interface {
	// Name returns the provider's display name, e.g. "GigaChat".
	Name() string

	// Configured reports whether the provider has a usable credential.
	// Unconfigured providers are skipped and reported diagnostically.
	Configured() bool

	// Analyze sends the prompt pair and returns the structured result.
	// A nil result with nil error means the provider could not answer
	// (soft failure); an error is reserved for transport/parse faults.
	// Implementations must respect context cancellation.
	Analyze(ctx context.Context, systemPrompt, userPrompt string) (*Result, error)
}

// Result is the structured output every provider normalizes to.
type Result struct {
	// Summary is a short natural-language compliance verdict.
	Summary string `json:"summary"`

	// Recommendations are remediation suggestions.
	Recommendations []string `json:"recommendations"`

	// AdditionalIssues are findings beyond the Level-1 set.
	AdditionalIssues []Issue `json:"additional_issues"`
}

// Issue is one provider-reported finding.
type Issue struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Status  string `json:"status"`
	Details string `json:"details"`
}

// QualityScore rates a result for tri-hybrid winner selection.
// The heuristic is deterministic: a substantive summary (more than 20
// characters) is worth 1 point, each recommendation 1 point, and each
// additional issue 2 points.
func (r *Result) QualityScore() int {
	if r == nil {
		return 0
	}
	score := 0
	if utf8.RuneCountInString(r.Summary) > 20 {
		score++
	}
	score += len(r.Recommendations)
	score += 2 * len(r.AdditionalIssues)
	return score
}

// decodeLenient parses provider output that should be JSON but often
// is not quite. Strategy: direct unmarshal; then the first {...}
// substring; then give up and treat the whole text as a summary.
//
// Design decision: The final fallback keeps the audit useful when a
// model answers in prose. A plain-text verdict is worth more to the
// user than a discarded response.
func decodeLenient(raw string) *Result {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	var result Result
	if err := json.Unmarshal([]byte(raw), &result); err == nil {
		return &result
	}

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		if err := json.Unmarshal([]byte(raw[start:end+1]), &result); err == nil {
			return &result
		}
	}

	return &Result{Summary: raw}
}
