package model

import "time"

// Severity is the overall risk tier derived from the check results.
type Severity string

const (
	// SeverityLow means the site meets most checked requirements.
	SeverityLow Severity = "low"

	// SeverityMedium means the site has several confirmed violations or
	// a mediocre score.
	SeverityMedium Severity = "medium"

	// SeverityHigh means the site has many confirmed violations or a
	// score below half of the maximum.
	SeverityHigh Severity = "high"
)

// IsValid reports whether s is one of the defined severities.
func (s Severity) IsValid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh:
		return true
	}
	return false
}

// AuditReport is the terminal artifact of one audit invocation.
// It is immutable once returned to the caller.
//
// Design decision: we use a single flat struct rather than nesting
// Level-1 and Level-2 findings separately. Callers consume checks as one
// ordered sequence; the Category field already distinguishes AI-derived
// findings, and a flat shape serializes cleanly for storage and APIs.
type AuditReport struct {
	// URL is the audited page.
	URL string `json:"url"`

	// Checks is the full ordered result sequence: Level-1 findings
	// first, then any Level-2 additions.
	Checks []CheckResult `json:"checks"`

	// ScorePercent is the compliance score, 0-100.
	ScorePercent int `json:"score_percent"`

	// Severity is the derived risk tier.
	Severity Severity `json:"severity"`

	// PassedCount, WarningCount, FailedCount, and TotalCount summarize
	// Checks by status.
	PassedCount  int `json:"passed_count"`
	WarningCount int `json:"warning_count"`
	FailedCount  int `json:"failed_count"`
	TotalCount   int `json:"total_count"`

	// Summary is a free-text assessment, either produced by a Level-2
	// provider or synthesized from the counters.
	Summary string `json:"summary"`

	// Recommendations are ordered remediation suggestions.
	Recommendations []string `json:"recommendations"`

	// ProcessedAt is when the audit completed.
	ProcessedAt time.Time `json:"processed_at"`

	// RegistryCheck is the operator cross-check outcome, when performed.
	RegistryCheck *RegistryCheckResult `json:"registry_check,omitempty"`

	// Evidence is the capped evidence sample, when collected.
	Evidence *EvidenceBundle `json:"evidence,omitempty"`
}
