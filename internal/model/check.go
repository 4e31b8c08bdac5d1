package model

// CheckStatus is the terminal, three-valued outcome of one rule evaluation.
// There are no partial states: a rule either passed, raised a warning, or
// failed. Ambiguity is always resolved toward "warning" so that certainty
// is deferred to Level-2 analysis or manual review rather than invented
// by a heuristic.
type CheckStatus string

const (
	// StatusPassed means the rule's requirement was satisfied.
	StatusPassed CheckStatus = "passed"

	// StatusWarning means the requirement could not be confirmed but its
	// absence is not a definite violation (e.g. a cookie banner that may
	// be rendered client-side).
	StatusWarning CheckStatus = "warning"

	// StatusFailed means the requirement is definitely not met.
	StatusFailed CheckStatus = "failed"
)

// IsValid reports whether s is one of the three defined statuses.
func (s CheckStatus) IsValid() bool {
	switch s {
	case StatusPassed, StatusWarning, StatusFailed:
		return true
	}
	return false
}

// CheckCategory groups rules by the regulation or concern they cover.
type CheckCategory string

const (
	// CategorySecurity covers transport security and security headers.
	CategorySecurity CheckCategory = "security"

	// CategoryFZ152 covers personal-data processing requirements
	// (privacy policy, consent mechanisms).
	CategoryFZ152 CheckCategory = "fz152"

	// CategoryFZ149 covers information-disclosure requirements
	// (operator contacts, company requisites).
	CategoryFZ149 CheckCategory = "fz149"

	// CategoryCookies covers cookie banners and third-party trackers.
	CategoryCookies CheckCategory = "cookies"

	// CategoryLegal covers terms of service and public offer documents.
	CategoryLegal CheckCategory = "legal"

	// CategoryTechnical covers reachability and other technical findings.
	CategoryTechnical CheckCategory = "technical"

	// CategoryAIAnalysis marks findings contributed by Level-2 providers.
	CategoryAIAnalysis CheckCategory = "ai_analysis"
)

// IsValid reports whether c is one of the defined categories.
func (c CheckCategory) IsValid() bool {
	switch c {
	case CategorySecurity, CategoryFZ152, CategoryFZ149,
		CategoryCookies, CategoryLegal, CategoryTechnical, CategoryAIAnalysis:
		return true
	}
	return false
}

// CheckResult is one evaluated compliance rule. It is created once per
// rule evaluation and never modified afterwards; a result belongs to the
// pipeline invocation that produced it and is not shared across audits.
type CheckResult struct {
	// ID is the stable rule code, e.g. "SEC-001". Codes are fixed at
	// design time so reports stay comparable across runs and versions.
	ID string `json:"id"`

	// Name is the human-readable rule name, typically in Russian since
	// reports are consumed by Russian-speaking site operators.
	Name string `json:"name"`

	// Category is the regulation or concern the rule belongs to.
	Category CheckCategory `json:"category"`

	// Status is the three-valued outcome.
	Status CheckStatus `json:"status"`

	// Description says what the rule verifies.
	Description string `json:"description"`

	// Details is the human-readable rationale for this particular
	// outcome (which markers matched, which header was missing).
	Details string `json:"details,omitempty"`

	// Evidence is raw matched text, truncated by the producer. It backs
	// the finding for manual review but is not required for scoring.
	Evidence string `json:"evidence,omitempty"`
}

// CountByStatus returns the number of passed, warning, and failed results
// in checks. Results with an invalid status are ignored.
func CountByStatus(checks []CheckResult) (passed, warning, failed int) {
	for _, c := range checks {
		switch c.Status {
		case StatusPassed:
			passed++
		case StatusWarning:
			warning++
		case StatusFailed:
			failed++
		}
	}
	return passed, warning, failed
}
