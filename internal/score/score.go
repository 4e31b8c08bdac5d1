// Package score turns a set of check results into a compliance score
// and severity grade.
package score

import (
	"math"

	"github.com/securelex/securelex/internal/model"
)

// Scoring policy constants. These thresholds are policy decisions, not
// derived values; changing them changes every report's grade.
const (
	// WarningWeight is the score contribution of a warning relative to
	// a pass. A warning counts as half compliant.
	WarningWeight = 0.5

	// HighSeverityFailures and HighSeverityScore trigger the high grade.
	HighSeverityFailures = 5
	HighSeverityScore    = 50

	// MediumSeverityFailures and MediumSeverityScore trigger the medium
	// grade when the high thresholds are not met.
	MediumSeverityFailures = 2
	MediumSeverityScore    = 70
)

// Score is the computed compliance grade for one audit.
type Score struct {
	// Percent is the compliance percentage in [0, 100].
	Percent int

	// Severity is the risk grade derived from Percent and Failed.
	Severity model.Severity

	// Passed, Warning, and Failed are the per-status counts.
	Passed  int
	Warning int
	Failed  int
}

// Calculate computes the score over all checks.
//
// Formula: round(100 * (passed + 0.5*warning) / total), clamped to
// [0, 100]. Severity thresholds are evaluated in order: high when
// failed >= 5 or percent < 50; medium when failed >= 2 or percent < 70;
// low otherwise.
func Calculate(checks []model.CheckResult) Score {
	passed, warning, failed := model.CountByStatus(checks)
	total := len(checks)

	percent := 0
	if total > 0 {
		raw := math.Round(100 * (float64(passed) + WarningWeight*float64(warning)) / float64(total))
		percent = int(raw)
		if percent < 0 {
			percent = 0
		}
		if percent > 100 {
			percent = 100
		}
	}

	severity := model.SeverityLow
	switch {
	case failed >= HighSeverityFailures || percent < HighSeverityScore:
		severity = model.SeverityHigh
	case failed >= MediumSeverityFailures || percent < MediumSeverityScore:
		severity = model.SeverityMedium
	}

	return Score{
		Percent:  percent,
		Severity: severity,
		Passed:   passed,
		Warning:  warning,
		Failed:   failed,
	}
}
