package checks

import (
	"log/slog"

	"github.com/securelex/securelex/internal/model"
)

// RunLevel1 executes the full deterministic rule suite against a
// snapshot and returns the results in a stable order.
//
// Design decision: A snapshot carrying a fetch error short-circuits into
// exactly one failed reachability result with no content rules run. The
// page was never seen, so every content verdict would be a false
// negative; one honest failure is more useful than fifteen misleading
// ones.
func RunLevel1(snap *model.WebsiteSnapshot, logger *slog.Logger) []model.CheckResult {
	if logger == nil {
		logger = slog.Default()
	}

	if snap.Failed() {
		logger.Debug("reachability short-circuit", "url", snap.URL, "error", snap.Error)
		return []model.CheckResult{CheckReachability(snap)}
	}

	results := make([]model.CheckResult, 0, 16)
	results = append(results, CheckHTTPS(snap))
	results = append(results, CheckSecurityHeaders(snap)...)
	results = append(results, CheckPrivacyPolicy(snap))
	results = append(results, CheckConsent(snap))
	results = append(results, CheckCookieBanner(snap))
	results = append(results, CheckContactInfo(snap))
	results = append(results, CheckCompanyRequisites(snap))
	results = append(results, CheckTermsOfService(snap))
	results = append(results, CheckTrackers(snap)...)
	results = append(results, CheckMixedContent(snap))
	results = append(results, CheckInsecureForms(snap))
	results = append(results, CheckServerInfo(snap))

	passed, warning, failed := model.CountByStatus(results)
	logger.Debug("level-1 checks complete",
		"url", snap.URL,
		"total", len(results),
		"passed", passed,
		"warning", warning,
		"failed", failed,
	)
	return results
}
