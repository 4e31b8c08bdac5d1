// Package registry cross-checks site operators against Roskomnadzor's
// registry of personal-data operators.
//
// The package has two halves: extraction pulls operator identifiers
// (ИНН, ОГРН, company name) out of audited page content, and the
// Checker resolves an identifier against the public registry search
// page, caching verdicts in SQLite for 24 hours.
//
// Design decision: The registry exposes no API, only an HTML search
// page, so lookups scrape the results table. Every lookup outcome is
// cached, including "not found" and transport failures, because the
// search page is slow and rate-limited; re-asking within the TTL would
// only repeat the same answer.
package registry
