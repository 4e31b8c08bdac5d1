// Package model defines the data structures shared across the audit engine.
//
// The central types are CheckResult (one evaluated compliance rule),
// WebsiteSnapshot (the fetched state of a single page), EvidenceBundle
// (a capped sample of findings kept for human review), and AuditReport
// (the terminal artifact returned to callers).
//
// All types in this package are plain data with no behavior beyond
// construction helpers and small derivations. Components communicate
// exclusively through these structures, which keeps the fetcher, rule
// suite, orchestrator, and scorer independently testable.
package model
