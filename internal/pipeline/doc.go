// Package pipeline orchestrates a full website compliance audit as an
// ordered sequence of steps: pre-flight probe, page fetch, heuristic
// rule evaluation, registry extraction, evidence collection, optional
// AI escalation, scoring, and report assembly.
//
// Design decision: We use a step pipeline instead of one long function
// because:
// 1. It allows easy addition/removal of steps without modifying core logic
// 2. It provides consistent error handling and logging across steps
// 3. It supports cancellation via context for long-running audits
//
// The pipeline supports both individual audits and batch processing of
// URL lists with concurrency control using errgroup.
package pipeline
