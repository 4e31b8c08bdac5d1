// Package ai implements Level-2 escalation: re-examination of Level-1
// findings by external analysis providers.
//
// Each vendor adapter implements the Provider interface and never lets
// a transport or parse failure escape as a panic; a provider that
// cannot answer returns a nil result, which the orchestrator treats as
// a soft failure eligible for fallback or exclusion. Missing
// credentials are reported as structured diagnostics with remediation
// advice, never as errors, so an audit always completes.
//
// The orchestration policy is a closed mode enumeration: none, one
// provider only, hybrid (primary with fallback), or tri-hybrid (race
// all providers and pick the best-scoring answer deterministically).
package ai
