// Package checks implements the deterministic Level-1 rule suite.
//
// Each rule is a pure function from a website snapshot to one or more
// check results. Rules are independent and side-effect free; the runner
// executes all of them unconditionally, except that a snapshot carrying
// a fetch error short-circuits into a single failed reachability result.
//
// Every heuristic is a textual pattern match with a severity policy
// fixed at design time: a rule never escalates a warning into a failure
// based on run-time heuristics. Ambiguity resolves to warning, deferring
// certainty to Level-2 analysis or manual review. Pattern sets live
// behind named predicates in predicates.go so each one can be unit
// tested and tuned without touching rule logic.
package checks
