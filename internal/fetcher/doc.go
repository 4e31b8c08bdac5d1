// Package fetcher retrieves website snapshots for compliance analysis.
//
// The fetcher is deliberately forgiving: a site that cannot be reached is
// itself an audit finding, not a program error, so Fetch always returns a
// snapshot and records failures in its Error field. A pre-flight Probe
// distinguishes "site does not exist" from "site exists but misbehaves"
// so that audits of dead domains fail fast with a clear message.
//
// Outbound requests are guarded against SSRF: URLs resolving to loopback
// or private address ranges by hostname are refused before any connection
// is made.
package fetcher
