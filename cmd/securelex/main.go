// Package main provides the entry point for the SecureLex CLI.
//
// SecureLex audits websites for compliance with Russian regulations:
// the personal data law ФЗ-152, the information law ФЗ-149, cookie
// consent requirements, and baseline transport security.
//
// Usage:
//
//	securelex audit <url>
//	securelex express <url>
//	securelex crawl <url>
//	securelex registry --inn <ИНН>
//
// See --help for all available options.
package main

// main is the entry point for SecureLex.
func main() {
	Execute()
}
