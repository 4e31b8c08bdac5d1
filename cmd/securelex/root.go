// Package main provides the entry point for the SecureLex CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for SecureLex.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "securelex",
		Short: "Compliance auditing tool for Russian-facing websites",
		Long: `SecureLex audits websites for compliance with Russian regulations:
the personal data law ФЗ-152, the information law ФЗ-149, cookie
consent requirements, and baseline transport security.

A heuristic rule suite runs first; optionally the collected evidence
is escalated to an AI provider (GigaChat, OpenAI, or YandexGPT) for
a second, context-aware verdict.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewAuditCmd())
	cmd.AddCommand(NewExpressCmd())
	cmd.AddCommand(NewCrawlCmd())
	cmd.AddCommand(NewRegistryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
