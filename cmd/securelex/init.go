package main

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/securelex/securelex/internal/config"
	"github.com/spf13/cobra"
)

//go:embed templates/securelex.yaml
var configTemplate embed.FS

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a new SecureLex configuration file",
		Long: `Initialize creates a new .securelex configuration file in the current directory.

The generated file includes:
- Default settings for AI escalation and batch size
- Commented examples for default targets
- The credentials section with environment variable fallbacks documented

Examples:
  # Create .securelex in current directory
  securelex init

  # Create config file at a specific path
  securelex init -o myconfig.yaml

  # Force overwrite existing file
  securelex init -f`,
		RunE: runInitCmd,
	}

	cmd.Flags().StringP("output", "o", config.ConfigFileName,
		"Output file path for the configuration")
	cmd.Flags().BoolP("force", "f", false,
		"Overwrite existing configuration file")

	return cmd
}

// runInitCmd executes the init command.
func runInitCmd(cmd *cobra.Command, _ []string) error {
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}

	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}

	// Check if file already exists
	if !force {
		if _, err := os.Stat(outputPath); err == nil {
			return fmt.Errorf("configuration file already exists: %s (use -f to overwrite)", outputPath)
		}
	}

	// Read template from embedded filesystem
	content, err := configTemplate.ReadFile("templates/securelex.yaml")
	if err != nil {
		return fmt.Errorf("failed to read config template: %w", err)
	}

	// Create parent directories if needed
	dir := filepath.Dir(outputPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	// The file may hold provider credentials, keep it owner-only.
	if err := os.WriteFile(outputPath, content, 0600); err != nil {
		return fmt.Errorf("failed to write configuration file: %w", err)
	}

	fmt.Printf("Created configuration file: %s\n", outputPath)
	fmt.Println("\nEdit this file to configure settings such as:")
	fmt.Println("  - Default targets to audit")
	fmt.Println("  - AI provider policy and credentials")
	fmt.Println("  - Batch concurrency")

	return nil
}
