package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/securelex/securelex/internal/config"
	"github.com/securelex/securelex/internal/database"
	"github.com/securelex/securelex/internal/model"
	"github.com/securelex/securelex/internal/registry"
	"github.com/spf13/cobra"
)

// NewRegistryCmd creates the registry command.
func NewRegistryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "registry",
		Short: "Check an operator in the personal data operator registry",
		Long: `Registry looks up a company in the regulator's personal data operator
registry, by ИНН or by company name. Results are cached locally for
24 hours.

Examples:
  # Look up by ИНН
  securelex registry --inn 7707083893

  # Look up by company name
  securelex registry --name 'ООО "Ромашка"'`,
		Args: cobra.NoArgs,
		RunE: runRegistryCmd,
	}

	cmd.Flags().String("inn", "", "ИНН of the operator to look up")
	cmd.Flags().String("name", "", "Company name of the operator to look up")
	cmd.Flags().BoolP("json", "j", false, "Output the result as JSON")

	return cmd
}

// runRegistryCmd executes the registry command.
func runRegistryCmd(cmd *cobra.Command, _ []string) error {
	taxID, err := cmd.Flags().GetString("inn")
	if err != nil {
		return err
	}
	name, err := cmd.Flags().GetString("name")
	if err != nil {
		return err
	}
	asJSON, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}

	if taxID == "" && name == "" {
		return errors.New("no operator specified: provide --inn or --name")
	}

	verbose := getVerboseFlag(cmd)
	logger := setupLogger(verbose)
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	return runRegistryLookup(ctx, taxID, name, asJSON, logger)
}

// runRegistryLookup performs the lookup and prints the result.
func runRegistryLookup(ctx context.Context, taxID, name string, asJSON bool, logger *slog.Logger) error {
	var cache registry.Cache
	db, err := database.Open(config.XDGDataDir(), database.DefaultOptions())
	if err != nil {
		logger.Warn("registry cache unavailable, lookup will hit the network", "error", err)
	} else {
		defer db.Close()
		cache = db
	}

	checker := registry.NewChecker(cache,
		registry.WithCacheTTL(config.RegistryCacheTTL),
		registry.WithCheckerLogger(logger),
	)

	var result *model.RegistryCheckResult
	if taxID != "" {
		result = checker.CheckByTaxID(ctx, taxID)
	} else {
		result = checker.CheckByName(ctx, name)
	}

	if asJSON {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(result)
	}

	printRegistryResult(result)
	return nil
}

// printRegistryResult renders the lookup result for the terminal.
func printRegistryResult(result *model.RegistryCheckResult) {
	fmt.Printf("Статус:        %s\n", string(result.Status))
	fmt.Printf("Достоверность: %s\n", string(result.Confidence))
	if result.CompanyName != "" {
		fmt.Printf("Оператор:      %s\n", result.CompanyName)
	}
	if result.RegistrationNumber != "" {
		fmt.Printf("Номер:         %s\n", result.RegistrationNumber)
	}
	if result.RegistrationDate != "" {
		fmt.Printf("Дата:          %s\n", result.RegistrationDate)
	}
	if result.FromCache {
		fmt.Println("Источник:      локальный кэш")
	}
	fmt.Printf("\n%s\n", result.Details)
}
