package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/securelex/securelex/internal/ai"
	"github.com/securelex/securelex/internal/config"
	"github.com/securelex/securelex/internal/model"
	"github.com/securelex/securelex/internal/report"
)

// TestNewAuditCmd tests the audit command creation.
func TestNewAuditCmd(t *testing.T) {
	t.Parallel()

	cmd := NewAuditCmd()

	t.Run("has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "audit [url]" {
			t.Errorf("expected use 'audit [url]', got %q", cmd.Use)
		}
	})

	t.Run("has short description", func(t *testing.T) {
		t.Parallel()
		if cmd.Short == "" {
			t.Error("expected non-empty short description")
		}
	})

	t.Run("has long description", func(t *testing.T) {
		t.Parallel()
		if cmd.Long == "" {
			t.Error("expected non-empty long description")
		}
	})

	t.Run("has timeout flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("timeout")
		if flag == nil {
			t.Fatal("expected timeout flag")
		}
		if flag.Shorthand != "t" {
			t.Errorf("expected shorthand 't', got %q", flag.Shorthand)
		}
	})

	t.Run("has level2 flag defaulting to true", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("level2")
		if flag == nil {
			t.Fatal("expected level2 flag")
		}
		if flag.DefValue != "true" {
			t.Errorf("expected default 'true', got %q", flag.DefValue)
		}
	})

	t.Run("has ai-mode flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("ai-mode")
		if flag == nil {
			t.Fatal("expected ai-mode flag")
		}
		if flag.Shorthand != "a" {
			t.Errorf("expected shorthand 'a', got %q", flag.Shorthand)
		}
		if flag.DefValue != string(ai.ModeGigaChatOnly) {
			t.Errorf("expected default %q, got %q", ai.ModeGigaChatOnly, flag.DefValue)
		}
	})

	t.Run("has batch flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("batch")
		if flag == nil {
			t.Fatal("expected batch flag")
		}
		if flag.Shorthand != "b" {
			t.Errorf("expected shorthand 'b', got %q", flag.Shorthand)
		}
	})

	t.Run("has config flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("config")
		if flag == nil {
			t.Fatal("expected config flag")
		}
		if flag.Shorthand != "c" {
			t.Errorf("expected shorthand 'c', got %q", flag.Shorthand)
		}
	})

	t.Run("has json flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("json")
		if flag == nil {
			t.Fatal("expected json flag")
		}
		if flag.Shorthand != "j" {
			t.Errorf("expected shorthand 'j', got %q", flag.Shorthand)
		}
	})

	t.Run("has markdown flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("markdown")
		if flag == nil {
			t.Fatal("expected markdown flag")
		}
		if flag.Shorthand != "m" {
			t.Errorf("expected shorthand 'm', got %q", flag.Shorthand)
		}
	})

	t.Run("has output flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("output")
		if flag == nil {
			t.Fatal("expected output flag")
		}
		if flag.Shorthand != "o" {
			t.Errorf("expected shorthand 'o', got %q", flag.Shorthand)
		}
	})

	t.Run("does not have db-dir flag (uses XDG)", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("db-dir")
		if flag != nil {
			t.Error("db-dir flag should not exist (always uses XDG data directory)")
		}
	})
}

// TestSetupLogger tests the logger setup.
func TestSetupLogger(t *testing.T) {
	t.Parallel()

	t.Run("creates logger for verbose mode", func(t *testing.T) {
		t.Parallel()
		logger := setupLogger(true)
		if logger == nil {
			t.Error("expected non-nil logger")
		}
	})

	t.Run("creates logger for non-verbose mode", func(t *testing.T) {
		t.Parallel()
		logger := setupLogger(false)
		if logger == nil {
			t.Error("expected non-nil logger")
		}
	})
}

// TestGetVerboseFlag tests the verbose flag retrieval.
func TestGetVerboseFlag(t *testing.T) {
	t.Run("returns false when flag not set", func(t *testing.T) {
		cmd := NewAuditCmd()
		result := getVerboseFlag(cmd)
		if result {
			t.Error("expected false when flag not set")
		}
	})

	t.Run("returns value from parent verbose flag", func(t *testing.T) {
		root := NewRootCmd()
		_ = root.PersistentFlags().Set("verbose", "true")

		auditCmd, _, err := root.Find([]string{"audit"})
		if err != nil {
			t.Fatalf("failed to find audit command: %v", err)
		}

		result := getVerboseFlag(auditCmd)
		if !result {
			t.Error("expected true from parent verbose flag")
		}
	})
}

// TestBuildConfig tests configuration building from flags.
func TestBuildConfig(t *testing.T) {
	t.Run("builds config with default values", func(t *testing.T) {
		cmd := NewAuditCmd()
		cfg, err := buildConfig(cmd, []string{"example.ru"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg == nil {
			t.Fatal("expected non-nil config")
		}
		if len(cfg.Targets) != 1 || cfg.Targets[0] != "example.ru" {
			t.Errorf("expected targets [example.ru], got %v", cfg.Targets)
		}
		if !cfg.Level2 {
			t.Error("expected Level2 to default to true")
		}
		if cfg.FetchTimeout != config.DefaultFetchTimeout {
			t.Errorf("expected FetchTimeout %v, got %v", config.DefaultFetchTimeout, cfg.FetchTimeout)
		}
	})

	t.Run("builds config with custom timeout", func(t *testing.T) {
		cmd := NewAuditCmd()
		_ = cmd.Flags().Set("timeout", "30s")
		cfg, err := buildConfig(cmd, []string{"example.ru"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg.FetchTimeout != 30*time.Second {
			t.Errorf("expected FetchTimeout 30s, got %v", cfg.FetchTimeout)
		}
	})

	t.Run("builds config with disabled level2", func(t *testing.T) {
		cmd := NewAuditCmd()
		_ = cmd.Flags().Set("level2", "false")
		cfg, err := buildConfig(cmd, []string{"example.ru"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg.Level2 {
			t.Error("expected Level2 to be false")
		}
	})

	t.Run("builds config with custom batch size", func(t *testing.T) {
		cmd := NewAuditCmd()
		_ = cmd.Flags().Set("batch", "3")
		cfg, err := buildConfig(cmd, []string{"example.ru"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg.BatchSize != 3 {
			t.Errorf("expected BatchSize 3, got %d", cfg.BatchSize)
		}
	})

	t.Run("builds config with JSON flag", func(t *testing.T) {
		cmd := NewAuditCmd()
		_ = cmd.Flags().Set("json", "true")
		cfg, err := buildConfig(cmd, []string{"example.ru"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !cfg.JSONReport {
			t.Error("expected JSONReport to be true")
		}
	})

	t.Run("builds config with multiple targets", func(t *testing.T) {
		cmd := NewAuditCmd()
		cfg, err := buildConfig(cmd, []string{"site1.ru", "site2.ru", "site3.ru"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(cfg.Targets) != 3 {
			t.Errorf("expected 3 targets, got %d", len(cfg.Targets))
		}
	})

	t.Run("applies values from config file", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, ".securelex")

		content := []byte(`
targets:
  - file-target.ru
ai_mode: hybrid
level2: false
batch_size: 2
credentials:
  gigachat_key: file-key
`)
		if err := os.WriteFile(configPath, content, 0o600); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		cmd := NewAuditCmd()
		_ = cmd.Flags().Set("config", configPath)
		cfg, err := buildConfig(cmd, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(cfg.Targets) != 1 || cfg.Targets[0] != "file-target.ru" {
			t.Errorf("expected file targets, got %v", cfg.Targets)
		}
		if cfg.AIMode != "hybrid" {
			t.Errorf("expected AIMode 'hybrid', got %q", cfg.AIMode)
		}
		if cfg.Level2 {
			t.Error("expected Level2 false from config file")
		}
		if cfg.BatchSize != 2 {
			t.Errorf("expected BatchSize 2, got %d", cfg.BatchSize)
		}
		if cfg.Credentials.GigaChatKey != "file-key" {
			t.Errorf("expected GigaChatKey 'file-key', got %q", cfg.Credentials.GigaChatKey)
		}
	})

	t.Run("explicit flags win over config file", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, ".securelex")

		content := []byte(`
ai_mode: hybrid
batch_size: 2
`)
		if err := os.WriteFile(configPath, content, 0o600); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		cmd := NewAuditCmd()
		_ = cmd.Flags().Set("config", configPath)
		_ = cmd.Flags().Set("ai-mode", "tri_hybrid")
		cfg, err := buildConfig(cmd, []string{"example.ru"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg.AIMode != "tri_hybrid" {
			t.Errorf("expected flag AIMode 'tri_hybrid' to win, got %q", cfg.AIMode)
		}
		if cfg.BatchSize != 2 {
			t.Errorf("expected file BatchSize 2 for unset flag, got %d", cfg.BatchSize)
		}
		if len(cfg.Targets) != 1 || cfg.Targets[0] != "example.ru" {
			t.Errorf("expected positional targets to win, got %v", cfg.Targets)
		}
	})

	t.Run("returns error for missing explicit config file", func(t *testing.T) {
		cmd := NewAuditCmd()
		_ = cmd.Flags().Set("config", filepath.Join(t.TempDir(), "missing.yaml"))
		_, err := buildConfig(cmd, []string{"example.ru"})
		if err == nil {
			t.Fatal("expected error for missing config file")
		}
	})

	t.Run("returns error for invalid config file", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "invalid.yaml")

		content := []byte(`{invalid yaml`)
		if err := os.WriteFile(configPath, content, 0o600); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		cmd := NewAuditCmd()
		_ = cmd.Flags().Set("config", configPath)
		_, err := buildConfig(cmd, []string{"example.ru"})
		if err == nil {
			t.Fatal("expected error for invalid config file")
		}
	})

	t.Run("builds config with output file", func(t *testing.T) {
		cmd := NewAuditCmd()
		_ = cmd.Flags().Set("output", "/tmp/report.json")
		cfg, err := buildConfig(cmd, []string{"example.ru"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg.ReportFile != "/tmp/report.json" {
			t.Errorf("expected ReportFile '/tmp/report.json', got %q", cfg.ReportFile)
		}
	})
}

// TestAuditOptions tests conversion of the config into engine options.
func TestAuditOptions(t *testing.T) {
	t.Parallel()

	cfg := config.NewConfig()
	cfg.Level2 = false
	cfg.AIMode = "tri_hybrid"

	opts := auditOptions(cfg)
	if opts.Level2 {
		t.Error("expected Level2 false")
	}
	if opts.AIMode != ai.ModeTriHybrid {
		t.Errorf("expected AIMode tri_hybrid, got %q", opts.AIMode)
	}
}

// TestNewReportWriter tests writer selection by format flags.
func TestNewReportWriter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	t.Run("selects JSON writer", func(t *testing.T) {
		t.Parallel()
		cfg := &config.Config{JSONReport: true}
		if _, ok := newReportWriter(cfg, &buf).(*report.FullJSONWriter); !ok {
			t.Error("expected FullJSONWriter for --json")
		}
	})

	t.Run("selects Markdown writer", func(t *testing.T) {
		t.Parallel()
		cfg := &config.Config{MarkdownReport: true}
		if _, ok := newReportWriter(cfg, &buf).(*report.MarkdownWriter); !ok {
			t.Error("expected MarkdownWriter for --markdown")
		}
	})

	t.Run("selects simple writer by default", func(t *testing.T) {
		t.Parallel()
		cfg := &config.Config{}
		if _, ok := newReportWriter(cfg, &buf).(*report.SimpleWriter); !ok {
			t.Error("expected SimpleWriter by default")
		}
	})
}

// TestOpenOutput tests the output destination selection.
func TestOpenOutput(t *testing.T) {
	t.Parallel()

	t.Run("returns stdout for empty path", func(t *testing.T) {
		t.Parallel()
		w, closeFn, err := openOutput("")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer closeFn() //nolint:errcheck // test cleanup
		if w != os.Stdout {
			t.Error("expected stdout for empty path")
		}
	})

	t.Run("creates nested directories and a private file", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "reports", "audit", "report.txt")

		w, closeFn, err := openOutput(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := w.Write([]byte("test")); err != nil {
			t.Fatalf("write failed: %v", err)
		}
		if err := closeFn(); err != nil {
			t.Fatalf("close failed: %v", err)
		}

		info, err := os.Stat(path)
		if err != nil {
			t.Fatalf("stat failed: %v", err)
		}
		if info.Mode().Perm() != 0o600 {
			t.Errorf("expected permissions 0600, got %v", info.Mode().Perm())
		}
	})
}

// TestOutputReport tests report output to a file.
func TestOutputReport(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "report.json")
	cfg := &config.Config{
		JSONReport: true,
		ReportFile: path,
	}

	auditReport := &model.AuditReport{
		URL:          "https://example.ru",
		Checks:       []model.CheckResult{},
		ScorePercent: 100,
		Severity:     model.SeverityLow,
		ProcessedAt:  time.Now(),
	}

	if err := outputReport(cfg, auditReport); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read report: %v", err)
	}
	if !strings.Contains(string(data), "https://example.ru") {
		t.Errorf("expected report to contain the audited URL, got %s", data)
	}
}
