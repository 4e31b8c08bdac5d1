package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
// The timeouts mirror the behavior the audit engine was tuned for in
// production: generous for the single audited page, tight for the many
// speculative sub-fetches a crawl performs.
const (
	// DefaultFetchTimeout is the timeout for fetching the audited page.
	// 15 seconds tolerates slow shared hosting, which is common among
	// the small-business sites this tool audits.
	DefaultFetchTimeout = 15 * time.Second

	// DefaultProbeTimeout is the timeout for the pre-flight existence
	// probe. Shorter than a full fetch because the probe only needs to
	// learn whether anything answers.
	DefaultProbeTimeout = 10 * time.Second

	// DefaultCrawlFetchTimeout is the per-page timeout during a crawl.
	// Crawls visit many pages, so each fetch gets a tighter budget.
	DefaultCrawlFetchTimeout = 8 * time.Second

	// DefaultSitemapTimeout is the timeout for sitemap probes. A
	// sitemap either answers quickly or is not worth waiting for.
	DefaultSitemapTimeout = 5 * time.Second

	// DefaultMaxBodyBytes caps response bodies at 2 MiB. Content beyond
	// the cap is discarded; the buffered prefix is kept and analyzed.
	DefaultMaxBodyBytes = 2 * 1024 * 1024

	// DefaultUserAgent identifies the audit bot in HTTP requests.
	// A descriptive User-Agent lets site operators recognize audit
	// traffic in their logs.
	DefaultUserAgent = "SecureLex-Audit-Bot/1.0 (Website Compliance Checker)"

	// DefaultCrawlMaxPages caps the number of pages a diagnostic crawl
	// visits per site.
	DefaultCrawlMaxPages = 30

	// DefaultCrawlBudget is the wall-clock limit for a whole crawl,
	// independent of per-request timeouts. A slow-but-responsive site
	// cannot stretch a crawl indefinitely.
	DefaultCrawlBudget = 20 * time.Second

	// MaxSitemapURLs caps how many <loc> entries are taken from a
	// sitemap.
	MaxSitemapURLs = 30

	// MaxLinksPerPage caps how many same-host links are extracted from
	// the start page when no sitemap exists.
	MaxLinksPerPage = 50

	// DefaultBatchSize is the number of concurrent audits when
	// processing a URL list.
	DefaultBatchSize = 5

	// DefaultProviderTimeout is the timeout for one Level-2 provider
	// call, including the token exchange where the provider needs one.
	DefaultProviderTimeout = 60 * time.Second

	// RegistryCacheTTL is how long a registry cache entry stays fresh.
	// The operator registry changes slowly; 24 hours keeps lookups
	// cheap without serving stale verdicts for long.
	RegistryCacheTTL = 24 * time.Hour

	// AppName is the application name used for XDG directory paths.
	AppName = "securelex"
)

// Config holds all runtime options for the audit engine. It is populated
// from CLI flags and the configuration file and passed through the
// application via dependency injection rather than global state.
type Config struct {
	// Targets are the URLs to audit.
	Targets []string

	// FetchTimeout is the timeout for fetching the audited page.
	FetchTimeout time.Duration

	// Level2 enables AI escalation after the heuristic pass.
	Level2 bool

	// AIMode selects the provider orchestration policy. See the ai
	// package for the closed set of modes.
	AIMode string

	// CrawlMaxPages caps pages per diagnostic crawl.
	CrawlMaxPages int

	// CrawlBudget is the wall-clock limit for a diagnostic crawl.
	CrawlBudget time.Duration

	// BatchSize is the number of concurrent audits for URL lists.
	BatchSize int

	// Verbose enables slog.LevelDebug output.
	Verbose bool

	// ConfigFilePath is an explicit configuration file path. Empty
	// means search the default locations.
	ConfigFilePath string

	// JSONReport and MarkdownReport select the output format. Both
	// false means the human-readable console format. Mutually
	// exclusive.
	JSONReport     bool
	MarkdownReport bool

	// ReportFile writes the report to a file instead of stdout.
	ReportFile string

	// DBDir is the directory holding the registry cache database.
	// Defaults to the XDG data directory.
	DBDir string

	// Credentials holds resolved provider credentials.
	Credentials Credentials
}

// NewConfig returns a Config populated with defaults.
func NewConfig() *Config {
	return &Config{
		FetchTimeout:  DefaultFetchTimeout,
		Level2:        true,
		AIMode:        "gigachat_only",
		CrawlMaxPages: DefaultCrawlMaxPages,
		CrawlBudget:   DefaultCrawlBudget,
		BatchSize:     DefaultBatchSize,
		DBDir:         XDGDataDir(),
	}
}

// Validate checks the configuration for inconsistencies.
// It returns one of the package's sentinel errors, suitable for
// errors.Is checks at the call site.
func (c *Config) Validate() error {
	if len(c.Targets) == 0 {
		return ErrNoTarget
	}
	if c.FetchTimeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}
	if c.CrawlMaxPages <= 0 {
		return ErrInvalidMaxPages
	}
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}
	return nil
}

// XDGDataDir returns the directory for persistent application data
// (the registry cache database), e.g. ~/.local/share/securelex on Linux.
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}
