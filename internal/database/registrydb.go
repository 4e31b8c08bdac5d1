package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/securelex/securelex/internal/model"
)

// RegistryDB provides SQLite-based storage for registry lookup results.
// It manages connection pooling and serves the 24-hour lookup cache.
//
// Design decision: We use a single database file shared by every audit
// rather than one file per target. Registry entries are keyed by tax id,
// not by audited site, so sharing maximizes cache hits across audits.
type RegistryDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures RegistryDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	// This is recommended for most use cases.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a RegistryDB at the specified path.
// If CreateIfNotExists is true, the directory and database file are created.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*RegistryDB, error) {
	dbPath := filepath.Join(dbDir, "securelex.db")

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// modernc.org/sqlite connection string: mode=rw prevents creating new
	// files, mode=rwc allows creation.
	var dsn string
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	} else {
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer; a single connection avoids
	// SQLITE_BUSY under concurrent upserts.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	rdb := &RegistryDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := rdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return rdb, nil
}

// Close closes the database connection.
func (rdb *RegistryDB) Close() error {
	return rdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (rdb *RegistryDB) createTables() error {
	schema := `
	-- Registry cache stores one row per tax id, positive or negative.
	CREATE TABLE IF NOT EXISTS registry_cache (
		inn TEXT PRIMARY KEY,
		is_registered INTEGER NOT NULL DEFAULT 0,
		company_name TEXT,
		registration_number TEXT,
		registration_date TEXT,
		raw_data TEXT,
		last_checked_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_registry_checked ON registry_cache(last_checked_at);
	`

	_, err := rdb.db.ExecContext(context.Background(), schema)
	return err
}

// UpsertEntry inserts or replaces the cache row for the entry's tax id.
// Negative and failed lookups are stored the same way as hits, so a miss
// is not re-fetched until the TTL expires.
func (rdb *RegistryDB) UpsertEntry(ctx context.Context, entry *model.RegistryCacheEntry) error {
	query := `
	INSERT INTO registry_cache (inn, is_registered, company_name, registration_number, registration_date, raw_data, last_checked_at)
	VALUES (?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
	ON CONFLICT(inn) DO UPDATE SET
		is_registered = excluded.is_registered,
		company_name = excluded.company_name,
		registration_number = excluded.registration_number,
		registration_date = excluded.registration_date,
		raw_data = excluded.raw_data,
		last_checked_at = CURRENT_TIMESTAMP
	`

	_, err := rdb.db.ExecContext(ctx, query,
		entry.TaxID,
		boolToInt(entry.IsRegistered),
		entry.CompanyName,
		entry.RegistrationNumber,
		entry.RegistrationDate,
		entry.RawData,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert registry entry: %w", err)
	}

	return nil
}

// GetEntry retrieves the cache row for a tax id if it is younger than
// maxAge. Absent and expired rows both come back as nil; expired rows
// stay in place until the next upsert overwrites them.
func (rdb *RegistryDB) GetEntry(ctx context.Context, taxID string, maxAge time.Duration) (*model.RegistryCacheEntry, error) {
	query := `
	SELECT inn, is_registered, company_name, registration_number, registration_date, raw_data, last_checked_at
	FROM registry_cache
	WHERE inn = ?
	`

	var entry model.RegistryCacheEntry
	var isRegistered int
	var companyName, regNumber, regDate, rawData sql.NullString
	var lastChecked string

	err := rdb.db.QueryRowContext(ctx, query, taxID).Scan(
		&entry.TaxID,
		&isRegistered,
		&companyName,
		&regNumber,
		&regDate,
		&rawData,
		&lastChecked,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get registry entry: %w", err)
	}

	entry.IsRegistered = isRegistered != 0
	entry.CompanyName = companyName.String
	entry.RegistrationNumber = regNumber.String
	entry.RegistrationDate = regDate.String
	entry.RawData = rawData.String
	entry.LastCheckedAt = parseTimestamp(lastChecked)

	if entry.LastCheckedAt.IsZero() || time.Since(entry.LastCheckedAt) > maxAge {
		return nil, nil
	}

	return &entry, nil
}

// CountEntries returns the number of cached rows, fresh or stale.
func (rdb *RegistryDB) CountEntries(ctx context.Context) (int, error) {
	var count int
	if err := rdb.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM registry_cache").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count registry entries: %w", err)
	}
	return count, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05Z",    // ISO 8601 with Z suffix
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	time.RFC3339,              // Full RFC3339 format
	time.RFC3339Nano,          // RFC3339 with nanoseconds
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// SQLite may return timestamps in different formats depending on configuration.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
