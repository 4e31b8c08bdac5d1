package database

import (
	"context"
	"testing"
	"time"

	"github.com/securelex/securelex/internal/model"
)

// TestOpenCreatesDatabase tests database creation in a fresh directory.
func TestOpenCreatesDatabase(t *testing.T) {
	t.Parallel()

	rdb, err := Open(t.TempDir(), DefaultOptions())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer rdb.Close()

	count, err := rdb.CountEntries(context.Background())
	if err != nil {
		t.Fatalf("CountEntries() error = %v", err)
	}
	if count != 0 {
		t.Errorf("fresh database has %d entries", count)
	}
}

// TestOpenRequiresExisting tests the CreateIfNotExists=false path.
func TestOpenRequiresExisting(t *testing.T) {
	t.Parallel()

	opts := Options{CreateIfNotExists: false, EnableWAL: true}
	if _, err := Open(t.TempDir(), opts); err == nil {
		t.Error("expected an error opening a missing database")
	}
}

// TestUpsertAndGetEntry tests the cache round trip.
func TestUpsertAndGetEntry(t *testing.T) {
	t.Parallel()

	rdb, err := Open(t.TempDir(), DefaultOptions())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer rdb.Close()

	ctx := context.Background()
	entry := &model.RegistryCacheEntry{
		TaxID:              "7707083893",
		IsRegistered:       true,
		CompanyName:        "ПАО Сбербанк",
		RegistrationNumber: "77-17-003759",
		RegistrationDate:   "2017-05-12",
		RawData:            `{"source":"search"}`,
	}
	if err := rdb.UpsertEntry(ctx, entry); err != nil {
		t.Fatalf("UpsertEntry() error = %v", err)
	}

	got, err := rdb.GetEntry(ctx, "7707083893", time.Hour)
	if err != nil {
		t.Fatalf("GetEntry() error = %v", err)
	}
	if got == nil {
		t.Fatal("GetEntry() = nil for a fresh entry")
	}
	if !got.IsRegistered || got.CompanyName != "ПАО Сбербанк" {
		t.Errorf("entry = %+v", got)
	}
	if got.RegistrationNumber != "77-17-003759" || got.RegistrationDate != "2017-05-12" {
		t.Errorf("registration fields = %q, %q", got.RegistrationNumber, got.RegistrationDate)
	}
	if got.LastCheckedAt.IsZero() {
		t.Error("LastCheckedAt must be set by the upsert")
	}
}

// TestGetEntryMiss tests that an unknown tax id returns nil, nil.
func TestGetEntryMiss(t *testing.T) {
	t.Parallel()

	rdb, err := Open(t.TempDir(), DefaultOptions())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer rdb.Close()

	got, err := rdb.GetEntry(context.Background(), "0000000000", time.Hour)
	if err != nil {
		t.Fatalf("GetEntry() error = %v", err)
	}
	if got != nil {
		t.Errorf("GetEntry() = %+v, expected nil for a miss", got)
	}
}

// TestGetEntryExpired tests that a stale row behaves like a miss.
func TestGetEntryExpired(t *testing.T) {
	t.Parallel()

	rdb, err := Open(t.TempDir(), DefaultOptions())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer rdb.Close()

	ctx := context.Background()
	entry := &model.RegistryCacheEntry{TaxID: "5027089703", IsRegistered: false}
	if err := rdb.UpsertEntry(ctx, entry); err != nil {
		t.Fatalf("UpsertEntry() error = %v", err)
	}

	// A zero maxAge makes even a just-written row stale.
	got, err := rdb.GetEntry(ctx, "5027089703", 0)
	if err != nil {
		t.Fatalf("GetEntry() error = %v", err)
	}
	if got != nil {
		t.Errorf("GetEntry() = %+v, expected nil for an expired entry", got)
	}
}

// TestUpsertOverwrites tests that a second upsert replaces the row.
func TestUpsertOverwrites(t *testing.T) {
	t.Parallel()

	rdb, err := Open(t.TempDir(), DefaultOptions())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer rdb.Close()

	ctx := context.Background()

	// A negative lookup lands first, then the operator registers.
	if err := rdb.UpsertEntry(ctx, &model.RegistryCacheEntry{TaxID: "7736050003"}); err != nil {
		t.Fatalf("UpsertEntry() error = %v", err)
	}
	if err := rdb.UpsertEntry(ctx, &model.RegistryCacheEntry{
		TaxID:        "7736050003",
		IsRegistered: true,
		CompanyName:  "ПАО Газпром",
	}); err != nil {
		t.Fatalf("second UpsertEntry() error = %v", err)
	}

	got, err := rdb.GetEntry(ctx, "7736050003", time.Hour)
	if err != nil {
		t.Fatalf("GetEntry() error = %v", err)
	}
	if got == nil || !got.IsRegistered || got.CompanyName != "ПАО Газпром" {
		t.Errorf("entry = %+v, expected the overwritten values", got)
	}

	count, err := rdb.CountEntries(ctx)
	if err != nil {
		t.Fatalf("CountEntries() error = %v", err)
	}
	if count != 1 {
		t.Errorf("CountEntries() = %d, upsert must not duplicate rows", count)
	}
}

// TestParseTimestamp tests the SQLite timestamp format fallbacks.
func TestParseTimestamp(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		input string
		zero  bool
	}{
		{"2026-08-28 10:30:00", false},
		{"2026-08-28T10:30:00Z", false},
		{"2026-08-28T10:30:00+03:00", false},
		{"not a timestamp", true},
	}

	for _, tc := range testCases {
		got := parseTimestamp(tc.input)
		if got.IsZero() != tc.zero {
			t.Errorf("parseTimestamp(%q).IsZero() = %v, expected %v", tc.input, got.IsZero(), tc.zero)
		}
	}
}
