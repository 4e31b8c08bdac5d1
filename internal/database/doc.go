// Package database provides SQLite-based storage for SecureLex.
//
// This package implements the RegistryDB, which caches operator registry
// lookups keyed by tax id (ИНН). Negative and failed lookups are cached
// too, so repeated misses do not hammer the regulator's search page.
//
// Design decision: We use SQLite (via modernc.org/sqlite) instead of other
// databases because:
// 1. No external dependencies - the database is a single file
// 2. CGO-free implementation allows easy cross-compilation
// 3. Sufficient performance for our use case
// 4. WAL mode provides good concurrent read performance
package database
