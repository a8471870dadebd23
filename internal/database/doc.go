// Package database provides SQLite-based storage for detection history.
//
// This package implements the HistoryDB, which stores:
//   - Complete detection reports as JSON for later inspection
//   - Per-report metadata (host, platform, verdict, outcome counts) so
//     history listings do not need to deserialize full reports
//
// Design decision: We use SQLite (via modernc.org/sqlite) instead of other
// databases because:
// 1. No external dependencies - the database is a single file
// 2. CGO-free implementation allows easy cross-compilation
// 3. Sufficient performance for our use case
// 4. WAL mode provides good concurrent read performance
//
// Detection history exists so that a host can be compared against its own
// past runs: a probe that flips from NOT_DETECTED to DETECTED between two
// runs on the same machine is a stronger signal than any single run.
package database
