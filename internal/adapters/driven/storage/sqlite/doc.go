// Package sqlite provides a unified SQLite-based implementation of driven port interfaces.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, with jmoiron/sqlx for row mapping. It implements multiple store interfaces
// through a single database connection:
//
//   - MailStore: stored mail, the source of truth the index is built from
//   - EventStore: calendar events, including repeat rules
//   - IndexStateStore: the persisted mail indexer state
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
// Times are stored as epoch milliseconds.
//
// # Data Location
//
// By default, the database is stored at ~/.pimsearch/data/pimsearch.db
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking provided
// by SQLite in WAL mode.
//
// Every error returned wraps domain.ErrStorage.
package sqlite
