// Package state provides the best-effort persistence layer used to remember
// the active role across process restarts.
//
// Responsibilities:
//   - Backend only loads/saves one string value for one key.
//   - Shim wraps a Backend and never surfaces failures: reads that fail
//     report "absent", writes that fail are logged and dropped.
//   - Backends are chosen once, at construction time. Hosts without a storage
//     facility use Noop and the role lives in memory only.
//
// Backends:
//
//	Noop         no storage facility, every call is a no-op
//	MemoryStore  in-process map, for tests and examples
//	SQLiteStore  single-table SQLite file (modernc.org/sqlite)
//	FileStore    TOML preferences file
//	AsyncBackend wraps another Backend and saves on a worker goroutine
//
// Persisted layout is one key mapped to the literal role string, e.g.
//
//	userRole = "coach"
//
// There is no versioning and no schema beyond that literal.
package state
