// Package store is the SQLite storage collaborator.
//
// It executes queryir selections and row mutations compiled by querysql,
// and owns two framework tables:
//   - notifications: database-channel notification payloads
//   - jobs: audit trail of queued notification deliveries
//
// # Deterministic Reads
//
// Every SELECT carries an ORDER BY. Entity selections order by the column
// the caller names or by rowid. Framework tables order by rowid, which is
// insertion order.
//
// # Errors
//
// Driver failures are returned as errs.Storage errors wrapping the
// driver error, so errors.As still reaches sqlite3.Error. Invalid queries
// are rejected before any round trip with errs.Configuration.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait on lock contention
//   - foreign_keys=ON: Enforce referential integrity
package store
