// Package repositories implements persistence for weekplan snapshots and cached tokens.
//
// Key Implementations:
//   - [SnapshotFile] : the latest snapshot as a JSON document, replaced atomically on every sync
//   - [SnapshotRepository] : SQLite history of every synced snapshot with its days and recipes
//   - [TokenRepository] : SQLite cache for the search API key
//
// Sequence numbers provide stable, human-readable ordering (e.g. snapshot #42) independent of UUIDs and creation timestamps.
// [NextSequence] bumps the counter of a <table>_sequence table inside the caller's transaction.
package repositories
