// Package tasks runs the weekplan synchronization with real-time progress reporting.
//
// # Core Operations
//
//  1. [WeekplanEngine.Sync] : Week-windowed weekplan sync
//     - Requires a stored session with an auth cookie, checked before any request
//     - Fetches one calendar week page per step, paced by a rate limiter
//     - Extracts day records and merges them into [since, since+days), first date wins
//     - Returns a fresh snapshot ordered by date
//
//  2. [WeekplanEngine.ExportHistory] : Export stored snapshots
//     - Loads snapshots from the history database by sequence number
//     - Renders them with a pool of workers in one of the formatter's formats
//     - Writes an export_manifest.json next to the files
//
// # Progress Reporting
//
// All operations use non-blocking channels for progress updates.
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data for advanced UI rendering.
// Updates use select with default to prevent blocking.
package tasks
