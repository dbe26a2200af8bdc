// Package library persists the local media catalog in SQLite: owned items
// contributed by library providers, completeness records produced by the
// analysis engine, and settings. The store exposes a batch-write mode so
// long analysis runs can coalesce disk synchronization and checkpoint
// their progress.
package library
