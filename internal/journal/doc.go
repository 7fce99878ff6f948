// Package journal persists a record of every render attempt to SQLite.
// The pipeline itself never retries; the journal gives callers and the
// CLI history/stats commands the audit trail to decide what to re-run.
package journal
