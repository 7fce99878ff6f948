// Package pipeline orchestrates a complete render: precondition checks,
// duration probing, chunk planning, stream-copy splitting, supervised
// parallel encoding, stream-copy merging, and cleanup.
//
// A render touches the filesystem in a strict order. Nothing is created
// until every precondition passes; all intermediates live in a per-render
// work directory named by a fresh UUID; the final video reaches its
// destination through an atomic rename; the work directory is removed on
// both success and failure. A render attempt is never retried here, only
// recorded in the journal.
package pipeline
