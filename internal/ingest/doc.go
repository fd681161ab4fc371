// Package ingest drives a single ingestion run: it consumes raw scan rows,
// filters them to the configured severities, normalizes them into findings,
// collapses duplicates, and feeds the result to the reconciliation engine in
// first-seen order before sweeping stale issues.
//
// The run is one pass and not restartable mid-stream; an interrupted run is
// simply re-run, since the tracker is authoritative and reconciliation is
// idempotent per key.
package ingest
