// Package report aggregates per-run reconciliation outcomes into a summary
// and renders it as text or JSON.
//
// The summary is the run's only local output: counts by outcome, row-level
// skip counts, a run id, and timing. Operators watch the errored and invalid
// counts to detect silent data loss, since a single finding's failure never
// aborts the batch.
package report
