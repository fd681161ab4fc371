// Package reconcile implements the state machine that diffs incoming findings
// against existing tracker state and emits the minimal set of mutations.
//
// Each plugin id owns one parent issue; each affected asset owns one subtask
// under that parent. Reconcile handles the create/reopen/update/unchanged path
// for a single finding; CloseStale sweeps open issues the current scan no
// longer reports and resolves them, parents last.
//
// Tracker writes go through bounded exponential backoff. A finding whose
// retries are exhausted degrades to an errored result and the batch continues;
// unauthorized or schema-mismatch failures abort the run.
package reconcile
