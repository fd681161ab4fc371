// Package jira implements the tracker contract against the Jira Cloud REST
// API (v3).
//
// Correlation between scan findings and issues uses labels: every managed
// issue carries the "tio2jira" label, parents carry "plugin:<id>", and
// subtasks carry "asset:<host>". Labels keep the JQL lookups exact-match.
//
// HTTP failures are triaged into the tracker error taxonomy: 429 is rate
// limited, 401/403 unauthorized, 404 not found, 5xx and transport errors
// transient, and undecodable responses schema mismatches. Requests pass
// through a client-side rate limiter so bursts of subtask creation do not
// trip Jira Cloud's throttling.
package jira
