// Package tracker defines the contract between the reconciliation engine and
// the external issue tracker.
//
// The Tracker interface is a capability set, not a concrete API: lookups,
// creates, transitions, and open-issue enumeration. Failures carry a Kind so
// callers can decide between retrying (rate limits, transient network) and
// aborting the run (bad credentials, malformed responses).
package tracker
