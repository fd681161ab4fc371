// Tio2jira ingests Tenable vulnerability-scan CSV exports into Jira Cloud.
//
// Each vulnerability plugin becomes one parent task and each affected asset
// one sub-task under it. Re-runs reconcile rather than duplicate: recurring
// findings reopen their issues, and findings the scan no longer reports are
// resolved, parents last.
//
// Usage:
//
//	tio2jira ingest scan.csv                  # reconcile a scan export
//	tio2jira ingest --dry-run scan.csv        # look up only, mutate nothing
//	tio2jira ingest --setup-only              # verify credentials, write config
//	tio2jira troubleshoot                     # redacted diagnostics bundle
package main
