// Package redact removes secrets and host names from text destined for
// troubleshoot bundles.
//
// Detection uses regex heuristics covering common secret shapes: API token
// assignments, basic-auth and bearer headers, Tenable access/secret keys,
// JWTs, and private key blocks. Host redaction replaces known host names with
// named placeholders so logs stay readable.
package redact
