// Package finding defines the canonical vulnerability finding record and the
// normalization that produces it from raw scan-export rows.
//
// A Finding is one vulnerability observed on one asset, uniquely identified by
// its (plugin id, asset) pair. Normalization validates required columns, parses
// the scanner severity label, extracts the affected URL from free-text plugin
// output using prioritized patterns, and builds the tracker-ready summary line
// truncated to the tracker's 255-character limit.
package finding
