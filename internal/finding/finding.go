package finding

import "strings"

// Severity is the scanner-reported risk level of a finding.
type Severity string

const (
	SeverityCritical Severity = "Critical"
	SeverityHigh     Severity = "High"
	SeverityMedium   Severity = "Medium"
	SeverityLow      Severity = "Low"
	SeverityInfo     Severity = "Info"
)

var severities = map[string]Severity{
	"critical": SeverityCritical,
	"high":     SeverityHigh,
	"medium":   SeverityMedium,
	"low":      SeverityLow,
	"info":     SeverityInfo,
	"none":     SeverityInfo,
}

// ParseSeverity maps a raw severity label to a Severity, case-insensitively.
func ParseSeverity(label string) (Severity, bool) {
	s, ok := severities[strings.ToLower(strings.TrimSpace(label))]
	return s, ok
}

// SeverityRank returns a numeric rank for filtering (higher = more severe).
func SeverityRank(s Severity) int {
	switch s {
	case SeverityCritical:
		return 5
	case SeverityHigh:
		return 4
	case SeverityMedium:
		return 3
	case SeverityLow:
		return 2
	case SeverityInfo:
		return 1
	default:
		return 0
	}
}

// Row is one raw scan-export record, keyed by column name.
type Row map[string]string

// Column names in Tenable CSV exports.
const (
	FieldPluginID = "Plugin ID"
	FieldAsset    = "Host"
	FieldRisk     = "Risk"
	FieldName     = "Name"
	FieldOutput   = "Plugin Output"
)

// Finding is one normalized vulnerability-on-asset record. Immutable once
// produced by Normalize.
type Finding struct {
	PluginID  string
	Asset     string
	Severity  Severity
	Title     string
	URL       string
	RawOutput string
	Summary   string
}

// Key uniquely identifies a finding within a batch.
func (f Finding) Key() string {
	return f.PluginID + "/" + f.Asset
}
