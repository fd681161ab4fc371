package finding

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Jira summary fields accept at most 255 characters; summaries longer than
// summaryCut are truncated and suffixed with the ellipsis marker.
const (
	summaryCut = 253
	ellipsis   = ".."
)

// ValidationError reports a raw row that cannot be normalized into a Finding.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid row: field %q %s", e.Field, e.Reason)
}

// IsValidationError checks if an error is a row validation error.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// urlPatterns are tried in order against plugin output; the first non-empty
// submatch wins. Order matters: "detected on" phrasing takes priority over
// URL blocks and inline URL fields.
var urlPatterns = []*regexp.Regexp{
	regexp.MustCompile(`detected\son\s([\w:/.-]+)`),
	regexp.MustCompile(`URL\n-----\n(.+)\n`),
	regexp.MustCompile(`URL:\s?([\w:/.-]+)`),
}

// ExtractURL pulls the affected URL out of free-text plugin output. Extraction
// is best-effort: absence of a URL is a valid result, not an error.
func ExtractURL(output string) string {
	for _, pat := range urlPatterns {
		if m := pat.FindStringSubmatch(output); m != nil && m[1] != "" {
			return m[1]
		}
	}
	return ""
}

// BuildSummary renders the "[plugin] title: url" display summary, truncated to
// fit the tracker's summary field limit. URLs can blow the line well past the
// limit, so anything over summaryCut runes is cut there and marked with "..".
func BuildSummary(pluginID, title, url string) string {
	s := fmt.Sprintf("[%s] %s: %s", pluginID, title, url)
	r := []rune(s)
	if len(r) > summaryCut {
		return string(r[:summaryCut]) + ellipsis
	}
	return s
}

// Normalize converts a raw scan row into a canonical Finding. It returns a
// *ValidationError when a required field is missing or the severity label is
// not recognized.
func Normalize(row Row) (Finding, error) {
	pluginID := strings.TrimSpace(row[FieldPluginID])
	if pluginID == "" {
		return Finding{}, &ValidationError{Field: FieldPluginID, Reason: "is missing"}
	}
	asset := strings.TrimSpace(row[FieldAsset])
	if asset == "" {
		return Finding{}, &ValidationError{Field: FieldAsset, Reason: "is missing"}
	}
	title := strings.TrimSpace(row[FieldName])
	if title == "" {
		return Finding{}, &ValidationError{Field: FieldName, Reason: "is missing"}
	}
	risk := strings.TrimSpace(row[FieldRisk])
	if risk == "" {
		return Finding{}, &ValidationError{Field: FieldRisk, Reason: "is missing"}
	}
	sev, ok := ParseSeverity(risk)
	if !ok {
		return Finding{}, &ValidationError{Field: FieldRisk, Reason: fmt.Sprintf("has unrecognized value %q", risk)}
	}

	output := row[FieldOutput]
	url := ExtractURL(output)

	return Finding{
		PluginID:  pluginID,
		Asset:     asset,
		Severity:  sev,
		Title:     title,
		URL:       url,
		RawOutput: output,
		Summary:   BuildSummary(pluginID, title, url),
	}, nil
}
