package redact

import (
	"regexp"
	"strings"
)

const placeholder = "[REDACTED]"

// secretPatterns are regex heuristics for common secret shapes.
var secretPatterns = []*regexp.Regexp{
	// Token/key/password assignments in YAML, JSON, or shell form
	regexp.MustCompile(`(?i)(api[_-]?token|api[_-]?key|access[_-]?key|secret[_-]?key|password|passwd)\s*[:=]\s*["']?([^\s"']{8,})["']?`),
	// Authorization headers
	regexp.MustCompile(`(?i)(Basic|Bearer)\s+[A-Za-z0-9._+/=-]{16,}`),
	// JWTs (three base64 segments separated by dots)
	regexp.MustCompile(`eyJ[A-Za-z0-9_-]{10,}\.eyJ[A-Za-z0-9_-]{10,}\.[A-Za-z0-9_-]{10,}`),
	// Tenable API keys (64 hex chars)
	regexp.MustCompile(`\b[0-9a-f]{64}\b`),
	// Private key blocks
	regexp.MustCompile(`-----BEGIN\s+(RSA\s+)?PRIVATE KEY-----`),
	// Atlassian API tokens
	regexp.MustCompile(`ATATT[A-Za-z0-9_=-]{20,}`),
}

// Secrets replaces detected secrets in text with [REDACTED].
func Secrets(text string) string {
	result := text
	for _, pat := range secretPatterns {
		result = pat.ReplaceAllString(result, placeholder)
	}
	return result
}

// Host replaces every occurrence of host in text with the named placeholder,
// e.g. "<JIRA_CLOUD_HOST>". Empty hosts are ignored.
func Host(text, host, name string) string {
	if host == "" {
		return text
	}
	return strings.ReplaceAll(text, host, "<"+name+">")
}
