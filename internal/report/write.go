package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
)

// Writer renders a summary in a specific format.
type Writer interface {
	Write(w io.Writer, s *Summary) error
}

// GetWriter returns a writer for the specified format.
func GetWriter(format string) (Writer, error) {
	switch format {
	case "text":
		return &TextWriter{}, nil
	case "json":
		return &JSONWriter{}, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

// WriteSummary writes the summary to the specified output (file path or stdout).
func WriteSummary(s *Summary, format, outPath string) error {
	writer, err := GetWriter(format)
	if err != nil {
		return err
	}

	var w io.Writer
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		w = f
	} else {
		w = os.Stdout
	}

	return writer.Write(w, s)
}

// TextWriter outputs a human-readable run summary.
type TextWriter struct{}

func (t *TextWriter) Write(w io.Writer, s *Summary) error {
	ew := &errWriter{w: w}

	ew.printf("Ingest run %s\n", s.RunID)
	ew.println(strings.Repeat("─", 60))
	ew.printf("  Created:    %d\n", s.Created)
	ew.printf("  Updated:    %d\n", s.Updated)
	ew.printf("  Reopened:   %d\n", s.Reopened)
	ew.printf("  Unchanged:  %d\n", s.Unchanged)
	ew.printf("  Resolved:   %d\n", s.Resolved)
	ew.printf("  Skipped:    %d\n", s.Skipped)
	ew.printf("  Errored:    %d\n", s.Errored)
	if s.FilteredRows > 0 || s.InvalidRows > 0 {
		ew.printf("  Rows filtered by severity: %d, malformed: %d\n",
			s.FilteredRows, s.InvalidRows)
	}
	ew.println(strings.Repeat("─", 60))
	ew.printf("Completed %d findings in %dms\n", s.Total(), s.DurationMs)

	return ew.err
}

// JSONWriter outputs the full summary as JSON.
type JSONWriter struct{}

func (j *JSONWriter) Write(w io.Writer, s *Summary) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("writing JSON: %w", err)
	}
	_, err = fmt.Fprintln(w)
	return err
}

// errWriter wraps an io.Writer and captures the first error.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...interface{}) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}

func (ew *errWriter) println(s string) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintln(ew.w, s)
}
