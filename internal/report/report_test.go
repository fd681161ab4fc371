package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/Mainfreight/integration-jira-cloud/internal/reconcile"
)

func TestRecord(t *testing.T) {
	s := NewSummary()
	outcomes := []reconcile.Outcome{
		reconcile.OutcomeCreated,
		reconcile.OutcomeCreated,
		reconcile.OutcomeUpdated,
		reconcile.OutcomeUnchanged,
		reconcile.OutcomeReopened,
		reconcile.OutcomeResolved,
		reconcile.OutcomeSkipped,
		reconcile.OutcomeErroredRetryable,
		reconcile.OutcomeErroredFatal,
	}
	for _, o := range outcomes {
		s.Record(reconcile.Result{Outcome: o})
	}

	if s.Created != 2 || s.Updated != 1 || s.Unchanged != 1 {
		t.Errorf("created/updated/unchanged = %d/%d/%d", s.Created, s.Updated, s.Unchanged)
	}
	if s.Reopened != 1 || s.Resolved != 1 || s.Skipped != 1 {
		t.Errorf("reopened/resolved/skipped = %d/%d/%d", s.Reopened, s.Resolved, s.Skipped)
	}
	// Both error flavors land in the same counter.
	if s.Errored != 2 {
		t.Errorf("Errored = %d, want 2", s.Errored)
	}
	if s.Total() != len(outcomes) {
		t.Errorf("Total = %d, want %d", s.Total(), len(outcomes))
	}
}

func TestNewSummary(t *testing.T) {
	a, b := NewSummary(), NewSummary()
	if a.RunID == "" || a.RunID == b.RunID {
		t.Errorf("run ids not unique: %q vs %q", a.RunID, b.RunID)
	}
	if a.StartedAt.IsZero() {
		t.Error("StartedAt not set")
	}
}

func TestTextWriter(t *testing.T) {
	s := NewSummary()
	s.Created = 3
	s.Errored = 1
	s.FilteredRows = 5
	s.Finish(1500 * time.Millisecond)

	var buf bytes.Buffer
	if err := (&TextWriter{}).Write(&buf, s); err != nil {
		t.Fatalf("Write error: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"Created:    3",
		"Errored:    1",
		"Rows filtered by severity: 5",
		"4 findings in 1500ms",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestTextWriter_OmitsRowLineWhenClean(t *testing.T) {
	var buf bytes.Buffer
	if err := (&TextWriter{}).Write(&buf, NewSummary()); err != nil {
		t.Fatalf("Write error: %v", err)
	}
	if strings.Contains(buf.String(), "Rows filtered") {
		t.Error("row line should be omitted when nothing was filtered")
	}
}

func TestJSONWriter(t *testing.T) {
	s := NewSummary()
	s.Resolved = 2
	s.InvalidRows = 1

	var buf bytes.Buffer
	if err := (&JSONWriter{}).Write(&buf, s); err != nil {
		t.Fatalf("Write error: %v", err)
	}

	var got Summary
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if got.RunID != s.RunID || got.Resolved != 2 || got.InvalidRows != 1 {
		t.Errorf("round trip = %+v", got)
	}
}

func TestGetWriter(t *testing.T) {
	if _, err := GetWriter("text"); err != nil {
		t.Errorf("text: %v", err)
	}
	if _, err := GetWriter("json"); err != nil {
		t.Errorf("json: %v", err)
	}
	if _, err := GetWriter("xml"); err == nil {
		t.Error("expected error for unsupported format")
	}
}
