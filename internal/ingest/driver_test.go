package ingest

import (
	"context"
	"errors"
	"io"
	"testing"

	"go.uber.org/zap"

	"github.com/Mainfreight/integration-jira-cloud/internal/finding"
	"github.com/Mainfreight/integration-jira-cloud/internal/reconcile"
	"github.com/Mainfreight/integration-jira-cloud/internal/tracker"
)

// sliceSource yields rows from a slice.
type sliceSource struct {
	rows []finding.Row
	err  error
	i    int
}

func (s *sliceSource) Next() (finding.Row, error) {
	if s.i >= len(s.rows) {
		if s.err != nil {
			return nil, s.err
		}
		return nil, io.EOF
	}
	row := s.rows[s.i]
	s.i++
	return row, nil
}

// fakeEngine records reconciled findings and returns scripted outcomes.
type fakeEngine struct {
	findings []finding.Finding
	outcomes map[string][]reconcile.Result
	closed   []reconcile.Result
	closeErr error
}

func (e *fakeEngine) Reconcile(_ context.Context, f finding.Finding) []reconcile.Result {
	e.findings = append(e.findings, f)
	if res, ok := e.outcomes[f.Key()]; ok {
		return res
	}
	return []reconcile.Result{{PluginID: f.PluginID, Asset: f.Asset, Outcome: reconcile.OutcomeCreated}}
}

func (e *fakeEngine) CloseStale(_ context.Context) ([]reconcile.Result, error) {
	return e.closed, e.closeErr
}

func row(plugin, asset, risk, name string) finding.Row {
	return finding.Row{
		finding.FieldPluginID: plugin,
		finding.FieldAsset:    asset,
		finding.FieldRisk:     risk,
		finding.FieldName:     name,
		finding.FieldOutput:   "",
	}
}

func highAndCritical() []finding.Severity {
	return []finding.Severity{finding.SeverityCritical, finding.SeverityHigh}
}

func TestRun_FiltersSeverities(t *testing.T) {
	src := &sliceSource{rows: []finding.Row{
		row("100", "host-a", "Critical", "A"),
		row("101", "host-a", "Low", "B"),
		row("102", "host-a", "Info", "C"),
		row("103", "host-a", "High", "D"),
	}}
	eng := &fakeEngine{}
	d := NewDriver(eng, zap.NewNop(), highAndCritical())

	sum, err := d.Run(context.Background(), src)
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if len(eng.findings) != 2 {
		t.Fatalf("reconciled %d findings, want 2", len(eng.findings))
	}
	if sum.FilteredRows != 2 {
		t.Errorf("FilteredRows = %d, want 2", sum.FilteredRows)
	}
}

func TestRun_DedupeLastWins(t *testing.T) {
	src := &sliceSource{rows: []finding.Row{
		row("100", "host-a", "Critical", "first title"),
		row("200", "host-b", "High", "other"),
		row("100", "host-a", "High", "second title"),
	}}
	eng := &fakeEngine{}
	d := NewDriver(eng, zap.NewNop(), highAndCritical())

	if _, err := d.Run(context.Background(), src); err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if len(eng.findings) != 2 {
		t.Fatalf("reconciled %d findings, want 2", len(eng.findings))
	}
	// First-seen order, last values.
	if eng.findings[0].Key() != "100/host-a" || eng.findings[1].Key() != "200/host-b" {
		t.Errorf("order = %s, %s", eng.findings[0].Key(), eng.findings[1].Key())
	}
	if eng.findings[0].Title != "second title" {
		t.Errorf("Title = %q, want the last row's value", eng.findings[0].Title)
	}
	if eng.findings[0].Severity != finding.SeverityHigh {
		t.Errorf("Severity = %s, want the last row's value", eng.findings[0].Severity)
	}
}

func TestRun_InvalidRowsSkipped(t *testing.T) {
	bad := row("100", "host-a", "Critical", "A")
	bad[finding.FieldPluginID] = ""
	src := &sliceSource{rows: []finding.Row{
		bad,
		row("200", "host-b", "Critical", "B"),
	}}
	eng := &fakeEngine{}
	d := NewDriver(eng, zap.NewNop(), highAndCritical())

	sum, err := d.Run(context.Background(), src)
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if sum.InvalidRows != 1 {
		t.Errorf("InvalidRows = %d, want 1", sum.InvalidRows)
	}
	if len(eng.findings) != 1 {
		t.Errorf("reconciled %d findings, want 1", len(eng.findings))
	}
}

func TestRun_FatalAborts(t *testing.T) {
	src := &sliceSource{rows: []finding.Row{
		row("100", "host-a", "Critical", "A"),
		row("200", "host-b", "Critical", "B"),
	}}
	eng := &fakeEngine{outcomes: map[string][]reconcile.Result{
		"100/host-a": {{
			PluginID: "100", Asset: "host-a",
			Outcome: reconcile.OutcomeErroredFatal,
			Err:     &tracker.Error{Kind: tracker.Unauthorized, Op: "finding parent issue"},
		}},
	}}
	d := NewDriver(eng, zap.NewNop(), highAndCritical())

	sum, err := d.Run(context.Background(), src)
	if err == nil {
		t.Fatal("expected error")
	}
	if len(eng.findings) != 1 {
		t.Errorf("reconciled %d findings, want 1 (batch must abort)", len(eng.findings))
	}
	if sum.Errored != 1 {
		t.Errorf("Errored = %d, want 1", sum.Errored)
	}
}

func TestRun_RetryableErrorsContinue(t *testing.T) {
	src := &sliceSource{rows: []finding.Row{
		row("100", "host-a", "Critical", "A"),
		row("200", "host-b", "Critical", "B"),
	}}
	eng := &fakeEngine{outcomes: map[string][]reconcile.Result{
		"100/host-a": {{
			PluginID: "100", Asset: "host-a",
			Outcome: reconcile.OutcomeErroredRetryable,
			Err:     &tracker.Error{Kind: tracker.RateLimited, Op: "creating subtask"},
		}},
	}}
	d := NewDriver(eng, zap.NewNop(), highAndCritical())

	sum, err := d.Run(context.Background(), src)
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if len(eng.findings) != 2 {
		t.Errorf("reconciled %d findings, want 2", len(eng.findings))
	}
	if sum.Errored != 1 || sum.Created != 1 {
		t.Errorf("summary errored/created = %d/%d, want 1/1", sum.Errored, sum.Created)
	}
}

func TestRun_CountsParentCreateSeparately(t *testing.T) {
	src := &sliceSource{rows: []finding.Row{row("100", "host-a", "Critical", "A")}}
	eng := &fakeEngine{outcomes: map[string][]reconcile.Result{
		"100/host-a": {
			{PluginID: "100", Outcome: reconcile.OutcomeCreated},
			{PluginID: "100", Asset: "host-a", Outcome: reconcile.OutcomeCreated},
		},
	}}
	d := NewDriver(eng, zap.NewNop(), highAndCritical())

	sum, err := d.Run(context.Background(), src)
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if sum.Created != 2 {
		t.Errorf("Created = %d, want 2 (parent and subtask)", sum.Created)
	}
}

func TestRun_RecordsCloseResults(t *testing.T) {
	src := &sliceSource{rows: []finding.Row{row("100", "host-a", "Critical", "A")}}
	eng := &fakeEngine{closed: []reconcile.Result{
		{PluginID: "300", Asset: "host-z", Outcome: reconcile.OutcomeResolved},
		{PluginID: "300", Outcome: reconcile.OutcomeResolved},
	}}
	d := NewDriver(eng, zap.NewNop(), highAndCritical())

	sum, err := d.Run(context.Background(), src)
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if sum.Resolved != 2 {
		t.Errorf("Resolved = %d, want 2", sum.Resolved)
	}
}

func TestRun_SourceErrorSurfaces(t *testing.T) {
	src := &sliceSource{
		rows: []finding.Row{row("100", "host-a", "Critical", "A")},
		err:  errors.New("truncated file"),
	}
	eng := &fakeEngine{}
	d := NewDriver(eng, zap.NewNop(), highAndCritical())

	_, err := d.Run(context.Background(), src)
	if err == nil || len(eng.findings) != 0 {
		t.Fatalf("source errors must abort before reconciliation, err=%v", err)
	}
}
