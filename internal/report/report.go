package report

import (
	"time"

	"github.com/google/uuid"

	"github.com/Mainfreight/integration-jira-cloud/internal/reconcile"
)

// Summary is the per-run accounting of reconciliation outcomes.
type Summary struct {
	RunID      string    `json:"runId"`
	StartedAt  time.Time `json:"startedAt"`
	DurationMs int64     `json:"durationMs"`

	Created   int `json:"created"`
	Updated   int `json:"updated"`
	Unchanged int `json:"unchanged"`
	Reopened  int `json:"reopened"`
	Resolved  int `json:"resolved"`
	Skipped   int `json:"skipped"`
	Errored   int `json:"errored"`

	// FilteredRows were outside the severity allow-list; InvalidRows failed
	// normalization.
	FilteredRows int `json:"filteredRows"`
	InvalidRows  int `json:"invalidRows"`
}

// NewSummary starts a summary for a fresh run.
func NewSummary() *Summary {
	return &Summary{
		RunID:     uuid.NewString(),
		StartedAt: time.Now().UTC(),
	}
}

// Record counts one reconciliation result.
func (s *Summary) Record(res reconcile.Result) {
	switch res.Outcome {
	case reconcile.OutcomeCreated:
		s.Created++
	case reconcile.OutcomeUpdated:
		s.Updated++
	case reconcile.OutcomeUnchanged:
		s.Unchanged++
	case reconcile.OutcomeReopened:
		s.Reopened++
	case reconcile.OutcomeResolved:
		s.Resolved++
	case reconcile.OutcomeSkipped:
		s.Skipped++
	case reconcile.OutcomeErroredRetryable, reconcile.OutcomeErroredFatal:
		s.Errored++
	}
}

// Finish stamps the run duration.
func (s *Summary) Finish(d time.Duration) {
	s.DurationMs = d.Milliseconds()
}

// Total is the number of recorded reconciliation results.
func (s *Summary) Total() int {
	return s.Created + s.Updated + s.Unchanged + s.Reopened + s.Resolved + s.Skipped + s.Errored
}
