package tracker

import (
	"context"

	"github.com/Mainfreight/integration-jira-cloud/internal/finding"
)

// Status is the reconciliation-relevant state of a tracker issue. Tracker
// workflows with richer states collapse into these two.
type Status string

const (
	StatusOpen     Status = "Open"
	StatusResolved Status = "Resolved"
)

// ParentIssue is the tracker ticket representing a vulnerability class (one
// per plugin id). It owns zero or more Subtasks.
type ParentIssue struct {
	Key      string
	PluginID string
	Summary  string
	Status   Status
}

// Subtask is the tracker sub-ticket representing one affected asset under a
// ParentIssue.
type Subtask struct {
	Key     string
	Asset   string
	Summary string
	Status  Status
}

// Tracker is the capability set the reconciliation engine requires from the
// issue tracker. Lookups return (nil, nil) when no matching issue exists;
// errors are reserved for failed calls.
type Tracker interface {
	// FindParent looks up the parent issue for a plugin id.
	FindParent(ctx context.Context, pluginID string) (*ParentIssue, error)
	// CreateParent files a new parent issue for the finding's plugin.
	CreateParent(ctx context.Context, f finding.Finding) (*ParentIssue, error)
	// FindSubtask looks up the subtask for an asset under a parent.
	FindSubtask(ctx context.Context, parent *ParentIssue, asset string) (*Subtask, error)
	// CreateSubtask files a new subtask for the finding's asset under parent.
	CreateSubtask(ctx context.Context, parent *ParentIssue, f finding.Finding) (*Subtask, error)
	// UpdateSubtaskSummary rewrites a subtask's summary line.
	UpdateSubtaskSummary(ctx context.Context, sub *Subtask, summary string) error
	// Transition moves an issue to the target status.
	Transition(ctx context.Context, issueKey string, target Status) error
	// ListOpenSubtasks returns the subtasks of parent that are still open.
	ListOpenSubtasks(ctx context.Context, parent *ParentIssue) ([]Subtask, error)
	// SearchOpenParents returns every open parent issue managed by the
	// integration, including ones absent from the current scan.
	SearchOpenParents(ctx context.Context) ([]ParentIssue, error)
	// Comment adds a comment to an issue.
	Comment(ctx context.Context, issueKey, body string) error
}
