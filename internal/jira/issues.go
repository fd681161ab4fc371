package jira

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/Mainfreight/integration-jira-cloud/internal/finding"
	"github.com/Mainfreight/integration-jira-cloud/internal/tracker"
)

// openStatusFilter excludes issues Jira considers finished. Mirrors the
// status names Jira Cloud ships by default.
const openStatusFilter = `status not in (Closed, Done, Resolved)`

const searchPageSize = 100

type searchRequest struct {
	JQL        string   `json:"jql"`
	StartAt    int      `json:"startAt"`
	MaxResults int      `json:"maxResults"`
	Fields     []string `json:"fields"`
}

type searchResponse struct {
	Total  int     `json:"total"`
	Issues []issue `json:"issues"`
}

type issue struct {
	Key    string      `json:"key"`
	Fields issueFields `json:"fields"`
}

type issueFields struct {
	Summary string   `json:"summary"`
	Labels  []string `json:"labels"`
	Status  struct {
		Name string `json:"name"`
	} `json:"status"`
}

// search runs a JQL query and follows the startAt pagination until every
// matching issue is collected.
func (c *Client) search(ctx context.Context, op, jql string) (*searchResponse, error) {
	var all searchResponse
	for start := 0; ; {
		req := searchRequest{
			JQL:        jql,
			StartAt:    start,
			MaxResults: searchPageSize,
			Fields:     []string{"summary", "status", "labels"},
		}
		var page searchResponse
		if err := c.do(ctx, op, http.MethodPost, "/search", req, &page); err != nil {
			return nil, err
		}
		all.Issues = append(all.Issues, page.Issues...)
		all.Total = page.Total
		start += len(page.Issues)
		if len(page.Issues) == 0 || start >= page.Total {
			return &all, nil
		}
	}
}

// statusOf collapses a Jira status name into the tracker's two states.
func statusOf(name string) tracker.Status {
	switch strings.ToLower(name) {
	case "closed", "done", "resolved":
		return tracker.StatusResolved
	default:
		return tracker.StatusOpen
	}
}

func labelValue(labels []string, prefix string) string {
	for _, l := range labels {
		if strings.HasPrefix(l, prefix) {
			return strings.TrimPrefix(l, prefix)
		}
	}
	return ""
}

// FindParent looks up the parent task for a plugin id. Open parents win over
// resolved ones so re-reported findings attach to the live issue.
func (c *Client) FindParent(ctx context.Context, pluginID string) (*tracker.ParentIssue, error) {
	jql := fmt.Sprintf(`project = %q AND issuetype = %q AND labels = %q AND labels = %q ORDER BY created ASC`,
		c.cfg.ProjectKey, c.cfg.TaskType, ManagedLabel, pluginLabelPrefix+pluginID)
	out, err := c.search(ctx, "finding parent issue", jql)
	if err != nil {
		return nil, err
	}
	if len(out.Issues) == 0 {
		return nil, nil
	}

	best := out.Issues[0]
	for _, is := range out.Issues {
		if statusOf(is.Fields.Status.Name) == tracker.StatusOpen {
			best = is
			break
		}
	}
	return &tracker.ParentIssue{
		Key:      best.Key,
		PluginID: pluginID,
		Summary:  best.Fields.Summary,
		Status:   statusOf(best.Fields.Status.Name),
	}, nil
}

type createFields struct {
	Project   keyRef         `json:"project"`
	IssueType nameRef        `json:"issuetype"`
	Parent    *keyRef        `json:"parent,omitempty"`
	Summary   string         `json:"summary"`
	Labels    []string       `json:"labels"`
	Desc      map[string]any `json:"description,omitempty"`
}

type keyRef struct {
	Key string `json:"key"`
}

type nameRef struct {
	Name string `json:"name"`
}

type createRequest struct {
	Fields createFields `json:"fields"`
}

type createResponse struct {
	Key string `json:"key"`
}

// CreateParent files the parent task for the finding's plugin.
func (c *Client) CreateParent(ctx context.Context, f finding.Finding) (*tracker.ParentIssue, error) {
	summary := finding.BuildSummary(f.PluginID, f.Title, "")
	req := createRequest{Fields: createFields{
		Project:   keyRef{Key: c.cfg.ProjectKey},
		IssueType: nameRef{Name: c.cfg.TaskType},
		Summary:   summary,
		Labels:    []string{ManagedLabel, pluginLabelPrefix + f.PluginID},
		Desc:      adfDocument(f.RawOutput),
	}}
	var out createResponse
	if err := c.do(ctx, "creating parent issue", http.MethodPost, "/issue", req, &out); err != nil {
		return nil, err
	}
	if out.Key == "" {
		return nil, tracker.Errorf(tracker.SchemaMismatch, "creating parent issue", "create response is missing the issue key")
	}
	c.log.Debug("created jira issue", zap.String("key", out.Key))
	return &tracker.ParentIssue{
		Key:      out.Key,
		PluginID: f.PluginID,
		Summary:  summary,
		Status:   tracker.StatusOpen,
	}, nil
}

// FindSubtask looks up the subtask for an asset under parent.
func (c *Client) FindSubtask(ctx context.Context, parent *tracker.ParentIssue, asset string) (*tracker.Subtask, error) {
	jql := fmt.Sprintf(`parent = %q AND issuetype = %q AND labels = %q ORDER BY created ASC`,
		parent.Key, c.cfg.SubtaskType, assetLabelPrefix+asset)
	out, err := c.search(ctx, "finding subtask", jql)
	if err != nil {
		return nil, err
	}
	if len(out.Issues) == 0 {
		return nil, nil
	}
	is := out.Issues[0]
	return &tracker.Subtask{
		Key:     is.Key,
		Asset:   asset,
		Summary: is.Fields.Summary,
		Status:  statusOf(is.Fields.Status.Name),
	}, nil
}

// CreateSubtask files the subtask for the finding's asset under parent.
func (c *Client) CreateSubtask(ctx context.Context, parent *tracker.ParentIssue, f finding.Finding) (*tracker.Subtask, error) {
	req := createRequest{Fields: createFields{
		Project:   keyRef{Key: c.cfg.ProjectKey},
		IssueType: nameRef{Name: c.cfg.SubtaskType},
		Parent:    &keyRef{Key: parent.Key},
		Summary:   f.Summary,
		Labels:    []string{ManagedLabel, pluginLabelPrefix + f.PluginID, assetLabelPrefix + f.Asset},
		Desc:      adfDocument(f.RawOutput),
	}}
	var out createResponse
	if err := c.do(ctx, "creating subtask", http.MethodPost, "/issue", req, &out); err != nil {
		return nil, err
	}
	if out.Key == "" {
		return nil, tracker.Errorf(tracker.SchemaMismatch, "creating subtask", "create response is missing the issue key")
	}
	c.log.Debug("created jira subtask", zap.String("key", out.Key))
	return &tracker.Subtask{
		Key:     out.Key,
		Asset:   f.Asset,
		Summary: f.Summary,
		Status:  tracker.StatusOpen,
	}, nil
}

// UpdateSubtaskSummary rewrites a subtask's summary line.
func (c *Client) UpdateSubtaskSummary(ctx context.Context, sub *tracker.Subtask, summary string) error {
	payload := map[string]any{
		"fields": map[string]any{"summary": summary},
	}
	path := "/issue/" + url.PathEscape(sub.Key)
	if err := c.do(ctx, "updating subtask", http.MethodPut, path, payload, nil); err != nil {
		return err
	}
	sub.Summary = summary
	return nil
}

// ListOpenSubtasks returns the open subtasks under parent.
func (c *Client) ListOpenSubtasks(ctx context.Context, parent *tracker.ParentIssue) ([]tracker.Subtask, error) {
	jql := fmt.Sprintf(`parent = %q AND issuetype = %q AND %s`,
		parent.Key, c.cfg.SubtaskType, openStatusFilter)
	out, err := c.search(ctx, "listing open subtasks", jql)
	if err != nil {
		return nil, err
	}
	subs := make([]tracker.Subtask, 0, len(out.Issues))
	for _, is := range out.Issues {
		subs = append(subs, tracker.Subtask{
			Key:     is.Key,
			Asset:   labelValue(is.Fields.Labels, assetLabelPrefix),
			Summary: is.Fields.Summary,
			Status:  statusOf(is.Fields.Status.Name),
		})
	}
	return subs, nil
}

// SearchOpenParents returns every open managed parent task in the project.
func (c *Client) SearchOpenParents(ctx context.Context) ([]tracker.ParentIssue, error) {
	jql := fmt.Sprintf(`project = %q AND issuetype = %q AND labels = %q AND %s`,
		c.cfg.ProjectKey, c.cfg.TaskType, ManagedLabel, openStatusFilter)
	out, err := c.search(ctx, "listing open parent issues", jql)
	if err != nil {
		return nil, err
	}
	parents := make([]tracker.ParentIssue, 0, len(out.Issues))
	for _, is := range out.Issues {
		pluginID := labelValue(is.Fields.Labels, pluginLabelPrefix)
		if pluginID == "" {
			// Managed label without a plugin label means someone edited the
			// issue by hand; leave it alone.
			c.log.Warn("managed issue has no plugin label, ignoring",
				zap.String("key", is.Key))
			continue
		}
		parents = append(parents, tracker.ParentIssue{
			Key:      is.Key,
			PluginID: pluginID,
			Summary:  is.Fields.Summary,
			Status:   statusOf(is.Fields.Status.Name),
		})
	}
	return parents, nil
}
