package jira

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/Mainfreight/integration-jira-cloud/internal/tracker"
)

// Workflow status names that count as each target state. Jira Cloud default
// workflows vary between "Done"-style and "Resolved"-style naming.
var transitionTargets = map[tracker.Status][]string{
	tracker.StatusResolved: {"closed", "done", "resolved"},
	tracker.StatusOpen:     {"open", "reopened", "to do", "backlog", "in progress"},
}

type transitionList struct {
	Transitions []transitionOption `json:"transitions"`
}

type transitionOption struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	To   struct {
		Name string `json:"name"`
	} `json:"to"`
}

// Transition moves an issue to the target status by picking the workflow
// transition whose destination matches it.
func (c *Client) Transition(ctx context.Context, issueKey string, target tracker.Status) error {
	const op = "transitioning issue"
	path := "/issue/" + url.PathEscape(issueKey) + "/transitions"

	var list transitionList
	if err := c.do(ctx, op, http.MethodGet, path, nil, &list); err != nil {
		return err
	}

	id := pickTransition(list.Transitions, target)
	if id == "" {
		return tracker.Errorf(tracker.SchemaMismatch, op,
			"no workflow transition on %s leads to %s", issueKey, target)
	}

	payload := map[string]any{"transition": map[string]string{"id": id}}
	if err := c.do(ctx, op, http.MethodPost, path, payload, nil); err != nil {
		return err
	}
	c.log.Debug("transitioned issue",
		zap.String("key", issueKey), zap.String("target", string(target)))
	return nil
}

// pickTransition selects a transition whose destination status (or, failing
// that, whose own name) matches the target state.
func pickTransition(opts []transitionOption, target tracker.Status) string {
	names := transitionTargets[target]
	for _, t := range opts {
		if matchesAny(t.To.Name, names) {
			return t.ID
		}
	}
	for _, t := range opts {
		if matchesAny(t.Name, names) {
			return t.ID
		}
	}
	return ""
}

func matchesAny(name string, candidates []string) bool {
	n := strings.ToLower(name)
	for _, c := range candidates {
		if n == c {
			return true
		}
	}
	return false
}

// Comment adds a plain-text comment to an issue.
func (c *Client) Comment(ctx context.Context, issueKey, body string) error {
	path := "/issue/" + url.PathEscape(issueKey) + "/comment"
	payload := map[string]any{"body": adfDocument(body)}
	return c.do(ctx, "commenting on issue", http.MethodPost, path, payload, nil)
}

// adfDocument wraps plain text in the minimal Atlassian Document Format
// structure the v3 API requires for rich-text fields.
func adfDocument(text string) map[string]any {
	if strings.TrimSpace(text) == "" {
		text = "No output"
	}
	return map[string]any{
		"version": 1,
		"type":    "doc",
		"content": []map[string]any{
			{
				"type": "paragraph",
				"content": []map[string]any{
					{"type": "text", "text": text},
				},
			},
		},
	}
}
