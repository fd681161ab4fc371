package jira

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/Mainfreight/integration-jira-cloud/internal/tracker"
)

// ManagedLabel marks every issue this integration owns.
const ManagedLabel = "tio2jira"

const (
	pluginLabelPrefix = "plugin:"
	assetLabelPrefix  = "asset:"
)

// Config holds the connection and project settings for a Client.
type Config struct {
	// Address is the Jira Cloud host (e.g. "example.atlassian.net"). A full
	// http(s) URL is accepted as-is, which tests rely on.
	Address  string
	Username string
	APIToken string

	ProjectKey  string
	TaskType    string
	SubtaskType string

	Timeout time.Duration
	// RequestsPerSecond caps outbound calls; zero disables the limiter.
	RequestsPerSecond float64
}

// Client is a Jira Cloud REST client implementing tracker.Tracker.
type Client struct {
	cfg     Config
	baseURL string
	httpCli *http.Client
	limiter *rate.Limiter
	log     *zap.Logger
}

// NewClient creates a Client from the given settings.
func NewClient(cfg Config, log *zap.Logger) (*Client, error) {
	if cfg.Address == "" {
		return nil, fmt.Errorf("jira address is not configured")
	}
	if cfg.Username == "" || cfg.APIToken == "" {
		return nil, fmt.Errorf("jira credentials are not configured")
	}

	base := cfg.Address
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "https://" + base
	}
	base = strings.TrimRight(base, "/") + "/rest/api/3"

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}

	return &Client{
		cfg:     cfg,
		baseURL: base,
		httpCli: &http.Client{Timeout: timeout},
		limiter: limiter,
		log:     log,
	}, nil
}

// do performs one authenticated JSON request and decodes the response into
// out when out is non-nil. Failures come back as *tracker.Error.
func (c *Client) do(ctx context.Context, op, method, path string, payload, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return &tracker.Error{Kind: tracker.Transient, Op: op, Err: err}
		}
	}

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return &tracker.Error{Kind: tracker.SchemaMismatch, Op: op, Err: fmt.Errorf("marshaling request: %w", err)}
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return &tracker.Error{Kind: tracker.Transient, Op: op, Err: err}
	}
	req.SetBasicAuth(c.cfg.Username, c.cfg.APIToken)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpCli.Do(req)
	if err != nil {
		// Transport failures and timeouts are retryable.
		return &tracker.Error{Kind: tracker.Transient, Op: op, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &tracker.Error{Kind: tracker.Transient, Op: op, Err: fmt.Errorf("reading response: %w", err)}
	}

	if kind, ok := triage(resp.StatusCode); ok {
		return tracker.Errorf(kind, op, "jira responded %d: %s", resp.StatusCode, truncateBody(data))
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return &tracker.Error{Kind: tracker.SchemaMismatch, Op: op, Err: fmt.Errorf("parsing response: %w", err)}
		}
	}
	return nil
}

// triage maps an HTTP status to a tracker error kind. ok is false for
// success statuses.
func triage(status int) (tracker.Kind, bool) {
	switch {
	case status >= 200 && status < 300:
		return "", false
	case status == http.StatusTooManyRequests:
		return tracker.RateLimited, true
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return tracker.Unauthorized, true
	case status == http.StatusNotFound:
		return tracker.NotFound, true
	case status >= 500:
		return tracker.Transient, true
	default:
		// 400s other than the above mean we sent something Jira does not
		// understand; retrying will not help.
		return tracker.SchemaMismatch, true
	}
}

func truncateBody(data []byte) string {
	const max = 512
	s := string(data)
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}

// Myself validates connectivity and credentials.
func (c *Client) Myself(ctx context.Context) (string, error) {
	var out struct {
		DisplayName  string `json:"displayName"`
		EmailAddress string `json:"emailAddress"`
	}
	if err := c.do(ctx, "validating credentials", http.MethodGet, "/myself", nil, &out); err != nil {
		return "", err
	}
	return out.DisplayName, nil
}

// IssueType is a Jira issue type, used by the troubleshoot bundle.
type IssueType struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Subtask bool   `json:"subtask"`
}

// IssueTypes lists the issue types visible to the configured account.
func (c *Client) IssueTypes(ctx context.Context) ([]IssueType, error) {
	var out []IssueType
	if err := c.do(ctx, "listing issue types", http.MethodGet, "/issuetype", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
