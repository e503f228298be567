package engagement

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Issue is the bulk-submission payload for one finding. Project and
// Asset are always serialized, as null when unset, which the endpoint
// expects.
type Issue struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Severity    string  `json:"severity"`
	Project     *string `json:"project"`
	Asset       *string `json:"asset"`
	Type        string  `json:"type"`
	Engagement  string  `json:"engagement"`
	SourceType  string  `json:"source_type"`
}

// Client posts issues to the engagement REST endpoint.
type Client struct {
	endpoint   string
	token      string
	httpClient *http.Client
}

// NewClient creates a client for the issues endpoint. The token, when
// non-empty, is sent as a bearer token.
func NewClient(endpoint, token string) *Client {
	return &Client{
		endpoint: strings.TrimRight(endpoint, "/"),
		token:    token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// CreateIssues submits the whole batch in a single call.
func (c *Client) CreateIssues(ctx context.Context, issues []Issue) error {
	data, err := json.Marshal(issues)
	if err != nil {
		return fmt.Errorf("marshaling issues: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, c.endpoint, bytes.NewReader(data),
	)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("submitting issues: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf(
			"issues endpoint returned %d: %s", resp.StatusCode, string(body),
		)
	}
	return nil
}
