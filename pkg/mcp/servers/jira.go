package servers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// JiraAdapter calls the JIRA REST API (v2) directly using a bearer token,
// the fallback path when no JIRA MCP server is configured.
type JiraAdapter struct {
	BaseURL string
	Token   string
	Client  *http.Client
}

// NewJiraAdapter builds an adapter with a bounded-timeout HTTP client.
func NewJiraAdapter(baseURL, token string) *JiraAdapter {
	return &JiraAdapter{BaseURL: strings.TrimSuffix(baseURL, "/"), Token: token, Client: &http.Client{Timeout: 15 * time.Second}}
}

// Call dispatches get_issue.
func (j *JiraAdapter) Call(ctx context.Context, operation string, args map[string]any) (string, error) {
	if operation != "get_issue" {
		return "", fmt.Errorf("jira adapter: unknown operation %q", operation)
	}
	ticketID := stringArg(args, "ticket_id")
	if j.BaseURL == "" || j.Token == "" {
		return "", fmt.Errorf("jira adapter: missing base URL or credentials")
	}

	url := fmt.Sprintf("%s/rest/api/2/issue/%s", j.BaseURL, ticketID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("jira adapter: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+j.Token)
	req.Header.Set("Accept", "application/json")

	resp, err := j.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("jira adapter: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("jira adapter: read body: %w", err)
	}
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("jira adapter: status %d", resp.StatusCode)
	}
	return string(body), nil
}
