package servers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// JenkinsAdapter talks to the Jenkins REST API directly with HTTP basic
// auth, mirroring the original's curl-based fallback
// (jenkins_mcp_client.py's `_make_api_request`/`_get_console`) translated
// to net/http.
type JenkinsAdapter struct {
	BaseURL  string
	Username string
	Token    string
	Client   *http.Client
}

// NewJenkinsAdapter builds an adapter with a bounded-timeout HTTP client.
func NewJenkinsAdapter(baseURL, username, token string) *JenkinsAdapter {
	return &JenkinsAdapter{
		BaseURL: strings.TrimSuffix(baseURL, "/"), Username: username, Token: token,
		Client: &http.Client{Timeout: 30 * time.Second},
	}
}

// Call dispatches one of: get_build, get_console, get_test_report.
func (j *JenkinsAdapter) Call(ctx context.Context, operation string, args map[string]any) (string, error) {
	jobPath := stringArg(args, "job_path")
	buildNumber := stringArg(args, "build_number")
	if buildNumber == "" {
		buildNumber = "lastBuild"
	}

	switch operation {
	case "get_build":
		return j.get(ctx, fmt.Sprintf("%s/job/%s/%s/api/json", j.BaseURL, jobPath, buildNumber))
	case "get_console":
		return j.get(ctx, fmt.Sprintf("%s/job/%s/%s/consoleText", j.BaseURL, jobPath, buildNumber))
	case "get_test_report":
		return j.get(ctx, fmt.Sprintf("%s/job/%s/%s/testReport/api/json", j.BaseURL, jobPath, buildNumber))
	default:
		return "", fmt.Errorf("jenkins adapter: unknown operation %q", operation)
	}
}

func (j *JenkinsAdapter) get(ctx context.Context, url string) (string, error) {
	if j.Username == "" || j.Token == "" {
		return "", fmt.Errorf("jenkins adapter: missing credentials")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("jenkins adapter: build request: %w", err)
	}
	req.SetBasicAuth(j.Username, j.Token)

	resp, err := j.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("jenkins adapter: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("jenkins adapter: read body: %w", err)
	}
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("jenkins adapter: status %d", resp.StatusCode)
	}
	// A Jenkins auth failure commonly renders an HTML login page rather
	// than returning a 4xx, per jenkins_mcp_client.py's observed behavior.
	if strings.HasPrefix(strings.TrimSpace(string(body)), "<") {
		return "", fmt.Errorf("jenkins adapter: received HTML response, authentication likely failed")
	}
	return string(body), nil
}
