package servers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os/exec"
	"time"
)

// GitHubAdapter reaches the GitHub REST API directly, authenticated with a
// token resolved through pkg/mcp.GitHubToken's priority chain. Falls back
// to the `gh` CLI for pull-request file listings when no token is set but
// `gh` itself is authenticated (so a developer's local `gh auth login`
// session still works without exporting GITHUB_TOKEN).
type GitHubAdapter struct {
	BaseURL string // default "https://api.github.com"; overridable in tests
	Token   string
	Client  *http.Client
}

// NewGitHubAdapter builds an adapter with a bounded-timeout HTTP client.
func NewGitHubAdapter(token string) *GitHubAdapter {
	return &GitHubAdapter{BaseURL: "https://api.github.com", Token: token, Client: &http.Client{Timeout: 20 * time.Second}}
}

// Call dispatches get_pull_request or get_pr_files.
func (g *GitHubAdapter) Call(ctx context.Context, operation string, args map[string]any) (string, error) {
	repo := stringArg(args, "repository")
	number := intArg(args, "pr_number")

	switch operation {
	case "get_pull_request":
		if g.Token != "" {
			return g.getJSON(ctx, fmt.Sprintf("%s/repos/%s/pulls/%d", g.BaseURL, repo, number))
		}
		return g.ghCLI(ctx, "pr", "view", fmt.Sprintf("%d", number), "--repo", repo, "--json",
			"number,title,files")
	case "get_pr_files":
		if g.Token != "" {
			return g.getJSON(ctx, fmt.Sprintf("%s/repos/%s/pulls/%d/files", g.BaseURL, repo, number))
		}
		return g.ghCLI(ctx, "pr", "view", fmt.Sprintf("%d", number), "--repo", repo, "--json", "files")
	default:
		return "", fmt.Errorf("github adapter: unknown operation %q", operation)
	}
}

func (g *GitHubAdapter) getJSON(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("github adapter: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+g.Token)
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := g.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("github adapter: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("github adapter: read body: %w", err)
	}
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return "", fmt.Errorf("github adapter: credential rejected (status %d)", resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("github adapter: status %d", resp.StatusCode)
	}
	return string(body), nil
}

func (g *GitHubAdapter) ghCLI(ctx context.Context, args ...string) (string, error) {
	out, err := exec.CommandContext(ctx, "gh", args...).Output()
	if err != nil {
		return "", fmt.Errorf("github adapter: gh cli: %w", err)
	}
	var probe json.RawMessage
	if err := json.Unmarshal(out, &probe); err != nil {
		return "", fmt.Errorf("github adapter: gh cli returned non-JSON output")
	}
	return string(out), nil
}
