package mcp

import (
	"context"
	"os"
	"os/exec"
	"strings"
	"time"
)

// GitHubToken resolves a GitHub credential using the priority chain from
// SPEC_FULL §4.3: GITHUB_TOKEN, then GH_TOKEN, then `gh auth token`.
// Returns "" if none is available — callers treat that as a
// CredentialError (spec §7), not a panic.
func GitHubToken(ctx context.Context) string {
	if t := os.Getenv("GITHUB_TOKEN"); t != "" {
		return t
	}
	if t := os.Getenv("GH_TOKEN"); t != "" {
		return t
	}
	if t := ghAuthToken(ctx); looksLikeToken(t) {
		return t
	}
	return ""
}

var ghAuthToken = func(ctx context.Context) string {
	cctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	out, err := exec.CommandContext(cctx, "gh", "auth", "token").Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}

// looksLikeToken applies the same shape check pkg/masking uses for
// secret-pattern matching: a plausible token is reasonably long and
// contains no whitespace. Used to validate a resolved credential before
// it's handed to an HTTP client, so a truncated or mis-scraped value
// fails fast with a CredentialError instead of a confusing 401.
func looksLikeToken(s string) bool {
	if len(s) < 8 || strings.ContainsAny(s, " \t\n\r") {
		return false
	}
	return true
}
