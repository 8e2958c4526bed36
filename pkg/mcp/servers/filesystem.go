package servers

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FilesystemAdapter is the fallback for both a generic filesystem MCP
// server and the documentation search tool: when no docs search server is
// configured, it greps a local documentation root for the query text,
// the Go equivalent of shelling out to `find`/`grep` that original_source
// reaches for when no richer tool is available.
type FilesystemAdapter struct {
	DocsRoot string
}

// NewFilesystemAdapter builds an adapter rooted at docsRoot (searched by
// Call's "search" operation).
func NewFilesystemAdapter(docsRoot string) *FilesystemAdapter {
	return &FilesystemAdapter{DocsRoot: docsRoot}
}

type docMatch struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// Call dispatches read_file or search.
func (f *FilesystemAdapter) Call(_ context.Context, operation string, args map[string]any) (string, error) {
	switch operation {
	case "read_file":
		path := stringArg(args, "path")
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("filesystem adapter: read %s: %w", path, err)
		}
		return string(data), nil
	case "search":
		return f.search(stringArg(args, "query"))
	default:
		return "", fmt.Errorf("filesystem adapter: unknown operation %q", operation)
	}
}

// search walks DocsRoot for Markdown files whose content mentions query
// (case-insensitive), returning up to 5 matches.
func (f *FilesystemAdapter) search(query string) (string, error) {
	if f.DocsRoot == "" || query == "" {
		out, _ := json.Marshal([]docMatch{})
		return string(out), nil
	}

	query = strings.ToLower(query)
	var matches []docMatch

	err := filepath.WalkDir(f.DocsRoot, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() || len(matches) >= 5 {
			return nil
		}
		if !strings.HasSuffix(d.Name(), ".md") {
			return nil
		}
		data, readErr := os.ReadFile(path)
		if readErr != nil {
			return nil
		}
		if strings.Contains(strings.ToLower(string(data)), query) {
			matches = append(matches, docMatch{Title: strings.TrimSuffix(d.Name(), ".md"), URL: "file://" + path})
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("filesystem adapter: walk %s: %w", f.DocsRoot, err)
	}

	out, err := json.Marshal(matches)
	if err != nil {
		return "", fmt.Errorf("filesystem adapter: marshal matches: %w", err)
	}
	return string(out), nil
}
