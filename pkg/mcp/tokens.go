package mcp

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// charsPerToken is the approximate number of characters per token for English text.
// Used for threshold estimation only — not exact token counting.
const charsPerToken = 4

// DefaultStorageMaxTokens is the maximum token count for a tool result kept
// in memory and written to a run's evidence artifacts.
const DefaultStorageMaxTokens = 8000

// DefaultSummarizationMaxTokens is a larger ceiling for tool output that
// will be further condensed downstream (e.g. before being folded into a
// rendered report section) rather than stored as-is.
const DefaultSummarizationMaxTokens = 100000

// EstimateTokens returns an approximate token count for the given text.
// Uses the common heuristic of ~4 characters per token for English text.
// This is intentionally approximate — exact counts would require a tokenizer
// library and add a dependency for minimal benefit (the threshold is a
// configurable soft limit, not a hard boundary).
//
// Note: len(text) counts bytes, not Unicode characters. For multi-byte UTF-8
// content (CJK, emoji), this overestimates the character count and therefore
// the token count. This is a safe direction to err — summarization triggers
// slightly earlier than necessary, which is preferable to missing it.
func EstimateTokens(text string) int {
	if len(text) == 0 {
		return 0
	}
	return (len(text) + charsPerToken - 1) / charsPerToken // Round up
}

// truncateAtLineBoundary is the shared truncation logic. It cuts at the last newline
// before the limit to avoid splitting mid-line — important when the content is
// indented JSON, YAML, or log output (preserves logical line boundaries).
//
// Note: maxChars is a byte limit (consistent with EstimateTokens using len()).
// The cut point is adjusted backwards to avoid splitting multi-byte UTF-8
// characters, then further adjusted to the last newline when possible.
func truncateAtLineBoundary(content string, maxChars int, marker string) string {
	if maxChars <= 0 || len(content) <= maxChars {
		return content
	}
	// Ensure we don't split a multi-byte UTF-8 character
	cut := maxChars
	for cut > 0 && !utf8.RuneStart(content[cut]) {
		cut--
	}
	truncated := content[:cut]
	if idx := strings.LastIndex(truncated, "\n"); idx > 0 {
		truncated = truncated[:idx]
	}
	return truncated + fmt.Sprintf(
		"\n\n[TRUNCATED: %s — Original size: %s, limit: %s]",
		marker, formatSize(len(content)), formatSize(maxChars),
	)
}

// formatSize returns a human-readable size string. Uses bytes for values under
// 1KB to avoid confusing "0KB" output on small content.
func formatSize(bytes int) string {
	if bytes < 1024 {
		return fmt.Sprintf("%dB", bytes)
	}
	return fmt.Sprintf("%dKB", bytes/1024)
}

// TruncateForStorage truncates raw tool output (e.g. a Jenkins console
// log) before it's held in memory or written into run artifacts.
func TruncateForStorage(content string) string {
	return truncateAtLineBoundary(content, DefaultStorageMaxTokens*charsPerToken,
		"Output exceeded storage display limit")
}

// TruncateForSummarization truncates tool output before it's fed into a
// downstream condensation step, using a larger limit than
// TruncateForStorage to preserve more of the source material.
func TruncateForSummarization(content string) string {
	return truncateAtLineBoundary(content, DefaultSummarizationMaxTokens*charsPerToken,
		"Output exceeded summarization input limit")
}
