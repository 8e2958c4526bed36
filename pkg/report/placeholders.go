package report

import "regexp"

// placeholderRule rewrites recognized secrets/hostnames to the fixed
// placeholder set normative for Test-Cases.md (spec §6). Order matters:
// more specific patterns (admin user/password pairs) must run before the
// generic host pattern, or the host pattern would swallow them first.
type placeholderRule struct {
	pattern     *regexp.Regexp
	replacement string
}

var placeholderRules = []placeholderRule{
	{regexp.MustCompile(`https://console-openshift-console\.apps\.[a-zA-Z0-9.\-]+`), "<CLUSTER_CONSOLE_URL>"},
	{regexp.MustCompile(`https://api\.[a-zA-Z0-9.\-]+:6443`), "<CLUSTER_API_URL>"},
	{regexp.MustCompile(`(?i)kubeadmin`), "<CLUSTER_ADMIN_USER>"},
	{regexp.MustCompile(`(?i)password[:=]\s*\S+`), "<CLUSTER_ADMIN_PASSWORD>"},
	{regexp.MustCompile(`https://registry\.[a-zA-Z0-9.\-]+`), "<INTERNAL_REGISTRY_URL>"},
	{regexp.MustCompile(`\b[a-zA-Z0-9.\-]+\.apps\.[a-zA-Z0-9.\-]+\b`), "<CLUSTER_HOST>"},
}

// MaskPlaceholders rewrites recognized cluster hostnames and credentials
// in text to the fixed placeholder set. This is a narrower, report-local
// substitution pass distinct from pkg/masking's config-driven masking
// service (see DESIGN.md): Test-Cases.md only ever needs the fixed six
// placeholders spec §6 names, not arbitrary configured patterns.
func MaskPlaceholders(text string) string {
	for _, rule := range placeholderRules {
		text = rule.pattern.ReplaceAllString(text, rule.replacement)
	}
	return text
}

// escapePipe replaces literal `|` characters in table cell content with
// the HTML entity the normative format requires, so Markdown table
// parsers don't misread the cell boundary.
func escapePipe(cell string) string {
	out := make([]rune, 0, len(cell))
	for _, r := range cell {
		if r == '|' {
			out = append(out, []rune("&#124;")...)
			continue
		}
		out = append(out, r)
	}
	return string(out)
}
