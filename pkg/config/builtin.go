package config

import (
	"sync"
)

// BuiltinConfig holds built-in masking defaults shipped with the binary,
// used when an operator hasn't overridden them in the loaded config file.
type BuiltinConfig struct {
	MaskingPatterns map[string]MaskingPattern
	PatternGroups   map[string][]string
	CodeMaskers     []string
}

var (
	builtinConfig     *BuiltinConfig
	builtinConfigOnce sync.Once
)

// GetBuiltinConfig returns the singleton built-in configuration (thread-safe, lazy-initialized).
func GetBuiltinConfig() *BuiltinConfig {
	builtinConfigOnce.Do(initBuiltinConfig)
	return builtinConfig
}

func initBuiltinConfig() {
	builtinConfig = &BuiltinConfig{
		MaskingPatterns: initBuiltinMaskingPatterns(),
		PatternGroups:   initBuiltinPatternGroups(),
		CodeMaskers:     initBuiltinCodeMaskers(),
	}
}

func initBuiltinMaskingPatterns() map[string]MaskingPattern {
	return map[string]MaskingPattern{
		"api_key": {
			Pattern:     `(?i)(?:api[_-]?key|apikey|key)["\']?\s*[:=]\s*["\']?([A-Za-z0-9_\-]{20,})["\']?`,
			Replacement: `"api_key": "[MASKED_API_KEY]"`,
			Description: "API keys",
		},
		"password": {
			Pattern:     `(?i)(?:password|pwd|pass)["\']?\s*[:=]\s*["\']?([^"\'\s\n]{6,})["\']?`,
			Replacement: `"password": "[MASKED_PASSWORD]"`,
			Description: "Passwords",
		},
		"certificate": {
			Pattern:     `(?s)-----BEGIN [A-Z ]+-----.*?-----END [A-Z ]+-----`,
			Replacement: `[MASKED_CERTIFICATE]`,
			Description: "SSL/TLS certificates",
		},
		"token": {
			Pattern:     `(?i)(?:token|bearer|jwt)["\']?\s*[:=]\s*["\']?([A-Za-z0-9_\-\.]{20,})["\']?`,
			Replacement: `"token": "[MASKED_TOKEN]"`,
			Description: "Access tokens",
		},
		"email": {
			Pattern:     `\b[A-Za-z0-9._%+-]+@[A-Za-z0-9]+(?:[.-][A-Za-z0-9]+)*\.[A-Za-z]{2,63}\b`,
			Replacement: `[MASKED_EMAIL]`,
			Description: "Email addresses",
		},
		"ssh_key": {
			Pattern:     `ssh-(?:rsa|dss|ed25519|ecdsa)\s+[A-Za-z0-9+/=]+`,
			Replacement: `[MASKED_SSH_KEY]`,
			Description: "SSH public keys",
		},
		"private_key": {
			Pattern:     `(?i)(?:private[_-]?key)["\']?\s*[:=]\s*["\']?([A-Za-z0-9_\-\.]{20,})["\']?`,
			Replacement: `"private_key": "[MASKED_PRIVATE_KEY]"`,
			Description: "Private keys",
		},
		"secret_key": {
			Pattern:     `(?i)(?:secret[_-]?key)["\']?\s*[:=]\s*["\']?([A-Za-z0-9_\-\.]{20,})["\']?`,
			Replacement: `"secret_key": "[MASKED_SECRET_KEY]"`,
			Description: "Secret keys",
		},
		"aws_access_key": {
			Pattern:     `(?i)(?:aws[_-]?access[_-]?key[_-]?id)["\']?\s*[:=]\s*["\']?(AKIA[A-Z0-9]{16})["\']?`,
			Replacement: `"aws_access_key_id": "[MASKED_AWS_KEY]"`,
			Description: "AWS access keys",
		},
		"aws_secret_key": {
			Pattern:     `(?i)(?:aws[_-]?secret[_-]?access[_-]?key)["\']?\s*[:=]\s*["\']?([A-Za-z0-9/+=]{40})["\']?`,
			Replacement: `"aws_secret_access_key": "[MASKED_AWS_SECRET]"`,
			Description: "AWS secret keys",
		},
		"github_token": {
			Pattern:     `(?i)(?:github[_-]?token|gh[ps]_[A-Za-z0-9_]{36,255})`,
			Replacement: `[MASKED_GITHUB_TOKEN]`,
			Description: "GitHub tokens",
		},
		"jenkins_token": {
			Pattern:     `(?i)(?:jenkins[_-]?(?:api[_-]?)?token)["\']?\s*[:=]\s*["\']?([A-Za-z0-9]{20,})["\']?`,
			Replacement: `"jenkins_token": "[MASKED_JENKINS_TOKEN]"`,
			Description: "Jenkins API tokens",
		},
		"jira_token": {
			Pattern:     `(?i)(?:jira[_-]?(?:api[_-]?)?token)["\']?\s*[:=]\s*["\']?([A-Za-z0-9]{20,})["\']?`,
			Replacement: `"jira_token": "[MASKED_JIRA_TOKEN]"`,
			Description: "JIRA API tokens",
		},
	}
}

// initBuiltinPatternGroups returns predefined groups of masking patterns.
// Group members can reference either MaskingPatterns (regex) or CodeMaskers
// (structural parsing, e.g. kubeconfig-shaped secrets in environment evidence).
func initBuiltinPatternGroups() map[string][]string {
	return map[string][]string{
		"basic":          {"api_key", "password"},
		"secrets":        {"api_key", "password", "token", "private_key", "secret_key"},
		"security":       {"api_key", "password", "token", "certificate", "email", "ssh_key"},
		"cloud":          {"aws_access_key", "aws_secret_key", "api_key", "token"},
		"environment":    {"kubernetes_secret", "api_key", "password", "token", "certificate"},
		"source-control": {"github_token", "ssh_key", "token"},
		"all": {
			"api_key", "password", "certificate", "email", "token", "ssh_key",
			"private_key", "secret_key", "aws_access_key", "aws_secret_key",
			"github_token", "jenkins_token", "jira_token",
		},
	}
}

// initBuiltinCodeMaskers returns names of code-based maskers for complex
// masking scenarios that need structural parsing rather than regex matching.
// Each name must match a Masker registered in pkg/masking/service.go.
func initBuiltinCodeMaskers() []string {
	return []string{
		"kubernetes_secret", // pkg/masking/kubernetes_secret.go
	}
}
