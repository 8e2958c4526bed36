package config

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// mcpConfigSchema is the JSON Schema for the mcpServers/settings document
// of spec §6. Grounded on Soypete-PedroCLI's gojsonschema.Validate usage.
const mcpConfigSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "mcpServers": {
      "type": "object",
      "additionalProperties": {
        "type": "object",
        "properties": {
          "type": {"type": "string", "enum": ["stdio", "http", "sse"]},
          "command": {"type": "string"},
          "args": {"type": "array", "items": {"type": "string"}},
          "url": {"type": "string"},
          "env": {"type": "object"},
          "description": {"type": "string"}
        },
        "required": ["type"],
        "allOf": [
          {
            "if": {"properties": {"type": {"const": "stdio"}}},
            "then": {"required": ["command"]}
          },
          {
            "if": {"properties": {"type": {"enum": ["http", "sse"]}}},
            "then": {"required": ["url"]}
          }
        ]
      }
    },
    "settings": {
      "type": "object",
      "properties": {
        "cache_ttl": {"type": "number"},
        "health_check_interval": {"type": "number"},
        "enable_fallback": {"type": "boolean"},
        "enable_cache": {"type": "boolean"},
        "max_retries": {"type": "integer", "minimum": 0},
        "retry_delay": {"type": "number"}
      }
    }
  },
  "required": ["mcpServers"]
}`

// ValidateMCPConfigDocument validates a raw MCP config JSON document against
// the schema above. A schema violation is a *UserInputError per spec §7 —
// callers should treat a non-nil error as fatal and create no run directory.
func ValidateMCPConfigDocument(jsonDoc []byte) error {
	schemaLoader := gojsonschema.NewStringLoader(mcpConfigSchema)
	docLoader := gojsonschema.NewBytesLoader(jsonDoc)

	result, err := gojsonschema.Validate(schemaLoader, docLoader)
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("%w: %v", ErrInvalidValue, msgs)
	}
	return nil
}
