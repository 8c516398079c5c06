package providers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ToolArguments returns the normalized JSON arguments of the first call to
// the named tool, validated against schema when one is given.
func ToolArguments(result *ChatResult, name string, schema *jsonschema.Schema) (json.RawMessage, error) {
	tc, ok := result.FindToolCall(name)
	if !ok {
		return nil, fmt.Errorf("model did not call %s", name)
	}
	args, err := parseStructuredJSON(tc.Function.Arguments)
	if err != nil {
		return nil, fmt.Errorf("%s arguments: %w", name, err)
	}
	if err := validateStructuredJSON(schema, args); err != nil {
		return nil, err
	}
	return args, nil
}

// parseStructuredJSON parses JSON from model output, with lightweight recovery
// for markdown code fences and surrounding text.
func parseStructuredJSON(content string) (json.RawMessage, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("empty tool arguments")
	}

	candidates := []string{content}
	if stripped := stripCodeFences(content); stripped != "" && stripped != content {
		candidates = append(candidates, stripped)
	}
	if extracted := extractJSONCandidate(content); extracted != "" && extracted != content {
		candidates = append(candidates, extracted)
	}

	seen := make(map[string]struct{}, len(candidates))
	for _, candidate := range candidates {
		candidate = strings.TrimSpace(candidate)
		if candidate == "" {
			continue
		}
		if _, ok := seen[candidate]; ok {
			continue
		}
		seen[candidate] = struct{}{}

		var parsed any
		if err := json.Unmarshal([]byte(candidate), &parsed); err == nil {
			normalized, mErr := json.Marshal(parsed)
			if mErr != nil {
				return nil, fmt.Errorf("failed to normalize tool arguments: %w", mErr)
			}
			return normalized, nil
		}
	}

	return nil, fmt.Errorf("arguments are not valid JSON")
}

func stripCodeFences(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		return ""
	}

	lines := strings.Split(trimmed, "\n")
	if len(lines) < 2 {
		return ""
	}

	// Drop first fence line.
	lines = lines[1:]
	// Drop trailing fence if present.
	if len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "```" {
		lines = lines[:len(lines)-1]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func extractJSONCandidate(content string) string {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return ""
	}

	objectStart := strings.Index(trimmed, "{")
	arrayStart := strings.Index(trimmed, "[")

	start := -1
	closeChar := ""
	switch {
	case objectStart >= 0 && arrayStart >= 0:
		if objectStart < arrayStart {
			start = objectStart
			closeChar = "}"
		} else {
			start = arrayStart
			closeChar = "]"
		}
	case objectStart >= 0:
		start = objectStart
		closeChar = "}"
	case arrayStart >= 0:
		start = arrayStart
		closeChar = "]"
	default:
		return ""
	}

	end := strings.LastIndex(trimmed, closeChar)
	if end < start {
		return ""
	}
	return strings.TrimSpace(trimmed[start : end+1])
}

// CompileToolSchema compiles a tool's parameter schema once so arguments can
// be validated on every call.
func CompileToolSchema(name string, raw json.RawMessage) (*jsonschema.Schema, error) {
	url := name + ".json"
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(url, bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("failed to load tool schema: %w", err)
	}
	schema, err := compiler.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("failed to compile tool schema: %w", err)
	}
	return schema, nil
}

// validateStructuredJSON validates parsed arguments against a compiled tool
// schema. A nil schema accepts anything.
func validateStructuredJSON(schema *jsonschema.Schema, parsed json.RawMessage) error {
	if schema == nil || len(parsed) == 0 {
		return nil
	}

	var doc any
	if err := json.Unmarshal(parsed, &doc); err != nil {
		return fmt.Errorf("failed to decode arguments for validation: %w", err)
	}

	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("arguments do not match schema: %w", err)
	}
	return nil
}
