package tools

import (
	"encoding/json"
	"strings"
)

// stringArg reads key from a JSON object of arguments. Models sometimes send
// the bare value instead of an object; that is accepted too.
func stringArg(arguments, key string) string {
	raw := strings.TrimSpace(arguments)
	if raw == "" {
		return ""
	}
	var obj map[string]any
	if err := json.Unmarshal([]byte(raw), &obj); err != nil {
		var s string
		if json.Unmarshal([]byte(raw), &s) == nil {
			return strings.TrimSpace(s)
		}
		return raw
	}
	if v, ok := obj[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

func objectSchema(required string, props map[string]string) map[string]any {
	properties := make(map[string]any, len(props))
	for name, desc := range props {
		properties[name] = map[string]any{"type": "string", "description": desc}
	}
	return map[string]any{
		"type":       "object",
		"properties": properties,
		"required":   []string{required},
	}
}
