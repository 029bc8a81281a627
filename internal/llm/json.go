// ABOUTME: Tolerant JSON extraction from model output
// ABOUTME: Strips markdown code fences and surrounding prose before decoding
package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ParseJSONObject decodes the first JSON object found in raw into v.
// Any decoding failure is reported as ErrMalformedOutput.
func ParseJSONObject(raw string, v any) error {
	text := strings.TrimSpace(raw)
	if text == "" {
		return fmt.Errorf("%w: empty response", ErrMalformedOutput)
	}

	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
		text = strings.TrimSpace(text)
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return fmt.Errorf("%w: no JSON object in response", ErrMalformedOutput)
	}

	if err := json.Unmarshal([]byte(text[start:end+1]), v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}
	return nil
}
