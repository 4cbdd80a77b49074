package copywriter

import (
	"encoding/json"
	"strings"
)

// StripCodeFence removes a surrounding ``` fence and an optional json tag.
func StripCodeFence(raw string) string {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, "```") {
		return raw
	}
	raw = strings.Trim(raw, "`")
	if len(raw) >= 4 && strings.EqualFold(raw[:4], "json") {
		raw = raw[4:]
	}
	return strings.TrimSpace(raw)
}

// ParsePromo decodes the model reply into a JSON object that has a variants
// key. Unknown keys are kept. Each variant body is rewritten by f with urls
// spread through it. ok is false when the reply is not such an object.
func ParsePromo(raw string, f Formatter, urls []string) (map[string]any, bool) {
	var parsed map[string]any
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil || parsed == nil {
		return nil, false
	}
	variants, found := parsed["variants"]
	if !found {
		return nil, false
	}

	list, _ := variants.([]any)
	for _, item := range list {
		variant, isObject := item.(map[string]any)
		if !isObject {
			continue
		}
		body, hasBody := variant["body"]
		if !hasBody {
			continue
		}
		text, _ := body.(string)
		variant["body"] = f.Format(text, urls)
	}
	return parsed, true
}
