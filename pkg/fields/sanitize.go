package fields

import (
	"html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	textPolicyOnce sync.Once
	textPolicy     *bluemonday.Policy
)

func textSanitizer() *bluemonday.Policy {
	textPolicyOnce.Do(func() {
		textPolicy = bluemonday.StrictPolicy()
	})
	return textPolicy
}

// sanitizeText strips all markup, leaving plain text. Entities escaped by the
// policy are decoded again since renderers escape on output.
func sanitizeText(raw string) string {
	if raw == "" || !strings.ContainsAny(raw, "<>&") {
		return raw
	}
	cleaned := textSanitizer().Sanitize(raw)
	return strings.TrimSpace(html.UnescapeString(cleaned))
}

// sanitizeChoices cleans the "display" entry of map choices. String choices
// double as stored values and are kept raw. The input slice is left
// untouched.
func sanitizeChoices(choices []any) []any {
	out := make([]any, len(choices))
	for idx, choice := range choices {
		switch typed := choice.(type) {
		case map[string]any:
			display, ok := typed["display"].(string)
			if !ok {
				out[idx] = typed
				continue
			}
			clone := make(map[string]any, len(typed))
			for key, value := range typed {
				clone[key] = value
			}
			clone["display"] = sanitizeText(display)
			out[idx] = clone
		default:
			out[idx] = choice
		}
	}
	return out
}
