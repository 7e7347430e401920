package mindmap

import (
	"strings"

	"mindmap_backend/core"

	"github.com/ohler55/ojg/oj"
)

// ParseResponse parses a backend response as JSON and returns the untyped
// document: map[string]any, []any, string, int64, float64, bool or nil.
// Surrounding whitespace and a single Markdown code fence are ignored.
func ParseResponse(raw string) (any, error) {
	text := StripCodeFence(raw)
	if text == "" {
		return nil, core.NewError(core.KindMalformedResponse, "backend returned an empty response")
	}

	doc, err := oj.ParseString(text)
	if err != nil {
		return nil, core.WrapError(core.KindMalformedResponse, err, "backend response is not valid JSON")
	}
	return doc, nil
}

// StripCodeFence trims raw and removes an enclosing ``` or ```json fence.
func StripCodeFence(raw string) string {
	text := strings.TrimSpace(raw)
	if !strings.HasPrefix(text, "```") || !strings.HasSuffix(text, "```") || len(text) < 6 {
		return text
	}

	text = strings.TrimSuffix(text, "```")
	// Drop the opening fence line, including any language tag.
	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		text = text[idx+1:]
	} else {
		text = strings.TrimPrefix(text, "```")
	}
	return strings.TrimSpace(text)
}
