// Package extract recovers JSON objects from messy LLM output. It provides
// a best-effort heuristic extractor and a multi-strategy response parser
// that degrade gracefully instead of raising: every strategy failure is
// recorded and the next strategy is tried.
package extract

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"
)

// trailingCommaRe matches a comma followed only by whitespace and a closing
// brace or bracket, which strict JSON forbids but models frequently emit.
var trailingCommaRe = regexp.MustCompile(`,\s*([}\]])`)

// Extract attempts best-effort recovery of a JSON object from an arbitrary
// text blob. Strategies are tried in order, each only if the previous
// failed; the first successful object-typed parse wins. Returns false when
// nothing parseable remains. Never panics on any input.
func Extract(text string) (map[string]any, bool) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, false
	}

	if obj, ok := parseObject(trimmed); ok {
		return obj, true
	}

	if fenced := StripCodeFence(trimmed); fenced != trimmed {
		if obj, ok := parseObject(fenced); ok {
			return obj, true
		}
		trimmed = fenced
	}

	if stripped := strings.TrimSpace(strings.Trim(trimmed, "`")); stripped != trimmed {
		if obj, ok := parseObject(stripped); ok {
			return obj, true
		}
		trimmed = stripped
	}

	if sliced := SliceBraces(trimmed); sliced != trimmed {
		if obj, ok := parseObject(sliced); ok {
			return obj, true
		}
		trimmed = sliced
	}

	if fixed := trailingCommaRe.ReplaceAllString(trimmed, "$1"); fixed != trimmed {
		if obj, ok := parseObject(fixed); ok {
			return obj, true
		}
		trimmed = fixed
	}

	if closed := CloseTruncated(trimmed); closed != trimmed {
		if obj, ok := parseObject(closed); ok {
			return obj, true
		}
	}

	return nil, false
}

// parseObject parses s as JSON and returns it only when it decodes to an
// object. gjson provides a cheap validity and type probe before the full
// unmarshal.
func parseObject(s string) (map[string]any, bool) {
	if !gjson.Valid(s) || !gjson.Parse(s).IsObject() {
		return nil, false
	}
	var obj map[string]any
	if err := json.Unmarshal([]byte(s), &obj); err != nil {
		return nil, false
	}
	return obj, true
}

// StripCodeFence removes a surrounding Markdown code fence (```json ... ```
// or a bare ``` ... ```), returning the inner text. Input without a fence is
// returned unchanged.
func StripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	for _, prefix := range []string{"```json", "```JSON", "```"} {
		if strings.HasPrefix(text, prefix) {
			inner := strings.TrimPrefix(text, prefix)
			if idx := strings.LastIndex(inner, "```"); idx >= 0 {
				inner = inner[:idx]
			}
			return strings.TrimSpace(inner)
		}
	}
	return text
}

// SliceBraces returns the substring between the first '{' and the last '}',
// inclusive. Input without a brace pair is returned unchanged.
func SliceBraces(text string) string {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		return text[start : end+1]
	}
	return text
}

// CloseTruncated appends closing delimiters for any braces and brackets left
// open by a mid-object truncation. String-internal and escaped characters
// are skipped so quoted braces do not count. Balanced input is returned
// unchanged.
func CloseTruncated(text string) string {
	if text == "" {
		return text
	}

	var stack []byte
	inString := false
	escape := false
	for i := 0; i < len(text); i++ {
		c := text[i]
		if escape {
			escape = false
			continue
		}
		switch c {
		case '\\':
			if inString {
				escape = true
			}
		case '"':
			inString = !inString
		case '{', '[':
			if !inString {
				stack = append(stack, c)
			}
		case '}':
			if !inString && len(stack) > 0 && stack[len(stack)-1] == '{' {
				stack = stack[:len(stack)-1]
			}
		case ']':
			if !inString && len(stack) > 0 && stack[len(stack)-1] == '[' {
				stack = stack[:len(stack)-1]
			}
		}
	}

	if len(stack) == 0 && !inString {
		return text
	}

	var b strings.Builder
	b.WriteString(text)
	if inString {
		b.WriteByte('"')
	}
	for i := len(stack) - 1; i >= 0; i-- {
		if stack[i] == '{' {
			b.WriteByte('}')
		} else {
			b.WriteByte(']')
		}
	}
	return b.String()
}
