package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractDirectParse(t *testing.T) {
	obj, ok := Extract(`  {"summary_250": "hello"}  `)
	require.True(t, ok)
	assert.Equal(t, "hello", obj["summary_250"])
}

func TestExtractCodeFence(t *testing.T) {
	cases := map[string]string{
		"json fence":  "```json\n{\"a\": 1}\n```",
		"bare fence":  "```\n{\"a\": 1}\n```",
		"upper fence": "```JSON\n{\"a\": 1}\n```",
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			obj, ok := Extract(input)
			require.True(t, ok)
			assert.Equal(t, float64(1), obj["a"])
		})
	}
}

func TestExtractStrayBackticks(t *testing.T) {
	obj, ok := Extract("`{\"a\": 1}`")
	require.True(t, ok)
	assert.Equal(t, float64(1), obj["a"])
}

func TestExtractBraceSlice(t *testing.T) {
	obj, ok := Extract(`Sure, here is the summary you asked for: {"summary_250": "text"} Hope that helps!`)
	require.True(t, ok)
	assert.Equal(t, "text", obj["summary_250"])
}

func TestExtractTrailingCommas(t *testing.T) {
	obj, ok := Extract(`{"key_ideas": ["a", "b",], "summary_250": "x",}`)
	require.True(t, ok)
	assert.Equal(t, "x", obj["summary_250"])
	assert.Equal(t, []any{"a", "b"}, obj["key_ideas"])
}

func TestExtractTruncatedObject(t *testing.T) {
	obj, ok := Extract(`{"summary_250": "cut off here", "entities": {"people": ["Ann"]`)
	require.True(t, ok)
	assert.Equal(t, "cut off here", obj["summary_250"])
}

func TestExtractRejectsNonObjects(t *testing.T) {
	for _, input := range []string{
		"", "   ", "plain prose with no json",
		`[1, 2, 3]`, `"just a string"`, `42`, `null`,
	} {
		_, ok := Extract(input)
		assert.False(t, ok, "input %q", input)
	}
}

func TestExtractNeverPanics(t *testing.T) {
	inputs := []string{
		"{{{{{{", "}}}}}", `{"a": "\`, "```json",
		strings.Repeat(`{"x":`, 1000),
		"\x00\xff{", `{"a": "unterminated`,
	}
	for _, input := range inputs {
		assert.NotPanics(t, func() { Extract(input) })
	}
}

func TestStripCodeFence(t *testing.T) {
	assert.Equal(t, `{"a":1}`, StripCodeFence("```json\n{\"a\":1}\n```"))
	assert.Equal(t, "no fence", StripCodeFence("no fence"))
}

func TestSliceBraces(t *testing.T) {
	assert.Equal(t, `{"a":1}`, SliceBraces(`xx{"a":1}yy`))
	assert.Equal(t, "no braces", SliceBraces("no braces"))
}

func TestCloseTruncated(t *testing.T) {
	assert.Equal(t, `{"a": [1, 2]}`, CloseTruncated(`{"a": [1, 2`))
	assert.Equal(t, `{"a": "b"}`, CloseTruncated(`{"a": "b"}`))
	// An open string gets closed before the delimiters.
	assert.Equal(t, `{"a": "b"}`, CloseTruncated(`{"a": "b`))
	// Braces inside strings do not count.
	assert.Equal(t, `{"a": "{{"}`, CloseTruncated(`{"a": "{{"}`))
}
