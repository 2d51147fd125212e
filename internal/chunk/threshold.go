package chunk

import (
	"strings"
	"unicode/utf8"
)

// Token-to-character conversion for context window sizing: roughly 4
// characters per token, discounted by a safety factor so prompt scaffolding
// and output tokens still fit.
const (
	charsPerToken = 4
	safetyFactor  = 0.75
)

// modelContextTokens maps model-family substrings to advertised context
// window sizes in tokens. Matching is by substring so dated model IDs
// resolve without per-release table updates.
var modelContextTokens = []struct {
	family string
	tokens int
}{
	{"claude-opus", 200_000},
	{"claude-sonnet", 200_000},
	{"claude-haiku", 200_000},
	{"claude-3", 200_000},
}

// AdaptiveThreshold returns the character budget above which content is
// chunked. The configured base budget is raised when the target model's
// family advertises a context window whose converted character capacity
// exceeds it.
func AdaptiveThreshold(baseChars int, modelID string) int {
	lower := strings.ToLower(modelID)
	for _, entry := range modelContextTokens {
		if strings.Contains(lower, entry.family) {
			adaptive := int(float64(entry.tokens*charsPerToken) * safetyFactor)
			if adaptive > baseChars {
				return adaptive
			}
			break
		}
	}
	return baseChars
}

// ShouldSplit reports whether content must be chunked: only when chunking
// is enabled and the content exceeds the threshold. The threshold counts
// characters, not bytes, so non-ASCII content gets the same budget.
func ShouldSplit(content string, threshold int, enabled bool) bool {
	return enabled && threshold > 0 && utf8.RuneCountInString(content) > threshold
}
