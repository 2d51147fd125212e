// Package shape validates and normalizes raw parsed objects into the
// canonical summary document. Shaping never panics and degrades on every
// malformed input except one condition: when no summary text can be derived
// from any recognized field, Shape returns ErrNoSummaryText.
package shape

import (
	"math"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/cases"

	"github.com/sells-group/summary-pipeline/internal/model"
)

// Character caps for the summary text fields.
const (
	CapSummary250  = 250
	CapSummary1000 = 1000
	CapTLDR        = 2000
)

// List field caps.
const (
	MaxTopicTags         = 8
	MaxKeyIdeas          = 10
	MaxSEOKeywords       = 15
	MaxAnsweredQuestions = 10
	MaxKeyStats          = 20
	MaxNewFacts          = 8
	MaxInsightItems      = 6
)

// ErrNoSummaryText is the only failure Shape returns: the raw object held
// no summary text and no secondary signal (key ideas, highlights, insight
// overview) to synthesize one from.
var ErrNoSummaryText = eris.New("shape: no summary text derivable from any field")

// Shape normalizes raw into a canonical SummaryDocument. Field names are
// mapped through the alias table, text fields are capped at sentence
// boundaries, list fields are deduplicated case-insensitively and capped,
// and entities are merged into the canonical three-bucket form.
func Shape(raw map[string]any) (*model.SummaryDocument, error) {
	if raw == nil {
		return nil, ErrNoSummaryText
	}
	m := canonicalize(raw)

	doc := &model.SummaryDocument{
		Summary250:              CapText(asText(m["summary_250"]), CapSummary250),
		Summary1000:             CapText(asText(m["summary_1000"]), CapSummary1000),
		TLDR:                    CapText(asText(m["tldr"]), CapTLDR),
		KeyIdeas:                capList(DedupFold(asStringList(m["key_ideas"])), MaxKeyIdeas),
		TopicTags:               capList(DedupFold(normalizeTags(asStringList(m["topic_tags"]))), MaxTopicTags),
		SEOKeywords:             capList(DedupFold(asStringList(m["seo_keywords"])), MaxSEOKeywords),
		AnsweredQuestions:       capList(DedupFold(asStringList(m["answered_questions"])), MaxAnsweredQuestions),
		Readability:             asText(m["readability"]),
		Entities:                shapeEntities(m["entities"]),
		EstimatedReadingTimeMin: asNonNegativeInt(m["estimated_reading_time_min"]),
		KeyStats:                shapeKeyStats(m["key_stats"]),
		Insights:                shapeInsights(m["insights"]),
		Metadata:                shapeMetadata(m["metadata"]),
	}

	if !doc.HasSummaryText() {
		fb := fallbackSummary(m, doc)
		if fb == "" {
			return nil, ErrNoSummaryText
		}
		doc.Summary250 = CapText(fb, CapSummary250)
		doc.Summary1000 = CapText(fb, CapSummary1000)
		doc.TLDR = CapText(fb, CapTLDR)
	}

	// Backfill the longer fields from each other so all three are populated.
	if doc.TLDR == "" {
		doc.TLDR = doc.Summary1000
	}
	if doc.Summary1000 == "" && doc.TLDR != "" {
		doc.Summary1000 = CapText(doc.TLDR, CapSummary1000)
	}
	if doc.Summary250 == "" {
		src := doc.Summary1000
		if src == "" {
			src = doc.TLDR
		}
		doc.Summary250 = CapText(src, CapSummary250)
	}

	// Finalize can append a period; re-cap so text sitting exactly at its
	// limit stays within it.
	doc.Summary250 = CapText(Finalize(doc.Summary250), CapSummary250)
	doc.TLDR = CapText(Finalize(doc.TLDR), CapTLDR)

	return doc, nil
}

// fallbackSummary synthesizes summary text from the strongest secondary
// signal, in priority order: key ideas, highlights, insight overview.
func fallbackSummary(m map[string]any, doc *model.SummaryDocument) string {
	if len(doc.KeyIdeas) > 0 {
		return joinSentences(doc.KeyIdeas)
	}
	if hl := DedupFold(asStringList(m["highlights"])); len(hl) > 0 {
		return joinSentences(hl)
	}
	if doc.Insights != nil && doc.Insights.TopicOverview != "" {
		return doc.Insights.TopicOverview
	}
	return ""
}

// joinSentences joins fragments into running text, terminating each with a
// period when it carries no terminal punctuation of its own.
func joinSentences(parts []string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		r := []rune(p)
		if !isTerminal(r[len(r)-1]) {
			p += "."
		}
		out = append(out, p)
	}
	return strings.Join(out, " ")
}

func isTerminal(r rune) bool {
	switch r {
	case '.', '!', '?', '…':
		return true
	}
	return false
}

// CapText truncates s to at most limit runes, preferring the last sentence
// boundary at or past one-third of the limit. When no boundary qualifies the
// text is hard-cut with trailing separators stripped and a period appended,
// so the result still ends in terminal punctuation.
func CapText(s string, limit int) string {
	s = strings.TrimSpace(s)
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	cut := r[:limit]
	for i := len(cut) - 1; i >= limit/3; i-- {
		if isTerminal(cut[i]) {
			return strings.TrimSpace(string(cut[:i+1]))
		}
	}
	hard := strings.TrimRight(string(cut[:limit-1]), " \t-–—,;:")
	return hard + "."
}

// Finalize guarantees s ends in terminal punctuation: trim back to the last
// mark at or past one-third length, else strip trailing dashes and append a
// period. Empty input stays empty.
func Finalize(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}
	r := []rune(s)
	if isTerminal(r[len(r)-1]) {
		return s
	}
	for i := len(r) - 1; i >= len(r)/3; i-- {
		if isTerminal(r[i]) {
			return strings.TrimSpace(string(r[:i+1]))
		}
	}
	return strings.TrimRight(s, " \t-–—") + "."
}

// FoldKey returns the Unicode case-folded dedup key for s.
func FoldKey(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}

// DedupFold removes case-insensitive duplicates, preserving first occurrence
// and original casing.
func DedupFold(items []string) []string {
	var out []string
	seen := make(map[string]bool, len(items))
	for _, it := range items {
		it = strings.TrimSpace(it)
		if it == "" {
			continue
		}
		key := FoldKey(it)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, it)
	}
	return out
}

func capList(items []string, limit int) []string {
	if len(items) > limit {
		return items[:limit]
	}
	return items
}

// normalizeTags forces every tag to start with exactly one '#'.
func normalizeTags(tags []string) []string {
	var out []string
	for _, t := range tags {
		t = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(t), "#"))
		if t == "" {
			continue
		}
		out = append(out, "#"+t)
	}
	return out
}

// asText returns v as trimmed text when it is a string; anything else
// degrades to empty.
func asText(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

// asStringList coerces v to a list of strings. Accepts a []any of strings
// or scalars, or a bare string treated as a one-element list. Nested
// objects and other types are dropped.
func asStringList(v any) []string {
	switch t := v.(type) {
	case string:
		if s := strings.TrimSpace(t); s != "" {
			return []string{s}
		}
		return nil
	case []any:
		var out []string
		for _, e := range t {
			if s := scalarText(e); s != "" {
				out = append(out, s)
			}
		}
		return out
	case []string:
		return t
	}
	return nil
}

// scalarText renders a scalar as text; objects and nil degrade to empty.
func scalarText(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		if t == math.Trunc(t) && math.Abs(t) < 1e15 {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	}
	return ""
}

// asNonNegativeInt coerces v from number or numeric string to a non-negative
// int, defaulting to 0 on any failure.
func asNonNegativeInt(v any) int {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case int:
		f = float64(t)
	case int64:
		f = float64(t)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0
		}
		f = parsed
	default:
		return 0
	}
	if f < 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return int(math.Round(f))
}
