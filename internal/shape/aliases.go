package shape

import "strings"

// canonicalFieldNames maps normalized field names (lowercased, separators
// stripped) to canonical snake_case keys. Models emit camelCase, flattened,
// and misspelled variants of the schema; this table is the explicit,
// testable inventory of every recognized alias. No fuzzy matching.
var canonicalFieldNames = map[string]string{
	"summary250":     "summary_250",
	"sumary250":      "summary_250",
	"shortsummary":   "summary_250",
	"summaryshort":   "summary_250",
	"summary1000":    "summary_1000",
	"sumary1000":     "summary_1000",
	"longsummary":    "summary_1000",
	"summarylong":    "summary_1000",
	"summary":        "summary_1000",
	"tldr":           "tldr",
	"tltr":           "tldr",
	"toolongdidntread": "tldr",

	"keyideas":  "key_ideas",
	"keyidea":   "key_ideas",
	"keypoints": "key_ideas",
	"mainideas": "key_ideas",
	"mainpoints": "key_ideas",

	"topictags": "topic_tags",
	"topictag":  "topic_tags",
	"tags":      "topic_tags",
	"hashtags":  "topic_tags",

	"entities":       "entities",
	"namedentities":  "entities",

	"estimatedreadingtimemin": "estimated_reading_time_min",
	"estimatedreadingtime":    "estimated_reading_time_min",
	"readingtimemin":          "estimated_reading_time_min",
	"readingtimeminutes":      "estimated_reading_time_min",
	"readingtime":             "estimated_reading_time_min",

	"keystats":  "key_stats",
	"keystat":   "key_stats",
	"stats":     "key_stats",
	"statistics": "key_stats",

	"answeredquestions": "answered_questions",
	"questionsanswered": "answered_questions",

	"readability":      "readability",
	"readabilitylevel": "readability",

	"seokeywords": "seo_keywords",
	"seokeyword":  "seo_keywords",
	"keywords":    "seo_keywords",

	"insights": "insights",

	"metadata": "metadata",
	"meta":     "metadata",

	// Not part of the canonical document, but recognized as a secondary
	// signal for fallback summary derivation.
	"highlights": "highlights",
	"highlight":  "highlights",
}

// entityBuckets maps normalized entity group names and type hints to the
// three canonical buckets.
var entityBuckets = map[string]string{
	"people":        "people",
	"persons":       "people",
	"person":        "people",
	"names":         "people",
	"organizations": "organizations",
	"organisations": "organizations",
	"organization":  "organizations",
	"organisation":  "organizations",
	"orgs":          "organizations",
	"org":           "organizations",
	"companies":     "organizations",
	"company":       "organizations",
	"locations":     "locations",
	"location":      "locations",
	"places":        "locations",
	"place":         "locations",
	"geo":           "locations",
}

// insightFieldNames maps normalized insight sub-field names to canonical keys.
var insightFieldNames = map[string]string{
	"topicoverview":    "topic_overview",
	"overview":         "topic_overview",
	"caution":          "caution",
	"cautions":         "caution",
	"newfacts":         "new_facts",
	"facts":            "new_facts",
	"openquestions":    "open_questions",
	"questions":        "open_questions",
	"suggestedsources": "suggested_sources",
	"sources":          "suggested_sources",
	"expansiontopics":  "expansion_topics",
	"nextexploration":  "next_exploration",
}

// keyStatFieldNames maps normalized key-stat tuple field names.
var keyStatFieldNames = map[string]string{
	"label":         "label",
	"name":          "label",
	"metric":        "label",
	"value":         "value",
	"unit":          "unit",
	"units":         "unit",
	"sourceexcerpt": "source_excerpt",
	"excerpt":       "source_excerpt",
	"source":        "source_excerpt",
}

// metadataFieldNames maps normalized metadata field names.
var metadataFieldNames = map[string]string{
	"title":        "title",
	"canonicalurl": "canonical_url",
	"url":          "canonical_url",
	"domain":       "domain",
	"author":       "author",
	"publishedat":  "published_at",
	"published":    "published_at",
	"publishdate":  "published_at",
	"modifiedat":   "modified_at",
	"modified":     "modified_at",
	"updatedat":    "modified_at",
}

// normalizeFieldName lowercases a key and strips separator characters so
// camelCase, snake_case, kebab-case, and spaced variants collide.
func normalizeFieldName(k string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(k)) {
		switch r {
		case '_', '-', ' ', '.':
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// canonicalize maps every recognized key of raw onto its canonical name.
// Exact canonical keys win over aliases; among aliases the first recognized
// value for a canonical slot is kept.
func canonicalize(raw map[string]any) map[string]any {
	out := make(map[string]any, len(raw))
	for k, v := range raw {
		if canon, ok := canonicalFieldNames[normalizeFieldName(k)]; ok && k == canon {
			out[canon] = v
		}
	}
	for k, v := range raw {
		canon, ok := canonicalFieldNames[normalizeFieldName(k)]
		if !ok {
			continue
		}
		if _, exists := out[canon]; !exists {
			out[canon] = v
		}
	}
	return out
}
