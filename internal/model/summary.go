// Package model defines the canonical data types shared across the
// summarization pipeline: the summary document schema, generation attempt
// specs, backend call results, and parse outcomes.
package model

// SummaryDocument is the canonical content-summary schema produced by the
// pipeline. Required fields are always present after shaping; optional fields
// carry omitempty tags and may be backfilled by collaborators (e.g. Metadata).
type SummaryDocument struct {
	Summary250              string    `json:"summary_250"`
	Summary1000             string    `json:"summary_1000"`
	TLDR                    string    `json:"tldr"`
	KeyIdeas                []string  `json:"key_ideas"`
	TopicTags               []string  `json:"topic_tags"`
	Entities                Entities  `json:"entities"`
	EstimatedReadingTimeMin int       `json:"estimated_reading_time_min"`
	KeyStats                []KeyStat `json:"key_stats,omitempty"`
	AnsweredQuestions       []string  `json:"answered_questions,omitempty"`
	Readability             string    `json:"readability,omitempty"`
	SEOKeywords             []string  `json:"seo_keywords,omitempty"`
	Insights                *Insights `json:"insights,omitempty"`
	Metadata                *Metadata `json:"metadata,omitempty"`
}

// Entities groups named entities by kind. Each bucket is deduplicated
// case-insensitively, preserving first-seen casing.
type Entities struct {
	People        []string `json:"people"`
	Organizations []string `json:"organizations"`
	Locations     []string `json:"locations"`
}

// KeyStat is a single labeled statistic extracted from the content.
type KeyStat struct {
	Label         string `json:"label"`
	Value         string `json:"value"`
	Unit          string `json:"unit,omitempty"`
	SourceExcerpt string `json:"source_excerpt,omitempty"`
}

// Insights carries the analytical layer of a summary: an overview plus
// deduplicated facts, questions, and follow-up pointers.
type Insights struct {
	TopicOverview    string   `json:"topic_overview,omitempty"`
	Caution          string   `json:"caution,omitempty"`
	NewFacts         []string `json:"new_facts,omitempty"`
	OpenQuestions    []string `json:"open_questions,omitempty"`
	SuggestedSources []string `json:"suggested_sources,omitempty"`
	ExpansionTopics  []string `json:"expansion_topics,omitempty"`
	NextExploration  []string `json:"next_exploration,omitempty"`
}

// Metadata holds source-document attributes. The pipeline never derives
// these itself; a collaborator fills them in after shaping.
type Metadata struct {
	Title        string `json:"title,omitempty"`
	CanonicalURL string `json:"canonical_url,omitempty"`
	Domain       string `json:"domain,omitempty"`
	Author       string `json:"author,omitempty"`
	PublishedAt  string `json:"published_at,omitempty"`
	ModifiedAt   string `json:"modified_at,omitempty"`
}

// HasSummaryText reports whether at least one required text field is
// non-empty. The cascade only accepts documents for which this holds.
func (d *SummaryDocument) HasSummaryText() bool {
	if d == nil {
		return false
	}
	return d.Summary250 != "" || d.Summary1000 != "" || d.TLDR != ""
}

// RequestInfo threads opaque request context through the pipeline. The core
// never interprets these values; they are recorded alongside attempts and
// outcomes for correlation.
type RequestInfo struct {
	RequestID     string `json:"request_id"`
	CorrelationID string `json:"correlation_id,omitempty"`
	Language      string `json:"language,omitempty"`
}
