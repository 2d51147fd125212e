package generate

import "github.com/sells-group/summary-pipeline/pkg/anthropic"

const summaryToolName = "emit_summary"

// SummaryToolSpec returns the forced tool whose input schema constrains the
// model to emit a summary document object.
func SummaryToolSpec() *anthropic.ToolSpec {
	stringArray := map[string]any{
		"type":  "array",
		"items": map[string]any{"type": "string"},
	}

	return &anthropic.ToolSpec{
		Name:        summaryToolName,
		Description: "Record the structured summary of the provided content. Always use this tool.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"summary_250": map[string]any{
					"type":        "string",
					"description": "Concise summary, at most 250 characters",
				},
				"summary_1000": map[string]any{
					"type":        "string",
					"description": "Detailed summary, at most 1000 characters",
				},
				"tldr": map[string]any{
					"type":        "string",
					"description": "TLDR paragraph, at most 2000 characters",
				},
				"key_ideas":  stringArray,
				"topic_tags": stringArray,
				"entities": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"people":        stringArray,
						"organizations": stringArray,
						"locations":     stringArray,
					},
				},
				"estimated_reading_time_min": map[string]any{"type": "integer"},
				"key_stats": map[string]any{
					"type": "array",
					"items": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"label":          map[string]any{"type": "string"},
							"value":          map[string]any{"type": "string"},
							"unit":           map[string]any{"type": "string"},
							"source_excerpt": map[string]any{"type": "string"},
						},
						"required": []string{"label", "value"},
					},
				},
				"answered_questions": stringArray,
				"readability":        map[string]any{"type": "string"},
				"seo_keywords":       stringArray,
				"insights": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"topic_overview":   map[string]any{"type": "string"},
						"caution":          map[string]any{"type": "string"},
						"new_facts":        stringArray,
						"open_questions":   stringArray,
						"suggested_sources": stringArray,
						"expansion_topics":  stringArray,
						"next_exploration":  stringArray,
					},
				},
				"metadata": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"title":         map[string]any{"type": "string"},
						"canonical_url": map[string]any{"type": "string"},
						"domain":        map[string]any{"type": "string"},
						"author":        map[string]any{"type": "string"},
						"published_at":  map[string]any{"type": "string"},
						"modified_at":   map[string]any{"type": "string"},
					},
				},
			},
			"required": []string{"summary_250", "summary_1000", "tldr", "key_ideas", "topic_tags", "entities", "estimated_reading_time_min"},
		},
	}
}
