package shape

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShapeEntitiesCanonicalForm(t *testing.T) {
	doc, err := Shape(map[string]any{
		"summary_250": "ok.",
		"entities": map[string]any{
			"people":        []any{"Ada Lovelace", "ada lovelace", "Grace Hopper"},
			"organisations": []any{"Acme", "ACME"},
			"places":        []any{"Berlin"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"Ada Lovelace", "Grace Hopper"}, doc.Entities.People)
	assert.Equal(t, []string{"Acme"}, doc.Entities.Organizations)
	assert.Equal(t, []string{"Berlin"}, doc.Entities.Locations)
}

func TestShapeEntitiesTaggedGroupForm(t *testing.T) {
	doc, err := Shape(map[string]any{
		"summary_250": "ok.",
		"entities": []any{
			map[string]any{"type": "people", "items": []any{"Ada"}},
			map[string]any{"category": "companies", "values": []any{
				map[string]any{"name": "Acme"},
				map[string]any{"text": "Initech"},
			}},
			map[string]any{"kind": "location", "names": []any{"Berlin", "berlin"}},
			map[string]any{"type": "unknown-bucket", "items": []any{"dropped"}},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"Ada"}, doc.Entities.People)
	assert.Equal(t, []string{"Acme", "Initech"}, doc.Entities.Organizations)
	assert.Equal(t, []string{"Berlin"}, doc.Entities.Locations)
}

func TestShapeKeyStats(t *testing.T) {
	doc, err := Shape(map[string]any{
		"summary_250": "ok.",
		"key_stats": []any{
			map[string]any{"label": "Revenue", "value": "4.2", "unit": "B USD", "source_excerpt": "revenue of $4.2B"},
			map[string]any{"label": "revenue", "value": "different"},
			map[string]any{"metric": "Employees", "value": 1200},
			map[string]any{"value": "no label, dropped"},
			"not an object",
		},
	})
	require.NoError(t, err)

	require.Len(t, doc.KeyStats, 2)
	assert.Equal(t, "Revenue", doc.KeyStats[0].Label)
	assert.Equal(t, "B USD", doc.KeyStats[0].Unit)
	assert.Equal(t, "Employees", doc.KeyStats[1].Label)
	assert.Equal(t, "1200", doc.KeyStats[1].Value)
}

func TestShapeInsights(t *testing.T) {
	doc, err := Shape(map[string]any{
		"summary_250": "ok.",
		"insights": map[string]any{
			"topicOverview":  "What this is about.",
			"newFacts":       []any{"fact one", "Fact One", "fact two"},
			"open_questions": []any{"q1"},
		},
	})
	require.NoError(t, err)

	require.NotNil(t, doc.Insights)
	assert.Equal(t, "What this is about.", doc.Insights.TopicOverview)
	assert.Equal(t, []string{"fact one", "fact two"}, doc.Insights.NewFacts)
	assert.Equal(t, []string{"q1"}, doc.Insights.OpenQuestions)
}

func TestShapeInsightsEmptyBecomesNil(t *testing.T) {
	doc, err := Shape(map[string]any{
		"summary_250": "ok.",
		"insights":    map[string]any{"topic_overview": "  "},
	})
	require.NoError(t, err)
	assert.Nil(t, doc.Insights)
}

func TestShapeMetadata(t *testing.T) {
	doc, err := Shape(map[string]any{
		"summary_250": "ok.",
		"metadata": map[string]any{
			"title":       "An Article",
			"url":         "https://example.com/a",
			"publishedAt": "2026-01-12",
		},
	})
	require.NoError(t, err)

	require.NotNil(t, doc.Metadata)
	assert.Equal(t, "An Article", doc.Metadata.Title)
	assert.Equal(t, "https://example.com/a", doc.Metadata.CanonicalURL)
	assert.Equal(t, "2026-01-12", doc.Metadata.PublishedAt)
	assert.Empty(t, doc.Metadata.Author)
}
