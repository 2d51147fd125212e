package shape

import "github.com/sells-group/summary-pipeline/internal/model"

// shapeEntities merges either the canonical {people, organizations,
// locations} object or a list of tagged groups (each with a type hint and a
// flat list or a list of named objects) into the canonical three-bucket
// form, deduplicating case-insensitively per bucket.
func shapeEntities(v any) model.Entities {
	buckets := map[string][]string{}

	appendTo := func(bucket string, items []string) {
		if bucket == "" {
			return
		}
		buckets[bucket] = append(buckets[bucket], items...)
	}

	switch t := v.(type) {
	case map[string]any:
		for k, val := range t {
			appendTo(entityBuckets[normalizeFieldName(k)], entityItems(val))
		}
	case []any:
		for _, g := range t {
			group, ok := g.(map[string]any)
			if !ok {
				continue
			}
			bucket := ""
			var items []string
			for k, val := range group {
				switch normalizeFieldName(k) {
				case "type", "category", "kind", "label", "group":
					if hint, ok := val.(string); ok {
						bucket = entityBuckets[normalizeFieldName(hint)]
					}
				case "items", "values", "names", "entities", "members":
					items = entityItems(val)
				}
			}
			appendTo(bucket, items)
		}
	}

	return model.Entities{
		People:        DedupFold(buckets["people"]),
		Organizations: DedupFold(buckets["organizations"]),
		Locations:     DedupFold(buckets["locations"]),
	}
}

// entityItems extracts entity names from either a flat string list or a
// list of objects carrying a name-like field.
func entityItems(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return asStringList(v)
	}
	var out []string
	for _, it := range items {
		switch e := it.(type) {
		case string:
			out = append(out, e)
		case map[string]any:
			for k, val := range e {
				switch normalizeFieldName(k) {
				case "name", "text", "value", "entity":
					if s, ok := val.(string); ok && s != "" {
						out = append(out, s)
					}
				}
			}
		}
	}
	return out
}

// shapeKeyStats normalizes key-stat tuples, deduplicating by case-folded
// label and dropping entries without one.
func shapeKeyStats(v any) []model.KeyStat {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	var out []model.KeyStat
	seen := make(map[string]bool)
	for _, it := range items {
		m, ok := it.(map[string]any)
		if !ok {
			continue
		}
		var stat model.KeyStat
		for k, val := range m {
			switch keyStatFieldNames[normalizeFieldName(k)] {
			case "label":
				stat.Label = scalarText(val)
			case "value":
				stat.Value = scalarText(val)
			case "unit":
				stat.Unit = scalarText(val)
			case "source_excerpt":
				stat.SourceExcerpt = scalarText(val)
			}
		}
		if stat.Label == "" {
			continue
		}
		key := FoldKey(stat.Label)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, stat)
		if len(out) == MaxKeyStats {
			break
		}
	}
	return out
}

// shapeInsights normalizes the insights block; returns nil when every
// sub-field ends up empty.
func shapeInsights(v any) *model.Insights {
	m, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	ins := &model.Insights{}
	for k, val := range m {
		switch insightFieldNames[normalizeFieldName(k)] {
		case "topic_overview":
			ins.TopicOverview = asText(val)
		case "caution":
			ins.Caution = asText(val)
		case "new_facts":
			ins.NewFacts = capList(DedupFold(asStringList(val)), MaxNewFacts)
		case "open_questions":
			ins.OpenQuestions = capList(DedupFold(asStringList(val)), MaxInsightItems)
		case "suggested_sources":
			ins.SuggestedSources = capList(DedupFold(asStringList(val)), MaxInsightItems)
		case "expansion_topics":
			ins.ExpansionTopics = capList(DedupFold(asStringList(val)), MaxInsightItems)
		case "next_exploration":
			ins.NextExploration = capList(DedupFold(asStringList(val)), MaxInsightItems)
		}
	}
	if ins.TopicOverview == "" && ins.Caution == "" && len(ins.NewFacts) == 0 &&
		len(ins.OpenQuestions) == 0 && len(ins.SuggestedSources) == 0 &&
		len(ins.ExpansionTopics) == 0 && len(ins.NextExploration) == 0 {
		return nil
	}
	return ins
}

// shapeMetadata normalizes the metadata block; returns nil when empty.
func shapeMetadata(v any) *model.Metadata {
	m, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	meta := &model.Metadata{}
	for k, val := range m {
		switch metadataFieldNames[normalizeFieldName(k)] {
		case "title":
			meta.Title = asText(val)
		case "canonical_url":
			meta.CanonicalURL = asText(val)
		case "domain":
			meta.Domain = asText(val)
		case "author":
			meta.Author = asText(val)
		case "published_at":
			meta.PublishedAt = asText(val)
		case "modified_at":
			meta.ModifiedAt = asText(val)
		}
	}
	if *meta == (model.Metadata{}) {
		return nil
	}
	return meta
}
