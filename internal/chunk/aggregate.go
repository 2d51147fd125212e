package chunk

import (
	"strings"
	"unicode/utf8"

	"github.com/sells-group/summary-pipeline/internal/model"
	"github.com/sells-group/summary-pipeline/internal/shape"
)

// Aggregate deterministically merges per-chunk summary documents into one.
// Set-like fields (tags, entities, keywords) merge order-independently;
// summary_250 selection and the sentence-deduped text fields depend on
// chunk order. An empty input yields a well-formed empty document.
func Aggregate(docs []model.SummaryDocument) model.SummaryDocument {
	var out model.SummaryDocument
	if len(docs) == 0 {
		return out
	}

	// summary_250: the single longest candidate wins; ties go to the first
	// occurrence. Longest is a heuristic for most informative and is kept
	// as the product-visible behavior.
	for _, d := range docs {
		if utf8.RuneCountInString(d.Summary250) > utf8.RuneCountInString(out.Summary250) {
			out.Summary250 = d.Summary250
		}
	}

	out.Summary1000 = shape.CapText(mergeSentences(collect(docs, func(d model.SummaryDocument) string { return d.Summary1000 })), shape.CapSummary1000)
	out.TLDR = mergeSentences(collect(docs, func(d model.SummaryDocument) string { return d.TLDR }))
	if utf8.RuneCountInString(out.TLDR) <= utf8.RuneCountInString(out.Summary1000) && out.Summary1000 != "" {
		out.TLDR = strings.TrimSpace(out.Summary1000 + " " + out.TLDR)
	}
	out.TLDR = shape.CapText(out.TLDR, shape.CapTLDR)

	out.KeyIdeas = mergeList(docs, shape.MaxKeyIdeas, func(d model.SummaryDocument) []string { return d.KeyIdeas })
	out.TopicTags = mergeList(docs, shape.MaxTopicTags, func(d model.SummaryDocument) []string { return d.TopicTags })
	out.SEOKeywords = mergeList(docs, shape.MaxSEOKeywords, func(d model.SummaryDocument) []string { return d.SEOKeywords })
	out.AnsweredQuestions = mergeList(docs, shape.MaxAnsweredQuestions, func(d model.SummaryDocument) []string { return d.AnsweredQuestions })

	out.Entities = model.Entities{
		People:        mergeList(docs, 0, func(d model.SummaryDocument) []string { return d.Entities.People }),
		Organizations: mergeList(docs, 0, func(d model.SummaryDocument) []string { return d.Entities.Organizations }),
		Locations:     mergeList(docs, 0, func(d model.SummaryDocument) []string { return d.Entities.Locations }),
	}

	for _, d := range docs {
		if d.EstimatedReadingTimeMin > 0 {
			out.EstimatedReadingTimeMin += d.EstimatedReadingTimeMin
		}
		if out.Readability == "" {
			out.Readability = d.Readability
		}
		if out.Metadata == nil {
			out.Metadata = d.Metadata
		}
	}

	out.KeyStats = mergeKeyStats(docs)
	out.Insights = mergeInsights(docs)

	if out.Summary250 != "" {
		out.Summary250 = shape.CapText(shape.Finalize(out.Summary250), shape.CapSummary250)
	}
	if out.TLDR != "" {
		out.TLDR = shape.CapText(shape.Finalize(out.TLDR), shape.CapTLDR)
	}
	return out
}

func collect(docs []model.SummaryDocument, get func(model.SummaryDocument) string) []string {
	var out []string
	for _, d := range docs {
		if v := strings.TrimSpace(get(d)); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// mergeSentences concatenates the values, splits into sentences, removes
// case-insensitive duplicate sentences preserving first occurrence, and
// rejoins with single spaces.
func mergeSentences(values []string) string {
	joined := strings.Join(values, " ")
	if joined == "" {
		return ""
	}
	return strings.Join(shape.DedupFold(splitSentencesRegex(joined)), " ")
}

// mergeList unions list values across documents with case-insensitive
// dedup. A limit of 0 means uncapped.
func mergeList(docs []model.SummaryDocument, limit int, get func(model.SummaryDocument) []string) []string {
	var all []string
	for _, d := range docs {
		all = append(all, get(d)...)
	}
	merged := shape.DedupFold(all)
	if limit > 0 && len(merged) > limit {
		merged = merged[:limit]
	}
	return merged
}

// mergeKeyStats unions stats, deduped by case-folded label, capped.
func mergeKeyStats(docs []model.SummaryDocument) []model.KeyStat {
	var out []model.KeyStat
	seen := make(map[string]bool)
	for _, d := range docs {
		for _, stat := range d.KeyStats {
			key := shape.FoldKey(stat.Label)
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, stat)
			if len(out) == shape.MaxKeyStats {
				return out
			}
		}
	}
	return out
}

// mergeInsights merges insight blocks: overview and caution join the first
// few non-empty values, new facts dedup by normalized text, and the
// remaining list fields union-dedup under their caps.
func mergeInsights(docs []model.SummaryDocument) *model.Insights {
	var blocks []*model.Insights
	for _, d := range docs {
		if d.Insights != nil {
			blocks = append(blocks, d.Insights)
		}
	}
	if len(blocks) == 0 {
		return nil
	}

	ins := &model.Insights{
		TopicOverview: joinFirstN(blocks, 3, func(i *model.Insights) string { return i.TopicOverview }),
		Caution:       joinFirstN(blocks, 2, func(i *model.Insights) string { return i.Caution }),
	}

	var facts, questions, srcs, topics, next []string
	for _, b := range blocks {
		facts = append(facts, b.NewFacts...)
		questions = append(questions, b.OpenQuestions...)
		srcs = append(srcs, b.SuggestedSources...)
		topics = append(topics, b.ExpansionTopics...)
		next = append(next, b.NextExploration...)
	}
	ins.NewFacts = capped(shape.DedupFold(facts), shape.MaxNewFacts)
	ins.OpenQuestions = capped(shape.DedupFold(questions), shape.MaxInsightItems)
	ins.SuggestedSources = capped(shape.DedupFold(srcs), shape.MaxInsightItems)
	ins.ExpansionTopics = capped(shape.DedupFold(topics), shape.MaxInsightItems)
	ins.NextExploration = capped(shape.DedupFold(next), shape.MaxInsightItems)
	return ins
}

func joinFirstN(blocks []*model.Insights, n int, get func(*model.Insights) string) string {
	var parts []string
	for _, b := range blocks {
		if v := strings.TrimSpace(get(b)); v != "" {
			parts = append(parts, v)
			if len(parts) == n {
				break
			}
		}
	}
	return strings.Join(parts, "\n\n")
}

func capped(items []string, limit int) []string {
	if len(items) > limit {
		return items[:limit]
	}
	return items
}
