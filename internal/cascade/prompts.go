package cascade

import (
	"fmt"

	"github.com/sells-group/summary-pipeline/internal/model"
)

const systemPrompt = `You are a precise content summarizer. You read long-form text and produce a structured summary document as a single JSON object.

Field requirements:
- summary_250: concise summary, at most 250 characters, ending with terminal punctuation
- summary_1000: detailed summary, at most 1000 characters
- tldr: TLDR paragraph, at most 2000 characters, longer than summary_1000
- key_ideas: up to 10 distinct key ideas
- topic_tags: up to 8 tags, each starting with #
- entities: {"people": [], "organizations": [], "locations": []}
- estimated_reading_time_min: reading time of the ORIGINAL content in minutes, integer

Optionally include: key_stats (label/value/unit/source_excerpt), answered_questions, readability, seo_keywords, insights (topic_overview, caution, new_facts, open_questions, suggested_sources, expansion_topics, next_exploration), metadata (title, canonical_url, domain, author, published_at, modified_at).

Never invent facts that are not in the content.`

// looseJSONGuardrail is appended to the user prompt when the provider is not
// enforcing the schema, to keep the completion machine-parsable.
const looseJSONGuardrail = `

Respond with ONLY the JSON object. No prose before or after it, no code fences.`

// repairInvalidJSON asks the model to fix a completion that could not be
// parsed as JSON at all.
const repairInvalidJSON = `Your previous output was not valid JSON and could not be parsed. Resend the complete summary as one valid JSON object, with every string properly quoted and every bracket closed. Output only the JSON object.`

// repairMissingSummary asks the model to fix a completion that parsed but
// carried no usable summary text.
const repairMissingSummary = `Your previous output parsed as JSON but contained no usable summary text. Resend the complete JSON object with a non-empty summary_250, summary_1000, and tldr derived from the content. Output only the JSON object.`

// buildMessages builds the user message for one summarization call.
func buildMessages(content, language string, format model.OutputFormat) []model.Message {
	prompt := fmt.Sprintf("Summarize the following content into the structured summary document.\n\n<content>\n%s\n</content>", content)
	if language != "" {
		prompt += fmt.Sprintf("\n\nWrite all summary text in %s.", language)
	}
	if format == model.FormatLooseJSON {
		prompt += looseJSONGuardrail
	}
	return []model.Message{{Role: "user", Content: prompt}}
}
