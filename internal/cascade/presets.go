// Package cascade drives the ordered multi-attempt strategy that turns one
// content string into an accepted summary document. Attempts run strictly
// in order; the first accepted document wins and later presets are never
// tried.
package cascade

import "github.com/sells-group/summary-pipeline/internal/model"

// Preset names, in default cascade order.
const (
	PresetSchemaStrict        = "schema_strict"
	PresetJSONObjectGuardrail = "json_object_guardrail"
	PresetJSONObjectFallback  = "json_object_fallback"
)

// Preset is a named (format, model, sampling) combination. The cascade
// consumes an ordered list of these; order encodes preference.
type Preset struct {
	Name        string
	Format      model.OutputFormat
	Model       string
	MaxTokens   int64
	Temperature *float64
	TopP        *float64
}

// DefaultPresets returns the standard three-step cascade: provider-enforced
// schema output on the primary model, then loose JSON with prompt guardrails
// on the primary model, then loose JSON on the fallback model.
func DefaultPresets(primaryModel, fallbackModel string, maxTokens int64) []Preset {
	if maxTokens <= 0 {
		maxTokens = 4096
	}
	return []Preset{
		{
			Name:        PresetSchemaStrict,
			Format:      model.FormatSchemaConstrained,
			Model:       primaryModel,
			MaxTokens:   maxTokens,
			Temperature: f64(0.2),
		},
		{
			Name:        PresetJSONObjectGuardrail,
			Format:      model.FormatLooseJSON,
			Model:       primaryModel,
			MaxTokens:   maxTokens,
			Temperature: f64(0.0),
		},
		{
			Name:        PresetJSONObjectFallback,
			Format:      model.FormatLooseJSON,
			Model:       fallbackModel,
			MaxTokens:   maxTokens,
			Temperature: f64(0.0),
			TopP:        f64(0.9),
		},
	}
}

// Spec builds the immutable attempt spec for this preset and message set.
func (p Preset) Spec(system string, messages []model.Message) model.AttemptSpec {
	return model.AttemptSpec{
		Preset:      p.Name,
		Messages:    messages,
		System:      system,
		Format:      p.Format,
		Model:       p.Model,
		MaxTokens:   p.MaxTokens,
		Temperature: p.Temperature,
		TopP:        p.TopP,
	}
}

func f64(v float64) *float64 { return &v }
