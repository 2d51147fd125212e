package cascade

import (
	"encoding/json"
	"strings"

	"github.com/sells-group/summary-pipeline/internal/model"
)

// buildRepairSpec constructs the single corrective follow-up for a failed
// attempt: the original context, the failed assistant output, and an
// instruction chosen from the parse diagnostics. Model and format stay the
// same as the original attempt.
func buildRepairSpec(original model.AttemptSpec, failed model.GenerationResult, outcome model.ParseOutcome) model.AttemptSpec {
	assistant := failed.Text
	if assistant == "" && failed.Structured != nil {
		if b, err := json.Marshal(failed.Structured); err == nil {
			assistant = string(b)
		}
	}
	if assistant == "" {
		assistant = "{}"
	}

	instruction := repairInvalidJSON
	if missingSummaryText(outcome) {
		instruction = repairMissingSummary
	}

	messages := make([]model.Message, 0, len(original.Messages)+2)
	messages = append(messages, original.Messages...)
	messages = append(messages,
		model.Message{Role: "assistant", Content: assistant},
		model.Message{Role: "user", Content: instruction},
	)

	spec := original
	spec.Preset = original.Preset + "_repair"
	spec.Messages = messages
	return spec
}

// missingSummaryText reports whether the parse diagnostics show the object
// was structurally fine but carried no derivable summary text.
func missingSummaryText(outcome model.ParseOutcome) bool {
	for _, e := range outcome.Errors {
		if strings.Contains(e, "no summary text derivable") {
			return true
		}
	}
	return false
}
