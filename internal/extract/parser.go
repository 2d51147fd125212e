package extract

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kaptinlin/jsonrepair"
	"go.uber.org/zap"

	"github.com/sells-group/summary-pipeline/internal/model"
)

// Shaper validates and normalizes a raw object into the canonical document.
// Injected so the parser stays decoupled from the shaping rules.
type Shaper func(raw map[string]any) (*model.SummaryDocument, error)

// Parser runs the ordered response-parsing strategy chain over a generation
// result. It never returns an error: failures accumulate into the outcome's
// Errors list and the next strategy is tried.
type Parser struct {
	shape Shaper
}

// NewParser creates a Parser backed by the given shaper.
func NewParser(shape Shaper) *Parser {
	return &Parser{shape: shape}
}

// Parse tries, in order: the provider's pre-parsed structured field, verbatim
// parses of cleaned text candidates, heuristic extraction, and finally
// library-assisted repair. The first object that both parses and shapes wins.
// An object that parses but fails shaping is recorded and the chain
// continues. UsedLocalFix is set on any success past the structured field.
func (p *Parser) Parse(structured map[string]any, text string) model.ParseOutcome {
	var out model.ParseOutcome

	if structured != nil {
		doc, err := p.shape(structured)
		if err == nil {
			out.Raw = structured
			out.Shaped = doc
			return out
		}
		out.Errors = append(out.Errors, fmt.Sprintf("structured_field: %v", err))
	} else {
		out.Errors = append(out.Errors, "structured_field: no pre-parsed object in payload")
	}

	// Verbatim parse of cleaned candidates. No heuristic repair here: each
	// candidate must be strict JSON after the named cleanup alone.
	for _, c := range textCandidates(text) {
		var obj map[string]any
		if err := json.Unmarshal([]byte(c.text), &obj); err != nil {
			out.Errors = append(out.Errors, fmt.Sprintf("candidate_%s: %v", c.label, err))
			continue
		}
		if p.tryShape(obj, "candidate_"+c.label, &out) {
			return out
		}
	}

	if obj, ok := Extract(text); ok {
		if p.tryShape(obj, "heuristic", &out) {
			return out
		}
	} else {
		out.Errors = append(out.Errors, "heuristic: no recoverable object")
	}

	repaired, err := jsonrepair.JSONRepair(text)
	if err != nil {
		out.Errors = append(out.Errors, fmt.Sprintf("repair: %v", err))
		return out
	}
	obj, ok := parseObject(strings.TrimSpace(repaired))
	if !ok {
		out.Errors = append(out.Errors, "repair: repaired text is not a JSON object")
		return out
	}
	p.tryShape(obj, "repair", &out)
	return out
}

// tryShape shapes obj and, on success, fills the outcome and marks the local
// fix. Shaping failures are appended to the error trail.
func (p *Parser) tryShape(obj map[string]any, strategy string, out *model.ParseOutcome) bool {
	doc, err := p.shape(obj)
	if err != nil {
		out.Errors = append(out.Errors, fmt.Sprintf("%s: %v", strategy, err))
		return false
	}
	zap.L().Debug("response parsed",
		zap.String("strategy", strategy),
		zap.Int("prior_failures", len(out.Errors)),
	)
	out.Raw = obj
	out.Shaped = doc
	out.UsedLocalFix = true
	return true
}

type candidate struct {
	label string
	text  string
}

// textCandidates generates cleaned variants of the raw text for verbatim
// parsing, ordered from least to most invasive cleanup. Variants identical
// to an earlier one are dropped.
func textCandidates(text string) []candidate {
	trimmed := strings.TrimSpace(text)
	cands := []candidate{{"trimmed", trimmed}}

	add := func(label, s string) {
		for _, c := range cands {
			if c.text == s {
				return
			}
		}
		cands = append(cands, candidate{label, s})
	}

	add("fence_stripped", StripCodeFence(trimmed))
	add("backtick_stripped", strings.TrimSpace(strings.Trim(trimmed, "` \t\r\n")))
	add("brace_sliced", SliceBraces(trimmed))

	out := cands[:0]
	for _, c := range cands {
		if c.text != "" {
			out = append(out, c)
		}
	}
	return out
}
