package cascade

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/summary-pipeline/internal/extract"
	"github.com/sells-group/summary-pipeline/internal/generate"
	"github.com/sells-group/summary-pipeline/internal/model"
	"github.com/sells-group/summary-pipeline/internal/notify"
	"github.com/sells-group/summary-pipeline/internal/shape"
	"github.com/sells-group/summary-pipeline/internal/store"
)

// Cascade runs an ordered sequence of generation attempts for one request.
type Cascade struct {
	backend  generate.Backend
	parser   *extract.Parser
	sink     store.Sink
	notifier notify.Notifier
	presets  []Preset
	system   string
}

// New creates a cascade over the given presets. The sink and notifier are
// best-effort collaborators; their failures never abort a request.
func New(backend generate.Backend, sink store.Sink, notifier notify.Notifier, presets []Preset) *Cascade {
	if sink == nil {
		sink = store.NoopSink{}
	}
	if notifier == nil {
		notifier = notify.NopNotifier{}
	}
	return &Cascade{
		backend:  backend,
		parser:   extract.NewParser(shape.Shape),
		sink:     sink,
		notifier: notifier,
		presets:  presets,
		system:   systemPrompt,
	}
}

// ExhaustionError is the consolidated failure after every preset has been
// tried. It is the only error the cascade surfaces to callers besides
// cancellation.
type ExhaustionError struct {
	ModelsTried []string
	LastError   string
}

func (e *ExhaustionError) Error() string {
	return fmt.Sprintf("all %d attempts exhausted (models tried: %s), last error: %s",
		len(e.ModelsTried), strings.Join(e.ModelsTried, ", "), e.LastError)
}

// Run executes attempts in preset order until one yields an accepted
// document. It returns the document, the accumulated per-strategy
// diagnostics, and an error only on cancellation or total exhaustion.
func (c *Cascade) Run(ctx context.Context, info model.RequestInfo, content string) (*model.SummaryDocument, []string, error) {
	log := zap.L().With(zap.String("request_id", info.RequestID))

	var diagnostics []string
	var modelsTried []string
	lastErr := "no attempts configured"

	for _, p := range c.presets {
		if ctx.Err() != nil {
			return nil, diagnostics, eris.Wrap(ctx.Err(), "cascade: canceled")
		}

		spec := p.Spec(c.system, buildMessages(content, info.Language, p.Format))
		res := c.backend.Invoke(ctx, spec)
		c.reportAttempt(ctx, info, res)
		modelsTried = append(modelsTried, p.Model)

		if res.ErrorKind == model.ErrKindCanceled && ctx.Err() != nil {
			return nil, diagnostics, eris.Wrap(ctx.Err(), "cascade: canceled")
		}

		switch {
		case res.ErrorKind == model.ErrKindStructuredOutputParse:
			// The provider accepted the call but could not honor the strict
			// format. Try to salvage a document from whatever text came back
			// before failing the attempt.
			doc, salvageErrs, ok := c.salvage(res.Text)
			if ok {
				log.Info("attempt salvaged locally", zap.String("preset", p.Name))
				return c.accept(ctx, info, doc, diagnostics)
			}
			diagnostics = appendLabeled(diagnostics, p.Name, salvageErrs)
			lastErr = fmt.Sprintf("%s: structured output rejected and local salvage failed", p.Name)

		case res.OK():
			outcome := c.parser.Parse(res.Structured, res.Text)
			if outcome.Accepted() {
				return c.accept(ctx, info, outcome.Shaped, appendLabeled(diagnostics, p.Name, outcome.Errors))
			}
			diagnostics = appendLabeled(diagnostics, p.Name, outcome.Errors)

			doc, repairErrs := c.repair(ctx, info, spec, res, outcome)
			if doc != nil {
				return c.accept(ctx, info, doc, appendLabeled(diagnostics, p.Name+"_repair", repairErrs))
			}
			diagnostics = appendLabeled(diagnostics, p.Name+"_repair", repairErrs)
			lastErr = fmt.Sprintf("%s: response unparsable after repair", p.Name)

		default:
			diagnostics = append(diagnostics, fmt.Sprintf("%s: %s: %s", p.Name, res.ErrorKind, res.ErrorContext))
			lastErr = fmt.Sprintf("%s: %s: %s", p.Name, res.ErrorKind, res.ErrorContext)
		}
	}

	exErr := &ExhaustionError{ModelsTried: modelsTried, LastError: lastErr}
	c.reportOutcome(ctx, info, nil, exErr.Error())
	c.notifier.AllAttemptsFailed(ctx, info, exErr.Error())
	return nil, diagnostics, exErr
}

// salvage recovers a document from the raw text of a rejected structured
// call: heuristic extraction plus direct shaping first, then the full
// parser chain as a secondary path.
func (c *Cascade) salvage(text string) (*model.SummaryDocument, []string, bool) {
	var errs []string
	if raw, ok := extract.Extract(text); ok {
		doc, err := shape.Shape(raw)
		if err == nil {
			return doc, errs, true
		}
		errs = append(errs, "salvage: "+err.Error())
	} else {
		errs = append(errs, "salvage: no object recoverable from text")
	}

	outcome := c.parser.Parse(nil, text)
	if outcome.Accepted() {
		return outcome.Shaped, append(errs, outcome.Errors...), true
	}
	return nil, append(errs, outcome.Errors...), false
}

// repair issues the single corrective follow-up for a parse failure. Its
// response gets one parse pass and no further repair.
func (c *Cascade) repair(ctx context.Context, info model.RequestInfo, spec model.AttemptSpec, failed model.GenerationResult, outcome model.ParseOutcome) (*model.SummaryDocument, []string) {
	repairSpec := buildRepairSpec(spec, failed, outcome)
	res := c.backend.Invoke(ctx, repairSpec)
	c.reportAttempt(ctx, info, res)

	if !res.OK() {
		return nil, []string{fmt.Sprintf("%s: %s", res.ErrorKind, res.ErrorContext)}
	}
	repairOutcome := c.parser.Parse(res.Structured, res.Text)
	if repairOutcome.Accepted() {
		return repairOutcome.Shaped, repairOutcome.Errors
	}
	return nil, repairOutcome.Errors
}

func (c *Cascade) accept(ctx context.Context, info model.RequestInfo, doc *model.SummaryDocument, diagnostics []string) (*model.SummaryDocument, []string, error) {
	c.reportOutcome(ctx, info, doc, "")
	return doc, diagnostics, nil
}

func (c *Cascade) reportAttempt(ctx context.Context, info model.RequestInfo, res model.GenerationResult) {
	if err := c.sink.RecordAttempt(ctx, info, res); err != nil {
		zap.L().Warn("cascade: record attempt failed",
			zap.String("request_id", info.RequestID), zap.Error(err))
	}
	c.notifier.AttemptCompleted(ctx, info, res)
}

func (c *Cascade) reportOutcome(ctx context.Context, info model.RequestInfo, doc *model.SummaryDocument, failure string) {
	if err := c.sink.RecordOutcome(ctx, info, doc, failure); err != nil {
		zap.L().Warn("cascade: record outcome failed",
			zap.String("request_id", info.RequestID), zap.Error(err))
	}
}

func appendLabeled(diagnostics []string, label string, errs []string) []string {
	for _, e := range errs {
		diagnostics = append(diagnostics, label+": "+e)
	}
	return diagnostics
}
