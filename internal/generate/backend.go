// Package generate adapts LLM providers to the attempt model used by the
// cascade. A backend never returns a Go error for a failed generation; it
// folds transport failures, cancellations, and structured-output parse
// failures into the result so the cascade can classify and route them.
package generate

import (
	"context"

	"github.com/sells-group/summary-pipeline/internal/model"
)

// Backend executes a single generation attempt against a provider.
type Backend interface {
	Invoke(ctx context.Context, spec model.AttemptSpec) model.GenerationResult
}
