// Package notify surfaces pipeline lifecycle events to operators. The
// cascade emits exactly one exhaustion notification per request no matter
// how many attempts failed along the way.
package notify

import (
	"context"

	"go.uber.org/zap"

	"github.com/sells-group/summary-pipeline/internal/model"
)

// Notifier receives pipeline lifecycle events.
type Notifier interface {
	// AttemptCompleted fires after each attempt, success or failure.
	AttemptCompleted(ctx context.Context, info model.RequestInfo, res model.GenerationResult)
	// AllAttemptsFailed fires once per request when the cascade exhausts
	// every preset without an accepted document.
	AllAttemptsFailed(ctx context.Context, info model.RequestInfo, report string)
}

// LogNotifier writes events to the process logger.
type LogNotifier struct{}

func (LogNotifier) AttemptCompleted(_ context.Context, info model.RequestInfo, res model.GenerationResult) {
	fields := []zap.Field{
		zap.String("request_id", info.RequestID),
		zap.String("preset", res.Preset),
		zap.String("model", res.Model),
		zap.String("status", res.Status),
		zap.Int64("latency_ms", res.LatencyMS),
	}
	if res.OK() {
		zap.L().Info("attempt completed", fields...)
		return
	}
	fields = append(fields, zap.String("error_kind", res.ErrorKind))
	zap.L().Warn("attempt failed", fields...)
}

func (LogNotifier) AllAttemptsFailed(_ context.Context, info model.RequestInfo, report string) {
	zap.L().Error("all attempts failed",
		zap.String("request_id", info.RequestID),
		zap.String("correlation_id", info.CorrelationID),
		zap.String("report", report),
	)
}

// NopNotifier discards all events.
type NopNotifier struct{}

func (NopNotifier) AttemptCompleted(context.Context, model.RequestInfo, model.GenerationResult) {}

func (NopNotifier) AllAttemptsFailed(context.Context, model.RequestInfo, string) {}
