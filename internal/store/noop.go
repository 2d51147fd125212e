package store

import (
	"context"

	"github.com/sells-group/summary-pipeline/internal/model"
)

// NoopSink discards everything. Used when persistence is disabled.
type NoopSink struct{}

func (NoopSink) RecordAttempt(context.Context, model.RequestInfo, model.GenerationResult) error {
	return nil
}

func (NoopSink) RecordOutcome(context.Context, model.RequestInfo, *model.SummaryDocument, string) error {
	return nil
}

func (NoopSink) ListAttempts(context.Context, string) ([]AttemptRecord, error) {
	return nil, nil
}

func (NoopSink) Migrate(context.Context) error { return nil }

func (NoopSink) Close() error { return nil }
