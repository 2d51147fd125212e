// Package store persists generation attempts and final summary outcomes.
// Every attempt is recorded whether it succeeded or not, so a request's
// full cascade history can be reconstructed afterwards.
package store

import (
	"context"
	"time"

	"github.com/sells-group/summary-pipeline/internal/model"
)

// AttemptRecord is the persisted form of a single generation attempt.
type AttemptRecord struct {
	ID               string    `json:"id"`
	RequestID        string    `json:"request_id"`
	CorrelationID    string    `json:"correlation_id,omitempty"`
	Preset           string    `json:"preset"`
	Model            string    `json:"model"`
	Status           string    `json:"status"`
	ErrorKind        string    `json:"error_kind,omitempty"`
	ErrorContext     string    `json:"error_context,omitempty"`
	StatusCode       int       `json:"status_code,omitempty"`
	LatencyMS        int64     `json:"latency_ms"`
	CostUSD          float64   `json:"cost_usd"`
	InputTokens      int64     `json:"input_tokens"`
	OutputTokens     int64     `json:"output_tokens"`
	CacheWriteTokens int64     `json:"cache_write_tokens"`
	CacheReadTokens  int64     `json:"cache_read_tokens"`
	CreatedAt        time.Time `json:"created_at"`
}

// AttemptEntry pairs a request with one of its generation results, before
// persistence assigns a record ID.
type AttemptEntry struct {
	Info   model.RequestInfo
	Result model.GenerationResult
}

// Sink is the persistence interface for the summarization pipeline.
type Sink interface {
	RecordAttempt(ctx context.Context, info model.RequestInfo, res model.GenerationResult) error
	RecordOutcome(ctx context.Context, info model.RequestInfo, doc *model.SummaryDocument, failure string) error
	ListAttempts(ctx context.Context, requestID string) ([]AttemptRecord, error)

	Migrate(ctx context.Context) error
	Close() error
}

// BatchSink is implemented by sinks that can flush several attempts in one
// round trip. The async wrapper uses it when its queue has backed up.
type BatchSink interface {
	RecordAttemptBatch(ctx context.Context, entries []AttemptEntry) error
}
