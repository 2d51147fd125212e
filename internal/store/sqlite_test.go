package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/summary-pipeline/internal/model"
)

func newTestSQLite(t *testing.T) *SQLiteSink {
	t.Helper()
	s, err := NewSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func TestSQLiteRecordAndListAttempts(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()
	info := model.RequestInfo{RequestID: "req-1", CorrelationID: "corr-1"}

	require.NoError(t, s.RecordAttempt(ctx, info, model.GenerationResult{
		Status:     model.StatusError,
		Preset:     "schema_strict",
		Model:      "claude-haiku-4-5-20251001",
		ErrorKind:  model.ErrKindStructuredOutputParse,
		StatusCode: 0,
		LatencyMS:  120,
		Usage:      model.TokenUsage{InputTokens: 500, OutputTokens: 100},
	}))
	require.NoError(t, s.RecordAttempt(ctx, info, model.GenerationResult{
		Status:    model.StatusOK,
		Preset:    "json_object_guardrail",
		Model:     "claude-sonnet-4-5-20250929",
		LatencyMS: 340,
		CostUSD:   0.0021,
	}))

	attempts, err := s.ListAttempts(ctx, "req-1")
	require.NoError(t, err)
	require.Len(t, attempts, 2)
	assert.Equal(t, "schema_strict", attempts[0].Preset)
	assert.Equal(t, model.ErrKindStructuredOutputParse, attempts[0].ErrorKind)
	assert.Equal(t, int64(500), attempts[0].InputTokens)
	assert.Equal(t, "json_object_guardrail", attempts[1].Preset)
	assert.Equal(t, model.StatusOK, attempts[1].Status)
	assert.Equal(t, "corr-1", attempts[1].CorrelationID)

	other, err := s.ListAttempts(ctx, "req-2")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestSQLiteRecordOutcomeUpsert(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()
	info := model.RequestInfo{RequestID: "req-1", Language: "en"}

	// First a failure record, then the successful document replaces it.
	require.NoError(t, s.RecordOutcome(ctx, info, nil, "all attempts exhausted"))

	doc := &model.SummaryDocument{Summary250: "A summary.", Summary1000: "A longer summary.", TLDR: "TLDR."}
	require.NoError(t, s.RecordOutcome(ctx, info, doc, ""))

	var document, failure *string
	row := s.db.QueryRowContext(ctx, `SELECT document, failure FROM outcomes WHERE request_id = ?`, "req-1")
	require.NoError(t, row.Scan(&document, &failure))
	require.NotNil(t, document)
	assert.Contains(t, *document, "A summary.")
	assert.Nil(t, failure)
}
