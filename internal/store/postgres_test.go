package store

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/summary-pipeline/internal/model"
)

func strPtr(s string) *string { return &s }

func nowUTC() time.Time { return time.Now().UTC() }

func TestPostgresRecordAttempt(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("INSERT INTO attempts").
		WithArgs(
			pgxmock.AnyArg(), "req-1", "corr-1", "schema_strict", "claude-haiku-4-5-20251001", model.StatusOK,
			"", "", 0, int64(250), 0.001,
			int64(1000), int64(200), int64(0), int64(0), pgxmock.AnyArg(),
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	s := NewPostgresFromPool(mock)
	err = s.RecordAttempt(context.Background(),
		model.RequestInfo{RequestID: "req-1", CorrelationID: "corr-1"},
		model.GenerationResult{
			Status:    model.StatusOK,
			Preset:    "schema_strict",
			Model:     "claude-haiku-4-5-20251001",
			LatencyMS: 250,
			CostUSD:   0.001,
			Usage:     model.TokenUsage{InputTokens: 1000, OutputTokens: 200},
		},
	)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRecordOutcome(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("INSERT INTO outcomes").
		WithArgs("req-1", "", "en", pgxmock.AnyArg(), nil, pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	s := NewPostgresFromPool(mock)
	doc := &model.SummaryDocument{Summary250: "Short.", Summary1000: "Long.", TLDR: "TLDR."}
	err = s.RecordOutcome(context.Background(), model.RequestInfo{RequestID: "req-1", Language: "en"}, doc, "")
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRecordAttemptBatch(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectCopyFrom(pgx.Identifier{"attempts"}, attemptColumns).WillReturnResult(2)

	s := NewPostgresFromPool(mock)
	entries := []AttemptEntry{
		{Info: model.RequestInfo{RequestID: "req-1"}, Result: model.GenerationResult{Status: model.StatusError, Preset: "schema_strict", Model: "m"}},
		{Info: model.RequestInfo{RequestID: "req-1"}, Result: model.GenerationResult{Status: model.StatusOK, Preset: "json_object_guardrail", Model: "m"}},
	}
	assert.NoError(t, s.RecordAttemptBatch(context.Background(), entries))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresListAttempts(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	rows := pgxmock.NewRows(attemptColumns).
		AddRow("id-1", "req-1", strPtr("corr-1"), "schema_strict", "m", model.StatusError,
			strPtr(model.ErrKindTransport), strPtr("overloaded"), 529, int64(100), 0.0,
			int64(10), int64(0), int64(0), int64(0), nowUTC())

	mock.ExpectQuery("SELECT (.+) FROM attempts WHERE request_id").
		WithArgs("req-1").
		WillReturnRows(rows)

	s := NewPostgresFromPool(mock)
	attempts, err := s.ListAttempts(context.Background(), "req-1")
	require.NoError(t, err)
	require.Len(t, attempts, 1)
	assert.Equal(t, model.ErrKindTransport, attempts[0].ErrorKind)
	assert.Equal(t, 529, attempts[0].StatusCode)
	assert.NoError(t, mock.ExpectationsWereMet())
}
