package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/summary-pipeline/internal/model"
)

// SQLiteSink implements Sink using modernc.org/sqlite. It is the default
// for local single-process use.
type SQLiteSink struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given DSN and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteSink, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteSink{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS attempts (
	id                 TEXT PRIMARY KEY,
	request_id         TEXT NOT NULL,
	correlation_id     TEXT,
	preset             TEXT NOT NULL,
	model              TEXT NOT NULL,
	status             TEXT NOT NULL,
	error_kind         TEXT,
	error_context      TEXT,
	status_code        INTEGER NOT NULL DEFAULT 0,
	latency_ms         INTEGER NOT NULL DEFAULT 0,
	cost_usd           REAL NOT NULL DEFAULT 0,
	input_tokens       INTEGER NOT NULL DEFAULT 0,
	output_tokens      INTEGER NOT NULL DEFAULT 0,
	cache_write_tokens INTEGER NOT NULL DEFAULT 0,
	cache_read_tokens  INTEGER NOT NULL DEFAULT 0,
	created_at         DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS outcomes (
	request_id     TEXT PRIMARY KEY,
	correlation_id TEXT,
	language       TEXT,
	document       TEXT,
	failure        TEXT,
	created_at     DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at     DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_attempts_request_id ON attempts(request_id);
CREATE INDEX IF NOT EXISTS idx_attempts_created_at ON attempts(created_at);
`

func (s *SQLiteSink) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteSink) Close() error {
	return s.db.Close()
}

func (s *SQLiteSink) RecordAttempt(ctx context.Context, info model.RequestInfo, res model.GenerationResult) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO attempts (
			id, request_id, correlation_id, preset, model, status,
			error_kind, error_context, status_code, latency_ms, cost_usd,
			input_tokens, output_tokens, cache_write_tokens, cache_read_tokens, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		uuid.New().String(), info.RequestID, info.CorrelationID, res.Preset, res.Model, res.Status,
		res.ErrorKind, res.ErrorContext, res.StatusCode, res.LatencyMS, res.CostUSD,
		res.Usage.InputTokens, res.Usage.OutputTokens, res.Usage.CacheWriteTokens, res.Usage.CacheReadTokens, time.Now().UTC(),
	)
	return eris.Wrapf(err, "sqlite: insert attempt for request %s", info.RequestID)
}

func (s *SQLiteSink) RecordOutcome(ctx context.Context, info model.RequestInfo, doc *model.SummaryDocument, failure string) error {
	var docJSON any
	if doc != nil {
		b, err := json.Marshal(doc)
		if err != nil {
			return eris.Wrap(err, "sqlite: marshal document")
		}
		docJSON = string(b)
	}

	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO outcomes (request_id, correlation_id, language, document, failure, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (request_id) DO UPDATE SET
			document = excluded.document,
			failure = excluded.failure,
			updated_at = excluded.updated_at`,
		info.RequestID, info.CorrelationID, info.Language, docJSON, nullable(failure), now, now,
	)
	return eris.Wrapf(err, "sqlite: upsert outcome for request %s", info.RequestID)
}

func (s *SQLiteSink) ListAttempts(ctx context.Context, requestID string) ([]AttemptRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, request_id, correlation_id, preset, model, status,
			error_kind, error_context, status_code, latency_ms, cost_usd,
			input_tokens, output_tokens, cache_write_tokens, cache_read_tokens, created_at
		 FROM attempts WHERE request_id = ? ORDER BY created_at, id`,
		requestID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list attempts for request %s", requestID)
	}
	defer rows.Close()

	var out []AttemptRecord
	for rows.Next() {
		var rec AttemptRecord
		var correlationID, errorKind, errorContext sql.NullString
		if err := rows.Scan(
			&rec.ID, &rec.RequestID, &correlationID, &rec.Preset, &rec.Model, &rec.Status,
			&errorKind, &errorContext, &rec.StatusCode, &rec.LatencyMS, &rec.CostUSD,
			&rec.InputTokens, &rec.OutputTokens, &rec.CacheWriteTokens, &rec.CacheReadTokens, &rec.CreatedAt,
		); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan attempt")
		}
		rec.CorrelationID = correlationID.String
		rec.ErrorKind = errorKind.String
		rec.ErrorContext = errorContext.String
		out = append(out, rec)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate attempts")
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
