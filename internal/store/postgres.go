package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/summary-pipeline/internal/db"
	"github.com/sells-group/summary-pipeline/internal/model"
)

// PostgresSink implements Sink using pgxpool, for deployments where many
// pipeline workers share one attempt history.
type PostgresSink struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection for
// the hot-path store operations.
var preparedStatements = map[string]string{
	"insert_attempt": `INSERT INTO attempts (
		id, request_id, correlation_id, preset, model, status,
		error_kind, error_context, status_code, latency_ms, cost_usd,
		input_tokens, output_tokens, cache_write_tokens, cache_read_tokens, created_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
	"upsert_outcome": `INSERT INTO outcomes (request_id, correlation_id, language, document, failure, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (request_id) DO UPDATE SET
			document = excluded.document,
			failure = excluded.failure,
			updated_at = excluded.updated_at`,
	"list_attempts": `SELECT id, request_id, correlation_id, preset, model, status,
		error_kind, error_context, status_code, latency_ms, cost_usd,
		input_tokens, output_tokens, cache_write_tokens, cache_read_tokens, created_at
		FROM attempts WHERE request_id = $1 ORDER BY created_at, id`,
}

// NewPostgres creates a PostgresSink with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresSink, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresSink{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresFromPool wraps an existing pool. Used in tests with pgxmock.
func NewPostgresFromPool(pool db.Pool) *PostgresSink {
	return &PostgresSink{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS attempts (
	id                 UUID PRIMARY KEY,
	request_id         TEXT NOT NULL,
	correlation_id     TEXT,
	preset             TEXT NOT NULL,
	model              TEXT NOT NULL,
	status             TEXT NOT NULL,
	error_kind         TEXT,
	error_context      TEXT,
	status_code        INT NOT NULL DEFAULT 0,
	latency_ms         BIGINT NOT NULL DEFAULT 0,
	cost_usd           DOUBLE PRECISION NOT NULL DEFAULT 0,
	input_tokens       BIGINT NOT NULL DEFAULT 0,
	output_tokens      BIGINT NOT NULL DEFAULT 0,
	cache_write_tokens BIGINT NOT NULL DEFAULT 0,
	cache_read_tokens  BIGINT NOT NULL DEFAULT 0,
	created_at         TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS outcomes (
	request_id     TEXT PRIMARY KEY,
	correlation_id TEXT,
	language       TEXT,
	document       JSONB,
	failure        TEXT,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_attempts_request_id ON attempts(request_id);
CREATE INDEX IF NOT EXISTS idx_attempts_created_at ON attempts(created_at);
`

func (s *PostgresSink) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresSink) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresSink) RecordAttempt(ctx context.Context, info model.RequestInfo, res model.GenerationResult) error {
	_, err := s.pool.Exec(ctx, preparedStatements["insert_attempt"],
		uuid.New().String(), info.RequestID, info.CorrelationID, res.Preset, res.Model, res.Status,
		res.ErrorKind, res.ErrorContext, res.StatusCode, res.LatencyMS, res.CostUSD,
		res.Usage.InputTokens, res.Usage.OutputTokens, res.Usage.CacheWriteTokens, res.Usage.CacheReadTokens, time.Now().UTC(),
	)
	return eris.Wrapf(err, "postgres: insert attempt for request %s", info.RequestID)
}

// attemptColumns matches the COPY column order used by RecordAttemptBatch.
var attemptColumns = []string{
	"id", "request_id", "correlation_id", "preset", "model", "status",
	"error_kind", "error_context", "status_code", "latency_ms", "cost_usd",
	"input_tokens", "output_tokens", "cache_write_tokens", "cache_read_tokens", "created_at",
}

// RecordAttemptBatch flushes several attempts in one COPY round trip.
func (s *PostgresSink) RecordAttemptBatch(ctx context.Context, entries []AttemptEntry) error {
	rows := make([][]any, 0, len(entries))
	now := time.Now().UTC()
	for _, e := range entries {
		rows = append(rows, []any{
			uuid.New().String(), e.Info.RequestID, e.Info.CorrelationID, e.Result.Preset, e.Result.Model, e.Result.Status,
			e.Result.ErrorKind, e.Result.ErrorContext, e.Result.StatusCode, e.Result.LatencyMS, e.Result.CostUSD,
			e.Result.Usage.InputTokens, e.Result.Usage.OutputTokens, e.Result.Usage.CacheWriteTokens, e.Result.Usage.CacheReadTokens, now,
		})
	}
	_, err := db.CopyFrom(ctx, s.pool, "attempts", attemptColumns, rows)
	return eris.Wrap(err, "postgres: batch insert attempts")
}

func (s *PostgresSink) RecordOutcome(ctx context.Context, info model.RequestInfo, doc *model.SummaryDocument, failure string) error {
	var docJSON any
	if doc != nil {
		b, err := json.Marshal(doc)
		if err != nil {
			return eris.Wrap(err, "postgres: marshal document")
		}
		docJSON = b
	}

	now := time.Now().UTC()
	_, err := s.pool.Exec(ctx, preparedStatements["upsert_outcome"],
		info.RequestID, info.CorrelationID, info.Language, docJSON, nullable(failure), now, now,
	)
	return eris.Wrapf(err, "postgres: upsert outcome for request %s", info.RequestID)
}

func (s *PostgresSink) ListAttempts(ctx context.Context, requestID string) ([]AttemptRecord, error) {
	rows, err := s.pool.Query(ctx, preparedStatements["list_attempts"], requestID)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list attempts for request %s", requestID)
	}
	defer rows.Close()

	var out []AttemptRecord
	for rows.Next() {
		var rec AttemptRecord
		var correlationID, errorKind, errorContext *string
		if err := rows.Scan(
			&rec.ID, &rec.RequestID, &correlationID, &rec.Preset, &rec.Model, &rec.Status,
			&errorKind, &errorContext, &rec.StatusCode, &rec.LatencyMS, &rec.CostUSD,
			&rec.InputTokens, &rec.OutputTokens, &rec.CacheWriteTokens, &rec.CacheReadTokens, &rec.CreatedAt,
		); err != nil {
			return nil, eris.Wrap(err, "postgres: scan attempt")
		}
		if correlationID != nil {
			rec.CorrelationID = *correlationID
		}
		if errorKind != nil {
			rec.ErrorKind = *errorKind
		}
		if errorContext != nil {
			rec.ErrorContext = *errorContext
		}
		out = append(out, rec)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate attempts")
}
