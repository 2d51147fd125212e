// Package summarize is the top-level entry point of the pipeline: it decides
// whether content needs chunking, runs the attempt cascade per piece, and
// merges the per-chunk documents into the final summary.
package summarize

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/summary-pipeline/internal/chunk"
	"github.com/sells-group/summary-pipeline/internal/model"
	"github.com/sells-group/summary-pipeline/internal/store"
)

// Runner produces one summary document for one piece of content. The
// cascade satisfies this.
type Runner interface {
	Run(ctx context.Context, info model.RequestInfo, content string) (*model.SummaryDocument, []string, error)
}

// Config controls chunking behavior.
type Config struct {
	// BaseChunkChars is the character budget per chunk before the model's
	// context window raises it.
	BaseChunkChars int `mapstructure:"base_chunk_chars"`
	// ChunkingEnabled gates chunking entirely; oversized content goes out
	// in one call when disabled.
	ChunkingEnabled bool `mapstructure:"chunking_enabled"`
	// Model is the primary model ID, used for the adaptive threshold lookup.
	Model string `mapstructure:"-"`
}

// Result is the outcome of one summarization request.
type Result struct {
	Document    *model.SummaryDocument `json:"document"`
	Diagnostics []string               `json:"diagnostics,omitempty"`
	Chunks      int                    `json:"chunks"`
	Language    string                 `json:"language,omitempty"`
}

// Summarizer glues the splitter, the cascade, and the aggregator together.
// In the chunked path the per-chunk cascade runs each upsert their own
// partial outcome, so the summarizer records the merged document as the
// request's final outcome after aggregation.
type Summarizer struct {
	runner   Runner
	splitter *chunk.Splitter
	sink     store.Sink
	cfg      Config
}

// New creates a summarizer. splitter may be nil, in which case a default
// one is built; sink may be nil to disable outcome persistence.
func New(runner Runner, splitter *chunk.Splitter, sink store.Sink, cfg Config) *Summarizer {
	if splitter == nil {
		splitter = chunk.NewSplitter()
	}
	if sink == nil {
		sink = store.NoopSink{}
	}
	if cfg.BaseChunkChars <= 0 {
		cfg.BaseChunkChars = 48_000
	}
	return &Summarizer{runner: runner, splitter: splitter, sink: sink, cfg: cfg}
}

// Summarize turns content into a schema-valid summary document. Oversized
// content is split into sentence-respecting chunks, summarized sequentially,
// and merged; chunk order is preserved so merging stays deterministic.
func (s *Summarizer) Summarize(ctx context.Context, info model.RequestInfo, content string) (*Result, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, eris.New("summarize: empty content")
	}

	if info.Language == "" {
		info.Language = s.splitter.DetectLanguage(content)
	}
	log := zap.L().With(
		zap.String("request_id", info.RequestID),
		zap.String("language", info.Language),
	)

	threshold := chunk.AdaptiveThreshold(s.cfg.BaseChunkChars, s.cfg.Model)
	if !chunk.ShouldSplit(content, threshold, s.cfg.ChunkingEnabled) {
		doc, diagnostics, err := s.runner.Run(ctx, info, content)
		if err != nil {
			return nil, err
		}
		backfillReadingTime(doc, content)
		return &Result{Document: doc, Diagnostics: diagnostics, Chunks: 1, Language: info.Language}, nil
	}

	chunks := s.splitter.Split(content, threshold)
	log.Info("content split into chunks",
		zap.Int("chunks", len(chunks)),
		zap.Int("threshold_chars", threshold),
		zap.Int("content_chars", utf8.RuneCountInString(content)),
	)

	var docs []model.SummaryDocument
	var diagnostics []string
	var lastErr error
	for i, piece := range chunks {
		if ctx.Err() != nil {
			return nil, eris.Wrap(ctx.Err(), "summarize: canceled")
		}
		doc, chunkDiags, err := s.runner.Run(ctx, info, piece)
		diagnostics = append(diagnostics, chunkDiags...)
		if err != nil {
			lastErr = err
			log.Warn("chunk summarization failed", zap.Int("chunk", i), zap.Error(err))
			continue
		}
		docs = append(docs, *doc)
	}

	if len(docs) == 0 {
		err := eris.Wrap(lastErr, "summarize: every chunk failed")
		if recErr := s.sink.RecordOutcome(ctx, info, nil, err.Error()); recErr != nil {
			log.Warn("failed to record outcome", zap.Error(recErr))
		}
		return nil, err
	}

	merged := chunk.Aggregate(docs)
	backfillReadingTime(&merged, content)
	if err := s.sink.RecordOutcome(ctx, info, &merged, ""); err != nil {
		log.Warn("failed to record outcome", zap.Error(err))
	}
	return &Result{Document: &merged, Diagnostics: diagnostics, Chunks: len(chunks), Language: info.Language}, nil
}

// backfillReadingTime estimates reading time from the source length when the
// model did not supply one. 200 words per minute, rounded up.
func backfillReadingTime(doc *model.SummaryDocument, content string) {
	if doc == nil || doc.EstimatedReadingTimeMin > 0 {
		return
	}
	words := len(strings.Fields(content))
	if words == 0 {
		return
	}
	doc.EstimatedReadingTimeMin = (words + 199) / 200
}
