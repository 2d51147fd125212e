package summarize

import (
	"context"
	"strings"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/summary-pipeline/internal/chunk"
	"github.com/sells-group/summary-pipeline/internal/model"
	"github.com/sells-group/summary-pipeline/internal/store"
)

type outcomeSink struct {
	store.NoopSink
	docs     []*model.SummaryDocument
	failures []string
}

func (s *outcomeSink) RecordOutcome(_ context.Context, _ model.RequestInfo, doc *model.SummaryDocument, failure string) error {
	s.docs = append(s.docs, doc)
	s.failures = append(s.failures, failure)
	return nil
}

type fakeRunner struct {
	calls    []string
	results  []*model.SummaryDocument
	failures map[int]error
}

func (f *fakeRunner) Run(_ context.Context, _ model.RequestInfo, content string) (*model.SummaryDocument, []string, error) {
	idx := len(f.calls)
	f.calls = append(f.calls, content)
	if err, ok := f.failures[idx]; ok {
		return nil, []string{"chunk failed"}, err
	}
	if idx < len(f.results) {
		return f.results[idx], nil, nil
	}
	return &model.SummaryDocument{Summary250: "Chunk summary.", TLDR: "Chunk TLDR."}, nil, nil
}

func TestSummarizeSmallContentSingleCall(t *testing.T) {
	runner := &fakeRunner{results: []*model.SummaryDocument{
		{Summary250: "Short summary.", Summary1000: "Longer.", TLDR: "TLDR.", EstimatedReadingTimeMin: 3},
	}}
	s := New(runner, chunk.NewSplitter(), nil, Config{BaseChunkChars: 1000, ChunkingEnabled: true})

	res, err := s.Summarize(context.Background(), model.RequestInfo{RequestID: "req-1"}, "Small piece of content.")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Chunks)
	assert.Equal(t, "Short summary.", res.Document.Summary250)
	assert.Equal(t, 3, res.Document.EstimatedReadingTimeMin)
	assert.Len(t, runner.calls, 1)
}

func TestSummarizeEmptyContent(t *testing.T) {
	s := New(&fakeRunner{}, chunk.NewSplitter(), nil, Config{})
	_, err := s.Summarize(context.Background(), model.RequestInfo{RequestID: "req-1"}, "   ")
	require.Error(t, err)
}

func TestSummarizeChunksOversizedContent(t *testing.T) {
	runner := &fakeRunner{results: []*model.SummaryDocument{
		{Summary250: "First chunk summary, the longest one.", TLDR: "First TLDR.", TopicTags: []string{"#go"}},
		{Summary250: "Second.", TLDR: "Second TLDR.", TopicTags: []string{"#GO", "#json"}},
	}}
	s := New(runner, chunk.NewSplitter(), nil, Config{BaseChunkChars: 200, ChunkingEnabled: true})

	content := strings.Repeat("This is a plain declarative sentence about the subject matter. ", 12)
	res, err := s.Summarize(context.Background(), model.RequestInfo{RequestID: "req-1"}, content)
	require.NoError(t, err)
	assert.Greater(t, res.Chunks, 1)
	assert.Len(t, runner.calls, res.Chunks)

	// Longest summary_250 wins; tags merge case-insensitively.
	assert.Equal(t, "First chunk summary, the longest one.", res.Document.Summary250)
	assert.Equal(t, []string{"#go", "#json"}, res.Document.TopicTags)
}

func TestSummarizeRecordsMergedOutcome(t *testing.T) {
	runner := &fakeRunner{results: []*model.SummaryDocument{
		{Summary250: "First chunk summary, the longest one.", TLDR: "First TLDR."},
		{Summary250: "Second.", TLDR: "Second TLDR."},
	}}
	sink := &outcomeSink{}
	s := New(runner, chunk.NewSplitter(), sink, Config{BaseChunkChars: 200, ChunkingEnabled: true})

	content := strings.Repeat("This is a plain declarative sentence about the subject matter. ", 12)
	res, err := s.Summarize(context.Background(), model.RequestInfo{RequestID: "req-1"}, content)
	require.NoError(t, err)

	// The persisted outcome is the merged document, not the last chunk's.
	require.Len(t, sink.docs, 1)
	assert.Equal(t, res.Document, sink.docs[0])
	assert.Equal(t, "First chunk summary, the longest one.", sink.docs[0].Summary250)
	assert.Empty(t, sink.failures[0])
}

func TestSummarizeRecordsConsolidatedFailure(t *testing.T) {
	runner := &fakeRunner{failures: map[int]error{0: eris.New("exhausted"), 1: eris.New("exhausted"), 2: eris.New("exhausted"), 3: eris.New("exhausted")}}
	sink := &outcomeSink{}
	s := New(runner, chunk.NewSplitter(), sink, Config{BaseChunkChars: 200, ChunkingEnabled: true})

	content := strings.Repeat("Yet another ordinary sentence for the splitter to pack. ", 12)
	_, err := s.Summarize(context.Background(), model.RequestInfo{RequestID: "req-1"}, content)
	require.Error(t, err)

	require.Len(t, sink.docs, 1)
	assert.Nil(t, sink.docs[0])
	assert.Contains(t, sink.failures[0], "every chunk failed")
}

func TestSummarizeChunkingDisabled(t *testing.T) {
	runner := &fakeRunner{}
	s := New(runner, chunk.NewSplitter(), nil, Config{BaseChunkChars: 50, ChunkingEnabled: false})

	content := strings.Repeat("A sentence here. ", 50)
	res, err := s.Summarize(context.Background(), model.RequestInfo{RequestID: "req-1"}, content)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Chunks)
	assert.Len(t, runner.calls, 1)
}

func TestSummarizeSurvivesPartialChunkFailure(t *testing.T) {
	runner := &fakeRunner{failures: map[int]error{0: eris.New("exhausted")}}
	s := New(runner, chunk.NewSplitter(), nil, Config{BaseChunkChars: 200, ChunkingEnabled: true})

	content := strings.Repeat("Yet another ordinary sentence for the splitter to pack. ", 12)
	res, err := s.Summarize(context.Background(), model.RequestInfo{RequestID: "req-1"}, content)
	require.NoError(t, err)
	require.NotNil(t, res.Document)
	assert.Contains(t, res.Diagnostics, "chunk failed")
}

func TestSummarizeAllChunksFailed(t *testing.T) {
	runner := &fakeRunner{failures: map[int]error{0: eris.New("exhausted"), 1: eris.New("exhausted"), 2: eris.New("exhausted"), 3: eris.New("exhausted")}}
	s := New(runner, chunk.NewSplitter(), nil, Config{BaseChunkChars: 200, ChunkingEnabled: true})

	content := strings.Repeat("Yet another ordinary sentence for the splitter to pack. ", 12)
	_, err := s.Summarize(context.Background(), model.RequestInfo{RequestID: "req-1"}, content)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "every chunk failed")
}

func TestBackfillReadingTime(t *testing.T) {
	doc := &model.SummaryDocument{}
	backfillReadingTime(doc, strings.Repeat("word ", 450))
	assert.Equal(t, 3, doc.EstimatedReadingTimeMin)

	set := &model.SummaryDocument{EstimatedReadingTimeMin: 7}
	backfillReadingTime(set, "short")
	assert.Equal(t, 7, set.EstimatedReadingTimeMin)
}
