package generate

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/summary-pipeline/internal/model"
	"github.com/sells-group/summary-pipeline/internal/resilience"
	"github.com/sells-group/summary-pipeline/pkg/anthropic"
)

type fakeClient struct {
	calls     int
	responses []func() (*anthropic.MessageResponse, error)
	lastReq   anthropic.MessageRequest
}

func (f *fakeClient) CreateMessage(_ context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	f.lastReq = req
	idx := f.calls
	f.calls++
	if idx >= len(f.responses) {
		idx = len(f.responses) - 1
	}
	return f.responses[idx]()
}

func newBackend(client anthropic.Client) *AnthropicBackend {
	b := NewAnthropicBackend(client, 2)
	b.retry.InitialBackoff = time.Millisecond
	b.retry.MaxBackoff = time.Millisecond
	return b
}

func toolResponse(input string) *anthropic.MessageResponse {
	return &anthropic.MessageResponse{
		Content: []anthropic.ContentBlock{
			{Type: "tool_use", Name: "emit_summary", Input: json.RawMessage(input)},
		},
		StopReason: "tool_use",
	}
}

func TestInvokeSchemaConstrained(t *testing.T) {
	client := &fakeClient{responses: []func() (*anthropic.MessageResponse, error){
		func() (*anthropic.MessageResponse, error) {
			return toolResponse(`{"summary_250":"A short summary."}`), nil
		},
	}}
	b := newBackend(client)

	res := b.Invoke(context.Background(), model.AttemptSpec{
		Preset:    "schema_strict",
		Model:     "claude-haiku-4-5-20251001",
		MaxTokens: 2048,
		Format:    model.FormatSchemaConstrained,
		Messages:  []model.Message{{Role: "user", Content: "summarize"}},
	})

	require.True(t, res.OK())
	assert.Equal(t, "A short summary.", res.Structured["summary_250"])
	require.NotNil(t, client.lastReq.Tool)
	assert.Equal(t, "emit_summary", client.lastReq.Tool.Name)
}

func TestInvokeMissingToolUse(t *testing.T) {
	client := &fakeClient{responses: []func() (*anthropic.MessageResponse, error){
		func() (*anthropic.MessageResponse, error) {
			return &anthropic.MessageResponse{
				Content: []anthropic.ContentBlock{{Type: "text", Text: `{"summary_250":"in text instead"}`}},
			}, nil
		},
	}}
	b := newBackend(client)

	res := b.Invoke(context.Background(), model.AttemptSpec{
		Preset: "schema_strict",
		Model:  "claude-haiku-4-5-20251001",
		Format: model.FormatSchemaConstrained,
	})

	assert.False(t, res.OK())
	assert.Equal(t, model.ErrKindStructuredOutputParse, res.ErrorKind)
	// Text is preserved so the cascade can attempt a local salvage.
	assert.Contains(t, res.Text, "in text instead")
}

func TestInvokeMalformedToolInput(t *testing.T) {
	client := &fakeClient{responses: []func() (*anthropic.MessageResponse, error){
		func() (*anthropic.MessageResponse, error) {
			return toolResponse(`{"summary_250":"truncated`), nil
		},
	}}
	b := newBackend(client)

	res := b.Invoke(context.Background(), model.AttemptSpec{
		Preset: "schema_strict",
		Model:  "claude-haiku-4-5-20251001",
		Format: model.FormatSchemaConstrained,
	})

	assert.Equal(t, model.ErrKindStructuredOutputParse, res.ErrorKind)
	assert.Contains(t, res.Text, "truncated")
}

func TestInvokeLooseFormatSkipsTool(t *testing.T) {
	client := &fakeClient{responses: []func() (*anthropic.MessageResponse, error){
		func() (*anthropic.MessageResponse, error) {
			return &anthropic.MessageResponse{
				Content: []anthropic.ContentBlock{{Type: "text", Text: `{"summary_250":"loose"}`}},
			}, nil
		},
	}}
	b := newBackend(client)

	res := b.Invoke(context.Background(), model.AttemptSpec{
		Preset: "json_object_fallback",
		Model:  "claude-haiku-4-5-20251001",
		Format: model.FormatLooseJSON,
	})

	require.True(t, res.OK())
	assert.Nil(t, client.lastReq.Tool)
	assert.Nil(t, res.Structured)
	assert.Contains(t, res.Text, "loose")
}

func TestInvokeRetriesTransient(t *testing.T) {
	client := &fakeClient{responses: []func() (*anthropic.MessageResponse, error){
		func() (*anthropic.MessageResponse, error) {
			return nil, resilience.NewTransientError(eris.New("overloaded"), 529)
		},
		func() (*anthropic.MessageResponse, error) {
			return toolResponse(`{"summary_250":"recovered"}`), nil
		},
	}}
	b := newBackend(client)

	res := b.Invoke(context.Background(), model.AttemptSpec{
		Preset: "schema_strict",
		Model:  "claude-haiku-4-5-20251001",
		Format: model.FormatSchemaConstrained,
	})

	require.True(t, res.OK())
	assert.Equal(t, 2, client.calls)
}

func TestInvokeDoesNotRetryClientError(t *testing.T) {
	client := &fakeClient{responses: []func() (*anthropic.MessageResponse, error){
		func() (*anthropic.MessageResponse, error) {
			return nil, eris.New("invalid_request_error: max_tokens too large")
		},
	}}
	b := newBackend(client)

	res := b.Invoke(context.Background(), model.AttemptSpec{
		Preset: "schema_strict",
		Model:  "claude-haiku-4-5-20251001",
		Format: model.FormatSchemaConstrained,
	})

	assert.False(t, res.OK())
	assert.Equal(t, model.ErrKindTransport, res.ErrorKind)
	assert.Equal(t, 1, client.calls)
}

func TestInvokeCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := &fakeClient{responses: []func() (*anthropic.MessageResponse, error){
		func() (*anthropic.MessageResponse, error) {
			return nil, context.Canceled
		},
	}}
	b := newBackend(client)

	res := b.Invoke(ctx, model.AttemptSpec{Preset: "schema_strict", Model: "m"})
	assert.Equal(t, model.ErrKindCanceled, res.ErrorKind)
}
