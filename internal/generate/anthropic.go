package generate

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/sells-group/summary-pipeline/internal/model"
	"github.com/sells-group/summary-pipeline/internal/resilience"
	"github.com/sells-group/summary-pipeline/pkg/anthropic"
)

// AnthropicBackend executes attempts against the Anthropic Messages API.
// Transport-level resilience (retry, circuit breaker, admission gate) lives
// here; the cascade above never retries a call in place.
type AnthropicBackend struct {
	client   anthropic.Client
	sem      *semaphore.Weighted
	breakers *resilience.Breakers
	retry    resilience.RetryConfig

	nowFunc func() time.Time // injectable for tests
}

// NewAnthropicBackend creates a backend with at most maxConcurrent in-flight
// API calls.
func NewAnthropicBackend(client anthropic.Client, maxConcurrent int64) *AnthropicBackend {
	if maxConcurrent <= 0 {
		maxConcurrent = 4
	}
	retry := resilience.DefaultRetryConfig()
	retry.OnRetry = resilience.RetryLogger("anthropic", "create_message")
	return &AnthropicBackend{
		client:   client,
		sem:      semaphore.NewWeighted(maxConcurrent),
		breakers: resilience.NewBreakers(resilience.DefaultCircuitConfig()),
		retry:    retry,
		nowFunc:  time.Now,
	}
}

// Invoke runs one generation attempt and folds any failure into the result.
func (b *AnthropicBackend) Invoke(ctx context.Context, spec model.AttemptSpec) model.GenerationResult {
	res := model.GenerationResult{
		Status: model.StatusError,
		Preset: spec.Preset,
		Model:  spec.Model,
	}

	if err := b.sem.Acquire(ctx, 1); err != nil {
		res.ErrorKind = model.ErrKindCanceled
		res.ErrorContext = err.Error()
		return res
	}
	defer b.sem.Release(1)

	start := b.nowFunc()
	resp, err := resilience.Execute(ctx, b.breakers.Get(spec.Model), func(ctx context.Context) (*anthropic.MessageResponse, error) {
		return resilience.Retry(ctx, b.retry, func(ctx context.Context) (*anthropic.MessageResponse, error) {
			return b.createMessage(ctx, spec)
		})
	})
	res.LatencyMS = b.nowFunc().Sub(start).Milliseconds()

	if err != nil {
		res.ErrorKind = classifyError(ctx, err)
		res.ErrorContext = err.Error()
		res.StatusCode = resilience.StatusCodeOf(err)
		if res.StatusCode == 0 {
			res.StatusCode = anthropic.StatusCode(err)
		}
		zap.L().Warn("generation attempt failed",
			zap.String("preset", spec.Preset),
			zap.String("model", spec.Model),
			zap.String("error_kind", res.ErrorKind),
			zap.Int("status_code", res.StatusCode),
			zap.Error(err),
		)
		return res
	}

	res.Usage = model.TokenUsage{
		InputTokens:      resp.Usage.InputTokens,
		OutputTokens:     resp.Usage.OutputTokens,
		CacheWriteTokens: resp.Usage.CacheCreationInputTokens,
		CacheReadTokens:  resp.Usage.CacheReadInputTokens,
	}
	res.CostUSD = resp.Usage.EstimateCost(spec.Model)
	resp.Usage.LogCost(spec.Model, spec.Preset)
	res.Text = resp.Text()

	if spec.Format == model.FormatSchemaConstrained {
		input := resp.ToolInput()
		if input == nil {
			res.ErrorKind = model.ErrKindStructuredOutputParse
			res.ErrorContext = "no tool_use block in response"
			return res
		}
		var structured map[string]any
		if jsonErr := json.Unmarshal(input, &structured); jsonErr != nil {
			res.ErrorKind = model.ErrKindStructuredOutputParse
			res.ErrorContext = jsonErr.Error()
			res.Text = string(input)
			return res
		}
		res.Structured = structured
	}

	res.Status = model.StatusOK
	return res
}

func (b *AnthropicBackend) createMessage(ctx context.Context, spec model.AttemptSpec) (*anthropic.MessageResponse, error) {
	req := anthropic.MessageRequest{
		Model:       spec.Model,
		MaxTokens:   spec.MaxTokens,
		System:      anthropic.BuildCachedSystemBlocks(spec.System),
		Temperature: spec.Temperature,
		TopP:        spec.TopP,
	}
	for _, m := range spec.Messages {
		req.Messages = append(req.Messages, anthropic.Message{Role: m.Role, Content: m.Content})
	}
	if spec.Format == model.FormatSchemaConstrained {
		req.Tool = SummaryToolSpec()
	}

	resp, err := b.client.CreateMessage(ctx, req)
	if err != nil {
		if code := anthropic.StatusCode(err); resilience.IsTransientHTTPStatus(code) {
			return nil, resilience.NewTransientError(err, code)
		}
		return nil, err
	}
	return resp, nil
}

func classifyError(ctx context.Context, err error) string {
	if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return model.ErrKindCanceled
	}
	return model.ErrKindTransport
}
