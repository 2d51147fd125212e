package model

// OutputFormat selects how the backend is asked to produce JSON.
type OutputFormat string

const (
	// FormatSchemaConstrained requests provider-native structured output:
	// the response carries a pre-parsed object when the provider honors it.
	FormatSchemaConstrained OutputFormat = "schema-constrained"
	// FormatLooseJSON requests a plain text completion that should contain
	// a JSON object, with no provider-side enforcement.
	FormatLooseJSON OutputFormat = "loose-json-object"
)

// Message is a single conversational message sent to the backend.
type Message struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// AttemptSpec is one configured generation request. Specs are immutable once
// built; the cascade consumes an ordered sequence of them.
type AttemptSpec struct {
	Preset      string       `json:"preset"`
	Messages    []Message    `json:"-"`
	System      string       `json:"-"`
	Format      OutputFormat `json:"format"`
	Model       string       `json:"model"`
	MaxTokens   int64        `json:"max_tokens"`
	Temperature *float64     `json:"temperature,omitempty"`
	TopP        *float64     `json:"top_p,omitempty"`
}

// Generation result statuses.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Error kinds surfaced by the generation backend.
const (
	// ErrKindStructuredOutputParse signals the provider accepted the call
	// but could not honor the strict output format. The cascade attempts
	// local salvage on this kind before failing the attempt.
	ErrKindStructuredOutputParse = "structured_output_parse_error"
	// ErrKindTransport covers unreachable/rate-limited/5xx failures.
	ErrKindTransport = "transport_error"
	// ErrKindCanceled marks calls abandoned due to context cancellation.
	ErrKindCanceled = "canceled"
)

// TokenUsage tracks token consumption for one backend call.
type TokenUsage struct {
	InputTokens      int64 `json:"input_tokens"`
	OutputTokens     int64 `json:"output_tokens"`
	CacheWriteTokens int64 `json:"cache_write_tokens,omitempty"`
	CacheReadTokens  int64 `json:"cache_read_tokens,omitempty"`
}

// Add accumulates usage from another call.
func (u *TokenUsage) Add(other TokenUsage) {
	u.InputTokens += other.InputTokens
	u.OutputTokens += other.OutputTokens
	u.CacheWriteTokens += other.CacheWriteTokens
	u.CacheReadTokens += other.CacheReadTokens
}

// GenerationResult is the outcome of one backend call. Owned transiently by
// the cascade for the duration of an attempt; persisted by a collaborator.
type GenerationResult struct {
	Status     string `json:"status"` // StatusOK or StatusError
	Preset     string `json:"preset"`
	Model      string `json:"model"`
	Text       string `json:"text,omitempty"`
	// Structured carries a provider-native pre-parsed object when the
	// attempt used schema-constrained output and the provider honored it.
	Structured   map[string]any `json:"structured,omitempty"`
	ErrorKind    string         `json:"error_kind,omitempty"`
	ErrorContext string         `json:"error_context,omitempty"`
	StatusCode   int            `json:"status_code,omitempty"`
	Usage        TokenUsage     `json:"usage"`
	CostUSD      float64        `json:"cost_usd"`
	LatencyMS    int64          `json:"latency_ms"`
}

// OK reports whether the call succeeded.
func (r *GenerationResult) OK() bool {
	return r != nil && r.Status == StatusOK
}

// ParseOutcome is the result of running the response parser chain over one
// generation result.
//
// Invariant: Shaped != nil implies Raw != nil and the document passed
// shaping, so all required fields are present and within caps.
type ParseOutcome struct {
	// Raw is the object actually extracted from the response, if any.
	Raw map[string]any
	// Shaped is the canonical document, if shaping succeeded.
	Shaped *SummaryDocument
	// UsedLocalFix is true when any strategy other than the provider's
	// native structured field produced the accepted object.
	UsedLocalFix bool
	// Errors lists per-strategy failure reasons in the order tried.
	Errors []string
}

// Accepted reports whether the parser chain produced a canonical document.
func (o ParseOutcome) Accepted() bool {
	return o.Shaped != nil
}
