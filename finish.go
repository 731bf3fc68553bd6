package ccprovider

// FinishReason is the unified reason a generation stopped.
// The enumeration is closed; unrecognized upstream subtypes map to FinishOther
// with the original string preserved in FinishSummary.RawReason.
type FinishReason string

const (
	// FinishStop means the model completed its turn normally.
	FinishStop FinishReason = "stop"

	// FinishLength means output was cut short (turn limit or truncation).
	FinishLength FinishReason = "length"

	// FinishToolCalls means the turn ended on pending tool invocations.
	FinishToolCalls FinishReason = "tool-calls"

	// FinishError means the upstream reported a failure.
	FinishError FinishReason = "error"

	// FinishOther covers upstream subtypes with no unified equivalent.
	FinishOther FinishReason = "other"
)

// TokenUsage is the token accounting for one request.
// InputTokens is the total across cached and uncached input.
type TokenUsage struct {
	// InputTokens is uncached + cache-read + cache-write input tokens.
	InputTokens int

	// UncachedInputTokens is input processed without any cache involvement.
	UncachedInputTokens int

	// CacheReadInputTokens is input served from the prompt cache.
	CacheReadInputTokens int

	// CacheWriteInputTokens is input written into the prompt cache.
	CacheWriteInputTokens int

	// OutputTokens is the number of generated tokens.
	OutputTokens int
}

// FinishSummary is the completion metadata attached to the finish part and to
// aggregated non-streaming responses.
type FinishSummary struct {
	// Reason is the unified finish reason.
	Reason FinishReason

	// RawReason is the upstream completion subtype verbatim
	// (e.g. "success", "error_max_turns", "truncation").
	RawReason string

	// Usage is the token accounting reported by the upstream.
	Usage TokenUsage

	// SessionID identifies the upstream session, usable for resumption.
	SessionID string

	// CostUSD is the upstream-reported (or estimated) request cost.
	CostUSD float64

	// DurationMs is the wall-clock duration reported by the upstream.
	DurationMs int64

	// Truncated is true when the stream was recovered from an upstream
	// transport cut rather than completing normally.
	Truncated bool
}

// Upstream result subtypes with a defined unified mapping.
const (
	RawReasonSuccess        = "success"
	RawReasonMaxTurns       = "error_max_turns"
	RawReasonExecutionError = "error_during_execution"
	RawReasonTruncation     = "truncation"
)

// MapFinishReason maps an upstream completion subtype to the unified reason.
// toolsOnly reports whether the turn produced tool invocations but no text,
// which refines a plain success into FinishToolCalls.
func MapFinishReason(rawReason string, toolsOnly bool) FinishReason {
	switch rawReason {
	case RawReasonSuccess:
		if toolsOnly {
			return FinishToolCalls
		}
		return FinishStop
	case RawReasonMaxTurns, RawReasonTruncation:
		return FinishLength
	case RawReasonExecutionError:
		return FinishError
	default:
		return FinishOther
	}
}
