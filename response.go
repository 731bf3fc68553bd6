package ccprovider

import "encoding/json"

// GenerateResponse contains the aggregated result of one request.
// It is equivalent to replaying the streaming protocol to completion and
// collecting the accumulated output.
type GenerateResponse struct {
	// Blocks is the ordered list of content blocks produced by the agent:
	// text, tool_use, and tool_result blocks.
	Blocks []*Block

	// Text is the concatenated text content, de-duplicated across the
	// upstream delta and snapshot channels.
	Text string

	// StructuredOutput is the schema-constrained payload, when one was
	// requested and the upstream honored it. Nil otherwise.
	StructuredOutput json.RawMessage

	// Model is the model that was used (may differ from request if aliased)
	Model string

	// Finish carries the unified finish reason, usage, cost, and duration.
	Finish FinishSummary

	// Warnings lists non-fatal anomalies observed during the request.
	Warnings []string
}
