package ccprovider

// StreamPartType identifies the kind of a downstream stream part.
// The set is closed: consumers may exhaustively switch over it.
type StreamPartType string

const (
	// PartStreamStart is always the first part of a stream.
	PartStreamStart StreamPartType = "stream-start"

	// PartResponseMetadata carries the upstream session id and model once known.
	PartResponseMetadata StreamPartType = "response-metadata"

	// PartTextStart opens a text segment. Every text-delta carries the id of
	// the segment it belongs to; a segment is closed by exactly one text-end.
	PartTextStart StreamPartType = "text-start"

	// PartTextDelta carries an incremental text fragment.
	PartTextDelta StreamPartType = "text-delta"

	// PartTextEnd closes the text segment with the matching id.
	PartTextEnd StreamPartType = "text-end"

	// PartToolInputStart opens the input phase of a tool invocation.
	PartToolInputStart StreamPartType = "tool-input-start"

	// PartToolInputDelta carries an incremental fragment of serialized tool input.
	PartToolInputDelta StreamPartType = "tool-input-delta"

	// PartToolInputEnd closes the input phase for a tool invocation.
	PartToolInputEnd StreamPartType = "tool-input-end"

	// PartToolCall signals that the tool invocation is fully specified.
	// Emitted exactly once per tool id, after tool-input-end.
	PartToolCall StreamPartType = "tool-call"

	// PartToolResult carries the payload produced by an executed tool.
	PartToolResult StreamPartType = "tool-result"

	// PartToolError carries the payload of a failed tool execution.
	PartToolError StreamPartType = "tool-error"

	// PartFinish is the successful terminal part. At most one per stream,
	// always last, mutually exclusive with PartError.
	PartFinish StreamPartType = "finish"

	// PartError is the failure terminal part. At most one per stream,
	// always last, mutually exclusive with PartFinish.
	PartError StreamPartType = "error"
)

// StreamPart is a single event in the unified generation protocol.
// Which fields are populated depends on Type:
//
//	text-start/text-delta/text-end:  ID (segment id), Delta (text-delta only)
//	tool-input-*:                    ID (tool id), ToolName (start only), Delta
//	tool-call:                       ID, ToolName, ToolInput (complete serialized input)
//	tool-result/tool-error:          ID, ToolName, Payload
//	response-metadata:               SessionID, Model
//	finish:                          Finish, Warnings
//	error:                           Err
type StreamPart struct {
	// Type discriminates the part kind.
	Type StreamPartType

	// ID is the text segment id or tool invocation id this part belongs to.
	ID string

	// Delta is an incremental text or serialized-input fragment.
	Delta string

	// ToolName is the tool being invoked (tool-input-start, tool-call,
	// tool-result, tool-error).
	ToolName string

	// ToolInput is the complete serialized tool input (tool-call only).
	ToolInput string

	// Payload is the tool result content. Strings pass through unchanged;
	// string payloads containing JSON are parsed best-effort.
	Payload interface{}

	// SessionID is the upstream session identifier (response-metadata).
	SessionID string

	// Model is the model reported by the upstream (response-metadata).
	Model string

	// Finish contains completion data (finish only).
	Finish *FinishSummary

	// Warnings lists non-fatal anomalies observed during the request,
	// e.g. truncation recovery or a schema the upstream did not honor.
	Warnings []string

	// Err contains the terminal error (error only). Caller cancellation is
	// re-raised verbatim and never wrapped.
	Err error
}

// IsTerminal returns true if this part ends the stream.
func (p StreamPart) IsTerminal() bool {
	return p.Type == PartFinish || p.Type == PartError
}
