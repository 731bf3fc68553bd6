package claudecode

import (
	"encoding/json"
	"log/slog"

	"github.com/anthropics/anthropic-sdk-go"
)

// MessageType discriminates between upstream message kinds.
type MessageType string

const (
	MessageTypeSystem      MessageType = "system"
	MessageTypeAssistant   MessageType = "assistant"
	MessageTypeUser        MessageType = "user"
	MessageTypeResult      MessageType = "result"
	MessageTypeStreamEvent MessageType = "stream_event"
)

// Message is the interface for all upstream protocol messages.
type Message interface {
	MsgType() MessageType
}

// SystemMessage represents session initialization and system events.
type SystemMessage struct {
	Type           MessageType `json:"type"`
	Subtype        string      `json:"subtype"`
	SessionID      string      `json:"session_id"`
	Model          string      `json:"model,omitempty"`
	CWD            string      `json:"cwd,omitempty"`
	PermissionMode string      `json:"permissionMode,omitempty"`
	Tools          []string    `json:"tools,omitempty"`
}

// MsgType returns the message type.
func (m SystemMessage) MsgType() MessageType { return MessageTypeSystem }

// StreamEventMessage wraps an incremental streaming update. The inner event
// is a native Anthropic Messages streaming event (content_block_start,
// content_block_delta, ...), decoded on demand.
type StreamEventMessage struct {
	Type      MessageType     `json:"type"`
	SessionID string          `json:"session_id"`
	Event     json.RawMessage `json:"event"`
}

// MsgType returns the message type.
func (m StreamEventMessage) MsgType() MessageType { return MessageTypeStreamEvent }

// ParsedEvent decodes the inner Anthropic streaming event.
func (m StreamEventMessage) ParsedEvent() (anthropic.MessageStreamEventUnion, error) {
	var event anthropic.MessageStreamEventUnion
	if err := json.Unmarshal(m.Event, &event); err != nil {
		return anthropic.MessageStreamEventUnion{}, err
	}
	return event, nil
}

// AssistantMessage carries a cumulative snapshot of the assistant's content
// blocks produced so far in the current turn.
type AssistantMessage struct {
	Type      MessageType      `json:"type"`
	SessionID string           `json:"session_id"`
	Message   AssistantPayload `json:"message"`
}

// AssistantPayload is the inner message body of an assistant snapshot.
// Content blocks are native Anthropic content blocks.
type AssistantPayload struct {
	ID         string                        `json:"id"`
	Model      string                        `json:"model"`
	Content    []anthropic.ContentBlockUnion `json:"content"`
	StopReason string                        `json:"stop_reason,omitempty"`
}

// MsgType returns the message type.
func (m AssistantMessage) MsgType() MessageType { return MessageTypeAssistant }

// UserMessage carries content the runtime sends back on the user's behalf,
// in practice the results of agent-executed tools.
type UserMessage struct {
	Type      MessageType `json:"type"`
	SessionID string      `json:"session_id"`
	Message   UserPayload `json:"message"`
}

// UserPayload is the inner message body of a user message.
type UserPayload struct {
	Role    string          `json:"role"`
	Content json.RawMessage `json:"content"`
}

// MsgType returns the message type.
func (m UserMessage) MsgType() MessageType { return MessageTypeUser }

// ToolResultBlock is a tool_result content block from a user message.
type ToolResultBlock struct {
	Type      string          `json:"type"`
	ToolUseID string          `json:"tool_use_id"`
	Content   json.RawMessage `json:"content"`
	IsError   *bool           `json:"is_error,omitempty"`
}

// ToolResults extracts the tool_result blocks from the payload.
// String-only content (no block array) yields none.
func (p UserPayload) ToolResults() []ToolResultBlock {
	if len(p.Content) == 0 || p.Content[0] != '[' {
		return nil
	}

	var raws []json.RawMessage
	if err := json.Unmarshal(p.Content, &raws); err != nil {
		return nil
	}

	var results []ToolResultBlock
	for _, raw := range raws {
		var block ToolResultBlock
		if err := json.Unmarshal(raw, &block); err != nil {
			continue
		}
		if block.Type == "tool_result" && block.ToolUseID != "" {
			results = append(results, block)
		}
	}
	return results
}

// ResultMessage is the terminal event of a turn.
type ResultMessage struct {
	Type             MessageType     `json:"type"`
	Subtype          string          `json:"subtype"`
	IsError          bool            `json:"is_error"`
	Result           string          `json:"result,omitempty"`
	StructuredResult json.RawMessage `json:"structured_result,omitempty"`
	SessionID        string          `json:"session_id"`
	TotalCostUSD     float64         `json:"total_cost_usd"`
	DurationMs       int64           `json:"duration_ms"`
	NumTurns         int             `json:"num_turns"`
	Usage            Usage           `json:"usage"`
}

// MsgType returns the message type.
func (m ResultMessage) MsgType() MessageType { return MessageTypeResult }

// Usage tracks token usage as reported by the upstream.
type Usage struct {
	InputTokens              int `json:"input_tokens"`
	CacheCreationInputTokens int `json:"cache_creation_input_tokens"`
	CacheReadInputTokens     int `json:"cache_read_input_tokens"`
	OutputTokens             int `json:"output_tokens"`
}

// ParseMessage parses a single NDJSON line into a typed message.
// Unknown message types return (nil, nil): the caller logs and skips them
// rather than failing the whole request.
func ParseMessage(line []byte) (Message, error) {
	var base struct {
		Type MessageType `json:"type"`
	}
	if err := json.Unmarshal(line, &base); err != nil {
		return nil, err
	}

	switch base.Type {
	case MessageTypeSystem:
		var m SystemMessage
		if err := json.Unmarshal(line, &m); err != nil {
			return nil, err
		}
		return m, nil
	case MessageTypeStreamEvent:
		var m StreamEventMessage
		if err := json.Unmarshal(line, &m); err != nil {
			return nil, err
		}
		return m, nil
	case MessageTypeAssistant:
		var m AssistantMessage
		if err := json.Unmarshal(line, &m); err != nil {
			return nil, err
		}
		return m, nil
	case MessageTypeUser:
		var m UserMessage
		if err := json.Unmarshal(line, &m); err != nil {
			return nil, err
		}
		return m, nil
	case MessageTypeResult:
		var m ResultMessage
		if err := json.Unmarshal(line, &m); err != nil {
			return nil, err
		}
		return m, nil
	default:
		slog.Debug("skipping unknown upstream message type", "type", base.Type)
		return nil, nil
	}
}

// UserMessageToSend is the wire shape for injecting user input.
type UserMessageToSend struct {
	Type    string                 `json:"type"`
	Message UserMessageToSendInner `json:"message"`
}

// UserMessageToSendInner is the inner body of an injected user message.
type UserMessageToSendInner struct {
	Role    string      `json:"role"`
	Content interface{} `json:"content"`
}

// NewUserTextMessage constructs a UserMessageToSend with a plain text string.
func NewUserTextMessage(text string) UserMessageToSend {
	return UserMessageToSend{
		Type: "user",
		Message: UserMessageToSendInner{
			Role:    "user",
			Content: text,
		},
	}
}
