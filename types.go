package ccprovider

// Block type constants
const (
	BlockTypeText       = "text"
	BlockTypeToolUse    = "tool_use"
	BlockTypeToolResult = "tool_result" // result of an agent-executed tool invocation
)

// Block represents one unit of conversation content.
//
// User blocks: text, tool_result
// Assistant blocks: text, tool_use
//
// The Content field stores block-type-specific structured data as a map:
//   - text: empty (text in TextContent field)
//   - tool_use: {"tool_use_id": "toolu_...", "tool_name": "...", "input": {...}}
//   - tool_result: {"tool_use_id": "toolu_...", "is_error": false}
type Block struct {
	// BlockType indicates the type of block
	// Values: "text", "tool_use", "tool_result"
	BlockType string `json:"block_type"`

	// Sequence indicates the position of this block in the turn (0-indexed)
	Sequence int `json:"sequence"`

	// TextContent contains the text for text blocks and textual tool results
	TextContent *string `json:"text_content,omitempty"`

	// Content contains type-specific structured data
	Content map[string]interface{} `json:"content,omitempty"`
}

// IsToolBlock returns true if this is a tool-related block
func (b *Block) IsToolBlock() bool {
	return b.BlockType == BlockTypeToolUse || b.BlockType == BlockTypeToolResult
}

// IsToolUseBlock returns true if this is a tool_use block
func (b *Block) IsToolUseBlock() bool {
	return b.BlockType == BlockTypeToolUse
}

// IsToolResultBlock returns true if this is a tool_result block
func (b *Block) IsToolResultBlock() bool {
	return b.BlockType == BlockTypeToolResult
}

// GetToolUseID returns the tool_use_id from a tool_use or tool_result block
func (b *Block) GetToolUseID() (string, bool) {
	if !b.IsToolBlock() {
		return "", false
	}
	id, ok := b.Content["tool_use_id"].(string)
	return id, ok
}

// GetToolName returns the tool_name from a tool_use block
func (b *Block) GetToolName() (string, bool) {
	if !b.IsToolUseBlock() {
		return "", false
	}
	name, ok := b.Content["tool_name"].(string)
	return name, ok
}

// GetToolInput returns the input from a tool_use block
func (b *Block) GetToolInput() (map[string]interface{}, bool) {
	if !b.IsToolUseBlock() {
		return nil, false
	}
	input, ok := b.Content["input"].(map[string]interface{})
	return input, ok
}

// IsToolError returns true if a tool_result block carries a failed execution.
func (b *Block) IsToolError() bool {
	if !b.IsToolResultBlock() {
		return false
	}
	isErr, _ := b.Content["is_error"].(bool)
	return isErr
}
