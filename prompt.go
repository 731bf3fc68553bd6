package ccprovider

import (
	"encoding/json"
	"fmt"
	"strings"
)

// FormatPrompt flattens a structured conversation history into the single
// text prompt the agent runtime consumes.
//
// This is provider-agnostic shared logic used by all adapters: the upstream
// runtime takes one prompt string per turn, so prior turns are rendered as
// role-tagged text. Tool blocks are rendered as bracketed annotations rather
// than dropped, so the agent retains the execution trail.
//
// The final user message becomes the bare prompt tail; a lone user message
// passes through untouched.
func FormatPrompt(messages []Message) (string, error) {
	if len(messages) == 0 {
		return "", &ValidationError{
			Field:  "messages",
			Reason: "at least one message is required",
			Err:    ErrInvalidRequest,
		}
	}

	// Single user message: no role tagging needed
	if len(messages) == 1 && messages[0].Role == "user" {
		return renderBlocks(messages[0].Blocks), nil
	}

	var sb strings.Builder
	for i, msg := range messages {
		var label string
		switch msg.Role {
		case "user":
			label = "Human"
		case "assistant":
			label = "Assistant"
		default:
			return "", fmt.Errorf("message %d: unsupported role '%s'", i, msg.Role)
		}

		sb.WriteString(label)
		sb.WriteString(": ")
		sb.WriteString(renderBlocks(msg.Blocks))
		sb.WriteString("\n\n")
	}

	// Trailing assistant turn means the caller wants a continuation
	if messages[len(messages)-1].Role == "assistant" {
		sb.WriteString("Human: Please continue.\n\n")
	}

	return strings.TrimSpace(sb.String()), nil
}

// renderBlocks renders a message's blocks as plain text.
func renderBlocks(blocks []*Block) string {
	var sb strings.Builder

	for _, block := range blocks {
		switch block.BlockType {
		case BlockTypeText:
			if block.TextContent != nil {
				sb.WriteString(*block.TextContent)
				sb.WriteString("\n")
			}

		case BlockTypeToolUse:
			name, _ := block.GetToolName()
			if name == "" {
				name = "tool"
			}
			input, _ := block.GetToolInput()
			if raw, err := json.Marshal(input); err == nil && input != nil {
				sb.WriteString(fmt.Sprintf("[Used the %s tool with input: %s]\n", name, raw))
			} else {
				sb.WriteString(fmt.Sprintf("[Used the %s tool]\n", name))
			}

		case BlockTypeToolResult:
			sb.WriteString("[Tool result")
			if block.IsToolError() {
				sb.WriteString(" (error)")
			}
			sb.WriteString(": ")
			if block.TextContent != nil {
				sb.WriteString(*block.TextContent)
			} else if content, ok := block.Content["content"].(string); ok {
				sb.WriteString(content)
			}
			sb.WriteString("]\n")

		default:
			// Unknown block types are skipped; the history still reads coherently
		}
	}

	return strings.TrimSpace(sb.String())
}
