package ccprovider

import (
	"strings"
	"testing"
)

func textMessage(role, text string) Message {
	return Message{
		Role: role,
		Blocks: []*Block{
			{BlockType: BlockTypeText, TextContent: &text},
		},
	}
}

func TestFormatPrompt_SingleUserMessage(t *testing.T) {
	prompt, err := FormatPrompt([]Message{textMessage("user", "What is 2+2?")})
	if err != nil {
		t.Fatalf("FormatPrompt() error = %v", err)
	}
	if prompt != "What is 2+2?" {
		t.Errorf("FormatPrompt() = %q, want bare prompt without role tags", prompt)
	}
}

func TestFormatPrompt_MultiTurnConversation(t *testing.T) {
	prompt, err := FormatPrompt([]Message{
		textMessage("user", "Hi"),
		textMessage("assistant", "Hello! How can I help?"),
		textMessage("user", "Tell me a joke"),
	})
	if err != nil {
		t.Fatalf("FormatPrompt() error = %v", err)
	}

	if !strings.Contains(prompt, "Human: Hi") {
		t.Errorf("prompt missing tagged user turn: %q", prompt)
	}
	if !strings.Contains(prompt, "Assistant: Hello! How can I help?") {
		t.Errorf("prompt missing tagged assistant turn: %q", prompt)
	}
	if strings.Contains(prompt, "Please continue") {
		t.Errorf("continuation marker added for user-terminated history: %q", prompt)
	}
}

func TestFormatPrompt_TrailingAssistantAsksContinuation(t *testing.T) {
	prompt, err := FormatPrompt([]Message{
		textMessage("user", "Write a story"),
		textMessage("assistant", "Once upon a time"),
	})
	if err != nil {
		t.Fatalf("FormatPrompt() error = %v", err)
	}
	if !strings.Contains(prompt, "Human: Please continue.") {
		t.Errorf("missing continuation for trailing assistant turn: %q", prompt)
	}
}

func TestFormatPrompt_ToolBlocksRendered(t *testing.T) {
	input := map[string]interface{}{
		"tool_name": "Read",
		"input":     map[string]interface{}{"path": "/tmp/a"},
	}
	messages := []Message{
		textMessage("user", "Read the file"),
		{
			Role: "assistant",
			Blocks: []*Block{
				{BlockType: BlockTypeToolUse, Content: input},
			},
		},
		textMessage("user", "now summarize"),
	}

	prompt, err := FormatPrompt(messages)
	if err != nil {
		t.Fatalf("FormatPrompt() error = %v", err)
	}
	if !strings.Contains(prompt, "Read") {
		t.Errorf("tool trail dropped from prompt: %q", prompt)
	}
}

func TestFormatPrompt_Errors(t *testing.T) {
	tests := []struct {
		name     string
		messages []Message
	}{
		{
			name:     "empty history",
			messages: nil,
		},
		{
			name:     "unsupported role",
			messages: []Message{textMessage("system", "nope")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := FormatPrompt(tt.messages); err == nil {
				t.Error("FormatPrompt() expected error, got nil")
			}
		})
	}
}
