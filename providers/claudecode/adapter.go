package claudecode

import (
	"encoding/json"
	"strings"

	"github.com/tidwall/gjson"

	ccprovider "github.com/ben-vargas/claude-code-provider-go"
)

// extractToolPayload converts a tool_result content value into the payload
// carried on tool-result parts. Plain strings pass through unchanged; a
// string that itself holds JSON is parsed best-effort; content-block arrays
// have their text concatenated.
func extractToolPayload(content json.RawMessage) interface{} {
	if len(content) == 0 {
		return nil
	}

	parsed := gjson.ParseBytes(content)
	switch parsed.Type {
	case gjson.String:
		text := parsed.String()
		trimmed := strings.TrimSpace(text)
		if looksLikeJSON(trimmed) && gjson.Valid(trimmed) {
			return gjson.Parse(trimmed).Value()
		}
		return text

	case gjson.JSON:
		if parsed.IsArray() {
			var sb strings.Builder
			parsed.ForEach(func(_, item gjson.Result) bool {
				if item.Get("type").String() == "text" {
					sb.WriteString(item.Get("text").String())
				}
				return true
			})
			if sb.Len() > 0 {
				return sb.String()
			}
		}
		return parsed.Value()

	default:
		return parsed.Value()
	}
}

func looksLikeJSON(s string) bool {
	return len(s) > 1 && (s[0] == '{' || s[0] == '[')
}

// collectResponse aggregates a finished part stream into a GenerateResponse.
// Parts must arrive in protocol order; the terminal part decides success.
func collectResponse(parts <-chan ccprovider.StreamPart) (*ccprovider.GenerateResponse, error) {
	resp := &ccprovider.GenerateResponse{}
	var text strings.Builder
	sequence := 0

	// Tool inputs and results accumulate per id, then convert to blocks in
	// arrival order.
	type toolRecord struct {
		name    string
		input   string
		payload interface{}
		isError bool
		hasCall bool
	}
	var toolOrder []string
	toolsByID := make(map[string]*toolRecord)
	tool := func(id string) *toolRecord {
		if rec, ok := toolsByID[id]; ok {
			return rec
		}
		rec := &toolRecord{}
		toolsByID[id] = rec
		toolOrder = append(toolOrder, id)
		return rec
	}

	for part := range parts {
		switch part.Type {
		case ccprovider.PartResponseMetadata:
			resp.Model = part.Model
			resp.Finish.SessionID = part.SessionID

		case ccprovider.PartTextDelta:
			text.WriteString(part.Delta)

		case ccprovider.PartToolCall:
			rec := tool(part.ID)
			rec.name = part.ToolName
			rec.input = part.ToolInput
			rec.hasCall = true

		case ccprovider.PartToolResult, ccprovider.PartToolError:
			rec := tool(part.ID)
			if rec.name == "" {
				rec.name = part.ToolName
			}
			rec.payload = part.Payload
			rec.isError = part.Type == ccprovider.PartToolError

		case ccprovider.PartFinish:
			sessionID := resp.Finish.SessionID
			resp.Finish = *part.Finish
			if resp.Finish.SessionID == "" {
				resp.Finish.SessionID = sessionID
			}
			resp.Warnings = part.Warnings

		case ccprovider.PartError:
			return nil, part.Err
		}
	}

	resp.Text = text.String()
	if resp.Text != "" {
		content := resp.Text
		resp.Blocks = append(resp.Blocks, &ccprovider.Block{
			BlockType:   ccprovider.BlockTypeText,
			Sequence:    sequence,
			TextContent: &content,
		})
		sequence++
	}

	for _, id := range toolOrder {
		rec := toolsByID[id]
		if rec.hasCall {
			var input interface{}
			if rec.input != "" && gjson.Valid(rec.input) {
				input = gjson.Parse(rec.input).Value()
			} else {
				input = rec.input
			}
			resp.Blocks = append(resp.Blocks, &ccprovider.Block{
				BlockType: ccprovider.BlockTypeToolUse,
				Sequence:  sequence,
				Content: map[string]interface{}{
					"tool_use_id": id,
					"tool_name":   rec.name,
					"input":       input,
				},
			})
			sequence++
		}
		if rec.payload != nil || rec.isError {
			resp.Blocks = append(resp.Blocks, &ccprovider.Block{
				BlockType: ccprovider.BlockTypeToolResult,
				Sequence:  sequence,
				Content: map[string]interface{}{
					"tool_use_id": id,
					"content":     rec.payload,
					"is_error":    rec.isError,
				},
			})
			sequence++
		}
	}

	return resp, nil
}
