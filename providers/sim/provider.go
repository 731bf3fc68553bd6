// Package sim is an offline provider that emits protocol-correct part
// streams without spawning any agent process. Used for development and
// consumer testing without the CLI installed.
package sim

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	loremgen "github.com/bozaro/golorem"
	"github.com/google/uuid"
	"github.com/tidwall/sjson"

	ccprovider "github.com/ben-vargas/claude-code-provider-go"
)

// Provider generates lorem ipsum part streams.
// Model names select behavior:
//   - "sim-fast", "sim-slow": word delay
//   - models containing "tools": a simulated tool round-trip
//   - structured requests stream a JSON object instead of prose
type Provider struct {
	generator *loremgen.Lorem
}

// NewProvider creates a simulated provider.
func NewProvider() *Provider {
	return &Provider{generator: loremgen.New()}
}

// Name returns the provider identifier.
func (p *Provider) Name() ccprovider.ProviderID {
	return ccprovider.ProviderSim
}

// SupportsModel returns true if the model name starts with "sim-".
func (p *Provider) SupportsModel(model string) bool {
	return strings.HasPrefix(model, "sim-")
}

func wordDelay(model string) time.Duration {
	if strings.Contains(model, "slow") {
		return 200 * time.Millisecond
	}
	if strings.Contains(model, "fast") {
		return time.Millisecond
	}
	return 20 * time.Millisecond
}

// GenerateResponse generates a complete simulated response.
func (p *Provider) GenerateResponse(ctx context.Context, req *ccprovider.GenerateRequest) (*ccprovider.GenerateResponse, error) {
	parts, err := p.StreamResponse(ctx, req)
	if err != nil {
		return nil, err
	}

	resp := &ccprovider.GenerateResponse{}
	var text strings.Builder
	for part := range parts {
		switch part.Type {
		case ccprovider.PartResponseMetadata:
			resp.Model = part.Model
		case ccprovider.PartTextDelta:
			text.WriteString(part.Delta)
		case ccprovider.PartFinish:
			resp.Finish = *part.Finish
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
			TextContent: &content,
		})
	}
	if req.Params.WantsStructuredOutput() && json.Valid([]byte(resp.Text)) {
		resp.StructuredOutput = json.RawMessage(resp.Text)
	}
	return resp, nil
}

// StreamResponse generates a simulated part stream.
func (p *Provider) StreamResponse(ctx context.Context, req *ccprovider.GenerateRequest) (<-chan ccprovider.StreamPart, error) {
	if !p.SupportsModel(req.Model) {
		return nil, &ccprovider.ModelError{
			Model:    req.Model,
			Provider: p.Name().String(),
			Reason:   "model not supported by sim provider (must start with 'sim-')",
			Err:      ccprovider.ErrInvalidModel,
		}
	}
	if err := req.Params.Validate(); err != nil {
		return nil, err
	}
	if _, err := ccprovider.FormatPrompt(req.Messages); err != nil {
		return nil, err
	}

	parts := make(chan ccprovider.StreamPart, 10)

	go func() {
		defer close(parts)

		send := func(part ccprovider.StreamPart) bool {
			if ctx.Err() != nil {
				return false
			}
			select {
			case parts <- part:
				return true
			case <-ctx.Done():
				return false
			}
		}

		// Cancellation ends the stream with a terminal error part.
		cancelled := func() {
			select {
			case parts <- ccprovider.StreamPart{Type: ccprovider.PartError, Err: ctx.Err()}:
			default:
			}
		}

		sessionID := uuid.NewString()
		if !send(ccprovider.StreamPart{Type: ccprovider.PartStreamStart}) {
			cancelled()
			return
		}
		if !send(ccprovider.StreamPart{
			Type:      ccprovider.PartResponseMetadata,
			SessionID: sessionID,
			Model:     req.Model,
		}) {
			cancelled()
			return
		}

		delay := wordDelay(req.Model)
		outputTokens := 0
		toolsUsed := false

		if strings.Contains(req.Model, "tools") {
			toolsUsed = true
			if !p.streamToolRound(ctx, send, delay) {
				cancelled()
				return
			}
			outputTokens += 24
		}

		var emitted int
		if req.Params.WantsStructuredOutput() {
			emitted = p.streamStructured(ctx, send, delay)
		} else {
			emitted = p.streamProse(ctx, send, delay)
		}
		if emitted < 0 {
			cancelled()
			return
		}
		outputTokens += emitted

		reason := ccprovider.FinishStop
		if toolsUsed && emitted == 0 {
			reason = ccprovider.FinishToolCalls
		}
		send(ccprovider.StreamPart{
			Type: ccprovider.PartFinish,
			Finish: &ccprovider.FinishSummary{
				Reason:     reason,
				RawReason:  ccprovider.RawReasonSuccess,
				SessionID:  sessionID,
				Usage:      ccprovider.TokenUsage{OutputTokens: outputTokens},
				DurationMs: int64(delay/time.Millisecond) * int64(outputTokens),
			},
		})
	}()

	return parts, nil
}

// streamProse emits one text segment, word by word.
// Returns the emitted token count, or -1 on cancellation.
func (p *Provider) streamProse(ctx context.Context, send func(ccprovider.StreamPart) bool, delay time.Duration) int {
	segmentID := uuid.NewString()
	if !send(ccprovider.StreamPart{Type: ccprovider.PartTextStart, ID: segmentID}) {
		return -1
	}

	words := strings.Fields(p.generator.Paragraph(2, 4))
	for i, word := range words {
		fragment := word
		if i < len(words)-1 {
			fragment += " "
		}
		if !send(ccprovider.StreamPart{
			Type:  ccprovider.PartTextDelta,
			ID:    segmentID,
			Delta: fragment,
		}) {
			return -1
		}
		if !sleep(ctx, delay) {
			return -1
		}
	}

	if !send(ccprovider.StreamPart{Type: ccprovider.PartTextEnd, ID: segmentID}) {
		return -1
	}
	return len(words)
}

// streamStructured emits a JSON object as a single text segment, assembled
// field by field so consumers see partial-JSON fragments.
func (p *Provider) streamStructured(ctx context.Context, send func(ccprovider.StreamPart) bool, delay time.Duration) int {
	doc := "{}"
	doc, _ = sjson.Set(doc, "title", p.generator.Word(2, 4))
	doc, _ = sjson.Set(doc, "summary", p.generator.Sentence(8, 16))
	doc, _ = sjson.Set(doc, "tags", []string{p.generator.Word(3, 8), p.generator.Word(3, 8)})

	segmentID := uuid.NewString()
	if !send(ccprovider.StreamPart{Type: ccprovider.PartTextStart, ID: segmentID}) {
		return -1
	}

	// Fragment at arbitrary boundaries to mimic streamed partial JSON.
	const chunk = 12
	for i := 0; i < len(doc); i += chunk {
		end := i + chunk
		if end > len(doc) {
			end = len(doc)
		}
		if !send(ccprovider.StreamPart{
			Type:  ccprovider.PartTextDelta,
			ID:    segmentID,
			Delta: doc[i:end],
		}) {
			return -1
		}
		if !sleep(ctx, delay) {
			return -1
		}
	}

	if !send(ccprovider.StreamPart{Type: ccprovider.PartTextEnd, ID: segmentID}) {
		return -1
	}
	return len(strings.Fields(doc))
}

// streamToolRound emits a full simulated tool lifecycle: input streamed in
// fragments, a call, then a result.
func (p *Provider) streamToolRound(ctx context.Context, send func(ccprovider.StreamPart) bool, delay time.Duration) bool {
	toolID := "toolu_" + uuid.NewString()[:8]

	input := "{}"
	input, _ = sjson.Set(input, "query", p.generator.Sentence(3, 6))
	input, _ = sjson.Set(input, "max_results", 5)

	if !send(ccprovider.StreamPart{
		Type:     ccprovider.PartToolInputStart,
		ID:       toolID,
		ToolName: "search_files",
	}) {
		return false
	}

	const chunk = 10
	for i := 0; i < len(input); i += chunk {
		end := i + chunk
		if end > len(input) {
			end = len(input)
		}
		if !send(ccprovider.StreamPart{
			Type:  ccprovider.PartToolInputDelta,
			ID:    toolID,
			Delta: input[i:end],
		}) {
			return false
		}
		if !sleep(ctx, delay) {
			return false
		}
	}

	if !send(ccprovider.StreamPart{Type: ccprovider.PartToolInputEnd, ID: toolID}) {
		return false
	}
	if !send(ccprovider.StreamPart{
		Type:      ccprovider.PartToolCall,
		ID:        toolID,
		ToolName:  "search_files",
		ToolInput: input,
	}) {
		return false
	}
	return send(ccprovider.StreamPart{
		Type:     ccprovider.PartToolResult,
		ID:       toolID,
		ToolName: "search_files",
		Payload:  "3 files matched",
	})
}

func sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-time.After(d):
		return true
	case <-ctx.Done():
		return false
	}
}
