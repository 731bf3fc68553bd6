package claudecode

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"

	ccprovider "github.com/ben-vargas/claude-code-provider-go"
)

// engine drives one turn: it consumes upstream messages from an eventSource
// and emits unified stream parts, delegating per-channel state to the tool
// tracker, the text reconciler, and the structured streamer.
type engine struct {
	emit   emitFunc
	logger *slog.Logger

	tools      *toolTracker
	text       *textReconciler
	structured *structuredStreamer

	// finishInput tells the input side the turn is over, so pending
	// injections drain with a negative ack.
	finishInput func()

	// toolBlocks maps upstream content-block indexes to tool ids so
	// input_json_delta events, which carry only an index, find their tool.
	toolBlocks map[int64]string

	// structuredBlocks marks indexes whose input is the structured output
	// channel rather than a real tool invocation.
	structuredBlocks map[int64]bool

	sessionID string
	model     string
	metaSent  bool
	finished  bool
	warnings  []string
}

func newEngine(emit emitFunc, logger *slog.Logger, params *ccprovider.RequestParams, model string, finishInput func()) *engine {
	if logger == nil {
		logger = slog.Default()
	}
	e := &engine{
		emit:             emit,
		logger:           logger,
		finishInput:      finishInput,
		toolBlocks:       make(map[int64]string),
		structuredBlocks: make(map[int64]bool),
		model:            model,
	}
	e.tools = newToolTracker(emit)

	structured := params.WantsStructuredOutput()
	e.text = newTextReconciler(emit, structured)
	if structured {
		e.structured = newStructuredStreamer(emit, params.ResponseFormat.Schema)
	}
	return e
}

// Run consumes the source until a terminal part goes out: a finish on a
// clean result, or an error otherwise. The first part is always stream-start.
func (e *engine) Run(ctx context.Context, src eventSource) error {
	if err := e.emit(ccprovider.StreamPart{Type: ccprovider.PartStreamStart}); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return e.fail(ctx.Err())
		case msg, ok := <-src.Events():
			if !ok {
				return e.sourceClosed(src)
			}
			if err := e.handle(msg); err != nil {
				return e.fail(err)
			}
			if e.finished {
				return nil
			}
		}
	}
}

// sourceClosed handles the stream ending without a result message.
func (e *engine) sourceClosed(src eventSource) error {
	e.finishInput()

	err := src.Err()
	if err == nil {
		return e.fail(&ccprovider.AgentError{
			Provider: ccprovider.ProviderClaudeCode.String(),
			Message:  "upstream stream ended without a result",
			Err:      ccprovider.ErrAgentUnavailable,
		})
	}

	if isTruncation(err, src.BufferedBytes()) {
		return e.finishTruncated()
	}
	return e.fail(err)
}

// finishTruncated closes the turn as a length-limited completion: open
// channels are finalized, and the finish summary marks the truncation.
func (e *engine) finishTruncated() error {
	e.warnings = append(e.warnings, "upstream output ended mid-stream; partial output recovered")

	if err := e.text.CloseSegment(); err != nil {
		return err
	}
	if e.structured != nil {
		// No authoritative payload on a cut stream; Finish falls back to the
		// recorded snapshot or the buffered prose so partial output still
		// reaches the consumer.
		_, warns, err := e.structured.Finish(nil, e.text.Buffered())
		if err != nil {
			return err
		}
		e.warnings = append(e.warnings, warns...)
	}
	if err := e.tools.FinalizeAll(); err != nil {
		return err
	}

	e.finished = true
	return e.emit(ccprovider.StreamPart{
		Type: ccprovider.PartFinish,
		Finish: &ccprovider.FinishSummary{
			Reason:    ccprovider.FinishLength,
			RawReason: ccprovider.RawReasonTruncation,
			SessionID: e.sessionID,
			Truncated: true,
		},
		Warnings: e.warnings,
	})
}

// fail emits the terminal error part. Caller cancellation passes through
// verbatim so consumers can match it with errors.Is.
func (e *engine) fail(err error) error {
	e.finishInput()
	e.finished = true
	_ = e.emit(ccprovider.StreamPart{Type: ccprovider.PartError, Err: err})
	return err
}

func (e *engine) handle(msg Message) error {
	switch m := msg.(type) {
	case SystemMessage:
		return e.handleSystem(m)
	case StreamEventMessage:
		return e.handleStreamEvent(m)
	case AssistantMessage:
		return e.handleAssistant(m)
	case UserMessage:
		return e.handleUser(m)
	case ResultMessage:
		return e.handleResult(m)
	default:
		e.logger.Debug("skipping unhandled upstream message", "type", msg.MsgType())
		return nil
	}
}

func (e *engine) handleSystem(m SystemMessage) error {
	if m.Subtype != "init" {
		e.logger.Debug("skipping system message", "subtype", m.Subtype)
		return nil
	}
	e.sessionID = m.SessionID
	if m.Model != "" {
		e.model = m.Model
	}
	if e.metaSent {
		return nil
	}
	e.metaSent = true
	return e.emit(ccprovider.StreamPart{
		Type:      ccprovider.PartResponseMetadata,
		SessionID: e.sessionID,
		Model:     e.model,
	})
}

func (e *engine) handleStreamEvent(m StreamEventMessage) error {
	event, err := m.ParsedEvent()
	if err != nil {
		return &ccprovider.ParseError{
			Message: "malformed inner stream event",
			Raw:     string(m.Event),
			Err:     err,
		}
	}

	switch ev := event.AsAny().(type) {
	case anthropic.ContentBlockStartEvent:
		return e.handleBlockStart(ev)

	case anthropic.ContentBlockDeltaEvent:
		return e.handleBlockDelta(ev)

	case anthropic.ContentBlockStopEvent:
		return e.handleBlockStop(ev)

	case anthropic.MessageStartEvent, anthropic.MessageDeltaEvent, anthropic.MessageStopEvent:
		// Message-level framing. Completion data comes from the result message.
		return nil

	default:
		e.logger.Debug("skipping unknown stream event")
		return nil
	}
}

func (e *engine) handleBlockStart(ev anthropic.ContentBlockStartEvent) error {
	switch ev.ContentBlock.Type {
	case "tool_use":
		if e.structured != nil && ev.ContentBlock.Name == structuredToolName {
			e.structuredBlocks[ev.Index] = true
			return nil
		}
		if err := e.text.CloseSegment(); err != nil {
			return err
		}
		e.toolBlocks[ev.Index] = ev.ContentBlock.ID
		return e.tools.Begin(ev.ContentBlock.ID, ev.ContentBlock.Name)

	case "text":
		// Text segments open lazily on the first delta.
		return nil

	case "thinking":
		return nil

	default:
		e.logger.Debug("skipping unknown content block type", "type", ev.ContentBlock.Type)
		return nil
	}
}

func (e *engine) handleBlockDelta(ev anthropic.ContentBlockDeltaEvent) error {
	switch ev.Delta.Type {
	case "text_delta":
		return e.text.OnDelta(ev.Delta.Text)

	case "input_json_delta":
		if e.structuredBlocks[ev.Index] {
			return e.structured.Fragment(ev.Delta.PartialJSON)
		}
		if id, ok := e.toolBlocks[ev.Index]; ok {
			return e.tools.InputFragment(id, ev.Delta.PartialJSON)
		}
		e.logger.Debug("input delta for unknown block", "index", ev.Index)
		return nil

	case "thinking_delta", "signature_delta":
		return nil

	default:
		e.logger.Debug("skipping unknown delta type", "type", ev.Delta.Type)
		return nil
	}
}

func (e *engine) handleBlockStop(ev anthropic.ContentBlockStopEvent) error {
	if e.structuredBlocks[ev.Index] {
		return nil
	}
	if id, ok := e.toolBlocks[ev.Index]; ok {
		return e.tools.CloseInput(id)
	}
	return e.text.CloseSegment()
}

// handleAssistant reconciles a cumulative snapshot of the turn so far.
// Text already streamed is deduplicated; tool blocks are observed and,
// since snapshot inputs are complete, called.
func (e *engine) handleAssistant(m AssistantMessage) error {
	if m.Message.Model != "" && e.model == "" {
		e.model = m.Message.Model
	}

	var fullText strings.Builder
	hasTools := false
	for _, block := range m.Message.Content {
		if block.Type == "text" {
			fullText.WriteString(block.Text)
		}
		if block.Type == "tool_use" {
			hasTools = true
		}
	}
	if err := e.text.OnSnapshot(fullText.String()); err != nil {
		return err
	}
	if hasTools {
		if err := e.text.CloseSegment(); err != nil {
			return err
		}
	}

	for i, block := range m.Message.Content {
		if block.Type != "tool_use" {
			continue
		}
		input := string(block.Input)

		if e.structured != nil && block.Name == structuredToolName {
			e.structuredBlocks[int64(i)] = true
			e.structured.RecordSnapshot(input)
			continue
		}

		e.toolBlocks[int64(i)] = block.ID
		if err := e.tools.Observe(block.ID, block.Name, input); err != nil {
			return err
		}
		if err := e.tools.Call(block.ID, block.Name, input); err != nil {
			return err
		}
	}
	return nil
}

func (e *engine) handleUser(m UserMessage) error {
	for _, result := range m.Message.ToolResults() {
		isError := result.IsError != nil && *result.IsError
		payload := extractToolPayload(result.Content)
		if err := e.tools.Result(result.ToolUseID, payload, isError); err != nil {
			return err
		}
	}
	return nil
}

func (e *engine) handleResult(m ResultMessage) error {
	e.finishInput()

	if m.SessionID != "" {
		e.sessionID = m.SessionID
	}

	if m.IsError {
		message := strings.TrimSpace(m.Result)
		if message == "" {
			message = "agent reported an error result"
		}
		return &ccprovider.AgentError{
			Provider: ccprovider.ProviderClaudeCode.String(),
			Message:  message,
		}
	}

	var structuredOut json.RawMessage
	if e.structured != nil {
		out, warns, err := e.structured.Finish(m.StructuredResult, e.text.Buffered())
		if err != nil {
			return err
		}
		structuredOut = out
		e.warnings = append(e.warnings, warns...)
	} else {
		if err := e.text.CloseSegment(); err != nil {
			return err
		}
	}

	if err := e.tools.FinalizeAll(); err != nil {
		return err
	}

	hasText := strings.TrimSpace(e.text.Buffered()) != "" || len(structuredOut) > 0
	toolsOnly := e.tools.Used() && !hasText

	usage := ccprovider.TokenUsage{
		InputTokens:           m.Usage.InputTokens + m.Usage.CacheCreationInputTokens + m.Usage.CacheReadInputTokens,
		UncachedInputTokens:   m.Usage.InputTokens,
		CacheReadInputTokens:  m.Usage.CacheReadInputTokens,
		CacheWriteInputTokens: m.Usage.CacheCreationInputTokens,
		OutputTokens:          m.Usage.OutputTokens,
	}

	cost := m.TotalCostUSD
	if cost == 0 {
		registry := ccprovider.GetCapabilityRegistry()
		if capability, err := registry.GetModelCapability(ccprovider.ProviderClaudeCode.String(), e.model); err == nil {
			cost = capability.EstimateCostUSD(usage)
		}
	}

	e.finished = true
	return e.emit(ccprovider.StreamPart{
		Type: ccprovider.PartFinish,
		Finish: &ccprovider.FinishSummary{
			Reason:     ccprovider.MapFinishReason(m.Subtype, toolsOnly),
			RawReason:  m.Subtype,
			Usage:      usage,
			SessionID:  e.sessionID,
			CostUSD:    cost,
			DurationMs: m.DurationMs,
		},
		Warnings: e.warnings,
	})
}
