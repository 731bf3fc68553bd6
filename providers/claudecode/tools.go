package claudecode

import (
	"fmt"
	"strings"

	ccprovider "github.com/ben-vargas/claude-code-provider-go"
)

const (
	// maxInputDeltaBytes caps a single tool-input delta. Snapshots can jump
	// by megabytes between observations; deltas above this ceiling are
	// withheld and the full input travels on the call event instead.
	maxInputDeltaBytes = 16 * 1024

	// maxToolInputBytes is the absolute ceiling on accumulated tool input.
	maxToolInputBytes = 1 << 20
)

// emitFunc delivers one downstream part. A non-nil return aborts the turn.
type emitFunc func(ccprovider.StreamPart) error

// toolState tracks one tool invocation's progress through its lifecycle.
type toolState struct {
	name        string
	lastInput   string
	inputOpen   bool
	inputClosed bool
	callEmitted bool
	resolved    bool
}

// toolTracker enforces the per-tool event lifecycle:
// start, zero or more input deltas, input end, call, then result or error.
// Each boundary fires at most once per tool id regardless of how many
// times the upstream restates the tool's input.
type toolTracker struct {
	tools []string // insertion order, for deterministic finalization
	byID  map[string]*toolState
	emit  emitFunc
}

func newToolTracker(emit emitFunc) *toolTracker {
	return &toolTracker{
		byID: make(map[string]*toolState),
		emit: emit,
	}
}

// Begin opens the input stream for a tool. Idempotent per id.
func (t *toolTracker) Begin(id, name string) error {
	st := t.get(id)
	if st.inputOpen {
		return nil
	}
	st.inputOpen = true
	if name != "" {
		st.name = name
	}
	return t.emit(ccprovider.StreamPart{
		Type:     ccprovider.PartToolInputStart,
		ID:       id,
		ToolName: st.name,
	})
}

// InputFragment forwards a raw partial-JSON fragment for a tool's input.
// Fragments arrive pre-diffed from the upstream delta channel and append
// directly to the accumulated input.
func (t *toolTracker) InputFragment(id, fragment string) error {
	if fragment == "" {
		return nil
	}
	st := t.get(id)
	if st.inputClosed {
		return nil
	}
	if !st.inputOpen {
		if err := t.Begin(id, st.name); err != nil {
			return err
		}
	}
	next := st.lastInput + fragment
	if len(next) > maxToolInputBytes {
		return &ccprovider.ParseError{
			Message: fmt.Sprintf("tool %s input exceeds %d bytes", id, maxToolInputBytes),
			Err:     ccprovider.ErrOversizedInput,
		}
	}
	st.lastInput = next
	return t.emit(ccprovider.StreamPart{
		Type:  ccprovider.PartToolInputDelta,
		ID:    id,
		Delta: fragment,
	})
}

// Observe reconciles a cumulative input snapshot against what has already
// been streamed. When the snapshot extends the previous one, only the new
// suffix is emitted as a delta; a snapshot that rewrites earlier bytes or
// grows past the delta ceiling updates the record silently, leaving the
// authoritative input for the call event.
func (t *toolTracker) Observe(id, name, input string) error {
	st := t.get(id)
	if name != "" && st.name == "" {
		st.name = name
	}
	if !st.inputOpen {
		if err := t.Begin(id, st.name); err != nil {
			return err
		}
	}
	if st.inputClosed || input == st.lastInput {
		return nil
	}
	if len(input) > maxToolInputBytes {
		return &ccprovider.ParseError{
			Message: fmt.Sprintf("tool %s input exceeds %d bytes", id, maxToolInputBytes),
			Err:     ccprovider.ErrOversizedInput,
		}
	}

	if len(input) <= maxInputDeltaBytes && len(st.lastInput) <= maxInputDeltaBytes &&
		strings.HasPrefix(input, st.lastInput) {
		suffix := input[len(st.lastInput):]
		st.lastInput = input
		if len(suffix) == 0 {
			return nil
		}
		return t.emit(ccprovider.StreamPart{
			Type:  ccprovider.PartToolInputDelta,
			ID:    id,
			Delta: suffix,
		})
	}

	// Snapshot diverged from what was streamed. Record it without a delta;
	// the call event carries the authoritative input.
	st.lastInput = input
	return nil
}

// CloseInput ends the input stream for a tool. Idempotent per id.
func (t *toolTracker) CloseInput(id string) error {
	st := t.get(id)
	if st.inputClosed {
		return nil
	}
	if !st.inputOpen {
		if err := t.Begin(id, st.name); err != nil {
			return err
		}
	}
	st.inputClosed = true
	return t.emit(ccprovider.StreamPart{
		Type: ccprovider.PartToolInputEnd,
		ID:   id,
	})
}

// Call emits the tool-call event with the authoritative input. The input
// stream is closed first if still open. Idempotent per id.
func (t *toolTracker) Call(id, name, input string) error {
	st := t.get(id)
	if name != "" && st.name == "" {
		st.name = name
	}
	if input != "" {
		if len(input) > maxToolInputBytes {
			return &ccprovider.ParseError{
				Message: fmt.Sprintf("tool %s input exceeds %d bytes", id, maxToolInputBytes),
				Err:     ccprovider.ErrOversizedInput,
			}
		}
		st.lastInput = input
	}
	if !st.inputClosed {
		if err := t.CloseInput(id); err != nil {
			return err
		}
	}
	if st.callEmitted {
		return nil
	}
	st.callEmitted = true
	return t.emit(ccprovider.StreamPart{
		Type:      ccprovider.PartToolCall,
		ID:        id,
		ToolName:  st.name,
		ToolInput: st.lastInput,
	})
}

// Result reports a tool outcome. A result for a tool that was never opened
// synthesizes the missing start, end, and call events first, so downstream
// consumers always see a complete lifecycle.
func (t *toolTracker) Result(id string, payload interface{}, isError bool) error {
	st := t.get(id)
	if !st.callEmitted {
		if err := t.Call(id, st.name, st.lastInput); err != nil {
			return err
		}
	}
	if st.resolved {
		return nil
	}
	st.resolved = true

	partType := ccprovider.PartToolResult
	if isError {
		partType = ccprovider.PartToolError
	}
	return t.emit(ccprovider.StreamPart{
		Type:     partType,
		ID:       id,
		ToolName: st.name,
		Payload:  payload,
	})
}

// FinalizeAll closes out every tool still mid-lifecycle, in the order the
// tools first appeared. Tools with pending input get their input stream
// closed and a call emitted; already-resolved tools are untouched.
func (t *toolTracker) FinalizeAll() error {
	for _, id := range t.tools {
		st := t.byID[id]
		if st.callEmitted {
			continue
		}
		if err := t.Call(id, st.name, st.lastInput); err != nil {
			return err
		}
	}
	return nil
}

// Used reports whether any tool lifecycle was observed this turn.
func (t *toolTracker) Used() bool { return len(t.tools) > 0 }

func (t *toolTracker) get(id string) *toolState {
	if st, ok := t.byID[id]; ok {
		return st
	}
	st := &toolState{}
	t.byID[id] = st
	t.tools = append(t.tools, id)
	return st
}
