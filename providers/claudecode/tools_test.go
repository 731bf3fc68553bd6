package claudecode

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ccprovider "github.com/ben-vargas/claude-code-provider-go"
)

// partRecorder captures emitted parts for assertions.
type partRecorder struct {
	parts []ccprovider.StreamPart
}

func (r *partRecorder) emit(p ccprovider.StreamPart) error {
	r.parts = append(r.parts, p)
	return nil
}

func (r *partRecorder) types() []ccprovider.StreamPartType {
	types := make([]ccprovider.StreamPartType, len(r.parts))
	for i, p := range r.parts {
		types[i] = p.Type
	}
	return types
}

func (r *partRecorder) deltas(id string) string {
	var sb strings.Builder
	for _, p := range r.parts {
		if p.Type == ccprovider.PartToolInputDelta && p.ID == id {
			sb.WriteString(p.Delta)
		}
	}
	return sb.String()
}

func TestToolTracker_FullLifecycle(t *testing.T) {
	rec := &partRecorder{}
	tr := newToolTracker(rec.emit)

	require.NoError(t, tr.Begin("tool-1", "Read"))
	require.NoError(t, tr.InputFragment("tool-1", `{"path":`))
	require.NoError(t, tr.InputFragment("tool-1", `"/tmp/a"}`))
	require.NoError(t, tr.CloseInput("tool-1"))
	require.NoError(t, tr.Call("tool-1", "Read", `{"path":"/tmp/a"}`))
	require.NoError(t, tr.Result("tool-1", "file contents", false))

	assert.Equal(t, []ccprovider.StreamPartType{
		ccprovider.PartToolInputStart,
		ccprovider.PartToolInputDelta,
		ccprovider.PartToolInputDelta,
		ccprovider.PartToolInputEnd,
		ccprovider.PartToolCall,
		ccprovider.PartToolResult,
	}, rec.types())

	call := rec.parts[4]
	assert.Equal(t, "Read", call.ToolName)
	assert.Equal(t, `{"path":"/tmp/a"}`, call.ToolInput)
}

func TestToolTracker_CallIsIdempotent(t *testing.T) {
	rec := &partRecorder{}
	tr := newToolTracker(rec.emit)

	require.NoError(t, tr.Begin("tool-1", "Bash"))
	require.NoError(t, tr.Call("tool-1", "Bash", `{"command":"ls"}`))
	require.NoError(t, tr.Call("tool-1", "Bash", `{"command":"ls"}`))
	require.NoError(t, tr.Call("tool-1", "Bash", `{"command":"ls"}`))

	calls := 0
	for _, p := range rec.parts {
		if p.Type == ccprovider.PartToolCall {
			calls++
		}
	}
	assert.Equal(t, 1, calls)
}

func TestToolTracker_ObserveEmitsSuffixDeltas(t *testing.T) {
	rec := &partRecorder{}
	tr := newToolTracker(rec.emit)

	require.NoError(t, tr.Observe("tool-1", "Grep", `{"pat`))
	require.NoError(t, tr.Observe("tool-1", "Grep", `{"pattern":"foo`))
	require.NoError(t, tr.Observe("tool-1", "Grep", `{"pattern":"foo"}`))

	assert.Equal(t, `{"pattern":"foo"}`, rec.deltas("tool-1"))
}

func TestToolTracker_ObserveRepeatedSnapshotIsNoop(t *testing.T) {
	rec := &partRecorder{}
	tr := newToolTracker(rec.emit)

	require.NoError(t, tr.Observe("tool-1", "Grep", `{"pattern":"foo"}`))
	before := len(rec.parts)
	require.NoError(t, tr.Observe("tool-1", "Grep", `{"pattern":"foo"}`))
	assert.Equal(t, before, len(rec.parts))
}

func TestToolTracker_DivergentSnapshotWithheld(t *testing.T) {
	rec := &partRecorder{}
	tr := newToolTracker(rec.emit)

	require.NoError(t, tr.Observe("tool-1", "Edit", `{"old":"a"}`))
	before := rec.deltas("tool-1")

	// Rewrites an earlier byte: no delta, but the record updates.
	require.NoError(t, tr.Observe("tool-1", "Edit", `{"new":"b"}`))
	assert.Equal(t, before, rec.deltas("tool-1"))

	require.NoError(t, tr.Call("tool-1", "", ""))
	var call ccprovider.StreamPart
	for _, p := range rec.parts {
		if p.Type == ccprovider.PartToolCall {
			call = p
		}
	}
	assert.Equal(t, `{"new":"b"}`, call.ToolInput)
}

func TestToolTracker_LargeSuffixWithheld(t *testing.T) {
	rec := &partRecorder{}
	tr := newToolTracker(rec.emit)

	require.NoError(t, tr.Observe("tool-1", "Write", `{"content":"`))
	big := `{"content":"` + strings.Repeat("x", maxInputDeltaBytes+1)
	require.NoError(t, tr.Observe("tool-1", "Write", big))

	// The oversized suffix never streams, but the call carries it whole.
	assert.Equal(t, `{"content":"`, rec.deltas("tool-1"))
	require.NoError(t, tr.Call("tool-1", "", ""))
	last := rec.parts[len(rec.parts)-1]
	assert.Equal(t, ccprovider.PartToolCall, last.Type)
	assert.Equal(t, big, last.ToolInput)
}

func TestToolTracker_AbsoluteCeiling(t *testing.T) {
	rec := &partRecorder{}
	tr := newToolTracker(rec.emit)

	huge := strings.Repeat("y", maxToolInputBytes+1)
	err := tr.Observe("tool-1", "Write", huge)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ccprovider.ErrOversizedInput))
}

func TestToolTracker_OrphanResultSynthesizesLifecycle(t *testing.T) {
	rec := &partRecorder{}
	tr := newToolTracker(rec.emit)

	require.NoError(t, tr.Result("tool-x", "late result", false))

	assert.Equal(t, []ccprovider.StreamPartType{
		ccprovider.PartToolInputStart,
		ccprovider.PartToolInputEnd,
		ccprovider.PartToolCall,
		ccprovider.PartToolResult,
	}, rec.types())
}

func TestToolTracker_ErrorResult(t *testing.T) {
	rec := &partRecorder{}
	tr := newToolTracker(rec.emit)

	require.NoError(t, tr.Begin("tool-1", "Bash"))
	require.NoError(t, tr.Result("tool-1", "command not found", true))

	last := rec.parts[len(rec.parts)-1]
	assert.Equal(t, ccprovider.PartToolError, last.Type)
	assert.Equal(t, "command not found", last.Payload)
}

func TestToolTracker_FinalizeAllClosesPendingTools(t *testing.T) {
	rec := &partRecorder{}
	tr := newToolTracker(rec.emit)

	require.NoError(t, tr.Begin("tool-1", "Read"))
	require.NoError(t, tr.InputFragment("tool-1", `{"path":"/a"}`))
	require.NoError(t, tr.Begin("tool-2", "Bash"))
	require.NoError(t, tr.Call("tool-2", "Bash", `{}`))

	require.NoError(t, tr.FinalizeAll())

	var calls []string
	for _, p := range rec.parts {
		if p.Type == ccprovider.PartToolCall {
			calls = append(calls, p.ID)
		}
	}
	assert.Equal(t, []string{"tool-2", "tool-1"}, calls)

	// Finalize is stable: a second pass adds nothing.
	before := len(rec.parts)
	require.NoError(t, tr.FinalizeAll())
	assert.Equal(t, before, len(rec.parts))
}
