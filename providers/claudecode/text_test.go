package claudecode

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ccprovider "github.com/ben-vargas/claude-code-provider-go"
)

func collectText(rec *partRecorder) string {
	var sb strings.Builder
	for _, p := range rec.parts {
		if p.Type == ccprovider.PartTextDelta {
			sb.WriteString(p.Delta)
		}
	}
	return sb.String()
}

func TestTextReconciler_DeltasOpenSegmentLazily(t *testing.T) {
	rec := &partRecorder{}
	r := newTextReconciler(rec.emit, false)

	require.NoError(t, r.OnDelta("Hello"))
	require.NoError(t, r.OnDelta(", world"))
	require.NoError(t, r.CloseSegment())

	assert.Equal(t, []ccprovider.StreamPartType{
		ccprovider.PartTextStart,
		ccprovider.PartTextDelta,
		ccprovider.PartTextDelta,
		ccprovider.PartTextEnd,
	}, rec.types())
	assert.Equal(t, "Hello, world", collectText(rec))

	// Segment id is consistent across the segment.
	assert.NotEmpty(t, rec.parts[0].ID)
	assert.Equal(t, rec.parts[0].ID, rec.parts[3].ID)
}

func TestTextReconciler_SnapshotDeduplicatesStreamedText(t *testing.T) {
	rec := &partRecorder{}
	r := newTextReconciler(rec.emit, false)

	require.NoError(t, r.OnDelta("The answer"))
	require.NoError(t, r.OnSnapshot("The answer is 42"))

	assert.Equal(t, "The answer is 42", collectText(rec))
}

func TestTextReconciler_SnapshotRestatementIsNoop(t *testing.T) {
	rec := &partRecorder{}
	r := newTextReconciler(rec.emit, false)

	require.NoError(t, r.OnDelta("The answer is 42"))
	before := len(rec.parts)
	require.NoError(t, r.OnSnapshot("The answer is 42"))
	assert.Equal(t, before, len(rec.parts))
}

func TestTextReconciler_SnapshotOnlyStream(t *testing.T) {
	rec := &partRecorder{}
	r := newTextReconciler(rec.emit, false)

	require.NoError(t, r.OnSnapshot("First part."))
	require.NoError(t, r.OnSnapshot("First part. Second part."))
	require.NoError(t, r.CloseSegment())

	assert.Equal(t, "First part. Second part.", collectText(rec))
}

func TestTextReconciler_NewSegmentAfterClose(t *testing.T) {
	rec := &partRecorder{}
	r := newTextReconciler(rec.emit, false)

	require.NoError(t, r.OnDelta("one"))
	require.NoError(t, r.CloseSegment())
	require.NoError(t, r.OnDelta("two"))
	require.NoError(t, r.CloseSegment())

	var starts []string
	for _, p := range rec.parts {
		if p.Type == ccprovider.PartTextStart {
			starts = append(starts, p.ID)
		}
	}
	require.Len(t, starts, 2)
	assert.NotEqual(t, starts[0], starts[1])
}

func TestTextReconciler_CloseWithoutSegmentIsNoop(t *testing.T) {
	rec := &partRecorder{}
	r := newTextReconciler(rec.emit, false)

	require.NoError(t, r.CloseSegment())
	assert.Empty(t, rec.parts)
}

func TestTextReconciler_BufferedModeEmitsNothing(t *testing.T) {
	rec := &partRecorder{}
	r := newTextReconciler(rec.emit, true)

	require.NoError(t, r.OnDelta("prose that should stay private"))
	require.NoError(t, r.OnSnapshot("prose that should stay private, extended"))

	assert.Empty(t, rec.parts)
	assert.Equal(t, "prose that should stay private, extended", r.Buffered())
}
