package claudecode

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ccprovider "github.com/ben-vargas/claude-code-provider-go"
)

func TestStructuredStreamer_FragmentsStreamLive(t *testing.T) {
	rec := &partRecorder{}
	s := newStructuredStreamer(rec.emit, nil)

	require.NoError(t, s.Fragment(`{"answer"`))
	require.NoError(t, s.Fragment(`:42}`))

	out, warnings, err := s.Finish(nil, "")
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.JSONEq(t, `{"answer":42}`, string(out))

	// Streamed live: the terminal emits only the segment close, never a
	// restatement of the payload.
	assert.Equal(t, []ccprovider.StreamPartType{
		ccprovider.PartTextStart,
		ccprovider.PartTextDelta,
		ccprovider.PartTextDelta,
		ccprovider.PartTextEnd,
	}, rec.types())
}

func TestStructuredStreamer_EmptyFragmentsSkipped(t *testing.T) {
	rec := &partRecorder{}
	s := newStructuredStreamer(rec.emit, nil)

	require.NoError(t, s.Fragment(""))
	assert.Empty(t, rec.parts)
	assert.False(t, s.Streamed())
}

func TestStructuredStreamer_AuthoritativePayloadWhenNothingStreamed(t *testing.T) {
	rec := &partRecorder{}
	s := newStructuredStreamer(rec.emit, nil)

	out, warnings, err := s.Finish(json.RawMessage(`{"answer":42}`), "some prose")
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.JSONEq(t, `{"answer":42}`, string(out))

	assert.Equal(t, []ccprovider.StreamPartType{
		ccprovider.PartTextStart,
		ccprovider.PartTextDelta,
		ccprovider.PartTextEnd,
	}, rec.types())
	assert.Equal(t, `{"answer":42}`, rec.parts[1].Delta)
}

func TestStructuredStreamer_SnapshotFallback(t *testing.T) {
	rec := &partRecorder{}
	s := newStructuredStreamer(rec.emit, nil)

	s.RecordSnapshot(`{"answer":7}`)
	out, warnings, err := s.Finish(nil, "")
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.JSONEq(t, `{"answer":7}`, string(out))
}

func TestStructuredStreamer_ProseFallbackWarns(t *testing.T) {
	rec := &partRecorder{}
	s := newStructuredStreamer(rec.emit, nil)

	out, warnings, err := s.Finish(nil, "I could not produce JSON, sorry.")
	require.NoError(t, err)
	assert.Nil(t, out)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "structured output requested but none produced")

	assert.Equal(t, "I could not produce JSON, sorry.", rec.parts[1].Delta)
}

func TestStructuredStreamer_SchemaViolationIsWarningNotError(t *testing.T) {
	schema := json.RawMessage(`{
		"type": "object",
		"properties": {"answer": {"type": "integer"}},
		"required": ["answer"]
	}`)

	rec := &partRecorder{}
	s := newStructuredStreamer(rec.emit, schema)

	out, warnings, err := s.Finish(json.RawMessage(`{"answer":"not a number"}`), "")
	require.NoError(t, err)
	assert.JSONEq(t, `{"answer":"not a number"}`, string(out))
	require.NotEmpty(t, warnings)
	assert.Contains(t, warnings[0], "violates schema")
}

func TestStructuredStreamer_InvalidJSONWarns(t *testing.T) {
	rec := &partRecorder{}
	s := newStructuredStreamer(rec.emit, nil)

	require.NoError(t, s.Fragment(`{"answer":`))
	_, warnings, err := s.Finish(nil, "")
	require.NoError(t, err)
	require.NotEmpty(t, warnings)
	assert.Contains(t, warnings[0], "not valid JSON")
}
