package claudecode

import (
	"strings"

	"github.com/google/uuid"

	ccprovider "github.com/ben-vargas/claude-code-provider-go"
)

// textReconciler merges the two upstream text channels into one deduplicated
// delta stream. Incremental deltas append directly; cumulative snapshots are
// diffed against the emitted length so text already streamed is never
// repeated. In buffered mode (structured output requested) prose accumulates
// silently instead of streaming.
type textReconciler struct {
	emit     emitFunc
	buffered bool

	segmentID string
	emitted   strings.Builder
	full      strings.Builder
}

func newTextReconciler(emit emitFunc, buffered bool) *textReconciler {
	return &textReconciler{emit: emit, buffered: buffered}
}

// OnDelta handles an incremental text fragment from the delta channel.
func (r *textReconciler) OnDelta(text string) error {
	if text == "" {
		return nil
	}
	r.full.WriteString(text)
	if r.buffered {
		return nil
	}
	if err := r.ensureOpen(); err != nil {
		return err
	}
	r.emitted.WriteString(text)
	return r.emit(ccprovider.StreamPart{
		Type:  ccprovider.PartTextDelta,
		ID:    r.segmentID,
		Delta: text,
	})
}

// OnSnapshot reconciles a cumulative snapshot of all text so far. Only the
// portion beyond what has already been emitted streams out; a snapshot that
// merely restates streamed text is a no-op.
func (r *textReconciler) OnSnapshot(text string) error {
	if r.buffered {
		if len(text) > r.full.Len() {
			r.full.Reset()
			r.full.WriteString(text)
		}
		return nil
	}

	emitted := r.emitted.String()
	if len(text) <= len(emitted) {
		return nil
	}
	// Slice past the emitted length. When the snapshot rewrote earlier
	// text this still converges consumers on the snapshot's suffix.
	novel := text[len(emitted):]
	if novel == "" {
		return nil
	}
	if err := r.ensureOpen(); err != nil {
		return err
	}
	r.emitted.WriteString(novel)
	r.full.Reset()
	r.full.WriteString(text)
	return r.emit(ccprovider.StreamPart{
		Type:  ccprovider.PartTextDelta,
		ID:    r.segmentID,
		Delta: novel,
	})
}

// CloseSegment ends the open text segment, if any. The next delta opens a
// fresh segment with a new id.
func (r *textReconciler) CloseSegment() error {
	if r.segmentID == "" {
		return nil
	}
	id := r.segmentID
	r.segmentID = ""
	return r.emit(ccprovider.StreamPart{
		Type: ccprovider.PartTextEnd,
		ID:   id,
	})
}

// Buffered returns all prose accumulated this turn.
func (r *textReconciler) Buffered() string { return r.full.String() }

func (r *textReconciler) ensureOpen() error {
	if r.segmentID != "" {
		return nil
	}
	r.segmentID = uuid.NewString()
	return r.emit(ccprovider.StreamPart{
		Type: ccprovider.PartTextStart,
		ID:   r.segmentID,
	})
}
