package claudecode

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	ccprovider "github.com/ben-vargas/claude-code-provider-go"
)

// structuredToolName is the name the agent gives the synthetic tool it
// calls to produce schema-constrained output. Blocks with this name carry
// structured fragments, not real tool invocations.
const structuredToolName = "StructuredOutput"

// structuredStreamer handles the structured-output channel. Fragments
// stream live as text deltas while the turn runs; at the end Finish picks
// the terminal strategy based on what actually arrived.
type structuredStreamer struct {
	emit   emitFunc
	schema json.RawMessage

	segmentID string
	streamed  strings.Builder
	snapshot  string
}

func newStructuredStreamer(emit emitFunc, schema json.RawMessage) *structuredStreamer {
	return &structuredStreamer{emit: emit, schema: schema}
}

// Fragment streams one structured-output fragment live. Empty fragments are
// skipped; the first non-empty fragment opens the output segment.
func (s *structuredStreamer) Fragment(fragment string) error {
	if fragment == "" {
		return nil
	}
	if s.segmentID == "" {
		s.segmentID = uuid.NewString()
		if err := s.emit(ccprovider.StreamPart{
			Type: ccprovider.PartTextStart,
			ID:   s.segmentID,
		}); err != nil {
			return err
		}
	}
	s.streamed.WriteString(fragment)
	return s.emit(ccprovider.StreamPart{
		Type:  ccprovider.PartTextDelta,
		ID:    s.segmentID,
		Delta: fragment,
	})
}

// RecordSnapshot keeps the latest cumulative restatement of the structured
// input. It is the fallback payload when no authoritative result arrives.
func (s *structuredStreamer) RecordSnapshot(input string) {
	if len(input) > len(s.snapshot) {
		s.snapshot = input
	}
}

// Streamed reports whether any structured fragment went out live.
func (s *structuredStreamer) Streamed() bool { return s.streamed.Len() > 0 }

// Finish closes out the structured channel and returns the final output
// along with any warnings.
//
// Strategy, in order:
//   - fragments streamed live: close the segment, no restatement;
//   - an authoritative payload arrived: emit it as a full segment;
//   - a snapshot restatement exists: emit that;
//   - otherwise fall back to buffered prose with a warning.
func (s *structuredStreamer) Finish(authoritative json.RawMessage, bufferedProse string) (json.RawMessage, []string, error) {
	var warnings []string

	if s.Streamed() {
		out := json.RawMessage(s.streamed.String())
		warnings = append(warnings, s.validate(out)...)
		if err := s.emit(ccprovider.StreamPart{
			Type: ccprovider.PartTextEnd,
			ID:   s.segmentID,
		}); err != nil {
			return nil, warnings, err
		}
		return out, warnings, nil
	}

	payload := authoritative
	if len(payload) == 0 && s.snapshot != "" {
		payload = json.RawMessage(s.snapshot)
	}

	if len(payload) > 0 {
		warnings = append(warnings, s.validate(payload)...)
		if err := s.emitWhole(string(payload)); err != nil {
			return nil, warnings, err
		}
		return payload, warnings, nil
	}

	// Nothing structured arrived at all. Surface the buffered prose so the
	// turn is not silently empty, and flag the gap.
	warnings = append(warnings, "structured output requested but none produced; returning prose")
	if bufferedProse != "" {
		if err := s.emitWhole(bufferedProse); err != nil {
			return nil, warnings, err
		}
	}
	return nil, warnings, nil
}

// emitWhole sends one complete text segment as a start, delta, end triplet.
func (s *structuredStreamer) emitWhole(text string) error {
	id := uuid.NewString()
	if err := s.emit(ccprovider.StreamPart{Type: ccprovider.PartTextStart, ID: id}); err != nil {
		return err
	}
	if err := s.emit(ccprovider.StreamPart{Type: ccprovider.PartTextDelta, ID: id, Delta: text}); err != nil {
		return err
	}
	return s.emit(ccprovider.StreamPart{Type: ccprovider.PartTextEnd, ID: id})
}

// validate checks the payload against the requested schema. Violations are
// warnings, never hard errors: the output still flows downstream.
func (s *structuredStreamer) validate(payload json.RawMessage) []string {
	if !gjson.ValidBytes(payload) {
		return []string{"structured output is not valid JSON"}
	}
	if len(s.schema) == 0 {
		return nil
	}
	schema, err := ccprovider.CompileSchema(s.schema)
	if err != nil {
		return []string{fmt.Sprintf("response schema does not compile: %v", err)}
	}
	issues := ccprovider.ValidateAgainstSchema(schema, string(payload))
	warnings := make([]string, 0, len(issues))
	for _, issue := range issues {
		warnings = append(warnings, fmt.Sprintf("structured output violates schema at %s: %s", issue.Path, issue.Message))
	}
	return warnings
}
