package ccprovider

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure modes.
// These can be checked with errors.Is().
var (
	// ErrInvalidModel indicates the requested model is not supported by the provider.
	ErrInvalidModel = errors.New("ccprovider: invalid or unsupported model")

	// ErrInvalidRequest indicates the request parameters are invalid.
	ErrInvalidRequest = errors.New("ccprovider: invalid request")

	// ErrOversizedInput indicates a prompt or tool input exceeded the
	// configured absolute size ceiling. Oversized input is rejected before
	// any process cost is incurred.
	ErrOversizedInput = errors.New("ccprovider: input exceeds size ceiling")

	// ErrAgentUnavailable indicates the agent runtime could not be reached
	// or started.
	ErrAgentUnavailable = errors.New("ccprovider: agent runtime unavailable")

	// ErrTurnFinished indicates input was injected after the upstream turn
	// already terminated. Late injections are dropped, never queued.
	ErrTurnFinished = errors.New("ccprovider: turn already finished")
)

// ModelError represents an error related to model validation or availability.
type ModelError struct {
	Model    string // The model that was requested
	Provider string // The provider name
	Reason   string // Human-readable explanation
	Err      error  // Wrapped error (usually ErrInvalidModel)
}

func (e *ModelError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("model '%s' for provider '%s': %s (%v)", e.Model, e.Provider, e.Reason, e.Err)
	}
	return fmt.Sprintf("model '%s' for provider '%s': %s", e.Model, e.Provider, e.Reason)
}

func (e *ModelError) Unwrap() error {
	return e.Err
}

// ValidationError represents an error in request parameter validation.
type ValidationError struct {
	Field  string // The parameter field that failed validation
	Value  any    // The invalid value
	Reason string // Human-readable explanation
	Err    error  // Wrapped error (usually ErrInvalidRequest)
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("validation failed for '%s' (value: %v): %s (%v)", e.Field, e.Value, e.Reason, e.Err)
	}
	return fmt.Sprintf("validation failed for '%s' (value: %v): %s", e.Field, e.Value, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// AgentError represents a failure reported by the agent runtime itself,
// either through an explicitly flagged terminal event or a process-level fault.
type AgentError struct {
	Provider string // The provider name
	Message  string // Error message from the agent
	Err      error  // Wrapped sentinel or cause
}

func (e *AgentError) Error() string {
	return fmt.Sprintf("agent '%s' error: %s", e.Provider, e.Message)
}

func (e *AgentError) Unwrap() error {
	return e.Err
}

// ParseError represents a genuinely malformed upstream payload: a parse
// failure that does not qualify as transport truncation. The raw parse
// message is preserved for the caller.
type ParseError struct {
	Message string // What failed to parse
	Raw     string // The offending input (may be elided)
	Err     error  // The underlying decoder error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse error: %s: %v", e.Message, e.Err)
	}
	return fmt.Sprintf("parse error: %s", e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// IsInvalidRequest checks if an error indicates invalid request parameters.
// These errors are not retryable and require request changes.
func IsInvalidRequest(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, ErrInvalidRequest) {
		return true
	}

	if errors.Is(err, ErrInvalidModel) {
		return true
	}

	if errors.Is(err, ErrOversizedInput) {
		return true
	}

	var validationErr *ValidationError
	return errors.As(err, &validationErr)
}

// IsAgentFailure checks if an error originated in the agent runtime rather
// than in the request or this library.
func IsAgentFailure(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, ErrAgentUnavailable) {
		return true
	}

	var agentErr *AgentError
	return errors.As(err, &agentErr)
}
