package ccprovider

import (
	"encoding/json"
	"fmt"
)

// RequestParams represents all request parameters the providers understand.
// All fields are optional pointers to distinguish "not set" from "set to zero value".
type RequestParams struct {
	// ===== Core Parameters =====

	// Model specifies the model to use (e.g., "sonnet", "claude-opus-4-5")
	// Can be overridden at request time
	Model *string `json:"model,omitempty"`

	// System prompt appended to the agent's own system prompt
	System *string `json:"system,omitempty"`

	// MaxTurns caps the number of agent turns for this request.
	// The upstream reports error_max_turns when the cap is hit.
	MaxTurns *int `json:"max_turns,omitempty"`

	// Resume is an upstream session id to continue instead of starting fresh
	Resume *string `json:"resume,omitempty"`

	// ===== Tool Policy =====

	// AllowedTools restricts the agent to the named tools
	AllowedTools []string `json:"allowed_tools,omitempty"`

	// DisallowedTools removes the named tools from the agent's set
	DisallowedTools []string `json:"disallowed_tools,omitempty"`

	// PermissionMode controls tool execution approval
	// Values: "default", "acceptEdits", "plan", "bypassPermissions"
	PermissionMode *string `json:"permission_mode,omitempty"`

	// ===== Structured Output =====

	// ResponseFormat requests schema-constrained output
	ResponseFormat *ResponseFormat `json:"response_format,omitempty"`
}

// ResponseFormat requests structured (JSON) output from the agent.
type ResponseFormat struct {
	// Type is the output mode. "json" is the only structured mode.
	Type string `json:"type"`

	// Schema is the JSON Schema the output must conform to.
	// Use SchemaFromType to derive one from a Go type.
	Schema json.RawMessage `json:"schema,omitempty"`

	// Name labels the schema for upstream diagnostics (optional)
	Name *string `json:"name,omitempty"`
}

// GetModel returns the model, or the given default if not set
func (p *RequestParams) GetModel(def string) string {
	if p == nil || p.Model == nil {
		return def
	}
	return *p.Model
}

// GetSystem returns the system prompt, or empty string if not set
func (p *RequestParams) GetSystem() string {
	if p == nil || p.System == nil {
		return ""
	}
	return *p.System
}

// GetMaxTurns returns the turn cap, or the given default if not set
func (p *RequestParams) GetMaxTurns(def int) int {
	if p == nil || p.MaxTurns == nil {
		return def
	}
	return *p.MaxTurns
}

// GetResume returns the session id to resume, or empty string if not set
func (p *RequestParams) GetResume() string {
	if p == nil || p.Resume == nil {
		return ""
	}
	return *p.Resume
}

// GetPermissionMode returns the permission mode, or empty string if not set
func (p *RequestParams) GetPermissionMode() string {
	if p == nil || p.PermissionMode == nil {
		return ""
	}
	return *p.PermissionMode
}

// WantsStructuredOutput returns true if the request asked for
// schema-constrained output.
func (p *RequestParams) WantsStructuredOutput() bool {
	return p != nil && p.ResponseFormat != nil && p.ResponseFormat.Type == "json"
}

// Validate checks the parameters for internal consistency.
// Providers validate model support separately.
func (p *RequestParams) Validate() error {
	if p == nil {
		return nil
	}

	if p.MaxTurns != nil && *p.MaxTurns < 1 {
		return &ValidationError{
			Field:  "max_turns",
			Value:  *p.MaxTurns,
			Reason: "must be at least 1",
			Err:    ErrInvalidRequest,
		}
	}

	if p.PermissionMode != nil {
		switch *p.PermissionMode {
		case "default", "acceptEdits", "plan", "bypassPermissions":
		default:
			return &ValidationError{
				Field:  "permission_mode",
				Value:  *p.PermissionMode,
				Reason: "unknown permission mode",
				Err:    ErrInvalidRequest,
			}
		}
	}

	if p.ResponseFormat != nil {
		if p.ResponseFormat.Type != "json" && p.ResponseFormat.Type != "text" {
			return &ValidationError{
				Field:  "response_format.type",
				Value:  p.ResponseFormat.Type,
				Reason: "must be 'json' or 'text'",
				Err:    ErrInvalidRequest,
			}
		}
		if p.ResponseFormat.Type == "json" && len(p.ResponseFormat.Schema) > 0 {
			// Reject schemas that fail to compile up front, before any
			// process cost is incurred.
			if _, err := CompileSchema(p.ResponseFormat.Schema); err != nil {
				return &ValidationError{
					Field:  "response_format.schema",
					Value:  string(p.ResponseFormat.Schema),
					Reason: fmt.Sprintf("schema does not compile: %v", err),
					Err:    ErrInvalidRequest,
				}
			}
		}
	}

	return nil
}
