package ccprovider

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestRequestParams_Getters(t *testing.T) {
	t.Run("nil params return defaults", func(t *testing.T) {
		var p *RequestParams
		if got := p.GetModel("sonnet"); got != "sonnet" {
			t.Errorf("GetModel() = %q, want default", got)
		}
		if got := p.GetMaxTurns(5); got != 5 {
			t.Errorf("GetMaxTurns() = %d, want default", got)
		}
		if p.GetSystem() != "" || p.GetResume() != "" || p.GetPermissionMode() != "" {
			t.Error("string getters on nil params should be empty")
		}
		if p.WantsStructuredOutput() {
			t.Error("WantsStructuredOutput() on nil params should be false")
		}
	})

	t.Run("set values returned", func(t *testing.T) {
		p := &RequestParams{
			Model:    stringPtr("opus"),
			MaxTurns: intPtr(2),
			Resume:   stringPtr("sess-1"),
		}
		if got := p.GetModel("sonnet"); got != "opus" {
			t.Errorf("GetModel() = %q, want opus", got)
		}
		if got := p.GetMaxTurns(5); got != 2 {
			t.Errorf("GetMaxTurns() = %d, want 2", got)
		}
		if got := p.GetResume(); got != "sess-1" {
			t.Errorf("GetResume() = %q, want sess-1", got)
		}
	})
}

func TestRequestParams_WantsStructuredOutput(t *testing.T) {
	tests := []struct {
		name     string
		params   *RequestParams
		expected bool
	}{
		{
			name:     "no response format",
			params:   &RequestParams{},
			expected: false,
		},
		{
			name: "json format",
			params: &RequestParams{
				ResponseFormat: &ResponseFormat{Type: "json"},
			},
			expected: true,
		},
		{
			name: "text format",
			params: &RequestParams{
				ResponseFormat: &ResponseFormat{Type: "text"},
			},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.params.WantsStructuredOutput(); got != tt.expected {
				t.Errorf("WantsStructuredOutput() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestRequestParams_Validate(t *testing.T) {
	tests := []struct {
		name    string
		params  *RequestParams
		wantErr bool
	}{
		{
			name:    "nil params valid",
			params:  nil,
			wantErr: false,
		},
		{
			name:    "empty params valid",
			params:  &RequestParams{},
			wantErr: false,
		},
		{
			name:    "max_turns zero rejected",
			params:  &RequestParams{MaxTurns: intPtr(0)},
			wantErr: true,
		},
		{
			name:    "max_turns negative rejected",
			params:  &RequestParams{MaxTurns: intPtr(-1)},
			wantErr: true,
		},
		{
			name:    "valid permission mode",
			params:  &RequestParams{PermissionMode: stringPtr("acceptEdits")},
			wantErr: false,
		},
		{
			name:    "unknown permission mode rejected",
			params:  &RequestParams{PermissionMode: stringPtr("yolo")},
			wantErr: true,
		},
		{
			name: "unknown response format type rejected",
			params: &RequestParams{
				ResponseFormat: &ResponseFormat{Type: "xml"},
			},
			wantErr: true,
		},
		{
			name: "valid schema accepted",
			params: &RequestParams{
				ResponseFormat: &ResponseFormat{
					Type:   "json",
					Schema: json.RawMessage(`{"type":"object"}`),
				},
			},
			wantErr: false,
		},
		{
			name: "broken schema rejected",
			params: &RequestParams{
				ResponseFormat: &ResponseFormat{
					Type:   "json",
					Schema: json.RawMessage(`{"type":`),
				},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.params.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidRequest) {
				t.Errorf("Validate() error should wrap ErrInvalidRequest, got %v", err)
			}
		})
	}
}
