package ccprovider

import (
	"context"
)

// Provider defines the interface that all agent providers must implement.
// This abstraction allows supporting multiple agent runtimes (the Claude Code
// CLI, the offline simulator) while maintaining a consistent interface.
//
// Types used by this interface:
//   - GenerateRequest, Message: defined in request.go
//   - GenerateResponse: defined in response.go
//   - StreamPart: defined in streaming.go
type Provider interface {
	// GenerateResponse generates a complete response (blocking).
	// It is equivalent to draining StreamResponse and aggregating the parts:
	// the same translation engine runs underneath, so ordering invariants
	// and finish semantics are identical.
	GenerateResponse(ctx context.Context, req *GenerateRequest) (*GenerateResponse, error)

	// StreamResponse generates a streaming response (non-blocking).
	// Returns a channel that emits StreamPart as upstream events arrive.
	// The channel is closed after the terminal part (finish or error).
	//
	// Usage:
	//   parts, err := provider.StreamResponse(ctx, req)
	//   if err != nil { return err }
	//   for part := range parts {
	//     switch part.Type { ... }
	//   }
	StreamResponse(ctx context.Context, req *GenerateRequest) (<-chan StreamPart, error)

	// Name returns the provider identifier (e.g., "claude-code", "sim")
	Name() ProviderID

	// SupportsModel returns true if the provider supports the given model.
	SupportsModel(model string) bool
}
