package ccprovider

// ProviderID represents a unique provider identifier.
// Using a typed constant prevents typos and provides compile-time safety.
type ProviderID string

// Known provider identifiers
const (
	// ProviderClaudeCode is the Claude Code CLI agent runtime
	ProviderClaudeCode ProviderID = "claude-code"

	// ProviderSim is the offline simulated agent for testing
	ProviderSim ProviderID = "sim"
)

// String returns the string representation of the provider ID
func (p ProviderID) String() string {
	return string(p)
}

// IsValid returns true if the provider ID is a known provider
func (p ProviderID) IsValid() bool {
	switch p {
	case ProviderClaudeCode, ProviderSim:
		return true
	default:
		return false
	}
}
