package ccprovider

import (
	_ "embed"
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed config/capabilities/claudecode.yaml
var claudeCodeCapabilitiesYAML []byte

// Capabilities Philosophy:
//
// This package provides MODEL METADATA for UX, pricing calculations, and informational purposes.
// It does NOT enforce validation - the agent runtime is the source of truth.
//
// Use cases:
//  - Display model limits/features in UI
//  - Estimate cost when the upstream omits total_cost_usd
//  - Resolve model aliases ("sonnet" -> full model id)
//
// Capabilities may be outdated as new models are released.
// Library users can override embedded capabilities by:
//  1. Calling LoadCapabilitiesFromFile() with custom YAML
//  2. Calling RegisterProviderCapabilities() programmatically

// ProviderCapabilities represents the full capability configuration for a provider
type ProviderCapabilities struct {
	Version     string                     `yaml:"version"`      // Semantic version (e.g., "1.0.0")
	LastUpdated string                     `yaml:"last_updated"` // ISO 8601 date (e.g., "2025-01-15")
	Provider    string                     `yaml:"provider"`
	Aliases     map[string]string          `yaml:"aliases"` // short name -> full model id
	Models      map[string]ModelCapability `yaml:"models"`
}

// ModelCapability represents the capabilities of a specific model
type ModelCapability struct {
	ContextWindow   int           `yaml:"context_window"`
	MaxOutputTokens int           `yaml:"max_output_tokens"`
	Features        ModelFeatures `yaml:"features"`
	Pricing         PricingInfo   `yaml:"pricing"`
}

// ModelFeatures indicates which features a model supports
type ModelFeatures struct {
	Tools            bool `yaml:"tools"`
	Streaming        bool `yaml:"streaming"`
	StructuredOutput bool `yaml:"structured_output"`
}

// PricingInfo contains model pricing information
type PricingInfo struct {
	InputPer1M      float64 `yaml:"input_per_1m"`
	OutputPer1M     float64 `yaml:"output_per_1m"`
	CacheWritePer1M float64 `yaml:"cache_write_per_1m"`
	CacheReadPer1M  float64 `yaml:"cache_read_per_1m"`
}

// EstimateCostUSD estimates the request cost for this model from token usage.
// Used when the upstream reports no cost of its own.
func (m *ModelCapability) EstimateCostUSD(usage TokenUsage) float64 {
	const perToken = 1e-6
	cost := float64(usage.UncachedInputTokens) * m.Pricing.InputPer1M * perToken
	cost += float64(usage.CacheWriteInputTokens) * m.Pricing.CacheWritePer1M * perToken
	cost += float64(usage.CacheReadInputTokens) * m.Pricing.CacheReadPer1M * perToken
	cost += float64(usage.OutputTokens) * m.Pricing.OutputPer1M * perToken
	return cost
}

// CapabilityRegistry manages provider capabilities
type CapabilityRegistry struct {
	capabilities map[string]*ProviderCapabilities
	mu           sync.RWMutex
}

var (
	globalRegistry     *CapabilityRegistry
	globalRegistryOnce sync.Once
)

// GetCapabilityRegistry returns the global capability registry (singleton)
func GetCapabilityRegistry() *CapabilityRegistry {
	globalRegistryOnce.Do(func() {
		globalRegistry = &CapabilityRegistry{
			capabilities: make(map[string]*ProviderCapabilities),
		}
		// Load embedded Claude Code capabilities
		if err := globalRegistry.loadClaudeCodeCapabilities(); err != nil {
			// Log but don't panic - cost estimation will simply be unavailable
			fmt.Printf("Warning: failed to load Claude Code capabilities: %v\n", err)
		}
	})
	return globalRegistry
}

// loadClaudeCodeCapabilities loads the embedded Claude Code YAML
func (r *CapabilityRegistry) loadClaudeCodeCapabilities() error {
	var caps ProviderCapabilities
	if err := yaml.Unmarshal(claudeCodeCapabilitiesYAML, &caps); err != nil {
		return fmt.Errorf("failed to unmarshal Claude Code capabilities: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.capabilities[ProviderClaudeCode.String()] = &caps

	return nil
}

// GetProviderCapabilities returns capabilities for a provider
func (r *CapabilityRegistry) GetProviderCapabilities(provider string) (*ProviderCapabilities, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	caps, ok := r.capabilities[provider]
	if !ok {
		return nil, fmt.Errorf("no capabilities found for provider: %s", provider)
	}
	return caps, nil
}

// GetModelCapability returns capabilities for a specific model.
// Short aliases ("sonnet") resolve to their full model id first.
func (r *CapabilityRegistry) GetModelCapability(provider, model string) (*ModelCapability, error) {
	providerCaps, err := r.GetProviderCapabilities(provider)
	if err != nil {
		return nil, err
	}

	if full, ok := providerCaps.Aliases[model]; ok {
		model = full
	}

	modelCap, ok := providerCaps.Models[model]
	if !ok {
		return nil, fmt.Errorf("model %s not found for provider %s", model, provider)
	}
	return &modelCap, nil
}

// ResolveModelAlias resolves a short model name to its full id.
// Unknown names pass through unchanged.
func (r *CapabilityRegistry) ResolveModelAlias(provider, model string) string {
	providerCaps, err := r.GetProviderCapabilities(provider)
	if err != nil {
		return model
	}
	if full, ok := providerCaps.Aliases[model]; ok {
		return full
	}
	return model
}

// SupportsModel checks if a provider supports a specific model
func (r *CapabilityRegistry) SupportsModel(provider, model string) bool {
	_, err := r.GetModelCapability(provider, model)
	return err == nil
}

// SupportsStructuredOutput checks if a model supports schema-constrained output
func (r *CapabilityRegistry) SupportsStructuredOutput(provider, model string) bool {
	modelCap, err := r.GetModelCapability(provider, model)
	if err != nil {
		return false
	}
	return modelCap.Features.StructuredOutput
}

// LoadCapabilitiesFromFile loads provider capabilities from a YAML file.
// This allows library users to override embedded capabilities with custom data.
// The file format should match the embedded YAML structure.
func (r *CapabilityRegistry) LoadCapabilitiesFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read capabilities file: %w", err)
	}

	var caps ProviderCapabilities
	if err := yaml.Unmarshal(data, &caps); err != nil {
		return fmt.Errorf("failed to unmarshal capabilities: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.capabilities[caps.Provider] = &caps

	return nil
}

// RegisterProviderCapabilities programmatically registers provider capabilities.
// This allows library users to define capabilities in code rather than YAML.
func (r *CapabilityRegistry) RegisterProviderCapabilities(provider string, caps *ProviderCapabilities) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.capabilities[provider] = caps
}

// LoadCapabilitiesFromFile is a convenience function that calls the global registry's LoadCapabilitiesFromFile.
func LoadCapabilitiesFromFile(path string) error {
	return GetCapabilityRegistry().LoadCapabilitiesFromFile(path)
}

// RegisterProviderCapabilities is a convenience function that calls the global registry's RegisterProviderCapabilities.
func RegisterProviderCapabilities(provider string, caps *ProviderCapabilities) {
	GetCapabilityRegistry().RegisterProviderCapabilities(provider, caps)
}
