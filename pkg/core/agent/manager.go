// Package agent selects which LLM provider serves each pipeline role,
// driven by a small YAML config file.
package agent

import (
	"reservelife/pkg/core/llm"
)

// Config is the models.yaml shape.
type Config struct {
	ActiveProvider string                 `yaml:"active_provider"`
	Agents         map[string]AgentConfig `yaml:"agents"`
}

// AgentConfig optionally overrides the provider for one role.
type AgentConfig struct {
	Provider    string `yaml:"provider"`
	Description string `yaml:"description"`
}

// Manager resolves roles to providers.
type Manager struct {
	config    Config
	providers map[string]llm.Provider
}

// NewManager builds a manager over the known providers.
func NewManager(config Config) *Manager {
	return &Manager{
		config: config,
		providers: map[string]llm.Provider{
			"gemini":     &llm.GeminiProvider{},
			"perplexity": &llm.PerplexityProvider{},
		},
	}
}

// GetProvider returns the provider for a role: role override first, then
// the global active provider, then any provider with a configured
// credential, then nil (extraction unavailable).
func (m *Manager) GetProvider(role string) llm.Provider {
	if agentConfig, ok := m.config.Agents[role]; ok && agentConfig.Provider != "" {
		if p, ok := m.providers[agentConfig.Provider]; ok {
			return p
		}
	}

	if p, ok := m.providers[m.config.ActiveProvider]; ok {
		return p
	}

	return m.FirstAvailable()
}

// FirstAvailable returns any provider holding a credential, gemini
// preferred, or nil when none is configured.
func (m *Manager) FirstAvailable() llm.Provider {
	for _, name := range []string{"gemini", "perplexity"} {
		if p := m.providers[name]; p != nil && p.Available() {
			return p
		}
	}
	return nil
}
