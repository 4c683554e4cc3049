package agent

import (
	"testing"

	"reservelife/pkg/core/llm"
)

func TestGetProvider_RoleOverrideWins(t *testing.T) {
	m := NewManager(Config{
		ActiveProvider: "gemini",
		Agents: map[string]AgentConfig{
			"extraction": {Provider: "perplexity"},
		},
	})

	p := m.GetProvider("extraction")
	if _, ok := p.(*llm.PerplexityProvider); !ok {
		t.Errorf("expected perplexity for overridden role, got %T", p)
	}
}

func TestGetProvider_FallsBackToActiveProvider(t *testing.T) {
	m := NewManager(Config{ActiveProvider: "gemini"})

	p := m.GetProvider("extraction")
	if _, ok := p.(*llm.GeminiProvider); !ok {
		t.Errorf("expected active provider gemini, got %T", p)
	}
}

func TestGetProvider_UnknownNamesFallThrough(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("PERPLEXITY_API_KEY", "")

	m := NewManager(Config{
		ActiveProvider: "claude",
		Agents: map[string]AgentConfig{
			"extraction": {Provider: "mystery"},
		},
	})

	if p := m.GetProvider("extraction"); p != nil {
		t.Errorf("expected nil with no credentials and unknown names, got %T", p)
	}
}

func TestFirstAvailable_PrefersGemini(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "key-a")
	t.Setenv("PERPLEXITY_API_KEY", "key-b")

	m := NewManager(Config{})
	if _, ok := m.FirstAvailable().(*llm.GeminiProvider); !ok {
		t.Error("gemini should be preferred when both credentials are set")
	}

	t.Setenv("GEMINI_API_KEY", "")
	if _, ok := m.FirstAvailable().(*llm.PerplexityProvider); !ok {
		t.Error("perplexity should be chosen when only its credential is set")
	}
}
