// Package llm abstracts the language-model completion endpoints used for
// fact extraction. Providers must honor deterministic decoding (temperature
// 0) and bounded output, and report availability so the pipeline can
// degrade to "extraction unavailable" instead of crashing when no
// credential is configured.
package llm

import (
	"context"
)

// Provider is the interface for all LLM providers.
type Provider interface {
	// GenerateResponse sends a single-turn prompt and returns the raw text
	// reply. Recognized options: "model" (string), "max_tokens" (int),
	// "temperature" (float64).
	GenerateResponse(ctx context.Context, prompt string, systemPrompt string, options map[string]interface{}) (string, error)
	// Available reports whether the provider has a usable credential.
	Available() bool
}

// intOption reads an int option with a default.
func intOption(options map[string]interface{}, key string, def int) int {
	if v, ok := options[key].(int); ok {
		return v
	}
	return def
}

// floatOption reads a float option with a default.
func floatOption(options map[string]interface{}, key string, def float64) float64 {
	switch v := options[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return def
}

// stringOption reads a string option with a default.
func stringOption(options map[string]interface{}, key, def string) string {
	if v, ok := options[key].(string); ok && v != "" {
		return v
	}
	return def
}
