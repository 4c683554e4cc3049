package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

const perplexityURL = "https://api.perplexity.ai/chat/completions"

// PerplexityProvider implements the Provider interface against Perplexity's
// OpenAI-compatible chat completions endpoint.
type PerplexityProvider struct {
	// Endpoint overrides the API URL, used by tests.
	Endpoint string
}

var _ Provider = (*PerplexityProvider)(nil)

// PerplexityRequest is the chat completions payload.
type PerplexityRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
}

// Message is one chat turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// PerplexityResponse holds the reply choices.
type PerplexityResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Available reports whether a Perplexity API key is configured.
func (p *PerplexityProvider) Available() bool {
	return os.Getenv("PERPLEXITY_API_KEY") != ""
}

// GenerateResponse posts the prompt to the chat completions endpoint.
func (p *PerplexityProvider) GenerateResponse(ctx context.Context, prompt string, systemPrompt string, options map[string]interface{}) (string, error) {
	apiKey := os.Getenv("PERPLEXITY_API_KEY")
	if apiKey == "" {
		return "", fmt.Errorf("PERPLEXITY_API_KEY environment variable not set")
	}

	endpoint := p.Endpoint
	if endpoint == "" {
		endpoint = perplexityURL
	}

	messages := make([]Message, 0, 2)
	if systemPrompt != "" {
		messages = append(messages, Message{Role: "system", Content: systemPrompt})
	}
	messages = append(messages, Message{Role: "user", Content: prompt})

	reqBody := PerplexityRequest{
		Model:       stringOption(options, "model", "sonar-pro"),
		Messages:    messages,
		MaxTokens:   intOption(options, "max_tokens", 500),
		Temperature: floatOption(options, "temperature", 0),
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	client := &http.Client{Timeout: 60 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("perplexity request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("perplexity returned status %d: %s", resp.StatusCode, string(body))
	}

	var parsed PerplexityResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("perplexity returned no choices")
	}

	return parsed.Choices[0].Message.Content, nil
}
