// Package extract turns one filing URL into two numeric facts. It fetches
// the filing, narrows it to relevant excerpts, prompts a language model,
// and recovers a JSON object from whatever the model replies.
//
// Every step appends to a human-readable log that is returned with the
// result on every path, success or failure, so each attempt can be
// inspected after the fact.
package extract

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"reservelife/pkg/core/llm"
	"reservelife/pkg/core/narrow"
	"reservelife/pkg/models"
)

// Result reports one extraction attempt. Success means a model response
// was obtained and a JSON object was recovered from it; it says nothing
// about fact validity. A response of {"proved_reserves": null,
// "annual_production": null} is Success=true with both facts NotFound.
// Callers needing fact validity use Facts.Valid/Partial/AnyValid.
type Result struct {
	Success bool
	Facts   models.ExtractedFacts
	Log     string
}

// Extractor drives the fetch -> narrow -> prompt -> parse pipeline.
type Extractor struct {
	httpClient *http.Client
	userAgent  string
	provider   llm.Provider
	maxTokens  int
	model      string
}

// New creates an extractor. provider may be nil, in which case every
// attempt fails with "extraction unavailable" rather than crashing.
func New(provider llm.Provider, userAgent string) *Extractor {
	return &Extractor{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		userAgent:  userAgent,
		provider:   provider,
		maxTokens:  500,
	}
}

// SetModel overrides the provider's default model name.
func (e *Extractor) SetModel(model string) { e.model = model }

// Extract runs one attempt against a filing URL. It never returns an
// error: all failures become a Result with Success=false, NotFound facts
// and a log describing what happened. There is no automatic retry; the
// caller may re-trigger manually.
func (e *Extractor) Extract(ctx context.Context, filingURL string) (result Result) {
	attempt := &attemptLog{}
	attempt.printf("attempt %s", uuid.New().String()[:8])

	// The log must survive even a programming error mid-attempt.
	defer func() {
		if r := recover(); r != nil {
			attempt.printf("panic during extraction: %v", r)
			result = failure(attempt)
		}
	}()

	if e.provider == nil || !e.provider.Available() {
		attempt.printf("extraction unavailable: no LLM credential configured")
		return failure(attempt)
	}

	html, err := e.download(ctx, filingURL, attempt)
	if err != nil {
		attempt.printf("download failed: %v", err)
		return failure(attempt)
	}

	reservesContent, productionContent, err := narrow.Narrow(html)
	if err != nil {
		attempt.printf("content narrowing failed: %v", err)
		return failure(attempt)
	}

	hasReserves := strings.TrimSpace(reservesContent) != ""
	hasProduction := strings.TrimSpace(productionContent) != ""
	switch {
	case !hasReserves && !hasProduction:
		attempt.printf("both reserves and production content are empty, skipping model call")
		return failure(attempt)
	case !hasReserves:
		attempt.printf("warning: reserves content is empty")
	case !hasProduction:
		attempt.printf("warning: production content is empty")
	default:
		attempt.printf("both reserves and production content found")
	}
	attempt.printf("reserves content: %d characters, production content: %d characters",
		len(reservesContent), len(productionContent))

	prompt := BuildPrompt(reservesContent, productionContent)
	attempt.printf("prompt created: %d characters", len(prompt))

	attempt.printf("querying language model...")
	options := map[string]interface{}{
		"max_tokens":  e.maxTokens,
		"temperature": 0.0,
	}
	if e.model != "" {
		options["model"] = e.model
	}
	response, err := e.provider.GenerateResponse(ctx, prompt, "", options)
	if err != nil {
		attempt.printf("model query failed: %v", err)
		return failure(attempt)
	}
	attempt.printf("model responded with %d characters", len(response))
	attempt.printf("model response: %s", response)

	data, ok := ExtractJSON(response, []string{keyProvedReserves, keyAnnualProduction})
	if !ok {
		attempt.printf("failed to recover JSON from model response")
		return failure(attempt)
	}
	attempt.printf("parsed JSON: %v", data)

	facts := models.ExtractedFacts{
		ProvedReserves:   coerceFact(data[keyProvedReserves], "reserves", attempt),
		AnnualProduction: coerceFact(data[keyAnnualProduction], "production", attempt),
	}

	switch {
	case facts.Valid():
		reserves, _ := facts.ProvedReserves.Float()
		production, _ := facts.AnnualProduction.Float()
		attempt.printf("SUCCESS: reserves=%.0f, production=%.0f", reserves, production)
	case facts.Partial():
		attempt.printf("PARTIAL: reserves=%s, production=%s",
			facts.ProvedReserves, facts.AnnualProduction)
	default:
		attempt.printf("no valid data extracted")
	}

	return Result{Success: true, Facts: facts, Log: attempt.String()}
}

// download fetches the raw filing HTML with the identifying header.
func (e *Extractor) download(ctx context.Context, filingURL string, attempt *attemptLog) (string, error) {
	attempt.printf("downloading: %s", filingURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, filingURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", e.userAgent)

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read body: %w", err)
	}

	attempt.printf("downloaded %d characters (%.1f KB)", len(body), float64(len(body))/1024)
	return string(body), nil
}

// coerceFact maps one raw JSON value onto the fact variant: null or absent
// becomes NotFound, numbers and numeric strings become values, anything
// else is logged and treated as missing rather than failing the attempt.
func coerceFact(raw interface{}, label string, attempt *attemptLog) models.Fact {
	switch v := raw.(type) {
	case nil:
		return models.NotFoundFact()
	case float64:
		return models.ValueFact(v)
	case string:
		cleaned := strings.ReplaceAll(strings.TrimSpace(v), ",", "")
		f, err := strconv.ParseFloat(cleaned, 64)
		if err != nil {
			attempt.printf("could not convert %s value %q to number", label, v)
			return models.NotFoundFact()
		}
		return models.ValueFact(f)
	default:
		attempt.printf("could not convert %s value %v (%T) to number", label, raw, raw)
		return models.NotFoundFact()
	}
}

func failure(attempt *attemptLog) Result {
	return Result{
		Success: false,
		Facts: models.ExtractedFacts{
			ProvedReserves:   models.NotFoundFact(),
			AnnualProduction: models.NotFoundFact(),
		},
		Log: attempt.String(),
	}
}

// attemptLog accumulates the per-attempt diagnostic lines.
type attemptLog struct {
	sb strings.Builder
}

func (l *attemptLog) printf(format string, args ...interface{}) {
	fmt.Fprintf(&l.sb, format+"\n", args...)
}

func (l *attemptLog) String() string {
	return l.sb.String()
}
