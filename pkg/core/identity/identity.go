// Package identity fetches basic company identity (display name, country)
// from a public quote endpoint. It is intentionally thin: one GET, one
// JSON shape, no retry.
package identity

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultBaseURL is the quote provider root. Tests override it.
const DefaultBaseURL = "https://query1.finance.yahoo.com"

// Info is the identity block returned for a ticker.
type Info struct {
	Ticker  string `json:"ticker"`
	Name    string `json:"name"`
	Country string `json:"country,omitempty"`
}

// Client queries the quote provider.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
}

// NewClient creates a client against the live quote provider.
func NewClient(userAgent string) *Client {
	return NewClientWithBase(DefaultBaseURL, userAgent)
}

// NewClientWithBase creates a client against a custom provider root.
func NewClientWithBase(baseURL, userAgent string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    strings.TrimRight(baseURL, "/"),
		userAgent:  userAgent,
	}
}

// quoteSummaryResponse is the subset of the provider's payload we read.
type quoteSummaryResponse struct {
	QuoteSummary struct {
		Result []struct {
			Price struct {
				LongName  string `json:"longName"`
				ShortName string `json:"shortName"`
			} `json:"price"`
			AssetProfile struct {
				Country string `json:"country"`
			} `json:"assetProfile"`
		} `json:"result"`
	} `json:"quoteSummary"`
}

// Lookup resolves a ticker to its display name and country. A ticker the
// provider does not know, and a provider that cannot be reached, both
// surface as an error; the caller treats either as "could not find
// company info".
func (c *Client) Lookup(ticker string) (*Info, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	url := fmt.Sprintf("%s/v10/finance/quoteSummary/%s?modules=price,assetProfile", c.baseURL, ticker)

	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("identity request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("identity provider returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var parsed quoteSummaryResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse identity response: %w", err)
	}
	if len(parsed.QuoteSummary.Result) == 0 {
		return nil, fmt.Errorf("no identity result for ticker %s", ticker)
	}

	result := parsed.QuoteSummary.Result[0]
	name := result.Price.LongName
	if name == "" {
		name = result.Price.ShortName
	}
	if name == "" {
		return nil, fmt.Errorf("identity result for %s has no name", ticker)
	}

	return &Info{
		Ticker:  ticker,
		Name:    name,
		Country: result.AssetProfile.Country,
	}, nil
}
