// Package edgar implements filing discovery against the SEC EDGAR archive:
// ticker to CIK resolution, per-type filing listings, and per-filing index
// page resolution.
//
// This package uses github.com/PuerkitoBio/goquery for jQuery-style HTML
// traversal of the archive's semi-structured pages.
package edgar

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

const (
	// DefaultBaseURL is the archive root. Tests point the client at an
	// httptest server instead.
	DefaultBaseURL = "https://www.sec.gov"

	// DefaultUserAgent identifies this tool per SEC fair-access guidelines.
	// Requests without a User-Agent risk rejection by the archive.
	DefaultUserAgent = "ReserveLifeTracker/1.0 (contact@example.com)"

	tickerFilePath = "/include/ticker.txt"

	metadataTimeout = 15 * time.Second
)

// ErrNotFound marks expected absences: unknown ticker, unresolvable filing.
// Callers distinguish it from upstream failures with errors.Is.
var ErrNotFound = errors.New("not found")

// Client handles all EDGAR archive requests. The CIK cache is process-wide
// memoization keyed by normalized ticker: purely additive, never invalidated,
// so repeated lookups skip the network round trip.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string

	cikMu    sync.RWMutex
	cikCache map[string]string // normalized ticker -> zero-padded CIK
}

// NewClient creates a client against the live SEC archive.
func NewClient(userAgent string) *Client {
	return NewClientWithBase(DefaultBaseURL, userAgent)
}

// NewClientWithBase creates a client against a custom archive root.
func NewClientWithBase(baseURL, userAgent string) *Client {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &Client{
		httpClient: &http.Client{Timeout: metadataTimeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		userAgent:  userAgent,
		cikCache:   make(map[string]string),
	}
}

// ResolveCIK maps a ticker symbol to the archive's zero-padded 10-digit
// filer identifier using the tab-separated ticker table. The match is
// case-insensitive and exact. An unknown ticker and an unreachable source
// both surface as ErrNotFound; the caller decides whether to retry the
// whole operation. Successful results are cached for the process lifetime.
func (c *Client) ResolveCIK(ticker string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(ticker))
	if normalized == "" {
		return "", fmt.Errorf("empty ticker: %w", ErrNotFound)
	}

	c.cikMu.RLock()
	cik, ok := c.cikCache[normalized]
	c.cikMu.RUnlock()
	if ok {
		return cik, nil
	}

	body, err := c.fetch(c.baseURL + tickerFilePath)
	if err != nil {
		return "", fmt.Errorf("ticker %s: %w", ticker, ErrNotFound)
	}

	for _, line := range strings.Split(body, "\n") {
		tkr, rawCIK, found := strings.Cut(strings.TrimSpace(line), "\t")
		if !found {
			continue
		}
		if tkr == normalized {
			cik = fmt.Sprintf("%010s", rawCIK)
			c.cikMu.Lock()
			c.cikCache[normalized] = cik
			c.cikMu.Unlock()
			return cik, nil
		}
	}

	return "", fmt.Errorf("ticker %s: %w", ticker, ErrNotFound)
}

// fetch performs a GET with the identifying header and returns the body.
func (c *Client) fetch(url string) (string, error) {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("archive request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("archive returned status %d for %s", resp.StatusCode, url)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	return string(body), nil
}
