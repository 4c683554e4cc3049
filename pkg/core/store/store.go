// Package store owns the company records: an in-memory map keyed by
// ticker, persisted as a single JSON document, with an optional Postgres
// snapshot sink.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"reservelife/pkg/models"
)

// Store is the RWMutex-guarded company map. Merge operations are additive
// and idempotent; records are destroyed only by explicit removal.
type Store struct {
	mu        sync.RWMutex
	companies map[string]models.CompanyRecord
	path      string
}

// NewStore creates a store persisting to the given JSON document path.
func NewStore(path string) *Store {
	return &Store{
		companies: make(map[string]models.CompanyRecord),
		path:      path,
	}
}

// Load reads the persisted document. A missing file is an empty store,
// not an error.
func (s *Store) Load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read store file %s: %w", s.path, err)
	}

	companies := make(map[string]models.CompanyRecord)
	if err := json.Unmarshal(data, &companies); err != nil {
		return fmt.Errorf("failed to parse store file %s: %w", s.path, err)
	}

	s.mu.Lock()
	s.companies = companies
	s.mu.Unlock()
	return nil
}

// Save writes the whole document back to disk.
func (s *Store) Save() error {
	s.mu.RLock()
	data, err := json.MarshalIndent(s.companies, "", "  ")
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("failed to marshal store: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write store file %s: %w", s.path, err)
	}
	return nil
}

// Get returns a company record by ticker.
func (s *Store) Get(ticker string) (models.CompanyRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.companies[ticker]
	return rec, ok
}

// Put inserts or replaces a company record.
func (s *Store) Put(ticker string, rec models.CompanyRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec.Filings == nil {
		rec.Filings = make(map[string]models.FilingRecord)
	}
	s.companies[ticker] = rec
}

// Remove deletes the given tickers and returns how many existed.
func (s *Store) Remove(tickers []string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for _, ticker := range tickers {
		if _, ok := s.companies[ticker]; ok {
			delete(s.companies, ticker)
			removed++
		}
	}
	return removed
}

// Tickers returns all tickers currently held.
func (s *Store) Tickers() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tickers := make([]string, 0, len(s.companies))
	for ticker := range s.companies {
		tickers = append(tickers, ticker)
	}
	return tickers
}

// Companies returns a shallow snapshot of the company map for rendering.
func (s *Store) Companies() map[string]models.CompanyRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snapshot := make(map[string]models.CompanyRecord, len(s.companies))
	for ticker, rec := range s.companies {
		snapshot[ticker] = rec
	}
	return snapshot
}

// MergeFilings inserts discovered filings not already present and returns
// the number inserted. Existing accessions are left entirely untouched,
// including any previously extracted facts: discovery never overwrites
// extraction results, which is what makes repeated update runs safe.
func (s *Store) MergeFilings(ticker string, discovered map[string]models.FilingRecord) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.companies[ticker]
	if !ok {
		return 0, fmt.Errorf("company %s not in store", ticker)
	}
	if rec.Filings == nil {
		rec.Filings = make(map[string]models.FilingRecord)
	}

	inserted := 0
	for accession, filing := range discovered {
		if _, exists := rec.Filings[accession]; exists {
			continue
		}
		rec.Filings[accession] = filing
		inserted++
	}

	s.companies[ticker] = rec
	return inserted, nil
}

// SetExtraction records an extraction attempt's facts and log on a filing.
func (s *Store) SetExtraction(ticker, accession string, facts models.ExtractedFacts, log string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.companies[ticker]
	if !ok {
		return fmt.Errorf("company %s not in store", ticker)
	}
	filing, ok := rec.Filings[accession]
	if !ok {
		return fmt.Errorf("filing %s not found for %s", accession, ticker)
	}

	filing.Extracted = &facts
	filing.ExtractionLog = log
	rec.Filings[accession] = filing
	s.companies[ticker] = rec
	return nil
}
