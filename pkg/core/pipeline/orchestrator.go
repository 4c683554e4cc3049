// Package pipeline drives the end-to-end flow: company admission, filing
// discovery, and fact extraction, merging results into the company store.
//
// Execution is single-threaded and request-triggered: each operation runs
// to completion with blocking network calls, favoring simplicity and
// transparent per-item logging over throughput.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"reservelife/pkg/core/edgar"
	"reservelife/pkg/core/extract"
	"reservelife/pkg/core/identity"
	"reservelife/pkg/core/store"
	"reservelife/pkg/models"
)

const (
	dateLayout    = "2006-01-02"
	maxRangeYears = 10
	maxRangeDays  = 365 * maxRangeYears
)

// Archive is the filing discovery surface the orchestrator consumes.
type Archive interface {
	ResolveCIK(ticker string) (string, error)
	ListFilingsInRange(cik, startDate, endDate string, forms []string) map[string]edgar.FilingDetail
}

// FactExtractor runs one extraction attempt against a filing URL.
type FactExtractor interface {
	Extract(ctx context.Context, filingURL string) extract.Result
}

// IdentityLookup resolves a ticker to display identity.
type IdentityLookup interface {
	Lookup(ticker string) (*identity.Info, error)
}

// Snapshotter optionally mirrors company records to secondary storage.
type Snapshotter interface {
	Save(ctx context.Context, ticker string, rec models.CompanyRecord) error
}

// Orchestrator wires discovery, extraction and the store together.
type Orchestrator struct {
	archive   Archive
	extractor FactExtractor
	identity  IdentityLookup
	store     *store.Store
	snapshots Snapshotter // may be nil
}

// New creates an orchestrator. snapshots may be nil when no secondary
// storage is configured.
func New(archive Archive, extractor FactExtractor, lookup IdentityLookup, st *store.Store, snapshots Snapshotter) *Orchestrator {
	return &Orchestrator{
		archive:   archive,
		extractor: extractor,
		identity:  lookup,
		store:     st,
		snapshots: snapshots,
	}
}

// Store exposes the underlying company store for read-only rendering.
func (o *Orchestrator) Store() *store.Store {
	return o.store
}

// =============================================================================
// COMPANY ADMISSION
// =============================================================================

// AddCompany resolves identity and the filer identifier for a ticker and
// inserts a fresh company record. Both lookups must succeed; either
// failing surfaces as one "could not find company info" error because the
// caller cannot act on the difference. Adding an existing ticker is a
// no-op with a message.
func (o *Orchestrator) AddCompany(ctx context.Context, ticker string) (string, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if ticker == "" {
		return "", fmt.Errorf("ticker must not be empty")
	}

	if _, exists := o.store.Get(ticker); exists {
		return fmt.Sprintf("%s already exists", ticker), nil
	}

	info, err := o.identity.Lookup(ticker)
	if err != nil {
		return "", fmt.Errorf("could not find company info for %s: %w", ticker, err)
	}
	cik, err := o.archive.ResolveCIK(ticker)
	if err != nil {
		return "", fmt.Errorf("could not find company info for %s: %w", ticker, err)
	}

	rec := models.CompanyRecord{
		Info: models.CompanyInfo{
			Ticker:  ticker,
			Name:    info.Name,
			Country: info.Country,
			CIK:     cik,
		},
		Filings: make(map[string]models.FilingRecord),
	}
	o.store.Put(ticker, rec)
	o.checkpoint(ctx, ticker)

	return fmt.Sprintf("added %s", ticker), nil
}

// RemoveCompanies deletes the given tickers and persists the store.
func (o *Orchestrator) RemoveCompanies(ctx context.Context, tickers []string) string {
	removed := o.store.Remove(tickers)
	if removed == 0 {
		return "no companies selected for removal"
	}
	if err := o.store.Save(); err != nil {
		log.Printf("[Pipeline] save after removal failed: %v", err)
	}
	return fmt.Sprintf("removed %d companies", removed)
}

// =============================================================================
// FILING DISCOVERY
// =============================================================================

// UpdateFilings discovers filings for every company in the store within
// [startDate, endDate] and merges them additively: new accessions are
// inserted with empty extraction state, existing ones are left untouched.
// Re-running with identical inputs inserts nothing the second time.
func (o *Orchestrator) UpdateFilings(ctx context.Context, startDate, endDate string, forms []string) (string, error) {
	if len(forms) == 0 {
		return "", fmt.Errorf("at least one filing type is required")
	}
	if err := validateDateRange(startDate, endDate); err != nil {
		return "", err
	}

	tickers := o.store.Tickers()
	if len(tickers) == 0 {
		return "no companies to update filings for", nil
	}
	sort.Strings(tickers)

	totalNew := 0
	var updated []string

	for _, ticker := range tickers {
		rec, _ := o.store.Get(ticker)

		cik := rec.Info.CIK
		if cik == "" {
			var err error
			cik, err = o.archive.ResolveCIK(ticker)
			if err != nil {
				log.Printf("[Pipeline] could not resolve CIK for %s: %v", ticker, err)
				continue
			}
			// The filer identifier is immutable once resolved; keep it
			// on the record instead of re-resolving every run.
			rec.Info.CIK = cik
			o.store.Put(ticker, rec)
		}

		details := o.archive.ListFilingsInRange(cik, startDate, endDate, forms)
		if len(details) == 0 {
			log.Printf("[Pipeline] no filings found for %s", ticker)
			continue
		}

		discovered := make(map[string]models.FilingRecord, len(details))
		for accession, detail := range details {
			discovered[accession] = models.FilingRecord{
				Form:       detail.Form,
				FilingDate: detail.FilingDate,
				PeriodEnd:  detail.PeriodEnd,
				URL:        detail.URL,
				Accession:  accession,
			}
		}

		inserted, err := o.store.MergeFilings(ticker, discovered)
		if err != nil {
			log.Printf("[Pipeline] merge failed for %s: %v", ticker, err)
			continue
		}
		if inserted > 0 {
			totalNew += inserted
			updated = append(updated, fmt.Sprintf("%s (+%d)", ticker, inserted))
			o.checkpoint(ctx, ticker)
		}
	}

	if totalNew == 0 {
		return "no new filings found in the specified date range", nil
	}
	return fmt.Sprintf("added %d new filings: %s", totalNew, strings.Join(updated, ", ")), nil
}

// validateDateRange rejects malformed input before any network call:
// both dates must parse, start must not exceed end, and the span is
// capped at ten years.
func validateDateRange(startDate, endDate string) error {
	start, err := time.Parse(dateLayout, startDate)
	if err != nil {
		return fmt.Errorf("invalid start date %q: %w", startDate, err)
	}
	end, err := time.Parse(dateLayout, endDate)
	if err != nil {
		return fmt.Errorf("invalid end date %q: %w", endDate, err)
	}
	if end.Before(start) {
		return fmt.Errorf("start date %s is after end date %s", startDate, endDate)
	}
	if end.Sub(start) > maxRangeDays*24*time.Hour {
		return fmt.Errorf("date range exceeds %d years", maxRangeYears)
	}
	return nil
}

// =============================================================================
// EXTRACTION
// =============================================================================

// BulkExtract runs extraction for every filing that does not yet hold at
// least one valid fact. Filings already holding one are skipped, which
// makes re-running safe: the batch only fills gaps. Failed attempts still
// persist their (empty) facts and log so the filing is marked attempted.
// The store is checkpointed after every filing, bounding data loss if a
// long batch dies mid-way.
func (o *Orchestrator) BulkExtract(ctx context.Context) (string, error) {
	tickers := o.store.Tickers()
	if len(tickers) == 0 {
		return "no companies to extract data for", nil
	}
	sort.Strings(tickers)

	extracted, failed := 0, 0

	for _, ticker := range tickers {
		rec, _ := o.store.Get(ticker)

		accessions := make([]string, 0, len(rec.Filings))
		for accession := range rec.Filings {
			accessions = append(accessions, accession)
		}
		sort.Strings(accessions)

		for _, accession := range accessions {
			filing := rec.Filings[accession]
			if filing.Extracted != nil && filing.Extracted.AnyValid() {
				continue
			}

			if o.runOne(ctx, ticker, accession, filing.URL) {
				extracted++
			} else {
				failed++
			}
		}
	}

	if extracted == 0 && failed == 0 {
		return "all filings already have extracted data", nil
	}
	if extracted == 0 {
		return fmt.Sprintf("no data extracted (%d filings processed)", failed), nil
	}
	msg := fmt.Sprintf("extracted data from %d filings", extracted)
	if failed > 0 {
		msg += fmt.Sprintf(" (%d failed)", failed)
	}
	return msg, nil
}

// ExtractSingle re-runs extraction for one filing unconditionally, even
// when valid data already exists. This is the explicit user-triggered
// re-extraction path and intentionally bypasses the skip-if-present rule.
func (o *Orchestrator) ExtractSingle(ctx context.Context, ticker, accession string) (string, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	rec, ok := o.store.Get(ticker)
	if !ok {
		return "", fmt.Errorf("company %s not found", ticker)
	}
	filing, ok := rec.Filings[accession]
	if !ok {
		return "", fmt.Errorf("filing %s not found for %s", accession, ticker)
	}
	if filing.URL == "" {
		return "", fmt.Errorf("no document URL for %s filing %s", ticker, accession)
	}

	o.runOne(ctx, ticker, accession, filing.URL)

	rec, _ = o.store.Get(ticker)
	facts := rec.Filings[accession].Extracted
	if facts == nil {
		return fmt.Sprintf("no oil data found in %s filing %s", ticker, accession), nil
	}

	switch {
	case facts.Valid():
		reserves, _ := facts.ProvedReserves.Float()
		production, _ := facts.AnnualProduction.Float()
		return fmt.Sprintf("%s %s: reserves %.0f barrels, production %.0f barrels/year",
			ticker, accession, reserves, production), nil
	case facts.ProvedReserves.Valid():
		reserves, _ := facts.ProvedReserves.Float()
		return fmt.Sprintf("%s %s: reserves %.0f barrels, production not found",
			ticker, accession, reserves), nil
	case facts.AnnualProduction.Valid():
		production, _ := facts.AnnualProduction.Float()
		return fmt.Sprintf("%s %s: reserves not found, production %.0f barrels/year",
			ticker, accession, production), nil
	default:
		return fmt.Sprintf("no oil data found in %s filing %s", ticker, accession), nil
	}
}

// runOne performs one attempt, persists facts and log regardless of
// outcome, and checkpoints the store. Returns true when the attempt
// yielded at least one valid number.
func (o *Orchestrator) runOne(ctx context.Context, ticker, accession, url string) bool {
	result := o.extractor.Extract(ctx, url)

	if err := o.store.SetExtraction(ticker, accession, result.Facts, result.Log); err != nil {
		log.Printf("[Pipeline] could not persist extraction for %s %s: %v", ticker, accession, err)
		return false
	}
	o.checkpoint(ctx, ticker)

	return result.Success && result.Facts.AnyValid()
}

// checkpoint saves the JSON document and, when configured, the Postgres
// snapshot for one company.
func (o *Orchestrator) checkpoint(ctx context.Context, ticker string) {
	if err := o.store.Save(); err != nil {
		log.Printf("[Pipeline] store save failed: %v", err)
	}
	if o.snapshots != nil {
		if rec, ok := o.store.Get(ticker); ok {
			if err := o.snapshots.Save(ctx, ticker, rec); err != nil {
				log.Printf("[Pipeline] snapshot save failed for %s: %v", ticker, err)
			}
		}
	}
}
