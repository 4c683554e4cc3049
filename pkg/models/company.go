// Package models defines the shared data model for the reserve life tracker:
// companies, their regulatory filings, and the numeric facts extracted from them.
package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// =============================================================================
// EXTRACTED FACT VARIANT
// =============================================================================

// FactState distinguishes the three meanings a numeric fact can carry.
type FactState int

const (
	// FactAbsent means extraction was never attempted for this fact.
	FactAbsent FactState = iota
	// FactNotFound means extraction ran but the model could not find a value.
	FactNotFound
	// FactValue means extraction produced a finite number.
	FactValue
)

// Fact is a tagged variant {Absent, NotFound, Value(float)}.
// It deliberately avoids overloading zero or null across three meanings:
// a zero-value Fact is Absent, a null in JSON is NotFound, a number is Value.
type Fact struct {
	state FactState
	value float64
}

// ValueFact constructs a Fact holding a finite number.
// NaN collapses to NotFound so the sentinel cannot leak into arithmetic.
func ValueFact(v float64) Fact {
	if v != v { // NaN
		return Fact{state: FactNotFound}
	}
	return Fact{state: FactValue, value: v}
}

// NotFoundFact constructs an attempted-but-missing Fact.
func NotFoundFact() Fact {
	return Fact{state: FactNotFound}
}

// State returns the variant tag.
func (f Fact) State() FactState { return f.state }

// Float returns the numeric value and whether one is present.
func (f Fact) Float() (float64, bool) {
	if f.state != FactValue {
		return 0, false
	}
	return f.value, true
}

// Valid reports whether the fact holds a positive finite number.
// Zero and negative values are treated as not usable for reserve life math.
func (f Fact) Valid() bool {
	return f.state == FactValue && f.value > 0
}

// MarshalJSON encodes Value as a number and everything else as null,
// matching the on-disk document contract.
func (f Fact) MarshalJSON() ([]byte, error) {
	if f.state == FactValue {
		return json.Marshal(f.value)
	}
	return []byte("null"), nil
}

// UnmarshalJSON decodes null as NotFound and a number as Value.
func (f *Fact) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		*f = NotFoundFact()
		return nil
	}
	var v float64
	if err := json.Unmarshal(trimmed, &v); err != nil {
		return fmt.Errorf("fact must be a number or null: %w", err)
	}
	*f = ValueFact(v)
	return nil
}

func (f Fact) String() string {
	switch f.state {
	case FactValue:
		return fmt.Sprintf("%.0f", f.value)
	case FactNotFound:
		return "N/A"
	default:
		return "-"
	}
}

// =============================================================================
// EXTRACTED FACTS
// =============================================================================

// ExtractedFacts holds the two facts this system exists to find,
// both expressed in barrels (reserves) and barrels per year (production).
type ExtractedFacts struct {
	ProvedReserves   Fact `json:"proved_reserves"`
	AnnualProduction Fact `json:"annual_production"`
}

// Valid reports whether both facts hold positive numbers.
func (e ExtractedFacts) Valid() bool {
	return e.ProvedReserves.Valid() && e.AnnualProduction.Valid()
}

// Partial reports whether exactly one of the two facts is valid.
func (e ExtractedFacts) Partial() bool {
	return e.ProvedReserves.Valid() != e.AnnualProduction.Valid()
}

// AnyValid reports whether at least one fact holds a positive number.
// Bulk extraction skips filings for which this is already true.
func (e ExtractedFacts) AnyValid() bool {
	return e.ProvedReserves.Valid() || e.AnnualProduction.Valid()
}

// ReserveLife returns proved reserves divided by annual production, in years.
// Only defined when both facts are valid.
func (e ExtractedFacts) ReserveLife() (float64, bool) {
	if !e.Valid() {
		return 0, false
	}
	reserves, _ := e.ProvedReserves.Float()
	production, _ := e.AnnualProduction.Float()
	return reserves / production, true
}

// =============================================================================
// COMPANY AND FILING RECORDS
// =============================================================================

// CompanyInfo is the identity block of a company record.
// CIK is the SEC filer identifier, immutable once resolved.
type CompanyInfo struct {
	Ticker  string `json:"ticker"`
	Name    string `json:"name"`
	Country string `json:"country,omitempty"`
	CIK     string `json:"cik"`
}

// FilingRecord describes one filing keyed by its accession number.
// Extracted is nil until an extraction attempt runs; afterwards it holds
// the attempt's facts (possibly both NotFound). ExtractionLog keeps the
// human-readable trace of the last attempt.
type FilingRecord struct {
	Form          string          `json:"type"`
	FilingDate    string          `json:"filing_date"`
	PeriodEnd     string          `json:"period_end"`
	URL           string          `json:"url"`
	Accession     string          `json:"accession"`
	Extracted     *ExtractedFacts `json:"extracted_data,omitempty"`
	ExtractionLog string          `json:"extraction_log,omitempty"`
}

// Attempted reports whether an extraction has ever run for this filing.
func (r FilingRecord) Attempted() bool {
	return r.Extracted != nil
}

// CompanyRecord is the unit of persistence: identity plus all discovered
// filings keyed by accession number.
type CompanyRecord struct {
	Info    CompanyInfo             `json:"info"`
	Filings map[string]FilingRecord `json:"filings"`
}
