package store

import (
	"path/filepath"
	"testing"

	"reservelife/pkg/models"
)

func testCompany() models.CompanyRecord {
	return models.CompanyRecord{
		Info: models.CompanyInfo{
			Ticker: "XOM",
			Name:   "Exxon Mobil Corporation",
			CIK:    "0000034088",
		},
		Filings: map[string]models.FilingRecord{},
	}
}

func testFiling(accession, date string) models.FilingRecord {
	return models.FilingRecord{
		Form:       "10-K",
		FilingDate: date,
		PeriodEnd:  "2023-12-31",
		URL:        "https://www.sec.gov/Archives/edgar/data/34088/doc.htm",
		Accession:  accession,
	}
}

func TestStore_SaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "companies.json")

	st := NewStore(path)
	rec := testCompany()
	rec.Filings["0000034088-24-000010"] = testFiling("0000034088-24-000010", "2024-02-15")
	st.Put("XOM", rec)
	if err := st.SetExtraction("XOM", "0000034088-24-000010", models.ExtractedFacts{
		ProvedReserves:   models.ValueFact(1.5e9),
		AnnualProduction: models.NotFoundFact(),
	}, "attempt log"); err != nil {
		t.Fatalf("SetExtraction: %v", err)
	}
	if err := st.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded := NewStore(path)
	if err := loaded.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}

	got, ok := loaded.Get("XOM")
	if !ok {
		t.Fatal("company missing after reload")
	}
	if got.Info.CIK != "0000034088" {
		t.Errorf("CIK = %q", got.Info.CIK)
	}
	filing := got.Filings["0000034088-24-000010"]
	if !filing.Attempted() {
		t.Fatal("extraction attempt lost in round trip")
	}
	if reserves, _ := filing.Extracted.ProvedReserves.Float(); reserves != 1.5e9 {
		t.Errorf("reserves = %v, want 1.5e9", reserves)
	}
	if filing.Extracted.AnnualProduction.Valid() {
		t.Error("NotFound production must stay invalid after reload")
	}
	if filing.ExtractionLog != "attempt log" {
		t.Errorf("extraction log = %q", filing.ExtractionLog)
	}
}

func TestStore_LoadMissingFileIsEmpty(t *testing.T) {
	st := NewStore(filepath.Join(t.TempDir(), "nope.json"))
	if err := st.Load(); err != nil {
		t.Fatalf("missing file should not be an error: %v", err)
	}
	if n := len(st.Tickers()); n != 0 {
		t.Errorf("expected empty store, got %d tickers", n)
	}
}

func TestStore_MergeFilings(t *testing.T) {
	st := NewStore(filepath.Join(t.TempDir(), "companies.json"))
	st.Put("XOM", testCompany())

	first := map[string]models.FilingRecord{
		"acc-1": testFiling("acc-1", "2024-02-15"),
		"acc-2": testFiling("acc-2", "2023-02-16"),
	}
	n, err := st.MergeFilings("XOM", first)
	if err != nil {
		t.Fatalf("MergeFilings: %v", err)
	}
	if n != 2 {
		t.Errorf("inserted %d, want 2", n)
	}

	// Mark one filing extracted, then merge the same discovery again.
	if err := st.SetExtraction("XOM", "acc-1", models.ExtractedFacts{
		ProvedReserves:   models.ValueFact(100),
		AnnualProduction: models.ValueFact(10),
	}, "log"); err != nil {
		t.Fatalf("SetExtraction: %v", err)
	}

	again := map[string]models.FilingRecord{
		"acc-1": testFiling("acc-1", "2024-02-15"),
		"acc-2": testFiling("acc-2", "2023-02-16"),
		"acc-3": testFiling("acc-3", "2022-02-17"),
	}
	n, err = st.MergeFilings("XOM", again)
	if err != nil {
		t.Fatalf("second MergeFilings: %v", err)
	}
	if n != 1 {
		t.Errorf("second merge inserted %d, want 1", n)
	}

	rec, _ := st.Get("XOM")
	if len(rec.Filings) != 3 {
		t.Errorf("store holds %d filings, want 3", len(rec.Filings))
	}
	if !rec.Filings["acc-1"].Attempted() {
		t.Error("re-merge must not clobber extracted facts")
	}
}

func TestStore_MergeFilingsUnknownCompany(t *testing.T) {
	st := NewStore(filepath.Join(t.TempDir(), "companies.json"))
	if _, err := st.MergeFilings("ZZZZ", nil); err == nil {
		t.Fatal("expected error for unknown company")
	}
}

func TestStore_Remove(t *testing.T) {
	st := NewStore(filepath.Join(t.TempDir(), "companies.json"))
	st.Put("XOM", testCompany())
	st.Put("CVX", testCompany())

	removed := st.Remove([]string{"XOM", "BP", "CVX"})
	if removed != 2 {
		t.Errorf("removed %d, want 2", removed)
	}
	if n := len(st.Tickers()); n != 0 {
		t.Errorf("%d tickers left, want 0", n)
	}
}

func TestStore_SetExtractionUnknownFiling(t *testing.T) {
	st := NewStore(filepath.Join(t.TempDir(), "companies.json"))
	st.Put("XOM", testCompany())
	if err := st.SetExtraction("XOM", "missing-acc", models.ExtractedFacts{}, ""); err == nil {
		t.Fatal("expected error for unknown filing")
	}
}
