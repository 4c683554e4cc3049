package edgar

// Candidate is one row of the archive's per-type filing listing.
// It is ephemeral: produced by ListCandidates and consumed immediately
// by ResolveDetails, never persisted.
type Candidate struct {
	Accession  string
	Form       string
	FilingDate string // 2006-01-02
}

// FilingDetail is the fully resolved view of a single filing: the listing
// attributes plus the index-page fields (period of report, document URL).
type FilingDetail struct {
	Accession    string
	Form         string
	FilingDate   string
	PeriodEnd    string
	DocumentName string
	URL          string
}
