package edgar

import (
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const dateLayout = "2006-01-02"

// accessionRe pulls the accession number out of the listing's description
// cell, e.g. "Acc-no: 0000320193-24-000123 (34 Act)".
var accessionRe = regexp.MustCompile(`Acc-no:\s*([0-9-]+)`)

// ListCandidates scrapes the archive's per-type filing listing for a filer
// and returns the rows whose filing date falls within [startDate, endDate]
// inclusive. Rows missing a parseable date or an accession number are
// skipped with a log line, not treated as fatal.
//
// An empty slice means either "no filings in range" or "listing fetch
// failed"; the two are deliberately indistinguishable here and the failure
// is only logged. An inverted range also yields an empty slice.
func (c *Client) ListCandidates(cik, form, startDate, endDate string) []Candidate {
	if startDate > endDate {
		log.Printf("[EDGAR] inverted date range %s..%s, returning no candidates", startDate, endDate)
		return nil
	}

	url := fmt.Sprintf("%s/cgi-bin/browse-edgar?action=getcompany&CIK=%s&type=%s&count=100",
		c.baseURL, cik, form)
	body, err := c.fetch(url)
	if err != nil {
		log.Printf("[EDGAR] listing fetch failed for CIK %s type %s: %v", cik, form, err)
		return nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		log.Printf("[EDGAR] listing parse failed for CIK %s type %s: %v", cik, form, err)
		return nil
	}

	var candidates []Candidate
	doc.Find("table.tableFile2 tr").Each(func(i int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 4 {
			return // header row or malformed
		}

		filingDate := strings.TrimSpace(cells.Eq(3).Text())
		if _, err := time.Parse(dateLayout, filingDate); err != nil {
			log.Printf("[EDGAR] skipping listing row with bad date %q", filingDate)
			return
		}
		if filingDate < startDate || filingDate > endDate {
			return
		}

		m := accessionRe.FindStringSubmatch(cells.Eq(2).Text())
		if m == nil {
			log.Printf("[EDGAR] skipping listing row without accession (date %s)", filingDate)
			return
		}

		candidates = append(candidates, Candidate{
			Accession:  m[1],
			Form:       form,
			FilingDate: filingDate,
		})
	})

	return candidates
}

// ResolveDetails fetches the archive's index page for one filing and
// extracts the period of report and the canonical primary document URL.
// The document row must match the expected form exactly, so an amended
// form ("10-K/A") never satisfies a "10-K" query. A filing whose period
// or document cannot be located resolves to ErrNotFound as a whole; there
// are no partial details.
func (c *Client) ResolveDetails(cik, accession, form string) (*FilingDetail, error) {
	cikNum := strings.TrimLeft(cik, "0")
	accNoDashes := strings.ReplaceAll(accession, "-", "")
	indexURL := fmt.Sprintf("%s/Archives/edgar/data/%s/%s/%s-index.htm",
		c.baseURL, cikNum, accNoDashes, accession)

	body, err := c.fetch(indexURL)
	if err != nil {
		return nil, fmt.Errorf("index page for %s: %w", accession, err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("index page parse for %s: %w", accession, err)
	}

	periodEnd := findPeriodOfReport(doc)

	documentName, documentURL := c.findPrimaryDocument(doc, form)
	if periodEnd == "" || documentName == "" {
		return nil, fmt.Errorf("filing %s missing period or document: %w", accession, ErrNotFound)
	}

	if documentURL == "" {
		// No hyperlink on the row; construct the archive path from the name.
		documentURL = fmt.Sprintf("%s/Archives/edgar/data/%s/%s/%s",
			c.baseURL, cikNum, accNoDashes, documentName)
	}

	return &FilingDetail{
		Accession:    accession,
		Form:         form,
		PeriodEnd:    periodEnd,
		DocumentName: documentName,
		URL:          documentURL,
	}, nil
}

// findPeriodOfReport locates the "Period of Report" label among the index
// page's info headers and returns its sibling value.
func findPeriodOfReport(doc *goquery.Document) string {
	var period string
	doc.Find("div.infoHead").EachWithBreak(func(i int, sel *goquery.Selection) bool {
		if !strings.Contains(strings.ToLower(sel.Text()), "period of report") {
			return true
		}
		period = strings.TrimSpace(sel.NextAllFiltered("div.info").First().Text())
		return false
	})
	return period
}

// findPrimaryDocument walks the index page's document listing table and
// returns the name and URL of the row whose Type cell equals form.
//
// URL normalization: a viewer-relative href ("/ix?doc=...") is stripped to
// its underlying path; a server-absolute path is resolved against the
// archive root; anything else is used as-is. When the row carries no
// hyperlink the returned URL is empty and the caller falls back to the
// archive directory path.
func (c *Client) findPrimaryDocument(doc *goquery.Document, form string) (name, url string) {
	doc.Find("table").EachWithBreak(func(i int, table *goquery.Selection) bool {
		docIdx, typeIdx := -1, -1
		table.Find("tr").EachWithBreak(func(j int, row *goquery.Selection) bool {
			headers := row.Find("th")
			if headers.Length() > 0 {
				headers.Each(func(k int, th *goquery.Selection) {
					switch strings.ToLower(strings.TrimSpace(th.Text())) {
					case "document":
						docIdx = k
					case "type":
						typeIdx = k
					}
				})
				return true
			}

			cells := row.Find("td")
			if docIdx < 0 || typeIdx < 0 || cells.Length() <= max(docIdx, typeIdx) {
				return true
			}
			if strings.TrimSpace(cells.Eq(typeIdx).Text()) != form {
				return true
			}

			docCell := cells.Eq(docIdx)
			link := docCell.Find("a").First()
			if href, ok := link.Attr("href"); ok {
				name = strings.TrimSpace(link.Text())
				url = c.normalizeDocumentHref(href)
			} else {
				// Raw text cell: recover the document filename.
				text := strings.TrimSpace(docCell.Text())
				if before, _, found := strings.Cut(text, ".htm"); found {
					name = before + ".htm"
				} else if fields := strings.Fields(text); len(fields) > 0 {
					name = fields[0]
				}
			}
			return false
		})
		return name == "" // keep scanning tables until a document row matched
	})
	return name, url
}

// normalizeDocumentHref applies the viewer-marker and absolute-path rules.
func (c *Client) normalizeDocumentHref(href string) string {
	href = strings.TrimPrefix(href, "/ix?doc=")
	if strings.HasPrefix(href, "/") {
		return c.baseURL + href
	}
	return href
}

// ListFilingsInRange composes listing and detail resolution across all
// requested form types, de-duplicating by accession number so a filing
// matched by multiple type queries is resolved once. This is the single
// discovery entry point the orchestrator calls.
func (c *Client) ListFilingsInRange(cik, startDate, endDate string, forms []string) map[string]FilingDetail {
	filings := make(map[string]FilingDetail)
	for _, form := range forms {
		for _, candidate := range c.ListCandidates(cik, form, startDate, endDate) {
			if _, seen := filings[candidate.Accession]; seen {
				continue
			}
			detail, err := c.ResolveDetails(cik, candidate.Accession, form)
			if err != nil {
				log.Printf("[EDGAR] could not resolve filing %s: %v", candidate.Accession, err)
				continue
			}
			detail.FilingDate = candidate.FilingDate
			filings[candidate.Accession] = *detail
		}
	}
	return filings
}
