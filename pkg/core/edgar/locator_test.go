package edgar

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

// listingPage builds a tableFile2 listing from (type, accession, date) rows.
func listingPage(rows [][3]string) string {
	body := `<html><body><table class="tableFile2"><tr><th>Filings</th><th>Format</th><th>Description</th><th>Date</th><th>File Number</th></tr>`
	for _, row := range rows {
		body += fmt.Sprintf(
			`<tr><td>%s</td><td>Documents</td><td>Annual report Acc-no: %s (34 Act)</td><td>%s</td><td>001-00001</td></tr>`,
			row[0], row[1], row[2])
	}
	return body + `</table></body></html>`
}

const indexPage = `<html><body>
<div class="formContent">
  <div class="infoHead">Filing Date</div><div class="info">2024-02-15</div>
  <div class="infoHead">Period of Report</div><div class="info">2023-12-31</div>
</div>
<table class="tableFile">
  <tr><th>Seq</th><th>Description</th><th>Document</th><th>Type</th><th>Size</th></tr>
  <tr><td>1</td><td>Amended annual report</td><td><a href="/ix?doc=/Archives/edgar/data/34088/000003408824000010/xom-10ka.htm">xom-10ka.htm</a></td><td>10-K/A</td><td>100</td></tr>
  <tr><td>2</td><td>Annual report</td><td><a href="/ix?doc=/Archives/edgar/data/34088/000003408824000010/xom-10k.htm">xom-10k.htm</a></td><td>10-K</td><td>9000000</td></tr>
</table>
</body></html>`

func TestListCandidates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(listingPage([][3]string{
			{"10-K", "0000034088-24-000010", "2024-02-15"},
			{"10-K", "0000034088-23-000009", "2023-02-16"},
			{"10-K", "0000034088-22-000008", "2022-02-17"},
		})))
	}))
	defer server.Close()

	client := NewClientWithBase(server.URL, "test-agent")

	tests := []struct {
		name       string
		start, end string
		want       []string
	}{
		{"all in range", "2022-01-01", "2024-12-31",
			[]string{"0000034088-24-000010", "0000034088-23-000009", "0000034088-22-000008"}},
		{"inclusive boundaries", "2023-02-16", "2024-02-15",
			[]string{"0000034088-24-000010", "0000034088-23-000009"}},
		{"narrow window", "2023-01-01", "2023-12-31",
			[]string{"0000034088-23-000009"}},
		{"nothing in range", "2019-01-01", "2019-12-31", nil},
		{"inverted range", "2024-12-31", "2022-01-01", nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := client.ListCandidates("0000034088", "10-K", tc.start, tc.end)
			if len(got) != len(tc.want) {
				t.Fatalf("got %d candidates, want %d: %+v", len(got), len(tc.want), got)
			}
			for i, acc := range tc.want {
				if got[i].Accession != acc {
					t.Errorf("candidate %d accession = %q, want %q", i, got[i].Accession, acc)
				}
				if got[i].Form != "10-K" {
					t.Errorf("candidate %d form = %q, want 10-K", i, got[i].Form)
				}
			}
		})
	}
}

func TestListCandidates_SkipsMalformedRows(t *testing.T) {
	body := `<html><body><table class="tableFile2">
<tr><th>Filings</th><th>Format</th><th>Description</th><th>Date</th><th>File Number</th></tr>
<tr><td>10-K</td><td>Documents</td><td>no accession here</td><td>2024-02-15</td><td>x</td></tr>
<tr><td>10-K</td><td>Documents</td><td>Acc-no: 0000034088-24-000011</td><td>not-a-date</td><td>x</td></tr>
<tr><td>10-K</td><td>short row</td></tr>
<tr><td>10-K</td><td>Documents</td><td>Acc-no: 0000034088-24-000012 (34 Act)</td><td>2024-03-01</td><td>x</td></tr>
</table></body></html>`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	}))
	defer server.Close()

	client := NewClientWithBase(server.URL, "test-agent")
	got := client.ListCandidates("0000034088", "10-K", "2024-01-01", "2024-12-31")
	if len(got) != 1 {
		t.Fatalf("got %d candidates, want 1: %+v", len(got), got)
	}
	if got[0].Accession != "0000034088-24-000012" {
		t.Errorf("accession = %q", got[0].Accession)
	}
}

func TestListCandidates_FetchFailureYieldsEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClientWithBase(server.URL, "test-agent")
	if got := client.ListCandidates("0000034088", "10-K", "2024-01-01", "2024-12-31"); len(got) != 0 {
		t.Errorf("expected no candidates on fetch failure, got %+v", got)
	}
}

func TestResolveDetails(t *testing.T) {
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/Archives/edgar/data/34088/000003408824000010/0000034088-24-000010-index.htm" {
			w.Write([]byte(indexPage))
			return
		}
		http.NotFound(w, r)
	}))
	defer server.Close()

	client := NewClientWithBase(server.URL, "test-agent")
	detail, err := client.ResolveDetails("0000034088", "0000034088-24-000010", "10-K")
	if err != nil {
		t.Fatalf("ResolveDetails: %v", err)
	}

	if detail.PeriodEnd != "2023-12-31" {
		t.Errorf("period end = %q, want 2023-12-31", detail.PeriodEnd)
	}
	if detail.DocumentName != "xom-10k.htm" {
		t.Errorf("document = %q, want xom-10k.htm (amended 10-K/A must not match)", detail.DocumentName)
	}
	wantURL := server.URL + "/Archives/edgar/data/34088/000003408824000010/xom-10k.htm"
	if detail.URL != wantURL {
		t.Errorf("url = %q, want %q", detail.URL, wantURL)
	}
}

func TestResolveDetails_RawTextFallbackURL(t *testing.T) {
	page := `<html><body>
<div class="infoHead">Period of Report</div><div class="info">2023-12-31</div>
<table>
  <tr><th>Seq</th><th>Document</th><th>Type</th></tr>
  <tr><td>1</td><td>xom-10k.htm (main document)</td><td>10-K</td></tr>
</table>
</body></html>`
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(page))
	}))
	defer server.Close()

	client := NewClientWithBase(server.URL, "test-agent")
	detail, err := client.ResolveDetails("0000034088", "0000034088-24-000010", "10-K")
	if err != nil {
		t.Fatalf("ResolveDetails: %v", err)
	}
	wantURL := server.URL + "/Archives/edgar/data/34088/000003408824000010/xom-10k.htm"
	if detail.URL != wantURL {
		t.Errorf("fallback url = %q, want %q", detail.URL, wantURL)
	}
}

func TestResolveDetails_MissingPiecesAreNotFound(t *testing.T) {
	tests := []struct {
		name string
		page string
	}{
		{"no period of report", `<html><body><table>
<tr><th>Document</th><th>Type</th></tr>
<tr><td><a href="doc.htm">doc.htm</a></td><td>10-K</td></tr>
</table></body></html>`},
		{"no matching document", `<html><body>
<div class="infoHead">Period of Report</div><div class="info">2023-12-31</div>
<table><tr><th>Document</th><th>Type</th></tr>
<tr><td><a href="doc.htm">doc.htm</a></td><td>8-K</td></tr>
</table></body></html>`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tc.page))
			}))
			defer server.Close()

			client := NewClientWithBase(server.URL, "test-agent")
			_, err := client.ResolveDetails("0000034088", "0000034088-24-000010", "10-K")
			if !errors.Is(err, ErrNotFound) {
				t.Fatalf("expected ErrNotFound, got %v", err)
			}
		})
	}
}

func TestListFilingsInRange_DeduplicatesByAccession(t *testing.T) {
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/cgi-bin/browse-edgar":
			// Same accession appears under both requested types.
			form := r.URL.Query().Get("type")
			w.Write([]byte(listingPage([][3]string{
				{form, "0000034088-24-000010", "2024-02-15"},
			})))
		default:
			w.Write([]byte(indexPage))
		}
	}))
	defer server.Close()

	client := NewClientWithBase(server.URL, "test-agent")
	filings := client.ListFilingsInRange("0000034088", "2024-01-01", "2024-12-31", []string{"10-K", "10-Q"})
	if len(filings) != 1 {
		t.Fatalf("got %d filings, want 1: %+v", len(filings), filings)
	}
	detail, ok := filings["0000034088-24-000010"]
	if !ok {
		t.Fatal("expected filing keyed by accession")
	}
	if detail.FilingDate != "2024-02-15" {
		t.Errorf("filing date = %q, want 2024-02-15", detail.FilingDate)
	}
}
