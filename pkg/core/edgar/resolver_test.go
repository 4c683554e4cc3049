package edgar

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

const tickerTable = "aapl\t320193\nxom\t34088\ncvx\t93410\n"

func TestResolveCIK(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/include/ticker.txt" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(tickerTable))
	}))
	defer server.Close()

	client := NewClientWithBase(server.URL, "test-agent")

	tests := []struct {
		name    string
		ticker  string
		want    string
		wantErr bool
	}{
		{"exact match", "xom", "0000034088", false},
		{"case insensitive", "AAPL", "0000320193", false},
		{"surrounding whitespace", " cvx ", "0000093410", false},
		{"unknown ticker", "ZZZZ", "", true},
		{"empty ticker", "", "", true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := client.ResolveCIK(tc.ticker)
			if tc.wantErr {
				if !errors.Is(err, ErrNotFound) {
					t.Fatalf("expected ErrNotFound, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ResolveCIK(%q): %v", tc.ticker, err)
			}
			if got != tc.want {
				t.Errorf("ResolveCIK(%q) = %q, want %q", tc.ticker, got, tc.want)
			}
		})
	}
}

func TestResolveCIK_CachesResults(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.Write([]byte(tickerTable))
	}))
	defer server.Close()

	client := NewClientWithBase(server.URL, "test-agent")

	for i := 0; i < 3; i++ {
		cik, err := client.ResolveCIK("xom")
		if err != nil {
			t.Fatalf("lookup %d: %v", i, err)
		}
		if cik != "0000034088" {
			t.Fatalf("lookup %d: got %q", i, cik)
		}
	}

	if n := requests.Load(); n != 1 {
		t.Errorf("ticker table fetched %d times, want 1", n)
	}
}

func TestResolveCIK_UnreachableSourceIsNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClientWithBase(server.URL, "test-agent")
	if _, err := client.ResolveCIK("xom"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unreachable source, got %v", err)
	}
}

func TestClient_SendsUserAgent(t *testing.T) {
	var gotAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAgent = r.Header.Get("User-Agent")
		w.Write([]byte(tickerTable))
	}))
	defer server.Close()

	client := NewClientWithBase(server.URL, "ReserveLifeTest/1.0 (ops@example.com)")
	if _, err := client.ResolveCIK("xom"); err != nil {
		t.Fatalf("ResolveCIK: %v", err)
	}
	if gotAgent != "ReserveLifeTest/1.0 (ops@example.com)" {
		t.Errorf("User-Agent = %q", gotAgent)
	}
}
