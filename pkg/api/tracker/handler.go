// Package tracker exposes the pipeline operations over HTTP for the
// external front-end: company management, filing discovery, extraction,
// and the reserve life series. Responses are plain data so any client can
// render them.
package tracker

import (
	"encoding/json"
	"net/http"
	"sort"
	"strings"

	"reservelife/pkg/core/pipeline"
	"reservelife/pkg/models"
)

// Handler serves the tracker API.
type Handler struct {
	orchestrator *pipeline.Orchestrator
}

// NewHandler creates a handler over an orchestrator.
func NewHandler(orchestrator *pipeline.Orchestrator) *Handler {
	return &Handler{orchestrator: orchestrator}
}

// Register attaches all routes to a mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/companies", h.HandleListCompanies)
	mux.HandleFunc("/api/companies/add", h.HandleAddCompany)
	mux.HandleFunc("/api/companies/remove", h.HandleRemoveCompanies)
	mux.HandleFunc("/api/filings/update", h.HandleUpdateFilings)
	mux.HandleFunc("/api/extract/bulk", h.HandleBulkExtract)
	mux.HandleFunc("/api/extract/single", h.HandleExtractSingle)
	mux.HandleFunc("/api/extract/log", h.HandleExtractionLog)
	mux.HandleFunc("/api/reservelife", h.HandleReserveLife)
}

// statusResponse is the generic operation reply.
type statusResponse struct {
	Status  string `json:"status"` // "ok" or "error"
	Message string `json:"message"`
}

func writeCORS(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	w.Header().Set("Content-Type", "application/json")
}

// guard handles CORS preflight and method enforcement. Returns false when
// the request was already answered.
func guard(w http.ResponseWriter, r *http.Request, method string) bool {
	writeCORS(w)
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return false
	}
	if r.Method != method {
		writeStatus(w, http.StatusMethodNotAllowed, "method not allowed")
		return false
	}
	return true
}

func writeStatus(w http.ResponseWriter, code int, message string) {
	w.WriteHeader(code)
	status := "ok"
	if code >= 400 {
		status = "error"
	}
	json.NewEncoder(w).Encode(statusResponse{Status: status, Message: message})
}

// HandleListCompanies handles GET /api/companies.
func (h *Handler) HandleListCompanies(w http.ResponseWriter, r *http.Request) {
	if !guard(w, r, http.MethodGet) {
		return
	}

	companies := h.orchestrator.Store().Companies()

	type companyView struct {
		Info        models.CompanyInfo    `json:"info"`
		FilingCount int                   `json:"filing_count"`
		Filings     map[string]filingView `json:"filings"`
	}

	view := make(map[string]companyView, len(companies))
	for ticker, rec := range companies {
		filings := make(map[string]filingView, len(rec.Filings))
		for accession, filing := range rec.Filings {
			filings[accession] = newFilingView(filing)
		}
		view[ticker] = companyView{
			Info:        rec.Info,
			FilingCount: len(rec.Filings),
			Filings:     filings,
		}
	}
	json.NewEncoder(w).Encode(view)
}

// filingView is a filing without its extraction log, which can be large
// and has its own endpoint.
type filingView struct {
	Form       string                 `json:"type"`
	FilingDate string                 `json:"filing_date"`
	PeriodEnd  string                 `json:"period_end"`
	URL        string                 `json:"url"`
	Attempted  bool                   `json:"attempted"`
	Extracted  *models.ExtractedFacts `json:"extracted_data,omitempty"`
}

func newFilingView(filing models.FilingRecord) filingView {
	return filingView{
		Form:       filing.Form,
		FilingDate: filing.FilingDate,
		PeriodEnd:  filing.PeriodEnd,
		URL:        filing.URL,
		Attempted:  filing.Attempted(),
		Extracted:  filing.Extracted,
	}
}

// HandleAddCompany handles POST /api/companies/add.
func (h *Handler) HandleAddCompany(w http.ResponseWriter, r *http.Request) {
	if !guard(w, r, http.MethodPost) {
		return
	}

	var req struct {
		Ticker string `json:"ticker"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeStatus(w, http.StatusBadRequest, "invalid request body")
		return
	}

	msg, err := h.orchestrator.AddCompany(r.Context(), req.Ticker)
	if err != nil {
		writeStatus(w, http.StatusNotFound, err.Error())
		return
	}
	writeStatus(w, http.StatusOK, msg)
}

// HandleRemoveCompanies handles POST /api/companies/remove.
func (h *Handler) HandleRemoveCompanies(w http.ResponseWriter, r *http.Request) {
	if !guard(w, r, http.MethodPost) {
		return
	}

	var req struct {
		Tickers []string `json:"tickers"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeStatus(w, http.StatusBadRequest, "invalid request body")
		return
	}

	msg := h.orchestrator.RemoveCompanies(r.Context(), req.Tickers)
	writeStatus(w, http.StatusOK, msg)
}

// HandleUpdateFilings handles POST /api/filings/update.
func (h *Handler) HandleUpdateFilings(w http.ResponseWriter, r *http.Request) {
	if !guard(w, r, http.MethodPost) {
		return
	}

	var req struct {
		StartDate string   `json:"start_date"`
		EndDate   string   `json:"end_date"`
		Forms     []string `json:"filing_types"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeStatus(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Forms) == 0 {
		req.Forms = []string{"10-K", "10-Q"}
	}

	msg, err := h.orchestrator.UpdateFilings(r.Context(), req.StartDate, req.EndDate, req.Forms)
	if err != nil {
		writeStatus(w, http.StatusBadRequest, err.Error())
		return
	}
	writeStatus(w, http.StatusOK, msg)
}

// HandleBulkExtract handles POST /api/extract/bulk.
func (h *Handler) HandleBulkExtract(w http.ResponseWriter, r *http.Request) {
	if !guard(w, r, http.MethodPost) {
		return
	}

	msg, err := h.orchestrator.BulkExtract(r.Context())
	if err != nil {
		writeStatus(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeStatus(w, http.StatusOK, msg)
}

// HandleExtractSingle handles POST /api/extract/single.
func (h *Handler) HandleExtractSingle(w http.ResponseWriter, r *http.Request) {
	if !guard(w, r, http.MethodPost) {
		return
	}

	var req struct {
		Ticker    string `json:"ticker"`
		Accession string `json:"accession"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeStatus(w, http.StatusBadRequest, "invalid request body")
		return
	}

	msg, err := h.orchestrator.ExtractSingle(r.Context(), req.Ticker, req.Accession)
	if err != nil {
		writeStatus(w, http.StatusNotFound, err.Error())
		return
	}
	writeStatus(w, http.StatusOK, msg)
}

// HandleExtractionLog handles GET /api/extract/log?ticker=X&accession=Y.
func (h *Handler) HandleExtractionLog(w http.ResponseWriter, r *http.Request) {
	if !guard(w, r, http.MethodGet) {
		return
	}

	ticker := r.URL.Query().Get("ticker")
	accession := r.URL.Query().Get("accession")

	rec, ok := h.orchestrator.Store().Get(ticker)
	if !ok {
		writeStatus(w, http.StatusNotFound, "company not found")
		return
	}
	filing, ok := rec.Filings[accession]
	if !ok {
		writeStatus(w, http.StatusNotFound, "filing not found")
		return
	}

	json.NewEncoder(w).Encode(struct {
		Ticker    string `json:"ticker"`
		Accession string `json:"accession"`
		Log       string `json:"log"`
	}{ticker, accession, filing.ExtractionLog})
}

// HandleReserveLife handles GET /api/reservelife?tickers=A,B. With no
// tickers parameter the series covers every company in the store.
func (h *Handler) HandleReserveLife(w http.ResponseWriter, r *http.Request) {
	if !guard(w, r, http.MethodGet) {
		return
	}

	var tickers []string
	if raw := r.URL.Query().Get("tickers"); raw != "" {
		tickers = splitTickers(raw)
	} else {
		tickers = h.orchestrator.Store().Tickers()
		sort.Strings(tickers)
	}

	json.NewEncoder(w).Encode(h.orchestrator.ReserveLifeSeries(tickers))
}

func splitTickers(raw string) []string {
	var tickers []string
	for _, part := range strings.Split(raw, ",") {
		if t := strings.ToUpper(strings.TrimSpace(part)); t != "" {
			tickers = append(tickers, t)
		}
	}
	return tickers
}
