package pipeline

import (
	"sort"
	"time"
)

// ReservePoint is one plottable observation: a filing whose two facts are
// both valid, dated by the fiscal period it describes rather than the
// filing date.
type ReservePoint struct {
	PeriodEnd        string  `json:"period_end"`
	ProvedReserves   float64 `json:"proved_reserves"`
	AnnualProduction float64 `json:"annual_production"`
	ReserveLife      float64 `json:"reserve_life"`
	Form             string  `json:"filing_type"`
	Accession        string  `json:"accession"`
}

// ReserveLifeSeries builds the reserve life time series for the requested
// tickers. Filings with missing or partial facts, or an unparseable
// period end, are silently omitted; a ticker with no usable filings maps
// to an empty slice.
func (o *Orchestrator) ReserveLifeSeries(tickers []string) map[string][]ReservePoint {
	series := make(map[string][]ReservePoint, len(tickers))

	for _, ticker := range tickers {
		rec, ok := o.store.Get(ticker)
		if !ok {
			continue
		}

		points := make([]ReservePoint, 0, len(rec.Filings))
		for accession, filing := range rec.Filings {
			if filing.Extracted == nil || !filing.Extracted.Valid() {
				continue
			}
			if _, err := time.Parse(dateLayout, filing.PeriodEnd); err != nil {
				continue
			}

			life, _ := filing.Extracted.ReserveLife()
			reserves, _ := filing.Extracted.ProvedReserves.Float()
			production, _ := filing.Extracted.AnnualProduction.Float()

			points = append(points, ReservePoint{
				PeriodEnd:        filing.PeriodEnd,
				ProvedReserves:   reserves,
				AnnualProduction: production,
				ReserveLife:      life,
				Form:             filing.Form,
				Accession:        accession,
			})
		}

		sort.Slice(points, func(i, j int) bool {
			return points[i].PeriodEnd < points[j].PeriodEnd
		})
		series[ticker] = points
	}

	return series
}
