package extract

import "fmt"

// Required keys in the model's JSON reply.
const (
	keyProvedReserves   = "proved_reserves"
	keyAnnualProduction = "annual_production"
)

// BuildPrompt embeds both excerpts verbatim into a single extraction
// prompt. The instructions pin down the output shape (strict two-key JSON),
// the unit conversions, and null for facts the model cannot find.
func BuildPrompt(reservesContent, productionContent string) string {
	combined := fmt.Sprintf(`=== CRUDE OIL RESERVES DATA ===
%s

=== CRUDE OIL PRODUCTION DATA ===
%s
`, reservesContent, productionContent)

	return fmt.Sprintf(`Extract oil data from this SEC filing content. Return JSON with exact format:
{"proved_reserves": <number>, "annual_production": <number>}

SEARCH FOR:
1. CRUDE OIL PROVED RESERVES (barrels) - total proved reserves
2. ANNUAL CRUDE OIL PRODUCTION (barrels/year) - convert daily to annual if needed

CONVERSION RULES:
- Million barrels (MM, MMBbl) = x1,000,000
- Billion barrels (B, BBbl) = x1,000,000,000
- Thousand barrels/day (MBD, MBPD) = x1,000x365 for annual
- Barrels/day (BPD, bbl/d) = x365 for annual

Return null if not found.

SEC FILING CONTENT:
%s`, combined)
}
