// Package narrow reduces a raw filing document to the excerpts that
// plausibly discuss oil reserves and production figures. Feeding a whole
// filing (often >1MB) to a language model is wasteful and degrades
// accuracy, so the filter trades recall for precision: an excerpt makes it
// through only when a subject keyword, an oil-unit keyword and a qualifier
// or rate keyword co-occur.
package narrow

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

const (
	// minClassifyLen is the shortest text the keyword classifiers consider.
	minClassifyLen = 20
	// minParagraphLen is the shortest free-text element worth collecting.
	minParagraphLen = 30
	// maxParagraphs caps collected passages per category, bounding the
	// worst-case prompt size. Tables are never capped.
	maxParagraphs = 20
)

var (
	reservesOilTokens   = []string{"oil", "crude", "barrel", "bbl", "mmbbl", "petroleum"}
	productionOilTokens = []string{"oil", "crude", "barrel", "bbl", "bpd", "mbpd", "petroleum"}
	reservesQualifiers  = []string{"proved", "proven", "total"}
	rateTokens          = []string{"day", "daily", "annual", "year", "mbpd", "bpd"}

	noiseSelector = "script, style, nav, footer, header, meta, link, noscript"
	textSelector  = "p, div, span, td, li, th"
)

// HasReservesKeywords reports whether text plausibly discusses proved oil
// reserves: it must mention reserves, an oil unit, and a reserve qualifier.
func HasReservesKeywords(text string) bool {
	if len(text) < minClassifyLen {
		return false
	}
	lower := strings.ToLower(text)
	if !strings.Contains(lower, "reserve") {
		return false
	}
	if !containsAny(lower, reservesOilTokens) {
		return false
	}
	return containsAny(lower, reservesQualifiers)
}

// HasProductionKeywords reports whether text plausibly discusses oil
// production rates: production wording, an oil unit, and a rate or time token.
func HasProductionKeywords(text string) bool {
	if len(text) < minClassifyLen {
		return false
	}
	lower := strings.ToLower(text)
	if !strings.Contains(lower, "production") && !strings.Contains(lower, "produced") {
		return false
	}
	if !containsAny(lower, productionOilTokens) {
		return false
	}
	return containsAny(lower, rateTokens)
}

func containsAny(lower string, tokens []string) bool {
	for _, token := range tokens {
		if strings.Contains(lower, token) {
			return true
		}
	}
	return false
}

func hasDigit(text string) bool {
	return strings.ContainsAny(text, "0123456789")
}

// Narrow strips boilerplate from raw filing HTML and returns the reserves
// and production excerpts: all matching tables followed by up to
// maxParagraphs matching free-text passages per category, in document
// order. Either excerpt may legitimately be empty; that is not an error
// and downstream extraction must handle it.
func Narrow(rawHTML string) (reservesExcerpt, productionExcerpt string, err error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return "", "", fmt.Errorf("failed to parse filing HTML: %w", err)
	}

	doc.Find(noiseSelector).Remove()

	var reservesTables, productionTables []string
	doc.Find("table").Each(func(i int, table *goquery.Selection) {
		flat := flattenText(table, " ")
		if !hasDigit(flat) {
			return
		}
		if HasReservesKeywords(flat) {
			reservesTables = append(reservesTables, serializeTable(i, table))
		}
		if HasProductionKeywords(flat) {
			productionTables = append(productionTables, serializeTable(i, table))
		}
	})

	var reservesParas, productionParas []string
	doc.Find(textSelector).Each(func(i int, elem *goquery.Selection) {
		// Own text plus inline wrappers. Nested container text is
		// excluded here; it is counted when that container is visited.
		text := ownText(elem)
		if len(text) <= minParagraphLen || !hasDigit(text) {
			return
		}
		if len(reservesParas) < maxParagraphs && HasReservesKeywords(text) {
			reservesParas = append(reservesParas, text)
		}
		if len(productionParas) < maxParagraphs && HasProductionKeywords(text) {
			productionParas = append(productionParas, text)
		}
	})

	reservesExcerpt = strings.Join(reservesTables, "") + "\n\n" + strings.Join(reservesParas, "\n")
	productionExcerpt = strings.Join(productionTables, "") + "\n\n" + strings.Join(productionParas, "\n")
	return reservesExcerpt, productionExcerpt, nil
}

// serializeTable renders a matched table with cell separators under a
// sequence index label so the model can tell tables apart.
func serializeTable(index int, table *goquery.Selection) string {
	return fmt.Sprintf("[TABLE %d]\n%s\n\n", index+1, flattenText(table, " | "))
}

// flattenText joins every non-empty text node under sel with sep.
// goquery's Text() concatenates nodes with no separator, which jams
// adjacent table cells together; this keeps them distinguishable.
func flattenText(sel *goquery.Selection, sep string) string {
	var parts []string
	for _, node := range sel.Nodes {
		collectText(node, &parts)
	}
	return strings.Join(parts, sep)
}

func collectText(node *html.Node, parts *[]string) {
	if node.Type == html.TextNode {
		if trimmed := strings.TrimSpace(node.Data); trimmed != "" {
			*parts = append(*parts, trimmed)
		}
		return
	}
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		collectText(child, parts)
	}
}

// containerTags are the elements pass 2 visits on its own. Their subtree
// text is counted when they are visited, never through a parent.
var containerTags = map[string]bool{
	"p": true, "div": true, "span": true, "td": true, "li": true, "th": true,
}

// ownText returns sel's text excluding subtrees of container elements.
// Inline wrappers (font, b, i, a) still contribute their text here: no
// other element ever classifies them.
func ownText(sel *goquery.Selection) string {
	var parts []string
	for _, node := range sel.Nodes {
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			collectOwnText(child, &parts)
		}
	}
	return strings.Join(parts, " ")
}

func collectOwnText(node *html.Node, parts *[]string) {
	switch node.Type {
	case html.TextNode:
		if trimmed := strings.TrimSpace(node.Data); trimmed != "" {
			*parts = append(*parts, trimmed)
		}
	case html.ElementNode:
		if containerTags[node.Data] {
			return
		}
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			collectOwnText(child, parts)
		}
	}
}
