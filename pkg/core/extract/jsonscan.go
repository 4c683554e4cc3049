package extract

import (
	"encoding/json"
	"strings"

	jsonrepair "github.com/RealAlexandreAI/json-repair"
	hjson "github.com/hjson/hjson-go/v4"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// ExtractJSON recovers a JSON object from free-form model output using a
// layered strategy, most literal first:
//
//  1. parse the whole response
//  2. parse each fenced code block (models often wrap JSON in ``` fences)
//  3. parse each maximal brace-balanced span found by a depth scanner
//  4. repair the whole response with json-repair, then parse
//  5. parse the whole response as Hjson (most lenient)
//
// The first parse yielding an object that contains every required key wins.
// With no required keys, any object parse wins.
func ExtractJSON(response string, requiredKeys []string) (map[string]interface{}, bool) {
	response = strings.TrimSpace(response)
	if response == "" {
		return nil, false
	}

	if data, ok := tryParse(response, requiredKeys); ok {
		return data, true
	}

	for _, block := range fencedBlocks(response) {
		if data, ok := tryParse(block, requiredKeys); ok {
			return data, true
		}
	}

	for _, span := range balancedSpans(response) {
		if data, ok := tryParse(span, requiredKeys); ok {
			return data, true
		}
	}

	if repaired, err := jsonrepair.RepairJSON(response); err == nil {
		if data, ok := tryParse(repaired, requiredKeys); ok {
			return data, true
		}
	}

	var loose map[string]interface{}
	if err := hjson.Unmarshal([]byte(response), &loose); err == nil {
		if hasKeys(loose, requiredKeys) {
			return loose, true
		}
	}

	return nil, false
}

func tryParse(candidate string, requiredKeys []string) (map[string]interface{}, bool) {
	var data map[string]interface{}
	if err := json.Unmarshal([]byte(candidate), &data); err != nil {
		return nil, false
	}
	if !hasKeys(data, requiredKeys) {
		return nil, false
	}
	return data, true
}

func hasKeys(data map[string]interface{}, keys []string) bool {
	for _, key := range keys {
		if _, ok := data[key]; !ok {
			return false
		}
	}
	return true
}

// fencedBlocks returns the contents of markdown fenced code blocks in order.
func fencedBlocks(response string) []string {
	source := []byte(response)
	doc := goldmark.DefaultParser().Parse(text.NewReader(source))

	var blocks []string
	ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if fenced, ok := n.(*ast.FencedCodeBlock); ok {
			var sb strings.Builder
			lines := fenced.Lines()
			for i := 0; i < lines.Len(); i++ {
				seg := lines.At(i)
				sb.Write(seg.Value(source))
			}
			blocks = append(blocks, sb.String())
		}
		return ast.WalkContinue, nil
	})
	return blocks
}

// balancedSpans walks the text tracking brace depth and emits each maximal
// balanced {...} span in order of appearance. Braces inside JSON string
// literals are ignored. This replaces regex scanning, which cannot handle
// arbitrary nesting.
func balancedSpans(response string) []string {
	var spans []string
	depth := 0
	start := -1
	inString := false
	escaped := false

	for i, r := range response {
		if inString {
			switch {
			case escaped:
				escaped = false
			case r == '\\':
				escaped = true
			case r == '"':
				inString = false
			}
			continue
		}

		switch r {
		case '"':
			if depth > 0 {
				inString = true
			}
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth == 0 {
				continue // stray closer outside any span
			}
			depth--
			if depth == 0 && start >= 0 {
				spans = append(spans, response[start:i+1])
				start = -1
			}
		}
	}
	return spans
}
