// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package localdocs

import (
	"regexp"
	"strings"
)

var tokenPattern = regexp.MustCompile(`\w+`)

// queryTokens returns the distinct lowercased tokens of a query.
func queryTokens(query string) map[string]bool {
	tokens := make(map[string]bool)
	for _, t := range tokenPattern.FindAllString(strings.ToLower(query), -1) {
		tokens[t] = true
	}
	return tokens
}

// scoreChunk is the fraction of query tokens that appear in the chunk.
// The only contract is monotonicity (higher = more relevant) and
// determinism for a fixed query and chunk.
func scoreChunk(qTokens map[string]bool, text string) float64 {
	if len(qTokens) == 0 {
		return 0
	}
	present := make(map[string]bool)
	for _, t := range tokenPattern.FindAllString(strings.ToLower(text), -1) {
		if qTokens[t] {
			present[t] = true
		}
	}
	return float64(len(present)) / float64(len(qTokens))
}
