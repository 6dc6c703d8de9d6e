package search

import (
	"strings"

	"github.com/askveeva/deepsearch/internal/text"
)

// predictNextTerms anticipates what the user is likely to ask next: it
// walks the seed vocabulary and keeps terms not already present in the
// question (or the last answer, when the caller has one).
func predictNextTerms(question, lastAnswer string, limit int) []string {
	if limit <= 0 {
		return nil
	}
	n := text.Normalize(question + " " + lastAnswer)
	var out []string
	for _, w := range nextSeedTerms {
		if !strings.Contains(n, text.Normalize(w)) {
			out = append(out, w)
		}
		if len(out) >= limit {
			break
		}
	}
	return out
}
