package text

import (
	"regexp"
	"strings"
)

// tokenPattern matches maximal runs of lowercase letters, digits and the
// separator characters that appear inside document codes and filenames.
var tokenPattern = regexp.MustCompile(`[a-z0-9\-_/\.]+`)

// Tokenize splits text into tokens after normalization. Order is preserved
// and duplicates are kept: the ranking structures need bag semantics, not
// set semantics.
func Tokenize(s string) []string {
	return tokenPattern.FindAllString(Normalize(s), -1)
}

// SplitNegative separates exclusion tokens from positive ones. A token
// prefixed with '-' is an exclusion signal for filename matching: it is
// stripped from positive matching and penalizes filenames containing it.
func SplitNegative(tokens []string) (positive, negative []string) {
	for _, t := range tokens {
		if strings.HasPrefix(t, "-") && len(t) > 1 {
			negative = append(negative, t[1:])
		} else if !strings.HasPrefix(t, "-") {
			positive = append(positive, t)
		}
	}
	return positive, negative
}
