// Package text provides domain normalization, tokenization and structured
// code extraction for the bilingual (FR/EN) regulated-document corpus.
//
// Every piece of text the engine compares — chunk content, filenames and
// incoming queries — goes through the same Normalize function, so procedure
// codes match regardless of how they were typed ("SOP 38904", "QD-SOP38904"
// and "QD-SOP-038904" all canonicalize to the same form).
package text

import (
	"regexp"
	"strings"
)

// Compiled once at package init. The patterns mirror the document
// conventions of the corpus:
//
//   - procedure codes:        optional "QD-" prefix + "SOP" + 4-7 digits
//   - loose procedure codes:  "SOP" + alphanumeric suffix (left as-is)
//   - line codes:             4 digits starting with 1 or 2 + one-digit suffix
//   - inspection reports:     "IDR" in any dotted/spaced variant
var (
	sopNumPattern  = regexp.MustCompile(`(?i)\b(?:QD-?)?SOP[-\s]?(\d{4,7})\b`)
	sopFullPattern = regexp.MustCompile(`(?i)\b(?:QD-?)?SOP[-\s]?[A-Z0-9\-]{3,}\b`)
	nLinePattern   = regexp.MustCompile(`(?i)\bN?\s*([12]\d{3})\s*(?:-|_|\s)?\s*(\d)\b`)
	idrPattern     = regexp.MustCompile(`(?i)\bI\.?D\.?R\b\.?`)
	wsPattern      = regexp.MustCompile(`\s+`)
)

// NormalizeCodes rewrites every recognized code in s to its canonical form:
// "QD-SOP-NNNNNN" (zero-padded 6-digit body), "N<base>-<suffix>" line codes
// and the fixed "IDR" marker. Idempotent: canonical codes map to themselves.
func NormalizeCodes(s string) string {
	t := sopNumPattern.ReplaceAllStringFunc(s, func(m string) string {
		num := sopNumPattern.FindStringSubmatch(m)[1]
		return "QD-SOP-" + padCode(num)
	})
	t = nLinePattern.ReplaceAllString(t, "N$1-$2")
	t = idrPattern.ReplaceAllString(t, "IDR")
	return t
}

// padCode zero-pads a code body to 6 digits. 7-digit bodies are kept as-is.
func padCode(num string) string {
	if len(num) >= 6 {
		return num
	}
	return strings.Repeat("0", 6-len(num)) + num
}

// Normalize canonicalizes arbitrary text: non-breaking spaces become regular
// spaces, codes are rewritten to canonical form, accented characters fold to
// base Latin letters, everything is lowercased and whitespace runs collapse
// to single spaces. Pure and deterministic; applied identically to indexed
// content, filenames and queries.
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	s = strings.ReplaceAll(s, " ", " ")
	s = NormalizeCodes(s)
	s = foldAccents(s)
	s = strings.ToLower(s)
	s = wsPattern.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// accentFold maps accented Latin-1/Latin Extended runes to their base
// letters. The corpus is FR/EN so this fixed table covers it.
var accentFold = map[rune]string{
	'à': "a", 'á': "a", 'â': "a", 'ä': "a", 'ã': "a", 'å': "a",
	'è': "e", 'é': "e", 'ê': "e", 'ë': "e",
	'ì': "i", 'í': "i", 'î': "i", 'ï': "i",
	'ò': "o", 'ó': "o", 'ô': "o", 'ö': "o", 'õ': "o",
	'ù': "u", 'ú': "u", 'û': "u", 'ü': "u",
	'ç': "c", 'ñ': "n", 'ý': "y", 'ÿ': "y",
	'œ': "oe", 'æ': "ae",
	'À': "A", 'Á': "A", 'Â': "A", 'Ä': "A", 'Ã': "A", 'Å': "A",
	'È': "E", 'É': "E", 'Ê': "E", 'Ë': "E",
	'Ì': "I", 'Í': "I", 'Î': "I", 'Ï': "I",
	'Ò': "O", 'Ó': "O", 'Ô': "O", 'Ö': "O", 'Õ': "O",
	'Ù': "U", 'Ú': "U", 'Û': "U", 'Ü': "U",
	'Ç': "C", 'Ñ': "N", 'Ý': "Y",
	'Œ': "OE", 'Æ': "AE",
}

func foldAccents(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if repl, ok := accentFold[r]; ok {
			b.WriteString(repl)
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// HasAccents reports whether s contains any accented character from the
// folding table. Used by the language guesser as a French hint.
func HasAccents(s string) bool {
	for _, r := range s {
		if _, ok := accentFold[r]; ok {
			return true
		}
	}
	return false
}
