package text

import (
	"sort"
	"strings"
)

// ExtractCodes scans raw (non-lowercased) text with the same patterns as the
// normalizer and returns the set of canonical codes found, sorted for
// determinism. Unlike tokenization this is set semantics: a code counts
// once no matter how often it appears.
func ExtractCodes(s string) []string {
	if s == "" {
		return nil
	}
	seen := make(map[string]struct{})

	for _, m := range sopNumPattern.FindAllStringSubmatch(s, -1) {
		seen["QD-SOP-"+padCode(m[1])] = struct{}{}
	}
	// Looser SOP forms (alphanumeric suffix) are kept verbatim, uppercased
	// so matching is case-insensitive.
	for _, m := range sopFullPattern.FindAllString(s, -1) {
		seen[strings.ToUpper(m)] = struct{}{}
	}
	for _, m := range nLinePattern.FindAllStringSubmatch(s, -1) {
		seen["N"+m[1]+"-"+m[2]] = struct{}{}
	}
	if idrPattern.MatchString(s) {
		seen["IDR"] = struct{}{}
	}

	if len(seen) == 0 {
		return nil
	}
	out := make([]string, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// IsProcedureCode reports whether a canonical code is a procedure code or
// the inspection-report marker. These are the codes the reranker treats as
// an exact-match flag.
func IsProcedureCode(code string) bool {
	return strings.HasPrefix(code, "QD-SOP-") || code == "IDR"
}
