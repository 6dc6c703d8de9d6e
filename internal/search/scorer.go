package search

import (
	"math"
	"strings"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"

	"github.com/askveeva/deepsearch/internal/index"
	"github.com/askveeva/deepsearch/internal/text"
)

// Fusion weights. The three retrieval signals are z-standardized before
// weighting so their scales cannot drown each other; the boost signals are
// already on an absolute scale and enter raw.
const (
	weightBM25  = 0.60
	weightWord  = 0.56
	weightChar  = 0.22
	weightFuzzy = 0.50
)

// Filename-match and code-match boosts.
const (
	fnameTokenBoost = 0.12
	fnameTokenCap   = 0.50
	negTokenPenalty = 0.25

	codeExactBoost = 1.25
	codeFuzzyBoost = 0.70
	codeFuzzyMin   = 90

	fuzzyTierHigh = 0.45
	fuzzyTierMid  = 0.25
	fuzzyTierLow  = 0.12
	fuzzyQueryMin = 5

	roleSectorBoost = 0.06

	intentGeneralBoost  = 0.35
	intentSpecificMalus = 0.15
	intentSpecificBoost = 0.12
	intentSOPBoost      = 0.25
)

// signals holds the six dense per-chunk score arrays of one query.
type signals struct {
	bm    []float64
	word  []float64
	char  []float64
	fname []float64
	code  []float64
	fuzzy []float64
}

// signalArrays computes the six raw signals for a single query string.
func signalArrays(snap *index.Snapshot, q string) signals {
	n := snap.Len()
	s := signals{
		bm:    make([]float64, n),
		word:  make([]float64, n),
		char:  make([]float64, n),
		fname: make([]float64, n),
		code:  make([]float64, n),
		fuzzy: make([]float64, n),
	}
	if n == 0 {
		return s
	}

	qn := text.Normalize(q)
	qTokens, negTokens := text.SplitNegative(text.Tokenize(q))
	qCodes := text.ExtractCodes(q)

	if snap.BM25 != nil && len(qTokens) > 0 {
		s.bm = snap.BM25.Scores(qTokens)
	}
	if snap.WordVec != nil {
		s.word = snap.WordVec.Similarities(snap.WordVec.Transform(qn))
	}
	if snap.CharVec != nil {
		s.char = snap.CharVec.Similarities(snap.CharVec.Transform(qn))
	}

	qset := make(map[string]bool, len(qTokens))
	for _, t := range qTokens {
		qset[t] = true
	}
	for i, ft := range snap.FileTokens {
		if len(ft) == 0 {
			continue
		}
		var inter int
		for _, t := range ft {
			if qset[t] {
				inter++
			}
		}
		if inter > 0 {
			s.fname[i] += math.Min(fnameTokenCap, fnameTokenBoost*float64(inter))
		}
		lowfname := strings.Join(ft, " ")
		for kw, b := range keywordBoosts {
			if strings.Contains(lowfname, kw) {
				s.fname[i] += b
			}
		}
		for _, nt := range negTokens {
			if nt != "" && strings.Contains(lowfname, nt) {
				s.fname[i] -= negTokenPenalty
			}
		}
	}

	for i, codes := range snap.Codes {
		if len(codes) == 0 {
			continue
		}
		for _, qc := range qCodes {
			if containsString(codes, qc) {
				s.code[i] += codeExactBoost
				continue
			}
			for _, c := range codes {
				if fuzzy.Ratio(strings.ToLower(qc), strings.ToLower(c)) >= codeFuzzyMin {
					s.code[i] += codeFuzzyBoost
					break
				}
			}
		}
	}

	if len(qn) >= fuzzyQueryMin {
		for i, c := range snap.Chunks {
			if c.Filename == "" {
				continue
			}
			switch sc := fuzzy.PartialRatio(qn, text.Normalize(c.Filename)); {
			case sc >= 92:
				s.fuzzy[i] = fuzzyTierHigh
			case sc >= 84:
				s.fuzzy[i] = fuzzyTierMid
			case sc >= 78:
				s.fuzzy[i] = fuzzyTierLow
			}
		}
	}
	return s
}

// zScore standardizes in place using the population deviation; a constant
// array keeps its zero spread instead of dividing by zero.
func zScore(x []float64) []float64 {
	if len(x) == 0 {
		return x
	}
	var mean float64
	for _, v := range x {
		mean += v
	}
	mean /= float64(len(x))
	var variance float64
	for _, v := range x {
		d := v - mean
		variance += d * d
	}
	std := math.Sqrt(variance / float64(len(x)))
	if std == 0 {
		std = 1
	}
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = (v - mean) / std
	}
	return out
}

// fuse combines the six signals into one fused score array.
func fuse(s signals) []float64 {
	bm := zScore(s.bm)
	word := zScore(s.word)
	char := zScore(s.char)
	out := make([]float64, len(bm))
	for i := range out {
		out[i] = weightBM25*bm[i] + weightWord*word[i] + weightChar*char[i] +
			s.fname[i] + s.code[i] + weightFuzzy*s.fuzzy[i]
	}
	return out
}

// scoreHybridSingle scores one query against the whole snapshot: fused
// signals plus the role/sector bias and the query-intent bias.
func scoreHybridSingle(snap *index.Snapshot, q, role, sector string) []float64 {
	preferGlobal, preferSOP := intentFromQuery(q)
	scores := fuse(signalArrays(snap, q))

	rlow := strings.ToLower(role)
	slow := strings.ToLower(sector)
	for i, c := range snap.Chunks {
		fn := strings.ToLower(c.Filename)
		if rlow != "" && strings.Contains(fn, rlow) {
			scores[i] += roleSectorBoost
		}
		if slow != "" && strings.Contains(fn, slow) {
			scores[i] += roleSectorBoost
		}

		if preferGlobal {
			if isGeneralFilename(c.Filename) {
				scores[i] += intentGeneralBoost
			}
			if isSpecificFilename(c.Filename) {
				scores[i] -= intentSpecificMalus
			}
		} else if isSpecificFilename(c.Filename) {
			scores[i] += intentSpecificBoost
		}
		if preferSOP && sopWordPattern.MatchString(text.Normalize(c.Filename)) {
			scores[i] += intentSOPBoost
		}
	}
	return scores
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
