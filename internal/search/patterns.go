package search

import (
	"regexp"
	"strings"

	"github.com/askveeva/deepsearch/internal/text"
)

// keywordBoosts adds a flat filename bonus per domain keyword. Values are
// tuned for the FR/EN pharma-manufacturing corpus: procedure and waste
// vocabulary dominates, equipment nicknames get targeted boosts.
var keywordBoosts = map[string]float64{
	"sop": 0.30, "procédure": 0.25, "procedure": 0.25,
	"déchet": 0.45, "dechet": 0.45, "déchets": 0.45, "waste": 0.35,
	"sécurité": 0.25, "securite": 0.25, "safety": 0.25,
	"maintenance": 0.22, "validation": 0.22, "nettoyage": 0.22, "cleaning": 0.22,
	"checklist": 0.30, "inspection": 0.18, "liste": 0.20, "contrôle": 0.18, "controle": 0.18,
	"idr": 0.55, "format": 0.25, "vignetteuse": 0.40, "neri": 0.20, "notice": 0.18,
	"réglages": 0.22, "reglages": 0.22, "ssol": 0.20, "liq": 0.20, "bulk": 0.15,
	"vfd": 0.45, "variable": 0.12, "frequency": 0.12, "inverter": 0.22, "drive": 0.16,
	"policy": 0.18, "policies": 0.18, "global": 0.12, "site": 0.10, "plant": 0.10,
}

// bilingualPair maps one FR phrase to its EN expansion terms (and back).
// Used only when the synonym table has nothing for the query.
type bilingualPair struct {
	FR string
	EN string
}

var bilingualDefaults = []bilingualPair{
	{"procédure", "procedure standard operating procedure SOP"},
	{"liste de contrôle", "checklist check list inspection list"},
	{"gestion des déchets", "waste management disposal segregation"},
	{"sécurité", "safety EHS HSE"},
	{"maintenance", "maintenance preventive corrective PM"},
	{"nettoyage", "cleaning sanitation washdown"},
	{"validation", "validation IQ OQ PQ"},
	{"format", "setup changeover format settings"},
	{"traçabilité", "traceability genealogy"},
}

// nextSeedTerms is the anticipation vocabulary: broad FR/EN terms a user is
// likely to reach for next. Order matters; earlier terms win the cap.
var nextSeedTerms = []string{
	"que faire", "quoi faire", "je suis perdu", "j'ai besoin d'aide", "help", "how to",
	"procedure/steps", "procédure/étapes", "responsabilités", "responsibilities",
	"enregistrements", "records", "définitions", "definitions", "références", "references",
	"non conformité", "non-conformité", "nc", "déviation", "deviation", "capa", "action corrective",
	"EHS", "HSE", "sécurité", "safety", "IPC", "contrôles", "controls",
	"tolérances", "parameters", "fréquences", "frequencies",
	"validation", "IQ", "OQ", "PQ", "format", "changeover", "traçabilité", "traceability",
	"matériel", "équipements", "equipment", "nettoyage", "cleaning",
}

// Comparison criteria, the section skeleton shared by most procedures.
var criteriaFR = []string{
	"objet/scope", "définitions/références", "pré-requis", "EHS/sécurité",
	"matériel/équipements", "procédure/étapes", "IPC/contrôles",
	"tolérances/paramètres", "fréquences", "responsabilités", "enregistrements",
}

var criteriaEN = []string{
	"scope", "definitions/references", "prerequisites", "EHS/safety",
	"equipment", "procedure/steps", "IPC/controls",
	"tolerances/parameters", "frequencies", "responsibilities", "records",
}

func criteriaForLang(lang string) []string {
	if lang == "en" {
		return criteriaEN
	}
	return criteriaFR
}

// Filename classification over normalized filenames.
var (
	lineNoPattern    = regexp.MustCompile(`\b(91\d{2}|n[12]\d{3}-\d|ligne|line|micro)\b`)
	sopWordPattern   = regexp.MustCompile(`\b(sop|qd-sop)\b`)
	globalPattern    = regexp.MustCompile(`\b(proc(edure|e)|dechet|dechets|waste|global|site|usine|policy|policies)\b`)
	specificPattern  = regexp.MustCompile(`\b(91\d{2}|n[12]\d{3}-\d|ligne|line|micro|neri|vignetteuse)\b`)
	queryCodePattern = regexp.MustCompile(`\b(sop|qd-sop|n[12]\d{3}-\d|idr)\b`)
	accentPattern    = regexp.MustCompile(`[éèàùâêîôûç]`)
)

// isGeneralFilename reports a site-wide document: an SOP or a global-policy
// name with no line number in it.
func isGeneralFilename(fn string) bool {
	f := text.Normalize(fn)
	hasLineNo := lineNoPattern.MatchString(f)
	isSOP := sopWordPattern.MatchString(f)
	hasGlobal := globalPattern.MatchString(f)
	return (isSOP || hasGlobal) && !hasLineNo
}

// isSpecificFilename reports a line- or equipment-scoped document.
func isSpecificFilename(fn string) bool {
	return specificPattern.MatchString(text.Normalize(fn))
}

// intentFromQuery reads two coarse preferences off the query wording:
// global/site documents, and SOP-titled documents.
func intentFromQuery(q string) (preferGlobal, preferSOP bool) {
	n := text.Normalize(q)
	for _, w := range []string{"global", "generale", "générale", "procedure", "procédure", "site", "usine", "policy", "policies"} {
		if strings.Contains(n, w) {
			preferGlobal = true
			break
		}
	}
	for _, w := range []string{"sop", "procédure", "procedure", "qd-sop"} {
		if strings.Contains(n, w) {
			preferSOP = true
			break
		}
	}
	return preferGlobal, preferSOP
}

// Light FR/EN guess. The corpus is FR-first, so ties resolve to FR.
var (
	frHints = []string{" le ", " la ", " les ", " des ", " du ", " de ", " procédure", " déchets", " sécurité", " variateur"}
	enHints = []string{" the ", " and ", " or ", " procedure", " checklist", " safety", " waste", " validation"}
)

func guessLang(q string) string {
	n := " " + text.Normalize(q) + " "
	var fr, en int
	for _, h := range frHints {
		if strings.Contains(n, h) {
			fr++
		}
	}
	if accentPattern.MatchString(q) {
		fr += 2
	}
	for _, h := range enHints {
		if strings.Contains(n, h) {
			en++
		}
	}
	if fr-en >= 2 {
		return "fr"
	}
	if en-fr >= 2 {
		return "en"
	}
	return "fr"
}

// queryHasCode reports whether the query names a procedure code family.
func queryHasCode(q string) bool {
	return queryCodePattern.MatchString(text.Normalize(q))
}
