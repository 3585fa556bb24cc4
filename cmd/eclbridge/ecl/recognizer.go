package ecl

import (
	"net/url"
	"regexp"
	"strings"
)

// A rule interprets a raw value-set descriptor as one textual convention.
// On success it returns a fully canonical ECL fragment. Rules are tried
// strictly in table order and the first non-empty result wins; the order
// below is a compatibility contract, not an optimization.
type rule struct {
	name  string
	apply func(string) (string, bool)
}

var rules = []rule{
	{"snomed-complex-expression", matchComplexSnomed},
	{"snomed-alt-prefix-expression", matchComplexAltPrefix},
	{"dmd-code", matchDMDCode},
	{"labelled-refset", matchLabelledRefset},
	{"exact-self", matchExactSelf},
	{"descendants-or-self", matchDescendantsOrSelf},
	{"descendants", matchDescendants},
	{"ancestors-or-self", matchAncestorsOrSelf},
	{"ancestors", matchAncestors},
	{"fhir-ecl-url", matchFHIRECLURL},
	{"fhir-refset-url", matchFHIRRefsetURL},
	{"labelled-concept", matchLabelledConcept},
	{"labelled-concept-list", matchLabelledConceptList},
	{"standalone-refset", matchStandaloneRefset},
	{"standalone-concept", matchStandaloneConcept},
}

var (
	snomedPrefixRe   = regexp.MustCompile(`(?i)SNOMED[- ]*CT(\(UK\))?\s*:\s*-?\s*(.+)`)
	altPrefixRe      = regexp.MustCompile(`(?i)(?:SCT|SNOMEDCT)\s*:\s*-?\s*(.+)`)
	dmdRe            = regexp.MustCompile(`(?i)dm\+d\s*:\s*([0-9]+)`)
	labelledRefsetRe = regexp.MustCompile(`(?i)SNOMED[- ]*CT(?:\(UK\))?\s*:?\s*-?\s*\^\s*([0-9]+)\s*(?:\|([^|]*)\|)?`)
	exactSelfRe      = regexp.MustCompile(`(?i)([0-9]+)\s*(?:\|([^|]*)\|)?\s*(?:\(\s*exact\s*\)|\bonly\b|\bself\b)`)
	descendantsRe    = regexp.MustCompile(`(<+)\s*([0-9]+)\s*(?:\|([^|]*)\|)?`)
	ancestorsRe      = regexp.MustCompile(`(>+)\s*([0-9]+)\s*(?:\|([^|]*)\|)?`)
	fhirECLRe        = regexp.MustCompile(`(?i)fhir_vs=ecl/(\S+)`)
	fhirRefsetRe     = regexp.MustCompile(`(?i)fhir_vs=refset/([0-9]+)`)
	snomedLabelRe    = regexp.MustCompile(`(?i)SNOMED`)
	caretRefsetRe    = regexp.MustCompile(`\^\s*([0-9]+)\s*(?:\|([^|]*)\|)?`)
	standaloneRe     = regexp.MustCompile(`^\s*(<<|<|>>|>)?\s*([0-9]+)\s*(?:\|([^|]*)\|)?\s*$`)
)

// matchComplexSnomed handles descriptors of the form "SNOMED CT: <expr>"
// (also "SNOMED-CT", "SNOMEDCT" and the UK edition marker) where the tail
// is itself a full ECL expression. The tail is only accepted when the
// plausibility heuristic passes; otherwise the descriptor falls through to
// the more specific single-clause recognizers below.
func matchComplexSnomed(s string) (string, bool) {
	m := snomedPrefixRe.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}
	tail := strings.TrimSpace(m[2])
	if !isPlausibleExpression(tail) {
		return "", false
	}
	return Canonicalize(tail), true
}

// matchComplexAltPrefix is the same capture path for the short "SCT:" and
// "SNOMEDCT:" spellings.
func matchComplexAltPrefix(s string) (string, bool) {
	m := altPrefixRe.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}
	tail := strings.TrimSpace(m[1])
	if !isPlausibleExpression(tail) {
		return "", false
	}
	return Canonicalize(tail), true
}

// matchDMDCode handles UK dictionary-of-medicines references, "dm+d: <id>".
func matchDMDCode(s string) (string, bool) {
	m := dmdRe.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}
	return Render(OperatorDescendants, ConceptReference{ID: m[1], Term: DefaultDMDTerm}), true
}

// matchLabelledRefset handles a caret-marked reference set under a SNOMED
// label, e.g. "SNOMED CT ^999000011000000103 |UK refset|".
func matchLabelledRefset(s string) (string, bool) {
	m := labelledRefsetRe.FindStringSubmatch(s)
	if m == nil || !IsConceptID(m[1]) {
		return "", false
	}
	return Render(OperatorRefset, ConceptReference{ID: m[1], Term: CleanTerm(m[2])}), true
}

// matchExactSelf handles concept ids marked as binding to the concept
// itself: "(exact)", "only" or "self" after the id.
func matchExactSelf(s string) (string, bool) {
	m := exactSelfRe.FindStringSubmatch(s)
	if m == nil || !IsConceptID(m[1]) {
		return "", false
	}
	return Render(OperatorNone, ConceptReference{ID: m[1], Term: CleanTerm(m[2])}), true
}

func matchOperatorConcept(s string, re *regexp.Regexp, width int, op Operator) (string, bool) {
	for _, m := range re.FindAllStringSubmatch(s, -1) {
		if len(m[1]) != width || !IsConceptID(m[2]) {
			continue
		}
		return Render(op, ConceptReference{ID: m[2], Term: CleanTerm(m[3])}), true
	}
	return "", false
}

func matchDescendantsOrSelf(s string) (string, bool) {
	return matchOperatorConcept(s, descendantsRe, 2, OperatorDescendantsOrSelf)
}

func matchDescendants(s string) (string, bool) {
	return matchOperatorConcept(s, descendantsRe, 1, OperatorDescendants)
}

func matchAncestorsOrSelf(s string) (string, bool) {
	return matchOperatorConcept(s, ancestorsRe, 2, OperatorAncestorsOrSelf)
}

func matchAncestors(s string) (string, bool) {
	return matchOperatorConcept(s, ancestorsRe, 1, OperatorAncestors)
}

// matchFHIRECLURL handles FHIR implicit value-set URLs carrying an inline
// ECL expression, ".../fhir_vs=ecl/<urlencoded expr>".
func matchFHIRECLURL(s string) (string, bool) {
	m := fhirECLRe.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}
	expr := m[1]
	if decoded, err := url.QueryUnescape(expr); err == nil {
		expr = decoded
	}
	return Canonicalize(expr), true
}

// matchFHIRRefsetURL handles FHIR implicit refset URLs,
// ".../fhir_vs=refset/<id>".
func matchFHIRRefsetURL(s string) (string, bool) {
	m := fhirRefsetRe.FindStringSubmatch(s)
	if m == nil || !IsConceptID(m[1]) {
		return "", false
	}
	return Render(OperatorRefset, ConceptReference{ID: m[1]}), true
}

// conceptIDs returns every concept-sized digit run in the text, in order.
func conceptIDs(s string) []string {
	var ids []string
	for _, run := range digitRunRe.FindAllString(s, -1) {
		if IsConceptID(run) {
			ids = append(ids, run)
		}
	}
	return ids
}

// matchLabelledConcept is the fallback for a single bare concept id under a
// SNOMED label, defaulting to a descendants constraint.
func matchLabelledConcept(s string) (string, bool) {
	if !snomedLabelRe.MatchString(s) {
		return "", false
	}
	ids := conceptIDs(s)
	if len(ids) != 1 {
		return "", false
	}
	return Render(OperatorDescendants, ConceptReference{ID: ids[0]}), true
}

// matchLabelledConceptList handles several concept ids listed under one
// SNOMED label, joined into a canonical OR expression.
func matchLabelledConceptList(s string) (string, bool) {
	if !snomedLabelRe.MatchString(s) {
		return "", false
	}
	ids := conceptIDs(s)
	if len(ids) == 0 {
		return "", false
	}
	clauses := make([]string, 0, len(ids))
	for _, id := range ids {
		clauses = append(clauses, Render(OperatorDescendants, ConceptReference{ID: id}))
	}
	return strings.Join(clauses, " OR "), true
}

// matchStandaloneRefset handles "^<id>" with no SNOMED label at all.
func matchStandaloneRefset(s string) (string, bool) {
	m := caretRefsetRe.FindStringSubmatch(s)
	if m == nil || !IsConceptID(m[1]) {
		return "", false
	}
	return Render(OperatorRefset, ConceptReference{ID: m[1], Term: CleanTerm(m[2])}), true
}

// matchStandaloneConcept handles a lone concept reference with no SNOMED
// label: an optional constraint operator and a single id. A bare number
// with nothing else around it (or a plain number list) stays unmatched,
// since there is no evidence it is a SNOMED identifier. Without an explicit
// operator the constraint defaults to descendants.
func matchStandaloneConcept(s string) (string, bool) {
	m := standaloneRe.FindStringSubmatch(s)
	if m == nil || !IsConceptID(m[2]) {
		return "", false
	}
	opToken, term := m[1], m[3]
	if opToken == "" && term == "" {
		return "", false
	}
	op := OperatorDescendants
	switch opToken {
	case "<<":
		op = OperatorDescendantsOrSelf
	case ">":
		op = OperatorAncestors
	case ">>":
		op = OperatorAncestorsOrSelf
	}
	return Render(op, ConceptReference{ID: m[2], Term: CleanTerm(term)}), true
}
