package ecl

import "strings"

// IsConceptID reports whether token is a plausible SNOMED CT identifier:
// digits only, between 6 and 18 characters. Five-digit numbers and
// nineteen-digit numbers are deliberately rejected.
func IsConceptID(token string) bool {
	if len(token) < 6 || len(token) > 18 {
		return false
	}
	for _, r := range token {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// ExtractPipedTerm returns the content between the first pair of pipe
// delimiters, e.g. "|Procedure|" yields "Procedure". The second return
// value is false when the text contains no complete |...| segment.
func ExtractPipedTerm(text string) (string, bool) {
	start := strings.Index(text, "|")
	if start < 0 {
		return "", false
	}
	end := strings.Index(text[start+1:], "|")
	if end < 0 {
		return "", false
	}
	return text[start+1 : start+1+end], true
}

// StripSemanticTag removes a trailing parenthesised semantic tag from a
// display term, so "Procedure (procedure)" becomes "Procedure". Terms
// without a trailing tag are returned trimmed but otherwise unchanged.
func StripSemanticTag(term string) string {
	term = strings.TrimSpace(term)
	if !strings.HasSuffix(term, ")") {
		return term
	}
	open := strings.LastIndex(term, "(")
	if open < 0 {
		return term
	}
	return strings.TrimSpace(term[:open])
}

// CleanTerm normalizes a display term extracted from source text: trims
// whitespace and drops a trailing semantic tag.
func CleanTerm(term string) string {
	return StripSemanticTag(strings.TrimSpace(term))
}
