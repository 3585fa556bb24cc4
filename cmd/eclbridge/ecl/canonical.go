package ecl

import (
	"regexp"
	"strings"
)

var (
	keywordOrRe    = regexp.MustCompile(`(?i)\s+or\s+`)
	keywordAndRe   = regexp.MustCompile(`(?i)\s+and\s+`)
	keywordMinusRe = regexp.MustCompile(`(?i)\s+minus\s+`)
	pipedTermRe    = regexp.MustCompile(`\|[^|]*\|`)
	pipeGapRe      = regexp.MustCompile(`(\S)\|`)
	operatorRe     = regexp.MustCompile(`(<<|>>|[<>^])[\s]*`)
	whitespaceRe   = regexp.MustCompile(`\s+`)
)

// Canonicalize rewrites an ECL expression into its canonical textual form
// without changing its meaning:
//
//   - logical keywords are uppercased (or/and/minus -> OR/AND/MINUS)
//   - constraint operators are followed by exactly one space
//   - trailing semantic tags inside |term| segments are removed
//   - whitespace runs collapse to a single space and the ends are trimmed
//
// The function is idempotent: applying it to its own output is a no-op.
func Canonicalize(text string) string {
	out := keywordOrRe.ReplaceAllString(text, " OR ")
	out = keywordAndRe.ReplaceAllString(out, " AND ")
	out = keywordMinusRe.ReplaceAllString(out, " MINUS ")

	// A pipe glued to the preceding token ("404684003|Term|") gets a space
	// so the clause matches the "OP ID |TERM|" pair shape. The term cleanup
	// below re-trims the space this puts before closing pipes.
	out = pipeGapRe.ReplaceAllString(out, "$1 |")

	out = pipedTermRe.ReplaceAllStringFunc(out, func(seg string) string {
		return "|" + CleanTerm(strings.Trim(seg, "|")) + "|"
	})

	out = operatorRe.ReplaceAllString(out, "$1 ")
	out = whitespaceRe.ReplaceAllString(out, " ")
	return strings.TrimSpace(out)
}
