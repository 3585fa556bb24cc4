package ecl

import (
	"regexp"
	"strings"
)

var (
	digitRunRe    = regexp.MustCompile(`[0-9]+`)
	logicalJoinRe = regexp.MustCompile(`(?i)\s(or|and|minus)\s`)
)

// isPlausibleExpression is the acceptance heuristic for the complex
// expression recognizers. It is not an ECL grammar check; it only filters
// out captures too short or too bare to trust, so that such inputs fall
// through to the more specific recognizers further down the chain.
//
// A capture is accepted when it carries at least one constraint operator or
// logical keyword, at least one concept-sized digit run, and either an
// explicit logical join or enough length to be more than a lone clause.
func isPlausibleExpression(text string) bool {
	hasOperator := strings.ContainsAny(text, "<>^")
	hasJoin := logicalJoinRe.MatchString(text)
	if !hasOperator && !hasJoin {
		return false
	}

	hasConceptID := false
	for _, run := range digitRunRe.FindAllString(text, -1) {
		if IsConceptID(run) {
			hasConceptID = true
			break
		}
	}
	if !hasConceptID {
		return false
	}

	return hasJoin || len(text) > 20
}
