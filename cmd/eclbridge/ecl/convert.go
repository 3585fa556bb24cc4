package ecl

import "strings"

// Convert interprets a raw value-set descriptor and, when it encodes a
// SNOMED CT constraint, returns the canonical ECL rendering. The second
// return value is false when the descriptor is empty or matches none of the
// known conventions; that is a normal outcome, not an error.
func Convert(descriptor string) (string, bool) {
	expr, _, ok := ConvertWithRule(descriptor)
	return expr, ok
}

// ConvertWithRule is Convert plus the name of the recognizer that produced
// the result, for per-element tracing.
func ConvertWithRule(descriptor string) (string, string, bool) {
	descriptor = strings.TrimSpace(descriptor)
	if descriptor == "" {
		return "", "", false
	}
	for _, r := range rules {
		if expr, ok := r.apply(descriptor); ok && expr != "" {
			return expr, r.name, true
		}
	}
	return "", "", false
}

// RuleNames lists the recognizers in evaluation order.
func RuleNames() []string {
	names := make([]string, len(rules))
	for i, r := range rules {
		names[i] = r.name
	}
	return names
}
