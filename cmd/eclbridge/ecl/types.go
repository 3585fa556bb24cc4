package ecl

// Operator is the constraint operator of a single-concept ECL clause.
type Operator int

const (
	// OperatorNone selects the concept itself (exact/self binding).
	OperatorNone Operator = iota
	// OperatorDescendants selects descendants, excluding the concept.
	OperatorDescendants
	// OperatorDescendantsOrSelf selects descendants, including the concept.
	OperatorDescendantsOrSelf
	// OperatorAncestors selects ancestors, excluding the concept.
	OperatorAncestors
	// OperatorAncestorsOrSelf selects ancestors, including the concept.
	OperatorAncestorsOrSelf
	// OperatorRefset selects the members of a reference set.
	OperatorRefset
)

// Token returns the canonical ECL prefix for the operator. OperatorNone
// renders as the empty string.
func (op Operator) Token() string {
	switch op {
	case OperatorDescendants:
		return "<"
	case OperatorDescendantsOrSelf:
		return "<<"
	case OperatorAncestors:
		return ">"
	case OperatorAncestorsOrSelf:
		return ">>"
	case OperatorRefset:
		return "^"
	default:
		return ""
	}
}

// ConceptReference is a SNOMED CT concept identifier with an optional
// display term. The identifier is a 6-18 digit numeric string; that length
// range is what distinguishes a concept identifier from an unrelated number.
type ConceptReference struct {
	ID   string
	Term string
}

// Default display terms used when the source text carries no pipe-delimited
// term of its own.
const (
	DefaultConceptTerm = "SNOMED CT concept"
	DefaultRefsetTerm  = "SNOMED CT reference set"
	DefaultDMDTerm     = "dm+d concept"
)

// Render writes the clause in canonical form: "OP ID |TERM|", with the
// operator token omitted for OperatorNone.
func Render(op Operator, ref ConceptReference) string {
	term := ref.Term
	if term == "" {
		if op == OperatorRefset {
			term = DefaultRefsetTerm
		} else {
			term = DefaultConceptTerm
		}
	}
	if tok := op.Token(); tok != "" {
		return tok + " " + ref.ID + " |" + term + "|"
	}
	return ref.ID + " |" + term + "|"
}
