package cem

// Metadata field names used on data elements. These are part of the
// exporter contract: downstream consumers read SnomedECL if present, and
// its absence means "no terminology constraint available".
const (
	FieldValueSets         = "valueSets"
	FieldSnomedECL         = "snomedECL"
	FieldECLSource         = "eclSource"
	FieldECLConversionDate = "eclConversionDate"
)

// Element is a node in a clinical element model: a data element with
// free-form metadata fields and child elements. The valueSets field, when
// present, holds the modeler-authored value-set descriptor.
type Element struct {
	ID       string            `json:"id" db:"id"`
	Name     string            `json:"name" db:"name"`
	Path     string            `json:"path,omitempty" db:"path"`
	Metadata map[string]string `json:"metadata,omitempty"`
	Children []*Element        `json:"children,omitempty"`
}

// Meta returns the named metadata field, or "" when absent.
func (e *Element) Meta(field string) string {
	if e.Metadata == nil {
		return ""
	}
	return e.Metadata[field]
}

// SetMeta writes a metadata field, allocating the map on first use.
func (e *Element) SetMeta(field, value string) {
	if e.Metadata == nil {
		e.Metadata = make(map[string]string)
	}
	e.Metadata[field] = value
}

// Walk visits the element and every descendant depth-first, parents before
// children.
func (e *Element) Walk(visit func(*Element)) {
	if e == nil {
		return
	}
	visit(e)
	for _, child := range e.Children {
		child.Walk(visit)
	}
}

// Count returns the number of elements in the subtree rooted at e.
func (e *Element) Count() int {
	n := 0
	e.Walk(func(*Element) { n++ })
	return n
}
