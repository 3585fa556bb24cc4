package fhir

// ValueSet is the subset of the FHIR R4 ValueSet resource produced by the
// exporter: metadata plus a compose section. Terminology constraints are
// rendered as an ECL filter on the SNOMED CT code system.
type ValueSet struct {
	ResourceType string           `json:"resourceType"`
	Id           *string          `json:"id,omitempty"`
	Url          *string          `json:"url,omitempty"`
	Name         *string          `json:"name,omitempty"`
	Title        *string          `json:"title,omitempty"`
	Status       string           `json:"status"`
	Date         *string          `json:"date,omitempty"`
	Description  *string          `json:"description,omitempty"`
	Compose      *ValueSetCompose `json:"compose,omitempty"`
}

type ValueSetCompose struct {
	Include []ValueSetComposeInclude `json:"include"`
	Exclude []ValueSetComposeInclude `json:"exclude,omitempty"`
}

type ValueSetComposeInclude struct {
	System   *string                 `json:"system,omitempty"`
	Version  *string                 `json:"version,omitempty"`
	Concept  []ValueSetConcept       `json:"concept,omitempty"`
	Filter   []ValueSetComposeFilter `json:"filter,omitempty"`
	ValueSet []string                `json:"valueSet,omitempty"`
}

type ValueSetConcept struct {
	Code    string  `json:"code"`
	Display *string `json:"display,omitempty"`
}

type ValueSetComposeFilter struct {
	Property string `json:"property"`
	Op       string `json:"op"`
	Value    string `json:"value"`
}
