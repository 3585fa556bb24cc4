package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/exp/slices"

	"github.com/clinmodel/eclbridge/models/cem"
	"github.com/clinmodel/eclbridge/models/fhir"
	"github.com/clinmodel/eclbridge/util"
)

// SnomedCTSystem is the canonical code-system URI for SNOMED CT.
const SnomedCTSystem = "http://snomed.info/sct"

// Service renders data elements carrying a snomedECL constraint as FHIR
// ValueSet resources with an ECL compose filter. Elements without the
// constraint are simply not exported; that is the normal state for
// elements whose descriptors never referenced SNOMED CT.
type Service struct {
	log        zerolog.Logger
	outputPath string
	baseURL    string
}

// NewService creates an export Service writing to outputPath.
func NewService(log zerolog.Logger, outputPath, baseURL string) (*Service, error) {
	if outputPath == "" {
		return nil, fmt.Errorf("output path is required")
	}
	if err := os.MkdirAll(outputPath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	if baseURL == "" {
		baseURL = "http://example.org/fhir/ValueSet"
	}
	return &Service{log: log, outputPath: outputPath, baseURL: baseURL}, nil
}

// ExportValueSets walks the tree and writes one ValueSet file per element
// with a terminology binding. It returns the number of files written.
// Output order is fixed by element id so repeated exports are stable.
func (s *Service) ExportValueSets(root *cem.Element) (int, error) {
	var bound []*cem.Element
	root.Walk(func(el *cem.Element) {
		if el.Meta(cem.FieldSnomedECL) != "" {
			bound = append(bound, el)
		}
	})
	slices.SortFunc(bound, func(a, b *cem.Element) int {
		return strings.Compare(a.ID, b.ID)
	})

	written := 0
	for _, el := range bound {
		vs := s.ValueSetFor(el)
		data, err := json.MarshalIndent(vs, "", "  ")
		if err != nil {
			return written, fmt.Errorf("failed to marshal ValueSet for %s: %w", el.ID, err)
		}

		fileName := valueSetFileName(el)
		filePath := filepath.Join(s.outputPath, fileName)
		if err := os.WriteFile(filePath, data, 0644); err != nil {
			return written, fmt.Errorf("failed to write ValueSet file: %w", err)
		}
		written++

		s.log.Debug().
			Str("element", el.ID).
			Str("file", fileName).
			Msg("Exported ValueSet")
	}

	s.log.Info().Int("valueSets", written).Msg("Exported ValueSets")
	return written, nil
}

// ValueSetFor builds the FHIR ValueSet for one bound element. The ECL
// string becomes a constraint filter on the SNOMED CT system.
func (s *Service) ValueSetFor(el *cem.Element) *fhir.ValueSet {
	name := el.Name
	if name == "" {
		name = el.ID
	}

	var date *string
	if d := el.Meta(cem.FieldECLConversionDate); d != "" {
		date = util.StringPtr(d)
	} else {
		date = util.StringPtr(fhir.NewDate(time.Now()).String())
	}

	return &fhir.ValueSet{
		ResourceType: "ValueSet",
		Id:           util.StringPtr(el.ID),
		Url:          util.StringPtr(s.baseURL + "/" + el.ID),
		Name:         util.StringPtr(name),
		Title:        util.StringPtr(name),
		Status:       "active",
		Date:         date,
		Compose: &fhir.ValueSetCompose{
			Include: []fhir.ValueSetComposeInclude{
				{
					System: util.StringPtr(SnomedCTSystem),
					Filter: []fhir.ValueSetComposeFilter{
						{
							Property: "constraint",
							Op:       "=",
							Value:    el.Meta(cem.FieldSnomedECL),
						},
					},
				},
			},
		},
	}
}

// valueSetFileName derives a filesystem-safe file name from the element.
func valueSetFileName(el *cem.Element) string {
	base := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == ' ' || r == '-' || r == '_' || r == '.':
			return '_'
		default:
			return -1
		}
	}, el.ID)
	if base == "" {
		base = "valueset"
	}
	return "ValueSet-" + base + ".json"
}
