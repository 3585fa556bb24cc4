package export

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinmodel/eclbridge/models/cem"
	"github.com/clinmodel/eclbridge/models/fhir"
)

func boundElement(id, ecl string) *cem.Element {
	el := &cem.Element{ID: id, Name: id}
	el.SetMeta(cem.FieldSnomedECL, ecl)
	el.SetMeta(cem.FieldECLConversionDate, "2026-08-29")
	return el
}

func TestValueSetFor(t *testing.T) {
	svc, err := NewService(zerolog.Nop(), t.TempDir(), "http://example.org/fhir/ValueSet")
	require.NoError(t, err)

	el := boundElement("procedure-code", "< 71388002 |Procedure|")
	vs := svc.ValueSetFor(el)

	assert.Equal(t, "ValueSet", vs.ResourceType)
	assert.Equal(t, "procedure-code", *vs.Id)
	assert.Equal(t, "http://example.org/fhir/ValueSet/procedure-code", *vs.Url)
	assert.Equal(t, "active", vs.Status)
	assert.Equal(t, "2026-08-29", *vs.Date)

	require.NotNil(t, vs.Compose)
	require.Len(t, vs.Compose.Include, 1)
	include := vs.Compose.Include[0]
	assert.Equal(t, SnomedCTSystem, *include.System)
	require.Len(t, include.Filter, 1)
	assert.Equal(t, "constraint", include.Filter[0].Property)
	assert.Equal(t, "=", include.Filter[0].Op)
	assert.Equal(t, "< 71388002 |Procedure|", include.Filter[0].Value)
}

func TestExportValueSets(t *testing.T) {
	outDir := t.TempDir()
	svc, err := NewService(zerolog.Nop(), outDir, "")
	require.NoError(t, err)

	root := &cem.Element{
		ID: "root",
		Children: []*cem.Element{
			boundElement("b-element", "^ 999000011000000103 |UK Drug Extension refset|"),
			boundElement("a-element", "< 123456 |dm+d concept|"),
			// Unbound elements are a valid state and are simply skipped.
			{ID: "unbound", Name: "unbound"},
		},
	}

	written, err := svc.ExportValueSets(root)
	require.NoError(t, err)
	assert.Equal(t, 2, written)

	data, err := os.ReadFile(filepath.Join(outDir, "ValueSet-a_element.json"))
	require.NoError(t, err)

	var vs fhir.ValueSet
	require.NoError(t, json.Unmarshal(data, &vs))
	assert.Equal(t, "< 123456 |dm+d concept|", vs.Compose.Include[0].Filter[0].Value)

	_, err = os.Stat(filepath.Join(outDir, "ValueSet-b_element.json"))
	assert.NoError(t, err)

	_, err = os.Stat(filepath.Join(outDir, "ValueSet-unbound.json"))
	assert.True(t, os.IsNotExist(err))
}

func TestValueSetFileName(t *testing.T) {
	assert.Equal(t, "ValueSet-a_b.json", valueSetFileName(&cem.Element{ID: "a b"}))
	// Hyphens map to underscores like every other separator.
	assert.Equal(t, "ValueSet-a_element.json", valueSetFileName(&cem.Element{ID: "a-element"}))
	assert.Equal(t, "ValueSet-valueset.json", valueSetFileName(&cem.Element{ID: "///"}))
}
