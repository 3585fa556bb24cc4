package conversion

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinmodel/eclbridge/models/cem"
)

func newTestService(policy Policy) *Service {
	svc := NewService(policy, zerolog.Nop())
	svc.now = func() time.Time {
		return time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	}
	return svc
}

func elementWithDescriptor(id, descriptor string) *cem.Element {
	el := &cem.Element{ID: id, Name: id}
	if descriptor != "" {
		el.SetMeta(cem.FieldValueSets, descriptor)
	}
	return el
}

func TestProcessElementScenarios(t *testing.T) {
	tests := []struct {
		name       string
		descriptor string
		wantECL    string
	}{
		{
			name:       "complex snomed prefix",
			descriptor: "SNOMED CT: - <71388002 |Procedure (procedure)|",
			wantECL:    "< 71388002 |Procedure|",
		},
		{
			name:       "uk drug extension refset",
			descriptor: "SNOMED CT: ^ 999000011000000103 |UK Drug Extension refset|",
			wantECL:    "^ 999000011000000103 |UK Drug Extension refset|",
		},
		{
			name:       "dmd code",
			descriptor: "dm+d: 123456",
			wantECL:    "< 123456 |dm+d concept|",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(DefaultPolicy())
			el := elementWithDescriptor("el-1", tt.descriptor)
			var stats Stats

			rec, ok := svc.ProcessElement(el, &stats)
			require.True(t, ok)

			assert.Equal(t, tt.wantECL, el.Meta(cem.FieldSnomedECL))
			assert.Equal(t, ECLSource, el.Meta(cem.FieldECLSource))
			assert.Equal(t, "2026-08-29", el.Meta(cem.FieldECLConversionDate))

			assert.Equal(t, "el-1", rec.ElementRef)
			assert.Equal(t, tt.wantECL, rec.SnomedECL)
			assert.Equal(t, ECLSource, rec.Source)
			assert.Equal(t, "2026-08-29", rec.ConvertedOn)

			assert.Equal(t, 1, stats.Examined)
			assert.Equal(t, 1, stats.Converted)
			assert.Equal(t, 0, stats.NoPattern)
			assert.Equal(t, 0, stats.Errors)
		})
	}
}

func TestProcessElementNoPattern(t *testing.T) {
	svc := newTestService(DefaultPolicy())
	var stats Stats

	// A descriptor without any SNOMED reference is not an error.
	el := elementWithDescriptor("el-1", "Local procedure codes")
	_, ok := svc.ProcessElement(el, &stats)
	assert.False(t, ok)
	assert.Empty(t, el.Meta(cem.FieldSnomedECL))
	assert.Empty(t, el.Meta(cem.FieldECLSource))

	// An empty descriptor behaves identically.
	empty := elementWithDescriptor("el-2", "")
	_, ok = svc.ProcessElement(empty, &stats)
	assert.False(t, ok)
	assert.Empty(t, empty.Meta(cem.FieldSnomedECL))

	assert.Equal(t, 2, stats.Examined)
	assert.Equal(t, 0, stats.Converted)
	assert.Equal(t, 2, stats.NoPattern)
	assert.Equal(t, 0, stats.Errors)
}

func TestProcessElementSkipsExisting(t *testing.T) {
	svc := newTestService(DefaultPolicy())

	el := elementWithDescriptor("el-1", "SNOMED CT: - <71388002 |Procedure (procedure)|")

	var first Stats
	_, ok := svc.ProcessElement(el, &first)
	require.True(t, ok)
	assert.Equal(t, 1, first.Converted)

	// Second run: the existing expression is preserved, only the skip
	// counter moves.
	var second Stats
	_, ok = svc.ProcessElement(el, &second)
	assert.False(t, ok)
	assert.Equal(t, Stats{Examined: 1, SkippedExisting: 1}, second)
	assert.Equal(t, "< 71388002 |Procedure|", el.Meta(cem.FieldSnomedECL))
}

func TestProcessElementOverwritesWhenPolicyOff(t *testing.T) {
	svc := newTestService(Policy{SkipExistingECL: false})

	el := elementWithDescriptor("el-1", "dm+d: 123456")
	el.SetMeta(cem.FieldSnomedECL, "< 999999 |stale|")

	var stats Stats
	_, ok := svc.ProcessElement(el, &stats)
	require.True(t, ok)
	assert.Equal(t, "< 123456 |dm+d concept|", el.Meta(cem.FieldSnomedECL))
	assert.Equal(t, 1, stats.Converted)
	assert.Equal(t, 0, stats.SkippedExisting)
}

func TestProcessElementRecoversFromPanic(t *testing.T) {
	svc := newTestService(DefaultPolicy())

	var stats Stats
	_, ok := svc.ProcessElement(nil, &stats)
	assert.False(t, ok)
	assert.Equal(t, 1, stats.Errors)
}

func TestRunWalksTree(t *testing.T) {
	svc := newTestService(DefaultPolicy())

	root := &cem.Element{
		ID: "root",
		Children: []*cem.Element{
			elementWithDescriptor("el-1", "SNOMED CT: - <71388002 |Procedure (procedure)|"),
			{
				ID: "group",
				Children: []*cem.Element{
					elementWithDescriptor("el-2", "dm+d: 123456"),
					elementWithDescriptor("el-3", "Local procedure codes"),
				},
			},
		},
	}

	stats, records := svc.Run(root)

	// root and group have no descriptor and count as no-pattern elements.
	assert.Equal(t, 5, stats.Examined)
	assert.Equal(t, 2, stats.Converted)
	assert.Equal(t, 3, stats.NoPattern)
	assert.Equal(t, 0, stats.Errors)

	require.Len(t, records, 2)
	assert.Equal(t, "el-1", records[0].ElementRef)
	assert.Equal(t, "el-2", records[1].ElementRef)
}

func TestStatsMerge(t *testing.T) {
	a := Stats{Examined: 2, Converted: 1, PerRule: map[string]int{"dmd-code": 1}}
	b := Stats{Examined: 3, NoPattern: 2, Errors: 1, PerRule: map[string]int{"dmd-code": 1, "descendants": 2}}

	a.Merge(b)

	assert.Equal(t, 5, a.Examined)
	assert.Equal(t, 1, a.Converted)
	assert.Equal(t, 2, a.NoPattern)
	assert.Equal(t, 1, a.Errors)
	assert.Equal(t, map[string]int{"dmd-code": 2, "descendants": 2}, a.PerRule)
}
