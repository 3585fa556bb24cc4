package conversion

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/clinmodel/eclbridge/cmd/eclbridge/ecl"
	"github.com/clinmodel/eclbridge/models/cem"
)

// Service applies the ECL conversion engine to data elements, guarding each
// write with the idempotency policy and attaching provenance metadata.
type Service struct {
	policy Policy
	log    zerolog.Logger
	now    func() time.Time
}

// NewService creates a conversion Service with the given policy.
func NewService(policy Policy, log zerolog.Logger) *Service {
	return &Service{
		policy: policy,
		log:    log,
		now:    time.Now,
	}
}

// Run walks the element tree and converts every element in it. It returns
// the run statistics and the provenance records of the conversions
// performed. No failure on a single element stops the run.
func (s *Service) Run(root *cem.Element) (Stats, []Record) {
	var stats Stats
	var records []Record

	root.Walk(func(el *cem.Element) {
		if rec, ok := s.ProcessElement(el, &stats); ok {
			records = append(records, rec)
		}
	})

	s.log.Info().
		Int("examined", stats.Examined).
		Int("converted", stats.Converted).
		Int("skippedExisting", stats.SkippedExisting).
		Int("noSnomedPattern", stats.NoPattern).
		Int("errors", stats.Errors).
		Msg("Conversion run finished")

	return stats, records
}

// ProcessElement converts a single element in place, updating stats. The
// returned Record is only valid when the second return value is true.
//
// A panic while handling one element is contained here: it is logged,
// counted as an error, and the caller moves on to the next element.
func (s *Service) ProcessElement(el *cem.Element, stats *Stats) (rec Record, converted bool) {
	defer func() {
		if r := recover(); r != nil {
			stats.Errors++
			rec, converted = Record{}, false
			id := ""
			if el != nil {
				id = el.ID
			}
			s.log.Error().
				Str("element", id).
				Str("panic", fmt.Sprint(r)).
				Msg("Element conversion failed")
		}
	}()

	stats.Examined++

	if s.policy.SkipExistingECL && el.Meta(cem.FieldSnomedECL) != "" {
		stats.SkippedExisting++
		if s.policy.DebugMode {
			s.log.Debug().
				Str("element", el.ID).
				Str("snomedECL", el.Meta(cem.FieldSnomedECL)).
				Msg("Skipping element with existing ECL")
		}
		return Record{}, false
	}

	descriptor := el.Meta(cem.FieldValueSets)
	expr, ruleName, ok := ecl.ConvertWithRule(descriptor)
	if !ok {
		stats.NoPattern++
		if s.policy.LogNonSnomedElements {
			s.log.Debug().
				Str("element", el.ID).
				Str("valueSets", descriptor).
				Msg("No SNOMED pattern in value-set descriptor")
		}
		return Record{}, false
	}

	convertedOn := s.now().Format("2006-01-02")
	el.SetMeta(cem.FieldSnomedECL, expr)
	el.SetMeta(cem.FieldECLSource, ECLSource)
	el.SetMeta(cem.FieldECLConversionDate, convertedOn)

	stats.Converted++
	stats.countRule(ruleName)

	if s.policy.DebugMode {
		s.log.Debug().
			Str("element", el.ID).
			Str("rule", ruleName).
			Str("valueSets", descriptor).
			Str("snomedECL", expr).
			Msg("Converted value-set descriptor")
	}

	return Record{
		ElementRef:  el.ID,
		SnomedECL:   expr,
		Source:      ECLSource,
		ConvertedOn: convertedOn,
	}, true
}
