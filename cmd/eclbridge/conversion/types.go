package conversion

import "golang.org/x/exp/maps"

// ECLSource is written to the eclSource metadata field of every element the
// engine converts, marking the value as machine-derived provenance.
const ECLSource = "Converted from valueSets"

// Policy holds the per-run configuration options.
type Policy struct {
	// SkipExistingECL leaves elements alone when snomedECL is already
	// populated, so re-runs never overwrite earlier (possibly hand-tuned)
	// expressions.
	SkipExistingECL bool
	// DebugMode enables the per-element conversion trace. It has no effect
	// on results.
	DebugMode bool
	// LogNonSnomedElements also traces elements whose descriptor matched no
	// recognizer. Verbosity only.
	LogNonSnomedElements bool
}

// DefaultPolicy returns the default policy: existing expressions are
// preserved, tracing off.
func DefaultPolicy() Policy {
	return Policy{SkipExistingECL: true}
}

// Stats counts the outcomes of one conversion run. It is owned by the
// caller and returned by value; a sharded run merges per-worker stats
// afterwards with Merge.
type Stats struct {
	Examined        int `json:"examined"`
	Converted       int `json:"converted"`
	SkippedExisting int `json:"skippedExisting"`
	NoPattern       int `json:"noSnomedPattern"`
	Errors          int `json:"errors"`
	// PerRule counts conversions by recognizer name, for run reports.
	PerRule map[string]int `json:"perRule,omitempty"`
}

// Merge adds the counters of other into s.
func (s *Stats) Merge(other Stats) {
	s.Examined += other.Examined
	s.Converted += other.Converted
	s.SkippedExisting += other.SkippedExisting
	s.NoPattern += other.NoPattern
	s.Errors += other.Errors
	if other.PerRule != nil {
		if s.PerRule == nil {
			s.PerRule = make(map[string]int, len(other.PerRule))
		}
		for _, name := range maps.Keys(other.PerRule) {
			s.PerRule[name] += other.PerRule[name]
		}
	}
}

func (s *Stats) countRule(name string) {
	if s.PerRule == nil {
		s.PerRule = make(map[string]int)
	}
	s.PerRule[name]++
}

// Record is the provenance record of one successful conversion.
type Record struct {
	ElementRef  string `json:"elementRef"`
	SnomedECL   string `json:"snomedECL"`
	Source      string `json:"source"`
	ConvertedOn string `json:"convertedOn"`
}
