// Package search selects minimum test-accuracy requirements from sweep
// summaries: a monotone threshold-crossing scan per stage, and a staged
// pipeline that feeds the specificity pick into the sensitivity sweep.
package search

import (
	"math"

	sim "github.com/survey-sim/survey-sim/sim"
)

// Mode selects the direction of a threshold crossing.
type Mode int

const (
	// AtLeast accepts cells whose rate meets or exceeds the target (power).
	AtLeast Mode = iota
	// AtMost accepts cells whose rate does not exceed the target (Type I error).
	AtMost
)

// MinCrossing returns the first summary, in the given order, whose empirical
// rate satisfies the target. Callers order summaries by the swept parameter
// ascending, so the pick is the minimal parameter value meeting the target.
//
// This is a threshold-crossing scan, not an optimizer: monotonicity of the
// rate in the swept parameter is assumed, not verified. Cells without a
// single valid replicate (NaN rate) are skipped.
func MinCrossing(summaries []sim.CellSummary, target float64, mode Mode) (sim.CellSummary, bool) {
	for _, s := range summaries {
		rate := s.Rate()
		if math.IsNaN(rate) {
			continue
		}
		switch mode {
		case AtLeast:
			if rate >= target {
				return s, true
			}
		case AtMost:
			if rate <= target {
				return s, true
			}
		}
	}
	return sim.CellSummary{}, false
}
