package sim

// Misclassification transforms between true and apparent (test-positive)
// prevalence for a binary diagnostic with imperfect sensitivity and
// specificity. Both directions are pure and clamp to [0,1]: out-of-range
// algebraic results are saturated, not rejected. Scenario.Validate keeps
// sweeps out of the degenerate sensitivity+specificity <= 1 region where
// the inverse transform's denominator vanishes.

// clamp01 saturates x into the unit interval.
func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

// ApparentPrevalence returns the probability an individual tests positive
// when true prevalence is p and the test has the given sensitivity and
// specificity. For a perfect test (sensitivity = specificity = 1) the
// apparent prevalence equals p exactly.
func ApparentPrevalence(p, sensitivity, specificity float64) float64 {
	return clamp01((1 - specificity) + (sensitivity+specificity-1)*p)
}

// CorrectedPrevalence inverts ApparentPrevalence, recovering true prevalence
// from an observed test-positive fraction (the Rogan-Gladen correction).
// The simulation loop never calls this; it estimates observed prevalence
// directly from the simulated draws. Exposed for diagnostic use.
func CorrectedPrevalence(pObserved, sensitivity, specificity float64) float64 {
	return clamp01((pObserved + specificity - 1) / (sensitivity + specificity - 1))
}
