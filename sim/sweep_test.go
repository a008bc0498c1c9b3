package sim

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// referenceOpts runs statistical tests at full reference size: 1000
// replicates with the 1.96 upper-bound multiplier.
func referenceOpts() SweepOptions {
	return SweepOptions{Replicates: 1000, Confidence: 1.96, Workers: 2}
}

func TestRunSweep_FailsFastOnInvalidScenario(t *testing.T) {
	cells := []Cell{
		{Scenario: NewScenario(0, 1, 0.995, 1000), Threshold: 0.01},
		{Scenario: NewScenario(0, 0.4, 0.6, 1000), Threshold: 0.01}, // sens+spec = 1
	}

	_, err := RunSweep(cells, referenceOpts())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidScenario)
}

func TestRunSweep_Deterministic(t *testing.T) {
	cells := []Cell{
		{Scenario: NewScenario(0, 1, 0.995, 1000), Threshold: 0.01},
		{Scenario: NewScenario(0.01, 0.7, 0.99, 1000), Threshold: 0.01},
	}

	first, err := RunSweep(cells, referenceOpts())
	require.NoError(t, err)
	second, err := RunSweep(cells, referenceOpts())
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestRunSweep_GridIndependence(t *testing.T) {
	// A cell's summary must not depend on which other cells share the
	// sweep, nor on ordering.
	target := Cell{Scenario: NewScenario(0, 1, 0.995, 1000), Threshold: 0.01}
	other := Cell{Scenario: NewScenario(0.05, 0.8, 0.97, 2000), Threshold: 0.05}

	alone, err := RunSweep([]Cell{target}, referenceOpts())
	require.NoError(t, err)
	together, err := RunSweep([]Cell{other, target}, referenceOpts())
	require.NoError(t, err)

	assert.Equal(t, alone[0], together[1])
}

func TestRunSweep_DegenerateAccounting(t *testing.T) {
	// A perfect test on a disease-free population degenerates every
	// replicate: the cell survives with an empty denominator.
	cells := []Cell{{Scenario: NewScenario(0, 1, 1, 200), Threshold: 0.01}}

	summaries, err := RunSweep(cells, SweepOptions{Replicates: 50, Confidence: 1.96, Workers: 1})
	require.NoError(t, err)

	s := summaries[0]
	assert.Equal(t, 50, s.Degenerate)
	assert.Equal(t, 0, s.Met)
	assert.True(t, math.IsNaN(s.Rate()))
}

func TestCellSummary_Rate(t *testing.T) {
	tests := []struct {
		name string
		s    CellSummary
		want float64
	}{
		{"all met", CellSummary{Met: 1000, Replicates: 1000}, 1.0},
		{"none met", CellSummary{Met: 0, Replicates: 1000}, 0.0},
		{"degenerates shrink denominator", CellSummary{Met: 450, Degenerate: 100, Replicates: 1000}, 0.5},
		{"failures shrink denominator", CellSummary{Met: 450, Failed: 100, Replicates: 1000}, 0.5},
		{"both exclusions combine", CellSummary{Met: 400, Degenerate: 150, Failed: 50, Replicates: 1000}, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, tt.s.Rate(), 1e-12)
		})
	}
}

func TestSweepOptions_Defaults(t *testing.T) {
	opts := SweepOptions{}.withDefaults()
	assert.Equal(t, DefaultReplicates, opts.Replicates)
	assert.Equal(t, DefaultConfidence, opts.Confidence)
	assert.GreaterOrEqual(t, opts.Workers, 1)
}

// === Statistical reference scenarios ===
//
// These pin the engine to the study's published operating points. They are
// deterministic: the seed policy fixes every draw.

func TestSweep_PowerAtEliminationThreshold(t *testing.T) {
	// Disease-free population, near-perfect specificity, 60 clusters of 50:
	// the 1% upper bound should clear the threshold in at least 90% of
	// replicates.
	cells := []Cell{{Scenario: NewScenario(0, 1, 0.995, 3000), Threshold: 0.01}}

	summaries, err := RunSweep(cells, referenceOpts())
	require.NoError(t, err)
	assert.GreaterOrEqual(t, summaries[0].Rate(), 0.90)
}

func TestSweep_TypeIErrorAtEliminationThreshold(t *testing.T) {
	// Prevalence sits exactly at the 1% threshold; a weak-sensitivity test
	// must not conclude elimination more than 5% of the time.
	cells := []Cell{{Scenario: NewScenario(0.01, 0.5, 0.995, 3000), Threshold: 0.01}}

	summaries, err := RunSweep(cells, referenceOpts())
	require.NoError(t, err)
	assert.LessOrEqual(t, summaries[0].Rate(), 0.05)
}

func TestSweep_TypeIErrorAtControlThreshold(t *testing.T) {
	// 10% prevalence with a typical field test and 20 clusters of 50.
	cells := []Cell{{Scenario: NewScenario(0.10, 0.85, 0.98, 1000), Threshold: 0.10}}

	summaries, err := RunSweep(cells, referenceOpts())
	require.NoError(t, err)
	assert.LessOrEqual(t, summaries[0].Rate(), 0.05)
}

func TestSweep_PowerMonotoneInSpecificity(t *testing.T) {
	// Holding prevalence below the threshold and sensitivity fixed,
	// empirical power must not decrease as specificity rises. The shared
	// per-replicate seeds act as common random numbers across cells.
	specificities := []float64{0.990, 0.993, 0.996, 0.999}
	cells := make([]Cell, len(specificities))
	for i, spec := range specificities {
		cells[i] = Cell{Scenario: NewScenario(0, 1, spec, 3000), Threshold: 0.01}
	}

	summaries, err := RunSweep(cells, referenceOpts())
	require.NoError(t, err)
	for i := 1; i < len(summaries); i++ {
		assert.GreaterOrEqual(t, summaries[i].Rate(), summaries[i-1].Rate(),
			"power fell between specificity %.3f and %.3f", specificities[i-1], specificities[i])
	}
}
