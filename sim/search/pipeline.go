package search

import (
	"fmt"

	"github.com/sirupsen/logrus"

	sim "github.com/survey-sim/survey-sim/sim"
)

// Plan fixes the staged search for one decision threshold and sample size.
//
// Stage A sweeps specificity at perfect sensitivity and PowerPrevalence,
// picking the minimum specificity whose empirical power reaches PowerTarget.
// Stage B sweeps sensitivity at the Stage-A specificity with true prevalence
// sitting exactly at the decision threshold, picking the minimum sensitivity
// whose empirical Type I error stays within ErrorTarget.
type Plan struct {
	Threshold       float64   // decision prevalence cutoff (e.g. 0.01, 0.05, 0.10)
	SampleSize      int       // total individuals per simulated survey
	ClusterSize     int       // individuals per cluster
	PowerPrevalence float64   // true prevalence for the Stage A power sweep
	PowerTarget     float64   // minimum acceptable empirical power (e.g. 0.90)
	ErrorTarget     float64   // maximum acceptable empirical Type I error (e.g. 0.05)
	SpecificityGrid []float64 // candidate specificities, ascending
	SensitivityGrid []float64 // candidate sensitivities, ascending
}

// Result is the terminal output of one staged search: the minimum accuracy
// pair meeting both targets, plus the per-stage summaries for reporting.
type Result struct {
	Threshold      float64
	SampleSize     int
	MinSpecificity float64
	MinSensitivity float64
	PowerSummaries []sim.CellSummary // Stage A, one per specificity candidate
	ErrorSummaries []sim.CellSummary // Stage B, one per sensitivity candidate
}

// Run executes the two stages in sequence. Each stage is a pure function of
// its inputs: Stage B receives the Stage A pick explicitly, never through
// shared state.
func Run(plan Plan, opts sim.SweepOptions) (Result, error) {
	if len(plan.SpecificityGrid) == 0 || len(plan.SensitivityGrid) == 0 {
		return Result{}, fmt.Errorf("plan for threshold %.2f: empty candidate grid", plan.Threshold)
	}

	powerSummaries, err := sim.RunSweep(plan.powerCells(), opts)
	if err != nil {
		return Result{}, fmt.Errorf("specificity sweep: %w", err)
	}
	specPick, ok := MinCrossing(powerSummaries, plan.PowerTarget, AtLeast)
	if !ok {
		return Result{}, fmt.Errorf("no specificity in [%.4f, %.4f] reaches power %.2f at threshold %.2f (n=%d)",
			plan.SpecificityGrid[0], plan.SpecificityGrid[len(plan.SpecificityGrid)-1],
			plan.PowerTarget, plan.Threshold, plan.SampleSize)
	}
	minSpecificity := specPick.Cell.Scenario.Specificity
	logrus.Infof("threshold %.2f n=%d: minimum specificity %.4f (power %.3f)",
		plan.Threshold, plan.SampleSize, minSpecificity, specPick.Rate())

	errorSummaries, err := sim.RunSweep(plan.errorCells(minSpecificity), opts)
	if err != nil {
		return Result{}, fmt.Errorf("sensitivity sweep: %w", err)
	}
	sensPick, ok := MinCrossing(errorSummaries, plan.ErrorTarget, AtMost)
	if !ok {
		return Result{}, fmt.Errorf("no sensitivity in [%.4f, %.4f] holds Type I error within %.2f at threshold %.2f (n=%d)",
			plan.SensitivityGrid[0], plan.SensitivityGrid[len(plan.SensitivityGrid)-1],
			plan.ErrorTarget, plan.Threshold, plan.SampleSize)
	}
	minSensitivity := sensPick.Cell.Scenario.Sensitivity
	logrus.Infof("threshold %.2f n=%d: minimum sensitivity %.4f (Type I error %.3f)",
		plan.Threshold, plan.SampleSize, minSensitivity, sensPick.Rate())

	return Result{
		Threshold:      plan.Threshold,
		SampleSize:     plan.SampleSize,
		MinSpecificity: minSpecificity,
		MinSensitivity: minSensitivity,
		PowerSummaries: powerSummaries,
		ErrorSummaries: errorSummaries,
	}, nil
}

// powerCells builds the Stage A grid: specificity varies, sensitivity is
// perfect, prevalence sits below the threshold.
func (p Plan) powerCells() []sim.Cell {
	cells := make([]sim.Cell, len(p.SpecificityGrid))
	for i, specificity := range p.SpecificityGrid {
		cells[i] = sim.Cell{
			Scenario: sim.Scenario{
				TruePrevalence: p.PowerPrevalence,
				Sensitivity:    1,
				Specificity:    specificity,
				SampleSize:     p.SampleSize,
				ClusterSize:    p.ClusterSize,
			},
			Threshold: p.Threshold,
		}
	}
	return cells
}

// errorCells builds the Stage B grid: sensitivity varies, specificity is the
// Stage A pick, prevalence sits exactly at the threshold.
func (p Plan) errorCells(specificity float64) []sim.Cell {
	cells := make([]sim.Cell, len(p.SensitivityGrid))
	for i, sensitivity := range p.SensitivityGrid {
		cells[i] = sim.Cell{
			Scenario: sim.Scenario{
				TruePrevalence: p.Threshold,
				Sensitivity:    sensitivity,
				Specificity:    specificity,
				SampleSize:     p.SampleSize,
				ClusterSize:    p.ClusterSize,
			},
			Threshold: p.Threshold,
		}
	}
	return cells
}
