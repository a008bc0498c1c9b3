package sim

import (
	"errors"
	"fmt"
	"math"
	"runtime"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultReplicates is the reference replicate count per grid cell.
	DefaultReplicates = 1000

	// DefaultConfidence is the one-sided upper-bound multiplier
	// (97.5th-percentile normal).
	DefaultConfidence = 1.96
)

// DefaultWorkers sizes the sweep pool to hardware parallelism minus one
// reserved unit.
func DefaultWorkers() int {
	if n := runtime.NumCPU() - 1; n > 1 {
		return n
	}
	return 1
}

// Cell is one grid combination evaluated by a sweep: a scenario plus the
// decision threshold its upper bounds are compared against.
type Cell struct {
	Scenario  Scenario
	Threshold float64
}

// CellSummary aggregates a cell's replicates. Met counts replicates whose
// upper bound fell below the cell's threshold; Degenerate counts replicates
// excluded for zero-variance outcome vectors; Failed counts replicates that
// errored for any other reason.
type CellSummary struct {
	Cell       Cell
	Met        int
	Degenerate int
	Failed     int
	Replicates int
}

// Rate returns the empirical fraction of valid replicates that met the
// threshold. NaN when no replicate of the cell produced a usable fit.
func (s CellSummary) Rate() float64 {
	valid := s.Replicates - s.Degenerate - s.Failed
	if valid == 0 {
		return math.NaN()
	}
	return float64(s.Met) / float64(valid)
}

// SweepOptions groups sweep execution parameters. Zero values fall back to
// the reference configuration.
type SweepOptions struct {
	Replicates int     // replicates per grid cell (default 1000)
	Confidence float64 // upper-bound multiplier (default 1.96)
	Workers    int     // pool size (default NumCPU-1)
}

func (o SweepOptions) withDefaults() SweepOptions {
	if o.Replicates <= 0 {
		o.Replicates = DefaultReplicates
	}
	if o.Confidence <= 0 {
		o.Confidence = DefaultConfidence
	}
	if o.Workers <= 0 {
		o.Workers = DefaultWorkers()
	}
	return o
}

// RunSweep evaluates every cell and returns one summary per cell, in input
// order. All scenarios are validated before any simulation work begins.
//
// Cells run on a bounded worker pool; each cell owns its summary slot, so
// the only synchronization is the final join. Replicate r of every cell is
// seeded with ReplicateKey(r), making reruns bit-identical. Results do not
// depend on which other cells share the sweep.
func RunSweep(cells []Cell, opts SweepOptions) ([]CellSummary, error) {
	opts = opts.withDefaults()
	for i, cell := range cells {
		if err := cell.Scenario.Validate(); err != nil {
			return nil, fmt.Errorf("cell %d: %w", i, err)
		}
	}

	summaries := make([]CellSummary, len(cells))
	var group errgroup.Group
	group.SetLimit(opts.Workers)
	for i, cell := range cells {
		i, cell := i, cell
		group.Go(func() error {
			summaries[i] = runCell(cell, opts)
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	return summaries, nil
}

// runCell executes one cell's replicate batch. The cluster assignment is
// built once and shared across the cell's replicates; replicate results are
// folded into counts immediately and never retained.
func runCell(cell Cell, opts SweepOptions) CellSummary {
	clusters := NewClusterAssignment(cell.Scenario.SampleSize, cell.Scenario.ClusterSize)
	summary := CellSummary{Cell: cell, Replicates: opts.Replicates}

	for r := 1; r <= opts.Replicates; r++ {
		replicate, err := Simulate(cell.Scenario, clusters, NewReplicateKey(r), opts.Confidence)
		if err != nil {
			if errors.Is(err, ErrDegenerateDesign) {
				summary.Degenerate++
				logrus.Debugf("excluding replicate %d (n=%d, prev=%.4f, sens=%.3f, spec=%.3f): %v",
					r, cell.Scenario.SampleSize, cell.Scenario.TruePrevalence,
					cell.Scenario.Sensitivity, cell.Scenario.Specificity, err)
				continue
			}
			// Simulate has no other failure mode today; count any future one
			// separately from the degenerate exclusions.
			logrus.Warnf("replicate %d failed: %v", r, err)
			summary.Failed++
			continue
		}
		if replicate.UpperBound < cell.Threshold {
			summary.Met++
		}
	}

	if summary.Degenerate > 0 {
		logrus.Warnf("cell (n=%d, prev=%.4f, sens=%.3f, spec=%.3f): excluded %d of %d replicates as degenerate",
			cell.Scenario.SampleSize, cell.Scenario.TruePrevalence,
			cell.Scenario.Sensitivity, cell.Scenario.Specificity,
			summary.Degenerate, summary.Replicates)
	}
	return summary
}
