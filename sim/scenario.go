package sim

import (
	"errors"
	"fmt"
)

// DefaultClusterSize is the number of individuals sampled per cluster in the
// reference survey design.
const DefaultClusterSize = 50

// ErrInvalidScenario marks configuration-time rejections. Scenarios are
// validated before any simulation work begins, never mid-sweep.
var ErrInvalidScenario = errors.New("invalid scenario")

// Scenario fixes one survey design and test-accuracy combination.
type Scenario struct {
	TruePrevalence float64 // fraction of the population truly positive, in [0,1]
	Sensitivity    float64 // P(test positive | truly positive), in [0,1]
	Specificity    float64 // P(test negative | truly negative), in [0,1]
	SampleSize     int     // total individuals surveyed (must be > 0)
	ClusterSize    int     // individuals per cluster (must be > 0)
}

// NewScenario creates a Scenario with the reference cluster size.
func NewScenario(truePrevalence, sensitivity, specificity float64, sampleSize int) Scenario {
	return Scenario{
		TruePrevalence: truePrevalence,
		Sensitivity:    sensitivity,
		Specificity:    specificity,
		SampleSize:     sampleSize,
		ClusterSize:    DefaultClusterSize,
	}
}

// NumClusters returns ceil(SampleSize / ClusterSize). The last cluster may
// hold fewer than ClusterSize individuals.
func (s Scenario) NumClusters() int {
	return (s.SampleSize + s.ClusterSize - 1) / s.ClusterSize
}

// Validate rejects scenarios the engine cannot simulate. The
// sensitivity+specificity > 1 requirement keeps the misclassification
// correction well-defined; the two-cluster minimum keeps the robust
// variance estimator's small-sample factor finite.
func (s Scenario) Validate() error {
	if s.SampleSize <= 0 {
		return fmt.Errorf("%w: sample size %d must be positive", ErrInvalidScenario, s.SampleSize)
	}
	if s.ClusterSize <= 0 {
		return fmt.Errorf("%w: cluster size %d must be positive", ErrInvalidScenario, s.ClusterSize)
	}
	if s.TruePrevalence < 0 || s.TruePrevalence > 1 {
		return fmt.Errorf("%w: true prevalence %v outside [0,1]", ErrInvalidScenario, s.TruePrevalence)
	}
	if s.Sensitivity < 0 || s.Sensitivity > 1 {
		return fmt.Errorf("%w: sensitivity %v outside [0,1]", ErrInvalidScenario, s.Sensitivity)
	}
	if s.Specificity < 0 || s.Specificity > 1 {
		return fmt.Errorf("%w: specificity %v outside [0,1]", ErrInvalidScenario, s.Specificity)
	}
	if s.Sensitivity+s.Specificity <= 1 {
		return fmt.Errorf("%w: sensitivity %v + specificity %v must exceed 1", ErrInvalidScenario, s.Sensitivity, s.Specificity)
	}
	if s.NumClusters() < 2 {
		return fmt.Errorf("%w: sample size %d with cluster size %d yields fewer than 2 clusters", ErrInvalidScenario, s.SampleSize, s.ClusterSize)
	}
	return nil
}

// ClusterAssignment maps each individual index to a cluster label. Labels
// partition [0, sampleSize) into contiguous blocks. Constructed once per
// grid cell and shared, unmodified, by all of the cell's replicates.
type ClusterAssignment []int

// NewClusterAssignment partitions sampleSize individuals into contiguous
// clusters of clusterSize; the last cluster may be smaller.
func NewClusterAssignment(sampleSize, clusterSize int) ClusterAssignment {
	assignment := make(ClusterAssignment, sampleSize)
	for i := range assignment {
		assignment[i] = i / clusterSize
	}
	return assignment
}

// NumClusters returns the number of distinct labels in the assignment.
func (c ClusterAssignment) NumClusters() int {
	if len(c) == 0 {
		return 0
	}
	return c[len(c)-1] + 1
}
