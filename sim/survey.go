package sim

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// ErrDegenerateDesign is returned when a replicate's outcome vector has zero
// variance (all positive or all negative), which leaves the robust variance
// estimator undefined. Callers exclude such replicates from a cell's
// denominator; the error never aborts a sweep.
var ErrDegenerateDesign = errors.New("degenerate design: outcome vector has zero variance")

// Replicate holds the fitted quantities of one simulated survey.
type Replicate struct {
	Scenario   Scenario
	Estimate   float64 // sample mean of the simulated test outcomes
	UpperBound float64 // Estimate + z * cluster-robust standard error
}

// Simulate draws one misclassified survey and fits the intercept-only model
// with a cluster-robust sandwich variance.
//
// The outcome vector is sampleSize independent Bernoulli draws at the
// scenario's apparent prevalence, seeded by key: the same key and scenario
// reproduce the draw vector bit for bit. The variance estimator clusters
// residuals by the supplied assignment, staying conservative even when the
// true within-cluster correlation is zero.
func Simulate(scenario Scenario, clusters ClusterAssignment, key ReplicateKey, z float64) (Replicate, error) {
	pi := ApparentPrevalence(scenario.TruePrevalence, scenario.Sensitivity, scenario.Specificity)
	bernoulli := distuv.Bernoulli{P: pi, Src: key.Source()}

	outcomes := make([]float64, scenario.SampleSize)
	positives := 0
	for i := range outcomes {
		outcomes[i] = bernoulli.Rand()
		if outcomes[i] == 1 {
			positives++
		}
	}
	if positives == 0 || positives == scenario.SampleSize {
		return Replicate{}, ErrDegenerateDesign
	}

	estimate := stat.Mean(outcomes, nil)
	se := clusterRobustSE(outcomes, clusters, estimate)
	return Replicate{
		Scenario:   scenario,
		Estimate:   estimate,
		UpperBound: estimate + z*se,
	}, nil
}

// clusterRobustSE computes the CR1 sandwich standard error of the intercept
// in an intercept-only linear model. For that model the bread term is 1/n,
// so the estimator reduces to summing squared per-cluster residual totals
// with a G/(G-1) small-sample factor.
func clusterRobustSE(outcomes []float64, clusters ClusterAssignment, mean float64) float64 {
	numClusters := clusters.NumClusters()
	scores := make([]float64, numClusters)
	for i, y := range outcomes {
		scores[clusters[i]] += y - mean
	}

	meat := 0.0
	for _, s := range scores {
		meat += s * s
	}

	n := float64(len(outcomes))
	adjust := float64(numClusters) / float64(numClusters-1)
	return math.Sqrt(adjust*meat) / n
}
