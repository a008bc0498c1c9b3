// Package sim provides the Monte Carlo engine for diagnostic-accuracy
// requirement studies of cluster-randomized prevalence surveys.
//
// # Reading Guide
//
// Start with these three files to understand the simulation kernel:
//   - misclassify.go: forward and inverse misclassification transforms
//   - survey.go: one simulated survey draw and its cluster-robust fit
//   - sweep.go: the grid driver that folds replicates into per-cell rates
//
// # Architecture
//
// The sim package holds the engine; the decision layers live in
// sub-packages:
//   - sim/search/: monotone threshold-crossing search and the staged
//     specificity-then-sensitivity pipeline
//   - sim/report/: tabular rendering of sweep summaries
//
// Every replicate is seeded by its replicate index (see rng.go), so a sweep
// rerun with identical configuration reproduces its rates bit for bit.
package sim
