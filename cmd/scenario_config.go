package cmd

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	sim "github.com/survey-sim/survey-sim/sim"
	"github.com/survey-sim/survey-sim/sim/search"
)

// Config represents the full scenarios.yaml structure. All top-level
// sections must be listed to satisfy KnownFields(true) strict parsing.
type Config struct {
	Version   string                  `yaml:"version"`
	Defaults  Defaults                `yaml:"defaults"`
	Scenarios map[string]ScenarioSpec `yaml:"scenarios"`
}

// Defaults carries sweep-wide execution parameters.
type Defaults struct {
	Replicates  int     `yaml:"replicates"`
	Confidence  float64 `yaml:"confidence_multiplier"`
	ClusterSize int     `yaml:"cluster_size"`
}

// ScenarioSpec describes one decision-threshold scenario's grid boundaries.
type ScenarioSpec struct {
	DecisionThreshold float64  `yaml:"decision_threshold"`
	SampleSizes       []int    `yaml:"sample_sizes"`
	PowerPrevalence   float64  `yaml:"power_prevalence"`
	PowerTarget       float64  `yaml:"power_target"`
	ErrorTarget       float64  `yaml:"error_target"`
	Specificity       GridSpec `yaml:"specificity"`
	Sensitivity       GridSpec `yaml:"sensitivity"`
}

// GridSpec is an inclusive arithmetic range of candidate parameter values.
type GridSpec struct {
	Min  float64 `yaml:"min"`
	Max  float64 `yaml:"max"`
	Step float64 `yaml:"step"`
}

// Values expands the range into an ascending candidate list. Values are
// rounded to 6 decimals so repeated float stepping cannot drift past Max.
func (g GridSpec) Values() []float64 {
	count := int(math.Round((g.Max-g.Min)/g.Step)) + 1
	values := make([]float64, 0, count)
	for i := 0; i < count; i++ {
		v := math.Round((g.Min+float64(i)*g.Step)*1e6) / 1e6
		if v > g.Max {
			break
		}
		values = append(values, v)
	}
	return values
}

func (g GridSpec) validate(name string) error {
	if g.Step <= 0 {
		return fmt.Errorf("%s grid: step %v must be positive", name, g.Step)
	}
	if g.Min > g.Max {
		return fmt.Errorf("%s grid: min %v exceeds max %v", name, g.Min, g.Max)
	}
	if g.Min < 0 || g.Max > 1 {
		return fmt.Errorf("%s grid: bounds [%v, %v] outside [0,1]", name, g.Min, g.Max)
	}
	return nil
}

// LoadConfig parses a scenarios file with strict field checking, so a typo
// in a key is an error rather than a silently ignored setting, and validates
// every scenario before any simulation work begins.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read scenarios file: %w", err)
	}

	var cfg Config
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse scenarios file %s: %w", path, err)
	}

	for name, spec := range cfg.Scenarios {
		if err := spec.validate(cfg.clusterSize()); err != nil {
			return Config{}, fmt.Errorf("scenario %q: %w", name, err)
		}
	}
	return cfg, nil
}

func (c Config) clusterSize() int {
	if c.Defaults.ClusterSize > 0 {
		return c.Defaults.ClusterSize
	}
	return sim.DefaultClusterSize
}

// SweepOptions translates the config defaults into engine options; CLI
// overrides win when non-zero.
func (c Config) SweepOptions(replicates, workers int) sim.SweepOptions {
	opts := sim.SweepOptions{
		Replicates: c.Defaults.Replicates,
		Confidence: c.Defaults.Confidence,
		Workers:    workers,
	}
	if replicates > 0 {
		opts.Replicates = replicates
	}
	return opts
}

func (s ScenarioSpec) validate(clusterSize int) error {
	if s.DecisionThreshold <= 0 || s.DecisionThreshold >= 1 {
		return fmt.Errorf("decision threshold %v outside (0,1)", s.DecisionThreshold)
	}
	if len(s.SampleSizes) == 0 {
		return fmt.Errorf("no sample sizes configured")
	}
	if err := s.Specificity.validate("specificity"); err != nil {
		return err
	}
	if err := s.Sensitivity.validate("sensitivity"); err != nil {
		return err
	}
	// Representative scenarios from each grid corner must pass engine
	// validation, so a bad range fails here rather than mid-sweep.
	for _, n := range s.SampleSizes {
		probe := sim.Scenario{
			TruePrevalence: s.DecisionThreshold,
			Sensitivity:    s.Sensitivity.Min,
			Specificity:    s.Specificity.Min,
			SampleSize:     n,
			ClusterSize:    clusterSize,
		}
		if err := probe.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Plans expands the named scenario into one staged-search plan per sample
// size.
func (c Config) Plans(name string) ([]search.Plan, error) {
	spec, ok := c.Scenarios[name]
	if !ok {
		return nil, fmt.Errorf("unknown scenario %q", name)
	}
	plans := make([]search.Plan, len(spec.SampleSizes))
	for i, n := range spec.SampleSizes {
		plans[i] = search.Plan{
			Threshold:       spec.DecisionThreshold,
			SampleSize:      n,
			ClusterSize:     c.clusterSize(),
			PowerPrevalence: spec.PowerPrevalence,
			PowerTarget:     spec.PowerTarget,
			ErrorTarget:     spec.ErrorTarget,
			SpecificityGrid: spec.Specificity.Values(),
			SensitivityGrid: spec.Sensitivity.Values(),
		}
	}
	return plans, nil
}

// ScenarioNames returns the configured scenario names sorted by decision
// threshold, so the three-threshold pipeline always runs 1% then 5% then 10%.
func (c Config) ScenarioNames() []string {
	names := make([]string, 0, len(c.Scenarios))
	for name := range c.Scenarios {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		return c.Scenarios[names[i]].DecisionThreshold < c.Scenarios[names[j]].DecisionThreshold
	})
	return names
}
