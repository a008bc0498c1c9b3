package cmd

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	sim "github.com/survey-sim/survey-sim/sim"
	"github.com/survey-sim/survey-sim/sim/report"
	"github.com/survey-sim/survey-sim/sim/search"
)

var (
	// CLI flags shared by the sweep and search subcommands
	configPath string // Path to the scenarios YAML file
	logLevel   string // Log verbosity level
	replicates int    // Replicates per grid cell (0 = config default)
	workers    int    // Worker pool size (0 = NumCPU-1)

	// CLI flags for sweep
	scenarioName string  // Scenario to run
	sweptParam   string  // Which accuracy parameter to sweep
	fixedValue   float64 // Value of the non-swept accuracy parameter
	prevalence   float64 // True prevalence override (-1 = scenario default)
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "survey-sim",
	Short: "Monte Carlo simulator for diagnostic-accuracy requirements in prevalence surveys",
}

// setupLogging configures logrus from the --log flag.
func setupLogging() {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		logrus.Fatalf("Invalid log level: %s", logLevel)
	}
	logrus.SetLevel(level)
}

// sweepCmd evaluates one scenario's grid for a single swept parameter and
// prints the empirical-rate table across the scenario's sample sizes.
var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run one parameter sweep and print its empirical-rate table",
	Run: func(cmd *cobra.Command, args []string) {
		setupLogging()

		cfg, err := LoadConfig(configPath)
		if err != nil {
			logrus.Fatalf("Failed to load scenarios: %v", err)
		}
		spec, ok := cfg.Scenarios[scenarioName]
		if !ok {
			logrus.Fatalf("Unknown scenario %q in %s", scenarioName, configPath)
		}

		opts := cfg.SweepOptions(replicates, workers)
		cells, selector, rowLabel, err := sweepCells(cfg, spec)
		if err != nil {
			logrus.Fatalf("Invalid sweep request: %v", err)
		}

		summaries, err := sim.RunSweep(cells, opts)
		if err != nil {
			logrus.Fatalf("Sweep failed: %v", err)
		}

		title := fmt.Sprintf("Scenario %s: rate of upper bound < %.2f by %s",
			scenarioName, spec.DecisionThreshold, rowLabel)
		report.New(title, rowLabel, selector, summaries).Render(os.Stdout)
	},
}

// sweepCells builds the requested single-parameter grid across the
// scenario's sample sizes.
func sweepCells(cfg Config, spec ScenarioSpec) ([]sim.Cell, report.ParamSelector, string, error) {
	truePrevalence := prevalence
	if truePrevalence < 0 {
		truePrevalence = spec.PowerPrevalence
	}

	var grid []float64
	var selector report.ParamSelector
	var rowLabel string
	var scenarioAt func(value float64, n int) sim.Scenario

	switch sweptParam {
	case "specificity":
		grid = spec.Specificity.Values()
		selector = report.Specificity
		rowLabel = "specificity"
		sensitivity := fixedValue
		scenarioAt = func(value float64, n int) sim.Scenario {
			return sim.Scenario{
				TruePrevalence: truePrevalence,
				Sensitivity:    sensitivity,
				Specificity:    value,
				SampleSize:     n,
				ClusterSize:    cfg.clusterSize(),
			}
		}
	case "sensitivity":
		grid = spec.Sensitivity.Values()
		selector = report.Sensitivity
		rowLabel = "sensitivity"
		specificity := fixedValue
		scenarioAt = func(value float64, n int) sim.Scenario {
			return sim.Scenario{
				TruePrevalence: truePrevalence,
				Sensitivity:    value,
				Specificity:    specificity,
				SampleSize:     n,
				ClusterSize:    cfg.clusterSize(),
			}
		}
	default:
		return nil, nil, "", fmt.Errorf("unknown swept parameter %q (want specificity or sensitivity)", sweptParam)
	}

	var cells []sim.Cell
	for _, n := range spec.SampleSizes {
		for _, value := range grid {
			cells = append(cells, sim.Cell{
				Scenario:  scenarioAt(value, n),
				Threshold: spec.DecisionThreshold,
			})
		}
	}
	return cells, selector, rowLabel, nil
}

// searchCmd runs the staged specificity-then-sensitivity search for every
// configured scenario (or one, with --scenario) and prints the per-stage
// tables plus the terminal requirements tuples.
var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search minimum specificity and sensitivity meeting the power and error targets",
	Run: func(cmd *cobra.Command, args []string) {
		setupLogging()

		cfg, err := LoadConfig(configPath)
		if err != nil {
			logrus.Fatalf("Failed to load scenarios: %v", err)
		}

		names := cfg.ScenarioNames()
		if scenarioName != "" {
			names = []string{scenarioName}
		}

		opts := cfg.SweepOptions(replicates, workers)
		var results []search.Result
		for _, name := range names {
			plans, err := cfg.Plans(name)
			if err != nil {
				logrus.Fatalf("Failed to expand scenario %q: %v", name, err)
			}
			spec := cfg.Scenarios[name]
			var powerSweeps, errorSweeps [][]sim.CellSummary
			for _, plan := range plans {
				result, err := search.Run(plan, opts)
				if err != nil {
					logrus.Fatalf("Search failed for scenario %q: %v", name, err)
				}
				results = append(results, result)
				powerSweeps = append(powerSweeps, result.PowerSummaries)
				errorSweeps = append(errorSweeps, result.ErrorSummaries)
			}

			powerTitle := fmt.Sprintf("Scenario %s: empirical power by specificity (threshold %.2f)",
				name, spec.DecisionThreshold)
			report.New(powerTitle, "specificity", report.Specificity, powerSweeps...).Render(os.Stdout)

			errorTitle := fmt.Sprintf("Scenario %s: empirical Type I error by sensitivity (threshold %.2f)",
				name, spec.DecisionThreshold)
			report.New(errorTitle, "sensitivity", report.Sensitivity, errorSweeps...).Render(os.Stdout)
			fmt.Println()
		}

		report.RenderRequirements(os.Stdout, results)
		logrus.Info("Search complete.")
	},
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	for _, cmd := range []*cobra.Command{sweepCmd, searchCmd} {
		cmd.Flags().StringVar(&configPath, "config", "configs/scenarios.yaml", "Path to scenarios YAML file")
		cmd.Flags().StringVar(&logLevel, "log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")
		cmd.Flags().IntVar(&replicates, "replicates", 0, "Replicates per grid cell (0 = config default)")
		cmd.Flags().IntVar(&workers, "workers", 0, "Worker pool size (0 = hardware parallelism minus one)")
	}

	sweepCmd.Flags().StringVar(&scenarioName, "scenario", "elimination-1pct", "Scenario name from the config file")
	sweepCmd.Flags().StringVar(&sweptParam, "param", "specificity", "Swept accuracy parameter (specificity or sensitivity)")
	sweepCmd.Flags().Float64Var(&fixedValue, "fix", 1.0, "Value of the non-swept accuracy parameter")
	sweepCmd.Flags().Float64Var(&prevalence, "prevalence", -1, "True prevalence (-1 = scenario's power prevalence)")

	searchCmd.Flags().StringVar(&scenarioName, "scenario", "", "Single scenario to search (default: all, by ascending threshold)")

	rootCmd.AddCommand(sweepCmd)
	rootCmd.AddCommand(searchCmd)
}
