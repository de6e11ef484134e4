package cmd

import (
	"context"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	// Registers the local-trace strategies with the qmc package.
	_ "github.com/impurity-sim/impurity-sim/qmc/localtrace"
)

var (
	// CLI flags; values set here override the solve file.
	configPath       string // Path to the YAML solve file
	logLevel         string // Log verbosity level
	nCycles          int    // Number of QMC measurement cycles
	maxTime          int    // Wall-clock budget in seconds (-1 = unbounded)
	seed             int64  // Base random seed (0 = rank-derived default)
	workers          int    // Number of independent Markov chains
	measurePertOrder bool   // Accumulate perturbation-order histograms
	useEstimator     bool   // Stochastic local trace instead of exact
	gOutputPath      string // Where to write the G(tau) CSV
	histoDir         string // Where to write order histogram tables
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "impurity-sim",
	Short: "Continuous-time quantum Monte Carlo impurity solver",
}

// solveCmd runs one impurity solve using the YAML config plus flag overrides
var solveCmd = &cobra.Command{
	Use:   "solve",
	Short: "Run the hybridization-expansion sampler",
	Run: func(cmd *cobra.Command, args []string) {
		// Set up logging
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)

		cfg, err := LoadSolveConfig(configPath)
		if err != nil {
			logrus.Fatalf("unable to read solve config: %v", err)
		}

		solver, err := cfg.BuildSolver()
		if err != nil {
			logrus.Fatalf("invalid solve config: %v", err)
		}

		params := cfg.RunParameters()
		if cmd.Flags().Changed("n-cycles") {
			params.NCycles = nCycles
		}
		if cmd.Flags().Changed("max-time") {
			params.MaxTime = maxTime
		}
		if cmd.Flags().Changed("seed") {
			params.RandomSeed = seed
		}
		if cmd.Flags().Changed("workers") {
			params.NWorkers = workers
		}
		if measurePertOrder {
			params.MeasurePertOrder = true
		}
		if useEstimator {
			params.UseTraceEstimator = true
		}

		logrus.Infof("Starting solve: beta=%g, %d blocks, %d cycles x %d steps, %d workers",
			cfg.Beta, len(cfg.Blocks), params.NCycles, params.LengthCycle, params.NWorkers)
		startTime := time.Now()

		results, err := solver.Solve(context.Background(), params)
		if err != nil {
			logrus.Fatalf("solve failed: %v", err)
		}

		logrus.Infof("Solve finished in %s: %d cycles, average sign %.4f",
			time.Since(startTime).Round(time.Millisecond), results.TotalCycles, results.AverageSign)
		if results.StoppedEarly {
			logrus.Warn("budget reached before all cycles completed; results are partial but valid")
		}

		if gOutputPath != "" && len(results.GTau) > 0 {
			if err := WriteGTau(gOutputPath, results); err != nil {
				logrus.Fatalf("writing G(tau): %v", err)
			}
			logrus.Infof("G(tau) written to %s", gOutputPath)
		}
		if histoDir != "" && len(results.PertOrder) > 0 {
			if err := WritePertOrderTables(histoDir, results); err != nil {
				logrus.Fatalf("writing order histograms: %v", err)
			}
			logrus.Infof("order histograms written to %s", histoDir)
		}
		PrintSummary(results)
	},
}

// Execute runs the CLI.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	solveCmd.Flags().StringVar(&configPath, "config", "solve.yaml", "YAML solve file")
	solveCmd.Flags().StringVar(&logLevel, "log-level", "info", "logrus level (debug, info, warn, error)")
	solveCmd.Flags().IntVar(&nCycles, "n-cycles", 0, "override: number of measurement cycles")
	solveCmd.Flags().IntVar(&maxTime, "max-time", -1, "override: wall-clock budget in seconds, -1 unbounded")
	solveCmd.Flags().Int64Var(&seed, "seed", 0, "override: base random seed")
	solveCmd.Flags().IntVar(&workers, "workers", 0, "override: number of Markov chains")
	solveCmd.Flags().BoolVar(&measurePertOrder, "measure-pert-order", false, "accumulate perturbation-order histograms")
	solveCmd.Flags().BoolVar(&useEstimator, "use-trace-estimator", false, "stochastic local trace")
	solveCmd.Flags().StringVar(&gOutputPath, "g-output", "g_tau.csv", "G(tau) output CSV path (empty to skip)")
	solveCmd.Flags().StringVar(&histoDir, "histo-dir", ".", "directory for order histogram tables (empty to skip)")
	rootCmd.AddCommand(solveCmd)
}
