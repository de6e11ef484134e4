package cmd

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/impurity-sim/impurity-sim/qmc"
	"github.com/impurity-sim/impurity-sim/qmc/bath"
)

// SolveConfig is the YAML description of one impurity problem: the block
// structure, the local Hamiltonian, the bath, and the run parameters.
type SolveConfig struct {
	Beta   float64       `yaml:"beta"`
	Blocks []BlockConfig `yaml:"blocks"`
	Eps    []float64     `yaml:"eps"`
	U      [][]float64   `yaml:"u"`
	Bath   BathConfig    `yaml:"bath"`
	Run    RunConfig     `yaml:"run"`
}

type BlockConfig struct {
	Name     string `yaml:"name"`
	Orbitals int    `yaml:"orbitals"`
}

// BathConfig selects the hybridization construction.
type BathConfig struct {
	Kind          string         `yaml:"kind"` // "discrete", "semicircular", "flat", "zero"
	NTau          int            `yaml:"n_tau"`
	NIw           int            `yaml:"n_iw"`
	Levels        [][]bath.Level `yaml:"levels"`         // for "discrete", indexed like blocks
	V             float64        `yaml:"v"`              // band coupling
	HalfBandwidth float64        `yaml:"half_bandwidth"` // band half width
}

// RunConfig mirrors qmc.RunParameters with YAML tags. MeasureGTau is a
// pointer so an absent key keeps its default of true.
type RunConfig struct {
	NCycles           int    `yaml:"n_cycles"`
	LengthCycle       int    `yaml:"length_cycle"`
	NWarmupCycles     int    `yaml:"n_warmup_cycles"`
	RandomSeed        int64  `yaml:"random_seed"`
	RandomName        string `yaml:"random_name"`
	MaxTime           int    `yaml:"max_time"`
	Verbosity         int    `yaml:"verbosity"`
	NWorkers          int    `yaml:"n_workers"`
	UseTraceEstimator bool   `yaml:"use_trace_estimator"`
	MeasureGTau       *bool  `yaml:"measure_g_tau"`
	MeasurePertOrder  bool   `yaml:"measure_pert_order"`
	MakeHistograms    bool   `yaml:"make_histograms"`
	NTauBins          int    `yaml:"n_tau_bins"`
}

// LoadSolveConfig reads and parses a solve file.
func LoadSolveConfig(path string) (*SolveConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg SolveConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &cfg, nil
}

// Structure returns the block structure in declaration order.
func (c *SolveConfig) Structure() qmc.BlockStructure {
	s := make(qmc.BlockStructure, len(c.Blocks))
	for i, b := range c.Blocks {
		s[i] = qmc.BlockDescriptor{Name: b.Name, NOrbital: b.Orbitals}
	}
	return s
}

// BuildSolver assembles the solver from the config.
func (c *SolveConfig) BuildSolver() (*qmc.Solver, error) {
	structure := c.Structure()
	hloc, err := qmc.NewLocalHamiltonian(structure, c.Eps, c.U)
	if err != nil {
		return nil, err
	}

	grid := bath.Grid{NTau: c.Bath.NTau, NIw: c.Bath.NIw}
	var delta *qmc.Hybridization
	switch c.Bath.Kind {
	case "discrete":
		delta, err = bath.Discrete(c.Beta, structure, grid, c.Bath.Levels)
	case "semicircular":
		delta, err = bath.Band(c.Beta, structure, grid, c.Bath.V, c.Bath.HalfBandwidth, bath.Semicircular(c.Bath.HalfBandwidth))
	case "flat":
		delta, err = bath.Band(c.Beta, structure, grid, c.Bath.V, c.Bath.HalfBandwidth, bath.Flat(c.Bath.HalfBandwidth))
	case "zero":
		delta, err = bath.Zero(c.Beta, structure, c.Bath.NTau)
	default:
		return nil, &qmc.ConfigurationError{Field: "bath.kind", Msg: fmt.Sprintf("unknown bath kind %q", c.Bath.Kind)}
	}
	if err != nil {
		return nil, err
	}

	return qmc.NewSolver(c.Beta, structure, hloc, delta)
}

// RunParameters converts the run section, applying defaults for rank 0.
func (c *SolveConfig) RunParameters() qmc.RunParameters {
	p := qmc.DefaultRunParameters(0)
	p.NCycles = c.Run.NCycles
	if c.Run.LengthCycle > 0 {
		p.LengthCycle = c.Run.LengthCycle
	}
	if c.Run.NWarmupCycles > 0 {
		p.NWarmupCycles = c.Run.NWarmupCycles
	}
	p.RandomSeed = c.Run.RandomSeed
	p.RandomName = c.Run.RandomName
	if c.Run.MaxTime != 0 {
		p.MaxTime = c.Run.MaxTime
	}
	if c.Run.Verbosity != 0 {
		p.Verbosity = c.Run.Verbosity
	}
	if c.Run.NWorkers > 0 {
		p.NWorkers = c.Run.NWorkers
	}
	p.UseTraceEstimator = c.Run.UseTraceEstimator
	if c.Run.MeasureGTau != nil {
		p.MeasureGTau = *c.Run.MeasureGTau
	}
	p.MeasurePertOrder = c.Run.MeasurePertOrder
	p.MakeHistograms = c.Run.MakeHistograms
	if c.Run.NTauBins > 0 {
		p.NTauBins = c.Run.NTauBins
	}
	return p
}
