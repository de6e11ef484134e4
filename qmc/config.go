package qmc

// RunParameters bundles every knob of a solve call. The zero value is not
// runnable; call Normalize to fill defaults and Validate before use.
// The defaults follow the conventional hybridization-expansion parameter set.
type RunParameters struct {
	NCycles        int   // number of measurement cycles (required, > 0)
	LengthCycle    int   // elementary steps per cycle (default 50)
	NWarmupCycles  int   // thermalization cycles, no measurements (default 5000)
	RandomSeed     int64 // base seed; worker w runs at RandomSeed + 928374*w (0 = rank-derived default)
	RandomName     string
	MaxTime        int // wall-clock budget in seconds; -1 = unbounded
	Verbosity      int // 0 quiet, 1-2 run summaries, >=3 cycle progress
	NWorkers       int // independent Markov chains (default 1)
	WorkerRank     int // rank offset for default seeding in multi-process setups

	UseTraceEstimator bool // stochastic local trace instead of exact enumeration
	MeasureGTau       bool // accumulate G(tau) (default true)
	MeasurePertOrder  bool // accumulate perturbation-order histograms
	MakeHistograms    bool // keep diagnostic histograms in the result

	NTauBins       int     // G(tau) histogram resolution (default 1000)
	MaxOrder       int     // soft cap on pairs per block; Insert rejects at the cap (default 1024)
	CheckCycle     int     // accepted moves between weight drift checks (default 100, 0 disables)
	CheckTolerance float64 // relative tolerance for the drift check (default 1e-8)
}

// DefaultRunParameters returns the parameter set with every optional field
// at its default, for the given worker rank.
func DefaultRunParameters(rank int) RunParameters {
	verbosity := 0
	if rank == 0 {
		verbosity = 3
	}
	return RunParameters{
		LengthCycle:    50,
		NWarmupCycles:  5000,
		MaxTime:        -1,
		Verbosity:      verbosity,
		NWorkers:       1,
		WorkerRank:     rank,
		MeasureGTau:    true,
		NTauBins:       1000,
		MaxOrder:       1024,
		CheckCycle:     100,
		CheckTolerance: 1e-8,
	}
}

// Normalize fills zero-valued optional fields with their defaults.
// NCycles is deliberately left alone: it has no default.
func (p *RunParameters) Normalize() {
	if p.LengthCycle == 0 {
		p.LengthCycle = 50
	}
	if p.NWarmupCycles == 0 {
		p.NWarmupCycles = 5000
	}
	if p.NWorkers == 0 {
		p.NWorkers = 1
	}
	if p.NTauBins == 0 {
		p.NTauBins = 1000
	}
	if p.MaxOrder == 0 {
		p.MaxOrder = 1024
	}
	if p.CheckCycle == 0 {
		p.CheckCycle = 100
	}
	if p.CheckTolerance == 0 {
		p.CheckTolerance = 1e-8
	}
}

// Validate checks the parameter bundle before any sampling starts.
func (p *RunParameters) Validate() error {
	if p.NCycles <= 0 {
		return &ConfigurationError{Field: "n_cycles", Msg: "must be a positive integer"}
	}
	if p.LengthCycle <= 0 {
		return &ConfigurationError{Field: "length_cycle", Msg: "must be positive"}
	}
	if p.NWarmupCycles < 0 {
		return &ConfigurationError{Field: "n_warmup_cycles", Msg: "must not be negative"}
	}
	if p.NWorkers < 1 {
		return &ConfigurationError{Field: "n_workers", Msg: "need at least one worker"}
	}
	if p.MaxTime < -1 {
		return &ConfigurationError{Field: "max_time", Msg: "use -1 for unbounded, otherwise seconds >= 0"}
	}
	if p.NTauBins < 2 {
		return &ConfigurationError{Field: "n_tau_bins", Msg: "need at least two bins"}
	}
	if p.MaxOrder < 1 {
		return &ConfigurationError{Field: "max_order", Msg: "must be positive"}
	}
	if p.CheckCycle < 0 {
		return &ConfigurationError{Field: "check_cycle", Msg: "must not be negative"}
	}
	if p.CheckTolerance <= 0 {
		return &ConfigurationError{Field: "check_tolerance", Msg: "must be positive"}
	}
	if _, err := NewRandomSource(p.RandomName, 0); err != nil {
		return err
	}
	return nil
}
