package qmc

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Solver bundles the immutable inputs of an impurity solve: inverse
// temperature, block structure, local Hamiltonian, and hybridization
// function. One Solve call runs NWorkers independent Markov chains and
// reduces their accumulators.
type Solver struct {
	Beta      float64
	Structure BlockStructure
	Hloc      *LocalHamiltonian
	Delta     *Hybridization
}

// Results are the reduced, normalized outputs of a solve call, returned
// in-memory to the host process.
type Results struct {
	Beta     float64
	NTauBins int

	// GTau maps block name to the normalized imaginary-time Green's
	// function: [annihilation orbital][creation orbital][τ bin],
	// antiperiodic on [0, β). Empty when MeasureGTau is off.
	GTau map[string][][][]float64
	// PertOrder maps block name to the raw sign-weighted order histogram.
	PertOrder map[string]*Histogram

	AverageSign    float64
	TotalSteps     int64
	TotalCycles    int64
	StoppedEarly   bool
	AcceptanceRate map[string]float64

	// Raw is the reduced, unnormalized worker result for diagnostics.
	Raw *WorkerResult
}

// NewSolver validates that the inputs agree on beta and block shapes.
func NewSolver(beta float64, structure BlockStructure, hloc *LocalHamiltonian, delta *Hybridization) (*Solver, error) {
	if beta <= 0 {
		return nil, &ConfigurationError{Field: "beta", Msg: "must be positive"}
	}
	if err := structure.Validate(); err != nil {
		return nil, err
	}
	if delta.Beta != beta {
		return nil, &ConfigurationError{Field: "delta", Msg: "hybridization beta disagrees with solver beta"}
	}
	if delta.NBlocks() != len(structure) {
		return nil, &ConfigurationError{Field: "delta", Msg: fmt.Sprintf("hybridization has %d blocks, structure has %d", delta.NBlocks(), len(structure))}
	}
	for b, desc := range structure {
		if delta.NOrbital(b) != desc.NOrbital {
			return nil, &ConfigurationError{Field: "delta", Msg: fmt.Sprintf("block %q: hybridization has %d orbitals, structure has %d", desc.Name, delta.NOrbital(b), desc.NOrbital)}
		}
	}
	if hloc.NFlavors() != structure.NFlavors() {
		return nil, &ConfigurationError{Field: "h_loc", Msg: "flavor count disagrees with block structure"}
	}
	return &Solver{Beta: beta, Structure: structure, Hloc: hloc, Delta: delta}, nil
}

// workerSeed derives the seed for one worker rank: the default rank formula
// when no base seed was given, otherwise the base offset by the same stride.
func workerSeed(p RunParameters, rank int) int64 {
	if p.RandomSeed == 0 {
		return DefaultSeed(rank)
	}
	return p.RandomSeed + 928374*int64(rank)
}

// Solve runs the Monte Carlo sampling and returns the reduced results.
// Cancellation of ctx stops all chains at their next cycle boundary;
// partial results are reduced and returned, not discarded.
func (s *Solver) Solve(ctx context.Context, p RunParameters) (*Results, error) {
	p.Normalize()
	if err := p.Validate(); err != nil {
		return nil, err
	}

	results := make([]*WorkerResult, p.NWorkers)
	g := new(errgroup.Group)
	for w := 0; w < p.NWorkers; w++ {
		w := w
		g.Go(func() error {
			rank := p.WorkerRank + w
			res, err := s.runWorker(ctx, p, rank)
			if err != nil {
				return fmt.Errorf("worker rank %d: %w", rank, err)
			}
			results[w] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	total, err := Reduce(results)
	if err != nil {
		return nil, err
	}
	if p.Verbosity >= 1 {
		logrus.Infof("reduced %d workers: %d cycles, average sign %.4f", p.NWorkers, total.Cycles, total.AverageSign())
	}
	return s.finalize(total, p), nil
}

func (s *Solver) runWorker(ctx context.Context, p RunParameters, rank int) (*WorkerResult, error) {
	rng, err := NewRandomSource(p.RandomName, workerSeed(p, rank))
	if err != nil {
		return nil, err
	}
	data, err := newChainData(s.Beta, s.Hloc, s.Delta, rng, p)
	if err != nil {
		return nil, err
	}

	moves := new(MoveRegistry)
	measures := new(MeasurementRegistry)
	for b, desc := range s.Structure {
		if err := moves.Add(NewInsertMove(data, b, desc.Name), 1.0); err != nil {
			return nil, err
		}
		if err := moves.Add(NewRemoveMove(data, b, desc.Name), 1.0); err != nil {
			return nil, err
		}
		if p.MeasureGTau {
			if err := measures.Add(NewGreenMeasure(data, b, desc.Name, p.NTauBins)); err != nil {
				return nil, err
			}
		}
		if p.MeasurePertOrder || p.MakeHistograms {
			if err := measures.Add(NewPertOrderMeasure(data, b, desc.Name)); err != nil {
				return nil, err
			}
		}
	}

	sched, err := NewScheduler(data, moves, measures, p, rank)
	if err != nil {
		return nil, err
	}
	return sched.Run(ctx)
}

// finalize normalizes the reduced accumulators. Runs once, after reduction,
// never per worker.
func (s *Solver) finalize(total *WorkerResult, p RunParameters) *Results {
	res := &Results{
		Beta:           s.Beta,
		NTauBins:       p.NTauBins,
		GTau:           make(map[string][][][]float64),
		PertOrder:      make(map[string]*Histogram),
		AverageSign:    total.AverageSign(),
		TotalSteps:     total.Steps,
		TotalCycles:    total.Cycles,
		StoppedEarly:   total.StoppedEarly,
		AcceptanceRate: make(map[string]float64),
		Raw:            total,
	}
	for name := range total.Proposed {
		res.AcceptanceRate[name] = total.AcceptanceRate(name)
	}

	dtau := s.Beta / float64(p.NTauBins)
	for _, desc := range s.Structure {
		if h, ok := total.Accumulators["G measure ("+desc.Name+")"]; ok {
			nOrb := desc.NOrbital
			g := make([][][]float64, nOrb)
			for oa := 0; oa < nOrb; oa++ {
				g[oa] = make([][]float64, nOrb)
				for oc := 0; oc < nOrb; oc++ {
					bins := make([]float64, p.NTauBins)
					off := (oa*nOrb + oc) * p.NTauBins
					for k := 0; k < p.NTauBins; k++ {
						if total.SignSum != 0 {
							bins[k] = -h.Bins[off+k] / (s.Beta * dtau * total.SignSum)
						}
					}
					g[oa][oc] = bins
				}
			}
			res.GTau[desc.Name] = g
		}
		if h, ok := total.Accumulators["Perturbation order ("+desc.Name+")"]; ok {
			res.PertOrder[desc.Name] = h
		}
	}
	return res
}
