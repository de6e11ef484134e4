package qmc

import (
	"context"
	"math"
	"time"

	"github.com/sirupsen/logrus"
)

// Phase is the scheduler's lifecycle state.
type Phase int

const (
	PhaseUninitialized Phase = iota
	PhaseWarmingUp
	PhaseSampling
	PhaseFinalizing
	PhaseDone
)

func (p Phase) String() string {
	switch p {
	case PhaseUninitialized:
		return "uninitialized"
	case PhaseWarmingUp:
		return "warming-up"
	case PhaseSampling:
		return "sampling"
	case PhaseFinalizing:
		return "finalizing"
	default:
		return "done"
	}
}

// Scheduler drives one Markov chain: it owns the registered moves and
// measurements, runs warm-up and measurement cycles, applies Metropolis
// acceptance at each elementary step, and enforces the wall-clock budget.
// Cancellation is cooperative and polled at cycle boundaries, so the
// worst-case overrun is one cycle.
type Scheduler struct {
	data     *chainData
	moves    *MoveRegistry
	measures *MeasurementRegistry
	params   RunParameters
	rank     int

	phase Phase
	sign  float64

	steps        int64
	cyclesDone   int64
	signSum      float64
	stoppedEarly bool
	proposed     map[string]int64
	accepted     map[string]int64
}

// NewScheduler assembles a chain driver. The registries must be fully
// populated; they are invariant for the run.
func NewScheduler(data *chainData, moves *MoveRegistry, measures *MeasurementRegistry, params RunParameters, rank int) (*Scheduler, error) {
	if moves.Len() == 0 {
		return nil, &ConfigurationError{Field: "moves", Msg: "no moves registered"}
	}
	return &Scheduler{
		data:     data,
		moves:    moves,
		measures: measures,
		params:   params,
		rank:     rank,
		phase:    PhaseUninitialized,
		proposed: make(map[string]int64),
		accepted: make(map[string]int64),
	}, nil
}

// Phase returns the current lifecycle state.
func (s *Scheduler) Phase() Phase { return s.phase }

// Sign returns the chain's current Monte Carlo sign.
func (s *Scheduler) Sign() float64 { return s.sign }

// Run executes warm-up then sampling and returns this worker's accumulators.
// A budget or context stop at a cycle boundary finalizes early with partial
// but valid results; a consistency failure aborts with an error.
func (s *Scheduler) Run(ctx context.Context) (*WorkerResult, error) {
	if s.phase != PhaseUninitialized {
		return nil, &ConfigurationError{Msg: "scheduler already ran; build a fresh one per run"}
	}

	var deadline time.Time
	if s.params.MaxTime >= 0 {
		deadline = time.Now().Add(time.Duration(s.params.MaxTime) * time.Second)
	}

	// The vacuum diagram anchors the global fermionic sign ambiguity:
	// every relative sign is tracked against it.
	s.sign = 1

	s.phase = PhaseWarmingUp
	if s.params.Verbosity >= 1 {
		logrus.Infof("[rank %d] warming up: %d cycles of %d steps", s.rank, s.params.NWarmupCycles, s.params.LengthCycle)
	}
	for c := 0; c < s.params.NWarmupCycles; c++ {
		if s.shouldStop(ctx, deadline) {
			s.stoppedEarly = true
			break
		}
		if err := s.cycle(); err != nil {
			return nil, err
		}
	}

	if !s.stoppedEarly {
		s.phase = PhaseSampling
		if s.params.Verbosity >= 1 {
			logrus.Infof("[rank %d] sampling: %d cycles of %d steps", s.rank, s.params.NCycles, s.params.LengthCycle)
		}
		report := s.params.NCycles / 10
		if report == 0 {
			report = 1
		}
		for c := 0; c < s.params.NCycles; c++ {
			if s.shouldStop(ctx, deadline) {
				s.stoppedEarly = true
				break
			}
			if err := s.cycle(); err != nil {
				return nil, err
			}
			for _, m := range s.measures.All() {
				m.Accumulate(s.sign)
			}
			s.cyclesDone++
			s.signSum += s.sign
			if s.params.Verbosity >= 3 && (c+1)%report == 0 {
				logrus.Infof("[rank %d] cycle %d/%d, order %d, sign %+.0f", s.rank, c+1, s.params.NCycles, s.data.conf.Size()/2, s.sign)
			}
		}
	}

	s.phase = PhaseFinalizing
	res := s.snapshot()
	s.phase = PhaseDone

	if s.params.Verbosity >= 1 {
		for _, wm := range s.moves.moves {
			name := wm.move.Name()
			logrus.Infof("[rank %d] %s: acceptance rate %.4f (%d/%d)", s.rank, name, rate(s.accepted[name], s.proposed[name]), s.accepted[name], s.proposed[name])
		}
	}
	return res, nil
}

func (s *Scheduler) shouldStop(ctx context.Context, deadline time.Time) bool {
	if ctx.Err() != nil {
		return true
	}
	return !deadline.IsZero() && time.Now().After(deadline)
}

// cycle runs LengthCycle elementary steps.
func (s *Scheduler) cycle() error {
	for i := 0; i < s.params.LengthCycle; i++ {
		if err := s.step(); err != nil {
			return err
		}
	}
	return nil
}

// step draws one move by relative weight and applies Metropolis acceptance.
// A zero ratio is a degenerate proposal (no valid candidate): rejected
// without drawing the acceptance uniform.
func (s *Scheduler) step() error {
	mv := s.moves.Pick(s.data.rng.Uniform())
	name := mv.Name()
	s.proposed[name]++
	s.steps++

	ratio := mv.Attempt()
	if ratio == 0 {
		mv.Reject()
		return nil
	}
	p := math.Min(1, math.Abs(ratio))
	if s.data.rng.Uniform() < p {
		s.accepted[name]++
		s.sign *= mv.Accept()
		return s.data.noteAccept(name)
	}
	mv.Reject()
	return nil
}

func (s *Scheduler) snapshot() *WorkerResult {
	res := &WorkerResult{
		Rank:         s.rank,
		Seed:         s.data.rng.Seed(),
		Steps:        s.steps,
		Cycles:       s.cyclesDone,
		SignSum:      s.signSum,
		StoppedEarly: s.stoppedEarly,
		Proposed:     make(map[string]int64, len(s.proposed)),
		Accepted:     make(map[string]int64, len(s.accepted)),
		Accumulators: make(map[string]*Histogram),
		FixedShape:   make(map[string]bool),
	}
	for k, v := range s.proposed {
		res.Proposed[k] = v
	}
	for k, v := range s.accepted {
		res.Accepted[k] = v
	}
	for _, m := range s.measures.All() {
		res.Accumulators[m.Name()] = m.Histogram().Clone()
		res.FixedShape[m.Name()] = m.FixedShape()
	}
	return res
}

func rate(num, den int64) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}
