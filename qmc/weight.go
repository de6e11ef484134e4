package qmc

import "math"

// chainData is the mutable state of one Markov chain: the diagram, the
// per-block determinant machinery, and the incrementally maintained trace
// factor. It is owned by exactly one worker; nothing here is locked.
//
// The Monte Carlo weight of the current diagram is
//
//	weight = trace(conf) · Π_blocks det M_block
//
// The determinants are maintained incrementally by the moves; the trace is
// re-evaluated per proposal by the selected strategy and cached here.
type chainData struct {
	beta     float64
	hloc     *LocalHamiltonian
	delta    *Hybridization
	conf     *Configuration
	dets     []*detBlock
	trace    TraceEvaluator
	curTrace float64
	rng      *RandomSource

	maxOrder int

	checkCycle  int
	checkTol    float64
	sinceCheck  int
	totalChecks int64
}

func newChainData(beta float64, hloc *LocalHamiltonian, delta *Hybridization, rng *RandomSource, p RunParameters) (*chainData, error) {
	policy := TracePolicy{Stochastic: p.UseTraceEstimator}
	trace, err := newTraceEvaluator(hloc, beta, policy, rng)
	if err != nil {
		return nil, err
	}
	nb := delta.NBlocks()
	dets := make([]*detBlock, nb)
	for b := 0; b < nb; b++ {
		dets[b] = newDetBlock(delta, b)
	}
	return &chainData{
		beta:       beta,
		hloc:       hloc,
		delta:      delta,
		conf:       NewConfiguration(nb),
		dets:       dets,
		trace:      trace,
		curTrace:   trace.Evaluate(nil),
		rng:        rng,
		maxOrder:   p.MaxOrder,
		checkCycle: p.CheckCycle,
		checkTol:   p.CheckTolerance,
	}, nil
}

// Weight returns the incrementally maintained weight of the current diagram.
func (d *chainData) Weight() float64 {
	w := d.curTrace
	for _, db := range d.dets {
		w *= db.det
	}
	return w
}

// noteAccept is called by the scheduler after every accepted move and runs
// the drift check every checkCycle acceptances. component names the move
// for the diagnostic.
func (d *chainData) noteAccept(component string) error {
	if d.checkCycle <= 0 {
		return nil
	}
	d.sinceCheck++
	if d.sinceCheck < d.checkCycle {
		return nil
	}
	d.sinceCheck = 0
	d.totalChecks++
	return d.verify(component)
}

// verify recomputes every determinant (and, for deterministic trace
// strategies, the trace) from scratch and compares against the maintained
// values. Divergence beyond the tolerance is fatal: it means an incremental
// update is wrong and all statistics after it would be corrupted.
func (d *chainData) verify(component string) error {
	incremental := d.Weight()
	full := 1.0
	if d.trace.Deterministic() {
		full = d.trace.Evaluate(d.conf.Ops())
	} else {
		full = d.curTrace
	}
	for _, db := range d.dets {
		full *= db.FullDet(d.conf)
	}
	scale := math.Max(1, math.Abs(full))
	if math.Abs(incremental-full) > d.checkTol*scale || math.IsNaN(incremental) {
		return &ConsistencyError{Component: component, Incremental: incremental, Recomputed: full}
	}
	return nil
}
