package qmc

import "fmt"

// WorkerResult is one worker's accumulated statistics: measurement
// histograms plus diagnostic counters. Reduce sums them across workers.
type WorkerResult struct {
	Rank         int
	Seed         int64
	Steps        int64
	Cycles       int64 // completed sampling cycles = measurement invocations
	SignSum      float64
	StoppedEarly bool
	Proposed     map[string]int64
	Accepted     map[string]int64
	Accumulators map[string]*Histogram
	FixedShape   map[string]bool
}

// AverageSign returns the per-cycle mean sign; 0 before any cycle completed
// so consumers never divide by zero.
func (r *WorkerResult) AverageSign() float64 {
	if r.Cycles == 0 {
		return 0
	}
	return r.SignSum / float64(r.Cycles)
}

// AcceptanceRate returns accepted/proposed for one move name.
func (r *WorkerResult) AcceptanceRate(name string) float64 {
	return rate(r.Accepted[name], r.Proposed[name])
}

// Reduce sums all measurement accumulators and diagnostic counters across
// workers. Every worker must carry the same measurement set; fixed-shape
// accumulators must agree on bin counts. Workers with zero accepted moves
// fold in without special-casing. Normalization is the caller's job, once,
// after this reduction.
func Reduce(workers []*WorkerResult) (*WorkerResult, error) {
	if len(workers) == 0 {
		return nil, &AggregationError{Msg: "no worker results to reduce"}
	}
	for i, w := range workers {
		if w == nil {
			return nil, &AggregationError{Msg: fmt.Sprintf("worker %d produced no result", i)}
		}
	}

	first := workers[0]
	total := &WorkerResult{
		Rank:         -1,
		Proposed:     make(map[string]int64),
		Accepted:     make(map[string]int64),
		Accumulators: make(map[string]*Histogram, len(first.Accumulators)),
		FixedShape:   make(map[string]bool, len(first.FixedShape)),
	}
	for name, h := range first.Accumulators {
		total.Accumulators[name] = NewHistogram(len(h.Bins))
		total.FixedShape[name] = first.FixedShape[name]
	}

	for _, w := range workers {
		if len(w.Accumulators) != len(total.Accumulators) {
			return nil, &AggregationError{Msg: fmt.Sprintf("rank %d has %d measurements, expected %d", w.Rank, len(w.Accumulators), len(total.Accumulators))}
		}
		for name, h := range w.Accumulators {
			agg, ok := total.Accumulators[name]
			if !ok {
				return nil, &AggregationError{Msg: fmt.Sprintf("rank %d carries unknown measurement %q", w.Rank, name)}
			}
			if err := agg.Add(h, total.FixedShape[name]); err != nil {
				return nil, &AggregationError{Msg: fmt.Sprintf("measurement %q from rank %d: %v", name, w.Rank, err)}
			}
		}
		total.Steps += w.Steps
		total.Cycles += w.Cycles
		total.SignSum += w.SignSum
		total.StoppedEarly = total.StoppedEarly || w.StoppedEarly
		for k, v := range w.Proposed {
			total.Proposed[k] += v
		}
		for k, v := range w.Accepted {
			total.Accepted[k] += v
		}
	}
	return total, nil
}
