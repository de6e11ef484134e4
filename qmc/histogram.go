package qmc

import (
	"fmt"

	"gonum.org/v1/gonum/stat"
)

// Histogram is a growable sign-weighted accumulator. It is the unit of
// cross-worker reduction: histograms with the same name are summed
// element-wise.
type Histogram struct {
	Bins    []float64
	Samples int64 // Accumulate invocations folded in
}

// NewHistogram creates a histogram with n zeroed bins.
func NewHistogram(n int) *Histogram {
	return &Histogram{Bins: make([]float64, n)}
}

// Ensure grows the histogram to hold at least n bins.
func (h *Histogram) Ensure(n int) {
	for len(h.Bins) < n {
		h.Bins = append(h.Bins, 0)
	}
}

// Clone returns a deep copy.
func (h *Histogram) Clone() *Histogram {
	out := &Histogram{Bins: make([]float64, len(h.Bins)), Samples: h.Samples}
	copy(out.Bins, h.Bins)
	return out
}

// Add folds another histogram in. fixed histograms (fixedLen true) must
// match lengths exactly; growable ones are padded to the longer length.
func (h *Histogram) Add(other *Histogram, fixedLen bool) error {
	if fixedLen && len(h.Bins) != len(other.Bins) {
		return &AggregationError{Msg: fmt.Sprintf("bin count mismatch: %d vs %d", len(h.Bins), len(other.Bins))}
	}
	h.Ensure(len(other.Bins))
	for i, v := range other.Bins {
		h.Bins[i] += v
	}
	h.Samples += other.Samples
	return nil
}

// MeanIndex returns the bin-index mean treating bin contents as weights,
// e.g. the average perturbation order of an order histogram. Returns 0 for
// an empty histogram.
func (h *Histogram) MeanIndex() float64 {
	total := 0.0
	for _, v := range h.Bins {
		total += v
	}
	if total == 0 {
		return 0
	}
	idx := make([]float64, len(h.Bins))
	for i := range idx {
		idx[i] = float64(i)
	}
	return stat.Mean(idx, h.Bins)
}
