package localtrace

import "github.com/impurity-sim/impurity-sim/qmc"

// stochasticTrace estimates the local trace by uniform subsampling of the
// free-flavor sectors, scaled to stay unbiased. It trades variance for
// speed when many flavors are untouched by the diagram; when the sector
// count is at most the sample budget it falls back to exact enumeration.
type stochasticTrace struct {
	exact    exactTrace
	rng      *qmc.RandomSource
	nSamples int
}

func (t *stochasticTrace) Deterministic() bool { return false }

func (t *stochasticTrace) Evaluate(ops []qmc.Operator) float64 {
	forcedMask, forcedOcc, valid := t.exact.h.SectorConstraints(ops)
	if !valid {
		return 0
	}
	free := freeFlavors(t.exact.h.NFlavors(), forcedMask)
	nSectors := uint64(1) << len(free)
	if nSectors <= uint64(t.nSamples) {
		total := 0.0
		for a := uint64(0); a < nSectors; a++ {
			total += t.exact.h.Contribution(ops, t.exact.beta, spread(forcedOcc, free, a))
		}
		return total
	}

	sum := 0.0
	for s := 0; s < t.nSamples; s++ {
		var a uint64
		for i := range free {
			if t.rng.Uniform() < 0.5 {
				a |= uint64(1) << i
			}
		}
		sum += t.exact.h.Contribution(ops, t.exact.beta, spread(forcedOcc, free, a))
	}
	return sum * float64(nSectors) / float64(t.nSamples)
}
