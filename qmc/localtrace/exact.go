package localtrace

import (
	"math/bits"

	"github.com/impurity-sim/impurity-sim/qmc"
)

// exactTrace evaluates the local trace by enumerating every Fock sector
// compatible with the diagram. Flavors touched by operators have their
// boundary occupancy forced; only the untouched flavors are summed over.
type exactTrace struct {
	h    *qmc.LocalHamiltonian
	beta float64
}

func (t *exactTrace) Deterministic() bool { return true }

func (t *exactTrace) Evaluate(ops []qmc.Operator) float64 {
	forcedMask, forcedOcc, valid := t.h.SectorConstraints(ops)
	if !valid {
		return 0
	}
	free := freeFlavors(t.h.NFlavors(), forcedMask)
	total := 0.0
	for a := uint64(0); a < uint64(1)<<len(free); a++ {
		total += t.h.Contribution(ops, t.beta, spread(forcedOcc, free, a))
	}
	return total
}

// freeFlavors lists the flavor indices not constrained by the diagram.
func freeFlavors(nFlavors int, forcedMask uint64) []int {
	var free []int
	for f := 0; f < nFlavors; f++ {
		if forcedMask&(1<<f) == 0 {
			free = append(free, f)
		}
	}
	return free
}

// spread builds a boundary Fock state from the forced occupancies plus an
// assignment of the free flavors (bit i of a occupies free[i]).
func spread(forcedOcc uint64, free []int, a uint64) uint64 {
	state := forcedOcc
	for a != 0 {
		i := bits.TrailingZeros64(a)
		a &= a - 1
		state |= uint64(1) << free[i]
	}
	return state
}
