package qmc

import (
	"fmt"
	"math"
	"math/bits"
)

// LocalHamiltonian describes the interacting local problem in a
// density-density form, diagonal in the occupation-number (Fock) basis:
//
//	H_loc = Σ_i ε_i n_i + Σ_{i<j} U_ij n_i n_j
//
// Flavors are the linear orbital indices defined by the block structure.
// Diagonality is what makes exact sector-restricted trace evaluation cheap:
// every Fock state is its own quantum-number sector.
// Read-only during sampling.
type LocalHamiltonian struct {
	structure BlockStructure
	nFlavors  int
	eps       []float64
	u         [][]float64
}

// NewLocalHamiltonian builds the local Hamiltonian. eps has one level per
// flavor; u is the symmetric density-density matrix (nil means zero).
func NewLocalHamiltonian(structure BlockStructure, eps []float64, u [][]float64) (*LocalHamiltonian, error) {
	if err := structure.Validate(); err != nil {
		return nil, err
	}
	n := structure.NFlavors()
	if n > 64 {
		return nil, &ConfigurationError{Field: "blocks", Msg: "at most 64 flavors supported"}
	}
	if len(eps) != n {
		return nil, &ConfigurationError{Field: "eps", Msg: fmt.Sprintf("need %d levels, got %d", n, len(eps))}
	}
	if u == nil {
		u = make([][]float64, n)
		for i := range u {
			u[i] = make([]float64, n)
		}
	}
	if len(u) != n {
		return nil, &ConfigurationError{Field: "u", Msg: fmt.Sprintf("need %dx%d matrix", n, n)}
	}
	for i := range u {
		if len(u[i]) != n {
			return nil, &ConfigurationError{Field: "u", Msg: fmt.Sprintf("need %dx%d matrix", n, n)}
		}
		for j := range u[i] {
			if u[i][j] != u[j][i] {
				return nil, &ConfigurationError{Field: "u", Msg: "interaction matrix must be symmetric"}
			}
		}
	}
	return &LocalHamiltonian{structure: structure, nFlavors: n, eps: eps, u: u}, nil
}

// NFlavors returns the number of flavors (linear orbital indices).
func (h *LocalHamiltonian) NFlavors() int { return h.nFlavors }

// Structure returns the block structure the flavor indices derive from.
func (h *LocalHamiltonian) Structure() BlockStructure { return h.structure }

// Flavor returns the linear flavor index of an operator.
func (h *LocalHamiltonian) Flavor(op Operator) int {
	return h.structure.FlavorIndex(op.Block, op.Orbital)
}

// Energy returns the eigenenergy of a Fock state given as an occupation
// bitmask.
func (h *LocalHamiltonian) Energy(state uint64) float64 {
	e := 0.0
	for s := state; s != 0; {
		i := bits.TrailingZeros64(s)
		s &= s - 1
		e += h.eps[i]
		for r := s; r != 0; {
			j := bits.TrailingZeros64(r)
			r &= r - 1
			e += h.u[i][j]
		}
	}
	return e
}

// SectorConstraints inspects a time-ordered operator sequence and returns
// the occupancies it forces on the boundary Fock state: a flavor whose
// earliest operator annihilates must start occupied, one whose earliest
// operator creates must start empty. valid is false when some flavor's
// operators cannot close a cycle (non-alternating kinds or unbalanced
// counts), in which case the trace vanishes identically.
func (h *LocalHamiltonian) SectorConstraints(ops []Operator) (forcedMask, forcedOcc uint64, valid bool) {
	var lastKind [64]OperatorKind
	var balance [64]int
	for _, op := range ops {
		f := h.Flavor(op)
		bit := uint64(1) << f
		if forcedMask&bit == 0 {
			forcedMask |= bit
			if op.Kind == Annihilation {
				forcedOcc |= bit
			}
		} else if lastKind[f] == op.Kind {
			return 0, 0, false
		}
		lastKind[f] = op.Kind
		if op.Kind == Creation {
			balance[f]++
		} else {
			balance[f]--
		}
	}
	for m := forcedMask; m != 0; {
		f := bits.TrailingZeros64(m)
		m &= m - 1
		if balance[f] != 0 {
			return 0, 0, false
		}
	}
	return forcedMask, forcedOcc, true
}

// Contribution propagates one boundary Fock state across the time-ordered
// operator sequence and returns its signed term in the trace:
//
//	±  e^{-E(n_m)(β-τ_m)} · … · e^{-E(n_1)(τ_2-τ_1)} · e^{-E(n_0)τ_1}
//
// with the fermionic sign from the Jordan-Wigner strings of each operator
// application. Returns 0 when an operator is blocked (annihilating an empty
// flavor or creating an occupied one) or the cycle does not close.
func (h *LocalHamiltonian) Contribution(ops []Operator, beta float64, initial uint64) float64 {
	state := initial
	w := 1.0
	sign := 1.0
	prev := 0.0
	for _, op := range ops {
		w *= math.Exp(-h.Energy(state) * (op.Tau - prev))
		f := h.Flavor(op)
		bit := uint64(1) << f
		occupied := state&bit != 0
		if (op.Kind == Annihilation) != occupied {
			return 0
		}
		if bits.OnesCount64(state&(bit-1))%2 == 1 {
			sign = -sign
		}
		state ^= bit
		prev = op.Tau
	}
	if state != initial {
		return 0
	}
	w *= math.Exp(-h.Energy(state) * (beta - prev))
	return sign * w
}

// AtomicPartition returns Σ_n e^{-βE(n)}, the trace of the empty diagram.
func (h *LocalHamiltonian) AtomicPartition(beta float64) float64 {
	z := 0.0
	for n := uint64(0); n < uint64(1)<<h.nFlavors; n++ {
		z += math.Exp(-beta * h.Energy(n))
	}
	return z
}
