// Package bath constructs hybridization functions Δ(τ) from physical bath
// parameterizations: discrete levels or a continuous band. The sampler
// itself never builds Δ; it consumes the immutable result.
package bath

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/integrate/quad"

	"github.com/impurity-sim/impurity-sim/qmc"
)

// Level is one discrete bath level: hopping amplitude V onto the impurity
// and on-site energy Eps.
type Level struct {
	V   float64 `yaml:"v"`
	Eps float64 `yaml:"eps"`
}

// Grid couples the τ resolution of Δ to the Matsubara cutoff used by the
// upstream preprocessing. The τ grid must oversample the frequency content
// or the sampled Δ aliases.
type Grid struct {
	NTau int `yaml:"n_tau"`
	NIw  int `yaml:"n_iw"`
}

// Validate rejects a τ grid too coarse for the frequency cutoff.
func (g Grid) Validate() error {
	if g.NTau <= 2*g.NIw {
		return &qmc.ConfigurationError{
			Field: "n_tau",
			Msg:   fmt.Sprintf("must use at least twice as many tau points as Matsubara frequencies: n_iw = %d but n_tau = %d", g.NIw, g.NTau),
		}
	}
	return nil
}

// levelG is the free-fermion imaginary-time propagator of one bath level,
// −⟨T c(τ) c†(0)⟩ for τ ∈ [0, β], written in the overflow-safe branch form.
func levelG(beta, eps, tau float64) float64 {
	if eps >= 0 {
		return -math.Exp(-eps*tau) / (1 + math.Exp(-beta*eps))
	}
	return -math.Exp(eps*(beta-tau)) / (1 + math.Exp(beta*eps))
}

// Discrete builds an orbital-diagonal Δ(τ) from per-block discrete levels:
//
//	Δ_ii(τ) = Σ_l V_l² · g_{ε_l}(τ)
//
// levels is indexed like the block structure.
func Discrete(beta float64, structure qmc.BlockStructure, grid Grid, levels [][]Level) (*qmc.Hybridization, error) {
	if err := grid.Validate(); err != nil {
		return nil, err
	}
	if len(levels) != len(structure) {
		return nil, &qmc.ConfigurationError{Field: "bath", Msg: fmt.Sprintf("need levels for %d blocks, got %d", len(structure), len(levels))}
	}
	return qmc.NewHybridization(beta, structure, grid.NTau, func(b, i, j int, tau float64) float64 {
		if i != j {
			return 0
		}
		v := 0.0
		for _, l := range levels[b] {
			v += l.V * l.V * levelG(beta, l.Eps, tau)
		}
		return v
	})
}

// Band builds an orbital-diagonal Δ(τ) from a continuous band with density
// of states dos on [-halfBandwidth, halfBandwidth] and uniform coupling v:
//
//	Δ_ii(τ) = v² ∫ dε dos(ε) g_ε(τ)
//
// The integral is evaluated by fixed-order Gauss-Legendre quadrature.
func Band(beta float64, structure qmc.BlockStructure, grid Grid, v, halfBandwidth float64, dos func(eps float64) float64) (*qmc.Hybridization, error) {
	if err := grid.Validate(); err != nil {
		return nil, err
	}
	if halfBandwidth <= 0 {
		return nil, &qmc.ConfigurationError{Field: "bath", Msg: "half bandwidth must be positive"}
	}
	const quadOrder = 64
	return qmc.NewHybridization(beta, structure, grid.NTau, func(b, i, j int, tau float64) float64 {
		if i != j {
			return 0
		}
		return v * v * quad.Fixed(func(eps float64) float64 {
			return dos(eps) * levelG(beta, eps, tau)
		}, -halfBandwidth, halfBandwidth, quadOrder, nil, 0)
	})
}

// Semicircular is the Bethe-lattice density of states with half bandwidth D.
func Semicircular(d float64) func(float64) float64 {
	return func(eps float64) float64 {
		x := 1 - eps*eps/(d*d)
		if x <= 0 {
			return 0
		}
		return 2 / (math.Pi * d) * math.Sqrt(x)
	}
}

// Flat is the constant density of states normalized on [-D, D].
func Flat(d float64) func(float64) float64 {
	return func(eps float64) float64 {
		if eps < -d || eps > d {
			return 0
		}
		return 1 / (2 * d)
	}
}

// Zero builds the vanishing hybridization, the decoupled-impurity limit.
func Zero(beta float64, structure qmc.BlockStructure, nTau int) (*qmc.Hybridization, error) {
	return qmc.NewHybridization(beta, structure, nTau, func(int, int, int, float64) float64 { return 0 })
}
