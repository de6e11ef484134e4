package qmc

import "fmt"

// BlockDescriptor names one symmetry block of the problem and its orbital
// count. The block order fixes block indices everywhere in the engine.
type BlockDescriptor struct {
	Name     string
	NOrbital int
}

// BlockStructure is the ordered list of symmetry blocks (the gf structure).
type BlockStructure []BlockDescriptor

// Validate checks the structure before a run.
func (s BlockStructure) Validate() error {
	if len(s) == 0 {
		return &ConfigurationError{Field: "blocks", Msg: "at least one block required"}
	}
	seen := map[string]bool{}
	for _, b := range s {
		if b.NOrbital < 1 {
			return &ConfigurationError{Field: "blocks", Msg: fmt.Sprintf("block %q needs at least one orbital", b.Name)}
		}
		if seen[b.Name] {
			return &ConfigurationError{Field: "blocks", Msg: fmt.Sprintf("duplicate block name %q", b.Name)}
		}
		seen[b.Name] = true
	}
	return nil
}

// NFlavors returns the total orbital count across blocks.
func (s BlockStructure) NFlavors() int {
	n := 0
	for _, b := range s {
		n += b.NOrbital
	}
	return n
}

// FlavorIndex maps (block, orbital) to the linear flavor index used by the
// local Hamiltonian. Blocks contribute flavors in declaration order.
func (s BlockStructure) FlavorIndex(block, orbital int) int {
	idx := orbital
	for b := 0; b < block; b++ {
		idx += s[b].NOrbital
	}
	return idx
}

// Hybridization is the block-structured imaginary-time hybridization
// function Δ(τ), sampled on a uniform τ grid and evaluated by linear
// interpolation with the fermionic antiperiodic extension
// Δ(τ) = -Δ(τ+β) for τ < 0. Immutable for the lifetime of a solve call.
type Hybridization struct {
	Beta   float64
	blocks []deltaBlock
}

type deltaBlock struct {
	nOrb int
	// samples[i*nOrb+j] holds Δ_ij on nTau+1 uniform points covering [0, β].
	samples [][]float64
	dtau    float64
}

// NewHybridization samples f(block, i, j, τ) on an (nTau+1)-point grid per
// block. f must already carry the correct discontinuity at τ=0/β; this
// constructor only samples it.
func NewHybridization(beta float64, structure BlockStructure, nTau int, f func(block, i, j int, tau float64) float64) (*Hybridization, error) {
	if beta <= 0 {
		return nil, &ConfigurationError{Field: "beta", Msg: "must be positive"}
	}
	if nTau < 2 {
		return nil, &ConfigurationError{Field: "n_tau", Msg: "need at least two grid points"}
	}
	if err := structure.Validate(); err != nil {
		return nil, err
	}
	h := &Hybridization{Beta: beta, blocks: make([]deltaBlock, len(structure))}
	dtau := beta / float64(nTau)
	for b, desc := range structure {
		n := desc.NOrbital
		blk := deltaBlock{nOrb: n, dtau: dtau, samples: make([][]float64, n*n)}
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				row := make([]float64, nTau+1)
				for k := 0; k <= nTau; k++ {
					row[k] = f(b, i, j, float64(k)*dtau)
				}
				blk.samples[i*n+j] = row
			}
		}
		h.blocks[b] = blk
	}
	return h, nil
}

// NBlocks returns the number of symmetry blocks.
func (h *Hybridization) NBlocks() int { return len(h.blocks) }

// NOrbital returns the orbital count of one block.
func (h *Hybridization) NOrbital(block int) int { return h.blocks[block].nOrb }

// Eval returns Δ_ij(τ) for τ ∈ (-β, β). Negative times use the antiperiodic
// extension; τ = 0 is taken as the τ → 0⁺ limit.
func (h *Hybridization) Eval(block, i, j int, tau float64) float64 {
	sign := 1.0
	if tau < 0 {
		tau += h.Beta
		sign = -1.0
	}
	blk := &h.blocks[block]
	row := blk.samples[i*blk.nOrb+j]
	pos := tau / blk.dtau
	k := int(pos)
	if k >= len(row)-1 {
		return sign * row[len(row)-1]
	}
	frac := pos - float64(k)
	return sign * ((1-frac)*row[k] + frac*row[k+1])
}
