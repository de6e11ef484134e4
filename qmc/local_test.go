package qmc

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoFlavorHamiltonian(t *testing.T, eps0, eps1, u float64) *LocalHamiltonian {
	t.Helper()
	h, err := NewLocalHamiltonian(testStructure(), []float64{eps0, eps1}, [][]float64{
		{0, u},
		{u, 0},
	})
	require.NoError(t, err)
	return h
}

func TestLocalHamiltonian_Energy(t *testing.T) {
	h := twoFlavorHamiltonian(t, 0.5, -0.3, 2.0)

	tests := []struct {
		state uint64
		want  float64
	}{
		{0b00, 0},
		{0b01, 0.5},
		{0b10, -0.3},
		{0b11, 0.5 - 0.3 + 2.0},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, h.Energy(tt.state), 1e-15, "state %b", tt.state)
	}
}

func TestLocalHamiltonian_AtomicPartition(t *testing.T) {
	h := twoFlavorHamiltonian(t, 0.5, -0.3, 2.0)
	beta := 1.7
	want := 1 + math.Exp(-beta*0.5) + math.Exp(-beta*-0.3) + math.Exp(-beta*(0.5-0.3+2.0))
	assert.InDelta(t, want, h.AtomicPartition(beta), 1e-12)
}

func TestSectorConstraints(t *testing.T) {
	h := twoFlavorHamiltonian(t, 0, 0, 0)

	// Earliest operator annihilates flavor 0: it must start occupied.
	ops := []Operator{
		{Tau: 0.2, Block: 0, Kind: Annihilation},
		{Tau: 0.8, Block: 0, Kind: Creation},
	}
	mask, occ, valid := h.SectorConstraints(ops)
	require.True(t, valid)
	assert.Equal(t, uint64(0b01), mask)
	assert.Equal(t, uint64(0b01), occ)

	// Earliest operator creates: flavor must start empty.
	ops[0].Kind = Creation
	ops[1].Kind = Annihilation
	mask, occ, valid = h.SectorConstraints(ops)
	require.True(t, valid)
	assert.Equal(t, uint64(0b01), mask)
	assert.Equal(t, uint64(0b00), occ)

	// Two creations in a row on one flavor cannot close a cycle.
	bad := []Operator{
		{Tau: 0.1, Block: 0, Kind: Creation},
		{Tau: 0.5, Block: 0, Kind: Creation},
	}
	_, _, valid = h.SectorConstraints(bad)
	assert.False(t, valid)

	// Unbalanced counts cannot close either.
	unbalanced := []Operator{
		{Tau: 0.1, Block: 0, Kind: Creation},
		{Tau: 0.5, Block: 1, Kind: Annihilation},
	}
	_, _, valid = h.SectorConstraints(unbalanced)
	assert.False(t, valid)
}

func TestContribution_ClosedCycle(t *testing.T) {
	beta := 2.0
	eps := 0.7
	h := twoFlavorHamiltonian(t, eps, 0, 0)

	// One segment of occupation on flavor 0: c†(0.5) then c(1.5),
	// starting from the empty state. Weight is e^{-eps·(1.5-0.5)}.
	ops := []Operator{
		{Tau: 0.5, Block: 0, Kind: Creation},
		{Tau: 1.5, Block: 0, Kind: Annihilation},
	}
	got := h.Contribution(ops, beta, 0)
	assert.InDelta(t, math.Exp(-eps*1.0), got, 1e-12)

	// Blocked: creating on an occupied flavor gives zero.
	assert.Zero(t, h.Contribution(ops, beta, 0b01))

	// Empty sequence from state n: e^{-beta·E(n)}.
	assert.InDelta(t, math.Exp(-beta*eps), h.Contribution(nil, beta, 0b01), 1e-12)
}

func TestLocalHamiltonian_Validation(t *testing.T) {
	_, err := NewLocalHamiltonian(testStructure(), []float64{0}, nil)
	assert.Error(t, err, "wrong eps length")

	_, err = NewLocalHamiltonian(testStructure(), []float64{0, 0}, [][]float64{
		{0, 1},
		{2, 0},
	})
	assert.Error(t, err, "asymmetric interaction")
}
