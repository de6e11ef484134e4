package qmc

import "math"

// RemoveMove proposes deleting one creation and one annihilation operator
// of one block, each chosen uniformly from the current diagram. It is the
// exact detailed-balance reverse of InsertMove on the same block.
type RemoveMove struct {
	name  string
	data  *chainData
	block int
	nOrb  int

	creIdx, annIdx int
	newTrace       float64
	ratio          float64
	valid          bool
}

// NewRemoveMove creates the removal move for one block.
func NewRemoveMove(data *chainData, block int, blockName string) *RemoveMove {
	return &RemoveMove{
		name:  "Remove Delta_" + blockName,
		data:  data,
		block: block,
		nOrb:  data.delta.NOrbital(block),
	}
}

func (m *RemoveMove) Name() string { return m.name }

// Attempt picks a (creation, annihilation) pair to delete and returns the
// Metropolis ratio with the proposal normalization (k/(βn))². An empty
// block rejects deterministically without drawing any randomness.
func (m *RemoveMove) Attempt() float64 {
	m.valid = false
	d := m.data
	k := d.conf.PairCount(m.block)
	if k == 0 {
		return 0
	}

	m.creIdx = d.rng.Pick(k)
	m.annIdx = d.rng.Pick(k)

	detRatio := d.dets[m.block].ProposeRemove(m.creIdx, m.annIdx)
	m.newTrace = d.trace.Evaluate(d.conf.WithoutPair(m.block, m.creIdx, m.annIdx))

	prop := float64(k) / (d.beta * float64(m.nOrb))
	ratio := (m.newTrace / d.curTrace) * detRatio * prop * prop
	if math.IsNaN(ratio) || math.IsInf(ratio, 0) {
		return 0
	}
	m.ratio = ratio
	m.valid = true
	return ratio
}

// Accept commits the removal and returns the sign of the accepted ratio.
func (m *RemoveMove) Accept() float64 {
	d := m.data
	d.conf.RemovePair(m.block, m.creIdx, m.annIdx)
	d.dets[m.block].CommitRemove(m.creIdx, m.annIdx)
	d.curTrace = m.newTrace
	m.valid = false
	if m.ratio < 0 {
		return -1
	}
	return 1
}

// Reject discards the candidate.
func (m *RemoveMove) Reject() { m.valid = false }
