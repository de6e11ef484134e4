package qmc

import "math"

// InsertMove proposes adding one creation and one annihilation operator of
// one block at independently drawn uniform times. One InsertMove is
// registered per block, paired with a RemoveMove on the same block as its
// detailed-balance reverse.
type InsertMove struct {
	name  string
	data  *chainData
	block int
	nOrb  int

	pend     pendingInsert
	newTrace float64
	ratio    float64
	valid    bool
}

// NewInsertMove creates the insertion move for one block.
func NewInsertMove(data *chainData, block int, blockName string) *InsertMove {
	return &InsertMove{
		name:  "Insert Delta_" + blockName,
		data:  data,
		block: block,
		nOrb:  data.delta.NOrbital(block),
	}
}

func (m *InsertMove) Name() string { return m.name }

// Attempt draws (τ_cre, τ_ann, orb_cre, orb_ann), computes the weight ratio
// through the bordered determinant update and a candidate trace evaluation,
// and folds in the proposal normalization (βn/(k+1))². The draw order is
// fixed so a seed reproduces the chain regardless of accept/reject outcomes.
func (m *InsertMove) Attempt() float64 {
	m.valid = false
	d := m.data
	k := d.conf.PairCount(m.block)
	if k >= d.maxOrder {
		// Soft growth cap: degenerate proposal, rejected before any draw.
		return 0
	}

	tauC := d.rng.Time(d.beta)
	tauA := d.rng.Time(d.beta)
	orbC := d.rng.Pick(m.nOrb)
	orbA := d.rng.Pick(m.nOrb)

	cre := Operator{Tau: tauC, Block: m.block, Orbital: orbC, Kind: Creation}
	ann := Operator{Tau: tauA, Block: m.block, Orbital: orbA, Kind: Annihilation}
	c := d.conf.SortedPos(m.block, Creation, tauC)
	r := d.conf.SortedPos(m.block, Annihilation, tauA)

	m.pend = d.dets[m.block].ProposeInsert(d.conf, cre, c, ann, r)
	m.newTrace = d.trace.Evaluate(d.conf.WithPair(cre, ann))

	prop := d.beta * float64(m.nOrb) / float64(k+1)
	ratio := (m.newTrace / d.curTrace) * m.pend.ratio * prop * prop
	if math.IsNaN(ratio) || math.IsInf(ratio, 0) {
		return 0
	}
	m.ratio = ratio
	m.valid = true
	return ratio
}

// Accept commits the insertion and returns the sign of the accepted ratio.
func (m *InsertMove) Accept() float64 {
	d := m.data
	d.conf.Insert(m.pend.cre)
	d.conf.Insert(m.pend.ann)
	d.dets[m.block].CommitInsert(m.pend)
	d.curTrace = m.newTrace
	m.valid = false
	if m.ratio < 0 {
		return -1
	}
	return 1
}

// Reject discards the candidate; configuration and weight are untouched.
func (m *InsertMove) Reject() { m.valid = false }
