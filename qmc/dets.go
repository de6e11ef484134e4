package qmc

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// detBlock maintains one block's hybridization matrix
//
//	M[i][j] = Δ_block(orb(ann_i), orb(cre_j), τ(ann_i) − τ(cre_j))
//
// with rows and columns in the configuration's time order, together with
// its inverse and determinant. Insert/Remove ratios come from bordering /
// Sherman-Morrison updates in O(k²); the from-scratch LU path stays
// available as the correctness oracle for the periodic drift check.
//
// The inverse is stored transposed relative to M: minv rows index creation
// operators (M columns), minv columns index annihilation operators (M rows).
type detBlock struct {
	delta *Hybridization
	block int
	k     int
	minv  *mat.Dense // k×k, nil while k == 0
	det   float64
}

func newDetBlock(delta *Hybridization, block int) *detBlock {
	return &detBlock{delta: delta, block: block, det: 1}
}

// Det returns the current determinant (1 for the empty block).
func (d *detBlock) Det() float64 { return d.det }

// Order returns the block's pair count.
func (d *detBlock) Order() int { return d.k }

// MinvAt returns (M⁻¹) entry for creation index c and annihilation index a.
func (d *detBlock) MinvAt(c, a int) float64 { return d.minv.At(c, a) }

func (d *detBlock) eval(ann, cre Operator) float64 {
	return d.delta.Eval(d.block, ann.Orbital, cre.Orbital, ann.Tau-cre.Tau)
}

func parity(n int) float64 {
	if n%2 != 0 {
		return -1
	}
	return 1
}

// pendingInsert carries the intermediates of a proposed insertion between
// the ratio computation and the commit.
type pendingInsert struct {
	cre, ann Operator
	c, r     int // sorted column/row positions of the new operators
	colQ     []float64
	rowR     []float64
	zeta     float64
	ratio    float64
}

// ProposeInsert computes the determinant ratio for adding one creation
// operator at sorted column c and one annihilation operator at sorted row r,
// without touching the maintained state.
func (d *detBlock) ProposeInsert(conf *Configuration, cre Operator, c int, ann Operator, r int) pendingInsert {
	creOps := conf.Creation(d.block)
	annOps := conf.Annihilation(d.block)
	k := d.k

	colQ := make([]float64, k) // Δ(ann_i, new cre), indexed by annihilation rows
	rowR := make([]float64, k) // Δ(new ann, cre_j), indexed by creation columns
	for i := 0; i < k; i++ {
		colQ[i] = d.eval(annOps[i], cre)
		rowR[i] = d.eval(ann, creOps[i])
	}
	s := d.eval(ann, cre)

	zeta := s
	if k > 0 {
		// zeta = S − R·M⁻¹·Q
		rm := make([]float64, k) // (R·M⁻¹)_a over annihilation indices
		for a := 0; a < k; a++ {
			acc := 0.0
			for cj := 0; cj < k; cj++ {
				acc += rowR[cj] * d.minv.At(cj, a)
			}
			rm[a] = acc
		}
		for a := 0; a < k; a++ {
			zeta -= rm[a] * colQ[a]
		}
	}
	return pendingInsert{
		cre: cre, ann: ann, c: c, r: r,
		colQ: colQ, rowR: rowR,
		zeta:  zeta,
		ratio: parity(r+c) * zeta,
	}
}

// CommitInsert applies a previously proposed insertion to the maintained
// inverse and determinant.
func (d *detBlock) CommitInsert(p pendingInsert) {
	k := d.k
	kn := k + 1

	// Bordered inverse with the new operators appended last, then a cyclic
	// permutation moves them to their time-ordered positions.
	next := mat.NewDense(kn, kn, nil)
	if k == 0 {
		next.Set(0, 0, 1/p.zeta)
	} else {
		pv := make([]float64, k) // M⁻¹·Q, over creation indices
		qv := make([]float64, k) // R·M⁻¹, over annihilation indices
		for i := 0; i < k; i++ {
			acc := 0.0
			for a := 0; a < k; a++ {
				acc += d.minv.At(i, a) * p.colQ[a]
			}
			pv[i] = acc
		}
		for a := 0; a < k; a++ {
			acc := 0.0
			for cj := 0; cj < k; cj++ {
				acc += p.rowR[cj] * d.minv.At(cj, a)
			}
			qv[a] = acc
		}
		for i := 0; i < k; i++ {
			for j := 0; j < k; j++ {
				next.Set(i, j, d.minv.At(i, j)+pv[i]*qv[j]/p.zeta)
			}
			next.Set(i, k, -pv[i]/p.zeta)
		}
		for j := 0; j < k; j++ {
			next.Set(k, j, -qv[j]/p.zeta)
		}
		next.Set(k, k, 1/p.zeta)
	}

	// Row k of the inverse is the new creation operator: move it to row c.
	// Column k is the new annihilation operator: move it to column r.
	perm := mat.NewDense(kn, kn, nil)
	for i := 0; i < kn; i++ {
		si := sourceIndex(i, p.c, kn)
		for j := 0; j < kn; j++ {
			perm.Set(i, j, next.At(si, sourceIndex(j, p.r, kn)))
		}
	}

	d.minv = perm
	d.k = kn
	d.det *= p.ratio
}

// sourceIndex maps a position in the permuted matrix back to the appended
// layout: position dest holds the appended (last) entry, positions after it
// shift up by one.
func sourceIndex(i, dest, n int) int {
	switch {
	case i == dest:
		return n - 1
	case i > dest:
		return i - 1
	default:
		return i
	}
}

// ProposeRemove returns the determinant ratio for removing the creation
// operator at column c and the annihilation operator at row r.
func (d *detBlock) ProposeRemove(c, r int) float64 {
	return parity(r+c) * d.minv.At(c, r)
}

// CommitRemove applies a previously proposed removal.
func (d *detBlock) CommitRemove(c, r int) {
	zeta := d.minv.At(c, r)
	kn := d.k - 1
	if kn == 0 {
		d.minv = nil
	} else {
		next := mat.NewDense(kn, kn, nil)
		for i, ii := 0, 0; i < d.k; i++ {
			if i == c {
				continue
			}
			for j, jj := 0, 0; j < d.k; j++ {
				if j == r {
					continue
				}
				next.Set(ii, jj, d.minv.At(i, j)-d.minv.At(i, r)*d.minv.At(c, j)/zeta)
				jj++
			}
			ii++
		}
		d.minv = next
	}
	d.det *= parity(r+c) * zeta
	d.k = kn
}

// FullDet rebuilds the block matrix from the configuration and returns its
// determinant via LU. This is the oracle the drift check compares against.
func (d *detBlock) FullDet(conf *Configuration) float64 {
	creOps := conf.Creation(d.block)
	annOps := conf.Annihilation(d.block)
	k := len(creOps)
	if k == 0 {
		return 1
	}
	m := mat.NewDense(k, k, nil)
	for i := 0; i < k; i++ {
		for j := 0; j < k; j++ {
			m.Set(i, j, d.eval(annOps[i], creOps[j]))
		}
	}
	var lu mat.LU
	lu.Factorize(m)
	logDet, sign := lu.LogDet()
	return sign * math.Exp(logDet)
}

// Rebuild replaces the maintained inverse and determinant with from-scratch
// values. Used by tests and after a verified drift check if desired.
func (d *detBlock) Rebuild(conf *Configuration) {
	creOps := conf.Creation(d.block)
	k := len(creOps)
	d.det = d.FullDet(conf)
	d.k = k
	if k == 0 {
		d.minv = nil
		return
	}
	annOps := conf.Annihilation(d.block)
	m := mat.NewDense(k, k, nil)
	for i := 0; i < k; i++ {
		for j := 0; j < k; j++ {
			m.Set(i, j, d.eval(annOps[i], creOps[j]))
		}
	}
	inv := mat.NewDense(k, k, nil)
	if err := inv.Inverse(m); err == nil {
		// Rows of M⁻¹ pair with columns of M, so inv already has the
		// creation-by-annihilation layout minv uses.
		d.minv = inv
	}
}
