package qmc

import (
	"math"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/stretchr/testify/require"
)

// detTestDelta builds a smooth, non-degenerate hybridization so random
// matrices stay well conditioned.
func detTestDelta(t *testing.T, beta float64, nOrb int) *Hybridization {
	t.Helper()
	s := BlockStructure{{Name: "b", NOrbital: nOrb}}
	h, err := NewHybridization(beta, s, 512, func(b, i, j int, tau float64) float64 {
		amp := 0.4 + 0.15*float64(i+1)*float64(j+1)
		return -amp * math.Exp(-0.6*tau) / (1 + math.Exp(-0.6*beta))
	})
	require.NoError(t, err)
	return h
}

func requireDetConsistent(t *testing.T, d *detBlock, conf *Configuration) {
	t.Helper()
	full := d.FullDet(conf)
	scale := math.Max(1, math.Abs(full))
	require.InDelta(t, full, d.det, 1e-8*scale, "maintained det drifted from LU recompute at order %d", d.k)

	if d.k == 0 {
		return
	}
	// M · minv must be the identity: minv is the plain inverse with rows
	// pairing to M's columns.
	creOps := conf.Creation(d.block)
	annOps := conf.Annihilation(d.block)
	k := d.k
	m := mat.NewDense(k, k, nil)
	for i := 0; i < k; i++ {
		for j := 0; j < k; j++ {
			m.Set(i, j, d.eval(annOps[i], creOps[j]))
		}
	}
	var prod mat.Dense
	prod.Mul(m, d.minv)
	for i := 0; i < k; i++ {
		for j := 0; j < k; j++ {
			want := 0.0
			if i == j {
				want = 1
			}
			require.InDelta(t, want, prod.At(i, j), 1e-7, "inverse drifted at (%d,%d), order %d", i, j, k)
		}
	}
}

func TestDetBlock_RandomWalkMatchesLU(t *testing.T) {
	for _, nOrb := range []int{1, 2} {
		beta := 5.0
		delta := detTestDelta(t, beta, nOrb)
		conf := NewConfiguration(1)
		d := newDetBlock(delta, 0)
		rng := rand.New(rand.NewSource(99))

		for step := 0; step < 300; step++ {
			k := conf.PairCount(0)
			if k == 0 || rng.Float64() < 0.6 {
				cre := Operator{Tau: rng.Float64() * beta, Orbital: rng.Intn(nOrb), Kind: Creation}
				ann := Operator{Tau: rng.Float64() * beta, Orbital: rng.Intn(nOrb), Kind: Annihilation}
				c := conf.SortedPos(0, Creation, cre.Tau)
				r := conf.SortedPos(0, Annihilation, ann.Tau)

				before := d.det
				p := d.ProposeInsert(conf, cre, c, ann, r)
				if math.Abs(p.ratio) < 1e-10 {
					continue
				}
				d.CommitInsert(p)
				conf.Insert(cre)
				conf.Insert(ann)
				require.InDelta(t, before*p.ratio, d.det, 1e-8*math.Max(1, math.Abs(d.det)),
					"insert ratio disagrees with det update")
			} else {
				c := rng.Intn(k)
				r := rng.Intn(k)
				before := d.det
				ratio := d.ProposeRemove(c, r)
				if math.Abs(ratio) < 1e-10 {
					continue
				}
				d.CommitRemove(c, r)
				conf.RemovePair(0, c, r)
				require.InDelta(t, before*ratio, d.det, 1e-8*math.Max(1, math.Abs(d.det)),
					"remove ratio disagrees with det update")
			}
			requireDetConsistent(t, d, conf)
		}
	}
}

func TestDetBlock_InsertRemoveRoundTrip(t *testing.T) {
	beta := 3.0
	delta := detTestDelta(t, beta, 1)
	conf := NewConfiguration(1)
	d := newDetBlock(delta, 0)
	rng := rand.New(rand.NewSource(5))

	// Grow to a handful of pairs.
	for i := 0; i < 4; i++ {
		cre := Operator{Tau: rng.Float64() * beta, Kind: Creation}
		ann := Operator{Tau: rng.Float64() * beta, Kind: Annihilation}
		c := conf.SortedPos(0, Creation, cre.Tau)
		r := conf.SortedPos(0, Annihilation, ann.Tau)
		p := d.ProposeInsert(conf, cre, c, ann, r)
		d.CommitInsert(p)
		conf.Insert(cre)
		conf.Insert(ann)
	}

	// Inserting a pair and then removing the same pair must give inverse
	// ratios: the determinant comes back exactly.
	detBefore := d.det
	cre := Operator{Tau: 1.234, Kind: Creation}
	ann := Operator{Tau: 2.345, Kind: Annihilation}
	c := conf.SortedPos(0, Creation, cre.Tau)
	r := conf.SortedPos(0, Annihilation, ann.Tau)
	p := d.ProposeInsert(conf, cre, c, ann, r)
	d.CommitInsert(p)
	conf.Insert(cre)
	conf.Insert(ann)

	back := d.ProposeRemove(c, r)
	require.InDelta(t, 1.0, p.ratio*back, 1e-9, "insert and remove ratios must be inverses")

	d.CommitRemove(c, r)
	conf.RemovePair(0, c, r)
	require.InDelta(t, detBefore, d.det, 1e-9*math.Max(1, math.Abs(detBefore)))
}

func TestDetBlock_EmptyBlock(t *testing.T) {
	delta := detTestDelta(t, 1.0, 1)
	conf := NewConfiguration(1)
	d := newDetBlock(delta, 0)

	require.Equal(t, 1.0, d.Det())
	require.Equal(t, 1.0, d.FullDet(conf))
	require.Equal(t, 0, d.Order())
}
