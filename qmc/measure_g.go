package qmc

// GreenMeasure accumulates the imaginary-time Green's function of one block
// into a fixed-resolution histogram. For every (annihilation i, creation j)
// pair of the block it bins
//
//	sign · s · (M⁻¹)_{ji}   at   τ = τ_ann − τ_cre  (mod β, s = −1 on wrap)
//
// the standard hybridization-expansion estimator. The histogram is laid out
// as nOrb×nOrb blocks of nBins: index (oa·nOrb + oc)·nBins + bin, where oa
// is the annihilation (row) orbital and oc the creation (column) orbital.
// Normalization is the caller's job, once, after reduction.
type GreenMeasure struct {
	name  string
	data  *chainData
	block int
	nOrb  int
	nBins int
	hist  *Histogram
}

// NewGreenMeasure creates the G(τ) accumulator for one block.
func NewGreenMeasure(data *chainData, block int, blockName string, nBins int) *GreenMeasure {
	nOrb := data.delta.NOrbital(block)
	return &GreenMeasure{
		name:  "G measure (" + blockName + ")",
		data:  data,
		block: block,
		nOrb:  nOrb,
		nBins: nBins,
		hist:  NewHistogram(nOrb * nOrb * nBins),
	}
}

func (m *GreenMeasure) Name() string         { return m.name }
func (m *GreenMeasure) Histogram() *Histogram { return m.hist }
func (m *GreenMeasure) FixedShape() bool     { return true }

// Accumulate folds every same-block operator pair of the current diagram
// into the histogram. Reads the configuration and determinant inverse;
// never mutates them.
func (m *GreenMeasure) Accumulate(sign float64) {
	d := m.data
	det := d.dets[m.block]
	creOps := d.conf.Creation(m.block)
	annOps := d.conf.Annihilation(m.block)
	beta := d.beta

	for i, ann := range annOps {
		for j, cre := range creOps {
			tau := ann.Tau - cre.Tau
			s := 1.0
			if tau < 0 {
				tau += beta
				s = -1.0
			}
			bin := int(tau / beta * float64(m.nBins))
			if bin >= m.nBins {
				bin = m.nBins - 1
			}
			off := (ann.Orbital*m.nOrb + cre.Orbital) * m.nBins
			m.hist.Bins[off+bin] += sign * s * det.MinvAt(j, i)
		}
	}
	m.hist.Samples++
}
