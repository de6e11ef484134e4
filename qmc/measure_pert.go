package qmc

// PertOrderMeasure counts, sign-weighted, how often each perturbation order
// (number of operator pairs) of one block is visited. The histogram grows
// with the highest order reached; reduction pads workers to a common length.
type PertOrderMeasure struct {
	name  string
	data  *chainData
	block int
	hist  *Histogram
}

// NewPertOrderMeasure creates the order histogram for one block.
func NewPertOrderMeasure(data *chainData, block int, blockName string) *PertOrderMeasure {
	return &PertOrderMeasure{
		name:  "Perturbation order (" + blockName + ")",
		data:  data,
		block: block,
		hist:  NewHistogram(1),
	}
}

func (m *PertOrderMeasure) Name() string          { return m.name }
func (m *PertOrderMeasure) Histogram() *Histogram { return m.hist }
func (m *PertOrderMeasure) FixedShape() bool      { return false }

// Accumulate increments the counter of the current order.
func (m *PertOrderMeasure) Accumulate(sign float64) {
	k := m.data.conf.PairCount(m.block)
	m.hist.Ensure(k + 1)
	m.hist.Bins[k] += sign
	m.hist.Samples++
}
