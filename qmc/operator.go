package qmc

import "sort"

// OperatorKind tags an insertion as an annihilation (c) or creation (c†)
// operator.
type OperatorKind uint8

const (
	Annihilation OperatorKind = iota
	Creation
)

func (k OperatorKind) String() string {
	if k == Creation {
		return "c_dag"
	}
	return "c"
}

// Operator is a single operator insertion on the imaginary-time interval.
type Operator struct {
	Tau     float64
	Block   int
	Orbital int
	Kind    OperatorKind
}

// Configuration is the current diagram: a time-ordered multiset of operator
// insertions, plus per-block time-ordered views that index the rows and
// columns of the hybridization determinant matrices. Owned exclusively by
// one Markov chain; mutated only by accepted moves.
type Configuration struct {
	ops []Operator   // all operators, sorted by Tau ascending
	cre [][]Operator // per block, creation operators sorted by Tau
	ann [][]Operator // per block, annihilation operators sorted by Tau
}

// NewConfiguration creates the empty (vacuum) diagram for nBlocks blocks.
func NewConfiguration(nBlocks int) *Configuration {
	return &Configuration{
		cre: make([][]Operator, nBlocks),
		ann: make([][]Operator, nBlocks),
	}
}

// Size returns the total number of operator insertions.
func (c *Configuration) Size() int { return len(c.ops) }

// PairCount returns the perturbation order of one block: the number of
// (creation, annihilation) pairs it holds. Paired moves keep creation and
// annihilation counts equal per block.
func (c *Configuration) PairCount(block int) int { return len(c.cre[block]) }

// Ops returns the time-ordered operator sequence. The caller must not
// mutate it.
func (c *Configuration) Ops() []Operator { return c.ops }

// Creation returns block's creation operators in time order (determinant
// column order). Read-only for the caller.
func (c *Configuration) Creation(block int) []Operator { return c.cre[block] }

// Annihilation returns block's annihilation operators in time order
// (determinant row order). Read-only for the caller.
func (c *Configuration) Annihilation(block int) []Operator { return c.ann[block] }

// SortedPos returns the index at which an operator of the given kind and
// time would be inserted in block's time-ordered view.
func (c *Configuration) SortedPos(block int, kind OperatorKind, tau float64) int {
	view := c.ann[block]
	if kind == Creation {
		view = c.cre[block]
	}
	return sort.Search(len(view), func(i int) bool { return view[i].Tau >= tau })
}

// Insert places op at its sorted position in both the global sequence and
// its block view.
func (c *Configuration) Insert(op Operator) {
	i := sort.Search(len(c.ops), func(i int) bool { return c.ops[i].Tau >= op.Tau })
	c.ops = append(c.ops, Operator{})
	copy(c.ops[i+1:], c.ops[i:])
	c.ops[i] = op

	view := &c.ann[op.Block]
	if op.Kind == Creation {
		view = &c.cre[op.Block]
	}
	j := sort.Search(len(*view), func(i int) bool { return (*view)[i].Tau >= op.Tau })
	*view = append(*view, Operator{})
	copy((*view)[j+1:], (*view)[j:])
	(*view)[j] = op
}

// RemovePair removes block's creIdx-th creation and annIdx-th annihilation
// operators (time-ordered indices) and returns them.
func (c *Configuration) RemovePair(block, creIdx, annIdx int) (cre, ann Operator) {
	cre = c.cre[block][creIdx]
	ann = c.ann[block][annIdx]
	c.cre[block] = append(c.cre[block][:creIdx], c.cre[block][creIdx+1:]...)
	c.ann[block] = append(c.ann[block][:annIdx], c.ann[block][annIdx+1:]...)
	c.removeGlobal(cre)
	c.removeGlobal(ann)
	return cre, ann
}

func (c *Configuration) removeGlobal(op Operator) {
	i := sort.Search(len(c.ops), func(i int) bool { return c.ops[i].Tau >= op.Tau })
	for ; i < len(c.ops); i++ {
		if c.ops[i] == op {
			c.ops = append(c.ops[:i], c.ops[i+1:]...)
			return
		}
	}
}

// WithPair returns a time-ordered copy of the sequence with two extra
// operators merged in, for evaluating a candidate diagram without mutating
// the configuration.
func (c *Configuration) WithPair(a, b Operator) []Operator {
	out := make([]Operator, 0, len(c.ops)+2)
	out = append(out, c.ops...)
	insertSorted := func(op Operator) {
		i := sort.Search(len(out), func(i int) bool { return out[i].Tau >= op.Tau })
		out = append(out, Operator{})
		copy(out[i+1:], out[i:])
		out[i] = op
	}
	insertSorted(a)
	insertSorted(b)
	return out
}

// WithoutPair returns a time-ordered copy of the sequence with block's
// creIdx-th creation and annIdx-th annihilation operators left out.
func (c *Configuration) WithoutPair(block, creIdx, annIdx int) []Operator {
	cre := c.cre[block][creIdx]
	ann := c.ann[block][annIdx]
	out := make([]Operator, 0, len(c.ops)-2)
	for _, op := range c.ops {
		if op == cre || op == ann {
			continue
		}
		out = append(out, op)
	}
	return out
}
