package qmc

import "fmt"

// Move proposes a diagram mutation. Attempt draws the proposal and returns
// the signed Metropolis ratio (weight ratio times proposal-probability
// ratio); the scheduler then either calls Accept, which commits the
// mutation and returns the sign of the ratio, or Reject, which discards it.
// A zero ratio from Attempt means the move found no valid candidate and is
// rejected deterministically.
type Move interface {
	Name() string
	Attempt() float64
	Accept() float64
	Reject()
}

type weightedMove struct {
	move   Move
	weight float64
}

// MoveRegistry holds the registered moves with their relative attempt
// weights. Set once before the run starts; invariant for its duration.
type MoveRegistry struct {
	moves []weightedMove
	total float64
}

// Add registers a move. weight must be positive; names must be unique.
func (r *MoveRegistry) Add(m Move, weight float64) error {
	if weight <= 0 {
		return &ConfigurationError{Field: "moves", Msg: fmt.Sprintf("move %q needs a positive weight", m.Name())}
	}
	for _, wm := range r.moves {
		if wm.move.Name() == m.Name() {
			return &ConfigurationError{Field: "moves", Msg: fmt.Sprintf("duplicate move %q", m.Name())}
		}
	}
	r.moves = append(r.moves, weightedMove{move: m, weight: weight})
	r.total += weight
	return nil
}

// Len returns the number of registered moves.
func (r *MoveRegistry) Len() int { return len(r.moves) }

// Pick maps a uniform draw u ∈ [0,1) to a move by relative weight.
func (r *MoveRegistry) Pick(u float64) Move {
	target := u * r.total
	acc := 0.0
	for _, wm := range r.moves {
		acc += wm.weight
		if target < acc {
			return wm.move
		}
	}
	return r.moves[len(r.moves)-1].move
}
