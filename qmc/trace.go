package qmc

// TracePolicy selects the local-trace evaluation strategy. Exact
// enumeration visits every compatible Fock sector; the stochastic estimator
// subsamples the sectors left free by the diagram, trading variance for
// speed on large flavor counts.
type TracePolicy struct {
	Stochastic bool
	NSamples   int // sectors drawn per evaluation when stochastic (default 64)
}

// TraceEvaluator computes the local-Hamiltonian trace factor of a diagram
// given as a time-ordered operator sequence. Implementations are stateless
// with respect to the chain except for their private RNG (stochastic mode).
type TraceEvaluator interface {
	// Evaluate returns the (signed) trace of the sequence. An empty
	// sequence yields the atomic partition function.
	Evaluate(ops []Operator) float64
	// Deterministic reports whether repeated evaluations of the same
	// sequence return the same value. The weight drift check skips the
	// trace factor for non-deterministic evaluators.
	Deterministic() bool
}

// NewTraceEvaluatorFunc is set by qmc/localtrace's init(), breaking the
// import cycle between qmc (interface owner) and qmc/localtrace
// (implementations). Production code imports qmc/localtrace directly; test
// code in package qmc uses localtrace_import_test.go for the blank import.
var NewTraceEvaluatorFunc func(h *LocalHamiltonian, beta float64, policy TracePolicy, rng *RandomSource) TraceEvaluator

func newTraceEvaluator(h *LocalHamiltonian, beta float64, policy TracePolicy, rng *RandomSource) (TraceEvaluator, error) {
	if NewTraceEvaluatorFunc == nil {
		return nil, &ConfigurationError{Msg: "no trace evaluator registered (import qmc/localtrace)"}
	}
	return NewTraceEvaluatorFunc(h, beta, policy, rng), nil
}
