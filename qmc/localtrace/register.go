// register.go wires qmc/localtrace constructors into the qmc package's
// registration variable (NewTraceEvaluatorFunc). This init() runs when any
// package imports qmc/localtrace, breaking the import cycle between qmc/
// (interface owner) and qmc/localtrace/ (implementations). Production code
// imports qmc/localtrace directly; test code in package qmc uses
// localtrace_import_test.go for the blank import.
package localtrace

import "github.com/impurity-sim/impurity-sim/qmc"

const defaultSamples = 64

func init() {
	qmc.NewTraceEvaluatorFunc = NewTraceEvaluator
}

// NewTraceEvaluator builds the trace strategy selected by the policy.
func NewTraceEvaluator(h *qmc.LocalHamiltonian, beta float64, policy qmc.TracePolicy, rng *qmc.RandomSource) qmc.TraceEvaluator {
	if !policy.Stochastic {
		return &exactTrace{h: h, beta: beta}
	}
	n := policy.NSamples
	if n <= 0 {
		n = defaultSamples
	}
	return &stochasticTrace{exact: exactTrace{h: h, beta: beta}, rng: rng, nSamples: n}
}
