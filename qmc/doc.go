// Package qmc provides the continuous-time quantum Monte Carlo engine for
// the impurity solver.
//
// # Reading Guide
//
// Start with these three files to understand the sampling kernel:
//   - operator.go: the diagram (time-ordered operator sequence) and its mutations
//   - scheduler.go: the Metropolis loop, warm-up/sampling cycles, and budgets
//   - solver.go: worker fan-out, seeding, and result reduction
//
// # Architecture
//
// The qmc package defines interfaces and the chain state; implementations
// live in sub-packages:
//   - qmc/localtrace/: local-trace evaluation strategies (exact, stochastic)
//   - qmc/bath/: hybridization function construction from bath parameters
//
// Sub-packages register their implementations via init() functions that set
// package-level factory variables (NewTraceEvaluatorFunc).
//
// # Key Interfaces
//
// The extension points are small interfaces:
//   - Move: propose a diagram mutation and report its Metropolis ratio
//   - Measurement: fold the current diagram into a running accumulator
//   - TraceEvaluator: local-Hamiltonian trace of a diagram
//
// One Scheduler owns one Markov chain; chains never share mutable state.
// Cross-worker coordination happens only in Reduce after all chains finish.
package qmc
