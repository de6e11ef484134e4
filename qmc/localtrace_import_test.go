package qmc_test

// Blank import triggers qmc/localtrace's init(), which registers
// NewTraceEvaluatorFunc. This allows package qmc's internal test files to
// build chains without directly importing qmc/localtrace (which would
// create an import cycle).
import _ "github.com/impurity-sim/impurity-sim/qmc/localtrace"
