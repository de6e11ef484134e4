package qmc

import "fmt"

// ConfigurationError reports malformed input detected before sampling starts.
type ConfigurationError struct {
	Field string
	Msg   string
}

func (e *ConfigurationError) Error() string {
	if e.Field == "" {
		return "configuration error: " + e.Msg
	}
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Msg)
}

// ConsistencyError reports divergence between the incrementally maintained
// weight and a from-scratch recomputation. It signals a bug in a move's
// incremental update and aborts the run: continuing would accumulate
// statistics against a corrupted weight.
type ConsistencyError struct {
	Component   string // move or measurement that last touched the weight
	Incremental float64
	Recomputed  float64
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("consistency error after %s: incremental weight %g, recomputed %g",
		e.Component, e.Incremental, e.Recomputed)
}

// AggregationError reports disagreement between worker results at the final
// reduction point (mismatched accumulator shapes or measurement sets).
type AggregationError struct {
	Msg string
}

func (e *AggregationError) Error() string {
	return "aggregation error: " + e.Msg
}
