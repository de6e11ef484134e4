package qmc

import "fmt"

// Measurement samples the current diagram into a running statistic,
// weighted by the chain's Monte Carlo sign. Invoked once per completed
// sampling cycle, never during proposal evaluation. A measurement mutates
// only its own accumulator.
type Measurement interface {
	Name() string
	Accumulate(sign float64)
	// Histogram exposes the accumulator for reduction. FixedShape reports
	// whether cross-worker reduction must see identical bin counts (true
	// for binned functions of τ, false for growable count tables).
	Histogram() *Histogram
	FixedShape() bool
}

// MeasurementRegistry holds the registered measurements by name. Set before
// the run; accumulators are mutated only in the measurement phase of a
// cycle.
type MeasurementRegistry struct {
	measures []Measurement
}

// Add registers a measurement; names must be unique.
func (r *MeasurementRegistry) Add(m Measurement) error {
	for _, ex := range r.measures {
		if ex.Name() == m.Name() {
			return &ConfigurationError{Field: "measures", Msg: fmt.Sprintf("duplicate measurement %q", m.Name())}
		}
	}
	r.measures = append(r.measures, m)
	return nil
}

// All returns the registered measurements in registration order.
func (r *MeasurementRegistry) All() []Measurement { return r.measures }
