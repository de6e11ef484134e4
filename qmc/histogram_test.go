package qmc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistogram_Ensure(t *testing.T) {
	h := NewHistogram(2)
	h.Bins[1] = 3
	h.Ensure(5)
	require.Len(t, h.Bins, 5)
	assert.Equal(t, 3.0, h.Bins[1])
	assert.Zero(t, h.Bins[4])

	// Ensure never shrinks.
	h.Ensure(1)
	assert.Len(t, h.Bins, 5)
}

func TestHistogram_AddFixedShape(t *testing.T) {
	a := &Histogram{Bins: []float64{1, 2, 3}, Samples: 2}
	b := &Histogram{Bins: []float64{10, 20, 30}, Samples: 5}
	require.NoError(t, a.Add(b, true))
	assert.Equal(t, []float64{11, 22, 33}, a.Bins)
	assert.Equal(t, int64(7), a.Samples)

	short := &Histogram{Bins: []float64{1}}
	err := a.Add(short, true)
	require.Error(t, err)
	var aggErr *AggregationError
	assert.ErrorAs(t, err, &aggErr)
}

func TestHistogram_AddGrowable(t *testing.T) {
	a := &Histogram{Bins: []float64{1, 2}}
	b := &Histogram{Bins: []float64{10, 20, 30, 40}}
	require.NoError(t, a.Add(b, false))
	assert.Equal(t, []float64{11, 22, 30, 40}, a.Bins)
}

func TestHistogram_Clone(t *testing.T) {
	a := &Histogram{Bins: []float64{1, 2}, Samples: 1}
	c := a.Clone()
	c.Bins[0] = 99
	c.Samples = 7
	assert.Equal(t, 1.0, a.Bins[0])
	assert.Equal(t, int64(1), a.Samples)
}

func TestHistogram_MeanIndex(t *testing.T) {
	assert.Zero(t, NewHistogram(4).MeanIndex())

	h := &Histogram{Bins: []float64{0, 1, 0, 1}}
	assert.InDelta(t, 2.0, h.MeanIndex(), 1e-12)

	peaked := &Histogram{Bins: []float64{0, 0, 0, 5}}
	assert.InDelta(t, 3.0, peaked.MeanIndex(), 1e-12)
}
